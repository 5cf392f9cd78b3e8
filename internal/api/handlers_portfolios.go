package api

import (
	"net/http"

	"folio/pkg/folio"
)

func (h *handler) listPortfolios(w http.ResponseWriter, r *http.Request) {
	result, err := h.core.ListPortfolios(r.Context(), userIDFrom(r))
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, result)
}

func (h *handler) createPortfolio(w http.ResponseWriter, r *http.Request) {
	var payload folio.CreatePortfolioRequest
	if err := decodeJSON(r, &payload); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	portfolio, err := h.core.CreatePortfolio(r.Context(), userIDFrom(r), payload)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeCreated(w, portfolio)
}

func (h *handler) getPortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	portfolio, err := h.core.GetPortfolio(r.Context(), userIDFrom(r), id)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, portfolio)
}

func (h *handler) updatePortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	var payload folio.UpdatePortfolioRequest
	if err := decodeJSON(r, &payload); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	portfolio, err := h.core.UpdatePortfolio(r.Context(), userIDFrom(r), id, payload)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, portfolio)
}

func (h *handler) deletePortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	if err := h.core.DeletePortfolio(r.Context(), userIDFrom(r), id); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccessWithMessage(w, "Portfolio deleted", nil)
}

func (h *handler) getPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	summary, err := h.core.GetPortfolioSummary(r.Context(), userIDFrom(r), id)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, summary)
}

func (h *handler) listPortfolioInvestments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	result, err := h.core.ListInvestments(r.Context(), userIDFrom(r), id)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, result)
}

func (h *handler) listPortfolioTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	filter, err := parseTransactionFilter(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	page, err := h.core.ListTransactions(r.Context(), userIDFrom(r), id, filter)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, page)
}

func parseTransactionFilter(r *http.Request) (folio.TransactionFilter, error) {
	query := r.URL.Query()
	filter := folio.TransactionFilter{Type: folio.TransactionType(query.Get("type"))}
	var err error
	if filter.Page, err = queryInt(query, "page", 1); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(query, "limit", folio.DefaultPageLimit); err != nil {
		return filter, err
	}
	if value := query.Get("startDate"); value != "" {
		start, err := folio.ParseDate(value, false)
		if err != nil {
			return filter, err
		}
		filter.StartDate = &start
	}
	if value := query.Get("endDate"); value != "" {
		end, err := folio.ParseDate(value, true)
		if err != nil {
			return filter, err
		}
		filter.EndDate = &end
	}
	return filter, nil
}
