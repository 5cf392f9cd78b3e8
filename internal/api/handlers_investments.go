package api

import (
	"net/http"

	"folio/pkg/folio"
)

func (h *handler) createInvestment(w http.ResponseWriter, r *http.Request) {
	var payload folio.CreateInvestmentRequest
	if err := decodeJSON(r, &payload); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	if !folio.IsValidID(payload.PortfolioID) {
		h.writeErrorResponse(w, r, badRequest("invalid portfolioId"))
		return
	}
	investment, err := h.core.CreateInvestment(r.Context(), userIDFrom(r), payload)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeCreated(w, investment)
}

func (h *handler) getInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	investment, err := h.core.GetInvestment(r.Context(), userIDFrom(r), id)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, investment)
}

func (h *handler) updateInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	var payload folio.UpdateInvestmentRequest
	if err := decodeJSON(r, &payload); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	investment, err := h.core.UpdateInvestment(r.Context(), userIDFrom(r), id, payload)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, investment)
}

func (h *handler) deleteInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	if err := h.core.DeleteInvestment(r.Context(), userIDFrom(r), id); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccessWithMessage(w, "Investment deleted", nil)
}

func (h *handler) listInvestmentTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	result, err := h.core.ListInvestmentTransactions(r.Context(), userIDFrom(r), id)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, result)
}
