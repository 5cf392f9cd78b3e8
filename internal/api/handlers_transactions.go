package api

import "net/http"

func (h *handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var payload createTransactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	txn, err := h.core.RecordTransaction(r.Context(), userIDFrom(r), req)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeCreated(w, txn)
}

func (h *handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	txn, err := h.core.GetTransaction(r.Context(), userIDFrom(r), id)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, txn)
}
