package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"folio/pkg/folio"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok", Driver: h.core.Driver()}
	if err := h.core.Ping(); err != nil {
		h.logger.Error("health check failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, Response{Code: http.StatusServiceUnavailable, Data: resp})
		return
	}
	writeSuccess(w, resp)
}

func (h *handler) getAssetTypes(w http.ResponseWriter, r *http.Request) {
	result, err := h.core.ListAssetTypes(r.Context())
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, result)
}

func (h *handler) getOperationLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := queryInt(query, "limit", 50)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	offset, err := queryInt(query, "offset", 0)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	if limit > folio.MaxPageLimit {
		limit = folio.MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	result, err := h.core.GetOperationLogs(r.Context(), userIDFrom(r), limit, offset)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeSuccess(w, result)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequest("request body exceeds %d bytes", tooLarge.Limit)
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// pathID returns the {id} URL parameter, rejecting anything that is not a UUID.
func pathID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if !folio.IsValidID(id) {
		return "", badRequest("invalid id")
	}
	return id, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(query url.Values, name string, fallback int) (int, error) {
	value := query.Get(name)
	if value == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, badRequest("%s must be an integer", name)
	}
	return i, nil
}
