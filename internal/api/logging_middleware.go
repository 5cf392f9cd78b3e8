package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"folio/pkg/folio"
)

// accessLogWriter captures what handlers learn about a request so the access
// log can report it after the response is written.
type accessLogWriter struct {
	middleware.WrapResponseWriter
	errorMessage string
	userID       string
}

func newAccessLogWriter(w http.ResponseWriter, r *http.Request) *accessLogWriter {
	return &accessLogWriter{WrapResponseWriter: middleware.NewWrapResponseWriter(w, r.ProtoMajor)}
}

// SetErrorMessage records the client-facing error message.
func (w *accessLogWriter) SetErrorMessage(message string) {
	w.errorMessage = message
}

// SetUserID records the authenticated user.
func (w *accessLogWriter) SetUserID(id string) {
	w.userID = id
}

func (w *accessLogWriter) Flush() {
	if flusher, ok := w.WrapResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// requestFields are the attributes shared by the access log and panic log.
// Route and resource id are only known once chi has matched the request.
func requestFields(r *http.Request) []any {
	fields := []any{
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			fields = append(fields, "route", pattern)
		}
		if id := rctx.URLParam("id"); id != "" {
			fields = append(fields, "resource_id", id)
		}
	}
	if r.URL.RawQuery != "" {
		fields = append(fields, "query", r.URL.RawQuery)
	}
	return append(fields, "remote_ip", r.RemoteAddr)
}

func requestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			aw := newAccessLogWriter(w, r)
			next.ServeHTTP(aw, r)

			status := aw.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := append(requestFields(r),
				"status", status,
				"bytes", aw.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			if aw.userID != "" {
				fields = append(fields, "user_id", aw.userID)
			}
			if aw.errorMessage != "" {
				fields = append(fields, "error_message", aw.errorMessage)
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request completed", fields...)
		})
	}
}

// recoveryLoggingMiddleware turns a handler panic into a logged 500 with the
// usual error envelope, unless the handler already started the response.
func recoveryLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				logger.Error("panic recovered", append(requestFields(r),
					"panic", fmt.Sprint(recovered),
					"stack", string(debug.Stack()),
				)...)

				if sw, ok := w.(interface{ Status() int }); ok && sw.Status() != 0 {
					return
				}
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{
					Code:      http.StatusInternalServerError,
					Message:   internalErrorMessage,
					ErrorCode: string(folio.ErrCodeInternal),
					RequestID: middleware.GetReqID(r.Context()),
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
