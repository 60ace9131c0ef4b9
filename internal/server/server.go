// Package server exposes the converter over HTTP: a form page on GET and a
// deck download on POST, matching the single-page surface of the service.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maximecaruchet/html2pptx/internal/app"
	"github.com/maximecaruchet/html2pptx/internal/builder"
	"github.com/maximecaruchet/html2pptx/internal/dom"
	"github.com/maximecaruchet/html2pptx/internal/fetch"
	"github.com/maximecaruchet/html2pptx/internal/partition"
)

//go:embed index.html
var indexPage []byte

// Converter is the minimal application surface the server needs.
type Converter interface {
	Convert(ctx context.Context, pageURL, selector string) (*app.ConvertResult, error)
}

// Handler serves the form page and runs conversions.
type Handler struct {
	App Converter
	// RequestTimeout bounds one conversion end to end. Zero means 60s.
	RequestTimeout time.Duration
}

// Routes returns the http.Handler for the service.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.index)
	return mux
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexPage)
	case http.MethodPost:
		h.convert(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	pageURL := strings.TrimSpace(r.PostFormValue("url"))
	selector := strings.TrimSpace(r.PostFormValue("selector"))
	if pageURL == "" || selector == "" {
		http.Error(w, "both url and selector are required", http.StatusBadRequest)
		return
	}

	timeout := h.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	res, err := h.App.Convert(ctx, pageURL, selector)
	if err != nil {
		status, msg := mapError(err)
		log.Warn().Err(err).Str("url", pageURL).Str("selector", selector).Msg("conversion failed")
		http.Error(w, msg, status)
		return
	}

	// Recoverable problems ride along as a response header so the download
	// still succeeds while omissions stay visible.
	if res.Build != nil && len(res.Build.Issues) > 0 {
		if b, err := json.Marshal(res.Build.Issues); err == nil {
			w.Header().Set("X-Html2pptx-Issues", string(b))
		}
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="presentation.pptx"`)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(res.PPTX)))
	_, _ = w.Write(res.PPTX)
}

// mapError translates pipeline failures into HTTP statuses with messages that
// name the failing input, per the error reporting contract.
func mapError(err error) (int, string) {
	var fe *fetch.Error
	if errors.As(err, &fe) {
		return http.StatusBadGateway, fe.Error()
	}
	var se *dom.SelectorError
	if errors.As(err, &se) {
		return http.StatusUnprocessableEntity, se.Error()
	}
	switch {
	case errors.Is(err, partition.ErrNoChildren):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, builder.ErrEmptyDeck):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "conversion timed out"
	}
	return http.StatusInternalServerError, "conversion failed: " + err.Error()
}

// ListenAndServe starts the HTTP server on the given port.
func ListenAndServe(port int, h *Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Int("port", port).Msg("serving")
	return srv.ListenAndServe()
}
