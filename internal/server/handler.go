package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/harshithgowdakt/granulekey/internal/storage"
)

// QueryHandler runs index analysis for queries received via HTTP.
type QueryHandler struct {
	table    *storage.Table
	selector *storage.Selector
	logger   *zap.Logger
}

// NewQueryHandler creates a handler analyzing queries against table.
func NewQueryHandler(table *storage.Table, selector *storage.Selector, logger *zap.Logger) *QueryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryHandler{table: table, selector: selector, logger: logger}
}

// readQuery extracts the query text from the query parameter or the body and
// parses it. It writes the error response itself and reports false on failure.
func (h *QueryHandler) readQuery(w http.ResponseWriter, r *http.Request) (storage.QueryInfo, bool) {
	query := r.URL.Query().Get("query")
	if query == "" && r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return storage.QueryInfo{}, false
		}
		query = strings.TrimSpace(string(body))
	}
	if query == "" {
		http.Error(w, "empty query", http.StatusBadRequest)
		return storage.QueryInfo{}, false
	}

	info, err := storage.ParseQuery(query)
	if err != nil {
		http.Error(w, fmt.Sprintf("parse error: %v", err), http.StatusBadRequest)
		return storage.QueryInfo{}, false
	}
	return info, true
}

// HandleExplain writes the compiled primary key condition of a query.
func (h *QueryHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	info, ok := h.readQuery(w, r)
	if !ok {
		return
	}
	kc := storage.NewKeyCondition(info, h.table.Schema.SortDescription())
	useless, err := kc.AlwaysUnknownOrTrue()
	if err != nil {
		h.logger.Error("explain failed", zap.Error(err))
		http.Error(w, fmt.Sprintf("analysis error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "condition\t%s\n", kc)
	fmt.Fprintf(w, "always_unknown_or_true\t%t\n", useless)
}

// HandleSelect writes the mark ranges of every part that may match a query.
func (h *QueryHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	info, ok := h.readQuery(w, r)
	if !ok {
		return
	}
	format := ParseFormat(r.URL.Query().Get("format"))

	sels, counters, err := h.selector.FilterParts(r.Context(), info, h.table.Schema, h.table.Parts)
	if err != nil {
		h.logger.Error("index analysis failed", zap.Error(err))
		http.Error(w, fmt.Sprintf("analysis error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if err := FormatSelections(w, sels, counters, format); err != nil {
		h.logger.Warn("writing response failed", zap.Error(err))
	}
}

// HandlePing responds with "Ok." for health checks.
func (h *QueryHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Ok.")
}
