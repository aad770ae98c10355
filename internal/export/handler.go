package export

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	errors "github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/auth"
	"github.com/frahmantamala/budget-tracker/internal/transaction"
	"github.com/frahmantamala/budget-tracker/internal/transport"
)

type Source interface {
	Transactions(ctx context.Context, userID string) ([]transaction.Transaction, error)
}

type Handler struct {
	*transport.BaseHandler
	Source        Source
	DefaultFormat Format
	Clock         errors.Clock
}

func NewHandler(baseHandler *transport.BaseHandler, source Source, defaultFormat Format, clock errors.Clock) *Handler {
	if defaultFormat == "" {
		defaultFormat = FormatCSV
	}
	return &Handler{
		BaseHandler:   baseHandler,
		Source:        source,
		DefaultFormat: defaultFormat,
		Clock:         clock,
	}
}

// ExportTransactions honours the list filters and sort but not paging.
func (h *Handler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	format, err := ParseFormat(r.URL.Query().Get("format"), h.DefaultFormat)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	q, appErr := transaction.ParseListQuery(r.URL.Query())
	if appErr != nil {
		h.HandleServiceError(w, appErr)
		return
	}

	items, err := h.Source.Transactions(r.Context(), userID)
	if err != nil {
		h.Log(r).Error("failed to read transactions for export", "user_id", userID, "error", err)
		h.HandleServiceError(w, errors.NewExternalError("failed to load transactions", err))
		return
	}

	var buf bytes.Buffer
	if err := Write(&buf, format, q.Select(items)); err != nil {
		h.HandleServiceError(w, errors.NewInternalError("failed to build export", err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", format.FileName(h.Clock.Now())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
