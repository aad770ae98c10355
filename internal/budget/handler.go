package budget

import (
	"context"
	"net/http"

	"github.com/frahmantamala/budget-tracker/internal/auth"
	"github.com/frahmantamala/budget-tracker/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, userID string) ([]Budget, error)
	Upsert(ctx context.Context, userID string, dto BudgetDTO) (*Budget, error)
	Delete(ctx context.Context, userID string, id int64) error
	Usage(ctx context.Context, userID string) (*UsageResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) GetBudgets(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	budgets, err := h.Service.List(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, BudgetsResponse{Budgets: budgets})
}

func (h *Handler) UpsertBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto BudgetDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	saved, err := h.Service.Upsert(r.Context(), userID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, saved)
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), userID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetBudgetUsage(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	report, err := h.Service.Usage(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}
