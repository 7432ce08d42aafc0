package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"

	"github.com/google/uuid"
)

// AuditController exposes the audit log to admins.
type AuditController struct {
	Logger  *slog.Logger
	Service domain.AuditService
}

// NewAuditController creates an AuditController.
func NewAuditController(logger *slog.Logger, svc domain.AuditService) *AuditController {
	return &AuditController{Logger: logger, Service: svc}
}

// List godoc
// @Summary List audit log entries
// @Description Admin only. Newest first.
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "Acting user ID"
// @Param entity_type query string false "Entity type, e.g. event"
// @Param entity_id query string false "Entity ID"
// @Param action query string false "Action, e.g. event.publish"
// @Param since query string false "RFC 3339 lower bound on created_at"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse{data=helpers.ListResponse{items=[]domain.AuditLog}}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /audit-logs [get]
func (c *AuditController) List(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := domain.AuditFilter{
		UserID:     strings.TrimSpace(q.Get("user_id")),
		EntityType: strings.TrimSpace(q.Get("entity_type")),
		EntityID:   strings.TrimSpace(q.Get("entity_id")),
		Action:     strings.TrimSpace(q.Get("action")),
	}
	if filter.UserID != "" {
		id, err := uuid.Parse(filter.UserID)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid user_id")
			return
		}
		filter.UserID = id.String()
	}
	since, err := helpers.QueryTime(r, "since")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "since must be RFC 3339")
		return
	}
	filter.Since = since
	params := helpers.ParsePagination(r)
	entries, total, err := c.Service.List(r.Context(), p, filter, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WritePage(w, orEmpty(entries), params, total)
}
