package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// CreateInvitationRequest is the request body for POST /invitations.
type CreateInvitationRequest struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Validate implements Validator.
func (c CreateInvitationRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(c.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if c.Role != "" && !domain.UserRole(c.Role).Valid() {
		errs = append(errs, "role must be \"user\" or \"admin\"")
	}
	return errs
}

// InvitationController handles invitation endpoints.
type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

// NewInvitationController creates an InvitationController.
func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{Logger: logger, Service: svc}
}

// Create godoc
// @Summary Invite someone by email
// @Description Only admins may invite with role admin. The invitation expires after 7 days.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateInvitationRequest true "Invitation"
// @Success 201 {object} helpers.APIResponse{data=domain.Invitation}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (pending invitation exists)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations [post]
func (c *InvitationController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req CreateInvitationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	inv, err := c.Service.Create(r.Context(), p, strings.TrimSpace(strings.ToLower(req.Email)), req.Message, domain.UserRole(req.Role))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, inv)
}

// Accept godoc
// @Summary Accept an invitation
// @Description The caller's email must match the invited address.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TokenRequest true "Invitation token"
// @Success 200 {object} helpers.APIResponse{data=domain.Invitation}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (unknown, used or expired token)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (email mismatch)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/accept [post]
func (c *InvitationController) Accept(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req TokenRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	inv, err := c.Service.Accept(r.Context(), p, strings.TrimSpace(req.Token))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}

// Revoke godoc
// @Summary Revoke a pending invitation
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} controllers.StatusSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{invitationID} [delete]
func (c *InvitationController) Revoke(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	invitationID, ok := helpers.PathUUID(w, r, "invitationID")
	if !ok {
		return
	}
	if err := c.Service.Revoke(r.Context(), p, invitationID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.StatusResponse{Status: "revoked"})
}

// ListSent godoc
// @Summary Invitations I sent
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse{data=helpers.ListResponse{items=[]domain.Invitation}}
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/sent [get]
func (c *InvitationController) ListSent(w http.ResponseWriter, r *http.Request) {
	c.list(w, r, c.Service.ListSent)
}

// ListReceived godoc
// @Summary Invitations sent to my email
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse{data=helpers.ListResponse{items=[]domain.Invitation}}
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/received [get]
func (c *InvitationController) ListReceived(w http.ResponseWriter, r *http.Request) {
	c.list(w, r, c.Service.ListReceived)
}

func (c *InvitationController) list(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, caller domain.Principal, params domain.PaginationParams) ([]*domain.Invitation, int, error)) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	invitations, total, err := fn(r.Context(), p, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WritePage(w, orEmpty(invitations), params, total)
}
