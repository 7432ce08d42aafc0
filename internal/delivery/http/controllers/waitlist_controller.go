package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

// JoinWaitlistRequest is the request body for POST /events/{eventID}/waitlist.
// Authenticated callers may omit email and name; their profile is used.
type JoinWaitlistRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Validate implements Validator.
func (j JoinWaitlistRequest) Validate() []string {
	email := strings.TrimSpace(j.Email)
	if email != "" && !emailRegexp.MatchString(strings.ToLower(email)) {
		return []string{"invalid email format"}
	}
	return nil
}

// NotifyWaitlistRequest is the request body for POST /events/{eventID}/waitlist/notify.
type NotifyWaitlistRequest struct {
	Count int `json:"count"`
}

// Validate implements Validator.
func (n NotifyWaitlistRequest) Validate() []string {
	if n.Count < 0 {
		return []string{"count must be >= 0"}
	}
	return nil
}

// WaitlistController handles waitlist endpoints.
type WaitlistController struct {
	Logger  *slog.Logger
	Service domain.WaitlistService
}

// NewWaitlistController creates a WaitlistController.
func NewWaitlistController(logger *slog.Logger, svc domain.WaitlistService) *WaitlistController {
	return &WaitlistController{Logger: logger, Service: svc}
}

// Join godoc
// @Summary Join an event waitlist
// @Description The event must be published with the waitlist enabled. Anonymous callers must give an email.
// @Tags waitlist
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param body body JoinWaitlistRequest true "Contact details"
// @Success 201 {object} helpers.APIResponse{data=domain.WaitlistEntry}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized (bad token)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/waitlist [post]
func (c *WaitlistController) Join(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req JoinWaitlistRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	caller := middleware.OptionalPrincipal(r.Context())
	if caller == nil && strings.TrimSpace(req.Email) == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "email is required")
		return
	}
	entry, err := c.Service.Join(r.Context(), caller, eventID, req.Email, strings.TrimSpace(req.Name))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, entry)
}

// List godoc
// @Summary List an event waitlist
// @Description Event owner or admin.
// @Tags waitlist
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param status query string false "waiting, notified, converted or cancelled"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse{data=helpers.ListResponse{items=[]domain.WaitlistEntry}}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/waitlist [get]
func (c *WaitlistController) List(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	status := domain.WaitlistStatus(strings.ToLower(r.URL.Query().Get("status")))
	params := helpers.ParsePagination(r)
	entries, total, err := c.Service.List(r.Context(), p, eventID, status, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WritePage(w, orEmpty(entries), params, total)
}

// ListMine godoc
// @Summary List my waitlist entries
// @Tags waitlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse{data=[]domain.WaitlistEntryWithEvent}
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/waitlist [get]
func (c *WaitlistController) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	entries, err := c.Service.ListMine(r.Context(), p.UserID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, orEmpty(entries))
}

// Notify godoc
// @Summary Notify the next people on the waitlist
// @Description Marks the next count waiting entries as notified and emails them. Mail failures are reported in data.failed.
// @Tags waitlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body NotifyWaitlistRequest true "How many to notify (default 1, max 100)"
// @Success 200 {object} helpers.APIResponse{data=domain.NotifyResult}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/waitlist/notify [post]
func (c *WaitlistController) Notify(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req NotifyWaitlistRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := c.Service.NotifyNext(r.Context(), p, eventID, req.Count)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// Leave godoc
// @Summary Leave a waitlist
// @Description The entry's user, the event owner or an admin. Positions of other entries are kept.
// @Tags waitlist
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param entryID path string true "Entry ID"
// @Success 200 {object} controllers.StatusSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/waitlist/{entryID} [delete]
func (c *WaitlistController) Leave(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	entryID, ok := helpers.PathUUID(w, r, "entryID")
	if !ok {
		return
	}
	if err := c.Service.Leave(r.Context(), p, eventID, entryID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.StatusResponse{Status: "cancelled"})
}

// Convert godoc
// @Summary Mark a waitlist entry as converted
// @Tags waitlist
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param entryID path string true "Entry ID"
// @Success 200 {object} helpers.APIResponse{data=domain.WaitlistEntry}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/waitlist/{entryID}/convert [post]
func (c *WaitlistController) Convert(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	entryID, ok := helpers.PathUUID(w, r, "entryID")
	if !ok {
		return
	}
	entry, err := c.Service.Convert(r.Context(), p, eventID, entryID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, entry)
}
