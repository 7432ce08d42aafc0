package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// SetConsentRequest is the request body for PUT /users/me/consents/{type}.
type SetConsentRequest struct {
	Granted *bool  `json:"granted"`
	Version string `json:"version"`
}

// Validate implements Validator.
func (s SetConsentRequest) Validate() []string {
	if s.Granted == nil {
		return []string{"granted is required"}
	}
	return nil
}

// ConsentController handles the current user's consents.
type ConsentController struct {
	Logger  *slog.Logger
	Service domain.ConsentService
}

// NewConsentController creates a ConsentController.
func NewConsentController(logger *slog.Logger, svc domain.ConsentService) *ConsentController {
	return &ConsentController{Logger: logger, Service: svc}
}

// List godoc
// @Summary List my consents
// @Tags consents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse{data=[]domain.Consent}
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/consents [get]
func (c *ConsentController) List(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	consents, err := c.Service.List(r.Context(), p.UserID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, orEmpty(consents))
}

// Set godoc
// @Summary Grant or withdraw a consent
// @Description terms_of_service cannot be withdrawn. Version defaults to the current policy version.
// @Tags consents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type path string true "Consent type" Enums(terms_of_service, privacy_policy, marketing_emails, analytics)
// @Param body body SetConsentRequest true "Decision"
// @Success 200 {object} helpers.APIResponse{data=domain.Consent}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/consents/{type} [put]
func (c *ConsentController) Set(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req SetConsentRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	t := domain.ConsentType(strings.ToLower(r.PathValue("type")))
	consent, err := c.Service.Set(r.Context(), p.UserID, t, *req.Granted, strings.TrimSpace(req.Version), domain.ClientIP(r.Context()))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, consent)
}
