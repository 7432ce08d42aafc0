package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"

	"github.com/shopspring/decimal"
)

// CreateShowRequest is the request body for POST /events/{eventID}/shows.
// Price accepts a JSON number or string.
type CreateShowRequest struct {
	Title      string          `json:"title"`
	StartsAt   time.Time       `json:"starts_at"`
	EndsAt     *time.Time      `json:"ends_at"`
	Price      decimal.Decimal `json:"price" swaggertype:"string"`
	Currency   string          `json:"currency"`
	SeatsTotal int             `json:"seats_total"`
}

// Validate implements Validator.
func (c CreateShowRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.StartsAt.IsZero() {
		errs = append(errs, "starts_at is required")
	}
	if c.Price.IsNegative() {
		errs = append(errs, "price must be >= 0")
	}
	if c.SeatsTotal < 0 {
		errs = append(errs, "seats_total must be >= 0")
	}
	return errs
}

// UpdateShowRequest is the request body for PATCH /events/{eventID}/shows/{showID}.
type UpdateShowRequest struct {
	Title      *string          `json:"title"`
	StartsAt   *time.Time       `json:"starts_at"`
	EndsAt     *time.Time       `json:"ends_at"`
	Price      *decimal.Decimal `json:"price" swaggertype:"string"`
	Currency   *string          `json:"currency"`
	SeatsTotal *int             `json:"seats_total"`
}

// Validate implements Validator.
func (u UpdateShowRequest) Validate() []string {
	var errs []string
	if u.Title == nil && u.StartsAt == nil && u.EndsAt == nil && u.Price == nil && u.Currency == nil && u.SeatsTotal == nil {
		errs = append(errs, "no fields to update")
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.Price != nil && u.Price.IsNegative() {
		errs = append(errs, "price must be >= 0")
	}
	if u.SeatsTotal != nil && *u.SeatsTotal < 0 {
		errs = append(errs, "seats_total must be >= 0")
	}
	return errs
}

// ShowController handles shows under an event.
type ShowController struct {
	Logger  *slog.Logger
	Service domain.ShowService
}

// NewShowController creates a ShowController.
func NewShowController(logger *slog.Logger, svc domain.ShowService) *ShowController {
	return &ShowController{Logger: logger, Service: svc}
}

// List godoc
// @Summary List shows of an event
// @Tags shows
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse{data=[]domain.Show}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/shows [get]
func (c *ShowController) List(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	shows, err := c.Service.List(r.Context(), middleware.OptionalPrincipal(r.Context()), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, orEmpty(shows))
}

// Create godoc
// @Summary Add a show to an event
// @Description Owner or admin. The show cannot start before the event. Currency defaults to USD.
// @Tags shows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body CreateShowRequest true "Show data"
// @Success 201 {object} helpers.APIResponse{data=domain.Show}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/shows [post]
func (c *ShowController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req CreateShowRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	show := &domain.Show{
		EventID:    eventID,
		Title:      strings.TrimSpace(req.Title),
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Price:      req.Price,
		Currency:   req.Currency,
		SeatsTotal: req.SeatsTotal,
	}
	if err := c.Service.Create(r.Context(), p, show); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, show)
}

// Summary godoc
// @Summary Price summary of an event's shows
// @Tags shows
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse{data=domain.PriceSummary}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/shows/summary [get]
func (c *ShowController) Summary(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	summary, err := c.Service.PriceSummary(r.Context(), middleware.OptionalPrincipal(r.Context()), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summary)
}

// Update godoc
// @Summary Update a show
// @Tags shows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param showID path string true "Show ID"
// @Param body body UpdateShowRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse{data=domain.Show}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/shows/{showID} [patch]
func (c *ShowController) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	showID, ok := helpers.PathUUID(w, r, "showID")
	if !ok {
		return
	}
	var req UpdateShowRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	show, err := c.Service.Update(r.Context(), p, eventID, showID, domain.ShowUpdate{
		Title:      req.Title,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Price:      req.Price,
		Currency:   req.Currency,
		SeatsTotal: req.SeatsTotal,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, show)
}

// Delete godoc
// @Summary Delete a show
// @Tags shows
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param showID path string true "Show ID"
// @Success 200 {object} controllers.StatusSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/shows/{showID} [delete]
func (c *ShowController) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	showID, ok := helpers.PathUUID(w, r, "showID")
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), p, eventID, showID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, deleted())
}
