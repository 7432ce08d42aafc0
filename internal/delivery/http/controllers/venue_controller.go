package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// VenueRequest is the request body for POST /venues.
type VenueRequest struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Capacity  int      `json:"capacity"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Validate implements Validator.
func (v VenueRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(v.Name) == "" {
		errs = append(errs, "name is required")
	}
	if v.Capacity < 0 {
		errs = append(errs, "capacity must be >= 0")
	}
	if (v.Latitude == nil) != (v.Longitude == nil) {
		errs = append(errs, "latitude and longitude must be given together")
	}
	return errs
}

// UpdateVenueRequest is the request body for PATCH /venues/{venueID}.
type UpdateVenueRequest struct {
	Name      *string  `json:"name"`
	Address   *string  `json:"address"`
	City      *string  `json:"city"`
	Country   *string  `json:"country"`
	Capacity  *int     `json:"capacity"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Validate implements Validator.
func (u UpdateVenueRequest) Validate() []string {
	var errs []string
	if u.Name == nil && u.Address == nil && u.City == nil && u.Country == nil && u.Capacity == nil && u.Latitude == nil && u.Longitude == nil {
		errs = append(errs, "no fields to update")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs = append(errs, "name cannot be empty")
	}
	if u.Capacity != nil && *u.Capacity < 0 {
		errs = append(errs, "capacity must be >= 0")
	}
	return errs
}

// VenueController handles venue endpoints.
type VenueController struct {
	Logger  *slog.Logger
	Service domain.VenueService
}

// NewVenueController creates a VenueController.
func NewVenueController(logger *slog.Logger, svc domain.VenueService) *VenueController {
	return &VenueController{Logger: logger, Service: svc}
}

// List godoc
// @Summary List venues
// @Tags venues
// @Produce json
// @Param q query string false "Search on name and address"
// @Param city query string false "City"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse{data=helpers.ListResponse{items=[]domain.Venue}}
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /venues [get]
func (c *VenueController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.VenueFilter{
		Search: strings.TrimSpace(q.Get("q")),
		City:   strings.TrimSpace(q.Get("city")),
	}
	params := helpers.ParsePagination(r)
	venues, total, err := c.Service.List(r.Context(), filter, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WritePage(w, orEmpty(venues), params, total)
}

// Create godoc
// @Summary Create a venue
// @Description Admin only.
// @Tags venues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body VenueRequest true "Venue data"
// @Success 201 {object} helpers.APIResponse{data=domain.Venue}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /venues [post]
func (c *VenueController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req VenueRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	venue := &domain.Venue{
		Name:      strings.TrimSpace(req.Name),
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
		Capacity:  req.Capacity,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := c.Service.Create(r.Context(), p, venue); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, venue)
}

// Get godoc
// @Summary Get a venue
// @Tags venues
// @Produce json
// @Param venueID path string true "Venue ID"
// @Success 200 {object} helpers.APIResponse{data=domain.Venue}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /venues/{venueID} [get]
func (c *VenueController) Get(w http.ResponseWriter, r *http.Request) {
	venueID, ok := helpers.PathUUID(w, r, "venueID")
	if !ok {
		return
	}
	venue, err := c.Service.Get(r.Context(), venueID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, venue)
}

// Update godoc
// @Summary Update a venue
// @Description Admin only.
// @Tags venues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param venueID path string true "Venue ID"
// @Param body body UpdateVenueRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse{data=domain.Venue}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /venues/{venueID} [patch]
func (c *VenueController) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	venueID, ok := helpers.PathUUID(w, r, "venueID")
	if !ok {
		return
	}
	var req UpdateVenueRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	venue, err := c.Service.Update(r.Context(), p, venueID, domain.VenueUpdate{
		Name:      req.Name,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
		Capacity:  req.Capacity,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, venue)
}

// Delete godoc
// @Summary Delete a venue
// @Description Admin only. Events at the venue keep existing without a venue.
// @Tags venues
// @Produce json
// @Security BearerAuth
// @Param venueID path string true "Venue ID"
// @Success 200 {object} controllers.StatusSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /venues/{venueID} [delete]
func (c *VenueController) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	venueID, ok := helpers.PathUUID(w, r, "venueID")
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), p, venueID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, deleted())
}
