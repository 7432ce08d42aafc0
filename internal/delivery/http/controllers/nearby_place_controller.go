package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

// NearbyPlaceRequest is the request body for POST /events/{eventID}/nearby-places.
// distance_meters is computed from the venue when omitted and both sides have coordinates.
type NearbyPlaceRequest struct {
	Name           string   `json:"name"`
	Kind           string   `json:"kind"`
	Address        string   `json:"address"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	DistanceMeters *int     `json:"distance_meters"`
	URL            string   `json:"url"`
}

// Validate implements Validator.
func (n NearbyPlaceRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(n.Name) == "" {
		errs = append(errs, "name is required")
	}
	if n.Kind != "" && !domain.PlaceKind(n.Kind).Valid() {
		errs = append(errs, "unknown kind")
	}
	if (n.Latitude == nil) != (n.Longitude == nil) {
		errs = append(errs, "latitude and longitude must be given together")
	}
	if n.DistanceMeters != nil && *n.DistanceMeters < 0 {
		errs = append(errs, "distance_meters must be >= 0")
	}
	return errs
}

// UpdateNearbyPlaceRequest is the request body for PATCH /events/{eventID}/nearby-places/{placeID}.
type UpdateNearbyPlaceRequest struct {
	Name           *string  `json:"name"`
	Kind           *string  `json:"kind"`
	Address        *string  `json:"address"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	DistanceMeters *int     `json:"distance_meters"`
	URL            *string  `json:"url"`
}

// Validate implements Validator.
func (u UpdateNearbyPlaceRequest) Validate() []string {
	var errs []string
	if u.Name == nil && u.Kind == nil && u.Address == nil && u.Latitude == nil && u.Longitude == nil && u.DistanceMeters == nil && u.URL == nil {
		errs = append(errs, "no fields to update")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs = append(errs, "name cannot be empty")
	}
	if u.Kind != nil && !domain.PlaceKind(*u.Kind).Valid() {
		errs = append(errs, "unknown kind")
	}
	if u.DistanceMeters != nil && *u.DistanceMeters < 0 {
		errs = append(errs, "distance_meters must be >= 0")
	}
	return errs
}

// NearbyPlaceController handles nearby places under an event.
type NearbyPlaceController struct {
	Logger  *slog.Logger
	Service domain.NearbyPlaceService
}

// NewNearbyPlaceController creates a NearbyPlaceController.
func NewNearbyPlaceController(logger *slog.Logger, svc domain.NearbyPlaceService) *NearbyPlaceController {
	return &NearbyPlaceController{Logger: logger, Service: svc}
}

// List godoc
// @Summary List places near an event
// @Description Ordered by distance (unknown last), then name.
// @Tags nearby-places
// @Produce json
// @Param eventID path string true "Event ID"
// @Param kind query string false "Filter by kind"
// @Success 200 {object} helpers.APIResponse{data=[]domain.NearbyPlace}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/nearby-places [get]
func (c *NearbyPlaceController) List(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	kind := domain.PlaceKind(strings.ToLower(r.URL.Query().Get("kind")))
	if kind != "" && !kind.Valid() {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "unknown kind")
		return
	}
	places, err := c.Service.List(r.Context(), middleware.OptionalPrincipal(r.Context()), eventID, kind)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, orEmpty(places))
}

// Create godoc
// @Summary Add a nearby place
// @Tags nearby-places
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body NearbyPlaceRequest true "Place data"
// @Success 201 {object} helpers.APIResponse{data=domain.NearbyPlace}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/nearby-places [post]
func (c *NearbyPlaceController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req NearbyPlaceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	place := &domain.NearbyPlace{
		EventID:        eventID,
		Name:           strings.TrimSpace(req.Name),
		Kind:           domain.PlaceKind(req.Kind),
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		DistanceMeters: req.DistanceMeters,
		URL:            strings.TrimSpace(req.URL),
	}
	if err := c.Service.Create(r.Context(), p, place); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, place)
}

// Update godoc
// @Summary Update a nearby place
// @Tags nearby-places
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param placeID path string true "Place ID"
// @Param body body UpdateNearbyPlaceRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse{data=domain.NearbyPlace}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/nearby-places/{placeID} [patch]
func (c *NearbyPlaceController) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	placeID, ok := helpers.PathUUID(w, r, "placeID")
	if !ok {
		return
	}
	var req UpdateNearbyPlaceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	upd := domain.NearbyPlaceUpdate{
		Name:           req.Name,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		DistanceMeters: req.DistanceMeters,
		URL:            req.URL,
	}
	if req.Kind != nil {
		kind := domain.PlaceKind(*req.Kind)
		upd.Kind = &kind
	}
	place, err := c.Service.Update(r.Context(), p, eventID, placeID, upd)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, place)
}

// Delete godoc
// @Summary Delete a nearby place
// @Tags nearby-places
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param placeID path string true "Place ID"
// @Success 200 {object} controllers.StatusSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/nearby-places/{placeID} [delete]
func (c *NearbyPlaceController) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	placeID, ok := helpers.PathUUID(w, r, "placeID")
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), p, eventID, placeID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, deleted())
}
