package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"

	"github.com/google/uuid"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Description     string     `json:"description"`
	VenueID         *string    `json:"venue_id"`
	CategoryID      *string    `json:"category_id"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	Capacity        int        `json:"capacity"`
	WaitlistEnabled bool       `json:"waitlist_enabled"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.StartsAt.IsZero() {
		errs = append(errs, "starts_at is required")
	}
	if c.EndsAt != nil && !c.StartsAt.IsZero() && !c.EndsAt.After(c.StartsAt) {
		errs = append(errs, "ends_at must be after starts_at")
	}
	if c.Capacity < 0 {
		errs = append(errs, "capacity must be >= 0")
	}
	errs = append(errs, optionalUUID("venue_id", c.VenueID)...)
	errs = append(errs, optionalUUID("category_id", c.CategoryID)...)
	return errs
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All fields are optional.
type UpdateEventRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	VenueID         *string    `json:"venue_id"`
	CategoryID      *string    `json:"category_id"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	Capacity        *int       `json:"capacity"`
	WaitlistEnabled *bool      `json:"waitlist_enabled"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.toDomain().Empty() {
		errs = append(errs, "no fields to update")
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.Capacity != nil && *u.Capacity < 0 {
		errs = append(errs, "capacity must be >= 0")
	}
	if u.StartsAt != nil && u.EndsAt != nil && !u.EndsAt.After(*u.StartsAt) {
		errs = append(errs, "ends_at must be after starts_at")
	}
	errs = append(errs, optionalUUID("venue_id", u.VenueID)...)
	errs = append(errs, optionalUUID("category_id", u.CategoryID)...)
	return errs
}

func (u UpdateEventRequest) toDomain() domain.EventUpdate {
	return domain.EventUpdate{
		Title:           u.Title,
		Description:     u.Description,
		VenueID:         u.VenueID,
		CategoryID:      u.CategoryID,
		StartsAt:        u.StartsAt,
		EndsAt:          u.EndsAt,
		Capacity:        u.Capacity,
		WaitlistEnabled: u.WaitlistEnabled,
	}
}

// optionalUUID accepts nil, empty (clears the reference) or a UUID, which is
// rewritten in canonical form.
func optionalUUID(field string, v *string) []string {
	if v == nil || *v == "" {
		return nil
	}
	id, err := uuid.Parse(*v)
	if err != nil {
		return []string{field + " must be a UUID"}
	}
	*v = id.String()
	return nil
}

// EventSuccessResponse is the success envelope for endpoints returning an event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventController handles event endpoints.
type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

// NewEventController creates an EventController with the given logger and service.
func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// parseEventFilter reads the listing filters. The returned message is non-empty on bad input.
func parseEventFilter(r *http.Request) (domain.EventFilter, string) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		OwnerID:    strings.TrimSpace(q.Get("owner_id")),
		VenueID:    strings.TrimSpace(q.Get("venue_id")),
		CategoryID: strings.TrimSpace(q.Get("category_id")),
		Search:     strings.TrimSpace(q.Get("q")),
		SortDir:    domain.ParseSortDirection(q.Get("order")),
	}
	for name, v := range map[string]*string{"owner_id": &filter.OwnerID, "venue_id": &filter.VenueID, "category_id": &filter.CategoryID} {
		if *v == "" {
			continue
		}
		id, err := uuid.Parse(*v)
		if err != nil {
			return filter, "invalid " + name
		}
		*v = id.String()
	}
	for _, s := range helpers.QueryList(r, "status") {
		filter.Statuses = append(filter.Statuses, domain.EventStatus(strings.ToLower(s)))
	}
	switch sort := domain.EventSortField(q.Get("sort")); sort {
	case "":
	case domain.EventSortStartsAt, domain.EventSortCreatedAt, domain.EventSortTitle:
		filter.SortBy = sort
	default:
		return filter, "sort must be one of starts_at, created_at, title"
	}
	var err error
	if filter.StartsAfter, err = helpers.QueryTime(r, "starts_after"); err != nil {
		return filter, "starts_after must be RFC 3339"
	}
	if filter.StartsBefore, err = helpers.QueryTime(r, "starts_before"); err != nil {
		return filter, "starts_before must be RFC 3339"
	}
	return filter, ""
}

// List godoc
// @Summary List events
// @Description Anonymous callers see published events only. Owners see their own drafts with owner_id set to themselves; admins see everything.
// @Tags events
// @Produce json
// @Param owner_id query string false "Owner user ID"
// @Param venue_id query string false "Venue ID"
// @Param category_id query string false "Category ID"
// @Param status query string false "Comma separated statuses (draft, published, cancelled)"
// @Param q query string false "Search in title and description"
// @Param starts_after query string false "RFC 3339 lower bound on starts_at"
// @Param starts_before query string false "RFC 3339 upper bound on starts_at"
// @Param sort query string false "starts_at (default), created_at or title"
// @Param order query string false "asc (default) or desc"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse{data=helpers.ListResponse{items=[]domain.Event}}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) List(w http.ResponseWriter, r *http.Request) {
	filter, msg := parseEventFilter(r)
	if msg != "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, msg)
		return
	}
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.List(r.Context(), middleware.OptionalPrincipal(r.Context()), filter, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WritePage(w, orEmpty(events), params, total)
}

// Create godoc
// @Summary Create an event
// @Description Creates a draft event owned by the caller. The slug is derived from the title unless given.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.Create(r.Context(), p, domain.CreateEventInput{
		Title:           strings.TrimSpace(req.Title),
		Slug:            strings.TrimSpace(req.Slug),
		Description:     req.Description,
		VenueID:         req.VenueID,
		CategoryID:      req.CategoryID,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		Capacity:        req.Capacity,
		WaitlistEnabled: req.WaitlistEnabled,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// Get godoc
// @Summary Get an event by ID or slug
// @Description UUIDs are looked up by ID, anything else by slug. Drafts are visible to the owner and admins only.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID) or slug"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) Get(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("eventID")
	caller := middleware.OptionalPrincipal(r.Context())
	var (
		event *domain.Event
		err   error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		event, err = c.Service.Get(r.Context(), caller, id.String())
	} else {
		event, err = c.Service.GetBySlug(r.Context(), caller, strings.ToLower(ref))
	}
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Update godoc
// @Summary Update an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body UpdateEventRequest true "Fields to update"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.Update(r.Context(), p, eventID, req.toDomain())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Delete godoc
// @Summary Delete an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.StatusSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), p, eventID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, deleted())
}

// Publish godoc
// @Summary Publish an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (cancelled event)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/publish [post]
func (c *EventController) Publish(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.Service.Publish)
}

// Cancel godoc
// @Summary Cancel an event
// @Description Cancelled events drop out of the cache. Waitlisted people are not notified.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/cancel [post]
func (c *EventController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.Service.Cancel)
}

func (c *EventController) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, caller domain.Principal, id string) (*domain.Event, error)) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := fn(r.Context(), p, eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Stats godoc
// @Summary Event statistics
// @Description Counts by status and by category. Scoped to the caller's events unless the caller is an admin.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse{data=domain.EventStats}
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/stats [get]
func (c *EventController) Stats(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	stats, err := c.Service.Stats(r.Context(), p)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}
