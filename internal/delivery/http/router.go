package http

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Controllers bundles the handlers mounted by NewRouter.
type Controllers struct {
	Auth        *controllers.AuthController
	User        *controllers.UserController
	Consent     *controllers.ConsentController
	Event       *controllers.EventController
	Show        *controllers.ShowController
	NearbyPlace *controllers.NearbyPlaceController
	Waitlist    *controllers.WaitlistController
	Venue       *controllers.VenueController
	Category    *controllers.CategoryController
	Invitation  *controllers.InvitationController
	Audit       *controllers.AuditController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)
	optional := middleware.OptionalAuth(verifier, logger)
	admin := func(next http.HandlerFunc) http.HandlerFunc { return auth(middleware.RequireAdmin(next)) }

	handle := func(pattern string, h http.HandlerFunc) {
		_, route, _ := strings.Cut(pattern, " ")
		mux.Handle(pattern, middleware.Metrics(route, h))
	}

	// Health and ops
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, helpers.StatusResponse{Status: "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Auth
	handle("POST /auth/signup", c.Auth.SignUp)
	handle("POST /auth/login", c.Auth.Login)
	handle("POST /auth/logout", auth(c.Auth.Logout))
	handle("POST /auth/verify-email", c.Auth.VerifyEmail)
	handle("POST /auth/verify-email/resend", auth(c.Auth.ResendVerification))

	// Users
	handle("GET /users", admin(c.User.List))
	handle("GET /users/me", auth(c.User.GetMe))
	handle("PATCH /users/me", auth(c.User.UpdateMe))
	handle("DELETE /users/me", auth(c.User.DeleteMe))
	handle("PUT /users/me/password", auth(c.User.ChangePassword))
	handle("GET /users/me/sessions", auth(c.User.ListSessions))
	handle("DELETE /users/me/sessions/{sessionID}", auth(c.User.RevokeSession))
	handle("GET /users/me/consents", auth(c.Consent.List))
	handle("PUT /users/me/consents/{type}", auth(c.Consent.Set))
	handle("GET /users/me/waitlist", auth(c.Waitlist.ListMine))

	// Events
	handle("GET /events", optional(c.Event.List))
	handle("POST /events", auth(c.Event.Create))
	handle("GET /events/stats", auth(c.Event.Stats))
	handle("GET /events/{eventID}", optional(c.Event.Get))
	handle("PATCH /events/{eventID}", auth(c.Event.Update))
	handle("DELETE /events/{eventID}", auth(c.Event.Delete))
	handle("POST /events/{eventID}/publish", auth(c.Event.Publish))
	handle("POST /events/{eventID}/cancel", auth(c.Event.Cancel))

	// Shows
	handle("GET /events/{eventID}/shows", optional(c.Show.List))
	handle("POST /events/{eventID}/shows", auth(c.Show.Create))
	handle("GET /events/{eventID}/shows/summary", optional(c.Show.Summary))
	handle("PATCH /events/{eventID}/shows/{showID}", auth(c.Show.Update))
	handle("DELETE /events/{eventID}/shows/{showID}", auth(c.Show.Delete))

	// Nearby places
	handle("GET /events/{eventID}/nearby-places", optional(c.NearbyPlace.List))
	handle("POST /events/{eventID}/nearby-places", auth(c.NearbyPlace.Create))
	handle("PATCH /events/{eventID}/nearby-places/{placeID}", auth(c.NearbyPlace.Update))
	handle("DELETE /events/{eventID}/nearby-places/{placeID}", auth(c.NearbyPlace.Delete))

	// Waitlist
	handle("POST /events/{eventID}/waitlist", optional(c.Waitlist.Join))
	handle("GET /events/{eventID}/waitlist", auth(c.Waitlist.List))
	handle("POST /events/{eventID}/waitlist/notify", auth(c.Waitlist.Notify))
	handle("DELETE /events/{eventID}/waitlist/{entryID}", auth(c.Waitlist.Leave))
	handle("POST /events/{eventID}/waitlist/{entryID}/convert", auth(c.Waitlist.Convert))

	// Venues
	handle("GET /venues", c.Venue.List)
	handle("POST /venues", admin(c.Venue.Create))
	handle("GET /venues/{venueID}", c.Venue.Get)
	handle("PATCH /venues/{venueID}", admin(c.Venue.Update))
	handle("DELETE /venues/{venueID}", admin(c.Venue.Delete))

	// Categories
	handle("GET /categories", c.Category.List)
	handle("POST /categories", admin(c.Category.Create))
	handle("GET /categories/{categoryID}", c.Category.Get)
	handle("PATCH /categories/{categoryID}", admin(c.Category.Update))
	handle("DELETE /categories/{categoryID}", admin(c.Category.Delete))

	// Invitations
	handle("POST /invitations", auth(c.Invitation.Create))
	handle("GET /invitations/sent", auth(c.Invitation.ListSent))
	handle("GET /invitations/received", auth(c.Invitation.ListReceived))
	handle("POST /invitations/accept", auth(c.Invitation.Accept))
	handle("DELETE /invitations/{invitationID}", auth(c.Invitation.Revoke))

	// Audit
	handle("GET /audit-logs", admin(c.Audit.List))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewHandler wraps the router with the global middleware chain.
func NewHandler(mux http.Handler, allowedOrigins []string, logger *slog.Logger) http.Handler {
	return middleware.ClientIP(middleware.LoggingMiddleware(logger, middleware.CORS(allowedOrigins, mux)))
}
