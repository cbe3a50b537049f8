package http

import (
	"context"
	"net/http"
	"time"

	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/security"
	"rental-marketplace-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Services bundles everything the REST API calls into
type Services struct {
	Auth          service.AuthService
	Users         service.UserService
	Products      service.ProductService
	RentalRequest service.RentalRequestService
	Reservations  service.ReservationService
	Deliveries    service.DeliveryService
	Invoices      service.InvoiceService
	Notifications service.NotificationService
	Settings      service.SettingsService
	Wishlist      service.WishlistService
	Reports       service.ReportService
}

// Deps carries the non-service collaborators of the router
type Deps struct {
	Tokens   security.TokenManager
	Denylist security.Denylist
	Files    FileStore
	// Ping reports database reachability for GET /health
	Ping func(ctx context.Context) error
}

// NewRouter builds the REST API handler with CORS, logging, recovery and auth applied
func NewRouter(cfg *config.Config, svc Services, deps Deps) http.Handler {
	cookies := cookieJar{
		secure:        cfg.IsProduction(),
		accessExpiry:  time.Duration(cfg.JWT.AccessTokenExpiry) * time.Minute,
		refreshExpiry: time.Duration(cfg.JWT.RefreshTokenExpiry) * time.Minute,
	}

	router := mux.NewRouter()
	router.Use(LoggingMiddleware, RecoveryMiddleware, NewAuthMiddleware(deps.Tokens, deps.Denylist).Handler)

	router.HandleFunc("/health", healthHandler(deps.Ping)).Methods(http.MethodGet)
	RegisterStorageRoutes(router, NewImageUploadHandler(deps.Files, cfg.Storage.MaxFileSize<<20, cfg.Storage.AllowedTypes))

	api := router.PathPrefix("/api/v1").Subrouter()

	auth := NewAuthHandler(svc.Auth, svc.Users, cookies)
	api.HandleFunc("/auth/register", auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", auth.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", auth.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", auth.Me).Methods(http.MethodGet)

	users := NewUserHandler(svc.Users)
	api.HandleFunc("/users/me", users.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/users/me/password", users.ChangePassword).Methods(http.MethodPut)
	api.HandleFunc("/users", users.List).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/role", users.SetRole).Methods(http.MethodPatch)

	products := NewProductHandler(svc.Products)
	api.HandleFunc("/products", products.List).Methods(http.MethodGet)
	api.HandleFunc("/products", products.Create).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", products.Get).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", products.Update).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}", products.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/products/{id}/stock", products.UpdateStock).Methods(http.MethodPatch)
	api.HandleFunc("/products/{id}/pricing", products.SetPricing).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}/image", products.UploadImage).Methods(http.MethodPost)

	requests := NewRentalRequestHandler(svc.RentalRequest)
	api.HandleFunc("/rental-requests", requests.Create).Methods(http.MethodPost)
	api.HandleFunc("/rental-requests", requests.List).Methods(http.MethodGet)
	api.HandleFunc("/rental-requests/{id}", requests.Get).Methods(http.MethodGet)
	api.HandleFunc("/rental-requests/{id}/approve", requests.Approve).Methods(http.MethodPatch)
	api.HandleFunc("/rental-requests/{id}/reject", requests.Reject).Methods(http.MethodPatch)
	api.HandleFunc("/rental-requests/{id}/cancel", requests.Cancel).Methods(http.MethodPatch)
	api.HandleFunc("/rental-requests/{id}/confirm", requests.Confirm).Methods(http.MethodPatch)
	api.HandleFunc("/rental-requests/{id}/payment-status", requests.UpdatePaymentStatus).Methods(http.MethodPatch)

	reservations := NewReservationHandler(svc.Reservations, svc.Deliveries)
	api.HandleFunc("/reservations", reservations.Create).Methods(http.MethodPost)
	api.HandleFunc("/reservations", reservations.List).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}", reservations.Get).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}/status", reservations.UpdateStatus).Methods(http.MethodPatch)
	api.HandleFunc("/reservations/{id}/document", reservations.Document).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}/deliveries", reservations.Deliveries).Methods(http.MethodGet)

	deliveries := NewDeliveryHandler(svc.Deliveries)
	api.HandleFunc("/deliveries", deliveries.List).Methods(http.MethodGet)
	api.HandleFunc("/deliveries/{id}", deliveries.Get).Methods(http.MethodGet)
	api.HandleFunc("/deliveries/{id}/status", deliveries.UpdateStatus).Methods(http.MethodPatch)
	api.HandleFunc("/deliveries/{id}/assign", deliveries.Assign).Methods(http.MethodPatch)
	api.HandleFunc("/deliveries/{id}/reschedule", deliveries.Reschedule).Methods(http.MethodPatch)
	api.HandleFunc("/deliveries/{id}/document", deliveries.Document).Methods(http.MethodGet)

	invoices := NewInvoiceHandler(svc.Invoices)
	api.HandleFunc("/invoices", invoices.Create).Methods(http.MethodPost)
	api.HandleFunc("/invoices", invoices.List).Methods(http.MethodGet)
	api.HandleFunc("/invoices/update-late-fees", invoices.UpdateLateFees).Methods(http.MethodPost)
	api.HandleFunc("/invoices/{id}", invoices.Get).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}", invoices.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/invoices/{id}/payments", invoices.ProcessPayment).Methods(http.MethodPost)
	api.HandleFunc("/invoices/{id}/send", invoices.Send).Methods(http.MethodPatch)
	api.HandleFunc("/invoices/{id}/cancel", invoices.Cancel).Methods(http.MethodPatch)
	api.HandleFunc("/invoices/{id}/document", invoices.Document).Methods(http.MethodGet)

	notifications := NewNotificationHandler(svc.Notifications)
	api.HandleFunc("/notifications", notifications.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", notifications.MarkAllRead).Methods(http.MethodPatch)
	api.HandleFunc("/notifications/unread-count", notifications.UnreadCount).Methods(http.MethodGet)
	api.HandleFunc("/notifications/stats", notifications.Stats).Methods(http.MethodGet)
	api.HandleFunc("/notifications/process-scheduled", notifications.ProcessScheduled).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}/read", notifications.MarkRead).Methods(http.MethodPatch)
	api.HandleFunc("/notifications/{id}", notifications.Delete).Methods(http.MethodDelete)

	settings := NewSettingsHandler(svc.Settings)
	api.HandleFunc("/settings", settings.Get).Methods(http.MethodGet)
	api.HandleFunc("/settings/notifications", settings.UpdateNotifications).Methods(http.MethodPut)
	api.HandleFunc("/settings/business", settings.UpdateBusiness).Methods(http.MethodPut)
	api.HandleFunc("/settings/reset", settings.Reset).Methods(http.MethodPost)

	wishlist := NewWishlistHandler(svc.Wishlist)
	api.HandleFunc("/wishlist", wishlist.List).Methods(http.MethodGet)
	api.HandleFunc("/wishlist/{productId}", wishlist.Add).Methods(http.MethodPost)
	api.HandleFunc("/wishlist/{productId}", wishlist.Remove).Methods(http.MethodDelete)

	reports := NewReportHandler(svc.Reports)
	api.HandleFunc("/reports/summary", reports.Summary).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, "route not found", nil)
	})

	origins := cfg.Server.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(router)
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, "database unreachable", map[string]string{"status": "unhealthy"})
				return
			}
		}
		respondJSON(w, http.StatusOK, "ok", map[string]string{"status": "healthy"})
	}
}
