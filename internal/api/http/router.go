package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lendhub-backend/internal/metrics"
	"lendhub-backend/internal/security"
	"lendhub-backend/internal/service"
)

// RouterDeps carries everything the router needs to wire its handlers.
type RouterDeps struct {
	Users         service.UserService
	Accounts      service.AccountService
	Cards         service.CardService
	Applications  service.LoanApplicationService
	Loans         service.LoanService
	Payments      service.PaymentService
	Notifications service.NotificationService
	TokenVerifier security.TokenVerifier
	Webhook       *security.WebhookVerifier
	Collector     *metrics.Collector
	Registry      *prometheus.Registry
}

// NewRouter assembles the full API surface under /api/v1. The identity
// webhook is the only unauthenticated application endpoint; everything else
// sits behind the auth middleware.
func NewRouter(deps RouterDeps) *mux.Router {
	root := mux.NewRouter()
	root.Use(MetricsMiddleware(deps.Collector))

	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, "Service healthy")
	}).Methods(http.MethodGet)
	if deps.Registry != nil {
		root.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := root.PathPrefix("/api/v1").Subrouter()

	authHandler := NewAuthHandler(deps.Users, deps.Webhook)
	api.HandleFunc("/auth/webhook/clerk", authHandler.IdentityWebhook).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(AuthMiddleware(deps.TokenVerifier, deps.Users))

	authHandler.Register(authed.PathPrefix("/auth").Subrouter())
	NewAccountHandler(deps.Accounts).Register(authed.PathPrefix("/account").Subrouter())
	NewCardHandler(deps.Cards).Register(authed.PathPrefix("/card").Subrouter())
	NewLoanHandler(deps.Applications, deps.Loans).Register(authed.PathPrefix("/loan").Subrouter())
	NewPaymentHandler(deps.Payments).Register(authed.PathPrefix("/payment").Subrouter())
	NewNotificationHandler(deps.Notifications).Register(authed.PathPrefix("/notification").Subrouter())
	NewDocumentHandler(deps.Applications).Register(authed.PathPrefix("/documents").Subrouter())

	return root
}
