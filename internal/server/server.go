// Package server exposes the sale service over HTTP: webhook intake,
// tenant-scoped admin CRUD and user-facing sale endpoints. Every
// response is wrapped in a {"status", "data"} envelope.
package server

import (
	"net/http"

	"tokensale-go/internal/app"

	"github.com/gorilla/mux"
)

// Server holds the routing table and the service graph behind it.
type Server struct {
	router   *mux.Router
	services *app.Services
}

func NewServer(services *app.Services) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		services: services,
	}
	s.routes()
	return s
}

// Handler returns the root handler for use by http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(logRequests)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/companies", s.handleCreateCompany).Methods(http.MethodPost)

	authed := s.router.NewRoute().Subrouter()
	authed.Use(s.authenticate)

	// Webhook intake from the upstream platform.
	authed.HandleFunc("/webhooks/initiate", s.handleWebhookInitiate).Methods(http.MethodPost)
	authed.HandleFunc("/webhooks/execute", s.handleWebhookExecute).Methods(http.MethodPost)

	// Tenant administration.
	authed.HandleFunc("/admin/company", s.handleGetCompany).Methods(http.MethodGet)
	authed.HandleFunc("/admin/company", s.handleUpdateCompany).Methods(http.MethodPatch)
	authed.HandleFunc("/admin/company", s.handleDeleteCompany).Methods(http.MethodDelete)

	authed.HandleFunc("/admin/currencies", s.handleListCurrencies).Methods(http.MethodGet)
	authed.HandleFunc("/admin/currencies", s.handleUpsertCurrency).Methods(http.MethodPost)
	authed.HandleFunc("/admin/currencies/{code}", s.handleGetCurrency).Methods(http.MethodGet)

	authed.HandleFunc("/admin/icos", s.handleListIcos).Methods(http.MethodGet)
	authed.HandleFunc("/admin/icos", s.handleCreateIco).Methods(http.MethodPost)
	authed.HandleFunc("/admin/icos/{icoId}", s.handleGetIco).Methods(http.MethodGet)
	authed.HandleFunc("/admin/icos/{icoId}", s.handleUpdateIco).Methods(http.MethodPatch)
	authed.HandleFunc("/admin/icos/{icoId}", s.handleDeleteIco).Methods(http.MethodDelete)

	authed.HandleFunc("/admin/icos/{icoId}/phases", s.handleListPhases).Methods(http.MethodGet)
	authed.HandleFunc("/admin/icos/{icoId}/phases", s.handleCreatePhase).Methods(http.MethodPost)
	authed.HandleFunc("/admin/icos/{icoId}/phases/{phaseId}", s.handleGetPhase).Methods(http.MethodGet)
	authed.HandleFunc("/admin/icos/{icoId}/phases/{phaseId}", s.handleDeletePhase).Methods(http.MethodDelete)

	authed.HandleFunc("/admin/phases/{phaseId}/rates", s.handleListRates).Methods(http.MethodGet)
	authed.HandleFunc("/admin/phases/{phaseId}/rates/{rateId}", s.handleGetRate).Methods(http.MethodGet)

	authed.HandleFunc("/admin/icos/{icoId}/quotes", s.handleListIcoQuotes).Methods(http.MethodGet)
	authed.HandleFunc("/admin/icos/{icoId}/purchases", s.handleListIcoPurchases).Methods(http.MethodGet)
	authed.HandleFunc("/admin/icos/{icoId}/purchases/{purchaseId}", s.handleGetIcoPurchase).Methods(http.MethodGet)
	authed.HandleFunc("/admin/purchases/{purchaseId}/messages", s.handleListPurchaseMessages).Methods(http.MethodGet)

	// User-facing sale endpoints, called by the platform on behalf of
	// an authenticated end user.
	authed.HandleFunc("/icos", s.handleListPublicIcos).Methods(http.MethodGet)
	authed.HandleFunc("/icos/{icoId}", s.handleGetPublicIco).Methods(http.MethodGet)
	authed.HandleFunc("/icos/{icoId}/rates/{currencyCode}", s.handleEvaluateRate).Methods(http.MethodGet)

	authed.HandleFunc("/users/{identifier}/icos/{icoId}/quotes", s.handleListUserQuotes).Methods(http.MethodGet)
	authed.HandleFunc("/users/{identifier}/icos/{icoId}/quotes", s.handleCreateQuote).Methods(http.MethodPost)
	authed.HandleFunc("/users/{identifier}/icos/{icoId}/quotes/{quoteId}", s.handleGetUserQuote).Methods(http.MethodGet)
	authed.HandleFunc("/users/{identifier}/icos/{icoId}/purchases", s.handleListUserPurchases).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "ok"})
}
