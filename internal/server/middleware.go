package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"tokensale-go/internal/models"
	"tokensale-go/internal/store"

	"go.uber.org/zap"
)

// Header names for tenant authentication. Every authenticated request
// names its company and presents that company's secret.
const (
	headerCompany       = "X-Company"
	headerCompanySecret = "X-Company-Secret"
)

type contextKey string

const companyContextKey contextKey = "company"

// authenticate resolves the company named by the request headers and
// verifies its secret before letting the request through.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier := r.Header.Get(headerCompany)
		secret := r.Header.Get(headerCompanySecret)
		if identifier == "" || secret == "" {
			respondMessage(w, http.StatusUnauthorized, "missing company credentials", "")
			return
		}

		company, err := s.services.Store.GetCompanyByIdentifier(r.Context(), identifier)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondMessage(w, http.StatusUnauthorized, "invalid company credentials", "")
				return
			}
			respondError(w, err)
			return
		}

		if subtle.ConstantTimeCompare([]byte(company.Secret), []byte(secret)) != 1 {
			respondMessage(w, http.StatusUnauthorized, "invalid company credentials", "")
			return
		}

		ctx := context.WithValue(r.Context(), companyContextKey, company)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// companyFrom returns the authenticated company stored by the
// middleware. Only reachable on authed routes.
func companyFrom(r *http.Request) *models.Company {
	company, _ := r.Context().Value(companyContextKey).(*models.Company)
	return company
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		zap.L().Info("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
