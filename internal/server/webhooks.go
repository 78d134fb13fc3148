package server

import (
	"net/http"

	"tokensale-go/internal/models"
)

// validateEvent enforces the webhook contract shared by both routes:
// the envelope must name the expected event and the authenticated
// company, and the transaction must be a credit with an id and a user.
func validateEvent(w http.ResponseWriter, r *http.Request, event models.WebhookEvent, expected string) bool {
	if event.Event != expected {
		respondMessage(w, http.StatusBadRequest, "unexpected event "+event.Event, "event")
		return false
	}
	if company := companyFrom(r); event.Company != company.Identifier {
		respondMessage(w, http.StatusBadRequest, "event company does not match credentials", "company")
		return false
	}
	if event.Data.Id == "" {
		respondMessage(w, http.StatusBadRequest, "transaction id is required", "data.id")
		return false
	}
	if event.Data.User.Identifier == "" {
		respondMessage(w, http.StatusBadRequest, "user identifier is required", "data.user.identifier")
		return false
	}
	if event.Data.TxType != "credit" {
		respondMessage(w, http.StatusBadRequest, "only credit transactions are accepted", "data.tx_type")
		return false
	}
	return true
}

func (s *Server) handleWebhookInitiate(w http.ResponseWriter, r *http.Request) {
	var event models.WebhookEvent
	if !decodeBody(w, r, &event) {
		return
	}
	if !validateEvent(w, r, event, models.EventTransactionInitiate) {
		return
	}
	if event.Data.Status != string(models.PurchaseStatusPending) {
		respondMessage(w, http.StatusBadRequest, "initiate requires a pending transaction", "data.status")
		return
	}

	if err := s.services.Reconciler.Initiate(r.Context(), companyFrom(r), event.Data); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"event": event.Event, "transaction": event.Data.Id})
}

func (s *Server) handleWebhookExecute(w http.ResponseWriter, r *http.Request) {
	var event models.WebhookEvent
	if !decodeBody(w, r, &event) {
		return
	}
	if !validateEvent(w, r, event, models.EventTransactionExecute) {
		return
	}
	status := models.PurchaseStatus(event.Data.Status)
	if status != models.PurchaseStatusComplete && status != models.PurchaseStatusFailed {
		respondMessage(w, http.StatusBadRequest, "execute requires a complete or failed transaction", "data.status")
		return
	}

	if err := s.services.Reconciler.Execute(r.Context(), companyFrom(r), event.Data); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"event": event.Event, "transaction": event.Data.Id})
}
