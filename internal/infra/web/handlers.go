package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"partner-subscription-platform/internal/domain"
	"partner-subscription-platform/internal/domain/model"
	"partner-subscription-platform/internal/infra/logging"
	"partner-subscription-platform/internal/infra/metrics"
	"partner-subscription-platform/internal/infra/payment"
	"partner-subscription-platform/internal/usecase"
)

// checksumHeader carries the webhook payload digest computed by the gateway.
const checksumHeader = "X-Event-Checksum"

const maxWebhookBody = 1 << 20 // 1 MiB

// ---- request/response shapes ----

type checkoutItemRequest struct {
	PlanID     string `json:"planId"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	EntityName string `json:"entityName"`
}

type checkoutRequest struct {
	Items []checkoutItemRequest `json:"items"`
}

type checkoutLineResponse struct {
	EntityName   string `json:"entityName"`
	PlanName     string `json:"planName"`
	PriceInCents int64  `json:"priceInCents"`
	Price        string `json:"price"`
}

type checkoutResponse struct {
	PaymentID     string                 `json:"paymentId"`
	Reference     string                 `json:"reference"`
	AmountInCents int64                  `json:"amountInCents"`
	Amount        string                 `json:"amount"`
	Currency      string                 `json:"currency"`
	PublicKey     string                 `json:"publicKey"`
	Signature     string                 `json:"signature"`
	RedirectURL   string                 `json:"redirectUrl"`
	Items         []checkoutLineResponse `json:"items"`
}

type subscriptionResponse struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	PlanID             string     `json:"planId"`
	PaymentID          *string    `json:"paymentId"`
	Status             string     `json:"status"`
	EntityType         string     `json:"entityType"`
	EntityID           string     `json:"entityId"`
	EntityName         string     `json:"entityName"`
	CurrentPeriodStart time.Time  `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time  `json:"currentPeriodEnd"`
	CanceledAt         *time.Time `json:"canceledAt,omitempty"`
}

func toSubscriptionResponse(s *model.Subscription) *subscriptionResponse {
	if s == nil {
		return nil
	}
	return &subscriptionResponse{
		ID:                 s.ID,
		UserID:             s.UserID,
		PlanID:             s.PlanID,
		PaymentID:          s.PaymentID,
		Status:             string(s.Status),
		EntityType:         string(s.Entity.Type),
		EntityID:           s.Entity.ID,
		EntityName:         s.EntityName,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CanceledAt:         s.CanceledAt,
	}
}

// ---- handlers ----

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	items := make([]usecase.CheckoutItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = usecase.CheckoutItem{
			PlanID:     it.PlanID,
			EntityType: it.EntityType,
			EntityID:   it.EntityID,
			EntityName: it.EntityName,
		}
	}

	result, err := s.checkoutUC.Checkout(ctx, UserID(ctx), items)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	lines := make([]checkoutLineResponse, len(result.Items))
	for i, l := range result.Items {
		lines[i] = checkoutLineResponse{EntityName: l.EntityName, PlanName: l.PlanName, PriceInCents: l.PriceCents, Price: l.Price}
	}
	writeJSON(w, http.StatusCreated, checkoutResponse{
		PaymentID:     result.PaymentID,
		Reference:     result.Reference,
		AmountInCents: result.AmountCents,
		Amount:        result.Amount,
		Currency:      result.Currency,
		PublicKey:     result.PublicKey,
		Signature:     result.Signature,
		RedirectURL:   result.RedirectURL,
		Items:         lines,
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.With(ctx, s.log)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	var evt payment.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		metrics.IncWebhookEvent("malformed")
		http.Error(w, "Invalid event", http.StatusBadRequest)
		return
	}

	checksum := r.Header.Get(checksumHeader)
	if checksum == "" {
		checksum = evt.Signature.Checksum
	}
	if !payment.VerifyEventSignature(&evt, s.cfg.EventsSecret, checksum) {
		metrics.IncWebhookEvent("rejected_signature")
		log.Warn().Str("event", evt.Event).Msg("webhook signature verification failed")
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	tu, ok := evt.Transaction()
	if !ok {
		// Verified but carries nothing the ledger consumes; acknowledge so
		// the gateway stops retrying.
		metrics.IncWebhookEvent("malformed")
		log.Warn().Str("event", evt.Event).Msg("verified webhook without transaction payload")
		ack(w)
		return
	}

	status, ok := payment.MapTransactionStatus(tu.Status)
	if !ok {
		metrics.IncWebhookEvent("ignored_status")
		log.Info().Str("external_status", tu.Status).Msg("non-terminal transaction status ignored")
		ack(w)
		return
	}

	outcome, err := s.paymentUC.Settle(ctx, usecase.GatewayTransaction{
		Reference:     tu.Reference,
		TransactionID: tu.ID,
		Status:        status,
		PaymentMethod: tu.PaymentMethod,
		FailureReason: tu.StatusMessage,
		Raw:           evt.Data,
	})
	if err != nil {
		log.Error().Err(err).Str("reference", tu.Reference).Msg("webhook settlement failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	metrics.IncWebhookEvent(string(outcome))
	ack(w)
}

func (s *Server) handleEntityStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entity, err := model.NewEntityRef(r.URL.Query().Get("entityType"), r.URL.Query().Get("entityId"))
	if err != nil {
		http.Error(w, "entityType and entityId are required", http.StatusBadRequest)
		return
	}

	sub, active, err := s.subUC.EntityStatus(ctx, entity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		HasActiveSubscription bool                  `json:"hasActiveSubscription"`
		Subscription          *subscriptionResponse `json:"subscription"`
	}{
		HasActiveSubscription: active,
		Subscription:          toSubscriptionResponse(sub),
	})
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subs, err := s.subUC.ListByUser(ctx, UserID(ctx))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]*subscriptionResponse, len(subs))
	for i, sub := range subs {
		out[i] = toSubscriptionResponse(sub)
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*subscriptionResponse `json:"data"`
	}{Data: out})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sub, err := s.subUC.Cancel(ctx, chi.URLParam(r, "id"), UserID(ctx), false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (s *Server) handleAdminCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sub, err := s.subUC.Cancel(ctx, chi.URLParam(r, "id"), "", true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

type overrideRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	status := model.PaymentStatus(req.Status)
	switch status {
	case model.PaymentStatusApproved, model.PaymentStatusDeclined, model.PaymentStatusVoided, model.PaymentStatusError:
	default:
		http.Error(w, "status must be one of approved, declined, voided, error", http.StatusBadRequest)
		return
	}

	p, err := s.paymentUC.Override(ctx, chi.URLParam(r, "id"), status, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		PaymentID string     `json:"paymentId"`
		Status    string     `json:"status"`
		PaidAt    *time.Time `json:"paidAt,omitempty"`
	}{PaymentID: p.ID, Status: string(p.Status), PaidAt: p.PaidAt})
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.paymentUC.Purge(ctx, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type grantRequest struct {
	UserID     string `json:"userId"`
	PlanID     string `json:"planId"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	EntityName string `json:"entityName"`
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	entity, err := model.NewEntityRef(req.EntityType, req.EntityID)
	if err != nil || req.UserID == "" || req.PlanID == "" {
		http.Error(w, "userId, planId, entityType and entityId are required", http.StatusBadRequest)
		return
	}

	sub, err := s.subUC.Grant(ctx, req.UserID, req.PlanID, entity, req.EntityName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

// ---- helpers ----

func ack(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{OK: true})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadySubscribed),
		errors.Is(err, domain.ErrAlreadyCanceled),
		errors.Is(err, domain.ErrPaymentAlreadySettled):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("request failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
