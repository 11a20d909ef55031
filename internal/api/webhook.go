package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/inkwell-pdf/inkwell/internal/domain"
	"github.com/inkwell-pdf/inkwell/internal/infra/observability"
)

// SignatureHeader carries the payment provider's HMAC signature in the
// form "t=<unix>,v1=<hex>".
const SignatureHeader = "Inkwell-Signature"

const maxWebhookBody = 1 << 20

// VerifySignature checks an HMAC-SHA256 webhook signature. The signed
// payload is "<t>.<body>", so the timestamp cannot be swapped without
// breaking the MAC. A tolerance of 0 disables the timestamp check.
func VerifySignature(header string, body []byte, secret string, now time.Time, tolerance time.Duration) error {
	var ts int64
	var sig []byte
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return fmt.Errorf("%w: malformed header", domain.ErrBadWebhookSignature)
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: bad timestamp", domain.ErrBadWebhookSignature)
			}
			ts = n
		case "v1":
			b, err := hex.DecodeString(v)
			if err != nil {
				return fmt.Errorf("%w: bad hex digest", domain.ErrBadWebhookSignature)
			}
			sig = b
		}
	}
	if ts == 0 || sig == nil {
		return fmt.Errorf("%w: missing t or v1", domain.ErrBadWebhookSignature)
	}

	if tolerance > 0 {
		skew := now.Sub(time.Unix(ts, 0))
		if skew < 0 {
			skew = -skew
		}
		if skew > tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", domain.ErrBadWebhookSignature)
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), sig) {
		return fmt.Errorf("%w: digest mismatch", domain.ErrBadWebhookSignature)
	}
	return nil
}

// paymentEvent is the payment provider's delivery payload.
type paymentEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		UserID  string `json:"user_id"`
		PriceID string `json:"price_id"`
	} `json:"data"`
}

// handlePaymentWebhook applies a completed checkout as a credit grant.
// Replayed deliveries are absorbed: the event id is recorded in the
// same transaction as the grant, so each event credits at most once.
func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}

	secret := s.cfg.Billing.WebhookSecret
	if secret == "" {
		observability.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		s.log.Error("payment webhook received but no webhook secret configured")
		writeError(w, http.StatusServiceUnavailable, "webhook not configured")
		return
	}
	if err := VerifySignature(r.Header.Get(SignatureHeader), body, secret, time.Now(), s.cfg.WebhookTolerance()); err != nil {
		observability.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		s.log.Warn("payment webhook rejected", "error", err)
		writeError(w, http.StatusUnauthorized, domain.ErrBadWebhookSignature.Error())
		return
	}

	var event paymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		observability.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if event.ID == "" {
		observability.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "event id required")
		return
	}

	// Unhandled event types are acknowledged so the provider stops
	// retrying them.
	if event.Type != "checkout.completed" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"received": true,
			"applied":  false,
		})
		return
	}
	if event.Data.UserID == "" {
		observability.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	credits, ok := s.cfg.Billing.PriceCredits[event.Data.PriceID]
	if !ok {
		observability.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		s.log.Error("checkout with unmapped price id",
			"event", event.ID, "price", event.Data.PriceID)
		writeError(w, http.StatusBadRequest, domain.ErrUnknownPrice.Error())
		return
	}

	balance, applied, err := s.ledger.GrantOnce(r.Context(), event.ID, event.Data.UserID, credits, "purchase:"+event.Data.PriceID)
	if err != nil {
		observability.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		s.log.Error("webhook grant failed", "event", event.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "credit grant failed")
		return
	}
	if applied {
		observability.WebhookEventsTotal.WithLabelValues("applied").Inc()
		s.log.Info("checkout credited",
			"event", event.ID, "user", event.Data.UserID, "credits", credits)
	} else {
		observability.WebhookEventsTotal.WithLabelValues("duplicate").Inc()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"received": true,
		"applied":  applied,
		"balance":  balance,
	})
}
