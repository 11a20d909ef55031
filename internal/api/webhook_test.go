package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func signEvent(secret string, ts time.Time, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), body)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(t *testing.T, h http.Handler, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// ─── Signature scheme ───────────────────────────────────────────────────────

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"evt_1"}`)
	now := time.Now()

	good := signEvent(secret, now, string(body))
	if err := VerifySignature(good, body, secret, now, 5*time.Minute); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}

	if err := VerifySignature(good, []byte(`{"id":"evt_2"}`), secret, now, 5*time.Minute); err == nil {
		t.Error("tampered body accepted")
	}
	if err := VerifySignature(good, body, "other-secret", now, 5*time.Minute); err == nil {
		t.Error("wrong secret accepted")
	}
	if err := VerifySignature("v1=deadbeef", body, secret, now, 5*time.Minute); err == nil {
		t.Error("header without timestamp accepted")
	}
	if err := VerifySignature("", body, secret, now, 5*time.Minute); err == nil {
		t.Error("empty header accepted")
	}
}

func TestVerifySignature_StaleTimestamp(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{}`)
	now := time.Now()

	stale := signEvent(secret, now.Add(-10*time.Minute), string(body))
	if err := VerifySignature(stale, body, secret, now, 5*time.Minute); err == nil {
		t.Error("stale timestamp accepted within 5m tolerance")
	}
	// Tolerance 0 disables the check.
	if err := VerifySignature(stale, body, secret, now, 0); err != nil {
		t.Errorf("timestamp check should be disabled at tolerance 0: %v", err)
	}
}

// ─── Webhook endpoint ───────────────────────────────────────────────────────

func TestWebhook_GrantAndReplay(t *testing.T) {
	srv, led := setupServer(t)
	h := srv.Handler()

	body := `{"id":"evt_1","type":"checkout.completed","data":{"user_id":"user-1","price_id":"price_100"}}`
	sig := signEvent("whsec_test", time.Now(), body)

	w := postWebhook(t, h, body, sig)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["applied"] != true {
		t.Errorf("applied = %v, want true", resp["applied"])
	}
	if got := balance(t, led); got != 100 {
		t.Errorf("balance = %d, want 100", got)
	}

	// Replay of the same event id must not credit twice.
	w = postWebhook(t, h, body, signEvent("whsec_test", time.Now(), body))
	if w.Code != http.StatusOK {
		t.Fatalf("replay: expected 200, got %d", w.Code)
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["applied"] != false {
		t.Errorf("replay applied = %v, want false", resp["applied"])
	}
	if got := balance(t, led); got != 100 {
		t.Errorf("balance after replay = %d, want still 100", got)
	}
}

func TestWebhook_BadSignature(t *testing.T) {
	srv, led := setupServer(t)

	body := `{"id":"evt_2","type":"checkout.completed","data":{"user_id":"user-1","price_id":"price_100"}}`
	w := postWebhook(t, srv.Handler(), body, "t=1,v1=deadbeef")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := balance(t, led); got != 0 {
		t.Errorf("balance = %d, want 0 after rejected delivery", got)
	}
}

func TestWebhook_UnknownPrice(t *testing.T) {
	srv, _ := setupServer(t)

	body := `{"id":"evt_3","type":"checkout.completed","data":{"user_id":"user-1","price_id":"price_999"}}`
	w := postWebhook(t, srv.Handler(), body, signEvent("whsec_test", time.Now(), body))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestWebhook_IgnoresOtherEventTypes(t *testing.T) {
	srv, led := setupServer(t)

	body := `{"id":"evt_4","type":"checkout.expired","data":{"user_id":"user-1","price_id":"price_100"}}`
	w := postWebhook(t, srv.Handler(), body, signEvent("whsec_test", time.Now(), body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", w.Code)
	}
	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["applied"] != false {
		t.Errorf("applied = %v, want false for ignored type", resp["applied"])
	}
	if got := balance(t, led); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}
