package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func signedRequest(t *testing.T, secret string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	req.Header.Set(signatureHeader, hex.EncodeToString(mac.Sum(nil)))
	return req
}

func newSignatureRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/hook", VerifySignature(secret), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return engine
}

func TestVerifySignatureAcceptsValid(t *testing.T) {
	engine := newSignatureRouter("topsecret")
	body := []byte(`{"event":"call_started"}`)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, signedRequest(t, "topsecret", body))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestVerifySignatureRejectsInvalid(t *testing.T) {
	engine := newSignatureRouter("topsecret")
	body := []byte(`{"event":"call_started"}`)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, signedRequest(t, "wrongsecret", body))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestVerifySignatureRejectsMissingHeader(t *testing.T) {
	engine := newSignatureRouter("topsecret")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader([]byte(`{}`)))
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestVerifySignatureDisabledWithoutSecret(t *testing.T) {
	engine := newSignatureRouter("")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader([]byte(`{}`)))
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}
