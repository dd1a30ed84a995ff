package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"dialdesk_backend/platform/httpkit"
)

const signatureHeader = "X-Webhook-Signature"

// VerifySignature checks the provider's HMAC-SHA256 signature over the raw
// request body. The body is re-buffered so downstream handlers can read it.
// An empty secret disables verification for local development.
func VerifySignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "failed to read request body", nil)
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(expected), []byte(c.GetHeader(signatureHeader))) {
			httpkit.Error(c, http.StatusUnauthorized, "invalid webhook signature", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
