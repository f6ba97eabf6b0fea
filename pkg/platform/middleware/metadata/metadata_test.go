package metadata

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIPFromRequest(t *testing.T) {
	t.Run("first forwarded address wins", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		assert.Equal(t, "203.0.113.9", ClientIPFromRequest(req))
	})

	t.Run("real ip header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Real-IP", " 198.51.100.7 ")
		assert.Equal(t, "198.51.100.7", ClientIPFromRequest(req))
	})

	t.Run("remote addr without port", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "[::1]:5050"
		assert.Equal(t, "::1", ClientIPFromRequest(req))
	})
}
