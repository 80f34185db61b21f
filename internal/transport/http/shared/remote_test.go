package shared

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	t.Run("prefers first forwarded hop", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		assert.Equal(t, "203.0.113.9", ClientIP(r))
	})

	t.Run("single forwarded value", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Forwarded-For", " 203.0.113.9 ")
		assert.Equal(t, "203.0.113.9", ClientIP(r))
	})

	t.Run("falls back to socket peer", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "198.51.100.7:43210"
		assert.Equal(t, "198.51.100.7", ClientIP(r))
	})

	t.Run("unparseable remote addr passes through", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "weird"
		assert.Equal(t, "weird", ClientIP(r))
	})
}
