package middlewares

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIPIgnoresForwardedForByDefault(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:52011"
	r.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1")

	assert.Equal(t, "203.0.113.7", ClientIP(r))
}

func TestClientIPHonorsForwardedForBehindProxy(t *testing.T) {
	TrustProxyHeaders(true)
	t.Cleanup(func() { TrustProxyHeaders(false) })

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:40000"
	r.Header.Set("X-Forwarded-For", "198.51.100.4, 172.16.0.1")
	assert.Equal(t, "198.51.100.4", ClientIP(r))

	r.Header.Del("X-Forwarded-For")
	assert.Equal(t, "127.0.0.1", ClientIP(r))
}
