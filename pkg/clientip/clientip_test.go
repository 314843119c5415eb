package clientip

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"203.0.113.9:52311", "203.0.113.9"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"198.51.100.4", "198.51.100.4"},
		{"[::1]", "::1"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = tt.remote
		assert.Equal(t, tt.want, RealClientIP(r), tt.remote)
	}
}
