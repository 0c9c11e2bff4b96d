package apierr

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		header     http.Header
		wantNil    bool
		wantRate   bool
		wantStatus int
		wantAfter  time.Duration
	}{
		{name: "ok", status: 200, wantNil: true},
		{name: "created", status: 201, wantNil: true},
		{name: "rate limited", status: 429, wantRate: true, wantStatus: 429},
		{name: "rate limited with retry-after", status: 429, header: http.Header{"Retry-After": []string{"7"}}, wantRate: true, wantStatus: 429, wantAfter: 7 * time.Second},
		{name: "server error", status: 500, wantStatus: 500},
		{name: "not found", status: 404, wantStatus: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.header
			if h == nil {
				h = http.Header{}
			}
			err := FromResponse("serper", &http.Response{StatusCode: tt.status, Header: h}, []byte(`{"error":"x"}`))
			if tt.wantNil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantRate, IsRateLimited(err))
			assert.Equal(t, tt.wantStatus, StatusCode(err))
			if tt.wantRate {
				var rl *RateLimitedError
				require.True(t, errors.As(err, &rl))
				assert.Equal(t, tt.wantAfter, rl.RetryAfter)
			}
		})
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	err := &HTTPError{Provider: "hunter", StatusCode: 502, Body: "bad gateway"}
	assert.Equal(t, "hunter: unexpected status 502: bad gateway", err.Error())
}

func TestNotConfigured(t *testing.T) {
	err := NotConfigured("coresignal")
	assert.True(t, IsNotConfigured(err))
	assert.Contains(t, err.Error(), "coresignal")

	wrapped := eris.Wrap(err, "stage coresignal")
	assert.True(t, IsNotConfigured(wrapped))
	assert.False(t, IsRateLimited(wrapped))
	assert.Equal(t, 0, StatusCode(wrapped))
}

func TestParseError(t *testing.T) {
	inner := errors.New("unexpected end of JSON input")
	err := eris.Wrap(NewParseError("enrichlayer", inner), "enrich")

	assert.True(t, IsParse(err))
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "enrichlayer: parse response")
}
