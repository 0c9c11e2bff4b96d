package enrichlayer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/pkg/apierr"
)

func TestCompany(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  func(error) bool
		wantName string
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{"name": "Acme Labs", "website": "https://www.acme-labs.com/", "hq": {"city": "Austin"},
				"company_size_on_linkedin": 120, "technologies": "Go, Kubernetes", "twitter": "https://twitter.com/acme"}`,
			wantName: "Acme Labs",
		},
		{
			name:    "unsuccessful payload",
			status:  http.StatusOK,
			body:    `{"success": false, "error": "profile not found"}`,
			wantErr: apierr.IsParse,
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `{}`,
			wantErr: apierr.IsRateLimited,
		},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			body:    `{"error": "nope"}`,
			wantErr: func(err error) bool { return apierr.StatusCode(err) == http.StatusNotFound },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/v2/company", r.URL.Path)
				assert.Equal(t, "https://www.linkedin.com/company/acme-labs", r.URL.Query().Get("url"))
				assert.Equal(t, "if-present", r.URL.Query().Get("use_cache"))
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			profile, err := client.Company(context.Background(), "https://www.linkedin.com/company/acme-labs")

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error kind: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, profile.Name)
			assert.Equal(t, "Austin", profile.City())
			assert.Equal(t, 120, profile.SizeOnProfile)
			assert.Equal(t, StringList{"Go", "Kubernetes"}, profile.Technologies)
			assert.Equal(t, "https://twitter.com/acme", profile.Social("twitter"))
		})
	}
}

func TestCompany_NotConfigured(t *testing.T) {
	client := NewClient("")
	_, err := client.Company(context.Background(), "https://www.linkedin.com/company/acme")
	assert.True(t, apierr.IsNotConfigured(err))
}

func TestCompany_RequiresURL(t *testing.T) {
	client := NewClient("k")
	_, err := client.Company(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile url is required")
}

func TestStringList(t *testing.T) {
	tests := []struct {
		in   string
		want StringList
	}{
		{`["a", " b ", ""]`, StringList{"a", "b"}},
		{`"x, y,,z"`, StringList{"x", "y", "z"}},
		{`null`, nil},
	}
	for _, tt := range tests {
		var got StringList
		require.NoError(t, json.Unmarshal([]byte(tt.in), &got), tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	var bad StringList
	assert.Error(t, json.Unmarshal([]byte(`{"a": 1}`), &bad))
}

func TestSocial_PrefersURLAttribute(t *testing.T) {
	p := &CompanyProfile{GitHubURL: "https://github.com/acme", GitHub: "https://github.com/old"}
	assert.Equal(t, "https://github.com/acme", p.Social("github"))
	assert.Empty(t, p.Social("myspace"))
}
