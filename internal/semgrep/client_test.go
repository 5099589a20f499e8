package semgrep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindingsURL(t *testing.T) {
	c := NewClient("tok", WithBaseURL("https://example.test/api/v1/"))

	assert.Equal(t, "https://example.test/api/v1/deployments/acme/findings", c.FindingsURL("acme", nil))

	since := int64(1704067200)
	assert.Equal(t, "https://example.test/api/v1/deployments/acme/findings?since=1704067200", c.FindingsURL("acme", &since))
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("tok")

	assert.Equal(t, DefaultBaseURL, c.baseURL)
	require.NotNil(t, c.httpClient)
	assert.Zero(t, c.httpClient.Timeout)
}

func TestFindingsSendsHeaders(t *testing.T) {
	var gotAuth, gotType, gotPath, gotSince string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		gotSince = r.URL.Query().Get("since")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"findings":[]}`))
	}))
	defer ts.Close()

	c := NewClient("secret", WithBaseURL(ts.URL))
	since := int64(42)

	resp, err := c.Findings(context.Background(), "acme", &since)
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "/deployments/acme/findings", gotPath)
	assert.Equal(t, "42", gotSince)
	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"findings":[]}`, string(resp.Body))
}

func TestFindingsErrorStatusStillParsed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer ts.Close()

	c := NewClient("bad", WithBaseURL(ts.URL))

	resp, err := c.Findings(context.Background(), "acme", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.JSONEq(t, `{"error":"invalid token"}`, string(resp.Body))
}

func TestFindingsInvalidJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	}))
	defer ts.Close()

	c := NewClient("tok", WithBaseURL(ts.URL))

	_, err := c.Findings(context.Background(), "acme", nil)
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestFindingsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := NewClient("tok", WithBaseURL(url))

	_, err := c.Findings(context.Background(), "acme", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestResponseOK(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{200, true},
		{201, true},
		{299, true},
		{199, false},
		{301, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		r := &Response{StatusCode: tt.status}
		assert.Equal(t, tt.want, r.OK(), "status %d", tt.status)
	}
}
