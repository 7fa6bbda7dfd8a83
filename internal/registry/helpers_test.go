package registry

import (
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"github.com/propscope/propscope/internal/socrata"
)

const (
	testParcelsDataset    = "64uk-42ks"
	testSalesDataset      = "usep-8jbt"
	testExemptionsDataset = "muvi-b6kx"
	testAbatementsDataset = "dm5y-7i8g"
)

// newTestClient creates a portal client backed by an injected mock transport
func newTestClient(t *testing.T, transport *httpmock.MockTransport) *socrata.Client {
	t.Helper()

	client, err := socrata.NewClient(socrata.Config{
		BaseURL:   "https://data.example.test",
		AppToken:  "test-token",
		Timeout:   5 * time.Second,
		CacheTTL:  1 * time.Hour,
		RateLimit: 1000,
		Transport: transport,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

// registerDataset responds to any query against a dataset with the given
// JSON body
func registerDataset(transport *httpmock.MockTransport, dataset, body string) {
	transport.RegisterResponder(http.MethodGet,
		`=~^https://data\.example\.test/resource/`+dataset+`\.json`,
		func(*http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(http.StatusOK, body)
			resp.Header.Set("Content-Type", "application/json")
			return resp, nil
		})
}
