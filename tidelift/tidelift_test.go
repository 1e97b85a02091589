package tidelift

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recommendationJSON = `{
  "description": "ansi-regex is vulnerable to Inefficient Regular Expression Complexity",
  "severity": 7.5,
  "recommendation_created_at": "2022-03-01T12:00:00Z",
  "recommendation_updated_at": "2022-03-02 08:30:00",
  "impact_score": 3,
  "impact_description": "Only affects untrusted input.",
  "other_conditions": false,
  "workaround_available": true,
  "workaround_description": "Limit input length.",
  "specific_methods_affected": true,
  "specific_methods_description": "ansiRegex()",
  "real_issue": true
}`

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/vulnerabilities/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		switch strings.TrimPrefix(r.URL.Path, "/vulnerabilities/") {
		case "cve-2021-3807":
			_, _ = io.WriteString(w, recommendationJSON)
		case "CVE-2021-1111":
			_, _ = io.WriteString(w, `{"description": "no guidance yet", "severity": 5}`)
		case "CVE-2021-5000":
			w.WriteHeader(http.StatusInternalServerError)
		case "CVE-2021-6000":
			_, _ = io.WriteString(w, `{`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	return httptest.NewServer(mux)
}

func TestClient_FetchVulnerability(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := NewClient("key", WithURL(ts.URL), WithRetry(0))

	tests := []struct {
		name    string
		id      string
		want    *Vulnerability
		wantErr string
	}{
		{
			name: "when found, returns recommendation",
			id:   "cve-2021-3807",
			want: &Vulnerability{
				ID:          "cve-2021-3807",
				Description: "ansi-regex is vulnerable to Inefficient Regular Expression Complexity",
				Severity:    7.5,
				Recommendation: &Recommendation{
					CreatedAt:                  time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC),
					UpdatedAt:                  time.Date(2022, 3, 2, 8, 30, 0, 0, time.UTC),
					ImpactScore:                3,
					ImpactDescription:          "Only affects untrusted input.",
					RealIssue:                  true,
					WorkaroundAvailable:        true,
					WorkaroundDescription:      "Limit input length.",
					SpecificMethodsAffected:    true,
					SpecificMethodsDescription: "ansiRegex()",
				},
			},
		},
		{
			name: "found without recommendation",
			id:   "CVE-2021-1111",
			want: &Vulnerability{ID: "CVE-2021-1111", Description: "no guidance yet", Severity: 5},
		},
		{
			name: "when not found, returns nothing",
			id:   "CVE-5555-1234",
		},
		{
			name:    "server error",
			id:      "CVE-2021-5000",
			wantErr: "status code: 500",
		},
		{
			name:    "broken payload",
			id:      "CVE-2021-6000",
			wantErr: "failed to decode Tidelift response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.FetchVulnerability(context.Background(), tt.id)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := pretty.Compare(got, tt.want); diff != "" {
				t.Errorf("diff: %s", diff)
			}
		})
	}
}

func TestClient_FetchVulnerabilities(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	c := NewClient("key", WithURL(ts.URL), WithRetry(0), WithConcurrency(2))

	t.Run("compacted array", func(t *testing.T) {
		got := c.FetchVulnerabilities(context.Background(), []string{"cve-2021-3807", "CVE-5555-1234"})
		require.Len(t, got, 1)
		assert.Equal(t, "cve-2021-3807", got[0].ID)
	})

	t.Run("errors are isolated", func(t *testing.T) {
		got := c.FetchVulnerabilities(context.Background(), []string{"CVE-2021-5000", "CVE-2021-1111", "CVE-2021-6000", "cve-2021-3807"})
		require.Len(t, got, 2)
		assert.Equal(t, "CVE-2021-1111", got[0].ID)
		assert.Equal(t, "cve-2021-3807", got[1].ID)
	})

	t.Run("nothing to look up", func(t *testing.T) {
		assert.Empty(t, c.FetchVulnerabilities(context.Background(), nil))
	})
}
