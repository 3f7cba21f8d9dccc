package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-pr-stats/internal/domain"
)

func testQuery(label string) domain.Query {
	return domain.Query{
		User:  "octocat",
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Label: label,
	}
}

func TestBuildSearchQuery(t *testing.T) {
	testCases := []struct {
		name     string
		label    string
		expected string
	}{
		{
			name:     "no label",
			expected: "author:octocat type:pr created:2024-01-01T00:00:00Z..2024-03-31T23:59:59Z",
		},
		{
			name:     "simple label",
			label:    "wocs",
			expected: "author:octocat type:pr created:2024-01-01T00:00:00Z..2024-03-31T23:59:59Z label:wocs",
		},
		{
			name:     "label with spaces is quoted",
			label:    "good first issue",
			expected: `author:octocat type:pr created:2024-01-01T00:00:00Z..2024-03-31T23:59:59Z label:"good first issue"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, buildSearchQuery(testQuery(tc.label)))
		})
	}
}

// searchPage renders a search response with n items whose ids start at offset.
func searchPage(baseURL string, offset, n int) string {
	items := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		id := offset + i + 1
		items = append(items, map[string]any{
			"id":     id,
			"number": id,
			"pull_request": map[string]any{
				"url": fmt.Sprintf("%s/repos/o/r/pulls/%d", baseURL, id),
			},
		})
	}
	body, _ := json.Marshal(map[string]any{"total_count": 237, "items": items})
	return string(body)
}

func TestGitHubGateway_SearchPullRequests_Pagination(t *testing.T) {
	pageSizes := []int{100, 100, 37}
	var requests atomic.Int32
	var serverURL string

	handler := func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/search/issues", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Contains(t, r.URL.Query().Get("q"), "author:octocat")
		assert.Contains(t, r.URL.Query().Get("q"), "type:pr")
		assert.Contains(t, r.URL.Query().Get("q"), "label:wocs")

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 || page > len(pageSizes) {
			t.Errorf("unexpected page %d", page)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, searchPage(serverURL, (page-1)*100, pageSizes[page-1]))
	}
	gateway, server, _ := setupTestGateway(t, http.HandlerFunc(handler))
	serverURL = server.URL

	items := gateway.SearchPullRequests(context.Background(), testQuery("wocs"))

	assert.Equal(t, int32(3), requests.Load())
	require.Len(t, items, 237)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, 237, items[236].Number)
	assert.Equal(t, server.URL+"/repos/o/r/pulls/237", items[236].URL)
}

func TestGitHubGateway_SearchPullRequests_Termination(t *testing.T) {
	testCases := []struct {
		name             string
		responses        []func(w http.ResponseWriter, baseURL string)
		expectedItems    int
		expectedRequests int32
	}{
		{
			name: "no matches",
			responses: []func(w http.ResponseWriter, baseURL string){
				func(w http.ResponseWriter, _ string) { fmt.Fprint(w, `{"total_count": 0, "items": []}`) },
			},
			expectedItems:    0,
			expectedRequests: 1,
		},
		{
			name: "payload without items",
			responses: []func(w http.ResponseWriter, baseURL string){
				func(w http.ResponseWriter, _ string) { fmt.Fprint(w, `{"total_count": 3}`) },
			},
			expectedItems:    0,
			expectedRequests: 1,
		},
		{
			name: "first page fails permanently",
			responses: []func(w http.ResponseWriter, baseURL string){
				func(w http.ResponseWriter, _ string) {
					w.WriteHeader(http.StatusUnprocessableEntity)
					fmt.Fprint(w, `{"message": "Validation Failed"}`)
				},
			},
			expectedItems:    0,
			expectedRequests: 1,
		},
		{
			name: "second page fails, first page kept",
			responses: []func(w http.ResponseWriter, baseURL string){
				func(w http.ResponseWriter, baseURL string) { fmt.Fprint(w, searchPage(baseURL, 0, 100)) },
				func(w http.ResponseWriter, _ string) { w.WriteHeader(http.StatusNotFound) },
			},
			expectedItems:    100,
			expectedRequests: 2,
		},
		{
			name: "exactly one full page then an empty one",
			responses: []func(w http.ResponseWriter, baseURL string){
				func(w http.ResponseWriter, baseURL string) { fmt.Fprint(w, searchPage(baseURL, 0, 100)) },
				func(w http.ResponseWriter, _ string) { fmt.Fprint(w, `{"total_count": 100, "items": []}`) },
			},
			expectedItems:    100,
			expectedRequests: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var requests atomic.Int32
			var serverURL string
			handler := func(w http.ResponseWriter, r *http.Request) {
				n := int(requests.Add(1))
				if n > len(tc.responses) {
					t.Errorf("unexpected request #%d", n)
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				tc.responses[n-1](w, serverURL)
			}
			gateway, server, _ := setupTestGateway(t, http.HandlerFunc(handler))
			serverURL = server.URL

			items := gateway.SearchPullRequests(context.Background(), testQuery(""))

			assert.NotNil(t, items)
			assert.Len(t, items, tc.expectedItems)
			assert.Equal(t, tc.expectedRequests, requests.Load())
		})
	}
}

func TestGitHubGateway_SearchPullRequests_KeepsNonPullRequestItems(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total_count": 2, "items": [{"id": 1, "number": 1}, {"id": 2, "number": 2, "pull_request": {"url": "https://api.github.com/repos/o/r/pulls/2"}}]}`)
	}
	gateway, _, _ := setupTestGateway(t, http.HandlerFunc(handler))

	items := gateway.SearchPullRequests(context.Background(), testQuery(""))

	require.Len(t, items, 2)
	assert.Empty(t, items[0].URL)
	assert.Equal(t, "https://api.github.com/repos/o/r/pulls/2", items[1].URL)
}
