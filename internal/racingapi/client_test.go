package racingapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/racing-sync/internal/config"
)

func testAPIConfig(baseURL string) *config.RacingAPIConfig {
	return &config.RacingAPIConfig{
		BaseURL:        baseURL,
		Username:       "api-user",
		Password:       "api-pass",
		Regions:        []string{"gb", "ire"},
		TimeoutSeconds: 5,
		RateLimit:      100,
		RateBurst:      10,
		MaxRetries:     2,
	}
}

func testClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testAPIConfig(server.URL)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewHTTPClient(cfg, NewRateLimiter(cfg), log)
}

func TestCoursesSendsAuthAndRegions(t *testing.T) {
	var gotAuth, gotRegions bool
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		gotAuth = ok && user == "api-user" && pass == "api-pass"
		gotRegions = len(r.URL.Query()["region"]) == 2

		json.NewEncoder(w).Encode(map[string]interface{}{
			"courses": []map[string]string{
				{"id": "crs_1", "course": "Ascot", "region_code": "gb", "region": "GB"},
			},
		})
	}))

	courses, err := client.Courses(context.Background(), []string{"gb", "ire"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "crs_1", courses[0].ID)
	assert.Equal(t, "Ascot", courses[0].Course)
	assert.True(t, gotAuth, "request must carry basic auth")
	assert.True(t, gotRegions, "both regions must be in the query")
}

func TestRetryAfterRateLimit(t *testing.T) {
	var calls int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"bookmakers": []map[string]string{}})
	}))

	_, err := client.Bookmakers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestUnauthorizedIsAuthenticationError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.Courses(context.Background(), []string{"gb"})
	require.Error(t, err)
	var authErr *AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}

func TestNotFoundIsFetchErrorWithStatus(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.HorsePro(context.Background(), "hrs_missing")
	require.Error(t, err)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestPeoplePagePagination(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/jockeys", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "500", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"jockeys": []map[string]string{
				{"id": "jky_1", "name": "T Rider"},
				{"id": "jky_2", "name": "A N Other"},
			},
			"total": 1200,
		})
	}))

	page, err := client.Jockeys(context.Background(), []string{"gb"}, 1)
	require.NoError(t, err)
	require.Len(t, page.People, 2)
	assert.Equal(t, "T Rider", page.People[0].Name)
	assert.Equal(t, 1200, page.Total)
	assert.True(t, page.HasMore(), "page 1 of 1200 at limit 500 has more")
}

func TestPersonPageHasMore(t *testing.T) {
	tests := []struct {
		name string
		page PersonPage
		more bool
	}{
		{"first of many", PersonPage{Page: 0, Limit: 500, Total: 1200}, true},
		{"middle page", PersonPage{Page: 1, Limit: 500, Total: 1200}, true},
		{"last page", PersonPage{Page: 2, Limit: 500, Total: 1200}, false},
		{"exact boundary", PersonPage{Page: 1, Limit: 500, Total: 1000}, false},
		{"empty table", PersonPage{Page: 0, Limit: 500, Total: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.more, tt.page.HasMore())
		})
	}
}

func TestResultsWindowQuery(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/results", r.URL.Path)
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("date_from"))
		assert.Equal(t, "2024-03-31", r.URL.Query().Get("date_to"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"race_id": "rac_1", "date": "2024-03-15", "course_id": "crs_1"},
			},
		})
	}))

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	results, err := client.Results(context.Background(), from, to, []string{"gb"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "rac_1", results[0].RaceID)
}
