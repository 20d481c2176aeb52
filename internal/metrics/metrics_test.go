package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "GET /api/books", "200"))
	RecordHTTPRequest(http.MethodGet, "GET /api/books", http.StatusOK, 25*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "GET /api/books", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordHTTPRequest_UnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404"))
	RecordHTTPRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
}

func TestRecordRecommendations(t *testing.T) {
	before := testutil.ToFloat64(RecommendationsServed.WithLabelValues("trending"))
	RecordRecommendations("trending", 6)
	assert.Equal(t, before+6, testutil.ToFloat64(RecommendationsServed.WithLabelValues("trending")))
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPActiveRequests)
	TrackActiveRequest(true)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPActiveRequests))
	TrackActiveRequest(false)
	assert.Equal(t, before, testutil.ToFloat64(HTTPActiveRequests))
}
