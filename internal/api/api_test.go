package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"builder-maps/internal/auth"
	"builder-maps/internal/dedupe"
	"builder-maps/internal/models"
	"builder-maps/internal/spots"
	testutil "builder-maps/internal/testing"
	"builder-maps/pkg/geo"
	"builder-maps/pkg/health"
	"builder-maps/pkg/logging"
)

const adminIP = "10.0.0.7"

type testServer struct {
	router http.Handler
	repo   *testutil.MemoryRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logging.NewWriterLogger(io.Discard, logging.DefaultLogConfig())
	repo := testutil.NewMemoryRepository()
	svc := spots.NewService(spots.Deps{Repo: repo, UoW: repo, Logger: logger})

	path := filepath.Join(t.TempDir(), "admins.yaml")
	require.NoError(t, os.WriteFile(path, []byte("admins:\n  - id: 5\n    name: mod\n    ips: [\""+adminIP+"\"]\n"), 0644))

	hm := health.NewManager(0)
	hm.Register(health.NewFuncChecker("database", func(context.Context) error { return nil }), true)

	return &testServer{
		router: NewRouter(RouterDeps{
			Spots:  svc,
			Admins: auth.NewAdminResolver(path, logger),
			Health: hm,
			Logger: logger,
		}),
		repo: repo,
	}
}

func (s *testServer) do(t *testing.T, method, target string, body any, remoteIP string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	if remoteIP != "" {
		req.RemoteAddr = remoteIP + ":5555"
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func seedCapitalFactory(s *testServer) models.Spot {
	return s.repo.Seed(models.Spot{
		Name:        "Capital Factory",
		CityID:      "austin",
		Category:    models.CategoryCoworking,
		Coordinates: geo.Coordinate{Lng: -97.7404, Lat: 30.2703},
		Status:      models.StatusApproved,
	})[0]
}

var nomination = map[string]any{
	"name":        "capital factory",
	"cityId":      "austin",
	"category":    "coworking",
	"coordinates": []float64{-97.7405, 30.2704},
	"socialLinks": []string{"https://instagram.com/capfactory"},
}

func TestCheckDuplicatesEndpoint(t *testing.T) {
	s := newTestServer(t)
	seedCapitalFactory(s)

	rec := s.do(t, "POST", "/api/spots/check-duplicates", nomination, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var res dedupe.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.IsDuplicate)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "Capital Factory", res.Matches[0].Candidate.Name)
}

func TestNominateEndpoint_DuplicateThenForce(t *testing.T) {
	s := newTestServer(t)
	seedCapitalFactory(s)

	rec := s.do(t, "POST", "/api/spots", nomination, "")
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	var errResp struct {
		Error      string        `json:"error"`
		Duplicates dedupe.Result `json:"duplicates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Len(t, errResp.Duplicates.Matches, 1)

	rec = s.do(t, "POST", "/api/spots?force=true", nomination, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res spots.NominationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Forced)
	assert.Equal(t, models.StatusPending, res.Spot.Status)
	require.Len(t, res.Spot.SocialLinks, 1)
	assert.Equal(t, "capfactory", res.Spot.SocialLinks[0].Handle)
}

func TestNominateEndpoint_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{"missing name", map[string]any{"cityId": "austin", "category": "cafe", "coordinates": []float64{1, 1}}, "name"},
		{"bad latitude", map[string]any{"name": "Cafe", "cityId": "austin", "category": "cafe", "coordinates": []float64{1, 95}}, "coordinates"},
		{"no location", map[string]any{"name": "Cafe", "cityId": "austin", "category": "cafe"}, "coordinates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, "POST", "/api/spots", tt.body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Fields, tt.field)
		})
	}

	rec := s.do(t, "POST", "/api/spots", `{"name":"x","bogus":true}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, "POST", "/api/spots", ``, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, "POST", "/api/spots", `{"coordinates":[1]}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassifyEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "POST", "/api/links/classify", map[string]any{
		"urls": []string{"https://x.com/builders", "discord.gg/abc", "not a link"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp classifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Links, 3)
	assert.Equal(t, "twitter", string(resp.Links[0].Platform))
	assert.Equal(t, "discord", string(resp.Links[1].Platform))
	assert.Equal(t, "unknown", string(resp.Links[2].Platform))
}

func TestPublicReadsHidePendingSpots(t *testing.T) {
	s := newTestServer(t)
	approved := seedCapitalFactory(s)
	pending := s.repo.Seed(models.Spot{
		Name: "Pending Place", CityID: "austin", Category: models.CategoryCafe,
		Coordinates: geo.Coordinate{Lng: -97.75, Lat: 30.27}, Status: models.StatusPending,
	})[0]

	rec := s.do(t, "GET", "/api/cities/austin/spots", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list spotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Spots, 1)
	assert.Equal(t, approved.ID, list.Spots[0].ID)

	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/api/spots/1", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/spots/2", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/spots/999", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, "GET", "/api/cities/Not%20Slug/spots", nil, "").Code)

	rec = s.do(t, "GET", "/api/cities/austin/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.CityStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 2, stats.Total)
	_ = pending
}

func TestAdminModeration(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "POST", "/api/spots", nomination, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, s.do(t, "POST", "/admin/spots/1/approve", nil, "192.0.2.1").Code)

	rec = s.do(t, "GET", "/admin/cities/austin/spots?status=pending", nil, adminIP)
	require.Equal(t, http.StatusOK, rec.Code)
	var list spotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Spots, 1)

	assert.Equal(t, http.StatusBadRequest, s.do(t, "POST", "/admin/spots/1/reject", map[string]string{"note": ""}, adminIP).Code)

	rec = s.do(t, "POST", "/admin/spots/1/approve", map[string]string{"note": "welcome"}, adminIP)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var spot models.Spot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spot))
	assert.Equal(t, models.StatusApproved, spot.Status)
	require.NotNil(t, spot.ReviewedBy)
	assert.Equal(t, 5, *spot.ReviewedBy)

	assert.Equal(t, http.StatusConflict, s.do(t, "POST", "/admin/spots/1/reject", map[string]string{"note": "nope"}, adminIP).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, "POST", "/admin/spots/42/approve", nil, adminIP).Code)

	rec = s.do(t, "GET", "/admin/spots/1", nil, adminIP)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail adminSpotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Len(t, detail.History, 2)

	assert.Equal(t, http.StatusBadRequest, s.do(t, "GET", "/admin/cities/austin/spots?status=weird", nil, adminIP).Code)
}

func TestAdminModeration_OptionalBody(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		spot := seedCapitalFactory(s)
		spot.Status = models.StatusPending
		s.repo.Seed(spot)
	}

	send := func(target string, body io.Reader, contentLength int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", target, nil)
		req.Body = io.NopCloser(body)
		req.ContentLength = contentLength
		req.RemoteAddr = adminIP + ":5555"
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	// chunked transfer with nothing in it
	rec := send("/admin/spots/1/approve", strings.NewReader(""), -1)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send("/admin/spots/2/approve", strings.NewReader(`{"note":"streamed"}`), -1)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var spot models.Spot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spot))
	require.NotNil(t, spot.ReviewNote)
	assert.Equal(t, "streamed", *spot.ReviewNote)

	rec = send("/admin/spots/3/approve", strings.NewReader(`{"note":`), -1)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/healthz", nil, "").Code)

	s.do(t, "POST", "/api/links/classify", map[string]any{"urls": []string{}}, "")
	rec := s.do(t, "GET", "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/spots/999", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc-123", resp.RequestID)
}

func TestParseStatuses(t *testing.T) {
	got, err := parseStatuses("")
	require.NoError(t, err)
	assert.Equal(t, []models.SpotStatus{models.StatusPending}, got)

	got, err = parseStatuses("Approved, rejected")
	require.NoError(t, err)
	assert.Equal(t, []models.SpotStatus{models.StatusApproved, models.StatusRejected}, got)

	got, err = parseStatuses("all")
	require.NoError(t, err)
	assert.Nil(t, got)
}
