package microservice_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/illmade-knight/go-catalog/pkg/invalidation"
	"github.com/illmade-knight/go-catalog/pkg/microservice"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []invalidation.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e invalidation.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func warmCache(t *testing.T, keys ...string) *cache.ReadThroughCache {
	t.Helper()
	c := cache.NewReadThroughCache(zerolog.Nop())
	for _, key := range keys {
		_, err := cache.GetDefault(context.Background(), c, key, func(context.Context) ([]string, error) {
			return []string{"v"}, nil
		})
		require.NoError(t, err)
	}
	return c
}

func serve(s *microservice.AdminServer, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAdminServer_Stats(t *testing.T) {
	c := warmCache(t, "universities", "schoolLevels")
	s := microservice.NewAdminServer(zerolog.Nop(), ":0", c, nil, "admin-1")

	rec := serve(s, http.MethodGet, "/cache/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var stats cache.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, int64(2), stats.Misses)
	require.Len(t, stats.Entries, 2)
	assert.Equal(t, "schoolLevels", stats.Entries[0].Key)
	assert.Equal(t, "universities", stats.Entries[1].Key)
}

func TestAdminServer_Clear(t *testing.T) {
	c := warmCache(t, "universities", "faculties-u1")
	pub := &recordingPublisher{}
	s := microservice.NewAdminServer(zerolog.Nop(), ":0", c, pub, "admin-1")

	rec := serve(s, http.MethodPost, "/cache/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, c.Len())

	require.Len(t, pub.events, 1)
	assert.True(t, pub.events[0].Clear)
	assert.Equal(t, "admin-1", pub.events[0].Origin)
}

func TestAdminServer_Invalidate(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		wantStatus int
		wantLen    int
	}{
		{name: "drops listed keys", body: `{"keys":["universities","missing"]}`, wantStatus: http.StatusOK, wantLen: 1},
		{name: "empty keys", body: `{"keys":[]}`, wantStatus: http.StatusBadRequest, wantLen: 2},
		{name: "malformed body", body: `{"keys":`, wantStatus: http.StatusBadRequest, wantLen: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := warmCache(t, "universities", "schoolLevels")
			pub := &recordingPublisher{}
			s := microservice.NewAdminServer(zerolog.Nop(), ":0", c, pub, "admin-1")

			rec := serve(s, http.MethodPost, "/cache/invalidate", tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantLen, c.Len())
			if tc.wantStatus == http.StatusOK {
				require.Len(t, pub.events, 1)
				assert.Equal(t, []string{"universities", "missing"}, pub.events[0].Keys)
			} else {
				assert.Empty(t, pub.events)
			}
		})
	}
}

func TestAdminServer_PublishFailureStillInvalidatesLocally(t *testing.T) {
	c := warmCache(t, "universities")
	pub := &recordingPublisher{err: errors.New("broker down")}
	s := microservice.NewAdminServer(zerolog.Nop(), ":0", c, pub, "admin-1")

	rec := serve(s, http.MethodPost, "/cache/invalidate", `{"keys":["universities"]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, c.Len())
}

func TestAdminServer_MethodNotAllowed(t *testing.T) {
	s := microservice.NewAdminServer(zerolog.Nop(), ":0", warmCache(t), nil, "admin-1")
	rec := serve(s, http.MethodGet, "/cache/clear", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAdminServer_Healthz(t *testing.T) {
	s := microservice.NewAdminServer(zerolog.Nop(), ":0", warmCache(t), nil, "admin-1")
	rec := serve(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAdminServer_Lifecycle(t *testing.T) {
	s := microservice.NewAdminServer(zerolog.Nop(), ":0", warmCache(t, "universities"), nil, "admin-1")
	assert.Equal(t, ":0", s.Port())
	require.NoError(t, s.Start())

	port := s.Port()
	require.NotEqual(t, ":0", port)

	resp, err := http.Get("http://localhost" + port + "/cache/stats")
	require.NoError(t, err)
	var stats cache.Stats
	err = json.NewDecoder(resp.Body).Decode(&stats)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, stats.Entries, 1)
	assert.Equal(t, "universities", stats.Entries[0].Key)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}
