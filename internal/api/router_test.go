package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/leadbook/leadbook/internal/api"
	"github.com/leadbook/leadbook/internal/models"
)

type fakeUserLookup struct{}

func (fakeUserLookup) GetUserByAPIKey(_ context.Context, apiKey string) (string, error) {
	if apiKey == "good-key" {
		return testUserID, nil
	}

	return "", models.ErrUserNotFound
}

func newFullRouter(t *testing.T) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	leads := &mockLeadService{
		listFn: func(context.Context, string, models.LeadFilter, int) (*models.LeadPage, error) {
			return &models.LeadPage{Leads: []models.Lead{}, Page: 1, PageSize: models.LeadPageSize}, nil
		},
		exportFn: func(context.Context, string, models.LeadFilter) ([]models.Lead, bool, error) {
			return nil, false, nil
		},
		getFn: func(context.Context, string, uuid.UUID) (*models.LeadDetail, error) {
			return nil, errors.New("export must not route to get")
		},
	}

	return api.NewRouter(ctx, &api.RouterDeps{
		Log:         testLogger(),
		Leads:       leads,
		History:     &mockHistoryService{},
		Audit:       &mockAuditRepo{},
		UserLookup:  fakeUserLookup{},
		CORSOrigins: []string{"http://localhost:3000"},
		Version:     "test",
	})
}

func authed(method, path, key string) *http.Request {
	req := httptest.NewRequest(method, path, http.NoBody)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	return req
}

func TestRouter_HealthIsPublic(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	newFullRouter(t).ServeHTTP(w, authed(http.MethodGet, "/api/v1/health", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}

func TestRouter_LeadsRequireAuth(t *testing.T) {
	t.Parallel()

	router := newFullRouter(t)

	tests := []struct {
		name     string
		key      string
		wantCode int
	}{
		{"no key", "", http.StatusUnauthorized},
		{"unknown key", "bad-key", http.StatusUnauthorized},
		{"valid key", "good-key", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authed(http.MethodGet, "/api/v1/leads", tt.key))

			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}

			if tt.wantCode == http.StatusUnauthorized {
				if env := decodeEnvelope(t, w); env.Success || env.Code != api.ErrCodeUnauthenticated {
					t.Errorf("unexpected error envelope %+v", env)
				}
			}
		})
	}
}

func TestRouter_ExportRoutesBeforeID(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	newFullRouter(t).ServeHTTP(w, authed(http.MethodGet, "/api/v1/leads/export", "good-key"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if ct := w.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("expected csv export, got %q", ct)
	}
}

func TestRouter_NoWebSocketWithoutHub(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	newFullRouter(t).ServeHTTP(w, authed(http.MethodGet, "/api/v1/ws", "good-key"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
