package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/leadbook/leadbook/internal/api"
	"github.com/leadbook/leadbook/internal/models"
)

func TestLeadCreate_Valid(t *testing.T) {
	t.Parallel()

	var gotOwner string
	var gotInput models.LeadInput

	svc := &mockLeadService{
		createFn: func(_ context.Context, userID string, in models.LeadInput) (*models.Lead, error) {
			gotOwner, gotInput = userID, in
			return sampleLead(userID), nil
		},
	}

	r := newTestRouter()
	h := api.NewLeadHandler(svc, testLogger())
	r.POST("/leads", h.Create)

	body := `{"full_name":"Asha Rao","phone":"9876543210","city":"Mohali","property_type":"Plot",` +
		`"purpose":"Buy","timeline":"0-3m","source":"Website"}`
	w := doRequest(r, http.MethodPost, "/leads", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if gotOwner != testUserID {
		t.Errorf("expected owner %q, got %q", testUserID, gotOwner)
	}

	if gotInput.FullName == nil || *gotInput.FullName != "Asha Rao" {
		t.Errorf("full_name not bound: %+v", gotInput.FullName)
	}

	if gotInput.BHK != nil {
		t.Errorf("expected absent bhk, got %q", *gotInput.BHK)
	}

	env := decodeEnvelope(t, w)
	if !env.Success || env.Message != "lead created" {
		t.Errorf("unexpected envelope: %+v", env)
	}

	var lead models.Lead
	if err := json.Unmarshal(env.Data, &lead); err != nil {
		t.Fatalf("invalid lead JSON: %v", err)
	}

	if lead.Status != models.StatusNew || lead.OwnerID != testUserID {
		t.Errorf("unexpected lead: %+v", lead)
	}
}

func TestLeadCreate_MalformedBody(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewLeadHandler(&mockLeadService{}, testLogger())
	r.POST("/leads", h.Create)

	w := doRequest(r, http.MethodPost, "/leads", `{"full_name":`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	if env := decodeEnvelope(t, w); env.Code != api.ErrCodeInvalidRequest {
		t.Errorf("expected code %q, got %q", api.ErrCodeInvalidRequest, env.Code)
	}
}

func TestLeadCreate_ValidationError(t *testing.T) {
	t.Parallel()

	svc := &mockLeadService{
		createFn: func(context.Context, string, models.LeadInput) (*models.Lead, error) {
			return nil, &models.ValidationError{Errors: []models.FieldError{
				{Field: models.FieldPhone, Message: "phone must be 10 to 15 digits"},
				{Field: models.FieldBHK, Message: "bhk is required for Apartment and Villa"},
			}}
		},
	}

	r := newTestRouter()
	h := api.NewLeadHandler(svc, testLogger())
	r.POST("/leads", h.Create)

	w := doRequest(r, http.MethodPost, "/leads", `{"phone":"12"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	if env.Success {
		t.Error("expected success=false")
	}

	if env.Code != api.ErrCodeValidationError {
		t.Errorf("expected code %q, got %q", api.ErrCodeValidationError, env.Code)
	}

	if env.Field != models.FieldPhone {
		t.Errorf("expected primary field %q, got %q", models.FieldPhone, env.Field)
	}

	if len(env.Errors) != 2 || env.Errors[1].Field != models.FieldBHK {
		t.Errorf("expected both field errors in order, got %+v", env.Errors)
	}
}

func TestLeadErrors_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"unauthenticated", models.ErrUnauthenticated, http.StatusUnauthorized, api.ErrCodeUnauthenticated},
		{"forbidden", models.ErrForbidden, http.StatusForbidden, api.ErrCodeForbidden},
		{"not found", models.ErrLeadNotFound, http.StatusNotFound, api.ErrCodeNotFound},
		{"duplicate email", models.ErrDuplicateEmail, http.StatusConflict, api.ErrCodeDuplicateEmail},
		{"stale version", models.ErrStaleVersion, http.StatusConflict, api.ErrCodeConflict},
		{"wrapped stale", fmt.Errorf("updating lead: %w", models.ErrStaleVersion), http.StatusConflict, api.ErrCodeConflict},
		{"rate limited", models.ErrRateLimited, http.StatusTooManyRequests, api.ErrCodeRateLimited},
		{"batch too large", models.ErrBatchTooLarge, http.StatusBadRequest, api.ErrCodeBatchTooLarge},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, api.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockLeadService{
				updateFn: func(context.Context, string, uuid.UUID, models.UpdateLeadRequest) (*models.Lead, error) {
					return nil, tt.err
				},
			}

			r := newTestRouter()
			h := api.NewLeadHandler(svc, testLogger())
			r.PUT("/leads/:id", h.Update)

			w := doRequest(r, http.MethodPut, "/leads/"+testLeadID, `{"status":"Contacted"}`)

			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}

			env := decodeEnvelope(t, w)
			if env.Code != tt.wantErr {
				t.Errorf("expected code %q, got %q", tt.wantErr, env.Code)
			}

			if tt.wantCode == http.StatusInternalServerError && env.Message != "internal server error" {
				t.Errorf("internal error leaked: %q", env.Message)
			}
		})
	}
}

func TestLeadUpdate_PassesTimestamp(t *testing.T) {
	t.Parallel()

	seen := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	var got models.UpdateLeadRequest
	svc := &mockLeadService{
		updateFn: func(_ context.Context, _ string, id uuid.UUID, req models.UpdateLeadRequest) (*models.Lead, error) {
			got = req
			lead := sampleLead(testUserID)
			lead.ID = id
			lead.Status = models.StatusContacted
			return lead, nil
		},
	}

	r := newTestRouter()
	h := api.NewLeadHandler(svc, testLogger())
	r.PATCH("/leads/:id", h.Update)

	w := doRequest(r, http.MethodPatch, "/leads/"+testLeadID,
		`{"status":"Contacted","updated_at":"2025-03-01T10:00:00Z"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if got.Status == nil || *got.Status != "Contacted" {
		t.Errorf("status not bound: %+v", got.Status)
	}

	if got.UpdatedAt == nil || !got.UpdatedAt.Equal(seen) {
		t.Errorf("expected updated_at %v, got %v", seen, got.UpdatedAt)
	}

	if got.FullName != nil {
		t.Error("absent field should stay nil")
	}
}

func TestLeadGet_InvalidID(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewLeadHandler(&mockLeadService{}, testLogger())
	r.GET("/leads/:id", h.Get)

	w := doRequest(r, http.MethodGet, "/leads/not-a-uuid", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLeadGet_OtherOwnerVisible(t *testing.T) {
	t.Parallel()

	svc := &mockLeadService{
		getFn: func(_ context.Context, _ string, _ uuid.UUID) (*models.LeadDetail, error) {
			return &models.LeadDetail{Lead: *sampleLead(otherUserID), History: []models.HistoryEntry{}}, nil
		},
	}

	r := newTestRouter()
	h := api.NewLeadHandler(svc, testLogger())
	r.GET("/leads/:id", h.Get)

	w := doRequest(r, http.MethodGet, "/leads/"+testLeadID, "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var detail models.LeadDetail
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &detail); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if detail.OwnerID != otherUserID {
		t.Errorf("expected owner %q, got %q", otherUserID, detail.OwnerID)
	}
}

func TestLeadList_FiltersAndPage(t *testing.T) {
	t.Parallel()

	var gotFilter models.LeadFilter
	var gotPage int

	svc := &mockLeadService{
		listFn: func(_ context.Context, _ string, filter models.LeadFilter, page int) (*models.LeadPage, error) {
			gotFilter, gotPage = filter, page
			return &models.LeadPage{Leads: []models.Lead{}, Page: page, PageSize: models.LeadPageSize}, nil
		},
	}

	r := newTestRouter()
	h := api.NewLeadHandler(svc, testLogger())
	r.GET("/leads", h.List)

	w := doRequest(r, http.MethodGet, "/leads?search=asha&city=Mohali&propertyType=Castle&status=New&page=3", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	want := models.LeadFilter{Search: "asha", City: models.CityMohali, Status: models.StatusNew}
	if gotFilter != want {
		t.Errorf("expected filter %+v, got %+v", want, gotFilter)
	}

	if gotPage != 3 {
		t.Errorf("expected page 3, got %d", gotPage)
	}
}

func TestLeadList_BadPageDefaultsToFirst(t *testing.T) {
	t.Parallel()

	var gotPage int
	svc := &mockLeadService{
		listFn: func(_ context.Context, _ string, _ models.LeadFilter, page int) (*models.LeadPage, error) {
			gotPage = page
			return &models.LeadPage{}, nil
		},
	}

	r := newTestRouter()
	h := api.NewLeadHandler(svc, testLogger())
	r.GET("/leads", h.List)

	for _, q := range []string{"", "?page=0", "?page=-4", "?page=abc"} {
		doRequest(r, http.MethodGet, "/leads"+q, "")

		if gotPage != 1 {
			t.Errorf("%q: expected page 1, got %d", q, gotPage)
		}
	}
}

func TestLeadDelete_OK(t *testing.T) {
	t.Parallel()

	var deleted uuid.UUID
	svc := &mockLeadService{
		deleteFn: func(_ context.Context, _ string, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}

	r := newTestRouter()
	h := api.NewLeadHandler(svc, testLogger())
	r.DELETE("/leads/:id", h.Delete)

	w := doRequest(r, http.MethodDelete, "/leads/"+testLeadID, "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if deleted.String() != testLeadID {
		t.Errorf("expected delete of %s, got %s", testLeadID, deleted)
	}
}

func TestLeadHandler_MissingUser(t *testing.T) {
	t.Parallel()

	r := gin.New()
	h := api.NewLeadHandler(&mockLeadService{}, testLogger())
	r.GET("/leads", h.List)

	w := doRequest(r, http.MethodGet, "/leads", "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}
