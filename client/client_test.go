package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestServer creates a test server that routes to the given handler map.
// Keys are "METHOD /path", values are handler funcs.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(srv.URL, WithAPIKey("test-key"))
	return srv, c
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func ok(w http.ResponseWriter, status int, data any) {
	jsonResponse(w, status, map[string]any{"success": true, "data": data})
}

func strPtr(s string) *string { return &s }

func TestHealth(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, HealthResponse{Status: "ok", Version: "1.2.0"})
		},
	})
	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("got status %q, want ok", resp.Status)
	}
	if resp.Version != "1.2.0" {
		t.Errorf("got version %q, want 1.2.0", resp.Version)
	}
}

func TestLeadsCRUD(t *testing.T) {
	const id = "6f1c2a7e-0d4b-4c1e-9a57-3b7f2f0e8c11"

	var patched UpdateLeadRequest
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/leads": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("city") != "Mohali" || r.URL.Query().Get("page") != "2" {
				t.Errorf("unexpected query %q", r.URL.RawQuery)
			}
			ok(w, 200, LeadPage{Leads: []Lead{{ID: id, FullName: "Asha Rao"}}, Total: 11, Page: 2, PageSize: 10, TotalPages: 2})
		},
		"POST /api/v1/leads": func(w http.ResponseWriter, r *http.Request) {
			var in LeadInput
			json.NewDecoder(r.Body).Decode(&in) //nolint:errcheck
			ok(w, 201, Lead{ID: id, FullName: *in.FullName, Status: "New"})
		},
		"GET /api/v1/leads/" + id: func(w http.ResponseWriter, _ *http.Request) {
			ok(w, 200, LeadDetail{Lead: Lead{ID: id, FullName: "Asha Rao"}, History: []HistoryEntry{}})
		},
		"PATCH /api/v1/leads/" + id: func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&patched) //nolint:errcheck
			ok(w, 200, Lead{ID: id, Status: *patched.Status})
		},
		"DELETE /api/v1/leads/" + id: func(w http.ResponseWriter, _ *http.Request) {
			ok(w, 200, map[string]string{"id": id})
		},
	})

	ctx := context.Background()

	page, err := c.Leads.List(ctx, &LeadListOptions{City: "Mohali", Page: 2})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(page.Leads) != 1 || page.TotalPages != 2 {
		t.Errorf("List: got %+v", page)
	}

	lead, err := c.Leads.Create(ctx, &LeadInput{FullName: strPtr("Asha Rao")})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if lead.Status != "New" {
		t.Errorf("Create: got status %q", lead.Status)
	}

	detail, err := c.Leads.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if detail.FullName != "Asha Rao" {
		t.Errorf("Get: got name %q", detail.FullName)
	}

	seen := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	lead, err = c.Leads.Update(ctx, id, &UpdateLeadRequest{
		LeadInput: LeadInput{Status: strPtr("Contacted")},
		UpdatedAt: &seen,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if lead.Status != "Contacted" {
		t.Errorf("Update: got status %q", lead.Status)
	}
	if patched.UpdatedAt == nil || !patched.UpdatedAt.Equal(seen) {
		t.Errorf("Update: updated_at not sent, got %v", patched.UpdatedAt)
	}
	if patched.FullName != nil {
		t.Error("Update: unset fields must be omitted")
	}

	if err := c.Leads.Delete(ctx, id); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestLeadHistory(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/leads/l1/history": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("limit") != "5" {
				t.Errorf("expected limit=5, got %q", r.URL.RawQuery)
			}
			ok(w, 200, map[string]any{
				"entries":  []HistoryEntry{{ID: "h1", Diff: json.RawMessage(`{"deleted":true}`)}},
				"has_more": true,
			})
		},
	})

	entries, hasMore, err := c.Leads.History(context.Background(), "l1", 5, 0)
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(entries) != 1 || !hasMore {
		t.Errorf("History: got %d entries, hasMore=%v", len(entries), hasMore)
	}
}

func TestImportExport(t *testing.T) {
	const doc = "fullName,phone\nAsha Rao,9876543210\n"

	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/leads/export": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Has("page") {
				t.Error("export must not send page")
			}
			w.Header().Set("Content-Type", "text/csv")
			io.WriteString(w, doc) //nolint:errcheck
		},
		"POST /api/v1/leads/import": func(w http.ResponseWriter, r *http.Request) {
			f, _, err := r.FormFile("file")
			if err != nil {
				t.Errorf("missing file field: %v", err)
				return
			}
			defer f.Close()
			got, _ := io.ReadAll(f)
			if string(got) != doc {
				t.Errorf("uploaded %q", got)
			}
			ok(w, 200, ImportResult{Inserted: 1, Errors: []RowError{}})
		},
	})

	ctx := context.Background()

	var out bytes.Buffer
	if err := c.Leads.Export(ctx, &LeadListOptions{Status: "New", Page: 3}, &out); err != nil {
		t.Fatalf("Export error: %v", err)
	}
	if out.String() != doc {
		t.Errorf("Export: got %q", out.String())
	}

	result, err := c.Leads.Import(ctx, "leads.csv", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if result.Inserted != 1 {
		t.Errorf("Import: inserted %d", result.Inserted)
	}
}

func TestAudit(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/audit": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("action") != "lead.update" {
				t.Errorf("unexpected query %q", r.URL.RawQuery)
			}
			ok(w, 200, map[string]any{"entries": []AuditEntry{{ID: 1, Action: "lead.update"}}, "has_more": false})
		},
		"DELETE /api/v1/audit": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("retention_days") != "30" {
				t.Errorf("unexpected query %q", r.URL.RawQuery)
			}
			ok(w, 200, map[string]int{"deleted": 7, "retention_days": 30})
		},
	})

	ctx := context.Background()

	entries, _, err := c.Audit.Query(ctx, &AuditQueryOptions{Action: "lead.update"})
	if err != nil || len(entries) != 1 {
		t.Fatalf("Query: err=%v, entries=%d", err, len(entries))
	}

	deleted, err := c.Audit.Purge(ctx, 30)
	if err != nil || deleted != 7 {
		t.Fatalf("Purge: err=%v, deleted=%d", err, deleted)
	}
}

func TestAPIError(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/leads/missing": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 404, map[string]any{"success": false, "code": "not_found", "message": "lead not found"})
		},
		"POST /api/v1/leads": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 400, map[string]any{
				"success": false, "code": "validation_error", "message": "phone must be 10 to 15 digits",
				"field": "phone", "errors": []FieldError{{Field: "phone", Message: "phone must be 10 to 15 digits"}},
			})
		},
		"PATCH /api/v1/leads/stale": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 409, map[string]any{"success": false, "code": "conflict", "message": "record changed"})
		},
		"DELETE /api/v1/leads/theirs": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 403, map[string]any{"success": false, "code": "forbidden", "message": "not owner"})
		},
	})

	ctx := context.Background()

	_, err := c.Leads.Get(ctx, "missing")
	if !IsNotFound(err) {
		t.Errorf("expected not found, got: %v", err)
	}

	_, err = c.Leads.Create(ctx, &LeadInput{Phone: strPtr("12")})
	if !IsValidation(err) {
		t.Errorf("expected validation error, got: %v", err)
	}
	if apiErr, isAPI := err.(*APIError); !isAPI || apiErr.Field != "phone" || len(apiErr.Errors) != 1 {
		t.Errorf("expected field details, got: %#v", err)
	}

	_, err = c.Leads.Update(ctx, "stale", &UpdateLeadRequest{})
	if !IsConflict(err) {
		t.Errorf("expected conflict, got: %v", err)
	}

	if err := c.Leads.Delete(ctx, "theirs"); !IsForbidden(err) {
		t.Errorf("expected forbidden, got: %v", err)
	}
}

func TestAPIError_Wrapped(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/leads/import": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 429, map[string]any{"success": false, "code": "rate_limited", "message": "too many requests"})
		},
	})

	_, err := c.Leads.Import(context.Background(), "x.csv", strings.NewReader("a\n"))
	if !IsRateLimited(err) {
		t.Errorf("expected rate limited through wrapping, got: %v", err)
	}
}

func TestAuthHeader(t *testing.T) {
	var gotAuth string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			jsonResponse(w, 200, HealthResponse{Status: "ok"})
		},
	})

	c.Health(context.Background()) //nolint:errcheck
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header: got %q, want %q", gotAuth, "Bearer test-key")
	}
}
