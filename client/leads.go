package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// LeadService handles lead operations.
type LeadService struct {
	c *Client
}

func (o *LeadListOptions) values() url.Values {
	params := url.Values{}
	if o == nil {
		return params
	}
	if o.Search != "" {
		params.Set("search", o.Search)
	}
	if o.City != "" {
		params.Set("city", o.City)
	}
	if o.PropertyType != "" {
		params.Set("propertyType", o.PropertyType)
	}
	if o.Status != "" {
		params.Set("status", o.Status)
	}
	if o.Timeline != "" {
		params.Set("timeline", o.Timeline)
	}
	if o.Page > 1 {
		params.Set("page", strconv.Itoa(o.Page))
	}
	return params
}

func leadPath(id string) string {
	return "/api/v1/leads/" + url.PathEscape(id)
}

// List returns one page of the caller's leads.
func (s *LeadService) List(ctx context.Context, opts *LeadListOptions) (*LeadPage, error) {
	var page LeadPage
	if err := s.c.get(ctx, "/api/v1/leads", opts.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get returns a lead with its recent history.
func (s *LeadService) Get(ctx context.Context, id string) (*LeadDetail, error) {
	var lead LeadDetail
	if err := s.c.get(ctx, leadPath(id), nil, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// Create creates a lead owned by the caller.
func (s *LeadService) Create(ctx context.Context, in *LeadInput) (*Lead, error) {
	var lead Lead
	if err := s.c.post(ctx, "/api/v1/leads", in, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// Update applies a partial update to a lead the caller owns.
func (s *LeadService) Update(ctx context.Context, id string, req *UpdateLeadRequest) (*Lead, error) {
	var lead Lead
	if err := s.c.patch(ctx, leadPath(id), req, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// Delete removes a lead the caller owns.
func (s *LeadService) Delete(ctx context.Context, id string) error {
	return s.c.del(ctx, leadPath(id), nil, nil)
}

// History returns a page of change history for a lead.
func (s *LeadService) History(ctx context.Context, id string, limit, offset int) ([]HistoryEntry, bool, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	var resp struct {
		Entries []HistoryEntry `json:"entries"`
		HasMore bool           `json:"has_more"`
	}
	if err := s.c.get(ctx, leadPath(id)+"/history", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Entries, resp.HasMore, nil
}

// Export writes the caller's leads matching opts as CSV to w. Page is ignored.
func (s *LeadService) Export(ctx context.Context, opts *LeadListOptions, w io.Writer) error {
	params := opts.values()
	params.Del("page")

	path := "/api/v1/leads/export"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := s.c.send(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// Import uploads a CSV document as a multipart form. Invalid rows are
// reported in the result rather than as an error.
func (s *LeadService) Import(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("import: reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	body, err := s.c.send(ctx, http.MethodPost, "/api/v1/leads/import", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	var result ImportResult
	if err := decodeData(body, &result); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	return &result, nil
}
