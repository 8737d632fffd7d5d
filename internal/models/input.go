package models

import (
	"strconv"
	"strings"
	"time"
)

// LeadInput is an unvalidated lead payload. A nil field is absent.
// Enum fields are raw strings so unknown values reach the validator
// instead of failing JSON binding.
type LeadInput struct {
	FullName     *string   `json:"full_name,omitempty"`
	Email        *string   `json:"email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	City         *string   `json:"city,omitempty"`
	PropertyType *string   `json:"property_type,omitempty"`
	BHK          *string   `json:"bhk,omitempty"`
	Purpose      *string   `json:"purpose,omitempty"`
	BudgetMin    *int      `json:"budget_min,omitempty"`
	BudgetMax    *int      `json:"budget_max,omitempty"`
	Timeline     *string   `json:"timeline,omitempty"`
	Source       *string   `json:"source,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
	Status       *string   `json:"status,omitempty"`
}

// UpdateLeadRequest is the payload for updating a lead. UpdatedAt is the
// last-modified timestamp the caller saw; when set, the update is rejected
// if the lead has changed since.
type UpdateLeadRequest struct {
	LeadInput
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CSV column names, in export order.
const (
	ColFullName     = "fullName"
	ColEmail        = "email"
	ColPhone        = "phone"
	ColCity         = "city"
	ColPropertyType = "propertyType"
	ColBHK          = "bhk"
	ColPurpose      = "purpose"
	ColBudgetMin    = "budgetMin"
	ColBudgetMax    = "budgetMax"
	ColTimeline     = "timeline"
	ColSource       = "source"
	ColNotes        = "notes"
	ColTags         = "tags"
	ColStatus       = "status"
	ColUpdatedAt    = "updatedAt"
)

// ExportColumns is the fixed column order of a lead export document.
var ExportColumns = []string{
	ColFullName, ColEmail, ColPhone, ColCity, ColPropertyType, ColBHK, ColPurpose,
	ColBudgetMin, ColBudgetMax, ColTimeline, ColSource, ColNotes, ColTags, ColStatus, ColUpdatedAt,
}

// MaxImportRows caps the number of rows accepted by a single import.
const MaxImportRows = 200

// MaxExportRows caps the number of rows written by a single export.
const MaxExportRows = 10000

// RowError reports the validation failures of one import row (1-based).
type RowError struct {
	Row    int          `json:"row"`
	Errors []FieldError `json:"errors"`
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Inserted int        `json:"inserted"`
	Errors   []RowError `json:"errors"`
}

// LeadInputFromRow converts a header-keyed CSV row into a LeadInput.
// Empty cells are absent, tags are split on commas and budgets are parsed;
// unparseable budgets are returned as field errors.
func LeadInputFromRow(row map[string]string) (LeadInput, []FieldError) {
	var in LeadInput
	var errs []FieldError

	cell := func(keys ...string) *string {
		for _, k := range keys {
			if v := strings.TrimSpace(row[k]); v != "" {
				return &v
			}
		}

		return nil
	}

	in.FullName = cell(ColFullName, "name")
	in.Email = cell(ColEmail)
	in.Phone = cell(ColPhone)
	in.City = cell(ColCity)
	in.PropertyType = cell(ColPropertyType)
	in.BHK = cell(ColBHK)
	in.Purpose = cell(ColPurpose)
	in.Timeline = cell(ColTimeline)
	in.Source = cell(ColSource)
	in.Notes = cell(ColNotes)
	in.Status = cell(ColStatus)

	if v := cell(ColBudgetMin); v != nil {
		n, err := strconv.Atoi(*v)
		if err != nil {
			errs = append(errs, FieldError{Field: FieldBudgetMin, Message: "budget_min must be a whole number"})
		} else {
			in.BudgetMin = &n
		}
	}

	if v := cell(ColBudgetMax); v != nil {
		n, err := strconv.Atoi(*v)
		if err != nil {
			errs = append(errs, FieldError{Field: FieldBudgetMax, Message: "budget_max must be a whole number"})
		} else {
			in.BudgetMax = &n
		}
	}

	if v := cell(ColTags); v != nil {
		tags := SplitTags(*v)
		in.Tags = &tags
	}

	return in, errs
}

// SplitTags splits a comma-separated tag string, dropping empty entries.
func SplitTags(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))

	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}

	return tags
}
