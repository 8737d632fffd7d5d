// Package models defines data types for buyer leads and their history.
package models

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// City is the city a buyer is looking in.
type City string

const (
	CityChandigarh City = "Chandigarh"
	CityMohali     City = "Mohali"
	CityZirakpur   City = "Zirakpur"
	CityPanchkula  City = "Panchkula"
	CityOther      City = "Other"
)

// Cities lists every valid City in display order.
var Cities = []City{CityChandigarh, CityMohali, CityZirakpur, CityPanchkula, CityOther}

// PropertyType is the kind of property a buyer wants.
type PropertyType string

const (
	PropertyApartment PropertyType = "Apartment"
	PropertyVilla     PropertyType = "Villa"
	PropertyPlot      PropertyType = "Plot"
	PropertyOffice    PropertyType = "Office"
	PropertyRetail    PropertyType = "Retail"
)

// PropertyTypes lists every valid PropertyType.
var PropertyTypes = []PropertyType{PropertyApartment, PropertyVilla, PropertyPlot, PropertyOffice, PropertyRetail}

// Residential reports whether the property type needs a bedroom count.
func (p PropertyType) Residential() bool {
	return p == PropertyApartment || p == PropertyVilla
}

// BHK is the bedroom-count category.
type BHK string

const (
	BHK1      BHK = "1"
	BHK2      BHK = "2"
	BHK3      BHK = "3"
	BHK4      BHK = "4"
	BHKStudio BHK = "Studio"
)

// BHKs lists every valid BHK.
var BHKs = []BHK{BHK1, BHK2, BHK3, BHK4, BHKStudio}

// Purpose is whether the buyer wants to buy or rent.
type Purpose string

const (
	PurposeBuy  Purpose = "Buy"
	PurposeRent Purpose = "Rent"
)

// Purposes lists every valid Purpose.
var Purposes = []Purpose{PurposeBuy, PurposeRent}

// Timeline is how soon the buyer intends to close.
type Timeline string

const (
	Timeline0To3m     Timeline = "0-3m"
	Timeline3To6m     Timeline = "3-6m"
	TimelineOver6m    Timeline = ">6m"
	TimelineExploring Timeline = "Exploring"
)

// Timelines lists every valid Timeline.
var Timelines = []Timeline{Timeline0To3m, Timeline3To6m, TimelineOver6m, TimelineExploring}

// Source is where the lead came from.
type Source string

const (
	SourceWebsite  Source = "Website"
	SourceReferral Source = "Referral"
	SourceWalkIn   Source = "Walk-in"
	SourceCall     Source = "Call"
	SourceOther    Source = "Other"
)

// Sources lists every valid Source.
var Sources = []Source{SourceWebsite, SourceReferral, SourceWalkIn, SourceCall, SourceOther}

// Status is the pipeline stage of a lead.
type Status string

const (
	StatusNew         Status = "New"
	StatusQualified   Status = "Qualified"
	StatusContacted   Status = "Contacted"
	StatusVisited     Status = "Visited"
	StatusNegotiation Status = "Negotiation"
	StatusConverted   Status = "Converted"
	StatusDropped     Status = "Dropped"
)

// Statuses lists every valid Status.
var Statuses = []Status{
	StatusNew, StatusQualified, StatusContacted, StatusVisited,
	StatusNegotiation, StatusConverted, StatusDropped,
}

// oneOf parses s as a member of values.
func oneOf[T ~string](values []T, s string) (T, bool) {
	v := T(s)
	if slices.Contains(values, v) {
		return v, true
	}

	var zero T

	return zero, false
}

// joinValues renders enum members for error messages.
func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}

	return strings.Join(parts, ", ")
}

// Lead is a buyer intake record.
type Lead struct {
	ID           uuid.UUID    `json:"id"`
	FullName     string       `json:"full_name"`
	Email        *string      `json:"email,omitempty"`
	Phone        string       `json:"phone"`
	City         City         `json:"city"`
	PropertyType PropertyType `json:"property_type"`
	BHK          *BHK         `json:"bhk,omitempty"`
	Purpose      Purpose      `json:"purpose"`
	BudgetMin    *int         `json:"budget_min,omitempty"`
	BudgetMax    *int         `json:"budget_max,omitempty"`
	Timeline     Timeline     `json:"timeline"`
	Source       Source       `json:"source"`
	Notes        string       `json:"notes"`
	Tags         []string     `json:"tags"`
	Status       Status       `json:"status"`
	OwnerID      string       `json:"owner_id"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// LeadDetail is a lead with its most recent history entries.
type LeadDetail struct {
	Lead
	History []HistoryEntry `json:"history"`
}

// LeadPageSize is the fixed page size for lead listings.
const LeadPageSize = 10

// LeadFilter narrows a lead listing or export. Zero values mean "no filter".
type LeadFilter struct {
	Search       string
	City         City
	PropertyType PropertyType
	Status       Status
	Timeline     Timeline
}

// ParseLeadFilter builds a LeadFilter from raw query values.
// Values that are not known enum members are ignored.
func ParseLeadFilter(search, city, propertyType, status, timeline string) LeadFilter {
	f := LeadFilter{Search: strings.TrimSpace(search)}

	if v, ok := oneOf(Cities, city); ok {
		f.City = v
	}

	if v, ok := oneOf(PropertyTypes, propertyType); ok {
		f.PropertyType = v
	}

	if v, ok := oneOf(Statuses, status); ok {
		f.Status = v
	}

	if v, ok := oneOf(Timelines, timeline); ok {
		f.Timeline = v
	}

	return f
}

// LeadPage is one page of a lead listing.
type LeadPage struct {
	Leads      []Lead `json:"leads"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}

// TotalPagesFor returns the number of pages needed for total rows.
func TotalPagesFor(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}

	return (total + pageSize - 1) / pageSize
}
