package models

import (
	"slices"
	"time"
)

// FieldChange is the old and new value of one changed field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Diff maps a changed field name to its old and new value.
type Diff map[string]FieldChange

// leadField describes one lead attribute for diffing and snapshots.
// value returns a comparable, storage-ready value: plain strings and ints,
// nil for an unset optional field and []string for tags.
type leadField struct {
	name    string
	present func(in *LeadInput) bool
	value   func(l *Lead) any
}

var leadFields = []leadField{
	{FieldFullName, func(in *LeadInput) bool { return in.FullName != nil }, func(l *Lead) any { return l.FullName }},
	{FieldEmail, func(in *LeadInput) bool { return in.Email != nil }, func(l *Lead) any { return deref(l.Email) }},
	{FieldPhone, func(in *LeadInput) bool { return in.Phone != nil }, func(l *Lead) any { return l.Phone }},
	{FieldCity, func(in *LeadInput) bool { return in.City != nil }, func(l *Lead) any { return string(l.City) }},
	{FieldPropertyType, func(in *LeadInput) bool { return in.PropertyType != nil }, func(l *Lead) any { return string(l.PropertyType) }},
	{FieldBHK, func(in *LeadInput) bool { return in.BHK != nil }, func(l *Lead) any { return derefString(l.BHK) }},
	{FieldPurpose, func(in *LeadInput) bool { return in.Purpose != nil }, func(l *Lead) any { return string(l.Purpose) }},
	{FieldBudgetMin, func(in *LeadInput) bool { return in.BudgetMin != nil }, func(l *Lead) any { return deref(l.BudgetMin) }},
	{FieldBudgetMax, func(in *LeadInput) bool { return in.BudgetMax != nil }, func(l *Lead) any { return deref(l.BudgetMax) }},
	{FieldTimeline, func(in *LeadInput) bool { return in.Timeline != nil }, func(l *Lead) any { return string(l.Timeline) }},
	{FieldSource, func(in *LeadInput) bool { return in.Source != nil }, func(l *Lead) any { return string(l.Source) }},
	{FieldNotes, func(in *LeadInput) bool { return in.Notes != nil }, func(l *Lead) any { return l.Notes }},
	{FieldTags, func(in *LeadInput) bool { return in.Tags != nil }, func(l *Lead) any { return tagsOrEmpty(l.Tags) }},
	{FieldStatus, func(in *LeadInput) bool { return in.Status != nil }, func(l *Lead) any { return string(l.Status) }},
}

// LeadFieldNames returns every lead field name in schema order.
func LeadFieldNames() []string {
	names := make([]string, len(leadFields))
	for i, f := range leadFields {
		names[i] = f.name
	}

	return names
}

// DiffLead compares current and next over the fields present in in.
// Fields absent from in never appear in the result. Tags compare as sets.
func DiffLead(in *LeadInput, current, next *Lead) Diff {
	d := Diff{}

	for _, f := range leadFields {
		if !f.present(in) {
			continue
		}

		oldV, newV := f.value(current), f.value(next)

		if f.name == FieldTags {
			if sameTags(oldV.([]string), newV.([]string)) {
				continue
			}
		} else if oldV == newV {
			continue
		}

		d[f.name] = FieldChange{Old: oldV, New: newV}
	}

	return d
}

// Columns returns the new value of every changed field keyed by field name.
func (d Diff) Columns() map[string]any {
	cols := make(map[string]any, len(d))
	for k, c := range d {
		cols[k] = c.New
	}

	return cols
}

// Snapshot returns every field of l keyed by field name, plus its identity.
func (l *Lead) Snapshot() map[string]any {
	snap := make(map[string]any, len(leadFields)+3)
	for _, f := range leadFields {
		snap[f.name] = f.value(l)
	}

	snap["id"] = l.ID.String()
	snap["owner_id"] = l.OwnerID
	snap["updated_at"] = l.UpdatedAt.UTC().Format(time.RFC3339Nano)

	return snap
}

// DeletionSnapshot is the history payload recorded when l is deleted.
func DeletionSnapshot(l *Lead) map[string]any {
	snap := l.Snapshot()
	snap["deleted"] = true

	return snap
}

func sameTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)

	return slices.Equal(x, y)
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}

	return tags
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}

	return *p
}

func derefString[T ~string](p *T) any {
	if p == nil {
		return nil
	}

	return string(*p)
}
