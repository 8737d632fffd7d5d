package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/leadbook/leadbook/client"
)

// captureStdout replaces os.Stdout with a pipe, calls f, then returns the
// captured output and restores os.Stdout. It is NOT safe for parallel use
// because os.Stdout is a package-level variable.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		io.Copy(&buf, r) //nolint:errcheck
		close(done)
	}()

	f()

	w.Close()
	<-done
	os.Stdout = orig
	r.Close()
	return buf.String()
}

func TestFormatJSON(t *testing.T) {
	v := client.Lead{ID: "abc-123", FullName: "Asha Rao"}

	got := captureStdout(t, func() { formatJSON(v) })

	var out client.Lead
	if err := json.Unmarshal([]byte(got), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, got)
	}
	if out.ID != "abc-123" || out.FullName != "Asha Rao" {
		t.Errorf("round trip: got %+v", out)
	}
	if !strings.Contains(got, "\n  ") {
		t.Errorf("expected indented output, got %q", got)
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, []string{"ID", "NAME"}, [][]string{
		{"1", "Asha Rao"},
		{"22", "Ravi"},
	})

	want := "ID  NAME\n" +
		"--  --------\n" +
		"1   Asha Rao\n" +
		"22  Ravi\n"
	if buf.String() != want {
		t.Errorf("table:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestOutputQuiet(t *testing.T) {
	resetFlags(t)
	flagFmt = "quiet"

	got := captureStdout(t, func() { output(client.Lead{ID: "abc"}, "abc") })
	if got != "abc\n" {
		t.Errorf("quiet: got %q", got)
	}
}

func TestBudgetRange(t *testing.T) {
	lo, hi := 5000000, 7500000

	tests := []struct {
		lo, hi *int
		want   string
	}{
		{&lo, &hi, "5000000-7500000"},
		{&lo, nil, "5000000+"},
		{nil, &hi, "<=7500000"},
		{nil, nil, "-"},
	}
	for _, tt := range tests {
		if got := budgetRange(tt.lo, tt.hi); got != tt.want {
			t.Errorf("budgetRange: got %q, want %q", got, tt.want)
		}
	}
}

func TestLeadRow(t *testing.T) {
	lo := 100
	l := client.Lead{
		ID: "l1", FullName: "Asha Rao", Phone: "9876543210", City: "Mohali",
		PropertyType: "Plot", BudgetMin: &lo, Status: "New",
		UpdatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	row := leadRow(&l)
	if len(row) != len(leadHeaders) {
		t.Fatalf("row has %d cells, headers %d", len(row), len(leadHeaders))
	}
	if row[5] != "100+" || row[6] != "New" {
		t.Errorf("unexpected row %v", row)
	}
}
