package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leadbook/leadbook/client"
)

// executeArgs runs the given root command with args and returns any error.
// It suppresses cobra's usage/error output so test output stays clean.
func executeArgs(t *testing.T, root *cobra.Command, args ...string) error {
	t.Helper()
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	root.SetArgs(args)
	_, err := root.ExecuteC()
	return err
}

// newTestRoot builds the real command tree with PersistentPreRun stubbed
// out so the API client set by the test is kept.
func newTestRoot(t *testing.T) *cobra.Command {
	t.Helper()
	resetFlags(t)
	root := newRootCmd()
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {}
	return root
}

func TestLeadArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"get needs id", []string{"lead", "get"}},
		{"update needs id", []string{"lead", "update"}},
		{"delete takes one id", []string{"lead", "delete", "a", "b"}},
		{"history needs id", []string{"lead", "history"}},
		{"create takes no args", []string{"lead", "create", "Asha"}},
		{"import needs file", []string{"import"}},
		{"unknown flag", []string{"lead", "list", "--color", "red"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := executeArgs(t, newTestRoot(t), tt.args...); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}

func TestLeadFlagsInput(t *testing.T) {
	var f leadFlags
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd)

	err := cmd.Flags().Parse([]string{
		"--name", "Asha Rao", "--phone", "9876543210", "--budget-min", "0",
		"--tags", " hot, ,nri ", "--status", "Contacted",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	in := f.input(cmd)

	if in.FullName == nil || *in.FullName != "Asha Rao" {
		t.Errorf("name: got %v", in.FullName)
	}
	if in.BudgetMin == nil || *in.BudgetMin != 0 {
		t.Errorf("explicit zero budget should be sent, got %v", in.BudgetMin)
	}
	if in.BudgetMax != nil || in.Email != nil || in.City != nil {
		t.Error("unset flags must stay nil")
	}
	if in.Tags == nil || strings.Join(*in.Tags, "|") != "hot|nri" {
		t.Errorf("tags: got %v", in.Tags)
	}
}

func TestExportCommandWritesFile(t *testing.T) {
	const doc = "fullName,email\nAsha Rao,\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/leads/export" || r.URL.Query().Get("status") != "New" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(doc)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	root := newTestRoot(t)
	orig := apiClient
	apiClient = client.New(srv.URL)
	t.Cleanup(func() { apiClient = orig })

	out := filepath.Join(t.TempDir(), "out.csv")
	root.SetContext(context.Background())
	if err := executeArgs(t, root, "export", "--status", "New", "-o", out); err != nil {
		t.Fatalf("export: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != doc {
		t.Errorf("export file: got %q", got)
	}
}

func TestImportCommandMissingFile(t *testing.T) {
	root := newTestRoot(t)
	err := executeArgs(t, root, "import", filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil || !strings.Contains(err.Error(), "opening import file") {
		t.Errorf("expected open error, got %v", err)
	}
}

func TestExportArgs(t *testing.T) {
	if err := executeArgs(t, newTestRoot(t), "export", "a.csv", "b.csv"); err == nil {
		t.Error("expected error for two output files")
	}
}
