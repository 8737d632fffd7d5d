package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadbook/leadbook/client"
)

const doctorTimeout = 5 * time.Second

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Check the config file, server reachability, database status and API key.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), cmd.OutOrStdout(), flagURL, flagKey)
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

// runDoctor reports each check on out. url and apiKey are the values
// already resolved from flags, environment and config file.
func runDoctor(ctx context.Context, out io.Writer, url, apiKey string) error {
	var results []checkResult

	path, _, err := loadConfigFile()
	if err != nil {
		results = append(results, checkResult{
			Name: "Config file", Detail: path, Hint: "Run: leadbook-cli init",
		})
	} else {
		results = append(results, checkResult{Name: "Config file", Passed: true, Detail: path})
	}

	results = append(results, checkResult{Name: "Server URL", Passed: true, Detail: url})

	if apiKey == "" {
		results = append(results, checkResult{
			Name: "API key", Hint: "Set --api-key, LEADBOOK_API_KEY, or run leadbook-cli init",
		})
	} else {
		results = append(results, checkResult{Name: "API key", Passed: true, Detail: "configured"})
	}

	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()

	c := client.New(url, client.WithAPIKey(apiKey), client.WithTimeout(doctorTimeout))

	health, err := c.Health(ctx)
	if err != nil {
		results = append(results, checkResult{
			Name: "Server reachable", Detail: url,
			Hint: fmt.Sprintf("Is leadbook serve running? Error: %v", err),
		})
	} else {
		results = append(results, checkResult{
			Name: "Server reachable", Passed: true, Detail: "version " + health.Version,
		})
		results = append(results, checkResult{
			Name:   "Database",
			Passed: health.Database == "connected",
			Detail: health.Database,
			Hint:   "Check DATABASE_URL on the server",
		})
	}

	if err == nil && apiKey != "" {
		if _, err := c.Leads.List(ctx, &client.LeadListOptions{}); err != nil {
			hint := fmt.Sprintf("Error: %v", err)
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
				hint = "The API key was rejected. Create one with: leadbook user add <name>"
			}
			results = append(results, checkResult{Name: "Authentication", Hint: hint})
		} else {
			results = append(results, checkResult{Name: "Authentication", Passed: true, Detail: "valid"})
		}
	}

	return printChecks(out, results)
}

func printChecks(out io.Writer, results []checkResult) error {
	failed := 0
	for _, r := range results {
		mark := "ok  "
		if !r.Passed {
			mark = "FAIL"
			failed++
		}

		line := fmt.Sprintf("[%s] %s", mark, r.Name)
		if r.Detail != "" {
			line += ": " + r.Detail
		}
		fmt.Fprintln(out, line)

		if !r.Passed && r.Hint != "" {
			fmt.Fprintf(out, "       %s\n", r.Hint)
		}
	}

	if failed > 0 {
		return fmt.Errorf("doctor found %d issue(s)", failed)
	}

	fmt.Fprintln(out, "All checks passed.")
	return nil
}
