package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadbook/leadbook/client"
)

func newAuditCmd() *cobra.Command {
	var opts client.AuditQueryOptions
	var since string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show your audit log",
		Run: func(cmd *cobra.Command, args []string) {
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					fatal("parse --since", err)
				}
				opts.Since = &t
			}
			entries, _, err := apiClient.Audit.Query(context.Background(), &opts)
			if err != nil {
				fatal("query audit", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.CreatedAt.Local().Format(time.DateTime), e.Action, e.EntityID, fmt.Sprint(e.Detail)})
				}
				formatTable([]string{"TIME", "ACTION", "ENTITY", "DETAIL"}, rows)
				return
			}
			output(entries, "")
		},
	}
	cmd.Flags().StringVar(&opts.Action, "action", "", "Filter by action (e.g. lead.update)")
	cmd.Flags().StringVar(&opts.EntityID, "entity-id", "", "Filter by lead ID")
	cmd.Flags().StringVar(&since, "since", "", "Only entries after this time (RFC3339)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "Max entries")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Offset")

	cmd.AddCommand(auditPurgeCmd())
	return cmd
}

func auditPurgeCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete your audit entries older than --days",
		Run: func(cmd *cobra.Command, args []string) {
			deleted, err := apiClient.Audit.Purge(context.Background(), days)
			if err != nil {
				fatal("purge audit", err)
			}
			output(map[string]int{"deleted": deleted, "retention_days": days}, fmt.Sprint(deleted))
		},
	}
	cmd.Flags().IntVar(&days, "days", 90, "Retention in days")
	return cmd
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := apiClient.Health(context.Background())
			if err != nil {
				fatal("health", err)
			}
			output(resp, resp.Status)
		},
	}
}
