package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadbook/leadbook/client"
)

func newLeadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lead",
		Short: "Manage leads",
	}
	cmd.AddCommand(leadListCmd())
	cmd.AddCommand(leadGetCmd())
	cmd.AddCommand(leadCreateCmd())
	cmd.AddCommand(leadUpdateCmd())
	cmd.AddCommand(leadDeleteCmd())
	cmd.AddCommand(leadHistoryCmd())
	return cmd
}

// leadFlags holds the per-field flags shared by create and update.
type leadFlags struct {
	name, email, phone, city, propertyType, bhk string
	purpose, timeline, source, notes, tags      string
	status                                      string
	budgetMin, budgetMax                        int
}

func (f *leadFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "Full name")
	fs.StringVar(&f.email, "email", "", "Email address")
	fs.StringVar(&f.phone, "phone", "", "Phone number (10-15 digits)")
	fs.StringVar(&f.city, "city", "", "Chandigarh|Mohali|Zirakpur|Panchkula|Other")
	fs.StringVar(&f.propertyType, "property-type", "", "Apartment|Villa|Plot|Office|Retail")
	fs.StringVar(&f.bhk, "bhk", "", "1|2|3|4|Studio")
	fs.StringVar(&f.purpose, "purpose", "", "Buy|Rent")
	fs.IntVar(&f.budgetMin, "budget-min", 0, "Minimum budget")
	fs.IntVar(&f.budgetMax, "budget-max", 0, "Maximum budget")
	fs.StringVar(&f.timeline, "timeline", "", "0-3m|3-6m|>6m|Exploring")
	fs.StringVar(&f.source, "source", "", "Website|Referral|Walk-in|Call|Other")
	fs.StringVar(&f.notes, "notes", "", "Free-form notes")
	fs.StringVar(&f.tags, "tags", "", "Comma-separated tags")
	fs.StringVar(&f.status, "status", "", "Pipeline status")
}

// input builds a LeadInput from the flags the user actually set, so an
// update leaves every other field unchanged.
func (f *leadFlags) input(cmd *cobra.Command) client.LeadInput {
	var in client.LeadInput
	set := func(flag string, dst **string, v string) {
		if cmd.Flags().Changed(flag) {
			val := v
			*dst = &val
		}
	}
	set("name", &in.FullName, f.name)
	set("email", &in.Email, f.email)
	set("phone", &in.Phone, f.phone)
	set("city", &in.City, f.city)
	set("property-type", &in.PropertyType, f.propertyType)
	set("bhk", &in.BHK, f.bhk)
	set("purpose", &in.Purpose, f.purpose)
	set("timeline", &in.Timeline, f.timeline)
	set("source", &in.Source, f.source)
	set("notes", &in.Notes, f.notes)
	set("status", &in.Status, f.status)

	if cmd.Flags().Changed("budget-min") {
		v := f.budgetMin
		in.BudgetMin = &v
	}
	if cmd.Flags().Changed("budget-max") {
		v := f.budgetMax
		in.BudgetMax = &v
	}
	if cmd.Flags().Changed("tags") {
		tags := splitTags(f.tags)
		in.Tags = &tags
	}
	return in
}

func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func leadListCmd() *cobra.Command {
	var opts client.LeadListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your leads, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			if opts.Page < 0 {
				fmt.Fprintf(os.Stderr, "Error: --page must be non-negative\n")
				os.Exit(1)
			}
			page, err := apiClient.Leads.List(context.Background(), &opts)
			if err != nil {
				fatal("list leads", err)
			}
			switch flagFmt {
			case "table":
				rows := make([][]string, 0, len(page.Leads))
				for i := range page.Leads {
					rows = append(rows, leadRow(&page.Leads[i]))
				}
				formatTable(leadHeaders, rows)
				fmt.Printf("\npage %d of %d (%d leads)\n", page.Page, page.TotalPages, page.Total)
			case "quiet":
				for _, l := range page.Leads {
					fmt.Println(l.ID)
				}
			default:
				output(page, "")
			}
		},
	}
	cmd.Flags().StringVarP(&opts.Search, "search", "q", "", "Match name, email or phone")
	cmd.Flags().StringVar(&opts.City, "city", "", "Filter by city")
	cmd.Flags().StringVar(&opts.PropertyType, "property-type", "", "Filter by property type")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&opts.Timeline, "timeline", "", "Filter by timeline")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number")
	return cmd
}

func leadGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a lead with its recent history",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			lead, err := apiClient.Leads.Get(context.Background(), args[0])
			if err != nil {
				fatal("get lead", err)
			}
			if flagFmt == "table" {
				formatTable(leadHeaders, [][]string{leadRow(&lead.Lead)})
				return
			}
			output(lead, lead.ID)
		},
	}
}

func leadCreateCmd() *cobra.Command {
	var f leadFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a lead",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			in := f.input(cmd)
			lead, err := apiClient.Leads.Create(context.Background(), &in)
			if err != nil {
				fatal("create lead", err)
			}
			output(lead, lead.ID)
		},
	}
	f.register(cmd)
	return cmd
}

func leadUpdateCmd() *cobra.Command {
	var f leadFlags
	var updatedAt string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a lead you own",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.UpdateLeadRequest{LeadInput: f.input(cmd)}
			if updatedAt != "" {
				t, err := time.Parse(time.RFC3339, updatedAt)
				if err != nil {
					fatal("parse --updated-at", err)
				}
				req.UpdatedAt = &t
			}
			lead, err := apiClient.Leads.Update(context.Background(), args[0], req)
			if err != nil {
				if client.IsConflict(err) {
					fmt.Fprintln(os.Stderr, "hint: the lead changed since you read it; fetch it again and retry")
				}
				fatal("update lead", err)
			}
			output(lead, lead.ID)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&updatedAt, "updated-at", "", "Last-seen updated_at (RFC3339); rejects the update if the lead changed since")
	return cmd
}

func leadDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a lead you own",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Leads.Delete(context.Background(), args[0]); err != nil {
				fatal("delete lead", err)
			}
			fmt.Println("deleted")
		},
	}
}

func leadHistoryCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show change history for a lead",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			entries, hasMore, err := apiClient.Leads.History(context.Background(), args[0], limit, offset)
			if err != nil {
				fatal("get history", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.ChangedAt.Local().Format(time.DateTime), e.ChangedBy, string(e.Diff)})
				}
				formatTable([]string{"CHANGED", "BY", "DIFF"}, rows)
				if hasMore {
					fmt.Println("\n(more entries available, use --offset)")
				}
				return
			}
			output(entries, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Max entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}
