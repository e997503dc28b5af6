package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/auditlog"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/dto"
)

func AuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the most recent audit entries",
		Long:  "Show status changes and note events merged newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 || limit > auditlog.MaxEntries {
				limit = auditlog.OverviewLimit
			}
			entries, err := a.service(nil).AuditFeed(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to fetch audit log: %w", err)
			}
			printAudit(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", auditlog.OverviewLimit, "Number of entries to show")
	return cmd
}

func TrimAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trim-audit",
		Short: "Delete audit entries beyond the retention cap",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			res, err := auditlog.NewTrimmer(a.store, a.log).Trim(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kept %d, deleted %d status changes and %d note events\n",
				res.Kept, res.StatusDeleted, res.HistoryDeleted)
			return nil
		},
	}
}

func printAudit(w io.Writer, entries []dto.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No audit entries.")
		return
	}
	for _, e := range entries {
		fmt.Fprintln(w, auditLine(e))
	}
}

func auditLine(e dto.AuditEntry) string {
	var b strings.Builder
	b.WriteString(e.CreatedAt.Format("2006-01-02 15:04"))
	b.WriteString("  ")
	switch e.Kind {
	case string(auditlog.KindStatus):
		b.WriteString(color.New(color.FgCyan).Sprintf("%-6s", e.Kind))
	default:
		b.WriteString(color.New(color.FgYellow).Sprintf("%-6s", e.Kind))
	}
	fmt.Fprintf(&b, "  %s %s", who(e.Actor, e.ActorPrefix), e.Action)
	if e.User != nil {
		fmt.Fprintf(&b, " %s", who(e.User, e.UserPrefix))
	}
	if e.Kind == string(auditlog.KindStatus) {
		fmt.Fprintf(&b, ": %s -> %s", e.PreviousLabel, color.New(color.Bold).Sprint(e.NewLabel))
	}
	return b.String()
}

func who(u *dto.UserRef, prefix *string) string {
	if u == nil {
		return "(deleted user)"
	}
	if prefix != nil && *prefix != "" {
		return *prefix + " " + u.Username
	}
	return u.Username
}
