package main

import (
	"fmt"

	"github.com/propertyfriends/pf-engine/cycle"
	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/spf13/cobra"
)

func detectCmd(a *app) *cobra.Command {
	var rule, month string
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run exception detection once",
		Long: `Runs the detection rules against the database and prints what was
created or escalated. --rule picks one rule: plans, statements, overdue
or bookings.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			d := a.newDetector(st)
			ctx := cmd.Context()
			var out any
			switch rule {
			case "all":
				summary, err := d.RunAll(ctx)
				if err != nil {
					a.logger.WithError(err).Warn("detection finished with rule failures")
				}
				out = summary
			case exceptions.RulePlanExpiry, "plans":
				out, err = d.DetectExpiringPlans(ctx, a.cfg.Detection.PlanExpiryDays)
			case exceptions.RuleMissingStatement, "statements":
				p, perr := a.periodOrPrevious(month)
				if perr != nil {
					return perr
				}
				out, err = d.DetectMissingStatements(ctx, p)
			case exceptions.RuleOverdueInvoice, "overdue":
				out, err = d.DetectOverdueInvoices(ctx)
			case exceptions.RuleBookingExpiry, "bookings":
				out, err = d.DetectExpiringBookings(ctx, a.cfg.Detection.BookingExpiryDays)
			default:
				return fmt.Errorf("unknown rule %q", rule)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&rule, "rule", "all", "rule to run: all, plans, statements, overdue, bookings")
	cmd.Flags().StringVar(&month, "period", "", "statement period YYYY-MM (default last month)")
	return cmd
}

func cycleCmd(a *app) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Create pending reconciliations for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.periodOrPrevious(month)
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			summary, err := cycle.NewRunner(st, a.logger).Run(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&month, "period", "", "period YYYY-MM (default last month)")
	return cmd
}

// periodOrPrevious parses raw, or returns last month in the schedule time
// zone when raw is empty.
func (a *app) periodOrPrevious(raw string) (period.Period, error) {
	if raw == "" {
		return period.Of(a.now().In(a.cfg.Location())).Previous(), nil
	}
	return period.Parse(raw)
}
