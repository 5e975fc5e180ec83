package closectl

import (
	"context"
	"errors"
	"fmt"

	closingservice "github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/trialbalance"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ErrNotReady makes validate exit non-zero when the period has blockers
var ErrNotReady = errors.New("period is not ready to close")

func newCorrelationID() string {
	return "closectl-" + uuid.NewString()
}

func newValidateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <period>",
		Short: "Check whether a period can be closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, args[0], func(ctx context.Context, b *Backend, p *period.Period) error {
				report, err := b.Closing.ValidateClosing(ctx, p.ID)
				if err != nil {
					return err
				}
				if err := opts.printReadiness(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				if !report.Success {
					return ErrNotReady
				}
				return nil
			})
		},
	}
}

func newCloseCommand(opts *options) *cobra.Command {
	var closedBy string
	var noSuccessor bool

	cmd := &cobra.Command{
		Use:   "close <period>",
		Short: "Close a period and snapshot its trial balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, args[0], func(ctx context.Context, b *Backend, p *period.Period) error {
				result, err := b.Closing.ClosePeriod(ctx, &closingservice.ClosePeriodCommand{
					PeriodID:       p.ID,
					AutoCreateNext: !noSuccessor,
					ClosedBy:       closedBy,
					CorrelationID:  newCorrelationID(),
				})
				if err != nil {
					return opts.explain(cmd, err)
				}
				return opts.printResult(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&closedBy, "by", "", "user closing the period (required)")
	_ = cmd.MarkFlagRequired("by")
	cmd.Flags().BoolVar(&noSuccessor, "no-successor", false, "do not open the next period")

	return cmd
}

func newReopenCommand(opts *options) *cobra.Command {
	var reopenBy string
	var reason string

	cmd := &cobra.Command{
		Use:   "reopen <period>",
		Short: "Reopen a closed period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, args[0], func(ctx context.Context, b *Backend, p *period.Period) error {
				result, err := b.Closing.ReopenPeriod(ctx, &closingservice.ReopenCommand{
					PeriodID:      p.ID,
					ReopenBy:      reopenBy,
					Reason:        reason,
					CorrelationID: newCorrelationID(),
				})
				if err != nil {
					return err
				}
				return opts.printResult(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&reopenBy, "by", "", "user reopening the period (required)")
	_ = cmd.MarkFlagRequired("by")
	cmd.Flags().StringVar(&reason, "reason", "", "why the period is reopened (required)")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func newRecalculateCommand(opts *options) *cobra.Command {
	var requestedBy string

	cmd := &cobra.Command{
		Use:   "recalculate <period>",
		Short: "Rebuild the stored trial balance of a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, args[0], func(ctx context.Context, b *Backend, p *period.Period) error {
				result, err := b.Closing.RecalculateTrialBalance(ctx, &closingservice.RecalculateCommand{
					PeriodID:      p.ID,
					RequestedBy:   requestedBy,
					CorrelationID: newCorrelationID(),
				})
				if err != nil {
					return opts.explain(cmd, err)
				}
				return opts.printResult(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&requestedBy, "by", "", "user requesting the recalculation")

	return cmd
}

func newTrialBalanceCommand(opts *options) *cobra.Command {
	var search string
	var accountType string
	var includeHeaders bool
	var hideEmpty bool

	cmd := &cobra.Command{
		Use:     "trial-balance <period>",
		Aliases: []string{"tb"},
		Short:   "Print the stored trial balance of a period",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := trialbalance.Filter{Search: search, IncludeHeaders: includeHeaders, HideEmpty: hideEmpty}
			if accountType != "" {
				t, err := coa.ParseAccountType(accountType)
				if err != nil {
					return err
				}
				filter.AccountType = t
			}

			return opts.withBackend(cmd, args[0], func(ctx context.Context, b *Backend, p *period.Period) error {
				result, err := b.TrialBalance.GetTrialBalance(ctx, p.ID, filter)
				if err != nil {
					return err
				}
				return opts.printTrialBalance(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "match account code or name")
	cmd.Flags().StringVar(&accountType, "type", "", "account type, e.g. asset or revenue")
	cmd.Flags().BoolVar(&includeHeaders, "headers", false, "include header account roll-ups")
	cmd.Flags().BoolVar(&hideEmpty, "hide-empty", false, "skip accounts with no balance or movement")

	return cmd
}

// explain prints the remediation checklist of a rejected close before
// handing the error back to cobra
func (o *options) explain(cmd *cobra.Command, err error) error {
	var notReady closing.ErrPeriodNotReady
	if errors.As(err, &notReady) && notReady.Report != nil && !o.jsonOutput {
		w := cmd.ErrOrStderr()
		for _, item := range notReady.Report.Remediation() {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
	return err
}
