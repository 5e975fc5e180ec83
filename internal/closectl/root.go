// Package closectl implements the operator command line for period closing.
// Commands call the closing service in-process against the same stores as
// the closing API.
package closectl

import (
	"context"
	"fmt"

	"github.com/erp-period-closing/internal/api_gateway/service"
	closingservice "github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Backend is what the commands operate on
type Backend struct {
	Periods      period.Repository
	Closing      closingservice.ClosingService
	TrialBalance service.TrialBalanceQueryService
	Close        func()
}

// BackendFactory connects a Backend; it is invoked once per command run
type BackendFactory func(ctx context.Context) (*Backend, error)

type options struct {
	jsonOutput bool
	newBackend BackendFactory
}

// NewRootCommand creates the root CLI command with all subcommands registered
func NewRootCommand(newBackend BackendFactory) *cobra.Command {
	opts := &options{newBackend: newBackend}

	rootCmd := &cobra.Command{
		Use:   "closectl",
		Short: "Close accounting periods and inspect trial balances",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		newValidateCommand(opts),
		newCloseCommand(opts),
		newReopenCommand(opts),
		newRecalculateCommand(opts),
		newTrialBalanceCommand(opts),
	)

	return rootCmd
}

// withBackend runs fn against a freshly connected backend and the period
// named by ref, which is either a period id or a period code
func (o *options) withBackend(cmd *cobra.Command, ref string, fn func(ctx context.Context, b *Backend, p *period.Period) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	b, err := o.newBackend(ctx)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	if b.Close != nil {
		defer b.Close()
	}

	p, err := resolvePeriod(ctx, b.Periods, ref)
	if err != nil {
		return err
	}
	return fn(ctx, b, p)
}

func resolvePeriod(ctx context.Context, periods period.Repository, ref string) (*period.Period, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return periods.GetByID(ctx, id)
	}

	p, err := periods.GetByCode(ctx, ref)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no period with code %q", ref)
	}
	return p, nil
}
