package closectl

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/erp-period-closing/internal/api_gateway/service"
	closingservice "github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/shared"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (o *options) printReadiness(w io.Writer, report *closing.ReadinessReport) error {
	if o.jsonOutput {
		return writeJSON(w, report)
	}

	fmt.Fprintf(w, "Period %s (%s to %s)\n", report.PeriodCode,
		report.StartDate.Format(time.DateOnly), report.EndDate.Format(time.DateOnly))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tDRAFTS\tPASSED")
	for _, c := range report.Checks {
		fmt.Fprintf(tw, "%s\t%d\t%t\n", c.Category, c.DraftCount, c.Passed)
	}
	fmt.Fprintf(tw, "LEDGER\t%s / %s\t%t\n",
		report.TotalDebit.StringFixed(2), report.TotalCredit.StringFixed(2), report.IsBalanced)
	if err := tw.Flush(); err != nil {
		return err
	}

	if report.Success {
		fmt.Fprintln(w, "Ready to close")
		return nil
	}
	fmt.Fprintln(w, "Not ready to close:")
	for _, item := range report.Remediation() {
		fmt.Fprintf(w, "  - %s\n", item)
	}
	return nil
}

func (o *options) printResult(w io.Writer, result *closingservice.CloseResult) error {
	if o.jsonOutput {
		return writeJSON(w, result)
	}

	fmt.Fprintf(w, "%s %s: %s (run %s)\n",
		result.Run.Action, result.Period.Code, result.Run.Status, result.Run.RunID)
	if result.Run.Action != shared.RunActionReopen {
		fmt.Fprintf(w, "Rows: %d  Ending debit: %s  Ending credit: %s\n",
			result.Run.RowCount,
			result.Totals.EndingDebit.StringFixed(2),
			result.Totals.EndingCredit.StringFixed(2))
	}
	if result.Successor != nil {
		state := "existing"
		if result.SuccessorCreated {
			state = "created"
		}
		fmt.Fprintf(w, "Next period %s (%s)\n", result.Successor.Code, state)
	}
	return nil
}

func (o *options) printTrialBalance(w io.Writer, result *service.TrialBalanceResult) error {
	if o.jsonOutput {
		return writeJSON(w, result)
	}

	if result.Status == service.TrialBalanceStatusNotCalculated {
		fmt.Fprintf(w, "No trial balance for %s yet; run recalculate or close\n", result.Period.Code)
		return nil
	}

	fmt.Fprintf(w, "Trial balance %s (%s, %s)\n", result.Period.Code,
		result.Header.Source, result.Header.CalculatedAt.UTC().Format(time.RFC3339))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CODE\tNAME\tOPENING DR\tOPENING CR\tPERIOD DR\tPERIOD CR\tENDING DR\tENDING CR\tBALANCE\t")
	for _, row := range result.Rows {
		name := row.AccountName
		for i := 0; i < row.Level; i++ {
			name = "  " + name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			row.AccountCode, name,
			row.OpeningDebit.StringFixed(2), row.OpeningCredit.StringFixed(2),
			row.PeriodDebit.StringFixed(2), row.PeriodCredit.StringFixed(2),
			row.EndingDebit.StringFixed(2), row.EndingCredit.StringFixed(2),
			row.EndingBalance().StringFixed(2))
	}
	t := result.Totals
	fmt.Fprintf(tw, "\tTOTAL\t%s\t%s\t%s\t%s\t%s\t%s\t\t\n",
		t.OpeningDebit.StringFixed(2), t.OpeningCredit.StringFixed(2),
		t.PeriodDebit.StringFixed(2), t.PeriodCredit.StringFixed(2),
		t.EndingDebit.StringFixed(2), t.EndingCredit.StringFixed(2))
	if err := tw.Flush(); err != nil {
		return err
	}

	if !result.Balanced {
		fmt.Fprintln(w, "Totals do not balance for this selection")
	}
	return nil
}
