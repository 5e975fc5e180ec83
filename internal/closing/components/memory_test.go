package components

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/erp-period-closing/internal/config"
	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/erp-period-closing/internal/domain/ledger"
	"github.com/erp-period-closing/internal/domain/outbox"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/erp-period-closing/internal/domain/trialbalance"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var errInjected = errors.New("injected store failure")

// memWorld is an in-memory ledger system whose ExecuteTx rolls every store
// back when the callback fails, so closing atomicity can be observed.
type memWorld struct {
	periods   map[uuid.UUID]period.Period
	lines     []ledger.Line
	snapshots map[uuid.UUID]*trialbalance.Snapshot
	outbox    []*outbox.Message
	runs      []*closing.CloseRun
	drafts    map[closing.DocumentCategory][]time.Time
	heldLocks map[uuid.UUID]bool
	txLocks   []uuid.UUID
	failOn    string
	replaced  int
	chart     *coa.Chart
}

func newMemWorld(chart *coa.Chart) *memWorld {
	return &memWorld{
		periods:   make(map[uuid.UUID]period.Period),
		snapshots: make(map[uuid.UUID]*trialbalance.Snapshot),
		drafts:    make(map[closing.DocumentCategory][]time.Time),
		heldLocks: make(map[uuid.UUID]bool),
		chart:     chart,
	}
}

func (w *memWorld) fail(op string) error {
	if w.failOn == op {
		return errInjected
	}
	return nil
}

func (w *memWorld) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	periods := make(map[uuid.UUID]period.Period, len(w.periods))
	for id, p := range w.periods {
		periods[id] = p
	}
	snapshots := make(map[uuid.UUID]*trialbalance.Snapshot, len(w.snapshots))
	for id, s := range w.snapshots {
		snapshots[id] = s
	}
	outboxLen := len(w.outbox)

	defer func() {
		for _, id := range w.txLocks {
			delete(w.heldLocks, id)
		}
		w.txLocks = nil
	}()

	err := fn(nil)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		w.periods = periods
		w.snapshots = snapshots
		w.outbox = w.outbox[:outboxLen]
		return err
	}
	return nil
}

func (w *memWorld) addPeriod(code string, start, end time.Time) *period.Period {
	p, err := period.NewPeriod(code, code, start.Year(), (int(start.Month())-1)/3+1, start, end)
	if err != nil {
		panic(err)
	}
	w.periods[p.ID] = *p
	return p
}

func (w *memWorld) period(id uuid.UUID) period.Period {
	return w.periods[id]
}

func (w *memWorld) post(acc *coa.Account, debit, credit string, on time.Time) {
	line := ledger.Line{
		ID:              uuid.New(),
		AccountID:       acc.ID,
		Currency:        "IDR",
		TransactionDate: on,
		Status:          ledger.LineStatusPosted,
	}
	if debit != "" {
		line.DebitAmount = decimal.RequireFromString(debit)
	}
	if credit != "" {
		line.CreditAmount = decimal.RequireFromString(credit)
	}
	w.lines = append(w.lines, line)
}

func (w *memWorld) addDraft(category closing.DocumentCategory, on time.Time) {
	w.drafts[category] = append(w.drafts[category], on)
}

func (w *memWorld) counters() []closing.DraftCounter {
	categories := []closing.DocumentCategory{
		closing.CategoryJournalEntries,
		closing.CategorySalesInvoices,
		closing.CategoryExpenseClaims,
		closing.CategoryPurchaseOrders,
	}
	out := make([]closing.DraftCounter, 0, len(categories))
	for _, c := range categories {
		out = append(out, memDraftCounter{w: w, category: c})
	}
	return out
}

func (w *memWorld) deps() Dependencies {
	return Dependencies{
		TxExecutor:       w,
		PeriodRepo:       memPeriodRepo{w},
		Registry:         staticRegistry{chart: w.chart},
		Store:            memLedger{w},
		TrialBalanceRepo: memTrialBalanceRepo{w},
		OutboxRepo:       memOutboxRepo{w},
		RunRepo:          memRunRepo{w},
		Lock:             memLock{w},
		DraftCounters:    w.counters(),
	}
}

func testConfig() *config.Config {
	return &config.Config{
		WorkerPool: config.WorkerPoolConfig{Size: 2},
		Closing: config.ClosingConfig{
			BaseCurrency:         "IDR",
			BalanceTolerance:     closing.DefaultTolerance,
			SuccessorCadence:     string(shared.CadenceMonthly),
			FiscalYearStartMonth: 1,
			RecalculationTimeout: time.Minute,
		},
	}
}

type memPeriodRepo struct{ w *memWorld }

func (r memPeriodRepo) Create(ctx context.Context, p *period.Period) error {
	if err := r.w.fail("CreatePeriod"); err != nil {
		return err
	}
	for _, existing := range r.w.periods {
		if existing.Code == p.Code || existing.Overlaps(p) {
			return period.ErrPeriodOverlap{Code: p.Code}
		}
	}
	r.w.periods[p.ID] = *p
	return nil
}

func (r memPeriodRepo) GetByID(ctx context.Context, id uuid.UUID) (*period.Period, error) {
	p, ok := r.w.periods[id]
	if !ok {
		return nil, period.ErrPeriodNotFound{PeriodID: id}
	}
	return &p, nil
}

func (r memPeriodRepo) GetByCode(ctx context.Context, code string) (*period.Period, error) {
	for _, p := range r.w.periods {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memPeriodRepo) GetPrevious(ctx context.Context, p *period.Period) (*period.Period, error) {
	var prev *period.Period
	for _, candidate := range r.w.periods {
		if !candidate.EndDate.Before(p.StartDate) {
			continue
		}
		if prev == nil || candidate.EndDate.After(prev.EndDate) {
			c := candidate
			prev = &c
		}
	}
	return prev, nil
}

func (r memPeriodRepo) list(keep func(period.Period) bool) []*period.Period {
	var out []*period.Period
	for _, p := range r.w.periods {
		if keep(p) {
			c := p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

func (r memPeriodRepo) ListByFiscalYear(ctx context.Context, fiscalYear int) ([]*period.Period, error) {
	return r.list(func(p period.Period) bool { return p.FiscalYear == fiscalYear }), nil
}

func (r memPeriodRepo) ListAfter(ctx context.Context, after time.Time) ([]*period.Period, error) {
	return r.list(func(p period.Period) bool { return p.StartDate.After(after) }), nil
}

func (r memPeriodRepo) FindOverlapping(ctx context.Context, start, end time.Time) ([]*period.Period, error) {
	return r.list(func(p period.Period) bool { return !p.EndDate.Before(start) && !end.Before(p.StartDate) }), nil
}

func (r memPeriodRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*period.Period, error) {
	return r.GetByID(ctx, id)
}

func (r memPeriodRepo) MarkClosed(ctx context.Context, p *period.Period) error {
	if err := r.w.fail("MarkClosed"); err != nil {
		return err
	}
	if stored := r.w.periods[p.ID]; stored.IsClosed {
		return period.ErrPeriodAlreadyClosed{PeriodID: p.ID, Code: p.Code}
	}
	r.w.periods[p.ID] = *p
	return nil
}

func (r memPeriodRepo) MarkReopened(ctx context.Context, p *period.Period) error {
	if stored := r.w.periods[p.ID]; !stored.IsClosed {
		return period.ErrPeriodNotClosed{PeriodID: p.ID}
	}
	r.w.periods[p.ID] = *p
	return nil
}

func (r memPeriodRepo) WithTx(tx pgx.Tx) period.Repository { return r }

type memLedger struct{ w *memWorld }

func (l memLedger) SumPostedAmounts(ctx context.Context, accountID uuid.UUID, start, end time.Time) (decimal.Decimal, decimal.Decimal, error) {
	m := ledger.SumPostedLines(l.w.lines, start, end)[accountID]
	return m.Debit, m.Credit, nil
}

func (l memLedger) SumPostedByAccount(ctx context.Context, start, end time.Time) (map[uuid.UUID]ledger.Movement, error) {
	return ledger.SumPostedLines(l.w.lines, start, end), nil
}

func (l memLedger) SumPostedTotals(ctx context.Context, start, end time.Time) (ledger.Movement, error) {
	var total ledger.Movement
	for _, m := range ledger.SumPostedLines(l.w.lines, start, end) {
		total = total.Add(m)
	}
	return total, nil
}

func (l memLedger) SumPostedBefore(ctx context.Context, before time.Time) (map[uuid.UUID]ledger.Movement, error) {
	return ledger.SumPostedLines(l.w.lines, time.Time{}, before.AddDate(0, 0, -1)), nil
}

type memTrialBalanceRepo struct{ w *memWorld }

func (r memTrialBalanceRepo) GetSnapshotHeader(ctx context.Context, periodID uuid.UUID) (*trialbalance.Header, error) {
	s, ok := r.w.snapshots[periodID]
	if !ok {
		return nil, nil
	}
	return &trialbalance.Header{
		PeriodID:     s.PeriodID,
		Source:       s.Source,
		Currency:     s.Currency,
		RowCount:     len(s.Rows),
		CalculatedAt: s.CalculatedAt,
	}, nil
}

func (r memTrialBalanceRepo) GetEndingBalances(ctx context.Context, periodID uuid.UUID) (map[uuid.UUID]trialbalance.BalanceRow, error) {
	out := make(map[uuid.UUID]trialbalance.BalanceRow)
	if s, ok := r.w.snapshots[periodID]; ok {
		for _, row := range s.Rows {
			out[row.AccountID] = row
		}
	}
	return out, nil
}

func (r memTrialBalanceRepo) ListRows(ctx context.Context, periodID uuid.UUID, filter trialbalance.Filter) ([]trialbalance.ReportRow, error) {
	var out []trialbalance.ReportRow
	if s, ok := r.w.snapshots[periodID]; ok {
		for _, row := range s.Rows {
			if enriched, ok := trialbalance.Enrich(row, r.w.chart); ok && matchesFilter(filter, enriched) {
				out = append(out, enriched)
			}
		}
	}
	return out, nil
}

// matchesFilter mirrors the ILIKE and account type predicates of the postgres listing
func matchesFilter(f trialbalance.Filter, row trialbalance.ReportRow) bool {
	if f.AccountType != "" && row.AccountType != f.AccountType {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	return q == "" ||
		strings.Contains(strings.ToLower(row.AccountCode), q) ||
		strings.Contains(strings.ToLower(row.AccountName), q)
}

func (r memTrialBalanceRepo) ReplaceSnapshot(ctx context.Context, snapshot *trialbalance.Snapshot) error {
	r.w.replaced++
	if err := r.w.fail("ReplaceSnapshot"); err != nil {
		return err
	}
	r.w.snapshots[snapshot.PeriodID] = snapshot
	return nil
}

func (r memTrialBalanceRepo) WithTx(tx pgx.Tx) trialbalance.Repository { return r }

type memOutboxRepo struct{ w *memWorld }

func (r memOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	if err := r.w.fail("CreateOutbox"); err != nil {
		return err
	}
	message.ID = int64(len(r.w.outbox) + 1)
	r.w.outbox = append(r.w.outbox, message)
	return nil
}

func (r memOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	return r.w.outbox, nil
}

func (r memOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return nil
}

func (r memOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error { return nil }

func (r memOutboxRepo) GetByRunID(ctx context.Context, runID uuid.UUID) (*outbox.Message, error) {
	return nil, outbox.ErrMessageNotFound{}
}

func (r memOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository { return r }

type memRunRepo struct{ w *memWorld }

func (r memRunRepo) Record(ctx context.Context, run *closing.CloseRun) error {
	r.w.runs = append(r.w.runs, run)
	return nil
}

func (r memRunRepo) GetByRunID(ctx context.Context, runID uuid.UUID) (*closing.CloseRun, error) {
	for _, run := range r.w.runs {
		if run.RunID == runID {
			return run, nil
		}
	}
	return nil, closing.ErrRunNotFound{RunID: runID}
}

func (r memRunRepo) ListByPeriod(ctx context.Context, periodID uuid.UUID, limit int) ([]*closing.CloseRun, error) {
	var out []*closing.CloseRun
	for _, run := range r.w.runs {
		if run.PeriodID == periodID {
			out = append(out, run)
		}
	}
	return out, nil
}

type memLock struct{ w *memWorld }

func (l memLock) TryLock(ctx context.Context, periodID uuid.UUID) (bool, error) {
	if l.w.heldLocks[periodID] {
		return false, nil
	}
	l.w.heldLocks[periodID] = true
	l.w.txLocks = append(l.w.txLocks, periodID)
	return true, nil
}

func (l memLock) WithTx(tx pgx.Tx) closing.PeriodLock { return l }

type memDraftCounter struct {
	w        *memWorld
	category closing.DocumentCategory
}

func (c memDraftCounter) Category() closing.DocumentCategory { return c.category }

func (c memDraftCounter) Requirement() string { return "Resolve every draft " + string(c.category) }

func (c memDraftCounter) CountDraftsInRange(ctx context.Context, start, end time.Time) (int, error) {
	count := 0
	for _, on := range c.w.drafts[c.category] {
		if !on.Before(start) && !on.After(end) {
			count++
		}
	}
	return count, nil
}
