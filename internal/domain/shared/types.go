package shared

// RunAction identifies which closing operation produced a close run
type RunAction string

const (
	RunActionClose       RunAction = "CLOSE"
	RunActionRecalculate RunAction = "RECALCULATE"
	RunActionReopen      RunAction = "REOPEN"
)

// RunStatus defines close run outcomes
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusRejected  RunStatus = "REJECTED" // validation blocked the run
	RunStatusFailed    RunStatus = "FAILED"   // infrastructure failure, rolled back
)

// SnapshotSource records which operation wrote a trial balance snapshot
type SnapshotSource string

const (
	SnapshotSourceClose       SnapshotSource = "CLOSE"
	SnapshotSourceRecalculate SnapshotSource = "RECALCULATE"
)

// EventType defines the events written to the outbox
type EventType string

const (
	EventTypePeriodClosed             EventType = "PERIOD_CLOSED"
	EventTypeTrialBalanceRecalculated EventType = "TRIAL_BALANCE_RECALCULATED"
	EventTypePeriodReopened           EventType = "PERIOD_REOPENED"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// Cadence controls how the successor of a closed period is derived
type Cadence string

const (
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
)
