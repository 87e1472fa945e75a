package event_bus

const (
	// ExecutionRecordedType is published after a daily executed quantity has been
	// persisted for a budget item. The progress read side listens to it to drop
	// cached snapshots for the affected report.
	ExecutionRecordedType EventType = "execution.recorded"

	// ReportStatusChangedType is published when a daily report is approved or reopened.
	ReportStatusChangedType EventType = "report.status_changed"
)

type ExecutionRecorded struct {
	ReportUid    string
	BudgetId     int
	BudgetItemId int
	// ExecutedToday and ProgressPercent are the persisted (post-clamp) values.
	ExecutedToday   string
	ProgressPercent int
}

type ReportStatusChanged struct {
	ReportUid string
	BudgetId  int
	Status    string
}
