package report

import (
	"time"
)

type Status string

const (
	// StatusDraft reports accept daily executed quantities.
	StatusDraft Status = "draft"
	// StatusApproved freezes the report: the ledger write path is gated off
	// until the report is reopened.
	StatusApproved Status = "approved"
)

// Report is one daily reporting period (RDO) of a budget. Executed quantities
// are recorded against a report; deleting a report cascades its records.
type Report struct {
	ID         int
	Uid        string
	BudgetID   int
	ReportDate time.Time
	Status     Status
	Notes      string
}

func (r Report) IsApproved() bool {
	return r.Status == StatusApproved
}
