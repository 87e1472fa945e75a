package execution

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/obralog/obralog/pkg/report"
)

type pendingKey struct {
	reportUid    string
	budgetItemId int
}

// FlushResult is the outcome of applying one queued write.
type FlushResult struct {
	ReportUid    string
	BudgetItemId int
	Result       Result
	Err          error
}

// ReportGetter is the slice of the report service the queue needs to honor
// the approval freeze when a flush fires.
type ReportGetter interface {
	Get(ctx context.Context, uid string) (report.Report, error)
}

// PendingWriteQueue coalesces rapid executed-quantity edits for the same
// item and applies only the latest value once a quiet window elapses.
// Later writes for the same (report, item) pair replace earlier ones, so
// a burst of keystrokes produces a single ledger write.
type PendingWriteQueue struct {
	service Service
	reports ReportGetter
	window  time.Duration

	mu      sync.Mutex
	pending map[pendingKey]decimal.Decimal
	timer   *time.Timer

	// onFlush, when set, receives the results of every automatic flush.
	onFlush func([]FlushResult)
}

func NewPendingWriteQueue(service Service, reports ReportGetter, window time.Duration) *PendingWriteQueue {
	return &PendingWriteQueue{
		service: service,
		reports: reports,
		window:  window,
		pending: make(map[pendingKey]decimal.Decimal),
	}
}

// OnFlush registers a callback invoked with the results of timer-driven
// flushes. Must be called before the first Enqueue.
func (q *PendingWriteQueue) OnFlush(fn func([]FlushResult)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onFlush = fn
}

// Enqueue stores the value and restarts the quiet-window timer.
func (q *PendingWriteQueue) Enqueue(reportUid string, budgetItemId int, value decimal.Decimal) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[pendingKey{reportUid: reportUid, budgetItemId: budgetItemId}] = value
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.window, func() {
		results := q.FlushAll(context.Background())
		q.mu.Lock()
		callback := q.onFlush
		q.mu.Unlock()
		if callback != nil {
			callback(results)
		}
	})
}

// FlushAll applies every queued write immediately and empties the queue.
// The report status is re-checked per report: approval may have landed after
// the value was enqueued, and a frozen report must not receive the write.
// Failed or skipped writes are reported in the results but do not stop the
// flush.
func (q *PendingWriteQueue) FlushAll(ctx context.Context) []FlushResult {
	q.mu.Lock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	batch := q.pending
	q.pending = make(map[pendingKey]decimal.Decimal)
	q.mu.Unlock()

	gates := make(map[string]error)
	results := make([]FlushResult, 0, len(batch))
	for key, value := range batch {
		gateErr, checked := gates[key.reportUid]
		if !checked {
			rep, err := q.reports.Get(ctx, key.reportUid)
			if err != nil {
				gateErr = err
			} else if rep.IsApproved() {
				gateErr = ErrReportApproved
			}
			gates[key.reportUid] = gateErr
		}
		if gateErr != nil {
			log.Warnf("Skipping pending execution write for item %d: %v", key.budgetItemId, gateErr)
			results = append(results, FlushResult{
				ReportUid:    key.reportUid,
				BudgetItemId: key.budgetItemId,
				Err:          gateErr,
			})
			continue
		}

		result, err := q.service.SetExecutedToday(ctx, key.reportUid, key.budgetItemId, value)
		if err != nil {
			log.Errorf("Error flushing pending execution write for item %d: %v", key.budgetItemId, err)
		}
		results = append(results, FlushResult{
			ReportUid:    key.reportUid,
			BudgetItemId: key.budgetItemId,
			Result:       result,
			Err:          err,
		})
	}
	return results
}

// Len reports the number of writes waiting to be flushed.
func (q *PendingWriteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
