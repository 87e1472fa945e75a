package execution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obralog/obralog/pkg/report"
)

type recordingService struct {
	mu    sync.Mutex
	calls []struct {
		reportUid string
		itemId    int
		value     decimal.Decimal
	}
}

func (s *recordingService) SetExecutedToday(_ context.Context, reportUid string, itemId int, value decimal.Decimal) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, struct {
		reportUid string
		itemId    int
		value     decimal.Decimal
	}{reportUid, itemId, value})
	return Result{}, nil
}

func (s *recordingService) ReadDerivedState(context.Context, string, int) (DerivedState, error) {
	return DerivedState{}, nil
}

func (s *recordingService) ReportStates(context.Context, string) (map[int]DerivedState, error) {
	return nil, nil
}

func (s *recordingService) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubReports struct {
	mu      sync.Mutex
	reports map[string]report.Report
}

func newStubReports(uids ...string) *stubReports {
	s := &stubReports{reports: map[string]report.Report{}}
	for _, uid := range uids {
		s.reports[uid] = report.Report{Uid: uid, Status: report.StatusDraft}
	}
	return s
}

func (s *stubReports) Get(_ context.Context, uid string) (report.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.reports[uid]
	if !ok {
		return report.Report{}, report.ErrReportNotFound
	}
	return rep, nil
}

func (s *stubReports) approve(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep := s.reports[uid]
	rep.Status = report.StatusApproved
	s.reports[uid] = rep
}

func TestPendingWriteQueue(t *testing.T) {
	t.Run("coalesces rapid edits into the latest value", func(t *testing.T) {
		// given
		service := &recordingService{}
		queue := NewPendingWriteQueue(service, newStubReports("rep-1"), time.Hour)

		// when
		queue.Enqueue("rep-1", 7, decimal.NewFromInt(1))
		queue.Enqueue("rep-1", 7, decimal.NewFromInt(2))
		queue.Enqueue("rep-1", 7, decimal.NewFromInt(3))
		results := queue.FlushAll(context.Background())

		// then
		require.Len(t, results, 1)
		require.Equal(t, 1, service.callCount())
		assert.True(t, service.calls[0].value.Equal(decimal.NewFromInt(3)))
		assert.Equal(t, 0, queue.Len())
	})

	t.Run("keeps distinct items separate", func(t *testing.T) {
		// given
		service := &recordingService{}
		queue := NewPendingWriteQueue(service, newStubReports("rep-1", "rep-2"), time.Hour)

		// when
		queue.Enqueue("rep-1", 7, decimal.NewFromInt(1))
		queue.Enqueue("rep-1", 8, decimal.NewFromInt(2))
		queue.Enqueue("rep-2", 7, decimal.NewFromInt(3))
		results := queue.FlushAll(context.Background())

		// then
		assert.Len(t, results, 3)
		assert.Equal(t, 3, service.callCount())
	})

	t.Run("skips writes whose report was approved after enqueue", func(t *testing.T) {
		// given
		service := &recordingService{}
		reports := newStubReports("rep-1")
		queue := NewPendingWriteQueue(service, reports, time.Hour)
		queue.Enqueue("rep-1", 7, decimal.NewFromInt(5))

		// when: approval lands before the flush fires
		reports.approve("rep-1")
		results := queue.FlushAll(context.Background())

		// then: the write is dropped, not applied to the frozen report
		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Err, ErrReportApproved)
		assert.Equal(t, 0, service.callCount())
		assert.Equal(t, 0, queue.Len())
	})

	t.Run("skips writes whose report disappeared", func(t *testing.T) {
		// given
		service := &recordingService{}
		queue := NewPendingWriteQueue(service, newStubReports(), time.Hour)
		queue.Enqueue("gone", 7, decimal.NewFromInt(5))

		// when
		results := queue.FlushAll(context.Background())

		// then
		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Err, report.ErrReportNotFound)
		assert.Equal(t, 0, service.callCount())
	})

	t.Run("flushes automatically after the quiet window", func(t *testing.T) {
		// given
		service := &recordingService{}
		queue := NewPendingWriteQueue(service, newStubReports("rep-1"), 10*time.Millisecond)
		flushed := make(chan []FlushResult, 1)
		queue.OnFlush(func(results []FlushResult) { flushed <- results })

		// when
		queue.Enqueue("rep-1", 7, decimal.NewFromInt(5))

		// then
		select {
		case results := <-flushed:
			require.Len(t, results, 1)
			assert.Equal(t, "rep-1", results[0].ReportUid)
			assert.NoError(t, results[0].Err)
		case <-time.After(time.Second):
			t.Fatal("queue did not flush within the quiet window")
		}
		assert.Equal(t, 0, queue.Len())
	})

	t.Run("manual flush on an empty queue is a no-op", func(t *testing.T) {
		// given
		service := &recordingService{}
		queue := NewPendingWriteQueue(service, newStubReports(), time.Hour)

		// when
		results := queue.FlushAll(context.Background())

		// then
		assert.Empty(t, results)
		assert.Equal(t, 0, service.callCount())
	})
}
