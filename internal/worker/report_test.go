package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mtlprog/dripstat/internal/domain"
)

type mockStatementGenerator struct {
	callCount atomic.Int32
	lastDate  atomic.Value
	err       error
}

func (m *mockStatementGenerator) Generate(_ context.Context, slug string, date time.Time) (domain.Statement, error) {
	m.callCount.Add(1)
	m.lastDate.Store(date)
	return domain.Statement{Owner: slug, Date: date}, m.err
}

type mockHook struct {
	callCount atomic.Int32
}

func (m *mockHook) Export(_ context.Context, _ domain.Statement) error {
	m.callCount.Add(1)
	return nil
}

func TestReportWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockStatementGenerator{}
	hook := &mockHook{}
	w := NewReportWorker(mock, "owner", 50*time.Millisecond, hook)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := mock.callCount.Load(); got < 1 {
		t.Errorf("call count = %d, want >= 1", got)
	}
	if got := hook.callCount.Load(); got != mock.callCount.Load() {
		t.Errorf("hook calls = %d, want %d", got, mock.callCount.Load())
	}
}

func TestReportWorkerUsesUTCDate(t *testing.T) {
	mock := &mockStatementGenerator{}
	w := NewReportWorker(mock, "owner", time.Hour, nil)
	w.clock = func() time.Time { return time.Date(2024, 3, 5, 17, 30, 0, 0, time.UTC) }

	if err := w.generate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if got := mock.lastDate.Load().(time.Time); !got.Equal(want) {
		t.Errorf("date = %v, want %v", got, want)
	}
}

func TestReportWorkerSkipsHookOnError(t *testing.T) {
	mock := &mockStatementGenerator{err: errors.New("db down")}
	hook := &mockHook{}
	w := NewReportWorker(mock, "owner", time.Hour, hook)

	if err := w.generate(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if hook.callCount.Load() != 0 {
		t.Error("hook should not run after a failed generation")
	}
}
