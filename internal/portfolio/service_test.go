package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/mtlprog/dripstat/internal/domain"
	"github.com/mtlprog/dripstat/internal/drip"
)

type mockEventSource struct {
	histories map[string][]domain.DripHistoryEvent
	errs      map[string]error
	calls     int
}

func (m *mockEventSource) FetchRateChangeEvents(_ context.Context, payer, accountID, receiver string) ([]domain.DripHistoryEvent, error) {
	m.calls++
	id := domain.StreamDescriptor{Payer: payer, AccountID: accountID, Receiver: receiver}.ID()
	if err := m.errs[id]; err != nil {
		return nil, err
	}
	return m.histories[id], nil
}

var (
	outgoing = domain.StreamDescriptor{Payer: "0xowner", AccountID: "1", Receiver: "0xbob"}
	incoming = domain.StreamDescriptor{Payer: "0xalice", AccountID: "7", Receiver: "0xowner"}
)

func TestFetchStreamDirection(t *testing.T) {
	source := &mockEventSource{histories: map[string][]domain.DripHistoryEvent{
		outgoing.ID(): {{Balance: domain.DAI(10), AmtPerSec: domain.DAI(1), Timestamp: domain.UnixTime(1)}},
	}}
	svc := NewService(source, New("0xOwner"), nil)

	tests := []struct {
		name string
		d    domain.StreamDescriptor
		want domain.Direction
	}{
		{"payer is owner", outgoing, domain.DirectionOutgoing},
		{"receiver is owner", incoming, domain.DirectionIncoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := svc.FetchStream(context.Background(), tt.d)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Direction != tt.want {
				t.Errorf("Direction = %q, want %q", s.Direction, tt.want)
			}
			if s.ID != tt.d.ID() {
				t.Errorf("ID = %q, want %q", s.ID, tt.d.ID())
			}
		})
	}
}

func TestFetchStreamRejectsUnsortedHistory(t *testing.T) {
	source := &mockEventSource{histories: map[string][]domain.DripHistoryEvent{
		outgoing.ID(): {
			{Balance: domain.DAI(10), AmtPerSec: domain.DAI(1), Timestamp: domain.UnixTime(5)},
			{Balance: domain.DAI(10), AmtPerSec: domain.DAI(1), Timestamp: domain.UnixTime(2)},
		},
	}}
	svc := NewService(source, New("0xowner"), nil)

	_, err := svc.FetchStream(context.Background(), outgoing)
	if !errors.Is(err, drip.ErrUnsorted) {
		t.Errorf("error = %v, want ErrUnsorted", err)
	}
}

func TestRefreshReplacesPortfolio(t *testing.T) {
	source := &mockEventSource{histories: map[string][]domain.DripHistoryEvent{
		outgoing.ID(): {{Balance: domain.DAI(10), AmtPerSec: domain.DAI(1), Timestamp: domain.UnixTime(1)}},
	}}
	p := New("0xowner")
	svc := NewService(source, p, []domain.StreamDescriptor{outgoing, incoming})

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len = %d, want 2", p.Len())
	}
	if s, _ := p.Get(incoming.ID()); s.HasHistory() {
		t.Error("incoming stream should be unprovisioned")
	}
}

func TestRefreshKeepsStaleHistoryOnError(t *testing.T) {
	source := &mockEventSource{histories: map[string][]domain.DripHistoryEvent{
		outgoing.ID(): {{Balance: domain.DAI(10), AmtPerSec: domain.DAI(1), Timestamp: domain.UnixTime(1)}},
	}}
	p := New("0xowner")
	svc := NewService(source, p, []domain.StreamDescriptor{outgoing, incoming})
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	source.errs = map[string]error{outgoing.ID(): errors.New("subgraph down")}
	err := svc.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	s, ok := p.Get(outgoing.ID())
	if !ok || !s.HasHistory() {
		t.Error("expected stale history to be kept")
	}
	if p.Len() != 2 {
		t.Errorf("Len = %d, want 2", p.Len())
	}
}

func TestRefreshDropsNeverLoadedStreamOnError(t *testing.T) {
	source := &mockEventSource{errs: map[string]error{incoming.ID(): errors.New("boom")}}
	p := New("0xowner")
	svc := NewService(source, p, []domain.StreamDescriptor{outgoing, incoming})

	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if p.Len() != 1 {
		t.Errorf("Len = %d, want 1", p.Len())
	}
}

type invalidatingSource struct {
	mockEventSource
	invalidated []string
}

func (m *invalidatingSource) Invalidate(_ context.Context, payer, accountID, receiver string) error {
	m.invalidated = append(m.invalidated, domain.StreamDescriptor{Payer: payer, AccountID: accountID, Receiver: receiver}.ID())
	return nil
}

func TestRefreshInvalidatesCachedHistories(t *testing.T) {
	source := &invalidatingSource{}
	svc := NewService(source, New("0xowner"), []domain.StreamDescriptor{outgoing, incoming})

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(source.invalidated) != 2 || source.invalidated[0] != outgoing.ID() || source.invalidated[1] != incoming.ID() {
		t.Errorf("invalidated = %v, want both streams in order", source.invalidated)
	}
	if source.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", source.calls)
	}
}

func TestLoadKeepsCachedHistories(t *testing.T) {
	source := &invalidatingSource{}
	p := New("0xowner")
	svc := NewService(source, p, []domain.StreamDescriptor{outgoing})

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(source.invalidated) != 0 {
		t.Errorf("invalidated = %v, want none", source.invalidated)
	}
	if _, ok := p.Get(outgoing.ID()); !ok {
		t.Error("expected stream to be loaded")
	}
}
