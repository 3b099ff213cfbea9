package domain

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Direction classifies a stream relative to the observing account.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// StreamDescriptor locates a stream on chain: the payer's drips sub-account and
// the receiver whose rate is tracked.
type StreamDescriptor struct {
	Payer     string `json:"payer"`
	AccountID string `json:"accountId"`
	Receiver  string `json:"receiver"`
}

// ID returns the stable identifier "payer:accountId:receiver" (addresses lowercased).
func (d StreamDescriptor) ID() string {
	return fmt.Sprintf("%s:%s:%s", strings.ToLower(d.Payer), d.AccountID, strings.ToLower(d.Receiver))
}

// DirectionFor returns outgoing when owner is the payer, incoming otherwise.
func (d StreamDescriptor) DirectionFor(owner string) Direction {
	if strings.EqualFold(d.Payer, owner) {
		return DirectionOutgoing
	}
	return DirectionIncoming
}

// ParseStreamDescriptors parses a comma-separated list of "payer:accountId:receiver".
func ParseStreamDescriptors(s string) ([]StreamDescriptor, error) {
	parts := lo.Filter(strings.Split(s, ","), func(p string, _ int) bool {
		return strings.TrimSpace(p) != ""
	})

	descriptors := make([]StreamDescriptor, 0, len(parts))
	for _, p := range parts {
		fields := strings.Split(strings.TrimSpace(p), ":")
		if len(fields) != 3 || lo.Contains(fields, "") {
			return nil, fmt.Errorf("invalid stream descriptor %q, expected payer:accountId:receiver", p)
		}
		descriptors = append(descriptors, StreamDescriptor{
			Payer:     strings.ToLower(fields[0]),
			AccountID: fields[1],
			Receiver:  strings.ToLower(fields[2]),
		})
	}
	return descriptors, nil
}

// Stream is one money stream with its rate-change history. An empty history
// means the stream has not been provisioned on chain yet.
type Stream struct {
	ID        string             `json:"id"`
	Direction Direction          `json:"direction"`
	Payer     string             `json:"payer"`
	Receiver  string             `json:"receiver"`
	AccountID string             `json:"accountId"`
	History   []DripHistoryEvent `json:"history,omitempty"`
}

// NewStream builds a stream for the descriptor as seen by owner.
func NewStream(d StreamDescriptor, owner string, history []DripHistoryEvent) Stream {
	return Stream{
		ID:        d.ID(),
		Direction: d.DirectionFor(owner),
		Payer:     d.Payer,
		Receiver:  d.Receiver,
		AccountID: d.AccountID,
		History:   history,
	}
}

func (s Stream) HasHistory() bool {
	return len(s.History) > 0
}
