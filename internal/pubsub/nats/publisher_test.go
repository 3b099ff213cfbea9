package nats

import (
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/dripstat/internal/domain"
	"github.com/mtlprog/dripstat/internal/estimate"
)

func runTestNATS(t *testing.T) string {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	t.Cleanup(s.Shutdown)

	return s.ClientURL()
}

func TestConnect_Validation(t *testing.T) {
	_, err := Connect("", "subject")
	assert.EqualError(t, err, "nats url is required")

	_, err = Connect("nats://127.0.0.1:4222", "")
	assert.EqualError(t, err, "nats subject is required")
}

func TestPublisher_Observe(t *testing.T) {
	url := runTestNATS(t)

	pub, err := Connect(url, "dripstat.test")
	require.NoError(t, err)
	defer pub.Close()
	assert.True(t, pub.Ready())

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()

	msgs := make(chan *nats.Msg, 1)
	_, err = sub.ChanSubscribe("dripstat.test", msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	snap := estimate.Snapshot{
		At:          domain.UnixTime(1_700_000_000),
		TotalEarned: domain.DAI(42),
		Streams: map[string]domain.Estimate{
			"s1": {CurrentBalance: domain.DAI(42), RemainingBalance: domain.DAI(8), CurrentlyStreaming: true},
		},
	}
	pub.Observe(snap)

	select {
	case msg := <-msgs:
		var got estimate.Snapshot
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.True(t, got.At.Equal(snap.At))
		assert.Equal(t, "42", got.TotalEarned.String())
		assert.True(t, got.Streams["s1"].CurrentlyStreaming)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestPublisher_CloseIdempotent(t *testing.T) {
	url := runTestNATS(t)

	pub, err := Connect(url, "dripstat.test")
	require.NoError(t, err)

	assert.NoError(t, pub.Close())
	assert.NoError(t, pub.Close())
}
