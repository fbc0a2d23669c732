package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Asthay97/personal-bank-fullstack/internal/livefeed"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/logger"
	"github.com/Asthay97/personal-bank-fullstack/internal/reconcile"
	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.Init("error")
}

type received struct {
	msg livefeed.Message
	err error
}

type fakeConn struct {
	msgs   chan received
	closed atomic.Bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{msgs: make(chan received, 16)}
}

func (c *fakeConn) send(msg livefeed.Message) { c.msgs <- received{msg: msg} }
func (c *fakeConn) fail(err error)            { c.msgs <- received{err: err} }

func (c *fakeConn) Receive(ctx context.Context) (livefeed.Message, error) {
	select {
	case r, ok := <-c.msgs:
		if !ok {
			return livefeed.Message{}, io.EOF
		}
		return r.msg, r.err
	case <-ctx.Done():
		return livefeed.Message{}, ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

type dialResult struct {
	conn Conn
	err  error
}

type fakeDialer struct {
	results chan dialResult
	dials   atomic.Int32
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{results: make(chan dialResult, 8)}
}

func (d *fakeDialer) Dial(ctx context.Context) (Conn, error) {
	d.dials.Add(1)
	select {
	case r := <-d.results:
		return r.conn, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func payment(id string, round uint64) txrecord.Record {
	return txrecord.Record{ID: id, Kind: txrecord.KindPayment, Sender: "ACC", Amount: 1, Round: round}
}

func inner(id, parentID string, amount uint64) txrecord.Record {
	return txrecord.Record{ID: id, Kind: txrecord.KindPayment, Sender: "APP", Receiver: "ACC", Amount: amount, IsInner: true, ParentID: parentID}
}

func assertSameLog(t *testing.T, want, got []txrecord.Record) {
	t.Helper()

	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, txrecord.SameContent(want[i], got[i]), "record %d: want %+v, got %+v", i, want[i], got[i])
	}
}

func eventuallyState(t *testing.T, m *Mirror, want State) {
	t.Helper()
	assert.Eventually(t, func() bool { return m.State() == want }, time.Second, 5*time.Millisecond, "state %s", want)
}

func TestMirror_Apply(t *testing.T) {
	t.Run("should replace any prior state with a snapshot", func(t *testing.T) {
		m := New(newFakeDialer())
		m.Apply(livefeed.Snapshot([]txrecord.Record{payment("OLD", 1)}))
		m.Apply(livefeed.Update(payment("LOCAL", 2)))
		m.Apply(livefeed.Update(inner("X-0", "X", 1)))

		snapshot := []txrecord.Record{payment("T2", 101), payment("T1", 100)}
		assert.True(t, m.Apply(livefeed.Snapshot(snapshot)))

		assertSameLog(t, snapshot, m.Transactions())
		assert.Equal(t, StateSynced, m.State())
	})

	t.Run("should insert new records at the front", func(t *testing.T) {
		m := New(newFakeDialer())
		m.Apply(livefeed.Snapshot([]txrecord.Record{payment("T1", 100)}))

		assert.True(t, m.Apply(livefeed.Update(payment("T2", 101))))
		assertSameLog(t, []txrecord.Record{payment("T2", 101), payment("T1", 100)}, m.Transactions())
	})

	t.Run("should ignore redelivered updates", func(t *testing.T) {
		m := New(newFakeDialer())
		m.Apply(livefeed.Snapshot(nil))

		assert.True(t, m.Apply(livefeed.Update(payment("T1", 100))))
		assert.False(t, m.Apply(livefeed.Update(payment("T1", 100))))
		assert.Len(t, m.Transactions(), 1)
	})

	t.Run("should pick up replaced inner records", func(t *testing.T) {
		parent := payment("P", 10)
		parent.InnerTransactions = []txrecord.Record{inner("P-0", "P", 1)}

		m := New(newFakeDialer())
		m.Apply(livefeed.Snapshot([]txrecord.Record{parent}))

		revised := parent.Clone()
		revised.InnerTransactions[0].Amount = 9
		assert.True(t, m.Apply(livefeed.Update(revised)))
		assert.Equal(t, uint64(9), m.Transactions()[0].InnerTransactions[0].Amount)
	})

	t.Run("should ignore unknown message types", func(t *testing.T) {
		m := New(newFakeDialer())
		m.Apply(livefeed.Snapshot([]txrecord.Record{payment("T1", 1)}))

		assert.False(t, m.Apply(livefeed.Message{Type: "ping"}))
		assert.False(t, m.Apply(livefeed.Message{Type: livefeed.TypeUpdate}))
		assert.Len(t, m.Transactions(), 1)
	})

	t.Run("should signal changes", func(t *testing.T) {
		m := New(newFakeDialer())
		m.Apply(livefeed.Snapshot(nil))

		select {
		case <-m.Changes():
		case <-time.After(time.Second):
			t.Fatal("no change signal")
		}
	})

	t.Run("should expose the display arrangement", func(t *testing.T) {
		call := payment("APPL", 100)
		call.Kind = txrecord.KindApplicationCall
		call.GroupID = "G"
		pay := payment("PAY", 100)
		pay.GroupID = "G"

		m := New(newFakeDialer())
		m.Apply(livefeed.Snapshot([]txrecord.Record{pay, call}))

		groups := m.Groups()
		require.Len(t, groups, 1)
		assert.Equal(t, "APPL", groups[0].Records[0].ID)
	})
}

// The mirror must end up with the server's log when it replays the
// server's visible changes as updates.
func TestMirror_ConvergesWithServer(t *testing.T) {
	limits := reconcile.Limits{MaxLogSize: 5, MaxPendingOrphans: 4}
	rng := rand.New(rand.NewPCG(3, 5))

	var server reconcile.Result
	m := New(newFakeDialer(), WithLimits(limits))
	m.Apply(livefeed.Snapshot(nil))

	for step := range 1500 {
		parent := fmt.Sprintf("T%d", rng.IntN(9))

		var incoming txrecord.Record
		switch rng.IntN(3) {
		case 0:
			incoming = inner(fmt.Sprintf("%s-%d", parent, rng.IntN(3)), parent, uint64(rng.IntN(4)))
		default:
			incoming = payment(parent, uint64(rng.IntN(4)))
			for i := range rng.IntN(3) {
				incoming.InnerTransactions = append(incoming.InnerTransactions, inner(fmt.Sprintf("%s-%d", parent, i), parent, 1))
			}
		}

		server = reconcile.Reconcile(server.Log, server.Orphans, incoming, limits)
		if server.Change.Visible() {
			m.Apply(livefeed.Update(server.Change.Record))
		}

		got := m.Transactions()
		require.Len(t, got, len(server.Log), "step %d", step)
		for i := range server.Log {
			require.True(t, txrecord.SameContent(server.Log[i], got[i]), "step %d record %d", step, i)
		}
	}
}

func TestMirror_Run(t *testing.T) {
	t.Run("should sync, follow updates and resync after a drop", func(t *testing.T) {
		dialer := newFakeDialer()
		m := New(dialer, WithReconnectBackoff(10*time.Millisecond))

		first := newFakeConn()
		dialer.results <- dialResult{conn: first}

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- m.Run(ctx) }()

		first.send(livefeed.Snapshot([]txrecord.Record{payment("T1", 100)}))
		first.send(livefeed.Update(payment("T2", 101)))
		assert.Eventually(t, func() bool { return len(m.Transactions()) == 2 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, StateSynced, m.State())

		dialer.results <- dialResult{err: errors.New("connection refused")}
		second := newFakeConn()
		dialer.results <- dialResult{conn: second}
		first.fail(io.ErrUnexpectedEOF)

		assert.Eventually(t, first.closed.Load, time.Second, 5*time.Millisecond)

		second.send(livefeed.Snapshot([]txrecord.Record{payment("T3", 102)}))
		assert.Eventually(t, func() bool {
			txs := m.Transactions()
			return len(txs) == 1 && txs[0].ID == "T3"
		}, time.Second, 5*time.Millisecond)
		eventuallyState(t, m, StateSynced)
		assert.GreaterOrEqual(t, dialer.dials.Load(), int32(3))

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("Run did not stop")
		}
		assert.Equal(t, StateDisconnected, m.State())
	})

	t.Run("should skip bad messages and updates before the snapshot", func(t *testing.T) {
		dialer := newFakeDialer()
		m := New(dialer, WithReconnectBackoff(10*time.Millisecond))

		conn := newFakeConn()
		dialer.results <- dialResult{conn: conn}

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		go func() { _ = m.Run(ctx) }()

		conn.send(livefeed.Update(payment("EARLY", 1)))
		conn.msgs <- received{msg: livefeed.Message{Type: "ping"}, err: livefeed.ErrUnknownMessageType}
		conn.msgs <- received{err: livefeed.ErrInvalidMessage}
		conn.send(livefeed.Snapshot([]txrecord.Record{payment("T1", 1)}))
		conn.send(livefeed.Update(payment("T2", 2)))

		assert.Eventually(t, func() bool { return len(m.Transactions()) == 2 }, time.Second, 5*time.Millisecond)
		for _, r := range m.Transactions() {
			assert.NotEqual(t, "EARLY", r.ID)
		}
		assert.False(t, conn.closed.Load())
	})

	t.Run("should report reconnecting while the server is away", func(t *testing.T) {
		dialer := newFakeDialer()
		m := New(dialer, WithReconnectBackoff(time.Hour))
		dialer.results <- dialResult{err: errors.New("connection refused")}

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		go func() { _ = m.Run(ctx) }()

		eventuallyState(t, m, StateReconnecting)
	})

	t.Run("should refuse a second concurrent Run", func(t *testing.T) {
		dialer := newFakeDialer()
		m := New(dialer)

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		go func() { _ = m.Run(ctx) }()

		assert.Eventually(t, func() bool { return dialer.dials.Load() == 1 }, time.Second, 5*time.Millisecond)
		assert.ErrorIs(t, m.Run(ctx), ErrServiceAlreadyStarted)
	})
}
