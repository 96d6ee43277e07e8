package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"redis/internal/command"
	"redis/internal/pubsub"
	"redis/internal/replication"
	"redis/internal/resp"
	"redis/internal/store"
)

func newTestEngine() *Engine {
	return New(store.New(), pubsub.New(), replication.NewHub(), Config{})
}

func run(e *Engine, sess *Session, fields ...string) resp.Value {
	cmd, err := command.Parse(resp.StringArray(fields...))
	if err != nil {
		return resp.ErrorValue(err.Error())
	}
	return e.Execute(sess, cmd)
}

func TestSetGetRoundTrip(t *testing.T) {
	e := newTestEngine()
	sess := NewSession(nil)

	reply := run(e, sess, "SET", "k", "v")
	require.Equal(t, resp.SimpleString, reply.Type)
	require.Equal(t, "OK", reply.Str)

	reply = run(e, sess, "GET", "k")
	require.Equal(t, resp.BulkString, reply.Type)
	require.Equal(t, "v", reply.Str)
}

func TestUnknownCommandIsError(t *testing.T) {
	e := newTestEngine()
	sess := NewSession(nil)

	reply := run(e, sess, "NOTACOMMAND")
	require.Equal(t, resp.Error, reply.Type)
}

func TestMultiQueuesThenExecReplays(t *testing.T) {
	e := newTestEngine()
	sess := NewSession(nil)

	reply := run(e, sess, "MULTI")
	require.Equal(t, "OK", reply.Str)
	require.True(t, sess.InMulti)

	reply = run(e, sess, "SET", "k", "v")
	require.Equal(t, resp.SimpleString, reply.Type)
	require.Equal(t, "QUEUED", reply.Str)
	require.Len(t, sess.Queued, 1)

	reply = run(e, sess, "EXEC")
	require.Equal(t, resp.Array, reply.Type)
	require.Len(t, reply.Array, 1)
	require.False(t, sess.InMulti)

	reply = run(e, sess, "GET", "k")
	require.Equal(t, "v", reply.Str)
}

func TestExecWithoutMultiIsError(t *testing.T) {
	e := newTestEngine()
	sess := NewSession(nil)

	reply := run(e, sess, "EXEC")
	require.Equal(t, resp.Error, reply.Type)
}

func TestMultiAbortsOnUnknownQueuedCommand(t *testing.T) {
	e := newTestEngine()
	sess := NewSession(nil)

	run(e, sess, "MULTI")
	reply := run(e, sess, "NOTACOMMAND")
	require.Equal(t, resp.Error, reply.Type)
	require.True(t, sess.MultiError)

	reply = run(e, sess, "EXEC")
	require.Equal(t, resp.Error, reply.Type)
	require.Contains(t, reply.Str, "EXECABORT")
}

func TestDiscardClearsQueue(t *testing.T) {
	e := newTestEngine()
	sess := NewSession(nil)

	run(e, sess, "MULTI")
	run(e, sess, "SET", "k", "v")
	reply := run(e, sess, "DISCARD")
	require.Equal(t, "OK", reply.Str)
	require.False(t, sess.InMulti)
	require.Empty(t, sess.Queued)
}

func TestWriteCommandPropagatesToHub(t *testing.T) {
	e := newTestEngine()
	sess := NewSession(nil)

	before := e.Hub.Offset()
	run(e, sess, "SET", "k", "v")
	require.Greater(t, e.Hub.Offset(), before)
}

// TestBLPopWakesOnSecondKey guards the multi-key blocking fan-in: BLPOP
// on two keys must wake when the second one gets pushed to, not only
// the first.
func TestBLPopWakesOnSecondKey(t *testing.T) {
	e := newTestEngine()
	sess := NewSession(nil)

	done := make(chan resp.Value, 1)
	go func() {
		done <- run(e, sess, "BLPOP", "first", "second", "2")
	}()

	time.Sleep(20 * time.Millisecond)
	reply := run(e, NewSession(nil), "RPUSH", "second", "v")
	require.Equal(t, resp.Integer, reply.Type)

	select {
	case popped := <-done:
		require.Equal(t, resp.Array, popped.Type)
		require.Len(t, popped.Array, 2)
		require.Equal(t, "second", popped.Array[0].Str)
		require.Equal(t, "v", popped.Array[1].Str)
	case <-time.After(time.Second):
		t.Fatal("BLPOP did not wake up after RPUSH to the second key")
	}
}

func TestSubscribeRestrictsCommands(t *testing.T) {
	e := newTestEngine()
	sess := NewSession(nil)
	sess.Subscriber = e.Broker.NewSubscriber()
	e.Broker.Subscribe(sess.Subscriber, "chan")

	reply := run(e, sess, "GET", "k")
	require.Equal(t, resp.Error, reply.Type)
	require.Contains(t, reply.Str, "only (P|S)SUBSCRIBE")
}
