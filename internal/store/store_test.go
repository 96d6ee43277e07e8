package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGetExpiry(t *testing.T) {
	s := New()
	s.Set("k", "v", nil)

	v, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)

	past := time.Now().Add(-time.Second)
	s.Set("gone", "v", &past)
	_, ok, err = s.Get("gone")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIncrBy(t *testing.T) {
	s := New()
	n, err := s.IncrBy("counter", 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	n, err = s.IncrBy("counter", -2)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	s.Set("notnum", "abc", nil)
	_, err = s.IncrBy("notnum", 1)
	require.ErrorIs(t, err, ErrNotInteger)
}

func TestWrongTypeError(t *testing.T) {
	s := New()
	s.Set("str", "v", nil)
	_, err := s.LPush("str", "x")
	require.ErrorIs(t, err, ErrWrongType)
}

func TestDelExistsKeys(t *testing.T) {
	s := New()
	s.Set("a", "1", nil)
	s.Set("b", "2", nil)

	require.Equal(t, 2, s.Exists("a", "b", "missing"))
	keys := s.Keys("*")
	require.ElementsMatch(t, []string{"a", "b"}, keys)

	require.Equal(t, 1, s.Del("a", "missing"))
	require.Equal(t, 1, s.Exists("a", "b"))
}

func TestListOps(t *testing.T) {
	s := New()
	n, err := s.RPush("list", "a", "b", "c")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	items, err := s.LRange("list", 0, -1)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, items)

	popped, err := s.LPop("list", 1)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, popped)
}

func TestHashOps(t *testing.T) {
	s := New()
	n, err := s.HSet("h", [][2]string{{"f1", "v1"}, {"f2", "v2"}})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	v, ok, err := s.HGet("h", "f1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", v)

	deleted, err := s.HDel("h", []string{"f1"})
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
}

func TestZSetOrdering(t *testing.T) {
	s := New()
	_, err := s.ZAdd("z", []ZSetMember{{Member: "a", Score: 3}, {Member: "b", Score: 1}, {Member: "c", Score: 2}})
	require.NoError(t, err)

	members, err := s.ZRange("z", 0, -1, false)
	require.NoError(t, err)
	require.Len(t, members, 3)
	require.Equal(t, "b", members[0].Member)
	require.Equal(t, "c", members[1].Member)
	require.Equal(t, "a", members[2].Member)
}

func TestStreamMonotonicIDs(t *testing.T) {
	s := New()
	id1, err := s.XAdd("stream", "*", []string{"field", "v1"})
	require.NoError(t, err)
	id2, err := s.XAdd("stream", "*", []string{"field", "v2"})
	require.NoError(t, err)
	require.True(t, id1.less(id2) || id1 == id2)

	_, err = s.XAdd("stream", "1-1", nil)
	if id1.Ms >= 1 {
		require.ErrorIs(t, err, ErrStreamIDTooSmall)
	}
}

func TestWaitWakesOnPublish(t *testing.T) {
	s := New()
	woke := make(chan bool, 1)
	go func() {
		woke <- s.Wait("key", 2*time.Second, nil)
	}()

	time.Sleep(20 * time.Millisecond)
	s.Set("key", "v", nil)

	select {
	case ok := <-woke:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Wait did not wake up after Set")
	}
}

// TestWaitAnyWakesOnSecondKey guards against the sequential-wait bug: a
// naive implementation that calls Wait on each key in turn only ever
// really watches the first one, so a mutation to the second key while
// still parked on the first is missed entirely.
func TestWaitAnyWakesOnSecondKey(t *testing.T) {
	s := New()
	type result struct {
		key string
		ok  bool
	}
	woke := make(chan result, 1)
	go func() {
		key, ok := s.WaitAny([]string{"first", "second"}, 2*time.Second, nil)
		woke <- result{key, ok}
	}()

	time.Sleep(20 * time.Millisecond)
	s.Set("second", "v", nil)

	select {
	case r := <-woke:
		require.True(t, r.ok)
		require.Equal(t, "second", r.key)
	case <-time.After(time.Second):
		t.Fatal("WaitAny did not wake up after Set on the second key")
	}
}
