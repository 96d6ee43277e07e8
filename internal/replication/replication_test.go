package replication

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"redis/internal/resp"
)

func TestWaitSatisfiedWithZeroReplicas(t *testing.T) {
	h := NewHub()
	ready := h.Wait(0, 100*time.Millisecond)
	require.Equal(t, 0, ready)
}

func TestPropagateAdvancesOffsetWithNoReplicas(t *testing.T) {
	h := NewHub()
	before := h.Offset()
	frame := resp.Encode(resp.StringArray("SET", "k", "v"))
	h.Propagate(frame)
	require.Equal(t, before+int64(len(frame)), h.Offset())
}

func TestUpdateAckIgnoresUnknownReplica(t *testing.T) {
	h := NewHub()
	h.UpdateAck(uuid.New(), 100)
	require.Equal(t, 0, h.ReplicaCount())
}

func TestGenerateReplIDLength(t *testing.T) {
	h := NewHub()
	require.Len(t, h.ReplID, 40)
}
