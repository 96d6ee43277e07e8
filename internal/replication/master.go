// Package replication implements both sides of master/replica
// replication: a Hub that a master uses to track connected replicas,
// propagate writes, and serve WAIT; and a Link that a replica uses to
// connect to its master, perform the handshake, and apply the stream.
package replication

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"redis/internal/logger"
	"redis/internal/rdb"
	"redis/internal/resp"
)

var log = logger.Component("replication")

// Replica is one connected downstream replica, as seen from the
// master side.
type Replica struct {
	ID   uuid.UUID
	Addr string

	mu        sync.Mutex
	w         *bufio.Writer
	ackOffset int64
}

func (r *Replica) write(b []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(b); err != nil {
		return err
	}
	return r.w.Flush()
}

func (r *Replica) setAck(offset int64) {
	r.mu.Lock()
	r.ackOffset = offset
	r.mu.Unlock()
}

func (r *Replica) ack() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ackOffset
}

// Hub is the master-side replication coordinator: one per server.
type Hub struct {
	ReplID string

	mu       sync.Mutex
	offset   int64
	replicas map[uuid.UUID]*Replica
}

func NewHub() *Hub {
	return &Hub{
		ReplID:   generateReplID(),
		replicas: make(map[uuid.UUID]*Replica),
	}
}

func generateReplID() string {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%040d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", b)
}

// Offset returns the current master_repl_offset.
func (h *Hub) Offset() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.offset
}

// ReplicaCount returns how many replicas are currently attached.
func (h *Hub) ReplicaCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.replicas)
}

// AdoptReplica completes the master side of PSYNC on conn: writes
// +FULLRESYNC <replid> <offset>, then the (empty) RDB bulk payload, and
// registers the connection as a replica. It runs inside the PSYNC
// handler while the connection loop is still active; afterwards that
// loop stops dispatching client commands and only reads REPLCONF ACK
// frames, and all writes to the replica go through the returned Replica.
func (h *Hub) AdoptReplica(conn net.Conn) (*Replica, error) {
	h.mu.Lock()
	offset := h.offset
	h.mu.Unlock()

	w := bufio.NewWriter(conn)
	header := fmt.Sprintf("+FULLRESYNC %s %d\r\n", h.ReplID, offset)
	if _, err := w.WriteString(header); err != nil {
		return nil, err
	}
	payload := rdb.EmptyPayload()
	if _, err := w.WriteString(fmt.Sprintf("$%d\r\n", len(payload))); err != nil {
		return nil, err
	}
	if _, err := w.Write(payload); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}

	r := &Replica{ID: uuid.New(), Addr: conn.RemoteAddr().String(), w: w}
	h.mu.Lock()
	h.replicas[r.ID] = r
	h.mu.Unlock()

	log.Infof("replica attached: %s (%s)", r.ID, r.Addr)
	return r, nil
}

// Detach removes a replica, e.g. on connection close.
func (h *Hub) Detach(id uuid.UUID) {
	h.mu.Lock()
	delete(h.replicas, id)
	h.mu.Unlock()
}

// UpdateAck records the byte offset a replica has confirmed processing
// (from a REPLCONF ACK <offset> sent up the same connection).
func (h *Hub) UpdateAck(id uuid.UUID, offset int64) {
	h.mu.Lock()
	r, ok := h.replicas[id]
	h.mu.Unlock()
	if ok {
		r.setAck(offset)
	}
}

// Propagate writes raw (an already-encoded RESP command frame) to
// every attached replica and advances master_repl_offset by its
// length, even if there are currently no replicas — offset tracking is
// independent of who is listening.
func (h *Hub) Propagate(raw []byte) {
	h.mu.Lock()
	h.offset += int64(len(raw))
	replicas := make([]*Replica, 0, len(h.replicas))
	for _, r := range h.replicas {
		replicas = append(replicas, r)
	}
	h.mu.Unlock()

	for _, r := range replicas {
		if err := r.write(raw); err != nil {
			log.Warnf("propagate to %s failed: %v", r.ID, err)
		}
	}
}

// getAckFrame is the wire form of "REPLCONF GETACK *".
var getAckFrame = resp.Encode(resp.StringArray("REPLCONF", "GETACK", "*"))

// Wait blocks until at least n replicas have acknowledged the offset
// that was current when Wait was called, or timeout elapses (timeout
// <= 0 means no deadline: it keeps polling until n replicas have caught
// up). If n replicas are already caught up it returns at once without
// sending GETACK. It returns the number of replicas that had
// acknowledged by the time it returned.
func (h *Hub) Wait(n int, timeout time.Duration) int {
	h.mu.Lock()
	target := h.offset
	replicas := make([]*Replica, 0, len(h.replicas))
	for _, r := range h.replicas {
		replicas = append(replicas, r)
	}
	h.mu.Unlock()

	countReady := func() int {
		ready := 0
		for _, r := range replicas {
			if r.ack() >= target {
				ready++
			}
		}
		return ready
	}

	if countReady() >= n {
		return countReady()
	}

	// GETACK bytes still advance master_repl_offset (they are a real
	// command on the stream) but not the target this call is waiting
	// for — replicas report back the offset they had processed before
	// the GETACK frame itself.
	h.Propagate(getAckFrame)

	deadline := time.Now().Add(timeout)
	forever := timeout <= 0
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if countReady() >= n {
			return countReady()
		}
		if !forever && time.Now().After(deadline) {
			return countReady()
		}
		<-ticker.C
	}
}
