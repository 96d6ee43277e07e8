package engine

import (
	"net"

	"github.com/google/uuid"

	"redis/internal/command"
	"redis/internal/pubsub"
)

// Session is the per-connection state a command's execution can read
// or mutate: transaction queuing, pub/sub subscription, and whether
// the connection has been handed off to replication.
type Session struct {
	ID   uuid.UUID
	Conn net.Conn

	InMulti    bool
	MultiError bool // set when a queued command fails to parse/validate
	Queued     []command.Command

	Subscriber *pubsub.Subscriber

	BecameReplica bool
	ReplicaID     uuid.UUID
}

func NewSession(conn net.Conn) *Session {
	return &Session{ID: uuid.New(), Conn: conn}
}

// InSubscribeMode reports whether this connection is restricted to
// pub/sub and a handful of always-allowed commands.
func (s *Session) InSubscribeMode() bool {
	return s.Subscriber != nil && s.Subscriber.SubscriptionCount() > 0
}
