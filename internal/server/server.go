// Package server owns the network surface: accepting connections,
// decoding RESP frames into commands, running them through the
// engine, and writing back replies — including the two frame shapes
// that deviate from one-reply-per-command (pub/sub's confirmation-
// per-channel, and PSYNC's takeover of the socket for replication).
package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"redis/internal/command"
	"redis/internal/engine"
	"redis/internal/logger"
	"redis/internal/pubsub"
	"redis/internal/rdb"
	"redis/internal/replication"
	"redis/internal/resp"
	"redis/internal/store"
)

var log = logger.Component("server")

// Server listens for client connections and dispatches decoded
// commands through an Engine.
type Server struct {
	config   *Config
	listener net.Listener
	engine   *engine.Engine

	connections     sync.Map
	connIDCounter   atomic.Int64
	activeConnCount atomic.Int64
	wg              sync.WaitGroup
	mu              sync.RWMutex
	isShutdown      bool
	shutdownChan    chan struct{}
}

// New builds a Server, wiring a fresh Store/Broker/Hub into an Engine,
// bootstrapping the keyspace from an RDB file if one exists, and
// kicking off a replica handshake when cfg.ReplicaOf is set.
func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := store.New()
	broker := pubsub.New()
	hub := replication.NewHub()

	eng := engine.New(s, broker, hub, engine.Config{
		Dir:        cfg.Dir,
		DBFilename: cfg.DBFilename,
		Port:       cfg.Port,
		ReplicaOf:  cfg.ReplicaOf,
	})

	srv := &Server{
		config:       cfg,
		engine:       eng,
		shutdownChan: make(chan struct{}),
	}

	path := cfg.Dir + "/" + cfg.DBFilename
	if err := rdb.Load(path, s); err != nil {
		log.Warnf("rdb bootstrap: %v", err)
	}

	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			s.ActiveExpireCycle()
		}
	}()

	if cfg.ReplicaOf != "" {
		go srv.runReplica(cfg.ReplicaOf)
	}

	return srv, nil
}

// Start binds the listener and accepts connections until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener
	log.Infof("listening on %s", addr)

	go s.acceptLoop(ctx)

	<-ctx.Done()
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdownChan:
			return
		default:
		}

		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.RLock()
			shutdown := s.isShutdown
			s.mu.RUnlock()
			if shutdown {
				return
			}
			log.Warnf("accept: %v", err)
			continue
		}

		if s.activeConnCount.Load() >= int64(s.config.MaxConnections) {
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()

	connID := s.connIDCounter.Add(1)
	s.activeConnCount.Add(1)
	defer s.activeConnCount.Add(-1)

	s.connections.Store(connID, conn)
	defer s.connections.Delete(connID)
	defer conn.Close()

	sess := engine.NewSession(conn)
	reader := resp.NewReader(bufio.NewReaderSize(conn, s.config.ReadBufferSize))
	writer := bufio.NewWriterSize(conn, s.config.WriteBufferSize)

	var deliverWG sync.WaitGroup
	stopDeliver := make(chan struct{})
	defer func() {
		close(stopDeliver)
		deliverWG.Wait()
		if sess.Subscriber != nil {
			s.engine.Broker.Remove(sess.Subscriber)
		}
		if sess.BecameReplica {
			s.engine.Hub.Detach(sess.ReplicaID)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if s.config.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		}

		v, err := reader.ReadFrame()
		if err != nil {
			if err != io.EOF {
				log.Debugf("conn %d: read error: %v", connID, err)
			}
			return
		}
		conn.SetReadDeadline(time.Time{})

		cmd, err := command.Parse(v)
		if err != nil {
			writer.Write(resp.Encode(resp.ErrorValue(err.Error())))
			writer.Flush()
			continue
		}

		reply := s.engine.Execute(sess, cmd)
		if err := s.writeReply(writer, cmd, reply); err != nil {
			return
		}

		if sess.Subscriber != nil {
			startDelivery(&deliverWG, stopDeliver, sess.Subscriber, writer)
		}

		if sess.BecameReplica {
			s.serveReplicaFeed(conn, reader, sess)
			return
		}
	}
}

// writeReply encodes reply, special-casing the two commands whose
// reply shape isn't a single RESP frame: SUBSCRIBE/UNSUBSCRIBE and kin
// pack one confirmation per channel into an outer array that must be
// unpacked into back-to-back top-level frames, and PSYNC writes raw
// bytes itself and expects nothing further.
func (s *Server) writeReply(w *bufio.Writer, cmd command.Command, reply resp.Value) error {
	if reply.Type == resp.NoReply {
		return nil
	}
	switch cmd.Name {
	case "SUBSCRIBE", "UNSUBSCRIBE", "PSUBSCRIBE", "PUNSUBSCRIBE":
		for _, frame := range reply.Array {
			if _, err := w.Write(resp.Encode(frame)); err != nil {
				return err
			}
		}
	default:
		if _, err := w.Write(resp.Encode(reply)); err != nil {
			return err
		}
	}
	return w.Flush()
}

// startDelivery spawns (once) the goroutine that forwards published
// messages to a subscribed connection's writer, independent of the
// request/reply loop since messages arrive asynchronously.
func startDelivery(wg *sync.WaitGroup, stop <-chan struct{}, sub *pubsub.Subscriber, w *bufio.Writer) {
	if !sub.MarkDeliveryStarted() {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			case msg, ok := <-sub.Deliveries:
				if !ok {
					return
				}
				var frame resp.Value
				if msg.Pattern != "" {
					frame = resp.ArrayValue(
						resp.BulkStringValue("pmessage"),
						resp.BulkStringValue(msg.Pattern),
						resp.BulkStringValue(msg.Channel),
						resp.BulkStringValue(msg.Payload),
					)
				} else {
					frame = resp.ArrayValue(
						resp.BulkStringValue("message"),
						resp.BulkStringValue(msg.Channel),
						resp.BulkStringValue(msg.Payload),
					)
				}
				w.Write(resp.Encode(frame))
				w.Flush()
			}
		}
	}()
}

// serveReplicaFeed takes over the connection after PSYNC: the normal
// command loop stops, and instead we read REPLCONF ACK frames (the
// only thing a replica sends up this connection) until it disconnects.
func (s *Server) serveReplicaFeed(conn net.Conn, reader *resp.Reader, sess *engine.Session) {
	for {
		v, err := reader.ReadFrame()
		if err != nil {
			return
		}
		cmd, err := command.Parse(v)
		if err != nil {
			continue
		}
		s.engine.Execute(sess, cmd)
	}
}

func (s *Server) runReplica(masterAddr string) {
	host, port, err := net.SplitHostPort(masterAddr)
	if err != nil {
		log.Errorf("invalid replicaof address %q: %v", masterAddr, err)
		return
	}
	portNum, err := net.LookupPort("tcp", port)
	if err != nil {
		log.Errorf("invalid replicaof port %q: %v", port, err)
		return
	}

	link, err := replication.Connect(host, portNum, s.config.Port, s.engine.Store)
	if err != nil {
		log.Errorf("replica handshake with %s failed: %v", masterAddr, err)
		return
	}
	defer link.Close()

	stop := make(chan struct{})
	defer close(stop)
	go link.Heartbeat(time.Second, stop)

	replicaSess := engine.NewSession(nil)
	err = link.Run(func(args []string) {
		if len(args) == 0 {
			return
		}
		cmd := command.Command{Name: toUpper(args[0]), Args: args[1:]}
		s.engine.Execute(replicaSess, cmd)
	})
	if err != nil {
		log.Warnf("replication link to %s closed: %v", masterAddr, err)
	}
}

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// Shutdown closes the listener and every open connection, waiting up
// to 5s for in-flight handlers to exit.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.isShutdown {
		s.mu.Unlock()
		return
	}
	s.isShutdown = true
	s.mu.Unlock()

	close(s.shutdownChan)
	if s.listener != nil {
		s.listener.Close()
	}

	s.connections.Range(func(_, v interface{}) bool {
		if conn, ok := v.(net.Conn); ok {
			conn.Close()
		}
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("all connections closed")
	case <-time.After(5 * time.Second):
		log.Warn("shutdown timeout reached, forcing exit")
	}
}
