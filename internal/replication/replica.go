package replication

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"redis/internal/rdb"
	"redis/internal/resp"
	"redis/internal/store"
)

// Link is a replica's connection to its master: it performs the
// initial handshake, loads the bootstrap RDB snapshot, and then
// forwards subsequent command frames to Run's apply callback (PING and
// REPLCONF GETACK are handled by Run itself).
type Link struct {
	conn   net.Conn
	reader *resp.Reader

	MasterReplID string
	// baseOffset is the offset the master reported in FULLRESYNC; the
	// replica's live offset is baseOffset plus however many bytes the
	// Reader has processed since.
	baseOffset int64
}

// Connect dials host:port and runs the replica handshake: PING,
// REPLCONF listening-port, REPLCONF capa psync2, PSYNC ? -1. On
// success it loads the transferred RDB snapshot into s and returns a
// Link ready to stream commands via Run.
func Connect(host string, port int, listeningPort int, s *store.Store) (*Link, error) {
	conn, err := net.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("replicaof: dial %s:%d: %w", host, port, err)
	}

	r := resp.NewReader(conn)

	if err := resp.SendInlineCommand(conn, "PING"); err != nil {
		return nil, err
	}
	if _, err := r.ReadFrame(); err != nil {
		return nil, fmt.Errorf("replicaof: PING: %w", err)
	}

	if err := resp.WriteBytes(conn, resp.Encode(resp.StringArray(
		"REPLCONF", "listening-port", strconv.Itoa(listeningPort)))); err != nil {
		return nil, err
	}
	if err := r.ExpectSimpleString("OK"); err != nil {
		return nil, fmt.Errorf("replicaof: REPLCONF listening-port: %w", err)
	}

	if err := resp.WriteBytes(conn, resp.Encode(resp.StringArray(
		"REPLCONF", "capa", "psync2"))); err != nil {
		return nil, err
	}
	if err := r.ExpectSimpleString("OK"); err != nil {
		return nil, fmt.Errorf("replicaof: REPLCONF capa: %w", err)
	}

	if err := resp.WriteBytes(conn, resp.Encode(resp.StringArray("PSYNC", "?", "-1"))); err != nil {
		return nil, err
	}
	fullresync, err := r.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("replicaof: PSYNC: %w", err)
	}
	replID, offset, err := parseFullResync(fullresync.Str)
	if err != nil {
		return nil, fmt.Errorf("replicaof: %w", err)
	}

	payload, err := r.ExpectRDBPayload()
	if err != nil {
		return nil, fmt.Errorf("replicaof: RDB transfer: %w", err)
	}
	if err := rdb.LoadBytes(payload, s); err != nil {
		log.Warnf("replicaof: bootstrap RDB parse error, starting from empty: %v", err)
	}

	r.SetReplicationMode(true)
	r.ResetProcessedBytes()

	log.Infof("replication link to %s:%d established (replid=%s, offset=%d)", host, port, replID, offset)
	return &Link{conn: conn, reader: r, MasterReplID: replID, baseOffset: offset}, nil
}

// parseFullResync splits "<replid> <offset>" out of a FULLRESYNC reply
// payload. The Reader strips only the leading "+", so the payload it
// returns still starts with the FULLRESYNC keyword, checked here.
func parseFullResync(payload string) (replID string, offset int64, err error) {
	fields := strings.Fields(payload)
	if len(fields) != 3 || !strings.EqualFold(fields[0], "FULLRESYNC") {
		return "", 0, fmt.Errorf("malformed FULLRESYNC reply %q", payload)
	}
	off, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed FULLRESYNC offset %q", payload)
	}
	return fields[1], off, nil
}

// Offset returns the replica's current applied byte offset.
func (l *Link) Offset() int64 {
	return l.baseOffset + l.reader.ProcessedBytes()
}

// Run reads frames from the master forever, invoking apply for every
// command except REPLCONF GETACK (answered here directly) and PING
// (a no-op keepalive). It returns when the connection closes or a
// protocol error occurs.
func (l *Link) Run(apply func(args []string)) error {
	for {
		v, err := l.reader.ReadFrame()
		if err != nil {
			return err
		}
		fields, ok := v.Strings()
		if !ok || len(fields) == 0 {
			continue
		}
		name := strings.ToUpper(fields[0])

		switch {
		case name == "PING":
			continue
		case name == "REPLCONF" && len(fields) > 1 && strings.EqualFold(fields[1], "GETACK"):
			// The GETACK frame itself must not be counted: subtract
			// its own length back out of what's been processed.
			processedBeforeGetAck := l.reader.ProcessedBytes() - l.reader.LastFrameLen()
			ack := resp.Encode(resp.StringArray(
				"REPLCONF", "ACK", strconv.FormatInt(l.baseOffset+processedBeforeGetAck, 10)))
			if err := resp.WriteBytes(l.conn, ack); err != nil {
				return err
			}
		default:
			apply(fields)
		}
	}
}

// SendAck proactively reports the replica's current offset, the
// periodic heartbeat a replica sends independent of GETACK.
func (l *Link) SendAck() error {
	ack := resp.Encode(resp.StringArray("REPLCONF", "ACK", strconv.FormatInt(l.Offset(), 10)))
	return resp.WriteBytes(l.conn, ack)
}

// Heartbeat sends periodic ACKs until stop is closed.
func (l *Link) Heartbeat(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := l.SendAck(); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

// Close tears down the connection to the master.
func (l *Link) Close() error { return l.conn.Close() }
