package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"redis/internal/resp"
	"redis/internal/store"
)

func init() {
	register("REPLCONF", cmdReplConf)
	register("PSYNC", cmdPsync)
	register("WAIT", cmdWait)
}

// cmdReplConf handles the handshake sub-commands a replica sends
// before PSYNC (listening-port, capa) and the ACK a replica sends
// afterwards. All three just need an OK except ACK, which updates the
// hub's bookkeeping and produces no reply at all.
func cmdReplConf(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 1 {
		return wrongArgs("REPLCONF")
	}
	switch strings.ToUpper(args[0]) {
	case "LISTENING-PORT", "CAPA":
		return resp.SimpleStringValue("OK")
	case "ACK":
		if len(args) != 2 {
			return wrongArgs("REPLCONF")
		}
		offset, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return resp.ErrorValue("ERR invalid offset")
		}
		e.Hub.UpdateAck(sess.ReplicaID, offset)
		// REPLCONF ACK gets no reply; the caller (connection loop)
		// must recognize this and suppress the write.
		return resp.Value{Type: resp.NoReply}
	case "GETACK":
		return resp.Value{Type: resp.NoReply}
	default:
		return resp.SimpleStringValue("OK")
	}
}

// cmdPsync adopts the connection as a replica sink: it writes the
// FULLRESYNC line and RDB payload directly to the connection and
// flags the session so the server's connection loop switches this
// socket from command dispatch to a replica feed.
func cmdPsync(e *Engine, sess *Session, args []string) resp.Value {
	replica, err := e.Hub.AdoptReplica(sess.Conn)
	if err != nil {
		return resp.ErrorValue(fmt.Sprintf("ERR %s", err))
	}
	sess.BecameReplica = true
	sess.ReplicaID = replica.ID
	return resp.Value{Type: resp.NoReply}
}

func cmdWait(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("WAIT")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return storeErr(store.ErrNotInteger)
	}
	timeoutMs, err := strconv.Atoi(args[1])
	if err != nil {
		return storeErr(store.ErrNotInteger)
	}
	ready := e.Hub.Wait(n, time.Duration(timeoutMs)*time.Millisecond)
	return resp.IntegerValue(int64(ready))
}
