// Package engine dispatches decoded commands against the keyspace,
// pub/sub broker, and replication hub, and owns the per-connection
// session state (transactions, subscriptions, replica handoff) that
// command execution depends on.
package engine

import (
	"fmt"
	"strings"

	"redis/internal/command"
	"redis/internal/logger"
	"redis/internal/pubsub"
	"redis/internal/replication"
	"redis/internal/resp"
	"redis/internal/store"
)

var log = logger.Component("engine")

// Config is the slice of server configuration commands need to read
// back (CONFIG GET, INFO). It is populated once at startup.
type Config struct {
	Dir        string
	DBFilename string
	Port       int

	// ReplicaOf is empty for a master, or "host:port" for a replica.
	ReplicaOf string
}

// Engine executes commands against shared server state.
type Engine struct {
	Store  *store.Store
	Broker *pubsub.Broker
	Hub    *replication.Hub
	Config Config

	// IsReplica reports whether this server is itself a replica of
	// another master, toggled once at startup and never again (runtime
	// REPLICAOF is out of scope).
	IsReplica bool
}

func New(s *store.Store, broker *pubsub.Broker, hub *replication.Hub, cfg Config) *Engine {
	return &Engine{Store: s, Broker: broker, Hub: hub, Config: cfg, IsReplica: cfg.ReplicaOf != ""}
}

// alwaysAllowed commands run immediately inside a MULTI block instead
// of being queued, since they don't touch the keyspace the way queuing
// is meant to guard. Subscribe mode is restricted separately, by
// subscribeModeAllowed.
var alwaysAllowed = map[string]bool{
	"MULTI": true, "EXEC": true, "DISCARD": true,
	"SUBSCRIBE": true, "UNSUBSCRIBE": true, "PSUBSCRIBE": true, "PUNSUBSCRIBE": true,
	"PING": true, "QUIT": true, "RESET": true,
}

var subscribeModeAllowed = map[string]bool{
	"SUBSCRIBE": true, "UNSUBSCRIBE": true, "PSUBSCRIBE": true, "PUNSUBSCRIBE": true,
	"PING": true, "QUIT": true, "RESET": true, "PUBLISH": true,
}

// Execute runs one command for sess and returns the RESP reply to
// write back. Replication propagation of write commands happens here,
// after a successful mutation, using cmd.Raw as the wire form relayed
// to replicas verbatim.
func (e *Engine) Execute(sess *Session, cmd command.Command) resp.Value {
	if sess.InSubscribeMode() && !subscribeModeAllowed[cmd.Name] {
		return resp.ErrorValue(fmt.Sprintf(
			"ERR Can't execute '%s': only (P|S)SUBSCRIBE / (P|S)UNSUBSCRIBE / PING / QUIT / RESET are allowed in this context",
			strings.ToLower(cmd.Name)))
	}

	if sess.InMulti && !alwaysAllowed[cmd.Name] {
		if _, ok := dispatchTable[cmd.Name]; !ok {
			sess.MultiError = true
			return resp.ErrorValue(fmt.Sprintf("ERR unknown command '%s'", cmd.Name))
		}
		sess.Queued = append(sess.Queued, cmd)
		return resp.SimpleStringValue("QUEUED")
	}

	return e.dispatch(sess, cmd)
}

func (e *Engine) dispatch(sess *Session, cmd command.Command) resp.Value {
	handler, ok := dispatchTable[cmd.Name]
	if !ok {
		return resp.ErrorValue(fmt.Sprintf("ERR unknown command '%s'", strings.ToLower(cmd.Name)))
	}
	reply := handler(e, sess, cmd.Args)
	if isWriteCommand[cmd.Name] && reply.Type != resp.Error {
		e.Hub.Propagate(cmd.Raw)
	}
	return reply
}

type handlerFunc func(e *Engine, sess *Session, args []string) resp.Value

var dispatchTable map[string]handlerFunc

func register(name string, fn handlerFunc) {
	if dispatchTable == nil {
		dispatchTable = make(map[string]handlerFunc)
	}
	dispatchTable[name] = fn
}

// isWriteCommand gates replication propagation: only commands that
// mutate the keyspace get relayed to replicas.
var isWriteCommand = map[string]bool{
	"SET": true, "SETNX": true, "DEL": true, "EXPIRE": true, "PEXPIRE": true,
	"EXPIREAT": true, "PERSIST": true, "INCR": true, "DECR": true,
	"INCRBY": true, "DECRBY": true, "INCRBYFLOAT": true,
	"APPEND": true, "GETSET": true, "GETDEL": true, "GETEX": true, "MSET": true,
	"RENAME": true, "RENAMENX": true,
	"RPUSH": true, "LPUSH": true, "LPOP": true, "RPOP": true, "LSET": true,
	"LREM": true, "LTRIM": true, "LINSERT": true, "LMOVE": true, "RPOPLPUSH": true,
	"HSET": true, "HDEL": true, "HSETNX": true, "HINCRBY": true, "HINCRBYFLOAT": true,
	"ZADD": true, "ZREM": true, "ZINCRBY": true, "ZPOPMIN": true, "ZPOPMAX": true,
	"XADD": true,
	"FLUSHALL": true, "FLUSHDB": true,
}

func wrongArgs(name string) resp.Value {
	return resp.ErrorValue(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
}

func storeErr(err error) resp.Value {
	return resp.ErrorValue(err.Error())
}
