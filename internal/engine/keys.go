package engine

import (
	"strconv"
	"strings"
	"time"

	"redis/internal/resp"
	"redis/internal/store"
)

func init() {
	register("DEL", cmdDel)
	register("EXISTS", cmdExists)
	register("TYPE", cmdType)
	register("KEYS", cmdKeys)
	register("EXPIRE", cmdExpire)
	register("PEXPIRE", cmdPExpire)
	register("EXPIREAT", cmdExpireAt)
	register("TTL", cmdTTL)
	register("PTTL", cmdPTTL)
	register("PERSIST", cmdPersist)
	register("FLUSHALL", cmdFlushAll)
	register("FLUSHDB", cmdFlushAll)
	register("DBSIZE", cmdDBSize)
	register("RENAME", cmdRename)
	register("RENAMENX", cmdRenameNX)
	register("OBJECT", cmdObject)
}

func cmdDel(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) == 0 {
		return wrongArgs("DEL")
	}
	return resp.IntegerValue(int64(e.Store.Del(args...)))
}

func cmdExists(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) == 0 {
		return wrongArgs("EXISTS")
	}
	return resp.IntegerValue(int64(e.Store.Exists(args...)))
}

func cmdType(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("TYPE")
	}
	kind, ok := e.Store.Type(args[0])
	if !ok {
		return resp.SimpleStringValue("none")
	}
	return resp.SimpleStringValue(kind.String())
}

func cmdKeys(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("KEYS")
	}
	keys := e.Store.Keys(args[0])
	vals := make([]resp.Value, len(keys))
	for i, k := range keys {
		vals[i] = resp.BulkStringValue(k)
	}
	return resp.ArrayValue(vals...)
}

func cmdExpire(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("EXPIRE")
	}
	secs, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return storeErr(store.ErrNotInteger)
	}
	at := time.Now().Add(time.Duration(secs) * time.Second)
	if !e.Store.Expire(args[0], &at) {
		return resp.IntegerValue(0)
	}
	return resp.IntegerValue(1)
}

func cmdPExpire(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("PEXPIRE")
	}
	ms, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return storeErr(store.ErrNotInteger)
	}
	at := time.Now().Add(time.Duration(ms) * time.Millisecond)
	if !e.Store.Expire(args[0], &at) {
		return resp.IntegerValue(0)
	}
	return resp.IntegerValue(1)
}

func cmdExpireAt(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("EXPIREAT")
	}
	secs, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return storeErr(store.ErrNotInteger)
	}
	at := time.Unix(secs, 0)
	if !e.Store.Expire(args[0], &at) {
		return resp.IntegerValue(0)
	}
	return resp.IntegerValue(1)
}

func cmdTTL(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("TTL")
	}
	return resp.IntegerValue(e.Store.TTL(args[0]))
}

func cmdPTTL(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("PTTL")
	}
	return resp.IntegerValue(e.Store.PTTL(args[0]))
}

func cmdPersist(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("PERSIST")
	}
	if e.Store.Persist(args[0]) {
		return resp.IntegerValue(1)
	}
	return resp.IntegerValue(0)
}

func cmdFlushAll(e *Engine, sess *Session, args []string) resp.Value {
	e.Store.FlushAll()
	return resp.SimpleStringValue("OK")
}

func cmdDBSize(e *Engine, sess *Session, args []string) resp.Value {
	return resp.IntegerValue(int64(e.Store.DBSize()))
}

func cmdRename(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("RENAME")
	}
	if err := e.Store.Rename(args[0], args[1]); err != nil {
		return storeErr(err)
	}
	return resp.SimpleStringValue("OK")
}

func cmdRenameNX(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("RENAMENX")
	}
	ok, err := e.Store.RenameNX(args[0], args[1])
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.IntegerValue(0)
	}
	return resp.IntegerValue(1)
}

// cmdObject implements OBJECT ENCODING key, a stub that reports an
// encoding name derived from the value's type (and, for strings, from
// its content and length) rather than from the stored representation.
func cmdObject(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 1 {
		return wrongArgs("OBJECT")
	}
	switch strings.ToUpper(args[0]) {
	case "ENCODING":
		if len(args) != 2 {
			return wrongArgs("OBJECT")
		}
		kind, ok := e.Store.Type(args[1])
		if !ok {
			return resp.NullBulkString()
		}
		return resp.BulkStringValue(objectEncoding(e, args[1], kind))
	default:
		return resp.ErrorValue("ERR Unknown subcommand or wrong number of arguments for '" + strings.ToLower(args[0]) + "'")
	}
}

func objectEncoding(e *Engine, key string, kind store.Kind) string {
	switch kind {
	case store.KindString:
		v, _, _ := e.Store.Get(key)
		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			return "int"
		}
		if len(v) <= 44 {
			return "embstr"
		}
		return "raw"
	case store.KindList:
		return "listpack"
	case store.KindHash:
		return "listpack"
	case store.KindZSet:
		return "skiplist"
	case store.KindStream:
		return "stream"
	default:
		return "unknown"
	}
}
