package engine

import (
	"strconv"
	"strings"
	"time"

	"redis/internal/resp"
	"redis/internal/store"
)

func init() {
	register("SET", cmdSet)
	register("GET", cmdGet)
	register("SETNX", cmdSetNX)
	register("INCR", cmdIncr)
	register("DECR", cmdDecr)
	register("INCRBY", cmdIncrBy)
	register("DECRBY", cmdDecrBy)
	register("INCRBYFLOAT", cmdIncrByFloat)
	register("APPEND", cmdAppend)
	register("STRLEN", cmdStrLen)
	register("GETSET", cmdGetSet)
	register("MSET", cmdMSet)
	register("MGET", cmdMGet)
	register("GETDEL", cmdGetDel)
	register("GETEX", cmdGetEx)
}

// cmdSet implements SET key value [PX milliseconds] [EX seconds] [NX|XX].
// Only the subset this server is expected to serve is parsed; anything
// else falls through to a syntax error the way real Redis does for
// unrecognized option combinations.
func cmdSet(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 2 {
		return wrongArgs("SET")
	}
	key, value := args[0], args[1]

	var expiresAt *time.Time
	var nx, xx bool

	for i := 2; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "PX":
			if i+1 >= len(args) {
				return storeErr(store.ErrSyntax)
			}
			ms, err := strconv.ParseInt(args[i+1], 10, 64)
			if err != nil {
				return storeErr(store.ErrNotInteger)
			}
			t := time.Now().Add(time.Duration(ms) * time.Millisecond)
			expiresAt = &t
			i++
		case "EX":
			if i+1 >= len(args) {
				return storeErr(store.ErrSyntax)
			}
			secs, err := strconv.ParseInt(args[i+1], 10, 64)
			if err != nil {
				return storeErr(store.ErrNotInteger)
			}
			t := time.Now().Add(time.Duration(secs) * time.Second)
			expiresAt = &t
			i++
		case "NX":
			nx = true
		case "XX":
			xx = true
		default:
			return storeErr(store.ErrSyntax)
		}
	}

	if nx || xx {
		_, exists, _ := e.Store.Get(key)
		if nx && exists {
			return resp.NullBulkString()
		}
		if xx && !exists {
			return resp.NullBulkString()
		}
	}

	e.Store.Set(key, value, expiresAt)
	return resp.SimpleStringValue("OK")
}

func cmdGet(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("GET")
	}
	v, ok, err := e.Store.Get(args[0])
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.BulkStringValue(v)
}

func cmdSetNX(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("SETNX")
	}
	_, exists, err := e.Store.Get(args[0])
	if err != nil && exists {
		return storeErr(err)
	}
	if exists {
		return resp.IntegerValue(0)
	}
	e.Store.Set(args[0], args[1], nil)
	return resp.IntegerValue(1)
}

func cmdIncr(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("INCR")
	}
	return incrByReply(e, args[0], 1)
}

func cmdDecr(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("DECR")
	}
	return incrByReply(e, args[0], -1)
}

func cmdIncrBy(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("INCRBY")
	}
	delta, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return storeErr(store.ErrNotInteger)
	}
	return incrByReply(e, args[0], delta)
}

func cmdDecrBy(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("DECRBY")
	}
	delta, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return storeErr(store.ErrNotInteger)
	}
	return incrByReply(e, args[0], -delta)
}

func incrByReply(e *Engine, key string, delta int64) resp.Value {
	v, err := e.Store.IncrBy(key, delta)
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(v)
}

func cmdIncrByFloat(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("INCRBYFLOAT")
	}
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return storeErr(store.ErrNotFloat)
	}
	v, err := e.Store.IncrByFloat(args[0], delta)
	if err != nil {
		return storeErr(err)
	}
	return resp.BulkStringValue(strconv.FormatFloat(v, 'f', -1, 64))
}

func cmdAppend(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("APPEND")
	}
	n, err := e.Store.Append(args[0], args[1])
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func cmdStrLen(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("STRLEN")
	}
	n, err := e.Store.StrLen(args[0])
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func cmdGetSet(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("GETSET")
	}
	old, ok, err := e.Store.GetSet(args[0], args[1])
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.BulkStringValue(old)
}

func cmdGetDel(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("GETDEL")
	}
	v, ok, err := e.Store.GetDel(args[0])
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.BulkStringValue(v)
}

func cmdMSet(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) == 0 || len(args)%2 != 0 {
		return wrongArgs("MSET")
	}
	pairs := make([][2]string, len(args)/2)
	for i := range pairs {
		pairs[i] = [2]string{args[i*2], args[i*2+1]}
	}
	e.Store.MSet(pairs)
	return resp.SimpleStringValue("OK")
}

func cmdMGet(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) == 0 {
		return wrongArgs("MGET")
	}
	vals := make([]resp.Value, len(args))
	for i, k := range args {
		v, ok, err := e.Store.Get(k)
		if err != nil || !ok {
			vals[i] = resp.NullBulkString()
			continue
		}
		vals[i] = resp.BulkStringValue(v)
	}
	return resp.ArrayValue(vals...)
}

// cmdGetEx implements GETEX key [EX s|PX ms|EXAT ts|PXAT ts-ms|PERSIST].
func cmdGetEx(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 1 {
		return wrongArgs("GETEX")
	}
	var at *time.Time
	persist := false
	i := 1
	for i < len(args) {
		switch strings.ToUpper(args[i]) {
		case "EX", "PX", "EXAT", "PXAT":
			if i+1 >= len(args) {
				return storeErr(store.ErrSyntax)
			}
			n, err := strconv.ParseInt(args[i+1], 10, 64)
			if err != nil {
				return storeErr(store.ErrNotInteger)
			}
			switch strings.ToUpper(args[i]) {
			case "EX":
				t := time.Now().Add(time.Duration(n) * time.Second)
				at = &t
			case "PX":
				t := time.Now().Add(time.Duration(n) * time.Millisecond)
				at = &t
			case "EXAT":
				t := time.Unix(n, 0)
				at = &t
			case "PXAT":
				t := time.UnixMilli(n)
				at = &t
			}
			i += 2
		case "PERSIST":
			persist = true
			i++
		default:
			return storeErr(store.ErrSyntax)
		}
	}
	v, ok, err := e.Store.GetEx(args[0], at, persist)
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.BulkStringValue(v)
}
