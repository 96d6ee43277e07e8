package engine

import (
	"strconv"
	"strings"
	"time"

	"redis/internal/resp"
	"redis/internal/store"
)

func init() {
	register("LPUSH", cmdLPush)
	register("RPUSH", cmdRPush)
	register("LPOP", cmdLPop)
	register("RPOP", cmdRPop)
	register("LLEN", cmdLLen)
	register("LRANGE", cmdLRange)
	register("LINDEX", cmdLIndex)
	register("LSET", cmdLSet)
	register("LREM", cmdLRem)
	register("LTRIM", cmdLTrim)
	register("LINSERT", cmdLInsert)
	register("LMOVE", cmdLMove)
	register("RPOPLPUSH", cmdRPopLPush)
	register("BLPOP", cmdBLPop)
	register("BRPOP", cmdBRPop)
	register("BLMOVE", cmdBLMove)
}

func cmdLPush(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 2 {
		return wrongArgs("LPUSH")
	}
	n, err := e.Store.LPush(args[0], args[1:]...)
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func cmdRPush(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 2 {
		return wrongArgs("RPUSH")
	}
	n, err := e.Store.RPush(args[0], args[1:]...)
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func popReply(e *Engine, args []string, name string, fromHead bool) resp.Value {
	if len(args) < 1 || len(args) > 2 {
		return wrongArgs(name)
	}
	count := 1
	multi := len(args) == 2
	if multi {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return storeErr(store.ErrNotInteger)
		}
		count = n
	}
	var items []string
	var err error
	if fromHead {
		items, err = e.Store.LPop(args[0], count)
	} else {
		items, err = e.Store.RPop(args[0], count)
	}
	if err != nil {
		return storeErr(err)
	}
	if len(items) == 0 {
		if multi {
			return resp.NullArray()
		}
		return resp.NullBulkString()
	}
	if !multi {
		return resp.BulkStringValue(items[0])
	}
	vals := make([]resp.Value, len(items))
	for i, v := range items {
		vals[i] = resp.BulkStringValue(v)
	}
	return resp.ArrayValue(vals...)
}

func cmdLPop(e *Engine, sess *Session, args []string) resp.Value {
	return popReply(e, args, "LPOP", true)
}

func cmdRPop(e *Engine, sess *Session, args []string) resp.Value {
	return popReply(e, args, "RPOP", false)
}

func cmdLLen(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("LLEN")
	}
	n, err := e.Store.LLen(args[0])
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func cmdLRange(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 3 {
		return wrongArgs("LRANGE")
	}
	start, err1 := strconv.Atoi(args[1])
	stop, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return storeErr(store.ErrNotInteger)
	}
	items, err := e.Store.LRange(args[0], start, stop)
	if err != nil {
		return storeErr(err)
	}
	vals := make([]resp.Value, len(items))
	for i, v := range items {
		vals[i] = resp.BulkStringValue(v)
	}
	return resp.ArrayValue(vals...)
}

func cmdLIndex(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("LINDEX")
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return storeErr(store.ErrNotInteger)
	}
	v, ok, err := e.Store.LIndex(args[0], idx)
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.BulkStringValue(v)
}

func cmdLSet(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 3 {
		return wrongArgs("LSET")
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return storeErr(store.ErrNotInteger)
	}
	if err := e.Store.LSet(args[0], idx, args[2]); err != nil {
		return storeErr(err)
	}
	return resp.SimpleStringValue("OK")
}

func cmdLRem(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 3 {
		return wrongArgs("LREM")
	}
	count, err := strconv.Atoi(args[1])
	if err != nil {
		return storeErr(store.ErrNotInteger)
	}
	n, err := e.Store.LRem(args[0], count, args[2])
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func cmdLTrim(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 3 {
		return wrongArgs("LTRIM")
	}
	start, err1 := strconv.Atoi(args[1])
	stop, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return storeErr(store.ErrNotInteger)
	}
	if err := e.Store.LTrim(args[0], start, stop); err != nil {
		return storeErr(err)
	}
	return resp.SimpleStringValue("OK")
}

func cmdLInsert(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 4 {
		return wrongArgs("LINSERT")
	}
	var before bool
	switch strings.ToUpper(args[1]) {
	case "BEFORE":
		before = true
	case "AFTER":
		before = false
	default:
		return storeErr(store.ErrSyntax)
	}
	n, err := e.Store.LInsert(args[0], before, args[2], args[3])
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func cmdLMove(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 4 {
		return wrongArgs("LMOVE")
	}
	fromHead, err1 := parseEnd(args[2])
	toHead, err2 := parseEnd(args[3])
	if err1 != nil {
		return storeErr(err1)
	}
	if err2 != nil {
		return storeErr(err2)
	}
	v, ok, err := e.Store.LMove(args[0], args[1], fromHead, toHead)
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.BulkStringValue(v)
}

func parseEnd(s string) (bool, error) {
	switch strings.ToUpper(s) {
	case "LEFT":
		return true, nil
	case "RIGHT":
		return false, nil
	default:
		return false, store.ErrSyntax
	}
}

func cmdRPopLPush(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("RPOPLPUSH")
	}
	v, ok, err := e.Store.LMove(args[0], args[1], false, true)
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.BulkStringValue(v)
}

func blockingPop(e *Engine, args []string, fromHead bool) resp.Value {
	if len(args) < 2 {
		return wrongArgs("BLPOP")
	}
	keys := args[:len(args)-1]
	timeoutSecs, err := strconv.ParseFloat(args[len(args)-1], 64)
	if err != nil || timeoutSecs < 0 {
		return storeErr(store.ErrNotInteger)
	}
	timeout := time.Duration(timeoutSecs * float64(time.Second))

	deadline := time.Now().Add(timeout)
	for {
		for _, key := range keys {
			var items []string
			var err error
			if fromHead {
				items, err = e.Store.LPop(key, 1)
			} else {
				items, err = e.Store.RPop(key, 1)
			}
			if err != nil {
				return storeErr(err)
			}
			if len(items) > 0 {
				return resp.ArrayValue(resp.BulkStringValue(key), resp.BulkStringValue(items[0]))
			}
		}

		var remaining time.Duration
		if timeout > 0 {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return resp.NullArray()
			}
		}
		if _, woken := e.Store.WaitAny(keys, remaining, nil); !woken && timeout > 0 {
			return resp.NullArray()
		}
	}
}

func cmdBLPop(e *Engine, sess *Session, args []string) resp.Value {
	return blockingPop(e, args, true)
}

func cmdBRPop(e *Engine, sess *Session, args []string) resp.Value {
	return blockingPop(e, args, false)
}

func cmdBLMove(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 5 {
		return wrongArgs("BLMOVE")
	}
	src, dst := args[0], args[1]
	fromHead, err1 := parseEnd(args[2])
	toHead, err2 := parseEnd(args[3])
	if err1 != nil {
		return storeErr(err1)
	}
	if err2 != nil {
		return storeErr(err2)
	}
	timeoutSecs, err := strconv.ParseFloat(args[4], 64)
	if err != nil || timeoutSecs < 0 {
		return storeErr(store.ErrNotInteger)
	}
	timeout := time.Duration(timeoutSecs * float64(time.Second))
	deadline := time.Now().Add(timeout)

	for {
		v, ok, err := e.Store.LMove(src, dst, fromHead, toHead)
		if err != nil {
			return storeErr(err)
		}
		if ok {
			return resp.BulkStringValue(v)
		}

		var remaining time.Duration
		if timeout > 0 {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return resp.NullBulkString()
			}
		}
		if !e.Store.Wait(src, remaining, nil) && timeout > 0 && time.Now().After(deadline) {
			return resp.NullBulkString()
		}
	}
}
