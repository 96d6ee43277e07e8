package engine

import (
	"strconv"

	"redis/internal/resp"
	"redis/internal/store"
)

func init() {
	register("HSET", cmdHSet)
	register("HGET", cmdHGet)
	register("HMGET", cmdHMGet)
	register("HDEL", cmdHDel)
	register("HEXISTS", cmdHExists)
	register("HLEN", cmdHLen)
	register("HKEYS", cmdHKeys)
	register("HVALS", cmdHVals)
	register("HGETALL", cmdHGetAll)
	register("HSETNX", cmdHSetNX)
	register("HINCRBY", cmdHIncrBy)
	register("HINCRBYFLOAT", cmdHIncrByFloat)
}

func cmdHSet(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 3 || len(args)%2 != 1 {
		return wrongArgs("HSET")
	}
	pairs := make([][2]string, 0, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		pairs = append(pairs, [2]string{args[i], args[i+1]})
	}
	n, err := e.Store.HSet(args[0], pairs)
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func cmdHGet(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("HGET")
	}
	v, ok, err := e.Store.HGet(args[0], args[1])
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.BulkStringValue(v)
}

func cmdHMGet(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 2 {
		return wrongArgs("HMGET")
	}
	vals, err := e.Store.HMGet(args[0], args[1:])
	if err != nil {
		return storeErr(err)
	}
	out := make([]resp.Value, len(vals))
	for i, v := range vals {
		if v == nil {
			out[i] = resp.NullBulkString()
		} else {
			out[i] = resp.BulkStringValue(*v)
		}
	}
	return resp.ArrayValue(out...)
}

func cmdHDel(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 2 {
		return wrongArgs("HDEL")
	}
	n, err := e.Store.HDel(args[0], args[1:])
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func cmdHExists(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("HEXISTS")
	}
	ok, err := e.Store.HExists(args[0], args[1])
	if err != nil {
		return storeErr(err)
	}
	if ok {
		return resp.IntegerValue(1)
	}
	return resp.IntegerValue(0)
}

func cmdHLen(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("HLEN")
	}
	n, err := e.Store.HLen(args[0])
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func stringsToValues(items []string) []resp.Value {
	out := make([]resp.Value, len(items))
	for i, v := range items {
		out[i] = resp.BulkStringValue(v)
	}
	return out
}

func cmdHKeys(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("HKEYS")
	}
	keys, err := e.Store.HKeys(args[0])
	if err != nil {
		return storeErr(err)
	}
	return resp.ArrayValue(stringsToValues(keys)...)
}

func cmdHVals(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("HVALS")
	}
	vals, err := e.Store.HVals(args[0])
	if err != nil {
		return storeErr(err)
	}
	return resp.ArrayValue(stringsToValues(vals)...)
}

func cmdHGetAll(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("HGETALL")
	}
	flat, err := e.Store.HGetAll(args[0])
	if err != nil {
		return storeErr(err)
	}
	return resp.ArrayValue(stringsToValues(flat)...)
}

func cmdHSetNX(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 3 {
		return wrongArgs("HSETNX")
	}
	set, err := e.Store.HSetNX(args[0], args[1], args[2])
	if err != nil {
		return storeErr(err)
	}
	if set {
		return resp.IntegerValue(1)
	}
	return resp.IntegerValue(0)
}

func cmdHIncrBy(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 3 {
		return wrongArgs("HINCRBY")
	}
	delta, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return storeErr(store.ErrNotInteger)
	}
	v, err := e.Store.HIncrBy(args[0], args[1], delta)
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(v)
}

func cmdHIncrByFloat(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 3 {
		return wrongArgs("HINCRBYFLOAT")
	}
	delta, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return storeErr(store.ErrNotFloat)
	}
	v, err := e.Store.HIncrByFloat(args[0], args[1], delta)
	if err != nil {
		return storeErr(err)
	}
	return resp.BulkStringValue(strconv.FormatFloat(v, 'f', -1, 64))
}
