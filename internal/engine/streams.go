package engine

import (
	"strconv"
	"strings"
	"time"

	"redis/internal/resp"
	"redis/internal/store"
)

func init() {
	register("XADD", cmdXAdd)
	register("XLEN", cmdXLen)
	register("XRANGE", cmdXRange)
	register("XREAD", cmdXRead)
}

func cmdXAdd(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 4 || len(args)%2 != 0 {
		return wrongArgs("XADD")
	}
	key, idArg := args[0], args[1]
	fields := args[2:]
	id, err := e.Store.XAdd(key, idArg, fields)
	if err != nil {
		return storeErr(err)
	}
	return resp.BulkStringValue(id.String())
}

func cmdXLen(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("XLEN")
	}
	n, err := e.Store.XLen(args[0])
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func parseRangeBound(s string, isEnd bool) (store.StreamID, bool, error) {
	switch s {
	case "-":
		return store.StreamID{}, true, nil
	case "+":
		if !isEnd {
			return store.StreamID{}, false, store.ErrSyntax
		}
		return store.StreamID{Ms: ^uint64(0), Seq: ^uint64(0)}, true, nil
	default:
		id, err := store.ParseStreamID(s)
		if err != nil {
			return store.StreamID{}, false, err
		}
		return id, false, nil
	}
}

func streamEntriesReply(entries []store.StreamEntry) resp.Value {
	vals := make([]resp.Value, len(entries))
	for i, ent := range entries {
		fieldVals := stringsToValues(ent.Fields)
		vals[i] = resp.ArrayValue(resp.BulkStringValue(ent.ID.String()), resp.ArrayValue(fieldVals...))
	}
	return resp.ArrayValue(vals...)
}

func cmdXRange(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 3 {
		return wrongArgs("XRANGE")
	}
	start, startUnbounded, err := parseRangeBound(args[1], false)
	if err != nil {
		return storeErr(err)
	}
	end, endUnbounded, err := parseRangeBound(args[2], true)
	if err != nil {
		return storeErr(err)
	}
	entries, err := e.Store.XRange(args[0], start, end, startUnbounded, endUnbounded)
	if err != nil {
		return storeErr(err)
	}
	return streamEntriesReply(entries)
}

// cmdXRead implements XREAD [BLOCK ms] STREAMS key [key ...] id [id ...].
func cmdXRead(e *Engine, sess *Session, args []string) resp.Value {
	var blockMs int64 = -1
	i := 0
	for i < len(args) {
		switch strings.ToUpper(args[i]) {
		case "BLOCK":
			if i+1 >= len(args) {
				return storeErr(store.ErrSyntax)
			}
			ms, err := strconv.ParseInt(args[i+1], 10, 64)
			if err != nil {
				return storeErr(store.ErrNotInteger)
			}
			blockMs = ms
			i += 2
		case "STREAMS":
			i++
			goto streamsParsed
		default:
			return storeErr(store.ErrSyntax)
		}
	}
streamsParsed:
	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return storeErr(store.ErrSyntax)
	}
	n := len(rest) / 2
	keys := rest[:n]
	idArgs := rest[n:]

	afterIDs := make([]store.StreamID, n)
	for j, idArg := range idArgs {
		if idArg == "$" {
			last, ok := e.Store.LastStreamID(keys[j])
			if ok {
				afterIDs[j] = last
			}
			continue
		}
		id, err := store.ParseStreamID(idArg)
		if err != nil {
			return storeErr(err)
		}
		afterIDs[j] = id
	}

	blocking := blockMs >= 0
	timeout := time.Duration(blockMs) * time.Millisecond
	deadline := time.Now().Add(timeout)

	for {
		var results []resp.Value
		for j, key := range keys {
			entries, err := e.Store.XReadAfter(key, afterIDs[j])
			if err != nil {
				return storeErr(err)
			}
			if len(entries) > 0 {
				results = append(results, resp.ArrayValue(resp.BulkStringValue(key), streamEntriesReply(entries)))
			}
		}
		if len(results) > 0 {
			return resp.ArrayValue(results...)
		}
		if !blocking {
			return resp.NullArray()
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
