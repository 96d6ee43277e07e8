package engine

import (
	"strconv"
	"strings"

	"redis/internal/resp"
	"redis/internal/store"
)

func init() {
	register("ZADD", cmdZAdd)
	register("ZSCORE", cmdZScore)
	register("ZREM", cmdZRem)
	register("ZCARD", cmdZCard)
	register("ZRANK", cmdZRank)
	register("ZREVRANK", cmdZRevRank)
	register("ZRANGE", cmdZRange)
	register("ZREVRANGE", cmdZRevRange)
	register("ZRANGEBYSCORE", cmdZRangeByScore)
	register("ZREVRANGEBYSCORE", cmdZRevRangeByScore)
	register("ZINCRBY", cmdZIncrBy)
	register("ZCOUNT", cmdZCount)
	register("ZPOPMIN", cmdZPopMin)
	register("ZPOPMAX", cmdZPopMax)
}

func cmdZAdd(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 3 || len(args)%2 != 1 {
		return wrongArgs("ZADD")
	}
	members := make([]store.ZSetMember, 0, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		score, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return storeErr(store.ErrNotFloat)
		}
		members = append(members, store.ZSetMember{Member: args[i+1], Score: score})
	}
	n, err := e.Store.ZAdd(args[0], members)
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func cmdZScore(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("ZSCORE")
	}
	score, ok, err := e.Store.ZScore(args[0], args[1])
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.BulkStringValue(formatScore(score))
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func cmdZRem(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 2 {
		return wrongArgs("ZREM")
	}
	n, err := e.Store.ZRem(args[0], args[1:])
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func cmdZCard(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("ZCARD")
	}
	n, err := e.Store.ZCard(args[0])
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func zRankReply(e *Engine, args []string, name string, reverse bool) resp.Value {
	if len(args) != 2 {
		return wrongArgs(name)
	}
	rank, ok, err := e.Store.ZRank(args[0], args[1], reverse)
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.IntegerValue(int64(rank))
}

func cmdZRank(e *Engine, sess *Session, args []string) resp.Value {
	return zRankReply(e, args, "ZRANK", false)
}

func cmdZRevRank(e *Engine, sess *Session, args []string) resp.Value {
	return zRankReply(e, args, "ZREVRANK", true)
}

func zRangeReply(e *Engine, args []string, name string, reverse bool) resp.Value {
	if len(args) < 3 {
		return wrongArgs(name)
	}
	start, err1 := strconv.Atoi(args[1])
	stop, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return storeErr(store.ErrNotInteger)
	}
	withScores := len(args) == 4 && strings.EqualFold(args[3], "WITHSCORES")
	if len(args) == 4 && !withScores {
		return storeErr(store.ErrSyntax)
	}
	members, err := e.Store.ZRange(args[0], start, stop, reverse)
	if err != nil {
		return storeErr(err)
	}
	return zMembersReply(members, withScores)
}

func zMembersReply(members []store.ZSetMember, withScores bool) resp.Value {
	vals := make([]resp.Value, 0, len(members)*2)
	for _, m := range members {
		vals = append(vals, resp.BulkStringValue(m.Member))
		if withScores {
			vals = append(vals, resp.BulkStringValue(formatScore(m.Score)))
		}
	}
	return resp.ArrayValue(vals...)
}

func cmdZRange(e *Engine, sess *Session, args []string) resp.Value {
	return zRangeReply(e, args, "ZRANGE", false)
}

func cmdZRevRange(e *Engine, sess *Session, args []string) resp.Value {
	return zRangeReply(e, args, "ZREVRANGE", true)
}

func parseScoreBound(s string) (float64, error) {
	switch s {
	case "-inf":
		return -1e308, nil
	case "+inf", "inf":
		return 1e308, nil
	default:
		return strconv.ParseFloat(s, 64)
	}
}

// zRangeByScoreReply implements both ZRANGEBYSCORE (min then max) and
// ZREVRANGEBYSCORE (max then min, descending order).
func zRangeByScoreReply(e *Engine, args []string, name string, reverse bool) resp.Value {
	if len(args) < 3 {
		return wrongArgs(name)
	}
	first, err1 := parseScoreBound(args[1])
	second, err2 := parseScoreBound(args[2])
	if err1 != nil || err2 != nil {
		return storeErr(store.ErrNotFloat)
	}
	min, max := first, second
	if reverse {
		min, max = second, first
	}
	withScores := false
	offset, count := 0, -1
	for i := 3; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "WITHSCORES":
			withScores = true
		case "LIMIT":
			if i+2 >= len(args) {
				return storeErr(store.ErrSyntax)
			}
			o, err := strconv.Atoi(args[i+1])
			if err != nil {
				return storeErr(store.ErrNotInteger)
			}
			c, err := strconv.Atoi(args[i+2])
			if err != nil {
				return storeErr(store.ErrNotInteger)
			}
			offset, count = o, c
			i += 2
		default:
			return storeErr(store.ErrSyntax)
		}
	}
	members, err := e.Store.ZRangeByScore(args[0], min, max, offset, count, reverse)
	if err != nil {
		return storeErr(err)
	}
	return zMembersReply(members, withScores)
}

func cmdZRangeByScore(e *Engine, sess *Session, args []string) resp.Value {
	return zRangeByScoreReply(e, args, "ZRANGEBYSCORE", false)
}

func cmdZRevRangeByScore(e *Engine, sess *Session, args []string) resp.Value {
	return zRangeByScoreReply(e, args, "ZREVRANGEBYSCORE", true)
}

func cmdZCount(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 3 {
		return wrongArgs("ZCOUNT")
	}
	min, err1 := parseScoreBound(args[1])
	max, err2 := parseScoreBound(args[2])
	if err1 != nil || err2 != nil {
		return storeErr(store.ErrNotFloat)
	}
	n, err := e.Store.ZCount(args[0], min, max)
	if err != nil {
		return storeErr(err)
	}
	return resp.IntegerValue(int64(n))
}

func zPopReply(e *Engine, args []string, name string, max bool) resp.Value {
	if len(args) < 1 || len(args) > 2 {
		return wrongArgs(name)
	}
	count := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return storeErr(store.ErrNotInteger)
		}
		count = n
	}
	var members []store.ZSetMember
	var err error
	if max {
		members, err = e.Store.ZPopMax(args[0], count)
	} else {
		members, err = e.Store.ZPopMin(args[0], count)
	}
	if err != nil {
		return storeErr(err)
	}
	return zMembersReply(members, true)
}

func cmdZPopMin(e *Engine, sess *Session, args []string) resp.Value {
	return zPopReply(e, args, "ZPOPMIN", false)
}

func cmdZPopMax(e *Engine, sess *Session, args []string) resp.Value {
	return zPopReply(e, args, "ZPOPMAX", true)
}

func cmdZIncrBy(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 3 {
		return wrongArgs("ZINCRBY")
	}
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return storeErr(store.ErrNotFloat)
	}
	v, err := e.Store.ZIncrBy(args[0], args[2], delta)
	if err != nil {
		return storeErr(err)
	}
	return resp.BulkStringValue(formatScore(v))
}
