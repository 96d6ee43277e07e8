package engine

import (
	"redis/internal/resp"
)

func init() {
	register("MULTI", cmdMulti)
	register("EXEC", cmdExec)
	register("DISCARD", cmdDiscard)
}

func cmdMulti(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 0 {
		return wrongArgs("MULTI")
	}
	if sess.InMulti {
		return resp.ErrorValue("ERR MULTI calls can not be nested")
	}
	sess.InMulti = true
	sess.MultiError = false
	sess.Queued = nil
	return resp.SimpleStringValue("OK")
}

func cmdExec(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 0 {
		return wrongArgs("EXEC")
	}
	if !sess.InMulti {
		return resp.ErrorValue("ERR EXEC without MULTI")
	}
	if sess.MultiError {
		sess.InMulti = false
		sess.MultiError = false
		sess.Queued = nil
		return resp.ErrorValue("EXECABORT Transaction discarded because of previous errors.")
	}
	queued := sess.Queued
	sess.InMulti = false
	sess.MultiError = false
	sess.Queued = nil

	replies := make([]resp.Value, len(queued))
	for i, cmd := range queued {
		replies[i] = e.dispatch(sess, cmd)
	}
	return resp.ArrayValue(replies...)
}

func cmdDiscard(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 0 {
		return wrongArgs("DISCARD")
	}
	if !sess.InMulti {
		return resp.ErrorValue("ERR DISCARD without MULTI")
	}
	sess.InMulti = false
	sess.MultiError = false
	sess.Queued = nil
	return resp.SimpleStringValue("OK")
}
