package engine

import "redis/internal/resp"

func init() {
	register("PING", cmdPing)
	register("ECHO", cmdEcho)
	register("QUIT", cmdQuit)
	register("RESET", cmdReset)
}

func cmdPing(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) == 0 {
		return resp.SimpleStringValue("PONG")
	}
	if len(args) == 1 {
		return resp.BulkStringValue(args[0])
	}
	return wrongArgs("PING")
}

func cmdEcho(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 1 {
		return wrongArgs("ECHO")
	}
	return resp.BulkStringValue(args[0])
}

func cmdQuit(e *Engine, sess *Session, args []string) resp.Value {
	return resp.SimpleStringValue("OK")
}

func cmdReset(e *Engine, sess *Session, args []string) resp.Value {
	if sess.Subscriber != nil {
		e.Broker.Remove(sess.Subscriber)
		sess.Subscriber = nil
	}
	sess.InMulti = false
	sess.MultiError = false
	sess.Queued = nil
	return resp.SimpleStringValue("RESET")
}
