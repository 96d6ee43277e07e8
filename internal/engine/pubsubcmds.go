package engine

import (
	"strings"

	"redis/internal/resp"
)

func init() {
	register("SUBSCRIBE", cmdSubscribe)
	register("UNSUBSCRIBE", cmdUnsubscribe)
	register("PSUBSCRIBE", cmdPSubscribe)
	register("PUNSUBSCRIBE", cmdPUnsubscribe)
	register("PUBLISH", cmdPublish)
	register("PUBSUB", cmdPubSub)
}

// cmdSubscribe implements SUBSCRIBE. A handler returns a single
// resp.Value, so every per-channel confirmation is packed into one
// outer array by subscribeFrames; the server's writeReply unpacks it
// into one top-level confirmation frame per channel, in order.
func cmdSubscribe(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) == 0 {
		return wrongArgs("SUBSCRIBE")
	}
	if sess.Subscriber == nil {
		sess.Subscriber = e.Broker.NewSubscriber()
	}
	counts := e.Broker.Subscribe(sess.Subscriber, args...)
	return subscribeFrames("subscribe", args, counts)
}

func cmdUnsubscribe(e *Engine, sess *Session, args []string) resp.Value {
	if sess.Subscriber == nil {
		return subscribeFrames("unsubscribe", []string{""}, []int{0})
	}
	channels := e.Broker.Unsubscribe(sess.Subscriber, args...)
	if len(channels) == 0 {
		channels = []string{""}
	}
	counts := make([]int, len(channels))
	for i := range channels {
		counts[i] = sess.Subscriber.SubscriptionCount()
	}
	return subscribeFrames("unsubscribe", channels, counts)
}

func cmdPSubscribe(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) == 0 {
		return wrongArgs("PSUBSCRIBE")
	}
	if sess.Subscriber == nil {
		sess.Subscriber = e.Broker.NewSubscriber()
	}
	counts := e.Broker.PSubscribe(sess.Subscriber, args...)
	return subscribeFrames("psubscribe", args, counts)
}

func cmdPUnsubscribe(e *Engine, sess *Session, args []string) resp.Value {
	if sess.Subscriber == nil {
		return subscribeFrames("punsubscribe", []string{""}, []int{0})
	}
	patterns := e.Broker.PUnsubscribe(sess.Subscriber, args...)
	if len(patterns) == 0 {
		patterns = []string{""}
	}
	counts := make([]int, len(patterns))
	for i := range patterns {
		counts[i] = sess.Subscriber.SubscriptionCount()
	}
	return subscribeFrames("punsubscribe", patterns, counts)
}

// subscribeFrames packs every per-channel confirmation into a single
// array-of-arrays reply; the connection writer unpacks and emits each
// inner array as its own top-level RESP frame, since these commands
// reply once per channel rather than once per call.
func subscribeFrames(kind string, names []string, counts []int) resp.Value {
	frames := make([]resp.Value, len(names))
	for i, name := range names {
		var nameVal resp.Value
		if name == "" {
			nameVal = resp.NullBulkString()
		} else {
			nameVal = resp.BulkStringValue(name)
		}
		frames[i] = resp.ArrayValue(resp.BulkStringValue(kind), nameVal, resp.IntegerValue(int64(counts[i])))
	}
	return resp.ArrayValue(frames...)
}

func cmdPublish(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) != 2 {
		return wrongArgs("PUBLISH")
	}
	n := e.Broker.Publish(args[0], args[1])
	return resp.IntegerValue(int64(n))
}

func cmdPubSub(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) == 0 {
		return wrongArgs("PUBSUB")
	}
	switch strings.ToUpper(args[0]) {
	case "CHANNELS":
		pattern := "*"
		if len(args) == 2 {
			pattern = args[1]
		}
		return resp.ArrayValue(stringsToValues(e.Broker.Channels(pattern))...)
	case "NUMSUB":
		counts := e.Broker.NumSub(args[1:]...)
		vals := make([]resp.Value, 0, len(args[1:])*2)
		for _, ch := range args[1:] {
			vals = append(vals, resp.BulkStringValue(ch), resp.IntegerValue(int64(counts[ch])))
		}
		return resp.ArrayValue(vals...)
	case "NUMPAT":
		return resp.IntegerValue(int64(e.Broker.NumPat()))
	default:
		return resp.ErrorValue("ERR Unknown PUBSUB subcommand")
	}
}
