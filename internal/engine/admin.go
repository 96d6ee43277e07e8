package engine

import (
	"fmt"
	"strconv"
	"strings"

	"redis/internal/resp"
)

func init() {
	register("CONFIG", cmdConfig)
	register("INFO", cmdInfo)
}

func cmdConfig(e *Engine, sess *Session, args []string) resp.Value {
	if len(args) < 2 {
		return wrongArgs("CONFIG")
	}
	switch strings.ToUpper(args[0]) {
	case "GET":
		name := strings.ToLower(args[1])
		var value string
		var ok bool
		switch name {
		case "dir":
			value, ok = e.Config.Dir, true
		case "dbfilename":
			value, ok = e.Config.DBFilename, true
		case "port":
			value, ok = strconv.Itoa(e.Config.Port), true
		}
		if !ok {
			return resp.ArrayValue()
		}
		return resp.ArrayValue(resp.BulkStringValue(name), resp.BulkStringValue(value))
	default:
		return resp.ErrorValue("ERR Unknown CONFIG subcommand")
	}
}

func cmdInfo(e *Engine, sess *Session, args []string) resp.Value {
	role := "master"
	if e.IsReplica {
		role = "slave"
	}
	lines := []string{
		"# Replication",
		fmt.Sprintf("role:%s", role),
		fmt.Sprintf("connected_slaves:%d", e.Hub.ReplicaCount()),
		fmt.Sprintf("master_replid:%s", e.Hub.ReplID),
		fmt.Sprintf("master_repl_offset:%d", e.Hub.Offset()),
	}
	return resp.BulkStringValue(strings.Join(lines, "\r\n") + "\r\n")
}
