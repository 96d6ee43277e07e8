package resp

import (
	"strconv"
)

// Encode serializes a Value to its RESP wire representation. Encode and
// the Reader's decoding are total inverses for the subset of RESP this
// package supports.
func Encode(v Value) []byte {
	buf := make([]byte, 0, 64)
	return appendValue(buf, v)
}

func appendValue(buf []byte, v Value) []byte {
	switch v.Type {
	case SimpleString:
		buf = append(buf, '+')
		buf = append(buf, v.Str...)
		return append(buf, '\r', '\n')
	case Error:
		buf = append(buf, '-')
		buf = append(buf, v.Str...)
		return append(buf, '\r', '\n')
	case Integer:
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, v.Int, 10)
		return append(buf, '\r', '\n')
	case BulkString:
		if v.IsNull {
			return append(buf, '$', '-', '1', '\r', '\n')
		}
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(v.Str)), 10)
		buf = append(buf, '\r', '\n')
		buf = append(buf, v.Str...)
		return append(buf, '\r', '\n')
	case Array:
		if v.IsNull {
			return append(buf, '*', '-', '1', '\r', '\n')
		}
		buf = append(buf, '*')
		buf = strconv.AppendInt(buf, int64(len(v.Array)), 10)
		buf = append(buf, '\r', '\n')
		for _, item := range v.Array {
			buf = appendValue(buf, item)
		}
		return buf
	default:
		return buf
	}
}

// EncodeRawConcat concatenates several already-encoded frames into one
// back-to-back byte slice. The PSYNC reply does not go through it:
// replication.Hub.AdoptReplica writes the FULLRESYNC line and the RDB
// bulk payload itself.
func EncodeRawConcat(frames ...[]byte) []byte {
	total := 0
	for _, f := range frames {
		total += len(f)
	}
	out := make([]byte, 0, total)
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}
