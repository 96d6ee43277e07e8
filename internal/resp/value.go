// Package resp implements the RESP (REdis Serialization Protocol) wire
// format: a tagged Value type, an encoder, and a frame-at-a-time Reader
// that tracks how many bytes it has consumed (needed for replication
// offset bookkeeping).
package resp

import "fmt"

// Type tags the kind of RESP frame a Value holds.
type Type int

const (
	SimpleString Type = iota
	Error
	Integer
	BulkString
	Array
	// NoReply marks a handler result that writes nothing back to the
	// client itself, either because it already wrote raw bytes directly
	// to the connection (PSYNC) or because the command is a one-way
	// notification the protocol defines no reply for (REPLCONF ACK).
	NoReply
)

// Value is the tagged sum type every decoded RESP frame is reduced to.
// Only one of Str/Int/Array is meaningful, selected by Type. IsNull
// distinguishes a null bulk string ($-1) or null array (*-1) from an
// empty one.
type Value struct {
	Type   Type
	Str    string
	Int    int64
	Array  []Value
	IsNull bool
}

func SimpleStringValue(s string) Value { return Value{Type: SimpleString, Str: s} }
func ErrorValue(s string) Value        { return Value{Type: Error, Str: s} }
func IntegerValue(i int64) Value       { return Value{Type: Integer, Int: i} }
func BulkStringValue(s string) Value   { return Value{Type: BulkString, Str: s} }
func NullBulkString() Value            { return Value{Type: BulkString, IsNull: true} }
func NullArray() Value                 { return Value{Type: Array, IsNull: true} }

func ArrayValue(items ...Value) Value {
	return Value{Type: Array, Array: items}
}

// StringArray is a convenience constructor for an array of bulk strings,
// the shape every RESP command takes on the wire.
func StringArray(items ...string) Value {
	vals := make([]Value, len(items))
	for i, s := range items {
		vals[i] = BulkStringValue(s)
	}
	return ArrayValue(vals...)
}

// Strings renders an Array of BulkStrings back to plain strings. Used by
// the command parser once a frame has been decoded.
func (v Value) Strings() ([]string, bool) {
	if v.Type != Array || v.IsNull {
		return nil, false
	}
	out := make([]string, len(v.Array))
	for i, item := range v.Array {
		if item.Type != BulkString || item.IsNull {
			return nil, false
		}
		out[i] = item.Str
	}
	return out, true
}

func (v Value) String() string {
	switch v.Type {
	case SimpleString:
		return "+" + v.Str
	case Error:
		return "-" + v.Str
	case Integer:
		return fmt.Sprintf(":%d", v.Int)
	case BulkString:
		if v.IsNull {
			return "$-1"
		}
		return v.Str
	case Array:
		if v.IsNull {
			return "*-1"
		}
		return fmt.Sprintf("*%d", len(v.Array))
	default:
		return "<invalid>"
	}
}
