package resp

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []Value{
		SimpleStringValue("OK"),
		ErrorValue("ERR boom"),
		IntegerValue(42),
		BulkStringValue("hello"),
		NullBulkString(),
		ArrayValue(BulkStringValue("SET"), BulkStringValue("k"), BulkStringValue("v")),
		NullArray(),
	}

	for _, v := range tests {
		encoded := Encode(v)
		r := NewReader(bufio.NewReader(bytes.NewReader(encoded)))
		got, err := r.ReadFrame()
		require.NoError(t, err)
		require.Equal(t, v.Type, got.Type)
		require.Equal(t, v.IsNull, got.IsNull)
		if v.Type == BulkString || v.Type == SimpleString || v.Type == Error {
			require.Equal(t, v.Str, got.Str)
		}
		if v.Type == Integer {
			require.Equal(t, v.Int, got.Int)
		}
		if v.Type == Array && !v.IsNull {
			require.Equal(t, len(v.Array), len(got.Array))
		}
	}
}

func TestReaderTracksProcessedBytes(t *testing.T) {
	frame := Encode(StringArray("PING"))
	r := NewReader(bufio.NewReader(bytes.NewReader(frame)))
	r.SetReplicationMode(true)

	_, err := r.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, int64(len(frame)), r.ProcessedBytes())
	require.Equal(t, int64(len(frame)), r.LastFrameLen())
}

func TestInlineCommandParsesAsArray(t *testing.T) {
	r := NewReader(bufio.NewReader(bytes.NewReader([]byte("PING\r\n"))))
	v, err := r.ReadFrame()
	require.NoError(t, err)
	fields, ok := v.Strings()
	require.True(t, ok)
	require.Equal(t, []string{"PING"}, fields)
}

func TestExpectRDBPayload(t *testing.T) {
	payload := []byte("REDIS0009somebytes")
	frame := append([]byte("$"+itoa(len(payload))+"\r\n"), payload...)
	r := NewReader(bufio.NewReader(bytes.NewReader(frame)))
	got, err := r.ExpectRDBPayload()
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
