package rdb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"redis/internal/store"
)

func writeLength(buf *bytes.Buffer, n int) {
	buf.WriteByte(byte(n)) // small enough to fit the 6-bit encoding in these tests
}

func writeString(buf *bytes.Buffer, s string) {
	writeLength(buf, len(s))
	buf.WriteString(s)
}

func TestLoadEmptyPayload(t *testing.T) {
	s := store.New()
	err := LoadBytes(EmptyPayload(), s)
	require.NoError(t, err)
	require.Empty(t, s.Keys("*"))
}

func TestLoadStringEntry(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(magicString)
	buf.WriteString("0009")
	buf.WriteByte(typeString)
	writeString(&buf, "greeting")
	writeString(&buf, "hello")
	buf.WriteByte(opEOF)
	buf.Write(make([]byte, 8))

	s := store.New()
	require.NoError(t, LoadBytes(buf.Bytes(), s))

	v, ok, err := s.Get("greeting")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", v)
}

func TestLoadListEntry(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(magicString)
	buf.WriteString("0009")
	buf.WriteByte(typeList)
	writeString(&buf, "mylist")
	writeLength(&buf, 2)
	writeString(&buf, "a")
	writeString(&buf, "b")
	buf.WriteByte(opEOF)
	buf.Write(make([]byte, 8))

	s := store.New()
	require.NoError(t, LoadBytes(buf.Bytes(), s))

	items, err := s.LRange("mylist", 0, -1)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, items)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	s := store.New()
	require.NoError(t, Load("/nonexistent/path/to/dump.rdb", s))
}

func TestLoadRejectsBadMagic(t *testing.T) {
	s := store.New()
	err := LoadBytes([]byte("NOTRDB0009"), s)
	require.Error(t, err)
}
