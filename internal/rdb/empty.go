package rdb

import "fmt"

// EmptyPayload returns the bytes of a minimal, valid-but-empty RDB
// snapshot: header, no keys, EOF, zeroed checksum. It is what PSYNC's
// FULLRESYNC response sends a freshly-connecting replica — acceptable
// for bootstrap since this server does not persist snapshots to disk.
func EmptyPayload() []byte {
	buf := []byte(magicString)
	buf = append(buf, []byte(fmt.Sprintf("%04d", version))...)
	buf = append(buf, opEOF)
	buf = append(buf, make([]byte, 8)...) // checksum, unverified by this loader
	return buf
}
