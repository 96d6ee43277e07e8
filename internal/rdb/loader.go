// Package rdb loads a server's on-disk snapshot at startup. Only
// loading is implemented — writing a new snapshot is out of scope, so
// this package never opens a file for write.
package rdb

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"redis/internal/store"
)

func bytesReader(data []byte) io.Reader { return bytes.NewReader(data) }

// File format constants, shared with how a writer for this format would
// lay bytes out: magic + 4-digit version, then opcode-tagged sections,
// then a per-key type byte, key, payload, and a trailing EOF + CRC64
// checksum.
const (
	magicString = "REDIS"
	version     = 9

	opEOF          = 0xFF
	opSelectDB     = 0xFE
	opExpireTime   = 0xFD
	opExpireTimeMS = 0xFC
	opResizeDB     = 0xFB
	opAux          = 0xFA

	typeString = 0
	typeList   = 1
	typeHash   = 4
	typeZSet   = 5
	typeStream = 6
)

// Load reads an RDB file from path and populates s. A missing file is
// not an error (a fresh server simply starts empty); a malformed file
// is returned as an error and leaves s unchanged, since nothing is
// swapped in unless the whole file parses — the caller decides whether
// to log it and continue.
func Load(path string, s *store.Store) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	return LoadReader(bufio.NewReader(f), s)
}

// LoadBytes loads an in-memory RDB payload, the form a replica receives
// over the wire during PSYNC.
func LoadBytes(data []byte, s *store.Store) error {
	return LoadReader(bufio.NewReader(bytesReader(data)), s)
}

// LoadReader loads from any already-buffered source. Entries are parsed
// into a scratch store and only swapped into s once the whole payload
// has parsed cleanly — a malformed file midway through must never
// leave s holding half a snapshot.
func LoadReader(r *bufio.Reader, s *store.Store) error {
	scratch := store.New()
	if err := loadInto(r, scratch); err != nil {
		return err
	}
	s.ReplaceFrom(scratch)
	return nil
}

func loadInto(r *bufio.Reader, s *store.Store) error {
	if err := readHeader(r); err != nil {
		return fmt.Errorf("rdb: %w", err)
	}

	var pendingExpiry *time.Time
	for {
		op, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("rdb: unexpected EOF before terminator: %w", err)
		}

		switch op {
		case opEOF:
			return nil
		case opSelectDB:
			if _, err := readLength(r); err != nil {
				return fmt.Errorf("rdb: bad SELECTDB: %w", err)
			}
		case opResizeDB:
			if _, err := readLength(r); err != nil {
				return fmt.Errorf("rdb: bad RESIZEDB hash size: %w", err)
			}
			if _, err := readLength(r); err != nil {
				return fmt.Errorf("rdb: bad RESIZEDB expiry size: %w", err)
			}
		case opAux:
			if _, err := readString(r); err != nil {
				return fmt.Errorf("rdb: bad AUX key: %w", err)
			}
			if _, err := readString(r); err != nil {
				return fmt.Errorf("rdb: bad AUX value: %w", err)
			}
		case opExpireTimeMS:
			var ms int64
			if err := binary.Read(r, binary.LittleEndian, &ms); err != nil {
				return fmt.Errorf("rdb: bad expire-ms: %w", err)
			}
			t := time.UnixMilli(ms)
			pendingExpiry = &t
		case opExpireTime:
			var secs int32
			if err := binary.Read(r, binary.LittleEndian, &secs); err != nil {
				return fmt.Errorf("rdb: bad expire-sec: %w", err)
			}
			t := time.Unix(int64(secs), 0)
			pendingExpiry = &t
		default:
			if err := readEntry(r, op, s, pendingExpiry); err != nil {
				return fmt.Errorf("rdb: %w", err)
			}
			pendingExpiry = nil
		}
	}
}

func readHeader(r *bufio.Reader) error {
	magic := make([]byte, 5)
	if _, err := io.ReadFull(r, magic); err != nil {
		return err
	}
	if string(magic) != magicString {
		return fmt.Errorf("bad magic %q", magic)
	}
	ver := make([]byte, 4)
	if _, err := io.ReadFull(r, ver); err != nil {
		return err
	}
	return nil
}

func readEntry(r *bufio.Reader, typeByte byte, s *store.Store, expiry *time.Time) error {
	key, err := readString(r)
	if err != nil {
		return err
	}

	switch typeByte {
	case typeString:
		val, err := readString(r)
		if err != nil {
			return err
		}
		s.Set(key, val, expiry)

	case typeList:
		n, err := readLength(r)
		if err != nil {
			return err
		}
		items := make([]string, n)
		for i := range items {
			v, err := readString(r)
			if err != nil {
				return err
			}
			items[i] = v
		}
		if len(items) > 0 {
			if _, err := s.RPush(key, items...); err != nil {
				return err
			}
			s.Expire(key, expiry)
		}

	case typeHash:
		n, err := readLength(r)
		if err != nil {
			return err
		}
		pairs := make([][2]string, n)
		for i := range pairs {
			field, err := readString(r)
			if err != nil {
				return err
			}
			val, err := readString(r)
			if err != nil {
				return err
			}
			pairs[i] = [2]string{field, val}
		}
		if len(pairs) > 0 {
			if _, err := s.HSet(key, pairs); err != nil {
				return err
			}
			s.Expire(key, expiry)
		}

	case typeZSet:
		n, err := readLength(r)
		if err != nil {
			return err
		}
		members := make([]store.ZSetMember, n)
		for i := range members {
			member, err := readString(r)
			if err != nil {
				return err
			}
			var score float64
			if err := binary.Read(r, binary.LittleEndian, &score); err != nil {
				return err
			}
			members[i] = store.ZSetMember{Member: member, Score: score}
		}
		if len(members) > 0 {
			if _, err := s.ZAdd(key, members); err != nil {
				return err
			}
			s.Expire(key, expiry)
		}

	case typeStream:
		n, err := readLength(r)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			id, err := readString(r)
			if err != nil {
				return err
			}
			fieldCount, err := readLength(r)
			if err != nil {
				return err
			}
			fields := make([]string, fieldCount*2)
			for j := range fields {
				v, err := readString(r)
				if err != nil {
					return err
				}
				fields[j] = v
			}
			if _, err := s.XAdd(key, id, fields); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("unsupported value type 0x%02x for key %q", typeByte, key)
	}
	return nil
}

// readLength mirrors the 6-bit / 14-bit / 32-bit length encoding: the
// top two bits of the first byte select the width. The fourth form
// (11) encodes a special integer value rather than a length and is
// only valid where a string is expected — readString handles it
// directly instead of routing through here.
func readLength(r *bufio.Reader) (int, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch first >> 6 {
	case 0:
		return int(first & 0x3F), nil
	case 1:
		second, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		return int(first&0x3F)<<8 | int(second), nil
	case 2:
		var n uint32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return 0, err
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("unexpected special-integer encoding byte 0x%02x where a length was expected", first)
	}
}

// readString reads a length-encoded string, including the special
// 11-form encoding: its low 2 bits select an 8/16/32-bit little-endian
// integer that decodes back to its decimal text rather than N raw
// bytes following a length.
func readString(r *bufio.Reader) (string, error) {
	first, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	if first>>6 == 3 {
		switch first & 0x3F {
		case 0:
			b, err := r.ReadByte()
			if err != nil {
				return "", err
			}
			return strconv.FormatInt(int64(int8(b)), 10), nil
		case 1:
			var v int16
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return "", err
			}
			return strconv.FormatInt(int64(v), 10), nil
		case 2:
			var v int32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return "", err
			}
			return strconv.FormatInt(int64(v), 10), nil
		default:
			return "", fmt.Errorf("unsupported special string encoding 0x%02x", first&0x3F)
		}
	}
	if err := r.UnreadByte(); err != nil {
		return "", err
	}
	n, err := readLength(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
