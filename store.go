package rowdb

import (
	"bytes"
	"strings"

	"go.etcd.io/bbolt"
)

// PutFlags select the conflict behavior of rowStore.put.
type PutFlags uint8

const (
	// PutNoOverwrite fails with ErrKeyExist if the key has any row.
	PutNoOverwrite PutFlags = 1 << iota
	// PutNoDupData fails with ErrKeyExist if the exact (key, row) pair
	// exists. Meaningful for tables with duplicates only.
	PutNoDupData
	// PutCurrent replaces the single existing row of the key. Fails with
	// ErrNotFound if there is none and ErrMultiVal if there are several.
	PutCurrent
)

func (f PutFlags) String() string {
	if f == 0 {
		return "0"
	}
	var parts []string
	if f&PutNoOverwrite != 0 {
		parts = append(parts, "NOOVERWRITE")
	}
	if f&PutNoDupData != 0 {
		parts = append(parts, "NODUPDATA")
	}
	if f&PutCurrent != 0 {
		parts = append(parts, "CURRENT")
	}
	return strings.Join(parts, "|")
}

// Largest row a table with duplicates can hold: its rows live in keys.
const maxDupEntrySize = bbolt.MaxKeySize

// rowStore keeps the rows of one table in a bucket.
//
// Unique tables map varbytes(key) to the row. Tables with duplicates store
// one empty-valued entry per row under varbytes(key) || row, so all rows of
// a key are adjacent and ordered by row bytes.
type rowStore struct {
	b      storageBucket
	unique bool
}

func (s rowStore) put(key, row []byte, flags PutFlags) error {
	if s.unique {
		return s.putUnique(key, row, flags)
	}
	return s.putDup(key, row, flags)
}

func (s rowStore) putUnique(key, row []byte, flags PutFlags) error {
	if len(row) > bbolt.MaxValueSize {
		return ErrBadValSize
	}
	bk := appendVarbytes(nil, key)
	old := s.b.Get(bk)
	if old == nil && flags&PutCurrent != 0 {
		return ErrNotFound
	}
	if old != nil && flags&PutNoOverwrite != 0 {
		return ErrKeyExist
	}
	if old != nil && bytes.Equal(old, row) {
		return nil
	}
	return s.b.Put(bk, bytes.Clone(row))
}

func (s rowStore) putDup(key, row []byte, flags PutFlags) error {
	prefix := appendVarbytes(nil, key)
	entry := append(bytes.Clone(prefix), row...)
	if len(entry) > maxDupEntrySize {
		return ErrBadValSize
	}
	entries := s.entries(prefix, 2)

	if flags&PutCurrent != 0 {
		switch len(entries) {
		case 0:
			return ErrNotFound
		case 1:
			if bytes.Equal(entries[0], entry) {
				return nil
			}
			if err := s.b.Delete(entries[0]); err != nil {
				return err
			}
			return s.b.Put(entry, []byte{})
		default:
			return ErrMultiVal
		}
	}
	if len(entries) > 0 && flags&PutNoOverwrite != 0 {
		return ErrKeyExist
	}
	if s.has(entry) {
		if flags&PutNoDupData != 0 {
			return ErrKeyExist
		}
		return nil
	}
	return s.b.Put(entry, []byte{})
}

// del removes the (key, row) pair. A nil row removes every row of the key.
func (s rowStore) del(key, row []byte) error {
	bk := appendVarbytes(nil, key)
	if s.unique {
		old := s.b.Get(bk)
		if old == nil || (row != nil && !bytes.Equal(old, row)) {
			return ErrNotFound
		}
		return s.b.Delete(bk)
	}

	if row == nil {
		n, err := s.b.DeletePrefix(bk)
		if err == nil && n == 0 {
			err = ErrNotFound
		}
		return err
	}
	entry := append(bk, row...)
	if !s.has(entry) {
		return ErrNotFound
	}
	return s.b.Delete(entry)
}

// has reports whether a dup entry exists. Entries have empty values, so
// Get cannot tell them from missing keys.
func (s rowStore) has(entry []byte) bool {
	var found bool
	s.b.Scan(entry, func(k, _ []byte) bool {
		found = len(k) == len(entry)
		return false
	})
	return found
}

// first returns the first row of key, or nil.
func (s rowStore) first(key []byte) []byte {
	bk := appendVarbytes(nil, key)
	if s.unique {
		return s.b.Get(bk)
	}
	entries := s.entries(bk, 1)
	if len(entries) == 0 {
		return nil
	}
	return entries[0][len(bk):]
}

func (s rowStore) count(key []byte) int {
	bk := appendVarbytes(nil, key)
	if s.unique {
		if s.b.Get(bk) != nil {
			return 1
		}
		return 0
	}
	return len(s.entries(bk, 0))
}

// entries lists up to limit (0 for all) storage keys starting with prefix.
func (s rowStore) entries(prefix []byte, limit int) [][]byte {
	var result [][]byte
	s.b.Scan(prefix, func(k, _ []byte) bool {
		result = append(result, k)
		return limit <= 0 || len(result) < limit
	})
	return result
}

// each calls f for every (key, row) pair in storage order until f returns
// false.
func (s rowStore) each(f func(key, row []byte) bool) error {
	var err error
	s.b.Scan(nil, func(k, v []byte) bool {
		d := makeByteDecoder(k)
		var key []byte
		key, err = d.VarBytes()
		if err != nil {
			return false
		}
		row := v
		if !s.unique {
			row = d.Buf
		}
		return f(key, row)
	})
	return err
}
