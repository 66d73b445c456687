package zone

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/multierr"
)

var bucketZone = []byte("zone")

const boltTimeout = 1 * time.Second

// Entries are stored under big-endian sequence numbers so the bucket's key
// order is the zone order. Each value is the name and address separated by
// entrySep; addresses never contain it, so the last separator splits the value.
const entrySep = 0

func entryKey(i int) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(i))
	return k[:]
}

func encodeEntry(e Entry) []byte {
	v := make([]byte, 0, len(e.Name)+1+len(e.Address))
	v = append(v, e.Name...)
	v = append(v, entrySep)
	return append(v, e.Address...)
}

func decodeEntry(v []byte) (Entry, bool) {
	i := bytes.LastIndexByte(v, entrySep)
	if i < 0 {
		return Entry{}, false
	}
	return Entry{Name: string(v[:i]), Address: string(v[i+1:])}, true
}

// loadBolt reads entries from the "zone" bucket of a bolt database, in the
// order they were written.
func loadBolt(path string) ([]Entry, error) {
	// bbolt creates missing files even in read-only mode.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open zone database %s: %w", path, err)
	}
	db, err := bbolt.Open(path, 0o400, &bbolt.Options{ReadOnly: true, Timeout: boltTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open zone database %s: %w", path, err)
	}
	defer db.Close()

	var (
		entries []Entry
		errs    error
	)
	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketZone)
		if b == nil {
			return fmt.Errorf("zone database %s has no %q bucket", path, bucketZone)
		}
		return b.ForEach(func(k, v []byte) error {
			e, ok := decodeEntry(v)
			if !ok {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s key %x: expected name and address", ErrInvalidEntry, path, k))
				return nil
			}
			if err := validateEntry(e.Name, e.Address); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s key %x: %w", ErrInvalidEntry, path, k, err))
				return nil
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if errs != nil {
		return nil, errs
	}
	return entries, nil
}

// WriteBolt replaces the "zone" bucket of the bolt database at path with
// entries, creating the file if needed. Entry order is preserved.
func WriteBolt(path string, entries []Entry) (err error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: boltTimeout})
	if err != nil {
		return fmt.Errorf("failed to open zone database %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	return db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketZone) != nil {
			if err := tx.DeleteBucket(bucketZone); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(bucketZone)
		if err != nil {
			return err
		}
		for i, e := range entries {
			if err := validateEntry(e.Name, e.Address); err != nil {
				return fmt.Errorf("%w: %q: %w", ErrInvalidEntry, e.Name, err)
			}
			if err := b.Put(entryKey(i), encodeEntry(e)); err != nil {
				return err
			}
		}
		return nil
	})
}
