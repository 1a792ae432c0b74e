package recordstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"
)

var bucketRecords = []byte("records")

// boltFile stores each owner name's entries as a JSON value in one bucket.
type boltFile struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) a bbolt database at path.
func OpenBolt(path string) (Snapshotter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltFile{db: db}, nil
}

func (b *boltFile) Load() (Snapshot, error) {
	snap := Snapshot{}
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var entries []SnapshotEntry
			if err := json.Unmarshal(v, &entries); err != nil {
				return fmt.Errorf("entries for %s: %w", k, err)
			}
			snap[string(k)] = entries
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Save replaces the bucket contents in a single transaction.
func (b *boltFile) Save(snap Snapshot) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketRecords); err != nil && !errors.Is(err, bberrors.ErrBucketNotFound) {
			return err
		}
		bucket, err := tx.CreateBucket(bucketRecords)
		if err != nil {
			return err
		}
		for name, entries := range snap {
			value, err := json.Marshal(entries)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(name), value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *boltFile) Close() error { return b.db.Close() }
