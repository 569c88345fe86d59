package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"scriptc/internal/project"
)

const bucketSummaries = "summaries"

// SummaryCache stores exported script summaries in a bbolt file, keyed by the
// script digest. bbolt serializes writers, so the cache is safe for the
// parallel batch.
type SummaryCache struct {
	db *bolt.DB
}

// OpenSummaryCache opens or creates the cache at path.
func OpenSummaryCache(path string) (*SummaryCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSummaries))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize cache %s: %w", path, err)
	}
	return &SummaryCache{db: db}, nil
}

// Get returns the summary stored under key. Entries that no longer decode
// count as misses.
func (c *SummaryCache) Get(key project.Digest) (*Summary, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	var payload []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketSummaries)).Get(key[:]); v != nil {
			// v is only valid inside the transaction.
			payload = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || payload == nil {
		return nil, false, err
	}
	s, err := DecodeSummary(payload)
	if err != nil {
		return nil, false, nil
	}
	return s, true, nil
}

// Put stores s under key.
func (c *SummaryCache) Put(key project.Digest, s *Summary) error {
	if c == nil {
		return nil
	}
	payload, err := EncodeSummary(s)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSummaries)).Put(key[:], payload)
	})
}

// Len returns the number of stored summaries.
func (c *SummaryCache) Len() (int, error) {
	if c == nil {
		return 0, nil
	}
	var n int
	err := c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(bucketSummaries)).Stats().KeyN
		return nil
	})
	return n, err
}

// DropAll removes every entry.
func (c *SummaryCache) DropAll() error {
	if c == nil {
		return nil
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketSummaries)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketSummaries))
		return err
	})
}

func (c *SummaryCache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}
