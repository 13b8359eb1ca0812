// Package corpus persists shrunken failing call sequences so they can be replayed after the campaign exits.
// Records are stored in a bbolt database under the configured corpus directory, serialized with CBOR.
package corpus

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// corpusFileName is the bbolt database file created under the corpus directory.
const corpusFileName = "corpus.db"

// failuresBucket is the bbolt bucket failure records are stored in, keyed by their UUID.
var failuresBucket = []byte("failures")

// hashesBucket maps sequence hashes to the UUID of the record first saved for that sequence.
var hashesBucket = []byte("sequence_hashes")

// hashCalls computes a stable hex digest over a recorded call sequence.
func hashCalls(calls []RecordedCall) string {
	h := sha256.New()
	var seedBytes [8]byte
	for _, call := range calls {
		h.Write([]byte(call.HandlerID))
		binary.BigEndian.PutUint64(seedBytes[:], uint64(call.Seed))
		h.Write(seedBytes[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// RecordedCall is the replayable skeleton of one executed handler call.
type RecordedCall struct {
	// HandlerID identifies the handler to run.
	HandlerID string `cbor:"handlerId"`

	// Seed is the value to seed the handler's random source with.
	Seed int64 `cbor:"seed"`
}

// FailureRecord is one persisted property failure: the shrunken call sequence which reproduces it, plus the
// violated property identifiers.
type FailureRecord struct {
	// ID is the failure's UUID, assigned on save.
	ID string `cbor:"id"`

	// Seed is the campaign base seed the failure was found under.
	Seed int64 `cbor:"seed"`

	// Calls is the shrunken reproducing call sequence.
	Calls []RecordedCall `cbor:"calls"`

	// SequenceHash is a hex digest over Calls, used to skip re-saving duplicate counterexamples.
	SequenceHash string `cbor:"sequenceHash"`

	// PropertyIDs lists the violated properties.
	PropertyIDs []string `cbor:"propertyIds"`

	// CreatedAt is the unix timestamp the record was saved at.
	CreatedAt int64 `cbor:"createdAt"`
}

// Corpus is a handle on the on-disk failure store.
type Corpus struct {
	db *bbolt.DB
}

// OpenCorpus opens (creating if needed) the failure store under the provided directory.
func OpenCorpus(directory string) (*Corpus, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, errors.Wrapf(err, "could not create corpus directory %s", directory)
	}

	db, err := bbolt.Open(filepath.Join(directory, corpusFileName), 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "could not open corpus database")
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(failuresBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(hashesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "could not create corpus bucket")
	}
	return &Corpus{db: db}, nil
}

// Close closes the underlying database.
func (c *Corpus) Close() error {
	return c.db.Close()
}

// SaveFailure persists the failure record, assigning it a UUID, sequence hash, and creation timestamp if unset.
// If a record for the same call sequence was already saved, that record's ID is returned instead of writing a
// duplicate. Returns the record's ID.
func (c *Corpus) SaveFailure(record *FailureRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.SequenceHash == "" {
		record.SequenceHash = hashCalls(record.Calls)
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}

	b, err := cbor.Marshal(record, cbor.EncOptions{})
	if err != nil {
		return "", errors.Wrap(err, "could not serialize failure record")
	}
	savedID := record.ID
	err = c.db.Update(func(tx *bbolt.Tx) error {
		hashKey := []byte(record.SequenceHash)
		if existing := tx.Bucket(hashesBucket).Get(hashKey); existing != nil {
			savedID = string(existing)
			return nil
		}
		if err := tx.Bucket(hashesBucket).Put(hashKey, []byte(record.ID)); err != nil {
			return err
		}
		return tx.Bucket(failuresBucket).Put([]byte(record.ID), b)
	})
	if err != nil {
		return "", errors.Wrap(err, "could not persist failure record")
	}
	return savedID, nil
}

// Failure fetches the failure record with the provided UUID.
func (c *Corpus) Failure(id string) (*FailureRecord, error) {
	var record *FailureRecord
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(failuresBucket).Get([]byte(id))
		if b == nil {
			return errors.Errorf("no failure record with id %s", id)
		}
		record = &FailureRecord{}
		return cbor.Unmarshal(b, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Failures fetches every persisted failure record.
func (c *Corpus) Failures() ([]*FailureRecord, error) {
	var records []*FailureRecord
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(failuresBucket).ForEach(func(_ []byte, b []byte) error {
			record := &FailureRecord{}
			if err := cbor.Unmarshal(b, record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
