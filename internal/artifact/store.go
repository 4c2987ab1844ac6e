package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/panel"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/refstats"
)

// Store keeps versioned reference artifacts and panel definitions in BoltDB.
// BoltDB over heavier engines: pure Go, single file, no daemon — the right
// shape for a lab pipeline that builds a new cohort version every few weeks.
type Store struct {
	db *bbolt.DB

	readLatency  metric.Float64Histogram
	writeLatency metric.Float64Histogram
}

var (
	bucketReferences = []byte("references")
	bucketPanels     = []byte("panels")
	bucketMeta       = []byte("meta")
)

var keyLatestReference = []byte("latest_reference")

// Open opens (or creates) the artifact store at path.
func Open(path string, meter metric.Meter) (*Store, error) {
	opts := &bbolt.Options{
		Timeout:      1 * time.Second,
		NoSync:       false, // fsync for durability
		FreelistType: bbolt.FreelistArrayType,
	}
	db, err := bbolt.Open(path, 0o600, opts)
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketReferences, bucketPanels, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	readLatency, _ := meter.Float64Histogram("mednova_artifact_db_read_ms")
	writeLatency, _ := meter.Float64Histogram("mednova_artifact_db_write_ms")
	return &Store{db: db, readLatency: readLatency, writeLatency: writeLatency}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// PutReference stores a reference bundle under a cohort version and marks it
// as the latest.
func (s *Store) PutReference(ctx context.Context, version string, ref *refstats.Reference) error {
	start := time.Now()
	defer func() {
		s.writeLatency.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("operation", "put_reference")))
	}()

	if version == "" {
		return fmt.Errorf("empty reference version")
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("marshal reference: %w", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketReferences).Put([]byte(version), data); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyLatestReference, []byte(version))
	})
	if err != nil {
		return fmt.Errorf("write reference %s: %w", version, err)
	}
	return nil
}

// GetReference loads a reference bundle. An empty version resolves to the
// latest stored one.
func (s *Store) GetReference(ctx context.Context, version string) (*refstats.Reference, bool, error) {
	start := time.Now()
	defer func() {
		s.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("operation", "get_reference")))
	}()

	var ref *refstats.Reference
	err := s.db.View(func(tx *bbolt.Tx) error {
		key := []byte(version)
		if version == "" {
			key = tx.Bucket(bucketMeta).Get(keyLatestReference)
			if key == nil {
				return nil
			}
		}
		data := tx.Bucket(bucketReferences).Get(key)
		if data == nil {
			return nil
		}
		ref = &refstats.Reference{}
		return json.Unmarshal(data, ref)
	})
	if err != nil {
		return nil, false, fmt.Errorf("read reference %s: %w", version, err)
	}
	if ref == nil {
		return nil, false, nil
	}
	if err := ref.Validate(); err != nil {
		return nil, false, err
	}
	return ref, true, nil
}

// ReferenceVersions lists stored cohort versions in key order.
func (s *Store) ReferenceVersions(ctx context.Context) ([]string, error) {
	var versions []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketReferences).ForEach(func(k, _ []byte) error {
			versions = append(versions, string(k))
			return nil
		})
	})
	return versions, err
}

// PutPanels stores a panels configuration under a version.
func (s *Store) PutPanels(ctx context.Context, version string, cfg panel.Config) error {
	start := time.Now()
	defer func() {
		s.writeLatency.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("operation", "put_panels")))
	}()

	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal panels: %w", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPanels).Put([]byte(version), data)
	})
	if err != nil {
		return fmt.Errorf("write panels %s: %w", version, err)
	}
	return nil
}

// GetPanels loads a stored panels configuration.
func (s *Store) GetPanels(ctx context.Context, version string) (panel.Config, bool, error) {
	start := time.Now()
	defer func() {
		s.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("operation", "get_panels")))
	}()

	var cfg panel.Config
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketPanels).Get([]byte(version))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &cfg)
	})
	if err != nil {
		return panel.Config{}, false, fmt.Errorf("read panels %s: %w", version, err)
	}
	return cfg, found, nil
}

// Stats returns database statistics.
func (s *Store) Stats() map[string]interface{} {
	stats := make(map[string]interface{})
	s.db.View(func(tx *bbolt.Tx) error {
		stats["db_size_bytes"] = tx.Size()
		for _, bucketName := range [][]byte{bucketReferences, bucketPanels} {
			if b := tx.Bucket(bucketName); b != nil {
				stats[string(bucketName)+"_count"] = b.Stats().KeyN
			}
		}
		return nil
	})
	return stats
}
