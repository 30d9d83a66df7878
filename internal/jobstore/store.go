// Package jobstore persists audio job records and per-job processing leases
// in NATS JetStream key-value buckets.
//
// The job bucket has read-one / write-whole-record semantics: the processor
// reads a job once and writes the full record after every language
// transition. The lease bucket serializes concurrent invocations of the same
// job id; leases expire with the bucket TTL so a crashed worker does not
// wedge the job.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/glowline/audio-service/internal/core"
)

// DefaultLeaseTTL bounds how long a crashed worker's lease outlives it.
const DefaultLeaseTTL = 30 * time.Minute

// Static errors.
var (
	// ErrJobNotFound indicates no job record exists for the id.
	ErrJobNotFound = errors.New("audio job not found")
	// ErrJobBusy indicates another invocation holds the job's lease.
	ErrJobBusy = errors.New("audio job is already being processed")
)

// Store implements the core.JobStore interface.
type Store struct {
	jobs   nats.KeyValue
	leases nats.KeyValue
}

// New creates and initializes a new job store. leaseTTL bounds lease
// lifetime; non-positive values fall back to DefaultLeaseTTL.
func New(
	jetstreamContext nats.JetStreamContext,
	jobsBucket, leasesBucket string,
	leaseTTL time.Duration,
) (*Store, error) {
	if leaseTTL <= 0 {
		leaseTTL = DefaultLeaseTTL
	}

	jobs, err := openKeyValue(jetstreamContext, &nats.KeyValueConfig{
		Bucket:      jobsBucket,
		Description: fmt.Sprintf("Audio job records for the %s bucket.", jobsBucket),
	})
	if err != nil {
		return nil, err
	}

	leases, err := openKeyValue(jetstreamContext, &nats.KeyValueConfig{
		Bucket:      leasesBucket,
		Description: fmt.Sprintf("Audio job leases for the %s bucket.", leasesBucket),
		TTL:         leaseTTL,
	})
	if err != nil {
		return nil, err
	}

	return &Store{jobs: jobs, leases: leases}, nil
}

// openKeyValue uses a "create-first" approach, binding to the bucket when it
// already exists.
func openKeyValue(jetstreamContext nats.JetStreamContext, cfg *nats.KeyValueConfig) (nats.KeyValue, error) {
	kv, err := jetstreamContext.CreateKeyValue(cfg)
	if err != nil {
		kv, err = jetstreamContext.KeyValue(cfg.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to open key-value bucket '%s': %w", cfg.Bucket, err)
		}
	}

	return kv, nil
}

// Get returns the job record with the given id.
func (s *Store) Get(_ context.Context, id string) (*core.AudioJob, error) {
	entry, err := s.jobs.Get(id)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}

		return nil, fmt.Errorf("failed to get job '%s': %w", id, err)
	}

	var job core.AudioJob

	err = json.Unmarshal(entry.Value(), &job)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal job '%s': %w", id, err)
	}

	return &job, nil
}

// Put writes the whole job record.
func (s *Store) Put(_ context.Context, job *core.AudioJob) error {
	job.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job '%s': %w", job.ID, err)
	}

	_, err = s.jobs.Put(job.ID, data)
	if err != nil {
		return fmt.Errorf("failed to put job '%s': %w", job.ID, err)
	}

	return nil
}

// AcquireLease takes the per-job advisory lease. A second invocation of a
// job id whose lease is held gets ErrJobBusy instead of interleaving writes.
func (s *Store) AcquireLease(_ context.Context, id string) error {
	_, err := s.leases.Create(id, []byte(time.Now().UTC().Format(time.RFC3339)))
	if err != nil {
		if errors.Is(err, nats.ErrKeyExists) {
			return fmt.Errorf("%w: %s", ErrJobBusy, id)
		}

		return fmt.Errorf("failed to acquire lease for job '%s': %w", id, err)
	}

	return nil
}

// ReleaseLease drops the per-job lease.
func (s *Store) ReleaseLease(_ context.Context, id string) error {
	err := s.leases.Delete(id)
	if err != nil {
		return fmt.Errorf("failed to release lease for job '%s': %w", id, err)
	}

	return nil
}
