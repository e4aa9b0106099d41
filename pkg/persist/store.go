// Package persist saves the odometer to durable storage while the
// vehicle stands still.
package persist

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/robotalks/evdash/pkg/vehicle"
)

// Store is the durable odometer storage.
type Store interface {
	// Load returns the stored distances. On first boot zero values are
	// returned without error. On corruption the zero values are returned
	// together with the error.
	Load(ctx context.Context) (vehicle.Odometer, error)
	// Save stores the distances atomically.
	Save(ctx context.Context, o vehicle.Odometer) error
}

// ErrCorrupt indicates the stored record failed verification.
var ErrCorrupt = errors.New("odometer record corrupt")

// Open creates a Store from a URL:
//
//	file:///var/lib/evdash/odometer.dat, or a plain path
//	redis://host:6379/0?key=evdash:odometer
//	mem://
func Open(storeURL string) (Store, error) {
	if !strings.Contains(storeURL, "://") {
		return OpenFile(storeURL)
	}
	u, err := url.Parse(storeURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse store url %q", storeURL)
	}
	switch u.Scheme {
	case "file":
		return OpenFile(u.Path)
	case "redis":
		return OpenRedis(u)
	case "mem":
		return &MemStore{}, nil
	}
	return nil, errors.Errorf("unsupported store scheme %q", u.Scheme)
}

// MemStore keeps the odometer in memory.
type MemStore struct {
	lock  sync.Mutex
	value vehicle.Odometer
	// Err, when set, fails every Save.
	Err   error
	Saves int
}

// Load implements Store.
func (s *MemStore) Load(context.Context) (vehicle.Odometer, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.value, nil
}

// Save implements Store.
func (s *MemStore) Save(_ context.Context, o vehicle.Odometer) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.value = o
	s.Saves++
	return nil
}

// Value returns the stored distances.
func (s *MemStore) Value() vehicle.Odometer {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.value
}
