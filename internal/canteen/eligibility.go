package canteen

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// EligibilityChecker answers whether a person is organizationally permitted
// to order a given shift. The rule itself lives in the external directory
// service; the engine only consults it.
type EligibilityChecker interface {
	Eligible(ctx context.Context, personID, shiftID uuid.UUID) (bool, error)
}

// DirectoryEligibility queries the directory service and caches answers
// in-memory. A nil client permits everything, so the engine runs standalone
// in development and tests.
type DirectoryEligibility struct {
	mu     sync.RWMutex
	cache  map[string]bool
	client *apt.ServiceClient
	logger apt.Logger
}

func NewDirectoryEligibility(client *apt.ServiceClient, logger apt.Logger) *DirectoryEligibility {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &DirectoryEligibility{
		cache:  make(map[string]bool),
		client: client,
		logger: logger,
	}
}

func (d *DirectoryEligibility) Eligible(ctx context.Context, personID, shiftID uuid.UUID) (bool, error) {
	if d.client == nil {
		return true, nil
	}

	key := personID.String() + ":" + shiftID.String()

	d.mu.RLock()
	allowed, ok := d.cache[key]
	d.mu.RUnlock()
	if ok {
		return allowed, nil
	}

	resp, err := d.client.Get(ctx, "eligibility", key)
	if err != nil {
		return false, fmt.Errorf("failed to check eligibility for %s: %w", key, err)
	}

	var dto eligibilityDTO
	if err := rehydrate(resp.Data, &dto); err != nil {
		return false, fmt.Errorf("failed to decode eligibility for %s: %w", key, err)
	}

	d.mu.Lock()
	d.cache[key] = dto.Allowed
	d.mu.Unlock()

	return dto.Allowed, nil
}

// Invalidate drops cached answers for a person after an organizational
// change notice.
func (d *DirectoryEligibility) Invalidate(personID uuid.UUID) {
	prefix := personID.String() + ":"
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.cache {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(d.cache, key)
		}
	}
}

type eligibilityDTO struct {
	Allowed bool `json:"allowed"`
}

func rehydrate(data interface{}, out interface{}) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}
