package canteen

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockOrderRepo is an in-memory OrderRepo with the same conditional-update
// semantics as the MongoDB implementation.
type MockOrderRepo struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*Order

	CreateFunc     func(ctx context.Context, o *Order) error
	TransitionFunc func(ctx context.Context, o *Order, expected Status) (bool, error)
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{
		orders: make(map[uuid.UUID]*Order),
	}
}

func (m *MockOrderRepo) Create(ctx context.Context, o *Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.PersonID == o.PersonID && existing.Date == o.Date && existing.Status.Live() {
			return ErrDuplicateForDate
		}
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepo) List(ctx context.Context) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		cp := *o
		result = append(result, &cp)
	}
	return result, nil
}

func (m *MockOrderRepo) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		if o.PersonID == personID {
			cp := *o
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) ListByStatus(ctx context.Context, status Status) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		if o.Status == status {
			cp := *o
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) ListByDateRange(ctx context.Context, from, to string) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		if o.Date >= from && o.Date <= to {
			cp := *o
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) FindLiveByPersonDate(ctx context.Context, personID uuid.UUID, date string) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.PersonID == personID && o.Date == date && o.Status.Live() {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockOrderRepo) Transition(ctx context.Context, o *Order, expected Status) (bool, error) {
	if m.TransitionFunc != nil {
		return m.TransitionFunc(ctx, o, expected)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok || stored.Status != expected {
		return false, nil
	}
	cp := *o
	m.orders[o.ID] = &cp
	return true, nil
}

// MockPersonRepo is an in-memory PersonRepo.
type MockPersonRepo struct {
	mu     sync.RWMutex
	people map[uuid.UUID]*Person
}

func NewMockPersonRepo() *MockPersonRepo {
	return &MockPersonRepo{
		people: make(map[uuid.UUID]*Person),
	}
}

func (m *MockPersonRepo) Put(p *Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.people[p.ID] = &cp
}

func (m *MockPersonRepo) Get(ctx context.Context, id uuid.UUID) (*Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.people[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MockPersonRepo) List(ctx context.Context) ([]*Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Person
	for _, p := range m.people {
		cp := *p
		result = append(result, &cp)
	}
	return result, nil
}

func (m *MockPersonRepo) AdjustStrikes(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.people[id]
	if !ok {
		return 0, ErrNotFound
	}
	p.Strikes += delta
	if p.Strikes < 0 {
		p.Strikes = 0
	}
	return p.Strikes, nil
}

func (m *MockPersonRepo) ResetStrikes(ctx context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.people[id]
	if !ok {
		return 0, ErrNotFound
	}
	previous := p.Strikes
	p.Strikes = 0
	return previous, nil
}

func (m *MockPersonRepo) Save(ctx context.Context, p *Person) error {
	m.Put(p)
	return nil
}

// MockShiftRepo is an in-memory ShiftRepo.
type MockShiftRepo struct {
	mu     sync.RWMutex
	shifts map[uuid.UUID]*Shift
}

func NewMockShiftRepo() *MockShiftRepo {
	return &MockShiftRepo{
		shifts: make(map[uuid.UUID]*Shift),
	}
}

func (m *MockShiftRepo) Get(ctx context.Context, id uuid.UUID) (*Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shifts[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MockShiftRepo) List(ctx context.Context) ([]*Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Shift
	for _, s := range m.shifts {
		cp := *s
		result = append(result, &cp)
	}
	return result, nil
}

func (m *MockShiftRepo) ListActive(ctx context.Context) ([]*Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Shift
	for _, s := range m.shifts {
		if s.Active {
			cp := *s
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockShiftRepo) Save(ctx context.Context, s *Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.shifts[s.ID] = &cp
	return nil
}

// MockRestrictionRepo is an in-memory RestrictionRepo with the same lazy
// expiry semantics as the MongoDB query.
type MockRestrictionRepo struct {
	mu           sync.RWMutex
	restrictions []*Restriction
}

func NewMockRestrictionRepo() *MockRestrictionRepo {
	return &MockRestrictionRepo{}
}

func (m *MockRestrictionRepo) Create(ctx context.Context, r *Restriction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.restrictions = append(m.restrictions, &cp)
	return nil
}

func (m *MockRestrictionRepo) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*Restriction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Restriction
	for _, r := range m.restrictions {
		if r.PersonID == personID {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockRestrictionRepo) ActiveForPerson(ctx context.Context, personID uuid.UUID, at time.Time) (*Restriction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.restrictions {
		if r.PersonID == personID && r.Covers(at) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockRestrictionRepo) Deactivate(ctx context.Context, personID uuid.UUID, by string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.restrictions {
		if r.PersonID == personID && r.Active {
			r.Active = false
			r.UpdatedAt = at
			r.UpdatedBy = by
			n++
		}
	}
	return n, nil
}

func (m *MockRestrictionRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.restrictions {
		if r.Active && r.EndsAt != nil && !now.Before(*r.EndsAt) {
			r.Active = false
			r.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// MockPolicyRepo is an in-memory PolicyRepo.
type MockPolicyRepo struct {
	mu     sync.RWMutex
	policy *Policy
}

func NewMockPolicyRepo() *MockPolicyRepo {
	return &MockPolicyRepo{}
}

func (m *MockPolicyRepo) Load(ctx context.Context) (*Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.policy == nil {
		return nil, nil
	}
	cp := *m.policy
	return &cp, nil
}

func (m *MockPolicyRepo) Save(ctx context.Context, p *Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.policy = &cp
	return nil
}

// MockPublisher records every published message.
type MockPublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage

	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

type PublishedMessage struct {
	Topic string
	Data  []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, PublishedMessage{Topic: topic, Data: msg})
	return nil
}

// MessagesOn returns the raw payload of every message published on the topic.
func (m *MockPublisher) MessagesOn(topic string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result [][]byte
	for _, msg := range m.messages {
		if msg.Topic == topic {
			result = append(result, msg.Data)
		}
	}
	return result
}

// EventsOn returns the event_type of every message published on the topic.
func (m *MockPublisher) EventsOn(topic string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []string
	for _, msg := range m.messages {
		if msg.Topic != topic {
			continue
		}
		var envelope struct {
			EventType string `json:"event_type"`
		}
		if err := json.Unmarshal(msg.Data, &envelope); err == nil {
			result = append(result, envelope.EventType)
		}
	}
	return result
}

// MockEligibility answers from a fixed deny list.
type MockEligibility struct {
	Denied map[uuid.UUID]bool
	Err    error
}

func (m *MockEligibility) Eligible(ctx context.Context, personID, shiftID uuid.UUID) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return !m.Denied[personID], nil
}
