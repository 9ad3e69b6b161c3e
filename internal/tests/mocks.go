package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = copyTrip(trip)
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTrip(trip), nil
}

func (m *MockTripRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0, len(ids))
	for _, id := range ids {
		if trip, ok := m.trips[id]; ok {
			result = append(result, copyTrip(trip))
		}
	}
	// The real repository returns creation order regardless of input order.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	m.trips[trip.ID] = copyTrip(trip)
	return nil
}

func (m *MockTripRepository) GetByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if t.DriverID == driverID {
			result = append(result, copyTrip(t))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartTime.After(result[j].StartTime)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockTripRepository) GetByRiderID(ctx context.Context, riderID string, limit int) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		for _, r := range t.Riders {
			if r.RiderID == riderID {
				result = append(result, copyTrip(t))
				break
			}
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartTime.After(result[j].StartTime)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetTrip returns the stored trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of stored trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// copyTrip deep-copies a trip so callers cannot mutate stored state.
func copyTrip(t *domain.Trip) *domain.Trip {
	c := *t
	c.Riders = append([]domain.RiderMembership(nil), t.Riders...)
	c.Route = append([]domain.RoutePoint(nil), t.Route...)
	return &c
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

// GetUser returns the stored user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// ──────────────────────────────────────────────
// MOCK MESSAGE REPOSITORY
// ──────────────────────────────────────────────

// MockMessageRepository is a mock implementation of MessageRepository.
type MockMessageRepository struct {
	mu       sync.RWMutex
	messages []*domain.Message

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockMessageRepository creates a new mock message repository.
func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{}
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *msg
	m.messages = append(m.messages, &copy)
	return nil
}

func (m *MockMessageRepository) GetByTripID(ctx context.Context, tripID string) ([]*domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Message, 0)
	for _, msg := range m.messages {
		if msg.TripID == tripID {
			copy := *msg
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, tripID, recipientID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated := 0
	for _, msg := range m.messages {
		if msg.TripID == tripID && msg.RecipientID == recipientID && !msg.IsRead {
			msg.IsRead = true
			msg.ReadAt = time.Now()
			updated++
		}
	}
	return updated, nil
}

// CountMessages returns the number of stored messages.
func (m *MockMessageRepository) CountMessages() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// ──────────────────────────────────────────────
// MOCK GEO STORE
// ──────────────────────────────────────────────

// MockGeoStore is a mock implementation of GeoStoreInterface.
type MockGeoStore struct {
	mu        sync.RWMutex
	locations []redis.TripLocation

	// Counters for verification
	AddTripCallCount    int32
	RemoveTripCallCount int32

	// Error injection
	AddTripError         error
	FindNearbyTripsError error
}

// NewMockGeoStore creates a new mock geo store.
func NewMockGeoStore() *MockGeoStore {
	return &MockGeoStore{
		locations: make([]redis.TripLocation, 0),
	}
}

// SetLocations sets the radius-query result (for test setup).
func (m *MockGeoStore) SetLocations(locations []redis.TripLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = locations
}

func (m *MockGeoStore) AddTrip(ctx context.Context, tripID string, lng, lat float64) error {
	atomic.AddInt32(&m.AddTripCallCount, 1)
	if m.AddTripError != nil {
		return m.AddTripError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = append(m.locations, redis.TripLocation{
		TripID: tripID,
		Lng:    lng,
		Lat:    lat,
	})
	return nil
}

func (m *MockGeoStore) FindNearbyTrips(ctx context.Context, lng, lat, radiusKm float64) ([]redis.TripLocation, error) {
	if m.FindNearbyTripsError != nil {
		return nil, m.FindNearbyTripsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Return all locations (mock doesn't do real geo filtering).
	result := make([]redis.TripLocation, len(m.locations))
	copy(result, m.locations)
	return result, nil
}

func (m *MockGeoStore) RemoveTrip(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.RemoveTripCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.TripID == tripID {
			m.locations = append(m.locations[:i], m.locations[i+1:]...)
			return nil
		}
	}
	return nil
}

// HasTrip checks if a trip is indexed (for test assertions).
func (m *MockGeoStore) HasTrip(tripID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.TripID == tripID {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface. Acquire uses
// try-lock semantics, so concurrent callers contend the way they would
// against the real store.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:trip:" + tripID
	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:trip:"+tripID)
	return nil
}

// IsLocked checks if a trip is locked (for test assertions).
func (m *MockLockStore) IsLocked(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:trip:"+tripID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// CAPTURING EVENT PUBLISHER
// ──────────────────────────────────────────────

// CapturePublisher records published events in order.
type CapturePublisher struct {
	mu     sync.Mutex
	events []*domain.Event
}

// NewCapturePublisher creates a new capturing publisher.
func NewCapturePublisher() *CapturePublisher {
	return &CapturePublisher{}
}

func (p *CapturePublisher) Publish(event *domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Events returns the captured events in publish order.
func (p *CapturePublisher) Events() []*domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]*domain.Event, len(p.events))
	copy(result, p.events)
	return result
}

// EventsOfType returns captured events matching the given type.
func (p *CapturePublisher) EventsOfType(t domain.EventType) []*domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]*domain.Event, 0)
	for _, e := range p.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
