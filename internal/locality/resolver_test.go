package locality

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pricing-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	localities map[int64]models.Locality
	addresses  map[int64]models.CustomerAddress
	byCustomer map[int64][]models.CustomerAddress
}

func (s *stubStore) GetLocalityByID(_ context.Context, id int64) (*models.Locality, error) {
	locality, ok := s.localities[id]
	if !ok {
		return nil, fmt.Errorf("locality not found: %d", id)
	}
	return &locality, nil
}

func (s *stubStore) GetAddressByID(_ context.Context, id int64) (*models.CustomerAddress, error) {
	address, ok := s.addresses[id]
	if !ok {
		return nil, fmt.Errorf("address not found: %d", id)
	}
	return &address, nil
}

func (s *stubStore) GetAddressesByCustomer(_ context.Context, customerID int64) ([]models.CustomerAddress, error) {
	return s.byCustomer[customerID], nil
}

type stubCache struct {
	entries map[string]*models.Locality
}

func (c *stubCache) SetSessionLocality(_ context.Context, sessionID string, locality *models.Locality, _ time.Duration) error {
	c.entries[sessionID] = locality
	return nil
}

func (c *stubCache) GetSessionLocality(_ context.Context, sessionID string) (*models.Locality, error) {
	return c.entries[sessionID], nil
}

func (c *stubCache) ClearSessionLocality(_ context.Context, sessionID string) error {
	delete(c.entries, sessionID)
	return nil
}

type stubPublisher struct {
	changed    []*models.LocalityChangedEvent
	unresolved []*models.LocalityUnresolvedEvent
}

func (p *stubPublisher) PublishLocalityChanged(_ context.Context, event *models.LocalityChangedEvent) error {
	p.changed = append(p.changed, event)
	return nil
}

func (p *stubPublisher) PublishLocalityUnresolved(_ context.Context, event *models.LocalityUnresolvedEvent) error {
	p.unresolved = append(p.unresolved, event)
	return nil
}

type stubDetector struct {
	result  DetectResult
	calls   int
	block   bool
	entered chan struct{}
}

func (d *stubDetector) DetectByIP(ctx context.Context, _ string) DetectResult {
	return d.detect(ctx)
}

func (d *stubDetector) DetectByCoordinates(ctx context.Context, _, _ float64) DetectResult {
	return d.detect(ctx)
}

func (d *stubDetector) detect(ctx context.Context) DetectResult {
	d.calls++
	if d.block {
		close(d.entered)
		<-ctx.Done()
		return DetectResult{Outcome: DetectError, Reason: ctx.Err().Error()}
	}
	return d.result
}

func region(name string) *string { return &name }

func newTestResolver(detector *stubDetector) (*Resolver, *stubStore, *stubCache, *stubPublisher, *StateSlot) {
	store := &stubStore{
		localities: map[int64]models.Locality{
			1: {ID: 1, Name: "San Miguel de Tucumán", Region: region("Tucumán")},
			2: {ID: 2, Name: "Yerba Buena", Region: region("Tucumán")},
			3: {ID: 3, Name: "Salta Capital", Region: region("Salta")},
		},
		addresses:  map[int64]models.CustomerAddress{},
		byCustomer: map[int64][]models.CustomerAddress{},
	}
	cache := &stubCache{entries: map[string]*models.Locality{}}
	publisher := &stubPublisher{}
	slot := NewStateSlot()
	resolver := NewResolver(store, cache, detector, publisher, slot, time.Hour)
	return resolver, store, cache, publisher, slot
}

func TestResolveStoredLocalitySkipsNetwork(t *testing.T) {
	detector := &stubDetector{}
	resolver, _, cache, publisher, slot := newTestResolver(detector)

	hint := Hint{SessionID: "s1", StoredLocalityID: 1, IP: "200.45.1.1"}

	resolution, err := resolver.Resolve(context.Background(), hint)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, resolution.Status)
	assert.Equal(t, int64(1), resolution.Locality.ID)
	assert.Zero(t, detector.calls)

	// Idempotent: same stored id, same locality, still no network call.
	again, err := resolver.Resolve(context.Background(), hint)
	require.NoError(t, err)
	assert.Equal(t, resolution.Locality.ID, again.Locality.ID)
	assert.Zero(t, detector.calls)

	// Side effects: cached, slot replaced, change notified.
	assert.NotNil(t, cache.entries["s1"])
	require.NotNil(t, slot.Snapshot())
	assert.Equal(t, int64(1), slot.Snapshot().ID)
	assert.Len(t, publisher.changed, 2)
	assert.Equal(t, "stored", publisher.changed[0].Method)
}

func TestResolveByCoordinates(t *testing.T) {
	detector := &stubDetector{result: DetectResult{
		Outcome:  DetectOK,
		Locality: &models.Locality{ID: 2, Name: "Yerba Buena", Region: region("Tucumán")},
	}}
	resolver, _, _, publisher, _ := newTestResolver(detector)

	lat, lon := -26.81, -65.31
	resolution, err := resolver.Resolve(context.Background(), Hint{SessionID: "s1", Lat: &lat, Lon: &lon})

	require.NoError(t, err)
	assert.Equal(t, StatusResolved, resolution.Status)
	assert.Equal(t, int64(2), resolution.Locality.ID)
	assert.Equal(t, 1, detector.calls)
	require.Len(t, publisher.changed, 1)
	assert.Equal(t, "coordinates", publisher.changed[0].Method)
}

func TestResolveByIPNoSavedAddresses(t *testing.T) {
	detector := &stubDetector{result: DetectResult{
		Outcome:  DetectOK,
		Locality: &models.Locality{ID: 1, Name: "San Miguel de Tucumán", Region: region("Tucumán")},
	}}
	resolver, _, _, publisher, _ := newTestResolver(detector)

	resolution, err := resolver.Resolve(context.Background(), Hint{SessionID: "s1", IP: "200.45.1.1"})

	require.NoError(t, err)
	assert.Equal(t, StatusResolved, resolution.Status)
	assert.Equal(t, int64(1), resolution.Locality.ID)
	assert.Equal(t, "ip", publisher.changed[0].Method)
}

func TestResolveByIPAmbiguousAddresses(t *testing.T) {
	detector := &stubDetector{result: DetectResult{
		Outcome:  DetectOK,
		Locality: &models.Locality{ID: 1, Name: "San Miguel de Tucumán", Region: region("Tucumán")},
	}}
	resolver, store, _, publisher, slot := newTestResolver(detector)

	// Two saved addresses in the detected region: must suspend for selection.
	store.byCustomer[7] = []models.CustomerAddress{
		{ID: 100, CustomerID: 7, Label: "Casa", LocalityID: 1},
		{ID: 101, CustomerID: 7, Label: "Trabajo", LocalityID: 2},
	}

	resolution, err := resolver.Resolve(context.Background(), Hint{SessionID: "s1", CustomerID: 7, IP: "200.45.1.1"})

	require.NoError(t, err)
	assert.Equal(t, StatusAmbiguous, resolution.Status)
	assert.Len(t, resolution.AmbiguousAddresses, 2)
	assert.Nil(t, resolution.Locality)

	// No state written, nothing notified while suspended.
	assert.Nil(t, slot.Snapshot())
	assert.Empty(t, publisher.changed)
}

func TestResolveByIPSingleCandidateAddress(t *testing.T) {
	detector := &stubDetector{result: DetectResult{
		Outcome:  DetectOK,
		Locality: &models.Locality{ID: 1, Name: "San Miguel de Tucumán", Region: region("Tucumán")},
	}}
	resolver, store, _, publisher, _ := newTestResolver(detector)

	// Address in Salta is outside the detected region; only Casa qualifies.
	store.byCustomer[7] = []models.CustomerAddress{
		{ID: 100, CustomerID: 7, Label: "Casa", LocalityID: 2},
		{ID: 101, CustomerID: 7, Label: "Sucursal", LocalityID: 3},
	}

	resolution, err := resolver.Resolve(context.Background(), Hint{SessionID: "s1", CustomerID: 7, IP: "200.45.1.1"})

	require.NoError(t, err)
	assert.Equal(t, StatusResolved, resolution.Status)
	assert.Equal(t, int64(2), resolution.Locality.ID)
	assert.Equal(t, "address", publisher.changed[0].Method)
}

func TestResolveAddressSelectionCompletesAmbiguity(t *testing.T) {
	detector := &stubDetector{}
	resolver, store, _, publisher, _ := newTestResolver(detector)

	store.addresses[101] = models.CustomerAddress{ID: 101, CustomerID: 7, Label: "Trabajo", LocalityID: 2}

	resolution, err := resolver.Resolve(context.Background(), Hint{SessionID: "s1", StoredAddressID: 101})

	require.NoError(t, err)
	assert.Equal(t, StatusResolved, resolution.Status)
	assert.Equal(t, int64(2), resolution.Locality.ID)
	assert.Zero(t, detector.calls)
	assert.Equal(t, "address", publisher.changed[0].Method)
}

func TestResolveUnresolved(t *testing.T) {
	detector := &stubDetector{result: DetectResult{Outcome: DetectError, Reason: "upstream down"}}
	resolver, _, _, publisher, slot := newTestResolver(detector)

	resolution, err := resolver.Resolve(context.Background(), Hint{SessionID: "s1", IP: "200.45.1.1"})

	require.NoError(t, err)
	assert.Equal(t, StatusUnresolved, resolution.Status)
	assert.Nil(t, resolution.Locality)
	assert.Nil(t, slot.Snapshot())
	assert.Empty(t, publisher.changed)
	require.Len(t, publisher.unresolved, 1)
	assert.Equal(t, "upstream down", publisher.unresolved[0].Reason)
}

func TestResolveLatestRequestWins(t *testing.T) {
	detector := &stubDetector{block: true, entered: make(chan struct{})}
	resolver, _, _, _, _ := newTestResolver(detector)

	type outcome struct {
		resolution *Resolution
		err        error
	}
	first := make(chan outcome, 1)

	go func() {
		resolution, err := resolver.Resolve(context.Background(), Hint{SessionID: "s1", IP: "200.45.1.1"})
		first <- outcome{resolution, err}
	}()

	<-detector.entered

	// A newer resolution supersedes the in-flight one.
	second, err := resolver.Resolve(context.Background(), Hint{SessionID: "s1", StoredLocalityID: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, second.Status)

	got := <-first
	assert.Error(t, got.err)
	assert.ErrorIs(t, got.err, context.Canceled)
}

func TestResumeSessionValidCache(t *testing.T) {
	detector := &stubDetector{}
	resolver, _, cache, _, slot := newTestResolver(detector)

	cache.entries["s1"] = &models.Locality{ID: 1, Name: "San Miguel de Tucumán"}

	resolution, err := resolver.ResumeSession(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, StatusResolved, resolution.Status)
	assert.Equal(t, int64(1), resolution.Locality.ID)
	require.NotNil(t, slot.Snapshot())
	assert.Zero(t, detector.calls)
}

func TestResumeSessionStaleCacheCleared(t *testing.T) {
	detector := &stubDetector{}
	resolver, _, cache, _, slot := newTestResolver(detector)

	// Locality 99 no longer exists server-side.
	cache.entries["s1"] = &models.Locality{ID: 99, Name: "Borrada"}

	resolution, err := resolver.ResumeSession(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, StatusUnresolved, resolution.Status)
	assert.Nil(t, cache.entries["s1"])
	assert.Nil(t, slot.Snapshot())
}

func TestStateSlotSubscribeAndSnapshot(t *testing.T) {
	slot := NewStateSlot()
	assert.Nil(t, slot.Snapshot())

	var notified []int64
	slot.Subscribe(func(l models.Locality) {
		notified = append(notified, l.ID)
	})

	slot.Replace(models.Locality{ID: 1, Name: "San Miguel de Tucumán"})
	slot.Replace(models.Locality{ID: 2, Name: "Yerba Buena"})

	require.NotNil(t, slot.Snapshot())
	assert.Equal(t, int64(2), slot.Snapshot().ID)
	assert.Equal(t, []int64{1, 2}, notified)

	// Snapshot is a copy; mutating it does not leak into the slot.
	snapshot := slot.Snapshot()
	snapshot.ID = 999
	assert.Equal(t, int64(2), slot.Snapshot().ID)
}
