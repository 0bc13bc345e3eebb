package locality

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pricing-service/internal/models"
	"pricing-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resolution statuses
const (
	StatusResolved   = "RESOLVED"
	StatusAmbiguous  = "AMBIGUOUS"
	StatusUnresolved = "UNRESOLVED"
)

// Hint carries whatever the caller knows about the customer's whereabouts.
// Precedence: stored address, stored locality, coordinates, IP.
type Hint struct {
	SessionID        string   `json:"session_id"`
	CustomerID       int64    `json:"customer_id,omitempty"`
	IP               string   `json:"ip,omitempty"`
	Lat              *float64 `json:"lat,omitempty"`
	Lon              *float64 `json:"lon,omitempty"`
	StoredLocalityID int64    `json:"stored_locality_id,omitempty"`
	StoredAddressID  int64    `json:"stored_address_id,omitempty"`
}

// Resolution is the typed outcome of a resolve pass. Ambiguous resolutions
// carry the candidate addresses and suspend the caller until an address
// selection arrives; unresolved means callers must treat product prices as
// unavailable rather than guessing a default locality.
type Resolution struct {
	Status             string                   `json:"status"`
	Locality           *models.Locality         `json:"locality,omitempty"`
	AmbiguousAddresses []models.CustomerAddress `json:"ambiguous_addresses,omitempty"`
}

// Store is the subset of the data store the resolver needs
type Store interface {
	GetLocalityByID(ctx context.Context, id int64) (*models.Locality, error)
	GetAddressByID(ctx context.Context, id int64) (*models.CustomerAddress, error)
	GetAddressesByCustomer(ctx context.Context, customerID int64) ([]models.CustomerAddress, error)
}

// SessionCache persists the resolved locality across sessions
type SessionCache interface {
	SetSessionLocality(ctx context.Context, sessionID string, locality *models.Locality, ttl time.Duration) error
	GetSessionLocality(ctx context.Context, sessionID string) (*models.Locality, error)
	ClearSessionLocality(ctx context.Context, sessionID string) error
}

// Publisher emits locality lifecycle events
type Publisher interface {
	PublishLocalityChanged(ctx context.Context, event *models.LocalityChangedEvent) error
	PublishLocalityUnresolved(ctx context.Context, event *models.LocalityUnresolvedEvent) error
}

// Resolver determines the customer's active delivery locality. It is the
// single writer of the locality state slot.
type Resolver struct {
	store     Store
	cache     SessionCache
	detector  Detector
	publisher Publisher
	slot      *StateSlot
	cacheTTL  time.Duration
	logger    *zap.Logger

	mu         sync.Mutex
	cancelPrev context.CancelFunc
}

// NewResolver creates a new locality resolver
func NewResolver(
	store Store,
	cache SessionCache,
	detector Detector,
	publisher Publisher,
	slot *StateSlot,
	cacheTTL time.Duration,
) *Resolver {
	return &Resolver{
		store:     store,
		cache:     cache,
		detector:  detector,
		publisher: publisher,
		slot:      slot,
		cacheTTL:  cacheTTL,
		logger:    util.GetLogger(),
	}
}

// Resolve determines the active locality from the hint. A newer call
// supersedes an older in-flight one: the previous detect request is
// cancelled and only the latest result is committed.
func (r *Resolver) Resolve(ctx context.Context, hint Hint) (*Resolution, error) {
	ctx, span := util.StartSpan(ctx, "Resolver.Resolve")
	defer span.End()

	ctx = r.supersede(ctx)

	// A stored address selection wins outright; it is also how an
	// ambiguous resolution is completed.
	if hint.StoredAddressID > 0 {
		address, err := r.store.GetAddressByID(ctx, hint.StoredAddressID)
		if err != nil {
			return nil, fmt.Errorf("failed to load stored address: %w", err)
		}
		locality, err := r.store.GetLocalityByID(ctx, address.LocalityID)
		if err != nil {
			return nil, fmt.Errorf("failed to load address locality: %w", err)
		}
		return r.commit(ctx, hint.SessionID, locality, "address"), nil
	}

	// Stored locality id: validate and return, no network classification.
	if hint.StoredLocalityID > 0 {
		locality, err := r.store.GetLocalityByID(ctx, hint.StoredLocalityID)
		if err == nil {
			return r.commit(ctx, hint.SessionID, locality, "stored"), nil
		}
		r.logger.Warn("Stored locality no longer valid",
			zap.Int64("locality_id", hint.StoredLocalityID),
			zap.Error(err))
	}

	if hint.Lat != nil && hint.Lon != nil {
		result := r.detector.DetectByCoordinates(ctx, *hint.Lat, *hint.Lon)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if result.Outcome == DetectOK {
			return r.commit(ctx, hint.SessionID, result.Locality, "coordinates"), nil
		}
		r.logger.Warn("Coordinate detection failed", zap.String("reason", result.Reason))
		return r.unresolved(ctx, hint.SessionID, result.Reason), nil
	}

	if hint.IP != "" {
		return r.resolveByIP(ctx, hint)
	}

	return r.unresolved(ctx, hint.SessionID, "no usable hint"), nil
}

// resolveByIP classifies the IP and disambiguates against the customer's
// saved addresses. A shared/regional IP range can map to several of them.
func (r *Resolver) resolveByIP(ctx context.Context, hint Hint) (*Resolution, error) {
	result := r.detector.DetectByIP(ctx, hint.IP)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var detected *models.Locality
	if result.Outcome == DetectOK {
		detected = result.Locality
	} else {
		r.logger.Warn("IP detection failed",
			zap.String("ip", hint.IP),
			zap.String("reason", result.Reason))
	}

	candidates, err := r.candidateAddresses(ctx, hint.CustomerID, detected)
	if err != nil {
		return nil, err
	}

	switch {
	case len(candidates) > 1:
		util.LocalityResolutionsAmbiguous.Inc()
		return &Resolution{Status: StatusAmbiguous, AmbiguousAddresses: candidates}, nil

	case len(candidates) == 1:
		locality, err := r.store.GetLocalityByID(ctx, candidates[0].LocalityID)
		if err != nil {
			return nil, fmt.Errorf("failed to load candidate locality: %w", err)
		}
		return r.commit(ctx, hint.SessionID, locality, "address"), nil

	case detected != nil:
		return r.commit(ctx, hint.SessionID, detected, "ip"), nil

	default:
		return r.unresolved(ctx, hint.SessionID, result.Reason), nil
	}
}

// candidateAddresses returns the customer's saved addresses plausible for
// the detected locality: same locality, or same region when both are known.
// With no detection every saved address is plausible.
func (r *Resolver) candidateAddresses(ctx context.Context, customerID int64, detected *models.Locality) ([]models.CustomerAddress, error) {
	if customerID <= 0 {
		return nil, nil
	}

	addresses, err := r.store.GetAddressesByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer addresses: %w", err)
	}
	if detected == nil {
		return addresses, nil
	}

	var candidates []models.CustomerAddress
	for _, address := range addresses {
		if address.LocalityID == detected.ID {
			candidates = append(candidates, address)
			continue
		}
		if detected.Region == nil {
			continue
		}
		locality, err := r.store.GetLocalityByID(ctx, address.LocalityID)
		if err != nil {
			continue
		}
		if locality.Region != nil && *locality.Region == *detected.Region {
			candidates = append(candidates, address)
		}
	}
	return candidates, nil
}

// ResumeSession re-validates a session's cached locality against server
// data on session start. An invalid cached locality is cleared.
func (r *Resolver) ResumeSession(ctx context.Context, sessionID string) (*Resolution, error) {
	ctx, span := util.StartSpan(ctx, "Resolver.ResumeSession")
	defer span.End()

	cached, err := r.cache.GetSessionLocality(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session cache: %w", err)
	}
	if cached == nil {
		return &Resolution{Status: StatusUnresolved}, nil
	}

	locality, err := r.store.GetLocalityByID(ctx, cached.ID)
	if err != nil {
		r.logger.Warn("Cached locality no longer valid, clearing session",
			zap.Int64("locality_id", cached.ID))
		_ = r.cache.ClearSessionLocality(ctx, sessionID)
		r.slot.Clear()
		return &Resolution{Status: StatusUnresolved}, nil
	}

	return r.commit(ctx, sessionID, locality, "stored"), nil
}

// supersede cancels any previous in-flight resolution and registers this
// one as the latest.
func (r *Resolver) supersede(ctx context.Context) context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancelPrev != nil {
		r.cancelPrev()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancelPrev = cancel
	return ctx
}

// commit persists the resolution, replaces the state slot and notifies
// price-dependent consumers.
func (r *Resolver) commit(ctx context.Context, sessionID string, locality *models.Locality, method string) *Resolution {
	if sessionID != "" {
		if err := r.cache.SetSessionLocality(ctx, sessionID, locality, r.cacheTTL); err != nil {
			r.logger.Error("Failed to cache session locality",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}

	r.slot.Replace(*locality)
	util.LocalityResolutionsTotal.WithLabelValues(method).Inc()

	event := &models.LocalityChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeLocalityChanged,
			Timestamp: time.Now(),
		},
		SessionID:    sessionID,
		LocalityID:   locality.ID,
		LocalityName: locality.Name,
		Method:       method,
	}
	if err := r.publisher.PublishLocalityChanged(ctx, event); err != nil {
		r.logger.Error("Failed to publish LocalityChanged event", zap.Error(err))
	}

	r.logger.Info("Locality resolved",
		zap.Int64("locality_id", locality.ID),
		zap.String("method", method))

	return &Resolution{Status: StatusResolved, Locality: locality}
}

func (r *Resolver) unresolved(ctx context.Context, sessionID, reason string) *Resolution {
	util.LocalityResolutionsUnresolved.Inc()

	event := &models.LocalityUnresolvedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeLocalityUnresolved,
			Timestamp: time.Now(),
		},
		SessionID: sessionID,
		Reason:    reason,
	}
	if err := r.publisher.PublishLocalityUnresolved(ctx, event); err != nil {
		r.logger.Error("Failed to publish LocalityUnresolved event", zap.Error(err))
	}

	return &Resolution{Status: StatusUnresolved}
}
