// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cyberkittens/kittens/internal/auth"
	"github.com/cyberkittens/kittens/internal/cache"
	"github.com/cyberkittens/kittens/internal/metrics"
	"github.com/cyberkittens/kittens/internal/model"
	"github.com/cyberkittens/kittens/internal/repository"
)

// Service errors.
var (
	ErrKittenNotFound = errors.New("kitten not found")
	ErrNotOwner       = errors.New("kitten belongs to another user")
	// ErrUnknownOwner means the caller's user record is gone from the store.
	ErrUnknownOwner = errors.New("kitten owner does not exist")
)

// KittenStore persists kittens.
type KittenStore interface {
	CreateKitten(ctx context.Context, kitten *model.Kitten) error
	GetKittenByID(ctx context.Context, id int64) (*model.Kitten, error)
	DeleteKitten(ctx context.Context, id int64) error
}

// KittenCache is the read-through cache in front of KittenStore.
//
// SetKitten stores unconditionally and clears any not-found marker.
// FillKitten stores only while no marker exists, so a read that raced a
// delete cannot bring the deleted kitten back. DeleteKitten evicts the entry
// and leaves a marker behind.
type KittenCache interface {
	GetKitten(ctx context.Context, id int64) (*model.Kitten, error)
	SetKitten(ctx context.Context, kitten *model.Kitten) error
	FillKitten(ctx context.Context, kitten *model.Kitten) (bool, error)
	DeleteKitten(ctx context.Context, id int64) error
	IsNegativelyCached(ctx context.Context, id int64) (bool, error)
	SetNegativeCache(ctx context.Context, id int64) error
}

// KittenService handles kitten business logic.
type KittenService struct {
	store   KittenStore
	cache   KittenCache
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewKittenService creates a new KittenService. kittenCache may be nil.
func NewKittenService(store KittenStore, kittenCache KittenCache, recorder metrics.Recorder, logger *slog.Logger) *KittenService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KittenService{
		store:   store,
		cache:   kittenCache,
		metrics: recorder,
		logger:  logger,
	}
}

// CreateKittenInput defines input for creating a kitten.
type CreateKittenInput struct {
	Name  string
	Age   float64
	Color string
}

// CreateKitten stores a new kitten owned by user. The store assigns the ID.
func (s *KittenService) CreateKitten(ctx context.Context, user *model.User, input CreateKittenInput) (*model.Kitten, error) {
	if user == nil || user.ID == "" {
		return nil, ErrNotOwner
	}

	kitten := &model.Kitten{
		Name:    input.Name,
		Age:     input.Age,
		Color:   input.Color,
		OwnerID: user.ID,
	}

	if err := s.store.CreateKitten(ctx, kitten); err != nil {
		if errors.Is(err, repository.ErrOwnerNotFound) {
			return nil, ErrUnknownOwner
		}
		return nil, fmt.Errorf("failed to create kitten: %w", err)
	}

	s.metrics.IncKittenCreated()

	if s.cache != nil {
		if err := s.cache.SetKitten(ctx, kitten); err != nil {
			s.logger.Debug("kitten cache write failed", "kitten_id", kitten.ID, "error", err)
		}
	}

	return kitten, nil
}

// GetKitten returns the kitten with id if user owns it.
// Unknown IDs yield ErrKittenNotFound; foreign kittens yield ErrNotOwner.
func (s *KittenService) GetKitten(ctx context.Context, user *model.User, id int64) (*model.Kitten, error) {
	kitten, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if !auth.IsOwner(user, kitten) {
		return nil, ErrNotOwner
	}

	return kitten, nil
}

// DeleteKitten removes the kitten with id if user owns it.
func (s *KittenService) DeleteKitten(ctx context.Context, user *model.User, id int64) error {
	kitten, err := s.store.GetKittenByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrKittenNotFound) {
			return ErrKittenNotFound
		}
		return fmt.Errorf("failed to load kitten: %w", err)
	}

	if !auth.IsOwner(user, kitten) {
		return ErrNotOwner
	}

	if err := s.store.DeleteKitten(ctx, id); err != nil {
		if errors.Is(err, repository.ErrKittenNotFound) {
			return ErrKittenNotFound
		}
		return fmt.Errorf("failed to delete kitten: %w", err)
	}

	s.metrics.IncKittenDeleted()

	// Leaves a not-found marker so a read that loaded the row before the
	// delete cannot refill the cache.
	s.invalidate(ctx, id)

	return nil
}

// lookup resolves a kitten cache-first, falling back to the store.
func (s *KittenService) lookup(ctx context.Context, id int64) (*model.Kitten, error) {
	if s.cache != nil {
		cached, err := s.cache.GetKitten(ctx, id)
		switch {
		case err == nil:
			s.metrics.IncKittenCacheHit()
			return cached, nil
		case errors.Is(err, cache.ErrCacheMiss):
			s.metrics.IncKittenCacheMiss()
			if negative, _ := s.cache.IsNegativelyCached(ctx, id); negative {
				return nil, ErrKittenNotFound
			}
		default:
			// Redis error - fall through to DB
			s.metrics.IncKittenCacheMiss()
			s.logger.Debug("kitten cache read failed", "kitten_id", id, "error", err)
		}
	}

	kitten, err := s.store.GetKittenByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrKittenNotFound) {
			if s.cache != nil {
				_ = s.cache.SetNegativeCache(ctx, id)
			}
			return nil, ErrKittenNotFound
		}
		return nil, fmt.Errorf("failed to get kitten: %w", err)
	}

	s.backfill(ctx, kitten)

	return kitten, nil
}

// backfill caches a kitten read from the store unless it was deleted meanwhile.
func (s *KittenService) backfill(ctx context.Context, kitten *model.Kitten) {
	if s.cache == nil {
		return
	}
	stored, err := s.cache.FillKitten(ctx, kitten)
	if err != nil {
		s.logger.Debug("kitten cache write failed", "kitten_id", kitten.ID, "error", err)
		return
	}
	if !stored {
		s.logger.Debug("kitten cache fill skipped for deleted kitten", "kitten_id", kitten.ID)
	}
}

func (s *KittenService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteKitten(ctx, id); err != nil {
		s.logger.Warn("kitten cache invalidation failed", "kitten_id", id, "error", err)
	}
}
