package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cyberkittens/kittens/internal/cache"
	"github.com/cyberkittens/kittens/internal/model"
	"github.com/cyberkittens/kittens/internal/repository"
)

type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	kittens map[int64]*model.Kitten
	reads   int
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{kittens: make(map[int64]*model.Kitten)}
}

func (f *fakeStore) CreateKitten(ctx context.Context, kitten *model.Kitten) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	kitten.ID = f.nextID
	kitten.CreatedAt = time.Now().UTC()
	kitten.UpdatedAt = kitten.CreatedAt
	stored := *kitten
	f.kittens[kitten.ID] = &stored
	return nil
}

func (f *fakeStore) GetKittenByID(ctx context.Context, id int64) (*model.Kitten, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	kitten, ok := f.kittens[id]
	if !ok {
		return nil, repository.ErrKittenNotFound
	}
	copied := *kitten
	return &copied, nil
}

func (f *fakeStore) DeleteKitten(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.kittens[id]; !ok {
		return repository.ErrKittenNotFound
	}
	delete(f.kittens, id)
	return nil
}

type fakeCache struct {
	mu       sync.Mutex
	kittens  map[int64]*model.Kitten
	negative map[int64]bool
	err      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{kittens: make(map[int64]*model.Kitten), negative: make(map[int64]bool)}
}

func (f *fakeCache) GetKitten(ctx context.Context, id int64) (*model.Kitten, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	kitten, ok := f.kittens[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	copied := *kitten
	return &copied, nil
}

func (f *fakeCache) SetKitten(ctx context.Context, kitten *model.Kitten) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	copied := *kitten
	f.kittens[kitten.ID] = &copied
	delete(f.negative, kitten.ID)
	return nil
}

func (f *fakeCache) FillKitten(ctx context.Context, kitten *model.Kitten) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.negative[kitten.ID] {
		return false, nil
	}
	copied := *kitten
	f.kittens[kitten.ID] = &copied
	return true, nil
}

func (f *fakeCache) DeleteKitten(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.kittens, id)
	f.negative[id] = true
	return nil
}

func (f *fakeCache) IsNegativelyCached(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.negative[id], nil
}

func (f *fakeCache) SetNegativeCache(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.negative[id] = true
	return nil
}

// hookStore runs afterRead once, right after the next GetKittenByID returns
// from the underlying store.
type hookStore struct {
	*fakeStore
	afterRead func()
}

func (h *hookStore) GetKittenByID(ctx context.Context, id int64) (*model.Kitten, error) {
	kitten, err := h.fakeStore.GetKittenByID(ctx, id)
	if hook := h.afterRead; hook != nil {
		h.afterRead = nil
		hook()
	}
	return kitten, err
}

var errBoom = errors.New("boom")
