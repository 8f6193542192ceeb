package model

import (
	"strconv"
	"time"
)

// Kitten is a pet record owned by exactly one user.
// OwnerID is set once at creation and never changes.
type Kitten struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Age       float64   `json:"age"`
	Color     string    `json:"color"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CachedKitten represents kitten data stored in a Redis hash.
// Uses string types for Redis hash compatibility.
type CachedKitten struct {
	Name      string `redis:"name"`
	Age       string `redis:"age"`
	Color     string `redis:"color"`
	OwnerID   string `redis:"owner_id"`
	CreatedAt string `redis:"created_at"` // Unix nanoseconds
	UpdatedAt string `redis:"updated_at"` // Unix nanoseconds
}

// ToCachedKitten converts a Kitten to its cache representation.
func (k *Kitten) ToCachedKitten() *CachedKitten {
	return &CachedKitten{
		Name:      k.Name,
		Age:       strconv.FormatFloat(k.Age, 'g', -1, 64),
		Color:     k.Color,
		OwnerID:   k.OwnerID,
		CreatedAt: strconv.FormatInt(k.CreatedAt.UnixNano(), 10),
		UpdatedAt: strconv.FormatInt(k.UpdatedAt.UnixNano(), 10),
	}
}

// ToKitten rebuilds a Kitten from cached data.
// Returns false if the cached entry is incomplete or corrupted.
func (c *CachedKitten) ToKitten(id int64) (*Kitten, bool) {
	if c.OwnerID == "" {
		return nil, false
	}

	age, err := strconv.ParseFloat(c.Age, 64)
	if err != nil {
		return nil, false
	}

	created, err := strconv.ParseInt(c.CreatedAt, 10, 64)
	if err != nil {
		return nil, false
	}

	updated, err := strconv.ParseInt(c.UpdatedAt, 10, 64)
	if err != nil {
		return nil, false
	}

	return &Kitten{
		ID:        id,
		Name:      c.Name,
		Age:       age,
		Color:     c.Color,
		OwnerID:   c.OwnerID,
		CreatedAt: time.Unix(0, created).UTC(),
		UpdatedAt: time.Unix(0, updated).UTC(),
	}, true
}
