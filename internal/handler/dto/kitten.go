// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cyberkittens/kittens/internal/model"
)

// Age accepts either a JSON number or a numeric string. Fractional ages are
// allowed; NaN, infinities and values outside float64 range are rejected.
// An empty string or null decodes to zero.
type Age float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Age) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return a.parse(s)
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("age must be a number: %w", err)
	}
	*a = Age(n)
	return nil
}

// ParseAge converts a form value into an Age.
func ParseAge(s string) (Age, error) {
	var a Age
	err := a.parse(s)
	return a, err
}

func (a *Age) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*a = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("age must be a number: %w", err)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return fmt.Errorf("age must be finite: %q", s)
	}
	*a = Age(n)
	return nil
}

// CreateKittenRequest represents the request body for creating a kitten.
// Any ownerId sent by the client is not part of the request and is dropped.
type CreateKittenRequest struct {
	Name  string `json:"name"`
	Age   Age    `json:"age"`
	Color string `json:"color"`
}

// CreateKittenResponse echoes the created kitten's descriptive fields.
type CreateKittenResponse struct {
	Name  string  `json:"name"`
	Age   float64 `json:"age"`
	Color string  `json:"color"`
}

// KittenResponse represents a kitten in API responses.
type KittenResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Age       float64   `json:"age"`
	Color     string    `json:"color"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToKittenResponse converts a Kitten model to KittenResponse DTO.
func ToKittenResponse(kitten *model.Kitten) *KittenResponse {
	return &KittenResponse{
		ID:        kitten.ID,
		Name:      kitten.Name,
		Age:       kitten.Age,
		Color:     kitten.Color,
		OwnerID:   kitten.OwnerID,
		CreatedAt: kitten.CreatedAt,
		UpdatedAt: kitten.UpdatedAt,
	}
}

// ToCreateKittenResponse converts a Kitten model to CreateKittenResponse DTO.
func ToCreateKittenResponse(kitten *model.Kitten) *CreateKittenResponse {
	return &CreateKittenResponse{
		Name:  kitten.Name,
		Age:   kitten.Age,
		Color: kitten.Color,
	}
}

// LoginRequest represents the request body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries an issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
