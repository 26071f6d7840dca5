package evidence

import (
	"fmt"
	"strings"
	"time"
)

// Type discriminates which content field an evidence record carries.
type Type string

const (
	TypeImage Type = "Image"
	TypeText  Type = "Text"
)

// ParseType accepts any casing of a valid type.
func ParseType(s string) (Type, error) {
	for _, t := range []Type{TypeImage, TypeText} {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

// Collector is the public view of the user who collected an item.
type Collector struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Evidence is a single collected item.
type Evidence struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	Content     string    `json:"content,omitempty"`
	CollectedAt time.Time `json:"collected_at"`
	// CollectedBy is the stored user id; Collector is its expansion.
	CollectedBy string     `json:"-"`
	Collector   *Collector `json:"collected_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateInput is the body of a create request. CollectedAt defaults to now.
type CreateInput struct {
	Type        string     `json:"type"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url,omitempty"`
	Content     string     `json:"content,omitempty"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
}

// UpdateInput carries the fields to change. Nil fields are left as they are;
// an empty string clears the field.
type UpdateInput struct {
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	Content     *string `json:"content,omitempty"`
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Type        Type
	CollectedBy string
}
