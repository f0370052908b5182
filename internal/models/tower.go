package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Status is the lifecycle code the source site publishes for a tower
type Status string

const (
	StatusCompleted         Status = "COM"
	StatusArchToppedOut     Status = "UCT"
	StatusStructToppedOut   Status = "STO"
	StatusUnderConstruction Status = "UC"
)

// IsUncompleted reports whether the status marks a topped-out or under-construction tower
func (s Status) IsUncompleted() bool {
	return s == StatusArchToppedOut || s == StatusStructToppedOut || s == StatusUnderConstruction
}

// Known reports whether the status is one of the four recognised codes
func (s Status) Known() bool {
	return s == StatusCompleted || s.IsUncompleted()
}

// RawTower is a single tower record as scraped. Keys are kept verbatim so a
// document written back to storage keeps attributes Tower does not model.
type RawTower map[string]interface{}

// Tower is a normalized tower record.
// Absent source values ("-", "" or a missing key) are nil pointers, never zero.
type Tower struct {
	ID          *string  `json:"id,omitempty"`
	Name        *string  `json:"name,omitempty"`
	City        *string  `json:"city,omitempty"`
	CountrySlug *string  `json:"country_slug,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Floors      *int     `json:"floors,omitempty"`
	Status      *Status  `json:"status,omitempty"`
	Start       *int     `json:"start,omitempty"`
	Completed   *int     `json:"completed,omitempty"`
	Functions   *string  `json:"functions,omitempty"`
	Rank        *int     `json:"rank,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`

	// Unparsed lists optional attributes whose raw value was malformed and dropped
	Unparsed []string `json:"-"`
}

// DisplayName returns the tower name or a placeholder for unnamed records
func (t *Tower) DisplayName() string {
	if t.Name == nil {
		return "(unnamed)"
	}
	return *t.Name
}

// HasStatus reports whether the tower carries the given status
func (t *Tower) HasStatus(s Status) bool {
	return t.Status != nil && *t.Status == s
}

// ToTower converts a raw record into a Tower.
// This is the only place sentinel markers are translated into absent values.
// A malformed height is a ValidationError; malformed optional numbers are
// dropped to nil and listed in Unparsed.
func (r RawTower) ToTower() (*Tower, error) {
	tower := &Tower{
		ID:          r.stringValue("id"),
		Name:        r.stringValue("name"),
		City:        r.stringValue("city"),
		CountrySlug: r.stringValue("country_slug"),
		Functions:   r.stringValue("functions"),
	}

	if code := r.stringValue("status"); code != nil {
		status := Status(*code)
		tower.Status = &status
	}

	var err error
	if tower.Height, err = r.floatValue("height_architecture"); err != nil {
		return nil, err
	}

	tower.Latitude = optional(tower, "latitude", r.floatValue)
	tower.Longitude = optional(tower, "longitude", r.floatValue)
	tower.Floors = optional(tower, "floors_above", r.intValue)
	tower.Start = optional(tower, "start", r.intValue)
	tower.Completed = optional(tower, "completed", r.intValue)
	tower.Rank = optional(tower, "rank", r.intValue)

	return tower, nil
}

func optional[T any](tower *Tower, key string, parse func(string) (*T, error)) *T {
	v, err := parse(key)
	if err != nil {
		tower.Unparsed = append(tower.Unparsed, key)
		return nil
	}
	return v
}

// HeightValue returns the architectural height, nil when the record has none
func (r RawTower) HeightValue() (*float64, error) {
	return r.floatValue("height_architecture")
}

// isSentinel reports whether a raw value stands for "no value"
func isSentinel(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	return s == "" || s == "-"
}

func (r RawTower) stringValue(key string) *string {
	v, ok := r[key]
	if !ok || isSentinel(v) {
		return nil
	}

	var s string
	switch val := v.(type) {
	case string:
		s = strings.TrimSpace(val)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		s = strconv.Itoa(val)
	default:
		s = fmt.Sprint(val)
	}
	return &s
}

func (r RawTower) floatValue(key string) (*float64, error) {
	v, ok := r[key]
	if !ok || isSentinel(v) {
		return nil, nil
	}

	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, &ValidationError{
				Field:   key,
				Value:   val,
				Message: fmt.Sprintf("invalid %s: expected a number, got %q", key, val),
			}
		}
		f = parsed
	default:
		return nil, &ValidationError{
			Field:   key,
			Value:   fmt.Sprint(val),
			Message: fmt.Sprintf("invalid %s: unsupported type %T", key, val),
		}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &ValidationError{
			Field:   key,
			Value:   fmt.Sprint(f),
			Message: fmt.Sprintf("invalid %s: not a finite number", key),
		}
	}
	return &f, nil
}

func (r RawTower) intValue(key string) (*int, error) {
	f, err := r.floatValue(key)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != math.Trunc(*f) {
		return nil, &ValidationError{
			Field:   key,
			Value:   strconv.FormatFloat(*f, 'f', -1, 64),
			Message: fmt.Sprintf("invalid %s: expected a whole number", key),
		}
	}
	i := int(*f)
	return &i, nil
}

// ValidationError represents a malformed value in a scraped record
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
