// Package classplus is a thin client for the Classplus mock test API.
package classplus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultMockName        = "Mock"
	DefaultDurationSeconds = 600
)

// MockID accepts both JSON strings and numbers.
type MockID string

func (id *MockID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = MockID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("mock id: %w", err)
	}
	*id = MockID(n.String())
	return nil
}

type MockSummary struct {
	ID   MockID `json:"id"`
	Name string `json:"name"`
}

func (m MockSummary) DisplayName() string {
	if m.Name == "" {
		return DefaultMockName
	}
	return m.Name
}

// MockDetail is the raw mock document. Only name, duration_seconds and
// questions are interpreted; everything else is passed to the page as-is.
type MockDetail map[string]any

// DecodeMockDetail parses a JSON object, keeping numbers as json.Number.
func DecodeMockDetail(raw []byte) (MockDetail, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode mock detail: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("decode mock detail: expected a JSON object")
	}
	return MockDetail(obj), nil
}

func (d MockDetail) Name() string {
	v, ok := d["name"]
	if !ok || v == nil {
		return DefaultMockName
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (d MockDetail) DurationSeconds() int {
	v, ok := d["duration_seconds"]
	if !ok {
		return DefaultDurationSeconds
	}
	switch n := v.(type) {
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return int(math.Round(f))
		}
	case float64:
		return int(math.Round(n))
	case int:
		return n
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return DefaultDurationSeconds
}

func (d MockDetail) Questions() []any {
	if qs, ok := d["questions"].([]any); ok {
		return qs
	}
	return []any{}
}
