package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Action is the closed set of mutations the audit trail records.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

var (
	ErrInvalidAction     = errors.New("invalid audit action")
	ErrInvalidDiff       = errors.New("invalid diff payload")
	ErrMissingEntityKind = errors.New("entity kind is required")
	ErrMissingEntityID   = errors.New("entity id is required")
)

// FieldChange is one entry of a multi-field diff, values held as the raw
// JSON text they were captured with.
type FieldChange struct {
	Field    string          `json:"field"`
	OldValue json.RawMessage `json:"old_value,omitempty"`
	NewValue json.RawMessage `json:"new_value,omitempty"`
}

// Change is a caller-supplied field change with not-yet-serialized values.
type Change struct {
	Field    string
	OldValue any
	NewValue any
}

type diffShape int

const (
	shapeSingleField diffShape = iota + 1
	shapeSnapshot
	shapeMultiField
)

// Diff describes what changed in one recorded mutation. It has exactly three
// constructors, one per valid shape; the zero value is invalid.
type Diff struct {
	shape    diffShape
	field    string
	oldValue any
	newValue any
	changes  []Change
}

// SingleFieldDiff captures a change to one named field.
func SingleFieldDiff(field string, oldValue, newValue any) Diff {
	return Diff{shape: shapeSingleField, field: field, oldValue: oldValue, newValue: newValue}
}

// SnapshotDiff captures a whole entity: the new state on CREATE, the closing
// state on DELETE.
func SnapshotDiff(entity any) Diff {
	return Diff{shape: shapeSnapshot, newValue: entity}
}

// MultiFieldDiff captures several field changes in the order supplied.
func MultiFieldDiff(changes []Change) Diff {
	return Diff{shape: shapeMultiField, changes: changes}
}

func (d Diff) Validate() error {
	switch d.shape {
	case shapeSingleField:
		if d.field == "" {
			return fmt.Errorf("%w: single-field diff without field name", ErrInvalidDiff)
		}
	case shapeSnapshot:
		if d.newValue == nil {
			return fmt.Errorf("%w: snapshot diff without entity value", ErrInvalidDiff)
		}
	case shapeMultiField:
		if len(d.changes) == 0 {
			return fmt.Errorf("%w: multi-field diff without changes", ErrInvalidDiff)
		}
		for _, c := range d.changes {
			if c.Field == "" {
				return fmt.Errorf("%w: change without field name", ErrInvalidDiff)
			}
		}
	default:
		return ErrInvalidDiff
	}
	return nil
}

// EncodedDiff is the storable form of a Diff: every value serialized to
// portable JSON text. Exactly one shape is populated.
type EncodedDiff struct {
	Field    string
	OldValue json.RawMessage
	NewValue json.RawMessage
	Changes  []FieldChange
}

func (d Diff) Encode() (EncodedDiff, error) {
	if err := d.Validate(); err != nil {
		return EncodedDiff{}, err
	}

	switch d.shape {
	case shapeSingleField:
		oldValue, err := encodeValue(d.oldValue)
		if err != nil {
			return EncodedDiff{}, fmt.Errorf("encode old value of %s: %w", d.field, err)
		}
		newValue, err := encodeValue(d.newValue)
		if err != nil {
			return EncodedDiff{}, fmt.Errorf("encode new value of %s: %w", d.field, err)
		}
		return EncodedDiff{Field: d.field, OldValue: oldValue, NewValue: newValue}, nil

	case shapeSnapshot:
		snapshot, err := encodeValue(d.newValue)
		if err != nil {
			return EncodedDiff{}, fmt.Errorf("encode snapshot: %w", err)
		}
		return EncodedDiff{NewValue: snapshot}, nil

	default:
		changes := make([]FieldChange, 0, len(d.changes))
		for _, c := range d.changes {
			oldValue, err := encodeValue(c.OldValue)
			if err != nil {
				return EncodedDiff{}, fmt.Errorf("encode old value of %s: %w", c.Field, err)
			}
			newValue, err := encodeValue(c.NewValue)
			if err != nil {
				return EncodedDiff{}, fmt.Errorf("encode new value of %s: %w", c.Field, err)
			}
			changes = append(changes, FieldChange{Field: c.Field, OldValue: oldValue, NewValue: newValue})
		}
		return EncodedDiff{Changes: changes}, nil
	}
}

func encodeValue(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, errors.New("raw value is not valid json")
		}
		return raw, nil
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

// AuditRecord is one immutable fact about a point-in-time change to a
// business entity. Records are append-only; nothing in this package mutates
// or deletes one once persisted.
type AuditRecord struct {
	ID         int64
	EntityKind string
	EntityID   string
	Action     Action
	Field      string
	OldValue   json.RawMessage
	NewValue   json.RawMessage
	Changes    []FieldChange
	ActorID    string
	CreatedAt  time.Time
}

// Actor is the user credited with a recorded mutation.
type Actor struct {
	ID    string
	Name  string
	Email string
}
