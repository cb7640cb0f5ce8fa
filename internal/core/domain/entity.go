package domain

import (
	"encoding/json"
	"errors"
	"regexp"
	"time"
)

var (
	ErrInvalidKind = errors.New("invalid entity kind")
	ErrInvalidID   = errors.New("invalid entity id")
	ErrInvalidData = errors.New("entity data must be valid json")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("already exists")
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9._:-]+$`)

// Entity kinds managed by the CRUD surface. The audit trail itself keeps the
// kind an open tag: adding a kind here requires no recorder change.
const (
	KindCompany          = "Company"
	KindContact          = "Contact"
	KindSalesOpportunity = "SalesOpportunity"
	KindProject          = "Project"
	KindEquipment        = "Equipment"
	KindWorkRecord       = "WorkRecord"
)

func EntityKinds() []string {
	return []string{
		KindCompany,
		KindContact,
		KindSalesOpportunity,
		KindProject,
		KindEquipment,
		KindWorkRecord,
	}
}

// Entity is a business record stored as a JSON document.
type Entity struct {
	Kind      string
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e Entity) Validate() error {
	if err := ValidateKind(e.Kind); err != nil {
		return err
	}
	if err := ValidateID(e.ID); err != nil {
		return err
	}
	if !json.Valid(e.Data) {
		return ErrInvalidData
	}
	return nil
}

func ValidateKind(kind string) error {
	if kind == "" || !identifierPattern.MatchString(kind) {
		return ErrInvalidKind
	}
	return nil
}

func ValidateID(id string) error {
	if id == "" || !identifierPattern.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}

type EntityFilter struct {
	AfterID string
	Limit   int
}
