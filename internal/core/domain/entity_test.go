package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEntityValidate(t *testing.T) {
	entity := Entity{Kind: KindCompany, ID: "c-1", Data: json.RawMessage(`{"name":"x"}`)}
	if err := entity.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cases := []struct {
		name   string
		entity Entity
		want   error
	}{
		{"empty kind", Entity{ID: "c-1", Data: json.RawMessage(`{}`)}, ErrInvalidKind},
		{"kind with space", Entity{Kind: "Sales Opportunity", ID: "c-1", Data: json.RawMessage(`{}`)}, ErrInvalidKind},
		{"empty id", Entity{Kind: KindCompany, Data: json.RawMessage(`{}`)}, ErrInvalidID},
		{"id with slash", Entity{Kind: KindCompany, ID: "a/b", Data: json.RawMessage(`{}`)}, ErrInvalidID},
		{"broken json", Entity{Kind: KindCompany, ID: "c-1", Data: json.RawMessage(`{broken`)}, ErrInvalidData},
		{"empty data", Entity{Kind: KindCompany, ID: "c-1"}, ErrInvalidData},
	}
	for _, tc := range cases {
		if err := tc.entity.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestValidateIDAllowedCharacters(t *testing.T) {
	for _, id := range []string{"c-1", "a.b", "a_b", "a:b", "UUID-4f2e"} {
		if err := ValidateID(id); err != nil {
			t.Fatalf("expected %q to be valid: %v", id, err)
		}
	}
	for _, id := range []string{"", " ", "a b", "日本語", "a;b"} {
		if err := ValidateID(id); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("expected %q to be invalid", id)
		}
	}
}

func TestEntityKindsAreValidIdentifiers(t *testing.T) {
	kinds := EntityKinds()
	if len(kinds) == 0 {
		t.Fatal("expected registered kinds")
	}
	for _, kind := range kinds {
		if err := ValidateKind(kind); err != nil {
			t.Fatalf("kind %q invalid: %v", kind, err)
		}
	}
}
