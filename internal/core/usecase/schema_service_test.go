package usecase

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
)

func TestSchemaServiceValidPayload(t *testing.T) {
	svc := NewSchemaService()
	data := json.RawMessage(`{"name":"株式会社テスト","employeeCount":12,"billingFlag":true}`)
	if err := svc.Validate(domain.KindCompany, data); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSchemaServiceMissingRequiredField(t *testing.T) {
	svc := NewSchemaService()
	err := svc.Validate(domain.KindCompany, json.RawMessage(`{"employeeCount":12}`))
	var violation *domain.ErrSchemaViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
	if len(violation.Errors) == 0 {
		t.Fatal("expected at least one violation detail")
	}
}

func TestSchemaServiceWrongFieldType(t *testing.T) {
	svc := NewSchemaService()
	err := svc.Validate(domain.KindCompany, json.RawMessage(`{"name":"x","billingFlag":"yes"}`))
	var violation *domain.ErrSchemaViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
}

func TestSchemaServiceStatusEnum(t *testing.T) {
	svc := NewSchemaService()
	if err := svc.Validate(domain.KindSalesOpportunity, json.RawMessage(`{"name":"案件A","status":"won"}`)); err != nil {
		t.Fatalf("validate: %v", err)
	}
	err := svc.Validate(domain.KindSalesOpportunity, json.RawMessage(`{"name":"案件A","status":"shipped"}`))
	var violation *domain.ErrSchemaViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
}

func TestSchemaServiceUnknownKindPasses(t *testing.T) {
	svc := NewSchemaService()
	if err := svc.Validate("Unmodeled", json.RawMessage(`{"anything":true}`)); err != nil {
		t.Fatalf("unknown kind should pass unchecked, got %v", err)
	}
}
