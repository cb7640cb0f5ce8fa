package usecase

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// SchemaService validates entity payloads against the JSON Schema embedded
// for their kind. Kinds without a schema file pass validation unchecked.
type SchemaService struct {
	cache sync.Map // entity kind → *santhosh.Schema
}

func NewSchemaService() *SchemaService {
	return &SchemaService{}
}

func (s *SchemaService) Validate(kind string, data json.RawMessage) error {
	compiled, err := s.schemaFor(kind)
	if err != nil {
		return err
	}
	if compiled == nil {
		return nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return &domain.ErrSchemaViolation{Errors: collectValidationErrors(ve)}
		}
		return &domain.ErrSchemaViolation{Errors: []string{err.Error()}}
	}
	return nil
}

func (s *SchemaService) schemaFor(kind string) (*santhosh.Schema, error) {
	if cached, ok := s.cache.Load(kind); ok {
		return cached.(*santhosh.Schema), nil
	}

	raw, err := schemaFS.ReadFile("schemas/" + kind + ".json")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.cache.Store(kind, (*santhosh.Schema)(nil))
			return nil, nil
		}
		return nil, fmt.Errorf("read schema for %s: %w", kind, err)
	}

	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema for %s: %w", kind, err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", kind, err)
	}

	s.cache.Store(kind, compiled)
	return compiled, nil
}

func collectValidationErrors(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectValidationErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}
