// Package validate checks raw portal session records against an embedded JSON schema
// before they are decoded into domain sessions.
package validate

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"sessionwatch/internal/domain"
)

//go:embed schemas/raw_session.schema.json
var rawSessionSchema []byte

// requiredStrings lists the required string fields in the order they are reported.
var requiredStrings = []string{
	"sessionUid",
	"sessionType",
	"thirdPartyID",
	"trackName",
	"scheduleTrackUid",
	"description",
	"scheduleUid",
	"title",
}

// Validator validates raw session records.
type Validator struct {
	schema *jsonschema.Schema
}

// New compiles the embedded raw session schema.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(rawSessionSchema)
	if err != nil {
		return nil, fmt.Errorf("compile raw session schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// RawSession validates one raw record. Failures are returned as *domain.ValidationError.
func (v *Validator) RawSession(data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return &domain.ValidationError{Reason: fmt.Sprintf("not a JSON object: %v", err)}
	}

	result := v.schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}

	id, _ := doc["sessionUid"].(string)
	return &domain.ValidationError{
		SessionID: id,
		Field:     firstInvalidField(doc),
		Reason:    fmt.Sprintf("schema validation failed: %s", describe(result.Errors)),
	}
}

// firstInvalidField names the first required field that is missing or mistyped,
// or "" when the failure lies elsewhere.
func firstInvalidField(doc map[string]any) string {
	for _, name := range requiredStrings {
		if s, ok := doc[name].(string); !ok || (name == "sessionUid" && s == "") {
			return name
		}
	}
	tags, ok := doc["tags"].([]any)
	if !ok {
		return "tags"
	}
	for i, raw := range tags {
		tag, ok := raw.(map[string]any)
		if !ok {
			return fmt.Sprintf("tags[%d]", i)
		}
		for _, name := range []string{"scheduleTagUid", "tagName", "parentTagName", "parentTagUid"} {
			if _, ok := tag[name].(string); !ok {
				return fmt.Sprintf("tags[%d].%s", i, name)
			}
		}
	}
	return ""
}

func describe[E any](errs map[string]E) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, errs[k]))
	}
	return strings.Join(parts, "; ")
}
