// internal/schema/validator.go
// Package schema provides JSON schema validation for request payloads. It
// rejects malformed create/update requests before they reach the collection
// store.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SupportedPayloads lists all payload kinds that can be validated.
var SupportedPayloads = map[string]bool{
	"content":   true, // Content item create/update requests
	"community": true, // Community create requests
	"playlist":  true, // Playlist create requests
	"report":    true, // Report filing requests
	"campaign":  true, // Ad campaign create requests
	"profile":   true, // Profile details update requests
	"block":     true, // Block list entries
}

// Validator validates request payloads against JSON schemas.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidator creates a validator with all payload schemas compiled.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	if err := v.loadSchemas(); err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	return v, nil
}

func (v *Validator) loadSchemas() error {
	// Content items need a title; everything else on them is optional and
	// the thumbnail is an opaque reference.
	contentSchema := `{"type":"object","required":["title"],"properties":{"title":{"type":"string","minLength":1,"maxLength":256},"description":{"type":"string","maxLength":4096},"thumbnail":{"type":"string"},"isShort":{"type":"boolean"},"communityName":{"type":"string","maxLength":128}}}`
	if err := v.loadSchema("content", contentSchema); err != nil {
		return fmt.Errorf("failed to load content schema: %w", err)
	}

	communitySchema := `{"type":"object","required":["name"],"properties":{"name":{"type":"string","minLength":1,"maxLength":128},"description":{"type":"string","maxLength":2048}}}`
	if err := v.loadSchema("community", communitySchema); err != nil {
		return fmt.Errorf("failed to load community schema: %w", err)
	}

	playlistSchema := `{"type":"object","required":["name"],"properties":{"name":{"type":"string","minLength":1,"maxLength":128}}}`
	if err := v.loadSchema("playlist", playlistSchema); err != nil {
		return fmt.Errorf("failed to load playlist schema: %w", err)
	}

	reportSchema := `{"type":"object","required":["videoId","reason"],"properties":{"videoId":{"type":"string","minLength":1},"reason":{"type":"string","minLength":1,"maxLength":1024}}}`
	if err := v.loadSchema("report", reportSchema); err != nil {
		return fmt.Errorf("failed to load report schema: %w", err)
	}

	campaignSchema := `{"type":"object","required":["name","kind"],"properties":{"name":{"type":"string","minLength":1,"maxLength":128},"kind":{"type":"string","enum":["skippable","unskippable"]},"videoId":{"type":"string"}}}`
	if err := v.loadSchema("campaign", campaignSchema); err != nil {
		return fmt.Errorf("failed to load campaign schema: %w", err)
	}

	profileSchema := `{"type":"object","properties":{"city":{"type":"string","maxLength":128},"state":{"type":"string","maxLength":128},"country":{"type":"string","maxLength":128}}}`
	if err := v.loadSchema("profile", profileSchema); err != nil {
		return fmt.Errorf("failed to load profile schema: %w", err)
	}

	blockSchema := `{"type":"object","required":["email","type"],"properties":{"email":{"type":"string","minLength":3,"maxLength":256},"type":{"type":"string","enum":["permanent","temporary"]},"expiresAt":{"type":"string"}}}`
	if err := v.loadSchema("block", blockSchema); err != nil {
		return fmt.Errorf("failed to load block schema: %w", err)
	}

	return nil
}

func (v *Validator) loadSchema(kind, schemaJSON string) error {
	loader := gojsonschema.NewStringLoader(schemaJSON)
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return fmt.Errorf("invalid schema for %s: %w", kind, err)
	}
	v.schemas[kind] = schema
	return nil
}

// Validate checks a payload against the schema for its kind. It returns nil
// when the payload conforms and an error describing every violation when it
// does not.
func (v *Validator) Validate(kind string, payload map[string]interface{}) error {
	if !SupportedPayloads[kind] {
		return fmt.Errorf("unsupported payload kind: %s", kind)
	}

	schema, exists := v.schemas[kind]
	if !exists {
		return fmt.Errorf("schema not found for kind: %s", kind)
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payloadJSON))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
