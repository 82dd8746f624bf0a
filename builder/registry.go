// Package builder implements the in-memory editing model for the CMS page
// builder: the document store for one edit session, the section editor
// synchronization contract, the template schema registry and the save
// pipeline that resolves pending images and submits the finalized document.
package builder

import (
	"fmt"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonschema"
)

// TemplateID discriminates which schema and editor variant governs a
// section.
type TemplateID string

// Built-in section templates. The ids are part of the persisted document
// format and must not change.
const (
	// Template1 is a hero banner: heading, subheading, image.
	Template1 TemplateID = "template1"
	// Template2 is a numbered step: step number, heading, paragraph group,
	// image.
	Template2 TemplateID = "template2"
	// Template3 is a plain text block: heading plus paragraph group.
	Template3 TemplateID = "template3"
	// Template4 is a feature list: heading plus repeatable items.
	Template4 TemplateID = "template4"
	// Template5 renders the feature list in an alternate layout; its data
	// shape is identical to Template4.
	Template5 TemplateID = "template5"
	// Template6 is a call-to-action banner: heading, button text and link,
	// image.
	Template6 TemplateID = "template6"
)

// ValidationError represents a single validation error from section schema
// validation.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationResult contains the results of section validation.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// DefaultDataFunc produces schema-appropriate default data for a freshly
// added section. It is called per section so repeatable-group entries get
// fresh ids.
type DefaultDataFunc func() map[string]any

type registryEntry struct {
	schema   *jsonschema.Schema
	defaults DefaultDataFunc
}

// Registry maps a template id to the declarative schema describing that
// section's editable fields, plus default data for new sections. Lookups
// are pure; a Registry is safe for concurrent readers after construction.
type Registry struct {
	compiler *jsonschema.Compiler
	entries  map[TemplateID]*registryEntry
}

// NewRegistry creates an empty registry. Use this to build a custom
// template catalog; most callers want DefaultRegistry.
func NewRegistry() *Registry {
	compiler := jsonschema.NewCompiler()
	compiler.WithDecoderJSON(sonic.Unmarshal)
	compiler.WithEncoderJSON(sonic.Marshal)
	return &Registry{
		compiler: compiler,
		entries:  make(map[TemplateID]*registryEntry),
	}
}

// DefaultRegistry creates a registry with all built-in templates
// registered.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	for _, t := range builtinTemplates {
		if err := r.Register(t.id, []byte(t.schema), t.defaults); err != nil {
			return nil, fmt.Errorf("registering %s: %w", t.id, err)
		}
	}
	// Template5 presents the same shape as Template4 with a different
	// layout, so they share one schema.
	if err := r.RegisterAlias(Template5, Template4); err != nil {
		return nil, err
	}
	return r, nil
}

// Register compiles schemaJSON and adds a template to the registry,
// replacing any previous entry for the id.
func (r *Registry) Register(id TemplateID, schemaJSON []byte, defaults DefaultDataFunc) error {
	schema, err := r.compiler.Compile(schemaJSON)
	if err != nil {
		return fmt.Errorf("compiling schema for %s: %w", id, err)
	}
	r.entries[id] = &registryEntry{schema: schema, defaults: defaults}
	return nil
}

// RegisterAlias registers id with the schema and defaults of an existing
// template. Used for structural aliasing, where two templates share a shape
// but render differently.
func (r *Registry) RegisterAlias(id, of TemplateID) error {
	entry, ok := r.entries[of]
	if !ok {
		return fmt.Errorf("aliasing %s to %s: %w", id, of, ErrUnknownTemplate)
	}
	r.entries[id] = entry
	return nil
}

// Templates returns the registered template ids in stable order.
func (r *Registry) Templates() []TemplateID {
	ids := make([]TemplateID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Known reports whether a template id has a registry entry.
func (r *Registry) Known(id TemplateID) bool {
	_, ok := r.entries[id]
	return ok
}

// DefaultData returns schema-appropriate default data for a new section of
// the given template.
func (r *Registry) DefaultData(id TemplateID) (map[string]any, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownTemplate)
	}
	return entry.defaults(), nil
}

// Validate validates section data against the template's schema. Transient
// pending-image fields are not part of any schema and are ignored.
func (r *Registry) Validate(id TemplateID, data map[string]any) (*ValidationResult, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownTemplate)
	}

	checked := make(map[string]any, len(data))
	for k, v := range data {
		if k == FieldImageFile || k == FieldImagePreview {
			continue
		}
		checked[k] = v
	}

	result := entry.schema.ValidateMap(checked)

	validationResult := &ValidationResult{
		Valid: result.IsValid(),
	}
	if !result.IsValid() {
		validationResult.Errors = make([]ValidationError, 0, len(result.Errors))
		for field, e := range result.Errors {
			validationResult.Errors = append(validationResult.Errors, ValidationError{
				Field:   field,
				Message: e.Message,
			})
		}
	}
	return validationResult, nil
}
