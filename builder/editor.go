package builder

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/simwave/cms-go/pages"
)

// SectionEditor keeps one section's local editable state mirrored into the
// document store. It is the explicit controller behind whatever form
// mechanism renders the section: every field change syncs the entire
// current values object to the store, keyed by section id.
//
// An editor belongs to a single UI owner and is not safe for concurrent
// use; the store it syncs into serializes writes itself.
type SectionEditor struct {
	store      *Store
	registry   *Registry
	sectionID  string
	templateID TemplateID
	hydrated   bool
	values     map[string]any
	validation *ValidationResult
}

// NewSectionEditor creates an editor for the section with the given id and
// hydrates it from the section's current data.
func NewSectionEditor(store *Store, sectionID string) (*SectionEditor, error) {
	e := &SectionEditor{
		store:     store,
		registry:  store.registry,
		sectionID: sectionID,
	}
	if err := e.Hydrate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Hydrate initializes local form state from the section's current store
// data. It runs at most once per editor: re-hydrating on later store
// updates would clobber user keystrokes with the store's own echo of a
// previous sync.
func (e *SectionEditor) Hydrate() error {
	if e.hydrated {
		return nil
	}
	section, ok := e.store.Section(e.sectionID)
	if !ok {
		return fmt.Errorf("hydrating editor for %s: %w", e.sectionID, ErrSectionNotFound)
	}
	e.templateID = TemplateID(section.TemplateID)
	e.values = section.Data
	if e.values == nil {
		e.values = make(map[string]any)
	}
	e.hydrated = true
	e.validate()
	return nil
}

// SectionID returns the id of the section this editor is bound to.
func (e *SectionEditor) SectionID() string { return e.sectionID }

// TemplateID returns the template governing this editor's section.
func (e *SectionEditor) TemplateID() TemplateID { return e.templateID }

// SetField updates one field and syncs the whole values object into the
// store. Validation runs first but is advisory: invalid values still sync,
// so the store always holds the latest attempted state; validity is
// re-checked by the save pipeline before submission.
func (e *SectionEditor) SetField(name string, value any) error {
	e.values[name] = deepCopyValue(value)
	e.validate()
	return e.sync()
}

// SetImage records a locally selected image. The selection is purely local
// until save: no upload happens here, which defers cost and avoids orphaned
// uploads for edits the user later discards. The pending file and its
// preview URL shadow any persisted image path for display.
func (e *SectionEditor) SetImage(file ImageFile) error {
	e.values[FieldImageFile] = file
	e.values[FieldImagePreview] = previewURL(file.Name)
	e.validate()
	return e.sync()
}

// ClearImage discards a pending image selection, reverting display to the
// persisted image path, if any.
func (e *SectionEditor) ClearImage() error {
	delete(e.values, FieldImageFile)
	delete(e.values, FieldImagePreview)
	e.validate()
	return e.sync()
}

// DisplayImage returns the URL to display for the section's image field.
// A pending preview takes precedence over the persisted path.
func (e *SectionEditor) DisplayImage(baseURL string) string {
	if preview, ok := e.values[FieldImagePreview].(string); ok && preview != "" {
		return preview
	}
	persisted, _ := e.values[FieldImage].(string)
	return pages.ResolveImageURL(baseURL, persisted)
}

// AppendParagraph appends an entry with a fresh stable id to the named
// paragraph group field (e.g. "description") and syncs.
func (e *SectionEditor) AppendParagraph(groupField, content string) error {
	group, ok := e.values[groupField].(map[string]any)
	if !ok {
		group = make(map[string]any)
		e.values[groupField] = group
	}
	entries, _ := group["paragraphs"].([]any)
	group["paragraphs"] = append(entries, map[string]any{
		"id":      uuid.NewString(),
		"content": content,
	})
	e.validate()
	return e.sync()
}

// RemoveParagraph removes the entry with the given id from the named
// paragraph group field and syncs. Removing below the group's minimum count
// is allowed here; the schema violation shows up in FieldErrors and blocks
// a gated save.
func (e *SectionEditor) RemoveParagraph(groupField string, entryID any) error {
	group, ok := e.values[groupField].(map[string]any)
	if !ok {
		return nil
	}
	entries, _ := group["paragraphs"].([]any)
	kept := make([]any, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if ok && idEqual(m["id"], entryID) {
			continue
		}
		kept = append(kept, entry)
	}
	group["paragraphs"] = kept
	e.validate()
	return e.sync()
}

// Values returns a copy of the current local form values.
func (e *SectionEditor) Values() map[string]any {
	return deepCopyData(e.values)
}

// Valid reports the advisory validation state of the current values.
func (e *SectionEditor) Valid() bool {
	return e.validation == nil || e.validation.Valid
}

// FieldErrors returns the current advisory validation errors, if any.
func (e *SectionEditor) FieldErrors() []ValidationError {
	if e.validation == nil {
		return nil
	}
	return append([]ValidationError(nil), e.validation.Errors...)
}

// sync emits the entire current values object to the store. Full-object
// replace, not a per-field patch: redundant writes are cheap because the
// store write is O(1) by id.
func (e *SectionEditor) sync() error {
	return e.store.ReplaceSectionData(e.sectionID, e.values)
}

func (e *SectionEditor) validate() {
	result, err := e.registry.Validate(e.templateID, e.values)
	if err != nil {
		e.validation = &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "templateId", Message: err.Error()}},
		}
		return
	}
	e.validation = result
}

// idEqual compares group entry ids loosely: legacy documents carry numeric
// ids which decode as float64, new entries use uuid strings.
func idEqual(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}
