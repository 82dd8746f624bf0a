/*
Copyright 2026 The Simwave Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pages

import "time"

// Section is one editable block of a CMS page. TemplateID selects the
// section's field shape; Data holds the template-specific payload.
type Section struct {
	// ID is the stable identifier assigned at creation time. It is the
	// synchronization key between an editor instance and the document
	// store and is never reassigned.
	ID string `json:"id"`

	// TemplateID selects which schema and editor variant governs this
	// section. Immutable after creation; changing template means removing
	// the section and adding a new one.
	TemplateID string `json:"templateId"`

	// Data maps field name to value. Its shape is fully determined by
	// TemplateID. During editing it may carry the transient pending-image
	// fields, which must never reach the wire.
	Data map[string]any `json:"data"`
}

// Page is the full ordered set of sections for one slug. Section order is
// significant: it determines render order on the published page.
type Page struct {
	Slug     string    `json:"slug"`
	Sections []Section `json:"sections"`
}

// PageSummary is the directory-view metadata for a page.
type PageSummary struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// pageEnvelope is the wire shape of GET /pages/{slug}.
type pageEnvelope struct {
	Slug     string    `json:"slug,omitempty"`
	Sections []Section `json:"sections"`
}

// pageListEnvelope is the wire shape of GET /pages.
type pageListEnvelope struct {
	Pages []PageSummary `json:"pages"`
}

// upsertRequest is the wire shape of PUT /pages/{slug}.
type upsertRequest struct {
	Sections []Section `json:"sections"`
}
