package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simwave/cms-go/pages"
)

// PageService is the backend surface the store and save pipeline consume.
// *pages.Client satisfies it; tests substitute fakes.
type PageService interface {
	// GetPage fetches the persisted sections for a slug. A missing page is
	// reported as pages.ErrPageNotFound.
	GetPage(ctx context.Context, slug string) (*pages.Page, error)

	// ListPages fetches summary metadata for every known page.
	ListPages(ctx context.Context) ([]pages.PageSummary, error)

	// UpsertPage replaces the page's section list as one request, creating
	// the page if absent.
	UpsertPage(ctx context.Context, page pages.Page) error
}

// session identifies one edit session. Every Load or Reset rotates the
// token and cancels the previous session's context, which invalidates any
// save still in flight for the old session.
type session struct {
	token  uuid.UUID
	ctx    context.Context
	cancel context.CancelFunc
}

func newSession() session {
	ctx, cancel := context.WithCancel(context.Background())
	return session{token: uuid.New(), ctx: ctx, cancel: cancel}
}

// Store is the single source of truth for the page being edited during one
// session. It is instantiated per edit session; writes are serialized by an
// internal mutex so concurrent editor callbacks keep the
// last-write-wins-per-id guarantee.
type Store struct {
	service  PageService
	registry *Registry
	logger   *zap.Logger

	mu       sync.Mutex
	slug     string
	sections []pages.Section
	loaded   bool
	dirty    bool
	session  session
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the store's logger. Defaults to a no-op logger.
func WithStoreLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates an empty store bound to a page service and a template
// registry.
func NewStore(service PageService, registry *Registry, opts ...StoreOption) *Store {
	s := &Store{
		service:  service,
		registry: registry,
		logger:   zap.NewNop(),
		session:  newSession(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the persisted sections for slug and replaces the in-memory
// document. A missing page starts a fresh empty document scoped to slug.
// Any other failure leaves the prior in-memory state untouched so the
// current session can continue or retry.
func (s *Store) Load(ctx context.Context, slug string) error {
	if slug == "" {
		return errors.New("empty slug")
	}

	page, err := s.service.GetPage(ctx, slug)
	if err != nil {
		if !errors.Is(err, pages.ErrPageNotFound) {
			return fmt.Errorf("loading page %q: %w", slug, err)
		}
		page = &pages.Page{Slug: slug}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.cancel()
	s.session = newSession()
	s.slug = slug
	s.sections = copySections(page.Sections)
	s.loaded = true
	s.dirty = false

	s.logger.Debug("loaded document",
		zap.String("slug", slug),
		zap.Int("sections", len(s.sections)),
	)
	return nil
}

// ListAll fetches summary metadata for every known page. It does not touch
// the currently loaded document.
func (s *Store) ListAll(ctx context.Context) ([]pages.PageSummary, error) {
	summaries, err := s.service.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	return summaries, nil
}

// ReplaceSectionData replaces the data of the section with the given id
// wholesale. This is the sync target every section editor calls on every
// field change; applying by id rather than index keeps edits routed to the
// correct section regardless of reordering, with last-write-wins semantics
// for overlapping writes to the same section.
func (s *Store) ReplaceSectionData(id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sections {
		if s.sections[i].ID == id {
			s.sections[i].Data = deepCopyData(data)
			s.dirty = true
			return nil
		}
	}
	return fmt.Errorf("replacing data for %s: %w", id, ErrSectionNotFound)
}

// AddSection appends a new section with a freshly generated stable id and
// the template's default data, and returns a copy of it.
func (s *Store) AddSection(templateID TemplateID) (pages.Section, error) {
	data, err := s.registry.DefaultData(templateID)
	if err != nil {
		return pages.Section{}, fmt.Errorf("adding section: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return pages.Section{}, ErrNoDocument
	}

	section := pages.Section{
		ID:         uuid.NewString(),
		TemplateID: string(templateID),
		Data:       data,
	}
	s.sections = append(s.sections, section)
	s.dirty = true
	return copySection(section), nil
}

// RemoveSection removes the section with the given id, preserving the order
// of the remaining sections.
func (s *Store) RemoveSection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sections {
		if s.sections[i].ID == id {
			s.sections = append(s.sections[:i], s.sections[i+1:]...)
			s.dirty = true
			return nil
		}
	}
	return fmt.Errorf("removing section %s: %w", id, ErrSectionNotFound)
}

// MoveSection moves the section with the given id to position index,
// shifting the sections in between. Order is significant: it determines
// render order on the published page.
func (s *Store) MoveSection(id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := -1
	for i := range s.sections {
		if s.sections[i].ID == id {
			from = i
			break
		}
	}
	if from == -1 {
		return fmt.Errorf("moving section %s: %w", id, ErrSectionNotFound)
	}
	if index < 0 || index >= len(s.sections) {
		return fmt.Errorf("moving section %s: index %d out of range", id, index)
	}

	section := s.sections[from]
	s.sections = append(s.sections[:from], s.sections[from+1:]...)
	s.sections = append(s.sections[:index], append([]pages.Section{section}, s.sections[index:]...)...)
	s.dirty = true
	return nil
}

// Reset clears the document back to the uninitialized state and rotates
// the session, cancelling any save still in flight for the old session.
// Called when leaving an edit session or starting a new add flow so no data
// leaks across sessions.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.cancel()
	s.session = newSession()
	s.slug = ""
	s.sections = nil
	s.loaded = false
	s.dirty = false
}

// Serialize produces the {slug, sections} payload shape for submission as a
// deep copy. Mutating the returned page never affects the store, which is
// what keeps the in-memory document intact when a save fails mid-way.
func (s *Store) Serialize() pages.Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	return pages.Page{
		Slug:     s.slug,
		Sections: copySections(s.sections),
	}
}

// Loaded reports whether a document is currently loaded.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Dirty reports whether the document has unsaved edits since it was loaded.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Slug returns the slug of the loaded document, or "" when none is loaded.
func (s *Store) Slug() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slug
}

// Section returns a copy of the section with the given id.
func (s *Store) Section(id string) (pages.Section, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sections {
		if s.sections[i].ID == id {
			return copySection(s.sections[i]), true
		}
	}
	return pages.Section{}, false
}

// Sections returns a copy of the ordered section list.
func (s *Store) Sections() []pages.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySections(s.sections)
}

// SessionToken returns the identity of the current edit session.
func (s *Store) SessionToken() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.token
}

// snapshotForSave captures everything a save needs in one critical section:
// the serialized document, the session token the save is tagged with, and
// the session context that cancels the save if the session is superseded.
func (s *Store) snapshotForSave() (pages.Page, session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return pages.Page{}, session{}, ErrNoDocument
	}
	page := pages.Page{
		Slug:     s.slug,
		Sections: copySections(s.sections),
	}
	return page, s.session, nil
}

// markSaved clears the dirty flag if the store still owns the session the
// save was tagged with.
func (s *Store) markSaved(token uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.token == token {
		s.dirty = false
	}
}

func copySections(sections []pages.Section) []pages.Section {
	out := make([]pages.Section, len(sections))
	for i := range sections {
		out[i] = copySection(sections[i])
	}
	return out
}

func copySection(section pages.Section) pages.Section {
	return pages.Section{
		ID:         section.ID,
		TemplateID: section.TemplateID,
		Data:       deepCopyData(section.Data),
	}
}

// deepCopyData copies the JSON-shaped section data (maps, slices, scalars).
// Non-container values, including pending ImageFile handles, are shared.
func deepCopyData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyData(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = deepCopyValue(t[i])
		}
		return out
	default:
		return v
	}
}
