package builder

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/simwave/cms-go/pages"
)

// countingUploader records calls and returns a fixed path.
type countingUploader struct {
	calls int32
	path  string
	err   error
}

func (u *countingUploader) Upload(ctx context.Context, file ImageFile) (string, error) {
	atomic.AddInt32(&u.calls, 1)
	if u.err != nil {
		return "", u.err
	}
	return u.path, nil
}

func TestSave_NoPendingImages(t *testing.T) {
	section := pages.Section{ID: "s1", TemplateID: "template2", Data: stepData("Pick a plan")}
	var submitted *pages.Page
	service := pricingService(section)
	service.upsertPage = func(ctx context.Context, page pages.Page) error {
		submitted = &page
		return nil
	}
	store := NewStore(service, mustRegistry(t))
	if err := store.Load(context.Background(), "pricing"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	editor, err := NewSectionEditor(store, "s1")
	if err != nil {
		t.Fatalf("NewSectionEditor: %v", err)
	}
	if err := editor.SetField("heading", "Choose a plan"); err != nil {
		t.Fatalf("SetField: %v", err)
	}

	uploader := &countingUploader{path: "/uploads/x.png"}
	pipeline := NewSavePipeline(store, service, uploader)

	result, err := pipeline.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if uploader.calls != 0 {
		t.Errorf("uploads = %d, want 0", uploader.calls)
	}
	if result.UploadedImages != 0 || result.Sections != 1 {
		t.Errorf("result = %+v", result)
	}

	want := pages.Page{
		Slug: "pricing",
		Sections: []pages.Section{{
			ID:         "s1",
			TemplateID: "template2",
			Data: map[string]any{
				"stepNumber": "01",
				"heading":    "Choose a plan",
				"description": map[string]any{
					"paragraphs": []any{map[string]any{"id": 1, "content": "x"}},
				},
				"image": "/img/a.png",
			},
		}},
	}
	if submitted == nil {
		t.Fatal("submit endpoint never called")
	}
	if !reflect.DeepEqual(*submitted, want) {
		t.Errorf("submitted = %+v\nwant %+v", *submitted, want)
	}
	if store.Dirty() {
		t.Error("successful save must clear the dirty flag")
	}
}

func TestSave_ResolvesPendingImage(t *testing.T) {
	section := pages.Section{ID: "s1", TemplateID: "template2", Data: stepData("Pick a plan")}
	var submitted *pages.Page
	service := pricingService(section)
	service.upsertPage = func(ctx context.Context, page pages.Page) error {
		submitted = &page
		return nil
	}
	store := NewStore(service, mustRegistry(t))
	if err := store.Load(context.Background(), "pricing"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	editor, err := NewSectionEditor(store, "s1")
	if err != nil {
		t.Fatalf("NewSectionEditor: %v", err)
	}
	if err := editor.SetImage(ImageFile{Name: "banner.png", Content: []byte("img")}); err != nil {
		t.Fatalf("SetImage: %v", err)
	}

	uploader := &countingUploader{path: "/uploads/banner.png"}
	pipeline := NewSavePipeline(store, service, uploader)

	result, err := pipeline.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if uploader.calls != 1 {
		t.Errorf("uploads = %d, want exactly 1", uploader.calls)
	}
	if result.UploadedImages != 1 {
		t.Errorf("UploadedImages = %d, want 1", result.UploadedImages)
	}

	if submitted == nil {
		t.Fatal("submit endpoint never called")
	}
	data := submitted.Sections[0].Data
	if data[FieldImage] != "/uploads/banner.png" {
		t.Errorf("image = %v, want adapter path", data[FieldImage])
	}
	if _, ok := data[FieldImageFile]; ok {
		t.Error("imageFile reached the wire")
	}
	if _, ok := data[FieldImagePreview]; ok {
		t.Error("imagePreview reached the wire")
	}
}

func TestSave_StripsTransientsEvenWithoutUpload(t *testing.T) {
	// A stale preview key with no pending file must still be stripped.
	data := stepData("Pick a plan")
	data[FieldImagePreview] = "local-preview://stale/banner.png"
	section := pages.Section{ID: "s1", TemplateID: "template2", Data: data}

	var submitted *pages.Page
	service := pricingService(section)
	service.upsertPage = func(ctx context.Context, page pages.Page) error {
		submitted = &page
		return nil
	}
	store := NewStore(service, mustRegistry(t))
	if err := store.Load(context.Background(), "pricing"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	uploader := &countingUploader{path: "/uploads/x.png"}
	pipeline := NewSavePipeline(store, service, uploader)
	if _, err := pipeline.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if uploader.calls != 0 {
		t.Errorf("uploads = %d, want 0", uploader.calls)
	}
	if _, ok := submitted.Sections[0].Data[FieldImagePreview]; ok {
		t.Error("stale imagePreview reached the wire")
	}
}

func TestSave_AllOrNothingOnUploadFailure(t *testing.T) {
	one := pages.Section{ID: "one", TemplateID: "template2", Data: stepData("One")}
	twoData := stepData("Two")
	twoData[FieldImageFile] = ImageFile{Name: "b.png", Content: []byte("img")}
	twoData[FieldImagePreview] = "local-preview://x/b.png"
	two := pages.Section{ID: "two", TemplateID: "template2", Data: twoData}
	three := pages.Section{ID: "three", TemplateID: "template2", Data: stepData("Three")}

	service := pricingService(one, two, three)
	service.upsertPage = func(ctx context.Context, page pages.Page) error {
		t.Error("submit endpoint called after a failed upload")
		return nil
	}
	store := NewStore(service, mustRegistry(t))
	if err := store.Load(context.Background(), "pricing"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := store.Serialize()

	uploader := &countingUploader{err: errors.New("disk quota exceeded")}
	pipeline := NewSavePipeline(store, service, uploader)

	_, err := pipeline.Save(context.Background())
	var ue *UploadError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want UploadError", err)
	}
	if ue.SectionID != "two" {
		t.Errorf("failing section = %q, want two", ue.SectionID)
	}

	if got := store.Serialize(); !reflect.DeepEqual(got, before) {
		t.Errorf("failed save mutated the in-memory document")
	}
}

func TestSave_SubmitFailureLeavesDocumentIntact(t *testing.T) {
	section := pages.Section{ID: "s1", TemplateID: "template2", Data: stepData("Pick a plan")}
	service := pricingService(section)
	service.upsertPage = func(ctx context.Context, page pages.Page) error {
		return errors.New("gateway timeout")
	}
	store := NewStore(service, mustRegistry(t))
	if err := store.Load(context.Background(), "pricing"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := store.ReplaceSectionData("s1", stepData("edited")); err != nil {
		t.Fatalf("ReplaceSectionData: %v", err)
	}
	before := store.Serialize()

	pipeline := NewSavePipeline(store, service, &countingUploader{})
	_, err := pipeline.Save(context.Background())
	var se *SubmitError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want SubmitError", err)
	}

	if got := store.Serialize(); !reflect.DeepEqual(got, before) {
		t.Errorf("failed submit mutated the in-memory document")
	}
	if !store.Dirty() {
		t.Error("document must stay dirty after a failed save")
	}
}

func TestSave_ValidationGate(t *testing.T) {
	data := stepData("")
	section := pages.Section{ID: "s1", TemplateID: "template2", Data: data}
	submitCalls := 0
	service := pricingService(section)
	service.upsertPage = func(ctx context.Context, page pages.Page) error {
		submitCalls++
		return nil
	}
	store := NewStore(service, mustRegistry(t))
	if err := store.Load(context.Background(), "pricing"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	uploader := &countingUploader{}
	pipeline := NewSavePipeline(store, service, uploader)

	_, err := pipeline.Save(context.Background())
	var ve *SectionValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want SectionValidationError", err)
	}
	if ve.SectionID != "s1" {
		t.Errorf("SectionID = %q, want s1", ve.SectionID)
	}
	if len(ve.Errors) == 0 {
		t.Error("validation error carries no field errors")
	}
	if submitCalls != 0 || uploader.calls != 0 {
		t.Errorf("gated save still ran: submits=%d uploads=%d", submitCalls, uploader.calls)
	}

	// Opting out of the gate submits the invalid section as-is.
	lenient := NewSavePipeline(store, service, uploader, WithoutValidationGate())
	if _, err := lenient.Save(context.Background()); err != nil {
		t.Fatalf("ungated Save: %v", err)
	}
	if submitCalls != 1 {
		t.Errorf("submits = %d, want 1", submitCalls)
	}
}

func TestSave_SupersededSessionDiscardsResult(t *testing.T) {
	section := pages.Section{ID: "s1", TemplateID: "template2", Data: stepData("Pick a plan")}
	service := pricingService(section)
	var store *Store
	service.upsertPage = func(ctx context.Context, page pages.Page) error {
		// The user navigates away while the submit is in flight.
		store.Reset()
		return nil
	}
	store = NewStore(service, mustRegistry(t))
	if err := store.Load(context.Background(), "pricing"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	pipeline := NewSavePipeline(store, service, &countingUploader{})
	_, err := pipeline.Save(context.Background())
	if !errors.Is(err, ErrSessionSuperseded) {
		t.Errorf("err = %v, want ErrSessionSuperseded", err)
	}
	if store.Loaded() {
		t.Error("late save result must not resurrect a reset store")
	}
}

func TestSave_NoDocument(t *testing.T) {
	store := NewStore(&fakeService{}, mustRegistry(t))
	pipeline := NewSavePipeline(store, &fakeService{}, &countingUploader{})
	if _, err := pipeline.Save(context.Background()); !errors.Is(err, ErrNoDocument) {
		t.Errorf("err = %v, want ErrNoDocument", err)
	}
}

func TestSave_ConcurrentUploadsAllResolve(t *testing.T) {
	var sections []pages.Section
	for i := 0; i < 6; i++ {
		data := stepData(fmt.Sprintf("Section %d", i))
		data[FieldImageFile] = ImageFile{Name: fmt.Sprintf("img-%d.png", i), Content: []byte("img")}
		sections = append(sections, pages.Section{
			ID:         fmt.Sprintf("s%d", i),
			TemplateID: "template2",
			Data:       data,
		})
	}
	var submitted *pages.Page
	service := pricingService(sections...)
	service.upsertPage = func(ctx context.Context, page pages.Page) error {
		submitted = &page
		return nil
	}
	store := NewStore(service, mustRegistry(t))
	if err := store.Load(context.Background(), "pricing"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	uploader := UploadFunc(func(ctx context.Context, file ImageFile) (string, error) {
		return "/uploads/" + file.Name, nil
	})

	pipeline := NewSavePipeline(store, service, uploader, WithMaxConcurrentUploads(2))
	result, err := pipeline.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if result.UploadedImages != 6 {
		t.Errorf("UploadedImages = %d, want 6", result.UploadedImages)
	}
	for i, s := range submitted.Sections {
		want := fmt.Sprintf("/uploads/img-%d.png", i)
		if s.Data[FieldImage] != want {
			t.Errorf("section %s image = %v, want %s", s.ID, s.Data[FieldImage], want)
		}
		if _, ok := s.Data[FieldImageFile]; ok {
			t.Errorf("section %s: imageFile reached the wire", s.ID)
		}
	}
}
