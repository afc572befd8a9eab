package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
	"github.com/oksasatya/vitrine-empreendedores/internal/infrastructure/memory"
	"github.com/oksasatya/vitrine-empreendedores/pkg/helpers"
	"github.com/oksasatya/vitrine-empreendedores/pkg/mailer"
	mailtpl "github.com/oksasatya/vitrine-empreendedores/pkg/mailer/templates"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type mockCache struct {
	getFn func(ctx context.Context) ([]entity.Category, bool, error)
	setFn func(ctx context.Context, cats []entity.Category) error
}

func (m *mockCache) Get(ctx context.Context) ([]entity.Category, bool, error) { return m.getFn(ctx) }
func (m *mockCache) Set(ctx context.Context, cats []entity.Category) error    { return m.setFn(ctx, cats) }

type mockIndex struct {
	putFn     func(ctx context.Context, e *entity.Entrepreneur) error
	removeFn  func(ctx context.Context, id int64) error
	suggestFn func(ctx context.Context, q string, size int) ([]entity.Suggestion, error)
}

func (m *mockIndex) Put(ctx context.Context, e *entity.Entrepreneur) error { return m.putFn(ctx, e) }
func (m *mockIndex) Remove(ctx context.Context, id int64) error            { return m.removeFn(ctx, id) }
func (m *mockIndex) Suggest(ctx context.Context, q string, size int) ([]entity.Suggestion, error) {
	return m.suggestFn(ctx, q, size)
}

type mockQueue struct {
	jobs []mailer.EmailJob
	err  error
}

func (m *mockQueue) PublishJSON(ctx context.Context, body any) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, body.(mailer.EmailJob))
	return nil
}

type mockPhotos struct {
	uploadFn func(ctx context.Context, photo []byte, contentType string) (string, error)
}

func (m *mockPhotos) Upload(ctx context.Context, photo []byte, contentType string) (string, error) {
	return m.uploadFn(ctx, photo, contentType)
}

func newTestService() (*Service, *memory.DB) {
	db := memory.New(memory.DefaultCategories()...)
	svc := NewService(db, db, nil)
	svc.Now = func() time.Time { return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC) }
	return svc, db
}

func padariaSol() RegisterInput {
	return RegisterInput{
		ProfileInput: ProfileInput{
			Name:             "Padaria Sol",
			ShortDescription: "Pão fresco",
			WhatsApp:         "11999999999",
			Email:            "sol@x.com",
			CategoryIDs:      []int64{1, 2},
		},
		Password: "segredo1",
	}
}

func register(t *testing.T, svc *Service, in RegisterInput) *entity.Entrepreneur {
	t.Helper()
	e, err := svc.Register(context.Background(), in, RequestMeta{IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return e
}

func TestRegister_StoresHashAndResolvesCategories(t *testing.T) {
	svc, db := newTestService()
	e := register(t, svc, padariaSol())

	if e.ID != 1 || e.Name != "Padaria Sol" || e.WhatsApp != 11999999999 {
		t.Errorf("unexpected entrepreneur %+v", e)
	}
	if len(e.Categories) != 2 || e.Categories[0].ID != 1 || e.Categories[1].ID != 2 {
		t.Errorf("unexpected categories %+v", e.Categories)
	}
	stored, _ := db.GetByID(context.Background(), e.ID)
	if stored.Password == "segredo1" || !helpers.IsBcryptHash(stored.Password) {
		t.Error("password must be stored as a bcrypt hash")
	}
	audit := db.AuditEntries()
	if len(audit) != 1 || audit[0].Action != ActionRegister || audit[0].IP != "10.0.0.1" {
		t.Errorf("unexpected audit %+v", audit)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, db := newTestService()
	in := padariaSol()
	in.Name = "   "
	in.WhatsApp = "123456789012"
	in.Password = "123"
	in.CategoryIDs = []int64{1, 99}

	_, err := svc.Register(context.Background(), in, RequestMeta{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, f := range []string{"nome", "whatsapp", "senha", "categorias"} {
		if verr.FieldErrors[f] == "" {
			t.Errorf("expected error for %s, got %v", f, verr.FieldErrors)
		}
	}
	if all, _ := db.ListAll(context.Background()); len(all) != 0 {
		t.Error("nothing should be stored on validation failure")
	}
}

func TestRegister_RequiresACategory(t *testing.T) {
	svc, _ := newTestService()
	in := padariaSol()
	in.CategoryIDs = nil
	_, err := svc.Register(context.Background(), in, RequestMeta{})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.FieldErrors["categorias"] == "" {
		t.Fatalf("expected categorias error, got %v", err)
	}
}

func TestRegister_PhotoChecks(t *testing.T) {
	svc, _ := newTestService()
	svc.MaxPhotoBytes = 32

	in := padariaSol()
	in.Photo = []byte("just some text, not an image")
	_, err := svc.Register(context.Background(), in, RequestMeta{})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.FieldErrors["foto"] != "must be an image" {
		t.Fatalf("expected image error, got %v", err)
	}

	in.Photo = append(append([]byte{}, pngHeader...), make([]byte, 64)...)
	_, err = svc.Register(context.Background(), in, RequestMeta{})
	if !errors.As(err, &verr) || verr.FieldErrors["foto"] != "must be at most 32 bytes" {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	register(t, svc, padariaSol())
	in := padariaSol()
	in.Email = "SOL@x.com"
	if _, err := svc.Register(context.Background(), in, RequestMeta{}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_SideEffects(t *testing.T) {
	svc, _ := newTestService()
	var indexed []int64
	svc.Index = &mockIndex{putFn: func(ctx context.Context, e *entity.Entrepreneur) error {
		indexed = append(indexed, e.ID)
		return errors.New("es down")
	}}
	queue := &mockQueue{}
	svc.Mail = queue
	svc.Links = mailtpl.Links{AppName: "Vitrine", BaseURL: "https://vitrine.test"}
	svc.Photos = &mockPhotos{uploadFn: func(ctx context.Context, photo []byte, ct string) (string, error) {
		if ct != "image/png" {
			t.Errorf("expected sniffed content type, got %q", ct)
		}
		return "https://storage.googleapis.com/b/fotos/x.png", nil
	}}

	in := padariaSol()
	in.Photo = pngHeader
	e := register(t, svc, in)

	if len(indexed) != 1 || indexed[0] != e.ID {
		t.Errorf("expected entrepreneur indexed once, got %v", indexed)
	}
	if e.PhotoURL != "https://storage.googleapis.com/b/fotos/x.png" {
		t.Errorf("expected mirrored photo url, got %q", e.PhotoURL)
	}
	if len(queue.jobs) != 1 || queue.jobs[0].Template != mailtpl.Welcome || queue.jobs[0].To != "sol@x.com" {
		t.Fatalf("expected welcome email, got %+v", queue.jobs)
	}
	if queue.jobs[0].Data["ProfileURL"] != "https://vitrine.test/empreendedores/1" {
		t.Errorf("unexpected profile url %v", queue.jobs[0].Data["ProfileURL"])
	}
}

func TestRegister_PhotoUploadFailureKeepsBlob(t *testing.T) {
	svc, db := newTestService()
	svc.Photos = &mockPhotos{uploadFn: func(context.Context, []byte, string) (string, error) {
		return "", errors.New("bucket missing")
	}}
	in := padariaSol()
	in.Photo = pngHeader
	e := register(t, svc, in)
	stored, _ := db.GetByID(context.Background(), e.ID)
	if !stored.HasPhoto() || stored.PhotoURL != "" {
		t.Errorf("expected stored blob without url, got url=%q photo=%d", stored.PhotoURL, len(stored.Photo))
	}
}

func TestLogin(t *testing.T) {
	svc, db := newTestService()
	e := register(t, svc, padariaSol())
	ctx := context.Background()

	got, err := svc.Login(ctx, " sol@x.com ", "segredo1", RequestMeta{})
	if err != nil || got.ID != e.ID {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if _, err := svc.Login(ctx, "sol@x.com", "errada", RequestMeta{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ninguem@x.com", "segredo1", RequestMeta{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}

	actions := map[string]int{}
	for _, a := range db.AuditEntries() {
		actions[a.Action]++
	}
	if actions[ActionLogin] != 1 || actions[ActionLoginFailed] != 2 {
		t.Errorf("unexpected audit actions %v", actions)
	}
}

func TestLogin_UpgradesLegacyPlaintext(t *testing.T) {
	svc, db := newTestService()
	ctx := context.Background()
	id, err := db.Create(ctx, entity.EntrepreneurFields{Name: "Antiga", Email: "old@x.com", Password: "segredo1"}, []int64{1})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(ctx, "old@x.com", "segredo1", RequestMeta{}); err != nil {
		t.Fatalf("legacy login failed: %v", err)
	}
	stored, _ := db.GetByID(ctx, id)
	if !helpers.IsBcryptHash(stored.Password) {
		t.Fatal("legacy password must be rehashed after login")
	}
	if _, err := svc.Login(ctx, "old@x.com", "segredo1", RequestMeta{}); err != nil {
		t.Errorf("login after rehash failed: %v", err)
	}
}

func TestCurrent_DeletedAccountIsNotFound(t *testing.T) {
	svc, db := newTestService()
	e := register(t, svc, padariaSol())
	_ = db.Delete(context.Background(), e.ID)
	if _, err := svc.Current(context.Background(), e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	in := padariaSol()
	in.Photo = pngHeader
	e := register(t, svc, in)

	upd := in.ProfileInput
	upd.Name = "Padaria Sol Nascente"
	upd.Photo = nil
	upd.CategoryIDs = []int64{3, 4}

	if _, err := svc.Update(ctx, e.ID+1, e.ID, upd, RequestMeta{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another actor, got %v", err)
	}

	got, err := svc.Update(ctx, e.ID, e.ID, upd, RequestMeta{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Padaria Sol Nascente" || !got.HasPhoto() {
		t.Errorf("expected renamed entrepreneur with kept photo, got %+v", got)
	}
	if ids := got.CategoryIDs(); len(ids) != 2 || ids[0] != 3 || ids[1] != 4 {
		t.Errorf("expected categories [3 4], got %v", ids)
	}
}

func TestUpdate_EmailTakenAndMissing(t *testing.T) {
	svc, db := newTestService()
	ctx := context.Background()
	a := register(t, svc, padariaSol())
	other := padariaSol()
	other.Email = "lua@x.com"
	register(t, svc, other)

	upd := padariaSol().ProfileInput
	upd.Email = "lua@x.com"
	if _, err := svc.Update(ctx, a.ID, a.ID, upd, RequestMeta{}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	_ = db.Delete(ctx, a.ID)
	if _, err := svc.Update(ctx, a.ID, a.ID, padariaSol().ProfileInput, RequestMeta{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, db := newTestService()
	ctx := context.Background()
	var removed []int64
	svc.Index = &mockIndex{
		putFn:    func(context.Context, *entity.Entrepreneur) error { return nil },
		removeFn: func(_ context.Context, id int64) error { removed = append(removed, id); return nil },
	}
	queue := &mockQueue{}
	svc.Mail = queue
	e := register(t, svc, padariaSol())

	if err := svc.Delete(ctx, 99, e.ID, RequestMeta{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, e.ID, e.ID, RequestMeta{}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if db.AssociationCount(e.ID) != 0 {
		t.Error("associations must be removed with the entrepreneur")
	}
	if len(removed) != 1 || removed[0] != e.ID {
		t.Errorf("expected index removal, got %v", removed)
	}
	last := queue.jobs[len(queue.jobs)-1]
	if last.Template != mailtpl.AccountRemoved || last.Data["Time"] != "01/04/2026 10:00 UTC" {
		t.Errorf("unexpected removal email %+v", last)
	}
	if err := svc.Delete(ctx, e.ID, e.ID, RequestMeta{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestBrowse(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := padariaSol()
	a.CategoryIDs = []int64{1, 2}
	register(t, svc, a)
	b := padariaSol()
	b.Name, b.Email, b.ShortDescription, b.CategoryIDs = "Ateliê Lua", "lua@x.com", "Bolsas", []int64{2}
	register(t, svc, b)
	c := padariaSol()
	c.Name, c.Email, c.ShortDescription, c.CategoryIDs = "Consertos Zé", "ze@x.com", "Reparos", []int64{5}
	register(t, svc, c)

	res, _ := svc.Browse(ctx, "  pão ", []int64{5})
	if len(res) != 1 || res[0].Name != "Padaria Sol" {
		t.Errorf("query must win over categories, got %d results", len(res))
	}
	res, _ = svc.Browse(ctx, " ", []int64{2, 1, 5})
	if len(res) != 3 {
		t.Fatalf("expected union of 3, got %d", len(res))
	}
	if res[0].Name != "Ateliê Lua" || res[1].Name != "Padaria Sol" || res[2].Name != "Consertos Zé" {
		t.Errorf("expected first-seen order, got %s, %s, %s", res[0].Name, res[1].Name, res[2].Name)
	}
	res, _ = svc.Browse(ctx, "", nil)
	if len(res) != 3 || res[0].Name != "Ateliê Lua" {
		t.Errorf("expected full listing by name, got %d results", len(res))
	}
}

func TestListCategories_Cache(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	var stored []entity.Category
	svc.Categories = &mockCache{
		getFn: func(context.Context) ([]entity.Category, bool, error) { return stored, stored != nil, nil },
		setFn: func(_ context.Context, cats []entity.Category) error { stored = cats; return nil },
	}

	first, err := svc.ListCategories(ctx)
	if err != nil || len(first) != 8 {
		t.Fatalf("expected 8 categories, got %d (%v)", len(first), err)
	}
	if len(stored) != 8 {
		t.Fatal("expected cache to be filled on miss")
	}
	stored = []entity.Category{{ID: 1, Name: "cached"}}
	again, _ := svc.ListCategories(ctx)
	if len(again) != 1 || again[0].Name != "cached" {
		t.Errorf("expected cached categories, got %+v", again)
	}

	svc.Categories = &mockCache{
		getFn: func(context.Context) ([]entity.Category, bool, error) { return nil, false, errors.New("redis down") },
		setFn: func(context.Context, []entity.Category) error { return errors.New("redis down") },
	}
	if cats, err := svc.ListCategories(ctx); err != nil || len(cats) != 8 {
		t.Errorf("cache failures must fall back to storage, got %d (%v)", len(cats), err)
	}
}

func TestSuggest(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	register(t, svc, padariaSol())

	if out, _ := svc.Suggest(ctx, "  ", 5); len(out) != 0 {
		t.Errorf("blank query yields no suggestions, got %v", out)
	}
	out, err := svc.Suggest(ctx, "padaria", 5)
	if err != nil || len(out) != 1 || out[0].Name != "Padaria Sol" {
		t.Fatalf("repository fallback failed: %v %v", out, err)
	}

	var gotSize int
	svc.Index = &mockIndex{suggestFn: func(_ context.Context, q string, size int) ([]entity.Suggestion, error) {
		gotSize = size
		return []entity.Suggestion{{ID: 42, Name: "do índice"}}, nil
	}}
	out, _ = svc.Suggest(ctx, "pad", 500)
	if gotSize != maxSuggestionSize || len(out) != 1 || out[0].ID != 42 {
		t.Errorf("expected capped index query, size=%d out=%v", gotSize, out)
	}

	svc.Index = &mockIndex{suggestFn: func(context.Context, string, int) ([]entity.Suggestion, error) {
		return nil, errors.New("es down")
	}}
	out, err = svc.Suggest(ctx, "padaria", 0)
	if err != nil || len(out) != 1 {
		t.Errorf("index failure must fall back to repository: %v %v", out, err)
	}
}
