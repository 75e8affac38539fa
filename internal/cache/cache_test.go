package cache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/portfolio"
)

// fakeBackend wraps the in-memory service. hook runs before each call; it may
// block, and a non-nil return fails the call without touching the service.
type fakeBackend struct {
	*portfolio.Service

	mu    sync.Mutex
	calls []string
	hook  func(method string) error
}

func newFake(seed *models.Portfolio) *fakeBackend {
	n := 0
	svc := portfolio.NewService(seed, portfolio.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("srv-%d", n)
	}))
	return &fakeBackend{Service: svc}
}

func (f *fakeBackend) before(method string) error {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		return hook(method)
	}
	return nil
}

func (f *fakeBackend) setHook(h func(string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = h
}

func (f *fakeBackend) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeBackend) GetPortfolio(ctx context.Context) (*models.Portfolio, error) {
	if err := f.before("GetPortfolio"); err != nil {
		return nil, err
	}
	return f.Service.GetPortfolio(ctx)
}

func (f *fakeBackend) UpdatePersonalInfo(ctx context.Context, info models.PersonalInfo) error {
	if err := f.before("UpdatePersonalInfo"); err != nil {
		return err
	}
	return f.Service.UpdatePersonalInfo(ctx, info)
}

func (f *fakeBackend) UpdateSocialLinks(ctx context.Context, links models.SocialLinks) error {
	if err := f.before("UpdateSocialLinks"); err != nil {
		return err
	}
	return f.Service.UpdateSocialLinks(ctx, links)
}

func (f *fakeBackend) CreateItem(ctx context.Context, list models.ListName, item models.Item) (models.Item, error) {
	if err := f.before("CreateItem"); err != nil {
		return nil, err
	}
	return f.Service.CreateItem(ctx, list, item)
}

func (f *fakeBackend) UpdateItem(ctx context.Context, list models.ListName, item models.Item) error {
	if err := f.before("UpdateItem"); err != nil {
		return err
	}
	return f.Service.UpdateItem(ctx, list, item)
}

func (f *fakeBackend) DeleteItem(ctx context.Context, list models.ListName, id string) error {
	if err := f.before("DeleteItem"); err != nil {
		return err
	}
	return f.Service.DeleteItem(ctx, list, id)
}

func (f *fakeBackend) UploadDocuments(ctx context.Context, set models.UploadSet) (map[string]string, error) {
	if err := f.before("UploadDocuments"); err != nil {
		return nil, err
	}
	return f.Service.UploadDocuments(ctx, set)
}

func serverFault(op string) error {
	return &apperr.Error{Kind: apperr.ErrServer, Op: op, Status: 500, Message: "Internal server error"}
}

func loadedCache(t *testing.T, seed *models.Portfolio) (*Cache, *fakeBackend) {
	t.Helper()
	fb := newFake(seed)
	c := New(fb)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c, fb
}

func emptySeed() *models.Portfolio {
	return &models.Portfolio{PersonalInfo: models.PersonalInfo{Name: "Ada"}}
}

func TestLoadRoundTrip(t *testing.T) {
	c, fb := loadedCache(t, portfolio.Seed())
	want, _ := fb.Service.GetPortfolio(context.Background())
	got := c.Snapshot()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("snapshot differs from server document\n got: %+v\nwant: %+v", got, want)
	}
	for _, s := range models.AllSections {
		if c.State(s) != Loaded {
			t.Errorf("%s state = %v", s, c.State(s))
		}
	}
}

// bareDocsBackend serves a document without a documents block.
type bareDocsBackend struct{ *fakeBackend }

func (b bareDocsBackend) GetPortfolio(ctx context.Context) (*models.Portfolio, error) {
	p, err := b.fakeBackend.GetPortfolio(ctx)
	if err != nil {
		return nil, err
	}
	p.Documents = nil
	return p, nil
}

func TestLoadRoundTripWithoutDocuments(t *testing.T) {
	b := bareDocsBackend{newFake(emptySeed())}
	c := New(b)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	want, _ := b.GetPortfolio(context.Background())
	got := c.Snapshot()
	if got.Documents != nil {
		t.Errorf("documents = %+v, want nil", got.Documents)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("snapshot differs from server document\n got: %+v\nwant: %+v", got, want)
	}
}

func TestLoadFailureIsUnloaded(t *testing.T) {
	fb := newFake(emptySeed())
	fb.setHook(func(string) error { return &apperr.Error{Kind: apperr.ErrNetwork, Err: context.DeadlineExceeded} })
	c := New(fb)

	err := c.Load(context.Background())
	if !errors.Is(err, apperr.ErrNetwork) {
		t.Fatalf("err = %v", err)
	}
	if c.Loaded() || c.Snapshot() != nil {
		t.Error("failed load must not look like an empty document")
	}
	if !errors.Is(c.LoadErr(), apperr.ErrNetwork) {
		t.Errorf("LoadErr = %v", c.LoadErr())
	}
	if c.State(models.SectionSkills) != Unloaded {
		t.Errorf("state = %v", c.State(models.SectionSkills))
	}
	if _, err := c.AddItem(models.ListSkills); !errors.Is(err, apperr.ErrNotLoaded) {
		t.Errorf("AddItem before load err = %v", err)
	}

	fb.setHook(nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.LoadErr() != nil {
		t.Error("successful load should clear LoadErr")
	}
}

func TestUpdateFieldIsLocal(t *testing.T) {
	c, fb := loadedCache(t, emptySeed())
	if err := c.UpdateField(models.SectionPersonal, "jobTitle", "Engineer"); err != nil {
		t.Fatal(err)
	}
	if c.State(models.SectionPersonal) != Editing {
		t.Errorf("state = %v", c.State(models.SectionPersonal))
	}
	if c.Snapshot().PersonalInfo.JobTitle != "Engineer" {
		t.Error("edit not applied")
	}
	if fb.count("UpdatePersonalInfo") != 0 {
		t.Error("UpdateField contacted the backend")
	}
	if err := c.UpdateField(models.SectionSocial, "mastodon", "x"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("unknown field err = %v", err)
	}
	if err := c.UpdateField(models.SectionSkills, "name", "x"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("list section err = %v", err)
	}
}

func TestPersistPersonal(t *testing.T) {
	c, fb := loadedCache(t, emptySeed())
	ctx := context.Background()
	_ = c.UpdateField(models.SectionPersonal, "location", "Lagos")

	if err := c.PersistSection(ctx, models.SectionPersonal); err != nil {
		t.Fatalf("PersistSection: %v", err)
	}
	if c.State(models.SectionPersonal) != Loaded {
		t.Errorf("state = %v", c.State(models.SectionPersonal))
	}
	p, _ := fb.Service.GetPortfolio(ctx)
	if p.PersonalInfo.Location != "Lagos" || p.PersonalInfo.Name != "Ada" {
		t.Errorf("server personal = %+v", p.PersonalInfo)
	}
}

func TestPersistPersonalValidatesLocally(t *testing.T) {
	c, fb := loadedCache(t, emptySeed())
	_ = c.UpdateField(models.SectionPersonal, "email", "not-an-email")

	err := c.PersistSection(context.Background(), models.SectionPersonal)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	if fb.count("UpdatePersonalInfo") != 0 {
		t.Error("invalid value was sent")
	}
	if c.State(models.SectionPersonal) != Editing || c.Err(models.SectionPersonal) == nil {
		t.Errorf("state = %v err = %v", c.State(models.SectionPersonal), c.Err(models.SectionPersonal))
	}
}

func TestPersistFailureLeavesEditing(t *testing.T) {
	c, fb := loadedCache(t, emptySeed())
	_ = c.UpdateField(models.SectionSocial, "github", "https://github.com/ada")
	fb.setHook(func(m string) error {
		if m == "UpdateSocialLinks" {
			return serverFault("update social links")
		}
		return nil
	})

	err := c.PersistSection(context.Background(), models.SectionSocial)
	if !errors.Is(err, apperr.ErrServer) {
		t.Fatalf("err = %v", err)
	}
	if c.State(models.SectionSocial) != Editing || !errors.Is(c.Err(models.SectionSocial), apperr.ErrServer) {
		t.Errorf("state = %v err = %v", c.State(models.SectionSocial), c.Err(models.SectionSocial))
	}
	if c.Snapshot().SocialLinks.GitHub != "https://github.com/ada" {
		t.Error("failed save rolled back the local edit")
	}
}

// Scenario: empty experience list, add one item, save it.
func TestAddAndPersistReplacesTempID(t *testing.T) {
	c, fb := loadedCache(t, emptySeed())
	ctx := context.Background()

	if n := len(c.Items(models.ListExperience)); n != 0 {
		t.Fatalf("experience = %d items", n)
	}
	tmp, err := c.AddItem(models.ListExperience)
	if err != nil {
		t.Fatal(err)
	}
	if !IsTempID(tmp) {
		t.Fatalf("id %q is not temporary", tmp)
	}
	rows := c.Items(models.ListExperience)
	if len(rows) != 1 || !rows[0].Temp || rows[0].Status != StatusUnsaved {
		t.Fatalf("rows = %+v", rows)
	}
	exp := rows[0].Item.(models.Experience)
	if len(exp.Responsibilities) != 1 || exp.Responsibilities[0] != "" {
		t.Errorf("default responsibilities = %q", exp.Responsibilities)
	}

	if err := c.PersistSection(ctx, models.SectionExperience); err != nil {
		t.Fatalf("PersistSection: %v", err)
	}

	server, _ := fb.Service.GetPortfolio(ctx)
	if len(server.Experience) != 1 || server.Experience[0].ID != "srv-1" {
		t.Fatalf("server experience = %+v", server.Experience)
	}
	rows = c.Items(models.ListExperience)
	if len(rows) != 1 || rows[0].Item.ItemID() != "srv-1" || rows[0].Temp || rows[0].Status != StatusSaved {
		t.Errorf("rows after save = %+v", rows)
	}
	if c.State(models.SectionExperience) != Loaded {
		t.Errorf("state = %v", c.State(models.SectionExperience))
	}
}

func TestPersistListUpsertsAndConverges(t *testing.T) {
	c, fb := loadedCache(t, portfolio.Seed())
	ctx := context.Background()

	if err := c.SetItemField(models.ListSkills, "2", "level", "95"); err != nil {
		t.Fatal(err)
	}
	id, _ := c.AddItem(models.ListSkills)
	_ = c.SetItemField(models.ListSkills, id, "name", "Go")

	if err := c.PersistSection(ctx, models.SectionSkills); err != nil {
		t.Fatalf("PersistSection: %v", err)
	}
	if fb.count("UpdateItem") != 1 || fb.count("CreateItem") != 1 {
		t.Errorf("calls = %v", fb.calls)
	}
	server, _ := fb.Service.GetPortfolio(ctx)
	if !reflect.DeepEqual(c.Snapshot().Skills, server.Skills) {
		t.Errorf("cache skills %+v != server %+v", c.Snapshot().Skills, server.Skills)
	}
	if server.Skills[1].Level != 95 {
		t.Errorf("level = %d", server.Skills[1].Level)
	}
}

func TestPersistListPartialFailureKeepsUnsavedRows(t *testing.T) {
	c, fb := loadedCache(t, emptySeed())
	ctx := context.Background()

	a, _ := c.AddItem(models.ListCertifications)
	_ = c.SetItemField(models.ListCertifications, a, "name", "CKA")
	b, _ := c.AddItem(models.ListCertifications)
	_ = c.SetItemField(models.ListCertifications, b, "name", "CKAD")

	creates := 0
	fb.setHook(func(m string) error {
		if m == "CreateItem" {
			creates++
			if creates == 2 {
				return serverFault("create certification")
			}
		}
		return nil
	})

	err := c.PersistSection(ctx, models.SectionCertifications)
	if !errors.Is(err, apperr.ErrServer) {
		t.Fatalf("err = %v", err)
	}
	rows := c.Items(models.ListCertifications)
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Temp || rows[0].Status != StatusSaved {
		t.Errorf("saved row = %+v", rows[0])
	}
	if !rows[1].Temp || rows[1].Status != StatusError || rows[1].Item.ItemID() != b {
		t.Errorf("failed row = %+v", rows[1])
	}
	if c.State(models.SectionCertifications) != Editing {
		t.Errorf("state = %v", c.State(models.SectionCertifications))
	}

	fb.setHook(nil)
	if err := c.PersistSection(ctx, models.SectionCertifications); err != nil {
		t.Fatalf("retry: %v", err)
	}
	for _, r := range c.Items(models.ListCertifications) {
		if r.Temp || IsTempID(r.Item.ItemID()) {
			t.Errorf("temporary id left after successful save: %+v", r)
		}
	}
}

func TestPersistUpdateNotFoundDropsItem(t *testing.T) {
	c, fb := loadedCache(t, portfolio.Seed())
	ctx := context.Background()
	_ = c.SetItemField(models.ListSkills, "3", "name", "SQL")

	// Removed by someone else after our load.
	if err := fb.Service.DeleteItem(ctx, models.ListSkills, "3"); err != nil {
		t.Fatal(err)
	}

	err := c.PersistSection(ctx, models.SectionSkills)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	for _, r := range c.Items(models.ListSkills) {
		if r.Item.ItemID() == "3" {
			t.Error("missing item still cached")
		}
	}
}

func TestSkillLevelClamped(t *testing.T) {
	c, fb := loadedCache(t, emptySeed())
	id, _ := c.AddItem(models.ListSkills)
	if got := c.Items(models.ListSkills)[0].Item.(models.Skill).Level; got != models.DefaultLevel {
		t.Errorf("default level = %d", got)
	}

	for in, want := range map[string]int{"150": 100, "-10": 0, "42": 42} {
		if err := c.SetItemField(models.ListSkills, id, "level", in); err != nil {
			t.Fatalf("level %s: %v", in, err)
		}
		if got := c.Items(models.ListSkills)[0].Item.(models.Skill).Level; got != want {
			t.Errorf("level %s -> %d, want %d", in, got, want)
		}
	}
	if err := c.SetItemField(models.ListSkills, id, "level", "high"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("non-numeric level err = %v", err)
	}

	_ = c.SetItemField(models.ListSkills, id, "level", "150")
	if err := c.PersistSection(context.Background(), models.SectionSkills); err != nil {
		t.Fatal(err)
	}
	server, _ := fb.Service.GetPortfolio(context.Background())
	if server.Skills[0].Level != 100 {
		t.Errorf("persisted level = %d", server.Skills[0].Level)
	}
}

func TestPersistClampsLoadedLevel(t *testing.T) {
	seed := emptySeed()
	seed.Skills = []models.Skill{{ID: "s1", Name: "Go", Level: 150}}
	c, fb := loadedCache(t, seed)

	if err := c.SetItemField(models.ListSkills, "s1", "name", "Golang"); err != nil {
		t.Fatal(err)
	}
	if err := c.PersistSection(context.Background(), models.SectionSkills); err != nil {
		t.Fatalf("PersistSection: %v", err)
	}
	server, _ := fb.Service.GetPortfolio(context.Background())
	if got := server.Skills[0]; got.Name != "Golang" || got.Level != 100 {
		t.Errorf("server skill = %+v", got)
	}
	if got := c.Items(models.ListSkills)[0].Item.(models.Skill).Level; got != 100 {
		t.Errorf("cached level = %d", got)
	}
}

func TestPersistRejectsInvalidItemLocally(t *testing.T) {
	seed := emptySeed()
	seed.Skills = []models.Skill{{ID: "s1", Name: "Go", Level: 50}}
	c, fb := loadedCache(t, seed)

	if err := c.SetItemField(models.ListSkills, "s1", "name", strings.Repeat("x", 201)); err != nil {
		t.Fatal(err)
	}
	err := c.PersistSection(context.Background(), models.SectionSkills)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	if n := fb.count("UpdateItem"); n != 0 {
		t.Errorf("UpdateItem called %d times", n)
	}
	row := c.Items(models.ListSkills)[0]
	if row.Status != StatusError || !errors.Is(row.Err, apperr.ErrValidation) {
		t.Errorf("row = %+v", row)
	}
	if c.State(models.SectionSkills) != Editing {
		t.Errorf("state = %v", c.State(models.SectionSkills))
	}
	server, _ := fb.Service.GetPortfolio(context.Background())
	if server.Skills[0].Name != "Go" {
		t.Errorf("server name = %q", server.Skills[0].Name)
	}
}

func TestTempIDsUnique(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fb := newFake(emptySeed())
	c := New(fb, WithClock(func() time.Time { return fixed }))
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		id, err := c.AddItem(models.ListSkills)
		if err != nil {
			t.Fatal(err)
		}
		if i%3 == 0 {
			if err := c.RemoveItem(ctx, models.ListSkills, id); err != nil {
				t.Fatal(err)
			}
		}
		seen := make(map[string]bool)
		for _, r := range c.Items(models.ListSkills) {
			if seen[r.Item.ItemID()] {
				t.Fatalf("duplicate id %s after %d steps", r.Item.ItemID(), i)
			}
			seen[r.Item.ItemID()] = true
		}
	}
	if fb.count("DeleteItem") != 0 {
		t.Error("removing temporary items contacted the backend")
	}
}

func TestRemoveItemServerFailureKeepsItem(t *testing.T) {
	c, fb := loadedCache(t, portfolio.Seed())
	fb.setHook(func(m string) error {
		if m == "DeleteItem" {
			return serverFault("delete skill")
		}
		return nil
	})

	err := c.RemoveItem(context.Background(), models.ListSkills, "1")
	if !errors.Is(err, apperr.ErrServer) {
		t.Fatalf("err = %v", err)
	}
	var row *ItemView
	for _, r := range c.Items(models.ListSkills) {
		if r.Item.ItemID() == "1" {
			row = &r
		}
	}
	if row == nil {
		t.Fatal("item removed despite server failure")
	}
	if row.Status != StatusError || !errors.Is(row.Err, apperr.ErrServer) {
		t.Errorf("row = %+v", row)
	}
}

func TestRemoveItemSuccessAndNotFound(t *testing.T) {
	c, fb := loadedCache(t, portfolio.Seed())
	ctx := context.Background()

	if err := c.RemoveItem(ctx, models.ListCertifications, "1"); err != nil {
		t.Fatal(err)
	}
	_ = fb.Service.DeleteItem(ctx, models.ListCertifications, "2")
	err := c.RemoveItem(ctx, models.ListCertifications, "2")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	rows := c.Items(models.ListCertifications)
	if len(rows) != 1 || rows[0].Item.ItemID() != "3" {
		t.Errorf("rows = %+v", rows)
	}
}

// block returns a hook that parks calls to method until release is closed.
func block(method string, started chan<- struct{}, release <-chan struct{}) func(string) error {
	return func(m string) error {
		if m == method {
			started <- struct{}{}
			<-release
		}
		return nil
	}
}

func TestConcurrentSaveRejected(t *testing.T) {
	c, fb := loadedCache(t, emptySeed())
	ctx := context.Background()
	_ = c.UpdateField(models.SectionPersonal, "jobTitle", "first")

	started, release := make(chan struct{}, 1), make(chan struct{})
	fb.setHook(block("UpdatePersonalInfo", started, release))

	done := make(chan error, 1)
	go func() { done <- c.PersistSection(ctx, models.SectionPersonal) }()
	<-started

	if c.State(models.SectionPersonal) != Saving || c.CanSave(models.SectionPersonal) {
		t.Errorf("state = %v", c.State(models.SectionPersonal))
	}
	if err := c.PersistSection(ctx, models.SectionPersonal); !errors.Is(err, apperr.ErrBusy) {
		t.Errorf("second save err = %v", err)
	}
	if err := c.UpdateField(models.SectionPersonal, "jobTitle", "second"); !errors.Is(err, apperr.ErrBusy) {
		t.Errorf("edit during save err = %v", err)
	}
	// Other sections are independent.
	if err := c.UpdateField(models.SectionSocial, "github", "https://github.com/ada"); err != nil {
		t.Errorf("edit other section: %v", err)
	}
	if err := c.Load(ctx); !errors.Is(err, apperr.ErrBusy) {
		t.Errorf("load during save err = %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if fb.count("UpdatePersonalInfo") != 1 {
		t.Errorf("UpdatePersonalInfo calls = %d", fb.count("UpdatePersonalInfo"))
	}
	server, _ := fb.Service.GetPortfolio(ctx)
	if server.PersonalInfo.JobTitle != "first" || c.Snapshot().PersonalInfo.JobTitle != "first" {
		t.Errorf("server=%q cache=%q", server.PersonalInfo.JobTitle, c.Snapshot().PersonalInfo.JobTitle)
	}
}

func TestSaveRejectedWhileDeleteInFlight(t *testing.T) {
	c, fb := loadedCache(t, portfolio.Seed())
	ctx := context.Background()

	started, release := make(chan struct{}, 1), make(chan struct{})
	fb.setHook(block("DeleteItem", started, release))

	done := make(chan error, 1)
	go func() { done <- c.RemoveItem(ctx, models.ListSkills, "1") }()
	<-started

	if c.CanDelete(models.ListSkills, "1") {
		t.Error("CanDelete should be false while deleting")
	}
	if err := c.RemoveItem(ctx, models.ListSkills, "1"); !errors.Is(err, apperr.ErrBusy) {
		t.Errorf("second delete err = %v", err)
	}
	if err := c.PersistSection(ctx, models.SectionSkills); !errors.Is(err, apperr.ErrBusy) {
		t.Errorf("save during delete err = %v", err)
	}
	if err := c.SetItemField(models.ListSkills, "1", "name", "x"); !errors.Is(err, apperr.ErrBusy) {
		t.Errorf("edit of deleting item err = %v", err)
	}
	if rows := c.Items(models.ListSkills); rows[0].Status != StatusDeleting {
		t.Errorf("status = %v", rows[0].Status)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if !c.CanSave(models.SectionSkills) {
		t.Error("save should be allowed after delete completes")
	}
}

func TestResetDiscardsInFlightResponse(t *testing.T) {
	c, fb := loadedCache(t, emptySeed())
	ctx := context.Background()
	_, _ = c.AddItem(models.ListSkills)

	started, release := make(chan struct{}, 1), make(chan struct{})
	fb.setHook(block("CreateItem", started, release))

	done := make(chan error, 1)
	go func() { done <- c.PersistSection(ctx, models.SectionSkills) }()
	<-started

	c.Reset()
	close(release)

	if err := <-done; !errors.Is(err, apperr.ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if c.Loaded() || c.Snapshot() != nil {
		t.Error("stale response repopulated the cache")
	}
	if fb.count("GetPortfolio") != 1 {
		t.Errorf("refetch after reset: GetPortfolio calls = %d", fb.count("GetPortfolio"))
	}
	if err := c.Load(ctx); err != nil {
		t.Fatalf("load after reset: %v", err)
	}
}

func TestResetDuringLoad(t *testing.T) {
	fb := newFake(emptySeed())
	c := New(fb)
	started, release := make(chan struct{}, 1), make(chan struct{})
	fb.setHook(block("GetPortfolio", started, release))

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background()) }()
	<-started
	c.Reset()
	close(release)

	if err := <-done; !errors.Is(err, apperr.ErrStale) {
		t.Fatalf("err = %v", err)
	}
	if c.Loaded() {
		t.Error("load completed after reset")
	}
}

func TestUploadDocumentsRefreshesMetadata(t *testing.T) {
	c, fb := loadedCache(t, emptySeed())
	ctx := context.Background()

	if err := c.UploadDocuments(ctx, models.UploadSet{}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty upload err = %v", err)
	}

	var set models.UploadSet
	set.Set(models.DocCoverLetterPDF, &models.UploadFile{Filename: "letter.pdf", Content: strings.NewReader("%PDF")})
	if err := c.UploadDocuments(ctx, set); err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}
	if got := c.Snapshot().Documents.CoverLetterPDF.Filename; got != "letter.pdf" {
		t.Errorf("filename = %q", got)
	}
	if c.State(models.SectionDocuments) != Loaded {
		t.Errorf("state = %v", c.State(models.SectionDocuments))
	}

	fb.setHook(func(m string) error {
		if m == "UploadDocuments" {
			return apperr.New(apperr.ErrValidation, "upload documents", "Invalid file type for resumePDF")
		}
		return nil
	})
	set = models.UploadSet{ResumePDF: &models.UploadFile{Filename: "x.pdf", Content: strings.NewReader("x")}}
	if err := c.UploadDocuments(ctx, set); apperr.UserMessage(err) != "Invalid file type for resumePDF" {
		t.Fatalf("err = %v", err)
	}
	if c.State(models.SectionDocuments) != Editing || c.Err(models.SectionDocuments) == nil {
		t.Errorf("state = %v", c.State(models.SectionDocuments))
	}
}

func TestPersistDocumentsSectionRejected(t *testing.T) {
	c, _ := loadedCache(t, emptySeed())
	if err := c.PersistSection(context.Background(), models.SectionDocuments); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestConcurrentLoadsCoalesce(t *testing.T) {
	fb := newFake(emptySeed())
	c := New(fb)
	started, release := make(chan struct{}, 1), make(chan struct{})
	fb.setHook(block("GetPortfolio", started, release))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(1)
	go func() { defer wg.Done(); errs <- c.Load(context.Background()) }()
	<-started
	wg.Add(1)
	go func() { defer wg.Done(); errs <- c.Load(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Load: %v", err)
		}
	}
	if fb.count("GetPortfolio") != 1 {
		t.Errorf("GetPortfolio calls = %d, want 1", fb.count("GetPortfolio"))
	}
}
