package editor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/cache"
	"github.com/starford/folio/internal/client"
	"github.com/starford/folio/internal/localstore"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/portfolio"
	"github.com/starford/folio/internal/session"
	"github.com/starford/folio/internal/testutil"
)

// onlineDashboard runs against a devserver through the real API client.
func onlineDashboard(t *testing.T, seed *models.Portfolio) (*Dashboard, *client.Client, *session.Store, *testutil.Server) {
	t.Helper()
	srv := testutil.StartServer(t, seed)
	sess := testutil.Session(t)
	c, err := client.New(srv.URL, sess)
	if err != nil {
		t.Fatal(err)
	}
	d := NewDashboard(sess, c, cache.New(c), c, nil)
	return d, c, sess, srv
}

func offlineDashboard(t *testing.T) *Dashboard {
	t.Helper()
	svc := portfolio.NewService(nil)
	return NewDashboard(nil, nil, cache.New(svc), svc, nil)
}

func TestOpenRequiresSession(t *testing.T) {
	d, _, _, _ := onlineDashboard(t, nil)
	if _, err := d.Open(context.Background()); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("err = %v", err)
	}
	if d.Cache().Loaded() {
		t.Error("cache loaded without a session")
	}
}

// Scenario: log in, load a document with no experience, add one and save it.
func TestAddExperienceEndToEnd(t *testing.T) {
	seed := portfolio.Seed()
	seed.Experience = []models.Experience{}
	d, c, _, srv := onlineDashboard(t, seed)
	ctx := context.Background()

	if err := c.Login(ctx, testutil.AdminUser, testutil.AdminPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	user, err := d.Open(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if user != testutil.AdminUser {
		t.Errorf("user = %q", user)
	}

	ed := d.Editor(models.SectionExperience)
	if rows := ed.View().Rows; len(rows) != 0 {
		t.Fatalf("rows = %+v", rows)
	}
	tmp, err := ed.Add()
	if err != nil {
		t.Fatal(err)
	}
	if err := ed.SetItem(tmp, "company", "Globex"); err != nil {
		t.Fatal(err)
	}
	if err := ed.SetResponsibilities(tmp, []string{"ship", "review"}); err != nil {
		t.Fatal(err)
	}
	if err := ed.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	server, _ := srv.Service.GetPortfolio(ctx)
	if len(server.Experience) != 1 {
		t.Fatalf("server experience = %+v", server.Experience)
	}
	got := server.Experience[0]
	if got.ID == "" || got.ID == tmp || got.Company != "Globex" || len(got.Responsibilities) != 2 {
		t.Errorf("server item = %+v", got)
	}

	v := ed.View()
	if v.State != "loaded" || len(v.Rows) != 1 || v.Rows[0].ID != got.ID || v.Rows[0].Temp {
		t.Errorf("view = %+v", v)
	}
}

func TestUnauthorizedResetsDashboard(t *testing.T) {
	d, c, sess, _ := onlineDashboard(t, nil)
	ctx := context.Background()
	if err := c.Login(ctx, testutil.AdminUser, testutil.AdminPassword); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Open(ctx); err != nil {
		t.Fatal(err)
	}

	// Corrupt the token so the server rejects the next admin call.
	if err := sess.Set("not-a-jwt"); err != nil {
		t.Fatal(err)
	}
	ed := d.Editor(models.SectionPersonal)
	_ = ed.Set("location", "Pune")
	err := ed.Save(ctx)
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("err = %v", err)
	}
	if sess.HasSession() {
		t.Error("session survived a 401")
	}
	if d.Cache().Loaded() {
		t.Error("cache survived session teardown")
	}
	if v := ed.View(); v.State != "unloaded" || v.Fields != nil {
		t.Errorf("view after teardown = %+v", v)
	}
}

func TestLogoutClearsPersistedSession(t *testing.T) {
	srv := testutil.StartServer(t, nil)
	sess, fs := testutil.FileSession(t)
	c, err := client.New(srv.URL, sess)
	if err != nil {
		t.Fatal(err)
	}
	d := NewDashboard(sess, c, cache.New(c), c, nil)
	ctx := context.Background()

	if err := c.Login(ctx, testutil.AdminUser, testutil.AdminPassword); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Get(session.TokenKey); err != nil {
		t.Fatalf("token not persisted: %v", err)
	}
	if _, err := d.Open(ctx); err != nil {
		t.Fatal(err)
	}
	if err := d.Logout(); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Get(session.TokenKey); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("persisted token after logout: %v", err)
	}
	if d.Cache().Loaded() {
		t.Error("cache not reset on logout")
	}
}

func TestOfflineEditors(t *testing.T) {
	d := offlineDashboard(t)
	ctx := context.Background()

	if _, err := d.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}

	personal := d.Editor(models.SectionPersonal)
	v := personal.View()
	if len(v.Fields) != 8 || v.Fields[0].Name != "name" || v.Fields[0].Value != "Rajesh Kumar" {
		t.Errorf("fields = %+v", v.Fields)
	}
	if _, err := personal.Add(); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Add on personal err = %v", err)
	}

	skills := d.Editor(models.SectionSkills)
	id := skills.View().Rows[0].ID
	if !skills.CanDelete(id) {
		t.Error("CanDelete should be true")
	}
	if err := skills.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	for _, r := range skills.View().Rows {
		if r.ID == id {
			t.Error("deleted row still shown")
		}
	}

	if err := skills.SetItem(skills.View().Rows[0].ID, "level", "150"); err != nil {
		t.Fatal(err)
	}
	row := skills.View().Rows[0]
	if row.Status != cache.StatusUnsaved || row.Item.(models.Skill).Level != 100 {
		t.Errorf("row = %+v", row)
	}
	if !skills.CanSave() {
		t.Error("CanSave should be true")
	}
	if err := skills.Save(ctx); err != nil {
		t.Fatal(err)
	}

	docs := d.Editor(models.SectionDocuments)
	var set models.UploadSet
	set.Set(models.DocResumeDOCX, &models.UploadFile{Filename: "cv.docx", Content: strings.NewReader("PK")})
	if err := docs.Upload(ctx, set); err != nil {
		t.Fatal(err)
	}
	if docs.View().Documents.ResumeDOCX.Filename != "cv.docx" {
		t.Errorf("documents = %+v", docs.View().Documents)
	}
	var buf bytes.Buffer
	if _, err := docs.Download(ctx, models.DocResumeDOCX, &buf); err != nil || buf.String() != "PK" {
		t.Errorf("download = %q, %v", buf.String(), err)
	}
	if _, err := skills.Download(ctx, models.DocResumeDOCX, &buf); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("download from skills err = %v", err)
	}

	if err := d.Logout(); err != nil {
		t.Fatal(err)
	}
	if d.Cache().Loaded() {
		t.Error("offline logout should reset the cache")
	}
}

func TestViewShowsLoadError(t *testing.T) {
	sess, err := session.New(localstore.NewMemory(), nil)
	if err != nil {
		t.Fatal(err)
	}
	c, err := client.New("http://127.0.0.1:1", sess)
	if err != nil {
		t.Fatal(err)
	}
	d := NewDashboard(nil, nil, cache.New(c), c, nil)
	if _, err := d.Open(context.Background()); !errors.Is(err, apperr.ErrNetwork) {
		t.Fatalf("err = %v", err)
	}
	v := d.Editor(models.SectionSkills).View()
	if v.State != "unloaded" || !strings.Contains(v.Error, "could not be reached") {
		t.Errorf("view = %+v", v)
	}
}
