package portfolio

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/logger"
)

func newRepo(t *testing.T) portfolio.Repository {
	t.Helper()
	db, err := persistence.OpenSQLite("file:"+uuid.NewString()+"?mode=memory&cache=shared", logger.NewNopLogger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return persistence.NewSQLitePortfolioRepo(db, logger.NewNopLogger())
}

func document(name string) map[string]any {
	return map[string]any{
		"template": 1.0,
		"personal": map[string]any{"name": name, "job_title": "Engineer"},
		"experience": []any{
			map[string]any{
				"job_title":   "Dev",
				"company":     "Acme",
				"start_date":  "2020",
				"end_date":    "Present",
				"description": "<p>Shipped <script>x</script>things</p>",
			},
		},
	}
}

type recordingPublisher struct {
	events chan portfolio.Event
	err    error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(chan portfolio.Event, 16)}
}

func (p *recordingPublisher) PublishPortfolioEvent(_ context.Context, e portfolio.Event) error {
	p.events <- e
	return p.err
}

func (p *recordingPublisher) next(t *testing.T) portfolio.Event {
	t.Helper()
	select {
	case e := <-p.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no portfolio event published")
		return portfolio.Event{}
	}
}

func (p *recordingPublisher) none(t *testing.T) {
	t.Helper()
	select {
	case e := <-p.events:
		t.Fatalf("unexpected event %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

type stubParser struct {
	parsed *portfolio.ParsedResume
	err    error
	got    service.ResumeFile
}

func (p *stubParser) Parse(_ context.Context, file service.ResumeFile) (*portfolio.ParsedResume, error) {
	p.got = file
	return p.parsed, p.err
}

type stubUploader struct {
	mu      sync.Mutex
	folders []string
	ids     []string
	deleted []string
	err     error
}

func (u *stubUploader) Upload(_ context.Context, file io.Reader, folder string, publicID string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	if u.err != nil {
		return "", u.err
	}
	u.folders = append(u.folders, folder)
	u.ids = append(u.ids, publicID)
	return "https://cdn.example.com/" + folder + "/" + publicID, nil
}

func (u *stubUploader) Delete(_ context.Context, publicID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, publicID)
	return u.err
}

type stubLLM struct {
	reply   string
	err     error
	prompts []string
}

func (l *stubLLM) GenerateChatResponse(_ context.Context, prompt string) (string, error) {
	l.prompts = append(l.prompts, prompt)
	return l.reply, l.err
}

var errBoom = errors.New("boom")
