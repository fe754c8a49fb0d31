package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"sitehub/internal/config"
	"sitehub/internal/database"
	"sitehub/internal/mail"
	"sitehub/internal/models"
	"sitehub/internal/storage"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	passwordCost = bcrypt.MinCost
}

// blogRepoStub is a stub for repository.BlogRepository.
type blogRepoStub struct {
	createFn         func(context.Context, *models.Blog) error
	getByIDFn        func(context.Context, uint) (*models.Blog, error)
	getBySlugFn      func(context.Context, string) (*models.Blog, error)
	countFn          func(context.Context, string) (int64, error)
	listFn           func(context.Context, string, int, int) ([]models.Blog, error)
	recentFn         func(context.Context, int) ([]models.Blog, error)
	popularFn        func(context.Context, int) ([]models.Blog, error)
	updateFn         func(context.Context, *models.Blog) error
	deleteFn         func(context.Context, uint) error
	incrementViewsFn func(context.Context, uint) error
}

func (s *blogRepoStub) Create(ctx context.Context, blog *models.Blog) error {
	return s.createFn(ctx, blog)
}
func (s *blogRepoStub) GetByID(ctx context.Context, id uint) (*models.Blog, error) {
	return s.getByIDFn(ctx, id)
}
func (s *blogRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *blogRepoStub) Count(ctx context.Context, search string) (int64, error) {
	return s.countFn(ctx, search)
}
func (s *blogRepoStub) List(ctx context.Context, search string, limit, offset int) ([]models.Blog, error) {
	return s.listFn(ctx, search, limit, offset)
}
func (s *blogRepoStub) Recent(ctx context.Context, n int) ([]models.Blog, error) {
	return s.recentFn(ctx, n)
}
func (s *blogRepoStub) Popular(ctx context.Context, n int) ([]models.Blog, error) {
	return s.popularFn(ctx, n)
}
func (s *blogRepoStub) Update(ctx context.Context, blog *models.Blog) error {
	return s.updateFn(ctx, blog)
}
func (s *blogRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *blogRepoStub) IncrementViews(ctx context.Context, id uint) error {
	return s.incrementViewsFn(ctx, id)
}

func noopBlogRepo() *blogRepoStub {
	return &blogRepoStub{
		createFn:         func(_ context.Context, _ *models.Blog) error { return nil },
		getByIDFn:        func(_ context.Context, id uint) (*models.Blog, error) { return &models.Blog{ID: id}, nil },
		getBySlugFn:      func(_ context.Context, slug string) (*models.Blog, error) { return &models.Blog{ID: 1, Slug: slug}, nil },
		countFn:          func(_ context.Context, _ string) (int64, error) { return 0, nil },
		listFn:           func(_ context.Context, _ string, _, _ int) ([]models.Blog, error) { return nil, nil },
		recentFn:         func(_ context.Context, _ int) ([]models.Blog, error) { return nil, nil },
		popularFn:        func(_ context.Context, _ int) ([]models.Blog, error) { return nil, nil },
		updateFn:         func(_ context.Context, _ *models.Blog) error { return nil },
		deleteFn:         func(_ context.Context, _ uint) error { return nil },
		incrementViewsFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	createFn    func(context.Context, *models.Category) error
	getByIDFn   func(context.Context, uint) (*models.Category, error)
	getBySlugFn func(context.Context, string) (*models.Category, error)
	findByIDsFn func(context.Context, []uint) ([]models.Category, error)
	listFn      func(context.Context) ([]models.Category, error)
	updateFn    func(context.Context, *models.Category) error
	deleteFn    func(context.Context, uint) error
}

func (s *categoryRepoStub) Create(ctx context.Context, category *models.Category) error {
	return s.createFn(ctx, category)
}
func (s *categoryRepoStub) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *categoryRepoStub) FindByIDs(ctx context.Context, ids []uint) ([]models.Category, error) {
	return s.findByIDsFn(ctx, ids)
}
func (s *categoryRepoStub) List(ctx context.Context) ([]models.Category, error) {
	return s.listFn(ctx)
}
func (s *categoryRepoStub) Update(ctx context.Context, category *models.Category) error {
	return s.updateFn(ctx, category)
}
func (s *categoryRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		createFn:    func(_ context.Context, _ *models.Category) error { return nil },
		getByIDFn:   func(_ context.Context, id uint) (*models.Category, error) { return &models.Category{ID: id}, nil },
		getBySlugFn: func(_ context.Context, slug string) (*models.Category, error) { return &models.Category{Slug: slug}, nil },
		findByIDsFn: func(_ context.Context, ids []uint) ([]models.Category, error) {
			out := make([]models.Category, 0, len(ids))
			for _, id := range ids {
				out = append(out, models.Category{ID: id})
			}
			return out, nil
		},
		listFn:   func(_ context.Context) ([]models.Category, error) { return nil, nil },
		updateFn: func(_ context.Context, _ *models.Category) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// contactRepoStub is a stub for repository.ContactRepository.
type contactRepoStub struct {
	createFn func(context.Context, *models.ContactSubmission) error
	countFn  func(context.Context) (int64, error)
	listFn   func(context.Context, int, int) ([]models.ContactSubmission, error)
}

func (s *contactRepoStub) Create(ctx context.Context, submission *models.ContactSubmission) error {
	return s.createFn(ctx, submission)
}
func (s *contactRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *contactRepoStub) List(ctx context.Context, limit, offset int) ([]models.ContactSubmission, error) {
	return s.listFn(ctx, limit, offset)
}

// imageStoreStub records saved and deleted refs without touching the disk.
type imageStoreStub struct {
	saveErr error
	saved   []string
	deleted []string
}

func (s *imageStoreStub) Save(prefix string, in storage.Upload) (*storage.Stored, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	ref := prefix + "/" + in.Filename + "/master.jpg"
	s.saved = append(s.saved, ref)
	return &storage.Stored{Ref: ref}, nil
}

func (s *imageStoreStub) Delete(ref string) error {
	s.deleted = append(s.deleted, ref)
	return nil
}

// mailbox is a mail.Mailer that keeps every message.
type mailbox struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *mailbox) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mailbox) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail was sent")
	return m.sent[len(m.sent)-1]
}

// setupTestDB opens a fresh SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     database.DriverSQLite,
		DBSQLitePath: filepath.Join(t.TempDir(), "service.db"),
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, models.HasCode(err, code), "expected %s, got %v", code, err)
}
