package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SR0725/short-link-tracker-sub000/internal/models"
	"github.com/SR0725/short-link-tracker-sub000/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLinkWriter struct {
	mock.Mock
}

func (m *mockLinkWriter) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockLinkWriter) CreateLink(ctx context.Context, link *models.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func TestCreateShortURL(t *testing.T) {
	store, db := setupTestDB(t)
	service := NewShortenerService(store, 6)
	ctx := context.Background()

	t.Run("Create random short URL", func(t *testing.T) {
		link, err := service.CreateShortURL(ctx, ShortenDTO{TargetURL: "https://example.org/x"})

		require.NoError(t, err)
		assert.Len(t, link.Slug, 6)
		for _, r := range link.Slug {
			assert.True(t, strings.ContainsRune(utils.SlugAlphabet, r))
		}
		assert.Equal(t, "https://example.org/x", link.TargetURL)
		assert.NotEmpty(t, link.ID)
	})

	t.Run("Collision Retry", func(t *testing.T) {
		calls := 0
		service.slugGenerator = func(int) string {
			calls++
			if calls == 1 {
				return "COLLID"
			}
			return "UNIQUE"
		}
		defer func() { service.slugGenerator = utils.GenerateSlug }()

		require.NoError(t, db.Create(&models.Link{Slug: "COLLID", TargetURL: "https://a.com"}).Error)

		link, err := service.CreateShortURL(ctx, ShortenDTO{TargetURL: "https://b.com"})
		require.NoError(t, err)
		assert.Equal(t, "UNIQUE", link.Slug)
		assert.Equal(t, 2, calls)
	})

	t.Run("Reserved Generated Slug Skipped", func(t *testing.T) {
		calls := 0
		service.slugGenerator = func(int) string {
			calls++
			if calls == 1 {
				return "health"
			}
			return "health2"
		}
		defer func() { service.slugGenerator = utils.GenerateSlug }()

		link, err := service.CreateShortURL(ctx, ShortenDTO{TargetURL: "https://b.com"})
		require.NoError(t, err)
		assert.Equal(t, "health2", link.Slug)
	})

	t.Run("Create custom short URL", func(t *testing.T) {
		link, err := service.CreateShortURL(ctx, ShortenDTO{
			TargetURL:  "https://yahoo.com",
			CustomSlug: "yahoo",
			Title:      "  Yahoo ",
			Tag:        "search",
		})

		require.NoError(t, err)
		assert.Equal(t, "yahoo", link.Slug)
		assert.Equal(t, "Yahoo", link.Title)
		assert.Equal(t, "search", link.Tag)
	})

	t.Run("Duplicate custom slug should fail", func(t *testing.T) {
		dto := ShortenDTO{TargetURL: "https://bing.com", CustomSlug: "bing"}
		_, err := service.CreateShortURL(ctx, dto)
		require.NoError(t, err)

		_, err = service.CreateShortURL(ctx, dto)
		assert.ErrorIs(t, err, ErrSlugConflict)
	})

	t.Run("Invalid custom slug", func(t *testing.T) {
		for _, slug := range []string{"ab", "has space", "a/b", "api", "not-found"} {
			_, err := service.CreateShortURL(ctx, ShortenDTO{TargetURL: "https://bing.com", CustomSlug: slug})
			assert.ErrorIs(t, err, ErrInvalidSlug, slug)
		}
	})

	t.Run("Invalid target URL", func(t *testing.T) {
		for _, target := range []string{"", "example.org", "ftp://example.org/file", "javascript:alert(1)", "https://"} {
			_, err := service.CreateShortURL(ctx, ShortenDTO{TargetURL: target})
			assert.ErrorIs(t, err, ErrInvalidURL, target)
		}
	})

	t.Run("Invalid click limit", func(t *testing.T) {
		zero := 0
		_, err := service.CreateShortURL(ctx, ShortenDTO{TargetURL: "https://example.org", ClickLimit: &zero})
		assert.Error(t, err)
	})

	t.Run("Expiry and limit stored", func(t *testing.T) {
		expires := time.Now().Add(24 * time.Hour)
		limit := 10
		link, err := service.CreateShortURL(ctx, ShortenDTO{TargetURL: "https://github.com", ExpiresAt: &expires, ClickLimit: &limit})

		require.NoError(t, err)
		stored, err := store.FindLinkBySlug(ctx, link.Slug)
		require.NoError(t, err)
		require.NotNil(t, stored.ExpiresAt)
		require.NotNil(t, stored.ClickLimit)
		assert.Equal(t, 10, *stored.ClickLimit)
	})

	t.Run("Is Slug Available", func(t *testing.T) {
		ok, err := service.IsSlugAvailable(ctx, "yahoo")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = service.IsSlugAvailable(ctx, "nobody-has-this")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("DB Error during random slug check", func(t *testing.T) {
		storeErr, dbErr := setupTestDB(t)
		require.NoError(t, dbErr.Migrator().DropTable(&models.Link{}))
		broken := NewShortenerService(storeErr, 6)

		_, err := broken.CreateShortURL(ctx, ShortenDTO{TargetURL: "https://github.com"})
		assert.Error(t, err)

		_, err = broken.CreateShortURL(ctx, ShortenDTO{TargetURL: "https://github.com", CustomSlug: "custom"})
		assert.Error(t, err)
	})
}

func TestCreateShortURL_ConcurrentCreatorsGetUniqueSlugs(t *testing.T) {
	store, _ := setupTestDB(t)
	// A 2-char space forces plenty of collisions between creators.
	service := NewShortenerService(store, 2)
	ctx := context.Background()

	const creators = 40
	var wg sync.WaitGroup
	slugs := make(chan string, creators)
	errs := make(chan error, creators)

	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			link, err := service.CreateShortURL(ctx, ShortenDTO{TargetURL: "https://example.org"})
			if err != nil {
				errs <- err
				return
			}
			slugs <- link.Slug
		}()
	}
	wg.Wait()
	close(slugs)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[string]bool)
	for slug := range slugs {
		assert.Len(t, slug, 2)
		assert.False(t, seen[slug], "duplicate slug %s", slug)
		seen[slug] = true
	}
	assert.Len(t, seen, creators)
}

func TestCreateShortURL_LostRace(t *testing.T) {
	ctx := context.Background()

	t.Run("Custom slug becomes conflict", func(t *testing.T) {
		w := new(mockLinkWriter)
		w.On("SlugExists", mock.Anything, "raced").Return(false, nil).Once()
		w.On("CreateLink", mock.Anything, mock.Anything).Return(assert.AnError).Once()
		w.On("SlugExists", mock.Anything, "raced").Return(true, nil).Once()

		service := NewShortenerService(w, 6)
		_, err := service.CreateShortURL(ctx, ShortenDTO{TargetURL: "https://example.org", CustomSlug: "raced"})
		assert.ErrorIs(t, err, ErrSlugConflict)
		w.AssertExpectations(t)
	})

	t.Run("Generated slug retried", func(t *testing.T) {
		w := new(mockLinkWriter)
		w.On("SlugExists", mock.Anything, "first1").Return(false, nil).Once()
		w.On("CreateLink", mock.Anything, mock.MatchedBy(func(l *models.Link) bool { return l.Slug == "first1" })).Return(assert.AnError).Once()
		w.On("SlugExists", mock.Anything, "first1").Return(true, nil).Once()
		w.On("SlugExists", mock.Anything, "second").Return(false, nil).Once()
		w.On("CreateLink", mock.Anything, mock.MatchedBy(func(l *models.Link) bool { return l.Slug == "second" })).Return(nil).Once()

		service := NewShortenerService(w, 6)
		next := []string{"first1", "second"}
		service.slugGenerator = func(int) string {
			s := next[0]
			next = next[1:]
			return s
		}

		link, err := service.CreateShortURL(ctx, ShortenDTO{TargetURL: "https://example.org"})
		require.NoError(t, err)
		assert.Equal(t, "second", link.Slug)
		w.AssertExpectations(t)
	})

	t.Run("Other insert error surfaces", func(t *testing.T) {
		w := new(mockLinkWriter)
		w.On("SlugExists", mock.Anything, "boom12").Return(false, nil).Twice()
		w.On("CreateLink", mock.Anything, mock.Anything).Return(assert.AnError).Once()

		service := NewShortenerService(w, 6)
		service.slugGenerator = func(int) string { return "boom12" }

		_, err := service.CreateShortURL(ctx, ShortenDTO{TargetURL: "https://example.org"})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestNewShortenerService_SlugLength(t *testing.T) {
	store, _ := setupTestDB(t)

	assert.Equal(t, DefaultSlugLength, NewShortenerService(store, 0).slugLength)
	assert.Equal(t, 10, NewShortenerService(store, 10).slugLength)
	assert.Equal(t, maxSlugLength, NewShortenerService(store, 100).slugLength)

	link, err := NewShortenerService(store, 100).CreateShortURL(context.Background(), ShortenDTO{TargetURL: "https://example.com"})
	require.NoError(t, err)
	assert.Len(t, link.Slug, maxSlugLength)
}
