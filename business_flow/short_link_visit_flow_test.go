package businessflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	testingutil "github.com/amirphl/Kusanagi/testing"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVisitFlow(testDB *testingutil.TestDB) (ShortLinkVisitFlow, repository.ShortLinkRepository) {
	linkRepo := repository.NewShortLinkRepository(testDB.DB)
	visitRepo := repository.NewShortLinkVisitRepository(testDB.DB)
	cache := NewLinkCache(nil, "", 0)
	return NewShortLinkVisitFlow(linkRepo, visitRepo, cache, testDB.DB, DefaultVisitWriteAttempts), linkRepo
}

func TestVisit(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, linkRepo := newTestVisitFlow(testDB)
		ctx := testingutil.CreateTestContext()

		customer, err := fixtures.CreateTestCustomer("user")
		require.NoError(t, err)

		t.Run("RecordsVisitAndRedirects", func(t *testing.T) {
			link, err := fixtures.CreateTestShortLink(customer.ID)
			require.NoError(t, err)

			metadata := NewClientMetadata(
				"198.51.100.4",
				"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
				"https://news.example.com/feed",
			)

			destination, err := flow.Visit(ctx, link.ShortCode, metadata)
			require.NoError(t, err)
			assert.Equal(t, link.OriginalURL, destination)

			stored, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), stored.ClickCount)

			var visits []models.ShortLinkVisit
			require.NoError(t, testDB.DB.Where("short_link_id = ?", link.ID).Find(&visits).Error)
			require.Len(t, visits, 1)
			assert.Equal(t, "198.51.100.4", *visits[0].IPAddress)
			assert.Equal(t, models.DeviceMobile, visits[0].DeviceType)
			assert.Equal(t, "Safari", *visits[0].Browser)
			assert.Equal(t, "iOS", *visits[0].Platform)
			assert.Equal(t, "https://news.example.com/feed", *visits[0].Referer)
			assert.False(t, visits[0].ClickedAt.IsZero())
		})

		t.Run("ResolvesCustomSlug", func(t *testing.T) {
			link, err := fixtures.CreateTestCustomShortLink(customer.ID, "weekly-digest")
			require.NoError(t, err)

			destination, err := flow.Visit(ctx, "weekly-digest", nil)
			require.NoError(t, err)
			assert.Equal(t, link.OriginalURL, destination)

			// the generated code of a custom link does not resolve
			_, err = flow.Visit(ctx, link.ShortCode, nil)
			assert.ErrorIs(t, err, ErrShortLinkNotFound)
		})

		t.Run("NilMetadata", func(t *testing.T) {
			link, err := fixtures.CreateTestShortLink(customer.ID)
			require.NoError(t, err)

			_, err = flow.Visit(ctx, link.ShortCode, nil)
			require.NoError(t, err)

			var visit models.ShortLinkVisit
			require.NoError(t, testDB.DB.Where("short_link_id = ?", link.ID).First(&visit).Error)
			assert.Equal(t, models.DeviceUnknown, visit.DeviceType)
			assert.Nil(t, visit.IPAddress)
			assert.Nil(t, visit.UserAgent)
		})

		t.Run("UnknownCode", func(t *testing.T) {
			_, err := flow.Visit(ctx, "nosuch", nil)
			assert.ErrorIs(t, err, ErrShortLinkNotFound)
		})

		t.Run("EmptyCode", func(t *testing.T) {
			_, err := flow.Visit(ctx, "", nil)
			assert.ErrorIs(t, err, ErrShortLinkNotFound)
		})

		t.Run("InactiveLink", func(t *testing.T) {
			link, err := fixtures.CreateTestShortLink(customer.ID)
			require.NoError(t, err)
			require.NoError(t, testDB.DB.Model(link).Update("is_active", false).Error)

			_, err = flow.Visit(ctx, link.ShortCode, nil)
			assert.ErrorIs(t, err, ErrShortLinkNotFound)

			// no tracking for a refused redirect
			stored, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Zero(t, stored.ClickCount)
		})

		t.Run("ExpiredLink", func(t *testing.T) {
			link, err := fixtures.CreateTestShortLink(customer.ID)
			require.NoError(t, err)
			past := utils.UTCNow().Add(-time.Minute)
			require.NoError(t, testDB.DB.Model(link).Update("expires_at", past).Error)

			_, err = flow.Visit(ctx, link.ShortCode, nil)
			assert.ErrorIs(t, err, ErrShortLinkNotFound)
		})

		return nil
	})
	require.NoError(t, err)
}

// staleLinkRepo resolves to a fixed row regardless of what the database
// holds, standing in for a cache or read that raced a delete
type staleLinkRepo struct {
	repository.ShortLinkRepository
	link *models.ShortLink
}

func (r *staleLinkRepo) ByPublicCode(ctx context.Context, code string) (*models.ShortLink, error) {
	return r.link, nil
}

// A delete landing between resolution and the tracking write must
// surface as NotFound, not as a tracking failure: the visit insert hits
// the dangling foreign key and retrying cannot bring the row back.
func TestVisitLinkDeletedAfterResolve(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		customer, err := fixtures.CreateTestCustomer("user")
		require.NoError(t, err)
		link, err := fixtures.CreateTestShortLink(customer.ID)
		require.NoError(t, err)
		require.NoError(t, testDB.DB.Delete(&models.ShortLink{}, link.ID).Error)

		linkRepo := repository.NewShortLinkRepository(testDB.DB)
		visitRepo := repository.NewShortLinkVisitRepository(testDB.DB)
		stale := &staleLinkRepo{ShortLinkRepository: linkRepo, link: link}
		flow := NewShortLinkVisitFlow(stale, visitRepo, NewLinkCache(nil, "", 0), testDB.DB, DefaultVisitWriteAttempts)

		_, err = flow.Visit(ctx, link.ShortCode, nil)
		assert.ErrorIs(t, err, ErrShortLinkNotFound)

		var visitCount int64
		require.NoError(t, testDB.DB.Model(&models.ShortLinkVisit{}).
			Where("short_link_id = ?", link.ID).Count(&visitCount).Error)
		assert.Zero(t, visitCount)

		return nil
	})
	require.NoError(t, err)
}

func TestVisitConcurrent(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, linkRepo := newTestVisitFlow(testDB)
		ctx := testingutil.CreateTestContext()

		customer, err := fixtures.CreateTestCustomer("user")
		require.NoError(t, err)
		link, err := fixtures.CreateTestShortLink(customer.ID)
		require.NoError(t, err)

		const visitors = 100
		var wg sync.WaitGroup
		errCh := make(chan error, visitors)

		for i := 0; i < visitors; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := flow.Visit(ctx, link.ShortCode, nil); err != nil {
					errCh <- err
				}
			}()
		}
		wg.Wait()
		close(errCh)

		for err := range errCh {
			t.Errorf("concurrent visit failed: %v", err)
		}

		stored, err := linkRepo.ByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(visitors), stored.ClickCount)

		var visitCount int64
		require.NoError(t, testDB.DB.Model(&models.ShortLinkVisit{}).
			Where("short_link_id = ?", link.ID).Count(&visitCount).Error)
		assert.Equal(t, int64(visitors), visitCount)

		return nil
	})
	require.NoError(t, err)
}
