package businessflow

import (
	"strings"
	"testing"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	testingutil "github.com/amirphl/Kusanagi/testing"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPublicBase = "https://ksng.test"

func newTestShortLinkFlow(testDB *testingutil.TestDB) (ShortLinkFlow, repository.ShortLinkRepository) {
	repo := repository.NewShortLinkRepository(testDB.DB)
	allocator := NewSlugAllocator(repo, DefaultCodeLength, DefaultGenerateAttempts)
	cache := NewLinkCache(nil, "", 0)
	return NewShortLinkFlow(repo, allocator, cache, testDB.DB, testPublicBase), repo
}

func TestCreateShortLink(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, repo := newTestShortLinkFlow(testDB)
		ctx := testingutil.CreateTestContext()

		customer, err := fixtures.CreateTestCustomer("user")
		require.NoError(t, err)

		t.Run("GeneratedCode", func(t *testing.T) {
			result, err := flow.CreateShortLink(ctx, customer.ID, &dto.CreateShortLinkRequest{
				OriginalURL: "https://example.com/some/long/path?with=query",
				Title:       utils.ToPtr("Launch post"),
			})
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Len(t, result.ShortCode, DefaultCodeLength)
			assert.False(t, result.IsCustom)
			assert.Nil(t, result.CustomSlug)
			assert.True(t, result.IsActive)
			assert.Zero(t, result.ClickCount)
			assert.Equal(t, testPublicBase+"/s/"+result.ShortCode, result.ShortURL)

			stored, err := repo.ByID(ctx, result.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, customer.ID, stored.CustomerID)
		})

		t.Run("CustomSlug", func(t *testing.T) {
			result, err := flow.CreateShortLink(ctx, customer.ID, &dto.CreateShortLinkRequest{
				OriginalURL: "https://example.com/landing",
				CustomSlug:  utils.ToPtr("summer-sale"),
			})
			require.NoError(t, err)

			assert.True(t, result.IsCustom)
			require.NotNil(t, result.CustomSlug)
			assert.Equal(t, "summer-sale", *result.CustomSlug)
			// the custom slug resolves publicly, not the generated code
			assert.Equal(t, testPublicBase+"/s/summer-sale", result.ShortURL)
			// the generated code is still allocated alongside
			assert.Len(t, result.ShortCode, DefaultCodeLength)
		})

		t.Run("DuplicateCustomSlug", func(t *testing.T) {
			_, err := flow.CreateShortLink(ctx, customer.ID, &dto.CreateShortLinkRequest{
				OriginalURL: "https://example.com/other",
				CustomSlug:  utils.ToPtr("summer-sale"),
			})
			assert.ErrorIs(t, err, ErrSlugTaken)
		})

		t.Run("ReservedSlug", func(t *testing.T) {
			_, err := flow.CreateShortLink(ctx, customer.ID, &dto.CreateShortLinkRequest{
				OriginalURL: "https://example.com/other",
				CustomSlug:  utils.ToPtr("login"),
			})
			assert.ErrorIs(t, err, ErrSlugReserved)
		})

		t.Run("InvalidURL", func(t *testing.T) {
			for _, raw := range []string{"", "not-a-url", "ftp://example.com/file", "//missing-scheme.com", "https://"} {
				_, err := flow.CreateShortLink(ctx, customer.ID, &dto.CreateShortLinkRequest{OriginalURL: raw})
				assert.ErrorIs(t, err, ErrInvalidOriginalURL, "url: %q", raw)
			}
		})

		t.Run("URLTooLong", func(t *testing.T) {
			long := "https://example.com/" + strings.Repeat("a", 2048)
			_, err := flow.CreateShortLink(ctx, customer.ID, &dto.CreateShortLinkRequest{OriginalURL: long})
			assert.ErrorIs(t, err, ErrOriginalURLTooLong)
		})

		t.Run("ExpiryMustBeFuture", func(t *testing.T) {
			past := utils.UTCNow().Add(-time.Hour)
			_, err := flow.CreateShortLink(ctx, customer.ID, &dto.CreateShortLinkRequest{
				OriginalURL: "https://example.com/x",
				ExpiresAt:   &past,
			})
			assert.ErrorIs(t, err, ErrExpiryNotFuture)
		})

		t.Run("FutureExpiryAccepted", func(t *testing.T) {
			future := utils.UTCNow().Add(48 * time.Hour)
			result, err := flow.CreateShortLink(ctx, customer.ID, &dto.CreateShortLinkRequest{
				OriginalURL: "https://example.com/x",
				ExpiresAt:   &future,
			})
			require.NoError(t, err)
			require.NotNil(t, result.ExpiresAt)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestGetAndListShortLinks(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, _ := newTestShortLinkFlow(testDB)
		ctx := testingutil.CreateTestContext()

		owner, err := fixtures.CreateTestCustomer("user")
		require.NoError(t, err)
		stranger, err := fixtures.CreateTestCustomer("user")
		require.NoError(t, err)
		admin, err := fixtures.CreateTestCustomer("admin")
		require.NoError(t, err)

		link, err := fixtures.CreateTestShortLink(owner.ID)
		require.NoError(t, err)

		t.Run("OwnerCanRead", func(t *testing.T) {
			result, err := flow.GetShortLink(ctx, owner.ID, false, link.ID)
			require.NoError(t, err)
			assert.Equal(t, link.ID, result.ID)
		})

		t.Run("StrangerDenied", func(t *testing.T) {
			_, err := flow.GetShortLink(ctx, stranger.ID, false, link.ID)
			assert.ErrorIs(t, err, ErrLinkAccessDenied)
		})

		t.Run("AdminCanReadAny", func(t *testing.T) {
			result, err := flow.GetShortLink(ctx, admin.ID, true, link.ID)
			require.NoError(t, err)
			assert.Equal(t, link.ID, result.ID)
		})

		t.Run("MissingLink", func(t *testing.T) {
			_, err := flow.GetShortLink(ctx, owner.ID, false, 999999)
			assert.ErrorIs(t, err, ErrShortLinkNotFound)
		})

		t.Run("ListScopedToOwner", func(t *testing.T) {
			for i := 0; i < 3; i++ {
				_, err := fixtures.CreateTestShortLink(stranger.ID)
				require.NoError(t, err)
			}

			result, err := flow.ListShortLinks(ctx, owner.ID, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, int64(1), result.Pagination.Total)
			require.Len(t, result.Items, 1)
			assert.Equal(t, link.ID, result.Items[0].ID)
		})

		t.Run("ListPagination", func(t *testing.T) {
			result, err := flow.ListShortLinks(ctx, stranger.ID, 2, 2)
			require.NoError(t, err)
			assert.Equal(t, int64(3), result.Pagination.Total)
			assert.Len(t, result.Items, 1)
		})

		t.Run("InvalidPaging", func(t *testing.T) {
			_, err := flow.ListShortLinks(ctx, owner.ID, 0, 10)
			assert.ErrorIs(t, err, ErrInvalidPage)
			_, err = flow.ListShortLinks(ctx, owner.ID, 1, 0)
			assert.ErrorIs(t, err, ErrInvalidPageSize)
			_, err = flow.ListShortLinks(ctx, owner.ID, 1, utils.MaxPageSize+1)
			assert.ErrorIs(t, err, ErrInvalidPageSize)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestUpdateShortLink(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, repo := newTestShortLinkFlow(testDB)
		ctx := testingutil.CreateTestContext()

		owner, err := fixtures.CreateTestCustomer("user")
		require.NoError(t, err)
		stranger, err := fixtures.CreateTestCustomer("user")
		require.NoError(t, err)

		t.Run("UpdateFields", func(t *testing.T) {
			link, err := fixtures.CreateTestShortLink(owner.ID)
			require.NoError(t, err)

			result, err := flow.UpdateShortLink(ctx, owner.ID, false, link.ID, &dto.UpdateShortLinkRequest{
				Title:       utils.ToPtr("New title"),
				Description: utils.ToPtr("New description"),
				IsActive:    utils.ToPtr(false),
			})
			require.NoError(t, err)
			assert.Equal(t, "New title", *result.Title)
			assert.Equal(t, "New description", *result.Description)
			assert.False(t, result.IsActive)
		})

		t.Run("ClaimCustomSlug", func(t *testing.T) {
			link, err := fixtures.CreateTestShortLink(owner.ID)
			require.NoError(t, err)

			result, err := flow.UpdateShortLink(ctx, owner.ID, false, link.ID, &dto.UpdateShortLinkRequest{
				CustomSlug: utils.ToPtr("renamed-link"),
			})
			require.NoError(t, err)
			assert.True(t, result.IsCustom)
			assert.Equal(t, testPublicBase+"/s/renamed-link", result.ShortURL)
		})

		t.Run("SlugConflictOnUpdate", func(t *testing.T) {
			link, err := fixtures.CreateTestShortLink(owner.ID)
			require.NoError(t, err)

			_, err = flow.UpdateShortLink(ctx, owner.ID, false, link.ID, &dto.UpdateShortLinkRequest{
				CustomSlug: utils.ToPtr("renamed-link"),
			})
			assert.ErrorIs(t, err, ErrSlugTaken)
		})

		t.Run("ClearExpiry", func(t *testing.T) {
			link, err := fixtures.CreateTestShortLink(owner.ID)
			require.NoError(t, err)
			future := utils.UTCNow().Add(time.Hour)
			_, err = flow.UpdateShortLink(ctx, owner.ID, false, link.ID, &dto.UpdateShortLinkRequest{ExpiresAt: &future})
			require.NoError(t, err)

			result, err := flow.UpdateShortLink(ctx, owner.ID, false, link.ID, &dto.UpdateShortLinkRequest{ClearExpiry: true})
			require.NoError(t, err)
			assert.Nil(t, result.ExpiresAt)

			stored, err := repo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Nil(t, stored.ExpiresAt)
		})

		t.Run("EmptyUpdateRejected", func(t *testing.T) {
			link, err := fixtures.CreateTestShortLink(owner.ID)
			require.NoError(t, err)
			_, err = flow.UpdateShortLink(ctx, owner.ID, false, link.ID, &dto.UpdateShortLinkRequest{})
			assert.ErrorIs(t, err, ErrUpdateRequired)
		})

		t.Run("StrangerDenied", func(t *testing.T) {
			link, err := fixtures.CreateTestShortLink(owner.ID)
			require.NoError(t, err)
			_, err = flow.UpdateShortLink(ctx, stranger.ID, false, link.ID, &dto.UpdateShortLinkRequest{
				Title: utils.ToPtr("hijacked"),
			})
			assert.ErrorIs(t, err, ErrLinkAccessDenied)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDeleteShortLink(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, repo := newTestShortLinkFlow(testDB)
		ctx := testingutil.CreateTestContext()

		owner, err := fixtures.CreateTestCustomer("user")
		require.NoError(t, err)
		stranger, err := fixtures.CreateTestCustomer("user")
		require.NoError(t, err)

		link, err := fixtures.CreateTestShortLink(owner.ID)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err := fixtures.CreateTestVisit(link.ID, utils.UTCNow(), models.DeviceDesktop)
			require.NoError(t, err)
		}

		t.Run("StrangerDenied", func(t *testing.T) {
			assert.ErrorIs(t, flow.DeleteShortLink(ctx, stranger.ID, false, link.ID), ErrLinkAccessDenied)
		})

		t.Run("OwnerDeletesWithVisits", func(t *testing.T) {
			require.NoError(t, flow.DeleteShortLink(ctx, owner.ID, false, link.ID))

			stored, err := repo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Nil(t, stored)

			// visit history goes with the link
			var visitCount int64
			require.NoError(t, testDB.DB.Model(&models.ShortLinkVisit{}).
				Where("short_link_id = ?", link.ID).Count(&visitCount).Error)
			assert.Zero(t, visitCount)
		})

		t.Run("DeleteMissing", func(t *testing.T) {
			assert.ErrorIs(t, flow.DeleteShortLink(ctx, owner.ID, false, link.ID), ErrShortLinkNotFound)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCheckSlugAvailability(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, _ := newTestShortLinkFlow(testDB)
		ctx := testingutil.CreateTestContext()

		customer, err := fixtures.CreateTestCustomer("user")
		require.NoError(t, err)
		_, err = fixtures.CreateTestCustomShortLink(customer.ID, "claimed-slug")
		require.NoError(t, err)

		tests := []struct {
			slug      string
			available bool
			reason    string
		}{
			{"fresh-slug", true, ""},
			{"ab", false, "InvalidFormat"},
			{"has spaces", false, "InvalidFormat"},
			{"admin", false, "Reserved"},
			{"claimed-slug", false, "AlreadyTaken"},
		}
		for _, tt := range tests {
			result, err := flow.CheckSlugAvailability(ctx, tt.slug)
			require.NoError(t, err, "slug: %q", tt.slug)
			assert.Equal(t, tt.available, result.Available, "slug: %q", tt.slug)
			assert.Equal(t, tt.reason, result.Reason, "slug: %q", tt.slug)
		}

		return nil
	})
	require.NoError(t, err)
}
