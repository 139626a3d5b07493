package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/Kusanagi/repository"
	testingutil "github.com/amirphl/Kusanagi/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saturatedLinkRepo reports every identifier as taken and counts lookups
type saturatedLinkRepo struct {
	repository.ShortLinkRepository
	lookups int
}

func (r *saturatedLinkRepo) IdentifierExists(ctx context.Context, candidate string, excludeID *uint) (bool, error) {
	r.lookups++
	return true, nil
}

func TestGenerateCode(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewShortLinkRepository(testDB.DB)
		allocator := NewSlugAllocator(repo, DefaultCodeLength, DefaultGenerateAttempts)
		ctx := testingutil.CreateTestContext()

		t.Run("ProducesCodesOfConfiguredLength", func(t *testing.T) {
			code, err := allocator.GenerateCode(ctx)
			require.NoError(t, err)
			assert.Len(t, code, DefaultCodeLength)
			for _, r := range code {
				assert.Contains(t, codeAlphabet, string(r))
			}
		})

		t.Run("ProducesDistinctCodes", func(t *testing.T) {
			seen := make(map[string]struct{})
			for i := 0; i < 50; i++ {
				code, err := allocator.GenerateCode(ctx)
				require.NoError(t, err)
				seen[code] = struct{}{}
			}
			// 50 draws from a 62^6 namespace colliding would mean a broken RNG
			assert.Len(t, seen, 50)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestGenerateCodeExhaustion(t *testing.T) {
	repo := &saturatedLinkRepo{}
	allocator := NewSlugAllocator(repo, DefaultCodeLength, DefaultGenerateAttempts)

	_, err := allocator.GenerateCode(context.Background())
	assert.ErrorIs(t, err, ErrCodeAllocationExhausted)
	assert.Equal(t, DefaultGenerateAttempts, repo.lookups)
}

// The attempt bound is a config knob, not a hard-wired constant.
func TestGenerateCodeConfiguredAttempts(t *testing.T) {
	repo := &saturatedLinkRepo{}
	allocator := NewSlugAllocator(repo, DefaultCodeLength, 2)

	_, err := allocator.GenerateCode(context.Background())
	assert.ErrorIs(t, err, ErrCodeAllocationExhausted)
	assert.Equal(t, 2, repo.lookups)

	// non-positive falls back to the default bound
	repo = &saturatedLinkRepo{}
	allocator = NewSlugAllocator(repo, DefaultCodeLength, 0)
	_, err = allocator.GenerateCode(context.Background())
	assert.ErrorIs(t, err, ErrCodeAllocationExhausted)
	assert.Equal(t, DefaultGenerateAttempts, repo.lookups)
}

func TestValidateCustomSlug(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := repository.NewShortLinkRepository(testDB.DB)
		allocator := NewSlugAllocator(repo, DefaultCodeLength, DefaultGenerateAttempts)
		ctx := testingutil.CreateTestContext()

		customer, err := fixtures.CreateTestCustomer("user")
		require.NoError(t, err)

		t.Run("TooShort", func(t *testing.T) {
			assert.ErrorIs(t, allocator.ValidateCustomSlug(ctx, "ab", nil), ErrSlugInvalidFormat)
		})

		t.Run("IllegalCharacters", func(t *testing.T) {
			assert.ErrorIs(t, allocator.ValidateCustomSlug(ctx, "my slug", nil), ErrSlugInvalidFormat)
			assert.ErrorIs(t, allocator.ValidateCustomSlug(ctx, "café", nil), ErrSlugInvalidFormat)
		})

		t.Run("Reserved", func(t *testing.T) {
			assert.ErrorIs(t, allocator.ValidateCustomSlug(ctx, "admin", nil), ErrSlugReserved)
			// reserved check is case-insensitive
			assert.ErrorIs(t, allocator.ValidateCustomSlug(ctx, "Admin", nil), ErrSlugReserved)
			assert.ErrorIs(t, allocator.ValidateCustomSlug(ctx, "metrics", nil), ErrSlugReserved)
		})

		t.Run("FormatCheckedBeforeReserved", func(t *testing.T) {
			// "ab" would also be available, but format rejects first
			assert.ErrorIs(t, allocator.ValidateCustomSlug(ctx, "ab", nil), ErrSlugInvalidFormat)
		})

		t.Run("TakenByCustomSlug", func(t *testing.T) {
			_, err := fixtures.CreateTestCustomShortLink(customer.ID, "my-campaign")
			require.NoError(t, err)
			assert.ErrorIs(t, allocator.ValidateCustomSlug(ctx, "my-campaign", nil), ErrSlugTaken)
		})

		t.Run("TakenByGeneratedCode", func(t *testing.T) {
			link, err := fixtures.CreateTestShortLink(customer.ID)
			require.NoError(t, err)
			// the namespace spans both identifier columns
			assert.ErrorIs(t, allocator.ValidateCustomSlug(ctx, link.ShortCode, nil), ErrSlugTaken)
		})

		t.Run("ExcludeAllowsOwnSlug", func(t *testing.T) {
			link, err := fixtures.CreateTestCustomShortLink(customer.ID, "keep-this-slug")
			require.NoError(t, err)
			assert.NoError(t, allocator.ValidateCustomSlug(ctx, "keep-this-slug", &link.ID))
		})

		t.Run("Available", func(t *testing.T) {
			assert.NoError(t, allocator.ValidateCustomSlug(ctx, "my-link_1", nil))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestIsReservedSlug(t *testing.T) {
	assert.True(t, IsReservedSlug("api"))
	assert.True(t, IsReservedSlug("DASHBOARD"))
	assert.False(t, IsReservedSlug("my-campaign"))
}

func TestSlugRejection(t *testing.T) {
	assert.Equal(t, "InvalidFormat", SlugRejection(ErrSlugInvalidFormat))
	assert.Equal(t, "Reserved", SlugRejection(ErrSlugReserved))
	assert.Equal(t, "AlreadyTaken", SlugRejection(ErrSlugTaken))
	assert.Empty(t, SlugRejection(errors.New("boom")))
	assert.Empty(t, SlugRejection(nil))
}
