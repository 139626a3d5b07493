package businessflow

import (
	"context"
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"

	"github.com/amirphl/Kusanagi/repository"
)

const (
	// codeAlphabet is the alphabet for generated short codes
	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultCodeLength is the length of generated short codes
	DefaultCodeLength = 6

	// DefaultGenerateAttempts bounds the draw-check loop. The namespace
	// holds 62^6 codes, so spending all attempts means the table is
	// effectively saturated and the create must fail loudly instead of
	// spinning.
	DefaultGenerateAttempts = 10
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

// reservedSlugs are identifiers that would shadow the application's own
// routes. Loaded once, never mutated; membership is case-insensitive.
var reservedSlugs = map[string]struct{}{
	"admin": {}, "api": {}, "www": {}, "mail": {}, "ftp": {},
	"localhost": {}, "dashboard": {}, "login": {}, "register": {},
	"logout": {}, "profile": {}, "settings": {}, "help": {},
	"about": {}, "contact": {}, "terms": {}, "privacy": {},
	"support": {}, "blog": {}, "news": {}, "home": {}, "index": {},
	"create": {}, "edit": {}, "delete": {}, "update": {}, "show": {},
	"list": {}, "search": {}, "analytics": {}, "stats": {},
	"report": {}, "health": {}, "metrics": {},
}

// IsReservedSlug checks the denylist, case-insensitively
func IsReservedSlug(slug string) bool {
	_, ok := reservedSlugs[strings.ToLower(slug)]
	return ok
}

// SlugAllocator produces globally-unique public identifiers.
// GenerateCode draws random codes; ValidateCustomSlug runs the ordered
// format -> reserved -> availability pipeline. Both only pre-check the
// namespace: the unique indexes on short_code and custom_slug are the
// real invariant enforcers, and callers treat duplicate-key on insert
// as the authoritative collision signal.
type SlugAllocator interface {
	GenerateCode(ctx context.Context) (string, error)
	ValidateCustomSlug(ctx context.Context, slug string, excludeID *uint) error
}

type SlugAllocatorImpl struct {
	repo       repository.ShortLinkRepository
	codeLength int
	attempts   int
}

func NewSlugAllocator(repo repository.ShortLinkRepository, codeLength, attempts int) SlugAllocator {
	if codeLength <= 0 {
		codeLength = DefaultCodeLength
	}
	if attempts <= 0 {
		attempts = DefaultGenerateAttempts
	}
	return &SlugAllocatorImpl{repo: repo, codeLength: codeLength, attempts: attempts}
}

func (a *SlugAllocatorImpl) GenerateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < a.attempts; attempt++ {
		code, err := randomCode(a.codeLength)
		if err != nil {
			return "", NewBusinessError("CODE_GENERATION_FAILED", "Failed to draw random short code", err)
		}
		exists, err := a.repo.IdentifierExists(ctx, code, nil)
		if err != nil {
			return "", NewBusinessError("CODE_LOOKUP_FAILED", "Failed to check short code availability", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeAllocationExhausted
}

func (a *SlugAllocatorImpl) ValidateCustomSlug(ctx context.Context, slug string, excludeID *uint) error {
	if !slugPattern.MatchString(slug) {
		return ErrSlugInvalidFormat
	}
	if IsReservedSlug(slug) {
		return ErrSlugReserved
	}
	exists, err := a.repo.IdentifierExists(ctx, slug, excludeID)
	if err != nil {
		return NewBusinessError("SLUG_LOOKUP_FAILED", "Failed to check slug availability", err)
	}
	if exists {
		return ErrSlugTaken
	}
	return nil
}

func randomCode(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < n; i++ {
		j, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[j.Int64()])
	}
	return b.String(), nil
}
