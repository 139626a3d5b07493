// Package testing provides test utilities and database setup for testing the link shortening system
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestCustomer creates a test customer with the given role
func (tf *TestFixtures) CreateTestCustomer(role string) (*models.Customer, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	customer := &models.Customer{
		UUID:         uuid.New(),
		Email:        fmt.Sprintf("jane.doe.%s@example.com", randomDigits),
		PasswordHash: string(hashedPassword),
		FullName:     utils.ToPtr("Jane Doe"),
		Role:         role,
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create test customer: %w", err)
	}

	return customer, nil
}

// CreateTestShortLink creates an active short link owned by customerID
func (tf *TestFixtures) CreateTestShortLink(customerID uint) (*models.ShortLink, error) {
	code := randomTestCode(6)

	link := &models.ShortLink{
		CustomerID:  customerID,
		OriginalURL: fmt.Sprintf("https://example.com/articles/%s", code),
		ShortCode:   code,
		IsCustom:    false,
		Title:       utils.ToPtr("Test Link"),
		IsActive:    utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create test short link: %w", err)
	}

	return link, nil
}

// CreateTestCustomShortLink creates an active short link resolving under slug
func (tf *TestFixtures) CreateTestCustomShortLink(customerID uint, slug string) (*models.ShortLink, error) {
	code := randomTestCode(6)

	link := &models.ShortLink{
		CustomerID:  customerID,
		OriginalURL: fmt.Sprintf("https://example.com/articles/%s", slug),
		ShortCode:   code,
		CustomSlug:  &slug,
		IsCustom:    true,
		IsActive:    utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create test custom short link: %w", err)
	}

	return link, nil
}

// CreateTestVisit records one visit for linkID at the given click time
func (tf *TestFixtures) CreateTestVisit(linkID uint, clickedAt time.Time, deviceType string) (*models.ShortLinkVisit, error) {
	visit := &models.ShortLinkVisit{
		ShortLinkID: linkID,
		IPAddress:   utils.ToPtr("203.0.113.7"),
		UserAgent:   utils.ToPtr("Mozilla/5.0 (X11; Linux x86_64) TestAgent/1.0"),
		DeviceType:  deviceType,
		Browser:     utils.ToPtr("Firefox"),
		Platform:    utils.ToPtr("Linux"),
		ClickedAt:   clickedAt,
	}

	if err := tf.DB.DB.Create(visit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test visit: %w", err)
	}

	return visit, nil
}

const testCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomTestCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = testCodeAlphabet[rand.Intn(len(testCodeAlphabet))]
	}
	return string(b)
}
