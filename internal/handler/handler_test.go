package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"greatgames/backend/internal/config"
	"greatgames/backend/internal/database"
	"greatgames/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// setupTestDB points database.DB at a fresh in-memory sqlite instance and
// installs a test configuration.
func setupTestDB(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.AppConfig = &config.Config{
		JWTSecret:      "test-secret",
		UploadDir:      t.TempDir(),
		RecordActivity: true,
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	database.DB = db
}

func createTestUser(t *testing.T, username string, isAdmin bool) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hashed),
		IsAdmin:      isAdmin,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTestGame(t *testing.T, title, genre, platform string) models.Game {
	t.Helper()
	game := models.Game{
		Title:    title,
		Genre:    genre,
		Platform: platform,
	}
	if err := database.DB.Create(&game).Error; err != nil {
		t.Fatalf("Failed to create test game: %v", err)
	}
	return game
}

// testContext builds a gin context for calling a handler directly, with an
// optional JSON body and an optional authenticated user.
func testContext(t *testing.T, method, path, body string, userID uint, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req

	if userID != 0 {
		c.Set("userID", userID)
	}
	c.Params = params

	return c, w
}
