package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"greatgames/backend/internal/config"
	"greatgames/backend/internal/database"
	"greatgames/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func usernameParam(username string) gin.Params {
	return gin.Params{{Key: "username", Value: username}}
}

func TestGetProfile(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice", false)
	bob := createTestUser(t, "bob", false)
	hades := createTestGame(t, "Hades", "Roguelike", "PC")
	celeste := createTestGame(t, "Celeste", "Platformer", "PC")

	database.DB.Create(&models.UserGame{UserID: alice.ID, GameID: hades.ID, Status: models.StatusCompleted})
	database.DB.Create(&models.UserGame{UserID: alice.ID, GameID: celeste.ID, Status: models.StatusWishlist})
	database.DB.Create(&models.Review{UserID: alice.ID, GameID: hades.ID, Rating: 9})

	t.Run("unknown username yields 404", func(t *testing.T) {
		c, w := testContext(t, http.MethodGet, "/profile", "", 0, usernameParam("nobody"))

		GetProfile(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("profile aggregates lists, reviews, and stats", func(t *testing.T) {
		c, w := testContext(t, http.MethodGet, "/profile", "", 0, usernameParam("alice"))

		GetProfile(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response ProfileResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		assert.Equal(t, "alice", response.User.Username)
		assert.Len(t, response.Completed, 1)
		assert.Len(t, response.Wishlist, 1)
		assert.Len(t, response.CurrentlyPlaying, 0)
		if assert.Len(t, response.Reviews, 1) {
			assert.Equal(t, "Hades", response.Reviews[0].GameTitle)
		}
		assert.Equal(t, int64(2), response.Stats.TotalGames)
		assert.Equal(t, int64(1), response.Stats.Completed)
		assert.Equal(t, int64(1), response.Stats.Reviews)
		assert.False(t, response.IsFollowing)
	})

	t.Run("is_following reflects the viewer", func(t *testing.T) {
		database.DB.Create(&models.Follow{FollowerID: bob.ID, FollowingID: alice.ID})

		c, w := testContext(t, http.MethodGet, "/profile", "", bob.ID, usernameParam("alice"))

		GetProfile(c)

		var response ProfileResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.IsFollowing)
	})
}

func TestToggleFollow(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice", false)
	createTestUser(t, "bob", false)

	t.Run("unknown target yields 404", func(t *testing.T) {
		c, w := testContext(t, http.MethodPost, "/follow", "", alice.ID, usernameParam("nobody"))

		ToggleFollow(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("self-follow always rejected", func(t *testing.T) {
		c, w := testContext(t, http.MethodPost, "/follow", "", alice.ID, usernameParam("alice"))

		ToggleFollow(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var count int64
		database.DB.Model(&models.Follow{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("toggle is an involution", func(t *testing.T) {
		c, w := testContext(t, http.MethodPost, "/follow", "", alice.ID, usernameParam("bob"))
		ToggleFollow(c)
		assert.Equal(t, http.StatusOK, w.Code)

		var count int64
		database.DB.Model(&models.Follow{}).Count(&count)
		assert.Equal(t, int64(1), count)

		c, w = testContext(t, http.MethodPost, "/follow", "", alice.ID, usernameParam("bob"))
		ToggleFollow(c)
		assert.Equal(t, http.StatusOK, w.Code)

		database.DB.Model(&models.Follow{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})
}

func TestFriendsFeed(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice", false)
	bob := createTestUser(t, "bob", false)
	carol := createTestUser(t, "carol", false)
	game := createTestGame(t, "Hades", "Roguelike", "PC")

	// Alice follows Bob; Carol follows nobody.
	database.DB.Create(&models.Follow{FollowerID: alice.ID, FollowingID: bob.ID})

	// Bob posts a review through the handler so the activity hook fires.
	c, w := testContext(t, http.MethodPost, "/review", `{"rating": 7}`, bob.ID, gameIDParam(game))
	SubmitReview(c)
	assert.Equal(t, http.StatusOK, w.Code)

	t.Run("follower sees the review activity", func(t *testing.T) {
		c, w := testContext(t, http.MethodGet, "/friends", "", alice.ID, nil)

		Friends(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response FriendsResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		assert.Len(t, response.Following, 1)
		assert.Equal(t, "bob", response.Following[0].Username)

		if assert.Len(t, response.Activity, 1) {
			assert.Equal(t, models.ActivityReview, response.Activity[0].ActivityType)
			assert.Equal(t, "bob", response.Activity[0].Username)
			assert.Equal(t, "Hades", response.Activity[0].GameTitle)
		}
	})

	t.Run("non-follower sees nothing", func(t *testing.T) {
		c, w := testContext(t, http.MethodGet, "/friends", "", carol.ID, nil)

		Friends(c)

		var response FriendsResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Empty(t, response.Activity)
		assert.Empty(t, response.Following)
	})

	t.Run("followers list carries game counts", func(t *testing.T) {
		database.DB.Create(&models.UserGame{UserID: bob.ID, GameID: game.ID, Status: models.StatusCompleted})

		c, w := testContext(t, http.MethodGet, "/friends", "", alice.ID, nil)

		Friends(c)

		var response FriendsResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		if assert.Len(t, response.Following, 1) {
			assert.Equal(t, int64(1), response.Following[0].GameCount)
		}
	})
}

func TestDiscoverFriends(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice", false)
	bob := createTestUser(t, "bob", false)
	createTestUser(t, "carol", false)
	game := createTestGame(t, "Hades", "Roguelike", "PC")

	database.DB.Create(&models.UserGame{UserID: bob.ID, GameID: game.ID, Status: models.StatusCompleted})
	database.DB.Create(&models.Follow{FollowerID: alice.ID, FollowingID: bob.ID})

	t.Run("excludes self and ranks by collection size", func(t *testing.T) {
		c, w := testContext(t, http.MethodGet, "/discover", "", alice.ID, nil)

		DiscoverFriends(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response []FriendResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		if assert.Len(t, response, 2) {
			assert.Equal(t, "bob", response[0].Username)
			assert.Equal(t, int64(1), response[0].GameCount)
			assert.True(t, response[0].IsFollowing)
			assert.Equal(t, "carol", response[1].Username)
			assert.False(t, response[1].IsFollowing)
		}
	})

	t.Run("query filters by username substring", func(t *testing.T) {
		c, w := testContext(t, http.MethodGet, "/discover?q=CAR", "", alice.ID, nil)

		DiscoverFriends(c)

		var response []FriendResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		if assert.Len(t, response, 1) {
			assert.Equal(t, "carol", response[0].Username)
		}
	})
}

func multipartProfileRequest(t *testing.T, name, bio, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	assert.NoError(t, writer.WriteField("name", name))
	assert.NoError(t, writer.WriteField("bio", bio))
	if filename != "" {
		part, err := writer.CreateFormFile("profile_picture", filename)
		assert.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUpdateProfile(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice", false)

	t.Run("updates name and bio", func(t *testing.T) {
		body, contentType := multipartProfileRequest(t, "Alice", "I play roguelikes.", "")

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPut, "/users/me", body)
		c.Request.Header.Set("Content-Type", contentType)
		c.Set("userID", alice.ID)

		UpdateProfile(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var user models.User
		database.DB.First(&user, alice.ID)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, "I play roguelikes.", user.Bio)
	})

	t.Run("rejects disallowed image extensions", func(t *testing.T) {
		body, contentType := multipartProfileRequest(t, "Alice", "", "malware.exe")

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPut, "/users/me", body)
		c.Request.Header.Set("Content-Type", contentType)
		c.Set("userID", alice.ID)

		UpdateProfile(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("stores the picture under a stable per-user filename", func(t *testing.T) {
		body, contentType := multipartProfileRequest(t, "Alice", "", "selfie.png")

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPut, "/users/me", body)
		c.Request.Header.Set("Content-Type", contentType)
		c.Set("userID", alice.ID)

		UpdateProfile(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var user models.User
		database.DB.First(&user, alice.ID)
		assert.Contains(t, user.ProfilePicture, "user_")
		assert.Contains(t, user.ProfilePicture, ".png")

		stored := filepath.Join(config.AppConfig.UploadDir, filepath.Base(user.ProfilePicture))
		_, err := os.Stat(stored)
		assert.NoError(t, err)
	})
}
