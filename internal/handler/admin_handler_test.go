package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"greatgames/backend/internal/database"
	"greatgames/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func idParam(id uint) gin.Params {
	return gin.Params{{Key: "id", Value: fmt.Sprint(id)}}
}

func TestCreateGame(t *testing.T) {
	setupTestDB(t)
	admin := createTestUser(t, "admin", true)

	t.Run("empty title rejected and catalog unchanged", func(t *testing.T) {
		for _, body := range []string{`{"title": ""}`, `{"title": "   "}`, `{}`} {
			c, w := testContext(t, http.MethodPost, "/admin/games", body, admin.ID, nil)

			CreateGame(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		}

		var count int64
		database.DB.Model(&models.Game{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("created game appears in the admin list", func(t *testing.T) {
		body := `{"title": "Test Game", "genre": "RPG", "platform": "PC"}`
		c, w := testContext(t, http.MethodPost, "/admin/games", body, admin.ID, nil)

		CreateGame(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		c, w = testContext(t, http.MethodGet, "/admin/games", "", admin.ID, nil)
		AdminListGames(c)

		var response []GameResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		if assert.Len(t, response, 1) {
			assert.Equal(t, "Test Game", response[0].Title)
		}
	})

	t.Run("creation associates tags", func(t *testing.T) {
		tag := models.Tag{Name: "Indie"}
		database.DB.Create(&tag)

		body := fmt.Sprintf(`{"title": "Tagged Game", "tag_ids": [%d]}`, tag.ID)
		c, w := testContext(t, http.MethodPost, "/admin/games", body, admin.ID, nil)

		CreateGame(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response GameResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		if assert.Len(t, response.Tags, 1) {
			assert.Equal(t, "Indie", response.Tags[0].Name)
		}
	})
}

func TestUpdateGame(t *testing.T) {
	setupTestDB(t)
	admin := createTestUser(t, "admin", true)
	game := createTestGame(t, "Old Title", "RPG", "PC")

	t.Run("unknown id yields 404", func(t *testing.T) {
		c, w := testContext(t, http.MethodPut, "/admin/games/999", `{"title": "X"}`, admin.ID, idParam(999))

		UpdateGame(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		c, w := testContext(t, http.MethodPut, "/admin/games/1", `{"title": " "}`, admin.ID, idParam(game.ID))

		UpdateGame(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("fields are replaced", func(t *testing.T) {
		body := `{"title": "New Title", "genre": "Roguelike", "platform": "Switch", "release_year": 2020}`
		c, w := testContext(t, http.MethodPut, "/admin/games/1", body, admin.ID, idParam(game.ID))

		UpdateGame(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var updated models.Game
		database.DB.First(&updated, game.ID)
		assert.Equal(t, "New Title", updated.Title)
		assert.Equal(t, "Roguelike", updated.Genre)
		if assert.NotNil(t, updated.ReleaseYear) {
			assert.Equal(t, 2020, *updated.ReleaseYear)
		}
	})
}

func TestDeleteGame(t *testing.T) {
	setupTestDB(t)
	admin := createTestUser(t, "admin", true)
	user := createTestUser(t, "alice", false)
	game := createTestGame(t, "Doomed", "RPG", "PC")

	database.DB.Create(&models.UserGame{UserID: user.ID, GameID: game.ID, Status: models.StatusWishlist})
	database.DB.Create(&models.Review{UserID: user.ID, GameID: game.ID, Rating: 8})
	gid := game.ID
	database.DB.Create(&models.Activity{UserID: user.ID, ActivityType: models.ActivityReview, GameID: &gid})

	t.Run("unknown id yields 404", func(t *testing.T) {
		c, w := testContext(t, http.MethodDelete, "/admin/games/999", "", admin.ID, idParam(999))

		DeleteGame(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("deletion removes dependents and detaches activity", func(t *testing.T) {
		c, w := testContext(t, http.MethodDelete, "/admin/games/1", "", admin.ID, idParam(game.ID))

		DeleteGame(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var gameCount, listCount, reviewCount int64
		database.DB.Model(&models.Game{}).Count(&gameCount)
		database.DB.Model(&models.UserGame{}).Count(&listCount)
		database.DB.Model(&models.Review{}).Count(&reviewCount)
		assert.Equal(t, int64(0), gameCount)
		assert.Equal(t, int64(0), listCount)
		assert.Equal(t, int64(0), reviewCount)

		var act models.Activity
		assert.NoError(t, database.DB.First(&act).Error)
		assert.Nil(t, act.GameID)
	})
}

func TestToggleAdmin(t *testing.T) {
	setupTestDB(t)
	admin := createTestUser(t, "admin", true)
	user := createTestUser(t, "alice", false)

	t.Run("self-toggle always rejected", func(t *testing.T) {
		c, w := testContext(t, http.MethodPost, "/toggle-admin", "", admin.ID, idParam(admin.ID))

		ToggleAdmin(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var self models.User
		database.DB.First(&self, admin.ID)
		assert.True(t, self.IsAdmin)
	})

	t.Run("unknown target yields 404", func(t *testing.T) {
		c, w := testContext(t, http.MethodPost, "/toggle-admin", "", admin.ID, idParam(999))

		ToggleAdmin(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("toggle flips the flag both ways", func(t *testing.T) {
		c, w := testContext(t, http.MethodPost, "/toggle-admin", "", admin.ID, idParam(user.ID))
		ToggleAdmin(c)
		assert.Equal(t, http.StatusOK, w.Code)

		var target models.User
		database.DB.First(&target, user.ID)
		assert.True(t, target.IsAdmin)

		c, w = testContext(t, http.MethodPost, "/toggle-admin", "", admin.ID, idParam(user.ID))
		ToggleAdmin(c)
		assert.Equal(t, http.StatusOK, w.Code)

		database.DB.First(&target, user.ID)
		assert.False(t, target.IsAdmin)
	})
}

func TestDeleteUser(t *testing.T) {
	setupTestDB(t)
	admin := createTestUser(t, "admin", true)
	user := createTestUser(t, "alice", false)
	other := createTestUser(t, "bob", false)
	game := createTestGame(t, "Hades", "Roguelike", "PC")

	database.DB.Create(&models.UserGame{UserID: user.ID, GameID: game.ID, Status: models.StatusCompleted})
	database.DB.Create(&models.Review{UserID: user.ID, GameID: game.ID, Rating: 8})
	database.DB.Create(&models.Follow{FollowerID: user.ID, FollowingID: other.ID})
	database.DB.Create(&models.Follow{FollowerID: other.ID, FollowingID: user.ID})
	database.DB.Create(&models.Activity{UserID: user.ID, ActivityType: models.ActivityListUpdate})

	t.Run("self-delete always rejected", func(t *testing.T) {
		c, w := testContext(t, http.MethodDelete, "/admin/users", "", admin.ID, idParam(admin.ID))

		DeleteUser(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var count int64
		database.DB.Model(&models.User{}).Count(&count)
		assert.Equal(t, int64(3), count)
	})

	t.Run("deletion cascades to dependent rows", func(t *testing.T) {
		c, w := testContext(t, http.MethodDelete, "/admin/users", "", admin.ID, idParam(user.ID))

		DeleteUser(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var userCount, listCount, reviewCount, followCount, activityCount int64
		database.DB.Model(&models.User{}).Count(&userCount)
		database.DB.Model(&models.UserGame{}).Count(&listCount)
		database.DB.Model(&models.Review{}).Count(&reviewCount)
		database.DB.Model(&models.Follow{}).Count(&followCount)
		database.DB.Model(&models.Activity{}).Count(&activityCount)
		assert.Equal(t, int64(2), userCount)
		assert.Equal(t, int64(0), listCount)
		assert.Equal(t, int64(0), reviewCount)
		assert.Equal(t, int64(0), followCount)
		assert.Equal(t, int64(0), activityCount)
	})

	t.Run("freed username can register again", func(t *testing.T) {
		body := `{"username": "alice", "email": "alice2@x.com", "password": "pw123456"}`
		c, w := testContext(t, http.MethodPost, "/register", body, 0, nil)

		Register(c)

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestAdminDashboard(t *testing.T) {
	setupTestDB(t)
	admin := createTestUser(t, "admin", true)
	createTestUser(t, "alice", false)
	game := createTestGame(t, "Hades", "Roguelike", "PC")
	database.DB.Create(&models.Review{UserID: admin.ID, GameID: game.ID, Rating: 9})

	c, w := testContext(t, http.MethodGet, "/admin", "", admin.ID, nil)

	AdminDashboard(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response DashboardResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(2), response.TotalUsers)
	assert.Equal(t, int64(1), response.TotalGames)
	assert.Equal(t, int64(1), response.TotalReviews)
	assert.Len(t, response.RecentUsers, 2)
	assert.Len(t, response.RecentGames, 1)
}

func TestAdminListUsers(t *testing.T) {
	setupTestDB(t)
	admin := createTestUser(t, "admin", true)
	createTestUser(t, "alice", false)
	createTestUser(t, "bob", false)

	t.Run("lists all without a query", func(t *testing.T) {
		c, w := testContext(t, http.MethodGet, "/admin/users", "", admin.ID, nil)

		AdminListUsers(c)

		var response []AdminUserResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response, 3)
	})

	t.Run("query matches username substring", func(t *testing.T) {
		c, w := testContext(t, http.MethodGet, "/admin/users?q=ali", "", admin.ID, nil)

		AdminListUsers(c)

		var response []AdminUserResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		if assert.Len(t, response, 1) {
			assert.Equal(t, "alice", response[0].Username)
		}
	})
}
