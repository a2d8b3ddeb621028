package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"greatgames/backend/internal/database"
	"greatgames/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// GameInput defines the body for creating or updating a catalog entry.
type GameInput struct {
	Title         string `json:"title" binding:"required"`
	Developer     string `json:"developer"`
	Publisher     string `json:"publisher"`
	ReleaseYear   *int   `json:"release_year"`
	Platform      string `json:"platform"`
	Genre         string `json:"genre"`
	Description   string `json:"description"`
	CoverImageURL string `json:"cover_image_url"`
	TagIDs        []uint `json:"tag_ids"` // IDs of the tags to associate with the game
}

// AdminUserResponse is the moderation view of an account.
type AdminUserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func newAdminUserResponse(user models.User) AdminUserResponse {
	return AdminUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Name:      user.Name,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	}
}

// DashboardResponse aggregates the admin landing counts and recent rows.
type DashboardResponse struct {
	TotalUsers   int64               `json:"total_users"`
	TotalGames   int64               `json:"total_games"`
	TotalReviews int64               `json:"total_reviews"`
	RecentUsers  []AdminUserResponse `json:"recent_users"`
	RecentGames  []GameResponse      `json:"recent_games"`
}

// endregion

// region --- Dashboard ---

// AdminDashboard godoc
// @Summary      Admin dashboard
// @Description  Retrieves aggregate counts plus the five most recent users and games.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} DashboardResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Router       /admin [get]
func AdminDashboard(c *gin.Context) {
	var totalUsers, totalGames, totalReviews int64
	database.DB.Model(&models.User{}).Count(&totalUsers)
	database.DB.Model(&models.Game{}).Count(&totalGames)
	database.DB.Model(&models.Review{}).Count(&totalReviews)

	var recentUsers []models.User
	if err := database.DB.Order("created_at DESC").Limit(5).Find(&recentUsers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	var recentGames []models.Game
	if err := database.DB.Order("created_at DESC").Limit(5).Find(&recentGames).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve games"})
		return
	}

	userResponses := make([]AdminUserResponse, 0, len(recentUsers))
	for _, user := range recentUsers {
		userResponses = append(userResponses, newAdminUserResponse(user))
	}
	gameResponses := make([]GameResponse, 0, len(recentGames))
	for _, game := range recentGames {
		gameResponses = append(gameResponses, newGameResponse(game))
	}

	c.JSON(http.StatusOK, DashboardResponse{
		TotalUsers:   totalUsers,
		TotalGames:   totalGames,
		TotalReviews: totalReviews,
		RecentUsers:  userResponses,
		RecentGames:  gameResponses,
	})
}

// endregion

// region --- Game Management ---

// AdminListGames godoc
// @Summary      List games for moderation
// @Description  Retrieves games, newest first, optionally filtered by a substring matching title, genre, or platform.
// @Tags         admin-games
// @Produce      json
// @Security     BearerAuth
// @Param        q query string false "Search query"
// @Success      200 {array} GameResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Router       /admin/games [get]
func AdminListGames(c *gin.Context) {
	dbQuery := database.DB.Model(&models.Game{})

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbQuery = dbQuery.Where("LOWER(title) LIKE ? OR LOWER(genre) LIKE ? OR LOWER(platform) LIKE ?", like, like, like)
	}

	var games []models.Game
	if err := dbQuery.Preload("Tags").Order("created_at DESC").Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve games"})
		return
	}

	response := make([]GameResponse, 0, len(games))
	for _, game := range games {
		response = append(response, newGameResponse(game))
	}
	c.JSON(http.StatusOK, response)
}

// CreateGame godoc
// @Summary      Create a new game
// @Description  Creates a catalog entry and associates it with the given tags. The title is required.
// @Tags         admin-games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GameInput true "Game Info"
// @Success      201  {object}  GameResponse
// @Failure      400  {object}  ErrorResponse "Title is required"
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /admin/games [post]
func CreateGame(c *gin.Context) {
	var input GameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(input.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	// Find tags by IDs
	var tags []*models.Tag
	if len(input.TagIDs) > 0 {
		database.DB.Find(&tags, input.TagIDs)
	}

	game := models.Game{
		Title:         strings.TrimSpace(input.Title),
		Developer:     input.Developer,
		Publisher:     input.Publisher,
		ReleaseYear:   input.ReleaseYear,
		Platform:      input.Platform,
		Genre:         input.Genre,
		Description:   input.Description,
		CoverImageURL: input.CoverImageURL,
		Tags:          tags,
	}

	if err := database.DB.Create(&game).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create game"})
		return
	}

	c.JSON(http.StatusCreated, newGameResponse(game))
}

// UpdateGame godoc
// @Summary      Update a game
// @Description  Updates a catalog entry and replaces its tags.
// @Tags         admin-games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int       true  "Game ID"
// @Param        input body      GameInput true  "New Game Info"
// @Success      200   {object}  GameResponse
// @Failure      400   {object}  ErrorResponse "Title is required"
// @Failure      403   {object}  ErrorResponse "Admin access required"
// @Failure      404   {object}  ErrorResponse "Game not found"
// @Router       /admin/games/{id} [put]
func UpdateGame(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))

	var game models.Game
	if err := database.DB.First(&game, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	var input GameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(input.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	// Find new tags
	var tags []*models.Tag
	if len(input.TagIDs) > 0 {
		database.DB.Find(&tags, input.TagIDs)
	}

	game.Title = strings.TrimSpace(input.Title)
	game.Developer = input.Developer
	game.Publisher = input.Publisher
	game.ReleaseYear = input.ReleaseYear
	game.Platform = input.Platform
	game.Genre = input.Genre
	game.Description = input.Description
	game.CoverImageURL = input.CoverImageURL

	// Replace association
	if err := database.DB.Model(&game).Association("Tags").Replace(tags); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tags for game"})
		return
	}

	if err := database.DB.Save(&game).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update game"})
		return
	}

	// Preload tags for the response
	database.DB.Preload("Tags").First(&game, id)

	c.JSON(http.StatusOK, newGameResponse(game))
}

// DeleteGame godoc
// @Summary      Delete a game
// @Description  Deletes a catalog entry along with its list rows, reviews, and tag links; activity references are kept but detached.
// @Tags         admin-games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200 {object} map[string]string "{"message": "Game deleted"}"
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /admin/games/{id} [delete]
func DeleteGame(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))

	var game models.Game
	if err := database.DB.First(&game, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", game.ID).Delete(&models.UserGame{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("game_id = ?", game.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		// The feed tolerates a missing game; just drop the reference.
		if err := tx.Model(&models.Activity{}).Where("game_id = ?", game.ID).
			Update("game_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&game).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Unscoped().Delete(&game).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete game"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Game deleted"})
}

// endregion

// region --- User Management ---

// AdminListUsers godoc
// @Summary      List users for moderation
// @Description  Retrieves users, newest first, optionally filtered by a substring matching username, email, or name.
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        q query string false "Search query"
// @Success      200 {array} AdminUserResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Router       /admin/users [get]
func AdminListUsers(c *gin.Context) {
	dbQuery := database.DB.Model(&models.User{})

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbQuery = dbQuery.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like, like)
	}

	var users []models.User
	if err := dbQuery.Order("created_at DESC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	response := make([]AdminUserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, newAdminUserResponse(user))
	}
	c.JSON(http.StatusOK, response)
}

// ToggleAdmin godoc
// @Summary      Toggle a user's admin flag
// @Description  Flips the privilege flag for another account. Admins can never change their own flag here.
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200 {object} map[string]bool "{"is_admin": true}"
// @Failure      400 {object} ErrorResponse "Cannot modify own admin status"
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      404 {object} ErrorResponse "User not found"
// @Router       /admin/users/{id}/toggle-admin [post]
func ToggleAdmin(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	targetID, _ := strconv.Atoi(c.Param("id"))

	if uint(targetID) == viewerID.(uint) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot modify your own admin status"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, targetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := database.DB.Model(&user).Update("is_admin", !user.IsAdmin).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update admin status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_admin": user.IsAdmin})
}

// DeleteUser godoc
// @Summary      Delete a user
// @Description  Removes an account along with its lists, reviews, follow edges, and activity. Admins can never delete their own account here.
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200 {object} map[string]string "{"message": "User deleted"}"
// @Failure      400 {object} ErrorResponse "Cannot delete own account"
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      404 {object} ErrorResponse "User not found"
// @Router       /admin/users/{id} [delete]
func DeleteUser(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	targetID, _ := strconv.Atoi(c.Param("id"))

	if uint(targetID) == viewerID.(uint) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account from the admin panel"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, targetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserGame{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR following_id = ?", user.ID, user.ID).
			Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Activity{}).Error; err != nil {
			return err
		}
		// Hard delete so the username and email become available again.
		return tx.Unscoped().Delete(&user).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// endregion
