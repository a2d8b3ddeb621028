package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"greatgames/backend/internal/config"
	"greatgames/backend/internal/database"
	"greatgames/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// UserResponse defines the structure for a user's public profile.
type UserResponse struct {
	ID             uint      `json:"id" example:"1"`
	Username       string    `json:"username" example:"alice"`
	Name           string    `json:"name,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func newUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		Name:           user.Name,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
		CreatedAt:      user.CreatedAt,
	}
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	UserResponse
	Email   string `json:"email" example:"alice@example.com"`
	IsAdmin bool   `json:"is_admin"`
}

// UserStatsResponse aggregates a user's list and review counts.
type UserStatsResponse struct {
	TotalGames       int64 `json:"total_games"`
	Completed        int64 `json:"completed"`
	Wishlist         int64 `json:"wishlist"`
	CurrentlyPlaying int64 `json:"currently_playing"`
	Reviews          int64 `json:"reviews"`
}

// ProfileResponse is the full public profile view.
type ProfileResponse struct {
	User             UserResponse        `json:"user"`
	Wishlist         []ListEntryResponse `json:"wishlist"`
	CurrentlyPlaying []ListEntryResponse `json:"currently_playing"`
	Completed        []ListEntryResponse `json:"completed"`
	Reviews          []ReviewResponse    `json:"reviews"`
	Stats            UserStatsResponse   `json:"stats"`
	IsFollowing      bool                `json:"is_following"`
}

// FriendResponse is a user annotated with the size of their game collection.
type FriendResponse struct {
	UserResponse
	GameCount   int64 `json:"game_count"`
	IsFollowing bool  `json:"is_following,omitempty"`
}

// FriendsResponse carries the social page content.
type FriendsResponse struct {
	Following []FriendResponse   `json:"following"`
	Followers []FriendResponse   `json:"followers"`
	Activity  []ActivityResponse `json:"activity"`
}

// ActivityResponse is one feed entry joined with its actor and, when the
// activity concerns a game, that game's title and cover.
type ActivityResponse struct {
	ID            uint      `json:"id"`
	UserID        uint      `json:"user_id"`
	Username      string    `json:"username"`
	ActivityType  string    `json:"activity_type"`
	GameID        *uint     `json:"game_id,omitempty"`
	GameTitle     string    `json:"game_title,omitempty"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

func newActivityResponse(entry models.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:           entry.ID,
		UserID:       entry.UserID,
		Username:     entry.User.Username,
		ActivityType: entry.ActivityType,
		GameID:       entry.GameID,
		Description:  entry.Description,
		CreatedAt:    entry.CreatedAt,
	}
	if entry.Game != nil {
		resp.GameTitle = entry.Game.Title
		resp.CoverImageURL = entry.Game.CoverImageURL
	}
	return resp
}

// endregion

// region --- Profile Handlers ---

// GetMe godoc
// @Summary      Get current user's info
// @Description  Retrieves the private profile for the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func GetMe(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var user models.User
	if err := database.DB.First(&user, viewerID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, PrivateUserResponse{
		UserResponse: newUserResponse(user),
		Email:        user.Email,
		IsAdmin:      user.IsAdmin,
	})
}

// GetProfile godoc
// @Summary      Get a user's profile
// @Description  Retrieves a profile with the user's three lists (newest first), recent reviews, statistics, and whether the viewer follows them.
// @Tags         users
// @Produce      json
// @Param        username path string true "Username"
// @Success      200 {object} ProfileResponse
// @Failure      404 {object} ErrorResponse "User not found"
// @Router       /users/{username} [get]
func GetProfile(c *gin.Context) {
	username := c.Param("username")

	var user models.User
	if err := database.DB.Where("username = ?", username).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	wishlist, err := listByStatus(user.ID, models.StatusWishlist)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
		return
	}
	playing, err := listByStatus(user.ID, models.StatusCurrentlyPlaying)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
		return
	}
	completed, err := listByStatus(user.ID, models.StatusCompleted)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
		return
	}

	var reviews []models.Review
	if err := database.DB.Preload("User").Preload("Game").
		Where("user_id = ?", user.ID).Order("created_at DESC").Limit(5).
		Find(&reviews).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reviews"})
		return
	}

	var viewerID uint
	if v, ok := c.Get("userID"); ok {
		viewerID = v.(uint)
	}

	var reviewCount int64
	database.DB.Model(&models.Review{}).Where("user_id = ?", user.ID).Count(&reviewCount)

	stats := UserStatsResponse{
		TotalGames:       int64(len(wishlist) + len(playing) + len(completed)),
		Completed:        int64(len(completed)),
		Wishlist:         int64(len(wishlist)),
		CurrentlyPlaying: int64(len(playing)),
		Reviews:          reviewCount,
	}

	isFollowing := false
	if viewerID != 0 && viewerID != user.ID {
		var follow models.Follow
		if err := database.DB.Where("follower_id = ? AND following_id = ?", viewerID, user.ID).
			First(&follow).Error; err == nil {
			isFollowing = true
		}
	}

	reviewResponses := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		reviewResponses = append(reviewResponses, newReviewResponse(review, viewerID))
	}

	c.JSON(http.StatusOK, ProfileResponse{
		User:             newUserResponse(user),
		Wishlist:         wishlist,
		CurrentlyPlaying: playing,
		Completed:        completed,
		Reviews:          reviewResponses,
		Stats:            stats,
		IsFollowing:      isFollowing,
	})
}

func listByStatus(userID uint, status models.ListStatus) ([]ListEntryResponse, error) {
	var entries []models.UserGame
	if err := database.DB.Preload("Game").
		Where("user_id = ? AND status = ?", userID, status).
		Order("added_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}

	responses := make([]ListEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, newListEntryResponse(entry))
	}
	return responses, nil
}

// allowedImageExtensions is the fixed set of accepted profile picture types.
var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// UpdateProfile godoc
// @Summary      Edit the current user's profile
// @Description  Updates name and bio, and optionally replaces the profile picture. Uploads are restricted to png/jpg/jpeg/gif and stored under a stable per-user filename.
// @Tags         users
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        name            formData  string  false  "Display name"
// @Param        bio             formData  string  false  "Biography"
// @Param        profile_picture formData  file    false  "Profile picture"
// @Success      200 {object} UserResponse
// @Failure      400 {object} ErrorResponse "Disallowed image type"
// @Failure      401 {object} ErrorResponse
// @Router       /users/me [put]
func UpdateProfile(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := database.DB.First(&user, userID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updates := map[string]interface{}{
		"name": c.PostForm("name"),
		"bio":  c.PostForm("bio"),
	}

	if file, err := c.FormFile("profile_picture"); err == nil && file != nil {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedImageExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image type. Please upload a PNG, JPG, or GIF."})
			return
		}

		// Stable filename per user so a new upload replaces the old one.
		filename := fmt.Sprintf("user_%d%s", user.ID, ext)
		uploadDir := config.AppConfig.UploadDir
		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
			return
		}
		if err := c.SaveUploadedFile(file, filepath.Join(uploadDir, filename)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
			return
		}
		updates["profile_picture"] = "uploads/" + filename
	}

	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// endregion

// region --- Social Handlers ---

// ToggleFollow godoc
// @Summary      Follow or unfollow a user
// @Description  Toggles the follow edge from the viewer to the target. A second call reverses the first.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        username path string true "Target username"
// @Success      200 {object} map[string]bool "{"following": true}"
// @Failure      400 {object} ErrorResponse "Cannot follow yourself"
// @Failure      404 {object} ErrorResponse "User not found"
// @Router       /users/{username}/follow [post]
func ToggleFollow(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	username := c.Param("username")

	var target models.User
	if err := database.DB.Where("username = ?", username).First(&target).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if target.ID == viewerID.(uint) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot follow yourself"})
		return
	}

	var existing models.Follow
	err := database.DB.Where("follower_id = ? AND following_id = ?", viewerID, target.ID).First(&existing).Error
	switch {
	case err == nil:
		if err := database.DB.Where("follower_id = ? AND following_id = ?", viewerID, target.ID).
			Delete(&models.Follow{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfollow"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"following": false})
	case errors.Is(err, gorm.ErrRecordNotFound):
		follow := models.Follow{FollowerID: viewerID.(uint), FollowingID: target.ID}
		if err := database.DB.Create(&follow).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"following": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle follow"})
	}
}

// Friends godoc
// @Summary      Social overview
// @Description  Retrieves who the viewer follows, who follows them (each with game counts), and a feed of recent activity from followed accounts.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} FriendsResponse
// @Failure      401 {object} ErrorResponse
// @Router       /friends [get]
func Friends(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var followingEdges []models.Follow
	if err := database.DB.Preload("Following").Where("follower_id = ?", viewerID).
		Find(&followingEdges).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve following"})
		return
	}

	var followerEdges []models.Follow
	if err := database.DB.Preload("Follower").Where("following_id = ?", viewerID).
		Find(&followerEdges).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve followers"})
		return
	}

	following := make([]FriendResponse, 0, len(followingEdges))
	for _, edge := range followingEdges {
		following = append(following, buildFriendResponse(edge.Following))
	}
	followers := make([]FriendResponse, 0, len(followerEdges))
	for _, edge := range followerEdges {
		followers = append(followers, buildFriendResponse(edge.Follower))
	}

	feed, err := activityFeed(viewerID.(uint), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve activity"})
		return
	}

	c.JSON(http.StatusOK, FriendsResponse{
		Following: following,
		Followers: followers,
		Activity:  feed,
	})
}

func buildFriendResponse(user models.User) FriendResponse {
	// One count per row; fine at this page's size.
	var gameCount int64
	database.DB.Model(&models.UserGame{}).Where("user_id = ?", user.ID).Count(&gameCount)

	return FriendResponse{
		UserResponse: newUserResponse(user),
		GameCount:    gameCount,
	}
}

// activityFeed returns recent activity restricted to accounts the given user
// follows, newest first.
func activityFeed(userID uint, limit int) ([]ActivityResponse, error) {
	followedIDs := database.DB.Model(&models.Follow{}).
		Select("following_id").Where("follower_id = ?", userID)

	var entries []models.Activity
	if err := database.DB.Preload("User").Preload("Game").
		Where("user_id IN (?)", followedIDs).
		Order("created_at DESC").Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	responses := make([]ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, newActivityResponse(entry))
	}
	return responses, nil
}

// DiscoverFriends godoc
// @Summary      Discover users to follow
// @Description  Retrieves up to 50 users (excluding the viewer) ranked by collection size then username, optionally filtered by a username/name substring, each annotated with whether the viewer already follows them.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        q query string false "Substring match on username or name"
// @Success      200 {array} FriendResponse
// @Failure      401 {object} ErrorResponse
// @Router       /friends/discover [get]
func DiscoverFriends(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	type discoverRow struct {
		ID             uint
		Username       string
		Name           string
		Bio            string
		ProfilePicture string
		CreatedAt      time.Time
		GameCount      int64
	}

	dbQuery := database.DB.Model(&models.User{}).
		Select("users.id, users.username, users.name, users.bio, users.profile_picture, users.created_at, "+
			"(SELECT COUNT(*) FROM user_games WHERE user_games.user_id = users.id) AS game_count").
		Where("users.id <> ?", viewerID)

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbQuery = dbQuery.Where("LOWER(users.username) LIKE ? OR LOWER(users.name) LIKE ?", like, like)
	}

	var rows []discoverRow
	if err := dbQuery.Order("game_count DESC, username ASC").Limit(50).Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	var followedIDs []uint
	database.DB.Model(&models.Follow{}).Where("follower_id = ?", viewerID).
		Pluck("following_id", &followedIDs)
	followed := make(map[uint]bool, len(followedIDs))
	for _, id := range followedIDs {
		followed[id] = true
	}

	responses := make([]FriendResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, FriendResponse{
			UserResponse: UserResponse{
				ID:             row.ID,
				Username:       row.Username,
				Name:           row.Name,
				Bio:            row.Bio,
				ProfilePicture: row.ProfilePicture,
				CreatedAt:      row.CreatedAt,
			},
			GameCount:   row.GameCount,
			IsFollowing: followed[row.ID],
		})
	}

	c.JSON(http.StatusOK, responses)
}

// endregion
