package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"greatgames/backend/internal/activity"
	"greatgames/backend/internal/database"
	"greatgames/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// GameResponse defines the structure for a catalog entry.
type GameResponse struct {
	ID            uint          `json:"id"`
	Title         string        `json:"title"`
	Developer     string        `json:"developer"`
	Publisher     string        `json:"publisher"`
	ReleaseYear   *int          `json:"release_year"`
	Platform      string        `json:"platform"`
	Genre         string        `json:"genre"`
	Description   string        `json:"description"`
	CoverImageURL string        `json:"cover_image_url"`
	AverageRating *float64      `json:"average_rating"`
	CreatedAt     time.Time     `json:"created_at"`
	Tags          []TagResponse `json:"tags,omitempty"`
}

func newGameResponse(game models.Game) GameResponse {
	var tagResponses []TagResponse
	for _, tag := range game.Tags {
		if tag != nil {
			tagResponses = append(tagResponses, newTagResponse(*tag))
		}
	}

	return GameResponse{
		ID:            game.ID,
		Title:         game.Title,
		Developer:     game.Developer,
		Publisher:     game.Publisher,
		ReleaseYear:   game.ReleaseYear,
		Platform:      game.Platform,
		Genre:         game.Genre,
		Description:   game.Description,
		CoverImageURL: game.CoverImageURL,
		AverageRating: game.AverageRating,
		CreatedAt:     game.CreatedAt,
		Tags:          tagResponses,
	}
}

// ReviewResponse defines the structure for a review joined with its author.
// The author fields are blanked for anonymous reviews unless the viewer wrote
// it. The game fields are filled when the caller loaded the game, so views
// listing reviews away from a game page (profiles, landing) can show it.
type ReviewResponse struct {
	ID            uint      `json:"id"`
	GameID        uint      `json:"game_id"`
	GameTitle     string    `json:"game_title,omitempty"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	Rating        int       `json:"rating"`
	ReviewText    string    `json:"review_text"`
	IsAnonymous   bool      `json:"is_anonymous"`
	Username      string    `json:"username,omitempty"`
	Name          string    `json:"name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newReviewResponse(review models.Review, viewerID uint) ReviewResponse {
	resp := ReviewResponse{
		ID:          review.ID,
		GameID:      review.GameID,
		Rating:      review.Rating,
		ReviewText:  review.ReviewText,
		IsAnonymous: review.IsAnonymous,
		CreatedAt:   review.CreatedAt,
		UpdatedAt:   review.UpdatedAt,
	}
	if review.Game.ID != 0 {
		resp.GameTitle = review.Game.Title
		resp.CoverImageURL = review.Game.CoverImageURL
	}
	if !review.IsAnonymous || review.UserID == viewerID {
		resp.Username = review.User.Username
		resp.Name = review.User.Name
	}
	return resp
}

// BrowseResponse carries the filtered games plus the distinct genre and
// platform values present in the catalog, for use as filter options.
type BrowseResponse struct {
	Data      []GameResponse `json:"data"`
	Meta      PaginationMeta `json:"meta"`
	Genres    []string       `json:"genres"`
	Platforms []string       `json:"platforms"`
}

// GameDetailResponse is the full detail view for a single game.
type GameDetailResponse struct {
	Game       GameResponse       `json:"game"`
	Reviews    []ReviewResponse   `json:"reviews"`
	UserStatus *models.ListStatus `json:"user_status,omitempty"`
	UserReview *ReviewResponse    `json:"user_review,omitempty"`
}

// ListInput defines the body for adding a game to a list.
type ListInput struct {
	Status models.ListStatus `json:"status" binding:"required" example:"wishlist"`
}

// ReviewInput defines the body for submitting a review.
type ReviewInput struct {
	Rating      int    `json:"rating" binding:"required" example:"8"`
	ReviewText  string `json:"review_text"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// endregion

// region --- Catalog Handlers ---

// BrowseGames godoc
// @Summary      Browse the catalog
// @Description  Retrieves games with optional substring filters and sorting, plus the distinct genres and platforms for filter options.
// @Tags         games
// @Produce      json
// @Param        q        query  string  false  "Substring match on title"
// @Param        genre    query  string  false  "Substring match on genre"
// @Param        platform query  string  false  "Substring match on platform"
// @Param        sort     query  string  false  "Sort order: title (default), rating, year"
// @Param        page     query  int     false  "Page number" default(1)
// @Param        limit    query  int     false  "Items per page" default(20)
// @Success      200  {object}  BrowseResponse
// @Router       /games [get]
func BrowseGames(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100 // Max limit
	}
	offset := (page - 1) * limit

	dbQuery := database.DB.Model(&models.Game{})
	dbQuery = applyGameFilters(dbQuery, c.Query("q"), c.Query("genre"), c.Query("platform"))

	var totalItems int64
	if err := dbQuery.Count(&totalItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count games"})
		return
	}

	switch c.Query("sort") {
	case "rating":
		dbQuery = dbQuery.Order("average_rating DESC NULLS LAST")
	case "year":
		dbQuery = dbQuery.Order("release_year DESC NULLS LAST")
	default:
		dbQuery = dbQuery.Order("title ASC")
	}

	var games []models.Game
	if err := dbQuery.Preload("Tags").Offset(offset).Limit(limit).Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve games"})
		return
	}

	response := make([]GameResponse, 0, len(games))
	for _, game := range games {
		response = append(response, newGameResponse(game))
	}

	var genres, platforms []string
	if err := database.DB.Model(&models.Game{}).Where("genre <> ''").
		Distinct().Order("genre").Pluck("genre", &genres).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve filter options"})
		return
	}
	if err := database.DB.Model(&models.Game{}).Where("platform <> ''").
		Distinct().Order("platform").Pluck("platform", &platforms).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve filter options"})
		return
	}

	paginated := NewPaginatedResponse(response, totalItems, page, limit)
	c.JSON(http.StatusOK, BrowseResponse{
		Data:      paginated.Data,
		Meta:      paginated.Meta,
		Genres:    genres,
		Platforms: platforms,
	})
}

// applyGameFilters adds the conjunctive case-insensitive substring predicates
// shared by public browse and the admin game list.
func applyGameFilters(dbQuery *gorm.DB, title, genre, platform string) *gorm.DB {
	if title = strings.TrimSpace(title); title != "" {
		dbQuery = dbQuery.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(title)+"%")
	}
	if genre = strings.TrimSpace(genre); genre != "" {
		dbQuery = dbQuery.Where("LOWER(genre) LIKE ?", "%"+strings.ToLower(genre)+"%")
	}
	if platform = strings.TrimSpace(platform); platform != "" {
		dbQuery = dbQuery.Where("LOWER(platform) LIKE ?", "%"+strings.ToLower(platform)+"%")
	}
	return dbQuery
}

// GetGameByID godoc
// @Summary      Get a single game
// @Description  Retrieves a game with its tags and reviews (newest first). When a token is sent, also includes the viewer's list status and own review.
// @Tags         games
// @Produce      json
// @Param        id path int true "Game ID"
// @Success      200 {object} GameDetailResponse
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /games/{id} [get]
func GetGameByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))

	var game models.Game
	if err := database.DB.Preload("Tags").First(&game, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	var viewerID uint
	if v, ok := c.Get("userID"); ok {
		viewerID = v.(uint)
	}

	var reviews []models.Review
	if err := database.DB.Preload("User").Where("game_id = ?", game.ID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reviews"})
		return
	}

	reviewResponses := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		reviewResponses = append(reviewResponses, newReviewResponse(review, viewerID))
	}

	detail := GameDetailResponse{
		Game:    newGameResponse(game),
		Reviews: reviewResponses,
	}

	if viewerID != 0 {
		var userGame models.UserGame
		if err := database.DB.Where("user_id = ? AND game_id = ?", viewerID, game.ID).First(&userGame).Error; err == nil {
			detail.UserStatus = &userGame.Status
		}

		var own models.Review
		if err := database.DB.Preload("User").Where("user_id = ? AND game_id = ?", viewerID, game.ID).First(&own).Error; err == nil {
			resp := newReviewResponse(own, viewerID)
			detail.UserReview = &resp
		}
	}

	c.JSON(http.StatusOK, detail)
}

// AddToList godoc
// @Summary      Set list status for a game
// @Description  Upserts the viewer's status (wishlist, currently_playing, completed) for a game. A second call overwrites the status; it never duplicates the row.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int       true  "Game ID"
// @Param        input body  ListInput true  "Status"
// @Success      200 {object} map[string]string "{"status": "wishlist"}"
// @Failure      400 {object} ErrorResponse "Invalid status"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /games/{id}/list [post]
func AddToList(c *gin.Context) {
	userID, _ := c.Get("userID")
	gameID, _ := strconv.Atoi(c.Param("id"))

	var input ListInput
	if err := c.ShouldBindJSON(&input); err != nil || !models.ValidListStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var game models.Game
	if err := database.DB.First(&game, gameID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.UserGame
		err := tx.Where("user_id = ? AND game_id = ?", userID, game.ID).First(&existing).Error
		switch {
		case err == nil:
			// Overwrite the status; AddedAt stays, UpdatedAt advances.
			if err := tx.Model(&models.UserGame{}).
				Where("user_id = ? AND game_id = ?", userID, game.ID).
				Update("status", input.Status).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry := models.UserGame{
				UserID: userID.(uint),
				GameID: game.ID,
				Status: input.Status,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		default:
			return err
		}

		gid := game.ID
		return activity.Record(tx, userID.(uint), models.ActivityListUpdate, &gid,
			"added "+game.Title+" to "+strings.ReplaceAll(string(input.Status), "_", " "))
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update list"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(input.Status)})
}

// SubmitReview godoc
// @Summary      Submit or update a review
// @Description  Upserts the viewer's review for a game (one per user per game) and recomputes the game's average rating in the same transaction.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int         true  "Game ID"
// @Param        input body  ReviewInput true  "Review"
// @Success      200 {object} map[string]string "{"message": "Review submitted"}"
// @Failure      400 {object} ErrorResponse "Rating out of range"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /games/{id}/review [post]
func SubmitReview(c *gin.Context) {
	userID, _ := c.Get("userID")
	gameID, _ := strconv.Atoi(c.Param("id"))

	var input ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Rating < 1 || input.Rating > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 10"})
		return
	}

	var game models.Game
	if err := database.DB.First(&game, gameID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Review
		err := tx.Where("user_id = ? AND game_id = ?", userID, game.ID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"rating":       input.Rating,
				"review_text":  input.ReviewText,
				"is_anonymous": input.IsAnonymous,
			}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			review := models.Review{
				UserID:      userID.(uint),
				GameID:      game.ID,
				Rating:      input.Rating,
				ReviewText:  input.ReviewText,
				IsAnonymous: input.IsAnonymous,
			}
			if err := tx.Create(&review).Error; err != nil {
				return err
			}
		default:
			return err
		}

		if err := recomputeAverageRating(tx, game.ID); err != nil {
			return err
		}

		gid := game.ID
		return activity.Record(tx, userID.(uint), models.ActivityReview, &gid,
			"reviewed "+game.Title)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit review"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review submitted"})
}

// recomputeAverageRating persists the mean of the game's current reviews,
// or NULL when none remain. Runs inside the caller's transaction so readers
// never see a review without the matching average.
func recomputeAverageRating(tx *gorm.DB, gameID uint) error {
	var avg sql.NullFloat64
	if err := tx.Model(&models.Review{}).Where("game_id = ?", gameID).
		Select("AVG(rating)").Scan(&avg).Error; err != nil {
		return err
	}

	var value *float64
	if avg.Valid {
		value = &avg.Float64
	}
	return tx.Model(&models.Game{}).Where("id = ?", gameID).
		Update("average_rating", value).Error
}

// endregion

// region --- Landing and Home ---

// LandingResponse carries the public landing page content.
type LandingResponse struct {
	FeaturedGames []GameResponse   `json:"featured_games"`
	RecentReviews []ReviewResponse `json:"recent_reviews"`
}

// Landing godoc
// @Summary      Public landing content
// @Description  Retrieves the top-rated games and the most recent non-anonymous reviews.
// @Tags         games
// @Produce      json
// @Success      200 {object} LandingResponse
// @Router       /landing [get]
func Landing(c *gin.Context) {
	var featured []models.Game
	if err := database.DB.Order("average_rating DESC NULLS LAST, created_at DESC").Limit(6).Find(&featured).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve games"})
		return
	}

	var recent []models.Review
	if err := database.DB.Preload("User").Preload("Game").Where("is_anonymous = ?", false).
		Order("created_at DESC").Limit(3).Find(&recent).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reviews"})
		return
	}

	featuredResponses := make([]GameResponse, 0, len(featured))
	for _, game := range featured {
		featuredResponses = append(featuredResponses, newGameResponse(game))
	}
	reviewResponses := make([]ReviewResponse, 0, len(recent))
	for _, review := range recent {
		reviewResponses = append(reviewResponses, newReviewResponse(review, 0))
	}

	c.JSON(http.StatusOK, LandingResponse{
		FeaturedGames: featuredResponses,
		RecentReviews: reviewResponses,
	})
}

// ListEntryResponse is a game joined with the viewer's list metadata.
type ListEntryResponse struct {
	Game      GameResponse      `json:"game"`
	Status    models.ListStatus `json:"status"`
	AddedAt   time.Time         `json:"added_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func newListEntryResponse(entry models.UserGame) ListEntryResponse {
	return ListEntryResponse{
		Game:      newGameResponse(entry.Game),
		Status:    entry.Status,
		AddedAt:   entry.AddedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}

// HomeResponse carries the personalized home page content.
type HomeResponse struct {
	RecentActivity    []ListEntryResponse `json:"recent_activity"`
	Recommendations   []GameResponse      `json:"recommendations"`
	FollowingActivity []ActivityResponse  `json:"following_activity"`
}

// Home godoc
// @Summary      Personalized home content
// @Description  Retrieves the viewer's recently updated list entries, genre-based recommendations, and a short feed from followed users.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} HomeResponse
// @Failure      401 {object} ErrorResponse
// @Router       /home [get]
func Home(c *gin.Context) {
	userID, _ := c.Get("userID")

	var entries []models.UserGame
	if err := database.DB.Preload("Game").Where("user_id = ?", userID).
		Order("updated_at DESC").Limit(5).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve list entries"})
		return
	}

	// Recommend unlisted games sharing a genre with the viewer's completed ones.
	completedGenres := database.DB.Model(&models.UserGame{}).
		Select("DISTINCT games.genre").
		Joins("JOIN games ON games.id = user_games.game_id").
		Where("user_games.user_id = ? AND user_games.status = ?", userID, models.StatusCompleted).
		Limit(3)
	listedGames := database.DB.Model(&models.UserGame{}).
		Select("game_id").Where("user_id = ?", userID)

	var recommendations []models.Game
	if err := database.DB.Where("genre IN (?)", completedGenres).
		Where("id NOT IN (?)", listedGames).
		Order("average_rating DESC NULLS LAST").Limit(6).
		Find(&recommendations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recommendations"})
		return
	}

	feed, err := activityFeed(userID.(uint), 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve activity"})
		return
	}

	entryResponses := make([]ListEntryResponse, 0, len(entries))
	for _, entry := range entries {
		entryResponses = append(entryResponses, newListEntryResponse(entry))
	}
	recommendationResponses := make([]GameResponse, 0, len(recommendations))
	for _, game := range recommendations {
		recommendationResponses = append(recommendationResponses, newGameResponse(game))
	}

	c.JSON(http.StatusOK, HomeResponse{
		RecentActivity:    entryResponses,
		Recommendations:   recommendationResponses,
		FollowingActivity: feed,
	})
}

// endregion
