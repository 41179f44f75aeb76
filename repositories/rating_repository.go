package repositories

import (
	"context"

	"speed-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository interface {
	// Upsert writes one rating per (article, user). An existing entry has its
	// rating and date overwritten in the same statement.
	Upsert(ctx context.Context, rating *models.ArticleRating) error
	Delete(ctx context.Context, articleID, userID string) error
	ListForArticle(ctx context.Context, articleID string) ([]models.ArticleRating, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Upsert(ctx context.Context, rating *models.ArticleRating) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "article_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "date"}),
	}).Create(rating).Error
	return translate(err, "rating")
}

func (r *ratingRepository) Delete(ctx context.Context, articleID, userID string) error {
	err := r.db.WithContext(ctx).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		Delete(&models.ArticleRating{}).Error
	return translate(err, "rating")
}

func (r *ratingRepository) ListForArticle(ctx context.Context, articleID string) ([]models.ArticleRating, error) {
	var ratings []models.ArticleRating
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("date asc").
		Find(&ratings).Error
	return ratings, translate(err, "rating")
}
