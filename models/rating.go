package models

import "time"

type ArticleRating struct {
	ID        uint      `json:"-" gorm:"primarykey"`
	ArticleID string    `json:"-" gorm:"size:24;not null;uniqueIndex:idx_article_ratings_article_user"`
	UserID    string    `json:"userId" gorm:"not null;uniqueIndex:idx_article_ratings_article_user"`
	Rating    int       `json:"rating" gorm:"not null"`
	Date      time.Time `json:"date"`
}

// RatingSummary is returned after a rating is written or removed.
type RatingSummary struct {
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int64   `json:"totalRatings"`
}
