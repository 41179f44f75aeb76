package repositories

import (
	"context"

	"speed-api/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SiteConfigRepository interface {
	Get(ctx context.Context) (*models.SiteConfig, error)
	// EnsureExists inserts the default row unless one is already stored and
	// reports whether this call created it.
	EnsureExists(ctx context.Context) (bool, error)
	Update(ctx context.Context, fields map[string]interface{}) error
}

type siteConfigRepository struct {
	db *gorm.DB
}

func NewSiteConfigRepository(db *gorm.DB) SiteConfigRepository {
	return &siteConfigRepository{db: db}
}

func (r *siteConfigRepository) Get(ctx context.Context) (*models.SiteConfig, error) {
	var cfg models.SiteConfig
	err := r.db.WithContext(ctx).Where("config_key = ?", models.SiteConfigKey).First(&cfg).Error
	if err != nil {
		return nil, translate(err, "config")
	}
	return &cfg, nil
}

func (r *siteConfigRepository) EnsureExists(ctx context.Context) (bool, error) {
	row := models.SiteConfig{
		Key:                        models.SiteConfigKey,
		Practices:                  datatypes.NewJSONType(models.PracticeTaxonomy{}),
		DefaultColumns:             datatypes.JSONSlice[string](models.DefaultColumns),
		NotifyOnSubmission:         false,
		NotifyOnModerationApproved: true,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, translate(res.Error, "config")
	}
	return res.RowsAffected == 1, nil
}

func (r *siteConfigRepository) Update(ctx context.Context, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.SiteConfig{}).
		Where("config_key = ?", models.SiteConfigKey).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "config")
	}
	if res.RowsAffected == 0 {
		return models.ErrorNotFound{Resource: "config"}
	}
	return nil
}
