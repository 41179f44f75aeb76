package services

import (
	"context"
	"errors"
	"strings"

	"speed-api/models"
	"speed-api/repositories"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// SiteConfigService manages the single tenant configuration document.
type SiteConfigService interface {
	Get(ctx context.Context) (models.SiteConfigResponse, error)
	// Upsert creates the document on first use and then merges the supplied
	// sections into it. created reports whether this call created it.
	Upsert(ctx context.Context, req models.UpsertSiteConfigRequest) (resp models.SiteConfigResponse, created bool, err error)
}

type siteConfigService struct {
	configRepo repositories.SiteConfigRepository
	logger     *zap.Logger
}

func NewSiteConfigService(configRepo repositories.SiteConfigRepository, logger *zap.Logger) SiteConfigService {
	return &siteConfigService{configRepo: configRepo, logger: logger}
}

func (s *siteConfigService) Get(ctx context.Context) (models.SiteConfigResponse, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		var notFound models.ErrorNotFound
		if errors.As(err, &notFound) {
			return models.EmptySiteConfig(), nil
		}
		return models.SiteConfigResponse{}, err
	}
	return cfg.Response(), nil
}

func (s *siteConfigService) Upsert(ctx context.Context, req models.UpsertSiteConfigRequest) (models.SiteConfigResponse, bool, error) {
	fields, err := siteConfigFields(req)
	if err != nil {
		return models.SiteConfigResponse{}, false, err
	}

	created, err := s.configRepo.EnsureExists(ctx)
	if err != nil {
		return models.SiteConfigResponse{}, false, err
	}
	if err := s.configRepo.Update(ctx, fields); err != nil {
		return models.SiteConfigResponse{}, false, err
	}

	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		return models.SiteConfigResponse{}, false, err
	}

	s.logger.Info("Site configuration saved", zap.Bool("created", created), zap.Int("fields", len(fields)))
	return cfg.Response(), created, nil
}

func siteConfigFields(req models.UpsertSiteConfigRequest) (map[string]interface{}, error) {
	fields := map[string]interface{}{}

	if req.Practices != nil {
		practices := make(models.PracticeTaxonomy, len(req.Practices))
		for practice, claims := range req.Practices {
			name := strings.TrimSpace(practice)
			if name == "" {
				return nil, models.NewValidationError("practice names must not be empty", "practices")
			}
			if claims == nil {
				claims = []string{}
			}
			practices[name] = claims
		}
		fields["practices"] = datatypes.NewJSONType(practices)
	}
	if req.DefaultColumns != nil {
		fields["default_columns"] = datatypes.JSONSlice[string](req.DefaultColumns)
	}
	if n := req.Notifications; n != nil {
		if n.NotifyOnSubmission != nil {
			fields["notify_on_submission"] = *n.NotifyOnSubmission
		}
		if n.NotifyOnModerationApproved != nil {
			fields["notify_on_moderation_approved"] = *n.NotifyOnModerationApproved
		}
	}
	return fields, nil
}
