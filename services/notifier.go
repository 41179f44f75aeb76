package services

import (
	"context"

	"speed-api/models"
	"speed-api/repositories"

	"go.uber.org/zap"
)

// Notifier is told about workflow events. Implementations decide whether the
// tenant configuration wants the event delivered.
type Notifier interface {
	ArticleSubmitted(ctx context.Context, article *models.Article)
	ArticleApproved(ctx context.Context, article *models.Article)
}

type logNotifier struct {
	configRepo repositories.SiteConfigRepository
	logger     *zap.Logger
}

// NewLogNotifier emits enabled notifications as structured log events.
func NewLogNotifier(configRepo repositories.SiteConfigRepository, logger *zap.Logger) Notifier {
	return &logNotifier{configRepo: configRepo, logger: logger}
}

func (n *logNotifier) ArticleSubmitted(ctx context.Context, article *models.Article) {
	onSubmission, _ := n.toggles(ctx)
	if !onSubmission {
		return
	}
	n.logger.Info("Notification",
		zap.String("event", "article_submitted"),
		zap.String("article_id", article.ID),
		zap.String("title", article.Title),
		zap.String("submitter", article.Submitter))
}

func (n *logNotifier) ArticleApproved(ctx context.Context, article *models.Article) {
	_, onApproved := n.toggles(ctx)
	if !onApproved {
		return
	}
	n.logger.Info("Notification",
		zap.String("event", "article_approved"),
		zap.String("article_id", article.ID),
		zap.String("title", article.Title),
		zap.String("submitter", article.Submitter),
		zap.String("moderator", article.Moderator))
}

// toggles falls back to the model defaults when no configuration is stored.
func (n *logNotifier) toggles(ctx context.Context) (onSubmission, onApproved bool) {
	cfg, err := n.configRepo.Get(ctx)
	if err != nil {
		if _, ok := err.(models.ErrorNotFound); !ok {
			n.logger.Error("Failed to load notification settings", zap.Error(err))
		}
		return false, true
	}
	return cfg.NotifyOnSubmission, cfg.NotifyOnModerationApproved
}

type noopNotifier struct{}

func (noopNotifier) ArticleSubmitted(context.Context, *models.Article) {}
func (noopNotifier) ArticleApproved(context.Context, *models.Article)  {}
