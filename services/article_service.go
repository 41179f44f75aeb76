package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"speed-api/config"
	"speed-api/metrics"
	"speed-api/models"
	"speed-api/repositories"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ArticleService drives the article lifecycle: submission, moderation, analysis and ratings.
type ArticleService interface {
	Submit(ctx context.Context, req models.SubmitArticleRequest) (*models.Article, error)
	GetArticle(ctx context.Context, id string) (*models.Article, error)
	Moderate(ctx context.Context, actor models.Actor, id string, req models.ModerateArticleRequest) (*models.Article, error)
	Analyze(ctx context.Context, actor models.Actor, id string, req models.AnalyzeArticleRequest) (*models.Article, error)
	Rate(ctx context.Context, id string, req models.RateArticleRequest) (*models.RatingSummary, error)
	RemoveRating(ctx context.Context, id string, userID string) (*models.RatingSummary, error)
	PatchArticle(ctx context.Context, idOrDOI string, fields map[string]interface{}) (*models.Article, error)
}

type articleService struct {
	articleRepo repositories.ArticleRepository
	ratingRepo  repositories.RatingRepository
	notifier    Notifier
	policy      config.WorkflowConfig
	logger      *zap.Logger
	metrics     *metrics.Collector
	now         func() time.Time
}

func NewArticleService(
	articleRepo repositories.ArticleRepository,
	ratingRepo repositories.RatingRepository,
	notifier Notifier,
	policy config.WorkflowConfig,
	logger *zap.Logger,
	collector *metrics.Collector,
) ArticleService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &articleService{
		articleRepo: articleRepo,
		ratingRepo:  ratingRepo,
		notifier:    notifier,
		policy:      policy,
		logger:      logger,
		metrics:     collector,
		now:         time.Now,
	}
}

func (s *articleService) Submit(ctx context.Context, req models.SubmitArticleRequest) (*models.Article, error) {
	trimSubmission(&req)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	article := &models.Article{
		DOI:              req.DOI,
		Title:            req.Title,
		Authors:          datatypes.JSONSlice[string](req.Authors),
		Source:           req.Source,
		Pubyear:          req.Pubyear,
		Claim:            req.Claim,
		Evidence:         req.Evidence,
		Submitter:        req.Submitter,
		SubmissionDate:   s.now(),
		ModerationStatus: models.ModerationPending,
		AnalysisStatus:   models.AnalysisPending,
	}
	if err := s.articleRepo.Create(ctx, article); err != nil {
		s.logger.Error("Failed to submit article", zap.String("doi", req.DOI), zap.Error(err))
		return nil, err
	}

	s.transitioned("submit", article.ID, article.Submitter, string(article.ModerationStatus))
	s.notifier.ArticleSubmitted(ctx, article)
	return article, nil
}

// trimSubmission strips surrounding whitespace so blank fields fail "required".
func trimSubmission(req *models.SubmitArticleRequest) {
	req.Title = strings.TrimSpace(req.Title)
	req.Source = strings.TrimSpace(req.Source)
	req.Pubyear = strings.TrimSpace(req.Pubyear)
	req.DOI = strings.TrimSpace(req.DOI)
	req.Claim = strings.TrimSpace(req.Claim)
	req.Evidence = strings.TrimSpace(req.Evidence)
	req.Submitter = normalizeEmail(req.Submitter)
	for i, author := range req.Authors {
		req.Authors[i] = strings.TrimSpace(author)
	}
}

func (s *articleService) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	return s.articleRepo.GetByID(ctx, id, true)
}

func (s *articleService) Moderate(ctx context.Context, actor models.Actor, id string, req models.ModerateArticleRequest) (*models.Article, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"moderation_status": req.Status,
		"moderation_date":   s.now(),
		"moderator":         actor.Email,
	}
	// A decision without a reason keeps the previous one.
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		fields["moderation_reason"] = reason
	}

	matched, err := s.articleRepo.UpdateWhere(ctx, id, nil, fields)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, models.ErrorNotFound{Resource: "article"}
	}

	article, err := s.articleRepo.GetByID(ctx, id, true)
	if err != nil {
		return nil, err
	}

	s.transitioned("moderate", id, actor.Email, string(req.Status))
	if req.Status == models.ModerationApproved {
		s.notifier.ArticleApproved(ctx, article)
	}
	return article, nil
}

func (s *articleService) Analyze(ctx context.Context, actor models.Actor, id string, req models.AnalyzeArticleRequest) (*models.Article, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	researchType, participantType, err := s.classification(req.ResearchType, req.ParticipantType)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"se_practice":     req.SePractice,
		"claim":           req.Claim,
		"result":          req.Result,
		"analysis_status": models.AnalysisAnalyzed,
		"analysis_date":   s.now(),
		"analyst":         actor.Email,
	}
	if researchType != "" {
		fields["research_type"] = researchType
	}
	if participantType != "" {
		fields["participant_type"] = participantType
	}

	var guard map[string]interface{}
	if s.policy.RequireApprovalForAnalysis {
		guard = map[string]interface{}{"moderation_status": models.ModerationApproved}
	}

	matched, err := s.articleRepo.UpdateWhere(ctx, id, guard, fields)
	if err != nil {
		return nil, err
	}
	if !matched {
		exists, err := s.articleRepo.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, models.ErrorNotFound{Resource: "article"}
		}
		return nil, models.ErrorConflict{Message: "article must be approved before it can be analyzed"}
	}

	s.transitioned("analyze", id, actor.Email, string(models.AnalysisAnalyzed))
	return s.articleRepo.GetByID(ctx, id, true)
}

// classification normalises the optional analysis enums. With strict enums a
// value outside the documented set is a validation error; otherwise it is kept.
// classification folds the participant synonyms. Lenient mode stores
// everything else verbatim; strict mode lower-cases and checks the enums.
func (s *articleService) classification(researchType, participantType string) (string, string, error) {
	participantType = NormalizeParticipantType(participantType)
	researchType = strings.TrimSpace(researchType)

	if !s.policy.StrictAnalysisEnums {
		return researchType, participantType, nil
	}

	researchType = strings.ToLower(researchType)
	participantType = strings.ToLower(participantType)

	var bad []string
	if researchType != "" && !contains(models.ResearchTypes, researchType) {
		bad = append(bad, "researchType")
	}
	if participantType != "" && !contains(models.ParticipantTypes, participantType) {
		bad = append(bad, "participantType")
	}
	if len(bad) > 0 {
		return "", "", models.NewValidationError("invalid enum value", bad...)
	}
	return researchType, participantType, nil
}

// NormalizeParticipantType folds the plural synonyms in any case. Other
// values are returned trimmed but otherwise untouched.
func NormalizeParticipantType(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case strings.EqualFold(v, "students"):
		return "student"
	case strings.EqualFold(v, "practitioners"):
		return "practitioner"
	}
	return v
}

func (s *articleService) Rate(ctx context.Context, id string, req models.RateArticleRequest) (*models.RatingSummary, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.requireArticle(ctx, id); err != nil {
		return nil, err
	}

	rating := &models.ArticleRating{
		ArticleID: id,
		UserID:    req.UserID,
		Rating:    req.Rating,
		Date:      s.now(),
	}
	if err := s.ratingRepo.Upsert(ctx, rating); err != nil {
		s.logger.Error("Failed to store rating", zap.String("article_id", id), zap.Error(err))
		return nil, err
	}

	s.metrics.IncrementCounter("ratings", map[string]string{"op": "upsert"})
	return s.summary(ctx, id)
}

func (s *articleService) RemoveRating(ctx context.Context, id string, userID string) (*models.RatingSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, models.NewValidationError("userId is required", "userId")
	}
	if err := s.requireArticle(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ratingRepo.Delete(ctx, id, userID); err != nil {
		return nil, err
	}

	s.metrics.IncrementCounter("ratings", map[string]string{"op": "remove"})
	return s.summary(ctx, id)
}

func (s *articleService) summary(ctx context.Context, id string) (*models.RatingSummary, error) {
	ratings, err := s.ratingRepo.ListForArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.RatingSummary{
		AverageRating: models.AverageOf(ratings),
		TotalRatings:  int64(len(ratings)),
	}, nil
}

func (s *articleService) requireArticle(ctx context.Context, id string) error {
	exists, err := s.articleRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrorNotFound{Resource: "article"}
	}
	return nil
}

// IsDOI reports whether an admin lookup key should be resolved as a DOI rather than an id.
func IsDOI(v string) bool {
	return strings.HasPrefix(v, "10.")
}

func (s *articleService) PatchArticle(ctx context.Context, idOrDOI string, fields map[string]interface{}) (*models.Article, error) {
	columns, err := patchColumns(fields)
	if err != nil {
		return nil, err
	}

	var article *models.Article
	if IsDOI(idOrDOI) {
		article, err = s.articleRepo.GetByDOI(ctx, idOrDOI)
	} else {
		article, err = s.articleRepo.GetByID(ctx, idOrDOI, true)
	}
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return article, nil
	}

	matched, err := s.articleRepo.UpdateWhere(ctx, article.ID, nil, columns)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, models.ErrorNotFound{Resource: "article"}
	}

	s.transitioned("patch", article.ID, "admin", "")
	return s.articleRepo.GetByID(ctx, article.ID, true)
}

type patchKind int

const (
	patchString patchKind = iota
	patchStringList
	patchTime
)

type patchField struct {
	column string
	kind   patchKind
}

var patchableFields = map[string]patchField{
	"doi":              {"doi", patchString},
	"title":            {"title", patchString},
	"authors":          {"authors", patchStringList},
	"source":           {"source", patchString},
	"pubyear":          {"pubyear", patchString},
	"claim":            {"claim", patchString},
	"evidence":         {"evidence", patchString},
	"submitter":        {"submitter", patchString},
	"submissionDate":   {"submission_date", patchTime},
	"moderationStatus": {"moderation_status", patchString},
	"moderationDate":   {"moderation_date", patchTime},
	"moderator":        {"moderator", patchString},
	"moderationReason": {"moderation_reason", patchString},
	"analysisStatus":   {"analysis_status", patchString},
	"analysisDate":     {"analysis_date", patchTime},
	"analyst":          {"analyst", patchString},
	"sePractice":       {"se_practice", patchString},
	"researchType":     {"research_type", patchString},
	"participantType":  {"participant_type", patchString},
	"result":           {"result", patchString},
}

// patchColumns converts a JSON patch body into column updates. Only the shape
// of each value is checked; no lifecycle rule applies.
func patchColumns(fields map[string]interface{}) (map[string]interface{}, error) {
	columns := make(map[string]interface{}, len(fields))
	var bad []string

	for key, raw := range fields {
		field, ok := patchableFields[key]
		if !ok {
			bad = append(bad, key)
			continue
		}
		value, ok := convertPatchValue(field.kind, raw)
		if !ok {
			bad = append(bad, key)
			continue
		}
		columns[field.column] = value
	}

	if len(bad) > 0 {
		sort.Strings(bad)
		return nil, models.NewValidationError("fields cannot be patched", bad...)
	}
	return columns, nil
}

func convertPatchValue(kind patchKind, raw interface{}) (interface{}, bool) {
	switch kind {
	case patchString:
		if raw == nil {
			return "", true
		}
		v, ok := raw.(string)
		return v, ok
	case patchStringList:
		items, ok := raw.([]interface{})
		if !ok {
			return nil, false
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return datatypes.JSONSlice[string](out), true
	case patchTime:
		if raw == nil {
			return nil, true
		}
		str, ok := raw.(string)
		if !ok {
			return nil, false
		}
		t, err := time.Parse(time.RFC3339, str)
		if err != nil {
			return nil, false
		}
		return t, true
	}
	return nil, false
}

func (s *articleService) transitioned(op, articleID, actor, state string) {
	s.metrics.IncrementCounter("article_transitions", map[string]string{"op": op})
	s.logger.Info(fmt.Sprintf("Article %s", op),
		zap.String("article_id", articleID),
		zap.String("actor", actor),
		zap.String("state", state))
}
