package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"speed-api/config"
	"speed-api/models"
	"speed-api/repositories"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	defaultSort  = "pubyear"
	minYearFloor = 2000
)

// basicSortFields are the keys accepted unless extended sort is enabled.
var basicSortFields = []string{"title", "authors", "pubyear", "source"}

// SearchService answers the public search and the role specific listings.
type SearchService interface {
	Search(ctx context.Context, params models.SearchParams) (*models.SearchResult, error)
	Filters(ctx context.Context) (*models.SearchFilters, error)
	PendingModeration(ctx context.Context) ([]models.ArticleResponse, error)
	PendingAnalysis(ctx context.Context) ([]models.ArticleResponse, error)
	Mine(ctx context.Context, email string) ([]models.ArticleResponse, error)
}

type searchService struct {
	articleRepo repositories.ArticleRepository
	cfg         config.SearchConfig
	now         func() time.Time
}

func NewSearchService(articleRepo repositories.ArticleRepository, cfg config.SearchConfig) SearchService {
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	return &searchService{articleRepo: articleRepo, cfg: cfg, now: time.Now}
}

func (s *searchService) Search(ctx context.Context, params models.SearchParams) (*models.SearchResult, error) {
	if err := validateStruct(params); err != nil {
		return nil, err
	}
	// Same folding as Analyze so exact filters match stored values.
	params.ParticipantType = NormalizeParticipantType(params.ParticipantType)
	params.ResearchType = strings.TrimSpace(params.ResearchType)
	if err := s.normalize(&params); err != nil {
		return nil, err
	}

	filter := repositories.ArticleFilter{
		SePractice:      params.SePractice,
		PracticeExact:   s.cfg.PracticeMatch == config.PracticeMatchExact,
		Text:            params.Claim,
		TextInEvidence:  s.cfg.IncludeEvidence,
		Result:          params.Result,
		ResearchType:    params.ResearchType,
		ParticipantType: params.ParticipantType,
		MinYear:         params.MinYear,
		MaxYear:         params.MaxYear,
	}
	sort := repositories.ArticleSort{Field: params.SortBy, Desc: params.SortOrder == "desc"}

	articles, total, err := s.articleRepo.Search(ctx, filter, sort, params.Page, params.Limit)
	if err != nil {
		return nil, err
	}

	return &models.SearchResult{
		Articles: models.ViewAll(articles, models.RedactForSearch),
		Pagination: models.Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
			Pages: pageCount(total, params.Limit),
		},
		Filters: params,
	}, nil
}

// normalize fills in paging and sort defaults and rejects values the query cannot honour.
func (s *searchService) normalize(params *models.SearchParams) error {
	if params.Page == 0 {
		params.Page = defaultPage
	}
	if params.Limit == 0 {
		params.Limit = defaultLimit
	}
	if params.Limit > s.cfg.MaxLimit {
		return models.NewValidationError(fmt.Sprintf("limit must not exceed %d", s.cfg.MaxLimit), "limit")
	}

	if params.SortBy == "" {
		params.SortBy = defaultSort
	}
	if params.SortOrder == "" {
		params.SortOrder = "desc"
	}
	if !s.sortable(params.SortBy) {
		return models.NewValidationError("unsupported sort field", "sortBy")
	}

	if params.MinYear != "" && params.MaxYear != "" && params.MinYear > params.MaxYear {
		return models.NewValidationError("minYear must not be after maxYear", "minYear", "maxYear")
	}
	return nil
}

func (s *searchService) sortable(field string) bool {
	if s.cfg.ExtendedSort {
		return repositories.IsSortField(field)
	}
	return contains(basicSortFields, field)
}

func pageCount(total int64, limit int) int {
	if limit <= 0 || total == 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func (s *searchService) Filters(ctx context.Context) (*models.SearchFilters, error) {
	practices, err := s.articleRepo.DistinctPublicValues(ctx, repositories.ColumnSePractice)
	if err != nil {
		return nil, err
	}
	researchTypes, err := s.articleRepo.DistinctPublicValues(ctx, repositories.ColumnResearchType)
	if err != nil {
		return nil, err
	}
	participantTypes, err := s.articleRepo.DistinctPublicValues(ctx, repositories.ColumnParticipantType)
	if err != nil {
		return nil, err
	}
	minYear, maxYear, err := s.articleRepo.PublicYearRange(ctx)
	if err != nil {
		return nil, err
	}

	years := models.YearRange{MinYear: minYearFloor, MaxYear: s.now().Year()}
	if y, err := strconv.Atoi(minYear); err == nil {
		years.MinYear = y
	}
	if y, err := strconv.Atoi(maxYear); err == nil {
		years.MaxYear = y
	}

	return &models.SearchFilters{
		SePractices:      nonNil(practices),
		ResearchTypes:    nonNil(researchTypes),
		ParticipantTypes: nonNil(participantTypes),
		YearRange:        years,
	}, nil
}

func (s *searchService) PendingModeration(ctx context.Context) ([]models.ArticleResponse, error) {
	articles, err := s.articleRepo.ListPendingModeration(ctx)
	if err != nil {
		return nil, err
	}
	return models.ViewAll(articles, models.RedactForModerationQueue), nil
}

func (s *searchService) PendingAnalysis(ctx context.Context) ([]models.ArticleResponse, error) {
	articles, err := s.articleRepo.ListPendingAnalysis(ctx)
	if err != nil {
		return nil, err
	}
	return models.ViewAll(articles, models.RedactForAnalysisQueue), nil
}

func (s *searchService) Mine(ctx context.Context, email string) ([]models.ArticleResponse, error) {
	articles, err := s.articleRepo.ListBySubmitter(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	return models.ViewAll(articles, models.RedactForSubmitter), nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
