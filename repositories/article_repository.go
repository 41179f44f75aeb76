package repositories

import (
	"context"
	"fmt"
	"strings"

	"speed-api/models"

	"gorm.io/gorm"
)

// ArticleFilter narrows the public search. Zero values are ignored.
type ArticleFilter struct {
	SePractice      string
	PracticeExact   bool
	Text            string
	TextInEvidence  bool
	Result          string
	ResearchType    string
	ParticipantType string
	MinYear         string
	MaxYear         string
}

// ArticleSort orders a search. Field is one of the keys of sortColumns.
type ArticleSort struct {
	Field string
	Desc  bool
}

const averageRatingField = "averageRating"

var sortColumns = map[string]string{
	"title":           "title",
	"authors":         "authors",
	"pubyear":         "pubyear",
	"source":          "source",
	"doi":             "doi",
	"claim":           "claim",
	"sePractice":      "se_practice",
	"result":          "result",
	"researchType":    "research_type",
	"participantType": "participant_type",
	"submissionDate":  "submission_date",
	"averageRating":   "",
}

// IsSortField reports whether field can be used in ArticleSort.
func IsSortField(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

// FilterColumns are the columns whose distinct values drive the search UI.
const (
	ColumnSePractice      = "se_practice"
	ColumnResearchType    = "research_type"
	ColumnParticipantType = "participant_type"
)

type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id string, withRatings bool) (*models.Article, error)
	GetByDOI(ctx context.Context, doi string) (*models.Article, error)
	Exists(ctx context.Context, id string) (bool, error)
	// UpdateWhere applies fields to the article with the given id in a single
	// statement, provided guard (if any) also holds. It reports whether a row matched.
	UpdateWhere(ctx context.Context, id string, guard map[string]interface{}, fields map[string]interface{}) (bool, error)
	Search(ctx context.Context, filter ArticleFilter, sort ArticleSort, page, limit int) ([]models.Article, int64, error)
	ListPendingModeration(ctx context.Context) ([]models.Article, error)
	ListPendingAnalysis(ctx context.Context) ([]models.Article, error)
	ListBySubmitter(ctx context.Context, email string) ([]models.Article, error)
	DistinctPublicValues(ctx context.Context, column string) ([]string, error)
	PublicYearRange(ctx context.Context) (minYear, maxYear string, err error)
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	return translate(r.db.WithContext(ctx).Create(article).Error, "article")
}

func (r *articleRepository) GetByID(ctx context.Context, id string, withRatings bool) (*models.Article, error) {
	var article models.Article
	query := r.db.WithContext(ctx)
	if withRatings {
		query = query.Preload("Ratings", orderRatings)
	}
	if err := query.Where("id = ?", id).First(&article).Error; err != nil {
		return nil, translate(err, "article")
	}
	return &article, nil
}

func (r *articleRepository) GetByDOI(ctx context.Context, doi string) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).Preload("Ratings", orderRatings).
		Where("doi = ?", doi).
		Order("submission_date asc").
		First(&article).Error
	if err != nil {
		return nil, translate(err, "article")
	}
	return &article, nil
}

func (r *articleRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Article{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, translate(err, "article")
	}
	return count > 0, nil
}

func (r *articleRepository) UpdateWhere(ctx context.Context, id string, guard map[string]interface{}, fields map[string]interface{}) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Article{}).Where("id = ?", id)
	if len(guard) > 0 {
		query = query.Where(guard)
	}
	res := query.Updates(fields)
	if res.Error != nil {
		return false, translate(res.Error, "article")
	}
	return res.RowsAffected > 0, nil
}

func (r *articleRepository) Search(ctx context.Context, filter ArticleFilter, sort ArticleSort, page, limit int) ([]models.Article, int64, error) {
	var articles []models.Article
	var total int64

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Article{}).Scopes(publicArticles, filterArticles(filter))
	}

	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translate(err, "article")
	}

	offset := (page - 1) * limit
	err := base().
		Preload("Ratings", orderRatings).
		Order(orderClause(sort)).
		Order("articles.id asc").
		Offset(offset).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, 0, translate(err, "article")
	}

	return articles, total, nil
}

func (r *articleRepository) ListPendingModeration(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	err := r.db.WithContext(ctx).
		Where("moderation_status = ?", models.ModerationPending).
		Order("submission_date asc").
		Find(&articles).Error
	return articles, translate(err, "article")
}

func (r *articleRepository) ListPendingAnalysis(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	err := r.db.WithContext(ctx).
		Where("moderation_status = ? AND analysis_status = ?", models.ModerationApproved, models.AnalysisPending).
		Order("moderation_date asc").
		Find(&articles).Error
	return articles, translate(err, "article")
}

func (r *articleRepository) ListBySubmitter(ctx context.Context, email string) ([]models.Article, error) {
	var articles []models.Article
	err := r.db.WithContext(ctx).
		Where("submitter = ?", email).
		Order("submission_date desc").
		Find(&articles).Error
	return articles, translate(err, "article")
}

func (r *articleRepository) DistinctPublicValues(ctx context.Context, column string) ([]string, error) {
	switch column {
	case ColumnSePractice, ColumnResearchType, ColumnParticipantType:
	default:
		return nil, fmt.Errorf("column %q is not a filter column", column)
	}

	var values []string
	err := r.db.WithContext(ctx).Model(&models.Article{}).
		Scopes(publicArticles).
		Where(column + " IS NOT NULL AND " + column + " <> ''").
		Distinct(column).
		Order(column + " asc").
		Pluck(column, &values).Error
	return values, translate(err, "article")
}

func (r *articleRepository) PublicYearRange(ctx context.Context) (string, string, error) {
	var row struct {
		MinYear *string
		MaxYear *string
	}
	err := r.db.WithContext(ctx).Model(&models.Article{}).
		Scopes(publicArticles).
		Where("pubyear IS NOT NULL AND pubyear <> ''").
		Select("MIN(pubyear) AS min_year, MAX(pubyear) AS max_year").
		Scan(&row).Error
	if err != nil {
		return "", "", translate(err, "article")
	}
	if row.MinYear == nil || row.MaxYear == nil {
		return "", "", nil
	}
	return *row.MinYear, *row.MaxYear, nil
}

// publicArticles restricts a query to approved and analyzed articles.
func publicArticles(db *gorm.DB) *gorm.DB {
	return db.Where("articles.moderation_status = ? AND articles.analysis_status = ?",
		models.ModerationApproved, models.AnalysisAnalyzed)
}

func filterArticles(f ArticleFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.SePractice != "" {
			if f.PracticeExact {
				db = db.Where("articles.se_practice = ?", f.SePractice)
			} else {
				db = db.Where(containsIgnoreCase("articles.se_practice"), likePattern(f.SePractice))
			}
		}
		if f.Result != "" {
			db = db.Where("articles.result = ?", f.Result)
		}
		if f.ResearchType != "" {
			db = db.Where("articles.research_type = ?", f.ResearchType)
		}
		if f.ParticipantType != "" {
			db = db.Where("articles.participant_type = ?", f.ParticipantType)
		}
		if f.MinYear != "" {
			db = db.Where("articles.pubyear >= ?", f.MinYear)
		}
		if f.MaxYear != "" {
			db = db.Where("articles.pubyear <= ?", f.MaxYear)
		}
		if f.Text != "" {
			pattern := likePattern(f.Text)
			clauses := []string{containsIgnoreCase("articles.claim"), containsIgnoreCase("articles.title")}
			args := []interface{}{pattern, pattern}
			if f.TextInEvidence {
				clauses = append(clauses, containsIgnoreCase("articles.evidence"))
				args = append(args, pattern)
			}
			db = db.Where("("+strings.Join(clauses, " OR ")+")", args...)
		}
		return db
	}
}

func orderClause(sort ArticleSort) string {
	dir := "asc"
	if sort.Desc {
		dir = "desc"
	}
	if sort.Field == averageRatingField {
		return "(SELECT COALESCE(AVG(article_ratings.rating), 0) FROM article_ratings " +
			"WHERE article_ratings.article_id = articles.id) " + dir
	}
	column, ok := sortColumns[sort.Field]
	if !ok || column == "" {
		column = "pubyear"
	}
	return "articles." + column + " " + dir
}

func orderRatings(db *gorm.DB) *gorm.DB {
	return db.Order("article_ratings.date asc")
}

func containsIgnoreCase(column string) string {
	return "LOWER(" + column + `) LIKE ? ESCAPE '\'`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
