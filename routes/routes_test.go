package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"speed-api/config"
	"speed-api/metrics"
	"speed-api/models"
	"speed-api/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type envelope struct {
	Code        int             `json:"code"`
	CodeType    string          `json:"code_type"`
	CodeMessage json.RawMessage `json:"code_message"`
	Data        json.RawMessage `json:"data"`
}

type IntegrationTestSuite struct {
	suite.Suite
	db     *gorm.DB
	cfg    *config.AppConfig
	router *gin.Engine
	tokens map[models.UserRole]string
	users  map[models.UserRole]models.User
}

func (suite *IntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	config.SetJWTSecret("test-secret")

	suite.db = testutil.NewDB(suite.T())
	suite.cfg = config.Defaults()
	suite.cfg.Auth.AllowRoleSelection = true
	suite.router = NewRouter(Dependencies{
		DB:      suite.db,
		Config:  suite.cfg,
		Logger:  zap.NewNop(),
		Metrics: metrics.NewCollector(),
	})

	suite.tokens = map[models.UserRole]string{}
	suite.users = map[models.UserRole]models.User{}
	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleModerator, models.RoleAnalyst, models.RoleSubmitter} {
		suite.registerUser(role)
	}
}

func (suite *IntegrationTestSuite) registerUser(role models.UserRole) {
	w := suite.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Email:    string(role) + "@example.com",
		Password: "password123",
		Name:     "Test " + string(role),
		Role:     role,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp models.AuthResponse
	suite.decode(w, &resp)
	suite.tokens[role] = resp.Token
	suite.users[role] = resp.User
}

func (suite *IntegrationTestSuite) do(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		suite.Require().NoError(err)
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *IntegrationTestSuite) decode(w *httptest.ResponseRecorder, data interface{}) envelope {
	var env envelope
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	suite.Equal(w.Code, env.Code)
	if data != nil {
		suite.Require().NoError(json.Unmarshal(env.Data, data))
	}
	return env
}

func (suite *IntegrationTestSuite) submit(title, doi string) string {
	w := suite.do(http.MethodPost, "/api/articles/submit", "", models.SubmitArticleRequest{
		Title:     title,
		Authors:   []string{"Beck"},
		Source:    "XP Conference",
		Pubyear:   "2003",
		DOI:       doi,
		Claim:     "improves code quality",
		Evidence:  "industrial case study",
		Submitter: "submitter@example.com",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp models.SubmitArticleResponse
	suite.decode(w, &resp)
	suite.Equal(models.ModerationPending, resp.Status)
	return resp.ID
}

func (suite *IntegrationTestSuite) TestHealth() {
	w := suite.do(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"status":"healthy"}`, w.Body.String())
	suite.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (suite *IntegrationTestSuite) TestAuthFlow() {
	w := suite.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{
		Email:    "analyst@example.com",
		Password: "password123",
	})
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp models.AuthResponse
	suite.decode(w, &resp)
	suite.NotEmpty(resp.Token)
	suite.Equal(models.RoleAnalyst, resp.User.Role)

	w = suite.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "analyst@example.com", Password: "nope"})
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Email: "ANALYST@example.com", Password: "password123", Name: "Again",
	})
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{Email: "bad", Password: "1", Name: "X"})
	suite.Equal(http.StatusBadRequest, w.Code)
	var fields map[string][]string
	env := suite.decode(w, nil)
	suite.Require().NoError(json.Unmarshal(env.CodeMessage, &fields))
	suite.Contains(fields, "email")
	suite.Contains(fields, "password")
}

func (suite *IntegrationTestSuite) TestGetProfile() {
	w := suite.do(http.MethodGet, "/api/profile", suite.tokens[models.RoleSubmitter], nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var user map[string]interface{}
	suite.decode(w, &user)
	suite.Equal("submitter@example.com", user["email"])
	suite.NotContains(user, "password")

	w = suite.do(http.MethodGet, "/api/profile", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodGet, "/api/profile", "not-a-token", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *IntegrationTestSuite) TestRoleGates() {
	tests := []struct {
		method string
		path   string
		role   models.UserRole
		want   int
	}{
		{http.MethodGet, "/api/articles/pending", models.RoleSubmitter, http.StatusForbidden},
		{http.MethodGet, "/api/articles/pending", models.RoleAnalyst, http.StatusForbidden},
		{http.MethodGet, "/api/articles/pending", models.RoleModerator, http.StatusOK},
		{http.MethodGet, "/api/articles/analysis/pending", models.RoleSubmitter, http.StatusForbidden},
		{http.MethodGet, "/api/articles/analysis/pending", models.RoleAnalyst, http.StatusOK},
		{http.MethodGet, "/api/admin/config", models.RoleModerator, http.StatusForbidden},
		{http.MethodGet, "/api/admin/config", models.RoleAdmin, http.StatusOK},
		{http.MethodGet, "/api/admin/users", models.RoleAdmin, http.StatusOK},
		{http.MethodGet, "/api/admin/metrics", models.RoleAdmin, http.StatusOK},
		{http.MethodGet, "/api/admin/metrics/prometheus", models.RoleAdmin, http.StatusOK},
		{http.MethodGet, "/api/admin/metrics/prometheus", models.RoleAnalyst, http.StatusForbidden},
		{http.MethodGet, "/api/articles/mine", models.RoleAnalyst, http.StatusOK},
		{http.MethodGet, "/api/articles/mine", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/articles/debug/pending", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := suite.do(tt.method, tt.path, suite.tokens[tt.role], nil)
		suite.Equal(tt.want, w.Code, "%s %s as %q", tt.method, tt.path, tt.role)
	}
}

func (suite *IntegrationTestSuite) TestArticleLifecycle() {
	id := suite.submit("Lifecycle TDD study", "10.4242/lifecycle")

	// Not public until approved and analyzed.
	var result models.SearchResult
	w := suite.do(http.MethodGet, "/api/articles/search?claim=Lifecycle", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &result)
	suite.Empty(result.Articles)

	var queue []map[string]interface{}
	w = suite.do(http.MethodGet, "/api/articles/pending", suite.tokens[models.RoleModerator], nil)
	suite.decode(w, &queue)
	suite.Require().NotEmpty(queue)
	suite.NotContains(queue[0], "ratings")

	w = suite.do(http.MethodPut, "/api/articles/"+id+"/moderate", suite.tokens[models.RoleModerator],
		models.ModerateArticleRequest{Status: models.ModerationApproved})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodPut, "/api/articles/"+id+"/analyze", suite.tokens[models.RoleAnalyst],
		models.AnalyzeArticleRequest{
			SePractice:      "TDD",
			Claim:           "improves code quality",
			Result:          "agree",
			ResearchType:    "case study",
			ParticipantType: "Practitioners",
		})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var analyzed models.ArticleResponse
	suite.decode(w, &analyzed)
	suite.Equal("practitioner", analyzed.ParticipantType)
	suite.Equal(models.AnalysisAnalyzed, analyzed.AnalysisStatus)

	w = suite.do(http.MethodPost, "/api/articles/"+id+"/rate", "", models.RateArticleRequest{UserID: "reader-1", Rating: 3})
	suite.Require().Equal(http.StatusOK, w.Code)
	w = suite.do(http.MethodPost, "/api/articles/"+id+"/rate", "", models.RateArticleRequest{UserID: "reader-2", Rating: 5})
	var summary models.RatingSummary
	suite.decode(w, &summary)
	suite.Equal(models.RatingSummary{AverageRating: 4, TotalRatings: 2}, summary)

	w = suite.do(http.MethodGet, "/api/articles/search?claim=lifecycle&sePractice=tdd", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	result = models.SearchResult{}
	suite.decode(w, &result)
	suite.Require().Len(result.Articles, 1)
	suite.Equal(id, result.Articles[0].ID)
	suite.Equal(4.0, result.Articles[0].AverageRating)
	suite.Nil(result.Articles[0].Moderator)
	suite.Equal(1, result.Pagination.Pages)

	var detail map[string]interface{}
	w = suite.do(http.MethodGet, "/api/articles/"+id, "", nil)
	suite.decode(w, &detail)
	suite.Equal("moderator@example.com", detail["moderator"])
	suite.NotContains(detail, "moderationReason")

	w = suite.do(http.MethodDelete, "/api/admin/articles/"+id+"/ratings", suite.tokens[models.RoleAdmin],
		models.RemoveRatingRequest{UserID: "reader-1"})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &summary)
	suite.Equal(models.RatingSummary{AverageRating: 5, TotalRatings: 1}, summary)

	var mine []models.ArticleResponse
	w = suite.do(http.MethodGet, "/api/articles/mine", suite.tokens[models.RoleSubmitter], nil)
	suite.decode(w, &mine)
	suite.NotEmpty(mine)
	for _, a := range mine {
		suite.Empty(a.Ratings)
		suite.Nil(a.Analyst)
	}
}

func (suite *IntegrationTestSuite) TestArticleErrors() {
	unknown := models.NewObjectID()

	w := suite.do(http.MethodGet, "/api/articles/"+unknown, "", nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodPut, "/api/articles/"+unknown+"/moderate", suite.tokens[models.RoleAdmin],
		models.ModerateArticleRequest{Status: models.ModerationRejected})
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodPost, "/api/articles/"+unknown+"/rate", "", models.RateArticleRequest{UserID: "u", Rating: 2})
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodPost, "/api/articles/submit", "", map[string]interface{}{"title": "only a title"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/articles/search?limit=1000", "", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/articles/search?page=abc", "", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *IntegrationTestSuite) TestAdminPatchByDOIAndID() {
	id := suite.submit("Patch target", "10.5555/patch.target")
	admin := suite.tokens[models.RoleAdmin]

	w := suite.do(http.MethodPatch, "/api/admin/articles/10.5555/patch.target", admin, map[string]interface{}{"title": "Patched by DOI"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var article models.ArticleResponse
	suite.decode(w, &article)
	suite.Equal(id, article.ID)
	suite.Equal("Patched by DOI", article.Title)

	w = suite.do(http.MethodPatch, "/api/admin/articles/"+id, admin, map[string]interface{}{"source": "ICSE"})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &article)
	suite.Equal("ICSE", article.Source)

	w = suite.do(http.MethodPatch, "/api/admin/articles/10.0000/missing", admin, map[string]interface{}{"title": "x"})
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodPatch, "/api/admin/articles/"+id, admin, map[string]interface{}{"ratings": []int{}})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *IntegrationTestSuite) TestAdminConfigUpsert() {
	admin := suite.tokens[models.RoleAdmin]

	var cfg models.SiteConfigResponse
	w := suite.do(http.MethodPut, "/api/admin/config", admin, models.UpsertSiteConfigRequest{
		Practices: models.PracticeTaxonomy{"TDD": {"improves code quality"}},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	suite.decode(w, &cfg)
	suite.Equal([]string{"improves code quality"}, cfg.Practices["TDD"])

	notify := true
	w = suite.do(http.MethodPut, "/api/admin/config", admin, models.UpsertSiteConfigRequest{
		Notifications: &models.NotificationSettings{NotifyOnSubmission: &notify},
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &cfg)
	suite.Contains(cfg.Practices, "TDD")
	suite.True(*cfg.Notifications.NotifyOnSubmission)
	suite.True(*cfg.Notifications.NotifyOnModerationApproved)
}

func (suite *IntegrationTestSuite) TestAdminUpdateUserRole() {
	admin := suite.tokens[models.RoleAdmin]
	target := suite.users[models.RoleSubmitter]

	w := suite.do(http.MethodPut, "/api/admin/users/"+target.ID, admin, models.UpdateUserRequest{Name: "Renamed Submitter"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var user models.User
	suite.decode(w, &user)
	suite.Equal("Renamed Submitter", user.Name)
	suite.Equal(models.RoleSubmitter, user.Role)

	w = suite.do(http.MethodPut, "/api/admin/users/"+models.NewObjectID(), admin, models.UpdateUserRequest{Name: "Ghost"})
	suite.Equal(http.StatusNotFound, w.Code)
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

func TestVerifyUserOnRequestUsesStoredRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	cfg := config.Defaults()
	cfg.Auth.VerifyUserOnRequest = true
	cfg.Auth.AllowRoleSelection = true
	router := NewRouter(Dependencies{DB: db, Config: cfg, Logger: zap.NewNop()})

	s := &IntegrationTestSuite{router: router}
	s.SetT(t)
	s.tokens = map[models.UserRole]string{}
	s.users = map[models.UserRole]models.User{}
	s.registerUser(models.RoleModerator)

	w := s.do(http.MethodGet, "/api/articles/pending", s.tokens[models.RoleModerator], nil)
	s.Equal(http.StatusOK, w.Code)

	// Demote the user; the old token still claims moderator.
	s.Require().NoError(db.Model(&models.User{}).
		Where("id = ?", s.users[models.RoleModerator].ID).
		Update("role", models.RoleSubmitter).Error)

	w = s.do(http.MethodGet, "/api/articles/pending", s.tokens[models.RoleModerator], nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func TestDefaultConfigClosesSelfServiceRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(Dependencies{DB: testutil.NewDB(t), Config: config.Defaults(), Logger: zap.NewNop()})

	s := &IntegrationTestSuite{router: router}
	s.SetT(t)

	w := s.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Email: "eve@example.com", Password: "password123", Name: "Eve", Role: models.RoleAdmin,
	})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Email: "eve@example.com", Password: "password123", Name: "Eve",
	})
	s.Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/articles/debug/pending", "", nil)
	s.Equal(http.StatusNotFound, w.Code)

	cfg := config.Defaults()
	cfg.DebugRoutes = true
	debug := &IntegrationTestSuite{router: NewRouter(Dependencies{DB: testutil.NewDB(t), Config: cfg, Logger: zap.NewNop()})}
	debug.SetT(t)
	w = debug.do(http.MethodGet, "/api/articles/debug/pending", "", nil)
	s.Equal(http.StatusOK, w.Code)
}
