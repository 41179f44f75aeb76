package handlers

import (
	"speed-api/helper"
	"speed-api/middleware"
	"speed-api/models"
	"speed-api/services"

	"github.com/gin-gonic/gin"
)

type ArticleHandler struct {
	articleService services.ArticleService
	searchService  services.SearchService
	Helper         *helper.HTTPHelper
}

func NewArticleHandler(articleService services.ArticleService, searchService services.SearchService, httpHelper *helper.HTTPHelper) *ArticleHandler {
	return &ArticleHandler{
		articleService: articleService,
		searchService:  searchService,
		Helper:         httpHelper,
	}
}

func (h *ArticleHandler) Submit(c *gin.Context) {
	var req models.SubmitArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBadRequest(c, "Invalid request body", h.Helper.EmptyJsonMap())
		return
	}

	article, err := h.articleService.Submit(c.Request.Context(), req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendCreated(c, "Article submitted successfully", models.SubmitArticleResponse{
		ID:     article.ID,
		Title:  article.Title,
		Status: article.ModerationStatus,
	})
}

func (h *ArticleHandler) Search(c *gin.Context) {
	var params models.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.Helper.SendBadRequest(c, "Invalid query parameters", h.Helper.EmptyJsonMap())
		return
	}

	result, err := h.searchService.Search(c.Request.Context(), params)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	result.Pagination.Links = h.Helper.GeneratePaging(c, result.Pagination.Page, result.Pagination.Limit, result.Pagination.Pages)
	h.Helper.SendSuccess(c, "", result)
}

func (h *ArticleHandler) Filters(c *gin.Context) {
	filters, err := h.searchService.Filters(c.Request.Context())
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "", filters)
}

func (h *ArticleHandler) GetArticle(c *gin.Context) {
	article, err := h.articleService.GetArticle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "", article.View(models.RedactForDetail))
}

func (h *ArticleHandler) Rate(c *gin.Context) {
	var req models.RateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBadRequest(c, "Invalid request body", h.Helper.EmptyJsonMap())
		return
	}

	summary, err := h.articleService.Rate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Rating saved", summary)
}

func (h *ArticleHandler) PendingModeration(c *gin.Context) {
	articles, err := h.searchService.PendingModeration(c.Request.Context())
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "", articles)
}

func (h *ArticleHandler) Mine(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok || actor.Email == "" {
		h.Helper.SendUnauthorizedError(c, "Unauthorized", h.Helper.EmptyJsonMap())
		return
	}

	articles, err := h.searchService.Mine(c.Request.Context(), actor.Email)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "", articles)
}

func (h *ArticleHandler) Moderate(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req models.ModerateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBadRequest(c, "Invalid request body", h.Helper.EmptyJsonMap())
		return
	}

	article, err := h.articleService.Moderate(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article "+string(req.Status)+" successfully", article.View(models.RedactNothing))
}

func (h *ArticleHandler) PendingAnalysis(c *gin.Context) {
	articles, err := h.searchService.PendingAnalysis(c.Request.Context())
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "", articles)
}

func (h *ArticleHandler) Analyze(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req models.AnalyzeArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBadRequest(c, "Invalid request body", h.Helper.EmptyJsonMap())
		return
	}

	article, err := h.articleService.Analyze(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Analysis saved", article.View(models.RedactNothing))
}
