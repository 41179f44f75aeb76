package handlers

import (
	"strings"

	"speed-api/helper"
	"speed-api/metrics"
	"speed-api/models"
	"speed-api/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	articleService services.ArticleService
	configService  services.SiteConfigService
	userService    services.UserService
	metrics        *metrics.Collector
	Helper         *helper.HTTPHelper
}

func NewAdminHandler(
	articleService services.ArticleService,
	configService services.SiteConfigService,
	userService services.UserService,
	collector *metrics.Collector,
	httpHelper *helper.HTTPHelper,
) *AdminHandler {
	return &AdminHandler{
		articleService: articleService,
		configService:  configService,
		userService:    userService,
		metrics:        collector,
		Helper:         httpHelper,
	}
}

func (h *AdminHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configService.Get(c.Request.Context())
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "", cfg)
}

func (h *AdminHandler) UpsertConfig(c *gin.Context) {
	var req models.UpsertSiteConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBadRequest(c, "Invalid request body", h.Helper.EmptyJsonMap())
		return
	}

	cfg, created, err := h.configService.Upsert(c.Request.Context(), req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	if created {
		h.Helper.SendCreated(c, "Config created", cfg)
		return
	}
	h.Helper.SendSuccess(c, "Config updated", cfg)
}

// PatchArticle is mounted on a catch-all so DOIs, which contain slashes, reach it intact.
func (h *AdminHandler) PatchArticle(c *gin.Context) {
	idOrDOI := strings.TrimPrefix(c.Param("idOrDoi"), "/")
	if idOrDOI == "" {
		h.Helper.SendBadRequest(c, "Article id or DOI required", h.Helper.EmptyJsonMap())
		return
	}

	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		h.Helper.SendBadRequest(c, "Invalid request body", h.Helper.EmptyJsonMap())
		return
	}

	article, err := h.articleService.PatchArticle(c.Request.Context(), idOrDOI, fields)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article updated", article.View(models.RedactNothing))
}

// RemoveRating takes userId from the body, or from the query string for clients that cannot send a DELETE body.
func (h *AdminHandler) RemoveRating(c *gin.Context) {
	var req models.RemoveRatingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.Helper.SendBadRequest(c, "Invalid request body", h.Helper.EmptyJsonMap())
			return
		}
	}
	if req.UserID == "" {
		req.UserID = c.Query("userId")
	}

	summary, err := h.articleService.RemoveRating(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Rating removed", summary)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "", users)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBadRequest(c, "Invalid request body", h.Helper.EmptyJsonMap())
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), c.Param("userId"), req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "User updated", user)
}

func (h *AdminHandler) Metrics(c *gin.Context) {
	h.Helper.SendSuccess(c, "", h.metrics.Snapshot())
}
