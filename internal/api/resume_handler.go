package api

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumekit/internal/api/middleware"
	"resumekit/internal/database"
	"resumekit/internal/plugin"
	"resumekit/internal/render"
	"resumekit/internal/storage"
)

// ResumeHandler 负责简历本身的增删改查，以及公开页面的组装渲染。
type ResumeHandler struct {
	db       *gorm.DB
	registry *plugin.Registry
	renderer *render.Renderer
	storage  *storage.Client
	logger   *slog.Logger
}

// NewResumeHandler 构造 ResumeHandler。storage 可以为 nil，此时删除简历
// 不清理对象存储。
func NewResumeHandler(db *gorm.DB, registry *plugin.Registry, renderer *render.Renderer, storageClient *storage.Client, logger *slog.Logger) *ResumeHandler {
	return &ResumeHandler{
		db:       db,
		registry: registry,
		renderer: renderer,
		storage:  storageClient,
		logger:   logger,
	}
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type createResumeRequest struct {
	Name string `json:"name" binding:"required,max=255"`
	Slug string `json:"slug" binding:"required,max=255"`
}

type resumeResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newResumeResponse(r database.Resume) resumeResponse {
	return resumeResponse{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// CreateResume 新建一份空简历。slug 全局唯一，重复时返回 409。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	var req createResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		BadRequest(c, "slug must contain only lowercase letters, digits and hyphens")
		return
	}

	ctx := c.Request.Context()

	var existing database.Resume
	if err := h.db.WithContext(ctx).Where("slug = ?", slug).First(&existing).Error; err == nil {
		Conflict(c, "slug already taken")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		Internal(c, "internal error")
		return
	}

	res := database.Resume{
		Name:    req.Name,
		Slug:    slug,
		OwnerID: userID,
	}
	if err := h.db.WithContext(ctx).Create(&res).Error; err != nil {
		middleware.LoggerFromContext(c).Error("create resume failed", slog.Any("error", err))
		Internal(c, "failed to create resume")
		return
	}

	c.JSON(http.StatusCreated, newResumeResponse(res))
}

// ListResumes 返回当前用户的全部简历。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var resumes []database.Resume
	if err := h.db.WithContext(c.Request.Context()).
		Where("owner_id = ?", userID).
		Order("created_at DESC").
		Find(&resumes).Error; err != nil {
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeResponse, 0, len(resumes))
	for _, r := range resumes {
		items = append(items, newResumeResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type updateResumeRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// UpdateResume 重命名简历；slug 创建后不可变。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	var req updateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, ok := h.ownedResume(c)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(res).
		Update("name", req.Name).Error; err != nil {
		Internal(c, "failed to update resume")
		return
	}

	res.Name = req.Name
	c.JSON(http.StatusOK, newResumeResponse(*res))
}

// DeleteResume 删除简历及其在对象存储里的上传资产。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	res, ok := h.ownedResume(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Delete(res).Error; err != nil {
		Internal(c, "failed to delete resume")
		return
	}

	if h.storage != nil {
		if err := h.storage.DeletePrefix(ctx, assetPrefix(res.ID)); err != nil {
			// 资产残留不影响删除结果，记录后继续
			middleware.LoggerFromContext(c).Warn("delete resume assets failed",
				slog.Uint64("resume_id", uint64(res.ID)), slog.Any("error", err))
		}
	}

	c.Status(http.StatusNoContent)
}

// ShowPage 组装完整的简历页面。访客看到只读视图；属主带上 ?edit=true
// 时每个区块出现编辑按钮。?plugins=a,b 只渲染给定子集，未知名字跳过。
func (h *ResumeHandler) ShowPage(c *gin.Context) {
	slug := c.Param("slug")

	var res database.Resume
	if err := h.db.WithContext(c.Request.Context()).Where("slug = ?", slug).First(&res).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
		} else {
			Internal(c, "internal error")
		}
		return
	}

	userID, authed := userIDFromContext(c)
	edit := authed && userID == res.OwnerID && c.Query("edit") == "true"

	var subset map[string]bool
	if raw := strings.TrimSpace(c.Query("plugins")); raw != "" {
		subset = map[string]bool{}
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				subset[name] = true
			}
		}
	}

	logger := middleware.LoggerFromContext(c)
	fragments := make([]template.HTML, 0)
	for _, p := range h.registry.All() {
		if subset != nil && !subset[p.Name()] {
			continue
		}
		builder, ok := p.(plugin.ContextBuilder)
		if !ok {
			continue
		}
		body, err := h.renderer.Role(p.Templates(), render.RoleMain, builder.GetContext(&res, nil, edit))
		if err != nil {
			// 单个插件渲染失败不拖垮整页
			logger.Error("render plugin failed", slog.String("plugin", p.Name()), slog.Any("error", err))
			continue
		}
		fragments = append(fragments, template.HTML(body))
	}

	page, err := h.renderer.Fragment("page.html", map[string]any{
		"theme":       plugin.CurrentTheme(h.registry, &res),
		"resume_name": res.Name,
		"resume_slug": res.Slug,
		"fragments":   fragments,
	})
	if err != nil {
		logger.Error("render page failed", slog.Any("error", err))
		Internal(c, "render failed")
		return
	}
	HTML(c, http.StatusOK, page)
}

// ownedResume 按 slug 加载简历并校验属主，失败时已写好响应。
func (h *ResumeHandler) ownedResume(c *gin.Context) (*database.Resume, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	var res database.Resume
	if err := h.db.WithContext(c.Request.Context()).Where("slug = ?", c.Param("slug")).First(&res).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
		} else {
			Internal(c, "internal error")
		}
		return nil, false
	}
	if res.OwnerID != userID {
		Forbidden(c, "not your resume")
		return nil, false
	}
	return &res, true
}

func assetPrefix(resumeID uint) string {
	return fmt.Sprintf("resume-assets/%d/", resumeID)
}
