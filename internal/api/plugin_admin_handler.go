package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumekit/internal/api/middleware"
	"resumekit/internal/database"
	"resumekit/internal/errcode"
	"resumekit/internal/plugin"
)

// PluginAdminHandler 管理数据库定义的插件行。每次变更后都重载注册表，
// 并向 redis 发布重载信号让其它进程与已连接的页面跟进。
type PluginAdminHandler struct {
	db            *gorm.DB
	registry      *plugin.Registry
	redis         redis.UniversalClient
	logger        *slog.Logger
	reloadChannel string
}

// NewPluginAdminHandler 构造 PluginAdminHandler。
func NewPluginAdminHandler(db *gorm.DB, registry *plugin.Registry, redisClient redis.UniversalClient, logger *slog.Logger, reloadChannel string) *PluginAdminHandler {
	return &PluginAdminHandler{
		db:            db,
		registry:      registry,
		redis:         redisClient,
		logger:        logger,
		reloadChannel: reloadChannel,
	}
}

type pluginRowRequest struct {
	Name            string `json:"name" binding:"required,max=255"`
	GeneratorModel  string `json:"generator_model"`
	Prompt          string `json:"prompt"`
	Schema          string `json:"schema" binding:"required"`
	ContentTemplate string `json:"content_template" binding:"required"`
	FormTemplate    string `json:"form_template"`
	IsActive        bool   `json:"is_active"`
}

type pluginRowResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	GeneratorModel string    `json:"generator_model,omitempty"`
	Prompt         string    `json:"prompt,omitempty"`
	Schema         string    `json:"schema"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newPluginRowResponse(row database.Plugin) pluginRowResponse {
	return pluginRowResponse{
		ID:             row.ID,
		Name:           row.Name,
		GeneratorModel: row.GeneratorModel,
		Prompt:         row.Prompt,
		Schema:         row.Schema,
		IsActive:       row.IsActive,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

// ListRows 返回全部插件行。
func (h *PluginAdminHandler) ListRows(c *gin.Context) {
	var rows []database.Plugin
	if err := h.db.WithContext(c.Request.Context()).Order("id").Find(&rows).Error; err != nil {
		Internal(c, "failed to list plugins")
		return
	}

	items := make([]pluginRowResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, newPluginRowResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateRow 新建插件行。行先试编译一次，编译不过直接拒绝，
// 不往表里塞一条注定被跳过的行。
func (h *PluginAdminHandler) CreateRow(c *gin.Context) {
	var req pluginRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	row := database.Plugin{
		Name:            strings.TrimSpace(req.Name),
		GeneratorModel:  req.GeneratorModel,
		Prompt:          req.Prompt,
		Schema:          req.Schema,
		ContentTemplate: req.ContentTemplate,
		FormTemplate:    req.FormTemplate,
		IsActive:        req.IsActive,
	}

	if _, err := plugin.CompilePluginRow(row); err != nil {
		ErrorWithCode(c, http.StatusBadRequest, err.Error(), errcode.PluginRowBroken)
		return
	}
	if _, taken := h.registry.Get(row.Name); taken {
		Conflict(c, "plugin name already registered")
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		middleware.LoggerFromContext(c).Error("create plugin row failed", slog.Any("error", err))
		Internal(c, "failed to create plugin")
		return
	}

	h.reloadAndNotify(ctx, c)
	c.JSON(http.StatusCreated, newPluginRowResponse(row))
}

// UpdateRow 更新插件行；停用（is_active=false）让插件地址立即变成 404。
func (h *PluginAdminHandler) UpdateRow(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid plugin id")
		return
	}

	var req pluginRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var row database.Plugin
	if err := h.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "plugin not found")
		} else {
			Internal(c, "internal error")
		}
		return
	}

	row.Name = strings.TrimSpace(req.Name)
	row.GeneratorModel = req.GeneratorModel
	row.Prompt = req.Prompt
	row.Schema = req.Schema
	row.ContentTemplate = req.ContentTemplate
	row.FormTemplate = req.FormTemplate
	row.IsActive = req.IsActive

	if _, err := plugin.CompilePluginRow(row); err != nil {
		ErrorWithCode(c, http.StatusBadRequest, err.Error(), errcode.PluginRowBroken)
		return
	}

	if err := h.db.WithContext(ctx).Save(&row).Error; err != nil {
		middleware.LoggerFromContext(c).Error("update plugin row failed", slog.Any("error", err))
		Internal(c, "failed to update plugin")
		return
	}

	h.reloadAndNotify(ctx, c)
	c.JSON(http.StatusOK, newPluginRowResponse(row))
}

// DeleteRow 删除插件行。各简历里残留的数据交给后台清理任务处理。
func (h *PluginAdminHandler) DeleteRow(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid plugin id")
		return
	}

	ctx := c.Request.Context()
	result := h.db.WithContext(ctx).Delete(&database.Plugin{}, id)
	if result.Error != nil {
		Internal(c, "failed to delete plugin")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "plugin not found")
		return
	}

	h.reloadAndNotify(ctx, c)
	c.Status(http.StatusNoContent)
}

// Reload 手动触发一次重载，用于外部直接改库之后。
func (h *PluginAdminHandler) Reload(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.registry.ReloadDBPlugins(ctx, h.db); err != nil {
		Internal(c, "reload failed")
		return
	}
	h.publishReload(ctx, c)
	c.JSON(http.StatusOK, gin.H{"plugins": len(h.registry.DBPlugins())})
}

func (h *PluginAdminHandler) reloadAndNotify(ctx context.Context, c *gin.Context) {
	if err := h.registry.ReloadDBPlugins(ctx, h.db); err != nil {
		middleware.LoggerFromContext(c).Error("reload db plugins failed", slog.Any("error", err))
		return
	}
	h.publishReload(ctx, c)
}

func (h *PluginAdminHandler) publishReload(ctx context.Context, c *gin.Context) {
	if h.redis == nil || h.reloadChannel == "" {
		return
	}
	if err := h.redis.Publish(ctx, h.reloadChannel, "reload").Err(); err != nil {
		middleware.LoggerFromContext(c).Warn("publish reload signal failed", slog.Any("error", err))
	}
}
