package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumekit/internal/api/middleware"
	"resumekit/internal/database"
	"resumekit/internal/plugin"
	"resumekit/internal/render"
)

// InlineHandler 承载页面内编辑循环：取表单、提交、回显错误或刷新片段。
// 所有端点都要求请求者是简历属主；插件名在注册表中查不到一律按 404 处理，
// 被停用的数据库插件因此自然消失。
type InlineHandler struct {
	db             *gorm.DB
	registry       *plugin.Registry
	renderer       *render.Renderer
	redis          redis.UniversalClient
	logger         *slog.Logger
	editRatePerMin int
}

// NewInlineHandler 构造行内编辑处理器。
func NewInlineHandler(db *gorm.DB, registry *plugin.Registry, renderer *render.Renderer, redisClient redis.UniversalClient, logger *slog.Logger, editRatePerMin int) *InlineHandler {
	return &InlineHandler{
		db:             db,
		registry:       registry,
		renderer:       renderer,
		redis:          redisClient,
		logger:         logger,
		editRatePerMin: editRatePerMin,
	}
}

// resolve 加载路径上的简历与插件并做属主校验。失败时已写好响应。
func (h *InlineHandler) resolve(c *gin.Context) (*database.Resume, plugin.Plugin, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, nil, false
	}

	slug := c.Param("slug")
	var res database.Resume
	if err := h.db.WithContext(c.Request.Context()).Where("slug = ?", slug).First(&res).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
		} else {
			Internal(c, "internal error")
		}
		return nil, nil, false
	}
	if res.OwnerID != userID {
		Forbidden(c, "not your resume")
		return nil, nil, false
	}

	pluginName := c.Param("plugin")
	p, ok := h.registry.Get(pluginName)
	if !ok {
		NotFound(c, "plugin not found")
		return nil, nil, false
	}
	return &res, p, true
}

// withinEditRate 对写操作做按用户分钟限速；0 表示不限。
func (h *InlineHandler) withinEditRate(c *gin.Context) bool {
	if h.editRatePerMin <= 0 || h.redis == nil {
		return true
	}
	userID, _ := userIDFromContext(c)
	key := "rate:edit:" + strconv.FormatUint(uint64(userID), 10) + ":" + time.Now().UTC().Format("200601021504")
	count, err := incrWithTTL(c.Request.Context(), h.redis, key, time.Minute)
	if err != nil {
		// Redis 不可用时放行，编辑功能不应依赖限速器存活
		return true
	}
	if count > int64(h.editRatePerMin) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return false
	}
	return true
}

// Show 返回插件在编辑态下的展示片段，编辑表单的取消按钮指向这里。
func (h *InlineHandler) Show(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}

	builder, ok := p.(plugin.ContextBuilder)
	if !ok {
		Internal(c, "plugin cannot render")
		return
	}

	role := render.RoleMain
	body, err := h.renderer.Role(p.Templates(), role, builder.GetContext(res, nil, true))
	if err != nil {
		h.loggerFromContext(c).Error("render plugin fragment failed", slog.String("plugin", p.Name()), slog.Any("error", err))
		Internal(c, "render failed")
		return
	}
	HTML(c, http.StatusOK, body)
}

// EditForm 返回单记录插件的编辑表单，已填入当前存储的数据。
func (h *InlineHandler) EditForm(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}
	sp, ok := p.(*plugin.SimplePlugin)
	if !ok {
		NotFound(c, "plugin has no section form")
		return
	}

	form := sp.Form()
	form.SetInitial(sp.Data().Get(res))

	urls := plugin.InlineURLs(res.Slug, p.Name())
	h.renderForm(c, http.StatusOK, p.Templates(), render.RoleForm, gin.H{
		"plugin_name": p.Name(),
		"form":        form,
		"post_url":    urls.Edit(),
		"cancel_url":  urls.Show(),
	})
}

// EditSave 校验并保存单记录插件的数据。校验失败时以 422 回表单片段，
// 成功后返回展示片段替换编辑区。
func (h *InlineHandler) EditSave(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}
	sp, ok := p.(*plugin.SimplePlugin)
	if !ok {
		NotFound(c, "plugin has no section form")
		return
	}
	if !h.withinEditRate(c) {
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		BadRequest(c, "invalid form payload")
		return
	}

	form := sp.Form()
	form.SetInitial(sp.Data().Get(res))
	urls := plugin.InlineURLs(res.Slug, p.Name())
	if !form.Bind(c.Request.PostForm) {
		h.renderForm(c, http.StatusUnprocessableEntity, p.Templates(), render.RoleForm, gin.H{
			"plugin_name": p.Name(),
			"form":        form,
			"post_url":    urls.Edit(),
			"cancel_url":  urls.Show(),
		})
		return
	}

	sp.Data().Set(res, form.Cleaned)
	if err := database.SavePluginData(c.Request.Context(), h.db, res.ID, p.Name(), form.Cleaned); err != nil {
		h.loggerFromContext(c).Error("save plugin data failed", slog.String("plugin", p.Name()), slog.Any("error", err))
		Internal(c, "save failed")
		return
	}

	body, err := h.renderer.Role(p.Templates(), render.RoleMain, sp.GetContext(res, nil, true))
	if err != nil {
		Internal(c, "render failed")
		return
	}
	HTML(c, http.StatusOK, body)
}

// FlatForm 返回集合插件区块元数据的编辑表单。
func (h *InlineHandler) FlatForm(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}
	lp, ok := p.(plugin.ListCapable)
	if !ok {
		NotFound(c, "plugin has no flat form")
		return
	}

	form := lp.FlatForm()
	form.SetInitial(lp.ListData().Flat(res))

	urls := plugin.InlineURLs(res.Slug, p.Name())
	h.renderForm(c, http.StatusOK, p.Templates(), render.RoleFlatForm, gin.H{
		"plugin_name": p.Name(),
		"form":        form,
		"post_url":    urls.FlatEdit(),
		"cancel_url":  urls.Show(),
	})
}

// FlatSave 保存集合插件的区块元数据，条目列表原样保留。
func (h *InlineHandler) FlatSave(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}
	lp, ok := p.(plugin.ListCapable)
	if !ok {
		NotFound(c, "plugin has no flat form")
		return
	}
	if !h.withinEditRate(c) {
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		BadRequest(c, "invalid form payload")
		return
	}

	form := lp.FlatForm()
	form.SetInitial(lp.ListData().Flat(res))
	urls := plugin.InlineURLs(res.Slug, p.Name())
	if !form.Bind(c.Request.PostForm) {
		h.renderForm(c, http.StatusUnprocessableEntity, p.Templates(), render.RoleFlatForm, gin.H{
			"plugin_name": p.Name(),
			"form":        form,
			"post_url":    urls.FlatEdit(),
			"cancel_url":  urls.Show(),
		})
		return
	}

	lp.ListData().SetFlat(res, form.Cleaned)
	if err := database.SavePluginData(c.Request.Context(), h.db, res.ID, p.Name(), lp.ListData().Subtree(res)); err != nil {
		h.loggerFromContext(c).Error("save plugin data failed", slog.String("plugin", p.Name()), slog.Any("error", err))
		Internal(c, "save failed")
		return
	}

	builder := p.(plugin.ContextBuilder)
	body, err := h.renderer.Role(p.Templates(), render.RoleFlat, builder.GetContext(res, nil, true))
	if err != nil {
		Internal(c, "render failed")
		return
	}
	HTML(c, http.StatusOK, body)
}

// ItemNewForm 返回一张空白条目表单；position 预填为当前最大值加一。
func (h *InlineHandler) ItemNewForm(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}
	lp, ok := p.(plugin.ListCapable)
	if !ok {
		NotFound(c, "plugin has no items")
		return
	}

	form := lp.ItemForm(lp.ListData().Items(res))
	urls := plugin.InlineURLs(res.Slug, p.Name())
	h.renderForm(c, http.StatusOK, p.Templates(), render.RoleItemForm, gin.H{
		"plugin_name": p.Name(),
		"form":        form,
		"post_url":    urls.ItemSave(),
	})
}

// ItemEditForm 返回指定条目的编辑表单；条目不存在时返回 404。
func (h *InlineHandler) ItemEditForm(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}
	lp, ok := p.(plugin.ListCapable)
	if !ok {
		NotFound(c, "plugin has no items")
		return
	}

	itemID := c.Param("item")
	items := lp.ListData().Items(res)
	var current map[string]any
	for _, item := range items {
		if item["id"] == itemID {
			current = item
			break
		}
	}
	if current == nil {
		NotFound(c, "item not found")
		return
	}

	form := lp.ItemForm(items)
	form.SetInitial(current)
	urls := plugin.InlineURLs(res.Slug, p.Name())
	h.renderForm(c, http.StatusOK, p.Templates(), render.RoleItemForm, gin.H{
		"plugin_name": p.Name(),
		"form":        form,
		"post_url":    urls.ItemSave(),
		"cancel_url":  urls.Show(),
	})
}

// ItemSave 保存条目：提交里没有 id 就新建，有 id 则更新。
// 更新目标已被删除时返回 404 而不是悄悄重建。
func (h *InlineHandler) ItemSave(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}
	lp, ok := p.(plugin.ListCapable)
	if !ok {
		NotFound(c, "plugin has no items")
		return
	}
	if !h.withinEditRate(c) {
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		BadRequest(c, "invalid form payload")
		return
	}

	ld := lp.ListData()
	form := lp.ItemForm(ld.Items(res))
	urls := plugin.InlineURLs(res.Slug, p.Name())
	if !form.Bind(c.Request.PostForm) {
		h.renderForm(c, http.StatusUnprocessableEntity, p.Templates(), render.RoleItemForm, gin.H{
			"plugin_name": p.Name(),
			"form":        form,
			"post_url":    urls.ItemSave(),
		})
		return
	}

	item := form.Cleaned
	itemID, _ := item["id"].(string)
	var saved map[string]any
	if itemID == "" {
		saved = ld.CreateItem(res, item)
	} else {
		if !ld.UpdateItem(res, item) {
			NotFound(c, "item not found")
			return
		}
		saved = item
	}

	if err := database.SavePluginData(c.Request.Context(), h.db, res.ID, p.Name(), ld.Subtree(res)); err != nil {
		h.loggerFromContext(c).Error("save plugin data failed", slog.String("plugin", p.Name()), slog.Any("error", err))
		Internal(c, "save failed")
		return
	}

	entry := make(map[string]any, len(saved)+2)
	for k, v := range saved {
		entry[k] = v
	}
	id, _ := saved["id"].(string)
	entry["edit_url"] = urls.ItemEdit(id)
	entry["delete_url"] = urls.ItemDelete(id)

	body, err := h.renderer.Role(p.Templates(), render.RoleItem, entry)
	if err != nil {
		Internal(c, "render failed")
		return
	}
	HTML(c, http.StatusOK, body)
}

// ItemDelete 删除指定条目；重复删除返回 404。
func (h *InlineHandler) ItemDelete(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}
	lp, ok := p.(plugin.ListCapable)
	if !ok {
		NotFound(c, "plugin has no items")
		return
	}
	if !h.withinEditRate(c) {
		return
	}

	ld := lp.ListData()
	if !ld.DeleteItem(res, c.Param("item")) {
		NotFound(c, "item not found")
		return
	}

	if err := database.SavePluginData(c.Request.Context(), h.db, res.ID, p.Name(), ld.Subtree(res)); err != nil {
		h.loggerFromContext(c).Error("save plugin data failed", slog.String("plugin", p.Name()), slog.Any("error", err))
		Internal(c, "save failed")
		return
	}

	HTML(c, http.StatusOK, "")
}

func (h *InlineHandler) renderForm(c *gin.Context, status int, tmpl plugin.Templates, role string, ctx gin.H) {
	body, err := h.renderer.Role(tmpl, role, map[string]any(ctx))
	if err != nil {
		h.loggerFromContext(c).Error("render form fragment failed", slog.Any("error", err))
		Internal(c, "render failed")
		return
	}
	HTML(c, status, body)
}

func (h *InlineHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
