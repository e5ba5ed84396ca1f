package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumekit/internal/api/middleware"
	"resumekit/internal/database"
	"resumekit/internal/plugin"
	"resumekit/internal/render"
)

// AdminHandler 是 staff 用的整页编辑视图：一个插件在一份简历上的全部
// 数据（区块元数据加所有条目）集中在一页提交。与行内编辑共用同一套
// 数据访问器，所以两条路径的持久化行为完全一致。
type AdminHandler struct {
	db       *gorm.DB
	registry *plugin.Registry
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewAdminHandler 构造 AdminHandler。
func NewAdminHandler(db *gorm.DB, registry *plugin.Registry, renderer *render.Renderer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		db:       db,
		registry: registry,
		renderer: renderer,
		logger:   logger,
	}
}

func adminURLBase(slug, pluginName string) string {
	return "/admin/resumes/" + slug + "/plugins/" + pluginName
}

// resolve 加载简历与插件。staff 不受属主限制。
func (h *AdminHandler) resolve(c *gin.Context) (*database.Resume, plugin.Plugin, bool) {
	var res database.Resume
	if err := h.db.WithContext(c.Request.Context()).Where("slug = ?", c.Param("slug")).First(&res).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
		} else {
			Internal(c, "internal error")
		}
		return nil, nil, false
	}

	p, ok := h.registry.Get(c.Param("plugin"))
	if !ok {
		NotFound(c, "plugin not found")
		return nil, nil, false
	}
	return &res, p, true
}

// ChangeView 渲染整页编辑视图。单记录插件给一张表单；集合插件给
// 区块表单、每个条目一张表单、外加一张新建表单。
func (h *AdminHandler) ChangeView(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}

	base := adminURLBase(res.Slug, p.Name())
	ctx := map[string]any{
		"plugin_name":  p.Name(),
		"verbose_name": p.VerboseName(),
	}

	switch tp := p.(type) {
	case *plugin.SimplePlugin:
		form := tp.Form()
		form.SetInitial(tp.Data().Get(res))
		ctx["flat_form"] = map[string]any{
			"plugin_name": p.Name(),
			"form":        form,
			"post_url":    base + "/section",
		}
	case plugin.ListCapable:
		flatForm := tp.FlatForm()
		flatForm.SetInitial(tp.ListData().Flat(res))
		ctx["flat_form"] = map[string]any{
			"plugin_name": p.Name(),
			"form":        flatForm,
			"post_url":    base + "/section",
		}

		items := plugin.ItemsOrderedByPosition(tp.ListData().Items(res), false)
		itemForms := make([]map[string]any, 0, len(items))
		for _, item := range items {
			form := tp.ItemForm(items)
			form.SetInitial(item)
			itemForms = append(itemForms, map[string]any{
				"plugin_name": p.Name(),
				"form":        form,
				"post_url":    base + "/items",
			})
		}
		ctx["item_forms"] = itemForms
		ctx["add_form"] = map[string]any{
			"plugin_name": p.Name(),
			"form":        tp.ItemForm(items),
			"post_url":    base + "/items",
		}
	}

	body, err := h.renderer.Fragment("admin_change.html", ctx)
	if err != nil {
		middleware.LoggerFromContext(c).Error("render admin change view failed", slog.Any("error", err))
		Internal(c, "render failed")
		return
	}
	HTML(c, http.StatusOK, body)
}

// SectionSave 保存区块级数据：单记录插件的整条记录，或集合插件的 flat。
func (h *AdminHandler) SectionSave(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		BadRequest(c, "invalid form payload")
		return
	}

	base := adminURLBase(res.Slug, p.Name())

	var form *plugin.Form
	persist := func() error { return nil }

	switch tp := p.(type) {
	case *plugin.SimplePlugin:
		form = tp.Form()
		form.SetInitial(tp.Data().Get(res))
		persist = func() error {
			tp.Data().Set(res, form.Cleaned)
			return database.SavePluginData(c.Request.Context(), h.db, res.ID, p.Name(), form.Cleaned)
		}
	case plugin.ListCapable:
		form = tp.FlatForm()
		form.SetInitial(tp.ListData().Flat(res))
		persist = func() error {
			tp.ListData().SetFlat(res, form.Cleaned)
			return database.SavePluginData(c.Request.Context(), h.db, res.ID, p.Name(), tp.ListData().Subtree(res))
		}
	default:
		NotFound(c, "plugin has no section form")
		return
	}

	status := http.StatusOK
	if !form.Bind(c.Request.PostForm) {
		status = http.StatusUnprocessableEntity
	} else if err := persist(); err != nil {
		middleware.LoggerFromContext(c).Error("admin save failed", slog.String("plugin", p.Name()), slog.Any("error", err))
		Internal(c, "save failed")
		return
	}

	body, err := h.renderer.Fragment("form.html", map[string]any{
		"plugin_name": p.Name(),
		"form":        form,
		"post_url":    base + "/section",
	})
	if err != nil {
		Internal(c, "render failed")
		return
	}
	HTML(c, status, body)
}

// ItemSave 新建或更新一个条目，语义与行内编辑一致。
func (h *AdminHandler) ItemSave(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}
	lp, ok := p.(plugin.ListCapable)
	if !ok {
		NotFound(c, "plugin has no items")
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		BadRequest(c, "invalid form payload")
		return
	}

	base := adminURLBase(res.Slug, p.Name())
	ld := lp.ListData()
	form := lp.ItemForm(ld.Items(res))

	if !form.Bind(c.Request.PostForm) {
		body, err := h.renderer.Fragment("item_form.html", map[string]any{
			"plugin_name": p.Name(),
			"form":        form,
			"post_url":    base + "/items",
		})
		if err != nil {
			Internal(c, "render failed")
			return
		}
		HTML(c, http.StatusUnprocessableEntity, body)
		return
	}

	item := form.Cleaned
	if id, _ := item["id"].(string); id == "" {
		item = ld.CreateItem(res, item)
	} else if !ld.UpdateItem(res, item) {
		NotFound(c, "item not found")
		return
	}

	if err := database.SavePluginData(c.Request.Context(), h.db, res.ID, p.Name(), ld.Subtree(res)); err != nil {
		middleware.LoggerFromContext(c).Error("admin save failed", slog.String("plugin", p.Name()), slog.Any("error", err))
		Internal(c, "save failed")
		return
	}

	saved := lp.ItemForm(ld.Items(res))
	saved.SetInitial(item)
	body, err := h.renderer.Fragment("item_form.html", map[string]any{
		"plugin_name": p.Name(),
		"form":        saved,
		"post_url":    base + "/items",
	})
	if err != nil {
		Internal(c, "render failed")
		return
	}
	HTML(c, http.StatusOK, body)
}

// ItemDelete 删除一个条目。
func (h *AdminHandler) ItemDelete(c *gin.Context) {
	res, p, ok := h.resolve(c)
	if !ok {
		return
	}
	lp, ok := p.(plugin.ListCapable)
	if !ok {
		NotFound(c, "plugin has no items")
		return
	}

	ld := lp.ListData()
	if !ld.DeleteItem(res, c.Param("item")) {
		NotFound(c, "item not found")
		return
	}
	if err := database.SavePluginData(c.Request.Context(), h.db, res.ID, p.Name(), ld.Subtree(res)); err != nil {
		middleware.LoggerFromContext(c).Error("admin delete failed", slog.String("plugin", p.Name()), slog.Any("error", err))
		Internal(c, "save failed")
		return
	}
	HTML(c, http.StatusOK, "")
}
