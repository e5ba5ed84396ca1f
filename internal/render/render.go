package render

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"resumekit/internal/markdown"
	"resumekit/internal/plugin"
)

//go:embed templates/*.html
var files embed.FS

// Renderer 负责把插件上下文渲染成 HTML 片段。内建插件使用嵌入的模板文件，
// 数据库插件使用行内携带的字符串模板。
type Renderer struct {
	root *template.Template
}

var funcMap = template.FuncMap{
	"joinBadges": joinBadges,
	"richtext":   markdown.ToHTML,
}

// New 解析全部嵌入模板并返回渲染器。
func New() (*Renderer, error) {
	root, err := template.New("resumekit").Funcs(funcMap).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded templates: %w", err)
	}
	return &Renderer{root: root}, nil
}

// MustNew 与 New 相同，失败时 panic，用于启动期。
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Fragment 按模板文件名渲染片段。
func (r *Renderer) Fragment(name string, ctx any) (string, error) {
	var sb strings.Builder
	if err := r.root.ExecuteTemplate(&sb, name, ctx); err != nil {
		return "", fmt.Errorf("render fragment %q: %w", name, err)
	}
	return sb.String(), nil
}

// 渲染角色：同一个插件在不同请求里需要不同的片段。
const (
	RoleMain     = "main"
	RoleForm     = "form"
	RoleFlat     = "flat"
	RoleFlatForm = "flat_form"
	RoleItem     = "item"
	RoleItemForm = "item_form"
)

// Role 按角色渲染插件片段，优先使用字符串模板（数据库插件）。
func (r *Renderer) Role(tmpl plugin.Templates, role string, ctx any) (string, error) {
	if tmpl.Source != nil {
		return renderStringTemplate(tmpl.Source, role, ctx)
	}

	var name string
	switch role {
	case RoleMain:
		name = tmpl.Main
	case RoleForm:
		name = tmpl.Form
	case RoleFlat:
		name = tmpl.Flat
	case RoleFlatForm:
		name = tmpl.FlatForm
	case RoleItem:
		name = tmpl.Item
	case RoleItemForm:
		name = tmpl.ItemForm
	}
	if name == "" {
		return "", fmt.Errorf("plugin declares no template for role %q", role)
	}
	return r.Fragment(name, ctx)
}

func renderStringTemplate(source *plugin.StringTemplates, role string, ctx any) (string, error) {
	var t *template.Template
	switch role {
	case RoleMain, RoleFlat, RoleItem:
		t = source.Main
	default:
		t = source.Form
	}
	if t == nil {
		return "", fmt.Errorf("plugin has no string template for role %q", role)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, ctx); err != nil {
		return "", fmt.Errorf("render string template (%s): %w", role, err)
	}
	return sb.String(), nil
}

func joinBadges(v any) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, fmt.Sprint(e))
		}
		return strings.Join(parts, ", ")
	case string:
		return t
	default:
		return ""
	}
}
