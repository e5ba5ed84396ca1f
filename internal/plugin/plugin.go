package plugin

import (
	"fmt"
	"html/template"

	"resumekit/internal/database"
)

// Kind 标记插件的两种数据形态。
type Kind string

const (
	KindSimple Kind = "simple"
	KindList   Kind = "list"
)

// Templates 描述插件各渲染角色对应的模板。内建插件引用嵌入模板文件名；
// 数据库插件在 Source 中携带已解析的字符串模板。
type Templates struct {
	Main     string
	Form     string
	Flat     string
	FlatForm string
	Item     string
	ItemForm string

	Source *StringTemplates
}

// StringTemplates 保存由数据库行文本解析出的模板对象。
type StringTemplates struct {
	Main *template.Template
	Form *template.Template
}

// Plugin 是所有插件形态共享的契约。Simple 与 List 通过 Kind 做显式分派，
// 不依赖属性探测。
type Plugin interface {
	Name() string
	VerboseName() string
	Kind() Kind
	Templates() Templates
	// GetData 返回该插件在指定简历下的完整数据子树。
	GetData(r *database.Resume) map[string]any
}

// ContextBuilder 产出渲染上下文；两种插件形态都实现它。
type ContextBuilder interface {
	GetContext(r *database.Resume, base map[string]any, edit bool) map[string]any
}

// ListCapable 是集合插件在通用契约之上的扩展操作。
type ListCapable interface {
	Plugin
	ListData() ListData
	ItemForm(existing []map[string]any) *ListItemForm
	FlatForm() *Form
	ItemFields() []Field
	FlatFields() []Field
}

// URLSet 为一个（简历, 插件）组合计算行内编辑相关的地址。
type URLSet struct {
	Slug   string
	Plugin string
}

// InlineURLs 返回指向行内编辑端点的地址集合。
func InlineURLs(slug, pluginName string) URLSet {
	return URLSet{Slug: slug, Plugin: pluginName}
}

func (u URLSet) base() string {
	return fmt.Sprintf("/v1/resumes/%s/plugins/%s", u.Slug, u.Plugin)
}

func (u URLSet) Show() string                { return u.base() }
func (u URLSet) Edit() string                { return u.base() + "/edit" }
func (u URLSet) FlatEdit() string            { return u.base() + "/flat/edit" }
func (u URLSet) ItemNew() string             { return u.base() + "/items/new" }
func (u URLSet) ItemSave() string            { return u.base() + "/items" }
func (u URLSet) ItemEdit(id string) string   { return u.base() + "/items/" + id + "/edit" }
func (u URLSet) ItemDelete(id string) string { return u.base() + "/items/" + id + "/delete" }

// SimplePlugin 是单记录插件：整个子树就是一个扁平对象，
// 创建与更新是同一个操作。
type SimplePlugin struct {
	name    string
	verbose string
	fields  []Field
	tmpl    Templates
	data    SimpleData
}

// NewSimplePlugin 构造单记录插件。
func NewSimplePlugin(name, verbose string, fields []Field, tmpl Templates) *SimplePlugin {
	return &SimplePlugin{
		name:    name,
		verbose: verbose,
		fields:  fields,
		tmpl:    tmpl,
		data:    NewSimpleData(name),
	}
}

func (p *SimplePlugin) Name() string         { return p.name }
func (p *SimplePlugin) VerboseName() string  { return p.verbose }
func (p *SimplePlugin) Kind() Kind           { return KindSimple }
func (p *SimplePlugin) Templates() Templates { return p.tmpl }
func (p *SimplePlugin) Fields() []Field      { return p.fields }

// Data 返回该插件的数据访问器。
func (p *SimplePlugin) Data() SimpleData { return p.data }

// GetData 实现 Plugin 契约。
func (p *SimplePlugin) GetData(r *database.Resume) map[string]any {
	return p.data.Get(r)
}

// Form 返回行内与后台共用的编辑表单。
func (p *SimplePlugin) Form() *Form {
	return NewForm(p.fields)
}

// GetContext 把存储数据合并进调用方给的渲染上下文：
// 字段缺失时落到声明的默认值，保证零数据的插件也渲染出完整区块。
func (p *SimplePlugin) GetContext(r *database.Resume, base map[string]any, edit bool) map[string]any {
	ctx := copyContext(base)
	stored := p.data.Get(r)
	for _, field := range p.fields {
		if v, ok := stored[field.Name]; ok {
			ctx[field.Name] = v
		} else {
			ctx[field.Name] = field.Initial
		}
	}

	urls := InlineURLs(r.Slug, p.name)
	ctx["plugin_name"] = p.name
	ctx["edit_url"] = urls.Edit()
	ctx["show_edit_button"] = edit
	ctx["templates"] = p.tmpl
	return ctx
}

// ListPlugin 是有序集合插件：条目列表加一份区块级 flat 元数据。
type ListPlugin struct {
	name       string
	verbose    string
	itemFields []Field
	flatFields []Field
	tmpl       Templates
	data       ListData
}

// NewListPlugin 构造集合插件。
func NewListPlugin(name, verbose string, itemFields, flatFields []Field, tmpl Templates) *ListPlugin {
	return &ListPlugin{
		name:       name,
		verbose:    verbose,
		itemFields: itemFields,
		flatFields: flatFields,
		tmpl:       tmpl,
		data:       NewListData(name),
	}
}

func (p *ListPlugin) Name() string         { return p.name }
func (p *ListPlugin) VerboseName() string  { return p.verbose }
func (p *ListPlugin) Kind() Kind           { return KindList }
func (p *ListPlugin) Templates() Templates { return p.tmpl }
func (p *ListPlugin) ItemFields() []Field  { return p.itemFields }
func (p *ListPlugin) FlatFields() []Field  { return p.flatFields }

// ListData 返回该插件的数据访问器。
func (p *ListPlugin) ListData() ListData { return p.data }

// GetData 实现 Plugin 契约。
func (p *ListPlugin) GetData(r *database.Resume) map[string]any {
	return map[string]any{
		"items": p.data.Items(r),
		"flat":  p.data.Flat(r),
	}
}

// ItemForm 返回条目编辑表单；existing 用于 position 默认值与唯一性校验。
func (p *ListPlugin) ItemForm(existing []map[string]any) *ListItemForm {
	return NewListItemForm(p.itemFields, existing)
}

// FlatForm 返回区块元数据的编辑表单。
func (p *ListPlugin) FlatForm() *Form {
	return NewForm(p.flatFields)
}

// GetContext 组装集合插件的渲染上下文：按 position 排好序的 entries、
// 各自的编辑/删除地址（仅编辑态）、以及带独立编辑地址的 flat 数据。
func (p *ListPlugin) GetContext(r *database.Resume, base map[string]any, edit bool) map[string]any {
	ctx := copyContext(base)
	urls := InlineURLs(r.Slug, p.name)

	entries := make([]map[string]any, 0)
	for _, item := range ItemsOrderedByPosition(p.data.Items(r), false) {
		entry := copyContext(item)
		if edit {
			id, _ := item["id"].(string)
			entry["edit_url"] = urls.ItemEdit(id)
			entry["delete_url"] = urls.ItemDelete(id)
		}
		entries = append(entries, entry)
	}

	flat := copyContext(p.data.Flat(r))
	for _, field := range p.flatFields {
		if _, ok := flat[field.Name]; !ok {
			flat[field.Name] = field.Initial
		}
	}
	flat["edit_flat_url"] = urls.FlatEdit()

	ctx["plugin_name"] = p.name
	ctx["entries"] = entries
	ctx["flat"] = flat
	ctx["add_item_url"] = urls.ItemNew()
	ctx["show_edit_button"] = edit
	ctx["templates"] = p.tmpl
	return ctx
}

func copyContext(base map[string]any) map[string]any {
	ctx := make(map[string]any, len(base)+8)
	for k, v := range base {
		ctx[k] = v
	}
	return ctx
}
