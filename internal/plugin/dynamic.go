package plugin

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"resumekit/internal/database"
)

// 数据库插件是声明式的：行里存的是字段定义（Schema）与模板源码，
// 由固定的表单引擎和模板引擎解释执行。行内容永远不会被当作代码运行，
// 这是这条加载路径的信任边界。

// Schema 是 Plugin 行中 schema 列的结构。
type Schema struct {
	Kind        Kind          `json:"kind"`
	VerboseName string        `json:"verbose_name"`
	Fields      []SchemaField `json:"fields"`
	FlatFields  []SchemaField `json:"flat_fields,omitempty"`
}

// SchemaField 声明一个字段，与 Field 一一对应。
type SchemaField struct {
	Name      string    `json:"name"`
	Label     string    `json:"label,omitempty"`
	Kind      FieldKind `json:"kind"`
	Required  bool      `json:"required,omitempty"`
	MaxLength int       `json:"max_length,omitempty"`
	Initial   any       `json:"initial,omitempty"`
}

var validFieldKinds = map[FieldKind]bool{
	FieldText:     true,
	FieldTextarea: true,
	FieldURL:      true,
	FieldEmail:    true,
	FieldInteger:  true,
	FieldHidden:   true,
	FieldBadges:   true,
}

// CompilePluginRow 把一条数据库插件行编译为活的插件实例。
// 任何一处不合法（名字、schema、字段、模板源码）都返回错误，
// 由重载流程决定跳过该行。
func CompilePluginRow(row database.Plugin) (Plugin, error) {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		return nil, fmt.Errorf("plugin row %d has no name", row.ID)
	}
	if name != strings.ToLower(name) || strings.ContainsAny(name, " /") {
		return nil, fmt.Errorf("plugin name %q must be a lowercase machine key", name)
	}

	var schema Schema
	if err := json.Unmarshal([]byte(row.Schema), &schema); err != nil {
		return nil, fmt.Errorf("parse schema for %q: %w", name, err)
	}

	switch schema.Kind {
	case KindSimple, KindList:
	default:
		return nil, fmt.Errorf("plugin %q has unknown kind %q", name, schema.Kind)
	}
	if len(schema.Fields) == 0 {
		return nil, fmt.Errorf("plugin %q declares no fields", name)
	}

	fields, err := compileFields(name, schema.Fields)
	if err != nil {
		return nil, err
	}

	verbose := schema.VerboseName
	if verbose == "" {
		verbose = name
	}

	tmpl, err := compileTemplates(name, row)
	if err != nil {
		return nil, err
	}

	if schema.Kind == KindSimple {
		return NewSimplePlugin(name, verbose, fields, tmpl), nil
	}

	flatFields, err := compileFields(name, schema.FlatFields)
	if err != nil {
		return nil, err
	}
	return NewListPlugin(name, verbose, fields, flatFields, tmpl), nil
}

func compileFields(pluginName string, declared []SchemaField) ([]Field, error) {
	fields := make([]Field, 0, len(declared))
	seen := map[string]bool{}
	for _, sf := range declared {
		fieldName := strings.TrimSpace(sf.Name)
		if fieldName == "" {
			return nil, fmt.Errorf("plugin %q declares a field with no name", pluginName)
		}
		if seen[fieldName] {
			return nil, fmt.Errorf("plugin %q declares field %q twice", pluginName, fieldName)
		}
		seen[fieldName] = true

		kind := sf.Kind
		if kind == "" {
			kind = FieldText
		}
		if !validFieldKinds[kind] {
			return nil, fmt.Errorf("plugin %q field %q has unknown kind %q", pluginName, fieldName, kind)
		}

		fields = append(fields, Field{
			Name:      fieldName,
			Label:     sf.Label,
			Kind:      kind,
			Required:  sf.Required,
			MaxLength: sf.MaxLength,
			Initial:   sf.Initial,
		})
	}
	return fields, nil
}

func compileTemplates(name string, row database.Plugin) (Templates, error) {
	if strings.TrimSpace(row.ContentTemplate) == "" {
		return Templates{}, fmt.Errorf("plugin %q has no content template", name)
	}
	main, err := template.New(name + "/content").Parse(row.ContentTemplate)
	if err != nil {
		return Templates{}, fmt.Errorf("parse content template for %q: %w", name, err)
	}

	source := &StringTemplates{Main: main}
	if strings.TrimSpace(row.FormTemplate) != "" {
		form, err := template.New(name + "/form").Parse(row.FormTemplate)
		if err != nil {
			return Templates{}, fmt.Errorf("parse form template for %q: %w", name, err)
		}
		source.Form = form
	}

	return Templates{Source: source}, nil
}
