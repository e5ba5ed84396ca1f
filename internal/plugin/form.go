package plugin

import (
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
)

// FieldKind 描述字段的输入控件与清洗规则。
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldURL      FieldKind = "url"
	FieldEmail    FieldKind = "email"
	FieldInteger  FieldKind = "integer"
	FieldHidden   FieldKind = "hidden"
	// FieldBadges 接收逗号分隔文本，清洗为字符串列表，展示时再拼回文本。
	FieldBadges FieldKind = "badges"
)

// Field 声明一个表单字段。Initial 是空状态下的默认值：
// 没有任何数据的插件也要能渲染出一个可编辑的完整区块。
type Field struct {
	Name      string
	Label     string
	Kind      FieldKind
	Required  bool
	MaxLength int
	Initial   any
}

// CleanFunc 是字段级的自定义清洗钩子，返回错误则记为该字段的校验错误。
type CleanFunc func(f *Form, value any) (any, error)

// Form 将一组字段声明绑定到提交数据上，产出 JSON 可序列化的清洗结果。
// 校验失败不会产生 Go error：错误挂在 Errors 上，由表单片段展示给用户。
type Form struct {
	Fields  []Field
	Initial map[string]any
	Cleaned map[string]any
	Errors  map[string][]string

	cleanHooks map[string]CleanFunc
	// 最近一次 Bind 的原始提交值。清洗钩子跨字段取值时用它，
	// 不依赖字段声明顺序。
	bound url.Values
}

// NewForm 构造表单并以字段声明的 Initial 值填充初始数据。
func NewForm(fields []Field) *Form {
	f := &Form{
		Fields:     fields,
		Initial:    map[string]any{},
		Cleaned:    map[string]any{},
		Errors:     map[string][]string{},
		cleanHooks: map[string]CleanFunc{},
	}
	for _, field := range fields {
		if field.Initial != nil {
			f.Initial[field.Name] = field.Initial
		}
	}
	return f
}

// AddCleanHook 注册字段级清洗钩子，在内建清洗之后执行。
func (f *Form) AddCleanHook(field string, hook CleanFunc) {
	f.cleanHooks[field] = hook
}

// SetInitial 用已存储的数据覆盖字段默认值，作为编辑表单的起始状态。
func (f *Form) SetInitial(data map[string]any) {
	for k, v := range data {
		f.Initial[k] = v
	}
}

// Bind 绑定提交数据并执行清洗，返回表单是否有效。
func (f *Form) Bind(values url.Values) bool {
	f.bound = values
	f.Cleaned = map[string]any{}
	f.Errors = map[string][]string{}

	for _, field := range f.Fields {
		raw := strings.TrimSpace(values.Get(field.Name))
		if raw != "" {
			// 回填提交值，校验失败时表单片段按原样回显
			f.Initial[field.Name] = raw
		}
		cleaned, err := f.cleanField(field, raw)
		if err != nil {
			f.AddError(field.Name, err.Error())
			continue
		}
		if hook, ok := f.cleanHooks[field.Name]; ok {
			cleaned, err = hook(f, cleaned)
			if err != nil {
				f.AddError(field.Name, err.Error())
				continue
			}
		}
		f.Cleaned[field.Name] = cleaned
	}

	return f.IsValid()
}

func (f *Form) cleanField(field Field, raw string) (any, error) {
	if raw == "" {
		if field.Required {
			return nil, fmt.Errorf("this field is required")
		}
		return f.emptyValue(field), nil
	}
	if field.MaxLength > 0 && len([]rune(raw)) > field.MaxLength {
		return nil, fmt.Errorf("ensure this value has at most %d characters (it has %d)", field.MaxLength, len([]rune(raw)))
	}

	switch field.Kind {
	case FieldURL:
		return cleanURL(raw)
	case FieldEmail:
		if _, err := mail.ParseAddress(raw); err != nil {
			return nil, fmt.Errorf("enter a valid email address")
		}
		return raw, nil
	case FieldInteger:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("enter a whole number")
		}
		return n, nil
	case FieldBadges:
		return splitBadges(raw), nil
	default:
		return raw, nil
	}
}

func (f *Form) emptyValue(field Field) any {
	if v, ok := f.Initial[field.Name]; ok {
		return v
	}
	switch field.Kind {
	case FieldInteger:
		return 0
	case FieldBadges:
		return []string{}
	default:
		return ""
	}
}

// AddError 记录一条字段级错误。
func (f *Form) AddError(field, msg string) {
	f.Errors[field] = append(f.Errors[field], msg)
}

// IsValid 报告最近一次 Bind 是否通过全部校验。
func (f *Form) IsValid() bool {
	return len(f.Errors) == 0
}

// Value 返回字段的清洗值。
func (f *Form) Value(name string) any {
	return f.Cleaned[name]
}

// InitialValue 返回字段的初始值（已存数据优先，否则取声明默认值）。
func (f *Form) InitialValue(name string) any {
	return f.Initial[name]
}

// DisplayValue 返回字段初始值的文本形态，供表单控件回填。
// badges 列表在这里被拼回逗号分隔文本。
func (f *Form) DisplayValue(name string) string {
	v, ok := f.Initial[name]
	if !ok {
		return ""
	}
	return displayString(v)
}

func displayString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ",")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, fmt.Sprint(e))
		}
		return strings.Join(parts, ",")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// cleanURL 在缺少 scheme 时默认为 https，并要求解析出主机名。
func cleanURL(raw string) (string, error) {
	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("enter a valid url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("enter a valid url")
	}
	return u.String(), nil
}

func splitBadges(raw string) []string {
	parts := strings.Split(raw, ",")
	badges := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			badges = append(badges, trimmed)
		}
	}
	return badges
}

// ListItemForm 在普通表单之上追加集合条目的身份与排序规则：
// 隐藏的 id 字段、默认取 max+1 的 position 字段、以及兄弟间的
// position 唯一性校验。
type ListItemForm struct {
	*Form
	ExistingItems []map[string]any
}

// NewListItemForm 构造条目表单。fields 中未声明 id/position 时自动补上。
func NewListItemForm(fields []Field, existing []map[string]any) *ListItemForm {
	declared := map[string]bool{}
	for _, field := range fields {
		declared[field.Name] = true
	}
	if !declared["id"] {
		fields = append(fields, Field{Name: "id", Kind: FieldHidden})
	}
	if !declared["position"] {
		fields = append(fields, Field{Name: "position", Kind: FieldInteger})
	}

	form := &ListItemForm{
		Form:          NewForm(fields),
		ExistingItems: existing,
	}
	// 新条目的默认 position 在表单构造时求值，保证追加排在末尾。
	if _, ok := form.Initial["position"]; !ok {
		form.Initial["position"] = MaxPosition(existing) + 1
	}
	form.AddCleanHook("position", func(f *Form, value any) (any, error) {
		return form.cleanPosition(value)
	})
	return form
}

// SetInitial 覆盖初始数据；显式给定的 position 优先于 max+1 默认值。
func (f *ListItemForm) SetInitial(data map[string]any) {
	f.Form.SetInitial(data)
}

// coercePosition 把 position 的各种运行时形态统一成 int。
func coercePosition(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// MaxPosition 返回现有条目中最大的 position；列表为空时返回 -1。
func MaxPosition(items []map[string]any) int {
	maxPos := -1
	for _, item := range items {
		if p := PositionOf(item); p > maxPos {
			maxPos = p
		}
	}
	return maxPos
}

func (f *ListItemForm) cleanPosition(value any) (any, error) {
	// 空提交落回已存数据的 position，JSON 反序列化后是 float64
	position := coercePosition(value)
	if position < 0 {
		return nil, fmt.Errorf("position must be a positive integer")
	}

	// id 可能声明在 position 之后、尚未进入 Cleaned，统一从提交值取
	ownID := strings.TrimSpace(f.bound.Get("id"))
	for _, item := range f.ExistingItems {
		if ownID != "" && item["id"] == ownID {
			// 更新已有条目时跳过它自己占用的 position
			continue
		}
		if PositionOf(item) == position {
			next := MaxPosition(f.ExistingItems) + 1
			return nil, fmt.Errorf("position must be unique - take %d instead", next)
		}
	}
	return position, nil
}
