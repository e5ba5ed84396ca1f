package plugin

import "resumekit/internal/database"

// ThemePluginName 供简历渲染时解析当前主题。
const ThemePluginName = "theme"

// DefaultTheme 是没有任何主题数据时的回退值。
const DefaultTheme = "plain"

// NewThemePlugin 主题选择插件，决定整页渲染使用的主题名。
func NewThemePlugin() *SimplePlugin {
	return NewSimplePlugin(ThemePluginName, "Theme Selector", []Field{
		{Name: "name", Label: "Theme Name", Kind: FieldText, MaxLength: 100, Initial: DefaultTheme},
	}, Templates{Main: "theme.html", Form: "form.html"})
}

// CurrentTheme 返回简历的当前主题名；插件未注册或无数据时回退到 plain。
func CurrentTheme(reg *Registry, r *database.Resume) string {
	p, ok := reg.Get(ThemePluginName)
	if !ok {
		return DefaultTheme
	}
	name, _ := p.GetData(r)["name"].(string)
	if name == "" {
		return DefaultTheme
	}
	return name
}
