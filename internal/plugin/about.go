package plugin

// NewAboutPlugin 展示一段“关于我”文本的单记录插件。
func NewAboutPlugin() *SimplePlugin {
	return NewSimplePlugin("about", "About", []Field{
		{Name: "title", Label: "Title", Kind: FieldText, Required: true, MaxLength: 256, Initial: "About"},
		{Name: "text", Label: "About", Kind: FieldTextarea, Required: true, MaxLength: 1024, Initial: "Some about text..."},
	}, Templates{Main: "about.html", Form: "form.html"})
}
