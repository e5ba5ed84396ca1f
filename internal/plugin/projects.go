package plugin

// NewProjectsPlugin 项目列表插件：每个条目一个项目卡片，
// flat 持有区块标题。
func NewProjectsPlugin() *ListPlugin {
	itemFields := []Field{
		{Name: "title", Label: "Project title", Kind: FieldText, Required: true, MaxLength: 100, Initial: "Project title"},
		{Name: "url", Label: "Project url", Kind: FieldURL, MaxLength: 100, Initial: "https://example.com"},
		{Name: "description", Label: "Description", Kind: FieldTextarea, Required: true, MaxLength: 1024, Initial: "description"},
		{Name: "badges", Label: "Badges", Kind: FieldBadges, MaxLength: 256},
	}
	flatFields := []Field{
		{Name: "title", Label: "Title", Kind: FieldText, MaxLength: 50, Initial: "Projects"},
	}
	return NewListPlugin("projects", "Projects", itemFields, flatFields, Templates{
		Main:     "projects.html",
		Flat:     "projects_flat.html",
		FlatForm: "form.html",
		Item:     "projects_item.html",
		ItemForm: "item_form.html",
	})
}

// Builtins 返回默认注册的静态插件集合。
func Builtins() []Plugin {
	return []Plugin{
		NewIdentityPlugin(),
		NewAboutPlugin(),
		NewCoverPlugin(),
		NewEducationPlugin(),
		NewSkillsPlugin(),
		NewEmployedTimelinePlugin(),
		NewFreelanceTimelinePlugin(),
		NewProjectsPlugin(),
		NewThemePlugin(),
	}
}
