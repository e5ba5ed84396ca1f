package plugin

// 时间线插件：受雇与自由职业两个实例共用同一套字段与模板，
// 只是插件名不同，各自拥有独立的数据子树。

func timelineItemFields() []Field {
	return []Field{
		{Name: "role", Label: "Role", Kind: FieldText, Required: true, MaxLength: 100, Initial: "role"},
		{Name: "company_name", Label: "Company name", Kind: FieldText, Required: true, MaxLength: 50, Initial: "company_name"},
		{Name: "company_url", Label: "Company url", Kind: FieldURL, MaxLength: 100, Initial: "https://example.com"},
		{Name: "description", Label: "Description", Kind: FieldTextarea, Required: true, MaxLength: 1024, Initial: "description"},
		{Name: "start", Label: "Start", Kind: FieldText, MaxLength: 20, Initial: "start"},
		{Name: "end", Label: "End", Kind: FieldText, MaxLength: 20, Initial: "end"},
		{Name: "badges", Label: "Badges", Kind: FieldBadges, MaxLength: 256},
	}
}

func timelineFlatFields() []Field {
	return []Field{
		{Name: "title", Label: "Title", Kind: FieldText, MaxLength: 50, Initial: "Timeline"},
	}
}

func timelineTemplates() Templates {
	return Templates{
		Main:     "timeline.html",
		Flat:     "timeline_flat.html",
		FlatForm: "form.html",
		Item:     "timeline_item.html",
		ItemForm: "item_form.html",
	}
}

// NewEmployedTimelinePlugin 受雇经历时间线。
func NewEmployedTimelinePlugin() *ListPlugin {
	return NewListPlugin("employed_timeline", "Employed Timeline",
		timelineItemFields(), timelineFlatFields(), timelineTemplates())
}

// NewFreelanceTimelinePlugin 自由职业经历时间线。
func NewFreelanceTimelinePlugin() *ListPlugin {
	return NewListPlugin("freelance_timeline", "Freelance Timeline",
		timelineItemFields(), timelineFlatFields(), timelineTemplates())
}
