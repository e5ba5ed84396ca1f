package plugin

// NewEducationPlugin 教育经历区块：学校名（可点击跳转）加起止时间。
func NewEducationPlugin() *SimplePlugin {
	return NewSimplePlugin("education", "Education", []Field{
		{Name: "school_name", Label: "School name", Kind: FieldText, Required: true, MaxLength: 100, Initial: "School name"},
		{Name: "school_url", Label: "School url", Kind: FieldURL, Required: true, MaxLength: 100, Initial: "https://example.com"},
		{Name: "start", Label: "Start", Kind: FieldText, MaxLength: 20, Initial: "start"},
		{Name: "end", Label: "End", Kind: FieldText, MaxLength: 20, Initial: "end"},
	}, Templates{Main: "education.html", Form: "form.html"})
}
