package plugin

// NewSkillsPlugin 技能徽章区块。badges 字段以逗号分隔文本编辑，
// 存储为字符串列表。
func NewSkillsPlugin() *SimplePlugin {
	return NewSimplePlugin("skills", "Skills", []Field{
		{Name: "badges", Label: "Skills", Kind: FieldBadges, MaxLength: 1024, Initial: []string{"Some Skill", "Another Skill"}},
	}, Templates{Main: "skills.html", Form: "form.html"})
}
