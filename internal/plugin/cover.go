package plugin

// NewCoverPlugin 求职信区块，与 about 同构但独立编辑。
func NewCoverPlugin() *SimplePlugin {
	return NewSimplePlugin("cover", "Cover Letter", []Field{
		{Name: "title", Label: "Cover Letter Title", Kind: FieldText, Required: true, MaxLength: 256, Initial: "Cover Title"},
		{Name: "text", Label: "Cover Letter Text", Kind: FieldTextarea, Required: true, MaxLength: 1024, Initial: "Some cover letter text..."},
	}, Templates{Main: "cover.html", Form: "form.html"})
}
