package plugin

// NewIdentityPlugin 展示姓名、联系方式与社交链接的单记录插件。
func NewIdentityPlugin() *SimplePlugin {
	return NewSimplePlugin("identity", "Identity Information", []Field{
		{Name: "name", Label: "Your name", Kind: FieldText, Required: true, MaxLength: 100, Initial: "Your name"},
		{Name: "pronouns", Label: "Pronouns", Kind: FieldText, MaxLength: 100, Initial: "they/them"},
		{Name: "location_name", Label: "Location", Kind: FieldText, MaxLength: 100, Initial: "City, Country, Timezone"},
		{Name: "location_url", Label: "Location url", Kind: FieldURL, MaxLength: 100, Initial: "https://maps.example.com/"},
		{Name: "profile_photo_url", Label: "Profile photo url", Kind: FieldURL, MaxLength: 512, Initial: "https://example.com/photo.jpg"},
		{Name: "tagline", Label: "Tagline", Kind: FieldText, MaxLength: 512, Initial: "Tagline"},
		{Name: "email", Label: "Email address", Kind: FieldEmail, MaxLength: 100, Initial: "foobar@example.com"},
		{Name: "phone", Label: "Phone number", Kind: FieldText, MaxLength: 100, Initial: "+1 555 555 5555"},
		{Name: "github", Label: "GitHub url", Kind: FieldURL, MaxLength: 100, Initial: "https://github.com/foobar/"},
		{Name: "linkedin", Label: "LinkedIn profile url", Kind: FieldURL, MaxLength: 100, Initial: "https://linkedin.com/foobar/"},
		{Name: "mastodon", Label: "Mastodon url", Kind: FieldURL, MaxLength: 100, Initial: "https://fosstodon.org/@foobar"},
	}, Templates{Main: "identity.html", Form: "form.html"})
}
