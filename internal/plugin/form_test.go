package plugin

import (
	"net/url"
	"strings"
	"testing"
)

func TestFormRequiredField(t *testing.T) {
	f := NewForm([]Field{{Name: "title", Kind: FieldText, Required: true}})

	if f.Bind(url.Values{}) {
		t.Fatal("expected bind to fail on missing required field")
	}
	errs := f.Errors["title"]
	if len(errs) != 1 || errs[0] != "this field is required" {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestFormMaxLength(t *testing.T) {
	f := NewForm([]Field{{Name: "title", Kind: FieldText, MaxLength: 3}})

	if f.Bind(url.Values{"title": {"abcd"}}) {
		t.Fatal("expected bind to fail on overlong value")
	}
	if len(f.Errors["title"]) == 0 {
		t.Fatal("expected a max length error")
	}
}

func TestFormURLDefaultsToHTTPS(t *testing.T) {
	f := NewForm([]Field{{Name: "link", Kind: FieldURL}})

	if !f.Bind(url.Values{"link": {"example.com/page"}}) {
		t.Fatalf("expected valid url, errors: %v", f.Errors)
	}
	if got := f.Value("link"); got != "https://example.com/page" {
		t.Fatalf("cleaned url = %v", got)
	}
}

func TestFormRejectsBadURL(t *testing.T) {
	f := NewForm([]Field{{Name: "link", Kind: FieldURL}})

	if f.Bind(url.Values{"link": {"ftp://example.com"}}) {
		t.Fatal("expected non-http scheme to fail")
	}
}

func TestFormEmailValidation(t *testing.T) {
	f := NewForm([]Field{{Name: "email", Kind: FieldEmail}})

	if f.Bind(url.Values{"email": {"not-an-email"}}) {
		t.Fatal("expected invalid email to fail")
	}
	if !f.Bind(url.Values{"email": {"someone@example.com"}}) {
		t.Fatalf("expected valid email, errors: %v", f.Errors)
	}
}

func TestFormBadgesSplitAndDisplay(t *testing.T) {
	f := NewForm([]Field{{Name: "badges", Kind: FieldBadges}})

	if !f.Bind(url.Values{"badges": {" go, sql ,, http "}}) {
		t.Fatalf("unexpected errors: %v", f.Errors)
	}
	badges, ok := f.Value("badges").([]string)
	if !ok || len(badges) != 3 {
		t.Fatalf("cleaned badges = %v", f.Value("badges"))
	}
	if badges[0] != "go" || badges[1] != "sql" || badges[2] != "http" {
		t.Fatalf("badges not trimmed: %v", badges)
	}

	display := NewForm([]Field{{Name: "badges", Kind: FieldBadges, Initial: []string{"go", "sql"}}})
	if got := display.DisplayValue("badges"); got != "go,sql" {
		t.Fatalf("display value = %q", got)
	}
}

func TestFormInvalidBindEchoesSubmittedValues(t *testing.T) {
	f := NewForm([]Field{
		{Name: "title", Kind: FieldText, Required: true},
		{Name: "link", Kind: FieldURL},
	})

	if f.Bind(url.Values{"link": {"::bad::"}}) {
		t.Fatal("expected bind to fail")
	}
	if got := f.DisplayValue("link"); got != "::bad::" {
		t.Fatalf("form must echo the submitted value, got %q", got)
	}
}

func TestListItemFormDefaultPosition(t *testing.T) {
	existing := []map[string]any{
		{"id": "a", "position": 0},
		{"id": "b", "position": 4},
	}
	f := NewListItemForm(nil, existing)

	if got := f.DisplayValue("position"); got != "5" {
		t.Fatalf("default position = %q, want 5", got)
	}

	empty := NewListItemForm(nil, nil)
	if got := empty.DisplayValue("position"); got != "0" {
		t.Fatalf("default position on empty list = %q, want 0", got)
	}
}

func TestListItemFormPositionUniqueness(t *testing.T) {
	existing := []map[string]any{
		{"id": "a", "position": 0},
		{"id": "b", "position": 1},
	}
	f := NewListItemForm(nil, existing)

	if f.Bind(url.Values{"position": {"1"}}) {
		t.Fatal("expected duplicate position to fail")
	}
	errs := f.Errors["position"]
	if len(errs) != 1 || !strings.Contains(errs[0], "take 2 instead") {
		t.Fatalf("unexpected position errors: %v", errs)
	}
}

func TestListItemFormPositionOwnItemExcluded(t *testing.T) {
	existing := []map[string]any{
		{"id": "a", "position": 0},
		{"id": "b", "position": 1},
	}
	f := NewListItemForm(nil, existing)

	// 更新条目 b 时，它自己占用的 position 不算冲突
	if !f.Bind(url.Values{"id": {"b"}, "position": {"1"}}) {
		t.Fatalf("own position must not conflict, errors: %v", f.Errors)
	}
}

func TestListItemFormRejectsNegativePosition(t *testing.T) {
	f := NewListItemForm(nil, nil)
	if f.Bind(url.Values{"position": {"-1"}}) {
		t.Fatal("expected negative position to fail")
	}
}

func TestListItemFormPositionDeclaredBeforeID(t *testing.T) {
	// 数据库插件的 schema 可以把 position 排在 id 前面，
	// 唯一性校验不能依赖字段声明顺序
	fields := []Field{
		{Name: "position", Kind: FieldInteger},
		{Name: "title", Kind: FieldText},
	}
	existing := []map[string]any{
		{"id": "a", "position": 1},
	}
	f := NewListItemForm(fields, existing)

	if !f.Bind(url.Values{"id": {"a"}, "position": {"1"}, "title": {"kept"}}) {
		t.Fatalf("own position must not conflict, errors: %v", f.Errors)
	}
	if f.Value("position") != 1 {
		t.Fatalf("position = %v, want 1", f.Value("position"))
	}
}

func TestListItemFormEmptyPositionKeepsStoredValue(t *testing.T) {
	// 已存条目从 JSON 反序列化后 position 是 float64
	existing := []map[string]any{
		{"id": "a", "position": float64(2)},
		{"id": "b", "position": float64(0)},
	}
	f := NewListItemForm(nil, existing)
	f.SetInitial(map[string]any{"id": "a", "position": float64(2)})

	if !f.Bind(url.Values{"id": {"a"}}) {
		t.Fatalf("empty position must fall back to the stored value, errors: %v", f.Errors)
	}
	if f.Value("position") != 2 {
		t.Fatalf("position = %v, want 2", f.Value("position"))
	}
}
