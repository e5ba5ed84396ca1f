package plugin

import (
	"testing"

	"resumekit/internal/database"
)

// 零数据的简历也要渲染出完整区块：上下文落到字段声明的默认值。
func TestSimplePluginContextCarriesFieldDefaults(t *testing.T) {
	p := NewEducationPlugin()
	ctx := p.GetContext(&database.Resume{Slug: "demo"}, nil, false)

	want := map[string]any{
		"school_name": "School name",
		"school_url":  "https://example.com",
		"start":       "start",
		"end":         "end",
	}
	for field, expected := range want {
		if got := ctx[field]; got != expected {
			t.Errorf("ctx[%q] = %v, want %v", field, got, expected)
		}
	}
	if ctx["edit_url"] != "/v1/resumes/demo/plugins/education/edit" {
		t.Errorf("edit_url = %v", ctx["edit_url"])
	}
	if ctx["show_edit_button"] != false {
		t.Error("show_edit_button must be false outside edit mode")
	}
}

func TestSimplePluginContextPrefersStoredData(t *testing.T) {
	p := NewEducationPlugin()
	res := &database.Resume{Slug: "demo"}
	p.Data().Set(res, map[string]any{"school_name": "MIT"})

	ctx := p.GetContext(res, nil, true)
	if ctx["school_name"] != "MIT" {
		t.Errorf("school_name = %v, want stored value", ctx["school_name"])
	}
	if ctx["school_url"] != "https://example.com" {
		t.Errorf("school_url = %v, want declared default", ctx["school_url"])
	}
	if ctx["show_edit_button"] != true {
		t.Error("show_edit_button must follow edit mode")
	}
}

func TestListPluginContextDefaultsWithoutData(t *testing.T) {
	p := NewProjectsPlugin()
	ctx := p.GetContext(&database.Resume{Slug: "demo"}, nil, false)

	entries, ok := ctx["entries"].([]map[string]any)
	if !ok {
		t.Fatalf("entries missing from context: %v", ctx["entries"])
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want empty", entries)
	}

	flat, ok := ctx["flat"].(map[string]any)
	if !ok {
		t.Fatal("flat missing from context")
	}
	if flat["title"] != "Projects" {
		t.Errorf("flat title = %v, want declared default", flat["title"])
	}
	if flat["edit_flat_url"] != "/v1/resumes/demo/plugins/projects/flat/edit" {
		t.Errorf("edit_flat_url = %v", flat["edit_flat_url"])
	}
	if ctx["add_item_url"] != "/v1/resumes/demo/plugins/projects/items/new" {
		t.Errorf("add_item_url = %v", ctx["add_item_url"])
	}
}
