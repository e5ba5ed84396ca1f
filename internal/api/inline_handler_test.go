package api

import (
	"net/url"
	"strings"
	"testing"
)

func TestInlineShowRendersEditableFragment(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	w := env.do(t, "GET", "/v1/resumes/demo/plugins/about", owner, nil, "")
	requireStatus(t, w, 200)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	requireContains(t, w, "stored about text", `hx-get="/v1/resumes/demo/plugins/about/edit"`)
}

func TestInlineRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	env.seedResume(t, "demo")

	w := env.do(t, "GET", "/v1/resumes/demo/plugins/about/edit", 0, nil, "")
	requireStatus(t, w, 401)
}

func TestInlineRejectsNonOwner(t *testing.T) {
	env := newTestEnv(t)
	env.seedResume(t, "demo")
	intruder := env.seedUser(t, "intruder")

	w := env.do(t, "GET", "/v1/resumes/demo/plugins/about/edit", intruder, nil, "")
	requireStatus(t, w, 403)
}

func TestInlineUnknownPluginIs404(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	w := env.do(t, "GET", "/v1/resumes/demo/plugins/nope/edit", owner, nil, "")
	requireStatus(t, w, 404)
}

func TestInlineMissingResumeIs404(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "solo")

	w := env.do(t, "GET", "/v1/resumes/ghost/plugins/about/edit", user, nil, "")
	requireStatus(t, w, 404)
}

func TestEditFormPrimedWithStoredData(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	w := env.do(t, "GET", "/v1/resumes/demo/plugins/about/edit", owner, nil, "")
	requireStatus(t, w, 200)
	requireContains(t, w,
		"stored about text",
		`hx-post="/v1/resumes/demo/plugins/about/edit"`,
		`hx-get="/v1/resumes/demo/plugins/about"`,
	)
}

func TestEditFormOnListPluginIs404(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	w := env.do(t, "GET", "/v1/resumes/demo/plugins/projects/edit", owner, nil, "")
	requireStatus(t, w, 404)
}

func TestEditSaveInvalidReturnsFormWithErrors(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	form := url.Values{"title": {""}, "text": {"submitted but incomplete"}}
	w := env.do(t, "POST", "/v1/resumes/demo/plugins/about/edit", owner, form, "")
	requireStatus(t, w, 422)
	requireContains(t, w, "this field is required", "submitted but incomplete")

	// 校验失败不得落库
	res := env.loadResume(t, "demo")
	about := res.PluginData["about"].(map[string]any)
	if about["text"] != "stored about text" {
		t.Fatalf("invalid submit was persisted: %v", about)
	}
}

func TestEditSaveValidPersistsAndRendersDisplay(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	form := url.Values{"title": {"Background"}, "text": {"updated text"}}
	w := env.do(t, "POST", "/v1/resumes/demo/plugins/about/edit", owner, form, "")
	requireStatus(t, w, 200)
	requireContains(t, w, "<h2>Background</h2>", "updated text")

	res := env.loadResume(t, "demo")
	about := res.PluginData["about"].(map[string]any)
	if about["title"] != "Background" || about["text"] != "updated text" {
		t.Fatalf("data not persisted: %v", about)
	}
	// 兄弟插件的数据不受影响
	if _, ok := res.PluginData["projects"]; !ok {
		t.Fatal("sibling plugin data lost")
	}
}

func TestFlatSaveKeepsItems(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	form := url.Values{"title": {"Portfolio"}}
	w := env.do(t, "POST", "/v1/resumes/demo/plugins/projects/flat/edit", owner, form, "")
	requireStatus(t, w, 200)
	requireContains(t, w, "<h2>Portfolio</h2>")

	res := env.loadResume(t, "demo")
	projects := res.PluginData["projects"].(map[string]any)
	flat := projects["flat"].(map[string]any)
	if flat["title"] != "Portfolio" {
		t.Fatalf("flat not saved: %v", projects)
	}
	items := projects["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("items clobbered by flat save: %v", items)
	}
}

func TestItemNewFormDefaultsPosition(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	w := env.do(t, "GET", "/v1/resumes/demo/plugins/projects/items/new", owner, nil, "")
	requireStatus(t, w, 200)
	requireContains(t, w, `name="position"`, `value="3"`, `hx-post="/v1/resumes/demo/plugins/projects/items"`)
}

func TestItemCreate(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	form := url.Values{
		"title":       {"Third"},
		"description": {"third project"},
		"badges":      {"go, sqlite"},
	}
	w := env.do(t, "POST", "/v1/resumes/demo/plugins/projects/items", owner, form, "")
	requireStatus(t, w, 200)
	requireContains(t, w, "Third", "third project", "go, sqlite", "delete")

	res := env.loadResume(t, "demo")
	items := res.PluginData["projects"].(map[string]any)["items"].([]any)
	if len(items) != 3 {
		t.Fatalf("item not appended: %v", items)
	}
	created := items[2].(map[string]any)
	id, _ := created["id"].(string)
	if id == "" || id == "p1" || id == "p2" {
		t.Fatalf("server must assign a fresh id, got %q", id)
	}
}

func TestItemSaveInvalidReturnsItemForm(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	form := url.Values{"title": {"No description"}}
	w := env.do(t, "POST", "/v1/resumes/demo/plugins/projects/items", owner, form, "")
	requireStatus(t, w, 422)
	requireContains(t, w, "this field is required", "No description")
}

func TestItemUpdateMergesFields(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	form := url.Values{
		"id":          {"p1"},
		"title":       {"First, renamed"},
		"description": {"one"},
		"position":    {"1"},
	}
	w := env.do(t, "POST", "/v1/resumes/demo/plugins/projects/items", owner, form, "")
	requireStatus(t, w, 200)
	requireContains(t, w, "First, renamed")

	res := env.loadResume(t, "demo")
	items := res.PluginData["projects"].(map[string]any)["items"].([]any)
	var updated map[string]any
	for _, raw := range items {
		item := raw.(map[string]any)
		if item["id"] == "p1" {
			updated = item
		}
	}
	if updated == nil || updated["title"] != "First, renamed" {
		t.Fatalf("item not updated: %v", items)
	}
}

func TestItemUpdateVanishedIdIs404(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	form := url.Values{
		"id":          {"gone"},
		"title":       {"Ghost"},
		"description": {"ghost"},
		"position":    {"9"},
	}
	w := env.do(t, "POST", "/v1/resumes/demo/plugins/projects/items", owner, form, "")
	requireStatus(t, w, 404)
}

func TestItemEditFormMissingItemIs404(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	w := env.do(t, "GET", "/v1/resumes/demo/plugins/projects/items/gone/edit", owner, nil, "")
	requireStatus(t, w, 404)
}

func TestItemDelete(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	w := env.do(t, "POST", "/v1/resumes/demo/plugins/projects/items/p1/delete", owner, nil, "")
	requireStatus(t, w, 200)
	if body := w.Body.String(); body != "" {
		t.Fatalf("delete should return an empty fragment, got %q", body)
	}

	res := env.loadResume(t, "demo")
	items := res.PluginData["projects"].(map[string]any)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("item not removed: %v", items)
	}

	// 重复删除按 404 处理
	w = env.do(t, "POST", "/v1/resumes/demo/plugins/projects/items/p1/delete", owner, nil, "")
	requireStatus(t, w, 404)
}
