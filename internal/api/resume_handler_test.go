package api

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCreateResume(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "alice")

	w := env.do(t, "POST", "/v1/resumes", user, nil, `{"name":"My CV","slug":"my-cv"}`)
	requireStatus(t, w, 201)

	var resp struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Slug != "my-cv" || resp.Name != "My CV" || resp.ID == 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	res := env.loadResume(t, "my-cv")
	if res.OwnerID != user {
		t.Fatalf("owner = %d, want %d", res.OwnerID, user)
	}
	if res.PluginData == nil {
		t.Fatal("plugin_data must be initialized")
	}
}

func TestCreateResumeRejectsBadSlug(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "alice")

	for _, slug := range []string{"Has Spaces", "UPPER", "trailing-", "-leading", "dots.here"} {
		w := env.do(t, "POST", "/v1/resumes", user, nil, `{"name":"x","slug":"`+slug+`"}`)
		if w.Code != 400 {
			t.Errorf("slug %q: status = %d, want 400", slug, w.Code)
		}
	}
}

func TestCreateResumeSlugConflict(t *testing.T) {
	env := newTestEnv(t)
	env.seedResume(t, "demo")
	other := env.seedUser(t, "bob")

	w := env.do(t, "POST", "/v1/resumes", other, nil, `{"name":"Mine","slug":"demo"}`)
	requireStatus(t, w, 409)
}

func TestListResumesOnlyOwn(t *testing.T) {
	env := newTestEnv(t)
	env.seedResume(t, "theirs")
	mine := env.seedUser(t, "me")
	env.do(t, "POST", "/v1/resumes", mine, nil, `{"name":"Mine","slug":"mine"}`)

	w := env.do(t, "GET", "/v1/resumes", mine, nil, "")
	requireStatus(t, w, 200)

	var resp struct {
		Items []struct {
			Slug string `json:"slug"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Slug != "mine" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
}

func TestUpdateResumeRenamesOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	w := env.do(t, "PUT", "/v1/resumes/demo", owner, nil, `{"name":"Renamed"}`)
	requireStatus(t, w, 200)

	res := env.loadResume(t, "demo")
	if res.Name != "Renamed" {
		t.Fatalf("name = %q", res.Name)
	}
	if res.Slug != "demo" {
		t.Fatalf("slug must be immutable, got %q", res.Slug)
	}
}

func TestUpdateResumeNonOwnerForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.seedResume(t, "demo")
	other := env.seedUser(t, "bob")

	w := env.do(t, "PUT", "/v1/resumes/demo", other, nil, `{"name":"Hijack"}`)
	requireStatus(t, w, 403)
}

func TestDeleteResume(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	w := env.do(t, "DELETE", "/v1/resumes/demo", owner, nil, "")
	requireStatus(t, w, 204)

	w = env.do(t, "GET", "/v1/resumes/demo", 0, nil, "")
	requireStatus(t, w, 404)
}

func TestShowPagePublicView(t *testing.T) {
	env := newTestEnv(t)
	env.seedResume(t, "demo")

	w := env.do(t, "GET", "/v1/resumes/demo", 0, nil, "")
	requireStatus(t, w, 200)
	requireContains(t, w, "Test Resume", "stored about text", "First", "Second")

	// 访客视图不渲染编辑入口
	if strings.Contains(w.Body.String(), `class="edit"`) {
		t.Fatal("anonymous page must not carry edit buttons")
	}
}

func TestShowPageOwnerEditMode(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedResume(t, "demo")

	w := env.do(t, "GET", "/v1/resumes/demo?edit=true", owner, nil, "")
	requireStatus(t, w, 200)
	requireContains(t, w, `class="edit"`, `hx-get="/v1/resumes/demo/plugins/about/edit"`)
}

func TestShowPageEditModeDeniedToVisitors(t *testing.T) {
	env := newTestEnv(t)
	env.seedResume(t, "demo")
	visitor := env.seedUser(t, "visitor")

	w := env.do(t, "GET", "/v1/resumes/demo?edit=true", visitor, nil, "")
	requireStatus(t, w, 200)
	if strings.Contains(w.Body.String(), `class="edit"`) {
		t.Fatal("edit mode must be restricted to the owner")
	}
}

func TestShowPagePluginSubset(t *testing.T) {
	env := newTestEnv(t)
	env.seedResume(t, "demo")

	w := env.do(t, "GET", "/v1/resumes/demo?plugins=about,unknown", 0, nil, "")
	requireStatus(t, w, 200)
	requireContains(t, w, "stored about text")
	if strings.Contains(w.Body.String(), "project-grid") {
		t.Fatal("subset must exclude unlisted plugins")
	}
}

func TestShowPageMissingSlug(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/v1/resumes/ghost", 0, nil, "")
	requireStatus(t, w, 404)
}
