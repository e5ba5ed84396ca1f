package api

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumekit/internal/database"
	"resumekit/internal/plugin"
	"resumekit/internal/render"
)

// 测试环境：sqlite 内存库 + 内建插件注册表 + 渲染器，路由与生产注册
// 保持一致，认证用从请求头读用户 ID 的替身中间件代替 JWT。
type testEnv struct {
	db       *gorm.DB
	registry *plugin.Registry
	renderer *render.Renderer
	router   *gin.Engine
}

const testUserHeader = "X-Test-User"

func testAuth(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(testUserHeader)
		if raw == "" {
			if required {
				AbortUnauthorized(c)
			}
			return
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			AbortUnauthorized(c)
			return
		}
		c.Set("userID", uint(id))
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.User{}, &database.Resume{}, &database.Plugin{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := discardLogger()
	registry := plugin.NewRegistry(logger)
	for _, p := range plugin.Builtins() {
		registry.MustRegister(p)
	}

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	resumeHandler := NewResumeHandler(db, registry, renderer, nil, logger)
	inlineHandler := NewInlineHandler(db, registry, renderer, nil, logger, 0)
	pluginAdminHandler := NewPluginAdminHandler(db, registry, nil, logger, "")

	router := gin.New()
	v1 := router.Group("/v1")
	resumes := v1.Group("/resumes")
	resumes.POST("", testAuth(true), resumeHandler.CreateResume)
	resumes.GET("", testAuth(true), resumeHandler.ListResumes)
	resumes.GET("/:slug", testAuth(false), resumeHandler.ShowPage)
	resumes.GET("/:slug/export", testAuth(true), resumeHandler.ExportResume)
	resumes.PUT("/:slug", testAuth(true), resumeHandler.UpdateResume)
	resumes.DELETE("/:slug", testAuth(true), resumeHandler.DeleteResume)

	assetHandler := NewAssetHandler(db, nil, logger, "")
	assets := resumes.Group("/:slug/assets")
	assets.Use(testAuth(true))
	assets.POST("", assetHandler.UploadAsset)
	assets.GET("/view", assetHandler.GetAssetURL)
	assets.DELETE("", assetHandler.DeleteAsset)

	inline := resumes.Group("/:slug/plugins/:plugin")
	inline.Use(testAuth(true))
	inline.GET("", inlineHandler.Show)
	inline.GET("/edit", inlineHandler.EditForm)
	inline.POST("/edit", inlineHandler.EditSave)
	inline.GET("/flat/edit", inlineHandler.FlatForm)
	inline.POST("/flat/edit", inlineHandler.FlatSave)
	inline.GET("/items/new", inlineHandler.ItemNewForm)
	inline.POST("/items", inlineHandler.ItemSave)
	inline.GET("/items/:item/edit", inlineHandler.ItemEditForm)
	inline.POST("/items/:item/delete", inlineHandler.ItemDelete)

	adminHandler := NewAdminHandler(db, registry, renderer, logger)
	adminPages := router.Group("/admin/resumes/:slug/plugins/:plugin", testAuth(true))
	adminPages.GET("", adminHandler.ChangeView)
	adminPages.POST("/section", adminHandler.SectionSave)
	adminPages.POST("/items", adminHandler.ItemSave)
	adminPages.POST("/items/:item/delete", adminHandler.ItemDelete)

	admin := router.Group("/admin", testAuth(true))
	admin.GET("/plugins", pluginAdminHandler.ListRows)
	admin.POST("/plugins", pluginAdminHandler.CreateRow)
	admin.PUT("/plugins/:id", pluginAdminHandler.UpdateRow)
	admin.DELETE("/plugins/:id", pluginAdminHandler.DeleteRow)
	admin.POST("/plugins/reload", pluginAdminHandler.Reload)

	return &testEnv{db: db, registry: registry, renderer: renderer, router: router}
}

// seedResume 创建属主账号与一份带初始插件数据的简历，返回属主 ID。
func (e *testEnv) seedResume(t *testing.T, slug string) uint {
	t.Helper()
	owner := database.User{Username: "owner-" + slug, PasswordHash: "x"}
	if err := e.db.Create(&owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}
	res := database.Resume{
		Name:    "Test Resume",
		Slug:    slug,
		OwnerID: owner.ID,
		PluginData: datatypes.JSONMap{
			"about": map[string]any{"title": "About", "text": "stored about text"},
			"projects": map[string]any{
				"flat": map[string]any{"title": "Projects"},
				"items": []any{
					map[string]any{"id": "p1", "title": "First", "description": "one", "position": float64(1)},
					map[string]any{"id": "p2", "title": "Second", "description": "two", "position": float64(2)},
				},
			},
		},
	}
	if err := e.db.Create(&res).Error; err != nil {
		t.Fatalf("create resume: %v", err)
	}
	return owner.ID
}

func (e *testEnv) seedUser(t *testing.T, username string) uint {
	t.Helper()
	u := database.User{Username: username, PasswordHash: "x"}
	if err := e.db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

// do 发起一次请求。userID 为 0 表示匿名；form 非 nil 时按表单编码提交，
// 否则 body 作为 JSON 发送。
func (e *testEnv) do(t *testing.T, method, path string, userID uint, form url.Values, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	contentType := ""
	if form != nil {
		reader = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	} else if body != "" {
		reader = strings.NewReader(body)
		contentType = "application/json"
	}

	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != 0 {
		req.Header.Set(testUserHeader, strconv.FormatUint(uint64(userID), 10))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) loadResume(t *testing.T, slug string) database.Resume {
	t.Helper()
	var res database.Resume
	if err := e.db.Where("slug = ?", slug).First(&res).Error; err != nil {
		t.Fatalf("load resume %q: %v", slug, err)
	}
	return res
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}

func requireContains(t *testing.T, w *httptest.ResponseRecorder, substrings ...string) {
	t.Helper()
	body := w.Body.String()
	for _, s := range substrings {
		if !strings.Contains(body, s) {
			t.Fatalf("body missing %q:\n%s", s, body)
		}
	}
}
