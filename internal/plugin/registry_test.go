package plugin

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumekit/internal/database"
)

func newRegistryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.Plugin{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

const testSchemaSimple = `{
	"kind": "simple",
	"verbose_name": "Quotes",
	"fields": [{"name": "text", "kind": "textarea", "required": true}]
}`

func testPluginRow(name string, active bool) database.Plugin {
	return database.Plugin{
		Name:            name,
		Schema:          testSchemaSimple,
		ContentTemplate: `<blockquote>{{.text}}</blockquote>`,
		FormTemplate:    `<form>{{.form}}</form>`,
		IsActive:        active,
	}
}

func TestRegistryRejectsNameCollision(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register(NewAboutPlugin()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.Register(NewAboutPlugin()); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegistryAllPreservesRegistrationOrder(t *testing.T) {
	reg := NewRegistry(nil)
	reg.MustRegister(NewIdentityPlugin())
	reg.MustRegister(NewAboutPlugin())
	reg.MustRegister(NewProjectsPlugin())

	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 plugins, got %d", len(all))
	}
	want := []string{"identity", "about", "projects"}
	for i, name := range want {
		if all[i].Name() != name {
			t.Fatalf("order = %v at %d, want %s", all[i].Name(), i, name)
		}
	}
}

func TestReloadDBPluginsLoadsActiveRows(t *testing.T) {
	db := newRegistryTestDB(t)
	row := testPluginRow("quotes", true)
	inactive := testPluginRow("drafts", false)
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed row: %v", err)
	}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("seed inactive row: %v", err)
	}

	reg := NewRegistry(nil)
	if err := reg.ReloadDBPlugins(context.Background(), db); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if _, ok := reg.Get("quotes"); !ok {
		t.Fatal("active plugin not loaded")
	}
	if _, ok := reg.Get("drafts"); ok {
		t.Fatal("inactive plugin must not load")
	}
}

func TestReloadDBPluginsSkipsBrokenRows(t *testing.T) {
	db := newRegistryTestDB(t)
	good := testPluginRow("quotes", true)
	broken := database.Plugin{Name: "broken", Schema: "{not json", ContentTemplate: "<p></p>", IsActive: true}
	if err := db.Create(&good).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&broken).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg := NewRegistry(nil)
	if err := reg.ReloadDBPlugins(context.Background(), db); err != nil {
		t.Fatalf("reload must not fail on a broken row: %v", err)
	}

	if _, ok := reg.Get("quotes"); !ok {
		t.Fatal("good row skipped alongside the broken one")
	}
	if _, ok := reg.Get("broken"); ok {
		t.Fatal("broken row must be skipped")
	}
}

func TestReloadDBPluginsSkipsStaticCollision(t *testing.T) {
	db := newRegistryTestDB(t)
	shadow := testPluginRow("about", true)
	if err := db.Create(&shadow).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg := NewRegistry(nil)
	reg.MustRegister(NewAboutPlugin())
	if err := reg.ReloadDBPlugins(context.Background(), db); err != nil {
		t.Fatalf("reload: %v", err)
	}

	p, _ := reg.Get("about")
	if p.Templates().Source != nil {
		t.Fatal("db row must not shadow the static plugin")
	}
	if len(reg.DBPlugins()) != 0 {
		t.Fatal("colliding row must be skipped")
	}
}

func TestReloadDBPluginsDeactivationRemovesPlugin(t *testing.T) {
	db := newRegistryTestDB(t)
	row := testPluginRow("quotes", true)
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg := NewRegistry(nil)
	if err := reg.ReloadDBPlugins(context.Background(), db); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := reg.Get("quotes"); !ok {
		t.Fatal("plugin should be live after first reload")
	}

	if err := db.Model(&database.Plugin{}).Where("name = ?", "quotes").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := reg.ReloadDBPlugins(context.Background(), db); err != nil {
		t.Fatalf("second reload: %v", err)
	}

	if _, ok := reg.Get("quotes"); ok {
		t.Fatal("deactivated plugin must disappear from lookups")
	}
}

func TestClearDBPlugins(t *testing.T) {
	db := newRegistryTestDB(t)
	row := testPluginRow("quotes", true)
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg := NewRegistry(nil)
	if err := reg.ReloadDBPlugins(context.Background(), db); err != nil {
		t.Fatalf("reload: %v", err)
	}
	reg.ClearDBPlugins()

	if _, ok := reg.Get("quotes"); ok {
		t.Fatal("dynamic plugins must be gone after clear")
	}
	if len(reg.DBPlugins()) != 0 {
		t.Fatal("DBPlugins must be empty after clear")
	}
}
