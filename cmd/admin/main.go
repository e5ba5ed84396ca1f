package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"resumekit/internal/auth"
	"resumekit/internal/config"
	"resumekit/internal/database"
	"resumekit/internal/plugin"
	"resumekit/internal/tasks"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "create-admin":
		runCreateAdmin(os.Args[2:])
	case "load-plugin":
		runLoadPlugin(os.Args[2:])
	case "remove-plugin":
		runRemovePlugin(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <create-admin|load-plugin|remove-plugin> [flags]")
	os.Exit(2)
}

// runCreateAdmin 创建一个 staff 账号并打印随机初始密码。
func runCreateAdmin(args []string) {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	username := fs.String("username", "", "管理员用户名（必填）")
	_ = fs.Parse(args)

	u := strings.TrimSpace(*username)
	if u == "" {
		log.Fatal("missing required flag: --username")
	}

	db := mustOpenDatabase()
	if err := db.AutoMigrate(&database.User{}); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	var existing database.User
	switch err := db.Where("username = ?", u).First(&existing).Error; {
	case err == nil:
		log.Fatalf("user %q already exists", u)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		log.Fatalf("query user: %v", err)
	}

	password, err := generateRandomPassword(24)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user := database.User{
		Username:     u,
		PasswordHash: hashed,
		IsStaff:      true,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("create user: %v", err)
	}

	fmt.Printf("已创建 staff 账号：\n")
	fmt.Printf("用户名: %s\n", u)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：该密码仅显示一次，请立即登录并修改。\n")
}

type pluginRowFile struct {
	Name            string          `json:"name"`
	GeneratorModel  string          `json:"generator_model"`
	Prompt          string          `json:"prompt"`
	Schema          json.RawMessage `json:"schema"`
	ContentTemplate string          `json:"content_template"`
	FormTemplate    string          `json:"form_template"`
	IsActive        bool            `json:"is_active"`
}

// runLoadPlugin 从 JSON 文件（或标准输入）加载一条插件行。
// 行在入库前先试编译一次，编译不过就拒绝。
func runLoadPlugin(args []string) {
	fs := flag.NewFlagSet("load-plugin", flag.ExitOnError)
	file := fs.String("file", "-", "插件定义 JSON 文件路径，- 表示标准输入")
	activate := fs.Bool("activate", false, "加载后直接标记为启用")
	_ = fs.Parse(args)

	var reader io.Reader = os.Stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatalf("open plugin file: %v", err)
		}
		defer f.Close()
		reader = f
	}

	var def pluginRowFile
	if err := json.NewDecoder(reader).Decode(&def); err != nil {
		log.Fatalf("decode plugin definition: %v", err)
	}

	row := database.Plugin{
		Name:            strings.TrimSpace(def.Name),
		GeneratorModel:  def.GeneratorModel,
		Prompt:          def.Prompt,
		Schema:          string(def.Schema),
		ContentTemplate: def.ContentTemplate,
		FormTemplate:    def.FormTemplate,
		IsActive:        def.IsActive || *activate,
	}

	if _, err := plugin.CompilePluginRow(row); err != nil {
		log.Fatalf("plugin definition rejected: %v", err)
	}

	db := mustOpenDatabase()
	if err := db.AutoMigrate(&database.Plugin{}); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	var existing database.Plugin
	switch err := db.Where("name = ?", row.Name).First(&existing).Error; {
	case err == nil:
		existing.GeneratorModel = row.GeneratorModel
		existing.Prompt = row.Prompt
		existing.Schema = row.Schema
		existing.ContentTemplate = row.ContentTemplate
		existing.FormTemplate = row.FormTemplate
		existing.IsActive = row.IsActive
		if err := db.Save(&existing).Error; err != nil {
			log.Fatalf("update plugin row: %v", err)
		}
		fmt.Printf("已更新插件行 %q (id=%d, active=%v)\n", existing.Name, existing.ID, existing.IsActive)
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&row).Error; err != nil {
			log.Fatalf("create plugin row: %v", err)
		}
		fmt.Printf("已创建插件行 %q (id=%d, active=%v)\n", row.Name, row.ID, row.IsActive)
	default:
		log.Fatalf("query plugin row: %v", err)
	}

	fmt.Println("提示：运行中的 api 进程需要收到重载信号或调用 /admin/plugins/reload 才会生效。")
}

// runRemovePlugin 删除插件行；--purge 时再排一个后台任务，
// 把各份简历里残留的该插件数据清掉。
func runRemovePlugin(args []string) {
	fs := flag.NewFlagSet("remove-plugin", flag.ExitOnError)
	name := fs.String("name", "", "插件名（必填）")
	purge := fs.Bool("purge", false, "同时清理所有简历中该插件的数据")
	redisAddr := fs.String("redis-addr", "", "Redis 地址（--purge 时必填，默认读 REDIS_HOST/REDIS_PORT）")
	_ = fs.Parse(args)

	pluginName := strings.TrimSpace(*name)
	if pluginName == "" {
		log.Fatal("missing required flag: --name")
	}

	db := mustOpenDatabase()

	result := db.Where("name = ?", pluginName).Delete(&database.Plugin{})
	if result.Error != nil {
		log.Fatalf("delete plugin row: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		log.Fatalf("plugin %q not found", pluginName)
	}
	fmt.Printf("已删除插件行 %q\n", pluginName)

	if !*purge {
		fmt.Println("提示：各简历中的插件数据仍在，可用 --purge 排队清理。")
		return
	}

	addr := resolveRedisAddr(*redisAddr)
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: addr})
	defer client.Close()

	task, err := tasks.NewPluginPurgeTask(pluginName, uuid.NewString())
	if err != nil {
		log.Fatalf("build purge task: %v", err)
	}
	info, err := client.Enqueue(task)
	if err != nil {
		log.Fatalf("enqueue purge task: %v", err)
	}
	fmt.Printf("已排队清理任务 %s\n", info.ID)
}

func mustOpenDatabase() *gorm.DB {
	dbCfg, err := loadDatabaseConfig()
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}
	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	return db
}

func loadDatabaseConfig() (config.DatabaseConfig, error) {
	host := os.Getenv("DATABASE_HOST")
	port := 0
	if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
		p, err := strconv.Atoi(env)
		if err != nil {
			return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
		}
		port = p
	}
	name := firstNonEmpty(os.Getenv("POSTGRES_DB"), os.Getenv("DB_NAME"))
	user := firstNonEmpty(os.Getenv("POSTGRES_USER"), os.Getenv("DB_USER"))
	password := firstNonEmpty(os.Getenv("POSTGRES_PASSWORD"), os.Getenv("DB_PASSWORD"))
	sslmode := os.Getenv("DATABASE_SSLMODE")

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func resolveRedisAddr(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	return host + ":" + port
}

func generateRandomPassword(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 24
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
