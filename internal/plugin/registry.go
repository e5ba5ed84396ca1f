package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"resumekit/internal/database"
	"resumekit/internal/metrics"
)

// Registry 是进程内插件名到插件实例的唯一索引。静态插件在启动时注册一次，
// 数据库插件由 ReloadDBPlugins 全量重建。注册表通过依赖注入传给各处理器，
// 不是包级全局变量。
type Registry struct {
	mu       sync.RWMutex
	static   map[string]Plugin
	order    []string
	dynamic  map[string]Plugin
	dynOrder []string
	logger   *slog.Logger
}

// NewRegistry 构造空注册表。
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		static:  map[string]Plugin{},
		dynamic: map[string]Plugin{},
		logger:  logger,
	}
}

// Register 注册一个静态插件。名字冲突会被显式拒绝，而不是后写覆盖。
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.static[p.Name()]; exists {
		return fmt.Errorf("plugin %q is already registered", p.Name())
	}
	r.static[p.Name()] = p
	r.order = append(r.order, p.Name())
	return nil
}

// MustRegister 与 Register 相同，冲突时 panic，用于启动期的固定插件集。
func (r *Registry) MustRegister(p Plugin) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Get 按名字查找插件，静态集合优先。
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.static[name]; ok {
		return p, true
	}
	p, ok := r.dynamic[name]
	return p, ok
}

// All 按注册顺序返回静态与动态插件的并集。
func (r *Registry) All() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plugins := make([]Plugin, 0, len(r.order)+len(r.dynOrder))
	for _, name := range r.order {
		plugins = append(plugins, r.static[name])
	}
	for _, name := range r.dynOrder {
		plugins = append(plugins, r.dynamic[name])
	}
	return plugins
}

// DBPlugins 返回当前动态集合的快照。
func (r *Registry) DBPlugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plugins := make([]Plugin, 0, len(r.dynOrder))
	for _, name := range r.dynOrder {
		plugins = append(plugins, r.dynamic[name])
	}
	return plugins
}

// ReloadDBPlugins 从数据库全量重建动态插件集合：只读取 is_active 的行，
// 单行编译失败仅跳过该行并记录，绝不让一条坏行中断整次重载。
// 新集合构建完成后在写锁内整体替换，读方不会看到半新半旧的状态。
// 反复调用是幂等的。
func (r *Registry) ReloadDBPlugins(ctx context.Context, db *gorm.DB) error {
	var rows []database.Plugin
	if err := db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&rows).Error; err != nil {
		metrics.PluginReloadTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("load plugin rows: %w", err)
	}

	fresh := make(map[string]Plugin, len(rows))
	freshOrder := make([]string, 0, len(rows))

	r.mu.RLock()
	staticNames := make(map[string]bool, len(r.static))
	for name := range r.static {
		staticNames[name] = true
	}
	r.mu.RUnlock()

	for _, row := range rows {
		p, err := CompilePluginRow(row)
		if err != nil {
			metrics.PluginRowsSkippedTotal.Inc()
			r.logger.Error("skip broken plugin row",
				slog.String("plugin", row.Name),
				slog.Any("error", err),
			)
			continue
		}
		if staticNames[p.Name()] {
			metrics.PluginRowsSkippedTotal.Inc()
			r.logger.Error("skip plugin row colliding with a static plugin",
				slog.String("plugin", p.Name()),
			)
			continue
		}
		if _, dup := fresh[p.Name()]; dup {
			metrics.PluginRowsSkippedTotal.Inc()
			r.logger.Error("skip duplicate plugin row", slog.String("plugin", p.Name()))
			continue
		}
		fresh[p.Name()] = p
		freshOrder = append(freshOrder, p.Name())
	}

	r.mu.Lock()
	r.dynamic = fresh
	r.dynOrder = freshOrder
	r.mu.Unlock()

	metrics.PluginReloadTotal.WithLabelValues("ok").Inc()
	metrics.ActiveDBPlugins.Set(float64(len(freshOrder)))
	r.logger.Info("db plugins reloaded", slog.Int("count", len(freshOrder)))
	return nil
}

// ClearDBPlugins 清空动态集合，主要用于测试复位。
func (r *Registry) ClearDBPlugins() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dynamic = map[string]Plugin{}
	r.dynOrder = nil
	metrics.ActiveDBPlugins.Set(0)
}
