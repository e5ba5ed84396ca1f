package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PluginReloadTotal 按结果统计动态插件重载次数。
	PluginReloadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumekit",
			Subsystem: "plugins",
			Name:      "reload_total",
			Help:      "动态插件重载总数。",
		},
		[]string{"result"},
	)

	// PluginRowsSkippedTotal 统计重载中因编译失败或命名冲突被跳过的行数。
	PluginRowsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resumekit",
			Subsystem: "plugins",
			Name:      "rows_skipped_total",
			Help:      "重载时跳过的插件行总数。",
		},
	)

	// ActiveDBPlugins 当前生效的动态插件数量。
	ActiveDBPlugins = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "resumekit",
			Subsystem: "plugins",
			Name:      "active_db_plugins",
			Help:      "当前已加载的数据库插件数量。",
		},
	)
)
