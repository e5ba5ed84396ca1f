package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"resumekit/internal/database"
	"resumekit/internal/tasks"
)

// PurgeTaskHandler 消费插件数据清理任务：插件行被删除后，
// 把它留在各份简历 plugin_data 里的子树逐行摘掉。
type PurgeTaskHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewPurgeTaskHandler 创建任务处理器。
func NewPurgeTaskHandler(db *gorm.DB, logger *slog.Logger) *PurgeTaskHandler {
	return &PurgeTaskHandler{
		db:     db,
		logger: logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *PurgeTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.PluginPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("plugin", payload.PluginName),
	)
	log.Info("starting plugin data purge")

	removed, err := database.RemovePluginDataByName(ctx, h.db, payload.PluginName)
	if err != nil {
		log.Error("purge plugin data failed", slog.Any("error", err))
		return err
	}

	log.Info("plugin data purge finished", slog.Int64("resumes_touched", removed))
	return nil
}
