package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypePluginPurge = "plugin:purge_data"
)

// PluginPurgePayload 描述待清理的插件数据。
type PluginPurgePayload struct {
	PluginName    string `json:"plugin_name"`
	CorrelationID string `json:"correlation_id"`
}

// NewPluginPurgeTask 构造一个清理插件数据的任务：
// 把指定插件名下的数据从所有简历里移除。
func NewPluginPurgeTask(pluginName, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PluginPurgePayload{
		PluginName:    pluginName,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePluginPurge, payload), nil
}
