package database

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SavePluginData 仅更新 plugin_data 中单个插件键（jsonb_set 语义），
// 避免整份文档覆盖导致并发编辑互相冲掉兄弟插件的数据。
func SavePluginData(ctx context.Context, db *gorm.DB, resumeID uint, pluginName string, subtree any) error {
	err := db.WithContext(ctx).
		Model(&Resume{}).
		Where("id = ?", resumeID).
		UpdateColumn("plugin_data", datatypes.JSONSet("plugin_data").Set(pluginName, subtree)).
		Error
	if err != nil {
		return fmt.Errorf("save plugin data %q for resume %d: %w", pluginName, resumeID, err)
	}
	return nil
}

// RemovePluginDataByName 从所有简历中删除指定插件的数据子树。
// 逐行读改写，供后台清理任务使用。
func RemovePluginDataByName(ctx context.Context, db *gorm.DB, pluginName string) (int64, error) {
	var resumes []Resume
	if err := db.WithContext(ctx).Find(&resumes).Error; err != nil {
		return 0, fmt.Errorf("list resumes: %w", err)
	}

	var cleaned int64
	for i := range resumes {
		r := &resumes[i]
		if r.PluginData == nil {
			continue
		}
		if _, ok := r.PluginData[pluginName]; !ok {
			continue
		}
		delete(r.PluginData, pluginName)
		if err := db.WithContext(ctx).Model(r).UpdateColumn("plugin_data", r.PluginData).Error; err != nil {
			return cleaned, fmt.Errorf("clean resume %d: %w", r.ID, err)
		}
		cleaned++
	}
	return cleaned, nil
}
