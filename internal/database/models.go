package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。IsStaff 控制后台编辑界面的访问权限。
type User struct {
	gorm.Model
	Username     string   `gorm:"uniqueIndex;size:64"`
	PasswordHash string   `gorm:"size:255"`
	IsStaff      bool     `gorm:"default:false"`
	Resumes      []Resume `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

// Resume 表示一份简历页面。PluginData 按插件名分片存储各区块的数据，
// 形如 { "<plugin_name>": <subtree> }，存储中永远不为 null。
type Resume struct {
	gorm.Model
	Name       string            `gorm:"size:255"`
	Slug       string            `gorm:"uniqueIndex;size:255"`
	OwnerID    uint              `gorm:"index"`
	Owner      User              `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	PluginData datatypes.JSONMap `gorm:"type:jsonb"`
}

// BeforeSave 保证 PluginData 落库时永远是对象而不是 null。
func (r *Resume) BeforeSave(_ *gorm.DB) error {
	if r.PluginData == nil {
		r.PluginData = datatypes.JSONMap{}
	}
	return nil
}

// Plugin 表示一条数据库定义的插件行。Schema 是声明式的字段定义（JSON 文本），
// ContentTemplate/FormTemplate 是模板源码文本；Prompt 与 GeneratorModel
// 仅记录生成来源，便于审计。
type Plugin struct {
	gorm.Model
	Name            string `gorm:"uniqueIndex;size:255"`
	GeneratorModel  string `gorm:"column:generator_model;size:255"`
	Prompt          string `gorm:"type:text"`
	Schema          string `gorm:"type:text"`
	ContentTemplate string `gorm:"type:text"`
	FormTemplate    string `gorm:"type:text"`
	IsActive        bool   `gorm:"default:false"`
}
