package plugin

import (
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"resumekit/internal/database"
)

// 数据访问器是 plugin_data 中各插件子树的唯一修改入口。
// 它们只改内存中的 Resume 对象，落库由调用方负责，便于一次持久化
// 聚合多个插件的修改。

// SimpleData 读写单记录插件的数据子树（一个扁平 JSON 对象）。
type SimpleData struct {
	plugin string
}

// NewSimpleData 返回绑定到指定插件名的访问器。
func NewSimpleData(pluginName string) SimpleData {
	return SimpleData{plugin: pluginName}
}

// Get 返回存储的子树；数据缺失时返回空对象，从不报错。
func (d SimpleData) Get(r *database.Resume) map[string]any {
	if r.PluginData == nil {
		return map[string]any{}
	}
	sub, ok := r.PluginData[d.plugin].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return sub
}

// Set 整体替换子树；plugin_data 为 nil 时先初始化为空对象。
func (d SimpleData) Set(r *database.Resume, data map[string]any) {
	if r.PluginData == nil {
		r.PluginData = datatypes.JSONMap{}
	}
	r.PluginData[d.plugin] = data
}

// Subtree 返回当前子树，作为持久化时的 patch 值。
func (d SimpleData) Subtree(r *database.Resume) any {
	return d.Get(r)
}

// ListData 读写集合插件的数据子树，形如 {"items": [...], "flat": {...}}。
// items 与 flat 各自独立地默认为空。
type ListData struct {
	plugin string
}

// NewListData 返回绑定到指定插件名的访问器。
func NewListData(pluginName string) ListData {
	return ListData{plugin: pluginName}
}

func (d ListData) subtree(r *database.Resume) map[string]any {
	if r.PluginData == nil {
		return map[string]any{}
	}
	sub, ok := r.PluginData[d.plugin].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return sub
}

func (d ListData) setSubtree(r *database.Resume, sub map[string]any) {
	if r.PluginData == nil {
		r.PluginData = datatypes.JSONMap{}
	}
	r.PluginData[d.plugin] = sub
}

// Items 返回条目列表；缺失时返回空列表。
func (d ListData) Items(r *database.Resume) []map[string]any {
	return coerceItems(d.subtree(r)["items"])
}

// Flat 返回区块级元数据；缺失时返回空对象。
func (d ListData) Flat(r *database.Resume) map[string]any {
	flat, ok := d.subtree(r)["flat"].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return flat
}

// CreateItem 为条目分配一个新的 UUID id 并追加到列表尾部，返回该条目。
// 调用方传入的 id 会被覆盖，保证 id 总是服务端生成的。
func (d ListData) CreateItem(r *database.Resume, item map[string]any) map[string]any {
	item["id"] = uuid.NewString()
	sub := d.subtree(r)
	sub["items"] = append(d.Items(r), item)
	d.setSubtree(r, sub)
	return item
}

// UpdateItem 按 id 合并字段：传入的键覆盖，未传入的键保留。
// 返回是否找到了对应条目；找不到时不做任何修改。
func (d ListData) UpdateItem(r *database.Resume, item map[string]any) bool {
	id, _ := item["id"].(string)
	if id == "" {
		return false
	}
	items := d.Items(r)
	for _, existing := range items {
		if existing["id"] == id {
			for k, v := range item {
				existing[k] = v
			}
			sub := d.subtree(r)
			sub["items"] = items
			d.setSubtree(r, sub)
			return true
		}
	}
	return false
}

// DeleteItem 删除第一个 id 匹配的条目，返回是否找到。
func (d ListData) DeleteItem(r *database.Resume, id string) bool {
	items := d.Items(r)
	for i, existing := range items {
		if existing["id"] == id {
			sub := d.subtree(r)
			sub["items"] = append(items[:i], items[i+1:]...)
			d.setSubtree(r, sub)
			return true
		}
	}
	return false
}

// SetFlat 整体替换 flat 子对象，与条目的生命周期互不影响。
func (d ListData) SetFlat(r *database.Resume, flat map[string]any) {
	sub := d.subtree(r)
	sub["flat"] = flat
	d.setSubtree(r, sub)
}

// Subtree 返回当前子树，作为持久化时的 patch 值。
func (d ListData) Subtree(r *database.Resume) any {
	return d.subtree(r)
}

// ItemsOrderedByPosition 按 position 字段升序稳定排序，缺失按 0 处理，
// 相同 position 保持原有顺序；reverse 为 true 时降序。
func ItemsOrderedByPosition(items []map[string]any, reverse bool) []map[string]any {
	ordered := make([]map[string]any, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := PositionOf(ordered[i]), PositionOf(ordered[j])
		if reverse {
			return a > b
		}
		return a < b
	})
	return ordered
}

// PositionOf 读取条目的 position 值，兼容 JSON 反序列化产生的 float64。
func PositionOf(item map[string]any) int {
	return coercePosition(item["position"])
}

// coerceItems 兼容 JSON 反序列化后的 []any 形态。
func coerceItems(raw any) []map[string]any {
	switch v := raw.(type) {
	case []map[string]any:
		return v
	case []any:
		items := make([]map[string]any, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items
	default:
		return []map[string]any{}
	}
}
