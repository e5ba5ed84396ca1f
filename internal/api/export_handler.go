package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumekit/internal/api/middleware"
	"resumekit/internal/database"
	"resumekit/internal/errcode"
	"resumekit/internal/plugin"
	"resumekit/internal/storage"
)

// ExportWarning 描述导出过程中被降级处理的内容。
type ExportWarning struct {
	Code        int      `json:"code"`
	Message     string   `json:"message"`
	Plugin      string   `json:"plugin,omitempty"`
	MissingKeys []string `json:"missing_keys,omitempty"`
}

// exportDocument 是导出端点返回的完整 JSON 文档。Plugins 只包含
// 当前已注册插件的数据，停用插件的残留数据以 warning 形式报告。
type exportDocument struct {
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Plugins  map[string]any  `json:"plugins"`
	Warnings []ExportWarning `json:"warnings,omitempty"`
}

// ExportResume 把一份简历的全部插件数据打包成单个 JSON 文档，
// 图片资产内联为 data URI，便于离线渲染或打印。仅属主可导出。
func (h *ResumeHandler) ExportResume(c *gin.Context) {
	res, ok := h.ownedResume(c)
	if !ok {
		return
	}

	doc, err := buildExportDocument(c.Request.Context(), h.registry, h.storage, res)
	if err != nil {
		middleware.LoggerFromContext(c).Error("export resume failed",
			slog.String("slug", res.Slug), slog.Any("error", err))
		ErrorWithCode(c, http.StatusInternalServerError, "export failed", errcode.SystemError)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// buildExportDocument 组装导出文档。storageClient 为 nil 时跳过图片内联，
// 对象键原样保留。
func buildExportDocument(ctx context.Context, registry *plugin.Registry, storageClient *storage.Client, res *database.Resume) (exportDocument, error) {
	doc := exportDocument{
		Name:    res.Name,
		Slug:    res.Slug,
		Plugins: map[string]any{},
	}

	missing := make([]string, 0)
	for name, subtree := range res.PluginData {
		if _, ok := registry.Get(name); !ok {
			// 停用或已删除的插件：数据不导出，只报告
			doc.Warnings = append(doc.Warnings, ExportWarning{
				Code:    errcode.PluginMissing,
				Message: "plugin is not installed, its data was excluded",
				Plugin:  name,
			})
			continue
		}

		inlined, err := inlineAssetRefs(ctx, storageClient, res.ID, subtree, &missing)
		if err != nil {
			return exportDocument{}, err
		}
		doc.Plugins[name] = inlined
	}

	if len(missing) > 0 {
		doc.Warnings = append(doc.Warnings, ExportWarning{
			Code:        errcode.ResourceMissing,
			Message:     "some referenced assets could not be inlined",
			MissingKeys: missing,
		})
	}
	return doc, nil
}

// inlineAssetRefs 递归遍历插件数据，把指向本简历资产前缀的字符串值
// 替换为 data URI。对象不存在时置空并记入 missing；Bucket 级错误
// 视为系统故障向上返回。
func inlineAssetRefs(ctx context.Context, storageClient *storage.Client, resumeID uint, value any, missing *[]string) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, nested := range v {
			inlined, err := inlineAssetRefs(ctx, storageClient, resumeID, nested, missing)
			if err != nil {
				return nil, err
			}
			out[k] = inlined
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, nested := range v {
			inlined, err := inlineAssetRefs(ctx, storageClient, resumeID, nested, missing)
			if err != nil {
				return nil, err
			}
			out[i] = inlined
		}
		return out, nil
	case string:
		if !strings.HasPrefix(v, assetPrefix(resumeID)) {
			return v, nil
		}
		if !isValidAssetObjectKey(resumeID, v) {
			*missing = append(*missing, v)
			return "", nil
		}
		if storageClient == nil {
			return v, nil
		}
		return fetchAssetDataURI(ctx, storageClient, v, missing)
	default:
		return v, nil
	}
}

func fetchAssetDataURI(ctx context.Context, storageClient *storage.Client, objectKey string, missing *[]string) (any, error) {
	obj, err := storageClient.GetObject(ctx, objectKey)
	if err != nil {
		if storage.IsNoSuchBucket(err) {
			return nil, fmt.Errorf("asset bucket does not exist: %w", err)
		}
		if storage.IsNoSuchKey(err) {
			*missing = append(*missing, objectKey)
			return "", nil
		}
		return nil, fmt.Errorf("fetch asset %q: %w", objectKey, err)
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		if storage.IsNoSuchBucket(err) {
			return nil, fmt.Errorf("asset bucket does not exist: %w", err)
		}
		if storage.IsNoSuchKey(err) {
			*missing = append(*missing, objectKey)
			return "", nil
		}
		return nil, fmt.Errorf("stat asset %q: %w", objectKey, err)
	}

	raw, err := io.ReadAll(obj)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			*missing = append(*missing, objectKey)
			return "", nil
		}
		return nil, fmt.Errorf("read asset %q: %w", objectKey, err)
	}

	contentType := stat.ContentType
	if strings.TrimSpace(contentType) == "" {
		contentType = "image/png"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}
