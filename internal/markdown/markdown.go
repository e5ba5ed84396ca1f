package markdown

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// 长文本字段（about、cover 等）允许少量行内标记。渲染前统一经过
// bluemonday 白名单清洗，存储里的任何脚本都到不了页面。

var policy = bluemonday.UGCPolicy()

// ToHTML 把存储的长文本转成可嵌入页面的 HTML：
// 双换行分段，单换行转 <br>，其余标记按 UGC 白名单过滤。
func ToHTML(text string) template.HTML {
	sanitized := policy.Sanitize(text)
	paragraphs := strings.Split(strings.ReplaceAll(sanitized, "\r\n", "\n"), "\n\n")
	var sb strings.Builder
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(strings.ReplaceAll(p, "\n", "<br>"))
		sb.WriteString("</p>")
	}
	return template.HTML(sb.String())
}

// TextareaInput 把存储文本还原为 textarea 的编辑形态。
func TextareaInput(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
