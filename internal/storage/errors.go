package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

// S3 错误分类。minio-go 在部分调用路径上只给出包装后的字符串，
// 所以结构化匹配失败时还要再按错误文本兜底判断一次。

func s3Code(err error) string {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return strings.ToLower(strings.TrimSpace(resp.Code))
	}
	return ""
}

// IsNoSuchKey 报告错误是否表示对象不存在。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	switch s3Code(err) {
	case "nosuchkey", "notfound":
		return true
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "nosuchkey") ||
		strings.Contains(text, "specified key does not exist") ||
		strings.Contains(text, "not found")
}

// IsNoSuchBucket 报告错误是否表示 Bucket 不存在。
func IsNoSuchBucket(err error) bool {
	if err == nil {
		return false
	}
	if s3Code(err) == "nosuchbucket" {
		return true
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "nosuchbucket") ||
		strings.Contains(text, "specified bucket does not exist")
}
