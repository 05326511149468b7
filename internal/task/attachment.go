package task

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	xerrors "TodoList/internal/errors"
)

// DefaultAttachmentTypes 对应文件选择器接受的类型：图片、PDF、docx 与 xlsx。
var DefaultAttachmentTypes = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".svg",
	".pdf", ".docx", ".xlsx",
}

// AcceptsAttachment 判断文件扩展名是否在允许列表中。allowed 为空时使用默认列表。
func AcceptsAttachment(path string, allowed []string) bool {
	if len(allowed) == 0 {
		allowed = DefaultAttachmentTypes
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, candidate := range allowed {
		if strings.ToLower(candidate) == ext {
			return true
		}
	}
	return false
}

// IsPDF 判断附件地址是否指向 PDF。
func IsPDF(ref string) bool {
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		ref = u.Path
	}
	return strings.EqualFold(filepath.Ext(ref), ".pdf")
}

// LocalUploader 在独立模式下把本地文件解析为 file:// 地址，不发起网络请求。
type LocalUploader struct{}

// Upload 校验文件存在并返回其绝对路径对应的地址。
func (LocalUploader) Upload(_ context.Context, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeUploadFailure, err, "解析附件路径失败",
			xerrors.WithMetadata("path", path))
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeUploadFailure, err, "附件不存在",
			xerrors.WithMetadata("path", path))
	}
	if info.IsDir() {
		return "", xerrors.New(xerrors.CodeUploadFailure, "附件不能是目录",
			xerrors.WithMetadata("path", path))
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

var _ Uploader = LocalUploader{}
