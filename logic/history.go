package logic

import (
	"context"
	"strings"

	"T2I/dao/store"
	"T2I/util"

	"go.uber.org/zap"
)

// HistoryEntry 一次生成需要持久化的内容
type HistoryEntry struct {
	Timestamp int64
	Image     string // data URI 或远程URL
	Originals [][]byte
	Meta      util.Metadata
}

// HistorySink 持久化协作方：写入成功返回保存后的图像URL，
// 失败由流水线记日志后继续（持久化不是正确性关键）
type HistorySink interface {
	Save(ctx context.Context, e HistoryEntry) (savedURL string, originalURLs []string, err error)
}

// localHistory 落盘到历史目录，并尽力写入Redis历史索引
type localHistory struct {
	dir string
}

func NewHistorySink(dir string) HistorySink {
	return &localHistory{dir: dir}
}

func (h *localHistory) Save(ctx context.Context, e HistoryEntry) (string, []string, error) {
	savedURL, originalURLs, err := util.SaveHistoryFiles(h.dir, e.Image, e.Originals, e.Meta)
	if err != nil {
		return savedURL, originalURLs, err
	}

	if store.GetRedis() != nil {
		indexURL := savedURL
		if indexURL == "" && strings.HasPrefix(e.Image, "http") {
			indexURL = e.Image
		}
		rec := store.HistoryRecord{
			Timestamp: e.Timestamp,
			URL:       indexURL,
			Prompt:    e.Meta.OptimizedPrompt,
			Model:     e.Meta.Model,
			Ratio:     e.Meta.Ratio,
			Scenario:  e.Meta.Scenario,
		}
		if ierr := store.SaveRecord(ctx, rec); ierr != nil {
			zap.L().Warn("failed to index history record", zap.Int64("timestamp", e.Timestamp), zap.Error(ierr))
		}
	}
	return savedURL, originalURLs, nil
}
