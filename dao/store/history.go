package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// 历史索引：每条生成记录一个hash，另有一个按时间戳排序的zset做时间线

var ErrNotInitialized = errors.New("redis not initialized")

// HistoryRecord 历史索引中的一条生成记录
type HistoryRecord struct {
	Timestamp int64  `json:"timestamp"`
	URL       string `json:"url"`
	Prompt    string `json:"prompt"`
	Model     string `json:"model"`
	Ratio     string `json:"ratio"`
	Scenario  string `json:"scenario"`
}

// HistoryPage 游标分页结果
type HistoryPage struct {
	Records    []HistoryRecord `json:"records"`
	NextCursor string          `json:"next_cursor"`
	HasMore    bool            `json:"has_more"`
	PageSize   int             `json:"page_size"`
}

const historyIndexKey = "history:index"

func historyKey(ts int64) string {
	return "history:" + strconv.FormatInt(ts, 10)
}

// SaveRecord 写入一条历史记录（hash + zset 放在同一个 pipeline）
func SaveRecord(ctx context.Context, rec HistoryRecord) error {
	if client == nil {
		return ErrNotInitialized
	}
	fields := map[string]interface{}{
		"timestamp": rec.Timestamp,
		"url":       rec.URL,
		"prompt":    rec.Prompt,
		"model":     rec.Model,
		"ratio":     rec.Ratio,
		"scenario":  rec.Scenario,
	}
	pipe := client.Pipeline()
	pipe.HSet(ctx, historyKey(rec.Timestamp), fields)
	pipe.ZAdd(ctx, historyIndexKey, &redis.Z{
		Score:  float64(rec.Timestamp),
		Member: strconv.FormatInt(rec.Timestamp, 10),
	})
	_, err := pipe.Exec(ctx)
	return err
}

// ListHistory 按时间倒序分页读取历史记录。
// cursor 为空表示第一页，否则传上一页返回的 next_cursor。
func ListHistory(ctx context.Context, cursor string, pageSize int) (*HistoryPage, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}

	max := "+inf"
	if cursor != "" {
		if _, err := strconv.ParseInt(cursor, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid cursor: %q", cursor)
		}
		// 游标是上一页最后一条的时间戳，本页从它之前开始
		max = "(" + cursor
	}

	members, err := client.ZRevRangeByScore(ctx, historyIndexKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   max,
		Count: int64(pageSize + 1),
	}).Result()
	if err != nil {
		return nil, err
	}

	hasMore := len(members) > pageSize
	if hasMore {
		members = members[:pageSize]
	}

	page := &HistoryPage{PageSize: pageSize, HasMore: hasMore}
	for _, m := range members {
		ts, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		hash, err := client.HGetAll(ctx, historyKey(ts)).Result()
		if err != nil || len(hash) == 0 {
			continue
		}
		page.Records = append(page.Records, HistoryRecord{
			Timestamp: ts,
			URL:       hash["url"],
			Prompt:    hash["prompt"],
			Model:     hash["model"],
			Ratio:     hash["ratio"],
			Scenario:  hash["scenario"],
		})
	}
	if hasMore && len(members) > 0 {
		page.NextCursor = members[len(members)-1]
	}
	return page, nil
}
