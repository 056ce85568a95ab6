package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Metadata 每次生成落盘的元数据记录
type Metadata struct {
	Timestamp           int64  `json:"timestamp"`
	OriginalPrompt      string `json:"original_prompt"`
	OptimizedPrompt     string `json:"optimized_prompt"`
	Scenario            string `json:"scenario"`
	Model               string `json:"model"`
	Ratio               string `json:"ratio"`
	LayoutLogic         string `json:"layout_logic"`
	OriginalImagesCount int    `json:"original_images_count"`
}

// SaveHistoryFiles 把最终图像、原始参考图和元数据写入历史目录。
// 返回保存后的图像相对URL（图像未能落盘时为空）和原始图的相对URL列表。
func SaveHistoryFiles(dir string, image string, originals [][]byte, meta Metadata) (string, []string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, err
	}
	ts := meta.Timestamp

	savedURL := ""
	if image != "" {
		var data []byte
		var err error
		switch {
		case strings.HasPrefix(image, "data:image"):
			data, err = DecodeDataURI(image)
		case strings.HasPrefix(image, "http"):
			data, err = DownloadImage(image)
		default:
			err = fmt.Errorf("unrecognized image format: %.50s", image)
		}
		if err == nil {
			path := filepath.Join(dir, fmt.Sprintf("%d.png", ts))
			if werr := os.WriteFile(path, data, 0o644); werr == nil {
				savedURL = fmt.Sprintf("/static/history/%d.png", ts)
			}
		}
	}

	originalURLs := make([]string, 0, len(originals))
	for i, b := range originals {
		name := fmt.Sprintf("%d_orig_%d.jpg", ts, i)
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			return savedURL, originalURLs, err
		}
		originalURLs = append(originalURLs, "/static/history/"+name)
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return savedURL, originalURLs, err
	}
	if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("%d.json", ts)), metaBytes, 0o644); err != nil {
		return savedURL, originalURLs, err
	}
	return savedURL, originalURLs, nil
}
