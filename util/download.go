package util

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const downloadTimeout = 30 * time.Second

// DownloadImage 下载远程图像，最多尝试两次，间隔2秒
func DownloadImage(imageURL string) ([]byte, error) {
	client := &http.Client{Timeout: downloadTimeout}
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			time.Sleep(2 * time.Second)
		}
		b, err := downloadOnce(client, imageURL)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func downloadOnce(client *http.Client, imageURL string) ([]byte, error) {
	resp, err := client.Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("下载请求失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载失败，状态码: %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return b, nil
}

// ToDataURI 把图像字节编码成内联 data URI
func ToDataURI(b []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b)
}

// DecodeDataURI 解出 data URI 中的图像字节
func DecodeDataURI(s string) ([]byte, error) {
	_, encoded, ok := strings.Cut(s, ",")
	if !ok {
		return nil, errors.New("invalid data uri")
	}
	return base64.StdEncoding.DecodeString(encoded)
}
