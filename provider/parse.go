package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// 上游各家返回的结构各不相同，这里统一归一化成带标签的结果，
// 探测顺序固定：output -> data[0].url/b64_json -> image_url -> url/image/img_url

type resultKind int

const (
	// KindEmpty 没有找到任何图像定位符；是否致命由调用方决定
	KindEmpty resultKind = iota
	// KindURL 远程地址或 data URI
	KindURL
	// KindBase64 裸 base64 负载
	KindBase64
)

type parsedResult struct {
	Kind             resultKind
	Locator          string
	ThoughtSignature string
}

// parseGenerationResponse 归一化上游响应体。
// 响应体不是合法JSON时返回错误（UpstreamError 由调用方包装）。
func parseGenerationResponse(body []byte) (parsedResult, error) {
	var root interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return parsedResult{}, fmt.Errorf("decode response: %w", err)
	}

	var locator, signature string

	switch v := root.(type) {
	case map[string]interface{}:
		locator, signature = probeDict(v)
	case []interface{}:
		if len(v) > 0 {
			switch item := v[0].(type) {
			case string:
				locator = item
			case map[string]interface{}:
				locator, signature = probeDict(item)
			}
		}
	default:
		// 整个响应当作定位符
		locator = fmt.Sprintf("%v", root)
	}

	return tagged(locator, signature), nil
}

// probeDict 按固定顺序在字典里探测图像字段，并提取 thought_signature
func probeDict(m map[string]interface{}) (locator, signature string) {
	signature = stringField(m, "thought_signature")

	if out, ok := m["output"]; ok {
		switch o := out.(type) {
		case []interface{}:
			if len(o) > 0 {
				locator = toString(o[0])
			}
		case string:
			if o != "" {
				locator = o
			}
		}
		if locator != "" {
			return
		}
	}

	if data, ok := m["data"].([]interface{}); ok && len(data) > 0 {
		switch item := data[0].(type) {
		case map[string]interface{}:
			if u := stringField(item, "url"); u != "" {
				locator = u
			} else if b := stringField(item, "b64_json"); b != "" {
				locator = b
			}
			if signature == "" {
				signature = stringField(item, "thought_signature")
			}
		case string:
			locator = item
		}
		if locator != "" {
			return
		}
	}

	if u := stringField(m, "image_url"); u != "" {
		locator = u
		return
	}

	for _, key := range []string{"url", "image", "img_url"} {
		if u := stringField(m, key); u != "" {
			locator = u
			return
		}
	}
	return
}

func tagged(locator, signature string) parsedResult {
	p := parsedResult{Locator: locator, ThoughtSignature: signature}
	switch {
	case locator == "":
		p.Kind = KindEmpty
	case strings.HasPrefix(locator, "http") || strings.HasPrefix(locator, "data:"):
		p.Kind = KindURL
	default:
		p.Kind = KindBase64
	}
	return p
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
