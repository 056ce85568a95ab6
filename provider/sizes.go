package provider

import "strings"

// 多级尺寸映射：模型ID决定分辨率档位，档位内按宽高比查像素尺寸

// Size 像素尺寸
type Size struct {
	Width  int
	Height int
}

// 1K 标准版 (约 1MP)
var sizeMap1K = map[string]Size{
	"1:1":  {1024, 1024},
	"4:3":  {1152, 896},
	"3:4":  {896, 1152},
	"16:9": {1280, 720},
	"9:16": {720, 1280},
}

// 2K 高清版 (约 4MP)
var sizeMap2K = map[string]Size{
	"1:1":  {2048, 2048},
	"4:3":  {2304, 1728},
	"3:4":  {1728, 2304},
	"16:9": {2688, 1512},
	"9:16": {1512, 2688},
}

// 4K 超高清版 (约 8MP-12MP)
var sizeMap4K = map[string]Size{
	"1:1":  {3072, 3072},
	"4:3":  {3840, 2880},
	"3:4":  {2880, 3840},
	"16:9": {3840, 2160},
	"9:16": {2160, 3840},
}

var openAISizeMap = map[string]string{
	"1:1":  "1024x1024",
	"4:3":  "1024x768",
	"3:4":  "768x1024",
	"16:9": "1280x720",
	"9:16": "720x1280",
}

var standardRatios = []string{"1:1", "4:3", "3:4", "16:9", "9:16"}

func isStandardRatio(ratio string) bool {
	for _, r := range standardRatios {
		if r == ratio {
			return true
		}
	}
	return false
}

// resolveSize 根据模型ID选档位，再按宽高比查尺寸；
// 未知宽高比回退到该档位的 1:1
func resolveSize(modelID, ratio string) (Size, string) {
	lower := strings.ToLower(modelID)
	var m map[string]Size
	var tier string
	switch {
	case strings.Contains(lower, "4k"):
		m, tier = sizeMap4K, "4K"
	case strings.Contains(lower, "2k") || strings.Contains(lower, "doubao"):
		m, tier = sizeMap2K, "2K"
	default:
		m, tier = sizeMap1K, "1K"
	}
	size, ok := m[ratio]
	if !ok {
		size = m["1:1"]
	}
	return size, tier
}

func openAISize(ratio string) string {
	if s, ok := openAISizeMap[ratio]; ok {
		return s
	}
	return "1024x1024"
}
