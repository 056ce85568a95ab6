package models

import "T2I/settings"

// 提供商报文格式
const (
	ProviderDefault    = "default"
	ProviderComfly     = "comfly"
	ProviderComflyJSON = "comfly_json"
	ProviderOpenAI     = "openai"
	ProviderArk        = "ark"
)

// DefaultModelID 未注册的模型ID统一回退到这里
const DefaultModelID = "nano_banana_2"

// ModelDescriptor 模型注册表条目
type ModelDescriptor struct {
	Name        string
	ModelKey    string
	Provider    string
	Description string
}

// ModelRegistry 模型ID -> 描述符的静态注册表
var ModelRegistry = map[string]ModelDescriptor{
	"nano_banana_2": {
		Name:        "Nano Banana 2 (基础版)",
		ModelKey:    "", // 空表示使用配置中的默认 model key
		Provider:    ProviderDefault,
		Description: "速度快，通用性强",
	},
	"comfly_nano_banana": {
		Name:        "Comfly Nano Banana 2 (官方源)",
		ModelKey:    "nano-banana-2",
		Provider:    ProviderComfly,
		Description: "Comfly 官方渠道，支持文生图与图生图",
	},
	"nano_banana_official": {
		Name:        "Nano Banana (Google)",
		ModelKey:    "nano-banana",
		Provider:    ProviderComfly,
		Description: "支持文生图、图生图、多图生图",
	},
	"nano_banana_2_2k": {
		Name:        "Nano Banana 2-2k (高清版)",
		ModelKey:    "nano-banana-2-2k",
		Provider:    ProviderComfly,
		Description: "高清版，支持 1K/2K/4K 分辨率控制",
	},
	"nano_banana_2_4k": {
		Name:        "Nano Banana 2-4k (超高清版)",
		ModelKey:    "nano-banana-2-4k",
		Provider:    ProviderComfly,
		Description: "超高清版，默认 4K 分辨率输出",
	},
	"doubao_seedream_4_0": {
		Name:        "Doubao Seedream 4.0 (即梦4)",
		ModelKey:    "doubao-seedream-4-0-250828",
		Provider:    ProviderComfly,
		Description: "即梦4.0，画质细腻",
	},
	"doubao_seedream_4_5": {
		Name:        "Doubao Seedream 4.5 (即梦4.5)",
		ModelKey:    "doubao-seedream-4-5-251128",
		Provider:    ProviderComflyJSON,
		Description: "即梦4.5，支持多模态生成",
	},
	"doubao_seedream_ark": {
		Name:        "Doubao Seedream 4.0 (火山直连)",
		ModelKey:    "doubao-seedream-4-0-250828",
		Provider:    ProviderArk,
		Description: "火山方舟SDK直连渠道",
	},
	"gpt_image_1_5": {
		Name:        "GPT-Image-1.5 (OpenAI)",
		ModelKey:    "gpt-image-1.5",
		Provider:    ProviderOpenAI,
		Description: "OpenAI 图像生成模型",
	},
}

// GetModel 按模型ID解析描述符；未注册的ID回退到默认条目而不是报错
func GetModel(modelID string) ModelDescriptor {
	desc, ok := ModelRegistry[modelID]
	if !ok {
		desc = ModelRegistry[DefaultModelID]
	}
	if desc.ModelKey == "" {
		desc.ModelKey = settings.Conf.ModelKey
	}
	return desc
}
