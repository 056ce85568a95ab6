package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"T2I/pkg/transport"
	"T2I/provider"
	"T2I/util"

	"go.uber.org/zap"
)

const optimizeTimeout = 60 * time.Second

const optimizeModel = "gemini-3-pro-preview"

// ProgressFunc 供优化器向任务注册表回写进度
type ProgressFunc func(progress int, message string)

// Optimizer 提示词优化协作方。返回值可能是JSON提案，也可能是
// 降级后的普通文本；出错时调用方回退到原始提示词。
type Optimizer interface {
	Optimize(ctx context.Context, prompt, scenario string, images [][]byte, apiKey, apiURL string, progress ProgressFunc) (string, error)
}

// PromptService 两阶段提示词优化：先提取产品视觉指纹，再生成双核提示词
type PromptService struct {
	client *transport.Client
}

func NewPromptService(c *transport.Client) *PromptService {
	return &PromptService{client: c}
}

func (s *PromptService) Optimize(ctx context.Context, prompt, scenario string, images [][]byte, apiKey, apiURL string, progress ProgressFunc) (string, error) {
	finalKey := provider.ResolveAPIKey(apiKey)
	if finalKey == "" {
		return "", fmt.Errorf("no api key available for optimization")
	}
	url := provider.ResolveBaseURL(apiURL) + "/chat/completions"

	// 阶段一：多视角视觉指纹提取
	fingerprint := map[string]interface{}{}
	if len(images) > 0 {
		progress(18, fmt.Sprintf("🔍 正在使用 %s 分析 %d 张图片...", optimizeModel, len(images)))
		fp, err := s.extractFingerprint(ctx, url, finalKey, images, progress)
		if err != nil {
			// 指纹失败不致命，继续不带指纹生成
			zap.L().Warn("fingerprint extraction failed", zap.Error(err))
		} else {
			fingerprint = fp
		}
		progress(25, "✅ 产品特征提取完成")
	}

	// 阶段二：双核提示词引擎
	progress(28, fmt.Sprintf("📝 正在使用 %s 生成优化提示词...", optimizeModel))
	return s.generatePrompts(ctx, url, finalKey, prompt, scenario, fingerprint, images, progress)
}

func (s *PromptService) extractFingerprint(ctx context.Context, url, apiKey string, images [][]byte, progress ProgressFunc) (map[string]interface{}, error) {
	progress(20, "📷 正在编码图片数据...")

	content := []map[string]interface{}{
		{"type": "text", "text": "Analyze these product images and extract the visual fingerprint."},
	}
	for _, b := range images {
		content = append(content, map[string]interface{}{
			"type":      "image_url",
			"image_url": map[string]string{"url": util.ToDataURI(b)},
		})
	}

	payload := map[string]interface{}{
		"model": optimizeModel,
		"messages": []map[string]interface{}{
			{"role": "system", "content": fmt.Sprintf(productLockPrompt, len(images))},
			{"role": "user", "content": content},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	progress(22, fmt.Sprintf("🚀 正在调用 %s 提取产品特征...", optimizeModel))
	raw, err := s.postChat(ctx, url, apiKey, payload)
	if err != nil {
		return nil, err
	}
	var fp map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fp); err != nil {
		return nil, fmt.Errorf("fingerprint not valid json: %w", err)
	}
	return fp, nil
}

func (s *PromptService) generatePrompts(ctx context.Context, url, apiKey, prompt, scenario string, fingerprint map[string]interface{}, images [][]byte, progress ProgressFunc) (string, error) {
	system := fmt.Sprintf("%s\n\n# Current Mode Template\n%s", mainEngineInstruction, modeTemplate(scenario))

	userText := "User Request: " + prompt
	if len(fingerprint) > 0 {
		fpJSON, _ := json.MarshalIndent(fingerprint, "", "  ")
		userText += "\n\n[Subject Lock - Visual Fingerprint]:\n" + string(fpJSON)
	}
	content := []map[string]interface{}{{"type": "text", "text": userText}}
	for _, b := range images {
		content = append(content, map[string]interface{}{
			"type":      "image_url",
			"image_url": map[string]string{"url": util.ToDataURI(b)},
		})
	}

	payload := map[string]interface{}{
		"model": optimizeModel,
		"messages": []map[string]interface{}{
			{"role": "system", "content": system},
			{"role": "user", "content": content},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	progress(29, fmt.Sprintf("🚀 正在调用 %s 生成双核提示词...", optimizeModel))
	raw, err := s.postChat(ctx, url, apiKey, payload)
	if err != nil {
		return "", err
	}

	// 校验JSON；失败时尝试从markdown代码块里抠出来，
	// 仍失败就原样返回，由流水线当普通文本处理
	if json.Valid([]byte(raw)) {
		return raw, nil
	}
	if extracted, ok := extractJSONBlock(raw); ok {
		return extracted, nil
	}
	zap.L().Warn("optimizer output is not valid json, using raw text", zap.Int("len", len(raw)))
	return raw, nil
}

func (s *PromptService) postChat(ctx context.Context, url, apiKey string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.client.Do(ctx, http.MethodPost, url, header, body, optimizeTimeout)
	if err != nil {
		return "", err
	}
	result, err := parseChatResponse(resp.Body)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// extractJSONBlock 从 ```json 围栏里提取JSON
func extractJSONBlock(s string) (string, bool) {
	_, after, ok := strings.Cut(s, "```json")
	if !ok {
		return "", false
	}
	block, _, ok := strings.Cut(after, "```")
	if !ok {
		return "", false
	}
	block = strings.TrimSpace(block)
	if !json.Valid([]byte(block)) {
		return "", false
	}
	return block, true
}

// optimizedSelection 从优化结果里选出的最终生成参数
type optimizedSelection struct {
	FinalPrompt   string
	LayoutLogic   string
	ThinkingLevel string
	IdentityRef   *int
	LogicRef      *int
}

// selectFinalPrompt 解析优化结果并按模型族选择语言变体。
// 解析失败不致命：原始文本直接用作最终提示词。
func selectFinalPrompt(raw, modelID string) optimizedSelection {
	sel := optimizedSelection{FinalPrompt: raw}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return sel
	}

	if tl, ok := data["thinking_level"].(string); ok {
		sel.ThinkingLevel = tl
	}
	if proposal, ok := data["proposal"].(map[string]interface{}); ok {
		if v, ok := proposal["identity_ref"].(float64); ok {
			i := int(v)
			sel.IdentityRef = &i
		}
		if v, ok := proposal["logic_ref"].(float64); ok {
			i := int(v)
			sel.LogicRef = &i
		}
	}

	// 多屏策略格式：取第一屏
	if strategy, ok := data["luxury_visual_strategy"].(map[string]interface{}); ok {
		screens, _ := strategy["screens"].([]interface{})
		if len(screens) > 0 {
			if first, ok := screens[0].(map[string]interface{}); ok {
				if p, ok := first["positive_prompt"].(string); ok && p != "" {
					sel.FinalPrompt = p
				}
				name, _ := first["screen_name_zh"].(string)
				if name == "" {
					name = "1"
				}
				rules := ""
				if handbook, ok := strategy["visual_grammar_handbook"].(map[string]interface{}); ok {
					rules = fmt.Sprintf("%v", handbook["composition_rules"])
				}
				sel.LayoutLogic = fmt.Sprintf("Screen: %s\n%s", name, rules)
			}
		}
		return sel
	}

	// 标准双核格式：seadream 族用中文提示词，其余用英文
	lower := strings.ToLower(modelID)
	isSeadream := strings.Contains(lower, "doubao") || strings.Contains(lower, "seadream")
	en, _ := data["nano_banana_en"].(string)
	cn, _ := data["seadream_cn"].(string)
	if isSeadream {
		sel.FinalPrompt = firstNonEmpty(cn, en, raw)
	} else {
		sel.FinalPrompt = firstNonEmpty(en, cn, raw)
	}
	if layout, ok := data["layout_logic"].(string); ok {
		sel.LayoutLogic = layout
	}
	return sel
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
