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
)

const chatTimeout = 60 * time.Second

const defaultChatModel = "gemini-3-flash-preview-thinking-*"

// ChatMessage 对话消息；Content 可以是纯文本或多模态片段列表
type ChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ChatParams 一次对话补全调用的全部输入
type ChatParams struct {
	Messages         []ChatMessage
	Model            string
	APIKey           string
	APIURL           string
	VisualDNA        string
	ProductIdentity  string
	ImageModel       string
	Images           [][]byte
	TrackA           [][]byte
	TrackB           [][]byte
	ReferenceImages  []string
	ThoughtSignature string
	ThinkingLevel    string
	Grounding        bool
}

// ChatResult 对话补全的归一化结果
type ChatResult struct {
	Content          string
	ThoughtSignature string
}

// ChatService 对话补全调用方，与图像生成共用同一个重试传输层
type ChatService struct {
	client *transport.Client
}

func NewChatService(c *transport.Client) *ChatService {
	return &ChatService{client: c}
}

// Chat 调用 /chat/completions 并提取回复文本与续接签名
func (s *ChatService) Chat(ctx context.Context, p ChatParams) (ChatResult, error) {
	url := provider.ResolveBaseURL(p.APIURL) + "/chat/completions"
	apiKey := provider.ResolveAPIKey(p.APIKey)

	payload := map[string]interface{}{
		"model":    chatModel(p.Model),
		"messages": s.formatMessages(p),
		"stream":   false,
	}
	if p.ThoughtSignature != "" {
		payload["thought_signature"] = p.ThoughtSignature
	}
	if p.ThinkingLevel != "" {
		payload["thinking_level"] = p.ThinkingLevel
	}
	if p.Grounding {
		payload["tools"] = []map[string]interface{}{
			{
				"google_search_retrieval": map[string]interface{}{
					"dynamic_retrieval_config": map[string]interface{}{
						"mode":              "DYNAMIC",
						"dynamic_threshold": 0.3,
					},
				},
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ChatResult{}, err
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.client.Do(ctx, http.MethodPost, url, header, body, chatTimeout)
	if err != nil {
		return ChatResult{}, err
	}
	return parseChatResponse(resp.Body)
}

func chatModel(model string) string {
	if model != "" {
		return model
	}
	return defaultChatModel
}

// formatMessages 组装系统提示词，并把图像拼进最后一条用户消息
func (s *ChatService) formatMessages(p ChatParams) []ChatMessage {
	systemPrompt := unifiedControllerPrompt
	if p.VisualDNA != "" {
		identity := p.ProductIdentity
		if identity == "" {
			identity = "Standard industrial design"
		}
		systemPrompt = fmt.Sprintf("%s\n\n# Active Visual DNA Context\n%s\n\n# Product Fingerprint\n%s\n\n# Module Instruction: IMAGE_COMPILER\n%s",
			unifiedControllerPrompt, p.VisualDNA, identity, imageCompilerPrompt)
	}
	if p.ImageModel != "" {
		systemPrompt = fmt.Sprintf("# Context: Image Model=%s\n\n%s", p.ImageModel, systemPrompt)
	}
	if len(p.TrackA) > 0 || len(p.TrackB) > 0 {
		systemPrompt += "\n\n# Dual-Track Asset Context\n" +
			"- TRACK A: Product Appearance & Angles (Primary source for Subject Lock/Physical Fingerprint).\n" +
			"- TRACK B: Functional, Internal, or Usage scenarios (Primary source for Visual Strategy & Selling Points).\n"
	}

	formatted := []ChatMessage{{Role: "system", Content: systemPrompt}}
	for i, msg := range p.Messages {
		if i == len(p.Messages)-1 && msg.Role == "user" {
			formatted = append(formatted, ChatMessage{Role: "user", Content: s.multimodalContent(msg, p)})
			continue
		}
		formatted = append(formatted, msg)
	}
	return formatted
}

func (s *ChatService) multimodalContent(msg ChatMessage, p ChatParams) []map[string]interface{} {
	text, _ := msg.Content.(string)
	content := []map[string]interface{}{{"type": "text", "text": text}}

	appendImages := func(images [][]byte) {
		for _, b := range images {
			content = append(content, map[string]interface{}{
				"type":      "image_url",
				"image_url": map[string]string{"url": util.ToDataURI(b)},
			})
		}
	}

	appendImages(p.Images)
	if len(p.TrackA) > 0 {
		content = append(content, map[string]interface{}{"type": "text", "text": "\n[ASSET TRACK A: Product Appearance/Angles]"})
		appendImages(p.TrackA)
	}
	if len(p.TrackB) > 0 {
		content = append(content, map[string]interface{}{"type": "text", "text": "\n[ASSET TRACK B: Functional/Internal/Usage]"})
		appendImages(p.TrackB)
	}
	for _, ref := range p.ReferenceImages {
		if strings.HasPrefix(ref, "data:image") {
			content = append(content, map[string]interface{}{
				"type":      "image_url",
				"image_url": map[string]string{"url": ref},
			})
		}
	}
	return content
}

func parseChatResponse(body []byte) (ChatResult, error) {
	var res struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			ThoughtSignature string `json:"thought_signature"`
		} `json:"choices"`
		ThoughtSignature string `json:"thought_signature"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return ChatResult{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(res.Choices) == 0 {
		return ChatResult{}, fmt.Errorf("chat response has no choices")
	}
	signature := res.Choices[0].ThoughtSignature
	if signature == "" {
		signature = res.ThoughtSignature
	}
	return ChatResult{Content: res.Choices[0].Message.Content, ThoughtSignature: signature}, nil
}
