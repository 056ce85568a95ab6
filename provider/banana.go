package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"T2I/models"
	"T2I/pkg/transport"
	"T2I/settings"

	"go.uber.org/zap"
)

const generateTimeout = 120 * time.Second

// UpstreamError 上游响应不可恢复：HTTP错误状态或无法解析的响应结构
type UpstreamError struct {
	Message string
	Body    string
}

func (e *UpstreamError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s - Detail: %s", e.Message, e.Body)
	}
	return e.Message
}

// Adapter 把统一的生成请求翻译成各提供商的报文格式，
// 并把各家的响应归一化成一个结果
type Adapter struct {
	client *transport.Client
}

func NewAdapter(c *transport.Client) *Adapter {
	return &Adapter{client: c}
}

// Generate 执行一次图像生成调用
func (a *Adapter) Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	ratio := strings.TrimSpace(req.Ratio)
	desc := models.GetModel(req.ModelID)
	size, tier := resolveSize(req.ModelID, ratio)

	apiKey := ResolveAPIKey(req.APIKey)
	baseURL := ResolveBaseURL(req.APIURL)

	zap.L().Info("generating image",
		zap.String("model", req.ModelID),
		zap.String("model_key", desc.ModelKey),
		zap.String("provider", desc.Provider),
		zap.String("ratio", ratio),
		zap.String("tier", tier),
		zap.Int("width", size.Width),
		zap.Int("height", size.Height),
		zap.Int("images", len(req.Images)))

	if desc.Provider == models.ProviderArk {
		return a.generateArk(ctx, req, desc, tier)
	}

	var (
		resp *transport.Response
		err  error
	)
	switch {
	case len(req.Images) > 0 && desc.Provider == models.ProviderComfly:
		resp, err = a.postMultipartEdits(ctx, baseURL, apiKey, desc, ratio, tier, req)
	case desc.Provider == models.ProviderOpenAI:
		resp, err = a.postOpenAI(ctx, baseURL, apiKey, desc, ratio, req)
	default:
		resp, err = a.postJSON(ctx, baseURL, apiKey, desc, ratio, tier, size, req)
	}
	if err != nil {
		var se *transport.StatusError
		if errors.As(err, &se) {
			return models.GenerationResult{}, &UpstreamError{
				Message: fmt.Sprintf("server returned %d", se.StatusCode),
				Body:    string(se.Body),
			}
		}
		return models.GenerationResult{}, err
	}

	parsed, err := parseGenerationResponse(resp.Body)
	if err != nil {
		zap.L().Error("unparseable generation response",
			zap.Error(err), zap.ByteString("body", resp.Body))
		return models.GenerationResult{}, &UpstreamError{Message: err.Error(), Body: string(resp.Body)}
	}
	if parsed.Kind == KindEmpty {
		zap.L().Warn("no image locator in generation response", zap.ByteString("body", resp.Body))
	}
	return models.GenerationResult{URL: parsed.Locator, ThoughtSignature: parsed.ThoughtSignature}, nil
}

// postMultipartEdits 图生图：multipart 表单，多张参考图共用 image 字段
func (a *Adapter) postMultipartEdits(ctx context.Context, baseURL, apiKey string, desc models.ModelDescriptor, ratio, tier string, req models.GenerationRequest) (*transport.Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for i, img := range req.Images {
		part, err := createImagePart(w, "image", fmt.Sprintf("image_%d.png", i))
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(img); err != nil {
			return nil, err
		}
	}
	if req.Mask != nil {
		part, err := createImagePart(w, "mask", "mask.png")
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(req.Mask); err != nil {
			return nil, err
		}
	}

	fields := map[string]string{
		"prompt":          req.Prompt,
		"model":           desc.ModelKey,
		"n":               "1",
		"aspect_ratio":    ratio,
		"strength":        "0.7",
		"response_format": "url",
		"image_size":      tier,
	}
	if req.ThoughtSignature != "" {
		fields["thought_signature"] = req.ThoughtSignature
	}
	if req.ThinkingLevel != "" {
		fields["thinking_level"] = req.ThinkingLevel
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)
	header.Set("Content-Type", w.FormDataContentType())
	return a.client.Do(ctx, http.MethodPost, baseURL+"/images/edits", header, buf.Bytes(), generateTimeout)
}

func createImagePart(w *multipart.Writer, field, filename string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", "image/png")
	return w.CreatePart(h)
}

// postOpenAI 文生图：OpenAI 风格 JSON，尺寸用 "1024x1024" 字符串
func (a *Adapter) postOpenAI(ctx context.Context, baseURL, apiKey string, desc models.ModelDescriptor, ratio string, req models.GenerationRequest) (*transport.Response, error) {
	payload := map[string]interface{}{
		"model":           desc.ModelKey,
		"prompt":          req.Prompt,
		"size":            openAISize(ratio),
		"n":               1,
		"response_format": "url",
	}
	return a.postJSONPayload(ctx, baseURL+"/images/generations", apiKey, payload)
}

// postJSON 标准JSON与 comfly_json 两种变体
func (a *Adapter) postJSON(ctx context.Context, baseURL, apiKey string, desc models.ModelDescriptor, ratio, tier string, size Size, req models.GenerationRequest) (*transport.Response, error) {
	payload := map[string]interface{}{
		"prompt":          req.Prompt,
		"negative_prompt": "",
		"model":           desc.ModelKey,
	}
	if req.ThoughtSignature != "" {
		payload["thought_signature"] = req.ThoughtSignature
	}
	if req.ThinkingLevel != "" {
		payload["thinking_level"] = req.ThinkingLevel
	}

	if desc.Provider == models.ProviderComflyJSON {
		payload["size"] = fmt.Sprintf("%dx%d", size.Width, size.Height)
		payload["image_size"] = tier
		payload["n"] = 1
		payload["response_format"] = "url"
		if len(req.Images) > 0 {
			encoded := base64.StdEncoding.EncodeToString(req.Images[0])
			payload["image"] = "data:image/png;base64," + encoded
			payload["strength"] = 0.7
		}
	} else {
		// 五个标准比例用 aspect_ratio 字段，其余传显式宽高
		if isStandardRatio(ratio) {
			payload["aspect_ratio"] = ratio
		} else {
			payload["width"] = size.Width
			payload["height"] = size.Height
		}
		if len(req.Images) > 0 {
			payload["image"] = base64.StdEncoding.EncodeToString(req.Images[0])
			payload["strength"] = 0.7
		}
	}

	return a.postJSONPayload(ctx, baseURL+"/images/generations", apiKey, payload)
}

func (a *Adapter) postJSONPayload(ctx context.Context, url, apiKey string, payload map[string]interface{}) (*transport.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", "Bearer "+apiKey)
	return a.client.Do(ctx, http.MethodPost, url, header, body, generateTimeout)
}

// ResolveAPIKey 优先用调用方传入的key；为空或是占位符时回退到后端配置
func ResolveAPIKey(provided string) string {
	trimmed := strings.TrimSpace(provided)
	isPlaceholder := trimmed != "" &&
		(strings.Contains(trimmed, "REPLACE") || strings.Contains(trimmed, "sk-test"))
	if trimmed == "" || isPlaceholder {
		return settings.Conf.APIKey
	}
	return trimmed
}

// ResolveBaseURL 同 ResolveAPIKey，key 和 URL 独立判定
func ResolveBaseURL(provided string) string {
	trimmed := strings.TrimSpace(provided)
	isPlaceholder := trimmed != "" &&
		strings.Contains(trimmed, "comfly.chat") && strings.Contains(settings.Conf.APIURL, "bltcy")
	if trimmed == "" || isPlaceholder {
		return strings.TrimRight(settings.Conf.APIURL, "/")
	}
	return strings.TrimRight(trimmed, "/")
}
