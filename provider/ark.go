package provider

import (
	"context"

	"T2I/models"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
	"go.uber.org/zap"
)

// generateArk 火山方舟直连渠道：不走HTTP报文拼装，直接用官方SDK，
// 响应同样归一化成 GenerationResult
func (a *Adapter) generateArk(ctx context.Context, req models.GenerationRequest, desc models.ModelDescriptor, tier string) (models.GenerationResult, error) {
	client := arkruntime.NewClientWithApiKey(ResolveAPIKey(req.APIKey))

	generateReq := arkmodel.GenerateImagesRequest{
		Model:          desc.ModelKey,
		Prompt:         req.Prompt,
		Size:           volcengine.String(tier),
		ResponseFormat: volcengine.String(arkmodel.GenerateImagesResponseFormatURL),
		Watermark:      volcengine.Bool(false),
	}

	resp, err := client.GenerateImages(ctx, generateReq)
	if err != nil {
		return models.GenerationResult{}, err
	}
	if resp.Error != nil {
		zap.L().Error("ark returned error",
			zap.String("code", resp.Error.Code), zap.String("message", resp.Error.Message))
		return models.GenerationResult{}, &UpstreamError{Message: resp.Error.Message}
	}

	for _, image := range resp.Data {
		if image.Url != nil && *image.Url != "" {
			return models.GenerationResult{URL: *image.Url}, nil
		}
	}
	// 空定位符交给流水线判定
	return models.GenerationResult{}, nil
}
