package logic

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"T2I/models"
	"T2I/task"
	"T2I/util"

	"go.uber.org/zap"
)

// Generator 图像生成协作方（提供商适配层）
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error)
}

// Driver 驱动一个任务走完整条流水线：
// 提示词优化 -> 图像生成 -> 产物下载内联 -> 历史持久化。
// 所有依赖注入，业务代码不碰全局单例。
type Driver struct {
	Registry  *task.Registry
	Generator Generator
	Optimizer Optimizer
	History   HistorySink
}

func NewDriver(reg *task.Registry, gen Generator, opt Optimizer, hist HistorySink) *Driver {
	return &Driver{Registry: reg, Generator: gen, Optimizer: opt, History: hist}
}

// Run 在独立goroutine中执行。任务创建后任何未处理的失败
// 都会把任务置为 failed，绝不让宿主进程崩溃。
func (d *Driver) Run(taskID string, req models.GenerationRequest, scenario string) {
	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("pipeline panic", zap.String("task_id", taskID), zap.Any("panic", r))
			d.fail(taskID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	d.Registry.Update(taskID, task.Patch{
		Status:          task.String(task.StatusProcessing),
		Progress:        task.Int(5),
		ProgressMessage: task.String("🎬 初始化生成任务..."),
	})
	zap.L().Info("pipeline started",
		zap.String("task_id", taskID),
		zap.String("model", req.ModelID),
		zap.String("scenario", scenario))

	// 1. 提示词优化。free_mode 或带续接签名的多轮精确指令不改写。
	raw := req.Prompt
	if scenario == "free_mode" || req.ThoughtSignature != "" {
		d.progress(taskID, 30, "✅ 使用精确指令：跳过提示词优化")
	} else {
		if len(req.Images) > 0 {
			d.progress(taskID, 10, fmt.Sprintf("📸 分析上传的 %d 张产品图...", len(req.Images)))
		}
		d.progress(taskID, 15, "🤖 准备提示词优化引擎...")
		optimized, err := d.Optimizer.Optimize(ctx, req.Prompt, scenario, req.Images, req.APIKey, req.APIURL,
			func(pct int, msg string) { d.progress(taskID, pct, msg) })
		if err != nil {
			// 优化降级：回退到原始提示词，流水线继续
			zap.L().Warn("prompt optimization failed, using original prompt",
				zap.String("task_id", taskID), zap.Error(err))
			d.progress(taskID, 30, "⚠️ 提示词优化失败，使用原始提示词")
		} else {
			raw = optimized
			d.progress(taskID, 30, "✨ 提示词优化完成")
		}
	}

	sel := selectFinalPrompt(raw, req.ModelID)
	if sel.ThinkingLevel != "" && req.ThinkingLevel == "" {
		req.ThinkingLevel = sel.ThinkingLevel
	}
	if sel.IdentityRef != nil && req.IdentityRef == nil {
		req.IdentityRef = sel.IdentityRef
	}
	if sel.LogicRef != nil && req.LogicRef == nil {
		req.LogicRef = sel.LogicRef
	}
	originalPrompt := req.Prompt
	req.Prompt = sel.FinalPrompt

	d.progress(taskID, 35, "🔧 准备图像生成参数...")

	// 2. 图像生成
	desc := models.GetModel(req.ModelID)
	if len(req.Images) > 0 {
		d.progress(taskID, 40, fmt.Sprintf("🖌️ 正在使用 %s 处理 %d 张图像...", desc.Name, len(req.Images)))
	} else {
		d.progress(taskID, 40, fmt.Sprintf("🎨 正在使用 %s 生成图像...", desc.Name))
	}
	d.progress(taskID, 45, fmt.Sprintf("📡 正在发送请求到 %s 服务器...", desc.Provider))

	result, err := d.Generator.Generate(ctx, req)
	if err != nil {
		d.fail(taskID, translateGenerationError(err))
		return
	}
	// 空定位符只在这里判定一次：后续阶段不可能在没有产物引用的情况下推进
	if result.URL == "" {
		d.fail(taskID, "生成服务器未返回有效图像，请检查 API Key 或余额。")
		return
	}
	d.progress(taskID, 70, "🖼️ 图像生成完成，正在处理...")

	// 3. 产物下载并内联；下载失败保留原URL，不失败任务
	locator := strings.TrimSpace(result.URL)
	if strings.HasPrefix(locator, "http") {
		d.progress(taskID, 80, "📥 正在下载生成的图像...")
		if b, derr := util.DownloadImage(locator); derr == nil {
			locator = util.ToDataURI(b)
		} else {
			zap.L().Warn("failed to inline generated image, keeping remote url",
				zap.String("task_id", taskID), zap.Error(derr))
		}
	}
	if !strings.HasPrefix(locator, "http") && !strings.HasPrefix(locator, "data:") {
		// 无法识别scheme的定位符按裸base64处理
		locator = "data:image/png;base64," + locator
	}

	// 4. 历史持久化（尽力而为）
	d.progress(taskID, 85, "💾 正在保存到历史记录...")
	timestamp := time.Now().UnixMilli()
	finalURL := locator
	var originalURLs []string
	savedURL, origURLs, herr := d.History.Save(ctx, HistoryEntry{
		Timestamp: timestamp,
		Image:     locator,
		Originals: req.Images,
		Meta: util.Metadata{
			Timestamp:           timestamp,
			OriginalPrompt:      originalPrompt,
			OptimizedPrompt:     req.Prompt,
			Scenario:            scenario,
			Model:               req.ModelID,
			Ratio:               req.Ratio,
			LayoutLogic:         sel.LayoutLogic,
			OriginalImagesCount: len(req.Images),
		},
	})
	if herr != nil {
		zap.L().Warn("history save failed", zap.String("task_id", taskID), zap.Error(herr))
	} else {
		originalURLs = origURLs
		if savedURL != "" {
			finalURL = savedURL
		}
	}

	// 5. 完成
	d.Registry.Update(taskID, task.Patch{
		Status:          task.String(task.StatusSucceed),
		Progress:        task.Int(100),
		ProgressMessage: task.String("✅ 完成!"),
		Result: map[string]interface{}{
			"id":                strconv.FormatInt(timestamp, 10),
			"url":               finalURL,
			"optimized_prompt":  req.Prompt,
			"original_prompt":   originalPrompt,
			"original_images":   originalURLs,
			"timestamp":         timestamp,
			"thought_signature": result.ThoughtSignature,
		},
	})
	zap.L().Info("pipeline finished", zap.String("task_id", taskID))
}

func (d *Driver) progress(taskID string, pct int, msg string) {
	d.Registry.Update(taskID, task.Patch{
		Progress:        task.Int(pct),
		ProgressMessage: task.String(msg),
	})
}

func (d *Driver) fail(taskID, msg string) {
	zap.L().Error("pipeline failed", zap.String("task_id", taskID), zap.String("error", msg))
	d.Registry.Update(taskID, task.Patch{
		Status: task.String(task.StatusFailed),
		Error:  task.String(msg),
	})
}

// translateGenerationError 两类常见网络故障翻译成用户可读的提示，其余原样透出
func translateGenerationError(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "Remote end closed connection") ||
		strings.Contains(msg, "Connection aborted") ||
		strings.Contains(msg, "connection reset") {
		return "与生成服务器连接中断，请稍后重试。"
	}
	if strings.Contains(strings.ToLower(msg), "timeout") {
		return "生成超时，请尝试缩短提示词或稍后再试。"
	}
	return msg
}
