package controller

import (
	"io"
	"mime/multipart"
	"net/http"

	"T2I/logic"
	"T2I/models"
	"T2I/task"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler 聚合HTTP层依赖，路由在 main.go 注册
type Handler struct {
	Registry *task.Registry
	Driver   *logic.Driver
	Chat     *logic.ChatService
}

func NewHandler(reg *task.Registry, driver *logic.Driver, chat *logic.ChatService) *Handler {
	return &Handler{Registry: reg, Driver: driver, Chat: chat}
}

// GenerateForm 生成请求表单
type GenerateForm struct {
	Prompt           string `form:"prompt" binding:"required"`
	Ratio            string `form:"ratio" binding:"required"`
	Scenario         string `form:"scenario"`
	Model            string `form:"model"`
	APIKey           string `form:"api_key"`
	APIURL           string `form:"api_url"`
	ThoughtSignature string `form:"thought_signature"`
	ThinkingLevel    string `form:"thinking_level"`
	IdentityRef      *int   `form:"identity_ref"`
	LogicRef         *int   `form:"logic_ref"`
}

// SubmitGenerateTask 提交生成任务。立即返回任务ID，
// 流水线在后台goroutine里跑完，进度通过轮询获取。
func (h *Handler) SubmitGenerateTask(c *gin.Context) {
	var fo GenerateForm
	if err := c.ShouldBind(&fo); err != nil {
		zap.L().Error("Generate with invalid param", zap.Error(err))
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errs.Error()})
		return
	}
	if fo.Scenario == "" {
		fo.Scenario = "general"
	}
	if fo.Model == "" {
		fo.Model = models.DefaultModelID
	}

	// 文件必须在请求返回前读完
	images, err := readFormImages(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded image"})
		return
	}
	var mask []byte
	if fh, err := c.FormFile("mask"); err == nil && fh != nil {
		mask, err = readUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read mask"})
			return
		}
	}

	taskID := h.Registry.Create(task.TypeImageGeneration)
	req := models.GenerationRequest{
		Prompt:           fo.Prompt,
		Ratio:            fo.Ratio,
		ModelID:          fo.Model,
		Images:           images,
		Mask:             mask,
		APIKey:           fo.APIKey,
		APIURL:           fo.APIURL,
		ThoughtSignature: fo.ThoughtSignature,
		ThinkingLevel:    fo.ThinkingLevel,
		IdentityRef:      fo.IdentityRef,
		LogicRef:         fo.LogicRef,
	}
	go h.Driver.Run(taskID, req, fo.Scenario)

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": taskID,
		"status":  task.StatusPending,
	})
}

func readFormImages(c *gin.Context, field string) ([][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// 没有multipart表单也允许：纯文生图请求
		return nil, nil
	}
	var out [][]byte
	for _, fh := range form.File[field] {
		b, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		if len(b) > 0 {
			out = append(out, b)
		}
	}
	return out, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
