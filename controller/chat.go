package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"T2I/logic"
	"T2I/pkg/transport"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler 对话补全。与生成共用重试传输层，
// 具体的提示词编排属于协作方，这里只做参数搬运。
func (h *Handler) ChatHandler(c *gin.Context) {
	messagesRaw := c.PostForm("messages")
	if messagesRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages is required"})
		return
	}
	var messages []logic.ChatMessage
	if err := json.Unmarshal([]byte(messagesRaw), &messages); err != nil {
		zap.L().Error("invalid messages json", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON in messages: " + err.Error()})
		return
	}

	images, _ := readFormImages(c, "image")
	trackA, _ := readFormImages(c, "track_a")
	trackB, _ := readFormImages(c, "track_b")

	var refImages []string
	if raw := c.PostForm("reference_images"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &refImages); err != nil {
			zap.L().Warn("invalid reference_images json", zap.Error(err))
		}
	}

	params := logic.ChatParams{
		Messages:         messages,
		Model:            c.PostForm("model"),
		APIKey:           c.PostForm("api_key"),
		APIURL:           c.PostForm("api_url"),
		VisualDNA:        c.PostForm("visual_dna"),
		ProductIdentity:  c.PostForm("product_identity"),
		ImageModel:       c.PostForm("image_model"),
		Images:           images,
		TrackA:           trackA,
		TrackB:           trackB,
		ReferenceImages:  refImages,
		ThoughtSignature: c.PostForm("thought_signature"),
		ThinkingLevel:    c.PostForm("thinking_level"),
		Grounding:        strings.EqualFold(c.PostForm("grounding"), "true"),
	}

	result, err := h.Chat.Chat(c.Request.Context(), params)
	if err != nil {
		var se *transport.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API Key 无效或未配置，请在设置中检查。"})
			return
		}
		zap.L().Error("chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "抱歉，聊天服务出现错误：" + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":          result.Content,
		"thought_signature": result.ThoughtSignature,
	})
}
