package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetTaskResult 轮询任务状态
func (h *Handler) GetTaskResult(c *gin.Context) {
	taskID := c.Param("task_id")
	t, ok := h.Registry.Get(taskID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
