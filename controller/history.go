package controller

import (
	"net/http"
	"strconv"

	"T2I/dao/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetHistory 分页读取历史索引
func (h *Handler) GetHistory(c *gin.Context) {
	cursor := c.Query("cursor")
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	page, err := store.ListHistory(c.Request.Context(), cursor, pageSize)
	if err != nil {
		if err == store.ErrNotInitialized {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history index unavailable"})
			return
		}
		zap.L().Error("failed to list history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list history"})
		return
	}
	c.JSON(http.StatusOK, page)
}
