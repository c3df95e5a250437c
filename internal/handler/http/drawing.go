package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/service"
)

// DrawingHandler 封装了画板元数据 CRUD 的 HTTP 处理逻辑
type DrawingHandler struct {
	drawingService *service.DrawingService
}

// NewDrawingHandler 创建 DrawingHandler 实例
func NewDrawingHandler(drawingService *service.DrawingService) *DrawingHandler {
	if drawingService == nil {
		panic("DrawingService cannot be nil for DrawingHandler")
	}
	return &DrawingHandler{drawingService: drawingService}
}

// CreateDrawingRequest 定义创建画板请求的结构体。
// store 保持 RawMessage 原样入库，内容不做 schema 校验。
type CreateDrawingRequest struct {
	Name  string          `json:"name"`
	Store json.RawMessage `json:"store" binding:"required"`
}

// UpdateDrawingRequest 定义部分更新请求的结构体，两个字段均可选。
type UpdateDrawingRequest struct {
	Name  *string          `json:"name"`
	Store *json.RawMessage `json:"store"`
}

// DrawingResponse 是单个画板的完整响应（含 store 载荷）。
type DrawingResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Store     json.RawMessage `json:"store"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// DrawingSummary 是列表接口的条目，不含 store 载荷。
type DrawingSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Create 处理 POST /api/drawings
func (h *DrawingHandler) Create(c *gin.Context) {
	var req CreateDrawingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CreateDrawing: Invalid request body")
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: store is required")
		return
	}

	drawing, err := h.drawingService.Create(c.Request.Context(), req.Name, string(req.Store))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, DrawingResponse{
		ID:        drawing.ID,
		Name:      drawing.Name,
		Store:     json.RawMessage(drawing.StoreJSON),
		CreatedAt: drawing.CreatedAt.Format(time.RFC3339),
		UpdatedAt: drawing.UpdatedAt.Format(time.RFC3339),
	})
}

// List 处理 GET /api/drawings
func (h *DrawingHandler) List(c *gin.Context) {
	drawings, err := h.drawingService.List(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	summaries := make([]DrawingSummary, 0, len(drawings))
	for _, d := range drawings {
		summaries = append(summaries, DrawingSummary{
			ID:        d.ID,
			Name:      d.Name,
			CreatedAt: d.CreatedAt.Format(time.RFC3339),
			UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
		})
	}
	SuccessResponse(c, http.StatusOK, summaries)
}

// Get 处理 GET /api/drawings/:id
func (h *DrawingHandler) Get(c *gin.Context) {
	drawing, err := h.drawingService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, DrawingResponse{
		ID:        drawing.ID,
		Name:      drawing.Name,
		Store:     json.RawMessage(drawing.StoreJSON),
		CreatedAt: drawing.CreatedAt.Format(time.RFC3339),
		UpdatedAt: drawing.UpdatedAt.Format(time.RFC3339),
	})
}

// Update 处理 PATCH /api/drawings/:id
func (h *DrawingHandler) Update(c *gin.Context) {
	var req UpdateDrawingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.UpdateDrawing: Invalid request body")
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var storeJSON *string
	if req.Store != nil {
		s := string(*req.Store)
		storeJSON = &s
	}

	drawing, err := h.drawingService.Update(c.Request.Context(), c.Param("id"), req.Name, storeJSON)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, DrawingResponse{
		ID:        drawing.ID,
		Name:      drawing.Name,
		Store:     json.RawMessage(drawing.StoreJSON),
		CreatedAt: drawing.CreatedAt.Format(time.RFC3339),
		UpdatedAt: drawing.UpdatedAt.Format(time.RFC3339),
	})
}

// Delete 处理 DELETE /api/drawings/:id
func (h *DrawingHandler) Delete(c *gin.Context) {
	if err := h.drawingService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
