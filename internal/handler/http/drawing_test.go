package http_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"collaborative-canvas/internal/domain"
	httpHandler "collaborative-canvas/internal/handler/http"
	"collaborative-canvas/internal/repository"
	"collaborative-canvas/internal/repository/mocks"
	"collaborative-canvas/internal/service"
)

func setupDrawingRouter(mockRepo *mocks.DrawingRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := httpHandler.NewDrawingHandler(service.NewDrawingService(mockRepo))
	router := gin.New()
	router.POST("/api/drawings", handler.Create)
	router.GET("/api/drawings", handler.List)
	router.GET("/api/drawings/:id", handler.Get)
	router.PATCH("/api/drawings/:id", handler.Update)
	router.DELETE("/api/drawings/:id", handler.Delete)
	return router
}

func TestDrawingHandler_Create(t *testing.T) {
	mockRepo := new(mocks.DrawingRepository)
	router := setupDrawingRouter(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Drawing")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Drawing).ID = "d-1"
		}).
		Return(nil).Once()

	body := bytes.NewBufferString(`{"name":"sketch","store":{"records":{}}}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/drawings", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"d-1"`)
	mockRepo.AssertExpectations(t)
}

func TestDrawingHandler_Create_MissingStore(t *testing.T) {
	mockRepo := new(mocks.DrawingRepository)
	router := setupDrawingRouter(mockRepo)

	body := bytes.NewBufferString(`{"name":"sketch"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/drawings", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDrawingHandler_List_OmitsStorePayload(t *testing.T) {
	mockRepo := new(mocks.DrawingRepository)
	router := setupDrawingRouter(mockRepo)

	mockRepo.On("FindAll", mock.Anything).
		Return([]domain.Drawing{{ID: "d-1", Name: "one"}, {ID: "d-2", Name: "two"}}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/drawings", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"d-1"`)
	assert.Contains(t, w.Body.String(), `"d-2"`)
	assert.NotContains(t, w.Body.String(), `"store"`, "列表不应携带 store 载荷")
}

func TestDrawingHandler_Get_NotFound(t *testing.T) {
	mockRepo := new(mocks.DrawingRepository)
	router := setupDrawingRouter(mockRepo)

	mockRepo.On("FindByID", mock.Anything, "ghost").
		Return(nil, repository.ErrDrawingNotFound).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/drawings/ghost", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDrawingHandler_Update(t *testing.T) {
	mockRepo := new(mocks.DrawingRepository)
	router := setupDrawingRouter(mockRepo)

	mockRepo.On("Update", mock.Anything, "d-1", map[string]interface{}{"name": "renamed"}).
		Return(nil).Once()
	mockRepo.On("FindByID", mock.Anything, "d-1").
		Return(&domain.Drawing{ID: "d-1", Name: "renamed", StoreJSON: `{}`}, nil).Once()

	body := bytes.NewBufferString(`{"name":"renamed"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/drawings/d-1", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"renamed"`)
	mockRepo.AssertExpectations(t)
}

func TestDrawingHandler_Delete(t *testing.T) {
	mockRepo := new(mocks.DrawingRepository)
	router := setupDrawingRouter(mockRepo)

	mockRepo.On("Delete", mock.Anything, "d-1").Return(nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/drawings/d-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockRepo.AssertExpectations(t)
}
