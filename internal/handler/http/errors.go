package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/service"
)

func HandleServiceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrRoomNotFound) || errors.Is(err, service.ErrDrawingNotFound) {
		ErrorResponse(c, http.StatusNotFound, err.Error())
	} else if errors.Is(err, service.ErrInvalidPayload) {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	} else if errors.Is(err, service.ErrPayloadTooLarge) {
		ErrorResponse(c, http.StatusRequestEntityTooLarge, err.Error())
	} else if errors.Is(err, service.ErrVersionConflict) || errors.Is(err, service.ErrConcurrentUpdate) {
		ErrorResponse(c, http.StatusConflict, err.Error())
	} else {
		// Log the internal error for debugging
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
