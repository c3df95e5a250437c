package service

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrDrawingNotFound  = errors.New("drawing not found")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrVersionConflict  = errors.New("version conflict")
	ErrConcurrentUpdate = errors.New("concurrent update detected")
	ErrInternalServer   = errors.New("internal server error")
)
