package hub

import (
	"strings"
	"unicode/utf8"
)

// 发给客户端的错误码
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeVersionConflict = "VERSION_CONFLICT"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidPayload  = "INVALID_PAYLOAD"
	CodeInternalError   = "INTERNAL_ERROR"
)

// 发给客户端的错误消息长度上限，避免把超长诊断信息泄露到前端。
const maxErrorMessageLen = 500

// classifyError 按消息模式（大小写不敏感）把控制器错误映射为对外错误码。
// 版本预检失败和提交期竞争失败对客户端是同一种情况：重新拉取并重试。
func classifyError(err error) string {
	if err == nil {
		return CodeInternalError
	}
	msg := strings.ToUpper(err.Error())
	switch {
	case strings.Contains(msg, "PAYLOAD_TOO_LARGE") || strings.Contains(msg, "PAYLOAD TOO LARGE"):
		return CodePayloadTooLarge
	case strings.Contains(msg, "VERSION CONFLICT") || strings.Contains(msg, "CONCURRENT UPDATE"):
		return CodeVersionConflict
	case strings.Contains(msg, "NOT FOUND"):
		return CodeNotFound
	case strings.Contains(msg, "INVALID") || strings.Contains(msg, "BAD REQUEST"):
		return CodeInvalidPayload
	default:
		return CodeInternalError
	}
}

// safeMessage 截断过长的错误文本，截断点回退到 UTF-8 边界，
// 避免发出半个多字节字符导致客户端 JSON 解码失败。
func safeMessage(err error) string {
	if err == nil {
		return "internal error"
	}
	msg := err.Error()
	if len(msg) <= maxErrorMessageLen {
		return msg
	}
	cut := maxErrorMessageLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
