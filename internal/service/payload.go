package service

import "fmt"

// 载荷体积上限。只做量级限制（近似序列化长度），不做精确字节核算；
// 目的是在校验和访问存储之前用最便宜的手段拒绝明显超大的请求。
const (
	// MaxDocumentBytes 全量替换文档的体积上限
	MaxDocumentBytes = 2_000_000
	// MaxPatchBytes 补丁变更集的体积上限
	MaxPatchBytes = 1_000_000
)

func guardDocumentSize(size int) error {
	if size > MaxDocumentBytes {
		return fmt.Errorf("%w: document size %d exceeds limit %d", ErrPayloadTooLarge, size, MaxDocumentBytes)
	}
	return nil
}

func guardPatchSize(size int) error {
	if size > MaxPatchBytes {
		return fmt.Errorf("%w: change set size %d exceeds limit %d", ErrPayloadTooLarge, size, MaxPatchBytes)
	}
	return nil
}
