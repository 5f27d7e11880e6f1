package protocol

import "fmt"

// ProtocolError 入站载荷无法解析（非 JSON、顶层形状不对、缺少必需字段）
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}
	return "protocol: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func malformed(reason string, err error) *ProtocolError {
	return &ProtocolError{Reason: reason, Err: err}
}
