package radiacode

import (
	"errors"
	"fmt"
)

var (
	// ErrUnderflow 缓冲区剩余字节不足以解出下一个字段
	ErrUnderflow = errors.New("radiacode: buffer underflow")
	// ErrEmptyBatch 批量读取的寄存器 ID 列表为空
	ErrEmptyBatch = errors.New("radiacode: empty vsfr id list")
)

// HeaderMismatchError 响应回显头与请求头不一致。
// 表示链路失步或数据损坏，当前会话不可信。
type HeaderMismatchError struct {
	Sent []byte
	Got  []byte
}

func (e *HeaderMismatchError) Error() string {
	return fmt.Sprintf("radiacode: response header mismatch: sent=%x got=%x", e.Sent, e.Got)
}

// DeviceRejectedError 设备返回码非 1，命令被拒绝
type DeviceRejectedError struct {
	Command uint32
	Code    uint32
}

func (e *DeviceRejectedError) Error() string {
	return fmt.Sprintf("radiacode: command 0x%04x rejected: retcode %d", e.Command, e.Code)
}

// LengthMismatchError 声明负载长度与实际剩余长度不一致
type LengthMismatchError struct {
	Command  uint32
	Declared int
	Actual   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("radiacode: command 0x%04x length mismatch: declared %d, actual %d",
		e.Command, e.Declared, e.Actual)
}

// StreamError 数据缓冲区记录流解码失败：未知记录判别值、
// 记录体截断或滚动序号跳变。解码是原子的，调用方拿到的
// 要么是完整记录序列，要么是此错误。
type StreamError struct {
	Index  int // 出错前已解码的记录数
	Reason string
	Err    error
}

func (e *StreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("radiacode: malformed record stream at record %d: %s: %v", e.Index, e.Reason, e.Err)
	}
	return fmt.Sprintf("radiacode: malformed record stream at record %d: %s", e.Index, e.Reason)
}

func (e *StreamError) Unwrap() error { return e.Err }

// InitError 初始化序列中某一步失败。该状态是终结性的：
// 会话不可用，协议层不做重试，由调用方决定是否重连。
type InitError struct {
	Step string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("radiacode: initialization step %q failed: %v", e.Step, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
