package radiacode

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// command 2 字节请求操作码（按线序）
type command [2]byte

var (
	cmdInit        = command{0x07, 0x00}
	cmdSetTime     = command{0x04, 0x0a}
	cmdStatus      = command{0x05, 0x00}
	cmdFwSignature = command{0x01, 0x01}
	cmdFwVersion   = command{0x0a, 0x00}
	cmdHwSerial    = command{0x0b, 0x00}
	cmdWriteVSFR   = command{0x25, 0x08}
	cmdReadVS      = command{0x26, 0x08}
	cmdWriteVS     = command{0x27, 0x08}
	cmdBatchRead   = command{0x2a, 0x08}
)

// 序号空间 0..31，随请求循环，用于匹配响应与发现失步
const seqModulo = 32

// buildRequest 构造完整请求帧：
// u32 小端总长 + 操作码(2) + 保留 0x00 + (0x80|seq) + 负载。
// 总长覆盖头与负载，不含长度前缀自身。
func buildRequest(cmd command, seq uint8, payload []byte) (frame []byte, header [4]byte) {
	header = [4]byte{cmd[0], cmd[1], 0x00, 0x80 | (seq % seqModulo)}
	n := len(header) + len(payload)
	frame = make([]byte, 0, 4+n)
	frame = binary.LittleEndian.AppendUint32(frame, uint32(n))
	frame = append(frame, header[:]...)
	frame = append(frame, payload...)
	return frame, header
}

// checkEcho 校验响应前 4 字节与请求头逐字节一致，返回其后的负载。
// 任何一个字节不同都视为失步，绝不静默放过。
func checkEcho(sent [4]byte, resp []byte) ([]byte, error) {
	if len(resp) < 4 {
		return nil, fmt.Errorf("%w: response shorter than echoed header (%d bytes)", ErrUnderflow, len(resp))
	}
	if !bytes.Equal(resp[:4], sent[:]) {
		return nil, &HeaderMismatchError{
			Sent: append([]byte(nil), sent[:]...),
			Got:  append([]byte(nil), resp[:4]...),
		}
	}
	return resp[4:], nil
}
