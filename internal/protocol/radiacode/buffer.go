package radiacode

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Reader 带读游标的小端二进制缓冲区。
// 每个 Read* 按消耗宽度推进游标；剩余字节不足时返回包装了
// ErrUnderflow 的错误，游标不动。
type Reader struct {
	data []byte
	pos  int
}

// NewReader 包装 data，游标置于起始处
func NewReader(data []byte) *Reader { return &Reader{data: data} }

// Remaining 返回未读字节数
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Rest 返回所有未读字节并将游标推进到末尾
func (r *Reader) Rest() []byte {
	b := r.data[r.pos:]
	r.pos = len(r.data)
	return b
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, %d left", ErrUnderflow, n, r.Remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadBytes 读取 n 个原始字节
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.take(n)
}

// ReadString 读取长度前缀字符串：u8 长度 + 该长度的字节，
// 去掉尾部 NUL 填充后返回
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU8()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\x00"), nil
}

// Writer 小端二进制负载构造器，Reader 的写侧对偶。
// 当前命令集只用到定宽整数与浮点，长度前缀字符串为通用契约保留。
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

// Bytes 返回已写入的字节
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteU8(v uint8)  { w.buf = append(w.buf, v) }
func (w *Writer) WriteI8(v int8)   { w.WriteU8(uint8(v)) }
func (w *Writer) WriteU16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}
func (w *Writer) WriteI16(v int16) { w.WriteU16(uint16(v)) }
func (w *Writer) WriteU32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}
func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }
func (w *Writer) WriteF32(v float32) {
	w.WriteU32(math.Float32bits(v))
}

// WriteBytes 追加原始字节
func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// WriteString 写入长度前缀字符串（u8 长度 + 字节），长度上限 255
func (w *Writer) WriteString(s string) error {
	if len(s) > 255 {
		return fmt.Errorf("radiacode: string too long for length prefix: %d", len(s))
	}
	w.WriteU8(uint8(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}
