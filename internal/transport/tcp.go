// Package transport 提供到 RadiaCode 桥接器的字节流传输实现。
// 桥接器把 USB/蓝牙设备暴露为 TCP 端点，帧格式与设备原生协议一致：
// u32 小端长度前缀 + 帧体。
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// 单个响应帧的体积上限，超过即视为桥接器故障
const maxFrameSize = 1 << 20

// Config TCP 桥接器连接参数
type Config struct {
	Addr         string        // host:port
	DialTimeout  time.Duration // 0 使用默认 5s
	ReadTimeout  time.Duration // 单次响应读取超时，0 不限
	WriteTimeout time.Duration // 单次请求写入超时，0 不限
}

// TCP 到桥接器的单连接传输。
// Execute 串行化请求：协议是严格一问一答，互斥锁保证单飞。
type TCP struct {
	mu   sync.Mutex
	conn net.Conn
	cfg  Config
}

// Dial 建立到桥接器的连接
func Dial(cfg Config) (*TCP, error) {
	to := cfg.DialTimeout
	if to <= 0 {
		to = 5 * time.Second
	}
	conn, err := net.DialTimeout("tcp", cfg.Addr, to)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", cfg.Addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return &TCP{conn: conn, cfg: cfg}, nil
}

// Execute 写入一个完整请求帧并读回一个完整响应帧体。
// 请求帧已含长度前缀，原样写出；响应读取 u32 长度前缀后
// 读满帧体返回，前缀本身不交给协议层。
func (t *TCP) Execute(req []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg.WriteTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	}
	if _, err := t.conn.Write(req); err != nil {
		return nil, fmt.Errorf("transport: write request: %w", err)
	}

	if t.cfg.ReadTimeout > 0 {
		_ = t.conn.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout))
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(t.conn, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("transport: read response length: %w", err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("transport: response frame %d bytes exceeds limit %d", n, maxFrameSize)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(t.conn, body); err != nil {
		return nil, fmt.Errorf("transport: read response body: %w", err)
	}
	return body, nil
}

// Close 关闭底层连接
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.Close()
}
