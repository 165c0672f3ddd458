package session

import (
	"sync"
	"time"
)

// Instrument 一台在册仪器的会话视图
type Instrument struct {
	Serial   string
	Firmware string
	LastSeen time.Time
}

// Manager 仪器会话登记：记录每台仪器最近一次成功采样的时间，
// 判断在线状态。采集循环写入，HTTP 接口与健康检查读取。
type Manager struct {
	mu      sync.RWMutex
	devices map[string]*Instrument // serial -> instrument
	timeout time.Duration
}

func New(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Manager{devices: make(map[string]*Instrument), timeout: timeout}
}

// Register 登记仪器，重复登记刷新固件版本
func (m *Manager) Register(serial, firmware string) {
	m.mu.Lock()
	if d, ok := m.devices[serial]; ok {
		d.Firmware = firmware
	} else {
		m.devices[serial] = &Instrument{Serial: serial, Firmware: firmware}
	}
	m.mu.Unlock()
}

// Touch 更新仪器最近采样时间
func (m *Manager) Touch(serial string, t time.Time) {
	m.mu.Lock()
	if d, ok := m.devices[serial]; ok {
		d.LastSeen = t
	} else {
		m.devices[serial] = &Instrument{Serial: serial, LastSeen: t}
	}
	m.mu.Unlock()
}

// Get 返回仪器会话视图
func (m *Manager) Get(serial string) (Instrument, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[serial]
	if !ok {
		return Instrument{}, false
	}
	return *d, true
}

// List 返回所有在册仪器的快照
func (m *Manager) List() []Instrument {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Instrument, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, *d)
	}
	return out
}

// IsOnline 判断仪器是否在线
func (m *Manager) IsOnline(serial string, now time.Time) bool {
	m.mu.RLock()
	d, ok := m.devices[serial]
	m.mu.RUnlock()
	if !ok || d.LastSeen.IsZero() {
		return false
	}
	return now.Sub(d.LastSeen) <= m.timeout
}

// OnlineCount 返回当前在线仪器数量
func (m *Manager) OnlineCount(now time.Time) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, d := range m.devices {
		if !d.LastSeen.IsZero() && now.Sub(d.LastSeen) <= m.timeout {
			count++
		}
	}
	return count
}
