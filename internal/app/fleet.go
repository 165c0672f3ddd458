package app

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/radiacode-server/internal/config"
	"github.com/taoyao-code/radiacode-server/internal/metrics"
	"github.com/taoyao-code/radiacode-server/internal/protocol/radiacode"
	"github.com/taoyao-code/radiacode-server/internal/transport"
)

// ManagedDevice 机队中的一台仪器：配置、协议会话与串行化锁。
// 协议会话不支持并发调用，所有访问必须经过 Do。
type ManagedDevice struct {
	mu     sync.Mutex
	cfg    cfgpkg.DeviceConfig
	client *radiacode.Client

	serial   string
	hwSerial string
	firmware string
}

// Serial 返回仪器序列号
func (d *ManagedDevice) Serial() string { return d.serial }

// Name 返回配置中的展示名
func (d *ManagedDevice) Name() string { return d.cfg.Name }

// Addr 返回桥接器地址
func (d *ManagedDevice) Addr() string { return d.cfg.Addr }

// HwSerial 返回初始化时读到的硬件序列号
func (d *ManagedDevice) HwSerial() string { return d.hwSerial }

// Firmware 返回目标固件版本文本
func (d *ManagedDevice) Firmware() string { return d.firmware }

// SpecFormatVersion 返回会话协商的能谱格式版本
func (d *ManagedDevice) SpecFormatVersion() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.client.SpecFormatVersion()
}

// Do 在持锁状态下访问协议会话。
// 采集循环与控制接口共用一台仪器时靠这把锁串行化。
func (d *ManagedDevice) Do(fn func(c *radiacode.Client) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.client)
}

// ReadDataBuf 拉取并清空设备数据缓冲区
func (d *ManagedDevice) ReadDataBuf() ([]radiacode.Record, error) {
	var records []radiacode.Record
	err := d.Do(func(c *radiacode.Client) error {
		var err error
		records, err = c.DataBuf()
		return err
	})
	return records, err
}

// ReadSpectrum 读取当前能谱或累计能谱
func (d *ManagedDevice) ReadSpectrum(accumulated bool) (*radiacode.Spectrum, error) {
	var spec *radiacode.Spectrum
	err := d.Do(func(c *radiacode.Client) error {
		var err error
		if accumulated {
			spec, err = c.SpectrumAccum()
		} else {
			spec, err = c.Spectrum()
		}
		return err
	})
	return spec, err
}

// Close 关闭底层传输
func (d *ManagedDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.client.Close()
}

// Fleet 仪器机队：按序列号索引的已接入仪器集合。
// 实现控制接口需要的指令下发，并为采集循环提供遍历。
type Fleet struct {
	mu      sync.RWMutex
	devices map[string]*ManagedDevice
	log     *zap.Logger
	metrics *metrics.AppMetrics
}

// NewFleet 创建空机队
func NewFleet(log *zap.Logger, m *metrics.AppMetrics) *Fleet {
	return &Fleet{
		devices: make(map[string]*ManagedDevice),
		log:     log,
		metrics: m,
	}
}

// Connect 拨号桥接器、建立协议会话并读取身份信息，成功后登记入队。
// 同一序列号重复接入时替换旧会话。
func (f *Fleet) Connect(cfg cfgpkg.DeviceConfig) (*ManagedDevice, error) {
	tr, err := transport.Dial(transport.Config{
		Addr:         cfg.Addr,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}

	cli, err := radiacode.Connect(tr, &radiacode.Options{
		IgnoreFirmwareCheck: cfg.IgnoreFirmwareCheck,
		Logger:              f.log.With(zap.String("device", cfg.Name)),
	})
	if err != nil {
		_ = tr.Close()
		return nil, fmt.Errorf("connect %s: %w", cfg.Addr, err)
	}

	serial, err := cli.SerialNumber()
	if err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("read serial %s: %w", cfg.Addr, err)
	}

	md := &ManagedDevice{cfg: cfg, client: cli, serial: serial}
	if hw, err := cli.HwSerialNumber(); err == nil {
		md.hwSerial = hw
	} else {
		f.log.Warn("read hw serial failed", zap.String("serial", serial), zap.Error(err))
	}
	if fw, err := cli.FwVersion(); err == nil {
		md.firmware = fw.Target.String()
	} else {
		f.log.Warn("read firmware version failed", zap.String("serial", serial), zap.Error(err))
	}

	f.mu.Lock()
	old := f.devices[serial]
	f.devices[serial] = md
	f.mu.Unlock()
	if old != nil {
		_ = old.Close()
		f.log.Warn("replaced existing session", zap.String("serial", serial))
	}

	f.log.Info("device joined fleet",
		zap.String("serial", serial),
		zap.String("name", cfg.Name),
		zap.String("addr", cfg.Addr),
		zap.String("firmware", md.firmware))
	return md, nil
}

// Get 按序列号查找仪器
func (f *Fleet) Get(serial string) (*ManagedDevice, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	d, ok := f.devices[serial]
	return d, ok
}

// List 返回当前机队快照
func (f *Fleet) List() []*ManagedDevice {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*ManagedDevice, 0, len(f.devices))
	for _, d := range f.devices {
		out = append(out, d)
	}
	return out
}

// Size 返回机队规模
func (f *Fleet) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.devices)
}

// Close 关闭所有会话
func (f *Fleet) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for serial, d := range f.devices {
		if err := d.Close(); err != nil {
			f.log.Warn("close device session", zap.String("serial", serial), zap.Error(err))
		}
		delete(f.devices, serial)
	}
}
