package radiacode

import (
	"fmt"
	"time"
)

// Record 数据缓冲区中的一条遥测/事件记录。
// 五种变体共享绝对时间戳（会话基准时间 + 记录内相对偏移）；
// 序列顺序即设备发出顺序，不保证时间递增。
type Record interface {
	Time() time.Time
	Kind() string
}

// DoseRateDB 剂量率数据库样本
type DoseRateDB struct {
	TS          time.Time
	Count       uint32  // 采样周期内脉冲计数
	CountRate   float64 // cps
	DoseRate    float64 // uSv/h
	DoseRateErr float64 // %
	Flags       uint16
}

func (d DoseRateDB) Time() time.Time { return d.TS }
func (d DoseRateDB) Kind() string    { return "doserate_db" }

// RareData 低频遥测样本（累计剂量、温度、电量）
type RareData struct {
	TS          time.Time
	Duration    time.Duration // 累计时长
	Dose        float64       // uSv
	Temperature float64       // 摄氏度
	ChargeLevel float64       // %
	Flags       uint16
}

func (d RareData) Time() time.Time { return d.TS }
func (d RareData) Kind() string    { return "rare" }

// RealTimeData 实时样本
type RealTimeData struct {
	TS            time.Time
	CountRate     float64 // cps
	CountRateErr  float64 // %
	DoseRate      float64 // uSv/h
	DoseRateErr   float64 // %
	Flags         uint16
	RealTimeFlags uint8
}

func (d RealTimeData) Time() time.Time { return d.TS }
func (d RealTimeData) Kind() string    { return "realtime" }

// RawData 未滤波的原始计数率样本
type RawData struct {
	TS        time.Time
	CountRate float64 // cps
	DoseRate  float64 // uSv/h
}

func (d RawData) Time() time.Time { return d.TS }
func (d RawData) Kind() string    { return "raw" }

// Event 设备离散事件（报警触发/解除、按键等）
type Event struct {
	TS     time.Time
	Group  uint8
	Event  uint8
	Param1 uint8
	Flags  uint16
}

func (d Event) Time() time.Time { return d.TS }
func (d Event) Kind() string    { return "event" }

// Spectrum 能谱：累计时长、通道→能量二次标定系数与各通道计数
type Spectrum struct {
	Duration time.Duration
	A0       float32
	A1       float32
	A2       float32
	Counts   []uint32
}

// Channels 返回通道数
func (s *Spectrum) Channels() int { return len(s.Counts) }

// VersionInfo 单个固件映像的版本信息
type VersionInfo struct {
	Major uint16
	Minor uint16
	Date  string
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%d.%d (%s)", v.Major, v.Minor, v.Date)
}

// FirmwareVersion 引导区与目标区固件版本
type FirmwareVersion struct {
	Boot   VersionInfo
	Target VersionInfo
}

// FirmwareSignature 固件签名信息
type FirmwareSignature struct {
	Signature uint32
	FileName  string
	IdString  string
}

func (s FirmwareSignature) String() string {
	return fmt.Sprintf("Signature: %08X, FileName=%q, IdString=%q", s.Signature, s.FileName, s.IdString)
}
