package models

import (
	"time"
)

// 注意：
// - 保持与 db/migrations/0001_init_up.sql 完全对齐
// - 不使用 gorm.Model，显式声明每个字段，避免隐式 DeletedAt

// Device 映射 devices 表（一台在册仪器）
type Device struct {
	// 主键
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// 设备序列号，唯一标识
	Serial string `gorm:"column:serial;type:text;not null;uniqueIndex"`
	// 配置中的展示名
	Name string `gorm:"column:name;type:text;not null"`
	// 桥接器地址
	Addr string `gorm:"column:addr;type:text;not null"`
	// 硬件序列号（分组十六进制），可空
	HwSerial *string `gorm:"column:hw_serial;type:text"`
	// 目标固件版本文本，可空
	FwVersion *string `gorm:"column:fw_version;type:text"`
	// 能谱编码格式版本
	SpecFormatVersion int32 `gorm:"column:spec_format_version;not null;default:0"`
	// 最近一次成功采样
	LastSeenAt *time.Time `gorm:"column:last_seen_at"`
	// 审计字段
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Device) TableName() string { return "devices" }

// TelemetrySample 映射 telemetry_samples 表。
// 四种遥测记录落同一张宽表，kind 判别，按记录种类填充对应列。
type TelemetrySample struct {
	ID       int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DeviceID int64     `gorm:"column:device_id;not null;index:idx_sample_device_time,priority:1"`
	TS       time.Time `gorm:"column:ts;not null;index:idx_sample_device_time,priority:2,sort:desc"`
	// doserate_db | rare | realtime | raw
	Kind         string   `gorm:"column:kind;type:text;not null"`
	CountRate    *float64 `gorm:"column:count_rate"`     // cps
	CountRateErr *float64 `gorm:"column:count_rate_err"` // %
	DoseRate     *float64 `gorm:"column:dose_rate"`      // uSv/h
	DoseRateErr  *float64 `gorm:"column:dose_rate_err"`  // %
	Count        *int64   `gorm:"column:pulse_count"`
	Dose         *float64 `gorm:"column:dose"`         // uSv
	Temperature  *float64 `gorm:"column:temperature"`  // 摄氏度
	ChargeLevel  *float64 `gorm:"column:charge_level"` // %
	DurationSec  *int64   `gorm:"column:duration_sec"`
	Flags        *int32   `gorm:"column:flags"`
	RtFlags      *int16   `gorm:"column:rt_flags"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TelemetrySample) TableName() string { return "telemetry_samples" }

// DeviceEvent 映射 device_events 表（报警触发/解除、按键等离散事件）
type DeviceEvent struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DeviceID  int64     `gorm:"column:device_id;not null;index:idx_event_device_time,priority:1"`
	TS        time.Time `gorm:"column:ts;not null;index:idx_event_device_time,priority:2,sort:desc"`
	GroupNo   int16     `gorm:"column:group_no;not null"`
	Event     int16     `gorm:"column:event;not null"`
	Param1    int16     `gorm:"column:param1;not null"`
	Flags     int32     `gorm:"column:flags;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DeviceEvent) TableName() string { return "device_events" }

// SpectrumSnapshot 映射 spectrum_snapshots 表。
// 通道计数以小端 u32 序列原样落库，避免千级通道逐行展开。
type SpectrumSnapshot struct {
	// 快照 UUID，由采集端生成
	SnapshotID  string    `gorm:"column:snapshot_id;type:uuid;primaryKey"`
	DeviceID    int64     `gorm:"column:device_id;not null;index:idx_spectrum_device_time,priority:1"`
	TS          time.Time `gorm:"column:ts;not null;index:idx_spectrum_device_time,priority:2,sort:desc"`
	Accumulated bool      `gorm:"column:accumulated;not null;default:false"`
	DurationSec int64     `gorm:"column:duration_sec;not null"`
	A0          float32   `gorm:"column:a0;not null"`
	A1          float32   `gorm:"column:a1;not null"`
	A2          float32   `gorm:"column:a2;not null"`
	Channels    int32     `gorm:"column:channels;not null"`
	Counts      []byte    `gorm:"column:counts;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (SpectrumSnapshot) TableName() string { return "spectrum_snapshots" }
