package storage

import (
	"context"
	"time"

	"github.com/taoyao-code/radiacode-server/internal/storage/models"
)

// CoreRepo 面向采集核心的存储抽象。
// 约束：
// - 禁止上层直接写 SQL，统一通过本接口访问
// - 实现需要提供事务封装 WithTx，保证核心路径原子性
// - 接口必须保持 DB-agnostic（面向模型与基础类型）
type CoreRepo interface {
	// ---------- 事务 ----------
	// WithTx 在单个事务中执行 fn，fn 内使用 repo 执行的所有写入/读取都在同一事务中。
	// 实现应保证嵌套调用正确复用当前事务。
	WithTx(ctx context.Context, fn func(repo CoreRepo) error) error

	// ---------- 仪器 ----------
	// EnsureDevice 若序列号不存在则创建，存在则刷新名称/地址，返回设备记录
	EnsureDevice(ctx context.Context, serial, name, addr string) (*models.Device, error)
	// UpdateDeviceIdentity 写入初始化时读到的硬件序列号/固件版本/能谱格式版本
	UpdateDeviceIdentity(ctx context.Context, serial string, hwSerial, fwVersion string, specFormatVersion int) error
	// TouchDeviceLastSeen 刷新仪器最近采样时间
	TouchDeviceLastSeen(ctx context.Context, serial string, at time.Time) error
	// GetDeviceBySerial 通过序列号查询仪器
	GetDeviceBySerial(ctx context.Context, serial string) (*models.Device, error)
	// ListDevices 简单列表示例（仅用于管理/调试）
	ListDevices(ctx context.Context, limit, offset int) ([]models.Device, error)

	// ---------- 遥测 ----------
	// InsertSamples 批量写入遥测样本
	InsertSamples(ctx context.Context, samples []models.TelemetrySample) error
	// LatestSample 读取仪器指定种类的最新样本
	LatestSample(ctx context.Context, deviceID int64, kind string) (*models.TelemetrySample, error)
	// ListSamples 按时间倒序分页读取仪器样本
	ListSamples(ctx context.Context, deviceID int64, kind string, limit int) ([]models.TelemetrySample, error)

	// ---------- 事件 ----------
	// InsertEvents 批量写入离散事件
	InsertEvents(ctx context.Context, events []models.DeviceEvent) error
	// ListEvents 按时间倒序读取仪器事件
	ListEvents(ctx context.Context, deviceID int64, limit int) ([]models.DeviceEvent, error)

	// ---------- 能谱 ----------
	// InsertSpectrum 写入一份能谱快照
	InsertSpectrum(ctx context.Context, snap *models.SpectrumSnapshot) error
	// LatestSpectrum 读取仪器最新能谱快照
	LatestSpectrum(ctx context.Context, deviceID int64, accumulated bool) (*models.SpectrumSnapshot, error)
}
