package gormrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/taoyao-code/radiacode-server/internal/storage"
	"github.com/taoyao-code/radiacode-server/internal/storage/models"
)

// Repository 基于 GORM 的 CoreRepo 实现。
// 使用 isTx 标记区分事务上下文，避免嵌套事务重复 Begin/Commit。
type Repository struct {
	db   *gorm.DB
	isTx bool
}

// New 返回一个使用给定 *gorm.DB 的 CoreRepo 实例。
func New(db *gorm.DB) storage.CoreRepo {
	return &Repository{db: db}
}

// WithTx 复用现有事务或开启新事务执行 fn。
func (r *Repository) WithTx(ctx context.Context, fn func(storage.CoreRepo) error) error {
	if r.isTx {
		return fn(r)
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	child := &Repository{db: tx, isTx: true}
	if err := fn(child); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// EnsureDevice 若仪器不存在则插入，存在则刷新名称/地址与 updated_at。
func (r *Repository) EnsureDevice(ctx context.Context, serial, name, addr string) (*models.Device, error) {
	record := &models.Device{
		Serial: serial,
		Name:   name,
		Addr:   addr,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "serial"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"name":       gorm.Expr("excluded.name"),
				"addr":       gorm.Expr("excluded.addr"),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(record).Error
	if err != nil {
		return nil, err
	}

	return r.GetDeviceBySerial(ctx, serial)
}

// UpdateDeviceIdentity 写入初始化时读到的身份信息。
func (r *Repository) UpdateDeviceIdentity(ctx context.Context, serial string, hwSerial, fwVersion string, specFormatVersion int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("serial = ?", serial).
		Updates(map[string]interface{}{
			"hw_serial":           hwSerial,
			"fw_version":          fwVersion,
			"spec_format_version": specFormatVersion,
			"updated_at":          gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchDeviceLastSeen 刷新仪器 last_seen_at。
func (r *Repository) TouchDeviceLastSeen(ctx context.Context, serial string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("serial = ?", serial).
		Updates(map[string]interface{}{
			"last_seen_at": at,
			"updated_at":   gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetDeviceBySerial 通过序列号查询仪器。
func (r *Repository) GetDeviceBySerial(ctx context.Context, serial string) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).Where("serial = ?", serial).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &device, err
}

// ListDevices 分页返回仪器列表，按 id 倒序。
func (r *Repository) ListDevices(ctx context.Context, limit, offset int) ([]models.Device, error) {
	var devices []models.Device
	q := r.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// InsertSamples 批量写入遥测样本。
func (r *Repository) InsertSamples(ctx context.Context, samples []models.TelemetrySample) error {
	if len(samples) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(samples, 500).Error
}

// LatestSample 读取仪器指定种类的最新样本。
func (r *Repository) LatestSample(ctx context.Context, deviceID int64, kind string) (*models.TelemetrySample, error) {
	var sample models.TelemetrySample
	q := r.db.WithContext(ctx).Where("device_id = ?", deviceID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Order("ts DESC").First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &sample, err
}

// ListSamples 按时间倒序分页读取仪器样本。
func (r *Repository) ListSamples(ctx context.Context, deviceID int64, kind string, limit int) ([]models.TelemetrySample, error) {
	var samples []models.TelemetrySample
	q := r.db.WithContext(ctx).Where("device_id = ?", deviceID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	q = q.Order("ts DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}

// InsertEvents 批量写入离散事件。
func (r *Repository) InsertEvents(ctx context.Context, events []models.DeviceEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(events, 500).Error
}

// ListEvents 按时间倒序读取仪器事件。
func (r *Repository) ListEvents(ctx context.Context, deviceID int64, limit int) ([]models.DeviceEvent, error) {
	var events []models.DeviceEvent
	q := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Order("ts DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// InsertSpectrum 写入一份能谱快照。
func (r *Repository) InsertSpectrum(ctx context.Context, snap *models.SpectrumSnapshot) error {
	return r.db.WithContext(ctx).Create(snap).Error
}

// LatestSpectrum 读取仪器最新能谱快照。
func (r *Repository) LatestSpectrum(ctx context.Context, deviceID int64, accumulated bool) (*models.SpectrumSnapshot, error) {
	var snap models.SpectrumSnapshot
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND accumulated = ?", deviceID, accumulated).
		Order("ts DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &snap, err
}
