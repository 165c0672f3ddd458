package app

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	cfgpkg "github.com/taoyao-code/radiacode-server/internal/config"
	"github.com/taoyao-code/radiacode-server/internal/metrics"
	"github.com/taoyao-code/radiacode-server/internal/protocol/radiacode"
	"github.com/taoyao-code/radiacode-server/internal/session"
	"github.com/taoyao-code/radiacode-server/internal/storage"
	"github.com/taoyao-code/radiacode-server/internal/storage/models"
	pgstorage "github.com/taoyao-code/radiacode-server/internal/storage/pg"
	redisstorage "github.com/taoyao-code/radiacode-server/internal/storage/redis"
)

// pollTarget 采集循环看到的仪器视图，由 *ManagedDevice 实现
type pollTarget interface {
	Serial() string
	Name() string
	Addr() string
	HwSerial() string
	Firmware() string
	SpecFormatVersion() int
	ReadDataBuf() ([]radiacode.Record, error)
	ReadSpectrum(accumulated bool) (*radiacode.Spectrum, error)
}

// Poller 机队采集循环：每台仪器一个 goroutine，按固定周期拉取
// 数据缓冲区，周期性读取能谱，落库并刷新缓存与指标。
// 全机队共享一个令牌桶限速器，约束对桥接器的总指令速率。
type Poller struct {
	repo    storage.CoreRepo
	ingest  *pgstorage.Ingester // 为空时回退到 repo 批量插入
	cache   *redisstorage.Cache // 为空时跳过缓存与报警发布
	sess    *session.Manager
	metrics *metrics.AppMetrics
	cfg     cfgpkg.PollConfig
	log     *zap.Logger
	limiter *rate.Limiter
}

// NewPoller 创建采集循环
func NewPoller(
	repo storage.CoreRepo,
	ingest *pgstorage.Ingester,
	cache *redisstorage.Cache,
	sess *session.Manager,
	m *metrics.AppMetrics,
	cfg cfgpkg.PollConfig,
	log *zap.Logger,
) *Poller {
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &Poller{
		repo:    repo,
		ingest:  ingest,
		cache:   cache,
		sess:    sess,
		metrics: m,
		cfg:     cfg,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Run 为机队中每台仪器启动采集循环，阻塞到 ctx 取消
func (p *Poller) Run(ctx context.Context, fleet *Fleet) {
	var wg sync.WaitGroup
	for _, d := range fleet.List() {
		wg.Add(1)
		go func(d *ManagedDevice) {
			defer wg.Done()
			p.pollLoop(ctx, d)
		}(d)
	}
	wg.Wait()
}

// pollLoop 单台仪器的采集循环：先登记设备记录，再按周期采样
func (p *Poller) pollLoop(ctx context.Context, d pollTarget) {
	log := p.log.With(zap.String("serial", d.Serial()))

	deviceID, err := p.registerDevice(ctx, d)
	if err != nil {
		log.Error("register device failed, poll loop aborted", zap.Error(err))
		return
	}
	p.sess.Register(d.Serial(), d.Firmware())
	log.Info("poll loop started", zap.Duration("interval", p.cfg.Interval))

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	cycle := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("poll loop stopped")
			return
		case <-ticker.C:
			cycle++
			if err := p.pollOnce(ctx, d, deviceID, cycle); err != nil {
				log.Warn("poll cycle failed", zap.Int("cycle", cycle), zap.Error(err))
			}
		}
	}
}

// registerDevice 落库仪器身份信息并返回数据库主键
func (p *Poller) registerDevice(ctx context.Context, d pollTarget) (int64, error) {
	dev, err := p.repo.EnsureDevice(ctx, d.Serial(), d.Name(), d.Addr())
	if err != nil {
		return 0, err
	}
	if err := p.repo.UpdateDeviceIdentity(ctx, d.Serial(),
		d.HwSerial(), d.Firmware(), d.SpecFormatVersion()); err != nil {
		return 0, err
	}
	return dev.ID, nil
}

// pollOnce 执行一轮采样：拉缓冲区、落库、刷新缓存指标，按需读能谱
func (p *Poller) pollOnce(ctx context.Context, d pollTarget, deviceID int64, cycle int) error {
	serial := d.Serial()
	start := time.Now()
	defer func() {
		p.metrics.PollDuration.WithLabelValues(serial).Observe(time.Since(start).Seconds())
	}()

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	records, err := d.ReadDataBuf()
	if err != nil {
		p.metrics.ProtocolErrorTotal.WithLabelValues(serial, errorKind(err)).Inc()
		return err
	}

	samples, events := splitRecords(deviceID, records)
	if err := p.storeBatch(ctx, samples, events); err != nil {
		return err
	}

	now := time.Now()
	p.sess.Touch(serial, now)
	if err := p.repo.TouchDeviceLastSeen(ctx, serial, now); err != nil {
		p.log.Warn("touch last seen failed", zap.String("serial", serial), zap.Error(err))
	}

	p.observeRecords(ctx, serial, records)
	p.metrics.OnlineGauge.Set(float64(p.sess.OnlineCount(now)))

	if p.cfg.SpectrumEvery > 0 && cycle%p.cfg.SpectrumEvery == 0 {
		if err := p.pollSpectrum(ctx, d, deviceID); err != nil {
			p.metrics.ProtocolErrorTotal.WithLabelValues(serial, errorKind(err)).Inc()
			p.log.Warn("spectrum read failed", zap.String("serial", serial), zap.Error(err))
		}
	}
	return nil
}

// storeBatch 批量落库：优先走 COPY 写入器，退化为仓储批量插入
func (p *Poller) storeBatch(ctx context.Context, samples []models.TelemetrySample, events []models.DeviceEvent) error {
	if p.ingest != nil {
		if _, err := p.ingest.CopySamples(ctx, samples); err != nil {
			return err
		}
		_, err := p.ingest.CopyEvents(ctx, events)
		return err
	}
	if err := p.repo.InsertSamples(ctx, samples); err != nil {
		return err
	}
	return p.repo.InsertEvents(ctx, events)
}

// observeRecords 刷新指标、最新读数缓存与报警发布
func (p *Poller) observeRecords(ctx context.Context, serial string, records []radiacode.Record) {
	var latest *radiacode.RealTimeData
	for _, rec := range records {
		p.metrics.RecordTotal.WithLabelValues(serial, rec.Kind()).Inc()

		switch r := rec.(type) {
		case radiacode.RealTimeData:
			p.metrics.DoseRateGauge.WithLabelValues(serial).Set(r.DoseRate)
			rt := r
			latest = &rt
		case radiacode.DoseRateDB:
			p.metrics.DoseRateGauge.WithLabelValues(serial).Set(r.DoseRate)
		case radiacode.Event:
			if p.cache != nil {
				ev := &redisstorage.AlarmEvent{
					Serial: serial,
					TS:     r.TS,
					Group:  r.Group,
					Event:  r.Event,
					Param1: r.Param1,
				}
				if err := p.cache.PublishAlarm(ctx, ev); err != nil {
					p.log.Warn("publish alarm failed", zap.String("serial", serial), zap.Error(err))
				}
			}
		}
	}

	if p.cache != nil && latest != nil {
		reading := &redisstorage.LatestReading{
			Serial:      serial,
			TS:          latest.TS,
			CountRate:   latest.CountRate,
			DoseRate:    latest.DoseRate,
			DoseRateErr: latest.DoseRateErr,
		}
		if err := p.cache.SetLatest(ctx, reading); err != nil {
			p.log.Warn("cache latest reading failed", zap.String("serial", serial), zap.Error(err))
		}
	}
}

// pollSpectrum 读取当前能谱并落一份快照
func (p *Poller) pollSpectrum(ctx context.Context, d pollTarget, deviceID int64) error {
	spec, err := d.ReadSpectrum(false)
	if err != nil {
		return err
	}
	snap := &models.SpectrumSnapshot{
		SnapshotID:  uuid.New().String(),
		DeviceID:    deviceID,
		TS:          time.Now(),
		Accumulated: false,
		DurationSec: int64(spec.Duration / time.Second),
		A0:          spec.A0,
		A1:          spec.A1,
		A2:          spec.A2,
		Channels:    int32(spec.Channels()),
		Counts:      encodeCounts(spec.Counts),
	}
	if err := p.repo.InsertSpectrum(ctx, snap); err != nil {
		return err
	}
	p.metrics.SpectrumReadTotal.WithLabelValues(d.Serial()).Inc()
	return nil
}

// splitRecords 把解码记录分拣为遥测样本与离散事件
func splitRecords(deviceID int64, records []radiacode.Record) ([]models.TelemetrySample, []models.DeviceEvent) {
	var samples []models.TelemetrySample
	var events []models.DeviceEvent
	for _, rec := range records {
		switch r := rec.(type) {
		case radiacode.Event:
			events = append(events, models.DeviceEvent{
				DeviceID: deviceID,
				TS:       r.TS,
				GroupNo:  int16(r.Group),
				Event:    int16(r.Event),
				Param1:   int16(r.Param1),
				Flags:    int32(r.Flags),
			})
		default:
			samples = append(samples, sampleFromRecord(deviceID, rec))
		}
	}
	return samples, events
}

// sampleFromRecord 按记录种类填充宽表对应列
func sampleFromRecord(deviceID int64, rec radiacode.Record) models.TelemetrySample {
	s := models.TelemetrySample{
		DeviceID: deviceID,
		TS:       rec.Time(),
		Kind:     rec.Kind(),
	}
	switch r := rec.(type) {
	case radiacode.DoseRateDB:
		s.Count = i64p(int64(r.Count))
		s.CountRate = f64p(r.CountRate)
		s.DoseRate = f64p(r.DoseRate)
		s.DoseRateErr = f64p(r.DoseRateErr)
		s.Flags = i32p(int32(r.Flags))
	case radiacode.RareData:
		s.DurationSec = i64p(int64(r.Duration / time.Second))
		s.Dose = f64p(r.Dose)
		s.Temperature = f64p(r.Temperature)
		s.ChargeLevel = f64p(r.ChargeLevel)
		s.Flags = i32p(int32(r.Flags))
	case radiacode.RealTimeData:
		s.CountRate = f64p(r.CountRate)
		s.CountRateErr = f64p(r.CountRateErr)
		s.DoseRate = f64p(r.DoseRate)
		s.DoseRateErr = f64p(r.DoseRateErr)
		s.Flags = i32p(int32(r.Flags))
		s.RtFlags = i16p(int16(r.RealTimeFlags))
	case radiacode.RawData:
		s.CountRate = f64p(r.CountRate)
		s.DoseRate = f64p(r.DoseRate)
	}
	return s
}

// errorKind 把协议错误归类为指标标签
func errorKind(err error) string {
	var (
		header   *radiacode.HeaderMismatchError
		rejected *radiacode.DeviceRejectedError
		length   *radiacode.LengthMismatchError
		stream   *radiacode.StreamError
	)
	switch {
	case errors.As(err, &header):
		return "header_mismatch"
	case errors.As(err, &rejected):
		return "rejected"
	case errors.As(err, &length):
		return "length_mismatch"
	case errors.As(err, &stream):
		return "stream"
	case errors.Is(err, radiacode.ErrUnderflow):
		return "underflow"
	default:
		return "transport"
	}
}

// encodeCounts 通道计数编码为小端 u32 序列
func encodeCounts(counts []uint32) []byte {
	buf := make([]byte, 4*len(counts))
	for i, v := range counts {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	return buf
}

func f64p(v float64) *float64 { return &v }
func i64p(v int64) *int64     { return &v }
func i32p(v int32) *int32     { return &v }
func i16p(v int16) *int16     { return &v }
