package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/radiacode-server/internal/config"
	"github.com/taoyao-code/radiacode-server/internal/protocol/radiacode"
	"github.com/taoyao-code/radiacode-server/internal/session"
	"github.com/taoyao-code/radiacode-server/internal/storage"
	"github.com/taoyao-code/radiacode-server/internal/storage/models"
)

// fakeTarget 可编程的仪器视图
type fakeTarget struct {
	serial   string
	records  []radiacode.Record
	readErr  error
	spectrum *radiacode.Spectrum
	specErr  error

	dataBufCalls  int
	spectrumCalls int
}

func (f *fakeTarget) Serial() string         { return f.serial }
func (f *fakeTarget) Name() string           { return "测试仪器" }
func (f *fakeTarget) Addr() string           { return "127.0.0.1:9000" }
func (f *fakeTarget) HwSerial() string       { return "AB-11-22" }
func (f *fakeTarget) Firmware() string       { return "4.9 (2024-01-01)" }
func (f *fakeTarget) SpecFormatVersion() int { return 1 }

func (f *fakeTarget) ReadDataBuf() ([]radiacode.Record, error) {
	f.dataBufCalls++
	return f.records, f.readErr
}

func (f *fakeTarget) ReadSpectrum(accumulated bool) (*radiacode.Spectrum, error) {
	f.spectrumCalls++
	return f.spectrum, f.specErr
}

// fakeCoreRepo 记录写入的最小仓储实现，未覆盖方法不可调用
type fakeCoreRepo struct {
	storage.CoreRepo

	device    models.Device
	samples   []models.TelemetrySample
	events    []models.DeviceEvent
	spectra   []*models.SpectrumSnapshot
	touchedAt time.Time
}

func (f *fakeCoreRepo) EnsureDevice(ctx context.Context, serial, name, addr string) (*models.Device, error) {
	f.device = models.Device{ID: 7, Serial: serial, Name: name, Addr: addr}
	return &f.device, nil
}

func (f *fakeCoreRepo) UpdateDeviceIdentity(ctx context.Context, serial string, hwSerial, fwVersion string, specFormatVersion int) error {
	return nil
}

func (f *fakeCoreRepo) TouchDeviceLastSeen(ctx context.Context, serial string, at time.Time) error {
	f.touchedAt = at
	return nil
}

func (f *fakeCoreRepo) InsertSamples(ctx context.Context, samples []models.TelemetrySample) error {
	f.samples = append(f.samples, samples...)
	return nil
}

func (f *fakeCoreRepo) InsertEvents(ctx context.Context, events []models.DeviceEvent) error {
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeCoreRepo) InsertSpectrum(ctx context.Context, snap *models.SpectrumSnapshot) error {
	f.spectra = append(f.spectra, snap)
	return nil
}

func newTestPoller(repo storage.CoreRepo, cfg cfgpkg.PollConfig) (*Poller, *session.Manager) {
	_, appm := NewMetrics()
	sess := session.New(time.Minute)
	return NewPoller(repo, nil, nil, sess, appm, cfg, zap.NewNop()), sess
}

func TestSplitRecords(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []radiacode.Record{
		radiacode.DoseRateDB{TS: ts, Count: 42, CountRate: 3.5, DoseRate: 0.12, DoseRateErr: 1.5, Flags: 0x01},
		radiacode.Event{TS: ts.Add(time.Second), Group: 1, Event: 2, Param1: 3, Flags: 0x80},
		radiacode.RareData{TS: ts.Add(2 * time.Second), Duration: 90 * time.Second, Dose: 10.5, Temperature: 21.5, ChargeLevel: 87.0, Flags: 0},
	}

	samples, events := splitRecords(7, records)
	require.Len(t, samples, 2)
	require.Len(t, events, 1)

	assert.Equal(t, "doserate_db", samples[0].Kind)
	assert.Equal(t, int64(7), samples[0].DeviceID)
	require.NotNil(t, samples[0].Count)
	assert.Equal(t, int64(42), *samples[0].Count)
	require.NotNil(t, samples[0].DoseRate)
	assert.Equal(t, 0.12, *samples[0].DoseRate)
	assert.Nil(t, samples[0].Temperature)

	assert.Equal(t, "rare", samples[1].Kind)
	require.NotNil(t, samples[1].DurationSec)
	assert.Equal(t, int64(90), *samples[1].DurationSec)
	require.NotNil(t, samples[1].ChargeLevel)
	assert.Equal(t, 87.0, *samples[1].ChargeLevel)

	assert.Equal(t, int16(1), events[0].GroupNo)
	assert.Equal(t, int16(2), events[0].Event)
	assert.Equal(t, int16(3), events[0].Param1)
	assert.Equal(t, int32(0x80), events[0].Flags)
}

func TestSampleFromRealTimeRecord(t *testing.T) {
	ts := time.Now()
	s := sampleFromRecord(1, radiacode.RealTimeData{
		TS: ts, CountRate: 5.25, CountRateErr: 2.0,
		DoseRate: 0.25, DoseRateErr: 3.0, Flags: 0x10, RealTimeFlags: 0x02,
	})
	assert.Equal(t, "realtime", s.Kind)
	require.NotNil(t, s.RtFlags)
	assert.Equal(t, int16(0x02), *s.RtFlags)
	require.NotNil(t, s.CountRateErr)
	assert.Equal(t, 2.0, *s.CountRateErr)
	assert.Nil(t, s.Count)
}

func TestPollOnceStoresRecords(t *testing.T) {
	ts := time.Now()
	target := &fakeTarget{
		serial: "RC-102-001",
		records: []radiacode.Record{
			radiacode.RealTimeData{TS: ts, CountRate: 4.0, DoseRate: 0.15},
			radiacode.Event{TS: ts, Group: 0, Event: 1, Param1: 0},
		},
	}
	repo := &fakeCoreRepo{}
	p, sess := newTestPoller(repo, cfgpkg.PollConfig{
		Interval: time.Second, RatePerSecond: 100, RateBurst: 10,
	})

	err := p.pollOnce(context.Background(), target, 7, 1)
	require.NoError(t, err)

	assert.Len(t, repo.samples, 1)
	assert.Len(t, repo.events, 1)
	assert.False(t, repo.touchedAt.IsZero())
	assert.True(t, sess.IsOnline("RC-102-001", time.Now()))
	assert.Equal(t, 0, target.spectrumCalls, "未到能谱周期不应读能谱")
}

func TestPollOnceSpectrumCycle(t *testing.T) {
	target := &fakeTarget{
		serial: "RC-102-002",
		spectrum: &radiacode.Spectrum{
			Duration: 120 * time.Second,
			A0:       1.0, A1: 2.0, A2: 0.001,
			Counts: []uint32{10, 20, 30},
		},
	}
	repo := &fakeCoreRepo{}
	p, _ := newTestPoller(repo, cfgpkg.PollConfig{
		Interval: time.Second, SpectrumEvery: 2, RatePerSecond: 100, RateBurst: 10,
	})

	require.NoError(t, p.pollOnce(context.Background(), target, 7, 1))
	assert.Equal(t, 0, target.spectrumCalls)

	require.NoError(t, p.pollOnce(context.Background(), target, 7, 2))
	require.Equal(t, 1, target.spectrumCalls)
	require.Len(t, repo.spectra, 1)

	snap := repo.spectra[0]
	assert.Equal(t, int64(7), snap.DeviceID)
	assert.False(t, snap.Accumulated)
	assert.Equal(t, int64(120), snap.DurationSec)
	assert.Equal(t, int32(3), snap.Channels)
	assert.Equal(t, []byte{10, 0, 0, 0, 20, 0, 0, 0, 30, 0, 0, 0}, snap.Counts)
	assert.NotEmpty(t, snap.SnapshotID)
}

func TestPollOnceReadError(t *testing.T) {
	target := &fakeTarget{serial: "RC-102-003", readErr: errors.New("connection reset")}
	repo := &fakeCoreRepo{}
	p, sess := newTestPoller(repo, cfgpkg.PollConfig{
		Interval: time.Second, RatePerSecond: 100, RateBurst: 10,
	})

	err := p.pollOnce(context.Background(), target, 7, 1)
	require.Error(t, err)
	assert.Empty(t, repo.samples)
	assert.False(t, sess.IsOnline("RC-102-003", time.Now()))
}

func TestRegisterDevice(t *testing.T) {
	target := &fakeTarget{serial: "RC-102-004"}
	repo := &fakeCoreRepo{}
	p, _ := newTestPoller(repo, cfgpkg.PollConfig{Interval: time.Second})

	id, err := p.registerDevice(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "RC-102-004", repo.device.Serial)
	assert.Equal(t, "测试仪器", repo.device.Name)
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"设备拒绝", &radiacode.DeviceRejectedError{Command: 0x0826, Code: 0}, "rejected"},
		{"回显不匹配", &radiacode.HeaderMismatchError{}, "header_mismatch"},
		{"长度不符", &radiacode.LengthMismatchError{Command: 0x0826, Declared: 4, Actual: 2}, "length_mismatch"},
		{"流解码失败", &radiacode.StreamError{Index: 3, Reason: "truncated"}, "stream"},
		{"数据不足", radiacode.ErrUnderflow, "underflow"},
		{"传输错误", errors.New("dial tcp: timeout"), "transport"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errorKind(tc.err))
		})
	}
}

func TestEncodeCounts(t *testing.T) {
	assert.Empty(t, encodeCounts(nil))
	got := encodeCounts([]uint32{1, 0x01020304})
	assert.Equal(t, []byte{1, 0, 0, 0, 0x04, 0x03, 0x02, 0x01}, got)
}
