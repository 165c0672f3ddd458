package api

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/taoyao-code/radiacode-server/internal/session"
	"github.com/taoyao-code/radiacode-server/internal/storage"
	"github.com/taoyao-code/radiacode-server/internal/storage/models"
)

// fakeRepo 内存版 CoreRepo，只实现只读接口用到的方法
type fakeRepo struct {
	devices  map[string]*models.Device
	samples  []models.TelemetrySample
	events   []models.DeviceEvent
	spectrum *models.SpectrumSnapshot
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(storage.CoreRepo) error) error {
	return fn(f)
}

func (f *fakeRepo) EnsureDevice(ctx context.Context, serial, name, addr string) (*models.Device, error) {
	return f.devices[serial], nil
}

func (f *fakeRepo) UpdateDeviceIdentity(ctx context.Context, serial string, hwSerial, fwVersion string, specFormatVersion int) error {
	return nil
}

func (f *fakeRepo) TouchDeviceLastSeen(ctx context.Context, serial string, at time.Time) error {
	return nil
}

func (f *fakeRepo) GetDeviceBySerial(ctx context.Context, serial string) (*models.Device, error) {
	if d, ok := f.devices[serial]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListDevices(ctx context.Context, limit, offset int) ([]models.Device, error) {
	var out []models.Device
	for _, d := range f.devices {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeRepo) InsertSamples(ctx context.Context, samples []models.TelemetrySample) error {
	return nil
}

func (f *fakeRepo) LatestSample(ctx context.Context, deviceID int64, kind string) (*models.TelemetrySample, error) {
	for i := range f.samples {
		if f.samples[i].DeviceID == deviceID && (kind == "" || f.samples[i].Kind == kind) {
			return &f.samples[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListSamples(ctx context.Context, deviceID int64, kind string, limit int) ([]models.TelemetrySample, error) {
	var out []models.TelemetrySample
	for _, s := range f.samples {
		if s.DeviceID == deviceID && (kind == "" || s.Kind == kind) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertEvents(ctx context.Context, events []models.DeviceEvent) error { return nil }

func (f *fakeRepo) ListEvents(ctx context.Context, deviceID int64, limit int) ([]models.DeviceEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) InsertSpectrum(ctx context.Context, snap *models.SpectrumSnapshot) error {
	return nil
}

func (f *fakeRepo) LatestSpectrum(ctx context.Context, deviceID int64, accumulated bool) (*models.SpectrumSnapshot, error) {
	if f.spectrum == nil || f.spectrum.Accumulated != accumulated {
		return nil, gorm.ErrRecordNotFound
	}
	return f.spectrum, nil
}

func newReadonlyRouter(repo storage.CoreRepo, sess *session.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewReadOnlyHandler(repo, nil, sess, zap.NewNop())
	r.GET("/api/devices", h.ListDevices)
	r.GET("/api/devices/:serial", h.GetDevice)
	r.GET("/api/devices/:serial/latest", h.GetLatestReading)
	r.GET("/api/devices/:serial/spectrum", h.GetSpectrum)
	return r
}

func TestReadOnly_GetDevice(t *testing.T) {
	repo := &fakeRepo{devices: map[string]*models.Device{
		"RC-102-000042": {ID: 1, Serial: "RC-102-000042", Name: "lab"},
	}}
	sess := session.New(time.Minute)
	sess.Touch("RC-102-000042", time.Now())
	r := newReadonlyRouter(repo, sess)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/devices/RC-102-000042", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Online bool `json:"online"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Online)
}

func TestReadOnly_GetDeviceNotFound(t *testing.T) {
	r := newReadonlyRouter(&fakeRepo{devices: map[string]*models.Device{}}, session.New(time.Minute))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/devices/ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadOnly_LatestFallsBackToDB(t *testing.T) {
	rate := 0.12
	repo := &fakeRepo{
		devices: map[string]*models.Device{"RC-1": {ID: 7, Serial: "RC-1"}},
		samples: []models.TelemetrySample{
			{DeviceID: 7, Kind: "realtime", TS: time.Now(), DoseRate: &rate},
		},
	}
	r := newReadonlyRouter(repo, session.New(time.Minute))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/devices/RC-1/latest", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Source string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "db", resp.Source)
}

func TestReadOnly_SpectrumCountsDecoded(t *testing.T) {
	counts := make([]byte, 0, 12)
	for _, v := range []uint32{5, 0, 300} {
		counts = binary.LittleEndian.AppendUint32(counts, v)
	}
	repo := &fakeRepo{
		devices: map[string]*models.Device{"RC-1": {ID: 7, Serial: "RC-1"}},
		spectrum: &models.SpectrumSnapshot{
			SnapshotID: "3b8f0b9e-7c7e-4a53-9a6c-5f1f2b43a111",
			DeviceID:   7, Channels: 3, Counts: counts,
			DurationSec: 60, A1: 2.5,
		},
	}
	r := newReadonlyRouter(repo, session.New(time.Minute))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/devices/RC-1/spectrum", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Counts   []uint32 `json:"counts"`
		Channels int      `json:"channels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []uint32{5, 0, 300}, resp.Counts)
	assert.Equal(t, 3, resp.Channels)
}
