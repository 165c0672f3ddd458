package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/taoyao-code/radiacode-server/internal/protocol/radiacode"
)

// fakeCommander 记录指令调用，按序列号注入错误
type fakeCommander struct {
	calls []string
	fail  map[string]error // serial -> error
}

func (f *fakeCommander) do(serial, action string) error {
	f.calls = append(f.calls, serial+":"+action)
	if err, ok := f.fail[serial]; ok {
		return err
	}
	return nil
}

func (f *fakeCommander) SetSoundOn(serial string, on bool) error { return f.do(serial, "sound") }
func (f *fakeCommander) SetVibroOn(serial string, on bool) error { return f.do(serial, "vibro") }
func (f *fakeCommander) SetDisplayBrightness(serial string, brightness int) error {
	return f.do(serial, "brightness")
}
func (f *fakeCommander) SetDisplayOffTime(serial string, seconds int) error {
	return f.do(serial, "offtime")
}
func (f *fakeCommander) SetDisplayDirection(serial string, dir radiacode.DisplayDirection) error {
	return f.do(serial, "direction")
}
func (f *fakeCommander) SetLanguage(serial string, lang string) error {
	return f.do(serial, "language")
}
func (f *fakeCommander) DoseReset(serial string) error     { return f.do(serial, "dose_reset") }
func (f *fakeCommander) SpectrumReset(serial string) error { return f.do(serial, "spectrum_reset") }
func (f *fakeCommander) PowerOff(serial string) error      { return f.do(serial, "poweroff") }

func newControlRouter(cmd DeviceCommander) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewControlHandler(cmd, zap.NewNop())
	r.POST("/api/devices/:serial/sound", h.SetSound)
	r.POST("/api/devices/:serial/display", h.SetDisplay)
	r.POST("/api/devices/:serial/dose/reset", h.DoseReset)
	return r
}

func TestControlHandler_SoundOK(t *testing.T) {
	cmd := &fakeCommander{}
	r := newControlRouter(cmd)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/devices/RC-1/sound",
		strings.NewReader(`{"on":true}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"RC-1:sound"}, cmd.calls)
}

func TestControlHandler_SoundInvalidBody(t *testing.T) {
	cmd := &fakeCommander{}
	r := newControlRouter(cmd)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/devices/RC-1/sound",
		strings.NewReader(`not json`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, cmd.calls)
}

func TestControlHandler_UnknownDevice(t *testing.T) {
	cmd := &fakeCommander{fail: map[string]error{"ghost": ErrUnknownDevice}}
	r := newControlRouter(cmd)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/devices/ghost/dose/reset", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestControlHandler_DeviceRejected(t *testing.T) {
	cmd := &fakeCommander{fail: map[string]error{
		"RC-2": &radiacode.DeviceRejectedError{Command: 0x8010, Code: 0x80000005},
	}}
	r := newControlRouter(cmd)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/devices/RC-2/dose/reset", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestControlHandler_DisplayRequiresFields(t *testing.T) {
	cmd := &fakeCommander{}
	r := newControlRouter(cmd)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/devices/RC-1/display",
		strings.NewReader(`{}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, cmd.calls)
}

func TestControlHandler_DisplayAllFields(t *testing.T) {
	cmd := &fakeCommander{}
	r := newControlRouter(cmd)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/devices/RC-1/display",
		strings.NewReader(`{"brightness":5,"off_time_sec":10,"direction":1}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"RC-1:brightness", "RC-1:offtime", "RC-1:direction"}, cmd.calls)
}
