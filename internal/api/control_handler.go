package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/radiacode-server/internal/protocol/radiacode"
)

// ErrUnknownDevice 指令下发目标不在机队中
var ErrUnknownDevice = errors.New("unknown device")

// DeviceCommander 面向控制接口的机队指令抽象，由采集端实现
type DeviceCommander interface {
	SetSoundOn(serial string, on bool) error
	SetVibroOn(serial string, on bool) error
	SetDisplayBrightness(serial string, brightness int) error
	SetDisplayOffTime(serial string, seconds int) error
	SetDisplayDirection(serial string, dir radiacode.DisplayDirection) error
	SetLanguage(serial string, lang string) error
	DoseReset(serial string) error
	SpectrumReset(serial string) error
	PowerOff(serial string) error
}

// ControlHandler 仪器控制API处理器
type ControlHandler struct {
	cmd    DeviceCommander
	logger *zap.Logger
}

// NewControlHandler 创建控制API处理器
func NewControlHandler(cmd DeviceCommander, logger *zap.Logger) *ControlHandler {
	return &ControlHandler{cmd: cmd, logger: logger}
}

// respond 统一的指令结果映射：
// 未知仪器 404，参数拒绝 400，设备拒绝 502，其余 500
func (h *ControlHandler) respond(c *gin.Context, serial, action string, err error) {
	if err == nil {
		h.logger.Info("device command ok",
			zap.String("serial", serial), zap.String("action", action))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	h.logger.Warn("device command failed",
		zap.String("serial", serial), zap.String("action", action), zap.Error(err))

	var rejected *radiacode.DeviceRejectedError
	switch {
	case errors.Is(err, ErrUnknownDevice):
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
	case errors.As(err, &rejected):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type onOffRequest struct {
	On bool `json:"on"`
}

// SetSound 声音开关
// @Summary 设置声音开关
// @Tags 仪器控制
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param serial path string true "仪器序列号"
// @Param body body onOffRequest true "开关状态"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/devices/{serial}/sound [post]
func (h *ControlHandler) SetSound(c *gin.Context) {
	var req onOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	serial := c.Param("serial")
	h.respond(c, serial, "sound", h.cmd.SetSoundOn(serial, req.On))
}

// SetVibro 震动开关
// @Summary 设置震动开关
// @Tags 仪器控制
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param serial path string true "仪器序列号"
// @Param body body onOffRequest true "开关状态"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/devices/{serial}/vibro [post]
func (h *ControlHandler) SetVibro(c *gin.Context) {
	var req onOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	serial := c.Param("serial")
	h.respond(c, serial, "vibro", h.cmd.SetVibroOn(serial, req.On))
}

type displayRequest struct {
	Brightness *int    `json:"brightness,omitempty"`
	OffTimeSec *int    `json:"off_time_sec,omitempty"`
	Direction  *uint32 `json:"direction,omitempty"`
}

// SetDisplay 屏幕设置
// @Summary 设置屏幕亮度/熄灭时间/方向
// @Description 三个字段均可选，按给出的字段逐项下发
// @Tags 仪器控制
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param serial path string true "仪器序列号"
// @Param body body displayRequest true "屏幕设置"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/devices/{serial}/display [post]
func (h *ControlHandler) SetDisplay(c *gin.Context) {
	var req displayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.Brightness == nil && req.OffTimeSec == nil && req.Direction == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no display settings given"})
		return
	}
	serial := c.Param("serial")

	if req.Brightness != nil {
		if err := h.cmd.SetDisplayBrightness(serial, *req.Brightness); err != nil {
			h.respond(c, serial, "display_brightness", err)
			return
		}
	}
	if req.OffTimeSec != nil {
		if err := h.cmd.SetDisplayOffTime(serial, *req.OffTimeSec); err != nil {
			h.respond(c, serial, "display_off_time", err)
			return
		}
	}
	if req.Direction != nil {
		if err := h.cmd.SetDisplayDirection(serial, radiacode.DisplayDirection(*req.Direction)); err != nil {
			h.respond(c, serial, "display_direction", err)
			return
		}
	}
	h.respond(c, serial, "display", nil)
}

type languageRequest struct {
	Language string `json:"language"`
}

// SetLanguage 界面语言
// @Summary 设置界面语言
// @Tags 仪器控制
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param serial path string true "仪器序列号"
// @Param body body languageRequest true "语言: ru|en"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/devices/{serial}/language [post]
func (h *ControlHandler) SetLanguage(c *gin.Context) {
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	serial := c.Param("serial")
	h.respond(c, serial, "language", h.cmd.SetLanguage(serial, req.Language))
}

// DoseReset 清零累计剂量
// @Summary 清零累计剂量
// @Tags 仪器控制
// @Produce json
// @Security ApiKeyAuth
// @Param serial path string true "仪器序列号"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/devices/{serial}/dose/reset [post]
func (h *ControlHandler) DoseReset(c *gin.Context) {
	serial := c.Param("serial")
	h.respond(c, serial, "dose_reset", h.cmd.DoseReset(serial))
}

// SpectrumReset 清空能谱累计
// @Summary 清空设备端能谱累计
// @Tags 仪器控制
// @Produce json
// @Security ApiKeyAuth
// @Param serial path string true "仪器序列号"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/devices/{serial}/spectrum/reset [post]
func (h *ControlHandler) SpectrumReset(c *gin.Context) {
	serial := c.Param("serial")
	h.respond(c, serial, "spectrum_reset", h.cmd.SpectrumReset(serial))
}

// PowerOff 远程关机
// @Summary 远程关闭仪器
// @Description 固件只支持远程关机，不支持远程开机
// @Tags 仪器控制
// @Produce json
// @Security ApiKeyAuth
// @Param serial path string true "仪器序列号"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/devices/{serial}/poweroff [post]
func (h *ControlHandler) PowerOff(c *gin.Context) {
	serial := c.Param("serial")
	h.respond(c, serial, "poweroff", h.cmd.PowerOff(serial))
}
