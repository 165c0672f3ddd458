package api

import (
	"encoding/binary"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/radiacode-server/internal/session"
	"github.com/taoyao-code/radiacode-server/internal/storage"
	redisstore "github.com/taoyao-code/radiacode-server/internal/storage/redis"
)

// ReadOnlyHandler 只读API处理器
type ReadOnlyHandler struct {
	repo   storage.CoreRepo
	cache  *redisstore.Cache // 可为 nil，降级直查数据库
	sess   *session.Manager
	logger *zap.Logger
}

// NewReadOnlyHandler 创建只读API处理器
func NewReadOnlyHandler(
	repo storage.CoreRepo,
	cache *redisstore.Cache,
	sess *session.Manager,
	logger *zap.Logger,
) *ReadOnlyHandler {
	return &ReadOnlyHandler{
		repo:   repo,
		cache:  cache,
		sess:   sess,
		logger: logger,
	}
}

func parsePaging(c *gin.Context) (limit, offset int) {
	limit, offset = 100, 0
	if v := c.Query("limit"); v != "" {
		if vv, e := strconv.Atoi(v); e == nil {
			limit = vv
		}
	}
	if v := c.Query("offset"); v != "" {
		if vv, e := strconv.Atoi(v); e == nil {
			offset = vv
		}
	}
	return limit, offset
}

// ListDevices 查询仪器列表
// @Summary 查询仪器列表
// @Description 分页查询所有在册仪器及其在线状态
// @Tags 仪器管理
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "每页数量(默认100)"
// @Param offset query int false "偏移量(默认0)"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/devices [get]
func (h *ReadOnlyHandler) ListDevices(c *gin.Context) {
	limit, offset := parsePaging(c)

	list, err := h.repo.ListDevices(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	enriched := make([]gin.H, 0, len(list))
	for _, d := range list {
		enriched = append(enriched, gin.H{
			"id":                  d.ID,
			"serial":              d.Serial,
			"name":                d.Name,
			"addr":                d.Addr,
			"hw_serial":           d.HwSerial,
			"fw_version":          d.FwVersion,
			"spec_format_version": d.SpecFormatVersion,
			"last_seen_at":        d.LastSeenAt,
			"online":              h.sess.IsOnline(d.Serial, now),
		})
	}
	c.JSON(200, gin.H{"devices": enriched})
}

// GetDevice 查询单台仪器
// @Summary 查询仪器详情
// @Description 根据序列号查询仪器与在线状态
// @Tags 仪器管理
// @Produce json
// @Security ApiKeyAuth
// @Param serial path string true "仪器序列号"
// @Success 200 {object} map[string]interface{} "成功"
// @Failure 404 {object} map[string]interface{} "仪器不存在"
// @Router /api/devices/{serial} [get]
func (h *ReadOnlyHandler) GetDevice(c *gin.Context) {
	serial := c.Param("serial")
	device, err := h.repo.GetDeviceBySerial(c.Request.Context(), serial)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	c.JSON(200, gin.H{
		"device": device,
		"online": h.sess.IsOnline(serial, time.Now()),
	})
}

// GetLatestReading 查询仪器最新读数
// @Summary 查询最新读数
// @Description 优先读 Redis 缓存，缓存缺失时回退数据库
// @Tags 遥测
// @Produce json
// @Security ApiKeyAuth
// @Param serial path string true "仪器序列号"
// @Success 200 {object} map[string]interface{} "成功"
// @Failure 404 {object} map[string]interface{} "无读数"
// @Router /api/devices/{serial}/latest [get]
func (h *ReadOnlyHandler) GetLatestReading(c *gin.Context) {
	serial := c.Param("serial")
	ctx := c.Request.Context()

	if h.cache != nil {
		if r, err := h.cache.GetLatest(ctx, serial); err == nil && r != nil {
			c.JSON(200, gin.H{"reading": r, "source": "cache"})
			return
		}
	}

	device, err := h.repo.GetDeviceBySerial(ctx, serial)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	sample, err := h.repo.LatestSample(ctx, device.ID, "realtime")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no readings"})
		return
	}
	c.JSON(200, gin.H{"reading": sample, "source": "db"})
}

// ListSamples 查询遥测样本
// @Summary 查询遥测样本
// @Description 按时间倒序查询仪器遥测样本，kind 可选过滤
// @Tags 遥测
// @Produce json
// @Security ApiKeyAuth
// @Param serial path string true "仪器序列号"
// @Param kind query string false "记录种类: doserate_db|rare|realtime|raw"
// @Param limit query int false "每页数量(默认100)"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/devices/{serial}/samples [get]
func (h *ReadOnlyHandler) ListSamples(c *gin.Context) {
	serial := c.Param("serial")
	ctx := c.Request.Context()

	device, err := h.repo.GetDeviceBySerial(ctx, serial)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	limit, _ := parsePaging(c)
	samples, err := h.repo.ListSamples(ctx, device.ID, c.Query("kind"), limit)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"serial": serial, "samples": samples})
}

// ListEvents 查询仪器事件
// @Summary 查询仪器事件
// @Description 按时间倒序查询报警/按键等离散事件
// @Tags 遥测
// @Produce json
// @Security ApiKeyAuth
// @Param serial path string true "仪器序列号"
// @Param limit query int false "每页数量(默认100)"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/devices/{serial}/events [get]
func (h *ReadOnlyHandler) ListEvents(c *gin.Context) {
	serial := c.Param("serial")
	ctx := c.Request.Context()

	device, err := h.repo.GetDeviceBySerial(ctx, serial)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	limit, _ := parsePaging(c)
	events, err := h.repo.ListEvents(ctx, device.ID, limit)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"serial": serial, "events": events})
}

// GetSpectrum 查询最新能谱
// @Summary 查询最新能谱快照
// @Description 返回最近一次采集的能谱，accumulated=true 返回累计谱
// @Tags 能谱
// @Produce json
// @Security ApiKeyAuth
// @Param serial path string true "仪器序列号"
// @Param accumulated query bool false "是否累计谱(默认false)"
// @Success 200 {object} map[string]interface{} "成功"
// @Failure 404 {object} map[string]interface{} "无能谱"
// @Router /api/devices/{serial}/spectrum [get]
func (h *ReadOnlyHandler) GetSpectrum(c *gin.Context) {
	serial := c.Param("serial")
	ctx := c.Request.Context()

	device, err := h.repo.GetDeviceBySerial(ctx, serial)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	accumulated := c.Query("accumulated") == "true"
	snap, err := h.repo.LatestSpectrum(ctx, device.ID, accumulated)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no spectrum"})
		return
	}

	counts := make([]uint32, 0, snap.Channels)
	for i := 0; i+4 <= len(snap.Counts); i += 4 {
		counts = append(counts, binary.LittleEndian.Uint32(snap.Counts[i:]))
	}
	c.JSON(200, gin.H{
		"serial":       serial,
		"snapshot_id":  snap.SnapshotID,
		"ts":           snap.TS,
		"accumulated":  snap.Accumulated,
		"duration_sec": snap.DurationSec,
		"calibration":  []float32{snap.A0, snap.A1, snap.A2},
		"channels":     snap.Channels,
		"counts":       counts,
	})
}

// Ready 快速就绪检查
// @Summary 快速就绪检查
// @Description 检查服务是否就绪
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{} "就绪"
// @Router /ready [get]
func (h *ReadOnlyHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ready",
		"online_devices": h.sess.OnlineCount(time.Now()),
		"time":           time.Now().Format(time.RFC3339),
	})
}
