package health

import (
	"context"
	"fmt"
	"time"

	"github.com/taoyao-code/radiacode-server/internal/session"
)

// DeviceChecker 仪器机队健康检查器：按在线比例评估采集面健康度
type DeviceChecker struct {
	sess       *session.Manager
	configured int // 配置中的仪器数量
}

// NewDeviceChecker 创建仪器健康检查器
func NewDeviceChecker(sess *session.Manager, configured int) *DeviceChecker {
	return &DeviceChecker{sess: sess, configured: configured}
}

// Name 返回检查器名称
func (c *DeviceChecker) Name() string {
	return "devices"
}

// Check 执行健康检查
func (c *DeviceChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	online := c.sess.OnlineCount(time.Now())

	// 未配置任何仪器时采集面不参与健康评估
	if c.configured == 0 {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "no devices configured",
			Latency: time.Since(start),
		}
	}

	status := StatusHealthy
	message := "ok"
	switch {
	case online == 0:
		status = StatusUnhealthy
		message = "all instruments offline"
	case online < c.configured:
		status = StatusDegraded
		message = "some instruments offline"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]interface{}{
			"online":     online,
			"configured": c.configured,
			"ratio":      fmt.Sprintf("%d/%d", online, c.configured),
		},
		Latency: time.Since(start),
	}
}
