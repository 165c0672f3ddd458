package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LatestReading 仪器最新读数的缓存条目，供查询接口免查库
type LatestReading struct {
	Serial      string    `json:"serial"`
	TS          time.Time `json:"ts"`
	CountRate   float64   `json:"count_rate"`
	DoseRate    float64   `json:"dose_rate"`
	DoseRateErr float64   `json:"dose_rate_err"`
}

// AlarmEvent 发布到报警频道的事件
type AlarmEvent struct {
	Serial string    `json:"serial"`
	TS     time.Time `json:"ts"`
	Group  uint8     `json:"group"`
	Event  uint8     `json:"event"`
	Param1 uint8     `json:"param1"`
}

// Redis Key 设计
const (
	// reading:latest:{serial} -> LatestReading JSON
	keyLatestPrefix = "reading:latest:"

	// 报警事件发布频道
	alarmChannel = "radiacode:alarms"

	latestTTL = 10 * time.Minute
)

// Cache 最新读数缓存与报警事件发布
type Cache struct {
	client *Client
}

func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// SetLatest 写入仪器最新读数
func (c *Cache) SetLatest(ctx context.Context, r *LatestReading) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyLatestPrefix+r.Serial, data, latestTTL).Err()
}

// GetLatest 读取仪器最新读数；无缓存返回 (nil, nil)
func (c *Cache) GetLatest(ctx context.Context, serial string) (*LatestReading, error) {
	val, err := c.client.Get(ctx, keyLatestPrefix+serial).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get latest reading: %w", err)
	}
	var r LatestReading
	if err := json.Unmarshal([]byte(val), &r); err != nil {
		return nil, fmt.Errorf("redis: decode latest reading: %w", err)
	}
	return &r, nil
}

// PublishAlarm 向报警频道发布一条事件
func (c *Cache) PublishAlarm(ctx context.Context, ev *AlarmEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, alarmChannel, data).Err()
}

// SubscribeAlarms 订阅报警频道
func (c *Cache) SubscribeAlarms(ctx context.Context) *redis.PubSub {
	return c.client.Subscribe(ctx, alarmChannel)
}
