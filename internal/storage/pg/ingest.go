package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/radiacode-server/internal/storage/models"
)

// Ingester 高吞吐遥测写入器。
// 采集端一轮能拉回数百条记录，走 COPY 协议而非逐行 INSERT。
type Ingester struct {
	pool *pgxpool.Pool
}

func NewIngester(pool *pgxpool.Pool) *Ingester {
	return &Ingester{pool: pool}
}

var sampleColumns = []string{
	"device_id", "ts", "kind",
	"count_rate", "count_rate_err", "dose_rate", "dose_rate_err",
	"pulse_count", "dose", "temperature", "charge_level",
	"duration_sec", "flags", "rt_flags",
}

// CopySamples 通过 COPY 批量写入遥测样本，返回写入行数
func (g *Ingester) CopySamples(ctx context.Context, samples []models.TelemetrySample) (int64, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	rows := make([][]interface{}, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []interface{}{
			s.DeviceID, s.TS, s.Kind,
			s.CountRate, s.CountRateErr, s.DoseRate, s.DoseRateErr,
			s.Count, s.Dose, s.Temperature, s.ChargeLevel,
			s.DurationSec, s.Flags, s.RtFlags,
		})
	}

	n, err := g.pool.CopyFrom(ctx,
		pgx.Identifier{"telemetry_samples"},
		sampleColumns,
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("pg: copy telemetry samples: %w", err)
	}
	return n, nil
}

var eventColumns = []string{"device_id", "ts", "group_no", "event", "param1", "flags"}

// CopyEvents 通过 COPY 批量写入设备事件，返回写入行数
func (g *Ingester) CopyEvents(ctx context.Context, events []models.DeviceEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	rows := make([][]interface{}, 0, len(events))
	for _, e := range events {
		rows = append(rows, []interface{}{
			e.DeviceID, e.TS, e.GroupNo, e.Event, e.Param1, e.Flags,
		})
	}

	n, err := g.pool.CopyFrom(ctx,
		pgx.Identifier{"device_events"},
		eventColumns,
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("pg: copy device events: %w", err)
	}
	return n, nil
}
