package radiacode

import (
	"fmt"
	"time"
)

// 数据缓冲区记录流格式（对设备固件抓包逆向整理）：
// 每条记录以 7 字节头开始——seq u8（滚动序号，逐条加一模 256）、
// eid u8 与 gid u8（记录类型判别值）、off i32（相对会话基准时间的
// 10ms 刻度偏移）——随后是由 (eid, gid) 决定的定长记录体：
//
//	eid=0 gid=0  DoseRateDB   count u32, countRate f32, doseRate f32, doseRateErr u16, flags u16
//	eid=0 gid=1  RareData     duration u32, dose f32, temperature i16, charge u16, flags u16
//	eid=0 gid=2  RealTimeData countRate f32, doseRate f32, countRateErr u16, doseRateErr u16, flags u16, rtFlags u8
//	eid=0 gid=3  RawData      countRate f32, doseRate f32
//	eid=1 gid=*  Event        event u8, param1 u8, flags u16（gid 为事件组）
//
// 流没有记录数前缀，解码持续到缓冲区恰好耗尽为止。

// 记录内标度：误差按 0.1% 步进，温度按 0.1°C，电量按 0.01%
const (
	errScale    = 0.1
	tempScale   = 0.1
	chargeScale = 0.01
)

// tickDuration 记录时间偏移的刻度
const tickDuration = 10 * time.Millisecond

// DecodeDataBuf 将 DATA_BUF 负载解码为记录序列。
// 解码是原子的：未知判别值、记录体截断或序号跳变返回 *StreamError，
// 不产生部分结果。输出顺序即设备发出顺序。
func DecodeDataBuf(r *Reader, base time.Time) ([]Record, error) {
	var out []Record
	expectSeq := -1

	for r.Remaining() > 0 {
		seq, err := r.ReadU8()
		if err != nil {
			return nil, &StreamError{Index: len(out), Reason: "truncated record header", Err: err}
		}
		if expectSeq >= 0 && int(seq) != expectSeq {
			return nil, &StreamError{
				Index:  len(out),
				Reason: fmt.Sprintf("sequence jump: expect %d, got %d", expectSeq, seq),
			}
		}
		expectSeq = (int(seq) + 1) % 256

		eid, err := r.ReadU8()
		if err != nil {
			return nil, &StreamError{Index: len(out), Reason: "truncated record header", Err: err}
		}
		gid, err := r.ReadU8()
		if err != nil {
			return nil, &StreamError{Index: len(out), Reason: "truncated record header", Err: err}
		}
		off, err := r.ReadI32()
		if err != nil {
			return nil, &StreamError{Index: len(out), Reason: "truncated record header", Err: err}
		}
		ts := base.Add(time.Duration(off) * tickDuration)

		var rec Record
		switch {
		case eid == 0 && gid == 0:
			rec, err = decodeDoseRateDB(r, ts)
		case eid == 0 && gid == 1:
			rec, err = decodeRareData(r, ts)
		case eid == 0 && gid == 2:
			rec, err = decodeRealTimeData(r, ts)
		case eid == 0 && gid == 3:
			rec, err = decodeRawData(r, ts)
		case eid == 1:
			rec, err = decodeEvent(r, ts, gid)
		default:
			return nil, &StreamError{
				Index:  len(out),
				Reason: fmt.Sprintf("unknown record discriminant eid=%d gid=%d", eid, gid),
			}
		}
		if err != nil {
			return nil, &StreamError{Index: len(out), Reason: "truncated record body", Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeDoseRateDB(r *Reader, ts time.Time) (Record, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	countRate, err := r.ReadF32()
	if err != nil {
		return nil, err
	}
	doseRate, err := r.ReadF32()
	if err != nil {
		return nil, err
	}
	doseRateErr, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return DoseRateDB{
		TS:          ts,
		Count:       count,
		CountRate:   float64(countRate),
		DoseRate:    float64(doseRate),
		DoseRateErr: float64(doseRateErr) * errScale,
		Flags:       flags,
	}, nil
}

func decodeRareData(r *Reader, ts time.Time) (Record, error) {
	duration, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	dose, err := r.ReadF32()
	if err != nil {
		return nil, err
	}
	temp, err := r.ReadI16()
	if err != nil {
		return nil, err
	}
	charge, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return RareData{
		TS:          ts,
		Duration:    time.Duration(duration) * time.Second,
		Dose:        float64(dose),
		Temperature: float64(temp) * tempScale,
		ChargeLevel: float64(charge) * chargeScale,
		Flags:       flags,
	}, nil
}

func decodeRealTimeData(r *Reader, ts time.Time) (Record, error) {
	countRate, err := r.ReadF32()
	if err != nil {
		return nil, err
	}
	doseRate, err := r.ReadF32()
	if err != nil {
		return nil, err
	}
	countRateErr, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	doseRateErr, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	rtFlags, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	return RealTimeData{
		TS:            ts,
		CountRate:     float64(countRate),
		CountRateErr:  float64(countRateErr) * errScale,
		DoseRate:      float64(doseRate),
		DoseRateErr:   float64(doseRateErr) * errScale,
		Flags:         flags,
		RealTimeFlags: rtFlags,
	}, nil
}

func decodeRawData(r *Reader, ts time.Time) (Record, error) {
	countRate, err := r.ReadF32()
	if err != nil {
		return nil, err
	}
	doseRate, err := r.ReadF32()
	if err != nil {
		return nil, err
	}
	return RawData{
		TS:        ts,
		CountRate: float64(countRate),
		DoseRate:  float64(doseRate),
	}, nil
}

func decodeEvent(r *Reader, ts time.Time, gid uint8) (Record, error) {
	event, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	param1, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return Event{TS: ts, Group: gid, Event: event, Param1: param1, Flags: flags}, nil
}
