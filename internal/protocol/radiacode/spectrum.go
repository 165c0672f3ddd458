package radiacode

import "time"

// DecodeSpectrum 解码 SPECTRUM / SPEC_ACCUM 负载：
// u32 累计秒数 + 三个 f32 标定系数 (a0, a1, a2) + 直方图。
// 直方图编码由会话协商的格式版本决定，隔离在 decodeHistogram 内。
func DecodeSpectrum(r *Reader, formatVersion int) (*Spectrum, error) {
	seconds, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	s := &Spectrum{Duration: time.Duration(seconds) * time.Second}
	if s.A0, err = r.ReadF32(); err != nil {
		return nil, err
	}
	if s.A1, err = r.ReadF32(); err != nil {
		return nil, err
	}
	if s.A2, err = r.ReadF32(); err != nil {
		return nil, err
	}
	if s.Counts, err = decodeHistogram(r, formatVersion); err != nil {
		return nil, err
	}
	return s, nil
}

// decodeHistogram 解码通道计数直方图（设备固件的二进制格式契约，
// 对样本抓包逆向整理；新版本只应改动此函数）。
//
// 版本 0：到缓冲区末尾为止的连续小端 u32 计数。
//
// 版本 >= 1：增量/游程混合编码。流由 u16 控制字组成：
// 低 4 位为增量字节宽 width（0..4），高 12 位为元素个数 reps。
// width=0 表示重复上一计数 reps 次；否则后随 reps 个 width 字节的
// 小端有符号增量，每个增量累加到上一计数后输出。
func decodeHistogram(r *Reader, version int) ([]uint32, error) {
	if version == 0 {
		counts := make([]uint32, 0, r.Remaining()/4)
		for r.Remaining() > 0 {
			v, err := r.ReadU32()
			if err != nil {
				return nil, &StreamError{Index: len(counts), Reason: "truncated histogram", Err: err}
			}
			counts = append(counts, v)
		}
		return counts, nil
	}

	var counts []uint32
	var last int64
	for r.Remaining() > 0 {
		word, err := r.ReadU16()
		if err != nil {
			return nil, &StreamError{Index: len(counts), Reason: "truncated histogram control word", Err: err}
		}
		width := int(word & 0x0f)
		reps := int(word >> 4)
		if width > 4 || reps == 0 {
			return nil, &StreamError{
				Index:  len(counts),
				Reason: "bad histogram control word",
			}
		}
		if width == 0 {
			for i := 0; i < reps; i++ {
				counts = append(counts, uint32(last))
			}
			continue
		}
		for i := 0; i < reps; i++ {
			raw, err := r.ReadBytes(width)
			if err != nil {
				return nil, &StreamError{Index: len(counts), Reason: "truncated histogram delta", Err: err}
			}
			last += signExtendLE(raw)
			if last < 0 {
				return nil, &StreamError{Index: len(counts), Reason: "negative channel count"}
			}
			counts = append(counts, uint32(last))
		}
	}
	return counts, nil
}

// signExtendLE 将 1..4 字节的小端有符号整数扩展为 int64
func signExtendLE(b []byte) int64 {
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * i)
	}
	shift := 64 - 8*len(b)
	return int64(v<<shift) >> shift
}

// ChannelToEnergy 通道号到能量 (keV) 的二次标定映射：
// a0 + a1*ch + a2*ch²。纯函数，按 IEEE 浮点直接求值。
func ChannelToEnergy(channel int, a0, a1, a2 float32) float64 {
	x := float64(channel)
	return float64(a0) + float64(a1)*x + float64(a2)*x*x
}
