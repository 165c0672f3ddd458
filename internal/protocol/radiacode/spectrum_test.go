package radiacode

import (
	"errors"
	"testing"
	"time"
)

func spectrumHeader(w *Writer, seconds uint32, a0, a1, a2 float32) {
	w.WriteU32(seconds)
	w.WriteF32(a0)
	w.WriteF32(a1)
	w.WriteF32(a2)
}

func TestDecodeSpectrum_V0(t *testing.T) {
	w := NewWriter()
	spectrumHeader(w, 600, 10.0, 2.5, 0.001)
	for _, c := range []uint32{0, 7, 300000, 0xffffffff} {
		w.WriteU32(c)
	}

	s, err := DecodeSpectrum(NewReader(w.Bytes()), 0)
	if err != nil {
		t.Fatalf("DecodeSpectrum: %v", err)
	}
	if s.Duration != 10*time.Minute {
		t.Fatalf("Duration = %v", s.Duration)
	}
	if s.A0 != 10.0 || s.A1 != 2.5 || s.A2 != 0.001 {
		t.Fatalf("calibration = (%v, %v, %v)", s.A0, s.A1, s.A2)
	}
	want := []uint32{0, 7, 300000, 0xffffffff}
	if s.Channels() != len(want) {
		t.Fatalf("Channels = %d", s.Channels())
	}
	for i, c := range want {
		if s.Counts[i] != c {
			t.Fatalf("Counts[%d] = %d, want %d", i, s.Counts[i], c)
		}
	}
}

func TestDecodeSpectrum_V1Deltas(t *testing.T) {
	w := NewWriter()
	spectrumHeader(w, 60, 0, 3.0, 0)

	// width=1 reps=3: 增量 +10, +5, -3 → 10, 15, 12
	w.WriteU16(3<<4 | 1)
	w.WriteI8(10)
	w.WriteI8(5)
	w.WriteI8(-3)
	// width=0 reps=2: 重复上一计数 → 12, 12
	w.WriteU16(2 << 4)
	// width=2 reps=1: 增量 +1000 → 1012
	w.WriteU16(1<<4 | 2)
	w.WriteI16(1000)

	s, err := DecodeSpectrum(NewReader(w.Bytes()), 1)
	if err != nil {
		t.Fatalf("DecodeSpectrum: %v", err)
	}
	want := []uint32{10, 15, 12, 12, 12, 1012}
	if s.Channels() != len(want) {
		t.Fatalf("Channels = %d, want %d", s.Channels(), len(want))
	}
	for i, c := range want {
		if s.Counts[i] != c {
			t.Fatalf("Counts[%d] = %d, want %d", i, s.Counts[i], c)
		}
	}
}

func TestDecodeSpectrum_V1WideDelta(t *testing.T) {
	w := NewWriter()
	spectrumHeader(w, 1, 0, 1, 0)
	// width=3 与 width=4 的宽增量
	w.WriteU16(1<<4 | 3)
	w.WriteBytes([]byte{0x00, 0x00, 0x10}) // +1048576
	w.WriteU16(1<<4 | 4)
	w.WriteI32(-1048570)

	s, err := DecodeSpectrum(NewReader(w.Bytes()), 2)
	if err != nil {
		t.Fatalf("DecodeSpectrum: %v", err)
	}
	want := []uint32{1048576, 6}
	for i, c := range want {
		if s.Counts[i] != c {
			t.Fatalf("Counts[%d] = %d, want %d", i, s.Counts[i], c)
		}
	}
}

func TestDecodeSpectrum_V1BadControlWord(t *testing.T) {
	for _, word := range []uint16{1<<4 | 5, 1<<4 | 15, 0x0001} {
		w := NewWriter()
		spectrumHeader(w, 1, 0, 1, 0)
		w.WriteU16(word)

		_, err := DecodeSpectrum(NewReader(w.Bytes()), 1)
		var streamErr *StreamError
		if !errors.As(err, &streamErr) {
			t.Fatalf("word %#x: expect StreamError, got %v", word, err)
		}
	}
}

func TestDecodeSpectrum_V1NegativeCount(t *testing.T) {
	w := NewWriter()
	spectrumHeader(w, 1, 0, 1, 0)
	w.WriteU16(2<<4 | 1)
	w.WriteI8(10)
	w.WriteI8(-20) // 累计为负

	_, err := DecodeSpectrum(NewReader(w.Bytes()), 1)
	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expect StreamError, got %v", err)
	}
}

func TestDecodeSpectrum_V1TruncatedDelta(t *testing.T) {
	w := NewWriter()
	spectrumHeader(w, 1, 0, 1, 0)
	w.WriteU16(1<<4 | 4)
	w.WriteU8(0x01) // 声明 4 字节增量只给 1 字节

	_, err := DecodeSpectrum(NewReader(w.Bytes()), 1)
	if !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expect wrapped ErrUnderflow, got %v", err)
	}
}

func TestDecodeSpectrum_TruncatedHeader(t *testing.T) {
	w := NewWriter()
	w.WriteU32(60)
	w.WriteF32(1.0) // 缺 a1/a2

	if _, err := DecodeSpectrum(NewReader(w.Bytes()), 0); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expect ErrUnderflow, got %v", err)
	}
}

func TestSignExtendLE(t *testing.T) {
	cases := []struct {
		in   []byte
		want int64
	}{
		{[]byte{0x7f}, 127},
		{[]byte{0xff}, -1},
		{[]byte{0xfe, 0xff}, -2},
		{[]byte{0x00, 0x80}, -32768},
		{[]byte{0x00, 0x00, 0x80}, -8388608},
		{[]byte{0x78, 0x56, 0x34, 0x12}, 0x12345678},
		{[]byte{0xff, 0xff, 0xff, 0xff}, -1},
	}
	for _, c := range cases {
		if got := signExtendLE(c.in); got != c.want {
			t.Fatalf("signExtendLE(%x) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestChannelToEnergy(t *testing.T) {
	if got := ChannelToEnergy(0, 5.0, 2.0, 0.5); got != 5.0 {
		t.Fatalf("channel 0 = %v, want a0", got)
	}
	if got := ChannelToEnergy(10, 5.0, 2.0, 0.5); got != 5.0+20.0+50.0 {
		t.Fatalf("channel 10 = %v", got)
	}
	// a2=0 时为线性，必须单调
	prev := ChannelToEnergy(0, 0, 2.5, 0)
	for ch := 1; ch < 1024; ch++ {
		e := ChannelToEnergy(ch, 0, 2.5, 0)
		if e <= prev {
			t.Fatalf("not monotonic at channel %d: %v <= %v", ch, e, prev)
		}
		prev = e
	}
}
