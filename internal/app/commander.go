package app

import (
	"github.com/taoyao-code/radiacode-server/internal/api"
	"github.com/taoyao-code/radiacode-server/internal/protocol/radiacode"
)

// Fleet 实现 api.DeviceCommander，把控制接口的指令路由到对应仪器会话。

// command 查找仪器并在其会话锁内执行指令，统一计数
func (f *Fleet) command(serial, cmd string, fn func(c *radiacode.Client) error) error {
	d, ok := f.Get(serial)
	if !ok {
		return api.ErrUnknownDevice
	}
	if f.metrics != nil {
		f.metrics.CommandTotal.WithLabelValues(serial, cmd).Inc()
	}
	return d.Do(fn)
}

func (f *Fleet) SetSoundOn(serial string, on bool) error {
	return f.command(serial, "sound_on", func(c *radiacode.Client) error {
		return c.SetSoundOn(on)
	})
}

func (f *Fleet) SetVibroOn(serial string, on bool) error {
	return f.command(serial, "vibro_on", func(c *radiacode.Client) error {
		return c.SetVibroOn(on)
	})
}

func (f *Fleet) SetDisplayBrightness(serial string, brightness int) error {
	return f.command(serial, "display_brightness", func(c *radiacode.Client) error {
		return c.SetDisplayBrightness(brightness)
	})
}

func (f *Fleet) SetDisplayOffTime(serial string, seconds int) error {
	return f.command(serial, "display_off_time", func(c *radiacode.Client) error {
		return c.SetDisplayOffTime(seconds)
	})
}

func (f *Fleet) SetDisplayDirection(serial string, dir radiacode.DisplayDirection) error {
	return f.command(serial, "display_direction", func(c *radiacode.Client) error {
		return c.SetDisplayDirection(dir)
	})
}

func (f *Fleet) SetLanguage(serial, lang string) error {
	return f.command(serial, "language", func(c *radiacode.Client) error {
		return c.SetLanguage(lang)
	})
}

func (f *Fleet) DoseReset(serial string) error {
	return f.command(serial, "dose_reset", func(c *radiacode.Client) error {
		return c.DoseReset()
	})
}

func (f *Fleet) SpectrumReset(serial string) error {
	return f.command(serial, "spectrum_reset", func(c *radiacode.Client) error {
		return c.SpectrumReset()
	})
}

func (f *Fleet) PowerOff(serial string) error {
	return f.command(serial, "poweroff", func(c *radiacode.Client) error {
		return c.SetDeviceOn(false)
	})
}
