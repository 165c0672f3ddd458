// rcctl 直连单台仪器的运维命令行工具，绕过采集服务直接走协议会话。
// 用法:
//
//	rcctl -addr 192.168.1.50:9000 status
//	rcctl -addr 192.168.1.50:9000 sound off
//	rcctl -addr 192.168.1.50:9000 spectrum
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/radiacode-server/internal/protocol/radiacode"
	"github.com/taoyao-code/radiacode-server/internal/transport"
)

func main() {
	addr := flag.String("addr", "", "桥接器地址 host:port")
	timeout := flag.Duration("timeout", 10*time.Second, "读超时")
	ignoreFw := flag.Bool("ignore-fw-check", false, "跳过最低固件版本检查")
	verbose := flag.Bool("v", false, "输出协议日志")
	flag.Parse()

	if *addr == "" || flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fatal(err)
		}
		logger = l
	}

	tr, err := transport.Dial(transport.Config{
		Addr:        *addr,
		DialTimeout: 5 * time.Second,
		ReadTimeout: *timeout,
	})
	if err != nil {
		fatal(err)
	}

	cli, err := radiacode.Connect(tr, &radiacode.Options{
		IgnoreFirmwareCheck: *ignoreFw,
		Logger:              logger,
	})
	if err != nil {
		_ = tr.Close()
		fatal(err)
	}
	defer cli.Close()

	if err := run(cli, flag.Args()); err != nil {
		fatal(err)
	}
}

func run(cli *radiacode.Client, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "status":
		return showStatus(cli)
	case "serial":
		s, err := cli.SerialNumber()
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	case "hw-serial":
		s, err := cli.HwSerialNumber()
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	case "fw":
		fw, err := cli.FwVersion()
		if err != nil {
			return err
		}
		fmt.Printf("boot:   %s\ntarget: %s\n", fw.Boot, fw.Target)
		return nil
	case "fw-signature":
		sig, err := cli.FwSignature()
		if err != nil {
			return err
		}
		fmt.Println(sig)
		return nil
	case "config":
		text, err := cli.Configuration()
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	case "text-message":
		msg, err := cli.TextMessage()
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "commands":
		text, err := cli.Commands()
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	case "databuf":
		return showDataBuf(cli)
	case "spectrum":
		return showSpectrum(cli, false)
	case "spectrum-accum":
		return showSpectrum(cli, true)
	case "spectrum-reset":
		return cli.SpectrumReset()
	case "dose-reset":
		return cli.DoseReset()
	case "energy-calib":
		coef, err := cli.EnergyCalib()
		if err != nil {
			return err
		}
		fmt.Printf("a0=%g a1=%g a2=%g\n", coef[0], coef[1], coef[2])
		return nil
	case "sound":
		on, err := parseOnOff(rest)
		if err != nil {
			return err
		}
		return cli.SetSoundOn(on)
	case "vibro":
		on, err := parseOnOff(rest)
		if err != nil {
			return err
		}
		return cli.SetVibroOn(on)
	case "brightness":
		if len(rest) != 1 {
			return fmt.Errorf("usage: brightness <0-9>")
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("invalid brightness %q", rest[0])
		}
		return cli.SetDisplayBrightness(n)
	case "language":
		if len(rest) != 1 {
			return fmt.Errorf("usage: language <ru|en>")
		}
		return cli.SetLanguage(rest[0])
	case "poweroff":
		return cli.SetDeviceOn(false)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func showStatus(cli *radiacode.Client) error {
	st, err := cli.Status()
	if err != nil {
		return err
	}
	fmt.Printf("status flags: 0x%08x\n", st)

	levels, err := cli.BatchReadVSFR([]radiacode.VSFR{
		radiacode.VSFRDoseRateLev1, radiacode.VSFRDoseRateLev2,
		radiacode.VSFRDoseLev1, radiacode.VSFRDoseLev2,
	})
	if err != nil {
		return err
	}
	fmt.Printf("dose rate alarms: L1=%d L2=%d\n", levels[0], levels[1])
	fmt.Printf("dose alarms:      L1=%d L2=%d\n", levels[2], levels[3])
	return nil
}

func showDataBuf(cli *radiacode.Client) error {
	records, err := cli.DataBuf()
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("%s  %-12s %+v\n", rec.Time().Format(time.RFC3339), rec.Kind(), rec)
	}
	fmt.Printf("%d records\n", len(records))
	return nil
}

func showSpectrum(cli *radiacode.Client, accumulated bool) error {
	var (
		spec *radiacode.Spectrum
		err  error
	)
	if accumulated {
		spec, err = cli.SpectrumAccum()
	} else {
		spec, err = cli.Spectrum()
	}
	if err != nil {
		return err
	}

	var total uint64
	for _, c := range spec.Counts {
		total += uint64(c)
	}
	fmt.Printf("duration: %s\n", spec.Duration)
	fmt.Printf("calib:    a0=%g a1=%g a2=%g\n", spec.A0, spec.A1, spec.A2)
	fmt.Printf("channels: %d, total counts: %d\n", spec.Channels(), total)
	for ch, c := range spec.Counts {
		if c == 0 {
			continue
		}
		fmt.Printf("%4d  %8.1f keV  %d\n", ch, radiacode.ChannelToEnergy(ch, spec.A0, spec.A1, spec.A2), c)
	}
	return nil
}

func parseOnOff(rest []string) (bool, error) {
	if len(rest) != 1 {
		return false, fmt.Errorf("usage: <on|off>")
	}
	switch rest[0] {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", rest[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: rcctl -addr host:port [flags] <command>

commands:
  status            设备状态与报警阈值
  serial            设备序列号
  hw-serial         硬件序列号
  fw                固件版本
  fw-signature      固件签名
  config            设备配置文本
  text-message      设备文本消息
  commands          设备支持的命令清单
  databuf           拉取并打印数据缓冲区
  spectrum          当前能谱
  spectrum-accum    累计能谱
  spectrum-reset    清空能谱累计
  dose-reset        清零累计剂量
  energy-calib      能量标定系数
  sound on|off      声音开关
  vibro on|off      震动开关
  brightness 0-9    屏幕亮度
  language ru|en    界面语言
  poweroff          远程关机`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "rcctl:", err)
	os.Exit(1)
}
