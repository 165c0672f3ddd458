// Package radiacode 实现 RadiaCode 辐射检测仪的请求/响应二进制协议：
// 请求封帧与序号匹配、VS/VSFR 寄存器读写、数据缓冲区记录流解码与
// 能谱解码。协议严格同步：单请求单响应，无流水线、无内部重试，
// 超时由传输实现负责。
package radiacode

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Transport 字节流传输抽象（USB 桥 / 蓝牙桥 / TCP 桥）。
// Execute 发送一个完整请求缓冲区并阻塞到收到一个完整响应缓冲区，
// 响应的长度定界由传输实现处理，协议层只看内容。
type Transport interface {
	Execute(req []byte) ([]byte, error)
	Close() error
}

// 支持的最低目标固件版本
const (
	minFwMajor = 4
	minFwMinor = 8
)

// Options 会话可选参数
type Options struct {
	// IgnoreFirmwareCheck 为 true 时最低固件版本策略仅告警
	IgnoreFirmwareCheck bool
	// Clock 提供会话基准时间，默认 time.Now
	Clock func() time.Time
	// Logger 为空时不输出日志
	Logger *zap.Logger
}

// Client 一条 RadiaCode 设备会话。
// 持有循环序号、会话基准时间与协商的能谱格式版本。
// 会话创建后除序号外不再变更；实例不做并发保护，
// 不可从多个逻辑调用方同时使用。
type Client struct {
	tr  Transport
	log *zap.Logger

	seq               uint8
	base              time.Time
	specFormatVersion int
}

// Connect 建立会话并严格按序执行初始化：
//  1. 发送初始化命令
//  2. 将主机时间写入设备并记录为会话基准时间
//  3. 清零设备时间寄存器
//  4. 读取固件版本并执行最低版本策略
//  5. 读取设备配置文本，解析 SpecFormatVersion
//
// 任一步失败返回 *InitError，会话不可用；协议层不做重连。
func Connect(tr Transport, opts *Options) (*Client, error) {
	if opts == nil {
		opts = &Options{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{tr: tr, log: log}

	if _, err := c.execute(cmdInit, []byte{0x01, 0xff, 0x12, 0xff}); err != nil {
		return nil, &InitError{Step: "init command", Err: err}
	}

	c.base = clock()
	if err := c.SetLocalTime(c.base); err != nil {
		return nil, &InitError{Step: "set local time", Err: err}
	}
	if err := c.setDeviceTime(0); err != nil {
		return nil, &InitError{Step: "zero device time", Err: err}
	}

	fw, err := c.FwVersion()
	if err != nil {
		return nil, &InitError{Step: "firmware version", Err: err}
	}
	if fw.Target.Major < minFwMajor ||
		(fw.Target.Major == minFwMajor && fw.Target.Minor < minFwMinor) {
		if !opts.IgnoreFirmwareCheck {
			return nil, &InitError{
				Step: "firmware check",
				Err: fmt.Errorf("unsupported firmware %d.%d, need >= %d.%d",
					fw.Target.Major, fw.Target.Minor, minFwMajor, minFwMinor),
			}
		}
		log.Warn("firmware below supported minimum, continuing",
			zap.Uint16("major", fw.Target.Major),
			zap.Uint16("minor", fw.Target.Minor))
	}

	text, err := c.Configuration()
	if err != nil {
		return nil, &InitError{Step: "read configuration", Err: err}
	}
	c.specFormatVersion = ParseSpecFormatVersion(text)

	log.Info("radiacode session ready",
		zap.String("firmware", fw.Target.String()),
		zap.Int("spec_format_version", c.specFormatVersion))
	return c, nil
}

// BaseTime 返回会话基准时间（初始化时的主机时钟）
func (c *Client) BaseTime() time.Time { return c.base }

// SpecFormatVersion 返回初始化时从设备配置协商的能谱格式版本
func (c *Client) SpecFormatVersion() int { return c.specFormatVersion }

// Close 关闭底层传输
func (c *Client) Close() error { return c.tr.Close() }

// execute 发送一条命令并返回回显头之后的负载读取器。
// 序号在发送时推进；响应头与请求头逐字节比对。
func (c *Client) execute(cmd command, payload []byte) (*Reader, error) {
	frame, header := buildRequest(cmd, c.seq, payload)
	c.seq = (c.seq + 1) % seqModulo

	resp, err := c.tr.Execute(frame)
	if err != nil {
		return nil, fmt.Errorf("radiacode: transport: %w", err)
	}
	rest, err := checkEcho(header, resp)
	if err != nil {
		return nil, err
	}
	c.log.Debug("exchange done",
		zap.String("cmd", fmt.Sprintf("%02x%02x", cmd[0], cmd[1])),
		zap.Uint8("seq", header[3]&0x1f),
		zap.Int("resp_len", len(rest)))
	return NewReader(rest), nil
}

// readRegister 读取一个 VS 寄存器：
// 负载为 u32 返回码 + u32 声明长度 + 数据。
// 已知固件缺陷：部分固件会多发一个 0x00 尾字节，按原样裁剪；
// 其余任何长度偏差都是 LengthMismatchError。
func (c *Client) readRegister(id uint32) (*Reader, error) {
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], id)
	r, err := c.execute(cmdReadVS, p[:])
	if err != nil {
		return nil, err
	}

	ret, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if ret != 1 {
		return nil, &DeviceRejectedError{Command: id, Code: ret}
	}
	declared, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	rest := r.Rest()
	if len(rest) == int(declared)+1 && rest[declared] == 0x00 {
		rest = rest[:declared]
	}
	if len(rest) != int(declared) {
		return nil, &LengthMismatchError{Command: id, Declared: int(declared), Actual: len(rest)}
	}
	return NewReader(rest), nil
}

// writeRegister 写一个 VSFR 寄存器：负载为 u32 ID + 数据，
// 响应仅含 u32 返回码
func (c *Client) writeRegister(id uint32, data []byte) error {
	payload := make([]byte, 4, 4+len(data))
	binary.LittleEndian.PutUint32(payload, id)
	payload = append(payload, data...)

	r, err := c.execute(cmdWriteVSFR, payload)
	if err != nil {
		return err
	}
	ret, err := r.ReadU32()
	if err != nil {
		return err
	}
	if ret != 1 {
		return &DeviceRejectedError{Command: id, Code: ret}
	}
	if n := r.Remaining(); n != 0 {
		return &LengthMismatchError{Command: id, Declared: 0, Actual: n}
	}
	return nil
}

// writeVS 写一个 VS 数据区：负载为 u32 ID + u32 数据长度 + 数据
func (c *Client) writeVS(id VS, data []byte) error {
	w := NewWriter()
	w.WriteU32(uint32(id))
	w.WriteU32(uint32(len(data)))
	w.WriteBytes(data)

	r, err := c.execute(cmdWriteVS, w.Bytes())
	if err != nil {
		return err
	}
	ret, err := r.ReadU32()
	if err != nil {
		return err
	}
	if ret != 1 {
		return &DeviceRejectedError{Command: uint32(id), Code: ret}
	}
	if n := r.Remaining(); n != 0 {
		return &LengthMismatchError{Command: uint32(id), Declared: 0, Actual: n}
	}
	return nil
}

// BatchReadVSFR 单次请求批量读取多个 VSFR 寄存器。
// 响应必须恰好包含 len(ids) 个 u32，顺序与请求一致；
// 短读是协议错误而非部分成功。
func (c *Client) BatchReadVSFR(ids []VSFR) ([]uint32, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyBatch
	}
	w := NewWriter()
	for _, id := range ids {
		w.WriteU32(uint32(id))
	}
	r, err := c.execute(cmdBatchRead, w.Bytes())
	if err != nil {
		return nil, err
	}

	out := make([]uint32, 0, len(ids))
	for range ids {
		v, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if n := r.Remaining(); n != 0 {
		return nil, &LengthMismatchError{
			Command:  uint32(ids[0]),
			Declared: 4 * len(ids),
			Actual:   4*len(ids) + n,
		}
	}
	return out, nil
}

// Status 读取设备状态标志
func (c *Client) Status() (uint32, error) {
	r, err := c.execute(cmdStatus, nil)
	if err != nil {
		return 0, err
	}
	flags, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	if n := r.Remaining(); n != 0 {
		return 0, &LengthMismatchError{Declared: 4, Actual: 4 + n}
	}
	return flags, nil
}

// SetLocalTime 将给定时刻写入设备本地时钟。
// 格式：day, month, year-2000, 0, sec, min, hour, 0（各 1 字节）。
func (c *Client) SetLocalTime(t time.Time) error {
	d := []byte{
		byte(t.Day()), byte(t.Month()), byte(t.Year() - 2000), 0,
		byte(t.Second()), byte(t.Minute()), byte(t.Hour()), 0,
	}
	_, err := c.execute(cmdSetTime, d)
	return err
}

// setDeviceTime 写设备时间寄存器，初始化时以 0 调用
func (c *Client) setDeviceTime(v uint32) error {
	w := NewWriter()
	w.WriteU32(v)
	return c.writeRegister(uint32(VSFRDeviceTime), w.Bytes())
}

// FwSignature 读取固件签名
func (c *Client) FwSignature() (*FirmwareSignature, error) {
	r, err := c.execute(cmdFwSignature, nil)
	if err != nil {
		return nil, err
	}
	sig, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	fileName, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	idString, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return &FirmwareSignature{Signature: sig, FileName: fileName, IdString: idString}, nil
}

// FwVersion 读取引导区与目标区固件版本
func (c *Client) FwVersion() (*FirmwareVersion, error) {
	r, err := c.execute(cmdFwVersion, nil)
	if err != nil {
		return nil, err
	}
	var fw FirmwareVersion
	if fw.Boot, err = readVersion(r); err != nil {
		return nil, err
	}
	if fw.Target, err = readVersion(r); err != nil {
		return nil, err
	}
	if n := r.Remaining(); n != 0 {
		return nil, &LengthMismatchError{Declared: 0, Actual: n}
	}
	return &fw, nil
}

func readVersion(r *Reader) (VersionInfo, error) {
	var v VersionInfo
	var err error
	if v.Minor, err = r.ReadU16(); err != nil {
		return v, err
	}
	if v.Major, err = r.ReadU16(); err != nil {
		return v, err
	}
	if v.Date, err = r.ReadString(); err != nil {
		return v, err
	}
	return v, nil
}

// HwSerialNumber 读取硬件序列号（按 4 字节分组十六进制表示）
func (c *Client) HwSerialNumber() (string, error) {
	r, err := c.execute(cmdHwSerial, nil)
	if err != nil {
		return "", err
	}
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	if n%4 != 0 {
		return "", fmt.Errorf("radiacode: hw serial length %d not a multiple of 4", n)
	}
	groups := make([]string, 0, n/4)
	for i := uint32(0); i < n/4; i++ {
		g, err := r.ReadU32()
		if err != nil {
			return "", err
		}
		groups = append(groups, fmt.Sprintf("%08X", g))
	}
	if rem := r.Remaining(); rem != 0 {
		return "", &LengthMismatchError{Declared: int(n), Actual: int(n) + rem}
	}
	return strings.Join(groups, "-"), nil
}

// Configuration 读取设备配置文本（CP1251 编码的 key=value 行）
func (c *Client) Configuration() (string, error) {
	r, err := c.readRegister(uint32(VSConfiguration))
	if err != nil {
		return "", err
	}
	return DecodeConfigText(r.Rest())
}

// TextMessage 读取设备文本消息
func (c *Client) TextMessage() (string, error) {
	r, err := c.readRegister(uint32(VSTextMessage))
	if err != nil {
		return "", err
	}
	return string(r.Rest()), nil
}

// SerialNumber 读取设备序列号
func (c *Client) SerialNumber() (string, error) {
	r, err := c.readRegister(uint32(VSSerialNumber))
	if err != nil {
		return "", err
	}
	return string(r.Rest()), nil
}

// Commands 读取设备支持的命令清单文本
func (c *Client) Commands() (string, error) {
	r, err := c.readRegister(uint32(VSCommands))
	if err != nil {
		return "", err
	}
	return string(r.Rest()), nil
}

// DataBuf 读取并清空设备数据缓冲区，解码为记录序列
func (c *Client) DataBuf() ([]Record, error) {
	r, err := c.readRegister(uint32(VSDataBuf))
	if err != nil {
		return nil, err
	}
	return DecodeDataBuf(r, c.base)
}

// Spectrum 读取当前能谱
func (c *Client) Spectrum() (*Spectrum, error) {
	r, err := c.readRegister(uint32(VSSpectrum))
	if err != nil {
		return nil, err
	}
	return DecodeSpectrum(r, c.specFormatVersion)
}

// SpectrumAccum 读取累计能谱
func (c *Client) SpectrumAccum() (*Spectrum, error) {
	r, err := c.readRegister(uint32(VSSpecAccum))
	if err != nil {
		return nil, err
	}
	return DecodeSpectrum(r, c.specFormatVersion)
}

// SpectrumReset 清空设备端能谱累计
func (c *Client) SpectrumReset() error {
	return c.writeVS(VSSpectrum, nil)
}

// DoseReset 清零累计剂量
func (c *Client) DoseReset() error {
	return c.writeRegister(uint32(VSFRDoseReset), nil)
}

// EnergyCalib 读取能量标定系数 (a0, a1, a2)
func (c *Client) EnergyCalib() ([3]float32, error) {
	var coef [3]float32
	r, err := c.readRegister(uint32(VSEnergyCalib))
	if err != nil {
		return coef, err
	}
	for i := range coef {
		if coef[i], err = r.ReadF32(); err != nil {
			return coef, err
		}
	}
	return coef, nil
}

// SetEnergyCalib 写入能量标定系数
func (c *Client) SetEnergyCalib(coef [3]float32) error {
	w := NewWriter()
	for _, v := range coef {
		w.WriteF32(v)
	}
	return c.writeVS(VSEnergyCalib, w.Bytes())
}

// SetLanguage 设置设备界面语言，仅支持 "ru" 与 "en"
func (c *Client) SetLanguage(lang string) error {
	var v uint32
	switch lang {
	case "ru":
		v = 0
	case "en":
		v = 1
	default:
		return fmt.Errorf("radiacode: unsupported language %q, use \"ru\" or \"en\"", lang)
	}
	w := NewWriter()
	w.WriteU32(v)
	return c.writeRegister(uint32(VSFRDeviceLang), w.Bytes())
}

// SetDeviceOn 远程开关机。固件只接受关机（on=false）。
func (c *Client) SetDeviceOn(on bool) error {
	if on {
		return fmt.Errorf("radiacode: device can only be switched off remotely")
	}
	w := NewWriter()
	w.WriteU32(0)
	return c.writeRegister(uint32(VSFRDeviceOn), w.Bytes())
}

// SetSoundOn 声音总开关
func (c *Client) SetSoundOn(on bool) error {
	return c.writeBool(VSFRSoundOn, on)
}

// SetVibroOn 震动总开关
func (c *Client) SetVibroOn(on bool) error {
	return c.writeBool(VSFRVibroOn, on)
}

func (c *Client) writeBool(id VSFR, on bool) error {
	w := NewWriter()
	var v uint32
	if on {
		v = 1
	}
	w.WriteU32(v)
	return c.writeRegister(uint32(id), w.Bytes())
}

// SetSoundCtrl 设置声音触发源控制位
func (c *Client) SetSoundCtrl(flags []CtrlFlag) error {
	w := NewWriter()
	w.WriteU32(CombineCtrl(flags))
	return c.writeRegister(uint32(VSFRSoundCtrl), w.Bytes())
}

// SetVibroCtrl 设置震动触发源控制位；CLICKS 不支持震动
func (c *Client) SetVibroCtrl(flags []CtrlFlag) error {
	for _, f := range flags {
		if f == CtrlClicks {
			return fmt.Errorf("radiacode: CLICKS not supported for vibro")
		}
	}
	w := NewWriter()
	w.WriteU32(CombineCtrl(flags))
	return c.writeRegister(uint32(VSFRVibroCtrl), w.Bytes())
}

// SetDisplayOffTime 设置屏幕熄灭时间，仅接受 5/10/15/30 秒
func (c *Client) SetDisplayOffTime(seconds int) error {
	var v uint32
	switch seconds {
	case 5, 10, 15:
		v = uint32(seconds/5) - 1
	case 30:
		v = 3
	default:
		return fmt.Errorf("radiacode: display off time %d not in {5,10,15,30}", seconds)
	}
	w := NewWriter()
	w.WriteU32(v)
	return c.writeRegister(uint32(VSFRDispOffTime), w.Bytes())
}

// SetDisplayBrightness 设置屏幕亮度，范围 0..9
func (c *Client) SetDisplayBrightness(brightness int) error {
	if brightness < 0 || brightness > 9 {
		return fmt.Errorf("radiacode: brightness %d out of range 0..9", brightness)
	}
	w := NewWriter()
	w.WriteU32(uint32(brightness))
	return c.writeRegister(uint32(VSFRDispBrt), w.Bytes())
}

// SetDisplayDirection 设置屏幕显示方向
func (c *Client) SetDisplayDirection(dir DisplayDirection) error {
	switch dir {
	case DirectionAuto, DirectionRight, DirectionLeft:
	default:
		return fmt.Errorf("radiacode: invalid display direction %d", uint32(dir))
	}
	w := NewWriter()
	w.WriteU32(uint32(dir))
	return c.writeRegister(uint32(VSFRDispDir), w.Bytes())
}
