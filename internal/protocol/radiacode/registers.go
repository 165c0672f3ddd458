package radiacode

import "fmt"

// VS 变长数据区寄存器 ID（多字段数据块，经 0x26/0x27 命令读写）。
// ID 值对固件抓包整理，与设备各代固件保持稳定。
type VS uint32

const (
	VSConfiguration VS = 2
	VSSerialNumber  VS = 8
	VSTextMessage   VS = 0x43
	VSDataBuf       VS = 0x100
	VSCommands      VS = 0x101
	VSSpectrum      VS = 0x200
	VSEnergyCalib   VS = 0x202
	VSSpecAccum     VS = 0x205
)

var vsNames = map[VS]string{
	VSConfiguration: "CONFIGURATION",
	VSSerialNumber:  "SERIAL_NUMBER",
	VSTextMessage:   "TEXT_MESSAGE",
	VSDataBuf:       "DATA_BUF",
	VSCommands:      "COMMANDS",
	VSSpectrum:      "SPECTRUM",
	VSEnergyCalib:   "ENERGY_CALIB",
	VSSpecAccum:     "SPEC_ACCUM",
}

func (v VS) String() string {
	if name, ok := vsNames[v]; ok {
		return name
	}
	return fmt.Sprintf("VS(0x%x)", uint32(v))
}

// VSFR 定宽 32 位标志/设置寄存器 ID（经 0x25/0x2a 命令写入与批量读取）
type VSFR uint32

const (
	VSFRDeviceCtrl VSFR = 0x0500
	VSFRDeviceLang VSFR = 0x0502
	VSFRDeviceOn   VSFR = 0x0503
	VSFRDeviceTime VSFR = 0x0504

	VSFRDispCtrl    VSFR = 0x0510
	VSFRDispBrt     VSFR = 0x0511
	VSFRDispContr   VSFR = 0x0512
	VSFRDispOffTime VSFR = 0x0513
	VSFRDispOn      VSFR = 0x0514
	VSFRDispDir     VSFR = 0x0515
	VSFRDispBacklt  VSFR = 0x0516

	VSFRSoundCtrl VSFR = 0x0520
	VSFRSoundVol  VSFR = 0x0521
	VSFRSoundOn   VSFR = 0x0522

	VSFRVibroCtrl VSFR = 0x0530
	VSFRVibroOn   VSFR = 0x0531

	VSFRLedsCtrl VSFR = 0x0540
	VSFRLed0Brt  VSFR = 0x0541
	VSFRLed1Brt  VSFR = 0x0542
	VSFRLed2Brt  VSFR = 0x0543
	VSFRLed3Brt  VSFR = 0x0544
	VSFRLedsOn   VSFR = 0x0545

	VSFRAlarmMode  VSFR = 0x05D0
	VSFRPlaySignal VSFR = 0x05D1

	VSFRDoseRateLev1 VSFR = 0x8000 // 剂量率一级报警阈值，uR/h
	VSFRDoseRateLev2 VSFR = 0x8001
	VSFRDoseLev1     VSFR = 0x8002 // 累计剂量一级报警阈值，100uR
	VSFRDoseLev2     VSFR = 0x8003

	VSFRDoseReset VSFR = 0x8010
)

var vsfrNames = map[VSFR]string{
	VSFRDeviceCtrl:   "DEVICE_CTRL",
	VSFRDeviceLang:   "DEVICE_LANG",
	VSFRDeviceOn:     "DEVICE_ON",
	VSFRDeviceTime:   "DEVICE_TIME",
	VSFRDispCtrl:     "DISP_CTRL",
	VSFRDispBrt:      "DISP_BRT",
	VSFRDispContr:    "DISP_CONTR",
	VSFRDispOffTime:  "DISP_OFF_TIME",
	VSFRDispOn:       "DISP_ON",
	VSFRDispDir:      "DISP_DIR",
	VSFRDispBacklt:   "DISP_BACKLT_ON",
	VSFRSoundCtrl:    "SOUND_CTRL",
	VSFRSoundVol:     "SOUND_VOL",
	VSFRSoundOn:      "SOUND_ON",
	VSFRVibroCtrl:    "VIBRO_CTRL",
	VSFRVibroOn:      "VIBRO_ON",
	VSFRLedsCtrl:     "LEDS_CTRL",
	VSFRLed0Brt:      "LED0_BRT",
	VSFRLed1Brt:      "LED1_BRT",
	VSFRLed2Brt:      "LED2_BRT",
	VSFRLed3Brt:      "LED3_BRT",
	VSFRLedsOn:       "LEDS_ON",
	VSFRAlarmMode:    "ALARM_MODE",
	VSFRPlaySignal:   "PLAY_SIGNAL",
	VSFRDoseRateLev1: "DR_LEV1_uR_h",
	VSFRDoseRateLev2: "DR_LEV2_uR_h",
	VSFRDoseLev1:     "DS_LEV1_100uR",
	VSFRDoseLev2:     "DS_LEV2_100uR",
	VSFRDoseReset:    "DOSE_RESET",
}

func (v VSFR) String() string {
	if name, ok := vsfrNames[v]; ok {
		return name
	}
	return fmt.Sprintf("VSFR(0x%x)", uint32(v))
}

// CtrlFlag 声音/震动控制位
type CtrlFlag uint32

const (
	CtrlOff            CtrlFlag = 0x01
	CtrlClicks         CtrlFlag = 0x02
	CtrlButtons        CtrlFlag = 0x04
	CtrlDoseRateAlarm1 CtrlFlag = 0x08
	CtrlDoseRateAlarm2 CtrlFlag = 0x10
	CtrlDoseAlarm1     CtrlFlag = 0x20
	CtrlDoseAlarm2     CtrlFlag = 0x40
)

// CombineCtrl 将多个控制位合成寄存器值
func CombineCtrl(flags []CtrlFlag) uint32 {
	var v uint32
	for _, f := range flags {
		v |= uint32(f)
	}
	return v
}

// DisplayDirection 屏幕显示方向
type DisplayDirection uint32

const (
	DirectionAuto  DisplayDirection = 0
	DirectionRight DisplayDirection = 1
	DirectionLeft  DisplayDirection = 2
)

func (d DisplayDirection) String() string {
	switch d {
	case DirectionAuto:
		return "AUTO"
	case DirectionRight:
		return "RIGHT"
	case DirectionLeft:
		return "LEFT"
	}
	return fmt.Sprintf("DisplayDirection(%d)", uint32(d))
}
