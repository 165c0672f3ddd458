package radiacode

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// DecodeConfigText 解码设备配置文本。
// 固件以 CP1251（西里尔兼容单字节码页）输出配置。
func DecodeConfigText(raw []byte) (string, error) {
	out, err := charmap.Windows1251.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("radiacode: decode cp1251 configuration: %w", err)
	}
	return string(out), nil
}

// ParseConfigValues 按行扫描 key=value 配置文本。
// 非 key=value 行跳过，重复键后者覆盖前者。
func ParseConfigValues(text string) map[string]string {
	values := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return values
}

// ParseSpecFormatVersion 从配置文本提取 SpecFormatVersion。
// 字段缺失或不可解析时按版本 0 处理（旧固件不输出该字段）。
func ParseSpecFormatVersion(text string) int {
	v, ok := ParseConfigValues(text)["SpecFormatVersion"]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
