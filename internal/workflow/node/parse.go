package node

import (
	"strconv"
	"strings"
)

// ParseIndexList 从模型输出中解析索引列表。
// 按逗号和句号切分，仅保留 [0, bound) 范围内的数字 token，
// 其余一律丢弃；不去重由调用方负责（模型偶尔会重复索引）。
func ParseIndexList(raw string, bound int) []int {
	if bound <= 0 {
		return nil
	}
	normalized := strings.ReplaceAll(raw, ".", ",")
	var indices []int
	for _, tok := range strings.Split(normalized, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if n < 0 || n >= bound {
			continue
		}
		indices = append(indices, n)
	}
	return indices
}

// ParseLeadingFloat 解析字符串的首个空白分隔 token 为浮点数。
// 解析失败返回 (0, false)。
func ParseLeadingFloat(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SplitLines 按行切分并去掉空白行，跳过长度不超过 minLen 的行。
func SplitLines(raw string, minLen int) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) <= minLen {
			continue
		}
		out = append(out, line)
	}
	return out
}
