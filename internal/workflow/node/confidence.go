package node

import "strings"

// ExtractConfidenceLine 从模型回答中剥离末尾的 "Confidence: x" 行。
// 返回去掉该行的正文和置信度文本；未找到时置信度文本为空串。
// 模型偶尔不遵守格式，调用方须对空置信度做默认值处理。
func ExtractConfidenceLine(raw string) (answer string, confidence string) {
	trimmed := strings.TrimSpace(raw)
	idx := strings.LastIndex(strings.ToLower(trimmed), "confidence:")
	if idx < 0 {
		return trimmed, ""
	}

	// 只接受位于行首的置信度标记，避免误切正文
	lineStart := strings.LastIndex(trimmed[:idx], "\n")
	if strings.TrimSpace(trimmed[lineStart+1:idx]) != "" {
		return trimmed, ""
	}

	answer = strings.TrimSpace(trimmed[:idx])
	confidence = strings.TrimSpace(trimmed[idx+len("confidence:"):])
	return answer, confidence
}
