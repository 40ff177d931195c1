package jsonutil

import (
	"strings"
)

const codeFence = "```"

// ExtractObject 从模型输出中提取 JSON 对象文本：优先剥离 Markdown 代码围栏，
// 然后取首个 '{' 到最后一个 '}' 之间的片段。找不到时返回 false。
func ExtractObject(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if block, ok := extractFromFence(raw); ok {
		if span, ok := objectSpan(block); ok {
			return span, true
		}
		return "", false
	}
	return objectSpan(raw)
}

func extractFromFence(raw string) (string, bool) {
	start := strings.Index(raw, codeFence)
	if start == -1 {
		return "", false
	}
	rest := raw[start+len(codeFence):]
	end := strings.Index(rest, codeFence)
	if end == -1 {
		return "", false
	}
	block := strings.TrimLeft(rest[:end], "\r\n")
	// 跳过 ```json 之类的语言标记行
	if idx := strings.Index(block, "\n"); idx != -1 {
		first := strings.TrimSpace(block[:idx])
		if first != "" && !strings.ContainsAny(first, "[{") {
			block = block[idx+1:]
		}
	}
	block = strings.TrimSpace(block)
	if block == "" {
		return "", false
	}
	return block, true
}

func objectSpan(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	if start == -1 {
		return "", false
	}
	end := strings.LastIndex(raw, "}")
	if end <= start {
		return "", false
	}
	return strings.TrimSpace(raw[start : end+1]), true
}
