package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"alphawatch/internal/logger"
)

// 中文说明：
// ChatClient：兼容 OpenAI / DeepSeek 的聊天补全接口（/v1/chat/completions）。
// 429/5xx 有限重试，支持 Retry-After，其余错误直接返回由上层降级。

// Analyzer 分析端抽象：输入 system/user prompt，返回原始文本。
type Analyzer interface {
	Name() string
	Call(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type ChatClient struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	// 429/5xx 的重试次数，0 表示默认 2 次
	MaxRetries   int
	ExtraHeaders map[string]string

	httpc *http.Client
}

func NewChatClient(baseURL, apiKey, model string, timeout time.Duration) *ChatClient {
	return &ChatClient{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       model,
		Temperature: 0.5,
		Timeout:     timeout,
	}
}

func (c *ChatClient) Name() string {
	if c.Model != "" {
		return c.Model
	}
	return "openai-chat"
}

// endpoint 规范化 BaseURL，容忍配置里把 /chat/completions 一并写进来的情况。
func (c *ChatClient) endpoint() string {
	url := strings.TrimSpace(c.BaseURL)
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimRight(url, "/")
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func (c *ChatClient) Call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	url := c.endpoint()

	messages := []map[string]string{}
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": userPrompt})

	body := map[string]any{"model": c.Model, "messages": messages, "temperature": c.Temperature}
	b, _ := json.Marshal(body)

	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: timeout}
	}

	logger.LogLLMRequest(c.Name(), systemPrompt, userPrompt, string(b))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt == 0 {
			logger.Debugf("[AI] 请求: POST %s, headers=%v", url, c.maskedHeaders())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}
		for k, v := range c.ExtraHeaders {
			req.Header.Set(k, v)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return "", fmt.Errorf("chat request failed: %w", err)
		}
		if resp.StatusCode/100 == 2 {
			var r struct {
				Choices []struct {
					Message struct {
						Content string `json:"content"`
					} `json:"message"`
				} `json:"choices"`
			}
			derr := json.NewDecoder(resp.Body).Decode(&r)
			resp.Body.Close()
			if derr != nil {
				return "", fmt.Errorf("decode chat response: %w", derr)
			}
			if len(r.Choices) == 0 {
				return "", fmt.Errorf("chat response has empty choices")
			}
			out := r.Choices[0].Message.Content
			logger.LogLLMResponse(c.Name(), out)
			return out, nil
		}

		var eresp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eresp)
		retryAfter := resp.Header.Get("Retry-After")
		status := resp.StatusCode
		resp.Body.Close()

		msg := strings.TrimSpace(eresp.Error.Message)
		if msg == "" {
			msg = http.StatusText(status)
		}
		lastErr = fmt.Errorf("chat status=%d: %s", status, msg)
		if !retryableStatus(status) || attempt >= maxRetries {
			break
		}

		wait := time.Duration(0)
		if retryAfter != "" {
			if secs, perr := strconv.Atoi(retryAfter); perr == nil {
				wait = time.Duration(secs) * time.Second
			}
		}
		if wait == 0 {
			// 指数退避：0.8s, 1.6s, 3.2s ...
			wait = (800 * time.Millisecond) << attempt
			if wait > 8*time.Second {
				wait = 8 * time.Second
			}
		}
		logger.Warnf("[AI] %v，%s 后第 %d 次重试", lastErr, wait, attempt+1)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", lastErr
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// maskedHeaders 日志用的脱敏请求头，密钥只展示后 4 位。
func (c *ChatClient) maskedHeaders() map[string]string {
	out := map[string]string{"Content-Type": "application/json"}
	if c.APIKey != "" {
		out["Authorization"] = "Bearer ****" + tail4(c.APIKey)
	}
	for k, v := range c.ExtraHeaders {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "key") || strings.Contains(lk, "token") || strings.Contains(lk, "auth") {
			v = "****" + tail4(v)
		}
		out[k] = v
	}
	return out
}

func tail4(s string) string {
	if len(s) > 4 {
		return s[len(s)-4:]
	}
	return s
}
