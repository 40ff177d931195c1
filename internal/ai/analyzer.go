package ai

import (
	"context"
	"fmt"
	"time"

	"alphawatch/internal/decision"
	"alphawatch/internal/gateway/provider"
	"alphawatch/internal/logger"
	"alphawatch/internal/pkg/circuit"
)

// 中文说明：
// Analyzer：包装聊天模型，失败时降级为 HOLD / confidence 0，保证分析阶段
// 永远给出一个可决策的结果，不让单次上游故障中断轮询循环。
// 熔断器挡住连续失败期间的无效调用。

// Result 一次分析的产出。Degraded 表示该结果来自降级路径。
type Result struct {
	Recommendation decision.Recommendation
	RawResponse    string
	Degraded       bool
	Elapsed        time.Duration
}

type Analyzer struct {
	client  provider.Analyzer
	breaker *circuit.CircuitBreaker
}

func NewAnalyzer(client provider.Analyzer, breaker *circuit.CircuitBreaker) *Analyzer {
	return &Analyzer{client: client, breaker: breaker}
}

// Analyze 构建 prompt 并调用模型，返回规范化后的建议。
// 传输层错误不上抛，转成降级结果；解析失败由 decision.Parse 内部兜底。
func (a *Analyzer) Analyze(ctx context.Context, in PromptInput) Result {
	start := time.Now()

	if a.breaker != nil && !a.breaker.Allow() {
		logger.Warnf("[AI] 熔断器打开，跳过本次模型调用")
		return degraded("analyzer circuit breaker is open", start)
	}

	systemPrompt := BuildSystemPrompt(len(in.Positions) > 0)
	userPrompt := BuildUserPrompt(in)

	raw, err := a.client.Call(ctx, systemPrompt, userPrompt)
	if err != nil {
		if a.breaker != nil {
			a.breaker.RecordFailure()
		}
		logger.Errorf("[AI] 模型调用失败: %v", err)
		return degraded(fmt.Sprintf("analyzer call failed: %v", err), start)
	}
	if a.breaker != nil {
		a.breaker.RecordSuccess()
	}

	rec := decision.Parse(raw)
	return Result{
		Recommendation: rec,
		RawResponse:    raw,
		Elapsed:        time.Since(start),
	}
}

func degraded(reason string, start time.Time) Result {
	return Result{
		Recommendation: decision.Recommendation{
			Action:           decision.ActionHold,
			Confidence:       0,
			Analysis:         "analysis degraded",
			Reasoning:        reason,
			SupportLevels:    []float64{},
			ResistanceLevels: []float64{},
		},
		Degraded: true,
		Elapsed:  time.Since(start),
	}
}
