package app

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stats 运行期累计统计，周期结束后记账，每 10 个周期与退出时各输出一次。
type Stats struct {
	mu        sync.Mutex
	startedAt time.Time
	cycles    int
	skipped   int
	degraded  int
	notified  int
	byAction  map[string]int
}

func NewStats() *Stats {
	return &Stats{
		startedAt: time.Now(),
		byAction:  make(map[string]int),
	}
}

func (s *Stats) Record(out CycleOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles++
	if out.Skipped {
		s.skipped++
		return
	}
	if out.Degraded {
		s.degraded++
	}
	if out.Notified {
		s.notified++
	}
	s.byAction[string(out.Recommendation.Action)]++
}

func (s *Stats) Cycles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}

// Summary 渲染多行统计摘要。
func (s *Stats) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "===== 运行统计 =====\n")
	fmt.Fprintf(&b, "运行时长: %s\n", time.Since(s.startedAt).Round(time.Second))
	fmt.Fprintf(&b, "周期总数: %d（跳过 %d，降级 %d）\n", s.cycles, s.skipped, s.degraded)
	fmt.Fprintf(&b, "已发通知: %d\n", s.notified)

	if len(s.byAction) > 0 {
		actions := make([]string, 0, len(s.byAction))
		for a := range s.byAction {
			actions = append(actions, a)
		}
		sort.Strings(actions)
		parts := make([]string, 0, len(actions))
		for _, a := range actions {
			parts = append(parts, fmt.Sprintf("%s=%d", a, s.byAction[a]))
		}
		fmt.Fprintf(&b, "动作分布: %s\n", strings.Join(parts, " "))
	}
	return b.String()
}
