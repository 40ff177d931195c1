package scheduler

import (
	"context"
	"time"
)

// minWait 两次周期之间的最小间隔，防止周期耗时超过 interval 时空转。
const minWait = time.Second

// RunEvery 以固定间隔驱动 fn：每轮先执行，再等待 interval 扣除本轮耗时后的
// 剩余时间（至少 minWait）。fn 内部自行兜底失败，循环不中断。
// ctx 取消后返回 ctx.Err()。
func RunEvery(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) error {
	if interval <= 0 {
		interval = minWait
	}
	for {
		start := time.Now()
		fn(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := interval - time.Since(start)
		if wait < minWait {
			wait = minWait
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
