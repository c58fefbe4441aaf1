package cotask

import (
	"context"
	"time"
)

// IdleSpin returns immediately, so the Scheduler busy-polls.
func IdleSpin(context.Context, *Scheduler) {}

// IdleSleep waits until the earliest due Task, a Post, or ctx expiry,
// but no longer than max.
func IdleSleep(max time.Duration) IdleFunc {
	var timer *time.Timer
	return func(ctx context.Context, s *Scheduler) {
		wait := max
		if next, ok := s.NextRun(); ok {
			if d := next - s.clock.Now(); d < wait {
				wait = d
			}
		}
		if wait <= 0 {
			return
		}
		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}
		select {
		case <-timer.C:
		case <-s.wakeUpCh:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
		}
	}
}

// IdleAdvance moves a ManualClock to the next due time, or by step when
// nothing is due. It drives simulations faster than real time.
func IdleAdvance(clock *ManualClock, step time.Duration) IdleFunc {
	return func(_ context.Context, s *Scheduler) {
		if next, ok := s.NextRun(); ok && next > clock.Now() {
			clock.Set(next)
			return
		}
		clock.Advance(step)
	}
}
