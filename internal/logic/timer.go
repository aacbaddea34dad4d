package logic

import "time"

// advanceStageTimer latches the stage timer the first time temperature reaches
// temp_max and latches TimerFinished once the hold duration has elapsed.
// It reports which of the two latches fired on this call.
func advanceStageTimer(c *RuntimeContext, s StageSpec, now time.Time) (reached, finished bool) {
	if !c.FirstTargetReached && c.Temperature >= s.TempMax {
		c.FirstTargetReached = true
		c.StageTimerStart = now
		c.TimerRunning = true
		reached = true
	}

	c.StageElapsed = stageElapsed(c, now)

	if c.TimerRunning && !c.TimerFinished && c.StageElapsed >= s.Duration {
		c.TimerFinished = true
		finished = true
	}
	return reached, finished
}

func stageElapsed(c *RuntimeContext, now time.Time) time.Duration {
	if !c.TimerRunning {
		return 0
	}
	return now.Sub(c.StageTimerStart)
}

func totalElapsed(c *RuntimeContext, now time.Time) time.Duration {
	if c.TotalTimerStart.IsZero() {
		return 0
	}
	return now.Sub(c.TotalTimerStart)
}
