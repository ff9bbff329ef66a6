// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
)

// QueueDepther is the queue surface the checker needs.
type QueueDepther interface {
	Depth() int
}

// QueueChecker flags a queue holding more than a threshold of pending
// work as degraded. The queue rejecting work entirely surfaces as
// QUEUE_FULL on requests; here it only grades pressure.
func QueueChecker(q QueueDepther, capacity int) Checker {
	return CheckerFunc{
		CheckerName: "queue",
		Fn: func(context.Context) CheckResult {
			depth := q.Depth()
			if capacity > 0 && depth >= capacity {
				return CheckResult{Status: StatusUnhealthy, Message: fmt.Sprintf("queue full: %d", depth)}
			}
			if capacity > 0 && depth*4 >= capacity*3 {
				return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("queue depth %d of %d", depth, capacity)}
			}
			return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("depth %d", depth)}
		},
	}
}

// TrackerLener is the tracker surface the checker needs.
type TrackerLener interface {
	Len() int
}

// TrackerChecker grades the tracked-request population against its cap.
func TrackerChecker(tr TrackerLener, maxEntries int) Checker {
	return CheckerFunc{
		CheckerName: "tracker",
		Fn: func(context.Context) CheckResult {
			n := tr.Len()
			if maxEntries > 0 && n >= maxEntries {
				return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("tracker at capacity: %d", n)}
			}
			return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d tracked", n)}
		},
	}
}

// Counter is the store surface the checker needs.
type Counter interface {
	Count() int
}

// StoreChecker reports the waypoint store population. A store that
// panics on Count surfaces through the manager's panic containment.
func StoreChecker(s Counter) Checker {
	return CheckerFunc{
		CheckerName: "store",
		Fn: func(context.Context) CheckResult {
			return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d waypoints", s.Count())}
		},
	}
}

// Runner is the stream manager surface the checker needs.
type Runner interface {
	Running() bool
}

// StreamChecker reports encoder process state. An idle encoder is
// healthy; the check exists so operators see the pipeline state in
// /health details.
func StreamChecker(m Runner) Checker {
	return CheckerFunc{
		CheckerName: "stream",
		Fn: func(context.Context) CheckResult {
			if m.Running() {
				return CheckResult{Status: StatusHealthy, Message: "encoder running"}
			}
			return CheckResult{Status: StatusHealthy, Message: "encoder idle"}
		},
	}
}
