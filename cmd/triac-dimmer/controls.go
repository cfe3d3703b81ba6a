package main

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sweeney/triac-dimmer/internal/logger"
	"github.com/sweeney/triac-dimmer/internal/mode"
	"github.com/sweeney/triac-dimmer/internal/mqtt"
	"github.com/sweeney/triac-dimmer/internal/schedule"
	"github.com/sweeney/triac-dimmer/internal/store"
)

// controls adapts the arbiter, queue and store into the single surface the
// transport collaborators (MQTT handlers, HTTP API) drive.
type controls struct {
	arbiter   *mode.Arbiter
	queue     *schedule.Queue
	store     *store.Store
	log       *logger.Logger
	planSteps atomic.Uint64
}

// SetStatic applies a static frame and persists it for the next boot.
func (c *controls) SetStatic(values []uint8) {
	c.arbiter.SetStatic(values, time.Now().UnixMilli())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.store.SaveStaticFrame(ctx, values); err != nil {
		c.log.Warnw("persist static frame failed", "err", err)
	}
}

// ApplyPlan queues the decoded steps and, if any were accepted, switches
// playback to Planned mode.
func (c *controls) ApplyPlan(plan mqtt.Plan) {
	if plan.Replace {
		c.queue.Clear()
	}

	added := 0
	for _, step := range plan.Steps {
		if c.queue.AddCommand(step.TimestampMS, step.Values) {
			added++
		}
	}
	if added == 0 {
		return
	}

	c.planSteps.Add(uint64(added))
	c.arbiter.ForceMode(mode.Planned, time.Now().UnixMilli())
	c.log.Infow("plan accepted", "steps", added, "pending", c.queue.Len())
}

// ForceMode switches the arbiter mode by name. Returns false for unknown
// names.
func (c *controls) ForceMode(name string) bool {
	return c.arbiter.ForceMode(mode.Mode(strings.ToUpper(name)), time.Now().UnixMilli())
}

// PlanSteps returns how many schedule steps have been accepted.
func (c *controls) PlanSteps() uint64 {
	return c.planSteps.Load()
}
