package controller

import (
	"fmt"
	"strings"
)

// Load assigns a new program and stops whatever was running before it.
func (c *Controller) Load(name, text string) {
	c.Post(func(ctl *Controller) {
		ctl.workflow.Stop()
		ctl.sender.Load(name, text, ctl.ctx)
		ctl.broadcast("sender:load", map[string]string{"name": name, "content": text})
	})
}

// Unload drops the loaded program entirely.
func (c *Controller) Unload() {
	c.Post(func(ctl *Controller) {
		ctl.workflow.Stop()
		ctl.sender.Unload()
		ctl.broadcast("sender:unload", map[string]string{"ident": ctl.Ident})
	})
}

// Start begins streaming the loaded program.
func (c *Controller) Start() {
	c.Post(func(ctl *Controller) {
		ctl.workflow.Start()
		ctl.feeder.Reset()
		out := ctl.sender.Next()
		ctl.reactToSenderStop(out.Stop)
	})
}

// Stop halts streaming and returns the workflow to idle. If the firmware
// is currently in a feed hold, a resume byte is written first so it
// doesn't wedge waiting for a cycle-start that will never come.
func (c *Controller) Stop() {
	c.Post(func(ctl *Controller) {
		if ctl.lastMachineStatus == "Hold" {
			ctl.writeRealtime('~')
		}
		ctl.doSenderStop()
	})
}

// Pause holds the running program in place.
func (c *Controller) Pause(reason string) {
	c.Post(func(ctl *Controller) {
		ctl.workflow.Pause(reason)
		ctl.writeRealtime('!')
	})
}

// Resume releases a feed hold and continues streaming.
func (c *Controller) Resume() {
	c.Post(func(ctl *Controller) {
		ctl.writeRealtime('~')
		ctl.workflow.Resume()
		out := ctl.sender.Next()
		ctl.reactToSenderStop(out.Stop)
	})
}

// FeederStart releases the feeder (and the firmware, if it was holding)
// and lets it resume transmitting queued ad-hoc lines.
func (c *Controller) FeederStart() {
	c.Post(func(ctl *Controller) {
		if ctl.workflow.State() != WorkflowRunning {
			ctl.writeRealtime('~')
		}
		ctl.feeder.Unhold()
		ctl.tryFeederNext()
	})
}

// FeederStop drops the feeder's queue.
func (c *Controller) FeederStop() {
	c.Post(func(ctl *Controller) {
		ctl.feeder.Reset()
	})
}

// FeedHold sends a realtime feed hold without touching workflow state.
func (c *Controller) FeedHold() {
	c.Post(func(ctl *Controller) { ctl.writeRealtime('!') })
}

// CycleStart sends a realtime cycle start/resume.
func (c *Controller) CycleStart() {
	c.Post(func(ctl *Controller) { ctl.writeRealtime('~') })
}

// Homing runs the firmware's homing cycle.
func (c *Controller) Homing() {
	c.Post(func(ctl *Controller) { ctl.writeText([]byte("$H\n")) })
}

// Unlock clears an alarm lock.
func (c *Controller) Unlock() {
	c.Post(func(ctl *Controller) { ctl.writeText([]byte("$X\n")) })
}

// Reset issues a soft reset: stop streaming, drop the feeder queue, and
// send the realtime reset byte.
func (c *Controller) Reset() {
	c.Post(func(ctl *Controller) {
		ctl.workflow.Stop()
		ctl.feeder.Reset()
		ctl.writeRealtime(0x18)
	})
}

// Sleep is unsupported on Smoothie firmware; kept as a documented no-op
// so dispatchers common across controller types don't need a type switch.
func (c *Controller) Sleep() {}

// OverrideFeed nudges the feed-rate override by delta, or resets it to
// 100% when delta is zero. The new value is clamped to [10,200] and
// reflected into the cached state optimistically, ahead of the status
// report that will eventually confirm it.
func (c *Controller) OverrideFeed(delta int) {
	c.Post(func(ctl *Controller) {
		v := clampOverride(delta, ctl.overrideFeed)
		ctl.overrideFeed = v
		ctl.enqueueGcode(fmt.Sprintf("M220 S%d", v))
	})
}

// OverrideSpindle nudges the spindle-speed override the same way
// OverrideFeed nudges the feed-rate override.
func (c *Controller) OverrideSpindle(delta int) {
	c.Post(func(ctl *Controller) {
		v := clampOverride(delta, ctl.overrideSpindle)
		ctl.overrideSpindle = v
		ctl.enqueueGcode(fmt.Sprintf("M221 S%d", v))
	})
}

// OverrideRapid has no effect on Smoothie firmware.
func (c *Controller) OverrideRapid(delta int) {}

func clampOverride(delta, current int) int {
	v := current + delta
	if delta == 0 {
		v = 100
	}
	if v < 10 {
		v = 10
	}
	if v > 200 {
		v = 200
	}
	return v
}

// LaserTest fires the laser at power (0..1 or a machine-specific scale)
// for durationMs, or turns it off if power is zero.
func (c *Controller) LaserTest(power, durationMs float64) {
	c.Post(func(ctl *Controller) {
		if power == 0 {
			ctl.enqueueGcode("fire off")
			ctl.enqueueGcode("M5")
			return
		}

		ctl.enqueueGcode("M3")
		ctl.enqueueGcode(fmt.Sprintf("fire %v", power))
		if durationMs > 0 {
			ctl.enqueueGcode(fmt.Sprintf("G4 P%v", durationMs/1000))
			ctl.enqueueGcode("fire off")
			ctl.enqueueGcode("M5")
		}
	})
}

// Gcode feeds ad-hoc lines through the Feeder, outside of any loaded
// program. While a program is running, lines queue in the Feeder but
// aren't written until the Sender has nothing outstanding -- see
// feederMayAdvance.
func (c *Controller) Gcode(commands []string) {
	c.Post(func(ctl *Controller) {
		ctl.enqueueGcode(commands...)
	})
}

func (c *Controller) enqueueGcode(lines ...string) {
	var filtered []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		filtered = append(filtered, l)
	}
	if len(filtered) == 0 {
		return
	}
	c.feeder.Feed(filtered)
	c.tryFeederNext()
}

// MacroRun looks up a stored macro and feeds its content as ad-hoc
// gcode.
func (c *Controller) MacroRun(id string) error {
	m, err := c.macros.Get(id)
	if err != nil {
		return err
	}
	c.Gcode(strings.Split(m.Content, "\n"))
	return nil
}

// MacroLoad looks up a stored macro and loads its content as a program,
// the same as Load would for any other text.
func (c *Controller) MacroLoad(id string) error {
	m, err := c.macros.Get(id)
	if err != nil {
		return err
	}
	c.Load(m.Name, m.Content)
	return nil
}
