package controller

import (
	"fmt"
	"time"

	"github.com/cncware/smoothied/gcode"
	"github.com/cncware/smoothied/smoothie"
)

func (c *Controller) tick() {
	if !c.transport.IsOpen() {
		return
	}

	fs := c.feeder.Status()
	if fs.Queued > 0 || fs.Pending {
		c.broadcast("feeder:status", fs)
	}
	if c.sender.Loaded() {
		c.broadcast("sender:status", c.sender.Status())
	}

	if !c.ready {
		return
	}

	c.queryStatusReport()
	c.queryParserState()
	c.detectEndOfProgram()
}

func (c *Controller) queryStatusReport() {
	if !c.statusGate.Try() {
		return
	}
	c.writeRealtime('?')
}

// queryParserState issues $G at most once every 500ms, and only while
// both the workflow and the last-known machine status are idle -- it
// consumes 3 bytes of the firmware's receive buffer, which streaming
// can't spare.
func (c *Controller) queryParserState() {
	if c.workflow.State() != WorkflowIdle {
		return
	}
	if c.lastMachineStatus != "" && c.lastMachineStatus != "Idle" {
		return
	}
	if time.Since(c.lastParserStateThrottle) < parserStateThrottle {
		return
	}
	if !c.parserStateGate.Try() {
		return
	}
	c.lastParserStateThrottle = time.Now()
	c.writeText([]byte("$G\n"))
}

// detectEndOfProgram watches the cached work position after the sender
// reports it has nothing left outstanding. If the machine is still
// settling (position still moving, or status not yet Idle) the window
// slides forward; once it holds steady for endOfProgramIdleWindow, the
// run is considered truly over.
func (c *Controller) detectEndOfProgram() {
	if c.senderFinishTime.IsZero() {
		return
	}

	cur := c.ctx.WPos()
	stillSettling := !c.haveZeroOffset || !cur.Near(c.zeroOffset, endOfProgramIdlePosEps) || c.lastMachineStatus != "Idle"
	if stillSettling {
		c.senderFinishTime = time.Now()
		c.zeroOffset = cur
		c.haveZeroOffset = true
		return
	}

	if time.Since(c.senderFinishTime) > endOfProgramIdleWindow {
		c.senderFinishTime = time.Time{}
		c.doSenderStop()
	}
}

// doSenderStop is the shared tail end of an end-of-program detection and
// an explicit sender:stop command: rewind the sender and let the
// workflow fall back to idle.
func (c *Controller) doSenderStop() {
	c.workflow.Stop()
	c.broadcast("sender:status", c.sender.Status())
}

func (c *Controller) handleEvent(ev smoothie.Event) {
	switch ev.Kind {
	case smoothie.EventStatus:
		c.handleStatus(ev)
	case smoothie.EventOK:
		c.handleOK(ev)
	case smoothie.EventError:
		c.handleError(ev)
	case smoothie.EventAlarm:
		c.handleAlarm(ev)
	case smoothie.EventParserState:
		c.handleParserState(ev)
	case smoothie.EventParameters, smoothie.EventVersion, smoothie.EventOther:
		c.broadcast("connection:read", map[string]string{"ident": c.Ident, "raw": ev.Raw})
	}
}

func (c *Controller) handleStatus(ev smoothie.Event) {
	c.statusGate.Clear()

	if ev.Status != nil {
		c.lastMachineStatus = ev.Status.State
		if c.alarm && ev.Status.State != "Alarm" {
			c.alarm = false
			c.feeder.Unsuppress()
		}
		if ev.Status.HasMPos {
			c.ctx.SetMPos(ev.Status.MPos)
		}
		if ev.Status.HasWCO {
			c.ctx.SetWCO(ev.Status.WCO)
		}
		if ev.Status.HasOverrides {
			c.overrideFeed = ev.Status.FeedOverride
			c.overrideSpindle = ev.Status.SpindleOverride
		}
		if ev.Status.HasBuf && c.workflow.State() == WorkflowIdle && c.sender.Idle() {
			c.sender.TuneBufferSize(ev.Status.BufRX)
		}
		c.broadcast("controller:state", map[string]interface{}{
			"status": ev.Status.State,
			"mpos":   c.ctx.MPos(),
			"wpos":   c.ctx.WPos(),
		})
	}

	if c.replyStatusReport {
		c.replyStatusReport = false
		c.broadcast("connection:read", map[string]string{"ident": c.Ident, "raw": ev.Raw})
	}
}

func (c *Controller) handleOK(ev smoothie.Event) {
	if c.parserStateReplyGate.IsSet() {
		if c.replyParserState {
			c.broadcast("connection:read", map[string]string{"ident": c.Ident, "raw": ev.Raw})
		}
		c.parserStateReplyGate.Clear()
		return
	}

	switch c.workflow.State() {
	case WorkflowRunning:
		if c.sender.IsHolding() && c.sender.Received()+1 >= c.sender.Sent() {
			c.sender.Unhold()
		}
		c.ackSenderAndAdvance()

	case WorkflowPaused:
		if c.sender.Received() < c.sender.Sent() {
			c.ackSenderAndAdvance()
		}

	default:
		c.broadcast("connection:read", map[string]string{"ident": c.Ident, "raw": ev.Raw})
		c.feeder.Ack()
		c.tryFeederNext()
	}
}

func (c *Controller) ackSenderAndAdvance() {
	if c.sender.Ack() {
		c.onSenderFinished()
	}
	out := c.sender.Next()
	c.reactToSenderStop(out.Stop)
	c.tryFeederNext()
}

// feederMayAdvance reports whether the Feeder is allowed to transmit its
// next line right now. While a program is running, the Sender owns the
// wire exclusively; the Feeder only gets a turn once the Sender has
// caught up with nothing outstanding.
func (c *Controller) feederMayAdvance() bool {
	return c.workflow.State() != WorkflowRunning || c.sender.Idle()
}

// tryFeederNext services the Feeder if feederMayAdvance allows it.
func (c *Controller) tryFeederNext() {
	if c.feederMayAdvance() {
		c.feeder.Next()
	}
}

func (c *Controller) reactToSenderStop(stop gcode.StopReason) {
	switch stop {
	case gcode.StopM0, gcode.StopM1, gcode.StopM6:
		c.workflow.Pause(string(stop))
	}
}

func (c *Controller) onSenderFinished() {
	c.senderFinishTime = time.Now()
	c.zeroOffset = c.ctx.WPos()
	c.haveZeroOffset = true
	c.broadcast("sender:status", c.sender.Status())
}

func (c *Controller) handleError(ev smoothie.Event) {
	if c.workflow.State() == WorkflowRunning {
		offending := ev.Raw
		if line, ok := c.sender.PendingLine(); ok {
			offending = line
		}
		echo := fmt.Sprintf("> %s (line=%d)", offending, c.sender.Received()+1)
		c.broadcast("connection:read", map[string]string{"ident": c.Ident, "raw": echo})
		c.broadcast("connection:read", map[string]string{"ident": c.Ident, "raw": ev.Raw})

		if !c.Config.IgnoreErrors {
			c.workflow.Pause(ev.Detail)
		}
		c.ackSenderAndAdvance()
		return
	}

	c.broadcast("connection:read", map[string]string{"ident": c.Ident, "raw": ev.Raw})
	c.feeder.Ack()
	c.tryFeederNext()
}

func (c *Controller) handleAlarm(ev smoothie.Event) {
	c.broadcast("connection:read", map[string]string{"ident": c.Ident, "raw": ev.Raw})
	c.alarm = true
	c.feeder.Reset()
	c.feeder.Suppress()
}

func (c *Controller) handleParserState(ev smoothie.Event) {
	c.parserStateGate.Clear()
	c.parserStateReplyGate.Try()
	if c.replyParserState {
		c.broadcast("connection:read", map[string]string{"ident": c.Ident, "raw": ev.Raw})
	}
}
