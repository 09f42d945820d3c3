// Package controller mediates between a byte-stream transport to a
// Smoothieware-class controller board and the sessions watching it: it
// streams loaded programs under the character-counting protocol,
// interleaves ad-hoc commands, and tracks the machine's workflow state.
package controller

import (
	"sync"
	"time"

	"github.com/cncware/smoothied/coord"
	"github.com/cncware/smoothied/gcode"
	"github.com/cncware/smoothied/macro"
	"github.com/cncware/smoothied/session"
	"github.com/cncware/smoothied/smoothie"
	"github.com/cncware/smoothied/transport"
)

const (
	tickInterval           = 250 * time.Millisecond
	parserStateThrottle    = 500 * time.Millisecond
	statusGateTimeout      = 5 * time.Second
	parserStateGateTimeout = 10 * time.Second
	endOfProgramIdleWindow = 500 * time.Millisecond
	endOfProgramIdlePosEps = 0.001
	initBootloaderDelay    = 1000 * time.Millisecond
	initVersionSettleDelay = 50 * time.Millisecond
)

// Config carries the external configuration inputs the controller core
// consumes but does not own the source of -- persisted state lives
// outside the core entirely.
type Config struct {
	IgnoreErrors bool
}

// Controller owns one transport exclusively and mediates it on a single
// logical goroutine: all state mutation happens inside run(), reached
// only through the commands channel, inbound events, or the periodic
// tick. Nothing else touches Controller's unexported state.
type Controller struct {
	Ident  string
	Logger Logger
	Config Config

	transport transport.Transport
	macros    *macro.Store
	sessions  *session.Registry

	ctx      *gcode.Context
	sender   *Sender
	feeder   *Feeder
	workflow *Workflow

	commands chan func(*Controller)
	events   chan smoothie.Event

	done      chan struct{}
	closeOnce sync.Once

	ticker *time.Ticker

	ready bool

	statusGate              actionGate
	parserStateGate         actionGate
	parserStateReplyGate    actionGate
	replyStatusReport       bool
	replyParserState        bool
	lastParserStateThrottle time.Time

	lastWorkflowState WorkflowState
	lastMachineStatus string

	zeroOffset       coord.Point
	haveZeroOffset   bool
	senderFinishTime time.Time

	overrideFeed    int
	overrideSpindle int

	alarm bool

	onUnexpectedClose func()
}

// OnUnexpectedClose registers fn to run once if the transport closes or
// errors without Close having been called first. Used by Registry to
// drop the controller from its index.
func (c *Controller) OnUnexpectedClose(fn func()) {
	c.onUnexpectedClose = fn
}

// New constructs a Controller around tr. The controller's event loop
// starts immediately; call Open to actually connect the transport.
func New(ident string, tr transport.Transport, cfg Config, macros *macro.Store, logger Logger) *Controller {
	if logger == nil {
		logger = nopLogger{}
	}

	ctx := gcode.NewContext()
	sender := &Sender{Logger: logger, bufferSize: defaultBufferSize}
	feeder := NewFeeder(ctx)
	feeder.Logger = logger

	c := &Controller{
		Ident:     ident,
		Logger:    logger,
		Config:    cfg,
		transport: tr,
		macros:    macros,
		sessions:  &session.Registry{},

		ctx:    ctx,
		sender: sender,
		feeder: feeder,

		commands: make(chan func(*Controller)),
		events:   make(chan smoothie.Event),
		done:     make(chan struct{}),
		ticker:   time.NewTicker(tickInterval),

		overrideFeed:    100,
		overrideSpindle: 100,

		statusGate:           newActionGate(statusGateTimeout),
		parserStateGate:      newActionGate(parserStateGateTimeout),
		parserStateReplyGate: newActionGate(parserStateGateTimeout),
		replyStatusReport:    false,
		replyParserState:     true,
	}

	c.workflow = NewWorkflow(sender, feeder, c.onWorkflowEvent)

	sender.WriteLine = c.writeText
	feeder.WriteLine = c.writeText

	go c.run()

	return c
}

// Sessions returns the controller's session registry, so a transport
// hub (e.g. a websocket upgrader) can register a freshly-accepted
// connection directly into it.
func (c *Controller) Sessions() *session.Registry { return c.sessions }

// Subscribe registers s to receive this controller's broadcast events.
func (c *Controller) Subscribe(s session.Session) { c.sessions.Add(s) }

// Unsubscribe removes s. Safe to call more than once for the same s.
func (c *Controller) Unsubscribe(s session.Session) { c.sessions.Remove(s) }

// Post enqueues fn to run on the controller's own goroutine. Every public
// dispatcher method in this package is built on top of Post.
func (c *Controller) Post(fn func(*Controller)) {
	select {
	case c.commands <- fn:
	case <-c.done:
	}
}

// Open attaches to the transport and runs the post-connect handshake.
func (c *Controller) Open() error {
	if err := c.transport.Open(); err != nil {
		c.broadcast("connection:error", map[string]string{"error": err.Error()})
		return err
	}

	go c.readLoop()

	c.broadcast("connection:open", map[string]string{"ident": c.Ident})
	c.broadcast("connection:change", map[string]interface{}{"ident": c.Ident, "open": true})

	c.Post(func(ctl *Controller) {
		ctl.workflow.Stop()
		ctl.clearActionGates()
		if ctl.sender.Loaded() {
			ctl.sender.Unload()
		}
		go ctl.initController()
	})

	return nil
}

// initController waits for the bootloader to settle, probes the firmware
// version, then marks the controller ready for traffic.
func (c *Controller) initController() {
	select {
	case <-time.After(initBootloaderDelay):
	case <-c.done:
		return
	}

	c.Post(func(ctl *Controller) { ctl.writeText([]byte("version\n")) })

	select {
	case <-time.After(initVersionSettleDelay):
	case <-c.done:
		return
	}

	c.Post(func(ctl *Controller) {
		ctl.ready = true
	})
}

// Close shuts the controller down: stops the event loop, closes the
// transport, and notifies sessions. Safe to call more than once.
func (c *Controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.ticker.Stop()
		err = c.transport.Close()
		c.broadcast("connection:close", map[string]string{"ident": c.Ident})
		c.broadcast("connection:change", map[string]interface{}{"ident": c.Ident, "open": false})
	})
	return err
}

func (c *Controller) clearActionGates() {
	c.statusGate.Clear()
	c.parserStateGate.Clear()
	c.parserStateReplyGate.Clear()
	c.ready = false
}

// readLoop scans classified events off the transport and feeds them to
// the controller goroutine. It exits -- closing the events channel -- the
// moment the underlying read fails, which run() treats as an unexpected
// disconnect.
func (c *Controller) readLoop() {
	sc := smoothie.NewScanner(c.transport)
	for sc.Scan() {
		select {
		case c.events <- sc.Event():
		case <-c.done:
			return
		}
	}
	close(c.events)
}

// run is the controller's single logical thread: every state mutation in
// this package happens here, reached only through commands, events, or
// the tick.
func (c *Controller) run() {
	for {
		select {
		case <-c.done:
			return
		case fn := <-c.commands:
			fn(c)
		case ev, ok := <-c.events:
			if !ok {
				c.handleTransportClosed()
				return
			}
			c.handleEvent(ev)
		case <-c.ticker.C:
			c.tick()
		}
	}
}

func (c *Controller) handleTransportClosed() {
	c.Logger.Warnf("controller %s: transport closed unexpectedly", c.Ident)
	c.ready = false
	c.transport.Close()
	c.broadcast("connection:close", map[string]string{"ident": c.Ident})
	c.broadcast("connection:change", map[string]interface{}{"ident": c.Ident, "open": false})
	if c.onUnexpectedClose != nil {
		c.onUnexpectedClose()
	}
}

// writeText writes a newline-terminated command. Writes are fire and
// forget: the controller never blocks waiting on the transport.
func (c *Controller) writeText(data []byte) {
	if !c.transport.IsOpen() {
		c.Logger.Warnf("controller %s: write on closed transport dropped", c.Ident)
		return
	}
	if _, err := c.transport.Write(data); err != nil {
		c.Logger.Warnf("controller %s: write failed: %v", c.Ident, err)
	}
}

// writeRealtime writes a single realtime byte without a trailing newline
// and without touching the character-counting accounting.
func (c *Controller) writeRealtime(b byte) {
	c.writeText([]byte{b})
}

func (c *Controller) onWorkflowEvent(event string) {
	c.broadcast("workflow:state", map[string]string{"state": string(c.workflow.State())})
	c.lastWorkflowState = c.workflow.State()
}

func (c *Controller) broadcast(event string, payload interface{}) {
	data, err := marshalJSON(payload)
	if err != nil {
		c.Logger.Errorf("controller %s: marshal %s: %v", c.Ident, event, err)
		return
	}
	c.sessions.Broadcast(event, data)
}
