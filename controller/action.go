package controller

import "time"

// actionGate masks a realtime query so it's only issued once until
// answered, auto-clearing after timeout if no answer ever arrives --
// the query is implicitly cancelled rather than explicitly timed out.
type actionGate struct {
	set     bool
	at      time.Time
	timeout time.Duration
}

func newActionGate(timeout time.Duration) actionGate {
	return actionGate{timeout: timeout}
}

// Try reports whether the gate is currently open (safe to issue the
// query) and, if so, closes it. A gate auto-reopens once timeout has
// elapsed since it was closed, even without an explicit Clear.
func (g *actionGate) Try() bool {
	if g.set && time.Since(g.at) > g.timeout {
		g.set = false
	}
	if g.set {
		return false
	}
	g.set = true
	g.at = time.Now()
	return true
}

func (g *actionGate) Clear() { g.set = false }
func (g *actionGate) IsSet() bool {
	if g.set && time.Since(g.at) > g.timeout {
		g.set = false
	}
	return g.set
}
