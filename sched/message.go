// Package sched implements the cooperative scheduler and host⇄script
// message bus: run/blocked/wait job queues driven by a step
// budget and an event-loop tick, plus named two-slot rendezvous
// channels between a script and its host.
package sched

import "github.com/loomlang/loom/value"

// HostHandler is a host-side callback invoked when the script side of a
// channel sends a value. It is registered independently of whether the
// host has sent anything itself, letting a host lazily react to script
// sends without polling.
type HostHandler func(v value.Value)

// channel is one named message channel: two slots (a
// value from the script side, a value from the host side), two
// has-data bits, a script-waiting bit, and a host-side handler hook.
// The two sides are not symmetric: only the script side ever blocks a
// job, since the host is never inside a tick.
type channel struct {
	name string

	scriptVal  value.Value
	scriptHas  bool
	scriptWait bool

	hostVal value.Value
	hostHas bool

	hostHandler HostHandler
}

func newChannel(name string) *channel {
	return &channel{name: name, scriptVal: value.Nil, hostVal: value.Nil}
}

// sendFromScript deposits v in the channel's script slot. If the host
// has registered a handler, it fires synchronously (the engine is
// single-threaded, so there is no queue to hand this off to). The
// script slot is left populated regardless, so a host that later calls
// SetHostHandler without polling still observes the value via Recv-style
// reads if it ever adds one.
func (c *channel) sendFromScript(v value.Value) {
	c.scriptVal = v
	c.scriptHas = true
	if c.hostHandler != nil {
		c.hostHandler(v)
	}
}

// sendFromHost deposits v in the channel's host slot and reports
// whether a script was waiting on this channel (the caller uses this to
// decide whether the job needs to move from the blocked queue back to
// run).
func (c *channel) sendFromHost(v value.Value) bool {
	c.hostVal = v
	c.hostHas = true
	wasWaiting := c.scriptWait
	c.scriptWait = false
	return wasWaiting
}

// tryRecv implements the script-side receive: if the host slot
// has data, consume it and report ready; otherwise mark the channel
// script-waiting (the job is left blocked until a matching send arrives)
// and report not ready.
func (c *channel) tryRecv() (value.Value, bool) {
	if c.hostHas {
		v := c.hostVal
		c.hostVal = value.Nil
		c.hostHas = false
		return v, true
	}
	c.scriptWait = true
	return value.Nil, false
}
