/*
 * Cherry - An OpenFlow Controller
 *
 * Copyright (C) 2015 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package controller

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/iti/evt/evtm"

	"github.com/superkkt/ofsim/bridge"
	"github.com/superkkt/ofsim/datapath"
	"github.com/superkkt/ofsim/device"
	"github.com/superkkt/ofsim/openflow"
	"github.com/superkkt/ofsim/openflow/of13"
	"github.com/superkkt/ofsim/simnet"
)

type recorder struct {
	BaseHandler
	hellos    int
	features  []uint64
	echoes    int
	packetIns [][]byte
}

func (r *recorder) OnHello(s *Session, msg openflow.Hello) error {
	r.hellos++
	return nil
}

func (r *recorder) OnFeaturesReply(s *Session, msg openflow.FeaturesReply) error {
	r.features = append(r.features, msg.DPID())
	return nil
}

func (r *recorder) OnEchoReply(s *Session, msg openflow.EchoReply) error {
	r.echoes++
	return nil
}

func (r *recorder) OnPacketIn(s *Session, msg openflow.PacketIn) error {
	r.packetIns = append(r.packetIns, msg.Data())
	return nil
}

func newController(t *testing.T, clock *simnet.Clock, h Handler, interval float64) *Controller {
	c, err := New(Config{Clock: clock, Handler: h, EchoInterval: interval})
	if err != nil {
		t.Fatalf("failed to create a controller: %v", err)
	}

	return c
}

// connect attaches a new simulated switch with dpid to the controller.
func connect(t *testing.T, clock *simnet.Clock, c *Controller, dpid datapath.ID) (*device.Switch, *Session) {
	sw, err := device.New(device.Config{
		ID:       dpid,
		Registry: datapath.NewRegistry(),
		Clock:    clock,
		BodyRoom: 1500,
	})
	if err != nil {
		t.Fatalf("failed to create a switch: %v", err)
	}
	swSide, ctrlSide := simnet.NewChannel(clock, simnet.ChannelConfig{Name: dpid.String(), Delay: 0.001}).Endpoints()
	s := c.Attach(ctrlSide)
	if err := sw.Connect(swSide, datapath.RoleMain, 0); err != nil {
		t.Fatalf("failed to connect the switch: %v", err)
	}

	return sw, s
}

func TestHandshake(t *testing.T) {
	mgr := evtm.New()
	clock := simnet.NewClock(mgr)
	h := &recorder{}
	c := newController(t, clock, h, 0)

	_, s := connect(t, clock, c, 0xABCD)
	mgr.Run(1)

	if h.hellos != 1 {
		t.Fatalf("unexpected number of HELLOs: expected=1, actual=%v", h.hellos)
	}
	if diff := cmp.Diff([]uint64{0xABCD}, h.features); diff != "" {
		t.Fatalf("unexpected FEATURES_REPLY (-expected +actual):\n%v", diff)
	}
	dpid, ok := s.DatapathID()
	if !ok || dpid != 0xABCD {
		t.Fatalf("unexpected binding: dpid=%v, bound=%v", dpid, ok)
	}
	if v, ok := c.Session(0xABCD); !ok || v != s {
		t.Fatalf("session is not registered: %v", v)
	}
	if c.NumPending() != 0 {
		t.Fatalf("unexpected pending requests: %v", c.NumPending())
	}
}

func TestEchoKeepalive(t *testing.T) {
	mgr := evtm.New()
	clock := simnet.NewClock(mgr)
	h := &recorder{}
	c := newController(t, clock, h, 1)

	_, s := connect(t, clock, c, 1)
	mgr.Run(5.5)

	if h.echoes != 5 {
		t.Fatalf("unexpected number of ECHO_REPLYs: expected=5, actual=%v", h.echoes)
	}
	if c.NumPending() != 0 {
		t.Fatalf("unexpected pending requests: %v", c.NumPending())
	}

	c.Detach(s)
	if c.keepalive.len() != 0 {
		t.Fatal("keepalive is still running after detach")
	}
	if c.NumSessions() != 0 {
		t.Fatalf("unexpected sessions: %v", c.NumSessions())
	}
	if err := c.SendToSwitch(s, of13.NewBarrierRequest(0), 0); err != ErrClosedSession {
		t.Fatalf("unexpected error: expected=%v, actual=%v", ErrClosedSession, err)
	}
}

func TestDuplicatedDPID(t *testing.T) {
	mgr := evtm.New()
	clock := simnet.NewClock(mgr)
	h := &recorder{}
	c := newController(t, clock, h, 0)

	_, first := connect(t, clock, c, 5)
	var second *Session
	clock.Schedule(1, func() {
		_, second = connect(t, clock, c, 5)
	})
	mgr.Run(2)

	if c.NumSessions() != 1 {
		t.Fatalf("unexpected number of sessions: expected=1, actual=%v", c.NumSessions())
	}
	if v, _ := c.Session(5); v != first {
		t.Fatalf("the first session was replaced: %v", v)
	}
	if !second.Closed() || first.Closed() {
		t.Fatalf("unexpected session states: first=%v, second=%v", first.Closed(), second.Closed())
	}
	if len(h.features) != 1 {
		t.Fatalf("handler received a rejected FEATURES_REPLY: %v", h.features)
	}
}

func TestPacketInDispatch(t *testing.T) {
	mgr := evtm.New()
	clock := simnet.NewClock(mgr)
	h := &recorder{}
	c := newController(t, clock, h, 0)

	sw, _ := connect(t, clock, c, 9)
	if err := sw.AddPort(1, func(*simnet.Packet, uint32) {}); err != nil {
		t.Fatalf("failed to add a port: %v", err)
	}
	clock.Schedule(1, func() {
		sw.ReceiveFromPort(1, simnet.NewPacket([]byte{0xA, 0xB}))
	})
	mgr.Run(2)

	if len(h.packetIns) != 1 || !bytes.Equal(h.packetIns[0], []byte{0xA, 0xB}) {
		t.Fatalf("unexpected PACKET_INs: %v", spew.Sdump(h.packetIns))
	}
}

// rawSwitch speaks OpenFlow on the switch side of a channel by hand.
type rawSwitch struct {
	t        *testing.T
	endpoint *simnet.Endpoint
	received []openflow.Incoming
}

func newRawSwitch(t *testing.T, clock *simnet.Clock, c *Controller) (*rawSwitch, *Session) {
	swSide, ctrlSide := simnet.NewChannel(clock, simnet.ChannelConfig{Name: "raw", Delay: 0.001}).Endpoints()
	raw := &rawSwitch{t: t, endpoint: swSide}
	swSide.SetReceiver(func(pkt *simnet.Packet) {
		msg, err := bridge.PacketToMessage(pkt)
		if err != nil {
			t.Errorf("controller sent an invalid message: %v", err)
			return
		}
		raw.received = append(raw.received, msg)
	})

	return raw, c.Attach(ctrlSide)
}

func (r *rawSwitch) send(msg openflow.Outgoing) {
	if err := r.endpoint.Send(bridge.MessageToPacket(msg, msg.TransactionID())); err != nil {
		r.t.Fatalf("failed to send: %v", err)
	}
}

func (r *rawSwitch) types() []string {
	v := make([]string, 0, len(r.received))
	for _, msg := range r.received {
		v = append(v, of13.TypeName(msg.Type()))
	}

	return v
}

func TestTransactionID(t *testing.T) {
	mgr := evtm.New()
	clock := simnet.NewClock(mgr)
	c := newController(t, clock, nil, 0)
	raw, s := newRawSwitch(t, clock, c)

	if err := c.SendToSwitch(s, of13.NewBarrierRequest(0), 0); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	if err := c.SendToSwitch(s, of13.NewBarrierRequest(0), 77); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	if err := c.SendToSwitch(s, of13.NewBarrierRequest(0), 0); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	pending := 0
	clock.Schedule(1, func() {
		pending = c.NumPending()
		// Replies are matched only after the session is negotiated.
		raw.send(of13.NewHello(1))
		raw.send(of13.NewBarrierReply(77))
	})
	mgr.Run(2)

	xids := make([]uint32, 0)
	for _, msg := range raw.received {
		xids = append(xids, msg.TransactionID())
	}
	// HELLO takes the first transaction ID and the HELLO from the switch
	// triggers a FEATURES_REQUEST.
	if diff := cmp.Diff([]uint32{1, 2, 77, 3, 4}, xids); diff != "" {
		t.Fatalf("unexpected transaction IDs (-expected +actual):\n%v", diff)
	}
	if pending != 3 {
		t.Fatalf("unexpected pending requests: expected=3, actual=%v", pending)
	}
	// BARRIER 77 is answered and FEATURES_REQUEST 4 is not.
	if c.NumPending() != 3 {
		t.Fatalf("unexpected pending requests: expected=3, actual=%v", c.NumPending())
	}
}

func TestChannelCloseDetachesSession(t *testing.T) {
	mgr := evtm.New()
	clock := simnet.NewClock(mgr)
	h := &recorder{}
	c := newController(t, clock, h, 1)

	sw, s := connect(t, clock, c, 7)
	raw, other := newRawSwitch(t, clock, c)
	if err := c.SendToSwitch(other, of13.NewBarrierRequest(0), 0); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	clock.Schedule(0.5, func() {
		// Never answered.
		if err := c.SendToSwitch(s, of13.NewBarrierRequest(0), 0); err != nil {
			t.Errorf("unexpected send error: %v", err)
		}
		if err := sw.Close(); err != nil {
			t.Errorf("unexpected close error: %v", err)
		}
	})
	mgr.Run(3.5)

	if !s.Closed() || other.Closed() {
		t.Fatalf("unexpected session states: closed=%v, other=%v", s.Closed(), other.Closed())
	}
	if c.NumSessions() != 0 {
		t.Fatalf("unexpected sessions: %v", c.NumSessions())
	}
	if c.keepalive.len() != 0 {
		t.Fatal("keepalive is still running after the channel is closed")
	}
	if h.echoes != 0 {
		t.Fatalf("unexpected ECHO_REPLYs after close: %v", h.echoes)
	}
	// Only the BARRIER of the other session is still waiting for a reply.
	if c.NumPending() != 1 {
		t.Fatalf("unexpected pending requests: expected=1, actual=%v", c.NumPending())
	}
	if len(raw.received) != 2 {
		t.Fatalf("unexpected messages on the raw switch: %v", raw.types())
	}
}

func TestDetachClosesChannel(t *testing.T) {
	mgr := evtm.New()
	clock := simnet.NewClock(mgr)
	c := newController(t, clock, nil, 0)
	raw, s := newRawSwitch(t, clock, c)

	if err := c.SendToSwitch(s, of13.NewBarrierRequest(0), 0); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	mgr.Run(1)
	if c.NumPending() != 1 {
		t.Fatalf("unexpected pending requests: expected=1, actual=%v", c.NumPending())
	}

	c.Detach(s)
	if !raw.endpoint.Channel().Closed() {
		t.Fatal("channel is still open after detach")
	}
	if c.NumPending() != 0 {
		t.Fatalf("unexpected pending requests: expected=0, actual=%v", c.NumPending())
	}
}

func TestEchoRequestIsAnswered(t *testing.T) {
	mgr := evtm.New()
	clock := simnet.NewClock(mgr)
	c := newController(t, clock, nil, 0)
	raw, _ := newRawSwitch(t, clock, c)

	req := of13.NewEchoRequest(9)
	req.SetData([]byte{1, 2, 3})
	// Not negotiated yet: dropped.
	raw.send(req)
	raw.send(of13.NewHello(1))
	raw.send(req)
	mgr.Run(1)

	expected := []string{"HELLO", "FEATURES_REQUEST", "ECHO_REPLY"}
	if diff := cmp.Diff(expected, raw.types()); diff != "" {
		t.Fatalf("unexpected messages (-expected +actual):\n%v", diff)
	}
	reply := raw.received[2].(openflow.EchoReply)
	if reply.TransactionID() != 9 || !bytes.Equal(reply.Data(), []byte{1, 2, 3}) {
		t.Fatalf("unexpected ECHO_REPLY: %v", spew.Sdump(reply))
	}
}

func TestInvalidConfig(t *testing.T) {
	clock := simnet.NewClock(evtm.New())
	src := []Config{
		{},
		{Clock: clock, EchoInterval: -1},
		{Clock: clock, PendingSize: -1},
	}

	for i, v := range src {
		if _, err := New(v); err == nil {
			t.Fatalf("#%v: expected an error for %+v", i, v)
		}
	}
}
