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

package device

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/iti/evt/evtm"
	"github.com/pkg/errors"

	"github.com/superkkt/ofsim/bridge"
	"github.com/superkkt/ofsim/datapath"
	"github.com/superkkt/ofsim/ofbuf"
	"github.com/superkkt/ofsim/openflow"
	"github.com/superkkt/ofsim/openflow/of13"
	"github.com/superkkt/ofsim/simnet"
)

type testbed struct {
	mgr      *evtm.EventManager
	clock    *simnet.Clock
	registry *datapath.Registry
	sw       *Switch
	// Controller side of the control channel.
	controller *simnet.Endpoint
	received   []openflow.Incoming
	frames     map[uint32][][]byte
}

func newTestbed(t *testing.T, id datapath.ID) *testbed {
	tb := &testbed{
		mgr:      evtm.New(),
		registry: datapath.NewRegistry(),
		frames:   make(map[uint32][][]byte),
	}
	tb.clock = simnet.NewClock(tb.mgr)

	sw, err := New(Config{
		ID:       id,
		Registry: tb.registry,
		Clock:    tb.clock,
		BodyRoom: 1500,
		HeadRoom: 16,
	})
	if err != nil {
		t.Fatalf("failed to create a switch: %v", err)
	}
	tb.sw = sw

	for _, num := range []uint32{1, 2} {
		num := num
		if err := sw.AddPort(num, func(pkt *simnet.Packet, queue uint32) {
			tb.frames[num] = append(tb.frames[num], pkt.Bytes())
		}); err != nil {
			t.Fatalf("failed to add port %v: %v", num, err)
		}
	}

	swSide, ctrlSide := simnet.NewChannel(tb.clock, simnet.ChannelConfig{Name: "control", Delay: 0.001}).Endpoints()
	tb.controller = ctrlSide
	ctrlSide.SetReceiver(func(pkt *simnet.Packet) {
		msg, err := bridge.PacketToMessage(pkt)
		if err != nil {
			t.Errorf("switch sent an invalid message: %v", err)
			return
		}
		tb.received = append(tb.received, msg)
	})
	if err := sw.Connect(swSide, datapath.RoleMain, 0); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	return tb
}

func (r *testbed) send(t *testing.T, msg openflow.Outgoing) {
	if err := r.controller.Send(bridge.MessageToPacket(msg, msg.TransactionID())); err != nil {
		t.Fatalf("failed to send to the switch: %v", err)
	}
}

func TestConnectSendsHello(t *testing.T) {
	tb := newTestbed(t, 0x10)
	tb.mgr.Run(1)

	if len(tb.received) != 1 || tb.received[0].Type() != of13.OFPT_HELLO {
		t.Fatalf("unexpected messages: %v", spew.Sdump(tb.received))
	}
	remote := tb.sw.Remote()
	if remote == nil || remote.Datapath != 0x10 || remote.Role != datapath.RoleMain {
		t.Fatalf("unexpected remote: %v", remote)
	}
}

func TestPacketOutToPort(t *testing.T) {
	tb := newTestbed(t, 0x11)

	port := openflow.NewOutPort()
	port.SetValue(2)
	action := of13.NewAction()
	action.SetOutPort(port)
	out := of13.NewPacketOut(7)
	out.SetAction(action)
	out.SetData([]byte{0xDE, 0xAD})
	tb.send(t, out)
	tb.mgr.Run(1)

	if len(tb.frames[2]) != 1 || !bytes.Equal(tb.frames[2][0], []byte{0xDE, 0xAD}) {
		t.Fatalf("unexpected frames on port 2: %v", tb.frames)
	}
	p, ok := tb.sw.Port(2)
	if !ok {
		t.Fatal("port 2 is missing")
	}
	if tp, tbytes, _, _ := p.Stats(); tp != 1 || tbytes != 2 {
		t.Fatalf("unexpected TX counters: packets=%v, bytes=%v", tp, tbytes)
	}
}

func TestPortInputBecomesPacketIn(t *testing.T) {
	tb := newTestbed(t, 0x12)

	frame := []byte{1, 2, 3, 4, 5}
	tb.clock.Schedule(1, func() {
		tb.received = nil
		tb.sw.ReceiveFromPort(1, simnet.NewPacket(frame))
		// Unknown port
		tb.sw.ReceiveFromPort(9, simnet.NewPacket(frame))
		// Larger than the body room
		tb.sw.ReceiveFromPort(1, simnet.NewPacket(make([]byte, 1501)))
	})
	tb.mgr.Run(2)

	if len(tb.received) != 1 {
		t.Fatalf("unexpected messages: %v", spew.Sdump(tb.received))
	}
	pin, ok := tb.received[0].(openflow.PacketIn)
	if !ok {
		t.Fatalf("unexpected message type: %v", of13.TypeName(tb.received[0].Type()))
	}
	if pin.InPort() != 1 || pin.BufferID() != of13.OFP_NO_BUFFER || !bytes.Equal(pin.Data(), frame) {
		t.Fatalf("unexpected PACKET_IN: %v", spew.Sdump(pin))
	}
}

func TestDuplicatedDatapath(t *testing.T) {
	tb := newTestbed(t, 0x13)

	_, err := New(Config{ID: 0x13, Registry: tb.registry, Clock: tb.clock, BodyRoom: 1500})
	if errors.Cause(err) != datapath.ErrDuplicatedDatapath {
		t.Fatalf("unexpected error: expected=%v, actual=%v", datapath.ErrDuplicatedDatapath, err)
	}
}

func TestInvalidConfig(t *testing.T) {
	mgr := evtm.New()
	src := []Config{
		{Clock: simnet.NewClock(mgr), BodyRoom: 1500},
		{Registry: datapath.NewRegistry(), BodyRoom: 1500},
		{Registry: datapath.NewRegistry(), Clock: simnet.NewClock(mgr)},
		{Registry: datapath.NewRegistry(), Clock: simnet.NewClock(mgr), BodyRoom: 1500, HeadRoom: -1},
	}

	for i, v := range src {
		if _, err := New(v); err == nil {
			t.Fatalf("#%v: expected an error for %+v", i, v)
		}
	}
}

func TestClose(t *testing.T) {
	tb := newTestbed(t, 0x14)

	tb.clock.Schedule(1, func() {
		tb.received = nil
		if err := tb.sw.Close(); err != nil {
			t.Errorf("unexpected close error: %v", err)
		}
		if err := tb.sw.Close(); err != nil {
			t.Errorf("unexpected error on the second close: %v", err)
		}
		// The control channel goes down with the switch.
		req := of13.NewEchoRequest(3)
		if err := tb.controller.Send(bridge.MessageToPacket(req, req.TransactionID())); err != simnet.ErrChannelClosed {
			t.Errorf("unexpected error: expected=%v, actual=%v", simnet.ErrChannelClosed, err)
		}
		tb.sw.ReceiveFromPort(1, simnet.NewPacket([]byte{1}))
	})
	tb.mgr.Run(2)

	if len(tb.received) != 0 {
		t.Fatalf("closed switch sent messages: %v", spew.Sdump(tb.received))
	}
	if tb.registry.Len() != 0 {
		t.Fatalf("switch is still registered: %v", tb.registry.IDs())
	}
	if !tb.controller.Channel().Closed() {
		t.Fatal("control channel is still open")
	}
	if err := tb.sw.AddPort(3, func(*simnet.Packet, uint32) {}); err != ErrClosedDevice {
		t.Fatalf("unexpected error: expected=%v, actual=%v", ErrClosedDevice, err)
	}
	if err := tb.sw.Ping(); err != ErrClosedDevice {
		t.Fatalf("unexpected error: expected=%v, actual=%v", ErrClosedDevice, err)
	}
	if err := tb.sw.SendToController(ofbuf.New(0), nil); err != ErrClosedDevice {
		t.Fatalf("unexpected error: expected=%v, actual=%v", ErrClosedDevice, err)
	}
}

func TestPingWithoutDpctl(t *testing.T) {
	tb := newTestbed(t, 0x15)
	if err := tb.sw.Ping(); err == nil {
		t.Fatal("expected an error without a control utility")
	}
}
