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

package engine

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"

	"github.com/superkkt/ofsim/datapath"
	"github.com/superkkt/ofsim/ofbuf"
	"github.com/superkkt/ofsim/openflow"
	"github.com/superkkt/ofsim/openflow/of13"
)

type portOutput struct {
	Port  uint32
	Queue uint32
	Data  []byte
}

type fakeHost struct {
	t       *testing.T
	now     int64
	sent    []openflow.Incoming
	outputs []portOutput
}

func (r *fakeHost) SendBufferToRemote(buf *ofbuf.Buffer, remote *datapath.Remote) error {
	defer buf.Release()

	msg, err := openflow.ParseMessage(buf.Bytes())
	if err != nil {
		r.t.Fatalf("engine sent an invalid message: %v", err)
	}
	r.sent = append(r.sent, msg)

	return nil
}

func (r *fakeHost) PortsOutput(dp datapath.ID, buf *ofbuf.Buffer, outPort, queueID uint32) {
	defer buf.Release()
	r.outputs = append(r.outputs, portOutput{Port: outPort, Queue: queueID, Data: buf.Bytes()})
}

func (r *fakeHost) TimeNow() int64 {
	return r.now / 1000
}

func (r *fakeHost) TimeMsec() int64 {
	return r.now
}

// last returns the last message the engine sent and clears the record.
func (r *fakeHost) last() openflow.Incoming {
	if len(r.sent) == 0 {
		r.t.Fatal("no message was sent")
	}
	v := r.sent[len(r.sent)-1]
	r.sent = nil

	return v
}

type fakeDpctl struct {
	requests []openflow.Outgoing
}

func (r *fakeDpctl) SendAndPrint(conn *datapath.Remote, msg openflow.Outgoing) {
	r.requests = append(r.requests, msg)
}

func (r *fakeDpctl) TransactAndPrint(conn *datapath.Remote, req openflow.Outgoing, reply *openflow.Incoming) {
	r.SendAndPrint(conn, req)
}

func newDatapath(t *testing.T, numBuffers int) (*Datapath, *fakeHost, *fakeDpctl) {
	host := &fakeHost{t: t}
	dpctl := &fakeDpctl{}
	dp := New(Config{
		ID:         7,
		Host:       host,
		Dpctl:      dpctl,
		NumBuffers: numBuffers,
		HeadRoom:   16,
	})
	for _, port := range []uint32{1, 2, 3} {
		if err := dp.AddPort(port); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	dp.Connect(&datapath.Remote{Datapath: 7, Role: datapath.RoleMain})
	if msg := host.last(); msg.Type() != of13.OFPT_HELLO {
		t.Fatalf("unexpected first message: %v", of13.TypeName(msg.Type()))
	}

	return dp, host, dpctl
}

func control(t *testing.T, dp *Datapath, msg openflow.Outgoing) {
	packet, err := msg.MarshalBinary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dp.HandleControl(ofbuf.Use(packet))
}

func TestSessionRequests(t *testing.T) {
	dp, host, _ := newDatapath(t, 0)

	control(t, dp, of13.NewHello(1))
	if !dp.Negotiated() {
		t.Fatal("expected negotiated session after HELLO")
	}

	echo := of13.NewEchoRequest(2)
	echo.SetData([]byte{0xAA})
	control(t, dp, echo)
	reply, ok := host.last().(openflow.EchoReply)
	if !ok || reply.Type() != of13.OFPT_ECHO_REPLY || reply.TransactionID() != 2 || !bytes.Equal(reply.Data(), []byte{0xAA}) {
		t.Fatalf("unexpected echo reply: %v", spew.Sdump(reply))
	}

	control(t, dp, of13.NewFeaturesRequest(3))
	features, ok := host.last().(openflow.FeaturesReply)
	if !ok || features.TransactionID() != 3 || features.DPID() != 7 || features.NumTables() != defaultNumTables {
		t.Fatalf("unexpected features reply: %v", spew.Sdump(features))
	}

	control(t, dp, of13.NewBarrierRequest(4))
	if msg := host.last(); msg.Type() != of13.OFPT_BARRIER_REPLY || msg.TransactionID() != 4 {
		t.Fatalf("unexpected barrier reply: %v", spew.Sdump(msg))
	}

	control(t, dp, of13.NewDescRequest(5))
	desc, ok := host.last().(openflow.DescReply)
	if !ok || desc.Serial() != "0000000000000007" || desc.Manufacturer() != "superkkt" {
		t.Fatalf("unexpected desc reply: %v", spew.Sdump(desc))
	}
}

func TestConfig(t *testing.T) {
	dp, host, _ := newDatapath(t, 0)

	set := of13.NewSetConfig(1)
	set.SetFlags(openflow.FragDrop)
	set.SetMissSendLength(256)
	control(t, dp, set)
	if len(host.sent) != 0 {
		t.Fatalf("unexpected reply to SET_CONFIG: %v", spew.Sdump(host.sent))
	}

	control(t, dp, of13.NewGetConfigRequest(2))
	reply, ok := host.last().(openflow.GetConfigReply)
	if !ok || reply.Flags() != openflow.FragDrop || reply.MissSendLength() != 256 {
		t.Fatalf("unexpected config reply: %v", spew.Sdump(reply))
	}
}

func TestUnsupportedRequest(t *testing.T) {
	dp, host, _ := newDatapath(t, 0)

	src := []struct {
		Packet []byte
		Class  uint16
		Code   uint16
	}{
		{
			// FLOW_MOD
			Packet: []byte{0x04, of13.OFPT_FLOW_MOD, 0x00, 0x08, 0x00, 0x00, 0x00, 0x09},
			Class:  of13.OFPET_BAD_REQUEST,
			Code:   of13.OFPBRC_BAD_TYPE,
		},
		{
			// PORT_DESC multipart
			Packet: []byte{0x04, of13.OFPT_MULTIPART_REQUEST, 0x00, 0x10, 0x00, 0x00, 0x00, 0x09, 0x00, 0x0D, 0, 0, 0, 0, 0, 0},
			Class:  of13.OFPET_BAD_REQUEST,
			Code:   of13.OFPBRC_BAD_MULTIPART,
		},
		{
			// OpenFlow 1.0 ECHO_REQUEST
			Packet: []byte{0x01, 0x02, 0x00, 0x08, 0x00, 0x00, 0x00, 0x09},
			Class:  of13.OFPET_BAD_REQUEST,
			Code:   of13.OFPBRC_BAD_VERSION,
		},
		{
			// PACKET_IN is never sent by a controller
			Packet: func() []byte {
				v, _ := of13.NewPacketIn(9).MarshalBinary()
				return v
			}(),
			Class: of13.OFPET_BAD_REQUEST,
			Code:  of13.OFPBRC_BAD_TYPE,
		},
	}

	for i, v := range src {
		dp.HandleControl(ofbuf.Use(append([]byte(nil), v.Packet...)))
		msg, ok := host.last().(openflow.Error)
		if !ok {
			t.Fatalf("#%v: unexpected reply type", i)
		}
		if msg.TransactionID() != 9 || msg.Class() != v.Class || msg.Code() != v.Code {
			t.Fatalf("#%v: unexpected error: xid=%v, class=%v, code=%v", i, msg.TransactionID(), msg.Class(), msg.Code())
		}
		if !bytes.Equal(msg.Data(), v.Packet) {
			t.Fatalf("#%v: unexpected error data: %v", i, msg.Data())
		}
	}
}

func newPacketOut(xid uint32, inPort uint32, queue *uint32, data []byte, ports ...openflow.OutPort) openflow.PacketOut {
	action := of13.NewAction()
	for _, p := range ports {
		action.SetOutPort(p)
	}
	if queue != nil {
		action.SetQueue(*queue)
	}
	in := openflow.NewInPort()
	if inPort != 0 {
		in.SetValue(inPort)
	}

	out := of13.NewPacketOut(xid)
	out.SetInPort(in)
	out.SetAction(action)
	out.SetData(data)

	return out
}

func TestPacketOut(t *testing.T) {
	dp, host, _ := newDatapath(t, 0)

	physical := openflow.NewOutPort()
	physical.SetValue(3)
	flood := openflow.NewOutPort()
	flood.SetFlood()
	queue := uint32(5)

	control(t, dp, newPacketOut(1, 2, &queue, []byte{1, 2, 3}, physical, flood))

	expected := []portOutput{
		{Port: 3, Queue: 5, Data: []byte{1, 2, 3}},
		// Flooding skips the input port 2.
		{Port: 1, Queue: 5, Data: []byte{1, 2, 3}},
		{Port: 3, Queue: 5, Data: []byte{1, 2, 3}},
	}
	if diff := cmp.Diff(expected, host.outputs); diff != "" {
		t.Fatalf("unexpected port outputs (-expected +actual):\n%v", diff)
	}

	host.outputs = nil
	controller := openflow.NewOutPort()
	controller.SetController()
	control(t, dp, newPacketOut(2, 1, nil, []byte{4, 5}, controller))
	pin, ok := host.last().(openflow.PacketIn)
	if !ok || pin.Reason() != openflow.ReasonAction || pin.InPort() != 1 || !bytes.Equal(pin.Data(), []byte{4, 5}) {
		t.Fatalf("unexpected PACKET_IN: %v", spew.Sdump(pin))
	}
	if len(host.outputs) != 0 {
		t.Fatalf("unexpected port outputs: %v", host.outputs)
	}
}

func TestTableMissWithoutBuffer(t *testing.T) {
	dp, host, _ := newDatapath(t, 0)

	frame := bytes.Repeat([]byte{0x11}, 300)
	dp.HandlePortInput(2, ofbuf.Use(append([]byte(nil), frame...)))
	pin, ok := host.last().(openflow.PacketIn)
	if !ok {
		t.Fatal("expected PACKET_IN")
	}
	if pin.BufferID() != of13.OFP_NO_BUFFER || pin.Reason() != openflow.ReasonNoMatch || pin.InPort() != 2 {
		t.Fatalf("unexpected PACKET_IN: %v", spew.Sdump(pin))
	}
	if pin.Length() != 300 || !bytes.Equal(pin.Data(), frame) {
		t.Fatalf("unexpected PACKET_IN data: length=%v, data=%v", pin.Length(), len(pin.Data()))
	}

	// Unknown port
	dp.HandlePortInput(9, ofbuf.Use([]byte{1}))
	if len(host.sent) != 0 {
		t.Fatalf("unexpected message for an unknown port: %v", spew.Sdump(host.sent))
	}
}

func TestTableMissWithBuffer(t *testing.T) {
	dp, host, _ := newDatapath(t, 4)

	set := of13.NewSetConfig(1)
	set.SetMissSendLength(4)
	control(t, dp, set)

	frame := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dp.HandlePortInput(1, ofbuf.Use(append([]byte(nil), frame...)))
	pin, ok := host.last().(openflow.PacketIn)
	if !ok {
		t.Fatal("expected PACKET_IN")
	}
	if pin.BufferID() == of13.OFP_NO_BUFFER || pin.Length() != 8 || !bytes.Equal(pin.Data(), frame[:4]) {
		t.Fatalf("unexpected PACKET_IN: %v", spew.Sdump(pin))
	}
	if pkt, ok := dp.BufferedPacket(pin.BufferID()); !ok || !bytes.Equal(pkt.Bytes(), frame) {
		t.Fatalf("unexpected buffered packet: %v", pkt)
	}

	port := openflow.NewOutPort()
	port.SetValue(3)
	out := newPacketOut(2, 1, nil, nil, port)
	out.SetBufferID(pin.BufferID())
	control(t, dp, out)
	if len(host.outputs) != 1 || !bytes.Equal(host.outputs[0].Data, frame) {
		t.Fatalf("unexpected port outputs: %v", spew.Sdump(host.outputs))
	}

	// The buffer is gone once used.
	control(t, dp, out)
	msg, ok := host.last().(openflow.Error)
	if !ok || msg.Code() != of13.OFPBRC_BUFFER_UNKNOWN {
		t.Fatalf("unexpected reply: %v", spew.Sdump(msg))
	}
}

func TestBufferExpiration(t *testing.T) {
	dp, host, _ := newDatapath(t, 4)

	set := of13.NewSetConfig(1)
	set.SetMissSendLength(1)
	control(t, dp, set)

	dp.HandlePortInput(1, ofbuf.Use([]byte{1, 2, 3}))
	pin := host.last().(openflow.PacketIn)
	host.now += defaultBufferTimeout + 1

	port := openflow.NewOutPort()
	port.SetValue(2)
	out := newPacketOut(2, 1, nil, nil, port)
	out.SetBufferID(pin.BufferID())
	control(t, dp, out)
	if msg, ok := host.last().(openflow.Error); !ok || msg.Code() != of13.OFPBRC_BUFFER_UNKNOWN {
		t.Fatalf("unexpected reply: %v", spew.Sdump(msg))
	}
}

func TestPingThroughDpctl(t *testing.T) {
	dp, host, dpctl := newDatapath(t, 0)
	host.now = 1500

	replies := make([]openflow.Incoming, 0)
	dp.SetOnReply(func(msg openflow.Incoming) { replies = append(replies, msg) })
	dp.Ping()

	if len(dpctl.requests) != 1 {
		t.Fatalf("unexpected dpctl requests: %v", len(dpctl.requests))
	}
	req, ok := dpctl.requests[0].(openflow.EchoRequest)
	if !ok || binary.BigEndian.Uint64(req.Data()) != 1500 {
		t.Fatalf("unexpected echo request: %v", spew.Sdump(req))
	}
	// Nothing arrives synchronously.
	if len(replies) != 0 {
		t.Fatalf("unexpected synchronous reply: %v", replies)
	}

	reply := of13.NewEchoReply(0)
	reply.SetData(req.Data())
	control(t, dp, reply)
	if len(replies) != 1 || replies[0].Type() != of13.OFPT_ECHO_REPLY {
		t.Fatalf("unexpected replies: %v", spew.Sdump(replies))
	}
}

func TestDisconnected(t *testing.T) {
	dp, host, _ := newDatapath(t, 0)
	dp.Disconnect()

	control(t, dp, of13.NewEchoRequest(1))
	dp.HandlePortInput(1, ofbuf.Use([]byte{1}))
	if len(host.sent) != 0 {
		t.Fatalf("unexpected messages while disconnected: %v", spew.Sdump(host.sent))
	}
}

func TestAddPort(t *testing.T) {
	dp := New(Config{ID: 1, Host: &fakeHost{t: t}})
	if err := dp.AddPort(0); err == nil {
		t.Fatal("expected an error on port 0")
	}
	if err := dp.AddPort(of13.OFPP_CONTROLLER); err == nil {
		t.Fatal("expected an error on a reserved port")
	}
	if err := dp.AddPort(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := dp.AddPort(2); err == nil {
		t.Fatal("expected an error on a duplicated port")
	}
	if err := dp.AddPort(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]uint32{1, 2}, dp.Ports()); diff != "" {
		t.Fatalf("unexpected ports (-expected +actual):\n%v", diff)
	}
}
