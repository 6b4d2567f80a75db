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

package openflow

import (
	"bytes"
	"testing"
)

func TestMessageMarshal(t *testing.T) {
	src := []struct {
		Version  uint8
		Type     uint8
		XID      uint32
		Payload  []byte
		Expected []byte
	}{
		{
			Version:  0x04,
			Type:     0x02,
			XID:      7,
			Payload:  nil,
			Expected: []byte{0x04, 0x02, 0x00, 0x08, 0x00, 0x00, 0x00, 0x07},
		},
		{
			Version:  0x04,
			Type:     0x03,
			XID:      0xDEADBEEF,
			Payload:  []byte{1, 2, 3},
			Expected: []byte{0x04, 0x03, 0x00, 0x0B, 0xDE, 0xAD, 0xBE, 0xEF, 1, 2, 3},
		},
	}

	for i, v := range src {
		msg := NewMessage(v.Version, v.Type, v.XID)
		msg.SetPayload(v.Payload)
		packet, err := msg.MarshalBinary()
		if err != nil {
			t.Fatalf("#%v: unexpected error: %v", i, err)
		}
		if !bytes.Equal(packet, v.Expected) {
			t.Fatalf("#%v: unexpected packet: expected=%v, actual=%v", i, v.Expected, packet)
		}
	}
}

func TestMessageTooLarge(t *testing.T) {
	msg := NewMessage(0x04, 0x02, 1)
	msg.SetPayload(make([]byte, MaxMessageLength))
	if _, err := msg.MarshalBinary(); err != ErrMessageTooLarge {
		t.Fatalf("unexpected error: expected=%v, actual=%v", ErrMessageTooLarge, err)
	}
}

func TestMessageUnmarshal(t *testing.T) {
	src := []struct {
		Packet  []byte
		Err     error
		XID     uint32
		Payload []byte
	}{
		{
			Packet: []byte{0x04, 0x02, 0x00, 0x08, 0x00, 0x00, 0x00, 0x01},
			XID:    1,
		},
		{
			// Trailing bytes beyond the length field are ignored.
			Packet:  []byte{0x04, 0x02, 0x00, 0x09, 0x00, 0x00, 0x00, 0x02, 0xAA, 0xBB},
			XID:     2,
			Payload: []byte{0xAA},
		},
		{
			Packet: []byte{0x04, 0x02, 0x00},
			Err:    ErrInvalidPacketLength,
		},
		{
			Packet: []byte{0x04, 0x02, 0x00, 0x07, 0x00, 0x00, 0x00, 0x01},
			Err:    ErrInvalidPacketLength,
		},
		{
			Packet: []byte{0x04, 0x02, 0x00, 0x10, 0x00, 0x00, 0x00, 0x01},
			Err:    ErrInvalidPacketLength,
		},
	}

	for i, v := range src {
		msg := new(Message)
		err := msg.UnmarshalBinary(v.Packet)
		if err != v.Err {
			t.Fatalf("#%v: unexpected error: expected=%v, actual=%v", i, v.Err, err)
		}
		if err != nil {
			continue
		}
		if msg.TransactionID() != v.XID {
			t.Fatalf("#%v: unexpected xid: expected=%v, actual=%v", i, v.XID, msg.TransactionID())
		}
		if !bytes.Equal(msg.Payload(), v.Payload) {
			t.Fatalf("#%v: unexpected payload: expected=%v, actual=%v", i, v.Payload, msg.Payload())
		}
	}
}

func TestUnmarshalDoesNotAlias(t *testing.T) {
	packet := []byte{0x04, 0x02, 0x00, 0x09, 0x00, 0x00, 0x00, 0x01, 0xAA}
	echo := new(BaseEcho)
	if err := echo.UnmarshalBinary(packet); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	packet[8] = 0x00
	if echo.Data()[0] != 0xAA {
		t.Fatal("echo data aliases the source packet")
	}
}

func TestParseUnknownVersion(t *testing.T) {
	_, err := ParseMessage([]byte{0x7F, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x01})
	if err != ErrUnsupportedVersion {
		t.Fatalf("unexpected error: expected=%v, actual=%v", ErrUnsupportedVersion, err)
	}
	if _, err := ParseMessage([]byte{0x04}); err != ErrInvalidPacketLength {
		t.Fatalf("unexpected error: expected=%v, actual=%v", ErrInvalidPacketLength, err)
	}
}

func TestBaseAction(t *testing.T) {
	action := NewBaseAction()
	if ok, _ := action.Queue(); ok {
		t.Fatal("unexpected queue on a new action")
	}

	p1 := NewOutPort()
	p1.SetValue(3)
	p2 := NewOutPort()
	p2.SetController()
	action.SetOutPort(p1)
	action.SetOutPort(p2)
	action.SetOutPort(p1)
	action.SetQueue(5)

	ports := action.OutPort()
	if len(ports) != 2 {
		t.Fatalf("unexpected number of ports: expected=2, actual=%v", len(ports))
	}
	if !ports[0].IsPhysical() || ports[0].Value() != 3 {
		t.Fatalf("unexpected first port: %+v", ports[0])
	}
	if !ports[1].IsController() {
		t.Fatalf("unexpected second port: %+v", ports[1])
	}
	if ok, id := action.Queue(); !ok || id != 5 {
		t.Fatalf("unexpected queue: ok=%v, id=%v", ok, id)
	}
}

func TestEchoTimestamp(t *testing.T) {
	src := []struct {
		Data  []byte
		Msec  int64
		Valid bool
	}{
		{Data: []byte{0, 0, 0, 0, 0, 0, 0x05, 0xDC}, Msec: 1500, Valid: true},
		{Data: []byte{}, Msec: 0, Valid: false},
		{Data: []byte{1, 2, 3}, Msec: 0, Valid: false},
		{Data: make([]byte, 9), Msec: 0, Valid: false},
	}

	for i, v := range src {
		echo := new(BaseEcho)
		echo.SetData(v.Data)
		msec, ok := echo.Timestamp()
		if ok != v.Valid || msec != v.Msec {
			t.Fatalf("#%v: unexpected timestamp: expected=%v/%v, actual=%v/%v", i, v.Msec, v.Valid, msec, ok)
		}
	}

	echo := &BaseEcho{Message: NewMessage(0x04, 0x02, 3)}
	echo.SetTimestamp(1500)
	packet, err := echo.MarshalBinary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []byte{0x04, 0x02, 0x00, 0x10, 0x00, 0x00, 0x00, 0x03, 0, 0, 0, 0, 0, 0, 0x05, 0xDC}
	if !bytes.Equal(packet, expected) {
		t.Fatalf("unexpected packet: expected=%v, actual=%v", expected, packet)
	}
}
