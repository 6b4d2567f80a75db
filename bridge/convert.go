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

// Package bridge connects the OpenFlow datapath engine to the simulator. It
// converts between simulated packets, wire buffers and parsed messages, and
// provides the host functions the engine calls to reach the outside world.
//
// Every conversion copies. No representation ever shares memory with another.
package bridge

import (
	"fmt"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/superkkt/ofsim/ofbuf"
	"github.com/superkkt/ofsim/openflow"
	"github.com/superkkt/ofsim/openflow/of13"
	"github.com/superkkt/ofsim/simnet"
)

var (
	logger = logging.MustGetLogger("bridge")
)

// InternalPacket is a packet held inside the engine together with its buffer.
type InternalPacket interface {
	Buffer() *ofbuf.Buffer
}

// PacketToBuffer copies pkt into a new buffer with bodyRoom bytes of body and
// headRoom bytes reserved in front. A packet longer than bodyRoom is a
// caller bug and panics.
func PacketToBuffer(pkt *simnet.Packet, bodyRoom, headRoom int) *ofbuf.Buffer {
	if pkt == nil {
		panic("Packet is nil")
	}
	if pkt.Len() > bodyRoom {
		panic(fmt.Sprintf("packet length %v exceeds the body room %v", pkt.Len(), bodyRoom))
	}

	buf := ofbuf.NewWithHeadroom(bodyRoom, headRoom)
	pkt.CopyData(buf.PutUninit(pkt.Len()))

	return buf
}

// MessageToBuffer packs msg with transaction ID xid. The transaction ID of msg
// itself is left untouched. On a packing failure it logs the error and returns
// an empty buffer, so callers must check Len().
func MessageToBuffer(msg openflow.Outgoing, xid uint32) *ofbuf.Buffer {
	if msg == nil {
		panic("Message is nil")
	}

	prev := msg.TransactionID()
	msg.SetTransactionID(xid)
	data, err := msg.MarshalBinary()
	msg.SetTransactionID(prev)
	if err != nil {
		logger.Errorf("failed to pack %v message (xid=%v): %v", of13.TypeName(msg.Type()), xid, err)
		return ofbuf.New(0)
	}

	return ofbuf.Use(data)
}

// BufferToPacket copies buf into a new packet. If consume is true the buffer
// is released, otherwise the caller still owns it.
func BufferToPacket(buf *ofbuf.Buffer, consume bool) *simnet.Packet {
	if buf == nil {
		panic("Buffer is nil")
	}

	pkt := simnet.NewPacket(buf.Data())
	if consume {
		buf.Release()
	}

	return pkt
}

// MessageToPacket packs msg with transaction ID xid into a new packet.
func MessageToPacket(msg openflow.Outgoing, xid uint32) *simnet.Packet {
	return BufferToPacket(MessageToBuffer(msg, xid), true)
}

// InternalPacketToPacket copies the buffer of an engine packet into a new
// packet. The engine keeps its packet.
func InternalPacketToPacket(p InternalPacket) *simnet.Packet {
	if p == nil {
		panic("InternalPacket is nil")
	}

	return BufferToPacket(p.Buffer(), false)
}

// PacketToMessage unpacks a simulated packet holding one OpenFlow message.
func PacketToMessage(pkt *simnet.Packet) (openflow.Incoming, error) {
	if pkt == nil {
		panic("Packet is nil")
	}

	msg, err := openflow.ParseMessage(pkt.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "unpacking %v", pkt)
	}

	return msg, nil
}
