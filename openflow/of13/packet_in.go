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

package of13

import (
	"encoding/binary"

	"github.com/superkkt/ofsim/openflow"
)

type PacketIn struct {
	openflow.Message
	bufferID uint32
	length   uint16
	inPort   uint32
	tableID  uint8
	reason   openflow.PacketInReason
	cookie   uint64
	data     []byte
}

func NewPacketIn(xid uint32) openflow.PacketIn {
	return &PacketIn{
		Message:  openflow.NewMessage(openflow.OF13_VERSION, OFPT_PACKET_IN, xid),
		bufferID: OFP_NO_BUFFER,
		cookie:   0xffffffffffffffff,
	}
}

func (r *PacketIn) BufferID() uint32 {
	return r.bufferID
}

func (r *PacketIn) SetBufferID(id uint32) {
	r.bufferID = id
}

func (r *PacketIn) Length() uint16 {
	return r.length
}

func (r *PacketIn) SetLength(length uint16) {
	r.length = length
}

func (r *PacketIn) InPort() uint32 {
	return r.inPort
}

func (r *PacketIn) SetInPort(port uint32) {
	r.inPort = port
}

func (r *PacketIn) TableID() uint8 {
	return r.tableID
}

func (r *PacketIn) SetTableID(id uint8) {
	r.tableID = id
}

func (r *PacketIn) Reason() openflow.PacketInReason {
	return r.reason
}

func (r *PacketIn) SetReason(reason openflow.PacketInReason) {
	r.reason = reason
}

func (r *PacketIn) Cookie() uint64 {
	return r.cookie
}

func (r *PacketIn) SetCookie(cookie uint64) {
	r.cookie = cookie
}

func (r *PacketIn) Data() []byte {
	return r.data
}

func (r *PacketIn) SetData(data []byte) {
	r.data = data
}

func (r *PacketIn) MarshalBinary() ([]byte, error) {
	v := make([]byte, 16)
	binary.BigEndian.PutUint32(v[0:4], r.bufferID)
	binary.BigEndian.PutUint16(v[4:6], r.length)
	v[6] = uint8(r.reason)
	v[7] = r.tableID
	binary.BigEndian.PutUint64(v[8:16], r.cookie)
	v = append(v, marshalInPortMatch(r.inPort)...)
	// 2 bytes padding before the frame
	v = append(v, 0, 0)
	v = append(v, r.data...)
	r.SetPayload(v)

	return r.Message.MarshalBinary()
}

func (r *PacketIn) UnmarshalBinary(data []byte) error {
	if err := r.Message.UnmarshalBinary(data); err != nil {
		return err
	}

	payload := r.Payload()
	if len(payload) < 24 {
		return openflow.ErrInvalidPacketLength
	}
	r.bufferID = binary.BigEndian.Uint32(payload[0:4])
	r.length = binary.BigEndian.Uint16(payload[4:6])
	r.reason = openflow.PacketInReason(payload[6])
	r.tableID = payload[7]
	r.cookie = binary.BigEndian.Uint64(payload[8:16])

	port, matchLength, err := unmarshalInPortMatch(payload[16:])
	if err != nil {
		return err
	}
	r.inPort = port

	dataOffset := 16 + matchLength + 2 // +2 is padding
	r.data = nil
	if len(payload) > dataOffset {
		r.data = payload[dataOffset:]
	}

	return nil
}
