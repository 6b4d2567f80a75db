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

// Package simnet holds the pieces of the discrete-event simulator the
// datapath bridge talks to: the simulated packet, the virtual clock and the
// control channel between a switch and its controller.
package simnet

import (
	"fmt"
	"sync/atomic"
)

var lastPacketUID uint64

// Packet is an opaque byte container owned by the simulator. Its bytes never
// alias any other buffer.
type Packet struct {
	uid  uint64
	data []byte
}

// NewPacket returns a packet holding a copy of data.
func NewPacket(data []byte) *Packet {
	v := make([]byte, len(data))
	copy(v, data)

	return &Packet{
		uid:  atomic.AddUint64(&lastPacketUID, 1),
		data: v,
	}
}

// UID returns the simulator-wide unique packet identifier.
func (r *Packet) UID() uint64 {
	return r.uid
}

func (r *Packet) Len() int {
	return len(r.data)
}

// CopyData copies the packet bytes into dst and returns the number of bytes copied.
func (r *Packet) CopyData(dst []byte) int {
	return copy(dst, r.data)
}

// Bytes returns a copy of the packet bytes.
func (r *Packet) Bytes() []byte {
	v := make([]byte, len(r.data))
	copy(v, r.data)

	return v
}

func (r *Packet) String() string {
	return fmt.Sprintf("Packet(uid=%v, length=%v)", r.uid, len(r.data))
}
