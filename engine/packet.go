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
	"fmt"

	"github.com/superkkt/ofsim/ofbuf"
)

// Packet is a frame held by the engine while it is being processed or
// waiting in the buffer pool.
type Packet struct {
	InPort uint32
	buf    *ofbuf.Buffer
}

func NewPacket(inPort uint32, buf *ofbuf.Buffer) *Packet {
	if buf == nil {
		panic("Buffer is nil")
	}

	return &Packet{
		InPort: inPort,
		buf:    buf,
	}
}

// Buffer returns the frame buffer, which stays owned by the packet.
func (r *Packet) Buffer() *ofbuf.Buffer {
	return r.buf
}

func (r *Packet) Release() {
	r.buf.Release()
}

func (r *Packet) String() string {
	return fmt.Sprintf("Packet(in_port=%v, %v)", r.InPort, r.buf)
}
