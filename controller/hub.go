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
	"github.com/superkkt/ofsim/openflow"
	"github.com/superkkt/ofsim/openflow/of13"
)

// Hub floods every PACKET_IN back out of the switch it came from.
type Hub struct {
	BaseHandler
}

func (r *Hub) OnPacketIn(s *Session, msg openflow.PacketIn) error {
	logger.Debugf("PACKET_IN (port=%v, bufferID=%v, len=%v) on %v", msg.InPort(), msg.BufferID(), msg.Length(), s)

	flood := openflow.NewOutPort()
	flood.SetFlood()
	action := of13.NewAction()
	action.SetOutPort(flood)
	inPort := openflow.NewInPort()
	inPort.SetValue(msg.InPort())

	out := of13.NewPacketOut(0)
	out.SetInPort(inPort)
	out.SetAction(action)
	out.SetBufferID(msg.BufferID())
	// A buffered frame is sent by the switch itself.
	if msg.BufferID() == of13.OFP_NO_BUFFER {
		out.SetData(msg.Data())
	}

	return s.Send(out, 0)
}
