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

type Action struct {
	*openflow.BaseAction
}

func NewAction() openflow.Action {
	return &Action{
		BaseAction: openflow.NewBaseAction(),
	}
}

func marshalOutPort(port openflow.OutPort) uint32 {
	switch {
	case port.IsTable():
		return OFPP_TABLE
	case port.IsFlood():
		return OFPP_FLOOD
	case port.IsAll():
		return OFPP_ALL
	case port.IsController():
		return OFPP_CONTROLLER
	case port.IsInPort():
		return OFPP_IN_PORT
	case port.IsNone():
		return OFPP_ANY
	default:
		return port.Value()
	}
}

func unmarshalOutPort(v uint32) openflow.OutPort {
	port := openflow.NewOutPort()
	switch v {
	case OFPP_TABLE:
		port.SetTable()
	case OFPP_FLOOD:
		port.SetFlood()
	case OFPP_ALL:
		port.SetAll()
	case OFPP_CONTROLLER:
		port.SetController()
	case OFPP_IN_PORT:
		port.SetInPort()
	case OFPP_ANY:
		port.SetNone()
	default:
		port.SetValue(v)
	}

	return port
}

func (r *Action) marshalQueue() []byte {
	ok, id := r.Queue()
	if !ok {
		return nil
	}

	v := make([]byte, 8)
	binary.BigEndian.PutUint16(v[0:2], OFPAT_SET_QUEUE)
	binary.BigEndian.PutUint16(v[2:4], 8)
	binary.BigEndian.PutUint32(v[4:8], id)

	return v
}

func (r *Action) marshalOutput() []byte {
	result := make([]byte, 0)
	for _, port := range r.OutPort() {
		v := make([]byte, 16)
		binary.BigEndian.PutUint16(v[0:2], OFPAT_OUTPUT)
		binary.BigEndian.PutUint16(v[2:4], 16)
		binary.BigEndian.PutUint32(v[4:8], marshalOutPort(port))
		// We don't support buffer ID and partial PACKET_IN
		binary.BigEndian.PutUint16(v[8:10], OFPCML_NO_BUFFER)
		// v[10:16] is padding
		result = append(result, v...)
	}

	return result
}

// MarshalBinary encodes the set-queue action, if any, followed by the output actions.
func (r *Action) MarshalBinary() ([]byte, error) {
	result := make([]byte, 0)
	result = append(result, r.marshalQueue()...)
	result = append(result, r.marshalOutput()...)

	return result, nil
}

func (r *Action) UnmarshalBinary(data []byte) error {
	r.BaseAction = openflow.NewBaseAction()

	buf := data
	for len(buf) > 0 {
		if len(buf) < 4 {
			return openflow.ErrInvalidPacketLength
		}
		length := int(binary.BigEndian.Uint16(buf[2:4]))
		if length < 8 || length%8 != 0 || len(buf) < length {
			return openflow.ErrInvalidPacketLength
		}

		switch binary.BigEndian.Uint16(buf[0:2]) {
		case OFPAT_OUTPUT:
			if length < 16 {
				return openflow.ErrInvalidPacketLength
			}
			r.SetOutPort(unmarshalOutPort(binary.BigEndian.Uint32(buf[4:8])))
		case OFPAT_SET_QUEUE:
			r.SetQueue(binary.BigEndian.Uint32(buf[4:8]))
		default:
			return openflow.ErrUnsupportedAction
		}
		buf = buf[length:]
	}

	return nil
}
