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

func init() {
	openflow.RegisterParser(openflow.OF13_VERSION, ParseMessage)
}

func ParseMessage(data []byte) (openflow.Incoming, error) {
	if len(data) < openflow.HeaderLength {
		return nil, openflow.ErrInvalidPacketLength
	}

	var msg openflow.Incoming

	switch data[1] {
	case OFPT_HELLO:
		msg = NewHello(0)
	case OFPT_ERROR:
		msg = NewError(0)
	case OFPT_ECHO_REQUEST:
		msg = NewEchoRequest(0)
	case OFPT_ECHO_REPLY:
		msg = NewEchoReply(0)
	case OFPT_FEATURES_REQUEST:
		msg = NewFeaturesRequest(0)
	case OFPT_FEATURES_REPLY:
		msg = NewFeaturesReply(0)
	case OFPT_GET_CONFIG_REQUEST:
		msg = NewGetConfigRequest(0)
	case OFPT_GET_CONFIG_REPLY:
		msg = NewGetConfigReply(0)
	case OFPT_SET_CONFIG:
		msg = NewSetConfig(0)
	case OFPT_PACKET_IN:
		msg = NewPacketIn(0)
	case OFPT_PACKET_OUT:
		msg = NewPacketOut(0)
	case OFPT_BARRIER_REQUEST:
		msg = NewBarrierRequest(0)
	case OFPT_BARRIER_REPLY:
		msg = NewBarrierReply(0)
	case OFPT_MULTIPART_REQUEST, OFPT_MULTIPART_REPLY:
		if len(data) < openflow.HeaderLength+2 {
			return nil, openflow.ErrInvalidPacketLength
		}
		if binary.BigEndian.Uint16(data[8:10]) != OFPMP_DESC {
			return nil, openflow.ErrUnsupportedMessage
		}
		if data[1] == OFPT_MULTIPART_REQUEST {
			msg = NewDescRequest(0)
		} else {
			msg = NewDescReply(0)
		}
	default:
		return nil, openflow.ErrUnsupportedMessage
	}

	if err := msg.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	return msg, nil
}
