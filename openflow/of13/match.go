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

// OXM header of the in_port field: class OPENFLOW_BASIC, field IN_PORT, no mask, 4 bytes.
const oxmInPort = OFPXMC_OPENFLOW_BASIC<<16 | OFPXMT_OFB_IN_PORT<<9 | 4

// marshalInPortMatch encodes an OXM match that carries the input port only,
// padded to a multiple of 8 bytes.
func marshalInPortMatch(port uint32) []byte {
	v := make([]byte, 16)
	binary.BigEndian.PutUint16(v[0:2], OFPMT_OXM)
	// Length excludes padding.
	binary.BigEndian.PutUint16(v[2:4], 12)
	binary.BigEndian.PutUint32(v[4:8], oxmInPort)
	binary.BigEndian.PutUint32(v[8:12], port)

	return v
}

// unmarshalInPortMatch decodes an OXM match and returns the input port it
// carries, along with the padded length of the match structure.
func unmarshalInPortMatch(data []byte) (port uint32, padded int, err error) {
	if len(data) < 4 {
		return 0, 0, openflow.ErrInvalidPacketLength
	}
	if binary.BigEndian.Uint16(data[0:2]) != OFPMT_OXM {
		return 0, 0, openflow.ErrUnsupportedMessage
	}
	length := int(binary.BigEndian.Uint16(data[2:4]))
	padded = (length + 7) / 8 * 8
	if length < 4 || len(data) < padded {
		return 0, 0, openflow.ErrInvalidPacketLength
	}

	oxm := data[4:length]
	for len(oxm) >= 4 {
		header := binary.BigEndian.Uint32(oxm[0:4])
		n := int(header & 0xFF)
		if len(oxm) < 4+n {
			return 0, 0, openflow.ErrInvalidPacketLength
		}
		if header == oxmInPort {
			port = binary.BigEndian.Uint32(oxm[4:8])
		}
		oxm = oxm[4+n:]
	}

	return port, padded, nil
}
