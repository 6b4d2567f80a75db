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
	"encoding"
	"encoding/binary"
)

// EchoTimestampLength is the length of the timestamp payload carried by the
// keepalive and ping ECHO_REQUESTs of this simulator.
const EchoTimestampLength = 8

// Echo is the common body of ECHO_REQUEST and ECHO_REPLY. The payload is
// opaque to OpenFlow and a reply echoes it back unchanged.
type Echo interface {
	Header
	Data() []byte
	SetData(data []byte)
	// Timestamp decodes a payload set by SetTimestamp. ok is false for any
	// other payload.
	Timestamp() (msec int64, ok bool)
	SetTimestamp(msec int64)
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type EchoRequest interface {
	Echo
}

type EchoReply interface {
	Echo
}

type BaseEcho struct {
	Message
	data []byte
}

func (r *BaseEcho) Data() []byte {
	return r.data
}

func (r *BaseEcho) SetData(data []byte) {
	if data == nil {
		panic("data is nil")
	}
	r.data = data
}

// SetTimestamp replaces the payload with msec in network byte order.
func (r *BaseEcho) SetTimestamp(msec int64) {
	data := make([]byte, EchoTimestampLength)
	binary.BigEndian.PutUint64(data, uint64(msec))
	r.data = data
}

func (r *BaseEcho) Timestamp() (msec int64, ok bool) {
	if len(r.data) != EchoTimestampLength {
		return 0, false
	}

	return int64(binary.BigEndian.Uint64(r.data)), true
}

func (r *BaseEcho) MarshalBinary() ([]byte, error) {
	r.SetPayload(r.data)
	return r.Message.MarshalBinary()
}

// UnmarshalBinary keeps the payload after the header as the echo data.
func (r *BaseEcho) UnmarshalBinary(data []byte) error {
	if err := r.Message.UnmarshalBinary(data); err != nil {
		return err
	}
	r.data = r.Payload()

	return nil
}
