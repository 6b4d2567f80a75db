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
)

type PacketInReason uint8

const (
	ReasonNoMatch PacketInReason = iota
	ReasonAction
	ReasonInvalidTTL
)

type PacketIn interface {
	Header
	BufferID() uint32
	SetBufferID(id uint32)
	// Length returns the full length of the frame, which may exceed len(Data()).
	Length() uint16
	SetLength(length uint16)
	InPort() uint32
	SetInPort(port uint32)
	TableID() uint8
	SetTableID(id uint8)
	Reason() PacketInReason
	SetReason(reason PacketInReason)
	Cookie() uint64
	SetCookie(cookie uint64)
	Data() []byte
	SetData(data []byte)
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}
