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
	"strings"

	"github.com/superkkt/ofsim/openflow"
)

const descBodyLength = 4*DESC_STR_LEN + SERIAL_NUM_LEN

type DescRequest struct {
	openflow.Message
}

func NewDescRequest(xid uint32) openflow.DescRequest {
	return &DescRequest{
		Message: openflow.NewMessage(openflow.OF13_VERSION, OFPT_MULTIPART_REQUEST, xid),
	}
}

func (r *DescRequest) MarshalBinary() ([]byte, error) {
	v := make([]byte, 8)
	// Multipart description request
	binary.BigEndian.PutUint16(v[0:2], OFPMP_DESC)
	// No flags and body
	r.SetPayload(v)

	return r.Message.MarshalBinary()
}

func (r *DescRequest) UnmarshalBinary(data []byte) error {
	if err := r.Message.UnmarshalBinary(data); err != nil {
		return err
	}

	payload := r.Payload()
	if len(payload) < 8 {
		return openflow.ErrInvalidPacketLength
	}
	if binary.BigEndian.Uint16(payload[0:2]) != OFPMP_DESC {
		return openflow.ErrUnsupportedMessage
	}

	return nil
}

type DescReply struct {
	openflow.Message
	manufacturer string
	hardware     string
	software     string
	serial       string
	description  string
}

func NewDescReply(xid uint32) openflow.DescReply {
	return &DescReply{
		Message: openflow.NewMessage(openflow.OF13_VERSION, OFPT_MULTIPART_REPLY, xid),
	}
}

func (r *DescReply) Manufacturer() string {
	return r.manufacturer
}

func (r *DescReply) SetManufacturer(v string) {
	r.manufacturer = v
}

func (r *DescReply) Hardware() string {
	return r.hardware
}

func (r *DescReply) SetHardware(v string) {
	r.hardware = v
}

func (r *DescReply) Software() string {
	return r.software
}

func (r *DescReply) SetSoftware(v string) {
	r.software = v
}

func (r *DescReply) Serial() string {
	return r.serial
}

func (r *DescReply) SetSerial(v string) {
	r.serial = v
}

func (r *DescReply) Description() string {
	return r.description
}

func (r *DescReply) SetDescription(v string) {
	r.description = v
}

// putString writes s into a fixed-size NUL-terminated field.
func putString(dst []byte, s string) {
	if len(s) > len(dst)-1 {
		s = s[:len(dst)-1]
	}
	copy(dst, s)
}

func getString(src []byte) string {
	return strings.TrimRight(string(src), "\x00")
}

func (r *DescReply) MarshalBinary() ([]byte, error) {
	v := make([]byte, 8+descBodyLength)
	binary.BigEndian.PutUint16(v[0:2], OFPMP_DESC)
	// No more replies follow, so flags and padding are zero.
	putString(v[8:264], r.manufacturer)
	putString(v[264:520], r.hardware)
	putString(v[520:776], r.software)
	putString(v[776:808], r.serial)
	putString(v[808:1064], r.description)
	r.SetPayload(v)

	return r.Message.MarshalBinary()
}

func (r *DescReply) UnmarshalBinary(data []byte) error {
	if err := r.Message.UnmarshalBinary(data); err != nil {
		return err
	}

	payload := r.Payload()
	if len(payload) < 8+descBodyLength {
		return openflow.ErrInvalidPacketLength
	}
	if binary.BigEndian.Uint16(payload[0:2]) != OFPMP_DESC {
		return openflow.ErrUnsupportedMessage
	}
	r.manufacturer = getString(payload[8:264])
	r.hardware = getString(payload[264:520])
	r.software = getString(payload[520:776])
	r.serial = getString(payload[776:808])
	r.description = getString(payload[808:1064])

	return nil
}
