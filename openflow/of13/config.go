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

type Config struct {
	openflow.Message
	flags       openflow.ConfigFlag
	missSendLen uint16
}

func (r *Config) Flags() openflow.ConfigFlag {
	return r.flags
}

func (r *Config) SetFlags(flags openflow.ConfigFlag) {
	r.flags = flags
}

func (r *Config) MissSendLength() uint16 {
	return r.missSendLen
}

func (r *Config) SetMissSendLength(length uint16) {
	r.missSendLen = length
}

func (r *Config) MarshalBinary() ([]byte, error) {
	v := make([]byte, 4)
	binary.BigEndian.PutUint16(v[0:2], uint16(r.flags))
	binary.BigEndian.PutUint16(v[2:4], r.missSendLen)
	r.SetPayload(v)

	return r.Message.MarshalBinary()
}

func (r *Config) UnmarshalBinary(data []byte) error {
	if err := r.Message.UnmarshalBinary(data); err != nil {
		return err
	}

	payload := r.Payload()
	if len(payload) < 4 {
		return openflow.ErrInvalidPacketLength
	}
	r.flags = openflow.ConfigFlag(binary.BigEndian.Uint16(payload[0:2]))
	r.missSendLen = binary.BigEndian.Uint16(payload[2:4])

	return nil
}

type SetConfig struct {
	Config
}

func NewSetConfig(xid uint32) openflow.SetConfig {
	return &SetConfig{
		Config{
			Message:     openflow.NewMessage(openflow.OF13_VERSION, OFPT_SET_CONFIG, xid),
			flags:       OFPC_FRAG_NORMAL,
			missSendLen: OFP_DEFAULT_MISS_SEND_LEN,
		},
	}
}

type GetConfigRequest struct {
	openflow.Message
}

func NewGetConfigRequest(xid uint32) openflow.GetConfigRequest {
	return &GetConfigRequest{
		Message: openflow.NewMessage(openflow.OF13_VERSION, OFPT_GET_CONFIG_REQUEST, xid),
	}
}

type GetConfigReply struct {
	Config
}

func NewGetConfigReply(xid uint32) openflow.GetConfigReply {
	return &GetConfigReply{
		Config{
			Message:     openflow.NewMessage(openflow.OF13_VERSION, OFPT_GET_CONFIG_REPLY, xid),
			flags:       OFPC_FRAG_NORMAL,
			missSendLen: OFP_DEFAULT_MISS_SEND_LEN,
		},
	}
}
