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
)

// Handler receives the messages a controller does not answer by itself. An
// error returned from a handler is logged.
type Handler interface {
	OnHello(s *Session, msg openflow.Hello) error
	OnError(s *Session, msg openflow.Error) error
	OnFeaturesReply(s *Session, msg openflow.FeaturesReply) error
	OnEchoReply(s *Session, msg openflow.EchoReply) error
	OnBarrierReply(s *Session, msg openflow.BarrierReply) error
	OnGetConfigReply(s *Session, msg openflow.GetConfigReply) error
	OnDescReply(s *Session, msg openflow.DescReply) error
	OnPacketIn(s *Session, msg openflow.PacketIn) error
}

// BaseHandler ignores every message. Embed it to implement only some of the callbacks.
type BaseHandler struct{}

func (r *BaseHandler) OnHello(s *Session, msg openflow.Hello) error {
	return nil
}

func (r *BaseHandler) OnError(s *Session, msg openflow.Error) error {
	return nil
}

func (r *BaseHandler) OnFeaturesReply(s *Session, msg openflow.FeaturesReply) error {
	return nil
}

func (r *BaseHandler) OnEchoReply(s *Session, msg openflow.EchoReply) error {
	return nil
}

func (r *BaseHandler) OnBarrierReply(s *Session, msg openflow.BarrierReply) error {
	return nil
}

func (r *BaseHandler) OnGetConfigReply(s *Session, msg openflow.GetConfigReply) error {
	return nil
}

func (r *BaseHandler) OnDescReply(s *Session, msg openflow.DescReply) error {
	return nil
}

func (r *BaseHandler) OnPacketIn(s *Session, msg openflow.PacketIn) error {
	return nil
}
