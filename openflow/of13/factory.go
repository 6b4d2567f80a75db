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
	"sync/atomic"

	"github.com/superkkt/ofsim/openflow"
)

// Concrete factory
type Factory struct {
	xid uint32
}

func NewFactory() openflow.Factory {
	return &Factory{}
}

func (r *Factory) getTransactionID() uint32 {
	// Transaction ID will be started from 1, not 0.
	return atomic.AddUint32(&r.xid, 1)
}

func (r *Factory) NewAction() (openflow.Action, error) {
	return NewAction(), nil
}

func (r *Factory) NewBarrierRequest() (openflow.BarrierRequest, error) {
	return NewBarrierRequest(r.getTransactionID()), nil
}

func (r *Factory) NewBarrierReply() (openflow.BarrierReply, error) {
	return NewBarrierReply(r.getTransactionID()), nil
}

func (r *Factory) NewDescRequest() (openflow.DescRequest, error) {
	return NewDescRequest(r.getTransactionID()), nil
}

func (r *Factory) NewDescReply() (openflow.DescReply, error) {
	return NewDescReply(r.getTransactionID()), nil
}

func (r *Factory) NewEchoRequest() (openflow.EchoRequest, error) {
	return NewEchoRequest(r.getTransactionID()), nil
}

func (r *Factory) NewEchoReply() (openflow.EchoReply, error) {
	return NewEchoReply(r.getTransactionID()), nil
}

func (r *Factory) NewError() (openflow.Error, error) {
	return NewError(r.getTransactionID()), nil
}

func (r *Factory) NewFeaturesRequest() (openflow.FeaturesRequest, error) {
	return NewFeaturesRequest(r.getTransactionID()), nil
}

func (r *Factory) NewFeaturesReply() (openflow.FeaturesReply, error) {
	return NewFeaturesReply(r.getTransactionID()), nil
}

func (r *Factory) NewGetConfigRequest() (openflow.GetConfigRequest, error) {
	return NewGetConfigRequest(r.getTransactionID()), nil
}

func (r *Factory) NewGetConfigReply() (openflow.GetConfigReply, error) {
	return NewGetConfigReply(r.getTransactionID()), nil
}

func (r *Factory) NewHello() (openflow.Hello, error) {
	return NewHello(r.getTransactionID()), nil
}

func (r *Factory) NewPacketIn() (openflow.PacketIn, error) {
	return NewPacketIn(r.getTransactionID()), nil
}

func (r *Factory) NewPacketOut() (openflow.PacketOut, error) {
	return NewPacketOut(r.getTransactionID()), nil
}

func (r *Factory) NewSetConfig() (openflow.SetConfig, error) {
	return NewSetConfig(r.getTransactionID()), nil
}
