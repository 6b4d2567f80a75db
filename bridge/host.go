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

package bridge

import (
	"github.com/pkg/errors"

	"github.com/superkkt/ofsim/datapath"
	"github.com/superkkt/ofsim/ofbuf"
	"github.com/superkkt/ofsim/openflow"
	"github.com/superkkt/ofsim/simnet"
)

// Host is everything the datapath engine needs from its environment. Buffers
// passed to Host are owned by Host from then on.
type Host interface {
	SendBufferToRemote(buf *ofbuf.Buffer, remote *datapath.Remote) error
	PortsOutput(dp datapath.ID, buf *ofbuf.Buffer, outPort, queueID uint32)
	// TimeNow returns the current time in whole seconds.
	TimeNow() int64
	// TimeMsec returns the current time in milliseconds.
	TimeMsec() int64
}

// Dpctl sends control utility messages on behalf of the engine. Neither
// operation waits for a reply: replies come back through the connection's
// inbound message path.
type Dpctl interface {
	SendAndPrint(conn *datapath.Remote, msg openflow.Outgoing)
	// TransactAndPrint never sets *reply.
	TransactAndPrint(conn *datapath.Remote, req openflow.Outgoing, reply *openflow.Incoming)
}

// Hooks implements Host on top of a datapath registry and a virtual clock.
type Hooks struct {
	registry *datapath.Registry
	clock    *simnet.Clock
}

func NewHooks(registry *datapath.Registry, clock *simnet.Clock) *Hooks {
	if registry == nil {
		panic("Registry is nil")
	}
	if clock == nil {
		panic("Clock is nil")
	}

	return &Hooks{
		registry: registry,
		clock:    clock,
	}
}

func (r *Hooks) SendBufferToRemote(buf *ofbuf.Buffer, remote *datapath.Remote) error {
	if remote == nil {
		panic("Remote is nil")
	}

	sw := r.registry.Resolve(remote.Datapath)
	if err := sw.SendToController(buf, remote); err != nil {
		logger.Warningf("failed to send a message to the controller of %v: %v", remote, err)
		return errors.Wrap(err, "sending to controller")
	}

	return nil
}

func (r *Hooks) PortsOutput(dp datapath.ID, buf *ofbuf.Buffer, outPort, queueID uint32) {
	r.registry.Resolve(dp).SendToSwitchPort(buf, outPort, queueID)
}

func (r *Hooks) TimeNow() int64 {
	return r.clock.WholeSeconds()
}

func (r *Hooks) TimeMsec() int64 {
	return r.clock.Milliseconds()
}
