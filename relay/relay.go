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

// Package relay turns the engine's blocking control utility calls into
// fire-and-forget sends on the simulated control channel.
package relay

import (
	"io"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/op/go-logging"
	"gopkg.in/yaml.v3"

	"github.com/superkkt/ofsim/bridge"
	"github.com/superkkt/ofsim/datapath"
	"github.com/superkkt/ofsim/openflow"
	"github.com/superkkt/ofsim/openflow/of13"
	"github.com/superkkt/ofsim/simnet"
)

var (
	logger = logging.MustGetLogger("relay")
)

var _ bridge.Dpctl = (*Relay)(nil)

// Record is the printed form of one relayed message.
type Record struct {
	Time     float64 `yaml:"time"`
	Datapath string  `yaml:"datapath"`
	Role     string  `yaml:"role"`
	AuxID    uint8   `yaml:"aux_id"`
	Type     string  `yaml:"type"`
	XID      uint32  `yaml:"xid"`
	Length   int     `yaml:"length"`
}

type Relay struct {
	registry *datapath.Registry
	clock    *simnet.Clock
	mutex    sync.Mutex
	out      io.Writer
}

// New returns a relay that resolves switches in registry. Each relayed message
// is printed to out as a YAML document; a nil out disables printing.
func New(registry *datapath.Registry, clock *simnet.Clock, out io.Writer) *Relay {
	if registry == nil {
		panic("Registry is nil")
	}
	if clock == nil {
		panic("Clock is nil")
	}

	return &Relay{
		registry: registry,
		clock:    clock,
		out:      out,
	}
}

// SendAndPrint packs msg with transaction ID 0 and hands it to the switch
// behind conn. It returns as soon as the message is queued. Failures are logged.
func (r *Relay) SendAndPrint(conn *datapath.Remote, msg openflow.Outgoing) {
	if conn == nil {
		panic("Remote is nil")
	}
	if msg == nil {
		panic("Message is nil")
	}

	const xid = 0
	buf := bridge.MessageToBuffer(msg, xid)
	if buf.Len() == 0 {
		// MessageToBuffer already logged the packing error.
		buf.Release()
		return
	}
	r.print(conn, msg, xid, buf.Len())

	sw := r.registry.Resolve(conn.Datapath)
	if err := sw.SendToController(buf, conn); err != nil {
		logger.Errorf("failed to relay %v to the controller of %v: %v", of13.TypeName(msg.Type()), conn, err)
		return
	}
}

// TransactAndPrint sends req exactly like SendAndPrint. The simulated transport
// cannot block, so *reply is never written. The reply arrives later through
// the inbound message path of the connection.
func (r *Relay) TransactAndPrint(conn *datapath.Remote, req openflow.Outgoing, reply *openflow.Incoming) {
	r.SendAndPrint(conn, req)
}

func (r *Relay) print(conn *datapath.Remote, msg openflow.Outgoing, xid uint32, length int) {
	if logger.IsEnabledFor(logging.DEBUG) {
		logger.Debugf("relaying a message to the controller of %v: %v", conn, spew.Sdump(msg))
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.out == nil {
		return
	}

	doc, err := yaml.Marshal(&Record{
		Time:     r.clock.Seconds(),
		Datapath: conn.Datapath.String(),
		Role:     conn.Role.String(),
		AuxID:    conn.AuxID,
		Type:     of13.TypeName(msg.Type()),
		XID:      xid,
		Length:   length,
	})
	if err != nil {
		logger.Errorf("failed to render a relay record: %v", err)
		return
	}
	if _, err := r.out.Write(append([]byte("---\n"), doc...)); err != nil {
		logger.Errorf("failed to print a relay record: %v", err)
	}
}
