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

// Package device implements the simulated OpenFlow switch: it owns one
// datapath engine, its ports and its control connection.
package device

import (
	"fmt"
	"sync"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/superkkt/ofsim/bridge"
	"github.com/superkkt/ofsim/datapath"
	"github.com/superkkt/ofsim/engine"
	"github.com/superkkt/ofsim/ofbuf"
	"github.com/superkkt/ofsim/openflow"
	"github.com/superkkt/ofsim/simnet"
)

var (
	logger = logging.MustGetLogger("device")

	ErrClosedDevice = errors.New("already closed device")
	ErrNoController = errors.New("no controller connection")
)

type Config struct {
	ID       datapath.ID
	Registry *datapath.Registry
	Clock    *simnet.Clock
	// Dpctl relays control utility messages. It may be nil if Ping is never used.
	Dpctl bridge.Dpctl
	// Largest frame or control message the switch accepts.
	BodyRoom int
	// Headroom reserved in every buffer handed to the engine.
	HeadRoom   int
	NumBuffers int
	OnReply    func(openflow.Incoming)
}

func validateConfig(c Config) error {
	if c.Registry == nil {
		return errors.New("Config.Registry is essential parameter")
	}
	if c.Clock == nil {
		return errors.New("Config.Clock is essential parameter")
	}
	if c.BodyRoom <= 0 {
		return fmt.Errorf("invalid body room: %v", c.BodyRoom)
	}
	if c.HeadRoom < 0 {
		return fmt.Errorf("invalid head room: %v", c.HeadRoom)
	}
	if c.NumBuffers < 0 {
		return fmt.Errorf("invalid number of buffers: %v", c.NumBuffers)
	}

	return nil
}

type Switch struct {
	mutex    sync.RWMutex
	id       datapath.ID
	registry *datapath.Registry
	handle   datapath.Handle
	engine   *engine.Datapath
	bodyRoom int
	headRoom int
	ports    map[uint32]*Port
	hasDpctl bool
	endpoint *simnet.Endpoint
	remote   *datapath.Remote
	closed   bool
}

// New creates a switch and registers it under its datapath ID. A duplicated
// datapath ID is a configuration error.
func New(conf Config) (*Switch, error) {
	if err := validateConfig(conf); err != nil {
		return nil, err
	}

	sw := &Switch{
		id:       conf.ID,
		registry: conf.Registry,
		bodyRoom: conf.BodyRoom,
		headRoom: conf.HeadRoom,
		ports:    make(map[uint32]*Port),
		hasDpctl: conf.Dpctl != nil,
	}
	sw.engine = engine.New(engine.Config{
		ID:         conf.ID,
		Host:       bridge.NewHooks(conf.Registry, conf.Clock),
		Dpctl:      conf.Dpctl,
		NumBuffers: conf.NumBuffers,
		HeadRoom:   conf.HeadRoom,
		OnReply:    conf.OnReply,
	})

	handle, err := conf.Registry.Register(sw)
	if err != nil {
		return nil, errors.Wrap(err, "registering switch")
	}
	sw.handle = handle
	logger.Infof("created switch %v", conf.ID)

	return sw, nil
}

func (r *Switch) String() string {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	v := fmt.Sprintf("Switch DPID=%v, Connected=%v, Closed=%v\n", r.id, r.endpoint != nil, r.closed)
	for _, p := range r.ports {
		v += fmt.Sprintf("\t%v\n", p.String())
	}

	return v
}

func (r *Switch) DatapathID() datapath.ID {
	return r.id
}

func (r *Switch) Handle() datapath.Handle {
	return r.handle
}

func (r *Switch) Engine() *engine.Datapath {
	return r.engine
}

func (r *Switch) AddPort(num uint32, transmit TransmitFunc) error {
	// Write lock
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return ErrClosedDevice
	}
	if err := r.engine.AddPort(num); err != nil {
		return err
	}
	r.ports[num] = newPort(num, transmit)

	return nil
}

func (r *Switch) Port(num uint32) (*Port, bool) {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	p, ok := r.ports[num]
	return p, ok
}

// Connect attaches the switch to a controller through endpoint and starts the
// OpenFlow session.
func (r *Switch) Connect(endpoint *simnet.Endpoint, role datapath.Role, auxID uint8) error {
	if endpoint == nil {
		panic("Endpoint is nil")
	}

	// Write lock
	r.mutex.Lock()
	if r.closed {
		r.mutex.Unlock()
		return ErrClosedDevice
	}
	r.endpoint = endpoint
	r.remote = &datapath.Remote{Datapath: r.id, Role: role, AuxID: auxID}
	remote := r.remote
	r.mutex.Unlock()

	// Messages arriving after Close are dropped by the stale handle.
	handle := r.handle
	registry := r.registry
	endpoint.SetReceiver(func(pkt *simnet.Packet) {
		sw, err := registry.Get(handle)
		if err != nil {
			logger.Infof("dropping a control message for %v: %v", handle, err)
			return
		}
		sw.(*Switch).receiveFromController(pkt)
	})
	r.engine.Connect(remote)

	return nil
}

func (r *Switch) Remote() *datapath.Remote {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.remote
}

func (r *Switch) receiveFromController(pkt *simnet.Packet) {
	if pkt.Len() > r.bodyRoom {
		logger.Errorf("dropping an oversized control message on switch %v: length=%v, body room=%v", r.id, pkt.Len(), r.bodyRoom)
		return
	}
	r.engine.HandleControl(bridge.PacketToBuffer(pkt, r.bodyRoom, r.headRoom))
}

// SendToController sends buf on the control connection. The switch takes the
// ownership of buf even if it returns an error.
func (r *Switch) SendToController(buf *ofbuf.Buffer, remote *datapath.Remote) error {
	// Read lock
	r.mutex.RLock()
	closed, endpoint := r.closed, r.endpoint
	r.mutex.RUnlock()

	if closed {
		buf.Release()
		return ErrClosedDevice
	}
	if endpoint == nil {
		buf.Release()
		return ErrNoController
	}
	if remote != nil && remote.Datapath != r.id {
		buf.Release()
		return fmt.Errorf("remote %v does not belong to switch %v", remote, r.id)
	}

	if err := endpoint.Send(bridge.BufferToPacket(buf, true)); err != nil {
		return errors.Wrap(err, "sending to controller")
	}

	return nil
}

// SendToSwitchPort transmits buf on the port. Frames for unknown ports are dropped.
func (r *Switch) SendToSwitchPort(buf *ofbuf.Buffer, port, queue uint32) {
	p, ok := r.Port(port)
	if !ok {
		logger.Infof("dropping a frame for unknown port %v on switch %v", port, r.id)
		buf.Release()
		return
	}

	p.send(bridge.BufferToPacket(buf, true), queue)
}

// ReceiveFromPort hands a frame received on a switch port to the datapath.
func (r *Switch) ReceiveFromPort(port uint32, pkt *simnet.Packet) {
	if pkt == nil {
		panic("Packet is nil")
	}

	// Read lock
	r.mutex.RLock()
	closed := r.closed
	p, ok := r.ports[port]
	r.mutex.RUnlock()

	if closed {
		logger.Debugf("dropping %v: switch %v is closed", pkt, r.id)
		return
	}
	if !ok {
		logger.Infof("dropping %v: unknown port %v on switch %v", pkt, port, r.id)
		return
	}
	if pkt.Len() > r.bodyRoom {
		logger.Errorf("dropping an oversized frame on switch %v: length=%v, body room=%v", r.id, pkt.Len(), r.bodyRoom)
		return
	}
	p.received(pkt)
	r.engine.HandlePortInput(port, bridge.PacketToBuffer(pkt, r.bodyRoom, r.headRoom))
}

// Ping asks the datapath to send an ECHO_REQUEST through its control utility.
func (r *Switch) Ping() error {
	// Read lock
	r.mutex.RLock()
	closed := r.closed
	r.mutex.RUnlock()

	if closed {
		return ErrClosedDevice
	}
	if !r.hasDpctl {
		return errors.New("no control utility on this switch")
	}
	r.engine.Ping()

	return nil
}

// Close disconnects the switch, closes its control channel and removes it
// from the registry. Closing twice is allowed.
func (r *Switch) Close() error {
	// Write lock
	r.mutex.Lock()
	if r.closed {
		r.mutex.Unlock()
		return nil
	}
	r.closed = true
	endpoint := r.endpoint
	r.endpoint = nil
	r.remote = nil
	r.mutex.Unlock()

	r.registry.Unregister(r.id)
	r.engine.Disconnect()
	if endpoint != nil {
		endpoint.SetReceiver(nil)
		// The controller detaches its session when the channel goes down.
		endpoint.Channel().Close()
	}
	logger.Infof("closed switch %v", r.id)

	return nil
}
