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

// Package simulation runs simulated switches and a controller on one
// discrete-event manager.
package simulation

import (
	"fmt"
	"io"
	"sync"

	"github.com/iti/evt/evtm"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/superkkt/ofsim/config"
	"github.com/superkkt/ofsim/controller"
	"github.com/superkkt/ofsim/datapath"
	"github.com/superkkt/ofsim/device"
	"github.com/superkkt/ofsim/openflow"
	"github.com/superkkt/ofsim/openflow/of13"
	"github.com/superkkt/ofsim/relay"
	"github.com/superkkt/ofsim/simnet"
)

var logger = logging.MustGetLogger("simulation")

// EdgeReceiver receives every frame sent out of a switch port.
type EdgeReceiver func(dpid datapath.ID, port uint32, pkt *simnet.Packet)

type portKey struct {
	dpid datapath.ID
	port uint32
}

type Network struct {
	conf       *config.Config
	mgr        *evtm.EventManager
	clock      *simnet.Clock
	registry   *datapath.Registry
	relay      *relay.Relay
	controller *controller.Controller
	logBackend logging.LeveledBackend

	mutex    sync.Mutex
	switches map[datapath.ID]*device.Switch
	replies  map[datapath.ID]int
	edge     EdgeReceiver
}

// New creates an empty network and installs the logging backend selected by
// conf. Relayed control utility messages are printed to out when relay.print
// is enabled.
func New(conf *config.Config, handler controller.Handler, out io.Writer) (*Network, error) {
	if conf == nil {
		panic("Config is nil")
	}
	if !conf.Relay.Print {
		out = nil
	}
	backend, err := initLog(conf)
	if err != nil {
		return nil, err
	}

	mgr := evtm.New()
	clock := simnet.NewClock(mgr)
	registry := datapath.NewRegistry()
	ctrl, err := controller.New(controller.Config{
		Clock:        clock,
		Handler:      handler,
		PendingSize:  conf.Controller.PendingSize,
		EchoInterval: conf.Controller.EchoInterval,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating the controller")
	}

	return &Network{
		conf:       conf,
		mgr:        mgr,
		clock:      clock,
		registry:   registry,
		relay:      relay.New(registry, clock, out),
		controller: ctrl,
		logBackend: backend,
		switches:   make(map[datapath.ID]*device.Switch),
		replies:    make(map[datapath.ID]int),
	}, nil
}

func (r *Network) Clock() *simnet.Clock {
	return r.clock
}

func (r *Network) Controller() *controller.Controller {
	return r.controller
}

func (r *Network) SetEdgeReceiver(f EdgeReceiver) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.edge = f
}

// AddSwitch creates a switch with ports numbered from 1 to numPorts and
// connects it to the controller.
func (r *Network) AddSwitch(dpid datapath.ID, numPorts int) (*device.Switch, error) {
	if numPorts < 0 || uint32(numPorts) > of13.OFPP_MAX {
		return nil, fmt.Errorf("invalid number of ports: %v", numPorts)
	}

	sw, err := device.New(device.Config{
		ID:         dpid,
		Registry:   r.registry,
		Clock:      r.clock,
		Dpctl:      r.relay,
		BodyRoom:   r.conf.Buffer.BodyRoom,
		HeadRoom:   r.conf.Buffer.HeadRoom,
		NumBuffers: r.conf.Buffer.NumBuffers,
		OnReply: func(msg openflow.Incoming) {
			r.onReply(dpid, msg)
		},
	})
	if err != nil {
		return nil, err
	}

	for i := 1; i <= numPorts; i++ {
		key := portKey{dpid: dpid, port: uint32(i)}
		if err := sw.AddPort(key.port, func(pkt *simnet.Packet, queue uint32) {
			r.transmit(key, pkt, queue)
		}); err != nil {
			sw.Close()
			return nil, errors.Wrapf(err, "adding port %v", key.port)
		}
	}

	channel := simnet.NewChannel(r.clock, simnet.ChannelConfig{
		Name:   fmt.Sprintf("control-%v", dpid),
		Delay:  r.conf.Channel.Delay,
		Jitter: r.conf.Channel.Jitter,
	})
	swSide, ctrlSide := channel.Endpoints()
	r.controller.Attach(ctrlSide)
	if err := sw.Connect(swSide, datapath.RoleMain, 0); err != nil {
		channel.Close()
		sw.Close()
		return nil, err
	}

	r.mutex.Lock()
	r.switches[dpid] = sw
	r.mutex.Unlock()
	logger.Infof("added switch %v with %v ports", dpid, numPorts)

	return sw, nil
}

func (r *Network) Switch(dpid datapath.ID) (*device.Switch, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	sw, ok := r.switches[dpid]
	return sw, ok
}

// Switches returns the datapath IDs in ascending order.
func (r *Network) Switches() []datapath.ID {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ids := make([]datapath.ID, 0, len(r.switches))
	for id := range r.switches {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

func (r *Network) transmit(key portKey, pkt *simnet.Packet, queue uint32) {
	r.mutex.Lock()
	edge := r.edge
	r.mutex.Unlock()

	if edge == nil {
		logger.Debugf("dropping %v sent out of port %v on switch %v (queue=%v)", pkt, key.port, key.dpid, queue)
		return
	}
	edge(key.dpid, key.port, pkt)
}

func (r *Network) onReply(dpid datapath.ID, msg openflow.Incoming) {
	logger.Infof("switch %v received %v (xid=%v) for its own request", dpid, of13.TypeName(msg.Type()), msg.TransactionID())

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.replies[dpid]++
}

// Replies returns how many replies to its own requests a switch has received.
func (r *Network) Replies(dpid datapath.ID) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.replies[dpid]
}

// Inject schedules a frame to arrive on a switch port at virtual time at.
func (r *Network) Inject(at float64, dpid datapath.ID, port uint32, frame []byte) {
	pkt := simnet.NewPacket(frame)
	r.clock.Schedule(at-r.clock.Seconds(), func() {
		sw, ok := r.Switch(dpid)
		if !ok {
			logger.Errorf("cannot inject %v: unknown switch %v", pkt, dpid)
			return
		}
		sw.ReceiveFromPort(port, pkt)
	})
}

// Ping schedules an ECHO_REQUEST from a switch to the controller at virtual time at.
func (r *Network) Ping(at float64, dpid datapath.ID) {
	r.clock.Schedule(at-r.clock.Seconds(), func() {
		sw, ok := r.Switch(dpid)
		if !ok {
			logger.Errorf("cannot ping: unknown switch %v", dpid)
			return
		}
		if err := sw.Ping(); err != nil {
			logger.Errorf("failed to ping from switch %v: %v", dpid, err)
		}
	})
}

// Run runs the simulation until simulation.duration virtual seconds.
func (r *Network) Run() {
	logger.Infof("running the simulation for %v virtual seconds", r.conf.Simulation.Duration)
	r.mgr.Run(r.conf.Simulation.Duration)
	logger.Infof("simulation finished at %.6f", r.clock.Seconds())
}

// Close closes every switch.
func (r *Network) Close() {
	for _, id := range r.Switches() {
		sw, ok := r.Switch(id)
		if !ok {
			continue
		}
		if err := sw.Close(); err != nil {
			logger.Errorf("failed to close switch %v: %v", id, err)
		}
	}
}

func (r *Network) String() string {
	v := fmt.Sprintf("Network Time=%.6f, Sessions=%v, Pending=%v\n", r.clock.Seconds(), r.controller.NumSessions(), r.controller.NumPending())
	for _, id := range r.Switches() {
		if sw, ok := r.Switch(id); ok {
			v += sw.String()
		}
	}

	return v
}
