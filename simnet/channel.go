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

package simnet

import (
	"errors"
	"sync"

	"github.com/iti/rngstream"
	"github.com/op/go-logging"
)

var (
	logger = logging.MustGetLogger("simnet")

	ErrChannelClosed = errors.New("closed channel")
)

// Receiver is called once per delivered packet, in send order.
type Receiver func(pkt *Packet)

type ChannelConfig struct {
	Name string
	// One-way propagation delay in virtual seconds.
	Delay float64
	// Upper bound of the uniformly distributed extra delay in virtual seconds.
	Jitter float64
}

// Channel is a reliable, ordered, full-duplex link between two endpoints.
type Channel struct {
	mutex     sync.Mutex
	name      string
	clock     *Clock
	delay     float64
	jitter    float64
	rng       *rngstream.RngStream
	endpoints [2]*Endpoint
	inflight  [2][]*Packet
	lastTime  [2]float64
	closed    bool
	onClose   []func()
}

type Endpoint struct {
	channel  *Channel
	side     int
	mutex    sync.Mutex
	receiver Receiver
}

func NewChannel(clock *Clock, conf ChannelConfig) *Channel {
	if clock == nil {
		panic("Clock is nil")
	}
	if conf.Delay < 0 || conf.Jitter < 0 {
		panic("negative channel delay")
	}

	c := &Channel{
		name:   conf.Name,
		clock:  clock,
		delay:  conf.Delay,
		jitter: conf.Jitter,
		rng:    rngstream.New(conf.Name),
	}
	c.endpoints[0] = &Endpoint{channel: c, side: 0}
	c.endpoints[1] = &Endpoint{channel: c, side: 1}

	return c
}

func (r *Channel) Name() string {
	return r.name
}

// Endpoints returns both ends of the channel.
func (r *Channel) Endpoints() (*Endpoint, *Endpoint) {
	return r.endpoints[0], r.endpoints[1]
}

// Close drops every undelivered packet and runs the close notifiers once.
// Sending on a closed channel fails.
func (r *Channel) Close() {
	r.mutex.Lock()
	if r.closed {
		r.mutex.Unlock()
		return
	}
	r.closed = true
	for i := range r.inflight {
		if n := len(r.inflight[i]); n > 0 {
			logger.Debugf("channel %v: dropping %v undelivered packets", r.name, n)
		}
		r.inflight[i] = nil
	}
	notifiers := r.onClose
	r.onClose = nil
	r.mutex.Unlock()

	// Notifiers may call back into the channel.
	for _, f := range notifiers {
		f()
	}
}

// NotifyClose registers f to be called when the channel is closed. f is
// called immediately if the channel is already closed.
func (r *Channel) NotifyClose(f func()) {
	if f == nil {
		panic("close notifier is nil")
	}

	r.mutex.Lock()
	if !r.closed {
		r.onClose = append(r.onClose, f)
		r.mutex.Unlock()
		return
	}
	r.mutex.Unlock()
	f()
}

func (r *Channel) Closed() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.closed
}

func (r *Channel) send(side int, pkt *Packet) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return ErrChannelClosed
	}

	now := r.clock.Seconds()
	arrival := now + r.delay
	if r.jitter > 0 {
		arrival += r.jitter * r.rng.RandU01()
	}
	// Never overtake a packet that is already on the wire.
	if arrival < r.lastTime[side] {
		arrival = r.lastTime[side]
	}
	r.lastTime[side] = arrival
	r.inflight[side] = append(r.inflight[side], pkt)
	r.clock.Schedule(arrival-now, func() { r.deliver(side) })

	return nil
}

// deliver hands the oldest in-flight packet sent from side to the opposite endpoint.
func (r *Channel) deliver(side int) {
	r.mutex.Lock()
	if r.closed || len(r.inflight[side]) == 0 {
		r.mutex.Unlock()
		return
	}
	pkt := r.inflight[side][0]
	r.inflight[side] = r.inflight[side][1:]
	peer := r.endpoints[1-side]
	r.mutex.Unlock()

	peer.mutex.Lock()
	receiver := peer.receiver
	peer.mutex.Unlock()
	if receiver == nil {
		logger.Warningf("channel %v: no receiver on side %v, dropping %v", r.name, 1-side, pkt)
		return
	}
	receiver(pkt)
}

// SetReceiver installs the callback invoked for packets arriving at this endpoint.
func (r *Endpoint) SetReceiver(receiver Receiver) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.receiver = receiver
}

// Send queues pkt for delivery to the opposite endpoint. It never blocks.
func (r *Endpoint) Send(pkt *Packet) error {
	if pkt == nil {
		panic("Packet is nil")
	}

	return r.channel.send(r.side, pkt)
}

func (r *Endpoint) Peer() *Endpoint {
	return r.channel.endpoints[1-r.side]
}

func (r *Endpoint) Channel() *Channel {
	return r.channel
}
