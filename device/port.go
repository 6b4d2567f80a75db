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

package device

import (
	"fmt"
	"sync"

	"github.com/superkkt/ofsim/simnet"
)

// TransmitFunc puts a frame on the link attached to a switch port.
type TransmitFunc func(pkt *simnet.Packet, queue uint32)

type Port struct {
	mutex     sync.RWMutex
	number    uint32
	transmit  TransmitFunc
	txPackets uint64
	txBytes   uint64
	rxPackets uint64
	rxBytes   uint64
}

func newPort(number uint32, transmit TransmitFunc) *Port {
	if transmit == nil {
		panic("TransmitFunc is nil")
	}

	return &Port{
		number:   number,
		transmit: transmit,
	}
}

func (r *Port) Number() uint32 {
	return r.number
}

func (r *Port) send(pkt *simnet.Packet, queue uint32) {
	// Write lock
	r.mutex.Lock()
	r.txPackets++
	r.txBytes += uint64(pkt.Len())
	r.mutex.Unlock()

	r.transmit(pkt, queue)
}

func (r *Port) received(pkt *simnet.Packet) {
	// Write lock
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.rxPackets++
	r.rxBytes += uint64(pkt.Len())
}

// Stats returns the packet and byte counters of the port.
func (r *Port) Stats() (txPackets, txBytes, rxPackets, rxBytes uint64) {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.txPackets, r.txBytes, r.rxPackets, r.rxBytes
}

func (r *Port) String() string {
	tp, tb, rp, rb := r.Stats()
	return fmt.Sprintf("Port Number=%v, TX=%v/%vB, RX=%v/%vB", r.number, tp, tb, rp, rb)
}
