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
	"fmt"
	"sync"

	"github.com/superkkt/ofsim/datapath"
	"github.com/superkkt/ofsim/openflow"
	"github.com/superkkt/ofsim/simnet"
)

// Features is what a switch announced in its FEATURES_REPLY.
type Features struct {
	DPID       datapath.ID
	NumBuffers uint32
	NumTables  uint8
	AuxID      uint8
}

// Session is the controller side of one control connection.
type Session struct {
	mutex      sync.RWMutex
	controller *Controller
	serial     uint64
	endpoint   *simnet.Endpoint
	negotiated bool
	bound      bool
	features   Features
	closed     bool
}

func (r *Session) String() string {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.bound {
		return fmt.Sprintf("Session(serial=%v, unbound)", r.serial)
	}

	return fmt.Sprintf("Session(serial=%v, dpid=%v)", r.serial, r.features.DPID)
}

// Serial is unique among the sessions of a controller.
func (r *Session) Serial() uint64 {
	return r.serial
}

func (r *Session) Negotiated() bool {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.negotiated
}

// DatapathID returns false until the session receives a FEATURES_REPLY.
func (r *Session) DatapathID() (datapath.ID, bool) {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.features.DPID, r.bound
}

func (r *Session) Features() Features {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.features
}

func (r *Session) Closed() bool {
	// Read lock
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.closed
}

// Send is a shortcut of Controller.SendToSwitch.
func (r *Session) Send(msg openflow.Outgoing, xid uint32) error {
	return r.controller.SendToSwitch(r, msg, xid)
}
