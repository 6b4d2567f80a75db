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

// Package datapath identifies OpenFlow datapaths and keeps the registry that
// maps a datapath ID to the simulated switch owning it.
package datapath

import (
	"fmt"

	"github.com/superkkt/ofsim/ofbuf"
)

// ID is the 64-bit OpenFlow datapath identifier. It does not change during
// the lifetime of a switch.
type ID uint64

func (r ID) String() string {
	return fmt.Sprintf("%016x", uint64(r))
}

type Role uint8

const (
	RoleMain Role = iota
	RoleAuxiliary
)

func (r Role) String() string {
	switch r {
	case RoleMain:
		return "main"
	case RoleAuxiliary:
		return "auxiliary"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Remote describes one control connection of a datapath. The engine hands it
// back when it sends a message to the controller.
type Remote struct {
	Datapath ID
	Role     Role
	// AuxID is zero on the main connection.
	AuxID uint8
}

func (r *Remote) String() string {
	return fmt.Sprintf("Remote(dpid=%v, role=%v, aux=%v)", r.Datapath, r.Role, r.AuxID)
}

// Switch is the simulated device that owns a datapath.
type Switch interface {
	DatapathID() ID
	// SendToController takes the ownership of buf.
	SendToController(buf *ofbuf.Buffer, remote *Remote) error
	// SendToSwitchPort takes the ownership of buf.
	SendToSwitchPort(buf *ofbuf.Buffer, port, queue uint32)
}
