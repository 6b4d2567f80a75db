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

package datapath

import (
	"fmt"
	"sync"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

var (
	logger = logging.MustGetLogger("datapath")

	ErrDuplicatedDatapath = errors.New("duplicated datapath ID")
	ErrStaleHandle        = errors.New("stale switch handle")

	// Default is the process-wide registry for hosts that do not carry their own.
	Default = NewRegistry()
)

// Handle refers to one registration of a switch. It stops being valid once the
// switch is unregistered, even if another switch registers the same ID later.
type Handle struct {
	id  ID
	gen uint64
}

func (r Handle) ID() ID {
	return r.id
}

func (r Handle) String() string {
	return fmt.Sprintf("Handle(dpid=%v, gen=%v)", r.id, r.gen)
}

type entry struct {
	sw  Switch
	gen uint64
}

// Registry maps datapath IDs to the switches owning them. At most one switch
// is registered per ID.
type Registry struct {
	mutex   sync.Mutex
	gen     uint64
	entries map[ID]entry
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[ID]entry),
	}
}

// Register adds sw under its datapath ID. Registering an ID twice is a
// configuration error.
func (r *Registry) Register(sw Switch) (Handle, error) {
	if sw == nil {
		panic("Switch is nil")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	id := sw.DatapathID()
	if _, ok := r.entries[id]; ok {
		return Handle{}, errors.Wrapf(ErrDuplicatedDatapath, "datapath %v", id)
	}
	r.gen++
	r.entries[id] = entry{sw: sw, gen: r.gen}
	logger.Debugf("registered datapath %v (generation=%v)", id, r.gen)

	return Handle{id: id, gen: r.gen}, nil
}

// Unregister removes id. Removing an absent ID is a no-op.
func (r *Registry) Unregister(id ID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.entries[id]; !ok {
		return
	}
	delete(r.entries, id)
	logger.Debugf("unregistered datapath %v", id)
}

// Resolve returns the switch registered under id. It panics if there is none:
// the engine only ever resolves datapaths it was created for.
func (r *Registry) Resolve(id ID) Switch {
	sw, ok := r.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("unregistered datapath ID: %v", id))
	}

	return sw
}

func (r *Registry) Lookup(id ID) (Switch, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}

	return e.sw, true
}

// Get returns the switch a handle refers to if the registration is still alive.
func (r *Registry) Get(h Handle) (Switch, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	e, ok := r.entries[h.id]
	if !ok || e.gen != h.gen {
		return nil, ErrStaleHandle
	}

	return e.sw, nil
}

// IDs returns the registered datapath IDs in ascending order.
func (r *Registry) IDs() []ID {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ids := make([]ID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

func (r *Registry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return len(r.entries)
}
