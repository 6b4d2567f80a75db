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
	"context"
	"sync"

	"github.com/superkkt/ofsim/datapath"
)

// canceller keeps the function that stops the keepalive of each bound datapath.
type canceller struct {
	mu    sync.Mutex
	elems map[datapath.ID]context.CancelFunc
}

func newCanceller() *canceller {
	return &canceller{elems: make(map[datapath.ID]context.CancelFunc)}
}

func (r *canceller) push(dpid datapath.ID, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Stop the previous one, if any.
	if prev, ok := r.elems[dpid]; ok {
		prev()
	}
	r.elems[dpid] = cancel
}

func (r *canceller) pop(dpid datapath.ID) (cancel context.CancelFunc, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancel, ok = r.elems[dpid]
	if !ok {
		return nil, false
	}
	delete(r.elems, dpid)

	return cancel, true
}

func (r *canceller) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.elems)
}
