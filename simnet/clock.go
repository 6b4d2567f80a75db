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
	"math"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// Clock exposes the virtual time of an event manager. The simulation starts
// at time zero and time never moves backwards.
type Clock struct {
	mgr *evtm.EventManager
}

func NewClock(mgr *evtm.EventManager) *Clock {
	if mgr == nil {
		panic("EventManager is nil")
	}

	return &Clock{mgr: mgr}
}

func (r *Clock) EventManager() *evtm.EventManager {
	return r.mgr
}

func (r *Clock) Now() vrtime.Time {
	return r.mgr.CurrentTime()
}

// Seconds returns the current virtual time in fractional seconds.
func (r *Clock) Seconds() float64 {
	return r.mgr.CurrentSeconds()
}

// Going through microseconds keeps 0.3 from becoming 0.29999.
func (r *Clock) micros() int64 {
	return int64(math.Round(r.Seconds() * 1e6))
}

// WholeSeconds returns the current virtual time truncated to whole seconds.
func (r *Clock) WholeSeconds() int64 {
	return r.micros() / 1000000
}

// Milliseconds returns the current virtual time truncated to milliseconds.
func (r *Clock) Milliseconds() int64 {
	return r.micros() / 1000
}

func dispatch(mgr *evtm.EventManager, context any, data any) any {
	data.(func())()
	return nil
}

// Schedule runs f after delay virtual seconds.
func (r *Clock) Schedule(delay float64, f func()) {
	if f == nil {
		panic("nil event function")
	}
	if delay < 0 {
		delay = 0
	}
	r.mgr.Schedule(r, f, dispatch, vrtime.SecondsToTime(delay))
}
