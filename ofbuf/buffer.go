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

// Package ofbuf implements the wire buffer the datapath engine packs and
// unpacks OpenFlow messages in. A buffer reserves headroom in front of its
// body so that headers can be prepended in place.
//
// A Buffer has exactly one owner at a time. Whoever hands a buffer to another
// component gives up the right to touch it, and whoever finishes with it calls
// Release. Any access to a released buffer panics.
package ofbuf

import (
	"errors"
	"fmt"
)

var (
	ErrNoHeadroom = errors.New("insufficient headroom")
)

type Buffer struct {
	base     []byte // allocated region
	head     int    // offset of the first data byte in base
	size     int    // number of data bytes
	released bool
}

// New returns an empty buffer whose body can hold size bytes without reallocation.
func New(size int) *Buffer {
	return NewWithHeadroom(size, 0)
}

// NewWithHeadroom returns an empty buffer with size bytes of body room and
// headroom bytes reserved in front of it.
func NewWithHeadroom(size, headroom int) *Buffer {
	if size < 0 || headroom < 0 {
		panic(fmt.Sprintf("invalid buffer size: size=%v, headroom=%v", size, headroom))
	}

	return &Buffer{
		base: make([]byte, headroom+size),
		head: headroom,
	}
}

// Use returns a buffer that takes ownership of data as its body. The caller
// must not touch data after this call.
func Use(data []byte) *Buffer {
	return &Buffer{
		base: data,
		size: len(data),
	}
}

func (r *Buffer) check() {
	if r.released {
		panic("use of released buffer")
	}
}

func (r *Buffer) Len() int {
	r.check()
	return r.size
}

// Cap returns the allocated capacity including the headroom.
func (r *Buffer) Cap() int {
	r.check()
	return len(r.base)
}

func (r *Buffer) Headroom() int {
	r.check()
	return r.head
}

func (r *Buffer) Tailroom() int {
	r.check()
	return len(r.base) - r.head - r.size
}

// Data returns the body without copying. The slice is valid until the next
// call that modifies the buffer.
func (r *Buffer) Data() []byte {
	r.check()
	return r.base[r.head : r.head+r.size : r.head+r.size]
}

// Bytes returns a copy of the body.
func (r *Buffer) Bytes() []byte {
	r.check()

	v := make([]byte, r.size)
	copy(v, r.base[r.head:r.head+r.size])

	return v
}

// A caller should make sure the buffer is not released before calling this function.
func (r *Buffer) prealloc(n int) {
	if len(r.base)-r.head-r.size >= n {
		return
	}

	// Grow the tail only. The headroom keeps the size reserved at allocation time.
	capacity := r.head + r.size + n
	if double := 2 * len(r.base); double > capacity {
		capacity = double
	}
	base := make([]byte, capacity)
	copy(base[r.head:], r.base[r.head:r.head+r.size])
	r.base = base
}

// PutUninit appends n bytes at the tail and returns them for the caller to fill in.
func (r *Buffer) PutUninit(n int) []byte {
	r.check()
	if n < 0 {
		panic(fmt.Sprintf("negative put length: %v", n))
	}

	r.prealloc(n)
	tail := r.head + r.size
	r.size += n

	return r.base[tail : tail+n : tail+n]
}

func (r *Buffer) Put(p []byte) {
	copy(r.PutUninit(len(p)), p)
}

// Push prepends p into the headroom.
func (r *Buffer) Push(p []byte) error {
	r.check()
	if len(p) > r.head {
		return ErrNoHeadroom
	}

	r.head -= len(p)
	r.size += len(p)
	copy(r.base[r.head:], p)

	return nil
}

// Clone returns a deep copy with the same headroom and capacity.
func (r *Buffer) Clone() *Buffer {
	r.check()

	base := make([]byte, len(r.base))
	copy(base, r.base)

	return &Buffer{
		base: base,
		head: r.head,
		size: r.size,
	}
}

// Release ends the ownership of the buffer. Releasing twice is allowed.
func (r *Buffer) Release() {
	r.base = nil
	r.head = 0
	r.size = 0
	r.released = true
}

func (r *Buffer) Released() bool {
	return r.released
}

func (r *Buffer) String() string {
	if r.released {
		return "Buffer(released)"
	}

	return fmt.Sprintf("Buffer(size=%v, headroom=%v, tailroom=%v)", r.size, r.head, r.Tailroom())
}
