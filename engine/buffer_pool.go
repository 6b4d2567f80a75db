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

package engine

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/superkkt/ofsim/openflow/of13"
)

type pooledPacket struct {
	packet *Packet
	// Virtual time in milliseconds when the packet was stored.
	timestamp int64
	taken     bool
}

// bufferPool keeps table-miss packets whose PACKET_IN only carried the first
// miss_send_len bytes, so that a later PACKET_OUT can refer to them by buffer ID.
type bufferPool struct {
	cache *lru.Cache
	// Milliseconds after which a buffered packet cannot be used anymore.
	expiration int64
	lastID     uint32
}

func newBufferPool(size int, expiration int64) *bufferPool {
	c, err := lru.NewWithEvict(size, func(key interface{}, value interface{}) {
		v := value.(*pooledPacket)
		if v.taken {
			return
		}
		v.packet.Release()
		logger.Debugf("released the buffered packet: id=%v", key)
	})
	if err != nil {
		panic(fmt.Sprintf("failed to init a LRU buffer pool: %v", err))
	}

	return &bufferPool{
		cache:      c,
		expiration: expiration,
	}
}

// Add stores the packet and returns its buffer ID. The pool owns the packet
// until it is taken or evicted.
func (r *bufferPool) Add(packet *Packet, now int64) uint32 {
	r.lastID++
	if r.lastID == of13.OFP_NO_BUFFER {
		r.lastID = 0
	}
	id := r.lastID
	r.cache.Add(id, &pooledPacket{packet: packet, timestamp: now})
	logger.Debugf("added a new buffered packet: id=%v, timestamp=%v", id, now)

	return id
}

// Take removes the packet from the pool and returns it to the caller.
func (r *bufferPool) Take(id uint32, now int64) (*Packet, bool) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	entry := v.(*pooledPacket)

	// Timeout?
	if now-entry.timestamp > r.expiration {
		r.cache.Remove(id)
		logger.Debugf("removed the timed-out buffered packet: id=%v", id)
		return nil, false
	}
	entry.taken = true
	r.cache.Remove(id)

	return entry.packet, true
}

// Peek returns the packet without removing it.
func (r *bufferPool) Peek(id uint32) (*Packet, bool) {
	v, ok := r.cache.Peek(id)
	if !ok {
		return nil, false
	}

	return v.(*pooledPacket).packet, true
}

func (r *bufferPool) Len() int {
	return r.cache.Len()
}

func (r *bufferPool) RemoveAll() {
	r.cache.Purge()
	logger.Debug("removed all the buffered packets")
}
