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

// Package controller is a minimal OpenFlow 1.3 controller that talks to
// simulated switches over simnet channels.
package controller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/superkkt/ofsim/bridge"
	"github.com/superkkt/ofsim/datapath"
	"github.com/superkkt/ofsim/openflow"
	"github.com/superkkt/ofsim/openflow/of13"
	"github.com/superkkt/ofsim/simnet"
)

var (
	logger = logging.MustGetLogger("controller")

	ErrClosedSession = errors.New("already closed session")
	errNotNegotiated = errors.New("invalid message on non-negotiated session")
)

const (
	defaultPendingSize = 1024
)

type Config struct {
	Clock   *simnet.Clock
	Handler Handler
	// Maximum number of outstanding requests tracked for round-trip times.
	PendingSize int
	// Virtual seconds between keepalive ECHO_REQUESTs. Zero disables the keepalive.
	EchoInterval float64
}

type pendingKey struct {
	serial uint64
	xid    uint32
}

type pendingRequest struct {
	msgType uint8
	sentAt  float64
}

type Controller struct {
	clock        *simnet.Clock
	handler      Handler
	echoInterval float64
	xid          uint32
	serial       uint64
	pending      *lru.Cache
	keepalive    *canceller

	mutex    sync.Mutex
	sessions map[datapath.ID]*Session
}

func New(conf Config) (*Controller, error) {
	if conf.Clock == nil {
		return nil, errors.New("Config.Clock is essential parameter")
	}
	if conf.EchoInterval < 0 {
		return nil, fmt.Errorf("invalid echo interval: %v", conf.EchoInterval)
	}
	if conf.PendingSize < 0 {
		return nil, fmt.Errorf("invalid pending size: %v", conf.PendingSize)
	}
	if conf.PendingSize == 0 {
		conf.PendingSize = defaultPendingSize
	}
	if conf.Handler == nil {
		conf.Handler = &BaseHandler{}
	}

	cache, err := lru.New(conf.PendingSize)
	if err != nil {
		return nil, err
	}

	return &Controller{
		clock:        conf.Clock,
		handler:      conf.Handler,
		echoInterval: conf.EchoInterval,
		pending:      cache,
		keepalive:    newCanceller(),
		sessions:     make(map[datapath.ID]*Session),
	}, nil
}

// nextTransactionID never returns zero.
func (r *Controller) nextTransactionID() uint32 {
	for {
		if xid := atomic.AddUint32(&r.xid, 1); xid != 0 {
			return xid
		}
	}
}

// Attach starts a new session on endpoint by sending HELLO.
func (r *Controller) Attach(endpoint *simnet.Endpoint) *Session {
	if endpoint == nil {
		panic("Endpoint is nil")
	}

	s := &Session{
		controller: r,
		serial:     atomic.AddUint64(&r.serial, 1),
		endpoint:   endpoint,
	}
	endpoint.SetReceiver(func(pkt *simnet.Packet) {
		r.receive(s, pkt)
	})
	endpoint.Channel().NotifyClose(func() {
		r.Detach(s)
	})
	logger.Infof("attached a new session: %v", s)

	if err := r.SendToSwitch(s, of13.NewHello(0), 0); err != nil {
		logger.Errorf("failed to send HELLO on %v: %v", s, err)
	}

	return s
}

// Detach closes the session and its channel, and forgets the requests still
// waiting for a reply on it. Messages arriving afterwards are dropped.
func (r *Controller) Detach(s *Session) {
	// Write lock
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return
	}
	s.closed = true
	bound, dpid := s.bound, s.features.DPID
	s.mutex.Unlock()

	s.endpoint.SetReceiver(nil)
	s.endpoint.Channel().Close()
	if bound {
		r.mutex.Lock()
		owner := r.sessions[dpid] == s
		if owner {
			delete(r.sessions, dpid)
		}
		r.mutex.Unlock()

		if owner {
			if cancel, ok := r.keepalive.pop(dpid); ok {
				cancel()
			}
		}
	}
	r.purgePending(s.serial)
	logger.Infof("detached %v", s)
}

func (r *Controller) purgePending(serial uint64) {
	n := 0
	for _, k := range r.pending.Keys() {
		if key := k.(pendingKey); key.serial == serial {
			r.pending.Remove(key)
			n++
		}
	}
	if n > 0 {
		logger.Debugf("dropped %v pending requests of session #%v", n, serial)
	}
}

// Session returns the session bound to dpid.
func (r *Controller) Session(dpid datapath.ID) (*Session, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, ok := r.sessions[dpid]
	return s, ok
}

func (r *Controller) NumSessions() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return len(r.sessions)
}

// NumPending returns the number of requests still waiting for their replies.
func (r *Controller) NumPending() int {
	return r.pending.Len()
}

func isRequest(msgType uint8) bool {
	switch msgType {
	case of13.OFPT_ECHO_REQUEST, of13.OFPT_FEATURES_REQUEST, of13.OFPT_GET_CONFIG_REQUEST,
		of13.OFPT_BARRIER_REQUEST, of13.OFPT_MULTIPART_REQUEST:
		return true
	default:
		return false
	}
}

// SendToSwitch sends msg on the session. A zero xid is replaced with the next
// transaction ID of the controller.
func (r *Controller) SendToSwitch(s *Session, msg openflow.Outgoing, xid uint32) error {
	if s == nil {
		panic("Session is nil")
	}
	if msg == nil {
		panic("Message is nil")
	}
	if xid == 0 {
		xid = r.nextTransactionID()
	}

	return r.send(s, msg, xid)
}

func (r *Controller) send(s *Session, msg openflow.Outgoing, xid uint32) error {
	if s.Closed() {
		return ErrClosedSession
	}

	buf := bridge.MessageToBuffer(msg, xid)
	if buf.Len() == 0 {
		buf.Release()
		return fmt.Errorf("failed to pack %v message", of13.TypeName(msg.Type()))
	}
	if err := s.endpoint.Send(bridge.BufferToPacket(buf, true)); err != nil {
		return err
	}
	logger.Debugf("sent %v (xid=%v) on %v", of13.TypeName(msg.Type()), xid, s)

	if isRequest(msg.Type()) {
		r.pending.Add(pendingKey{serial: s.serial, xid: xid}, pendingRequest{msgType: msg.Type(), sentAt: r.clock.Seconds()})
	}

	return nil
}

// matchReply removes the request answered by msg and logs its round-trip time.
func (r *Controller) matchReply(s *Session, msg openflow.Incoming) {
	key := pendingKey{serial: s.serial, xid: msg.TransactionID()}
	v, ok := r.pending.Get(key)
	if !ok {
		return
	}
	r.pending.Remove(key)

	req := v.(pendingRequest)
	logger.Debugf("%v (xid=%v) answered by %v on %v: rtt=%.6fs", of13.TypeName(req.msgType), key.xid,
		of13.TypeName(msg.Type()), s, r.clock.Seconds()-req.sentAt)
}

func (r *Controller) receive(s *Session, pkt *simnet.Packet) {
	if s.Closed() {
		logger.Debugf("dropping %v on closed %v", pkt, s)
		return
	}

	msg, err := bridge.PacketToMessage(pkt)
	if err != nil {
		logger.Errorf("invalid message on %v: %v", s, err)
		return
	}
	logger.Debugf("received %v (xid=%v) on %v", of13.TypeName(msg.Type()), msg.TransactionID(), s)

	if err := r.dispatch(s, msg); err != nil {
		logger.Errorf("failed to handle %v on %v: %v", of13.TypeName(msg.Type()), s, err)
	}
}

func (r *Controller) dispatch(s *Session, msg openflow.Incoming) error {
	if msg.Type() == of13.OFPT_HELLO {
		return r.onHello(s, msg.(openflow.Hello))
	}
	if !s.Negotiated() {
		return errNotNegotiated
	}

	switch msg.Type() {
	case of13.OFPT_ECHO_REQUEST:
		return r.onEchoRequest(s, msg.(openflow.EchoRequest))
	case of13.OFPT_ECHO_REPLY:
		r.matchReply(s, msg)
		return r.handler.OnEchoReply(s, msg.(openflow.EchoReply))
	case of13.OFPT_FEATURES_REPLY:
		r.matchReply(s, msg)
		return r.onFeaturesReply(s, msg.(openflow.FeaturesReply))
	case of13.OFPT_ERROR:
		r.matchReply(s, msg)
		v := msg.(openflow.Error)
		logger.Errorf("ERROR (class=%v, code=%v) on %v", v.Class(), v.Code(), s)
		return r.handler.OnError(s, v)
	case of13.OFPT_BARRIER_REPLY:
		r.matchReply(s, msg)
		return r.handler.OnBarrierReply(s, msg.(openflow.BarrierReply))
	case of13.OFPT_GET_CONFIG_REPLY:
		r.matchReply(s, msg)
		return r.handler.OnGetConfigReply(s, msg.(openflow.GetConfigReply))
	case of13.OFPT_MULTIPART_REPLY:
		r.matchReply(s, msg)
		return r.handler.OnDescReply(s, msg.(openflow.DescReply))
	case of13.OFPT_PACKET_IN:
		return r.handler.OnPacketIn(s, msg.(openflow.PacketIn))
	default:
		return fmt.Errorf("unexpected message: %v", of13.TypeName(msg.Type()))
	}
}

func (r *Controller) onHello(s *Session, msg openflow.Hello) error {
	// Write lock
	s.mutex.Lock()
	if s.negotiated {
		s.mutex.Unlock()
		// Ignore duplicated HELLO messages
		return nil
	}
	s.negotiated = true
	s.mutex.Unlock()

	if err := r.SendToSwitch(s, of13.NewFeaturesRequest(0), 0); err != nil {
		return err
	}

	return r.handler.OnHello(s, msg)
}

func (r *Controller) onEchoRequest(s *Session, msg openflow.EchoRequest) error {
	reply := of13.NewEchoReply(msg.TransactionID())
	reply.SetData(msg.Data())

	// The reply keeps the transaction ID even if it is zero.
	return r.send(s, reply, msg.TransactionID())
}

func (r *Controller) onFeaturesReply(s *Session, msg openflow.FeaturesReply) error {
	logger.Debugf("FEATURES_REPLY (DPID=%v, NumBufs=%v, NumTables=%v)", msg.DPID(), msg.NumBuffers(), msg.NumTables())

	// Read lock
	s.mutex.RLock()
	bound := s.bound
	s.mutex.RUnlock()
	if bound {
		return r.handler.OnFeaturesReply(s, msg)
	}

	dpid := datapath.ID(msg.DPID())
	r.mutex.Lock()
	if _, ok := r.sessions[dpid]; ok {
		r.mutex.Unlock()
		r.Detach(s)
		return errors.New("duplicated device DPID (aux. connection is not supported yet)")
	}
	r.sessions[dpid] = s
	r.mutex.Unlock()

	// Write lock
	s.mutex.Lock()
	s.bound = true
	s.features = Features{
		DPID:       dpid,
		NumBuffers: msg.NumBuffers(),
		NumTables:  msg.NumTables(),
		AuxID:      msg.AuxID(),
	}
	s.mutex.Unlock()
	logger.Infof("bound %v to datapath %v", s, dpid)

	if r.echoInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		r.keepalive.push(dpid, cancel)
		r.scheduleEcho(ctx, s)
	}

	return r.handler.OnFeaturesReply(s, msg)
}

func (r *Controller) scheduleEcho(ctx context.Context, s *Session) {
	r.clock.Schedule(r.echoInterval, func() {
		if ctx.Err() != nil {
			logger.Debugf("stopped the keepalive of %v", s)
			return
		}

		req := of13.NewEchoRequest(0)
		req.SetTimestamp(r.clock.Milliseconds())
		if err := r.SendToSwitch(s, req, 0); err != nil {
			logger.Errorf("failed to send a keepalive ECHO_REQUEST on %v: %v", s, err)
			return
		}
		r.scheduleEcho(ctx, s)
	})
}
