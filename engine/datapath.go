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

// Package engine is a small OpenFlow 1.3 datapath. It answers the controller's
// session and configuration requests, executes PACKET_OUT and reports
// table-miss packets as PACKET_IN. It has no flow table.
//
// The engine never touches the simulator directly: every side effect goes
// through a bridge.Host, and control utility messages go through a bridge.Dpctl.
package engine

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/op/go-logging"
	"golang.org/x/exp/slices"

	"github.com/superkkt/ofsim/bridge"
	"github.com/superkkt/ofsim/datapath"
	"github.com/superkkt/ofsim/ofbuf"
	"github.com/superkkt/ofsim/openflow"
	"github.com/superkkt/ofsim/openflow/of13"
	"github.com/superkkt/ofsim/simnet"
)

var (
	logger = logging.MustGetLogger("engine")
)

const (
	defaultNumTables     = 1
	defaultBufferTimeout = 1000 // milliseconds
	capabilities         = of13.OFPC_FLOW_STATS | of13.OFPC_TABLE_STATS | of13.OFPC_PORT_STATS
	maxErrorDataLength   = 64
	tableMissCookie      = 0xffffffffffffffff
)

type Description struct {
	Manufacturer string
	Hardware     string
	Software     string
	Serial       string
	Datapath     string
}

type Config struct {
	ID    datapath.ID
	Host  bridge.Host
	Dpctl bridge.Dpctl
	// Number of packets the engine can buffer for PACKET_OUT. Zero disables
	// buffering and every PACKET_IN carries the whole frame.
	NumBuffers int
	// Milliseconds a buffered packet stays usable.
	BufferTimeout int64
	NumTables     uint8
	// Headroom reserved in the buffers handed to switch ports.
	HeadRoom    int
	Description Description
	// OnReply is called with replies to the messages this datapath sent itself.
	OnReply func(openflow.Incoming)
}

type Datapath struct {
	mutex       sync.Mutex
	id          datapath.ID
	host        bridge.Host
	dpctl       bridge.Dpctl
	factory     openflow.Factory
	numBuffers  int
	numTables   uint8
	headRoom    int
	desc        Description
	onReply     func(openflow.Incoming)
	pool        *bufferPool
	ports       []uint32
	remote      *datapath.Remote
	negotiated  bool
	flags       openflow.ConfigFlag
	missSendLen uint16
}

func New(conf Config) *Datapath {
	if conf.Host == nil {
		panic("Host is nil")
	}
	if conf.NumBuffers < 0 || conf.HeadRoom < 0 {
		panic(fmt.Sprintf("invalid engine config: %+v", conf))
	}
	if conf.NumTables == 0 {
		conf.NumTables = defaultNumTables
	}
	if conf.BufferTimeout <= 0 {
		conf.BufferTimeout = defaultBufferTimeout
	}
	conf.Description = fillDescription(conf.ID, conf.Description)

	dp := &Datapath{
		id:          conf.ID,
		host:        conf.Host,
		dpctl:       conf.Dpctl,
		factory:     of13.NewFactory(),
		numBuffers:  conf.NumBuffers,
		numTables:   conf.NumTables,
		headRoom:    conf.HeadRoom,
		desc:        conf.Description,
		onReply:     conf.OnReply,
		ports:       make([]uint32, 0),
		flags:       openflow.FragNormal,
		missSendLen: of13.OFP_DEFAULT_MISS_SEND_LEN,
	}
	if conf.NumBuffers > 0 {
		dp.pool = newBufferPool(conf.NumBuffers, conf.BufferTimeout)
	}

	return dp
}

func fillDescription(id datapath.ID, d Description) Description {
	if d.Manufacturer == "" {
		d.Manufacturer = "superkkt"
	}
	if d.Hardware == "" {
		d.Hardware = "ofsim simulated datapath"
	}
	if d.Software == "" {
		d.Software = "ofsim"
	}
	if d.Serial == "" {
		d.Serial = id.String()
	}
	if d.Datapath == "" {
		d.Datapath = "OpenFlow 1.3 datapath"
	}

	return d
}

func (r *Datapath) ID() datapath.ID {
	return r.id
}

// SetOnReply replaces the reply callback.
func (r *Datapath) SetOnReply(f func(openflow.Incoming)) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.onReply = f
}

func (r *Datapath) AddPort(num uint32) error {
	if num == 0 || num > of13.OFPP_MAX {
		return fmt.Errorf("invalid port number: %v", num)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if slices.Contains(r.ports, num) {
		return fmt.Errorf("duplicated port number: %v", num)
	}
	r.ports = append(r.ports, num)
	slices.Sort(r.ports)

	return nil
}

// Ports returns the port numbers in ascending order.
func (r *Datapath) Ports() []uint32 {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return slices.Clone(r.ports)
}

// Connect attaches the datapath to a controller connection and starts the
// session by sending HELLO.
func (r *Datapath) Connect(remote *datapath.Remote) {
	if remote == nil {
		panic("Remote is nil")
	}
	if remote.Datapath != r.id {
		panic(fmt.Sprintf("remote %v does not belong to datapath %v", remote, r.id))
	}

	r.mutex.Lock()
	r.remote = remote
	r.negotiated = false
	r.mutex.Unlock()

	hello, err := r.factory.NewHello()
	if err != nil {
		panic(fmt.Sprintf("failed to create a HELLO message: %v", err))
	}
	r.send(hello)
}

// Disconnect detaches the controller connection and drops buffered packets.
func (r *Datapath) Disconnect() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.remote = nil
	r.negotiated = false
	if r.pool != nil {
		r.pool.RemoveAll()
	}
}

func (r *Datapath) Remote() *datapath.Remote {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.remote
}

func (r *Datapath) Negotiated() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.negotiated
}

func (r *Datapath) Config() (flags openflow.ConfigFlag, missSendLen uint16) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.flags, r.missSendLen
}

// send packs msg with its own transaction ID and hands it to the host.
func (r *Datapath) send(msg openflow.Outgoing) {
	remote := r.Remote()
	if remote == nil {
		logger.Debugf("dropping %v on datapath %v: not connected", of13.TypeName(msg.Type()), r.id)
		return
	}

	buf := bridge.MessageToBuffer(msg, msg.TransactionID())
	if buf.Len() == 0 {
		buf.Release()
		return
	}
	// The host owns buf from here on, even on failure. It already logged the error.
	r.host.SendBufferToRemote(buf, remote)
}

func (r *Datapath) sendError(class, code uint16, xid uint32, request []byte) {
	msg, err := r.factory.NewError()
	if err != nil {
		panic(fmt.Sprintf("failed to create an ERROR message: %v", err))
	}
	msg.SetTransactionID(xid)
	msg.SetClass(class)
	msg.SetCode(code)
	if len(request) > maxErrorDataLength {
		request = request[:maxErrorDataLength]
	}
	data := make([]byte, len(request))
	copy(data, request)
	msg.SetData(data)

	r.send(msg)
}

func (r *Datapath) dispatchReply(msg openflow.Incoming) {
	r.mutex.Lock()
	f := r.onReply
	r.mutex.Unlock()

	if f == nil {
		logger.Debugf("ignoring %v (xid=%v) on datapath %v: no reply handler", of13.TypeName(msg.Type()), msg.TransactionID(), r.id)
		return
	}
	f(msg)
}

// HandleControl processes one message received from the controller. The
// engine takes the ownership of buf.
func (r *Datapath) HandleControl(buf *ofbuf.Buffer) {
	if buf == nil {
		panic("Buffer is nil")
	}
	packet := buf.Bytes()
	buf.Release()

	if len(packet) < openflow.HeaderLength {
		logger.Errorf("dropping a truncated control message on datapath %v: length=%v", r.id, len(packet))
		return
	}
	xid := binary.BigEndian.Uint32(packet[4:8])

	msg, err := openflow.ParseMessage(packet)
	if err != nil {
		logger.Infof("invalid control message on datapath %v: type=%v, xid=%v, err=%v", r.id, of13.TypeName(packet[1]), xid, err)
		switch {
		case err == openflow.ErrUnsupportedVersion && packet[1] == of13.OFPT_HELLO:
			r.sendError(of13.OFPET_HELLO_FAILED, of13.OFPHFC_INCOMPATIBLE, xid, packet)
		case err == openflow.ErrUnsupportedVersion:
			r.sendError(of13.OFPET_BAD_REQUEST, of13.OFPBRC_BAD_VERSION, xid, packet)
		case err == openflow.ErrUnsupportedMessage && packet[1] == of13.OFPT_MULTIPART_REQUEST:
			r.sendError(of13.OFPET_BAD_REQUEST, of13.OFPBRC_BAD_MULTIPART, xid, packet)
		case err == openflow.ErrUnsupportedMessage:
			r.sendError(of13.OFPET_BAD_REQUEST, of13.OFPBRC_BAD_TYPE, xid, packet)
		case err == openflow.ErrUnsupportedAction:
			r.sendError(of13.OFPET_BAD_ACTION, 0, xid, packet)
		default:
			r.sendError(of13.OFPET_BAD_REQUEST, of13.OFPBRC_BAD_LEN, xid, packet)
		}
		return
	}
	logger.Debugf("received %v (xid=%v) on datapath %v", of13.TypeName(msg.Type()), xid, r.id)

	switch msg.Type() {
	case of13.OFPT_HELLO:
		r.mutex.Lock()
		r.negotiated = true
		r.mutex.Unlock()
	case of13.OFPT_ECHO_REQUEST:
		r.handleEchoRequest(msg.(openflow.EchoRequest))
	case of13.OFPT_FEATURES_REQUEST:
		r.handleFeaturesRequest(xid)
	case of13.OFPT_GET_CONFIG_REQUEST:
		r.handleGetConfigRequest(xid)
	case of13.OFPT_SET_CONFIG:
		r.handleSetConfig(msg.(openflow.SetConfig))
	case of13.OFPT_BARRIER_REQUEST:
		// Every message before the barrier has already been processed.
		r.send(of13.NewBarrierReply(xid))
	case of13.OFPT_MULTIPART_REQUEST:
		r.handleDescRequest(xid)
	case of13.OFPT_PACKET_OUT:
		r.handlePacketOut(msg.(openflow.PacketOut), packet)
	case of13.OFPT_ECHO_REPLY:
		r.handleEchoReply(msg.(openflow.EchoReply))
	case of13.OFPT_ERROR, of13.OFPT_BARRIER_REPLY, of13.OFPT_FEATURES_REPLY,
		of13.OFPT_GET_CONFIG_REPLY, of13.OFPT_MULTIPART_REPLY:
		r.dispatchReply(msg)
	default:
		r.sendError(of13.OFPET_BAD_REQUEST, of13.OFPBRC_BAD_TYPE, xid, packet)
	}
}

func (r *Datapath) handleEchoRequest(req openflow.EchoRequest) {
	reply := of13.NewEchoReply(req.TransactionID())
	reply.SetData(req.Data())
	r.send(reply)
}

func (r *Datapath) handleEchoReply(reply openflow.EchoReply) {
	if sent, ok := reply.Timestamp(); ok {
		logger.Debugf("echo round trip on datapath %v: %v ms", r.id, r.host.TimeMsec()-sent)
	}
	r.dispatchReply(reply)
}

func (r *Datapath) handleFeaturesRequest(xid uint32) {
	reply := of13.NewFeaturesReply(xid)
	reply.SetDPID(uint64(r.id))
	reply.SetNumBuffers(uint32(r.numBuffers))
	reply.SetNumTables(r.numTables)
	reply.SetCapabilities(capabilities)
	if remote := r.Remote(); remote != nil {
		reply.SetAuxID(remote.AuxID)
	}
	r.send(reply)
}

func (r *Datapath) handleGetConfigRequest(xid uint32) {
	flags, missSendLen := r.Config()

	reply := of13.NewGetConfigReply(xid)
	reply.SetFlags(flags)
	reply.SetMissSendLength(missSendLen)
	r.send(reply)
}

func (r *Datapath) handleSetConfig(conf openflow.SetConfig) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.flags = conf.Flags()
	r.missSendLen = conf.MissSendLength()
	logger.Debugf("datapath %v config: flags=%v, miss_send_len=%v", r.id, r.flags, r.missSendLen)
}

func (r *Datapath) handleDescRequest(xid uint32) {
	reply := of13.NewDescReply(xid)
	reply.SetManufacturer(r.desc.Manufacturer)
	reply.SetHardware(r.desc.Hardware)
	reply.SetSoftware(r.desc.Software)
	reply.SetSerial(r.desc.Serial)
	reply.SetDescription(r.desc.Datapath)
	r.send(reply)
}

func (r *Datapath) takeBuffered(id uint32) (*Packet, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.pool == nil {
		return nil, false
	}

	return r.pool.Take(id, r.host.TimeMsec())
}

func (r *Datapath) handlePacketOut(msg openflow.PacketOut, request []byte) {
	inPort := uint32(of13.OFPP_CONTROLLER)
	if !msg.InPort().IsController() {
		inPort = msg.InPort().Value()
	}
	data := msg.Data()

	if msg.BufferID() != of13.OFP_NO_BUFFER {
		packet, ok := r.takeBuffered(msg.BufferID())
		if !ok {
			logger.Infof("unknown buffer ID %v on datapath %v", msg.BufferID(), r.id)
			r.sendError(of13.OFPET_BAD_REQUEST, of13.OFPBRC_BUFFER_UNKNOWN, msg.TransactionID(), request)
			return
		}
		data = packet.Buffer().Bytes()
		packet.Release()
	}
	if len(data) == 0 {
		r.sendError(of13.OFPET_BAD_REQUEST, of13.OFPBRC_BAD_PACKET, msg.TransactionID(), request)
		return
	}

	_, queue := msg.Action().Queue()
	for _, port := range msg.Action().OutPort() {
		r.output(port, inPort, queue, data)
	}
}

func (r *Datapath) output(port openflow.OutPort, inPort, queue uint32, data []byte) {
	switch {
	case port.IsPhysical():
		r.portOutput(port.Value(), queue, data)
	case port.IsInPort():
		if inPort == of13.OFPP_CONTROLLER {
			logger.Infof("ignoring IN_PORT output of a packet from the controller on datapath %v", r.id)
			return
		}
		r.portOutput(inPort, queue, data)
	case port.IsFlood(), port.IsAll():
		for _, p := range r.Ports() {
			if p == inPort {
				continue
			}
			r.portOutput(p, queue, data)
		}
	case port.IsController():
		r.packetIn(inPort, openflow.ReasonAction, data, of13.OFP_NO_BUFFER)
	default:
		logger.Infof("ignoring unsupported output port %+v on datapath %v", port, r.id)
	}
}

func (r *Datapath) portOutput(port, queue uint32, data []byte) {
	buf := ofbuf.NewWithHeadroom(len(data), r.headRoom)
	buf.Put(data)
	r.host.PortsOutput(r.id, buf, port, queue)
}

func (r *Datapath) packetIn(inPort uint32, reason openflow.PacketInReason, data []byte, bufferID uint32) {
	msg, err := r.factory.NewPacketIn()
	if err != nil {
		panic(fmt.Sprintf("failed to create a PACKET_IN message: %v", err))
	}
	msg.SetInPort(inPort)
	msg.SetReason(reason)
	msg.SetTableID(0)
	msg.SetCookie(tableMissCookie)
	msg.SetLength(uint16(len(data)))
	msg.SetBufferID(bufferID)

	_, missSendLen := r.Config()
	if bufferID != of13.OFP_NO_BUFFER && missSendLen != of13.OFPCML_NO_BUFFER && len(data) > int(missSendLen) {
		data = data[:missSendLen]
	}
	msg.SetData(data)
	r.send(msg)
}

// HandlePortInput processes a frame received on a switch port. The engine
// takes the ownership of buf. Without a flow table every frame is a table miss.
func (r *Datapath) HandlePortInput(inPort uint32, buf *ofbuf.Buffer) {
	if buf == nil {
		panic("Buffer is nil")
	}
	packet := NewPacket(inPort, buf)

	if !slices.Contains(r.Ports(), inPort) {
		logger.Infof("dropping %v: unknown port on datapath %v", packet, r.id)
		packet.Release()
		return
	}
	if r.Remote() == nil {
		logger.Debugf("dropping %v: datapath %v is not connected", packet, r.id)
		packet.Release()
		return
	}

	data := packet.Buffer().Bytes()
	bufferID := uint32(of13.OFP_NO_BUFFER)
	_, missSendLen := r.Config()
	r.mutex.Lock()
	if r.pool != nil && missSendLen != of13.OFPCML_NO_BUFFER && len(data) > int(missSendLen) {
		bufferID = r.pool.Add(packet, r.host.TimeMsec())
		packet = nil
	}
	r.mutex.Unlock()
	if packet != nil {
		packet.Release()
	}

	r.packetIn(inPort, openflow.ReasonNoMatch, data, bufferID)
}

// BufferedPacket returns a copy of the frame waiting under a buffer ID.
func (r *Datapath) BufferedPacket(id uint32) (*simnet.Packet, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.pool == nil {
		return nil, false
	}
	packet, ok := r.pool.Peek(id)
	if !ok {
		return nil, false
	}

	return bridge.InternalPacketToPacket(packet), true
}

// Ping sends an ECHO_REQUEST carrying the current virtual time through the
// control utility. The reply comes back through OnReply.
func (r *Datapath) Ping() {
	if r.dpctl == nil {
		panic("Dpctl is nil")
	}
	remote := r.Remote()
	if remote == nil {
		logger.Infof("cannot ping: datapath %v is not connected", r.id)
		return
	}

	req, err := r.factory.NewEchoRequest()
	if err != nil {
		panic(fmt.Sprintf("failed to create an ECHO_REQUEST message: %v", err))
	}
	req.SetTimestamp(r.host.TimeMsec())

	var reply openflow.Incoming
	r.dpctl.TransactAndPrint(remote, req, &reply)
	// reply is always nil here. The ECHO_REPLY arrives through HandleControl.
}
