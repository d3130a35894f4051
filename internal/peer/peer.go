package peer

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/protei/hss/internal/diameter"
	"github.com/protei/hss/internal/logger"
	"github.com/protei/hss/internal/metrics"
)

// Identity is the local node's Diameter identity, used to build
// CER/CEA and every answer's preamble.
type Identity struct {
	Hostname       string
	Realm          string
	ApplicationIDs []uint32
	VendorID       uint32
	HostIPs        []net.IP
	ProductName    string
}

// Peer is one Diameter connection: a reader task, a writer task, and
// the state machine and pending-transaction table they share.
type Peer struct {
	conn  net.Conn
	local Identity

	router   *Router
	counters metrics.Counters
	manager  *Manager
	log      *logger.Logger

	ids     *idAllocator
	pending *transactionTable

	mu    sync.Mutex
	state State

	remoteHost  string
	remoteRealm string

	writeCh chan *diameter.Message
	workers chan func()

	droppedAnswers uint64
	initiator      bool
}

// New wraps an accepted or dialed connection in a Peer, in
// StateWaitConnAck (the state a freshly established transport sits in
// before capability exchange completes). initiator is true for a
// connection this HSS dialed out, which must send the first CER.
// manager may be nil; when set, the peer registers itself under its
// remote identity once capability exchange completes, so a later CLR
// can be routed back to it.
func New(conn net.Conn, local Identity, router *Router, counters metrics.Counters, manager *Manager, initiator bool) *Peer {
	return &Peer{
		conn:      conn,
		local:     local,
		router:    router,
		counters:  counters,
		manager:   manager,
		log:       logger.Get().WithComponent("peer"),
		ids:       newIDAllocator(time.Now()),
		pending:   newTransactionTable(),
		state:     StateWaitConnAck,
		writeCh:   make(chan *diameter.Message, 16),
		workers:   make(chan func(), 64),
		initiator: initiator,
	}
}

func (p *Peer) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Peer) getState() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Serve runs the peer's reader and writer loops until the connection
// closes or ctx is cancelled. It blocks until the connection ends.
func (p *Peer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Closing the transport on cancellation unblocks a reader waiting
	// in readMessage, so Serve returns even on a silent connection.
	go func() {
		<-ctx.Done()
		p.conn.Close()
	}()

	go p.writeLoop(ctx)
	go p.sweepLoop(ctx)
	go p.watchdogLoop(ctx)
	for i := 0; i < 4; i++ {
		go p.workerLoop(ctx)
	}

	if p.initiator {
		p.sendCER()
	}

	err := p.readLoop(ctx)
	p.setState(StateClosed)
	if p.manager != nil {
		p.mu.Lock()
		host := p.remoteHost
		p.mu.Unlock()
		if host != "" {
			p.manager.Unregister(host)
		}
	}
	return err
}

// workerLoop executes dispatched handlers off the reader goroutine so
// a slow handler never blocks reading the next frame.
func (p *Peer) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-p.workers:
			fn()
		}
	}
}

func (p *Peer) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for range p.pending.sweepExpired(now) {
				if p.counters != nil {
					p.counters.Incr("peer:transaction_timeouts")
				}
				p.log.Warn("transaction timed out")
			}
		}
	}
}

func (p *Peer) readLoop(ctx context.Context) error {
	for {
		msg, err := readMessage(p.conn)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("peer: read: %w", err)
		}

		if msg.Header.IsRequest() {
			p.handleInboundRequest(msg)
			continue
		}
		p.handleInboundAnswer(msg)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (p *Peer) handleInboundAnswer(ans *diameter.Message) {
	txn, ok := p.pending.match(ans.Header.HopByHopID)
	if !ok {
		p.droppedAnswers++
		if p.counters != nil {
			p.counters.Incr("peer:dropped_answers")
		}
		p.log.Warn("dropped out-of-table answer", "hop_by_hop_id", ans.Header.HopByHopID)
		return
	}

	if ans.Header.CommandCode == diameter.CodeCapabilitiesExchange && p.getState() == StateWaitICEA {
		if ans.Header.IsError() {
			p.setState(StateClosing)
		} else {
			p.setState(StateIOpen)
			p.log.Info("capability exchange complete", "peer", p.remoteHost)
			p.registerWithManager()
		}
	}

	if txn.answerCh != nil {
		select {
		case txn.answerCh <- ans:
		default:
		}
	}
}

func (p *Peer) handleInboundRequest(req *diameter.Message) {
	select {
	case p.workers <- func() { p.dispatch(req) }:
	default:
		// Worker pool saturated: process inline rather than drop the
		// request silently.
		p.dispatch(req)
	}
}

func (p *Peer) dispatch(req *diameter.Message) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("handler panic", fmt.Errorf("%v", r), "command_code", req.Header.CommandCode)
			p.send(p.failureAnswer(req))
		}
	}()

	switch req.Header.CommandCode {
	case diameter.CodeCapabilitiesExchange:
		p.handleCER(req)
		return
	case diameter.CodeDeviceWatchdog:
		p.handleDWR(req)
		return
	case diameter.CodeDisconnectPeer:
		p.handleDPR(req)
		return
	}

	ans, ok := p.router.Dispatch(req)
	if !ok {
		ans = p.unsupportedAnswer(req)
	}
	p.send(ans)
}

// failureAnswer is the DIAMETER_UNABLE_TO_COMPLY answer sent when a
// handler panics: a crash must never propagate to the peer.
func (p *Peer) failureAnswer(req *diameter.Message) *diameter.Message {
	ans := &diameter.Message{Header: diameter.Header{
		Flags:         req.Header.Flags&^diameter.FlagRequest | diameter.FlagError,
		CommandCode:   req.Header.CommandCode,
		ApplicationID: req.Header.ApplicationID,
		HopByHopID:    req.Header.HopByHopID,
		EndToEndID:    req.Header.EndToEndID,
	}}
	ans.Add(diameter.NewUTF8String("origin_host", p.local.Hostname))
	ans.Add(diameter.NewUTF8String("origin_realm", p.local.Realm))
	ans.Add(diameter.NewUint32("result_code", diameter.ResultUnableToComply))
	return ans
}

func (p *Peer) unsupportedAnswer(req *diameter.Message) *diameter.Message {
	ans := &diameter.Message{Header: diameter.Header{
		Flags:         req.Header.Flags &^ diameter.FlagRequest,
		CommandCode:   req.Header.CommandCode,
		ApplicationID: req.Header.ApplicationID,
		HopByHopID:    req.Header.HopByHopID,
		EndToEndID:    req.Header.EndToEndID,
	}}
	ans.Header.Flags |= diameter.FlagError
	ans.Add(diameter.NewUTF8String("origin_host", p.local.Hostname))
	ans.Add(diameter.NewUTF8String("origin_realm", p.local.Realm))
	ans.Add(diameter.NewUint32("result_code", diameter.ResultCommandUnsupported))
	return ans
}

// registerWithManager records this peer's remote identity in the
// connection manager, if one is attached.
func (p *Peer) registerWithManager() {
	if p.manager == nil {
		return
	}
	p.mu.Lock()
	host := p.remoteHost
	p.mu.Unlock()
	if host != "" {
		p.manager.Register(host, p)
	}
}

// send queues an answer or request for serialized delivery on the
// writer goroutine.
func (p *Peer) send(msg *diameter.Message) {
	p.writeCh <- msg
}

// sendAndForget originates a request with no answer callback
// registered beyond matching it in the pending table to reap it when
// (if) it arrives.
func (p *Peer) sendAndForget(msg *diameter.Message) {
	p.pending.register(msg.Header.HopByHopID, defaultTransactionTimeout, nil)
	p.send(msg)
}

func (p *Peer) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-p.writeCh:
			if _, err := p.conn.Write(msg.Encode()); err != nil {
				p.log.Error("write failed", err)
				return
			}
		}
	}
}

// readMessage reads one complete Diameter message from r: the fixed
// 20-byte header first, to learn the declared length, then the
// remaining bytes it names.
func readMessage(r io.Reader) (*diameter.Message, error) {
	header := make([]byte, diameter.HeaderLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[0:4]) & 0x00FFFFFF
	if length < diameter.HeaderLen {
		return nil, fmt.Errorf("peer: declared message length %d shorter than header", length)
	}
	rest := make([]byte, length-diameter.HeaderLen)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	buf := append(header, rest...)
	return diameter.Decode(buf)
}
