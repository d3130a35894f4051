package peer

import "github.com/protei/hss/internal/diameter"

// handleDPR answers a peer-initiated Disconnect-Peer-Request and
// moves this end into Closing; the caller's read loop observes EOF
// shortly after and tears the connection down.
func (p *Peer) handleDPR(req *diameter.Message) {
	ans := &diameter.Message{Header: diameter.Header{
		Flags:         req.Header.Flags &^ diameter.FlagRequest,
		CommandCode:   diameter.CodeDisconnectPeer,
		ApplicationID: diameter.ApplicationBase,
		HopByHopID:    req.Header.HopByHopID,
		EndToEndID:    req.Header.EndToEndID,
	}}
	ans.Add(diameter.NewUint32("result_code", diameter.ResultSuccess))
	ans.Add(diameter.NewUTF8String("origin_host", p.local.Hostname))
	ans.Add(diameter.NewUTF8String("origin_realm", p.local.Realm))
	p.send(ans)
	p.setState(StateClosing)
}

// Disconnect-Cause values (RFC 6733 §5.4.3).
const (
	disconnectCauseRebooting  uint32 = 0
	disconnectCauseBusy       uint32 = 1
	disconnectCauseDoNotWant  uint32 = 2
)

// Disconnect originates a Disconnect-Peer-Request, moving this end
// into Closing before the transport is torn down.
func (p *Peer) Disconnect() {
	req := &diameter.Message{Header: diameter.Header{
		Flags:         diameter.FlagRequest,
		CommandCode:   diameter.CodeDisconnectPeer,
		ApplicationID: diameter.ApplicationBase,
		HopByHopID:    p.ids.nextHopByHop(),
		EndToEndID:    p.ids.nextEndToEnd(),
	}}
	req.Add(diameter.NewUTF8String("origin_host", p.local.Hostname))
	req.Add(diameter.NewUTF8String("origin_realm", p.local.Realm))
	req.Add(diameter.NewUint32("disconnect_cause", disconnectCauseDoNotWant))
	p.pending.register(req.Header.HopByHopID, defaultTransactionTimeout, nil)
	p.send(req)
	p.setState(StateClosing)
}
