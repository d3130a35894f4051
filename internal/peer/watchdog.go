package peer

import (
	"context"
	"time"

	"github.com/protei/hss/internal/diameter"
)

// watchdogInterval is the period at which this HSS originates a
// Device-Watchdog-Request on an I-Open connection (RFC 3539
// recommends 30s).
const watchdogInterval = 30 * time.Second

// handleDWR answers an inbound Device-Watchdog-Request. It never
// changes connection state: the watchdog exchange is purely a
// liveness signal.
func (p *Peer) handleDWR(req *diameter.Message) {
	ans := &diameter.Message{Header: diameter.Header{
		Flags:         req.Header.Flags &^ diameter.FlagRequest,
		CommandCode:   diameter.CodeDeviceWatchdog,
		ApplicationID: diameter.ApplicationBase,
		HopByHopID:    req.Header.HopByHopID,
		EndToEndID:    req.Header.EndToEndID,
	}}
	ans.Add(diameter.NewUint32("result_code", diameter.ResultSuccess))
	ans.Add(diameter.NewUTF8String("origin_host", p.local.Hostname))
	ans.Add(diameter.NewUTF8String("origin_realm", p.local.Realm))
	p.send(ans)
}

// watchdogLoop originates a Device-Watchdog-Request every
// watchdogInterval while the connection is in I-Open. The timer runs
// on a fixed period: other traffic on the connection does not reset
// it, so a busy connection is probed as often as an idle one.
func (p *Peer) watchdogLoop(ctx context.Context) {
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.getState() != StateIOpen {
				continue
			}
			p.sendDWR()
		}
	}
}

func (p *Peer) sendDWR() {
	req := &diameter.Message{Header: diameter.Header{
		Flags:         diameter.FlagRequest,
		CommandCode:   diameter.CodeDeviceWatchdog,
		ApplicationID: diameter.ApplicationBase,
		HopByHopID:    p.ids.nextHopByHop(),
		EndToEndID:    p.ids.nextEndToEnd(),
	}}
	req.Add(diameter.NewUTF8String("origin_host", p.local.Hostname))
	req.Add(diameter.NewUTF8String("origin_realm", p.local.Realm))
	p.pending.register(req.Header.HopByHopID, defaultTransactionTimeout, nil)
	p.send(req)
}
