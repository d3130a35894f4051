package peer

import (
	"context"
	"fmt"

	"github.com/protei/hss/internal/diameter"
)

// OriginateCLR sends a Cancel-Location-Request to destinationHost for
// imsi and returns without waiting for the answer, per the
// send_and_forget semantics the MME-change path on Update-Location
// requires. Any arriving CLA is matched against the pending table and
// discarded by handleInboundAnswer.
func (p *Peer) OriginateCLR(ctx context.Context, destinationHost, imsi string) {
	req := &diameter.Message{Header: diameter.Header{
		Flags:         diameter.FlagRequest | diameter.FlagProxiable,
		CommandCode:   diameter.CodeCancelLocation,
		ApplicationID: diameter.ApplicationS6a,
		HopByHopID:    p.ids.nextHopByHop(),
		EndToEndID:    p.ids.nextEndToEnd(),
	}}
	req.Add(diameter.NewUTF8String("session_id", fmt.Sprintf("%s;%d", p.local.Hostname, req.Header.HopByHopID)))
	req.Add(diameter.NewUTF8String("origin_host", p.local.Hostname))
	req.Add(diameter.NewUTF8String("origin_realm", p.local.Realm))
	req.Add(diameter.NewUTF8String("destination_host", destinationHost))
	req.Add(diameter.NewUTF8String("destination_realm", p.local.Realm))
	req.Add(diameter.NewGrouped("vendor_specific_application_id",
		diameter.NewUint32("vendor_id", diameter.Vendor3GPP),
		diameter.NewUint32("auth_application_id", diameter.ApplicationS6a),
	))
	req.Add(diameter.NewUint32("auth_session_state", 1))
	req.Add(diameter.NewUTF8String("user_name", imsi))
	req.Add(diameter.NewUint32("cancellation_type", diameter.CancellationMMEUpdateProcedure))

	p.sendAndForget(req)
	p.log.Info("originated CLR", "imsi", imsi, "destination_host", destinationHost)
}
