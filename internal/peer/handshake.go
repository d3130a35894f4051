package peer

import (
	"github.com/protei/hss/internal/diameter"
)

// handleCER answers a peer's Capability-Exchange-Request, checking the
// application overlap the S6a reference point requires and advancing
// the connection from Wait-Conn-Ack into I-Open.
func (p *Peer) handleCER(req *diameter.Message) {
	originHost, _ := req.Find("origin_host")
	originRealm, _ := req.Find("origin_realm")
	if originHost != nil {
		p.mu.Lock()
		p.remoteHost = originHost.UTF8String()
		p.mu.Unlock()
	}
	if originRealm != nil {
		p.mu.Lock()
		p.remoteRealm = originRealm.UTF8String()
		p.mu.Unlock()
	}

	ans := p.capabilityAnswer(req, diameter.ResultSuccess)
	if !p.sharesApplication(req) {
		ans = p.capabilityAnswer(req, diameter.ResultCommandUnsupported)
	}

	p.send(ans)
	if ans.Header.IsError() {
		p.setState(StateClosing)
		return
	}
	p.setState(StateIOpen)
	p.log.Info("capability exchange complete", "peer", p.remoteHost)
	p.registerWithManager()
}

// sharesApplication reports whether req advertises the S6a
// application-id this HSS serves, via either Auth-Application-Id or
// Vendor-Specific-Application-Id.
func (p *Peer) sharesApplication(req *diameter.Message) bool {
	if avp, err := req.Find("auth_application_id"); err == nil {
		if v, err := avp.Uint32(); err == nil && v == diameter.ApplicationS6a {
			return true
		}
	}
	vsas, _ := req.FindAll("vendor_specific_application_id")
	for _, vsa := range vsas {
		appID, err := diameter.FindChild(vsa, "auth_application_id")
		if err != nil {
			continue
		}
		if v, err := appID.Uint32(); err == nil && v == diameter.ApplicationS6a {
			return true
		}
	}
	return false
}

func (p *Peer) capabilityAnswer(req *diameter.Message, resultCode uint32) *diameter.Message {
	ans := &diameter.Message{Header: diameter.Header{
		Flags:         req.Header.Flags &^ diameter.FlagRequest,
		CommandCode:   diameter.CodeCapabilitiesExchange,
		ApplicationID: diameter.ApplicationBase,
		HopByHopID:    req.Header.HopByHopID,
		EndToEndID:    req.Header.EndToEndID,
	}}
	if resultCode != diameter.ResultSuccess {
		ans.Header.Flags |= diameter.FlagError
	}
	ans.Add(diameter.NewUint32("result_code", resultCode))
	ans.Add(diameter.NewUTF8String("origin_host", p.local.Hostname))
	ans.Add(diameter.NewUTF8String("origin_realm", p.local.Realm))
	for _, ip := range p.local.HostIPs {
		ans.Add(diameter.NewAddress("host_ip_address", ip))
	}
	ans.Add(diameter.NewUint32("vendor_id", p.local.VendorID))
	ans.Add(diameter.NewUTF8String("product_name", p.local.ProductName))
	for _, appID := range p.local.ApplicationIDs {
		ans.Add(diameter.NewGrouped("vendor_specific_application_id",
			diameter.NewUint32("vendor_id", diameter.Vendor3GPP),
			diameter.NewUint32("auth_application_id", appID),
		))
	}
	return ans
}

// sendCER originates a Capability-Exchange-Request on a freshly dialed
// connection, moving the state from Wait-Conn-Ack to Wait-I-CEA.
func (p *Peer) sendCER() {
	req := &diameter.Message{Header: diameter.Header{
		Flags:         diameter.FlagRequest,
		CommandCode:   diameter.CodeCapabilitiesExchange,
		ApplicationID: diameter.ApplicationBase,
		HopByHopID:    p.ids.nextHopByHop(),
		EndToEndID:    p.ids.nextEndToEnd(),
	}}
	req.Add(diameter.NewUTF8String("origin_host", p.local.Hostname))
	req.Add(diameter.NewUTF8String("origin_realm", p.local.Realm))
	for _, ip := range p.local.HostIPs {
		req.Add(diameter.NewAddress("host_ip_address", ip))
	}
	req.Add(diameter.NewUint32("vendor_id", p.local.VendorID))
	req.Add(diameter.NewUTF8String("product_name", p.local.ProductName))
	for _, appID := range p.local.ApplicationIDs {
		req.Add(diameter.NewGrouped("vendor_specific_application_id",
			diameter.NewUint32("vendor_id", diameter.Vendor3GPP),
			diameter.NewUint32("auth_application_id", appID),
		))
	}
	p.setState(StateWaitICEA)
	p.pending.register(req.Header.HopByHopID, defaultTransactionTimeout, nil)
	p.send(req)
}
