package s6a

import (
	"context"

	"github.com/protei/hss/internal/diameter"
	"github.com/protei/hss/internal/metrics"
)

// HandleNOR implements the Notify command state machine (TS 29.272
// §5.2.6.1).
func (e *Env) HandleNOR(ctx context.Context, req *diameter.Message) *diameter.Message {
	metrics.IncrRequest(e.Counters, metrics.RouteNOR)
	ans := e.handleNOR(ctx, req)
	metrics.IncrAnswer(e.Counters, metrics.RouteNOR, answerKind(ans))
	logDecision(metrics.RouteNOR, req, ans)
	return ans
}

func (e *Env) handleNOR(ctx context.Context, req *diameter.Message) *diameter.Message {
	idr := e.extractIMSI(req)
	if idr.answer != nil {
		return idr.answer
	}

	sub, errAns := e.lookupSubscriber(ctx, req, idr.imsi)
	if errAns != nil {
		return errAns
	}

	originHostAVP, _ := req.Find("origin_host")
	originHost := ""
	if originHostAVP != nil {
		originHost = originHostAVP.UTF8String()
	}
	if sub.MMEHostname != "" && sub.MMEHostname != originHost {
		return e.experimentalResult(req, diameter.ExperimentalUnknownServingNode)
	}

	contextIDAVP, err := req.Find("context_identifier")
	if err == diameter.ErrAVPAbsent {
		return e.missingAVP(req, "Context-Identifier", nil)
	}
	contextID, err := contextIDAVP.Uint32()
	if err != nil {
		return e.invalidAVPValue(req, "Context-Identifier AVP has invalid value", contextIDAVP)
	}

	if _, err := req.Find("service_selection"); err == diameter.ErrAVPAbsent {
		return e.missingAVP(req, "Service-Selection", nil)
	}

	mip6Info, err := req.Find("mip6_agent_info")
	if err == diameter.ErrAVPAbsent {
		return e.missingAVP(req, "MIP6-Agent-Info", nil)
	}

	homeAgentHost, err := diameter.FindChild(mip6Info, "mip_home_agent_host")
	if err == diameter.ErrAVPAbsent {
		return e.missingAVP(req, "MIP-Home-Agent-Host", mip6Info)
	}
	if err != nil {
		return e.invalidAVPValue(req, "MIP6-Agent-Info AVP has invalid value", mip6Info)
	}

	destHostAVP, err := diameter.FindChild(homeAgentHost, "destination_host")
	if err == diameter.ErrAVPAbsent {
		return e.missingAVP(req, "Destination-Host", mip6Info)
	}
	if err != nil {
		return e.invalidAVPValue(req, "MIP-Home-Agent-Host AVP has invalid value", mip6Info)
	}
	destRealmAVP, err := diameter.FindChild(homeAgentHost, "destination_realm")
	if err == diameter.ErrAVPAbsent {
		return e.missingAVP(req, "Destination-Realm", mip6Info)
	}
	if err != nil {
		return e.invalidAVPValue(req, "MIP-Home-Agent-Host AVP has invalid value", mip6Info)
	}

	if err := e.Store.SetMIP6(ctx, idr.imsi, contextID, destHostAVP.UTF8String(), destRealmAVP.UTF8String()); err != nil {
		return e.unableToComply(req)
	}

	return e.success(req)
}
