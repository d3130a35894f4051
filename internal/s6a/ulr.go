package s6a

import (
	"context"

	"github.com/protei/hss/internal/diameter"
	"github.com/protei/hss/internal/metrics"
	"github.com/protei/hss/internal/plmn"
	"github.com/protei/hss/internal/store"
)

// ulaFeatureListODB is the Feature-List value advertising ODB
// all/HPLMN/VPLMN support (bits 0..2), attached to every ULA.
const ulaFeatureListODB uint32 = 0x00000007

// ulaFlagsSeparation is the ULA-Flags separation bit this HSS always
// sets (TS 29.272 §7.3.11).
const ulaFlagsSeparation uint32 = 0x00000001

// HandleULR implements the Update-Location command state machine
// (TS 29.272 §5.2.1.1).
func (e *Env) HandleULR(ctx context.Context, req *diameter.Message) *diameter.Message {
	metrics.IncrRequest(e.Counters, metrics.RouteULR)
	ans := e.handleULR(ctx, req)
	metrics.IncrAnswer(e.Counters, metrics.RouteULR, answerKind(ans))
	logDecision(metrics.RouteULR, req, ans)
	return ans
}

func (e *Env) attachULAPreamble(ans *diameter.Message) {
	ans.Add(diameter.NewGrouped("supported_features",
		diameter.NewUint32("vendor_id", diameter.Vendor3GPP),
		diameter.NewUint32("feature_list_id", 1),
		diameter.NewUint32("feature_list", ulaFeatureListODB),
	))
	ans.Add(diameter.NewUint32("ula_flags", ulaFlagsSeparation))
}

func (e *Env) handleULR(ctx context.Context, req *diameter.Message) *diameter.Message {
	idr := e.extractIMSI(req)
	if idr.answer != nil {
		e.attachULAPreamble(idr.answer)
		return idr.answer
	}

	_, errAns := e.extractVisitedPLMN(req)
	if errAns != nil {
		e.attachULAPreamble(errAns)
		return errAns
	}

	ratAVP, err := req.Find("rat_type")
	if err == diameter.ErrAVPAbsent {
		ans := e.missingAVP(req, "RAT-Type", nil)
		e.attachULAPreamble(ans)
		return ans
	}
	rat, err := ratAVP.Uint32()
	if err != nil || rat != diameter.RATTypeEUTRAN {
		ans := e.experimentalResult(req, diameter.ExperimentalRATNotAllowed)
		e.attachULAPreamble(ans)
		return ans
	}

	sub, errAns := e.lookupSubscriber(ctx, req, idr.imsi)
	if errAns != nil {
		e.attachULAPreamble(errAns)
		return errAns
	}

	originRealmAVP, _ := req.Find("origin_realm")
	destRealmAVP, _ := req.Find("destination_realm")
	originRealm := ""
	if originRealmAVP != nil {
		originRealm = originRealmAVP.UTF8String()
	}
	destRealm := ""
	if destRealmAVP != nil {
		destRealm = destRealmAVP.UTF8String()
	}

	if !sub.RoamingAllowed && isRoaming(originRealm, destRealm) {
		if !plmn.IsThreeGPPRealm(originRealm) {
			ans := e.baseError(req, diameter.ResultRealmNotServed,
				"Origin-Realm must be in mncNNN.mccNNN.3gppnetwork.org form")
			e.attachULAPreamble(ans)
			return ans
		}
		ans := e.experimentalResult(req, diameter.ExperimentalRoamingNotAllowed)
		ans.Add(diameter.NewUint32("error_diagnostic", odbDiagnostic(sub.ODB)))
		e.attachULAPreamble(ans)
		return ans
	}

	if len(sub.APNs) == 0 {
		ans := e.experimentalResult(req, diameter.ExperimentalUnknownEPSSubscription)
		e.attachULAPreamble(ans)
		return ans
	}

	originHostAVP, _ := req.Find("origin_host")
	originHost := ""
	if originHostAVP != nil {
		originHost = originHostAVP.UTF8String()
	}
	if sub.MMEHostname != "" && sub.MMEHostname != originHost {
		e.CLR.OriginateCLR(ctx, sub.MMEHostname, idr.imsi)
	}

	srvcc := store.TriUnknown
	if capAVP, err := req.Find("ue_srvcc_capability"); err == nil {
		if v, convErr := capAVP.Uint32(); convErr == nil {
			// UE-SRVCC-NOT-SUPPORTED (0), UE-SRVCC-SUPPORTED (1).
			switch v {
			case 0:
				srvcc = store.TriFalse
			case 1:
				srvcc = store.TriTrue
			}
		}
	}
	if err := e.Store.SetMME(ctx, idr.imsi, originHost, originRealm, srvcc); err != nil {
		ans := e.unableToComply(req)
		e.attachULAPreamble(ans)
		return ans
	}
	sub.MMEHostname = originHost
	sub.MMERealm = originRealm
	sub.UESRVCCSupport = srvcc

	ans := e.success(req)
	e.attachULAPreamble(ans)
	ans.Add(buildSubscriptionData(sub))
	return ans
}

func isRoaming(originRealm, destRealm string) bool {
	return destRealm != originRealm
}

func odbDiagnostic(o store.ODB) uint32 {
	switch o {
	case store.ODBHPLMNAPN:
		return diameter.DiagODBHPLMNAPN
	case store.ODBVPLMNAPN:
		return diameter.DiagODBVPLMNAPN
	default:
		return diameter.DiagODBAllAPN
	}
}
