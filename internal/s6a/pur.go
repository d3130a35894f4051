package s6a

import (
	"context"

	"github.com/protei/hss/internal/diameter"
	"github.com/protei/hss/internal/metrics"
)

// puaFlagUEPurged is the PUA-Flags bit set when the purging node
// matches the subscriber's registered MME, or when no MME is
// registered at all (TS 29.272 §7.3.35).
const puaFlagUEPurged uint32 = 0x00000001

// HandlePUR implements the Purge-UE command state machine (TS 29.272
// §5.2.5.1).
func (e *Env) HandlePUR(ctx context.Context, req *diameter.Message) *diameter.Message {
	metrics.IncrRequest(e.Counters, metrics.RoutePUR)
	ans := e.handlePUR(ctx, req)
	metrics.IncrAnswer(e.Counters, metrics.RoutePUR, answerKind(ans))
	logDecision(metrics.RoutePUR, req, ans)
	return ans
}

func (e *Env) handlePUR(ctx context.Context, req *diameter.Message) *diameter.Message {
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

	ans := e.success(req)
	if sub.MMEHostname != "" && sub.MMEHostname != originHost {
		ans.Add(diameter.NewUint32("pua_flags", 0))
		return ans
	}
	ans.Add(diameter.NewUint32("pua_flags", puaFlagUEPurged))
	return ans
}
