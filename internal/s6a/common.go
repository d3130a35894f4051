package s6a

import (
	"context"

	"github.com/protei/hss/internal/diameter"
	"github.com/protei/hss/internal/logger"
	"github.com/protei/hss/internal/metrics"
	"github.com/protei/hss/internal/store"
)

var log = logger.Get().WithComponent("s6a")

// logDecision records the IMSI, command route, and result kind on
// every decision edge a handler reaches, matching the detail level
// the peer layer logs protocol events at.
func logDecision(route metrics.Route, req, ans *diameter.Message) {
	imsi := "-"
	if un, err := req.Find("user_name"); err == nil {
		imsi = un.UTF8String()
	}
	log.WithIMSI(imsi).Info("handled request", "route", string(route), "result", string(answerKind(ans)))
}

// imsiResult is the outcome of extracting and validating user_name as
// an IMSI: either a valid 15-digit imsi, or an answer already built
// for the missing/invalid case.
type imsiResult struct {
	imsi   string
	answer *diameter.Message
}

// extractIMSI implements the User-Name extraction and validation
// shared by all four command handlers.
func (e *Env) extractIMSI(req *diameter.Message) imsiResult {
	un, err := req.Find("user_name")
	if err == diameter.ErrAVPAbsent {
		return imsiResult{answer: e.missingAVP(req, "User-Name", nil)}
	}
	imsi := un.UTF8String()
	if !isValidIMSI(imsi) {
		return imsiResult{answer: e.invalidAVPValue(req, "User-Name AVP has invalid value", un)}
	}
	return imsiResult{imsi: imsi}
}

func isValidIMSI(s string) bool {
	if len(s) != 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// extractVisitedPLMN implements the Visited-PLMN-Id extraction shared
// by AIR and ULR.
func (e *Env) extractVisitedPLMN(req *diameter.Message) (*diameter.AVP, *diameter.Message) {
	plmn, err := req.Find("visited_plmn_id")
	if err == diameter.ErrAVPAbsent {
		return nil, e.missingAVP(req, "Visited-PLMN-Id", nil)
	}
	return plmn, nil
}

// lookupSubscriber resolves a subscriber by IMSI, translating
// store.ErrNotFound into the ERROR_USER_UNKNOWN experimental answer.
func (e *Env) lookupSubscriber(ctx context.Context, req *diameter.Message, imsi string) (*store.Subscriber, *diameter.Message) {
	sub, err := e.Store.GetByIMSI(ctx, imsi)
	if err == store.ErrNotFound {
		return nil, e.experimentalResult(req, diameter.ExperimentalUserUnknown)
	}
	if err != nil {
		return nil, e.unableToComply(req)
	}
	return sub, nil
}

// answerKind maps an outgoing answer back to the fixed metrics kind
// set, for the counter increment every route performs.
func answerKind(ans *diameter.Message) metrics.AnswerKind {
	if rc, err := ans.Find("result_code"); err == nil {
		if v, _ := rc.Uint32(); v == diameter.ResultSuccess {
			return metrics.KindSuccess
		}
		if v, _ := rc.Uint32(); v == diameter.ResultMissingAVP {
			return metrics.KindMissingAVP
		}
		if v, _ := rc.Uint32(); v == diameter.ResultInvalidAVPValue {
			return metrics.KindInvalidAVPValue
		}
		if v, _ := rc.Uint32(); v == diameter.ResultRealmNotServed {
			return metrics.KindRealmNotServed
		}
	}
	exp, err := ans.Find("experimental_result")
	if err != nil {
		return metrics.KindSuccess
	}
	codeAVP, err := diameter.FindChild(exp, "experimental_result_code")
	if err != nil {
		return metrics.KindSuccess
	}
	code, _ := codeAVP.Uint32()
	switch code {
	case diameter.ExperimentalUserUnknown:
		return metrics.KindUserUnknown
	case diameter.ExperimentalRoamingNotAllowed:
		return metrics.KindRoamingNotAllowed
	case diameter.ExperimentalUnknownEPSSubscription:
		return metrics.KindUnknownEPSSubscription
	case diameter.ExperimentalRATNotAllowed:
		return metrics.KindRATNotAllowed
	case diameter.ExperimentalUnknownServingNode:
		return metrics.KindUnknownServingNode
	case diameter.ExperimentalAuthDataUnavailable:
		return metrics.KindAuthenticationDataUnavailable
	default:
		return metrics.KindSuccess
	}
}
