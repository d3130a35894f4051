package s6a

import (
	"github.com/protei/hss/internal/diameter"
)

// newAnswer builds the answer skeleton shared by every S6a response:
// same hop-by-hop/end-to-end identifiers and command code as the
// request with the Request flag cleared, plus the mandatory
// Origin-Host/Origin-Realm/Session-Id/Auth-Session-State/
// Vendor-Specific-Application-Id preamble.
func (e *Env) newAnswer(req *diameter.Message) *diameter.Message {
	ans := &diameter.Message{
		Header: diameter.Header{
			Flags:         req.Header.Flags &^ diameter.FlagRequest,
			CommandCode:   req.Header.CommandCode,
			ApplicationID: req.Header.ApplicationID,
			HopByHopID:    req.Header.HopByHopID,
			EndToEndID:    req.Header.EndToEndID,
		},
	}
	if sid, err := req.Find("session_id"); err == nil {
		ans.Add(sid)
	}
	ans.Add(diameter.NewUTF8String("origin_host", e.LocalHost))
	ans.Add(diameter.NewUTF8String("origin_realm", e.LocalRealm))
	ans.Add(diameter.NewUint32("auth_session_state", 1)) // NO_STATE_MAINTAINED
	ans.Add(diameter.NewGrouped("vendor_specific_application_id",
		diameter.NewUint32("vendor_id", diameter.Vendor3GPP),
		diameter.NewUint32("auth_application_id", diameter.ApplicationS6a),
	))
	return ans
}

// success builds a DIAMETER_SUCCESS answer.
func (e *Env) success(req *diameter.Message) *diameter.Message {
	ans := e.newAnswer(req)
	ans.Add(diameter.NewUint32("result_code", diameter.ResultSuccess))
	return ans
}

// baseError builds an answer carrying a base-protocol result code,
// with the Error flag set, and an Error-Message AVP when message is
// non-empty.
func (e *Env) baseError(req *diameter.Message, code uint32, message string) *diameter.Message {
	ans := e.newAnswer(req)
	ans.Header.Flags |= diameter.FlagError
	ans.Add(diameter.NewUint32("result_code", code))
	if message != "" {
		ans.Add(diameter.NewUTF8String("error_message", message))
	}
	return ans
}

// missingAVP builds a DIAMETER_MISSING_AVP answer naming the absent
// AVP, optionally attaching the enclosing grouped AVP as failed-avp.
func (e *Env) missingAVP(req *diameter.Message, avpDisplayName string, failedAVP *diameter.AVP) *diameter.Message {
	ans := e.baseError(req, diameter.ResultMissingAVP, avpDisplayName+" AVP not found")
	if failedAVP != nil {
		ans.Add(diameter.NewGrouped("failed_avp", failedAVP))
	}
	return ans
}

// invalidAVPValue builds a DIAMETER_INVALID_AVP_VALUE answer with the
// offending AVP attached as failed-avp.
func (e *Env) invalidAVPValue(req *diameter.Message, message string, failedAVP *diameter.AVP) *diameter.Message {
	ans := e.baseError(req, diameter.ResultInvalidAVPValue, message)
	if failedAVP != nil {
		ans.Add(diameter.NewGrouped("failed_avp", failedAVP))
	}
	return ans
}

// experimentalResult builds an answer carrying a 3GPP
// Experimental-Result grouped AVP instead of the base Result-Code.
func (e *Env) experimentalResult(req *diameter.Message, code uint32) *diameter.Message {
	ans := e.newAnswer(req)
	if code != diameter.ResultSuccess {
		ans.Header.Flags |= diameter.FlagError
	}
	ans.Add(diameter.NewGrouped("experimental_result",
		diameter.NewUint32("vendor_id", diameter.Vendor3GPP),
		diameter.NewUint32("experimental_result_code", code),
	))
	return ans
}

// unableToComply builds the DIAMETER_UNABLE_TO_COMPLY answer used
// when a handler hits an unexpected internal failure rather than a
// protocol-level error.
func (e *Env) unableToComply(req *diameter.Message) *diameter.Message {
	return e.baseError(req, diameter.ResultUnableToComply, "")
}
