package s6a

import (
	"context"
	"fmt"
	"sync"

	"github.com/protei/hss/internal/diameter"
	"github.com/protei/hss/internal/metrics"
	"github.com/protei/hss/internal/milenage"
)

// maxVectorsUnavailable is the threshold at which a requested vector
// count is answered with AUTHENTICATION_DATA_UNAVAILABLE rather than
// served: TS 29.272 leaves the ceiling to the implementation, this
// HSS draws the line at N >= 5.
const maxVectorsUnavailable = 5

// sqnLocks holds one mutex per IMSI, so two AIRs for the same
// subscriber serialise their SQN read and write-back.
var sqnLocks sync.Map

// HandleAIR implements the Authentication-Information command state
// machine (TS 29.272 §5.2.3.1).
func (e *Env) HandleAIR(ctx context.Context, req *diameter.Message) *diameter.Message {
	metrics.IncrRequest(e.Counters, metrics.RouteAIR)
	ans := e.handleAIR(ctx, req)
	metrics.IncrAnswer(e.Counters, metrics.RouteAIR, answerKind(ans))
	logDecision(metrics.RouteAIR, req, ans)
	return ans
}

func (e *Env) handleAIR(ctx context.Context, req *diameter.Message) *diameter.Message {
	idr := e.extractIMSI(req)
	if idr.answer != nil {
		return idr.answer
	}

	plmnAVP, errAns := e.extractVisitedPLMN(req)
	if errAns != nil {
		return errAns
	}

	reqInfo, err := req.Find("requested_eutran_authentication_info")
	if err == diameter.ErrAVPAbsent {
		return e.missingAVP(req, "Requested-EUTRAN-Authentication-Info", nil)
	}

	countAVP, err := diameter.FindChild(reqInfo, "number_of_requested_vectors")
	if err == diameter.ErrAVPAbsent {
		return e.missingAVP(req, "Number-Of-Requested-Vectors", reqInfo)
	}
	if err != nil {
		return e.invalidAVPValue(req, "Requested-EUTRAN-Authentication-Info AVP has invalid value", reqInfo)
	}
	requestedCount, err := countAVP.Uint32()
	if err != nil {
		return e.invalidAVPValue(req, "Number-Of-Requested-Vectors AVP has invalid value", countAVP)
	}

	// Re-Synchronization-Info, when present, is parsed into RAND/AUTS
	// but not acted on: SQN_MS recovery via f5*/f1* is an open item
	// (see DESIGN.md), so a resync request is served like any other.
	if resyncAVP, err := diameter.FindChild(reqInfo, "re_synchronization_info"); err == nil {
		if rs := parseResync(resyncAVP.OctetString()); rs != nil {
			log.WithIMSI(idr.imsi).Debug("re-synchronization info present, not acted on", "auts_len", len(rs.auts))
		}
	}

	lock, _ := sqnLocks.LoadOrStore(idr.imsi, &sync.Mutex{})
	lock.(*sync.Mutex).Lock()
	defer lock.(*sync.Mutex).Unlock()

	sub, errAns := e.lookupSubscriber(ctx, req, idr.imsi)
	if errAns != nil {
		return errAns
	}

	n := requestedCount
	excessAVPName := "Number-Of-Requested-Vectors"
	if irp, err := diameter.FindChild(reqInfo, "immediate_response_preferred"); err == nil {
		v, convErr := irp.Uint32()
		if convErr != nil {
			return e.invalidAVPValue(req, "Immediate-Response-Preferred AVP has invalid value", irp)
		}
		n = v
		excessAVPName = "Immediate-Response-Preferred"
	}
	if n >= maxVectorsUnavailable {
		ans := e.experimentalResult(req, diameter.ExperimentalAuthDataUnavailable)
		// experimentalResult doesn't attach error_message/failed_avp; add
		// them directly since this path names the offending AVP.
		ans.Add(diameter.NewUTF8String("error_message", fmt.Sprintf("%s AVP requests too many vectors", excessAVPName)))
		ans.Add(diameter.NewGrouped("failed_avp", reqInfo))
		return ans
	}

	plmn := plmnAVP.OctetString()
	sqn := sub.SQN
	var vectorAVPs []*diameter.AVP
	for i := uint32(1); i <= n; i++ {
		v, err := milenage.MakeVector(sub.K, sub.OPc, sub.AMF, sqnToBytes(sqn), plmn, nil)
		if err != nil {
			return e.unableToComply(req)
		}
		vectorAVPs = append(vectorAVPs, buildEUTRANVector(v, i, n))
		sqn = advanceSQN(sqn)
	}

	if err := e.Store.SetSQN(ctx, idr.imsi, sqn); err != nil {
		return e.unableToComply(req)
	}

	ans := e.success(req)
	ans.Add(diameter.NewGrouped("authentication_info", vectorAVPs...))
	return ans
}

func buildEUTRANVector(v *milenage.Vector, itemNumber, total uint32) *diameter.AVP {
	children := []*diameter.AVP{
		diameter.New("rand", v.RAND[:]),
		diameter.New("xres", v.XRES),
		diameter.New("autn", v.AUTN[:]),
		diameter.New("kasme", v.KASME[:]),
	}
	if total > 1 {
		children = append([]*diameter.AVP{diameter.NewUint32("item_number", itemNumber)}, children...)
	}
	return diameter.NewGrouped("e_utran_vector", children...)
}

// advanceSQN implements the per-IMSI monotonic counter decided for the
// open SQN-advancement item (see DESIGN.md): increment by one per
// generated vector.
func advanceSQN(sqn uint64) uint64 {
	return (sqn + 1) & 0xFFFFFFFFFFFF // SQN is a 48-bit field
}

func sqnToBytes(sqn uint64) []byte {
	b := make([]byte, 6)
	b[0] = byte(sqn >> 40)
	b[1] = byte(sqn >> 32)
	b[2] = byte(sqn >> 24)
	b[3] = byte(sqn >> 16)
	b[4] = byte(sqn >> 8)
	b[5] = byte(sqn)
	return b
}

// resync holds the RAND/AUTS pair a UE returns when it rejects the
// SQN carried in a previous challenge.
type resync struct {
	rand [16]byte
	auts []byte
}

// parseResync splits a Re-Synchronization-Info payload into RAND (the
// first 16 bytes) and AUTS (the remainder), per TS 29.272 §7.3.13.
// The returned value is not currently used for SQN_MS recovery.
func parseResync(data []byte) *resync {
	if len(data) < 16 {
		return nil
	}
	r := &resync{}
	copy(r.rand[:], data[:16])
	r.auts = append([]byte(nil), data[16:]...)
	return r
}
