package s6a

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/protei/hss/internal/diameter"
	"github.com/protei/hss/internal/metrics"
	"github.com/protei/hss/internal/store"
)

type fakeCLR struct {
	calls []string
}

func (f *fakeCLR) OriginateCLR(_ context.Context, destinationHost, imsi string) {
	f.calls = append(f.calls, destinationHost+"/"+imsi)
}

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

func newTestEnv(t *testing.T) (*Env, *store.MemoryStore, *metrics.MemoryCounters, *fakeCLR) {
	t.Helper()
	ms := store.NewMemoryStore()
	mc := metrics.NewMemoryCounters()
	clr := &fakeCLR{}
	env := &Env{
		LocalHost:  "hss.epc.example.com",
		LocalRealm: "epc.example.com",
		Store:      ms,
		Counters:   mc,
		CLR:        clr,
	}
	return env, ms, mc, clr
}

func seedSubscriber(t *testing.T) *store.Subscriber {
	return &store.Subscriber{
		IMSI:           "999000000000001",
		MSISDN:         "1555000111",
		K:              hexBytes(t, "465b5ce8b199b49faa5f0a2ee238a6bc"),
		OPc:            hexBytes(t, "013d7d16d7ad4fefb61bd95b765c8ceb"),
		AMF:            hexBytes(t, "b9b9"),
		SQN:            0xff9bb4d0b607,
		RoamingAllowed: true,
		ODB:            store.ODBNone,
		SCHAR:          8,
		DefaultAPN:     1,
		APNs: []store.APN{
			{ContextID: 1, ServiceSelection: "internet", PDNType: 0, QCI: 9, PriorityLevel: 8},
		},
		MIP6s: []store.MIP6{{ContextID: 1, ServiceSelection: "internet"}},
	}
}

func buildAIR(imsi string, plmn []byte, numVectors uint32, immediate *uint32) *diameter.Message {
	msg := &diameter.Message{Header: diameter.Header{
		Flags: diameter.FlagRequest, CommandCode: diameter.CodeAuthenticationInfo, ApplicationID: diameter.ApplicationS6a,
	}}
	if imsi != "" {
		msg.Add(diameter.NewUTF8String("user_name", imsi))
	}
	if plmn != nil {
		msg.Add(diameter.New("visited_plmn_id", plmn))
	}
	var children []*diameter.AVP
	children = append(children, diameter.NewUint32("number_of_requested_vectors", numVectors))
	if immediate != nil {
		children = append(children, diameter.NewUint32("immediate_response_preferred", *immediate))
	}
	msg.Add(diameter.NewGrouped("requested_eutran_authentication_info", children...))
	return msg
}

func resultCode(t *testing.T, ans *diameter.Message) (uint32, bool) {
	t.Helper()
	if rc, err := ans.Find("result_code"); err == nil {
		v, _ := rc.Uint32()
		return v, false
	}
	exp, err := ans.Find("experimental_result")
	if err != nil {
		t.Fatalf("answer has neither result_code nor experimental_result")
	}
	codeAVP, err := diameter.FindChild(exp, "experimental_result_code")
	if err != nil {
		t.Fatalf("experimental_result missing code: %v", err)
	}
	v, _ := codeAVP.Uint32()
	return v, true
}

func TestAIRMissingUserName(t *testing.T) {
	env, _, _, _ := newTestEnv(t)
	req := buildAIR("", hexBytes(t, "09f107"), 1, nil)
	ans := env.HandleAIR(context.Background(), req)
	rc, _ := resultCode(t, ans)
	if rc != diameter.ResultMissingAVP {
		t.Fatalf("result = %d, want MISSING_AVP", rc)
	}
	msg, err := ans.Find("error_message")
	if err != nil || msg.UTF8String() != "User-Name AVP not found" {
		t.Fatalf("unexpected error_message: %v %v", msg, err)
	}
}

func TestAIRInvalidIMSILength(t *testing.T) {
	env, _, _, _ := newTestEnv(t)
	req := buildAIR("999000000000", hexBytes(t, "09f107"), 1, nil)
	ans := env.HandleAIR(context.Background(), req)
	rc, _ := resultCode(t, ans)
	if rc != diameter.ResultInvalidAVPValue {
		t.Fatalf("result = %d, want INVALID_AVP_VALUE", rc)
	}
	if _, err := ans.Find("failed_avp"); err != nil {
		t.Fatalf("expected failed_avp: %v", err)
	}
}

func TestAIRUnknownIMSI(t *testing.T) {
	env, _, _, _ := newTestEnv(t)
	req := buildAIR("999000000000001", hexBytes(t, "09f107"), 1, nil)
	ans := env.HandleAIR(context.Background(), req)
	rc, isExp := resultCode(t, ans)
	if !isExp || rc != diameter.ExperimentalUserUnknown {
		t.Fatalf("result = %d (exp=%v), want ERROR_USER_UNKNOWN", rc, isExp)
	}
}

func TestAIRSuccessTwoVectors(t *testing.T) {
	env, ms, mc, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	req := buildAIR("999000000000001", hexBytes(t, "09f107"), 2, nil)
	ans := env.HandleAIR(context.Background(), req)
	rc, isExp := resultCode(t, ans)
	if isExp || rc != diameter.ResultSuccess {
		t.Fatalf("result = %d (exp=%v), want SUCCESS", rc, isExp)
	}

	info, err := ans.Find("authentication_info")
	if err != nil {
		t.Fatalf("Find(authentication_info): %v", err)
	}
	vectors, err := info.AsGrouped()
	if err != nil {
		t.Fatalf("AsGrouped: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		item, err := diameter.FindChild(v, "item_number")
		if err != nil {
			t.Fatalf("vector %d missing item_number: %v", i, err)
		}
		n, _ := item.Uint32()
		if n != uint32(i+1) {
			t.Fatalf("vector %d item_number = %d, want %d", i, n, i+1)
		}
	}

	if got := mc.Get("air:num_requests"); got != 1 {
		t.Errorf("air:num_requests = %d, want 1", got)
	}
	if got := mc.Get("air:num_answers:success"); got != 1 {
		t.Errorf("air:num_answers:success = %d, want 1", got)
	}
}

func TestAIRImmediateResponsePreferredUnavailable(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	five := uint32(5)
	req := buildAIR("999000000000001", hexBytes(t, "09f107"), 1, &five)
	ans := env.HandleAIR(context.Background(), req)
	rc, isExp := resultCode(t, ans)
	if !isExp || rc != diameter.ExperimentalAuthDataUnavailable {
		t.Fatalf("result = %d (exp=%v), want AUTHENTICATION_DATA_UNAVAILABLE", rc, isExp)
	}
	msg, err := ans.Find("error_message")
	if err != nil {
		t.Fatalf("expected error_message: %v", err)
	}
	if want := "Immediate-Response-Preferred"; !contains(msg.UTF8String(), want) {
		t.Errorf("error_message %q does not mention %q", msg.UTF8String(), want)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func buildULR(imsi, originHost, originRealm, destRealm string, ratType uint32) *diameter.Message {
	msg := &diameter.Message{Header: diameter.Header{
		Flags: diameter.FlagRequest, CommandCode: diameter.CodeUpdateLocation, ApplicationID: diameter.ApplicationS6a,
	}}
	msg.Add(diameter.NewUTF8String("user_name", imsi))
	msg.Add(diameter.New("visited_plmn_id", []byte{0x09, 0xf1, 0x07}))
	msg.Add(diameter.NewUint32("rat_type", ratType))
	msg.Add(diameter.NewUTF8String("origin_host", originHost))
	msg.Add(diameter.NewUTF8String("origin_realm", originRealm))
	msg.Add(diameter.NewUTF8String("destination_realm", destRealm))
	return msg
}

func TestULRRoamingNotAllowed(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	sub := seedSubscriber(t)
	sub.RoamingAllowed = false
	sub.ODB = store.ODBAllAPN
	ms.Put(sub)

	req := buildULR(sub.IMSI, "mme1.example.com", "mnc005.mcc724.3gppnetwork.org", "mnc001.mcc214.3gppnetwork.org", diameter.RATTypeEUTRAN)
	ans := env.HandleULR(context.Background(), req)
	rc, isExp := resultCode(t, ans)
	if !isExp || rc != diameter.ExperimentalRoamingNotAllowed {
		t.Fatalf("result = %d (exp=%v), want ERROR_ROAMING_NOT_ALLOWED", rc, isExp)
	}
	diag, err := ans.Find("error_diagnostic")
	if err != nil {
		t.Fatalf("expected error_diagnostic: %v", err)
	}
	v, _ := diag.Uint32()
	if v != diameter.DiagODBAllAPN {
		t.Errorf("error_diagnostic = %d, want %d", v, diameter.DiagODBAllAPN)
	}
}

func TestULRRealmNotServed(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	sub := seedSubscriber(t)
	sub.RoamingAllowed = false
	ms.Put(sub)

	req := buildULR(sub.IMSI, "mme1.example.com", "domain2", "mnc001.mcc214.3gppnetwork.org", diameter.RATTypeEUTRAN)
	ans := env.HandleULR(context.Background(), req)
	rc, isExp := resultCode(t, ans)
	if isExp || rc != diameter.ResultRealmNotServed {
		t.Fatalf("result = %d (exp=%v), want REALM_NOT_SERVED", rc, isExp)
	}
}

func TestULRRATNotAllowed(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	req := buildULR("999000000000001", "mme1.example.com", "epc.example.com", "epc.example.com", diameter.RATTypeWLAN)
	ans := env.HandleULR(context.Background(), req)
	rc, isExp := resultCode(t, ans)
	if !isExp || rc != diameter.ExperimentalRATNotAllowed {
		t.Fatalf("result = %d (exp=%v), want ERROR_RAT_NOT_ALLOWED", rc, isExp)
	}
}

func TestULRCLROriginatedOnMMEChange(t *testing.T) {
	env, ms, _, clr := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	req1 := buildULR("999000000000001", "mmeA.example.com", "epc.example.com", "epc.example.com", diameter.RATTypeEUTRAN)
	ans1 := env.HandleULR(context.Background(), req1)
	if rc, isExp := resultCode(t, ans1); isExp || rc != diameter.ResultSuccess {
		t.Fatalf("first ULR result = %d (exp=%v), want SUCCESS", rc, isExp)
	}

	req2 := buildULR("999000000000001", "mmeA.example.com", "epc.example.com", "epc.example.com", diameter.RATTypeEUTRAN)
	env.HandleULR(context.Background(), req2)

	if len(clr.calls) != 0 {
		t.Fatalf("expected no CLR for same-host re-registration, got %v", clr.calls)
	}

	req3 := buildULR("999000000000001", "mmeB.example.com", "epc.example.com", "epc.example.com", diameter.RATTypeEUTRAN)
	ans3 := env.HandleULR(context.Background(), req3)
	if rc, isExp := resultCode(t, ans3); isExp || rc != diameter.ResultSuccess {
		t.Fatalf("third ULR result = %d (exp=%v), want SUCCESS", rc, isExp)
	}
	if len(clr.calls) != 1 || clr.calls[0] != "mmeA.example.com/999000000000001" {
		t.Fatalf("expected exactly one CLR to mmeA, got %v", clr.calls)
	}
	if _, err := ans3.Find("subscription_data"); err != nil {
		t.Fatalf("expected subscription_data on successful ULA: %v", err)
	}
}

func buildPUR(imsi, originHost string) *diameter.Message {
	msg := &diameter.Message{Header: diameter.Header{
		Flags: diameter.FlagRequest, CommandCode: diameter.CodePurgeUE, ApplicationID: diameter.ApplicationS6a,
	}}
	msg.Add(diameter.NewUTF8String("user_name", imsi))
	msg.Add(diameter.NewUTF8String("origin_host", originHost))
	return msg
}

func TestPURSameHostPurged(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	sub := seedSubscriber(t)
	sub.MMEHostname = "mmeA.example.com"
	ms.Put(sub)

	ans := env.HandlePUR(context.Background(), buildPUR(sub.IMSI, "mmeA.example.com"))
	flags, err := ans.Find("pua_flags")
	if err != nil {
		t.Fatalf("expected pua_flags: %v", err)
	}
	v, _ := flags.Uint32()
	if v != 1 {
		t.Errorf("pua_flags = %#x, want 0x1", v)
	}
}

func TestPURDifferentHostNotPurged(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	sub := seedSubscriber(t)
	sub.MMEHostname = "mmeA.example.com"
	ms.Put(sub)

	ans := env.HandlePUR(context.Background(), buildPUR(sub.IMSI, "mmeB.example.com"))
	flags, err := ans.Find("pua_flags")
	if err != nil {
		t.Fatalf("expected pua_flags: %v", err)
	}
	v, _ := flags.Uint32()
	if v != 0 {
		t.Errorf("pua_flags = %#x, want 0x0", v)
	}
}

func TestPURNoMMEEverRegistered(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	ans := env.HandlePUR(context.Background(), buildPUR("999000000000001", "mmeA.example.com"))
	flags, err := ans.Find("pua_flags")
	if err != nil {
		t.Fatalf("expected pua_flags: %v", err)
	}
	v, _ := flags.Uint32()
	if v != 1 {
		t.Errorf("pua_flags = %#x, want 0x1 (preserved source behaviour)", v)
	}
}

func buildNOR(imsi, originHost string, contextID uint32, withMIP6 bool, withInnerHost bool) *diameter.Message {
	msg := &diameter.Message{Header: diameter.Header{
		Flags: diameter.FlagRequest, CommandCode: diameter.CodeNotify, ApplicationID: diameter.ApplicationS6a,
	}}
	msg.Add(diameter.NewUTF8String("user_name", imsi))
	msg.Add(diameter.NewUTF8String("origin_host", originHost))
	msg.Add(diameter.NewUint32("context_identifier", contextID))
	msg.Add(diameter.NewUTF8String("service_selection", "internet"))
	if withMIP6 {
		if withInnerHost {
			msg.Add(diameter.NewGrouped("mip6_agent_info",
				diameter.NewGrouped("mip_home_agent_host",
					diameter.NewUTF8String("destination_host", "pgw1.example.com"),
					diameter.NewUTF8String("destination_realm", "epc.example.com"),
				),
			))
		} else {
			msg.Add(diameter.NewGrouped("mip6_agent_info"))
		}
	}
	return msg
}

func TestNORMissingMIP6AgentInfo(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	ans := env.HandleNOR(context.Background(), buildNOR("999000000000001", "mmeA.example.com", 1, false, false))
	rc, _ := resultCode(t, ans)
	if rc != diameter.ResultMissingAVP {
		t.Fatalf("result = %d, want MISSING_AVP", rc)
	}
	msg, err := ans.Find("error_message")
	if err != nil || msg.UTF8String() != "MIP6-Agent-Info AVP not found" {
		t.Fatalf("unexpected error_message: %v %v", msg, err)
	}
	if _, err := ans.Find("failed_avp"); err == nil {
		t.Fatalf("expected no failed_avp when outer AVP itself is absent")
	}
}

func TestNORMissingInnerHost(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	ans := env.HandleNOR(context.Background(), buildNOR("999000000000001", "mmeA.example.com", 1, true, false))
	rc, _ := resultCode(t, ans)
	if rc != diameter.ResultMissingAVP {
		t.Fatalf("result = %d, want MISSING_AVP", rc)
	}
	if _, err := ans.Find("failed_avp"); err != nil {
		t.Fatalf("expected failed_avp attaching the outer MIP6-Agent-Info: %v", err)
	}
}

func TestNORUnknownServingNode(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	sub := seedSubscriber(t)
	sub.MMEHostname = "mmeA.example.com"
	ms.Put(sub)

	ans := env.HandleNOR(context.Background(), buildNOR(sub.IMSI, "mmeB.example.com", 1, true, true))
	rc, isExp := resultCode(t, ans)
	if !isExp || rc != diameter.ExperimentalUnknownServingNode {
		t.Fatalf("result = %d (exp=%v), want ERROR_UNKOWN_SERVING_NODE", rc, isExp)
	}
}

func TestNORSuccess(t *testing.T) {
	env, ms, mc, _ := newTestEnv(t)
	sub := seedSubscriber(t)
	sub.MMEHostname = "mmeA.example.com"
	ms.Put(sub)

	ans := env.HandleNOR(context.Background(), buildNOR(sub.IMSI, "mmeA.example.com", 1, true, true))
	rc, isExp := resultCode(t, ans)
	if isExp || rc != diameter.ResultSuccess {
		t.Fatalf("result = %d (exp=%v), want SUCCESS", rc, isExp)
	}

	updated, err := ms.GetByIMSI(context.Background(), sub.IMSI)
	if err != nil {
		t.Fatalf("GetByIMSI: %v", err)
	}
	mip, ok := updated.FindMIP6(1)
	if !ok || mip.DestinationHost != "pgw1.example.com" || mip.DestinationRealm != "epc.example.com" {
		t.Fatalf("MIP6 row not updated: %+v", mip)
	}

	if got := mc.Get("nor:num_answers:success"); got != 1 {
		t.Errorf("nor:num_answers:success = %d, want 1", got)
	}
}

func TestAIRSingleVectorOmitsItemNumber(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	ans := env.HandleAIR(context.Background(), buildAIR("999000000000001", hexBytes(t, "09f107"), 1, nil))
	info, err := ans.Find("authentication_info")
	if err != nil {
		t.Fatalf("Find(authentication_info): %v", err)
	}
	vectors, err := info.AsGrouped()
	if err != nil || len(vectors) != 1 {
		t.Fatalf("expected 1 vector, got %d (err=%v)", len(vectors), err)
	}
	if _, err := diameter.FindChild(vectors[0], "item_number"); err != diameter.ErrAVPAbsent {
		t.Fatalf("single vector must omit item_number, got %v", err)
	}
	for _, name := range []string{"rand", "xres", "autn", "kasme"} {
		if _, err := diameter.FindChild(vectors[0], name); err != nil {
			t.Errorf("vector missing %s: %v", name, err)
		}
	}
}

func TestAIRAdvancesStoredSQN(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	sub := seedSubscriber(t)
	ms.Put(sub)

	env.HandleAIR(context.Background(), buildAIR(sub.IMSI, hexBytes(t, "09f107"), 3, nil))

	updated, err := ms.GetByIMSI(context.Background(), sub.IMSI)
	if err != nil {
		t.Fatalf("GetByIMSI: %v", err)
	}
	if updated.SQN != sub.SQN+3 {
		t.Fatalf("SQN = %#x, want %#x (one step per vector)", updated.SQN, sub.SQN+3)
	}
}

func TestAIRMissingVisitedPLMN(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	ans := env.HandleAIR(context.Background(), buildAIR("999000000000001", nil, 1, nil))
	rc, _ := resultCode(t, ans)
	if rc != diameter.ResultMissingAVP {
		t.Fatalf("result = %d, want MISSING_AVP", rc)
	}
	msg, err := ans.Find("error_message")
	if err != nil || msg.UTF8String() != "Visited-PLMN-Id AVP not found" {
		t.Fatalf("unexpected error_message: %v %v", msg, err)
	}
}

func TestAIRMissingRequestedInfo(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	req := &diameter.Message{Header: diameter.Header{
		Flags: diameter.FlagRequest, CommandCode: diameter.CodeAuthenticationInfo, ApplicationID: diameter.ApplicationS6a,
	}}
	req.Add(diameter.NewUTF8String("user_name", "999000000000001"))
	req.Add(diameter.New("visited_plmn_id", hexBytes(t, "09f107")))

	ans := env.HandleAIR(context.Background(), req)
	rc, _ := resultCode(t, ans)
	if rc != diameter.ResultMissingAVP {
		t.Fatalf("result = %d, want MISSING_AVP", rc)
	}
	msg, err := ans.Find("error_message")
	if err != nil || msg.UTF8String() != "Requested-EUTRAN-Authentication-Info AVP not found" {
		t.Fatalf("unexpected error_message: %v %v", msg, err)
	}
}

func TestAIRMissingNumberOfVectors(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	req := &diameter.Message{Header: diameter.Header{
		Flags: diameter.FlagRequest, CommandCode: diameter.CodeAuthenticationInfo, ApplicationID: diameter.ApplicationS6a,
	}}
	req.Add(diameter.NewUTF8String("user_name", "999000000000001"))
	req.Add(diameter.New("visited_plmn_id", hexBytes(t, "09f107")))
	req.Add(diameter.NewGrouped("requested_eutran_authentication_info"))

	ans := env.HandleAIR(context.Background(), req)
	rc, _ := resultCode(t, ans)
	if rc != diameter.ResultMissingAVP {
		t.Fatalf("result = %d, want MISSING_AVP", rc)
	}
	msg, err := ans.Find("error_message")
	if err != nil || msg.UTF8String() != "Number-Of-Requested-Vectors AVP not found" {
		t.Fatalf("unexpected error_message: %v %v", msg, err)
	}
	// The incomplete grouped AVP rides along as failed-avp.
	if _, err := ans.Find("failed_avp"); err != nil {
		t.Fatalf("expected failed_avp with the grouped AVP attached: %v", err)
	}
}

func TestULRMissingRATType(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	req := &diameter.Message{Header: diameter.Header{
		Flags: diameter.FlagRequest, CommandCode: diameter.CodeUpdateLocation, ApplicationID: diameter.ApplicationS6a,
	}}
	req.Add(diameter.NewUTF8String("user_name", "999000000000001"))
	req.Add(diameter.New("visited_plmn_id", hexBytes(t, "09f107")))

	ans := env.HandleULR(context.Background(), req)
	rc, _ := resultCode(t, ans)
	if rc != diameter.ResultMissingAVP {
		t.Fatalf("result = %d, want MISSING_AVP", rc)
	}
}

func TestULRUnknownEPSSubscription(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	sub := seedSubscriber(t)
	sub.APNs = nil
	ms.Put(sub)

	req := buildULR(sub.IMSI, "mme1.example.com", "epc.example.com", "epc.example.com", diameter.RATTypeEUTRAN)
	ans := env.HandleULR(context.Background(), req)
	rc, isExp := resultCode(t, ans)
	if !isExp || rc != diameter.ExperimentalUnknownEPSSubscription {
		t.Fatalf("result = %d (exp=%v), want ERROR_UNKNOWN_EPS_SUBSCRIPTION", rc, isExp)
	}
}

func TestULAPreambleOnEveryAnswer(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	// Error answer and success answer both carry supported_features and
	// ula_flags.
	answers := []*diameter.Message{
		env.HandleULR(context.Background(), buildULR("999000000000001", "mme1.example.com", "epc.example.com", "epc.example.com", diameter.RATTypeWLAN)),
		env.HandleULR(context.Background(), buildULR("999000000000001", "mme1.example.com", "epc.example.com", "epc.example.com", diameter.RATTypeEUTRAN)),
	}
	for i, ans := range answers {
		sf, err := ans.Find("supported_features")
		if err != nil {
			t.Fatalf("answer %d missing supported_features: %v", i, err)
		}
		fl, err := diameter.FindChild(sf, "feature_list")
		if err != nil {
			t.Fatalf("answer %d supported_features missing feature_list: %v", i, err)
		}
		if v, _ := fl.Uint32(); v != 0x7 {
			t.Errorf("answer %d feature_list = %#x, want 0x7 (ODB all/HPLMN/VPLMN)", i, v)
		}
		uf, err := ans.Find("ula_flags")
		if err != nil {
			t.Fatalf("answer %d missing ula_flags: %v", i, err)
		}
		if v, _ := uf.Uint32(); v != 0x1 {
			t.Errorf("answer %d ula_flags = %#x, want 0x1", i, v)
		}
	}
}

func TestULRStoresSRVCCSupport(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	req := buildULR("999000000000001", "mme1.example.com", "epc.example.com", "epc.example.com", diameter.RATTypeEUTRAN)
	req.Add(diameter.NewUint32("ue_srvcc_capability", 1)) // UE-SRVCC-SUPPORTED
	env.HandleULR(context.Background(), req)

	sub, err := ms.GetByIMSI(context.Background(), "999000000000001")
	if err != nil {
		t.Fatalf("GetByIMSI: %v", err)
	}
	if sub.UESRVCCSupport != store.TriTrue {
		t.Fatalf("ue_srvcc_support = %v, want TriTrue", sub.UESRVCCSupport)
	}

	// Absent capability AVP leaves the tri-state unknown.
	req2 := buildULR("999000000000001", "mme1.example.com", "epc.example.com", "epc.example.com", diameter.RATTypeEUTRAN)
	env.HandleULR(context.Background(), req2)
	sub, _ = ms.GetByIMSI(context.Background(), "999000000000001")
	if sub.UESRVCCSupport != store.TriUnknown {
		t.Fatalf("ue_srvcc_support = %v, want TriUnknown when AVP absent", sub.UESRVCCSupport)
	}
}

func TestNORMissingDestinationRealm(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	req := &diameter.Message{Header: diameter.Header{
		Flags: diameter.FlagRequest, CommandCode: diameter.CodeNotify, ApplicationID: diameter.ApplicationS6a,
	}}
	req.Add(diameter.NewUTF8String("user_name", "999000000000001"))
	req.Add(diameter.NewUTF8String("origin_host", "mmeA.example.com"))
	req.Add(diameter.NewUint32("context_identifier", 1))
	req.Add(diameter.NewUTF8String("service_selection", "internet"))
	req.Add(diameter.NewGrouped("mip6_agent_info",
		diameter.NewGrouped("mip_home_agent_host",
			diameter.NewUTF8String("destination_host", "pgw1.example.com"),
		),
	))

	ans := env.HandleNOR(context.Background(), req)
	rc, _ := resultCode(t, ans)
	if rc != diameter.ResultMissingAVP {
		t.Fatalf("result = %d, want MISSING_AVP", rc)
	}
	msg, err := ans.Find("error_message")
	if err != nil || msg.UTF8String() != "Destination-Realm AVP not found" {
		t.Fatalf("unexpected error_message: %v %v", msg, err)
	}
	if _, err := ans.Find("failed_avp"); err != nil {
		t.Fatalf("expected failed_avp = outer MIP6-Agent-Info: %v", err)
	}
}

func TestRoundTripAnswers(t *testing.T) {
	env, ms, _, _ := newTestEnv(t)
	ms.Put(seedSubscriber(t))

	answers := []*diameter.Message{
		env.HandleAIR(context.Background(), buildAIR("999000000000001", hexBytes(t, "09f107"), 1, nil)),
		env.HandlePUR(context.Background(), buildPUR("999000000000001", "mmeA.example.com")),
	}
	for i, ans := range answers {
		encoded := ans.Encode()
		decoded, err := diameter.Decode(encoded)
		if err != nil {
			t.Fatalf("answer %d: Decode: %v", i, err)
		}
		reencoded := decoded.Encode()
		if string(encoded) != string(reencoded) {
			t.Fatalf("answer %d round trip mismatch", i)
		}
	}
}
