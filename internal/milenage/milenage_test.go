package milenage

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func hb(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// testVector is one full published 3GPP MILENAGE conformance test set
// (TS 35.208 Annex 4, sets 1 and 3-7), used to pin the implementation
// against known-good output rather than only checking internal
// consistency. autn/kasme additionally pin the derived EPS vector for
// PLMN 27f450.
type testVector struct {
	name         string
	k, rand, sqn string
	amf, op      string
	opc          string
	macA, macS   string
	res, ck, ik  string
	ak, akStar   string
	autn, kasme  string
}

var testVectors = []testVector{
	{
		name:  "TestSet1",
		k:     "465b5ce8b199b49faa5f0a2ee238a6bc",
		rand:  "23553cbe9637a89d218ae64dae47bf35",
		sqn:   "ff9bb4d0b607",
		amf:   "b9b9",
		op:    "cdc202d5123e20f62b6d676ac72cb318",
		opc:   "cd63cb71954a9f4e48a5994e37a02baf",
		macA:  "4a9ffac354dfafb3",
		macS:  "01cfaf9ec4e871e9",
		res:   "a54211d5e3ba50bf",
		ck:    "b40ba9a3c58b2a05bbf0d987b21bf8cb",
		ik:    "f769bcd75104460412767fa29e3536d1",
		ak:    "aa689c648370",
		akStar: "451093973bb2",
		autn:  "55f328b43577b9b94a9ffac354dfafb3",
		kasme: "00c73bac435945a7c5cf3565c0d3c64375416b255f0bd65d74f40e60c90a280a",
	},
	{
		name:  "TestSet3",
		k:     "fec86ba6eb707ed08905757b1bb44b8f",
		rand:  "9f7c8d021accf4db213ccff0c7f71a6a",
		sqn:   "9d0277595ffc",
		amf:   "725c",
		op:    "dbc59adcb6f9a0ef735477b7fadf8374",
		opc:   "1006020f0a478bf6b699f15c062e42b3",
		macA:  "9cabc3e99baf7281",
		macS:  "95814ba2b3044324",
		res:   "8011c48c0c214ed2",
		ck:    "5dbdbb2954e8f3cde665b046179a5098",
		ik:    "59a92d3b476a0443487055cf88b2307b",
		ak:    "33484dc2136b",
		akStar: "deacdd848cc6",
		autn:  "ae4a3a9b4c97725c9cabc3e99baf7281",
		kasme: "4826154dc86a76e8eeba9673c5c7fac9141f00c0c0ffbf386e93e9f2e0eb34f4",
	},
	{
		name:  "TestSet4",
		k:     "9e5944aea94b81165c82fbf9f32db751",
		rand:  "ce83dbc54ac0274a157c17f80d017bd6",
		sqn:   "0b604a81eca8",
		amf:   "9e09",
		op:    "223014c5806694c007ca1eeef57f004f",
		opc:   "a64a507ae1a2a98bb88eb4210135dc87",
		macA:  "74a58220cba84c49",
		macS:  "ac2cc74a96871837",
		res:   "f365cd683cd92e96",
		ck:    "e203edb3971574f5a94b0d61b816345d",
		ik:    "0c4524adeac041c4dd830d20854fc46b",
		ak:    "f0b9c08ad02e",
		akStar: "6085a86c6f63",
		autn:  "fbd98a0b3c869e0974a58220cba84c49",
		kasme: "35e1f31c813e4b64466367bf15b6e52b7db7cd9922901bd793432be30d754f6a",
	},
	{
		name:  "TestSet5",
		k:     "4ab1deb05ca6ceb051fc98e77d026a84",
		rand:  "74b0cd6031a1c8339b2b6ce2b8c4a186",
		sqn:   "e880a1b580b6",
		amf:   "9f07",
		op:    "2d16c5cd1fdf6b22383584e3bef2a8d8",
		opc:   "dcf07cbd51855290b92a07a9891e523e",
		macA:  "49e785dd12626ef2",
		macS:  "9e85790336bb3fa2",
		res:   "5860fc1bce351e7e",
		ck:    "7657766b373d1c2138f307e3de9242f9",
		ik:    "1c42e960d89b8fa99f2744e0708ccb53",
		ak:    "31e11a609118",
		akStar: "fe2555e54aa9",
		autn:  "d961bbd511ae9f0749e785dd12626ef2",
		kasme: "788677b1a220a418640338c8d6a8d6dbc306ea2a239154460084259b53c82a83",
	},
	{
		name:  "TestSet6",
		k:     "6c38a116ac280c454f59332ee35c8c4f",
		rand:  "ee6466bc96202c5a557abbeff8babf63",
		sqn:   "414b98222181",
		amf:   "4464",
		op:    "1ba00a1a7c6700ac8c3ff3e96ad08725",
		opc:   "3803ef5363b947c6aaa225e58fae3934",
		macA:  "078adfb488241a57",
		macS:  "80246b8d0186bcf1",
		res:   "16c8233f05a0ac28",
		ck:    "3f8c7587fe8e4b233af676aede30ba3b",
		ik:    "a7466cc1e6b2a1337d49d3b66e95d7b4",
		ak:    "45b0f69ab06c",
		akStar: "1f53cd2b1113",
		autn:  "04fb6eb891ed4464078adfb488241a57",
		kasme: "2a90f8b6b6522d62f046f838693c4946edcdc52eeabf1204e275eb1d53853b69",
	},
	{
		name:  "TestSet7",
		k:     "2d609d4db0ac5bf0d2c0de267014de0d",
		rand:  "194aa756013896b74b4a2a3b0af4539e",
		sqn:   "6bf69438c2e4",
		amf:   "5f67",
		op:    "460a48385427aa39264aac8efc9e73e8",
		opc:   "c35a0ab0bcbfc9252caff15f24efbde0",
		macA:  "bd07d3003b9e5cc3",
		macS:  "bcb6c2fcad152250",
		res:   "8c25a16cd918a1df",
		ck:    "4cd0846020f8fa0731dd47cbdc6be411",
		ik:    "88ab80a415f15c73711254a1d388f696",
		ak:    "7e6455f34cf3",
		akStar: "dc6dd01e8f15",
		autn:  "1592c1cb8e175f67bd07d3003b9e5cc3",
		kasme: "8cd327e3d1eba71cbc7b3e84a7dbfc88038ccd1adb530415d96d9201056a682c",
	},
}

func TestMilenageVectors(t *testing.T) {
	for _, tv := range testVectors {
		t.Run(tv.name, func(t *testing.T) {
			k := hb(t, tv.k)
			r := hb(t, tv.rand)
			sqn := hb(t, tv.sqn)
			amf := hb(t, tv.amf)
			op := hb(t, tv.op)

			opc, err := ComputeOPc(k, op)
			if err != nil {
				t.Fatalf("ComputeOPc: %v", err)
			}
			if got := hex.EncodeToString(opc); got != tv.opc {
				t.Errorf("OPc = %s, want %s", got, tv.opc)
			}

			macA, err := F1(k, opc, r, sqn, amf)
			if err != nil {
				t.Fatalf("F1: %v", err)
			}
			if got := hex.EncodeToString(macA); got != tv.macA {
				t.Errorf("MAC-A = %s, want %s", got, tv.macA)
			}

			macS, err := F1Star(k, opc, r, sqn, amf)
			if err != nil {
				t.Fatalf("F1Star: %v", err)
			}
			if got := hex.EncodeToString(macS); got != tv.macS {
				t.Errorf("MAC-S = %s, want %s", got, tv.macS)
			}

			res, ck, ik, ak, err := F2345(k, opc, r)
			if err != nil {
				t.Fatalf("F2345: %v", err)
			}
			if got := hex.EncodeToString(res); got != tv.res {
				t.Errorf("RES = %s, want %s", got, tv.res)
			}
			if got := hex.EncodeToString(ck); got != tv.ck {
				t.Errorf("CK = %s, want %s", got, tv.ck)
			}
			if got := hex.EncodeToString(ik); got != tv.ik {
				t.Errorf("IK = %s, want %s", got, tv.ik)
			}
			if got := hex.EncodeToString(ak); got != tv.ak {
				t.Errorf("AK = %s, want %s", got, tv.ak)
			}

			akStar, err := F5Star(k, opc, r)
			if err != nil {
				t.Fatalf("F5Star: %v", err)
			}
			if got := hex.EncodeToString(akStar); got != tv.akStar {
				t.Errorf("AK* = %s, want %s", got, tv.akStar)
			}

			plmn := hb(t, "27f450")
			v, err := MakeVector(k, opc, amf, sqn, plmn, r)
			if err != nil {
				t.Fatalf("MakeVector: %v", err)
			}
			if got := hex.EncodeToString(v.AUTN[:]); got != tv.autn {
				t.Errorf("AUTN = %s, want %s", got, tv.autn)
			}
			if got := hex.EncodeToString(v.KASME[:]); got != tv.kasme {
				t.Errorf("KASME = %s, want %s", got, tv.kasme)
			}
		})
	}
}

func TestMakeVectorAssemblesAUTN(t *testing.T) {
	tv := testVectors[0]
	k := hb(t, tv.k)
	r := hb(t, tv.rand)
	sqn := hb(t, tv.sqn)
	amf := hb(t, tv.amf)
	op := hb(t, tv.op)
	plmn := hb(t, "27f450")

	opc, err := ComputeOPc(k, op)
	if err != nil {
		t.Fatalf("ComputeOPc: %v", err)
	}

	v, err := MakeVector(k, opc, amf, sqn, plmn, r)
	if err != nil {
		t.Fatalf("MakeVector: %v", err)
	}

	if !bytes.Equal(v.RAND[:], r) {
		t.Errorf("RAND not preserved: got %x, want %x", v.RAND, r)
	}
	if got := hex.EncodeToString(v.XRES); got != tv.res {
		t.Errorf("XRES = %s, want %s", got, tv.res)
	}

	wantSQNxorAK := xor(sqn, hb(t, tv.ak))
	if !bytes.Equal(v.AUTN[0:6], wantSQNxorAK) {
		t.Errorf("AUTN SQN^AK field = %x, want %x", v.AUTN[0:6], wantSQNxorAK)
	}
	if !bytes.Equal(v.AUTN[6:8], amf) {
		t.Errorf("AUTN AMF field = %x, want %x", v.AUTN[6:8], amf)
	}
	if got := hex.EncodeToString(v.AUTN[8:16]); got != tv.macA {
		t.Errorf("AUTN MAC-A field = %s, want %s", got, tv.macA)
	}

	var zero [32]byte
	if bytes.Equal(v.KASME[:], zero[:]) {
		t.Error("KASME was not derived")
	}
}

func TestMakeVectorRandomRANDWhenOmitted(t *testing.T) {
	k := hb(t, testVectors[0].k)
	op := hb(t, testVectors[0].op)
	opc, err := ComputeOPc(k, op)
	if err != nil {
		t.Fatalf("ComputeOPc: %v", err)
	}
	amf := hb(t, "8000")
	sqn := hb(t, "000000000001")
	plmn := hb(t, "27f450")

	v1, err := MakeVector(k, opc, amf, sqn, plmn, nil)
	if err != nil {
		t.Fatalf("MakeVector: %v", err)
	}
	v2, err := MakeVector(k, opc, amf, sqn, plmn, nil)
	if err != nil {
		t.Fatalf("MakeVector: %v", err)
	}
	if v1.RAND == v2.RAND {
		t.Error("expected distinct RAND across calls when omitted")
	}
}

func TestDeriveKASMEDeterministic(t *testing.T) {
	ck := hb(t, testVectors[0].ck)
	ik := hb(t, testVectors[0].ik)
	plmn := hb(t, "27f450")
	sqnXorAK := xor(hb(t, testVectors[0].sqn), hb(t, testVectors[0].ak))

	k1, err := deriveKASME(ck, ik, plmn, sqnXorAK)
	if err != nil {
		t.Fatalf("deriveKASME: %v", err)
	}
	k2, err := deriveKASME(ck, ik, plmn, sqnXorAK)
	if err != nil {
		t.Fatalf("deriveKASME: %v", err)
	}
	if k1 != k2 {
		t.Error("deriveKASME is not deterministic")
	}

	otherPLMN := hb(t, "12f410")
	k3, err := deriveKASME(ck, ik, otherPLMN, sqnXorAK)
	if err != nil {
		t.Fatalf("deriveKASME: %v", err)
	}
	if k1 == k3 {
		t.Error("expected KASME to depend on PLMN")
	}
}

func TestGenerateAUTSLength(t *testing.T) {
	k := hb(t, testVectors[0].k)
	op := hb(t, testVectors[0].op)
	opc, err := ComputeOPc(k, op)
	if err != nil {
		t.Fatalf("ComputeOPc: %v", err)
	}
	r := hb(t, testVectors[0].rand)
	sqnMS := hb(t, "000000000002")

	auts, err := GenerateAUTS(k, opc, r, sqnMS)
	if err != nil {
		t.Fatalf("GenerateAUTS: %v", err)
	}
	if len(auts) != 14 {
		t.Fatalf("AUTS length = %d, want 14", len(auts))
	}
}

func TestRejectsWrongLengthKey(t *testing.T) {
	if _, err := ComputeOPc(make([]byte, 15), make([]byte, 16)); err == nil {
		t.Error("expected error for short key")
	}
}
