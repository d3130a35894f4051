package milenage

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"fmt"
)

// Vector is one E-UTRAN authentication vector: the quintuplet an MME
// uses to challenge a UE and, on success, derive its access security
// context.
type Vector struct {
	RAND  [16]byte
	XRES  []byte
	AUTN  [16]byte
	KASME [32]byte
}

// MakeVector runs the full MILENAGE + KASME derivation chain (TS
// 33.401 Annex A.2) for one authentication vector. If rand16 is nil, a
// fresh cryptographically random RAND is generated; callers supplying
// one are expected to do so only in tests, where RAND must be pinned.
func MakeVector(k, opc, amf, sqn, plmn []byte, rand16 []byte) (*Vector, error) {
	if len(sqn) != 6 {
		return nil, fmt.Errorf("milenage: sqn must be 6 bytes, got %d", len(sqn))
	}
	if len(plmn) != 3 {
		return nil, fmt.Errorf("milenage: plmn must be 3 bytes, got %d", len(plmn))
	}

	var r [16]byte
	if rand16 == nil {
		if _, err := crand.Read(r[:]); err != nil {
			return nil, fmt.Errorf("milenage: generating rand: %w", err)
		}
	} else {
		if len(rand16) != 16 {
			return nil, fmt.Errorf("milenage: rand must be 16 bytes, got %d", len(rand16))
		}
		copy(r[:], rand16)
	}

	macA, err := F1(k, opc, r[:], sqn, amf)
	if err != nil {
		return nil, err
	}
	res, ck, ik, ak, err := F2345(k, opc, r[:])
	if err != nil {
		return nil, err
	}

	var autn [16]byte
	sqnXorAK := xor(sqn, ak)
	copy(autn[0:6], sqnXorAK)
	copy(autn[6:8], amf)
	copy(autn[8:16], macA)

	kasme, err := deriveKASME(ck, ik, plmn, sqnXorAK)
	if err != nil {
		return nil, err
	}

	return &Vector{RAND: r, XRES: res, AUTN: autn, KASME: kasme}, nil
}

// deriveKASME implements TS 33.401 Annex A.2: KASME = HMAC-SHA256(key =
// CK || IK, S) where S = FC(0x10) || P0(PLMN-Id, 3 bytes) ||
// L0(0x00 0x03) || P1(SQN xor AK, 6 bytes) || L1(0x00 0x06).
func deriveKASME(ck, ik, plmn, sqnXorAK []byte) ([32]byte, error) {
	var out [32]byte
	key := make([]byte, 0, len(ck)+len(ik))
	key = append(key, ck...)
	key = append(key, ik...)

	s := make([]byte, 0, 1+3+2+6+2)
	s = append(s, 0x10)
	s = append(s, plmn...)
	s = append(s, 0x00, 0x03)
	s = append(s, sqnXorAK...)
	s = append(s, 0x00, 0x06)

	mac := hmac.New(sha256.New, key)
	if _, err := mac.Write(s); err != nil {
		return out, fmt.Errorf("milenage: kasme hmac: %w", err)
	}
	copy(out[:], mac.Sum(nil))
	return out, nil
}

// GenerateAUTS assembles the re-synchronisation token a UE returns
// when it rejects SQN. AUTS = (SQN_MS xor AK*) || MAC-S, where MAC-S
// is computed over the conflicting RAND with AMF fixed to all zeroes
// per TS 33.102 §6.3.3.
func GenerateAUTS(k, opc, rand16, sqnMS []byte) ([]byte, error) {
	akStar, err := F5Star(k, opc, rand16)
	if err != nil {
		return nil, err
	}
	macS, err := F1Star(k, opc, rand16, sqnMS, []byte{0x00, 0x00})
	if err != nil {
		return nil, err
	}
	auts := make([]byte, 0, 14)
	auts = append(auts, xor(sqnMS, akStar)...)
	auts = append(auts, macS...)
	return auts, nil
}
