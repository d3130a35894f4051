// Package plmn encodes and decodes the 3-byte TBCD PLMN-Id carried in
// Visited-PLMN-Id (and similar) AVPs, and recognises the 3GPP realm
// form used to identify a peer's home PLMN from its Origin-Realm.
package plmn

import (
	"fmt"
	"regexp"
)

// mncFiller marks the "no third MNC digit" nibble for 2-digit MNCs.
const mncFiller = 0x0F

// Encode packs an (MCC, MNC) pair into the 3-byte TBCD PLMN-Id used on
// the wire (TS 24.008 §10.5.1.13). MNC values under 100 are encoded as
// 2 digits with the standard 0xF filler nibble; values >= 100 are
// encoded as 3 digits.
func Encode(mcc, mnc int) ([3]byte, error) {
	var out [3]byte
	if mcc < 100 || mcc > 999 {
		return out, fmt.Errorf("plmn: mcc %d out of range [100,999]", mcc)
	}
	if mnc < 1 || mnc > 999 {
		return out, fmt.Errorf("plmn: mnc %d out of range [1,999]", mnc)
	}

	d1, d2, d3 := digit3(mcc)

	var m1, m2, m3 int
	if mnc < 100 {
		m1, m2 = digit2(mnc)
		m3 = mncFiller
	} else {
		m1, m2, m3 = digit3(mnc)
	}

	out[0] = byte(d2<<4 | d1)
	out[1] = byte(m3<<4 | d3)
	out[2] = byte(m2<<4 | m1)
	return out, nil
}

// Decode unpacks a 3-byte TBCD PLMN-Id back into (MCC, MNC).
func Decode(b [3]byte) (mcc, mnc int) {
	d1 := int(b[0] & 0x0F)
	d2 := int(b[0] >> 4)
	d3 := int(b[1] & 0x0F)
	m3 := int(b[1] >> 4)
	m1 := int(b[2] & 0x0F)
	m2 := int(b[2] >> 4)

	mcc = d1*100 + d2*10 + d3
	if m3 == mncFiller {
		mnc = m1*10 + m2
	} else {
		mnc = m1*100 + m2*10 + m3
	}
	return mcc, mnc
}

func digit3(n int) (int, int, int) { return n / 100, (n / 10) % 10, n % 10 }
func digit2(n int) (int, int)      { return n / 10, n % 10 }

// threeGPPRealm matches the mncNNN.mccNNN.3gppnetwork.org realm form
// TS 23.003 §19.4.2 defines for PLMN-derived realms. The MNC field
// must be the standard 3-digit zero-padded form; anything shorter is
// not recognised.
var threeGPPRealm = regexp.MustCompile(`mnc(\d{3})\.mcc(\d{3})\.3gppnetwork\.org$`)

// IsThreeGPPRealm reports whether realm is in the 3GPP
// mncNNN.mccNNN.3gppnetwork.org form.
func IsThreeGPPRealm(realm string) bool {
	return threeGPPRealm.MatchString(realm)
}

// ParseThreeGPPRealm extracts (MCC, MNC) from a 3GPP-form realm. ok is
// false if realm isn't in that form.
func ParseThreeGPPRealm(realm string) (mcc, mnc int, ok bool) {
	m := threeGPPRealm.FindStringSubmatch(realm)
	if m == nil {
		return 0, 0, false
	}
	var mncVal, mccVal int
	fmt.Sscanf(m[1], "%d", &mncVal)
	fmt.Sscanf(m[2], "%d", &mccVal)
	return mccVal, mncVal, true
}
