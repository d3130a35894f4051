package diameter

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// AVP flag bits (RFC 6733 §4.1).
const (
	avpFlagVendor    uint8 = 0x80
	avpFlagMandatory uint8 = 0x40
	avpFlagProtected uint8 = 0x20
)

// ErrAVPAbsent is returned by lookup helpers when a named AVP is not
// present in a message or grouped AVP.
var ErrAVPAbsent = errors.New("diameter: avp not found")

// ErrAVPParseError is returned when an AVP's bytes are structurally
// invalid (truncated header, length past the buffer, etc).
var ErrAVPParseError = errors.New("diameter: avp parse error")

// AVP is a decoded Diameter Attribute-Value-Pair. Decoding preserves the
// exact on-wire bytes for leaf AVPs in Data, and Encode reproduces them
// byte-for-byte: the flags, code, vendor-id and raw payload are the sole
// source of truth, so decode-then-encode of an unmodified AVP is a
// faithful round trip.
type AVP struct {
	Code      uint32
	VendorID  uint32 // 0 when the AVP is not vendor-specific
	Mandatory bool
	Protected bool
	Data      []byte // raw payload, unpadded; for grouped AVPs this is the concatenation of encoded children
	Grouped   []*AVP // populated when the dictionary (or a caller) says this AVP is Grouped
}

// Name returns the dictionary name for this AVP's (code, vendor-id)
// pair, or "" if it isn't in the dictionary.
func (a *AVP) Name() string {
	if d, ok := lookupByCode(a.Code, a.VendorID); ok {
		return d.name
	}
	return ""
}

// flags returns the on-wire AVP flags octet.
func (a *AVP) flags() uint8 {
	var f uint8
	if a.VendorID != 0 {
		f |= avpFlagVendor
	}
	if a.Mandatory {
		f |= avpFlagMandatory
	}
	if a.Protected {
		f |= avpFlagProtected
	}
	return f
}

// headerLen returns the AVP header length, including the vendor-id word
// when present, but excluding the payload.
func (a *AVP) headerLen() int {
	if a.VendorID != 0 {
		return 12
	}
	return 8
}

// Encode serializes the AVP, including trailing zero padding to a
// 4-byte boundary. The returned length (before padding) matches what a
// peer expects in the AVP header.
func (a *AVP) Encode() []byte {
	payload := a.Data
	if a.Grouped != nil {
		payload = encodeAVPs(a.Grouped)
	}

	total := a.headerLen() + len(payload)
	padded := pad4(total)

	buf := make([]byte, padded)
	binary.BigEndian.PutUint32(buf[0:4], a.Code)
	flagsAndLen := uint32(a.flags())<<24 | uint32(total)&0x00FFFFFF
	binary.BigEndian.PutUint32(buf[4:8], flagsAndLen)

	offset := 8
	if a.VendorID != 0 {
		binary.BigEndian.PutUint32(buf[8:12], a.VendorID)
		offset = 12
	}
	copy(buf[offset:], payload)
	return buf
}

func pad4(n int) int {
	if rem := n % 4; rem != 0 {
		return n + (4 - rem)
	}
	return n
}

// encodeAVPs serializes a sequence of AVPs back-to-back, each padded to
// a 4-byte boundary, as required for a Grouped AVP's payload or a
// message's AVP list.
func encodeAVPs(avps []*AVP) []byte {
	var out []byte
	for _, a := range avps {
		out = append(out, a.Encode()...)
	}
	return out
}

// decodeAVPs parses a buffer into a flat sequence of AVPs. It does not
// recurse into Grouped AVPs; callers ask for that explicitly via
// AsGrouped, since not every AVP the dictionary doesn't know about can
// be assumed Grouped.
func decodeAVPs(data []byte) ([]*AVP, error) {
	var avps []*AVP
	offset := 0
	for offset < len(data) {
		if len(data)-offset < 8 {
			return nil, fmt.Errorf("%w: truncated avp header at offset %d", ErrAVPParseError, offset)
		}
		code := binary.BigEndian.Uint32(data[offset : offset+4])
		flagsAndLen := binary.BigEndian.Uint32(data[offset+4 : offset+8])
		flags := uint8(flagsAndLen >> 24)
		length := int(flagsAndLen & 0x00FFFFFF)

		if length < 8 || offset+length > len(data) {
			return nil, fmt.Errorf("%w: avp length %d out of range at offset %d", ErrAVPParseError, length, offset)
		}

		headerLen := 8
		var vendorID uint32
		if flags&avpFlagVendor != 0 {
			if length < 12 {
				return nil, fmt.Errorf("%w: vendor avp shorter than vendor header", ErrAVPParseError)
			}
			vendorID = binary.BigEndian.Uint32(data[offset+8 : offset+12])
			headerLen = 12
		}

		payload := make([]byte, length-headerLen)
		copy(payload, data[offset+headerLen:offset+length])

		avps = append(avps, &AVP{
			Code:      code,
			VendorID:  vendorID,
			Mandatory: flags&avpFlagMandatory != 0,
			Protected: flags&avpFlagProtected != 0,
			Data:      payload,
		})

		offset += pad4(length)
	}
	return avps, nil
}

// AsGrouped parses this AVP's Data as a nested AVP sequence, caching the
// result in Grouped. Call this for any AVP the dictionary marks Grouped
// before using FindAVP/group accessors on it.
func (a *AVP) AsGrouped() ([]*AVP, error) {
	if a.Grouped != nil {
		return a.Grouped, nil
	}
	children, err := decodeAVPs(a.Data)
	if err != nil {
		return nil, err
	}
	a.Grouped = children
	return children, nil
}

// OctetString returns the raw payload.
func (a *AVP) OctetString() []byte { return a.Data }

// UTF8String decodes the payload as UTF8String/DiameterIdentity.
func (a *AVP) UTF8String() string { return string(a.Data) }

// Uint32 decodes the payload as Unsigned32/Integer32/Enumerated.
func (a *AVP) Uint32() (uint32, error) {
	if len(a.Data) != 4 {
		return 0, fmt.Errorf("%w: expected 4-byte integer, got %d bytes", ErrAVPParseError, len(a.Data))
	}
	return binary.BigEndian.Uint32(a.Data), nil
}

// Address decodes the payload as a Diameter Address AVP: a 2-byte
// address family (1 = IPv4, 2 = IPv6) followed by the raw address.
func (a *AVP) Address() (net.IP, error) {
	if len(a.Data) < 3 {
		return nil, fmt.Errorf("%w: address avp too short", ErrAVPParseError)
	}
	family := binary.BigEndian.Uint16(a.Data[0:2])
	switch family {
	case 1:
		if len(a.Data) != 6 {
			return nil, fmt.Errorf("%w: ipv4 address avp wrong length", ErrAVPParseError)
		}
		return net.IP(a.Data[2:6]), nil
	case 2:
		if len(a.Data) != 18 {
			return nil, fmt.Errorf("%w: ipv6 address avp wrong length", ErrAVPParseError)
		}
		return net.IP(a.Data[2:18]), nil
	default:
		return nil, fmt.Errorf("%w: unsupported address family %d", ErrAVPParseError, family)
	}
}

// find returns the first AVP by (code, vendorID) in a flat list.
func find(avps []*AVP, code, vendorID uint32) (*AVP, bool) {
	for _, a := range avps {
		if a.Code == code && a.VendorID == vendorID {
			return a, true
		}
	}
	return nil, false
}

// findAll returns every AVP matching (code, vendorID) in a flat list, in
// order, for multi-valued AVPs like e_utran_vector.
func findAll(avps []*AVP, code, vendorID uint32) []*AVP {
	var out []*AVP
	for _, a := range avps {
		if a.Code == code && a.VendorID == vendorID {
			out = append(out, a)
		}
	}
	return out
}
