package diameter

import (
	"fmt"
	"net"
)

// Message is a decoded Diameter message: header plus a flat top-level
// AVP list. Grouped AVPs keep their children unparsed in Data until
// AsGrouped is called, so a message that is never inspected below the
// top level still round-trips byte-for-byte.
type Message struct {
	Header Header
	AVPs   []*AVP
}

// Decode parses a complete Diameter message (header + AVPs) from a
// buffer that must contain at least Header.Length bytes.
func Decode(data []byte) (*Message, error) {
	hdr, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) < hdr.Length {
		return nil, fmt.Errorf("%w: buffer shorter than declared message length", ErrAVPParseError)
	}
	avps, err := decodeAVPs(data[HeaderLen:hdr.Length])
	if err != nil {
		return nil, err
	}
	return &Message{Header: hdr, AVPs: avps}, nil
}

// Encode serializes the message, recomputing Header.Length from the
// encoded AVPs so callers never need to track it by hand.
func (m *Message) Encode() []byte {
	body := encodeAVPs(m.AVPs)
	m.Header.Length = uint32(HeaderLen + len(body))
	out := make([]byte, 0, m.Header.Length)
	out = append(out, m.Header.Encode()...)
	out = append(out, body...)
	return out
}

// Find looks up a top-level AVP by its dictionary name. It returns
// ErrAVPAbsent if the name isn't present, or an error wrapping
// ErrAVPParseError if the dictionary doesn't know the name at all.
func (m *Message) Find(name string) (*AVP, error) {
	return findByName(m.AVPs, name)
}

// FindAll returns every top-level AVP with the given name, in order.
func (m *Message) FindAll(name string) ([]*AVP, error) {
	d, ok := dictionary[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown avp name %q", ErrAVPParseError, name)
	}
	return findAll(m.AVPs, d.code, d.vendorID), nil
}

// Add appends an AVP to the message's top-level list.
func (m *Message) Add(a *AVP) { m.AVPs = append(m.AVPs, a) }

// findByName resolves a dictionary name and searches avps for it.
func findByName(avps []*AVP, name string) (*AVP, error) {
	d, ok := dictionary[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown avp name %q", ErrAVPParseError, name)
	}
	a, ok := find(avps, d.code, d.vendorID)
	if !ok {
		return nil, ErrAVPAbsent
	}
	return a, nil
}

// FindChild looks up a named AVP inside a Grouped AVP's children,
// parsing the group on first use.
func FindChild(parent *AVP, name string) (*AVP, error) {
	children, err := parent.AsGrouped()
	if err != nil {
		return nil, err
	}
	return findByName(children, name)
}

// FindAllChildren returns every child of a Grouped AVP matching name, in order.
func FindAllChildren(parent *AVP, name string) ([]*AVP, error) {
	children, err := parent.AsGrouped()
	if err != nil {
		return nil, err
	}
	d, ok := dictionary[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown avp name %q", ErrAVPParseError, name)
	}
	return findAll(children, d.code, d.vendorID), nil
}

// New builds an AVP by dictionary name with a raw payload and the
// mandatory flag set, which is the default posture for every AVP this
// HSS originates.
func New(name string, data []byte) *AVP {
	d, ok := dictionary[name]
	if !ok {
		panic(fmt.Sprintf("diameter: unknown avp name %q", name))
	}
	return &AVP{Code: d.code, VendorID: d.vendorID, Mandatory: true, Data: data}
}

// NewGrouped builds a Grouped AVP by dictionary name from its children.
func NewGrouped(name string, children ...*AVP) *AVP {
	d, ok := dictionary[name]
	if !ok {
		panic(fmt.Sprintf("diameter: unknown avp name %q", name))
	}
	return &AVP{Code: d.code, VendorID: d.vendorID, Mandatory: true, Grouped: children}
}

// NewUint32 builds a 4-byte integer AVP (Unsigned32/Integer32/Enumerated).
func NewUint32(name string, v uint32) *AVP {
	return New(name, uint32ToBytes(v))
}

// NewUTF8String builds a UTF8String/DiameterIdentity AVP.
func NewUTF8String(name, v string) *AVP {
	return New(name, []byte(v))
}

// NewAddress builds an Address AVP from an IP, auto-detecting the
// IPv4/IPv6 address family.
func NewAddress(name string, ip net.IP) *AVP {
	if v4 := ip.To4(); v4 != nil {
		buf := make([]byte, 6)
		buf[1] = 1
		copy(buf[2:], v4)
		return New(name, buf)
	}
	v6 := ip.To16()
	buf := make([]byte, 18)
	buf[1] = 2
	copy(buf[2:], v6)
	return New(name, buf)
}

func uint32ToBytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
