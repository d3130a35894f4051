package diameter

import (
	"encoding/binary"
	"fmt"
)

// HeaderLen is the fixed size of a Diameter message header (RFC 6733 §3).
const HeaderLen = 20

const diameterVersion = 1

// Header is the 20-byte Diameter message header.
type Header struct {
	Version       uint8
	Length        uint32 // full message length, header + AVPs
	Flags         uint8
	CommandCode   uint32
	ApplicationID uint32
	HopByHopID    uint32
	EndToEndID    uint32
}

// IsRequest reports whether the R bit is set.
func (h Header) IsRequest() bool { return h.Flags&FlagRequest != 0 }

// IsError reports whether the E bit is set.
func (h Header) IsError() bool { return h.Flags&FlagError != 0 }

// Encode serializes the header to its 20-byte wire form.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderLen)
	buf[0] = diameterVersion
	binary.BigEndian.PutUint32(buf[0:4], uint32(diameterVersion)<<24|h.Length&0x00FFFFFF)
	binary.BigEndian.PutUint32(buf[4:8], uint32(h.Flags)<<24|h.CommandCode&0x00FFFFFF)
	binary.BigEndian.PutUint32(buf[8:12], h.ApplicationID)
	binary.BigEndian.PutUint32(buf[12:16], h.HopByHopID)
	binary.BigEndian.PutUint32(buf[16:20], h.EndToEndID)
	return buf
}

// decodeHeader parses the first 20 bytes of a Diameter message.
func decodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderLen {
		return Header{}, fmt.Errorf("%w: message shorter than header", ErrAVPParseError)
	}
	word0 := binary.BigEndian.Uint32(data[0:4])
	word1 := binary.BigEndian.Uint32(data[4:8])

	h := Header{
		Version:       uint8(word0 >> 24),
		Length:        word0 & 0x00FFFFFF,
		Flags:         uint8(word1 >> 24),
		CommandCode:   word1 & 0x00FFFFFF,
		ApplicationID: binary.BigEndian.Uint32(data[8:12]),
		HopByHopID:    binary.BigEndian.Uint32(data[12:16]),
		EndToEndID:    binary.BigEndian.Uint32(data[16:20]),
	}
	if h.Version != diameterVersion {
		return Header{}, fmt.Errorf("%w: unsupported diameter version %d", ErrAVPParseError, h.Version)
	}
	return h, nil
}
