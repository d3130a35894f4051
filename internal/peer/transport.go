package peer

import (
	"fmt"
	"net"

	"github.com/ishidawataru/sctp"
)

// Dial opens a reliable stream connection to a peer over TCP or
// SCTP, per the peer table's configured transport. Diameter requires
// message-boundary-preserving or self-delimiting framing either way;
// this HSS relies on the 20-byte header's length field for both.
func Dial(transport, addr string) (net.Conn, error) {
	switch transport {
	case "tcp":
		return net.Dial("tcp", addr)
	case "sctp":
		raddr, err := sctp.ResolveSCTPAddr("sctp", addr)
		if err != nil {
			return nil, fmt.Errorf("peer: resolve sctp addr %s: %w", addr, err)
		}
		return sctp.DialSCTP("sctp", nil, raddr)
	default:
		return nil, fmt.Errorf("peer: unsupported transport %q", transport)
	}
}

// Listen opens a listener accepting peer connections over TCP or
// SCTP on addr.
func Listen(transport, addr string) (net.Listener, error) {
	switch transport {
	case "tcp":
		return net.Listen("tcp", addr)
	case "sctp":
		laddr, err := sctp.ResolveSCTPAddr("sctp", addr)
		if err != nil {
			return nil, fmt.Errorf("peer: resolve sctp addr %s: %w", addr, err)
		}
		return sctp.ListenSCTP("sctp", laddr)
	default:
		return nil, fmt.Errorf("peer: unsupported transport %q", transport)
	}
}
