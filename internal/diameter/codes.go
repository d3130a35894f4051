package diameter

// Command codes used on the S6a/S6d reference point, plus the base
// protocol commands the peer layer must speak (CER/CEA, DWR/DWA,
// DPR/DPA). Request/answer are distinguished by the R bit in the
// command flags, not by a separate code.
const (
	CodeCapabilitiesExchange = 257
	CodeDeviceWatchdog       = 280
	CodeDisconnectPeer       = 282

	CodeUpdateLocation         = 316
	CodeCancelLocation         = 317
	CodeAuthenticationInfo     = 318
	CodePurgeUE                = 321
	CodeNotify                 = 323
)

// Command flag bits (RFC 6733 §3).
const (
	FlagRequest       uint8 = 0x80
	FlagProxiable     uint8 = 0x40
	FlagError         uint8 = 0x20
	FlagRetransmitted uint8 = 0x10
)

// ApplicationS6a is the 3GPP S6a/S6d application-id; ApplicationBase (0)
// carries CER/DWR/DPR which are application-agnostic.
const (
	ApplicationBase uint32 = 0
	ApplicationS6a  uint32 = 16777251
)

// Vendor3GPP is the 3GPP vendor-id used on every S6a experimental-result
// and vendor-specific AVP.
const Vendor3GPP uint32 = 10415

// Base protocol result codes (RFC 6733 / RFC 7944).
const (
	ResultSuccess            uint32 = 2001
	ResultCommandUnsupported uint32 = 3001
	ResultRealmNotServed     uint32 = 3003
	ResultInvalidAVPValue    uint32 = 5004
	ResultMissingAVP         uint32 = 5005
	ResultUnableToComply     uint32 = 5012
)

// 3GPP experimental result codes (TS 29.272), reported via the
// Experimental-Result grouped AVP alongside Vendor3GPP rather than via
// the base Result-Code AVP.
const (
	ExperimentalUserUnknown              uint32 = 5001
	ExperimentalRoamingNotAllowed        uint32 = 5004
	ExperimentalUnknownEPSSubscription   uint32 = 5420
	ExperimentalRATNotAllowed            uint32 = 5421
	ExperimentalUnknownServingNode       uint32 = 5423
	ExperimentalAuthDataUnavailable      uint32 = 4181
)

// ODB error-diagnostic values carried in Update-Location answers when
// roaming is refused for a barred subscriber.
const (
	DiagODBAllAPN   uint32 = 2
	DiagODBHPLMNAPN uint32 = 3
	DiagODBVPLMNAPN uint32 = 4
)

// RAT-Type values relevant to S6a (TS 29.212 §5.3.31); the HSS only
// accepts EUTRAN on S6a.
const (
	RATTypeEUTRAN uint32 = 1004
	RATTypeWLAN   uint32 = 0
)

// CancellationType values (TS 29.272 §7.3.24).
const (
	CancellationMMEUpdateProcedure uint32 = 1
)

// ODB subscription states (TS 29.272 §7.3.31).
const (
	ODBNone     = "none"
	ODBAllAPN   = "ODB-all-APN"
	ODBHPLMNAPN = "ODB-HPLMN-APN"
	ODBVPLMNAPN = "ODB-VPLMN-APN"
)

// Operator-Determined-Barring bitmask values (TS 29.272 §7.3.28).
const (
	ODBBitAllAPN   uint32 = 1 << 0
	ODBBitHPLMNAPN uint32 = 1 << 1
	ODBBitVPLMNAPN uint32 = 1 << 2
)

// PDN-Type values (TS 29.272 §7.3.62).
const (
	PDNTypeIPv4     uint32 = 0
	PDNTypeIPv6     uint32 = 1
	PDNTypeIPv4v6   uint32 = 2
	PDNTypeIPv4OrV6 uint32 = 3
)

// PDN-GW-Allocation-Type values (TS 29.272 §7.3.44).
const (
	PDNGWAllocationStatic  uint32 = 0
	PDNGWAllocationDynamic uint32 = 1
)

// VPLMN-Dynamic-Address-Allowed values (TS 29.272 §7.3.204).
const (
	VPLMNDynamicAddressNotAllowed uint32 = 0
	VPLMNDynamicAddressAllowed    uint32 = 1
)
