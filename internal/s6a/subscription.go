package s6a

import (
	"fmt"

	"github.com/protei/hss/internal/diameter"
	"github.com/protei/hss/internal/store"
)

// buildSubscriptionData assembles the subscription_data grouped AVP
// (TS 29.272 §7.3.2): msisdn, optional stn_sr, subscriber_status, an
// operator_determined_barring AVP when ODB is set, charging
// characteristics, aggregate AMBR, and one apn_configuration_profile
// carrying one apn_configuration per provisioned APN.
func buildSubscriptionData(sub *store.Subscriber) *diameter.AVP {
	var children []*diameter.AVP
	children = append(children, diameter.New("msisdn", tbcdEncode(sub.MSISDN)))
	if sub.STNSR != "" {
		children = append(children, diameter.New("stn_sr", tbcdEncode(sub.STNSR)))
	}
	// Subscriber-Status is OPERATOR_DETERMINED_BARRING (1) whenever an
	// ODB category is set, SERVICE_GRANTED (0) otherwise (TS 29.272
	// §7.3.29).
	bit, barred := odbBit(sub.ODB)
	status := uint32(0)
	if barred {
		status = 1
	}
	children = append(children, diameter.NewUint32("subscriber_status", status))
	if barred {
		children = append(children, diameter.NewUint32("operator_determined_barring", bit))
	}

	children = append(children, diameter.New("3gpp_charging_characteristics", []byte(scharHex(sub.SCHAR))))

	children = append(children, diameter.NewGrouped("ambr",
		diameter.NewUint32("max_requested_bandwidth_ul", uint32(sub.AMBRMaxUL)),
		diameter.NewUint32("max_requested_bandwidth_dl", uint32(sub.AMBRMaxDL)),
	))

	var apnConfigs []*diameter.AVP
	for _, apn := range sub.APNs {
		apnConfigs = append(apnConfigs, buildAPNConfiguration(sub, apn))
	}
	profile := diameter.NewGrouped("apn_configuration_profile", append([]*diameter.AVP{
		diameter.NewUint32("context_identifier", sub.DefaultAPN),
		diameter.NewUint32("all_apn_configurations_included_indicator", 0),
	}, apnConfigs...)...)
	children = append(children, profile)

	return diameter.NewGrouped("subscription_data", children...)
}

func buildAPNConfiguration(sub *store.Subscriber, apn store.APN) *diameter.AVP {
	children := []*diameter.AVP{
		diameter.NewUint32("context_identifier", apn.ContextID),
		diameter.NewUTF8String("service_selection", apn.ServiceSelection),
		diameter.NewUint32("pdn_type", apn.PDNType),
		diameter.NewGrouped("eps_subscribed_qos_profile",
			diameter.NewUint32("qos_class_identifier", apn.QCI),
			diameter.NewGrouped("allocation_retention_priority",
				diameter.NewUint32("priority_level", apn.PriorityLevel),
				diameter.NewUint32("pre_emption_capability", 0),
				diameter.NewUint32("pre_emption_vulnerability", 0),
			),
		),
		diameter.NewGrouped("ambr",
			diameter.NewUint32("max_requested_bandwidth_ul", uint32(apn.AMBRMaxUL)),
			diameter.NewUint32("max_requested_bandwidth_dl", uint32(apn.AMBRMaxDL)),
		),
		diameter.NewUint32("vplmn_dynamic_address_allowed", diameter.VPLMNDynamicAddressNotAllowed),
	}

	if mip, ok := sub.FindMIP6(apn.ContextID); ok && mip.Bound() {
		children = append(children,
			diameter.NewUint32("pdn_gw_allocation_type", diameter.PDNGWAllocationDynamic),
			diameter.NewGrouped("mip6_agent_info",
				diameter.NewGrouped("mip_home_agent_host",
					diameter.NewUTF8String("destination_realm", mip.DestinationRealm),
					diameter.NewUTF8String("destination_host", mip.DestinationHost),
				),
			),
		)
	}

	return diameter.NewGrouped("apn_configuration", children...)
}

func odbBit(o store.ODB) (uint32, bool) {
	switch o {
	case store.ODBAllAPN:
		return diameter.ODBBitAllAPN, true
	case store.ODBHPLMNAPN:
		return diameter.ODBBitHPLMNAPN, true
	case store.ODBVPLMNAPN:
		return diameter.ODBBitVPLMNAPN, true
	default:
		return 0, false
	}
}

// scharHex renders a 1-15 charging characteristics value as the
// 4-ASCII-digit hex form TS 29.272 uses on the wire, e.g. schar=8 ->
// "0800": the value is written as two hex digits, followed by "00".
func scharHex(schar int) string {
	return fmt.Sprintf("%02x00", schar)
}

// tbcdEncode packs a decimal digit string into 3GPP TBCD (TS 23.003
// §2.2): each byte holds two digits, low nibble first; an odd final
// digit is padded with 0xF in the high nibble.
func tbcdEncode(digits string) []byte {
	out := make([]byte, 0, (len(digits)+1)/2)
	for i := 0; i < len(digits); i += 2 {
		lo := digits[i] - '0'
		hi := byte(0x0F)
		if i+1 < len(digits) {
			hi = digits[i+1] - '0'
		}
		out = append(out, hi<<4|lo)
	}
	return out
}
