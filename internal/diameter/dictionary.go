package diameter

// baseType classifies an AVP's payload for typed accessors. It is not a
// full Diameter type system, only what the S6a command set needs.
type baseType int

const (
	typeOctetString baseType = iota
	typeUTF8String
	typeDiamIdent
	typeUnsigned32
	typeInteger32
	typeEnumerated
	typeGrouped
	typeAddress
)

// definition is one dictionary entry: the (code, vendor-id) pair an AVP
// name resolves to, plus its wire type.
type definition struct {
	name     string
	code     uint32
	vendorID uint32
	kind     baseType
}

// dictionary is the static name <-> (code, vendor-id) registry the codec
// uses for polymorphic lookup. It covers the base protocol AVPs and the
// 3GPP TS 29.272 S6a AVP set the command handlers in internal/s6a need.
var dictionary = buildDictionary([]definition{
	// Base protocol (RFC 6733).
	{"session_id", 263, 0, typeUTF8String},
	{"origin_host", 264, 0, typeDiamIdent},
	{"origin_realm", 296, 0, typeDiamIdent},
	{"destination_host", 293, 0, typeDiamIdent},
	{"destination_realm", 283, 0, typeDiamIdent},
	{"result_code", 268, 0, typeUnsigned32},
	{"experimental_result", 297, 0, typeGrouped},
	{"experimental_result_code", 298, 0, typeUnsigned32},
	{"vendor_id", 266, 0, typeUnsigned32},
	{"product_name", 269, 0, typeUTF8String},
	{"firmware_revision", 267, 0, typeUnsigned32},
	{"host_ip_address", 257, 0, typeAddress},
	{"auth_session_state", 277, 0, typeEnumerated},
	{"origin_state_id", 278, 0, typeUnsigned32},
	{"error_message", 281, 0, typeUTF8String},
	{"failed_avp", 279, 0, typeGrouped},
	{"vendor_specific_application_id", 260, 0, typeGrouped},
	{"auth_application_id", 258, 0, typeUnsigned32},
	{"acct_application_id", 259, 0, typeUnsigned32},
	{"user_name", 1, 0, typeUTF8String},
	{"inband_security_id", 299, 0, typeUnsigned32},
	{"supported_vendor_id", 265, 0, typeUnsigned32},
	{"disconnect_cause", 273, 0, typeEnumerated},

	// TS 29.272 S6a AVPs, all vendor 3GPP unless noted as base (AVPs
	// originally defined elsewhere, e.g. Service-Selection in TS 29.212).
	{"visited_plmn_id", 1407, Vendor3GPP, typeOctetString},
	{"rat_type", 1032, Vendor3GPP, typeEnumerated},
	{"ulr_flags", 1405, Vendor3GPP, typeUnsigned32},
	{"ula_flags", 1406, Vendor3GPP, typeUnsigned32},
	{"ue_srvcc_capability", 1615, Vendor3GPP, typeEnumerated},
	{"requested_eutran_authentication_info", 1408, Vendor3GPP, typeGrouped},
	{"number_of_requested_vectors", 1410, Vendor3GPP, typeUnsigned32},
	{"immediate_response_preferred", 1412, Vendor3GPP, typeUnsigned32},
	{"re_synchronization_info", 1411, Vendor3GPP, typeOctetString},
	{"authentication_info", 1413, Vendor3GPP, typeGrouped},
	{"e_utran_vector", 1414, Vendor3GPP, typeGrouped},
	{"item_number", 1419, Vendor3GPP, typeUnsigned32},
	{"rand", 1447, Vendor3GPP, typeOctetString},
	{"xres", 1448, Vendor3GPP, typeOctetString},
	{"autn", 1449, Vendor3GPP, typeOctetString},
	{"kasme", 1450, Vendor3GPP, typeOctetString},
	{"subscription_data", 1400, Vendor3GPP, typeGrouped},
	{"msisdn", 701, Vendor3GPP, typeOctetString},
	{"stn_sr", 1715, Vendor3GPP, typeOctetString},
	{"subscriber_status", 1424, Vendor3GPP, typeEnumerated},
	{"operator_determined_barring", 1425, Vendor3GPP, typeUnsigned32},
	{"3gpp_charging_characteristics", 13, Vendor3GPP, typeOctetString},
	{"ambr", 1435, Vendor3GPP, typeGrouped},
	{"max_requested_bandwidth_ul", 516, 0, typeUnsigned32},
	{"max_requested_bandwidth_dl", 515, 0, typeUnsigned32},
	{"apn_configuration_profile", 1429, Vendor3GPP, typeGrouped},
	{"context_identifier", 1423, Vendor3GPP, typeUnsigned32},
	{"all_apn_configurations_included_indicator", 1428, Vendor3GPP, typeEnumerated},
	{"apn_configuration", 1430, Vendor3GPP, typeGrouped},
	{"service_selection", 493, 0, typeUTF8String},
	{"pdn_type", 1456, Vendor3GPP, typeEnumerated},
	{"eps_subscribed_qos_profile", 1431, Vendor3GPP, typeGrouped},
	{"qos_class_identifier", 1028, 0, typeEnumerated},
	{"allocation_retention_priority", 1034, 0, typeGrouped},
	{"priority_level", 1046, Vendor3GPP, typeUnsigned32},
	{"pre_emption_capability", 1047, 0, typeEnumerated},
	{"pre_emption_vulnerability", 1048, 0, typeEnumerated},
	{"vplmn_dynamic_address_allowed", 1432, Vendor3GPP, typeEnumerated},
	{"pdn_gw_allocation_type", 1438, Vendor3GPP, typeEnumerated},
	{"mip6_agent_info", 486, 0, typeGrouped},
	{"mip_home_agent_host", 348, 0, typeGrouped},
	{"mip_home_agent_address", 334, 0, typeAddress},
	{"supported_features", 628, Vendor3GPP, typeGrouped},
	{"feature_list_id", 629, Vendor3GPP, typeUnsigned32},
	{"feature_list", 630, Vendor3GPP, typeUnsigned32},
	{"error_diagnostic", 2905, Vendor3GPP, typeEnumerated},
	{"cancellation_type", 1420, Vendor3GPP, typeEnumerated},
	{"pua_flags", 1442, Vendor3GPP, typeUnsigned32},
})

func buildDictionary(defs []definition) map[string]definition {
	m := make(map[string]definition, len(defs))
	for _, d := range defs {
		m[d.name] = d
	}
	return m
}

// lookupByCode finds the dictionary entry matching a decoded AVP's wire
// identity, for naming AVPs found during decode that weren't looked up
// by name first.
func lookupByCode(code, vendorID uint32) (definition, bool) {
	for _, d := range dictionary {
		if d.code == code && d.vendorID == vendorID {
			return d, true
		}
	}
	return definition{}, false
}
