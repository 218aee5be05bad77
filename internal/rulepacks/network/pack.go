// Package network provides the security-group rule pack.
//
// Convention: every rule pack lives in internal/rulepacks/<domain>/pack.go
// and exposes a single New() func returning []rules.Rule.
package network

import "github.com/pankaj-dahiya-devops/cloud-posture/internal/rules"

// Domain is the policy domain name of this pack.
const Domain = "network"

// New returns the default network audit rule pack.
func New() []rules.Rule {
	return []rules.Rule{
		rules.SGUnrestrictedInboundRule{},    // CRITICAL/HIGH: inbound open to 0.0.0.0/0 or ::/0
		rules.SGManagementPortExposureRule{}, // CRITICAL:      management port open to 0.0.0.0/0
		rules.SGIPv6ExposureRule{},           // CRITICAL/HIGH: inbound open to ::/0
		rules.SGDeprecatedProtocolsRule{},    // HIGH:          Telnet, FTP, TFTP, ...
		rules.SGAllTrafficRule{},             // HIGH/MEDIUM:   protocol -1 inbound
		rules.SGOutboundSensitiveTierRule{},  // HIGH:          sensitive tier egress to internet
		rules.SGOverlyBroadSourceRule{},      // MEDIUM:        /8-class source CIDRs
		rules.SGUnnecessaryICMPRule{},        // LOW:           all ICMP types
		rules.SGMissingDescriptionsRule{},    // LOW:           rules without descriptions
	}
}
