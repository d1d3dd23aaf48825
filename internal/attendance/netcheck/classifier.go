package netcheck

import (
	"context"
	"log/slog"
	"net/netip"

	"rollcall/internal/attendance/models"
)

// Classifier decides whether a submission arrived over a suspicious network.
// Classification is advisory metadata; the orchestrator decides whether a
// "Yes" rejects or merely flags.
//
// Rule order, short-circuiting on the first match:
//  1. CGNAT range        -> No (trusted carrier NAT; deliberate false-negative
//     bias so legitimate mobile users are never blocked)
//  2. Reputation service -> Yes on bogon/vpn/proxy/hosting
//  3. Known-VPN table    -> Yes
//  4. Otherwise          -> No
//
// A malformed IP or a reputation failure yields Unknown.
type Classifier struct {
	cgnat      RangeTable
	knownVPN   RangeTable
	reputation ReputationClient // nil disables the external lookup
	logger     *slog.Logger
}

// NewClassifier builds a classifier around immutable range tables. Passing a
// nil reputation client skips rule 2 entirely.
func NewClassifier(cgnat, knownVPN RangeTable, reputation ReputationClient, logger *slog.Logger) *Classifier {
	return &Classifier{
		cgnat:      cgnat,
		knownVPN:   knownVPN,
		reputation: reputation,
		logger:     logger,
	}
}

// Classify runs the rule chain for one address.
func (c *Classifier) Classify(ctx context.Context, ip string) models.NetworkFlag {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		c.logger.WarnContext(ctx, "malformed ip, network check skipped", "ip", ip)
		return models.NetworkFlagUnknown
	}

	if c.cgnat.Contains(addr) {
		return models.NetworkFlagNo
	}

	if c.reputation != nil {
		rep, err := c.reputation.Lookup(ctx, ip)
		if err != nil {
			c.logger.WarnContext(ctx, "reputation lookup failed, classification unknown",
				"ip", ip,
				"error", err,
			)
			return models.NetworkFlagUnknown
		}
		if rep.Suspicious() {
			return models.NetworkFlagYes
		}
	}

	if c.knownVPN.Contains(addr) {
		return models.NetworkFlagYes
	}

	return models.NetworkFlagNo
}
