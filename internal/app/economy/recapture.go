package economy

import (
	"strings"

	"ledgerworld/internal/domain/ledger"
)

// hostilityTerms is the fixed vocabulary scanned for in agent memory when
// judging whether a forced take-over reads as provoked.
var hostilityTerms = []string{
	"hostile",
	"enemy",
	"attacked",
	"stole",
	"aggressive",
	"threat",
}

// RecaptureJustified decides whether recapturing a generator is narratively
// justified by the agent's memory. It is advisory only; the ledger enforces
// its own rules regardless, and this gates nothing stronger than a warning.
//
// The check is a conjunction over the same text: the memory must contain
// both a hostility term and the current owner's address prefix (first 8
// characters, case-insensitive). One without the other is not enough.
func RecaptureJustified(gen ledger.Generator, actorAddr, memory string) bool {
	if gen.OwnedBy(actorAddr) {
		return false
	}
	if !gen.Claimed() {
		return false
	}

	mem := strings.ToLower(memory)
	ownerRef := strings.ToLower(gen.Owner)
	if len(ownerRef) > 8 {
		ownerRef = ownerRef[:8]
	}
	if !strings.Contains(mem, ownerRef) {
		return false
	}
	for _, term := range hostilityTerms {
		if strings.Contains(mem, term) {
			return true
		}
	}
	return false
}
