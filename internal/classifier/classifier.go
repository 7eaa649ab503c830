// Package classifier derives routing labels for completed crisis-line calls.
//
// Each call is labeled with a (provider_name, niche) pair. Transcript-based
// emergency escalation takes priority over the phone routing table; calls
// matching neither fall back to the Unknown sentinels.
package classifier

import (
	"strings"

	"github.com/triagelab/crisisline/internal/providers"
)

// Classify derives the routing label pair for a call. It is a pure function:
// the same call always yields the same labels.
func Classify(c *Call) providers.Entry {
	if EscalatedToEmergency(c.Transcript) {
		return providers.Entry{
			ProviderName: providers.EscalatedProvider,
			Niche:        providers.EmergencyNiche,
		}
	}

	if c.PhoneNumber != "" {
		if entry, ok := providers.Lookup(c.PhoneNumber); ok {
			return entry
		}
	}

	return providers.Entry{
		ProviderName: providers.UnknownProvider,
		Niche:        providers.UnknownNiche,
	}
}

// EscalatedToEmergency reports whether a transcript shows a 911 escalation:
// at least one caller line mentioning an emergency and at least one agent line
// directing to call 911. The lines need not be adjacent or in order.
func EscalatedToEmergency(transcript string) bool {
	if transcript == "" {
		return false
	}

	var userSaidEmergency, agentSaidCall911 bool
	for _, line := range strings.Split(transcript, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "user:") && strings.Contains(lower, "emergency") {
			userSaidEmergency = true
		}
		if strings.Contains(lower, "agent:") &&
			(strings.Contains(lower, "call 911") || strings.Contains(lower, "call 9-1-1")) {
			agentSaidCall911 = true
		}
		if userSaidEmergency && agentSaidCall911 {
			return true
		}
	}

	return false
}
