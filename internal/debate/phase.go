package debate

import "github.com/yungbote/agora-backend/internal/domain"

// PhaseFor maps a round sequence to its discourse phase. Opening takes
// precedence over closing when maxRounds <= 2, so short debates never skip
// their opening statements. Total over sequence in [1, maxRounds].
func PhaseFor(sequence, maxRounds int) string {
	if sequence <= 2 {
		return domain.PhaseOpening
	}
	if maxRounds > 2 && sequence >= maxRounds {
		return domain.PhaseClosing
	}
	return domain.PhaseRebuttal
}
