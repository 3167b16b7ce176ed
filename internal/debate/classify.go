package debate

import (
	"strings"

	"github.com/yungbote/agora-backend/internal/domain"
)

// StanceClassifier infers which side a free-text claim supports. Kept as a
// narrow interface so the keyword heuristic can later be replaced by a learned
// classifier without touching orchestration control flow.
type StanceClassifier interface {
	InferIntent(claim string) string
}

// BlindSpotAnalyzer tags argumentation gaps from transcript text alone. Pure
// and deterministic: same transcripts, same tags.
type BlindSpotAnalyzer interface {
	Analyze(proText, conText string) []string
}

type keywordClassifier struct{}

func NewKeywordClassifier() StanceClassifier { return keywordClassifier{} }

var conSignals = []string{
	"disagree", "against", "oppose", "however", "but the pro", "refute",
	"flawed", "wrong", "con side",
}

var proSignals = []string{
	"agree", "support", "in favor", "the pro side", "affirmative",
}

// InferIntent scans for stance markers; con markers win on a tie because a
// hedged objection usually still objects. Unmarked claims default to pro.
func (keywordClassifier) InferIntent(claim string) string {
	lower := strings.ToLower(claim)

	conHits := 0
	for _, sig := range conSignals {
		if strings.Contains(lower, sig) {
			conHits++
		}
	}
	proHits := 0
	for _, sig := range proSignals {
		if strings.Contains(lower, sig) {
			proHits++
		}
	}

	if conHits >= proHits && conHits > 0 {
		return domain.IntentSupportCon
	}
	return domain.IntentSupportPro
}

type keywordBlindSpots struct{}

func NewKeywordBlindSpots() BlindSpotAnalyzer { return keywordBlindSpots{} }

type blindSpotRule struct {
	tag    string
	tokens []string
}

var blindSpotRules = []blindSpotRule{
	{"missing_empirical_data", []string{"data", "statistic", "study", "survey", "percent"}},
	{"missing_case_examples", []string{"case", "example", "instance", "precedent"}},
	{"missing_counterargument_engagement", []string{"opponent", "counter", "rebut", "however"}},
	{"missing_long_term_view", []string{"long-term", "long term", "future", "sustain"}},
	{"missing_stakeholder_analysis", []string{"stakeholder", "affected", "community", "society"}},
}

// Analyze reports a tag for each rule whose tokens appear in neither side's
// transcript. No external calls; fully reproducible from the text.
func (keywordBlindSpots) Analyze(proText, conText string) []string {
	combined := strings.ToLower(proText + "\n" + conText)

	var tags []string
	for _, rule := range blindSpotRules {
		found := false
		for _, token := range rule.tokens {
			if strings.Contains(combined, token) {
				found = true
				break
			}
		}
		if !found {
			tags = append(tags, rule.tag)
		}
	}
	return tags
}
