package debate

import (
	"testing"

	"github.com/yungbote/agora-backend/internal/domain"
)

func TestInferIntent(t *testing.T) {
	c := NewKeywordClassifier()
	cases := []struct {
		claim string
		want  string
	}{
		{"I strongly disagree with the premise here.", domain.IntentSupportCon},
		{"The pro argument is flawed and wrong.", domain.IntentSupportCon},
		{"I agree and would add supporting evidence.", domain.IntentSupportPro},
		{"I support the affirmative position.", domain.IntentSupportPro},
		// No markers at all defaults to pro.
		{"An interesting exchange so far.", domain.IntentSupportPro},
		// Mixed signals: objection wins the tie.
		{"I agree with parts but the argument is flawed.", domain.IntentSupportCon},
	}
	for _, tc := range cases {
		if got := c.InferIntent(tc.claim); got != tc.want {
			t.Errorf("InferIntent(%q) = %q, want %q", tc.claim, got, tc.want)
		}
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := NewKeywordBlindSpots()
	pro := "We have the data and a study."
	con := "Consider the case of a stakeholder community."

	first := a.Analyze(pro, con)
	second := a.Analyze(pro, con)
	if len(first) != len(second) {
		t.Fatalf("non-deterministic output: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non-deterministic output: %v vs %v", first, second)
		}
	}
}

func TestAnalyzeCombinesBothSides(t *testing.T) {
	a := NewKeywordBlindSpots()
	// Each side covers rules the other misses; combined text clears them.
	tags := a.Analyze(
		"The data and study back the long-term future.",
		"However, the opponent ignores the case of a community of stakeholders.",
	)
	if len(tags) != 0 {
		t.Fatalf("tags = %v, want none with combined coverage", tags)
	}
}
