package debate

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/agora-backend/internal/platform/logger"
	"github.com/yungbote/agora-backend/internal/utils"
)

// Policy carries the tunables of the orchestration engine. None of them are
// correctness-critical except the admission cap and the audience window bounds.
type Policy struct {
	MaxConcurrentSessions int `yaml:"max_concurrent_sessions"`

	// Audience participation window, inclusive on both ends. Rounds whose
	// sequence falls inside run the audience sub-protocol; the window is
	// allowed to overlap the closing phase.
	AudienceWindowStart int `yaml:"audience_window_start"`
	AudienceWindowEnd   int `yaml:"audience_window_end"`

	InterRoundDelay time.Duration `yaml:"inter_round_delay"`
	TeardownGrace   time.Duration `yaml:"teardown_grace"`

	DefaultAudienceConfidence float64 `yaml:"default_audience_confidence"`

	// DrawThreshold applies to the finalizer's raw judge-point comparison.
	// NormalizedDrawThreshold applies to the analytics weighted result on its
	// 0-100 scale. The two paths intentionally do not share a unit.
	DrawThreshold           float64 `yaml:"draw_threshold"`
	NormalizedDrawThreshold float64 `yaml:"normalized_draw_threshold"`
}

func DefaultPolicy() Policy {
	return Policy{
		MaxConcurrentSessions:     3,
		AudienceWindowStart:       3,
		AudienceWindowEnd:         6,
		InterRoundDelay:           2 * time.Second,
		TeardownGrace:             5 * time.Second,
		DefaultAudienceConfidence: 0.8,
		DrawThreshold:             0.1,
		NormalizedDrawThreshold:   5.0,
	}
}

// InAudienceWindow reports whether a round sequence is eligible for the
// audience sub-protocol.
func (p Policy) InAudienceWindow(sequence int) bool {
	return sequence >= p.AudienceWindowStart && sequence <= p.AudienceWindowEnd
}

// LoadPolicy starts from defaults, applies env overrides, then applies the
// YAML file named by DEBATE_POLICY_FILE when present.
func LoadPolicy(log *logger.Logger) (Policy, error) {
	p := DefaultPolicy()

	p.MaxConcurrentSessions = utils.GetEnvAsInt("DEBATE_MAX_CONCURRENT", p.MaxConcurrentSessions, log)
	p.AudienceWindowStart = utils.GetEnvAsInt("DEBATE_AUDIENCE_WINDOW_START", p.AudienceWindowStart, log)
	p.AudienceWindowEnd = utils.GetEnvAsInt("DEBATE_AUDIENCE_WINDOW_END", p.AudienceWindowEnd, log)
	if ms := utils.GetEnvAsInt("DEBATE_INTER_ROUND_DELAY_MS", int(p.InterRoundDelay/time.Millisecond), log); ms >= 0 {
		p.InterRoundDelay = time.Duration(ms) * time.Millisecond
	}
	if ms := utils.GetEnvAsInt("DEBATE_TEARDOWN_GRACE_MS", int(p.TeardownGrace/time.Millisecond), log); ms >= 0 {
		p.TeardownGrace = time.Duration(ms) * time.Millisecond
	}
	p.DefaultAudienceConfidence = utils.GetEnvAsFloat("DEBATE_DEFAULT_AUDIENCE_CONFIDENCE", p.DefaultAudienceConfidence, log)

	if path := strings.TrimSpace(os.Getenv("DEBATE_POLICY_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("read policy file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("parse policy file: %w", err)
		}
		log.Info("Debate policy loaded from file", "path", path)
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func (p Policy) Validate() error {
	if p.MaxConcurrentSessions < 1 {
		return fmt.Errorf("max_concurrent_sessions must be >= 1")
	}
	if p.AudienceWindowStart < 1 || p.AudienceWindowEnd < p.AudienceWindowStart {
		return fmt.Errorf("audience window [%d,%d] is invalid", p.AudienceWindowStart, p.AudienceWindowEnd)
	}
	if p.DefaultAudienceConfidence < 0 || p.DefaultAudienceConfidence > 1 {
		return fmt.Errorf("default_audience_confidence must be within [0,1]")
	}
	return nil
}
