package debate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/agora-backend/internal/domain"
)

// Prompt builders. Plain string assembly, one builder per call site, same as
// the rest of our generation prompts.

func debaterSystemPrompt(d *domain.Debate, agent *domain.DebateAgent, phase string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a competitive debater arguing the %s side of the motion: %q.\n", agent.StanceValue(), d.Topic)

	if agent.StanceValue() == domain.StancePro && d.ProDefinition != nil {
		fmt.Fprintf(&b, "Your side's framing of the motion: %s\n", *d.ProDefinition)
	}
	if agent.StanceValue() == domain.StanceCon && d.ConDefinition != nil {
		fmt.Fprintf(&b, "Your side's framing of the motion: %s\n", *d.ConDefinition)
	}
	if agent.StyleTag != nil && *agent.StyleTag != "" {
		fmt.Fprintf(&b, "Debate style: %s.\n", *agent.StyleTag)
	}
	if len(agent.Persona) > 0 {
		fmt.Fprintf(&b, "Persona profile (JSON): %s\n", string(agent.Persona))
	}

	switch phase {
	case domain.PhaseOpening:
		b.WriteString("This is an opening round: lay out your strongest constructive case. Do not rebut yet.\n")
	case domain.PhaseRebuttal:
		b.WriteString("This is a rebuttal round: attack the opposing side's specific arguments and defend your own.\n")
	case domain.PhaseClosing:
		b.WriteString("This is the closing round: summarize the clash and explain why your side wins. No new arguments.\n")
	}
	b.WriteString("Stay under 300 words. Speak in first person.")
	return b.String()
}

func debaterUserPrompt(transcript string, phase string) string {
	if strings.TrimSpace(transcript) == "" {
		return "The debate is just beginning. Deliver your speech."
	}
	return fmt.Sprintf("Transcript so far:\n%s\n\nDeliver your %s speech now.", transcript, phase)
}

func judgeScoreSystemPrompt(d *domain.Debate) string {
	return fmt.Sprintf(
		"You are the judge of a formal debate on %q. Score the given debater's performance "+
			"this round on four dimensions, each 0-10: logic, rebuttal, clarity, evidence. "+
			"Respond with a JSON object: {\"logic\": n, \"rebuttal\": n, \"clarity\": n, \"evidence\": n, \"comment\": \"...\"}. "+
			"Note rule violations (fabricated evidence, personal attacks, new arguments in closing) in the comment.",
		d.Topic,
	)
}

func judgeScoreUserPrompt(stance, speech string) string {
	return fmt.Sprintf("The %s debater's speech this round:\n%s\n\nScore it.", stance, speech)
}

func audienceRequestSystemPrompt(d *domain.Debate, agent *domain.DebateAgent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an audience member at a debate on %q.", d.Topic)
	if t := agent.AudienceTypeValue(); t != "" {
		fmt.Fprintf(&b, " You watch it through the lens of a %s.", t)
	}
	b.WriteString(" If the current round provokes a point worth raising, request the floor. ")
	b.WriteString(`Respond with a JSON object: {"wants_to_speak": true|false, "content": "your point, or empty", "confidence": 0.0-1.0}. `)
	b.WriteString("Most rounds you should stay quiet; only speak when you add something the debaters missed.")
	return b.String()
}

func audienceSpeechSystemPrompt(d *domain.Debate, agent *domain.DebateAgent, stance string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an audience member granted the floor at a debate on %q, speaking in support of the %s side.", d.Topic, stance)
	if t := agent.AudienceTypeValue(); t != "" {
		fmt.Fprintf(&b, " Speak from your perspective as a %s.", t)
	}
	b.WriteString(" Make your point in under 120 words.")
	return b.String()
}

func approvalSystemPrompt() string {
	return "You are the judge moderating audience participation in a debate. " +
		"Approve requests that are relevant, civil, and add a perspective the debaters have not covered; reject the rest. " +
		`Respond with a JSON object: {"approved": true|false, "comment": "one sentence"}.`
}

func approvalUserPrompt(roundContext, claim string) string {
	return fmt.Sprintf("Round context:\n%s\n\nAudience speak-request:\n%s\n\nRule on it.", roundContext, claim)
}

// transcriptText renders prior messages into the flat form fed to prompts.
// Message order is the canonical created_at order.
func transcriptText(messages []*domain.DebateMessage, agentsByID map[string]*domain.DebateAgent) string {
	var b strings.Builder
	for _, m := range messages {
		label := "speaker"
		if a, ok := agentsByID[m.AgentID.String()]; ok {
			switch a.Role {
			case domain.AgentRoleDebater:
				label = a.StanceValue()
			case domain.AgentRoleAudience:
				label = "audience"
				if t := a.AudienceTypeValue(); t != "" {
					label = "audience/" + t
				}
			default:
				label = a.Role
			}
		}
		fmt.Fprintf(&b, "[%s] %s\n", label, m.Content)
	}
	return b.String()
}

// roundContextText is the synthesized summary handed to the judge when ruling
// on audience requests.
func roundContextText(d *domain.Debate, round *domain.DebateRound, transcript string) string {
	const maxContext = 2000
	if len(transcript) > maxContext {
		cut := len(transcript) - maxContext
		for cut < len(transcript) && !utf8.RuneStart(transcript[cut]) {
			cut++
		}
		transcript = "..." + transcript[cut:]
	}
	return fmt.Sprintf("Debate: %s\nRound %d (%s phase)\nRecent transcript:\n%s",
		d.Topic, round.Sequence, round.Phase, transcript)
}
