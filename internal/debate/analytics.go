package debate

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	repos "github.com/yungbote/agora-backend/internal/data/repos/debate"
	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

// scoreDimensions is the number of judged dimensions per round score.
const scoreDimensions = 4

// Analytics serves the read-only post-hoc views over a debate: vote
// aggregation, the normalized weighted result, and transcript analysis.
// It shares no state with the live session path.
type Analytics struct {
	log      *logger.Logger
	policy   Policy
	analyzer BlindSpotAnalyzer

	debates  repos.DebateRepo
	agents   repos.AgentRepo
	rounds   repos.RoundRepo
	messages repos.MessageRepo
	scores   repos.ScoreRepo
	votes    repos.VoteRepo
}

func NewAnalytics(
	log *logger.Logger,
	policy Policy,
	analyzer BlindSpotAnalyzer,
	debates repos.DebateRepo,
	agents repos.AgentRepo,
	rounds repos.RoundRepo,
	messages repos.MessageRepo,
	scores repos.ScoreRepo,
	votes repos.VoteRepo,
) *Analytics {
	return &Analytics{
		log:      log.With("service", "Analytics"),
		policy:   policy,
		analyzer: analyzer,
		debates:  debates,
		agents:   agents,
		rounds:   rounds,
		messages: messages,
		scores:   scores,
		votes:    votes,
	}
}

type VoteTally struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type VoteAggregate struct {
	DebateID      uuid.UUID            `json:"debate_id"`
	TotalVotes    int                  `json:"total_votes"`
	Tallies       map[string]VoteTally `json:"tallies"`
	WeightedScore map[string]float64   `json:"weighted_score"`
}

// AggregateVotes tallies cast votes by value. With zero votes every
// percentage and weighted score is 0.
func (a *Analytics) AggregateVotes(dbc dbctx.Context, debateID uuid.UUID) (*VoteAggregate, error) {
	rows, err := a.votes.ListByDebate(dbc, debateID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	agg := &VoteAggregate{
		DebateID:      debateID,
		TotalVotes:    len(rows),
		Tallies:       map[string]VoteTally{},
		WeightedScore: map[string]float64{},
	}
	counts := map[string]int{}
	for _, v := range rows {
		counts[v.Vote]++
	}
	for _, value := range []string{domain.WinnerPro, domain.WinnerCon, domain.WinnerDraw} {
		t := VoteTally{Count: counts[value]}
		if agg.TotalVotes > 0 {
			t.Percentage = float64(t.Count) / float64(agg.TotalVotes) * 100
		}
		agg.Tallies[value] = t
	}
	// Placeholder linear weighting pending a confidence-aware scheme.
	agg.WeightedScore[domain.WinnerPro] = float64(counts[domain.WinnerPro]) * 10
	agg.WeightedScore[domain.WinnerCon] = float64(counts[domain.WinnerCon]) * 10
	return agg, nil
}

type WeightedResult struct {
	DebateID       uuid.UUID `json:"debate_id"`
	JudgeScorePro  float64   `json:"judge_score_pro"`
	JudgeScoreCon  float64   `json:"judge_score_con"`
	AudiencePro    float64   `json:"audience_pro"`
	AudienceCon    float64   `json:"audience_con"`
	FinalScorePro  float64   `json:"final_score_pro"`
	FinalScoreCon  float64   `json:"final_score_con"`
	Winner         string    `json:"winner"`
	JudgeWeight    float64   `json:"judge_weight"`
	AudienceWeight float64   `json:"audience_weight"`
}

// CalculateWeightedResult blends the judge totals with audience vote
// percentages on a common 0-100 scale. Judge totals are normalized against
// the theoretical maximum of dimensions x 10 points per round. The draw
// threshold lives in normalized space and is not the finalizer's raw-point
// threshold.
func (a *Analytics) CalculateWeightedResult(dbc dbctx.Context, debateID uuid.UUID) (*WeightedResult, error) {
	d, err := a.debates.GetByID(dbc, debateID)
	if err != nil {
		return nil, fmt.Errorf("get debate: %w", err)
	}
	if d == nil {
		return nil, notFoundError("debate %s not found", debateID)
	}

	allAgents, err := a.agents.ListByDebate(dbc, debateID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	rs, err := splitRoster(allAgents)
	if err != nil {
		return nil, err
	}

	allRounds, err := a.rounds.ListByDebate(dbc, debateID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	roundIDs := make([]uuid.UUID, 0, len(allRounds))
	for _, round := range allRounds {
		roundIDs = append(roundIDs, round.ID)
	}
	scoreRows, err := a.scores.ListByRounds(dbc, roundIDs)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	var judgePro, judgeCon float64
	for _, s := range scoreRows {
		switch s.AgentID {
		case rs.pro.ID:
			judgePro += s.Total()
		case rs.con.ID:
			judgeCon += s.Total()
		}
	}

	maxJudge := float64(scoreDimensions * 10 * len(allRounds))
	var normPro, normCon float64
	if maxJudge > 0 {
		normPro = judgePro / maxJudge * 100
		normCon = judgeCon / maxJudge * 100
	}

	agg, err := a.AggregateVotes(dbc, debateID)
	if err != nil {
		return nil, err
	}
	audiencePro := agg.Tallies[domain.WinnerPro].Percentage
	audienceCon := agg.Tallies[domain.WinnerCon].Percentage

	res := &WeightedResult{
		DebateID:       debateID,
		JudgeScorePro:  normPro,
		JudgeScoreCon:  normCon,
		AudiencePro:    audiencePro,
		AudienceCon:    audienceCon,
		JudgeWeight:    d.JudgeWeight,
		AudienceWeight: d.AudienceWeight(),
	}
	res.FinalScorePro = normPro*d.JudgeWeight + audiencePro*d.AudienceWeight()
	res.FinalScoreCon = normCon*d.JudgeWeight + audienceCon*d.AudienceWeight()

	res.Winner = domain.WinnerDraw
	if math.Abs(res.FinalScorePro-res.FinalScoreCon) >= a.policy.NormalizedDrawThreshold {
		if res.FinalScorePro > res.FinalScoreCon {
			res.Winner = domain.WinnerPro
		} else {
			res.Winner = domain.WinnerCon
		}
	}
	return res, nil
}

type DivergenceGroup struct {
	AudienceType string  `json:"audience_type"`
	Votes        int     `json:"votes"`
	ProFraction  float64 `json:"pro_fraction"`
}

type DivergenceReport struct {
	DebateID          uuid.UUID         `json:"debate_id"`
	Groups            []DivergenceGroup `json:"groups"`
	OverallDivergence float64           `json:"overall_divergence"`
}

// AnalyzePerspectiveDivergence measures how far audience segments disagree.
// The score is the population standard deviation of each segment's
// pro-fraction, 0 when fewer than two segments cast votes.
func (a *Analytics) AnalyzePerspectiveDivergence(dbc dbctx.Context, debateID uuid.UUID) (*DivergenceReport, error) {
	rows, err := a.votes.ListByDebate(dbc, debateID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	allAgents, err := a.agents.ListByDebate(dbc, debateID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	typeByAgent := map[uuid.UUID]string{}
	for _, ag := range allAgents {
		if ag.Role == domain.AgentRoleAudience {
			typeByAgent[ag.ID] = ag.AudienceTypeValue()
		}
	}

	type tally struct{ pro, total int }
	byType := map[string]*tally{}
	for _, v := range rows {
		at, ok := typeByAgent[v.AgentID]
		if !ok {
			continue
		}
		t := byType[at]
		if t == nil {
			t = &tally{}
			byType[at] = t
		}
		t.total++
		if v.Vote == domain.WinnerPro {
			t.pro++
		}
	}

	report := &DivergenceReport{DebateID: debateID}
	fractions := make([]float64, 0, len(byType))
	for at, t := range byType {
		if t.total == 0 {
			continue
		}
		f := float64(t.pro) / float64(t.total)
		fractions = append(fractions, f)
		report.Groups = append(report.Groups, DivergenceGroup{
			AudienceType: at,
			Votes:        t.total,
			ProFraction:  f,
		})
	}
	if len(fractions) >= 2 {
		var mean float64
		for _, f := range fractions {
			mean += f
		}
		mean /= float64(len(fractions))
		var variance float64
		for _, f := range fractions {
			variance += (f - mean) * (f - mean)
		}
		variance /= float64(len(fractions))
		report.OverallDivergence = math.Sqrt(variance)
	}
	return report, nil
}

type BlindSpotReport struct {
	DebateID   uuid.UUID `json:"debate_id"`
	BlindSpots []string  `json:"blind_spots"`
}

// AnalyzeBlindSpots runs the keyword heuristics over both debaters'
// concatenated transcripts. Deterministic, no model calls.
func (a *Analytics) AnalyzeBlindSpots(dbc dbctx.Context, debateID uuid.UUID) (*BlindSpotReport, error) {
	allAgents, err := a.agents.ListByDebate(dbc, debateID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	rs, err := splitRoster(allAgents)
	if err != nil {
		return nil, err
	}
	allRounds, err := a.rounds.ListByDebate(dbc, debateID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	roundIDs := make([]uuid.UUID, 0, len(allRounds))
	for _, round := range allRounds {
		roundIDs = append(roundIDs, round.ID)
	}
	msgs, err := a.messages.ListByRounds(dbc, roundIDs)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	var proText, conText string
	for _, m := range msgs {
		switch m.AgentID {
		case rs.pro.ID:
			proText += m.Content + "\n"
		case rs.con.ID:
			conText += m.Content + "\n"
		}
	}

	report := &BlindSpotReport{DebateID: debateID}
	report.BlindSpots = a.analyzer.Analyze(proText, conText)
	return report, nil
}
