package debate

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	repos "github.com/yungbote/agora-backend/internal/data/repos/debate"
	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
	"github.com/yungbote/agora-backend/internal/realtime"
)

// Finalizer aggregates per-round scores into the final verdict. The audience
// contribution is an extension point here: the verdict weighs judge totals by
// judge_weight only, while the analytics path blends audience votes in.
type Finalizer struct {
	log     *logger.Logger
	policy  Policy
	emitter realtime.Emitter

	debates repos.DebateRepo
	rounds  repos.RoundRepo
	scores  repos.ScoreRepo
}

func NewFinalizer(
	log *logger.Logger,
	policy Policy,
	emitter realtime.Emitter,
	debates repos.DebateRepo,
	rounds repos.RoundRepo,
	scores repos.ScoreRepo,
) *Finalizer {
	return &Finalizer{
		log:     log.With("service", "Finalizer"),
		policy:  policy,
		emitter: emitter,
		debates: debates,
		rounds:  rounds,
		scores:  scores,
	}
}

// JudgeTotals sums each debater's four score dimensions across every round.
func (f *Finalizer) JudgeTotals(dbc dbctx.Context, d *domain.Debate, rs roster) (pro, con float64, err error) {
	allRounds, err := f.rounds.ListByDebate(dbc, d.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("list rounds: %w", err)
	}
	roundIDs := make([]uuid.UUID, 0, len(allRounds))
	for _, round := range allRounds {
		roundIDs = append(roundIDs, round.ID)
	}
	rows, err := f.scores.ListByRounds(dbc, roundIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("list scores: %w", err)
	}
	for _, s := range rows {
		switch s.AgentID {
		case rs.pro.ID:
			pro += s.Total()
		case rs.con.ID:
			con += s.Total()
		}
	}
	return pro, con, nil
}

// Finalize computes the verdict, persists it, and emits the terminal event.
// Any failure here is fatal to the debate; no partial verdict is stored.
func (f *Finalizer) Finalize(ctx context.Context, d *domain.Debate, rs roster) error {
	dbc := dbctx.New(ctx)

	judgePro, judgeCon, err := f.JudgeTotals(dbc, d, rs)
	if err != nil {
		return err
	}

	finalPro := judgePro * d.JudgeWeight
	finalCon := judgeCon * d.JudgeWeight

	// Raw-point draw threshold; the analytics path uses a different threshold
	// on its normalized 0-100 scale.
	winner := domain.WinnerDraw
	if math.Abs(finalPro-finalCon) >= f.policy.DrawThreshold {
		if finalPro > finalCon {
			winner = domain.WinnerPro
		} else {
			winner = domain.WinnerCon
		}
	}

	completedAt := time.Now().UTC()
	if err := f.debates.UpdateFields(dbc, d.ID, map[string]interface{}{
		"status":       domain.DebateStatusCompleted,
		"winner":       winner,
		"completed_at": completedAt,
	}); err != nil {
		return fmt.Errorf("persist verdict: %w", err)
	}

	f.emitter.Emit(ctx, realtime.Event{
		DebateID: d.ID,
		Type:     realtime.EventDebateEnd,
		Data: realtime.DebateEndData{
			DebateID:    d.ID,
			Winner:      winner,
			FinalScores: realtime.ScorePair{Pro: finalPro, Con: finalCon},
			JudgeScores: realtime.ScorePair{Pro: judgePro, Con: judgeCon},
		},
	})
	f.log.Info("Debate finalized",
		"debate_id", d.ID,
		"winner", winner,
		"final_pro", finalPro,
		"final_con", finalCon,
	)
	return nil
}
