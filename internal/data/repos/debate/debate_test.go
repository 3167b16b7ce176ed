package debate

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/agora-backend/internal/data/repos/testutil"
	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
)

func seedDebate(t *testing.T, repo DebateRepo, dbc dbctx.Context) *domain.Debate {
	t.Helper()
	d := &domain.Debate{
		ID:          uuid.New(),
		Topic:       "Four-day work weeks raise productivity",
		MaxRounds:   4,
		JudgeWeight: 0.7,
		Status:      domain.DebateStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := repo.Create(dbc, []*domain.Debate{d}); err != nil {
		t.Fatalf("create debate: %v", err)
	}
	return d
}

func TestDebateRepoCRUD(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := NewDebateRepo(db, log)
	dbc := dbctx.WithTx(context.Background(), testutil.Tx(t, db))

	d := seedDebate(t, repo, dbc)

	got, err := repo.GetByID(dbc, d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Topic != d.Topic {
		t.Fatalf("got = %+v, want topic %q", got, d.Topic)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing debate = %+v, want nil", missing)
	}

	completedAt := time.Now().UTC()
	err = repo.UpdateFields(dbc, d.ID, map[string]interface{}{
		"status":       domain.DebateStatusCompleted,
		"winner":       domain.WinnerCon,
		"completed_at": completedAt,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.GetByID(dbc, d.ID)
	if got.Status != domain.DebateStatusCompleted || got.Winner == nil || *got.Winner != domain.WinnerCon {
		t.Fatalf("after update: %+v", got)
	}

	// Clearing terminal fields on restart.
	err = repo.UpdateFields(dbc, d.ID, map[string]interface{}{
		"status":       domain.DebateStatusRunning,
		"winner":       nil,
		"completed_at": nil,
	})
	if err != nil {
		t.Fatalf("clear update: %v", err)
	}
	got, _ = repo.GetByID(dbc, d.ID)
	if got.Winner != nil || got.CompletedAt != nil {
		t.Fatalf("terminal fields not cleared: %+v", got)
	}

	if err := repo.Delete(dbc, d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = repo.GetByID(dbc, d.ID)
	if got != nil {
		t.Fatal("debate survived delete")
	}
}

func TestRoundRepoEnforcesUniqueSequence(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	debates := NewDebateRepo(db, log)
	rounds := NewRoundRepo(db, log)
	dbc := dbctx.WithTx(context.Background(), testutil.Tx(t, db))

	d := seedDebate(t, debates, dbc)
	first := &domain.DebateRound{
		ID:        uuid.New(),
		DebateID:  d.ID,
		Sequence:  1,
		Phase:     domain.PhaseOpening,
		StartedAt: time.Now().UTC(),
	}
	if _, err := rounds.Create(dbc, []*domain.DebateRound{first}); err != nil {
		t.Fatalf("create round: %v", err)
	}

	dup := &domain.DebateRound{
		ID:        uuid.New(),
		DebateID:  d.ID,
		Sequence:  1,
		Phase:     domain.PhaseOpening,
		StartedAt: time.Now().UTC(),
	}
	if _, err := rounds.Create(dbc, []*domain.DebateRound{dup}); err == nil {
		t.Fatal("duplicate (debate, sequence) accepted")
	}
}

func TestRoundRepoListAndComplete(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	debates := NewDebateRepo(db, log)
	rounds := NewRoundRepo(db, log)
	dbc := dbctx.WithTx(context.Background(), testutil.Tx(t, db))

	d := seedDebate(t, debates, dbc)
	// Inserted out of order; listing returns sequence order.
	for _, seq := range []int{3, 1, 2} {
		_, err := rounds.Create(dbc, []*domain.DebateRound{{
			ID:        uuid.New(),
			DebateID:  d.ID,
			Sequence:  seq,
			Phase:     domain.PhaseOpening,
			StartedAt: time.Now().UTC(),
		}})
		if err != nil {
			t.Fatalf("create round %d: %v", seq, err)
		}
	}

	listed, err := rounds.ListByDebate(dbc, d.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("rounds = %d, want 3", len(listed))
	}
	for i, round := range listed {
		if round.Sequence != i+1 {
			t.Fatalf("position %d has sequence %d", i, round.Sequence)
		}
	}

	at := time.Now().UTC()
	if err := rounds.Complete(dbc, listed[0].ID, at); err != nil {
		t.Fatalf("complete: %v", err)
	}
	relisted, _ := rounds.ListByDebate(dbc, d.ID)
	if relisted[0].CompletedAt == nil {
		t.Fatal("completed_at not persisted")
	}

	if err := rounds.DeleteByDebate(dbc, d.ID); err != nil {
		t.Fatalf("delete by debate: %v", err)
	}
	relisted, _ = rounds.ListByDebate(dbc, d.ID)
	if len(relisted) != 0 {
		t.Fatalf("rounds after delete = %d, want 0", len(relisted))
	}
}

func TestMessageRepoTranscriptOrder(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	debates := NewDebateRepo(db, log)
	rounds := NewRoundRepo(db, log)
	messages := NewMessageRepo(db, log)
	dbc := dbctx.WithTx(context.Background(), testutil.Tx(t, db))

	d := seedDebate(t, debates, dbc)
	round := &domain.DebateRound{ID: uuid.New(), DebateID: d.ID, Sequence: 1, Phase: domain.PhaseOpening, StartedAt: time.Now().UTC()}
	rounds.Create(dbc, []*domain.DebateRound{round})

	agentID := uuid.New()
	base := time.Now().UTC()
	// Insert newest first to prove ordering comes from created_at.
	for i := 2; i >= 0; i-- {
		_, err := messages.Create(dbc, []*domain.DebateMessage{{
			ID:        uuid.New(),
			RoundID:   round.ID,
			AgentID:   agentID,
			Content:   "turn",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}})
		if err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	listed, err := messages.ListByRounds(dbc, []uuid.UUID{round.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("messages = %d, want 3", len(listed))
	}
	for i := 1; i < len(listed); i++ {
		if listed[i].CreatedAt.Before(listed[i-1].CreatedAt) {
			t.Fatal("transcript out of created_at order")
		}
	}

	// Empty round set short-circuits without a query.
	empty, err := messages.ListByRounds(dbc, nil)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("messages for no rounds = %d", len(empty))
	}

	if err := messages.DeleteByRounds(dbc, []uuid.UUID{round.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	listed, _ = messages.ListByRounds(dbc, []uuid.UUID{round.ID})
	if len(listed) != 0 {
		t.Fatal("messages survived DeleteByRounds")
	}
}

func TestVoteRepoUpsertReplaces(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	debates := NewDebateRepo(db, log)
	votes := NewVoteRepo(db, log)
	dbc := dbctx.WithTx(context.Background(), testutil.Tx(t, db))

	d := seedDebate(t, debates, dbc)
	agentID := uuid.New()

	_, err := votes.Upsert(dbc, &domain.AudienceVote{
		ID:         uuid.New(),
		DebateID:   d.ID,
		AgentID:    agentID,
		Vote:       domain.WinnerPro,
		Confidence: 0.9,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	reason := "changed my mind"
	_, err = votes.Upsert(dbc, &domain.AudienceVote{
		ID:         uuid.New(),
		DebateID:   d.ID,
		AgentID:    agentID,
		Vote:       domain.WinnerCon,
		Confidence: 0.6,
		Reason:     &reason,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("re-vote: %v", err)
	}

	listed, err := votes.ListByDebate(dbc, d.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("votes = %d, want 1 after upsert", len(listed))
	}
	if listed[0].Vote != domain.WinnerCon || listed[0].Confidence != 0.6 {
		t.Fatalf("vote not replaced: %+v", listed[0])
	}
}

func TestAudienceRequestRepoStatusUpdates(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	debates := NewDebateRepo(db, log)
	rounds := NewRoundRepo(db, log)
	requests := NewAudienceRequestRepo(db, log)
	dbc := dbctx.WithTx(context.Background(), testutil.Tx(t, db))

	d := seedDebate(t, debates, dbc)
	round := &domain.DebateRound{ID: uuid.New(), DebateID: d.ID, Sequence: 3, Phase: domain.PhaseRebuttal, StartedAt: time.Now().UTC()}
	rounds.Create(dbc, []*domain.DebateRound{round})

	base := time.Now().UTC()
	rows := []*domain.AudienceRequest{
		{ID: uuid.New(), RoundID: round.ID, AgentID: uuid.New(), Intent: domain.IntentSupportPro, Claim: "first", Novelty: domain.NoveltyNew, Confidence: 0.8, Status: domain.RequestStatusPending, CreatedAt: base},
		{ID: uuid.New(), RoundID: round.ID, AgentID: uuid.New(), Intent: domain.IntentSupportCon, Claim: "second", Novelty: domain.NoveltyNew, Confidence: 0.8, Status: domain.RequestStatusPending, CreatedAt: base.Add(time.Millisecond)},
	}
	if _, err := requests.Create(dbc, rows); err != nil {
		t.Fatalf("create requests: %v", err)
	}

	err := requests.UpdateFields(dbc, rows[0].ID, map[string]interface{}{
		"status":        domain.RequestStatusApproved,
		"judge_comment": "on point",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	listed, err := requests.ListByRound(dbc, round.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("requests = %d, want 2", len(listed))
	}
	if listed[0].Claim != "first" || listed[1].Claim != "second" {
		t.Fatal("submission order lost")
	}
	if listed[0].Status != domain.RequestStatusApproved {
		t.Fatalf("status = %q, want approved", listed[0].Status)
	}
	if listed[0].JudgeComment == nil || *listed[0].JudgeComment != "on point" {
		t.Fatalf("judge comment = %v", listed[0].JudgeComment)
	}
}

func TestScoreRepoPairPerRound(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	debates := NewDebateRepo(db, log)
	rounds := NewRoundRepo(db, log)
	scores := NewScoreRepo(db, log)
	dbc := dbctx.WithTx(context.Background(), testutil.Tx(t, db))

	d := seedDebate(t, debates, dbc)
	round := &domain.DebateRound{ID: uuid.New(), DebateID: d.ID, Sequence: 1, Phase: domain.PhaseOpening, StartedAt: time.Now().UTC()}
	rounds.Create(dbc, []*domain.DebateRound{round})

	proID, conID := uuid.New(), uuid.New()
	pair := []*domain.RoundScore{
		{ID: uuid.New(), RoundID: round.ID, AgentID: proID, Logic: 8, Rebuttal: 7, Clarity: 9, Evidence: 6, CreatedAt: time.Now().UTC()},
		{ID: uuid.New(), RoundID: round.ID, AgentID: conID, Logic: 7, Rebuttal: 8, Clarity: 7, Evidence: 7, CreatedAt: time.Now().UTC()},
	}
	if _, err := scores.Create(dbc, pair); err != nil {
		t.Fatalf("create scores: %v", err)
	}

	listed, err := scores.ListByRounds(dbc, []uuid.UUID{round.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("scores = %d, want 2", len(listed))
	}
	for _, s := range listed {
		if s.AgentID == proID && s.Total() != 30 {
			t.Fatalf("pro total = %f, want 30", s.Total())
		}
	}

	// Second score for the same (round, agent) violates the unique index.
	dup := []*domain.RoundScore{{ID: uuid.New(), RoundID: round.ID, AgentID: proID, Logic: 1, CreatedAt: time.Now().UTC()}}
	if _, err := scores.Create(dbc, dup); err == nil {
		t.Fatal("duplicate (round, agent) score accepted")
	}
}
