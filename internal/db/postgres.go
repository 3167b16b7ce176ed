package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/platform/logger"
	"github.com/yungbote/agora-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	port := utils.GetEnv("POSTGRES_PORT", "5432", log)
	user := utils.GetEnv("POSTGRES_USER", "postgres", log)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	name := utils.GetEnv("POSTGRES_NAME", "agora", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := s.db.AutoMigrate(
		&domain.Debate{},
		&domain.DebateAgent{},
		&domain.DebateRound{},
		&domain.DebateMessage{},
		&domain.RoundScore{},
		&domain.AudienceRequest{},
		&domain.AudienceVote{},
	); err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	// Deletions cascade debate -> round -> {message, score, request}; agents and
	// votes hang off the debate directly.
	constraints := []struct {
		name string
		ddl  string
	}{
		{"fk_debate_agent_debate_id", `ALTER TABLE "debate_agent" ADD CONSTRAINT "fk_debate_agent_debate_id" FOREIGN KEY ("debate_id") REFERENCES "debate"("id") ON DELETE CASCADE`},
		{"fk_debate_round_debate_id", `ALTER TABLE "debate_round" ADD CONSTRAINT "fk_debate_round_debate_id" FOREIGN KEY ("debate_id") REFERENCES "debate"("id") ON DELETE CASCADE`},
		{"fk_debate_message_round_id", `ALTER TABLE "debate_message" ADD CONSTRAINT "fk_debate_message_round_id" FOREIGN KEY ("round_id") REFERENCES "debate_round"("id") ON DELETE CASCADE`},
		{"fk_round_score_round_id", `ALTER TABLE "round_score" ADD CONSTRAINT "fk_round_score_round_id" FOREIGN KEY ("round_id") REFERENCES "debate_round"("id") ON DELETE CASCADE`},
		{"fk_audience_request_round_id", `ALTER TABLE "audience_request" ADD CONSTRAINT "fk_audience_request_round_id" FOREIGN KEY ("round_id") REFERENCES "debate_round"("id") ON DELETE CASCADE`},
		{"fk_audience_vote_debate_id", `ALTER TABLE "audience_vote" ADD CONSTRAINT "fk_audience_vote_debate_id" FOREIGN KEY ("debate_id") REFERENCES "debate"("id") ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		var exists bool
		if err := s.db.Raw(
			`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, c.name,
		).Scan(&exists).Error; err != nil {
			return fmt.Errorf("check constraint %s: %w", c.name, err)
		}
		if exists {
			continue
		}
		if err := s.db.Exec(c.ddl).Error; err != nil {
			return fmt.Errorf("add constraint %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
