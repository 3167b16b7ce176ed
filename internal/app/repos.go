package app

import (
	"gorm.io/gorm"

	repos "github.com/yungbote/agora-backend/internal/data/repos/debate"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

type Repos struct {
	Debates  repos.DebateRepo
	Agents   repos.AgentRepo
	Rounds   repos.RoundRepo
	Messages repos.MessageRepo
	Scores   repos.ScoreRepo
	Requests repos.AudienceRequestRepo
	Votes    repos.VoteRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Debates:  repos.NewDebateRepo(db, log),
		Agents:   repos.NewAgentRepo(db, log),
		Rounds:   repos.NewRoundRepo(db, log),
		Messages: repos.NewMessageRepo(db, log),
		Scores:   repos.NewScoreRepo(db, log),
		Requests: repos.NewAudienceRequestRepo(db, log),
		Votes:    repos.NewVoteRepo(db, log),
	}
}
