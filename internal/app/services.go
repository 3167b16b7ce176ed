package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/agora-backend/internal/clients/openai"
	"github.com/yungbote/agora-backend/internal/debate"
	"github.com/yungbote/agora-backend/internal/platform/logger"
	"github.com/yungbote/agora-backend/internal/realtime"
	"github.com/yungbote/agora-backend/internal/realtime/bus"
)

type Services struct {
	Policy    debate.Policy
	Invoker   *openai.Client
	Emitter   realtime.Emitter
	Bus       bus.Bus
	Registry  debate.SessionRegistry
	Debate    *debate.Service
	Analytics *debate.Analytics
}

func wireServices(log *logger.Logger, reposet Repos, hub *realtime.Hub) (Services, error) {
	policy, err := debate.LoadPolicy(log)
	if err != nil {
		return Services{}, fmt.Errorf("load policy: %w", err)
	}

	invoker, err := openai.NewClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init openai client: %w", err)
	}

	// With REDIS_ADDR set, events fan out through redis so every instance's
	// hub serves its own subscribers. Otherwise the local hub is the emitter.
	var (
		emitter  realtime.Emitter = &realtime.HubEmitter{Hub: hub}
		eventBus bus.Bus
	)
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		eventBus, err = bus.NewRedisBus(log)
		if err != nil {
			return Services{}, fmt.Errorf("init redis bus: %w", err)
		}
		if err := eventBus.StartForwarder(context.Background(), hub.Broadcast); err != nil {
			return Services{}, fmt.Errorf("start event forwarder: %w", err)
		}
		emitter = &bus.BusEmitter{Bus: eventBus}
	}

	classifier := debate.NewKeywordClassifier()
	broker := debate.NewAudienceBroker(log, policy, emitter, invoker, classifier, reposet.Requests, reposet.Messages)
	finalizer := debate.NewFinalizer(log, policy, emitter, reposet.Debates, reposet.Rounds, reposet.Scores)
	executor := debate.NewRoundExecutor(log, policy, emitter, invoker, reposet.Rounds, reposet.Messages, reposet.Scores, broker, finalizer)
	registry := debate.NewSessionRegistry(log, policy, emitter, hub, executor,
		reposet.Debates, reposet.Agents, reposet.Rounds, reposet.Messages, reposet.Scores, reposet.Requests)

	return Services{
		Policy:   policy,
		Invoker:  invoker,
		Emitter:  emitter,
		Bus:      eventBus,
		Registry: registry,
		Debate: debate.NewService(log,
			reposet.Debates, reposet.Agents, reposet.Rounds, reposet.Messages, reposet.Votes),
		Analytics: debate.NewAnalytics(log, policy, debate.NewKeywordBlindSpots(),
			reposet.Debates, reposet.Agents, reposet.Rounds, reposet.Messages, reposet.Scores, reposet.Votes),
	}, nil
}
