package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	apix "github.com/tanpawarit/yearboard/board/api"
	coachx "github.com/tanpawarit/yearboard/board/coach"
	kvx "github.com/tanpawarit/yearboard/board/kv"
	memoryx "github.com/tanpawarit/yearboard/board/memory"
	progressx "github.com/tanpawarit/yearboard/board/progress"
	visiblex "github.com/tanpawarit/yearboard/board/visible"
	configx "github.com/tanpawarit/yearboard/pkg/config"
	openrouterx "github.com/tanpawarit/yearboard/pkg/openrouter"
	qstashx "github.com/tanpawarit/yearboard/pkg/qstash"
)

type AppConfig struct {
	HTTPAddr          string `envconfig:"HTTP_ADDR" default:":8080"`
	DefaultOrg        string `envconfig:"DEFAULT_ORG" default:"default"`
	QStashDestination string `envconfig:"QSTASH_DESTINATION"`
	CoachMaxFacts     int    `envconfig:"COACH_MAX_FACTS" default:"10"`
}

// app is every long-lived service the commands share.
type app struct {
	conf     AppConfig
	apiConf  apix.Config
	progress *progressx.Store
	memory   *memoryx.Store
	visible  *visiblex.Registry
	coach    *coachx.Coach
	closer   io.Closer
	durable  bool
}

func (a *app) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *app) deps() apix.Deps {
	deps := apix.Deps{
		Progress: a.progress,
		Memory:   a.memory,
		Visible:  a.visible,
	}
	if a.coach != nil {
		deps.Coach = a.coach
	}
	return deps
}

func newApp(ctx context.Context) (*app, error) {
	appConf, err := configx.New[AppConfig]("YEARBOARD")
	if err != nil {
		return nil, err
	}
	kvConf, err := configx.New[kvx.Config]("KV")
	if err != nil {
		return nil, err
	}
	apiConf, err := configx.New[apix.Config]("HTTP")
	if err != nil {
		return nil, err
	}

	store, closer, err := kvx.Open(ctx, *kvConf)
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}
	log.Info().Str("driver", kvConf.Driver).Msg("kv store ready")

	var memoryOpts []memoryx.Option
	if appConf.QStashDestination != "" {
		qstashConf, err := configx.New[qstashx.Config]("QSTASH")
		if err != nil {
			_ = closer.Close()
			return nil, err
		}
		client, err := qstashx.NewClient(*qstashConf)
		if err != nil {
			_ = closer.Close()
			return nil, fmt.Errorf("create qstash client: %w", err)
		}
		memoryOpts = append(memoryOpts, memoryx.WithPublisher(
			memoryx.NewWebhookPublisher(client, appConf.QStashDestination),
		))
		log.Info().Str("destination", appConf.QStashDestination).Msg("memory events fan out through qstash")
	}

	a := &app{
		conf:     *appConf,
		apiConf:  *apiConf,
		progress: progressx.NewStore(store),
		memory:   memoryx.NewStore(store, memoryOpts...),
		visible:  visiblex.NewRegistry(),
		closer:   closer,
		durable:  kvConf.Durable(),
	}

	routerConf, err := configx.New[openrouterx.Config]("OPENROUTER")
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	if !routerConf.Enabled() {
		log.Warn().Msg("OPENROUTER_API_KEY not set, coach disabled")
		return a, nil
	}

	chatModel, err := routerConf.New(ctx)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	a.coach, err = coachx.New(ctx, chatModel, a.memory, a.visible, coachx.WithMaxFacts(appConf.CoachMaxFacts))
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("create coach: %w", err)
	}
	log.Info().Str("model", routerConf.Model).Msg("coach ready")
	return a, nil
}
