//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/shopbot/internal/bootstrap"
	"github.com/yanqian/shopbot/internal/domain/inference"
	"github.com/yanqian/shopbot/internal/infra/config"
	httpiface "github.com/yanqian/shopbot/internal/interface/http"
	"github.com/yanqian/shopbot/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideInferenceConfig,
		provideEmbedder,
		provideGenerator,
		provideTokenCounter,
		provideTokenVerifier,
		inference.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
