package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/prospector/config"
	"github.com/mohammad-safakhou/prospector/internal/agent/core"
	"github.com/mohammad-safakhou/prospector/internal/agent/telemetry"
	"github.com/mohammad-safakhou/prospector/internal/server"
	"github.com/mohammad-safakhou/prospector/repository"
	"github.com/mohammad-safakhou/prospector/tools/web_fetch"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var addr string

	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}

			tele := telemetry.NewTelemetry(cfg.Telemetry, nil)
			llm, err := core.NewLLMProvider(cfg.LLM)
			if err != nil {
				return err
			}
			searcher, err := core.NewSearcher(cfg.Search)
			if err != nil {
				return err
			}
			var fetcher *web_fetch.Fetcher
			if cfg.Research.FetchFullText {
				fetcher = core.NewFullTextFetcher(cfg.Research)
			}

			repo, err := repository.NewRunRepository(context.Background(), cfg.Storage)
			if err != nil {
				return err
			}

			ctrl := core.NewController(cfg, llm, searcher, fetcher, tele)
			return server.New(cfg, ctrl, repo).Start()
		},
	}

	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config)")
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")

	return serve
}
