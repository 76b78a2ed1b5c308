package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/prospector/config"
	"github.com/mohammad-safakhou/prospector/internal/agent/core"
	"github.com/mohammad-safakhou/prospector/internal/agent/telemetry"
	"github.com/mohammad-safakhou/prospector/tools/web_fetch"
)

func researchCMD() *cobra.Command {
	var cfgPath string
	var req core.RunRequest

	var research = &cobra.Command{
		Use:   "research",
		Short: "Run one research workflow and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

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

			ctrl := core.NewController(cfg, llm, searcher, fetcher, tele)
			result, err := ctrl.Run(ctx, req)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if cfg.Telemetry.CostTracking {
				fmt.Fprintf(os.Stderr, "cost: $%.4f (%d tokens)\n", tele.TotalCost(), tele.TotalTokens())
			}
			return nil
		},
	}

	research.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config)")
	research.Flags().StringVar(&req.Subject.Email, "email", "", "subject email (required)")
	research.Flags().StringVar(&req.Subject.Name, "name", "", "subject name")
	research.Flags().StringVar(&req.Subject.Company, "company", "", "subject company")
	research.Flags().StringVar(&req.Subject.Role, "role", "", "subject role")
	research.Flags().StringVar(&req.Subject.LinkedIn, "linkedin", "", "subject LinkedIn URL")
	research.Flags().StringVar(&req.UserNotes, "notes", "", "extra notes about the subject")
	_ = research.MarkFlagRequired("email")

	return research
}
