// Package wiring selects the concrete adapter for each port based on
// configuration, shared by the server and pipeline-run commands so the
// two processes never drift on how a stage driver or source is built.
package wiring

import (
	"fmt"

	"github.com/hipanai/jobpipeline/internal/config"
	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/retryexec"
	"github.com/hipanai/jobpipeline/internal/source"
	"github.com/hipanai/jobpipeline/internal/stagedriver"
)

// BuildSource returns the configured SourceAdapter: apify/gmail call out
// over HTTP under executor's retry policy; manual reads a YAML jobs file
// from cfg.ManualJobsPath when set, or yields an empty list otherwise.
func BuildSource(cfg config.Config, executor *retryexec.Executor) (domain.SourceAdapter, error) {
	switch cfg.SourceName {
	case "apify":
		return source.NewApifySource(cfg.SourceURL, cfg.StageTimeout, executor), nil
	case "gmail":
		return source.NewGmailSource(cfg.SourceURL, cfg.StageTimeout, executor), nil
	case "manual":
		if cfg.ManualJobsPath == "" {
			return source.NewManualSource(nil), nil
		}
		return source.LoadManualJobsYAML(cfg.ManualJobsPath)
	default:
		return nil, fmt.Errorf("op=wiring.build_source: %w: unknown source %q", domain.ErrInvalidArgument, cfg.SourceName)
	}
}

// StageDrivers bundles the five stage-driver ports the Pipeline
// Orchestrator depends on.
type StageDrivers struct {
	Scorer      domain.Scorer
	Extractor   domain.Extractor
	Deliverable domain.DeliverableGenerator
	Boost       domain.BoostDecider
	Notifier    domain.ApprovalNotifier
}

// BuildStageDrivers returns the Mock* family when cfg.Mock is set, or the
// HTTP* family calling the configured stage-driver endpoints under
// executor's retry policy.
func BuildStageDrivers(cfg config.Config, executor *retryexec.Executor) StageDrivers {
	if cfg.Mock {
		return StageDrivers{
			Scorer:      stagedriver.NewMockScorer(),
			Extractor:   stagedriver.NewMockExtractor(),
			Deliverable: stagedriver.NewMockDeliverableGenerator(),
			Boost:       stagedriver.NewMockBoostDecider(),
			Notifier:    stagedriver.NewMockApprovalNotifier(),
		}
	}
	return StageDrivers{
		Scorer:    stagedriver.NewHTTPScorer(cfg.ScorerURL, cfg.StageTimeout, executor),
		Extractor: stagedriver.NewHTTPExtractor(cfg.ExtractorURL, cfg.TikaURL, cfg.StageTimeout, executor),
		Deliverable: stagedriver.NewHTTPDeliverableGenerator(
			cfg.DeliverableGeneratorURL, cfg.VideoGeneratorURL, cfg.VideoPollTimeout, executor,
		),
		Boost: stagedriver.NewHTTPBoostDecider(cfg.BoostDeciderURL, cfg.StageTimeout, executor),
		Notifier: stagedriver.NewHTTPApprovalNotifier(
			cfg.ApprovalChannelURL, cfg.ApprovalUpdateURL, cfg.ApprovalChannelID, cfg.StageTimeout, executor,
		),
	}
}
