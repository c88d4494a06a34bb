// Package system wires every component into one explicitly constructed
// System: no process-wide singletons, so multiple Systems (e.g. in tests)
// can run side by side without shared state.
package system

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/health"

	"github.com/aegisops/sentinel/pkg/config"
	"github.com/aegisops/sentinel/pkg/correlator"
	"github.com/aegisops/sentinel/pkg/detect"
	"github.com/aegisops/sentinel/pkg/external"
	"github.com/aegisops/sentinel/pkg/httpapi"
	"github.com/aegisops/sentinel/pkg/ingest"
	"github.com/aegisops/sentinel/pkg/masking"
	"github.com/aegisops/sentinel/pkg/orchestrator"
	"github.com/aegisops/sentinel/pkg/safety"
	"github.com/aegisops/sentinel/pkg/scheduler"
	"github.com/aegisops/sentinel/pkg/sources"
)

// System is the fully wired incident-response engine: every collaborator
// named in a component's constructor is a concrete value held here, not a
// package-level variable reached for at call time.
type System struct {
	Config *config.Config

	Correlator   *correlator.Correlator
	DetectAgent  *detect.Agent
	SafetyLayer  *safety.Layer
	Masker       *masking.Service
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *scheduler.Scheduler
	Ingestor     *ingest.Ingestor
	HTTPServer   *httpapi.Server
}

// New builds a System from a loaded Config. It establishes one AWS SDK
// config for the target region and derives every cloud source client from
// it, then wires the collection, detection, safety, orchestration, and
// ingest layers on top in dependency order.
func New(ctx context.Context, cfg *config.Config) (*System, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	metrics := sources.NewCloudWatchSource(cloudwatch.NewFromConfig(awsCfg))
	alarms := metrics
	trail := sources.NewCloudTrailSource(cloudtrail.NewFromConfig(awsCfg), cfg.Collection.TrailRetries, cfg.Collection.TrailBackoff)
	healthSrc := sources.NewHealthSource(health.NewFromConfig(awsCfg))

	corr := correlator.New(cfg.Region, cfg.Collection, metrics, alarms, trail, healthSrc, sources.NoopAnomalySource{})
	detectAgent := detect.New(corr, cfg.Detect.TTLSeconds, cfg.Detect.CacheDir)

	safetyLayer := safety.New(cfg.Safety)
	masker := masking.NewService()

	analyzer := external.NewPatternMatchAnalyzer("pattern-matcher-v1")
	sopBridge := external.NewKeywordSOPBridge()
	executor := external.NewAsyncSOPExecutor()
	knowledgeBase := external.NewInMemoryKnowledgeBase()

	orch := orchestrator.New(cfg.Region, corr, analyzer, sopBridge, executor, safetyLayer, knowledgeBase, masker)

	sched, err := scheduler.New(cfg.Scheduler, cfg.Region, detectAgent, orch)
	if err != nil {
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	ingestor := ingest.New(orch, masker)

	sys := &System{
		Config:       cfg,
		Correlator:   corr,
		DetectAgent:  detectAgent,
		SafetyLayer:  safetyLayer,
		Masker:       masker,
		Orchestrator: orch,
		Scheduler:    sched,
		Ingestor:     ingestor,
	}
	sys.HTTPServer = httpapi.NewServer(ingestor, sys)

	return sys, nil
}

// Start brings up the proactive scheduler. The HTTP server is started
// separately by the caller, which owns the listener lifecycle.
func (s *System) Start(ctx context.Context) {
	s.Scheduler.Start(ctx)
}

// Stop gracefully stops the proactive scheduler.
func (s *System) Stop() {
	s.Scheduler.Stop()
}

// HealthSnapshot aggregates detect, scheduler, and safety health for the
// HTTP health endpoint.
func (s *System) HealthSnapshot() map[string]any {
	return map[string]any{
		"region":    s.Config.Region,
		"detect":    s.DetectAgent.Health(),
		"scheduler": s.Scheduler.Status(),
		"safety":    s.SafetyLayer.Stats(),
	}
}
