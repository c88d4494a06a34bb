// Package orchestrator implements IncidentOrchestrator: the six-stage
// collect/analyze/sop_match/safety_check/execute/complete pipeline that
// turns a trigger into a finished IncidentRecord.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aegisops/sentinel/pkg/external"
	"github.com/aegisops/sentinel/pkg/masking"
	"github.com/aegisops/sentinel/pkg/model"
	"github.com/aegisops/sentinel/pkg/safety"
)

const targetDurationMs int64 = 25000

// Correlator is the subset of correlator.Correlator a fresh Stage 1
// collection needs.
type Correlator interface {
	Collect(ctx context.Context, services []string, lookback time.Duration, includeTrail, includeHealth bool) *model.CorrelatedEvent
}

// HandleIncidentParams are the arguments to HandleIncident.
type HandleIncidentParams struct {
	TriggerType     model.TriggerType
	TriggerData     map[string]any
	Services        []string
	AutoExecute     bool
	DryRun          bool
	Force           bool
	LookbackMinutes int
	DetectResult    *model.DetectResult
}

// Orchestrator is IncidentOrchestrator. Reentrant: multiple HandleIncident
// calls may run concurrently, each producing its own IncidentRecord; the
// only shared, lock-protected state is the incidents index itself.
type Orchestrator struct {
	region        string
	correlator    Correlator
	analyzer      external.RCAAnalyzer
	sopBridge     external.SOPBridge
	executor      external.SOPExecutor
	safety        *safety.Layer
	knowledgeBase external.KnowledgeBase
	masker        *masking.Service

	store *incidentStore
}

// New builds an IncidentOrchestrator. knowledgeBase may be nil: indexing a
// resolved pattern after a successful execution is an optional enrichment,
// not a pipeline requirement. masker may also be nil, in which case evidence
// is stored as collected.
func New(region string, correlator Correlator, analyzer external.RCAAnalyzer, sopBridge external.SOPBridge, executor external.SOPExecutor, safetyLayer *safety.Layer, knowledgeBase external.KnowledgeBase, masker *masking.Service) *Orchestrator {
	return &Orchestrator{
		region:        region,
		correlator:    correlator,
		analyzer:      analyzer,
		sopBridge:     sopBridge,
		executor:      executor,
		safety:        safetyLayer,
		knowledgeBase: knowledgeBase,
		masker:        masker,
		store:         newIncidentStore(),
	}
}

// HandleIncident runs the full pipeline and returns the resulting record.
// It never panics out to the caller: any stage failure, including a panic
// from an external collaborator, is captured as status FAILED.
func (o *Orchestrator) HandleIncident(ctx context.Context, p HandleIncidentParams) *model.IncidentRecord {
	record := model.NewIncidentRecord(uuid.NewString(), p.TriggerType, p.TriggerData, o.region, time.Now())
	o.store.put(record)

	defer func() {
		if r := recover(); r != nil {
			o.fail(record, fmt.Errorf("panic: %v", r))
		}
		record.Finalize(time.Now())
	}()

	event, err := o.collect(ctx, record, p)
	if err != nil {
		o.fail(record, err)
		return record
	}

	rca, err := o.analyze(ctx, record, event)
	if err != nil {
		o.fail(record, err)
		return record
	}

	if err := o.matchSOPs(ctx, record, rca); err != nil {
		o.fail(record, err)
		return record
	}

	if len(record.MatchedSOPs) == 0 {
		_ = record.Transition(model.IncidentStatusCompleted)
		return record
	}

	check, err := o.checkSafety(record, rca, p)
	if err != nil {
		o.fail(record, err)
		return record
	}

	o.executeOrWait(ctx, record, rca, check, p)
	return record
}

func (o *Orchestrator) collect(ctx context.Context, record *model.IncidentRecord, p HandleIncidentParams) (*model.CorrelatedEvent, error) {
	var event *model.CorrelatedEvent

	err := timeStage(record, "collect", func() error {
		if err := record.Transition(model.IncidentStatusCollecting); err != nil {
			return err
		}

		lookback := time.Duration(p.LookbackMinutes) * time.Minute
		if lookback <= 0 {
			lookback = 15 * time.Minute
		}

		// R2/R4: manual triggers and stale/empty reuse candidates always
		// fall through to a fresh collection.
		if p.TriggerType != model.TriggerTypeManual && p.DetectResult != nil &&
			!p.DetectResult.IsStale(time.Now()) && p.DetectResult.CorrelatedEvent != nil {
			dr := p.DetectResult
			event = dr.CorrelatedEvent
			record.CollectionSummary = summarize(event, model.CollectionSourceReuse, dr.DetectID, dr.AgeSeconds(time.Now()))
			return nil
		}

		event = o.correlator.Collect(ctx, p.Services, lookback, true, true)
		record.CollectionSummary = summarize(event, model.CollectionSourceFresh, "", 0)
		record.CollectionSummary.DurationMs = event.DurationMs
		return nil
	})

	return event, err
}

func summarize(event *model.CorrelatedEvent, source, detectID string, ageSeconds float64) *model.CollectionSummary {
	return &model.CollectionSummary{
		CollectionID:   event.CollectionID,
		Metrics:        len(event.Metrics),
		Alarms:         len(event.Alarms),
		TrailEvents:    len(event.TrailEvents),
		Anomalies:      len(event.Anomalies),
		HealthEvents:   len(event.HealthEvents),
		Source:         source,
		DetectID:       detectID,
		DataAgeSeconds: ageSeconds,
	}
}

func (o *Orchestrator) analyze(ctx context.Context, record *model.IncidentRecord, event *model.CorrelatedEvent) (*model.RCAResult, error) {
	var rca *model.RCAResult

	err := timeStage(record, "analyze", func() error {
		if err := record.Transition(model.IncidentStatusAnalyzing); err != nil {
			return err
		}
		rca = o.analyzer.Analyze(ctx, event)
		o.maskEvidence(rca)
		record.RCAResult = rca
		return nil
	})

	return rca, err
}

// maskEvidence redacts an RCA result's evidence and root cause text in
// place before it reaches storage, logging, or knowledge-base indexing.
func (o *Orchestrator) maskEvidence(rca *model.RCAResult) {
	if o.masker == nil || rca == nil {
		return
	}
	rca.RootCause = o.masker.MaskEvidence(rca.RootCause)
	for i, e := range rca.Evidence {
		rca.Evidence[i] = o.masker.MaskEvidence(e)
	}
}

func (o *Orchestrator) matchSOPs(ctx context.Context, record *model.IncidentRecord, rca *model.RCAResult) error {
	return timeStage(record, "sop_match", func() error {
		if err := record.Transition(model.IncidentStatusSOPMatched); err != nil {
			return err
		}

		matched := o.sopBridge.Match(ctx, rca)
		for i := range matched {
			matched[i].AutoExecute = rca.Severity == model.SeverityLow && rca.Confidence >= 0.8
		}
		record.MatchedSOPs = matched
		return nil
	})
}

func (o *Orchestrator) checkSafety(record *model.IncidentRecord, rca *model.RCAResult, p HandleIncidentParams) (model.SafetyCheck, error) {
	var check model.SafetyCheck

	err := timeStage(record, "safety_check", func() error {
		if err := record.Transition(model.IncidentStatusSafetyCheck); err != nil {
			return err
		}

		top := record.MatchedSOPs[0]
		check = o.safety.Check(top.SOPID, resourceIDsFor(rca), p.DryRun, p.Force, safety.CheckContext{
			Confidence: rca.Confidence,
			Severity:   rca.Severity,
			IncidentID: record.IncidentID,
		})
		record.SafetyCheck = &check

		for i := range record.MatchedSOPs {
			record.MatchedSOPs[i].RiskLevel = safety.ClassifyRisk(record.MatchedSOPs[i].SOPID)
		}
		return nil
	})

	return check, err
}

func (o *Orchestrator) executeOrWait(ctx context.Context, record *model.IncidentRecord, rca *model.RCAResult, check model.SafetyCheck, p HandleIncidentParams) {
	_ = timeStage(record, "execute", func() error {
		top := record.MatchedSOPs[0]
		resourceIDs := resourceIDsFor(rca)

		switch {
		case p.AutoExecute && check.Passed && !p.DryRun:
			_ = record.Transition(model.IncidentStatusExecuting)

			snapshot := o.safety.CreateSnapshot(top.SOPID, resourceIDs, nil)
			handle, execErr := o.executor.Start(ctx, top.SOPID, map[string]any{
				"rca_pattern_id": rca.PatternID,
				"root_cause":     rca.RootCause,
				"snapshot_id":    snapshot.SnapshotID,
				"triggered_by":   "incident_orchestrator",
			})

			success := execErr == nil
			o.safety.RecordExecution(top.SOPID, resourceIDs, success)

			result := &model.ExecutionResult{
				Success:    success,
				SOPID:      top.SOPID,
				SnapshotID: snapshot.SnapshotID,
			}
			if success {
				result.ExecutionID = handle.ExecutionID
				result.Message = "execution started"
			} else {
				result.Message = execErr.Error()
			}
			record.ExecutionResult = result
			_ = record.Transition(model.IncidentStatusCompleted)

			if success {
				o.indexPattern(ctx, rca)
			}

		case check.ExecutionMode == model.ExecutionModeApproval:
			approval := o.safety.RequestApproval(top.SOPID, map[string]any{
				"incident_id": record.IncidentID,
				"confidence":  rca.Confidence,
				"severity":    rca.Severity,
			})
			record.ExecutionResult = &model.ExecutionResult{
				Action:     "approval_requested",
				SOPID:      top.SOPID,
				ApprovalID: approval.ApprovalID,
				Message:    "awaiting operator approval",
			}
			_ = record.Transition(model.IncidentStatusWaitingApproval)

		default:
			_ = record.Transition(model.IncidentStatusCompleted)
		}

		return nil
	})
}

// indexPattern offers a successfully-remediated pattern to the knowledge
// base. Index itself enforces the quality_score floor; a low-confidence
// RCA is simply rejected rather than special-cased here.
func (o *Orchestrator) indexPattern(ctx context.Context, rca *model.RCAResult) {
	if o.knowledgeBase == nil || rca.PatternID == "" {
		return
	}
	o.knowledgeBase.Index(ctx, external.KnowledgePattern{
		PatternID: rca.PatternID,
		Summary:   rca.RootCause,
		Data: map[string]any{
			"severity":           rca.Severity,
			"affected_resources": rca.AffectedResources,
		},
	}, rca.Confidence)
}

func (o *Orchestrator) fail(record *model.IncidentRecord, err error) {
	_ = record.Transition(model.IncidentStatusFailed)
	record.Error = err.Error()
}

func resourceIDsFor(rca *model.RCAResult) []string {
	if len(rca.AffectedResources) > 0 {
		return rca.AffectedResources
	}
	return rca.MatchedSymptoms
}

func timeStage(record *model.IncidentRecord, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	record.StageTimings[name] = time.Since(start).Milliseconds()
	return err
}

// GetIncident looks up a previously produced record by ID.
func (o *Orchestrator) GetIncident(id string) *model.IncidentRecord {
	return o.store.get(id)
}

// List returns up to limit records (0 = unlimited), newest first, optionally
// filtered by status.
func (o *Orchestrator) List(limit int, status *model.IncidentStatus) []*model.IncidentRecord {
	return o.store.list(limit, status)
}

// Stats summarizes pipeline health across every retained incident.
func (o *Orchestrator) Stats() Stats {
	return o.store.stats()
}
