// Package ingest implements AlarmIngestor: the webhook-facing entry point
// that turns a cloud-provider pub/sub delivery into an incident trigger.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aegisops/sentinel/pkg/masking"
	"github.com/aegisops/sentinel/pkg/model"
	"github.com/aegisops/sentinel/pkg/orchestrator"
)

const alarmLookbackMinutes = 15

// namespaceServices maps a cloud metric namespace to the service name the
// orchestrator's collection filter expects. Unlisted namespaces fall back
// to a substring match in serviceForNamespace.
var namespaceServices = map[string]string{
	"AWS/EC2": "ec2",
	"AWS/RDS": "rds",
	"CWAgent": "ec2",
}

// Orchestrator is the subset of orchestrator.Orchestrator an ingested alarm
// hands off to.
type Orchestrator interface {
	HandleIncident(ctx context.Context, p orchestrator.HandleIncidentParams) *model.IncidentRecord
}

// Envelope is the outer pub/sub delivery shape: either a subscription
// handshake or a notification wrapping an inner JSON-encoded message.
type Envelope struct {
	Type         string `json:"Type"`
	SubscribeURL string `json:"SubscribeURL"`
	Message      string `json:"Message"`
}

// trigger is the inner alarm-state-change payload carried in Message.
type trigger struct {
	AlarmName       string      `json:"AlarmName"`
	NewStateValue   string      `json:"NewStateValue"`
	OldStateValue   string      `json:"OldStateValue"`
	NewStateReason  string      `json:"NewStateReason"`
	StateChangeTime time.Time   `json:"StateChangeTime"`
	Region          string      `json:"Region"`
	Trigger         alarmDetail `json:"Trigger"`
}

type alarmDetail struct {
	Namespace          string      `json:"Namespace"`
	MetricName         string      `json:"MetricName"`
	Threshold          float64     `json:"Threshold"`
	ComparisonOperator string      `json:"ComparisonOperator"`
	EvaluationPeriods  int         `json:"EvaluationPeriods"`
	Period             int         `json:"Period"`
	Dimensions         []dimension `json:"Dimensions"`
}

type dimension struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Result is AlarmIngestor.Handle's response, shaped for direct JSON
// marshaling by the HTTP layer.
type Result struct {
	Status         string `json:"status"`
	IncidentID     string `json:"incident_id,omitempty"`
	PipelineStatus string `json:"pipeline_status,omitempty"`
	DurationMs     int64  `json:"duration_ms,omitempty"`
	SOPMatched     string `json:"sop_matched,omitempty"`
	RCARootCause   string `json:"rca_root_cause,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// Ingestor is AlarmIngestor.
type Ingestor struct {
	orchestrator Orchestrator
	httpClient   *http.Client
	masker       *masking.Service
}

// New builds an AlarmIngestor. masker may be nil, in which case the raw
// alarm reason and namespace are passed through unredacted.
func New(orch Orchestrator, masker *masking.Service) *Ingestor {
	return &Ingestor{
		orchestrator: orch,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		masker:       masker,
	}
}

// Handle processes one webhook delivery body.
func (i *Ingestor) Handle(ctx context.Context, body []byte) (Result, error) {
	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Result{}, fmt.Errorf("decode webhook envelope: %w", err)
	}

	if envelope.Type == "SubscriptionConfirmation" {
		return i.confirmSubscription(ctx, envelope.SubscribeURL)
	}

	var t trigger
	if err := json.Unmarshal([]byte(envelope.Message), &t); err != nil {
		return Result{}, fmt.Errorf("decode alarm message: %w", err)
	}

	if !shouldTrigger(t.NewStateValue, t.OldStateValue) {
		return Result{
			Status: "skipped",
			Reason: fmt.Sprintf("new_state=%s old_state=%s does not cross into ALARM", t.NewStateValue, t.OldStateValue),
		}, nil
	}

	service := serviceForNamespace(t.Trigger.Namespace, t.AlarmName)
	reason := t.NewStateReason
	if i.masker != nil {
		reason = i.masker.MaskTriggerData(reason)
	}

	var services []string
	if service != nil {
		services = []string{*service}
	}

	record := i.orchestrator.HandleIncident(ctx, orchestrator.HandleIncidentParams{
		TriggerType: model.TriggerTypeAlarm,
		TriggerData: map[string]any{
			"alarm_name":       t.AlarmName,
			"new_state_reason": reason,
			"state_change_time": t.StateChangeTime,
			"region":           t.Region,
			"namespace":        t.Trigger.Namespace,
			"metric_name":      t.Trigger.MetricName,
		},
		Services:        services,
		AutoExecute:     true,
		DryRun:          false,
		LookbackMinutes: alarmLookbackMinutes,
	})

	result := Result{
		Status:         "processed",
		IncidentID:     record.IncidentID,
		PipelineStatus: string(record.Status),
		DurationMs:     record.DurationMs,
	}
	if len(record.MatchedSOPs) > 0 {
		result.SOPMatched = record.MatchedSOPs[0].SOPID
	}
	if record.RCAResult != nil {
		result.RCARootCause = record.RCAResult.RootCause
	}

	return result, nil
}

// shouldTrigger is the bit-exact ALARM-transition skip policy: only a
// transition *into* ALARM is actionable.
func shouldTrigger(newState, oldState string) bool {
	return newState == "ALARM" && oldState != "ALARM"
}

// fallbackServices lists the service identifiers serviceForNamespace
// substring-matches against when the namespace table misses. This must
// stay in sync with pkg/sources/cloudwatch_source.go's namespaceByService
// keys: resolving to a service CloudWatchSource doesn't know how to map to
// a namespace would silently collect zero metrics/alarms.
var fallbackServices = []string{"ec2", "rds", "lambda", "s3", "elb", "dynamodb", "eks"}

// serviceForNamespace resolves a metric namespace to a collection-filter
// service name via the exact-match table, then a case-insensitive
// substring match against the namespace, then against the alarm name.
// Returns nil when nothing matches, so the caller can collect unfiltered
// rather than guessing a wrong service.
func serviceForNamespace(namespace, alarmName string) *string {
	if service, ok := namespaceServices[namespace]; ok {
		return &service
	}

	lowerNamespace := strings.ToLower(namespace)
	for _, service := range fallbackServices {
		if strings.Contains(lowerNamespace, service) {
			return &service
		}
	}

	lowerAlarmName := strings.ToLower(alarmName)
	for _, service := range fallbackServices {
		if strings.Contains(lowerAlarmName, service) {
			return &service
		}
	}

	return nil
}

func (i *Ingestor) confirmSubscription(ctx context.Context, subscribeURL string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, subscribeURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build subscription confirmation request: %w", err)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("confirm subscription: %w", err)
	}
	defer resp.Body.Close()

	return Result{Status: "confirmed"}, nil
}
