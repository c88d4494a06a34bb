package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"

	"github.com/aegisops/sentinel/pkg/model"
)

// CloudTrailSource implements TrailSource against the real AWS CloudTrail
// LookupEvents API, with a bounded retry on transient failures: an empty
// trail projection due to provider throttling would silently starve RCA's
// "recent changes" evidence, so this source retries rather than treating a
// single failed call as "no changes occurred".
type CloudTrailSource struct {
	client  *cloudtrail.Client
	retries int
	backoff time.Duration
}

// NewCloudTrailSource wraps an already-configured CloudTrail client.
// retries and backoff come from CollectionConfig.TrailRetries/TrailBackoff.
func NewCloudTrailSource(client *cloudtrail.Client, retries int, backoff time.Duration) *CloudTrailSource {
	return &CloudTrailSource{client: client, retries: retries, backoff: backoff}
}

// FetchTrailEvents looks up management events over the lookback window,
// retrying up to s.retries times on error.
func (s *CloudTrailSource) FetchTrailEvents(ctx context.Context, services []string, lookback time.Duration) ([]model.TrailEvent, error) {
	now := time.Now()
	start := now.Add(-lookback)

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.backoff):
			}
		}

		events, err := s.lookupEvents(ctx, start, now)
		if err == nil {
			return events, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("lookup trail events after %d attempts: %w", s.retries+1, lastErr)
}

func (s *CloudTrailSource) lookupEvents(ctx context.Context, start, end time.Time) ([]model.TrailEvent, error) {
	var events []model.TrailEvent

	paginator := cloudtrail.NewLookupEventsPaginator(s.client, &cloudtrail.LookupEventsInput{
		StartTime: aws.Time(start),
		EndTime:   aws.Time(end),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		for _, e := range page.Events {
			events = append(events, toTrailEvent(e))
		}
	}

	return events, nil
}

func toTrailEvent(e types.Event) model.TrailEvent {
	te := model.TrailEvent{
		EventTime: aws.ToTime(e.EventTime),
		EventName: aws.ToString(e.EventName),
		ReadOnly:  true,
	}
	if e.Username != nil {
		te.UserIdentity = aws.ToString(e.Username)
	}
	if len(e.Resources) > 0 && e.Resources[0].ResourceName != nil {
		te.ResourceID = aws.ToString(e.Resources[0].ResourceName)
	}

	// LookupEvents doesn't expose ReadOnly or error fields directly; the
	// CloudTrailEvent field carries the full event as a JSON string that a
	// production integration would parse for errorCode/errorMessage and the
	// readOnly flag. We treat management-plane mutating verbs as non-read-only
	// by name prefix, which is sufficient for the "recent changes" projection.
	te.ReadOnly = isReadOnlyEventName(te.EventName)

	return te
}

var mutatingPrefixes = []string{"Create", "Delete", "Modify", "Update", "Put", "Terminate", "Reboot", "Stop", "Start", "Attach", "Detach", "Authorize", "Revoke"}

func isReadOnlyEventName(name string) bool {
	for _, prefix := range mutatingPrefixes {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return false
		}
	}
	return true
}
