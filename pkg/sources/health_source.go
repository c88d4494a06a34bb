package sources

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/health"
	"github.com/aws/aws-sdk-go-v2/service/health/types"

	"github.com/aegisops/sentinel/pkg/model"
)

// HealthSource implements sources.HealthSource against the AWS Health API.
type HealthSource struct {
	client *health.Client
}

// NewHealthSource wraps an already-configured Health client.
func NewHealthSource(client *health.Client) *HealthSource {
	return &HealthSource{client: client}
}

// FetchHealthEvents returns currently open provider health events,
// optionally scoped to the given service names.
func (s *HealthSource) FetchHealthEvents(ctx context.Context, services []string) ([]model.HealthEvent, error) {
	filter := &types.EventFilter{
		EventStatusCodes: []types.EventStatusCode{types.EventStatusCodeOpen, types.EventStatusCodeUpcoming},
	}
	if len(services) > 0 {
		filter.Services = services
	}

	var out []model.HealthEvent
	paginator := health.NewDescribeEventsPaginator(s.client, &health.DescribeEventsInput{Filter: filter})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return out, fmt.Errorf("describe health events: %w", err)
		}

		for _, e := range page.Events {
			affected, err := s.affectedResources(ctx, aws.ToString(e.Arn))
			if err != nil {
				affected = nil
			}
			out = append(out, model.HealthEvent{
				Service:           aws.ToString(e.Service),
				EventType:         aws.ToString(e.EventTypeCode),
				Status:            string(e.StatusCode),
				AffectedResources: affected,
				Description:       aws.ToString(e.EventTypeCategory),
				StartTime:         aws.ToTime(e.StartTime),
			})
		}
	}

	return out, nil
}

func (s *HealthSource) affectedResources(ctx context.Context, eventARN string) ([]string, error) {
	if eventARN == "" {
		return nil, nil
	}

	out, err := s.client.DescribeAffectedEntities(ctx, &health.DescribeAffectedEntitiesInput{
		Filter: &types.EntityFilter{EventArns: []string{eventARN}},
	})
	if err != nil {
		return nil, err
	}

	var resources []string
	for _, entity := range out.Entities {
		if entity.EntityValue != nil {
			resources = append(resources, aws.ToString(entity.EntityValue))
		}
	}
	return resources, nil
}
