package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/aegisops/sentinel/pkg/model"
)

// namespaceByService maps a service name to the CloudWatch namespace(s) we
// pull metrics and alarms from. Services with no entry are skipped rather
// than treated as an error — a caller may ask for services this deployment
// doesn't monitor.
var namespaceByService = map[string][]string{
	"ec2":      {"AWS/EC2"},
	"rds":      {"AWS/RDS"},
	"lambda":   {"AWS/Lambda"},
	"s3":       {"AWS/S3"},
	"elb":      {"AWS/ApplicationELB", "AWS/NetworkELB"},
	"dynamodb": {"AWS/DynamoDB"},
	"eks":      {"AWS/EKS", "CWAgent"},
}

// watchedMetrics lists the metric names CloudWatchSource scans per
// namespace when building the metrics projection for a collection cycle.
var watchedMetrics = []string{
	"CPUUtilization",
	"MemoryUtilization",
	"DiskSpaceUtilization",
	"Errors",
	"ThrottledRequests",
}

// CloudWatchSource implements MetricsSource and AlarmsSource against the
// real AWS CloudWatch API.
type CloudWatchSource struct {
	client *cloudwatch.Client
}

// NewCloudWatchSource wraps an already-configured CloudWatch client.
func NewCloudWatchSource(client *cloudwatch.Client) *CloudWatchSource {
	return &CloudWatchSource{client: client}
}

// FetchMetrics pulls the average statistic for each watched metric, in each
// namespace implied by services, over the lookback window.
func (s *CloudWatchSource) FetchMetrics(ctx context.Context, services []string, lookback time.Duration) ([]model.MetricDataPoint, error) {
	namespaces := namespacesFor(services)
	now := time.Now()
	start := now.Add(-lookback)

	var points []model.MetricDataPoint
	for _, ns := range namespaces {
		for _, metricName := range watchedMetrics {
			out, err := s.client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
				Namespace:  aws.String(ns),
				MetricName: aws.String(metricName),
				StartTime:  aws.Time(start),
				EndTime:    aws.Time(now),
				Period:     aws.Int32(300),
				Statistics: []types.Statistic{types.StatisticAverage},
			})
			if err != nil {
				return points, fmt.Errorf("get metric statistics %s/%s: %w", ns, metricName, err)
			}

			for _, dp := range out.Datapoints {
				if dp.Average == nil {
					continue
				}
				points = append(points, model.MetricDataPoint{
					ResourceID: ns,
					MetricName: metricName,
					Namespace:  ns,
					Value:      *dp.Average,
					Unit:       string(dp.Unit),
					Timestamp:  aws.ToTime(dp.Timestamp),
					Statistic:  model.StatisticAverage,
				})
			}
		}
	}

	return points, nil
}

// FetchAlarms describes every CloudWatch alarm for the requested
// namespaces, regardless of current state — EventCorrelator filters to
// ALARM state when deriving anomalies.
func (s *CloudWatchSource) FetchAlarms(ctx context.Context, services []string) ([]model.AlarmInfo, error) {
	namespaces := namespaceSet(services)

	var alarms []model.AlarmInfo
	paginator := cloudwatch.NewDescribeAlarmsPaginator(s.client, &cloudwatch.DescribeAlarmsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return alarms, fmt.Errorf("describe alarms: %w", err)
		}

		for _, a := range page.MetricAlarms {
			if len(namespaces) > 0 && !namespaces[aws.ToString(a.Namespace)] {
				continue
			}
			alarms = append(alarms, model.AlarmInfo{
				Name:       aws.ToString(a.AlarmName),
				State:      toAlarmState(a.StateValue),
				Reason:     aws.ToString(a.StateReason),
				MetricName: aws.ToString(a.MetricName),
				Threshold:  aws.ToFloat64(a.Threshold),
				Comparison: toComparison(a.ComparisonOperator),
				ResourceID: aws.ToString(a.AlarmName),
				Timestamp:  aws.ToTime(a.StateUpdatedTimestamp),
			})
		}
	}

	return alarms, nil
}

func namespacesFor(services []string) []string {
	if len(services) == 0 {
		seen := map[string]bool{}
		var all []string
		for _, list := range namespaceByService {
			for _, ns := range list {
				if !seen[ns] {
					seen[ns] = true
					all = append(all, ns)
				}
			}
		}
		return all
	}

	var out []string
	for _, svc := range services {
		out = append(out, namespaceByService[svc]...)
	}
	return out
}

func namespaceSet(services []string) map[string]bool {
	set := map[string]bool{}
	for _, ns := range namespacesFor(services) {
		set[ns] = true
	}
	return set
}

func toAlarmState(v types.StateValue) model.AlarmState {
	switch v {
	case types.StateValueAlarm:
		return model.AlarmStateALARM
	case types.StateValueInsufficientData:
		return model.AlarmStateInsufficientData
	default:
		return model.AlarmStateOK
	}
}

func toComparison(op types.ComparisonOperator) model.Comparison {
	switch op {
	case types.ComparisonOperatorGreaterThanThreshold, types.ComparisonOperatorGreaterThanOrEqualToThreshold:
		if op == types.ComparisonOperatorGreaterThanOrEqualToThreshold {
			return model.ComparisonGreaterThanOrEqual
		}
		return model.ComparisonGreaterThan
	case types.ComparisonOperatorLessThanThreshold, types.ComparisonOperatorLessThanOrEqualToThreshold:
		if op == types.ComparisonOperatorLessThanOrEqualToThreshold {
			return model.ComparisonLessThanOrEqual
		}
		return model.ComparisonLessThan
	default:
		return model.ComparisonGreaterThan
	}
}
