// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	cloudmonitoring "google.golang.org/api/monitoring/v3"
	"v.io/x/lib/vlog"
)

// Labels are the label values attached to every pushed point.
type Labels struct {
	Instance string
	Curve    string
}

func (l Labels) forMetric(md *cloudmonitoring.MetricDescriptor, name string) map[string]string {
	out := map[string]string{}
	for _, label := range md.Labels {
		switch label.Key {
		case "instance":
			out["instance"] = l.Instance
		case "metric_name":
			out["metric_name"] = name
		case "curve":
			out["curve"] = l.Curve
		}
	}
	return out
}

// TimeSeries converts snap into one time series per metric, each holding
// a single point at now.
func TimeSeries(project string, snap Snapshot, labels Labels, now time.Time) ([]*cloudmonitoring.TimeSeries, error) {
	var series []*cloudmonitoring.TimeSeries
	for _, name := range GetSortedMetricNames() {
		value, ok := snap[name]
		if !ok {
			continue
		}
		md, err := GetMetric(name, project)
		if err != nil {
			return nil, err
		}
		v := value
		series = append(series, &cloudmonitoring.TimeSeries{
			Metric: &cloudmonitoring.Metric{
				Type:   md.Type,
				Labels: labels.forMetric(md, name),
			},
			Resource: &cloudmonitoring.MonitoredResource{
				Type:   "global",
				Labels: map[string]string{"project_id": project},
			},
			Points: []*cloudmonitoring.Point{{
				Interval: &cloudmonitoring.TimeInterval{
					EndTime: now.UTC().Format(time.RFC3339),
				},
				Value: &cloudmonitoring.TypedValue{DoubleValue: &v},
			}},
		})
	}
	return series, nil
}

// CreateDescriptors creates every custom metric descriptor in project.
// Creating a descriptor that already exists with the same definition
// succeeds.
func CreateDescriptors(ctx context.Context, s *cloudmonitoring.Service, project string) error {
	for _, name := range GetSortedMetricNames() {
		md, err := GetMetric(name, project)
		if err != nil {
			return err
		}
		if _, err := s.Projects.MetricDescriptors.Create(fmt.Sprintf("projects/%s", project), md).Context(ctx).Do(); err != nil {
			return errors.Wrapf(err, "creating metric descriptor %s", md.Type)
		}
	}
	return nil
}

// Push writes the current values of r to project.
func Push(ctx context.Context, s *cloudmonitoring.Service, project string, r *Recorder, labels Labels) error {
	series, err := TimeSeries(project, r.Snapshot(), labels, time.Now())
	if err != nil {
		return err
	}
	req := &cloudmonitoring.CreateTimeSeriesRequest{TimeSeries: series}
	if _, err := s.Projects.TimeSeries.Create(fmt.Sprintf("projects/%s", project), req).Context(ctx).Do(); err != nil {
		return errors.Wrap(err, "pushing time series")
	}
	vlog.VI(1).Infof("pushed %d metrics to project %s", len(series), project)
	return nil
}
