// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cloudmonitoring "google.golang.org/api/monitoring/v3"
)

func TestCreateMetric(t *testing.T) {
	type testCase struct {
		metricType           string
		description          string
		valueType            string
		includeInstanceLabel bool
		extraLabels          []labelData
		expectedMetric       *cloudmonitoring.MetricDescriptor
	}
	metricName := &cloudmonitoring.LabelDescriptor{
		Key:         "metric_name",
		Description: "The name of the metric.",
		ValueType:   "STRING",
	}
	instance := &cloudmonitoring.LabelDescriptor{
		Key:         "instance",
		Description: "The name of the anonize instance that reported this metric.",
		ValueType:   "STRING",
	}
	testCases := []testCase{
		{
			metricType:  "test",
			description: "this is a test",
			valueType:   "DOUBLE",
			expectedMetric: &cloudmonitoring.MetricDescriptor{
				Type:        fmt.Sprintf("%s/anonize/test", customMetricPrefix),
				Description: "this is a test",
				MetricKind:  "GAUGE",
				ValueType:   "DOUBLE",
				Labels:      []*cloudmonitoring.LabelDescriptor{metricName},
			},
		},
		{
			metricType:           "test2",
			description:          "this is a test2",
			valueType:            "INT64",
			includeInstanceLabel: true,
			extraLabels:          []labelData{curveLabelData},
			expectedMetric: &cloudmonitoring.MetricDescriptor{
				Type:        fmt.Sprintf("%s/anonize/test2", customMetricPrefix),
				Description: "this is a test2",
				MetricKind:  "GAUGE",
				ValueType:   "INT64",
				Labels: []*cloudmonitoring.LabelDescriptor{
					instance,
					metricName,
					{
						Key:         "curve",
						Description: curveLabelData.description,
						ValueType:   "STRING",
					},
				},
			},
		},
	}
	for _, test := range testCases {
		got := createMetric(test.metricType, test.description, test.valueType, test.includeInstanceLabel, test.extraLabels)
		if !reflect.DeepEqual(got, test.expectedMetric) {
			t.Fatalf("want %#v, got %#v", test.expectedMetric, got)
		}
	}
}

func TestGetMetric(t *testing.T) {
	md, err := GetMetric("issue-latency", "proj")
	require.NoError(t, err)
	assert.Equal(t, "custom.googleapis.com/anonize/issue/latency", md.Type)
	assert.Equal(t, "projects/proj/metricDescriptors/custom.googleapis.com/anonize/issue/latency", md.Name)

	// The shared descriptor is not bound to any project.
	other, err := GetMetric("issue-latency", "other")
	require.NoError(t, err)
	assert.Equal(t, "projects/other/metricDescriptors/custom.googleapis.com/anonize/issue/latency", other.Name)
	assert.Empty(t, customMetricDescriptors["issue-latency"].Name)

	_, err = GetMetric("nope", "proj")
	assert.Error(t, err)

	assert.Equal(t, []string{"issue-latency", "keygen-latency", "registry-size", "signatures-issued", "surveys-issued"}, GetSortedMetricNames())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	assert.Equal(t, Snapshot{
		"keygen-latency":    0,
		"issue-latency":     0,
		"signatures-issued": 0,
		"surveys-issued":    0,
		"registry-size":     0,
	}, r.Snapshot())

	r.ObserveKeygen(2 * time.Millisecond)
	r.ObserveKeygen(4 * time.Millisecond)
	r.ObserveIssue(10*time.Millisecond, 5)
	r.ObserveIssue(30*time.Millisecond, 7)
	r.SetRegistrySize(9)
	r.SetRegistrySize(6)

	snap := r.Snapshot()
	assert.InDelta(t, 3.0, snap["keygen-latency"], 1e-9)
	assert.InDelta(t, 20.0, snap["issue-latency"], 1e-9)
	assert.Equal(t, 12.0, snap["signatures-issued"])
	assert.Equal(t, 2.0, snap["surveys-issued"])
	assert.Equal(t, 6.0, snap["registry-size"])
}

func TestTimeSeries(t *testing.T) {
	now := time.Date(2016, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{"surveys-issued": 3, "registry-size": 5}
	series, err := TimeSeries("proj", snap, Labels{Instance: "host-1", Curve: "bn256"}, now)
	require.NoError(t, err)
	require.Len(t, series, 2)

	// Sorted by metric name.
	reg, surveys := series[0], series[1]
	assert.Equal(t, "custom.googleapis.com/anonize/registry/size", reg.Metric.Type)
	assert.Equal(t, map[string]string{"instance": "host-1", "metric_name": "registry-size"}, reg.Metric.Labels)
	assert.Equal(t, map[string]string{"instance": "host-1", "metric_name": "surveys-issued", "curve": "bn256"}, surveys.Metric.Labels)
	assert.Equal(t, "global", surveys.Resource.Type)
	assert.Equal(t, "proj", surveys.Resource.Labels["project_id"])
	require.Len(t, surveys.Points, 1)
	assert.Equal(t, "2016-03-01T12:00:00Z", surveys.Points[0].Interval.EndTime)
	require.NotNil(t, surveys.Points[0].Value.DoubleValue)
	assert.Equal(t, 3.0, *surveys.Points[0].Value.DoubleValue)
	assert.Equal(t, 5.0, *reg.Points[0].Value.DoubleValue)
}
