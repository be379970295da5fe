// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics records protocol statistics of an anonize run and pushes
// them to Google Cloud Monitoring as custom gauge metrics.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/google"
	cloudmonitoring "google.golang.org/api/monitoring/v3"
)

const (
	customMetricPrefix = "custom.googleapis.com"
)

type labelData struct {
	key         string
	description string
}

var curveLabelData = labelData{
	key:         "curve",
	description: "The pairing group the run used (bn256, bls12-381)",
}

// customMetricDescriptors is a map from metric's short names to their
// MetricDescriptor definitions.
var customMetricDescriptors = map[string]*cloudmonitoring.MetricDescriptor{
	// Latencies (ms) of the two authority operations.
	"keygen-latency": createMetric("keygen/latency", "Mean latency (ms) of authority key generation.", "DOUBLE", true, []labelData{curveLabelData}),
	"issue-latency":  createMetric("issue/latency", "Mean latency (ms) of survey issuance.", "DOUBLE", true, []labelData{curveLabelData}),

	// Counters accumulated over a run.
	"signatures-issued": createMetric("issue/signatures", "Signatures issued, counting repeated identities.", "DOUBLE", true, []labelData{curveLabelData}),
	"surveys-issued":    createMetric("issue/surveys", "Surveys created.", "DOUBLE", true, []labelData{curveLabelData}),

	// Size of the registration authority's registry at the end of a run.
	"registry-size": createMetric("registry/size", "Identities in the registry.", "DOUBLE", true, nil),
}

func createMetric(metricType, description, valueType string, includeInstanceLabel bool, extraLabels []labelData) *cloudmonitoring.MetricDescriptor {
	labels := []*cloudmonitoring.LabelDescriptor{}
	if includeInstanceLabel {
		labels = append(labels, &cloudmonitoring.LabelDescriptor{
			Key:         "instance",
			Description: "The name of the anonize instance that reported this metric.",
			ValueType:   "STRING",
		})
	}
	labels = append(labels, &cloudmonitoring.LabelDescriptor{
		Key:         "metric_name",
		Description: "The name of the metric.",
		ValueType:   "STRING",
	})
	for _, data := range extraLabels {
		labels = append(labels, &cloudmonitoring.LabelDescriptor{
			Key:         data.key,
			Description: data.description,
			ValueType:   "STRING",
		})
	}

	return &cloudmonitoring.MetricDescriptor{
		Type:        fmt.Sprintf("%s/anonize/%s", customMetricPrefix, metricType),
		Description: description,
		MetricKind:  "GAUGE",
		ValueType:   valueType,
		Labels:      labels,
	}
}

// GetMetric returns a copy of the custom metric descriptor with the given
// name, bound to project.
func GetMetric(name, project string) (*cloudmonitoring.MetricDescriptor, error) {
	md, ok := customMetricDescriptors[name]
	if !ok {
		return nil, fmt.Errorf("metric %q doesn't exist", name)
	}
	ret := *md
	ret.Name = fmt.Sprintf("projects/%s/metricDescriptors/%s", project, md.Type)
	return &ret, nil
}

// GetSortedMetricNames gets the sorted metric names.
func GetSortedMetricNames() []string {
	names := []string{}
	for n := range customMetricDescriptors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func createClient(ctx context.Context, keyFilePath string) (*http.Client, error) {
	if len(keyFilePath) > 0 {
		data, err := os.ReadFile(keyFilePath)
		if err != nil {
			return nil, err
		}
		conf, err := google.JWTConfigFromJSON(data, cloudmonitoring.MonitoringScope)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create JWT config")
		}
		return conf.Client(ctx), nil
	}

	return google.DefaultClient(ctx, cloudmonitoring.MonitoringScope)
}

// Authenticate authenticates with the given JSON credentials file (or the
// default client if the file is not provided). If successful, it returns a
// service object that can be used in GCM API calls.
func Authenticate(ctx context.Context, keyFilePath string) (*cloudmonitoring.Service, error) {
	c, err := createClient(ctx, keyFilePath)
	if err != nil {
		return nil, err
	}
	s, err := cloudmonitoring.New(c)
	if err != nil {
		return nil, errors.Wrap(err, "New() failed")
	}
	return s, nil
}
