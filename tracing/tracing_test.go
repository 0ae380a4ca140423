// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package tracing

import (
	"testing"

	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/require"
)

type registerBike struct{ BikeID string }

type findBike struct{ BikeID string }

type bikeRegistered struct{ BikeID string }

// events returns the values of the "event" fields logged on s, in order.
func events(s *mocktracer.MockSpan) []string {
	var out []string
	for _, rec := range s.Logs() {
		for _, f := range rec.Fields {
			if f.Key == "event" {
				out = append(out, f.ValueString)
			}
		}
	}
	return out
}

// spanNamed returns the single finished span named name.
func spanNamed(t *testing.T, tracer *mocktracer.MockTracer, name string) *mocktracer.MockSpan {
	t.Helper()
	var found []*mocktracer.MockSpan
	for _, s := range tracer.FinishedSpans() {
		if s.OperationName == name {
			found = append(found, s)
		}
	}
	require.Len(t, found, 1, "finished spans named %q", name)
	return found[0]
}
