/*
Copyright 2025 Bengaluru Travel Planner Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithSuffix(t *testing.T) {
	id := GenerateUUIDWithSuffix("job")
	assert.True(t, strings.HasPrefix(id, "job_"))
	assert.Len(t, id, len("job_")+36)

	other := GenerateUUIDWithSuffix("job")
	assert.NotEqual(t, id, other)
}

func TestAdaString(t *testing.T) {
	tests := []struct {
		lovelace int64
		want     string
	}{
		{2_000_000, "2"},
		{1_999_999, "1.999999"},
		{1, "0.000001"},
		{0, "0"},
		{1_500_000, "1.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AdaString(tt.lovelace))
	}
}

func TestInputHashDeterministic(t *testing.T) {
	a := map[string]interface{}{
		"location":  "Koramangala",
		"plan_type": "full-day",
		"budget":    5000,
	}
	b := map[string]interface{}{
		"budget":    5000,
		"plan_type": "full-day",
		"location":  "Koramangala",
	}

	assert.Equal(t, InputHash(a), InputHash(b))
	assert.Len(t, InputHash(a), 64)

	a["budget"] = 6000
	assert.NotEqual(t, InputHash(a), InputHash(b))
}

func TestGeneratePurchaserID(t *testing.T) {
	id := GeneratePurchaserID()
	assert.Len(t, id, 20)
	for _, c := range id {
		assert.Contains(t, "0123456789abcdef", string(c))
	}
	assert.NotEqual(t, id, GeneratePurchaserID())
}

func TestTravelQueryString(t *testing.T) {
	q := TravelQuery{
		PlanType:       "half-day",
		People:         "couple",
		NumberOfPeople: 2,
		Location:       "JP Nagar",
		DateOfPlan:     "2026-10-02",
		StartTime:      "16:00",
		Inclusions:     []string{"lake walk", "dosa"},
		Budget:         3000,
		TransportMode:  "metro",
	}

	s := q.QueryString()
	assert.Contains(t, s, "half-day trip for 2 couple")
	assert.Contains(t, s, "JP Nagar")
	assert.Contains(t, s, "lake walk, dosa")
	assert.Contains(t, s, "INR 3000 (flexible)")
	assert.Contains(t, s, "metro")

	// Optional sections are omitted entirely when unset
	minimal := TravelQuery{PlanType: "evening", People: "solo", NumberOfPeople: 1, Location: "MG Road", DateOfPlan: "2026-10-02", StartTime: "18:00"}
	assert.NotContains(t, minimal.QueryString(), "budget")
	assert.NotContains(t, minimal.QueryString(), "Remarks")
}

func TestToInputMapRoundTrips(t *testing.T) {
	q := TravelQuery{PlanType: "weekend", People: "family", NumberOfPeople: 5, Location: "Nandi Hills", DateOfPlan: "2026-11-21", StartTime: "06:00"}
	m := q.ToInputMap()
	assert.Equal(t, "weekend", m["plan_type"])
	assert.Equal(t, float64(5), m["number_of_people"])
	_, hasOccasion := m["occasion"]
	assert.False(t, hasOccasion)
}

func TestJobTerminal(t *testing.T) {
	job := &Job{Status: JobStatusPending}
	assert.False(t, job.Terminal())
	job.Status = JobStatusProcessing
	assert.False(t, job.Terminal())
	job.Status = JobStatusCompleted
	assert.True(t, job.Terminal())
	job.Status = JobStatusFailed
	assert.True(t, job.Terminal())
}
