package config_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/taskforge-ai/dialoguebot/config"
)

// TestGetTaskConfigRoundTripConsistency verifies the round-trip half of
// spec.md §4.2's layered read path, grounded on the teacher's
// TestRegistrationRoundTripConsistency (registry/store/memory/memory_test.go):
// for any valid admin-fetched task config, a fresh Cache's first
// GetTaskConfig call returns an equivalent snapshot.
func TestGetTaskConfigRoundTripConsistency(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("fetched task config round-trips through the cache", prop.ForAll(
		func(tc config.TaskConfig) bool {
			admin := &fakeAdmin{task: tc, taskOK: true}
			c := config.New(config.Options{Admin: admin})

			got, err := c.GetTaskConfig(context.Background(), tc.Name)
			if err != nil {
				return false
			}
			return taskConfigsEqual(tc, got)
		},
		genTaskConfig(),
	))

	properties.TestingRun(t)
}

// TestGetTaskConfigExactlyOneAdminCallWithinTTL verifies spec.md §8's Config
// TTL property: within TTL, any number of GetTaskConfig calls for the same
// task causes exactly one admin-API request total.
func TestGetTaskConfigExactlyOneAdminCallWithinTTL(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("N repeated reads within TTL cause exactly one admin call", prop.ForAll(
		func(tc config.TaskConfig, calls int) bool {
			admin := &fakeAdmin{task: tc, taskOK: true}
			c := config.New(config.Options{Admin: admin})

			for i := 0; i < calls; i++ {
				if _, err := c.GetTaskConfig(context.Background(), tc.Name); err != nil {
					return false
				}
			}
			return atomic.LoadInt32(&admin.calls) == 1
		},
		genTaskConfig(),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

func taskConfigsEqual(a, b config.TaskConfig) bool {
	if a.Name != b.Name || a.Enabled != b.Enabled || a.BookingWindowDays != b.BookingWindowDays {
		return false
	}
	if a.BusinessHours != b.BusinessHours {
		return false
	}
	if len(a.RequiredFields) != len(b.RequiredFields) {
		return false
	}
	for i := range a.RequiredFields {
		if a.RequiredFields[i] != b.RequiredFields[i] {
			return false
		}
	}
	return true
}

func genTaskConfig() gopter.Gen {
	return gopter.CombineGens(
		genTaskName(),
		gen.Bool(),
		gen.IntRange(1, 365),
		genRequiredFields(),
		genBusinessHours(),
	).Map(func(vals []any) config.TaskConfig {
		return config.TaskConfig{
			Name:              vals[0].(string),
			Enabled:           vals[1].(bool),
			BookingWindowDays: vals[2].(int),
			RequiredFields:    vals[3].([]string),
			BusinessHours:     vals[4].(config.BusinessHours),
		}
	})
}

func genTaskName() gopter.Gen {
	return gen.OneConstOf("book_service", "schedule_meeting", "lookup_booking", "cancel_booking")
}

func genRequiredFields() gopter.Gen {
	return gen.SliceOfN(3, gen.OneConstOf("date", "time", "name", "email", "phone", "service"))
}

func genBusinessHours() gopter.Gen {
	return gen.OneGenOf(
		gen.Const(config.BusinessHours{Start: "09:00", End: "18:00"}),
		gen.Const(config.BusinessHours{Start: "08:00", End: "17:00"}),
		gen.Const(config.BusinessHours{Start: "10:00", End: "20:00"}),
	)
}
