// Package provider holds contracts shared by the external activity provider clients.
package provider

import (
	"time"

	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
)

// Observer receives timing and outcome for every upstream provider call.
type Observer interface {
	ObserveProviderCall(provider, operation, outcome string, duration time.Duration)
}

// Outcome labels a provider call result for instrumentation.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(appErrors.KindOf(err))
}

type nopObserver struct{}

func (nopObserver) ObserveProviderCall(string, string, string, time.Duration) {}

// NopObserver discards observations.
func NopObserver() Observer { return nopObserver{} }
