package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/alexanderramin/cadence/internal/domain"
)

// scopeValue is a pflag.Value restricted to the reset scopes.
type scopeValue domain.ResetScope

var _ pflag.Value = (*scopeValue)(nil)

func (s *scopeValue) String() string { return string(*s) }
func (s *scopeValue) Type() string   { return "scope" }

func (s *scopeValue) Set(v string) error {
	scope := domain.ResetScope(strings.ToLower(strings.TrimSpace(v)))
	if !domain.ValidResetScopes[scope] {
		return fmt.Errorf("must be one of session, today, total")
	}
	*s = scopeValue(scope)
	return nil
}

// frequencyValue is a pflag.Value restricted to habit frequencies.
type frequencyValue domain.Frequency

var _ pflag.Value = (*frequencyValue)(nil)

func (f *frequencyValue) String() string { return string(*f) }
func (f *frequencyValue) Type() string   { return "frequency" }

func (f *frequencyValue) Set(v string) error {
	freq := domain.Frequency(strings.ToLower(strings.TrimSpace(v)))
	if !domain.ValidFrequencies[freq] {
		return fmt.Errorf("must be one of daily, weekly, monthly")
	}
	*f = frequencyValue(freq)
	return nil
}

// kindValue filters listings by work item kind. Empty means all.
type kindValue domain.WorkItemKind

var _ pflag.Value = (*kindValue)(nil)

func (k *kindValue) String() string { return string(*k) }
func (k *kindValue) Type() string   { return "kind" }

func (k *kindValue) Set(v string) error {
	switch kind := domain.WorkItemKind(strings.ToLower(strings.TrimSpace(v))); kind {
	case domain.KindTask, domain.KindHabit:
		*k = kindValue(kind)
		return nil
	default:
		return fmt.Errorf("must be task or habit")
	}
}
