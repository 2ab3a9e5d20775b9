package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"inkflow/internal/config"
)

// Workflow selects a reconciliation strategy.
type Workflow string

const (
	// ReplaceAll wipes the item's records and recreates them from the document.
	ReplaceAll Workflow = "replace_all"
	// StrictSimple matches each ink to an existing record by name and angle.
	StrictSimple Workflow = "strict_simple"
	// StrictAliased matches like StrictSimple after mapping process inks to
	// their internal codes.
	StrictAliased Workflow = "strict_aliased"
)

// ParseWorkflow validates a strategy name.
func ParseWorkflow(value string) (Workflow, error) {
	switch w := Workflow(strings.ToLower(strings.TrimSpace(value))); w {
	case ReplaceAll, StrictSimple, StrictAliased:
		return w, nil
	default:
		return "", fmt.Errorf("unknown reconciliation strategy %q", value)
	}
}

// Options carries the business-rule knobs.
type Options struct {
	// Workflows maps a job's workflow name to a strategy. Lookup ignores case.
	Workflows map[string]Workflow
	// LPICeiling is the highest screen frequency the strict workflows accept.
	LPICeiling float64
	// ExcludedSizes lists size-name fragments exempt from banned-color checks.
	ExcludedSizes []string
}

// Select returns the strategy configured for a job workflow name.
func (o Options) Select(workflowName string) (Workflow, bool) {
	name := strings.TrimSpace(workflowName)
	if w, ok := o.Workflows[name]; ok {
		return w, true
	}
	for key, w := range o.Workflows {
		if strings.EqualFold(key, name) {
			return w, true
		}
	}
	return "", false
}

func (o Options) sizeExcluded(size string) bool {
	lowered := strings.ToLower(size)
	for _, fragment := range o.ExcludedSizes {
		if fragment != "" && strings.Contains(lowered, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}

// OptionsFromConfig converts the [reconcile] settings.
func OptionsFromConfig(cfg config.Reconcile) (Options, error) {
	names := make([]string, 0, len(cfg.Workflows))
	for name := range cfg.Workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	workflows := make(map[string]Workflow, len(names))
	for _, name := range names {
		w, err := ParseWorkflow(cfg.Workflows[name])
		if err != nil {
			return Options{}, fmt.Errorf("workflow %s: %w", name, err)
		}
		workflows[name] = w
	}
	return Options{
		Workflows:     workflows,
		LPICeiling:    cfg.LPICeiling,
		ExcludedSizes: append([]string(nil), cfg.ExcludedSizes...),
	}, nil
}
