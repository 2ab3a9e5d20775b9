package reconcile

import (
	"context"
	"fmt"
	"strings"

	"inkflow/internal/catalog"
	"inkflow/internal/coverage"
)

// Reconciler applies the configured strategy and the cross-cutting color
// rules to one document at a time.
type Reconciler struct {
	opts Options
}

// New returns a Reconciler for the given rules.
func New(opts Options) *Reconciler {
	return &Reconciler{opts: opts}
}

// Reconcile maps in.Inks onto the item's records. Violations are returned
// in the Result; the error is reserved for catalog failures. When the
// result carries violations it carries no records.
func (r *Reconciler) Reconcile(ctx context.Context, cat Catalog, in Input) (Result, error) {
	workflow, ok := r.opts.Select(in.Job.Workflow)
	if !ok {
		return Result{Violations: []Violation{{
			Kind:    ViolationUnknownWorkflow,
			Message: fmt.Sprintf("Job %d uses workflow %q, which has no ink coverage handling.", in.Job.ID, in.Job.Workflow),
		}}}, nil
	}
	strategy, err := StrategyFor(workflow)
	if err != nil {
		return Result{}, err
	}
	result := Result{Workflow: workflow, Replace: strategy.Replaces()}

	if strings.TrimSpace(in.Item.PrintLocation) == "" {
		result.Violations = append(result.Violations, Violation{
			Kind: ViolationNoPrintLocation,
			Message: fmt.Sprintf("An ink coverage was sent for %d-%d, but lacks a print location. Add the print location and re-submit the coverage.",
				in.Item.JobID, in.Item.Number),
		})
		return result, nil
	}
	if strategy.Strict() && len(in.Inks) != len(in.Existing) {
		result.Violations = append(result.Violations, Violation{
			Kind: ViolationCountMismatch,
			Message: fmt.Sprintf("Mis-match in ink count between the ink coverage (%d) and the item in the database (%d).",
				len(in.Inks), len(in.Existing)),
		})
		return result, nil
	}

	claimed := make(map[int64]string, len(in.Inks))
	for i, ink := range in.Inks {
		mapping, violation, err := strategy.Resolve(ctx, cat, in, ink)
		if err != nil {
			return Result{}, err
		}
		if violation != nil {
			result.Violations = append(result.Violations, *violation)
			continue
		}
		record := mapping.Record
		if !mapping.Create {
			if previous, dup := claimed[record.ID]; dup {
				result.Violations = append(result.Violations, Violation{
					Kind: ViolationDuplicateMatch,
					Ink:  ink.Name,
					Message: fmt.Sprintf("The inks named %s and %s on item %d both match the color %s.",
						previous, ink.Name, in.Item.Number, record.Color),
				})
				continue
			}
			claimed[record.ID] = ink.Name
		}

		if err := r.resolveDefinition(ctx, cat, in.Item, &record); err != nil {
			return Result{}, err
		}
		fill(&record, ink)
		if result.Replace {
			sequence := i + 1
			record.Sequence = &sequence
			record.PlateCode = PlateCode(in.Item.NineDigit, sequence)
		}

		if strategy.Strict() && ink.LPI > r.opts.LPICeiling {
			result.Violations = append(result.Violations, Violation{
				Kind:    ViolationLPICeiling,
				Ink:     ink.Name,
				Message: fmt.Sprintf("LPI on the ink named %s on item %d is greater than %v.", ink.Name, in.Item.Number, r.opts.LPICeiling),
			})
		}
		violation, err = r.checkBanned(ctx, cat, in, record)
		if err != nil {
			return Result{}, err
		}
		if violation != nil {
			result.Violations = append(result.Violations, *violation)
		}

		if mapping.Create {
			result.Creates = append(result.Creates, record)
		} else {
			result.Updates = append(result.Updates, record)
		}
	}

	if !result.OK() {
		result.Creates = nil
		result.Updates = nil
	}
	return result, nil
}

// resolveDefinition points the record at the library definition for its
// color and the item's coating. A record keeps its definition when the
// library has no entry.
func (r *Reconciler) resolveDefinition(ctx context.Context, cat Catalog, item catalog.Item, record *catalog.ColorRecord) error {
	def, err := cat.ColorDefinition(ctx, record.Color, item.Coating)
	if err != nil {
		return err
	}
	if def == nil {
		return nil
	}
	id := def.ID
	record.DefinitionID = &id
	record.DefinitionName = def.Name
	return nil
}

func (r *Reconciler) checkBanned(ctx context.Context, cat Catalog, in Input, record catalog.ColorRecord) (*Violation, error) {
	if record.DefinitionID == nil || in.Job.IsPressChange() || r.opts.sizeExcluded(in.Item.Size) {
		return nil, nil
	}
	ban, err := cat.BannedSubstitution(ctx, *record.DefinitionID)
	if err != nil {
		return nil, err
	}
	if ban == nil || !ban.Active {
		return nil, nil
	}
	name := record.DefinitionName
	if name == "" {
		name = record.Color
	}
	return &Violation{
		Kind:    ViolationBannedColor,
		Ink:     record.Color,
		Message: fmt.Sprintf("Color warning: cannot hit %s. Replace with %s.", name, ban.Substitute),
	}, nil
}

func fill(record *catalog.ColorRecord, ink coverage.InkChannel) {
	record.Hex = ink.Hex()
	if ink.CoveragePercent != nil {
		percent := *ink.CoveragePercent
		record.CoveragePercent = &percent
	}
	if sqin, ok := ink.CoverageSquareInches(); ok {
		record.CoverageSqIn = &sqin
	}
	lpi := ink.LPI
	record.LPI = &lpi
	angle := ink.Angle
	record.Angle = &angle
}
