package queryir

import "fmt"

// ValidationResult contains the findings of Validate.
type ValidationResult struct {
	// IsValid is true when the predicate can be evaluated by every backend
	// and can match at least one position.
	IsValid bool

	// Warnings lists each problem found. Empty when IsValid is true.
	Warnings []string
}

// Validate checks a predicate for mistakes that every backend would accept
// but that can never be what the caller meant: negative position bounds,
// empty ranges, unknown predicate types.
//
// Validate is a pure function with no side effects.
func Validate(p Predicate) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validatePredicate(p)

	return ValidationResult{
		IsValid:  len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		return // nil predicates are valid (no filter)
	}

	switch pred := p.(type) {
	case PositionEquals:
		v.validateEquals(pred)
	case *PositionEquals:
		v.validateEquals(*pred)
	case PositionGreater, *PositionGreater:
		// Any bound is meaningful; position > -1 matches every placed node.
	case PositionLess:
		v.validateLess(pred)
	case *PositionLess:
		v.validateLess(*pred)
	case PositionBetween:
		v.validateBetween(pred)
	case *PositionBetween:
		v.validateBetween(*pred)
	case ExcludeID:
		v.validateExclude(pred)
	case *ExcludeID:
		v.validateExclude(*pred)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	default:
		v.addWarning("unknown predicate type: %T", p)
	}
}

func (v *validator) validateEquals(eq PositionEquals) {
	if eq.Value < 0 {
		v.addWarning("position = %d can never match: positions are non-negative", eq.Value)
	}
}

func (v *validator) validateLess(lt PositionLess) {
	if lt.Value <= 0 {
		v.addWarning("position < %d can never match: positions are non-negative", lt.Value)
	}
}

func (v *validator) validateBetween(b PositionBetween) {
	if b.High-b.Low < 2 {
		v.addWarning("range (%d, %d) is empty", b.Low, b.High)
		return
	}
	if b.High <= 0 {
		v.addWarning("range (%d, %d) lies below position 0", b.Low, b.High)
	}
}

func (v *validator) validateExclude(ex ExcludeID) {
	if ex.ID == "" {
		v.addWarning("excluded id is empty")
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}
