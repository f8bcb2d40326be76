package schema

import (
	"fmt"

	"github.com/arion-db/arion/arionerr"
)

// FullTextVector is the prebuilt representation a FullTextView field may be
// given directly at write time instead of raw text run through its ViewFn.
type FullTextVector struct {
	Tokens []string
}

// AliasChecker records Alias-transform values already used within a scheme
// and reports whether a candidate collides. Implementations are expected to
// be backed by a uniqueness lookup against the backing store; ValidateForSave
// calls Reserve only after every other check on a value has passed.
type AliasChecker interface {
	Reserve(scheme, field, value string) error
}

// ValidateForSave runs the field validation pipeline against
// input, in field declaration order, and returns a new map holding the
// transformed, defaulted values ready to persist. alias may be nil for
// schemes that declare no Alias-transform fields.
func (s *Scheme) ValidateForSave(input map[string]any, alias AliasChecker) (map[string]any, error) {
	out := make(map[string]any, len(s.Fields))

	for _, f := range s.Fields {
		if f.Kind == KindVirtual {
			continue // no column of its own; applied via VirtualWrite instead
		}

		value, present := input[f.Name]

		if !present && f.Default != nil {
			v, err := f.Default()
			if err != nil {
				return nil, arionerr.New(arionerr.KindValidation, f.Name, err)
			}
			value, present = v, true
		}

		if !present {
			if f.Required {
				return nil, arionerr.New(arionerr.KindValidation, f.Name, fmt.Errorf("missing-required"))
			}
			continue
		}

		if f.Filter != nil {
			v, err := f.Filter(value)
			if err != nil {
				return nil, arionerr.New(arionerr.KindValidation, f.Name, err)
			}
			value = v
		}

		if err := validateConstraints(f, value); err != nil {
			return nil, arionerr.New(arionerr.KindValidation, f.Name, err)
		}

		transformed, err := transformValue(s, f, value)
		if err != nil {
			return nil, err
		}
		value = transformed

		if f.Transform == TransformAlias {
			text, ok := value.(string)
			if !ok {
				return nil, arionerr.New(arionerr.KindValidation, f.Name, fmt.Errorf("alias transform requires a string value"))
			}
			if alias != nil {
				if err := alias.Reserve(s.Name, f.Name, text); err != nil {
					return nil, arionerr.New(arionerr.KindConstraint, f.Name, err)
				}
			}
		}

		out[f.Name] = value
	}

	return out, nil
}

// transformValue applies the kind-specific transform step: recursive
// validation for Extra, raw-text-to-vector for FullTextView, and the
// per-driver handler for Custom.
func transformValue(s *Scheme, f *Field, value any) (any, error) {
	switch f.Kind {
	case KindExtra:
		nested, ok := value.(map[string]any)
		if !ok {
			return nil, arionerr.New(arionerr.KindValidation, f.Name, fmt.Errorf("extra field requires a nested object"))
		}
		if f.Nested == nil {
			return value, nil
		}
		validated, err := f.Nested.ValidateForSave(nested, nil)
		if err != nil {
			return nil, err
		}
		return validated, nil

	case KindFullTextView:
		if _, already := value.(FullTextVector); already {
			return value, nil
		}
		if f.ViewFn == nil {
			return value, nil
		}
		v, err := f.ViewFn(value)
		if err != nil {
			return nil, arionerr.New(arionerr.KindValidation, f.Name, err)
		}
		return v, nil

	case KindCustom:
		if f.CustomValidate == nil {
			return value, nil
		}
		v, err := f.CustomValidate(value)
		if err != nil {
			return nil, arionerr.New(arionerr.KindValidation, f.Name, err)
		}
		return v, nil

	default:
		return value, nil
	}
}

// validateConstraints checks the generic, kind-independent constraints a
// field may declare: string length bounds and enum membership.
func validateConstraints(f *Field, value any) error {
	text, isText := value.(string)

	if (f.MinLength != nil || f.MaxLength != nil) && isText {
		n := len(text)
		if f.MinLength != nil && n < *f.MinLength {
			return fmt.Errorf("value too short: %d < %d", n, *f.MinLength)
		}
		if f.MaxLength != nil && n > *f.MaxLength {
			return fmt.Errorf("value too long: %d > %d", n, *f.MaxLength)
		}
	}

	if len(f.Enum) > 0 && isText {
		for _, allowed := range f.Enum {
			if allowed == text {
				return nil
			}
		}
		return fmt.Errorf("value %q not in allowed set %v", text, f.Enum)
	}

	return nil
}

// ValidateForUpdate runs the same pipeline as ValidateForSave over only the
// fields present in input: absent fields stay untouched rather than
// failing the required check or picking up defaults, since an update
// leaves unmentioned columns as they are.
func (s *Scheme) ValidateForUpdate(input map[string]any, alias AliasChecker) (map[string]any, error) {
	out := make(map[string]any, len(input))

	for _, f := range s.Fields {
		if f.Kind == KindVirtual {
			continue
		}
		value, present := input[f.Name]
		if !present {
			continue
		}
		if f.ReadOnly {
			return nil, arionerr.New(arionerr.KindValidation, f.Name, fmt.Errorf("field is read-only"))
		}

		if f.Filter != nil {
			v, err := f.Filter(value)
			if err != nil {
				return nil, arionerr.New(arionerr.KindValidation, f.Name, err)
			}
			value = v
		}

		if err := validateConstraints(f, value); err != nil {
			return nil, arionerr.New(arionerr.KindValidation, f.Name, err)
		}

		transformed, err := transformValue(s, f, value)
		if err != nil {
			return nil, err
		}
		value = transformed

		if f.Transform == TransformAlias {
			text, ok := value.(string)
			if !ok {
				return nil, arionerr.New(arionerr.KindValidation, f.Name, fmt.Errorf("alias transform requires a string value"))
			}
			if alias != nil {
				if err := alias.Reserve(s.Name, f.Name, text); err != nil {
					return nil, arionerr.New(arionerr.KindConstraint, f.Name, err)
				}
			}
		}

		out[f.Name] = value
	}

	return out, nil
}
