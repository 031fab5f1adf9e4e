package semantics

import (
	"errors"
	"fmt"

	"github.com/TerraMA2/terrama2-sub002/internal/common"

	"github.com/sirupsen/logrus"
)

// ErrSemanticsNotFound is returned when a code is not registered. It is a
// client error: the data series referencing the code can be neither rendered
// nor serialized.
var ErrSemanticsNotFound = fmt.Errorf("semantics not found: %w", common.ErrValidation)

// Registry is the read-only set of semantics descriptors loaded at startup.
// It is never mutated after construction, so concurrent readers need no locks.
type Registry struct {
	descriptors []Descriptor
	validators  map[string]*Validator
}

// NewRegistry builds a registry from descriptors kept in the given order.
// Descriptors without a GUI block are dropped.
func NewRegistry(descriptors ...Descriptor) *Registry {
	r, _ := build(descriptors, nil)
	return r
}

func build(descriptors []Descriptor, log *logrus.Entry) (*Registry, error) {
	r := &Registry{
		descriptors: make([]Descriptor, 0, len(descriptors)),
		validators:  make(map[string]*Validator),
	}

	seen := make(map[string]bool, len(descriptors))
	var errs []error
	for _, d := range descriptors {
		d.normalize()
		if d.GUI == nil {
			if log != nil {
				log.WithField("code", d.Code).Debug("Skipping semantics without gui block")
			}
			continue
		}
		if d.Code == "" {
			errs = append(errs, fmt.Errorf("semantics %q has no code", d.Name))
			continue
		}
		if seen[d.Code] && log != nil {
			log.WithField("code", d.Code).Warn("Duplicate semantics code, first one wins on lookup")
		}
		seen[d.Code] = true

		if len(d.GUI.Schema) > 0 && !r.hasValidator(d.Code) {
			v, err := NewValidator(d.GUI.Schema)
			if err != nil {
				if log != nil {
					log.WithError(err).WithField("code", d.Code).Warn("Format schema not usable, skipping validation")
				}
			} else {
				r.validators[d.Code] = v
			}
		}
		r.descriptors = append(r.descriptors, d)
	}

	return r, errors.Join(errs...)
}

func (r *Registry) hasValidator(code string) bool {
	_, ok := r.validators[code]
	return ok
}

// Lookup returns the first descriptor registered under code.
func (r *Registry) Lookup(code string) (Descriptor, error) {
	for _, d := range r.descriptors {
		if d.Code == code {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrSemanticsNotFound, code)
}

// List returns every descriptor in load order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Len returns the number of visible descriptors.
func (r *Registry) Len() int {
	return len(r.descriptors)
}

// ValidateFormat checks a data set format mapping against the GUI schema of
// the given semantics. Semantics without a schema accept any format.
func (r *Registry) ValidateFormat(code string, format map[string]interface{}) error {
	if _, err := r.Lookup(code); err != nil {
		return err
	}
	v, ok := r.validators[code]
	if !ok {
		return nil
	}
	if format == nil {
		format = map[string]interface{}{}
	}
	return v.Validate(format)
}
