package properties

import "fmt"

// Failure couples a violated property with the error describing the violation.
type Failure struct {
	// Property is the violated invariant.
	Property *Property

	// Err describes the broken relation.
	Err error
}

// String obtains a display string of the failure.
func (f *Failure) String() string {
	return fmt.Sprintf("%s: %v", f.Property.ID, f.Err)
}

// Checker evaluates a fixed property set against vault state.
type Checker struct {
	properties []*Property
}

// NewChecker constructs a checker over the provided properties. Passing none selects the full set.
func NewChecker(props ...*Property) *Checker {
	if len(props) == 0 {
		props = All()
	}
	return &Checker{properties: props}
}

// Properties returns the checker's property set.
func (c *Checker) Properties() []*Property {
	return c.properties
}

// CheckAll evaluates every property against the context and returns all violations found. An empty result
// means every invariant holds.
func (c *Checker) CheckAll(ctx *Context) []*Failure {
	var failures []*Failure
	for _, property := range c.properties {
		if err := property.Check(ctx); err != nil {
			failures = append(failures, &Failure{Property: property, Err: err})
		}
	}
	return failures
}
