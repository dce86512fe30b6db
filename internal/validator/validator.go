package validator

// Errors maps a field name to the first failure message recorded for it.
// It implements error so services can return it directly.
type Errors map[string]string

func (e Errors) Error() string {
	return "input validation failed"
}

// Validator accumulates per-field failures. The first message recorded
// for a field wins; later failures on the same field are dropped.
type Validator struct {
	errors Errors
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{errors: make(Errors)}
}

// Valid reports whether no failures were recorded.
func (v *Validator) Valid() bool {
	return len(v.errors) == 0
}

// AddError records a failure for field unless one already exists.
func (v *Validator) AddError(field, message string) {
	if _, ok := v.errors[field]; !ok {
		v.errors[field] = message
	}
}

// Check records a failure for field when ok is false.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Errors returns the accumulated failure map.
func (v *Validator) Errors() Errors {
	return v.errors
}

// Unique reports whether all values in the slice are distinct.
func Unique(values []string) bool {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return false
		}
		seen[v] = struct{}{}
	}
	return true
}

// In reports whether value matches one of the candidates.
func In(value string, candidates ...string) bool {
	for _, c := range candidates {
		if value == c {
			return true
		}
	}
	return false
}
