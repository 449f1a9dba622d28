package validate

// FieldError field error to be nested by other errors
type FieldError struct {
	Domain string `json:"domain"`
	Reason string `json:"reason"`
}

// NewFieldError create new field error
func NewFieldError(domain string, reason string) *FieldError {
	return &FieldError{domain, reason}
}

// Validator .
type Validator interface {
	// Struct validate the `validate` tags of s
	Struct(s interface{}) []*FieldError
	// Var validate a single value against tag, reporting failures under varName
	Var(varName string, value interface{}, tag string) []*FieldError
}
