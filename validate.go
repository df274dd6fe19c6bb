package authnego

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// createInput is validated at the Create boundary: the
// one system-boundary check input normalisation doesn't itself
// perform.
type createInput struct {
	Hostname string `validate:"required,max=255"`
	Service  string `validate:"required,max=64,alphanum"`
}

func validateCreateInput(hostname, service string) error {
	in := createInput{Hostname: hostname, Service: service}
	if err := validate.Struct(in); err != nil {
		return &ParseFailure{Input: hostname + "/" + service, Err: err}
	}
	return nil
}
