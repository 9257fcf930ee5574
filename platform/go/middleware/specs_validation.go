package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	platformauth "github.com/zenGate-Global/hello-audit/platform/go/auth"
)

// ValidateAuthenticationViaSwagger satisfies operations that declare security in OpenAPI. Every
// scheme the contracts declare (session cookie, bearer token) is honoured by auth.Bind, so the
// check is that Bind resolved a principal for the request.
func ValidateAuthenticationViaSwagger(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	if input == nil {
		return nil
	}
	r := input.RequestValidationInput.Request
	if r == nil {
		return errors.New("no request in validation input")
	}
	if _, ok := platformauth.PrincipalFromContext(r.Context()); !ok {
		return fmt.Errorf("security scheme %q: no authenticated principal", input.SecuritySchemeName)
	}
	return nil
}

// SpecValidator builds the request validator for a contract.
func SpecValidator(spec *openapi3.T) func(http.Handler) http.Handler {
	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: ValidateAuthenticationViaSwagger,
		},
	})
}
