// Package contracts embeds the OpenAPI documents served and enforced by the API.
package contracts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// HelloPath is the location of the greeting contract, relative to the repository root.
const HelloPath = "contracts/hello.yaml"

//go:embed hello.yaml
var helloSpec []byte

// GetHelloSwagger parses and validates the embedded greeting contract.
func GetHelloSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(helloSpec)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", HelloPath, err)
	}
	if err := spec.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate %s: %w", HelloPath, err)
	}
	return spec, nil
}
