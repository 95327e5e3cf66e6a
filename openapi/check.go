package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
)

// ErrDanglingRef is returned by Check when a local definition reference
// does not resolve.
var ErrDanglingRef = errors.New("dangling definition reference")

// Check verifies a built document: every local definition reference must
// resolve, and the document must pass the kin-openapi structural
// validation. Swagger 2.0 documents are converted to OpenAPI 3 first.
//
// See: https://swagger.io/specification/v2/
// See: https://spec.openapis.org/oas/v3.0.3
func Check(ctx context.Context, doc Document) error {
	if dangling := doc.DanglingRefs(); len(dangling) > 0 {
		return fmt.Errorf("%w: %s", ErrDanglingRef, strings.Join(dangling, ", "))
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if !doc.IsOpenAPI3() {
		var v2 openapi2.T
		if err := json.Unmarshal(raw, &v2); err != nil {
			return fmt.Errorf("load swagger 2.0 document: %w", err)
		}
		converted, err := openapi2conv.ToV3(&v2)
		if err != nil {
			return fmt.Errorf("convert swagger 2.0 document: %w", err)
		}

		// Converted references carry no value until loaded again.
		if raw, err = json.Marshal(converted); err != nil {
			return fmt.Errorf("encode converted document: %w", err)
		}
	}

	v3, err := openapi3.NewLoader().LoadFromData(raw)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if err := v3.Validate(ctx); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	return nil
}
