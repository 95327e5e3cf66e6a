// Package openapi assembles Swagger 2.0 and OpenAPI 3.0 documents from the
// documentation attached to the routes of an application.
//
// Documentation lives next to the code. A handler carries free text laid out
// as a summary line, a description and a structured YAML block after a "---"
// line, or points at an external fragment file:
//
//	func listColors(w http.ResponseWriter, r *http.Request) { ... }
//
//	r := chi.NewRouter()
//	r.Method(http.MethodGet, "/colors/{palette}", openapi.Doc(`
//	    Palette colors
//	    Returns the colors of a palette.
//	    ---
//	    parameters:
//	      - name: palette
//	        in: path
//	        type: string
//	        enum: [all, rgb, cmyk]
//	    responses:
//	      200:
//	        description: A list of colors
//	        schema:
//	          id: Palette
//	          type: object
//	`, listColors))
//
// Handlers must be registered as they are (chi's Method or Handle), not as
// method values, so that the route table keeps their documentation. Routes
// without a structured block are left out of the document.
//
// # Building
//
// Swagger walks a RouteSource, merges the fragments of every route and verb
// and promotes every schema carrying an "id" to the definitions registry,
// replacing it with a $ref:
//
//	sw, err := openapi.New(openapi.ChiRoutes(r), openapi.DefaultConfig())
//	doc, err := sw.Spec(ctx, "apispec_1")
//
// Fragments merge in a fixed order, later sources winning: view attributes
// and models (SchemaView), attached data (WithSpec), then the documentation
// text or file. Mappings merge key by key and lists are unioned.
//
// Setting Config.OpenAPI switches the output to OpenAPI 3: definitions move
// to components.schemas and requestBody and callbacks are emitted.
//
// See: https://swagger.io/specification/v2/
// See: https://spec.openapis.org/oas/v3.0.3
//
// # Serving
//
// Register adds the JSON (and optionally YAML) document routes, the docs
// index and the interactive UI to a chi router:
//
//	sw.Register(r)
//
// # Validation
//
// Validator checks payloads against a definition declared in a fragment,
// using kin-openapi as the JSON schema validator:
//
//	v := sw.Validator()
//	err := v.Validate(ctx, data, "User", fragment.File("docs/users_post.yml"))
//
// Annotated handlers validate their own request bodies with WithValidation.
package openapi
