package spec

// Route model produced from a schema document and consumed by codegen.

type HttpMethod string

const (
	POST   HttpMethod = "post"
	GET    HttpMethod = "get"
	PUT    HttpMethod = "put"
	DELETE HttpMethod = "delete"
	PATCH  HttpMethod = "patch"
)

// Methods is the supported verb set in the order routes are emitted for a path.
var Methods = []HttpMethod{POST, GET, PUT, DELETE, PATCH}

// HasBody reports whether generated calls for this verb forward a body payload.
func (m HttpMethod) HasBody() bool {
	switch m {
	case POST, PUT, PATCH:
		return true
	}
	return false
}

// FieldDescriptor is one flattened schema property.
type FieldDescriptor struct {
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// SchemaIndex maps schema name -> field name -> descriptor.
type SchemaIndex map[string]map[string]FieldDescriptor

type ParamModel struct {
	Field    string `json:"field"`
	In       string `json:"in"` // path|query|header|cookie
	Required bool   `json:"required"`
	Type     string `json:"type"`
}

type RouteDescriptor struct {
	Path        string       `json:"path"`        // raw, e.g. /user/{id}
	RequestPath string       `json:"requestPath"` // interpolation-ready, e.g. /user/${id}
	Method      HttpMethod   `json:"method"`
	OperationID string       `json:"operationId"`
	Tags        []string     `json:"tags,omitempty"`
	Params      []ParamModel `json:"params"`
	// Trait lists schema names referenced by the JSON request body.
	Trait     []string                   `json:"trait"`
	Interface map[string]FieldDescriptor `json:"interface"`
}
