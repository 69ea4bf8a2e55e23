package spec

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2req/internal/generrors"
)

const userSpec = `openapi: 3.0.0
info:
  title: User API
  version: "1.0.0"
paths:
  /user/register:
    post:
      operationId: UserController_createUser
      tags: [user]
      parameters: []
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/CreateUserDto'
      responses:
        "201":
          description: created
  /user/{id}:
    patch:
      operationId: UserController_update
      tags: [user]
      parameters:
        - name: id
          required: true
          in: path
          schema:
            type: string
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/UpdateUserDto'
      responses:
        "200":
          description: ok
    delete:
      operationId: UserController_remove
      tags: [user, admin]
      parameters:
        - name: id
          required: true
          in: path
          schema:
            type: string
      responses:
        "200":
          description: ok
    head:
      operationId: UserController_exists
      responses:
        "200":
          description: ok
components:
  schemas:
    CreateUserDto:
      type: object
      properties:
        username:
          type: string
          example: admin
        password:
          type: string
        mobile:
          type: string
      required: [username, password, mobile]
    UpdateUserDto:
      type: object
      properties:
        mobile:
          type: string
`

func loadDoc(t *testing.T, spec string) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(strings.TrimSpace(spec)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return doc
}

func TestAssemble_UserDocument(t *testing.T) {
	t.Parallel()
	doc := loadDoc(t, userSpec)

	routes, err := Assemble(context.Background(), doc)
	require.NoError(t, err)

	// HEAD is outside the supported verb set.
	require.Len(t, routes, 3)

	// Sorted by path, then post/get/put/delete/patch.
	assert.Equal(t, "/user/register", routes[0].Path)
	assert.Equal(t, POST, routes[0].Method)
	assert.Equal(t, "/user/{id}", routes[1].Path)
	assert.Equal(t, DELETE, routes[1].Method)
	assert.Equal(t, PATCH, routes[2].Method)

	register := routes[0]
	assert.Equal(t, "/user/register", register.RequestPath)
	assert.Equal(t, []string{"CreateUserDto"}, register.Trait)
	assert.Equal(t, map[string]FieldDescriptor{
		"username": {Type: "string", Required: true},
		"password": {Type: "string", Required: true},
		"mobile":   {Type: "string", Required: true},
	}, register.Interface)

	remove, update := routes[1], routes[2]
	assert.Equal(t, "/user/${id}", remove.RequestPath)
	assert.Equal(t, "/user/${id}", update.RequestPath)
	assert.Equal(t, "UserController_remove", remove.OperationID)
	assert.Empty(t, remove.Trait)
	assert.Empty(t, remove.Interface)
	assert.Equal(t, []string{"UpdateUserDto"}, update.Trait)
	assert.Equal(t, map[string]FieldDescriptor{"mobile": {Type: "string"}}, update.Interface)
}

func TestAssemble_UnknownReferenceSkipped(t *testing.T) {
	t.Parallel()
	doc := loadDoc(t, userSpec)
	delete(doc.Components.Schemas, "UpdateUserDto")

	routes, err := Assemble(context.Background(), doc, WithMethods([]HttpMethod{PATCH}))
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, []string{"UpdateUserDto"}, routes[0].Trait)
	assert.Empty(t, routes[0].Interface)
}

func TestAssemble_TagFiltering(t *testing.T) {
	t.Parallel()
	doc := loadDoc(t, userSpec)

	routes, err := Assemble(context.Background(), doc, WithExcludeTags([]string{"admin"}))
	require.NoError(t, err)
	for _, r := range routes {
		assert.NotEqual(t, "UserController_remove", r.OperationID)
	}

	routes, err = Assemble(context.Background(), doc, WithIncludeTags([]string{"admin"}))
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "UserController_remove", routes[0].OperationID)
}

func TestAssemble_MethodAndPathFilters(t *testing.T) {
	t.Parallel()
	doc := loadDoc(t, userSpec)

	routes, err := Assemble(context.Background(), doc,
		WithMethods([]HttpMethod{POST}), WithPathPatterns([]string{"^/user/register$"}))
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, POST, routes[0].Method)
	assert.Equal(t, "/user/register", routes[0].Path)

	routes, err = Assemble(context.Background(), doc, WithPathPatterns([]string{"("}))
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestAssemble_MalformedOperationAborts(t *testing.T) {
	t.Parallel()
	doc := loadDoc(t, userSpec)
	doc.Paths["/user/{id}"].Delete.OperationID = ""

	_, err := Assemble(context.Background(), doc)
	require.Error(t, err)

	var mde *generrors.MalformedDocumentError
	require.True(t, errors.As(err, &mde))
	assert.Equal(t, "/user/{id}", mde.Path)
	assert.Equal(t, "delete", mde.Method)
}

func TestAssemble_ExcludedMalformedOperationIgnored(t *testing.T) {
	t.Parallel()
	doc := loadDoc(t, userSpec)
	doc.Paths["/user/{id}"].Delete.OperationID = ""

	routes, err := Assemble(context.Background(), doc, WithExcludeTags([]string{"admin"}))
	require.NoError(t, err)
	require.Len(t, routes, 2)

	_, err = Assemble(context.Background(), doc, WithIncludeTags([]string{"admin"}))
	assert.ErrorIs(t, err, generrors.ErrMalformedDocument)
}

func TestAssemble_CancelledContext(t *testing.T) {
	t.Parallel()
	doc := loadDoc(t, userSpec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	routes, err := Assemble(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, routes)
}

func TestAssemble_NoComponents(t *testing.T) {
	t.Parallel()
	doc := loadDoc(t, `openapi: 3.0.0
info: { title: t, version: "1" }
paths:
  /ping:
    get:
      operationId: HealthController_ping
      responses: { "200": { description: ok } }
`)
	routes, err := Assemble(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "/ping", routes[0].RequestPath)
}

func TestAssemble_NilDocument(t *testing.T) {
	t.Parallel()
	_, err := Assemble(context.Background(), nil)
	assert.Error(t, err)
}
