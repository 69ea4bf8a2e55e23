package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	genspec "github.com/mark3labs/swagger2req/internal/spec"
)

func userGroup(t *testing.T) *ControllerGroup {
	t.Helper()

	idParam := genspec.ParamModel{Field: "id", In: "path", Required: true, Type: "string"}
	update := route("UserController_update", genspec.PATCH, "/user/{id}")
	update.Params = []genspec.ParamModel{idParam}
	update.Trait = []string{"UpdateUserDto"}
	update.Interface = map[string]genspec.FieldDescriptor{"mobile": {Type: "string"}}

	remove := route("UserController_remove", genspec.DELETE, "/user/{id}")
	remove.Params = []genspec.ParamModel{idParam}

	patchAgain := route("UserController_rename", genspec.PATCH, "/user/{id}/name")
	patchAgain.Params = []genspec.ParamModel{idParam}

	groups, err := Group([]genspec.RouteDescriptor{update, remove, patchAgain}, GroupOptions{})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	return groups[0]
}

func TestBuildContexts(t *testing.T) {
	t.Parallel()

	contexts := BuildContexts(userGroup(t), ContextOptions{})
	require.Len(t, contexts, 3)

	update, remove, rename := contexts[0], contexts[1], contexts[2]

	assert.Equal(t, "UserController", update.Controller)
	assert.Equal(t, "update", update.Name)
	assert.Equal(t, "data: T, id: string", update.Params)
	assert.Equal(t, "{ ...data }", update.RequestParams)
	assert.Equal(t, "`/user/${id}`, { ...data }", update.CallbackParams)
	assert.Equal(t, "Patch", update.Method)
	assert.Equal(t, "PATCH", update.HTTPMethod)
	assert.Equal(t, "/user/${id}", update.Path)
	assert.Equal(t, DefaultImportPath, update.ImportPath)
	assert.True(t, update.FirstInUnit)
	assert.True(t, update.HasBody)
	assert.Equal(t, "string", update.Fields["mobile"].Type)

	assert.Equal(t, "remove", remove.Name)
	assert.Equal(t, "id: string", remove.Params)
	assert.Equal(t, "", remove.RequestParams)
	assert.Equal(t, "`/user/${id}`", remove.CallbackParams)
	assert.Equal(t, "Delete", remove.Method)
	assert.False(t, remove.FirstInUnit)
	assert.False(t, remove.HasBody)

	assert.False(t, rename.FirstInUnit)

	// Distinct verbs in first-seen order, shared by every route of the unit.
	for _, c := range contexts {
		assert.Equal(t, []string{"Patch", "Delete"}, c.Imports)
	}
}

func TestBuildContexts_Options(t *testing.T) {
	t.Parallel()

	contexts := BuildContexts(userGroup(t), ContextOptions{ImportPath: "~/http", VerbTransform: VerbUpper})
	require.NotEmpty(t, contexts)
	assert.Equal(t, "~/http", contexts[0].ImportPath)
	assert.Equal(t, "PATCH", contexts[0].Method)
	assert.Equal(t, []string{"PATCH", "DELETE"}, contexts[0].Imports)
}

func TestVerbTransform(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Patch", VerbCapitalize.Apply("patch"))
	assert.Equal(t, "Delete", VerbTransform("").Apply("delete"))
	assert.Equal(t, "GET", VerbUpper.Apply("get"))
	assert.Equal(t, "post", VerbLower.Apply("POST"))
	assert.Equal(t, "put", VerbNone.Apply("put"))
}

func TestParseVerbTransform(t *testing.T) {
	t.Parallel()

	v, err := ParseVerbTransform("")
	require.NoError(t, err)
	assert.Equal(t, VerbCapitalize, v)

	v, err = ParseVerbTransform(" Upper ")
	require.NoError(t, err)
	assert.Equal(t, VerbUpper, v)

	_, err = ParseVerbTransform("shout")
	assert.Error(t, err)
}
