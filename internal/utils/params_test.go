package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedmens-bureau/bureau/internal/middleware"
	"github.com/freedmens-bureau/bureau/internal/types"
)

func newContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest("GET", target, nil)
	return ctx
}

func TestGetUUIDParam(t *testing.T) {
	id := uuid.New()
	ctx := newContext("/")
	ctx.Params = gin.Params{{Key: "id", Value: id.String()}, {Key: "bad", Value: "42"}}

	got, err := GetUUIDParam(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = GetUUIDParam(ctx, "bad")
	assert.EqualError(t, err, "Invalid ID")

	_, err = GetUUIDParam(ctx, "missing")
	assert.Error(t, err)
}

func TestQueryHelpers(t *testing.T) {
	id := uuid.New()
	ctx := newContext("/?state=" + id.String() + "&vrc=true&usct=maybe&other=")

	got, ok, err := GetUUIDQuery(ctx, "state")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok, err = GetUUIDQuery(ctx, "other")
	assert.NoError(t, err)
	assert.False(t, ok)

	vrc, ok, err := GetBoolQuery(ctx, "vrc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, vrc)

	_, _, err = GetBoolQuery(ctx, "usct")
	assert.EqualError(t, err, "Invalid usct")
}

func TestGetPagination(t *testing.T) {
	page, size := GetPagination(newContext("/"), 50, 200)
	assert.Equal(t, 1, page)
	assert.Equal(t, 50, size)

	page, size = GetPagination(newContext("/?page=3&page_size=500"), 50, 200)
	assert.Equal(t, 3, page)
	assert.Equal(t, 200, size)

	page, size = GetPagination(newContext("/?page=-1&page_size=abc"), 25, 25)
	assert.Equal(t, 1, page)
	assert.Equal(t, 25, size)
}

func TestGetCurrentUser(t *testing.T) {
	ctx := newContext("/")

	_, err := GetCurrentUser(ctx)
	assert.Error(t, err)

	user := middleware.AuthenticatedUser{ID: uuid.New(), Name: "Oliver Howard", Email: "howard@bureau.gov"}
	ctx.Set(types.ContextUserKey, user)
	got, err := GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}
