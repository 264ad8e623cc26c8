package actor

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	assert.Nil(t, FromRequest(r))

	r.Header.Set(HeaderUserID, " user-1 ")
	r.Header.Set(HeaderUserEmail, "pharmacist@example.com")
	a := FromRequest(r)
	require.NotNil(t, a)
	assert.Equal(t, "user-1", a.ID)
	assert.Equal(t, "user-1 (pharmacist@example.com)", a.String())
	assert.False(t, a.IsSystem())
}

func TestIDFromContext(t *testing.T) {
	assert.Equal(t, SystemID, IDFromContext(context.Background()))

	ctx := WithActor(context.Background(), &Actor{ID: "user-2"})
	assert.Equal(t, "user-2", IDFromContext(ctx))
	assert.Equal(t, "user-2", FromContext(ctx).ID)
}

func TestSystem(t *testing.T) {
	s := System()
	assert.True(t, s.IsSystem())
	assert.Equal(t, "system", s.String())
	var nilActor *Actor
	assert.True(t, nilActor.IsSystem())
}
