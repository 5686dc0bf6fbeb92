package validators

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	ProfileName string `validate:"required,min=3,alphanum"`
	Email       string `validate:"required,email"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(signup{ProfileName: "alice", Email: "a@b.io"}))

	err := v.Validate(signup{ProfileName: "a!", Email: "nope"})
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	body, ok := he.Message.(echo.Map)
	require.True(t, ok)
	fields := body["fields"].(map[string]string)
	assert.Equal(t, "must be at least 3 characters", fields["profile_name"])
	assert.Equal(t, "must be a valid email", fields["email"])
}

func TestJSONName(t *testing.T) {
	assert.Equal(t, "profile_name", jsonName("ProfileName"))
	assert.Equal(t, "email", jsonName("Email"))
}
