package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
)

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{}
	assert.False(t, errs.HasErrors())

	errs.Add("email", "Email cannot be blank.", "")
	errs.Merge(map[string][]string{"email": {"Email is taken."}, "name": {"Name cannot be blank."}})

	assert.True(t, errs.HasErrors())
	assert.Equal(t, []string{"Email cannot be blank.", "Email is taken."}, errs["email"])
	assert.Equal(t, "email: Email cannot be blank.; Email is taken., name: Name cannot be blank.", errs.Error())

	httpErr := errs.ToHTTPError()
	assert.Equal(t, http.StatusUnprocessableEntity, httperror.GetStatusCode(httpErr))
	assert.Contains(t, httpErr.Meta, "errors")
}

func TestConfigError(t *testing.T) {
	err := NewConfigError(InvalidSubpath, "attachments", "subpath %q is invalid", "a//b")
	wrapped := fmt.Errorf("resolving folder: %w", err)

	assert.True(t, IsConfigError(wrapped))
	configErr, ok := AsConfigError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, InvalidSubpath, configErr.Kind)
	assert.Equal(t, `field 'attachments': subpath "a//b" is invalid`, configErr.Error())

	httpErr := configErr.ToHTTPError()
	assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(httpErr))
	assert.Equal(t, "invalid_subpath", httpErr.Meta["kind"])

	assert.False(t, IsConfigError(ErrNotPersisted))
}
