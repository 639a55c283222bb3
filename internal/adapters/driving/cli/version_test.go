package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_Short(t *testing.T) {
	assert.Equal(t, "Print the version number", versionCmd.Short)
}

func TestVersionCmd_Executes(t *testing.T) {
	// Save and restore version
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := runCommand("version")

	assert.NoError(t, err)
	assert.Contains(t, out, "docqa version test-version-1.0.0")
}

func TestVersionCmd_DisplaysDevByDefault(t *testing.T) {
	originalVersion := version
	version = "dev"
	defer func() { version = originalVersion }()

	out, err := runCommand("version")

	assert.NoError(t, err)
	assert.Contains(t, out, "docqa version dev")
}

func TestVersionCmd_DoesNotLoadServices(t *testing.T) {
	called := false
	oldLoader := serviceLoader
	serviceLoader = func(context.Context) (*Services, error) {
		called = true
		return nil, errors.New("should not load")
	}
	defer func() { serviceLoader = oldLoader }()

	_, err := runCommand("version")

	assert.NoError(t, err)
	assert.False(t, called)
}

func TestSetVersion(t *testing.T) {
	originalVersion := version
	defer func() { version = originalVersion }()

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)

	SetVersion("")
	assert.Equal(t, "1.2.3", version)
}
