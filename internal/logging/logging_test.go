package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidate_Rejections(t *testing.T) {
	bad := Config{Level: "loud", Format: "json"}
	assert.Error(t, bad.Validate())

	bad = Config{Level: "info", Format: "xml"}
	assert.Error(t, bad.Validate())
}

func TestNew_BuildsLogger(t *testing.T) {
	logger, err := New(Config{
		Level:  "debug",
		Format: "console",
		Fields: map[string]string{"service": "ctxgraph"},
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(-1)) // debug enabled
}

func TestNew_RejectsInvalid(t *testing.T) {
	_, err := New(Config{Level: "nope", Format: "json"})
	assert.Error(t, err)
}
