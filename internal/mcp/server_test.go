package mcp

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redcap-tools/redcap-pdf-fill/internal/config"
	"github.com/redcap-tools/redcap-pdf-fill/internal/fill"
	"github.com/redcap-tools/redcap-pdf-fill/internal/redcap"
)

func TestNewServer(t *testing.T) {
	cfg := config.DefaultConfig()
	service := fill.NewService(redcap.Credentials{
		URL:    "https://redcap.example.org/api/",
		APIKey: "token",
	}, cfg.MaxFileSize, zerolog.Nop())

	server, err := NewServer(cfg, service)
	require.NoError(t, err)
	assert.NotNil(t, server)
	assert.NotNil(t, server.mcpServer)
}

func TestNewServerNilService(t *testing.T) {
	_, err := NewServer(config.DefaultConfig(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fillService cannot be nil")
}
