package mcp

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/felixgeelhaar/solace/internal/app"
	"github.com/felixgeelhaar/solace/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_RegistersBookingTools(t *testing.T) {
	container, err := app.NewTestContainer(context.Background(), "", nil)
	require.NoError(t, err)
	defer container.Close()

	srv, err := NewServer(NewCLIApp(container), nil)
	require.NoError(t, err)

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		if name, ok := tool["name"].(string); ok {
			names = append(names, name)
		}
	}
	assert.Contains(t, names, "booking.create")
	assert.Contains(t, names, "slots.resolve")
	assert.Contains(t, names, "calendar.export")
}

func TestServe_ValidatesArguments(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, Serve(ctx, nil, nil, nil))
	assert.Error(t, Serve(ctx, &config.Config{}, nil, nil))
}

func TestFieldsToArgs(t *testing.T) {
	args := fieldsToArgs([]middleware.Field{{Key: "tool", Value: "booking.create"}, {Key: "ok", Value: true}})
	assert.Equal(t, []any{"tool", "booking.create", "ok", true}, args)
}
