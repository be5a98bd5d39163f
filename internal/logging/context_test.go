package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestWithRequestID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "valid", id: "req-123_abc"},
		{name: "empty", id: "", wantErr: true},
		{name: "too long", id: strings.Repeat("a", maxIDLen+1), wantErr: true},
		{name: "invalid characters", id: "req 1; drop", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := WithRequestID(context.Background(), tt.id)
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, RequestIDFromContext(ctx))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, RequestIDFromContext(ctx))
		})
	}
}

func TestContextFields(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))

	ctx, err := WithRequestID(context.Background(), "r1")
	require.NoError(t, err)

	fields := ContextFields(ctx)
	require.Len(t, fields, 1)
	assert.Equal(t, "request.id", fields[0].Key)
	assert.Equal(t, "r1", fields[0].String)
}

func TestFromContext(t *testing.T) {
	nop := FromContext(context.Background())
	require.NotNil(t, nop)
	assert.NotPanics(t, func() { nop.Info(context.Background(), "ignored") })

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	FromContext(ctx).Info(ctx, "from context")

	tl.AssertLogged(t, zapcore.InfoLevel, "from context")
}
