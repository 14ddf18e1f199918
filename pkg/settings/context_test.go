package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		wantOk   bool
		want     *Run
	}{
		{
			name: "context_with_settings",
			setupCtx: func() context.Context {
				return IntoContext(context.Background(), &Run{Output: "json", ExitOnInvalid: false})
			},
			wantOk: true,
			want:   &Run{Output: "json"},
		},
		{
			name:     "context_without_settings",
			setupCtx: context.Background,
		},
		{
			name: "context_with_wrong_type",
			setupCtx: func() context.Context {
				return context.WithValue(context.Background(), settingsContextKey, "wrong type")
			},
		},
		{
			name: "empty_settings_struct",
			setupCtx: func() context.Context {
				return IntoContext(context.Background(), &Run{})
			},
			wantOk: true,
			want:   &Run{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromContext(tt.setupCtx())
			assert.Equal(t, tt.wantOk, ok)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntoContextRoundtripKeepsPointer(t *testing.T) {
	run := &Run{Input: InputSettings{Path: "persons.yaml"}, Debounce: time.Second}
	got, ok := FromContext(IntoContext(context.Background(), run))
	require.True(t, ok)
	assert.Same(t, run, got)
}

func TestFromContextOrDefault(t *testing.T) {
	assert.Equal(t, NewCliParams(), FromContextOrDefault(context.Background()))

	run := &Run{Output: "yaml"}
	assert.Same(t, run, FromContextOrDefault(IntoContext(context.Background(), run)))
}
