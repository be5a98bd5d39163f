package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "5s", want: 5 * time.Second},
		{in: "1m30s", want: 90 * time.Second},
		{in: "0s", want: 0},
		{in: "-1s", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestDuration_Marshal(t *testing.T) {
	d := Duration(1500 * time.Millisecond)

	js, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(js))

	y, err := yaml.Marshal(map[string]Duration{"timeout": d})
	require.NoError(t, err)
	assert.Equal(t, "timeout: 1.5s\n", string(y))
}

func TestSecret_NeverLeaks(t *testing.T) {
	s := Secret("Bearer abc")

	assert.Equal(t, "Bearer abc", s.Value())
	assert.True(t, s.IsSet())
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))

	js, err := json.Marshal(map[string]Secret{"auth": s})
	require.NoError(t, err)
	assert.NotContains(t, string(js), "abc")

	y, err := yaml.Marshal(map[string]Secret{"auth": s})
	require.NoError(t, err)
	assert.NotContains(t, string(y), "abc")

	var empty Secret
	assert.False(t, empty.IsSet())
	assert.Equal(t, "", empty.String())
}

func TestSecret_Unmarshal(t *testing.T) {
	var s Secret
	require.NoError(t, s.UnmarshalText([]byte("token")))
	assert.Equal(t, "token", s.Value())

	var holder struct {
		Auth Secret `json:"auth"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"auth":"k"}`), &holder))
	assert.Equal(t, "k", holder.Auth.Value())
}
