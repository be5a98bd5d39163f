package main

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for exporter goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// execute runs the CLI with fresh flag state.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	rootFlags.configPath, rootFlags.endpoint, rootFlags.service, rootFlags.protocol = "", "", "", ""
	rootFlags.attrs = nil
	rootFlags.timeout = 0
	runFlags.count, runFlags.interval, runFlags.adminAddr = 1, time.Second, ""

	for _, cmd := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		reset := func(f *pflag.Flag) { f.Changed = false }
		cmd.Flags().VisitAll(reset)
		cmd.PersistentFlags().VisitAll(reset)
	}

	var out, errOut syncBuffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
		assert.NotEmpty(t, cmd.Short, cmd.Name())
	}
	assert.True(t, names["run"])
	assert.True(t, names["config"])
	assert.True(t, names["version"])
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "observlib dev")
	assert.Contains(t, stdout, "Git commit: unknown")
}

func TestParseAttrs(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    map[string]string
		wantErr bool
	}{
		{name: "none", in: nil, want: nil},
		{name: "pairs", in: []string{"env=dev", "team=obs"}, want: map[string]string{"env": "dev", "team": "obs"}},
		{name: "value with equals", in: []string{"query=a=b"}, want: map[string]string{"query": "a=b"}},
		{name: "empty value", in: []string{"flag="}, want: map[string]string{"flag": ""}},
		{name: "last wins", in: []string{"env=dev", "env=prod"}, want: map[string]string{"env": "prod"}},
		{name: "missing equals", in: []string{"env"}, wantErr: true},
		{name: "empty key", in: []string{" =x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAttrs(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
