package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/rentfleet/pkg/options"
)

type testOptions struct {
	HttpOptions *options.HttpOptions `mapstructure:"http"`

	completed bool
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error {
	return utilerrors.NewAggregate(o.HttpOptions.Validate())
}

func newTestApp(opts *testOptions, run RunFunc) *App {
	return NewApp("rentfleet-test", "test", WithOptions(opts), WithDefaultValidArgs(), WithRunFunc(run))
}

func TestConfigPrecedence(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("http:\n  addr: 127.0.0.1:9000\n  timeout: 5s\n  shutdown-timeout: 9s\n"), 0o600))
	t.Setenv("RENTFLEET_HTTP_TIMEOUT", "7s")

	opts := &testOptions{HttpOptions: options.NewHttpOptions()}
	ran := false
	a := newTestApp(opts, func() error {
		ran = true
		return nil
	})

	a.Command().SetArgs([]string{"--config", cfg, "--http.shutdown-timeout=2s"})
	require.NoError(t, a.Command().Execute())

	assert.True(t, ran)
	assert.True(t, opts.completed)
	assert.Equal(t, "127.0.0.1:9000", opts.HttpOptions.Addr)
	assert.Equal(t, 7*time.Second, opts.HttpOptions.Timeout)
	assert.Equal(t, 2*time.Second, opts.HttpOptions.ShutdownTimeout)
	assert.Equal(t, "tcp", opts.HttpOptions.Network)
}

func TestValidationStopsRun(t *testing.T) {
	opts := &testOptions{HttpOptions: options.NewHttpOptions()}
	a := newTestApp(opts, func() error {
		t.Fatal("run must not be called")
		return nil
	})

	a.Command().SetArgs([]string{"--http.addr=nowhere"})
	a.Command().SetErr(&discard{})
	assert.Error(t, a.Command().Execute())
}

func TestPositionalArgsRejected(t *testing.T) {
	a := newTestApp(&testOptions{HttpOptions: options.NewHttpOptions()}, func() error { return nil })
	a.Command().SetArgs([]string{"extra"})
	a.Command().SetErr(&discard{})
	assert.Error(t, a.Command().Execute())
}

func TestRunErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	a := newTestApp(&testOptions{HttpOptions: options.NewHttpOptions()}, func() error { return boom })
	a.Command().SetArgs([]string{})
	a.Command().SetErr(&discard{})
	assert.ErrorIs(t, a.Command().Execute(), boom)
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }
