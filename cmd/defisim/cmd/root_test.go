package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	state := newRootState()
	root := newRootCmd(state)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := state.execute(root)
	return stdout.String(), err
}

func TestGenesisCmd(t *testing.T) {
	out, err := execute(t, "genesis", "-o", "json")
	require.NoError(t, err)

	var gs map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &gs))
	require.EqualValues(t, 1, gs["next_pool_id"])
	require.Contains(t, gs, "params")

	out, err = execute(t, "genesis")
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	require.EqualValues(t, 1, doc["next_pool_id"])
}

func TestOutputFromEnvironment(t *testing.T) {
	t.Setenv(EnvPrefix+"_OUTPUT", "json")
	out, err := execute(t, "genesis")
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(out)))
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defisim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: json\nlog-level: error\n"), 0o600))

	out, err := execute(t, "genesis", "--config", path)
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(out)))

	_, err = execute(t, "genesis", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestInvalidSettings(t *testing.T) {
	_, err := execute(t, "genesis", "-o", "xml")
	require.ErrorContains(t, err, "unknown output format")

	_, err = execute(t, "genesis", "--log-format", "xml")
	require.Error(t, err)
}

func TestFailedCommandStopsMetricsServer(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	url := "http://" + addr + "/metrics"

	scrape := func() error {
		resp, err := http.Get(url) //nolint:gosec
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}

	state := newRootState()
	root := newRootCmd(state)
	root.AddCommand(&cobra.Command{
		Use: "fail",
		RunE: func(*cobra.Command, []string) error {
			require.Eventually(t, func() bool { return scrape() == nil }, 5*time.Second, 20*time.Millisecond)
			return errors.New("run failed")
		},
	})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"fail", "--metrics-addr", addr, "--log-level", "error"})

	require.ErrorContains(t, state.execute(root), "run failed")
	require.Error(t, scrape(), "metrics server still serving after a failed command")
}

func TestRunCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: register only
assets:
  - {issuer: bitstamp, symbol: USD, precision: 4}
  - {issuer: eosio.token, symbol: EOS, precision: 4}
txs:
  - signer: alice
    msgs:
      - register_pair: {asset_a: bitstamp/USD, asset_b: eosio.token/EOS}
`), 0o600))

	out, err := execute(t, "run", path, "-o", "json", "--log-level", "error")
	require.NoError(t, err)

	var report struct {
		Scenario string `json:"scenario"`
		Txs      []struct {
			Name string `json:"name"`
		} `json:"txs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Equal(t, "register only", report.Scenario)
	require.Len(t, report.Txs, 1)
	require.Equal(t, "tx-1", report.Txs[0].Name)
}

func TestFuzzCmd(t *testing.T) {
	out, err := execute(t, "fuzz", "--seed", "7", "--accounts", "4", "--ops", "50", "-o", "json", "--log-level", "error")
	require.NoError(t, err)

	var res struct {
		Seed    int64 `json:"seed"`
		Summary struct {
			Ops int `json:"ops"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, int64(7), res.Seed)
	require.Equal(t, 50, res.Summary.Ops)
}
