package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"gobasket/adapters/excel"
	"gobasket/internal/testkit"
)

func writeBreadButterMilk(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bbm.csv")
	require.NoError(t, excel.WriteDataset(path, testkit.BreadButterMilk()))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--log-level", "ERROR"))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAssociationsCmd(t *testing.T) {
	path := writeBreadButterMilk(t)

	out, err := execute(t, "associations", "item", "Bread", "-f", path, "--targets", "item", "--sort", "confidence")
	require.NoError(t, err)
	require.True(t, gjson.Valid(out), out)

	result := gjson.Parse(out)
	assert.InDelta(t, 0.8, result.Get("support").Float(), 1e-12)
	assert.Equal(t, int64(1), result.Get("tables.#").Int())
	assert.Equal(t, "Butter", result.Get("tables.0.rows.0.value").String())
	assert.InDelta(t, 0.75, result.Get("tables.0.rows.0.confidence").Float(), 1e-12)
	assert.Equal(t, "Milk", result.Get("tables.0.rows.1.value").String())
}

func TestMineCmd(t *testing.T) {
	path := writeBreadButterMilk(t)

	out, err := execute(t, "mine", "item", "-f", path, "--min-support", "0.3", "--min-confidence", "0.5")
	require.NoError(t, err)
	require.True(t, gjson.Valid(out), out)

	result := gjson.Parse(out)
	assert.Equal(t, int64(10), result.Get("transactions").Int())
	assert.Equal(t, int64(7), result.Get("itemsets.#").Int())
	assert.Equal(t, int64(9), result.Get("total_rules").Int())
	assert.Equal(t, int64(9), result.Get("rules.#").Int())
	assert.False(t, result.Get("run_id").Exists())
}

func TestSupportCmd(t *testing.T) {
	path := writeBreadButterMilk(t)

	out, err := execute(t, "support", "item", "Milk", "-f", path)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, gjson.Get(out, "support").Float(), 1e-12)
	assert.Equal(t, int64(10), gjson.Get(out, "transactions").Int())

	out, err = execute(t, "support", "item", "-f", path)
	require.NoError(t, err)
	assert.True(t, gjson.Get(out, "supports").Exists(), out)
}

func TestGenerateThenSummarize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baskets.csv")

	out, err := execute(t, "generate", "-o", path, "--baskets", "200", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "of 200 baskets to "+path)

	out, err = execute(t, "summary", "-f", path)
	require.NoError(t, err)
	assert.Equal(t, int64(200), gjson.Get(out, "transactions").Int())
	assert.NotEmpty(t, gjson.Get(out, "fingerprint").String())
}

func TestCmdErrors(t *testing.T) {
	path := writeBreadButterMilk(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing file", args: []string{"summary", "-f", filepath.Join(t.TempDir(), "nope.csv")}, want: "not found"},
		{name: "unknown dimension", args: []string{"associations", "region", "North", "-f", path}, want: "unknown dimension"},
		{name: "bad within", args: []string{"mine", "item", "-f", path, "--within", "Bread"}, want: "invalid --within"},
		{name: "bad filter", args: []string{"summary", "-f", path, "--filter", "item"}, want: "invalid filter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
