package command

import (
	"testing"

	"github.com/stretchr/testify/require"

	"redis/internal/resp"
)

func TestParseUppercasesName(t *testing.T) {
	v := resp.ArrayValue(resp.BulkStringValue("set"), resp.BulkStringValue("k"), resp.BulkStringValue("v"))
	cmd, err := Parse(v)
	require.NoError(t, err)
	require.Equal(t, "SET", cmd.Name)
	require.Equal(t, []string{"k", "v"}, cmd.Args)
}

func TestParsePreservesArgCase(t *testing.T) {
	v := resp.ArrayValue(resp.BulkStringValue("SET"), resp.BulkStringValue("MixedCase"))
	cmd, err := Parse(v)
	require.NoError(t, err)
	require.Equal(t, []string{"MixedCase"}, cmd.Args)
}

func TestParseRawMatchesEncoding(t *testing.T) {
	v := resp.ArrayValue(resp.BulkStringValue("PING"))
	cmd, err := Parse(v)
	require.NoError(t, err)
	require.Equal(t, resp.Encode(v), cmd.Raw)
}

func TestParseRejectsEmptyArray(t *testing.T) {
	_, err := Parse(resp.ArrayValue())
	require.Error(t, err)
}

func TestParseRejectsNonArray(t *testing.T) {
	_, err := Parse(resp.IntegerValue(5))
	require.Error(t, err)
}
