package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "../../testdata/erc20.json"

var alice = "0x" + strings.Repeat("01", 32)

func execute(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	t.Setenv("CONTRACT_TRANSCODE_METADATA", "")
	var out, errOut bytes.Buffer
	code = run(append([]string{"--color", "off"}, args...), &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestEncode(t *testing.T) {
	out, errOut, code := execute(t, "-m", fixture, "encode", "transfer", alice, "1000")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "0x84a15da1"+strings.Repeat("01", 32)+"a10f\n", out)

	out, errOut, code = execute(t, "-m", fixture, "encode", "--constructor", "new", "1")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "0x9bae9d5e"+"01"+strings.Repeat("00", 15)+"\n", out)
}

func TestEncodeSyntaxError(t *testing.T) {
	_, errOut, code := execute(t, "-m", fixture, "encode", "transfer", alice, "[1,")
	require.Equal(t, 1, code)
	assert.Contains(t, errOut, "error: transcode: argument 1 (amount)")
	assert.Contains(t, errOut, "[1,\n   ^")
}

func TestDecodeReturn(t *testing.T) {
	out, errOut, code := execute(t, "-m", fixture, "decode-return", "flip", "0001")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "Ok(true)\n", out)

	out, _, code = execute(t, "-m", fixture, "--pretty", "decode-return", "transfer", "0x0107086e6f09")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Err(")
	assert.Contains(t, out, "\n")
	assert.Contains(t, out, `reason: "no"`)
}

func TestDecodeEvent(t *testing.T) {
	data := "0x00" + strings.Repeat("01", 32) + strings.Repeat("02", 32) + "05" + strings.Repeat("00", 15)
	out, errOut, code := execute(t, "-m", fixture, "decode-event", data)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "Transfer { from: "+alice+", to: 0x"+strings.Repeat("02", 32)+", value: 5 }\n", out)
}

func TestDecodeCall(t *testing.T) {
	out, errOut, code := execute(t, "-m", fixture, "decode-call", "0x633aa551")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "flip()\n", out)

	_, errOut, code = execute(t, "-m", fixture, "decode-call", "0xdeadbeef")
	require.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")
}

func TestValueCommands(t *testing.T) {
	out, errOut, code := execute(t, "-m", fixture, "encode-value", "12", "{ x: 1, y: -1 }")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "0x01000000ffffffff\n", out)

	out, errOut, code = execute(t, "-m", fixture, "decode-value", "#12", "01000000ffffffff")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "{ x: 1, y: -1 }\n", out)

	_, errOut, code = execute(t, "-m", fixture, "decode-value", "twelve", "00")
	require.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid type id")
}

func TestInfo(t *testing.T) {
	out, errOut, code := execute(t, "-m", fixture, "info")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "erc20 4.3.0")
	assert.Contains(t, out, "Constructors")
	assert.Contains(t, out, "transfer(to: AccountId, amount: Compact) -> ")
	assert.Contains(t, out, "[mut]")
	assert.Contains(t, out, "0x84a15da1")
	assert.Contains(t, out, "Events")
}

func TestVerifyWithoutCode(t *testing.T) {
	_, errOut, code := execute(t, "-m", fixture, "verify")
	require.Equal(t, 1, code)
	assert.Contains(t, errOut, "contract has no code")
}

func TestCompat(t *testing.T) {
	out, errOut, code := execute(t, "-m", fixture, "compat", fixture)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "environments match\n", out)
}

func TestMissingMetadata(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	_, errOut, code := execute(t, "info")
	require.Equal(t, 1, code)
	assert.Contains(t, errOut, "no metadata")
}

func TestConfigFiles(t *testing.T) {
	abs, err := filepath.Abs(fixture)
	require.NoError(t, err)

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("metadata: "+abs+"\npretty: false\nlog:\n  level: error\n"), 0o600))

		out, errOut, code := execute(t, "--config", path, "decode-return", "flip", "0001")
		require.Equal(t, 0, code, errOut)
		assert.Equal(t, "Ok(true)\n", out)
	})

	t.Run("toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.toml")
		require.NoError(t, os.WriteFile(path, []byte("metadata = \""+filepath.ToSlash(abs)+"\"\n\n[log]\nlevel = \"info\"\n"), 0o600))

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, filepath.ToSlash(abs), cfg.Metadata)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "auto", cfg.Color)
		assert.Equal(t, "console", cfg.Log.Format)
	})

	t.Run("default file in working directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "contract-transcode.yaml"), []byte("metadata: "+abs+"\n"), 0o600))
		chdir(t, dir)

		out, errOut, code := execute(t, "decode-return", "flip", "0001")
		require.Equal(t, 0, code, errOut)
		assert.Equal(t, "Ok(true)\n", out)
	})

	t.Run("invalid color", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("color: sometimes\n"), 0o600))
		_, err := loadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "color must be")
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv("CONTRACT_TRANSCODE_LOG_LEVEL", "nonsense")
		out, errOut, code := execute(t, "-m", fixture, "--log-level", "error", "decode-return", "flip", "0001")
		require.Equal(t, 0, code, errOut)
		assert.Equal(t, "Ok(true)\n", out)
	})
}

func TestDebugLogging(t *testing.T) {
	_, errOut, code := execute(t, "-m", fixture, "--log-level", "debug", "encode", "flip")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, errOut, "encoded call")
	assert.Contains(t, errOut, "metadata loaded")
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
