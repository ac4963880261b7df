package main

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-gum/bencode"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const torrent = "d8:announce3:url4:infod6:lengthi12e4:name5:helloee"

type result struct {
	stdout string
	stderr string
	err    error
}

func runWith(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCanon(t *testing.T) {
	res := runWith(t, "", "canon", writeFile(t, "in.torrent", "d1:bi1e1:ai2ee"))
	require.NoError(t, res.err)
	require.Equal(t, "d1:ai2e1:bi1ee", res.stdout)

	// stdin works as well
	res = runWith(t, "d1:bu1:x1:an1:cf0.5ee", "canon", "-")
	require.NoError(t, res.err)
	require.Equal(t, "d1:an1:bu1:x1:cf0.5ee", res.stdout)
}

func TestCheck(t *testing.T) {
	res := runWith(t, torrent, "check", "-")
	require.NoError(t, res.err)
	require.Equal(t, "ok\n", res.stdout)

	res = runWith(t, "d1:bi1e1:ai2ee", "check", "-")

	var exitErr *exitError
	require.ErrorAs(t, res.err, &exitErr)
	require.Equal(t, 2, exitErr.ExitCode())
	require.Contains(t, res.stdout, `Keys must be in order but 'b' (the last key) and 'a' (this key) are not.`)

	// warnings are logged at the default level
	require.Contains(t, res.stderr, "decode warning")
}

func TestCheckInvalidDocument(t *testing.T) {
	res := runWith(t, "i12", "check", "-")
	require.ErrorIs(t, res.err, bencode.ErrUnderrun)
}

func TestDumpText(t *testing.T) {
	res := runWith(t, torrent, "dump", "-")
	require.NoError(t, res.err)
	require.Equal(t, `{"announce": "url", "info": {"length": 12, "name": "hello"}}`+"\n", res.stdout)
}

func TestDumpJSON(t *testing.T) {
	res := runWith(t, "d3:bin2:\xff\x004:listli1en1:xee", "dump", "--format", "json", "-")
	require.NoError(t, res.err)
	require.JSONEq(t, `{"bin": {"$hex": "ff00"}, "list": [1, null, "x"]}`, res.stdout)
}

func TestDumpJSONWithSpans(t *testing.T) {
	res := runWith(t, torrent, "dump", "--format=json", "--spans", "-")
	require.NoError(t, res.err)

	var decoded struct {
		Start int64 `json:"start"`
		End   int64 `json:"end"`
		Value struct {
			Info struct {
				Start int64 `json:"start"`
				End   int64 `json:"end"`
			} `json:"info"`
		} `json:"value"`
	}

	require.NoError(t, json.Unmarshal([]byte(res.stdout), &decoded))
	require.Equal(t, int64(0), decoded.Start)
	require.Equal(t, int64(len(torrent)), decoded.End)
	require.Equal(t, int64(22), decoded.Value.Info.Start)
	require.Equal(t, int64(49), decoded.Value.Info.End)
}

func TestDumpYAML(t *testing.T) {
	res := runWith(t, torrent, "dump", "--format", "yaml", "-")
	require.NoError(t, res.err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &decoded))
	require.Equal(t, map[string]any{
		"announce": "url",
		"info":     map[string]any{"length": 12, "name": "hello"},
	}, decoded)
}

func TestDumpCBOR(t *testing.T) {
	res := runWith(t, torrent, "dump", "--format", "cbor", "-")
	require.NoError(t, res.err)

	var decoded struct {
		Announce []byte `cbor:"announce"`
		Info     struct {
			Length int64  `cbor:"length"`
			Name   []byte `cbor:"name"`
		} `cbor:"info"`
	}

	require.NoError(t, cbor.Unmarshal([]byte(res.stdout), &decoded))
	require.Equal(t, []byte("url"), decoded.Announce)
	require.Equal(t, int64(12), decoded.Info.Length)
	require.Equal(t, []byte("hello"), decoded.Info.Name)
}

func TestDumpUnknownFormat(t *testing.T) {
	res := runWith(t, torrent, "dump", "--format", "xml", "-")
	require.ErrorContains(t, res.err, `unknown output format "xml"`)
}

func TestSpan(t *testing.T) {
	path := writeFile(t, "a.torrent", torrent)

	res := runWith(t, "", "span", "--key", "info", path)
	require.NoError(t, res.err)
	require.Equal(t, "22 49\n", res.stdout)

	res = runWith(t, "", "span", "--key", "info.name", path)
	require.NoError(t, res.err)
	require.Equal(t, "41 48\n", res.stdout)

	res = runWith(t, "", "span", path)
	require.NoError(t, res.err)
	require.Equal(t, "0 50\n", res.stdout)

	res = runWith(t, "", "span", "--key", "missing", path)
	require.ErrorIs(t, res.err, bencode.ErrNoValue)
}

func TestHash(t *testing.T) {
	sum := sha1.Sum([]byte(torrent[22:49]))

	res := runWith(t, torrent, "hash", "-")
	require.NoError(t, res.err)
	require.Equal(t, "sha1:"+hex.EncodeToString(sum[:])+"\n", res.stdout)

	res = runWith(t, torrent, "hash", "--algo", "blake3", "-")
	require.NoError(t, res.err)
	require.True(t, strings.HasPrefix(res.stdout, "blake3:"))

	res = runWith(t, torrent, "hash", "--algo", "md5", "-")
	require.Error(t, res.err)
}

func TestHashUsesConfiguredCodec(t *testing.T) {
	config := writeFile(t, "config.yaml", "codec:\n  text: false\n  float: false\n  none: false\n  key_kinds: [bytes]\n")

	res := runWith(t, "d4:infodu4:name5:helloee", "hash", "--config", config, "-")
	require.ErrorIs(t, res.err, bencode.ErrUnrecognizedToken)

	res = runWith(t, "d4:infodu4:name5:helloee", "hash", "-")
	require.NoError(t, res.err)

	config = writeFile(t, "depth.yaml", "codec:\n  max_depth: 1\n")

	res = runWith(t, torrent, "hash", "--config", config, "-")
	require.ErrorIs(t, res.err, bencode.ErrTooDeep)

	// decode warnings are logged
	res = runWith(t, "d4:infod4:name1:a6:lengthi1eee", "hash", "-")
	require.NoError(t, res.err)
	require.Contains(t, res.stderr, "Keys must be in order")
}

func TestEncodeJSON(t *testing.T) {
	input := `{
		// comments and trailing commas are fine
		"b": 1,
		"a": [true, null, "x", 0.5, {"$hex": "ff"}],
		"c": 123456789012345678901234567890,
	}`

	res := runWith(t, input, "encode", "-")
	require.NoError(t, res.err)
	require.Equal(t, "d1:ali1en1:xf0.5e1:\xffe1:bi1e1:ci123456789012345678901234567890ee", res.stdout)
}

func TestEncodeYAML(t *testing.T) {
	input := "name: hello\nlength: 12\nfiles:\n  - a\n  - b\n"

	res := runWith(t, input, "encode", "--from", "yaml", "-")
	require.NoError(t, res.err)
	require.Equal(t, "d5:filesl1:a1:be6:lengthi12e4:name5:helloe", res.stdout)
}

func TestStrictConfig(t *testing.T) {
	config := writeFile(t, "config.yaml", strings.Join([]string{
		"codec:",
		"  text: false",
		"  float: false",
		"  none: false",
		"  key_kinds: [bytes]",
	}, "\n"))

	res := runWith(t, "u1:x", "check", "--config", config, "-")
	require.ErrorIs(t, res.err, bencode.ErrUnrecognizedToken)

	res = runWith(t, "1:x", "check", "--config", config, "-")
	require.NoError(t, res.err)
}

func TestLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bencode.log")

	res := runWith(t, "d1:bi1e1:ai2ee", "check", "--log-file", logFile, "--log-format", "json", "-")
	require.Error(t, res.err)
	require.Empty(t, res.stderr)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(content), `"msg":"decode warning"`)
	require.Contains(t, string(content), "Keys must be in order")
}

func TestInvalidLogLevel(t *testing.T) {
	res := runWith(t, torrent, "check", "--log-level", "loud", "-")
	require.ErrorContains(t, res.err, "invalid log.level")
}

func TestUsageErrors(t *testing.T) {
	res := runWith(t, "")
	require.ErrorContains(t, res.err, "command required")
	require.Contains(t, res.stderr, "canon")

	res = runWith(t, "", "frobnicate")
	require.ErrorContains(t, res.err, `unknown command "frobnicate"`)

	res = runWith(t, "", "check")
	require.ErrorContains(t, res.err, "expected exactly one input file")

	res = runWith(t, "", "check", filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, res.err, os.ErrNotExist)

	res = runWith(t, "", "--help")
	require.NoError(t, res.err)
	require.Contains(t, res.stderr, "dump")
}
