package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ftpDescriptor = `'''
# control channel
port 21
outbound fuzz 'USER anonymous\r\n'
inbound '331 Please specify the password.\r\n'
outbound 'PASS guest\r\n'
'''
########END FUZZER########
`

type fixture struct {
	dir    string
	config string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "fuzzdesc.toml")
	require.NoError(t, os.WriteFile(config, []byte("[state]\nfile = \"rotation.state\"\n[write]\ntemplate = \"tail.tmpl\"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tail.tmpl"), []byte("# processors\n"), 0644))
	return fixture{dir: dir, config: config}
}

func (f fixture) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", f.config, "--color", "off"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	f := newFixture(t)
	good := f.file(t, "ftp.fuzzer", ftpDescriptor)
	bad := f.file(t, "bad.fuzzer", "port twenty-one\n")

	out, err := f.run(t, "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+good+" (3 messages, 1 fuzz targets)")

	out, err = f.run(t, "--quiet", "check", "-j", "2", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out, "FAIL "+bad)
	assert.NotContains(t, out, "ok   ")
}

func TestTargetsCommand(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "ftp.fuzzer", ftpDescriptor)

	out, err := f.run(t, "--quiet", "targets", path)
	require.NoError(t, err)
	assert.Equal(t, "0\t0\toutbound\tUSER anonymous\\r\\n\n", out)

	out, err = f.run(t, "--quiet", "targets", "--add", "2", "--remove", "0", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path+"-1 (fuzz targets: 2)")

	written, err := os.ReadFile(path + "-1")
	require.NoError(t, err)
	assert.Contains(t, string(written), "# control channel\n")
	assert.Contains(t, string(written), "outbound 'USER anonymous\\r\\n'\n")
	assert.Contains(t, string(written), "outbound fuzz 'PASS guest\\r\\n'\n")
	assert.True(t, strings.HasSuffix(string(written), "########END FUZZER########\n# processors\n"))

	_, err = f.run(t, "--quiet", "targets", "--set", "7", path)
	assert.Error(t, err)
}

func TestRotateCommand(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "ftp.fuzzer", strings.Replace(ftpDescriptor, "outbound 'PASS", "outbound fuzz 'PASS", 1))

	var got []string
	for i := 0; i < 3; i++ {
		out, err := f.run(t, "--quiet", "rotate", path)
		require.NoError(t, err)
		got = append(got, strings.TrimSpace(out))
	}
	assert.Equal(t, []string{"0", "2", "0"}, got)
	assert.FileExists(t, filepath.Join(f.dir, "rotation.state"))

	out, err := f.run(t, "rotate", "--reset", path)
	require.NoError(t, err)
	assert.Contains(t, out, "reset")

	out, err = f.run(t, "--quiet", "rotate", path)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestDescribeCommand(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "ftp.fuzzer", ftpDescriptor)

	out, err := f.run(t, "--quiet", "describe", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# ftp.fuzzer\n")
	assert.Contains(t, out, "| port | 21 |")

	report := filepath.Join(f.dir, "ftp.html")
	_, err = f.run(t, "--quiet", "describe", "--html", "-o", report, path)
	require.NoError(t, err)
	html, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>ftp.fuzzer</h1>")
}

func TestNormalizeCommand(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "legacy.fuzzer", "messagesToFuzz 1\noutbound 'a'\noutbound 'b'\n")
	out := filepath.Join(f.dir, "clean.fuzzer")

	stdout, err := f.run(t, "--quiet", "normalize", "--default-comments", path, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+out)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(written), "# Port number to connect to\n")
	assert.Contains(t, string(written), "outbound fuzz 'b'\n")
	assert.NotContains(t, string(written), "messagesToFuzz")
}

func TestInvalidColorFlag(t *testing.T) {
	f := newFixture(t)
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", f.config, "--color", "rainbow", "check", "x"})
	assert.Error(t, root.Execute())
}
