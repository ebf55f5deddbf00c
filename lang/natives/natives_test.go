package natives_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gloxlang/glox/lang/machine"
	"github.com/gloxlang/glox/lang/natives"
)

func run(t *testing.T, src string, args []string, files machine.FileTable) (stdout, stderr string) {
	t.Helper()
	return runStress(t, src, args, files, false)
}

func runStress(t *testing.T, src string, args []string, files machine.FileTable, stressGC bool) (stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	th := &machine.Thread{
		Stdout:   &out,
		Stderr:   &errOut,
		StressGC: stressGC,
		Natives:  natives.NewRegistry(args, files).Export(),
	}
	err := th.Run(context.Background(), []byte(src), "test")
	require.NoError(t, err)
	return out.String(), errOut.String()
}

func TestStringIntrinsics(t *testing.T) {
	out, _ := run(t, `
print length("hello");
print substring("hello world", 6, 5);
print chr(65);
print ord("A");
`, nil, nil)
	require.Equal(t, "5\nworld\nA\n65\n", out)
}

func TestTrunc(t *testing.T) {
	out, _ := run(t, `
print trunc(3.9);
print trunc(-3.9);
`, nil, nil)
	require.Equal(t, "3\n-3\n", out)
}

func TestArgcArgv(t *testing.T) {
	out, _ := run(t, `
print argc();
print argv(0);
print argv(1);
print argv(2);
`, []string{"foo", "bar"}, nil)
	require.Equal(t, "2\nfoo\nbar\nnil\n", out)
}

func TestLengthOfNonString(t *testing.T) {
	out, _ := run(t, `print length(123);`, nil, nil)
	require.Equal(t, "0\n", out)
}

type memFileTable struct {
	written bytes.Buffer
}

func (m *memFileTable) Open(path string) (int, error) { return 3, nil }
func (m *memFileTable) Close(handle int) error         { return nil }
func (m *memFileTable) ReadByte(handle int) (byte, bool, error) {
	return 0, false, nil
}
func (m *memFileTable) WriteByte(handle int, b byte) error {
	m.written.WriteByte(b)
	return nil
}

// registering many natives under stress GC exercises the window between
// interning each native's name and rooting it in the globals table: every
// native after the first can trigger a collection while the previous name
// is still only reachable locally.
func TestNativesSurviveStressGC(t *testing.T) {
	out, _ := runStress(t, `
print length("hello");
print substring("hello world", 6, 5);
print chr(65);
print ord("A");
print trunc(3.9);
print argc();
`, nil, nil, true)
	require.Equal(t, "5\nworld\nA\n65\n3\n0\n", out)
}

func TestFileIntrinsics(t *testing.T) {
	files := &memFileTable{}
	out, _ := run(t, `
var h = write("out.txt");
put(65, h);
put(66, h);
close(h);
print h;
`, nil, files)
	require.Equal(t, "3\n", out)
	require.Equal(t, "AB", files.written.String())
}
