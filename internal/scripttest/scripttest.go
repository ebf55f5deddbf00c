// Package scripttest runs *.lox fixtures under testdata/ end to end and
// diffs their stdout/stderr against golden *.want/*.err files. The other
// packages assert on compiled bytecode and VM output in plain Go tests;
// this harness is the only one that reads golden files.
package scripttest

import (
	"bytes"
	"context"
	"flag"
	goscanner "go/scanner"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"

	"github.com/gloxlang/glox/lang/machine"
	"github.com/gloxlang/glox/lang/natives"
)

var updateGolden = flag.Bool("test.update-golden", false, "If set, overwrites golden .want/.err files with the actual output.")

// SourceFiles returns the *.lox fixtures directly under dir.
func SourceFiles(t *testing.T, dir string) []os.FileInfo {
	t.Helper()

	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	res := make([]os.FileInfo, 0, len(dents))
	for _, dent := range dents {
		if !dent.Type().IsRegular() || filepath.Ext(dent.Name()) != ".lox" {
			continue
		}
		fi, err := dent.Info()
		if err != nil {
			t.Fatal(err)
		}
		res = append(res, fi)
	}
	return res
}

// Run compiles and executes the fixture at dir/fi.Name(), then diffs its
// captured stdout and stderr against the sibling .want and .err golden
// files (either may be absent, meaning "expect empty").
func Run(t *testing.T, dir string, fi os.FileInfo) {
	t.Helper()

	path := filepath.Join(dir, fi.Name())
	source, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	th := &machine.Thread{
		Name:   fi.Name(),
		Stdout: &stdout,
		Stderr: &stderr,
		Natives: natives.NewRegistry(nil, nil).Export(),
	}

	err = th.Run(context.Background(), source, fi.Name())
	if err != nil {
		if _, ok := err.(*machine.RuntimeError); !ok {
			// a compile error also lands here; record it on stderr like the
			// CLI does so the golden file captures diagnostics either way.
			goscanner.PrintError(&stderr, err)
		}
	}

	diffOrUpdate(t, "output", filepath.Join(dir, fi.Name()+".want"), stdout.String())
	diffOrUpdate(t, "errors", filepath.Join(dir, fi.Name()+".err"), stderr.String())
}

func diffOrUpdate(t *testing.T, label, goldFile, output string) {
	t.Helper()

	if *updateGolden {
		if output == "" {
			os.Remove(goldFile)
			return
		}
		if err := os.WriteFile(goldFile, []byte(output), 0o600); err != nil {
			t.Fatal(err)
		}
		return
	}

	wantb, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	want := string(wantb)
	if patch := diff.Diff(want, output); patch != "" {
		t.Errorf("diff %s:\n%s\n", label, patch)
	}
}
