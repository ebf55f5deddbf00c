package scripttest_test

import (
	"testing"

	"github.com/gloxlang/glox/internal/scripttest"
)

func TestFixtures(t *testing.T) {
	const dir = "testdata"
	for _, fi := range scripttest.SourceFiles(t, dir) {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			scripttest.Run(t, dir, fi)
		})
	}
}
