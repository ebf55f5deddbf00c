package maincmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/mna/mainer"
)

// Repl reads lines from stdin and interprets each as a standalone script,
// the book's line-at-a-time REPL rather than a persistent top-level
// session: each line gets its own Thread, so a line that fails to compile
// or panics at runtime doesn't corrupt state for the next one.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, _ []string) error {
	scan := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scan.Scan() {
			fmt.Fprintln(stdio.Stdout)
			return scan.Err()
		}
		line := scan.Text()
		if line == "" {
			continue
		}
		// errors are reported to stderr by interpret itself; the REPL keeps
		// reading lines regardless of whether one failed.
		_ = c.interpret(ctx, stdio, []byte(line), "<repl>", nil)
		c.exitCode = 0
	}
}
