package machine_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gloxlang/glox/lang/machine"
)

func run(t *testing.T, src string, stressGC bool) string {
	t.Helper()
	var out bytes.Buffer
	th := &machine.Thread{Stdout: &out, Stderr: &out, StressGC: stressGC}
	require.NoError(t, th.Run(context.Background(), []byte(src), "test"))
	return out.String()
}

// noopNatives returns a Thread-ready native table with n distinct named
// no-op natives, so registering them exercises the name-interning loop
// over several entries instead of just one.
func noopNatives(n int) map[string]machine.NativeFn {
	fns := make(map[string]machine.NativeFn, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("native%d", i)
		fns[name] = func(th *machine.Thread, args []machine.Value) (machine.Value, error) {
			return machine.Nil{}, nil
		}
	}
	return fns
}

// property 1: deterministic output across repeated runs.
func TestDeterministicOutput(t *testing.T) {
	const src = `
for (var i = 0; i < 5; i = i + 1) print i * i;
`
	first := run(t, src, false)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, run(t, src, false))
	}
}

// property 3: stress-GC output matches a normal run byte-for-byte.
func TestStressGCMatchesNormalRun(t *testing.T) {
	const src = `
class Node {
  init(value, next) {
    this.value = value;
    this.next = next;
  }
}
fun build(n) {
  var head = nil;
  for (var i = 0; i < n; i = i + 1) head = Node(i, head);
  return head;
}
var n = build(50);
var sum = 0;
while (n != nil) {
  sum = sum + n.value;
  n = n.next;
}
print sum;
fun adder(x) {
  fun add(y) { return x + y; }
  return add;
}
var add5 = adder(5);
print add5(10);
print add5(20);
`
	normal := run(t, src, false)
	stressed := run(t, src, true)
	require.Equal(t, normal, stressed)
	require.Equal(t, "1225\n15\n25\n", normal)
}

// property 4: closures over the same binding share one cell; independent
// closures over independent calls do not.
func TestClosureCaptureSharing(t *testing.T) {
	const src = `
fun makeCounter() {
  var c = 0;
  fun incr() { c = c + 1; return c; }
  return incr;
}
var a = makeCounter();
print a();
print a();
var b = makeCounter();
print b();
print a();
`
	require.Equal(t, "1\n2\n1\n3\n", run(t, src, false))
}

// property 5: subclass methods shadow superclass methods, and super always
// resolves against the statically enclosing class.
func TestMethodResolutionAndStaticSuper(t *testing.T) {
	const src = `
class A {
  speak() { print "A"; }
}
class B < A {
  speak() {
    super.speak();
    print "B";
  }
}
class C < B {
  speak() {
    super.speak();
    print "C";
  }
}
C().speak();
`
	require.Equal(t, "A\nB\nC\n", run(t, src, false))
}

// property 6: a for loop is equivalent to its manual while-loop expansion.
func TestForLoopEquivalentToWhileExpansion(t *testing.T) {
	const forSrc = `
var sum = 0;
for (var i = 0; i < 10; i = i + 1) sum = sum + i;
print sum;
`
	const whileSrc = `
var sum = 0;
{
  var i = 0;
  while (i < 10) {
    sum = sum + i;
    i = i + 1;
  }
}
print sum;
`
	require.Equal(t, run(t, whileSrc, false), run(t, forSrc, false))
}

// registering several natives under stress GC exercises the window between
// interning a native's name and rooting it in the globals table: with
// enough distinct names, a collection can land between two registrations,
// and every later call must still resolve the same global.
func TestNativeRegistrationSurvivesStressGC(t *testing.T) {
	const src = `
native0();
native1();
native2();
native3();
native4();
native5();
native6();
native7();
print "ok";
`
	var out bytes.Buffer
	th := &machine.Thread{Stdout: &out, Stderr: &out, StressGC: true, Natives: noopNatives(8)}
	require.NoError(t, th.Run(context.Background(), []byte(src), "test"))
	require.Equal(t, "ok\n", out.String())
}

func TestRuntimeErrorTraceback(t *testing.T) {
	var out bytes.Buffer
	th := &machine.Thread{Stdout: &out, Stderr: &out}
	err := th.Run(context.Background(), []byte(`fun f(){ return 1 + "x"; } f();`), "test")
	require.Error(t, err)
	rerr, ok := err.(*machine.RuntimeError)
	require.True(t, ok)
	require.Equal(t, "Operands must be two numbers or two strings.", rerr.Message)
	require.Equal(t, []string{"[line 1] in f()", "[line 1] in script"}, rerr.Traceback)
}
