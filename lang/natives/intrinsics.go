package natives

import (
	"github.com/gloxlang/glox/lang/machine"
)

func argcNative(args []string) machine.NativeFn {
	return func(_ *machine.Thread, _ []machine.Value) (machine.Value, error) {
		return machine.Number(len(args)), nil
	}
}

func argvNative(args []string) machine.NativeFn {
	return func(th *machine.Thread, a []machine.Value) (machine.Value, error) {
		n, ok := asIndex(a, 0)
		if !ok || n < 0 || n >= len(args) {
			return machine.Nil{}, nil
		}
		return th.InternString(args[n]), nil
	}
}

func lengthNative(th *machine.Thread, a []machine.Value) (machine.Value, error) {
	s, ok := asString(a, 0)
	if !ok {
		return machine.Number(0), nil
	}
	return machine.Number(len(s)), nil
}

func substringNative(th *machine.Thread, a []machine.Value) (machine.Value, error) {
	s, ok := asString(a, 0)
	start, okStart := asIndex(a, 1)
	length, okLen := asIndex(a, 2)
	if !ok || !okStart || !okLen || start < 0 || length < 0 || start+length > len(s) {
		return machine.Nil{}, nil
	}
	if length == len(s) {
		return a[0], nil
	}
	return th.InternString(s[start : start+length]), nil
}

func chrNative(th *machine.Thread, a []machine.Value) (machine.Value, error) {
	n, ok := asIndex(a, 0)
	if !ok || n < 0 || n > 255 {
		return machine.Nil{}, nil
	}
	return th.InternString(string([]byte{byte(n)})), nil
}

func ordNative(_ *machine.Thread, a []machine.Value) (machine.Value, error) {
	s, ok := asString(a, 0)
	if !ok || len(s) != 1 {
		return machine.Nil{}, nil
	}
	return machine.Number(s[0]), nil
}

func truncNative(_ *machine.Thread, a []machine.Value) (machine.Value, error) {
	n, ok := asNumber(a, 0)
	if !ok {
		return machine.Number(0), nil
	}
	if n < 0 {
		return machine.Number(-float64(int64(-n))), nil
	}
	return machine.Number(int64(n)), nil
}

func readNative(files machine.FileTable) machine.NativeFn {
	return func(_ *machine.Thread, a []machine.Value) (machine.Value, error) {
		path, ok := asString(a, 0)
		if !ok {
			return machine.Nil{}, nil
		}
		handle, err := files.Open(path)
		if err != nil {
			return machine.Nil{}, nil
		}
		return machine.Number(handle), nil
	}
}

func writeNative(files machine.FileTable) machine.NativeFn {
	return func(_ *machine.Thread, a []machine.Value) (machine.Value, error) {
		path, ok := asString(a, 0)
		if !ok {
			return machine.Nil{}, nil
		}
		handle, err := files.Open(path)
		if err != nil {
			return machine.Nil{}, nil
		}
		return machine.Number(handle), nil
	}
}

func closeNative(files machine.FileTable) machine.NativeFn {
	return func(_ *machine.Thread, a []machine.Value) (machine.Value, error) {
		h, ok := asIndex(a, 0)
		if !ok {
			return machine.Bool(false), nil
		}
		if err := files.Close(h); err != nil {
			return machine.Bool(false), nil
		}
		return machine.Bool(true), nil
	}
}

func getNative(files machine.FileTable) machine.NativeFn {
	return func(_ *machine.Thread, a []machine.Value) (machine.Value, error) {
		h, ok := asIndex(a, 0)
		if !ok {
			return machine.Nil{}, nil
		}
		b, ok, err := files.ReadByte(h)
		if err != nil || !ok {
			return machine.Nil{}, nil
		}
		return machine.Number(b), nil
	}
}

func putNative(files machine.FileTable) machine.NativeFn {
	return func(_ *machine.Thread, a []machine.Value) (machine.Value, error) {
		b, okByte := asIndex(a, 0)
		h, okHandle := asIndex(a, 1)
		if !okByte || !okHandle || b < 0 || b > 255 {
			return machine.Nil{}, nil
		}
		if err := files.WriteByte(h, byte(b)); err != nil {
			return machine.Nil{}, nil
		}
		return machine.Number(b), nil
	}
}

func asString(a []machine.Value, i int) (string, bool) {
	if i >= len(a) {
		return "", false
	}
	s, ok := machine.AsString(a[i])
	return s, ok
}

func asNumber(a []machine.Value, i int) (float64, bool) {
	if i >= len(a) {
		return 0, false
	}
	n, ok := machine.AsNumber(a[i])
	return n, ok
}

func asIndex(a []machine.Value, i int) (int, bool) {
	n, ok := asNumber(a, i)
	return int(n), ok
}
