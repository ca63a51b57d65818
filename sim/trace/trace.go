// Package trace writes signal waveforms in Value Change Dump (VCD) format.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/simdebug/simdebug/sim"
)

// Extension is appended to trace names to form the file name.
const Extension = ".vcd"

type signal struct {
	name    string
	id      string
	width   int
	sample  func() uint64
	last    uint64
	written bool
}

// File is a VCD trace. Register signals, then pass the file to
// Simulator.AddTracer; values are dumped whenever they change.
type File struct {
	name    string
	out     *bufio.Writer
	closer  io.Closer
	signals []*signal
	started bool
	err     error
}

// Open creates <name>.vcd.
func Open(name string) (*File, error) {
	f, err := os.Create(name + Extension)
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	t := New(f, name)
	t.closer = f
	return t, nil
}

// New writes a trace named name to w.
func New(w io.Writer, name string) *File {
	return &File{name: name, out: bufio.NewWriter(w)}
}

// Name returns the trace name without extension.
func (f *File) Name() string { return f.name }

// AddBool traces a one-bit signal.
func (f *File) AddBool(name string, v *bool) {
	f.AddFunc(name, 1, func() uint64 {
		if *v {
			return 1
		}
		return 0
	})
}

// AddInt traces the low width bits of an integer.
func (f *File) AddInt(name string, width int, v *int64) {
	f.AddFunc(name, width, func() uint64 { return uint64(*v) })
}

// AddFunc traces the low width bits of whatever fn returns.
// Signals must be added before the first sample.
func (f *File) AddFunc(name string, width int, fn func() uint64) {
	if f.started {
		f.setErr(fmt.Errorf("trace %s: signal %s added after first sample", f.name, name))
		return
	}
	if width < 1 || width > 64 {
		f.setErr(fmt.Errorf("trace %s: signal %s has invalid width %d", f.name, name, width))
		return
	}
	f.signals = append(f.signals, &signal{
		name:   name,
		id:     identifier(len(f.signals)),
		width:  width,
		sample: fn,
	})
}

// Sample dumps every signal whose value changed since the previous sample.
func (f *File) Sample(t sim.Time) {
	if !f.started {
		f.header()
		f.started = true
	}
	var changes []string
	for _, s := range f.signals {
		v := s.sample()
		if s.width < 64 {
			v &= (1 << uint(s.width)) - 1
		}
		if s.written && v == s.last {
			continue
		}
		s.last, s.written = v, true
		changes = append(changes, s.format(v))
	}
	if len(changes) == 0 {
		return
	}
	f.printf("#%d\n%s\n", int64(t/sim.Resolution), strings.Join(changes, "\n"))
}

// Close flushes the trace and closes the underlying file, if any.
func (f *File) Close() error {
	if !f.started {
		f.header()
		f.started = true
	}
	if err := f.out.Flush(); err != nil {
		f.setErr(err)
	}
	if f.closer != nil {
		if err := f.closer.Close(); err != nil {
			f.setErr(err)
		}
	}
	return f.err
}

// Err returns the first error encountered while tracing.
func (f *File) Err() error { return f.err }

func (f *File) header() {
	f.printf("$version simdebug $end\n")
	f.printf("$timescale 1 %s $end\n", strings.TrimPrefix(sim.Resolution.String(), "1 "))
	f.printf("$scope module %s $end\n", f.name)
	for _, s := range f.signals {
		f.printf("$var wire %d %s %s $end\n", s.width, s.id, s.name)
	}
	f.printf("$upscope $end\n$enddefinitions $end\n")
}

func (f *File) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(f.out, format, args...); err != nil {
		f.setErr(err)
	}
}

func (f *File) setErr(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (s *signal) format(v uint64) string {
	if s.width == 1 {
		return strconv.FormatUint(v, 10) + s.id
	}
	return "b" + strconv.FormatUint(v, 2) + " " + s.id
}

// identifier maps n to a short code of printable characters '!'..'~'.
func identifier(n int) string {
	const first, count = '!', '~' - '!' + 1
	var b []byte
	for {
		b = append([]byte{byte(first + n%count)}, b...)
		n = n/count - 1
		if n < 0 {
			return string(b)
		}
	}
}
