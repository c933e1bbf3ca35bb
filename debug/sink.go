package debug

import (
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
)

// Sink receives diagnostic output. Implementations decide whether a message
// is printed; callers never need to check.
type Sink interface {
	Output(group Group, sender any, msg string)
	Warn(group Group, sender any, msg string)
	Error(group Group, sender any, msg string)
}

// Info supplies a human-readable identity for a sender in place of its
// numeric id.
type Info interface {
	Info() string
}

type nopSink struct{}

func (nopSink) Output(Group, any, string) {}
func (nopSink) Warn(Group, any, string)   {}
func (nopSink) Error(Group, any, string)  {}

// Nop discards everything.
var Nop Sink = nopSink{}

type holder struct{ sink Sink }

var defaultSink atomic.Pointer[holder]

// SetDefault installs the sink used by the package-level functions and by
// anything constructed without an explicit sink. Passing nil restores the
// no-op sink.
func SetDefault(s Sink) {
	if s == nil {
		defaultSink.Store(nil)
		return
	}
	defaultSink.Store(&holder{sink: s})
}

// Default returns the installed sink, or Nop.
func Default() Sink {
	if h := defaultSink.Load(); h != nil {
		return h.sink
	}
	return Nop
}

func Output(group Group, sender any, msg string) { Default().Output(group, sender, msg) }

func Warn(group Group, sender any, msg string) { Default().Warn(group, sender, msg) }

func Error(group Group, sender any, msg string) { Default().Error(group, sender, msg) }

// SenderName is the name filters match against: the string itself for string
// senders, otherwise the dereferenced type name without package path or type
// arguments.
func SenderName(sender any) string {
	switch s := sender.(type) {
	case nil:
		return ""
	case string:
		return s
	}
	t := reflect.TypeOf(sender)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

// SenderLabel is the detailed identity printed with a message.
func SenderLabel(sender any) string {
	if s, ok := sender.(fmt.Stringer); ok {
		return s.String()
	}
	return SenderName(sender)
}
