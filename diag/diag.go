// Package diag records simulator diagnostics.
//
// Warnings describe conditions the core recovers from with a well-defined
// fallback value. They are logged once per (kind, source line). Errors abort
// the run; they carry a dump of the architectural state taken at the point
// of failure.
package diag

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Severity distinguishes recoverable from fatal diagnostics.
type Severity uint8

// Severities.
const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the severity name.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Kind identifies the condition a diagnostic reports.
type Kind uint8

// Warning kinds.
const (
	KindStaleHazard Kind = iota
	KindUnalignedAllowed
	KindUndefinedMemory
	KindUndefinedRead
	KindPartialWrite
	KindDroppedWrite
	KindMemoryCreated
)

// Error kinds.
const (
	KindInvalidRegister Kind = iota + 32
	KindReadOnly
	KindAddressRange
	KindUnaligned
	KindInvalidOperand
	KindInstructionLimit
)

var kindNames = map[Kind]string{
	KindStaleHazard:      "stale-hazard",
	KindUnalignedAllowed: "unaligned-access",
	KindUndefinedMemory:  "undefined-memory",
	KindUndefinedRead:    "undefined-read",
	KindPartialWrite:     "partial-write",
	KindDroppedWrite:     "dropped-write",
	KindMemoryCreated:    "memory-created",
	KindInvalidRegister:  "invalid-register",
	KindReadOnly:         "read-only",
	KindAddressRange:     "address-range",
	KindUnaligned:        "unaligned",
	KindInvalidOperand:   "invalid-operand",
	KindInstructionLimit: "instruction-limit",
}

// String returns the kind name used in log fields.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Sentinel errors, one per fatal kind, for use with errors.Is.
var (
	ErrInvalidRegister  = errors.New("invalid register")
	ErrReadOnly         = errors.New("read-only register")
	ErrAddressRange     = errors.New("address out of range")
	ErrUnaligned        = errors.New("unaligned access")
	ErrInvalidOperand   = errors.New("invalid operand")
	ErrInstructionLimit = errors.New("max instructions reached")
)

func sentinel(k Kind) error {
	switch k {
	case KindInvalidRegister:
		return ErrInvalidRegister
	case KindReadOnly:
		return ErrReadOnly
	case KindAddressRange:
		return ErrAddressRange
	case KindUnaligned:
		return ErrUnaligned
	case KindInstructionLimit:
		return ErrInstructionLimit
	default:
		return ErrInvalidOperand
	}
}

// KindOf returns the fatal kind whose sentinel err wraps.
func KindOf(err error) (Kind, bool) {
	for _, k := range []Kind{
		KindInvalidRegister, KindReadOnly, KindAddressRange,
		KindUnaligned, KindInvalidOperand, KindInstructionLimit,
	} {
		if errors.Is(err, sentinel(k)) {
			return k, true
		}
	}
	return 0, false
}

// Diagnostic is one recorded condition.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Line     int
	Cycle    int64
	Message  string
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d, cycle %d: %s: %s (%v)",
		d.Line, d.Cycle, d.Severity, d.Message, d.Kind)
}

// Error is a fatal diagnostic. Dump holds the architectural state at the
// point of failure.
type Error struct {
	Diagnostic
	Dump string
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("line %d, cycle %d: %s", e.Line, e.Cycle, e.Message)
}

// Unwrap returns the sentinel error of the kind.
func (e *Error) Unwrap() error {
	return sentinel(e.Kind)
}

type key struct {
	kind Kind
	line int
}

// Reporter collects diagnostics and forwards them to a logger.
type Reporter struct {
	logger   *logrus.Logger
	coalesce bool

	seen       map[key]struct{}
	warnings   []Diagnostic
	suppressed int
}

// NewReporter creates a reporter. With coalesce set, only the first warning
// of each kind at a given line is kept.
func NewReporter(logger *logrus.Logger, coalesce bool) *Reporter {
	if logger == nil {
		logger = NewLogger(io.Discard, logrus.WarnLevel)
	}
	return &Reporter{
		logger:   logger,
		coalesce: coalesce,
		seen:     make(map[key]struct{}),
	}
}

// NewLogger creates a text logger writing to w at the given level.
func NewLogger(w io.Writer, level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	return logger
}

// Logger returns the underlying logger.
func (r *Reporter) Logger() *logrus.Logger {
	return r.logger
}

// Warn records a warning. It reports whether the warning was emitted, false
// when it was coalesced with an earlier one.
func (r *Reporter) Warn(kind Kind, line int, cycle int64, format string, args ...interface{}) bool {
	if r.coalesce {
		k := key{kind: kind, line: line}
		if _, dup := r.seen[k]; dup {
			r.suppressed++
			return false
		}
		r.seen[k] = struct{}{}
	}

	d := Diagnostic{
		Severity: SeverityWarning,
		Kind:     kind,
		Line:     line,
		Cycle:    cycle,
		Message:  fmt.Sprintf(format, args...),
	}
	r.warnings = append(r.warnings, d)
	r.fields(d).Warn(d.Message)
	return true
}

// Fatal builds and logs a fatal error.
func (r *Reporter) Fatal(kind Kind, line int, cycle int64, dump string, format string, args ...interface{}) *Error {
	e := &Error{
		Diagnostic: Diagnostic{
			Severity: SeverityError,
			Kind:     kind,
			Line:     line,
			Cycle:    cycle,
			Message:  fmt.Sprintf(format, args...),
		},
		Dump: dump,
	}
	r.fields(e.Diagnostic).Error(e.Message)
	return e
}

// Debugf logs a trace message at debug level.
func (r *Reporter) Debugf(format string, args ...interface{}) {
	r.logger.Debugf(format, args...)
}

func (r *Reporter) fields(d Diagnostic) *logrus.Entry {
	return r.logger.WithFields(logrus.Fields{
		"kind":  d.Kind.String(),
		"line":  d.Line,
		"cycle": d.Cycle,
	})
}

// Warnings returns the emitted warnings in order.
func (r *Reporter) Warnings() []Diagnostic {
	out := make([]Diagnostic, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Count returns the number of emitted warnings of the given kind.
func (r *Reporter) Count(kind Kind) int {
	n := 0
	for _, w := range r.warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// Suppressed returns the number of coalesced warnings.
func (r *Reporter) Suppressed() int {
	return r.suppressed
}

// Reset forgets every recorded warning.
func (r *Reporter) Reset() {
	r.seen = make(map[key]struct{})
	r.warnings = nil
	r.suppressed = 0
}
