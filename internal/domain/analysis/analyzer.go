package analysis

import "github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"

// Analyzer is one pluggable checklist rule.
type Analyzer interface {
	// Name is the configuration id, e.g. "cookie-secure".
	Name() string
	// String is the human description used in reports.
	String() string
	InputType() httpmsg.Kind
	OutputTypes() OutputTypes
	// CanAnalyze must be side-effect free and never panic.
	CanAnalyze(p httpmsg.Payload) bool
	// Analyze may assume CanAnalyze returned true. The error return is for
	// defects in the input, such as conflicting header spellings; rule
	// violations are failure outcomes.
	Analyze(p httpmsg.Payload) (Outcome, error)
	// Finished asks the runner to stop scanning for this analyzer.
	Finished() bool
}

// Resetter is implemented by analyzers whose finished state can be cleared
// before another scan.
type Resetter interface {
	Reset()
}

// Base carries the descriptive parts of an analyzer and its finished flag.
// Concrete analyzers embed it.
type Base struct {
	name        string
	description string
	input       httpmsg.Kind
	outputs     OutputTypes
	finished    bool
}

// NewBase returns a Base for an analyzer.
func NewBase(name, description string, input httpmsg.Kind, outputs OutputTypes) Base {
	return Base{name: name, description: description, input: input, outputs: outputs}
}

func (b *Base) Name() string { return b.name }
func (b *Base) String() string { return b.description }
func (b *Base) InputType() httpmsg.Kind { return b.input }
func (b *Base) OutputTypes() OutputTypes { return b.outputs }
func (b *Base) Finished() bool { return b.finished }
func (b *Base) Finish() { b.finished = true }
func (b *Base) Reset() { b.finished = false }
