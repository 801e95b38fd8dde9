package controller

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile directives understood by the load generator.
const (
	DirectiveSleep      = "sleep"
	DirectiveSave       = "save"
	DirectivePercentage = "percentage"
	DirectiveExit       = "exit"
)

// Directive is one line of a load profile.
type Directive struct {
	Verb string
	Arg  string
}

func (d Directive) String() string {
	if d.Arg == "" {
		return d.Verb
	}
	return d.Verb + " " + d.Arg
}

// Profile is an ordered load script. Its duration is the sum of its sleeps.
type Profile struct {
	directives []Directive
	duration   time.Duration
	err        error
}

// NewProfile creates an empty profile.
func NewProfile() *Profile {
	return &Profile{}
}

// Sleep holds the current load for d, rounded up to whole seconds.
func (p *Profile) Sleep(d time.Duration) *Profile {
	if d < 0 {
		p.fail(errors.Errorf("negative sleep %s", d))
		return p
	}
	secs := int64(math.Ceil(d.Seconds()))
	p.directives = append(p.directives, Directive{Verb: DirectiveSleep, Arg: fmt.Sprint(secs)})
	p.duration += time.Duration(secs) * time.Second
	return p
}

// Save names the remote file the generator writes its measurements to.
func (p *Profile) Save(path string) *Profile {
	p.directives = append(p.directives, Directive{Verb: DirectiveSave, Arg: path})
	return p
}

// Percentage sets the load level, 0 to 100.
func (p *Profile) Percentage(pct int) *Profile {
	if pct < 0 || pct > 100 {
		p.fail(errors.Errorf("percentage %d out of range 0-100", pct))
		return p
	}
	p.directives = append(p.directives, Directive{Verb: DirectivePercentage, Arg: fmt.Sprint(pct)})
	return p
}

// Exit ends the script.
func (p *Profile) Exit() *Profile {
	p.directives = append(p.directives, Directive{Verb: DirectiveExit})
	return p
}

func (p *Profile) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Err returns the first invalid directive, if any.
func (p *Profile) Err() error {
	return p.err
}

// Directives returns a copy of the directives.
func (p *Profile) Directives() []Directive {
	return append([]Directive(nil), p.directives...)
}

// Duration returns the total time the script holds load.
func (p *Profile) Duration() time.Duration {
	return p.duration
}

// Render returns the script text, one directive per line.
func (p *Profile) Render() string {
	var sb strings.Builder
	for _, d := range p.directives {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ProfileSpec describes a standard sweep.
type ProfileSpec struct {
	Head     time.Duration
	Step     time.Duration
	Tail     time.Duration
	SavePath string
	Samples  []int
}

// BuildProfile renders the sweep: an initial sleep, the save target, each
// percentage held for one step, an optional tail sleep and exit.
func BuildProfile(spec ProfileSpec) (*Profile, error) {
	if spec.Step <= 0 {
		return nil, errors.Errorf("step must be positive, got %s", spec.Step)
	}
	p := NewProfile().Sleep(spec.Head).Save(spec.SavePath)
	for _, pct := range spec.Samples {
		p.Percentage(pct).Sleep(spec.Step)
	}
	if spec.Tail > 0 {
		p.Sleep(spec.Tail)
	}
	p.Exit()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return p, nil
}
