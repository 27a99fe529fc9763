package decision

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mpapenbr/racesim/log"
	"github.com/mpapenbr/racesim/pkg/model"
)

type (
	// Briefing writes the situation before the choice is requested
	Briefing func(w io.Writer, snap *model.LapSnapshot)

	PromptOption func(p *Prompt)

	// Prompt asks for a choice on a line based terminal
	Prompt struct {
		in       *bufio.Scanner
		out      io.Writer
		briefing Briefing
		pitCost  float64
		l        *log.Logger
	}
)

func WithBriefing(b Briefing) PromptOption {
	return func(p *Prompt) {
		p.briefing = b
	}
}

// WithPitCost shows the pit stop time in the menu
func WithPitCost(seconds float64) PromptOption {
	return func(p *Prompt) {
		p.pitCost = seconds
	}
}

func WithPromptLogger(l *log.Logger) PromptOption {
	return func(p *Prompt) {
		p.l = l
	}
}

func NewPrompt(in io.Reader, out io.Writer, opts ...PromptOption) *Prompt {
	ret := &Prompt{
		in:  bufio.NewScanner(in),
		out: out,
		l:   log.Default().Named("decision"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Decide reads until a usable line arrives. Numbers are clamped to 1..3,
// mode names are accepted as well. End of input is an error.
//
//nolint:whitespace // editor/linter issue
func (p *Prompt) Decide(ctx context.Context, snap *model.LapSnapshot) (
	model.StrategyMode, error,
) {
	if p.briefing != nil {
		p.briefing(p.out, snap)
	}
	p.menu(snap)
	for {
		if err := ctx.Err(); err != nil {
			return model.ModeNeutral, err
		}
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return model.ModeNeutral, err
			}
			return model.ModeNeutral, io.ErrUnexpectedEOF
		}
		line := strings.TrimSpace(p.in.Text())
		if m, ok := parseChoice(line); ok {
			p.l.Debug("choice", log.String("input", line), log.Stringer("mode", m))
			return m, nil
		}
		fmt.Fprintf(p.out, "unknown choice %q, enter 1-3: ", line)
	}
}

func (p *Prompt) menu(snap *model.LapSnapshot) {
	fmt.Fprintf(p.out, "Lap %d/%d strategy\n", snap.Lap+1, snap.TotalLaps)
	fmt.Fprintln(p.out, "  1. PUSH (faster, more tyre wear)")
	fmt.Fprintln(p.out, "  2. SAVE (slower, less tyre wear)")
	if p.pitCost > 0 {
		fmt.Fprintf(p.out, "  3. PIT  (+%.1fs, fresh tyres)\n", p.pitCost)
	} else {
		fmt.Fprintln(p.out, "  3. PIT  (fresh tyres)")
	}
	fmt.Fprint(p.out, "Enter choice (1-3): ")
}

func parseChoice(line string) (model.StrategyMode, bool) {
	if n, err := strconv.Atoi(line); err == nil {
		n = max(1, min(n, 3))
		return model.StrategyMode(n), true
	}
	m, err := ParseMode(line)
	if err != nil || m == model.ModeNeutral {
		return model.ModeNeutral, false
	}
	return m, true
}
