package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/feralforge/matchpractice/internal/clock"
	"github.com/feralforge/matchpractice/internal/match"
	"github.com/feralforge/matchpractice/internal/models"
	"github.com/feralforge/matchpractice/internal/session"
)

func newPracticeCmd() *cobra.Command {
	var (
		configPath   string
		roundType    string
		batteryName  string
		batteryVolts float64
		zonePrompt   bool
	)

	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Run an interactive practice round",
		Long: `Starts a round timer in the terminal and records cycles as you mark them.

Keys:
  space   start the round / mark the end of a cycle
  0-9     hits, then misses, for the marked cycle
  n / f   cycle zone during confirmation (with --zones)
  esc     discard the marked cycle
  e       finish the round (prompts for observations)
  c       cancel the round (asks for confirmation)
  q       quit once the round is over`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPractice(cmd, configPath, roundType, batteryName, batteryVolts, zonePrompt)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVarP(&roundType, "type", "t", string(match.TeleopOnly), "round type: teleop_only or full_match")
	cmd.Flags().StringVar(&batteryName, "battery-name", "", "battery label for this round")
	cmd.Flags().Float64Var(&batteryVolts, "battery-volts", 0, "battery voltage at round start")
	cmd.Flags().BoolVar(&zonePrompt, "zones", false, "prompt for the shooting zone on each cycle")
	return cmd
}

func runPractice(cmd *cobra.Command, configPath, roundType, batteryName string, batteryVolts float64, zonePrompt bool) error {
	rt := match.RoundType(roundType)
	if !rt.Valid() {
		return fmt.Errorf("invalid round type %q (want teleop_only or full_match)", roundType)
	}

	cfg, st, _, err := storeFromConfig(configPath)
	if err != nil {
		return err
	}

	var battery *session.Battery
	if batteryName != "" || batteryVolts != 0 {
		battery = &session.Battery{Name: batteryName, Volts: batteryVolts}
	}

	// Interactive logs would fight the status line for the terminal.
	sess := session.New(st, clock.System{}, zap.NewNop())

	p := &practiceUI{
		cmd:        cmd,
		sess:       sess,
		rt:         rt,
		battery:    battery,
		zonePrompt: zonePrompt,
		tick:       cfg.TickInterval(),
	}
	return p.run(cmd.Context())
}

// confirmStage tracks where the operator is in the hits/misses/zone entry
// for a marked cycle.
type confirmStage int

const (
	stageNone confirmStage = iota
	stageHits
	stageMisses
	stageZone
)

type practiceUI struct {
	cmd        *cobra.Command
	sess       *session.Session
	rt         match.RoundType
	battery    *session.Battery
	zonePrompt bool
	tick       time.Duration

	stage         confirmStage
	hits          int
	pendingMisses int

	keys chan byte
}

func (p *practiceUI) run(ctx context.Context) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("practice needs an interactive terminal")
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	p.keys = make(chan byte)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(p.keys)
				return
			}
			if n > 0 {
				p.keys <- buf[0]
			}
		}
	}()

	p.println("Round type: %s. Press space to start.", p.rt)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if p.sess.State() == session.StateRunning {
				p.sess.Cancel(context.Background())
			}
			return ctx.Err()
		case <-ticker.C:
			for _, ev := range p.sess.Tick() {
				p.announce(ev)
			}
			p.render()
		case key, ok := <-p.keys:
			if !ok {
				return nil
			}
			done, err := p.handleKey(ctx, key)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

func (p *practiceUI) handleKey(ctx context.Context, key byte) (done bool, err error) {
	if p.stage != stageNone {
		p.handleConfirmKey(ctx, key)
		return false, nil
	}

	switch key {
	case ' ':
		switch p.sess.State() {
		case session.StateIdle:
			if err := p.sess.Start(ctx, p.rt, p.battery); err != nil {
				return false, err
			}
			p.println("Round %s started.", p.sess.Round().ID)
		case session.StateRunning:
			pending, err := p.sess.MarkCycle()
			switch {
			case errors.Is(err, session.ErrMarkInTransition):
				p.println("No cycles during the transition window.")
			case err != nil:
				p.println("%v", err)
			default:
				p.println("Cycle marked at %s (%.2fs). Hits?",
					pending.TimeInterval, float64(pending.Duration)/1000)
				p.stage = stageHits
			}
		}
	case 'e':
		if p.sess.State() == session.StateRunning {
			return false, p.finish(ctx)
		}
	case 'c':
		if p.sess.State() == session.StateRunning {
			return false, p.cancel(ctx)
		}
	case 'q', 3: // ctrl-c
		if p.sess.State() == session.StateRunning {
			if key == 3 {
				return false, p.cancel(ctx)
			}
			p.println("Finish (e) or cancel (c) the round first.")
			return false, nil
		}
		return true, nil
	}
	return false, nil
}

func (p *practiceUI) handleConfirmKey(ctx context.Context, key byte) {
	if key == 27 { // esc
		p.sess.CancelPending()
		p.stage = stageNone
		p.println("Cycle discarded.")
		return
	}

	switch p.stage {
	case stageHits:
		if key >= '0' && key <= '9' {
			p.hits = int(key - '0')
			p.stage = stageMisses
			p.println("Hits: %d. Misses?", p.hits)
		}
	case stageMisses:
		if key >= '0' && key <= '9' {
			misses := int(key - '0')
			if p.zonePrompt {
				p.pendingMisses = misses
				p.stage = stageZone
				p.println("Misses: %d. Zone? n(ear) / f(ar) / enter to skip.", misses)
			} else {
				p.confirm(ctx, p.hits, misses, nil)
			}
		}
	case stageZone:
		switch key {
		case 'n':
			z := models.ZoneNear
			p.confirm(ctx, p.hits, p.pendingMisses, &z)
		case 'f':
			z := models.ZoneFar
			p.confirm(ctx, p.hits, p.pendingMisses, &z)
		case '\r', '\n':
			p.confirm(ctx, p.hits, p.pendingMisses, nil)
		}
	}
}

func (p *practiceUI) confirm(ctx context.Context, hits, misses int, zone *models.Zone) {
	cycle, err := p.sess.ConfirmCycle(ctx, hits, misses, zone)
	p.stage = stageNone
	if err != nil {
		p.println("Cycle not saved: %v", err)
		return
	}
	saved := ""
	if !cycle.Persisted {
		saved = " (not persisted, kept locally)"
	}
	p.println("Cycle #%d: %.2fs, %d/%d%s", cycle.CycleNumber,
		float64(cycle.Duration)/1000, cycle.Hits, cycle.Hits+cycle.Misses, saved)
}

func (p *practiceUI) finish(ctx context.Context) error {
	// Freeze the clock first so time spent typing observations does not
	// count toward the round.
	if err := p.sess.Stop(); err != nil {
		return err
	}

	fmt.Fprint(p.cmd.OutOrStdout(), "\r\x1b[KObservations (enter to skip): ")
	p.sess.SetObservations(p.readLine())

	round, err := p.sess.Finish(ctx)
	if err != nil {
		return err
	}
	p.summary(round)
	p.sess.Reset()
	p.println("Press space for another round, q to quit.")
	return nil
}

func (p *practiceUI) cancel(ctx context.Context) error {
	p.println("Cancel this round and delete its cycles? y/N")
	if key, ok := <-p.keys; ok && (key == 'y' || key == 'Y') {
		if err := p.sess.Cancel(ctx); err != nil {
			return err
		}
		p.println("Round cancelled.")
		return nil
	}
	p.println("Still running.")
	return nil
}

// readLine gathers a line of input in raw mode, echoing as it goes.
func (p *practiceUI) readLine() string {
	out := p.cmd.OutOrStdout()
	var b []byte
	for key := range p.keys {
		switch {
		case key == '\r' || key == '\n':
			fmt.Fprint(out, "\r\n")
			return strings.TrimSpace(string(b))
		case key == 127 || key == 8: // backspace
			if len(b) > 0 {
				b = b[:len(b)-1]
				fmt.Fprint(out, "\b \b")
			}
		case key >= 32:
			b = append(b, key)
			fmt.Fprintf(out, "%c", key)
		}
	}
	return strings.TrimSpace(string(b))
}

func (p *practiceUI) summary(round *models.Round) {
	p.println("")
	p.println("Round %s finished.", round.ID)
	if round.TotalDuration != nil {
		p.println("  Duration: %.2fs", float64(*round.TotalDuration)/1000)
	}
	cycles := p.sess.Cycles()
	p.println("  Cycles:   %d", len(cycles))
	hits, misses := 0, 0
	for _, c := range cycles {
		hits += c.Hits
		misses += c.Misses
	}
	p.println("  Scoring:  %d hits, %d misses", hits, misses)
	if round.Strategy != nil {
		p.println("  Strategy: %s", *round.Strategy)
	}
}

func (p *practiceUI) announce(ev match.Event) {
	switch {
	case ev.Kind == match.EventEndOfMatch:
		p.println("End of match. Clock keeps running; finish when ready.")
	case ev.Phase == match.PhaseTransition:
		p.println("Transition: pick up and reposition.")
	case ev.Phase == match.PhaseTeleop:
		p.println("Teleop!")
	}
}

func (p *practiceUI) render() {
	if p.sess.State() != session.StateRunning {
		return
	}
	ms, overtime := match.DisplayTime(p.sess.ElapsedMs(), p.rt)
	fmt.Fprintf(p.cmd.OutOrStdout(), "\r  %s  %-10s cycles: %d ",
		match.FormatDisplay(ms, overtime), p.sess.Phase(), len(p.sess.Cycles()))
}

// println writes a full line, leaving the raw-mode cursor at column zero.
func (p *practiceUI) println(format string, args ...interface{}) {
	fmt.Fprintf(p.cmd.OutOrStdout(), "\r\x1b[K"+format+"\r\n", args...)
}
