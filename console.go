package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PixPMusic/gopher-bind/internal/bank"
	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/PixPMusic/gopher-bind/internal/catalog"
	"github.com/PixPMusic/gopher-bind/internal/config"
	"github.com/PixPMusic/gopher-bind/internal/curve"
	"github.com/PixPMusic/gopher-bind/internal/hub"
	"github.com/PixPMusic/gopher-bind/internal/keys"
	"github.com/PixPMusic/gopher-bind/internal/learn"
	"github.com/PixPMusic/gopher-bind/internal/lfo"
	"github.com/PixPMusic/gopher-bind/internal/state"
)

const consoleHelp = `commands:
  +KEY | -KEY                  press or release a keyboard key
  learn PATH [FILTER]          bind the next control to PATH (filter: category or family)
  cancel                       stop learning
  status                       show the learn session and held keys
  bank NAME                    switch the active bank
  banks                        show all banks
  list                         show bindings in the active bank
  curve ID PRESET              set a binding's response curve
  curves                       list curve presets
  invert ID                    flip a binding's direction
  unbind ID                    remove a binding from the active bank
  move ID BANK                 move a binding to another bank
  clear PATH FAMILY            remove PATH's bindings from FAMILY in the active bank
  switch BANK CATEGORY KEY     assign a control that activates BANK
  switch BANK off              clear BANK's switch control
  get PATH                     show a parameter value
  params                       show all parameter values
  lfo                          list running LFOs
  lfo off KEY                  stop an LFO and drop it from the config
  stats                        show routing counters`

var errUsage = errors.New("usage")

// console is a line-oriented control surface on stdin
type console struct {
	catalog *catalog.Catalog
	banks   *bank.Store
	params  *state.Store
	hub     *hub.Hub
	learner *learn.Learner
	keys    *keys.Keyboard
	lfos    *lfo.Runner
	file    *config.File // nil when running without a config file
	log     *slog.Logger

	mu  sync.Mutex
	out io.Writer
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

// run executes lines from r until EOF or ctx is done
func (c *console) run(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if err := c.exec(sc.Text()); err != nil {
			if errors.Is(err, errUsage) {
				c.printf("%v\n%s", err, consoleHelp)
				continue
			}
			c.printf("error: %v", err)
		}
	}
	return sc.Err()
}

func (c *console) exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	switch line[0] {
	case '+', '-':
		key := strings.TrimSpace(line[1:])
		if key == "" {
			return fmt.Errorf("%w: %cKEY needs a key name", errUsage, line[0])
		}
		if line[0] == '+' {
			c.keys.Press(key)
		} else {
			c.keys.Release(key)
		}
		return nil
	}

	f := strings.Fields(line)
	cmd, args := f[0], f[1:]
	switch cmd {
	case "help":
		c.printf("%s", consoleHelp)
		return nil
	case "learn":
		return c.learn(args)
	case "cancel":
		c.learner.Cancel()
		return nil
	case "status":
		c.status()
		return nil
	case "bank":
		if len(args) != 1 {
			return fmt.Errorf("%w: bank NAME", errUsage)
		}
		return c.banks.SwitchTo(args[0])
	case "banks":
		c.showBanks()
		return nil
	case "list":
		c.showBank(c.banks.Active())
		return nil
	case "curve":
		if len(args) != 2 {
			return fmt.Errorf("%w: curve ID PRESET", errUsage)
		}
		p, ok := curve.Lookup(args[1])
		if !ok {
			return fmt.Errorf("unknown curve preset: %s", args[1])
		}
		return c.editBinding(args[0], func(b *binding.Binding) { b.ApplyPreset(p) })
	case "curves":
		for _, p := range curve.Presets() {
			c.printf("%-8s a=%g b=%g mid=%g", p.Name, p.A, p.B, p.Mid)
		}
		return nil
	case "invert":
		if len(args) != 1 {
			return fmt.Errorf("%w: invert ID", errUsage)
		}
		return c.editBinding(args[0], func(b *binding.Binding) {
			if b.Behavior.Direction == binding.Inverted {
				b.Behavior.Direction = binding.Normal
			} else {
				b.Behavior.Direction = binding.Inverted
			}
		})
	case "unbind":
		if len(args) != 1 {
			return fmt.Errorf("%w: unbind ID", errUsage)
		}
		return c.banks.RemoveBinding(c.banks.ActiveName(), args[0])
	case "move":
		if len(args) != 2 {
			return fmt.Errorf("%w: move ID BANK", errUsage)
		}
		return c.banks.MoveBinding(args[0], c.banks.ActiveName(), args[1])
	case "clear":
		if len(args) != 2 {
			return fmt.Errorf("%w: clear PATH FAMILY", errUsage)
		}
		name := c.banks.ActiveName()
		n, err := c.banks.Supersede(name, args[0], binding.Family(args[1]))
		if err != nil {
			return err
		}
		c.printf("removed %d binding(s) for %s from bank %s", n, args[0], name)
		return nil
	case "switch":
		return c.switchControl(args)
	case "lfo":
		return c.lfo(args)
	case "get":
		if len(args) != 1 {
			return fmt.Errorf("%w: get PATH", errUsage)
		}
		v, ok := c.params.Get(args[0])
		if !ok {
			c.printf("%s: unset", args[0])
			return nil
		}
		c.printf("%s = %v", args[0], v)
		return nil
	case "params":
		for _, p := range c.params.Paths() {
			v, _ := c.params.Get(p)
			c.printf("%s = %v", p, v)
		}
		return nil
	case "stats":
		st := c.hub.Stats()
		c.printf("routed=%d unbound=%d intercepted=%d switched=%d ignored=%d",
			st.Routed, st.Unbound, st.Intercepted, st.Switched, st.Ignored)
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func (c *console) learn(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: learn PATH [FILTER]", errUsage)
	}
	d, ok := c.catalog.FindByPath(args[0])
	if !ok {
		return fmt.Errorf("unknown parameter: %s", args[0])
	}
	var filter string
	if len(args) == 2 {
		filter = args[1]
	}
	if !binding.ValidFilter(filter) {
		return fmt.Errorf("unknown filter %q, want one of %s", filter, strings.Join(binding.Filters(), ", "))
	}
	c.learner.Start(d, filter, learn.Excluding(binding.FamilyLFO), learn.OnDone(func(o learn.Outcome) {
		if o.State == learn.Bound {
			c.printf("bound %s -> %s in bank %s (id %s)", o.Binding.Source, o.Binding.Target.Path, o.Bank, o.Binding.ID)
			return
		}
		c.printf("learn %s: %s", d.Path, o.State)
	}))
	c.printf("move a control to bind %s", d.Path)
	return nil
}

func (c *console) status() {
	if s := c.learner.Current(); s != nil && s.State() == learn.AwaitingInput {
		c.printf("learning %s for %s", s.Target().Path, time.Since(s.Since()).Round(time.Second))
	} else {
		c.printf("not learning")
	}
	if held := c.keys.Held(); len(held) > 0 {
		c.printf("held: %s", strings.Join(held, " "))
	}
	if c.file != nil {
		c.printf("config: %s", c.file.Path())
	}
}

func (c *console) lfo(args []string) error {
	switch {
	case len(args) == 0:
		for _, k := range c.lfos.Keys() {
			c.printf("lfo %s", k)
		}
		return nil
	case len(args) == 2 && args[0] == "off":
		key := args[1]
		c.lfos.Remove(key)
		if c.file == nil {
			return nil
		}
		return c.file.Update(func(cfg *config.Config) { cfg.RemoveLFO(key) })
	}
	return fmt.Errorf("%w: lfo | lfo off KEY", errUsage)
}

func (c *console) editBinding(id string, fn func(*binding.Binding)) error {
	name := c.banks.ActiveName()
	bk, err := c.banks.Bank(name)
	if err != nil {
		return err
	}
	b, ok := bk.Bindings[id]
	if !ok {
		return fmt.Errorf("%w: %s", bank.ErrUnknownBinding, id)
	}
	b = b.Clone()
	fn(b)
	return c.banks.UpdateBinding(name, b)
}

func (c *console) switchControl(args []string) error {
	switch {
	case len(args) == 2 && args[1] == "off":
		return c.banks.ClearSwitchBinding(args[0])
	case len(args) == 3:
		cat, err := binding.ParseCategory(args[1])
		if err != nil {
			return err
		}
		return c.banks.SetSwitchBinding(args[0], binding.Source{Category: cat, Key: args[2]})
	}
	return fmt.Errorf("%w: switch BANK CATEGORY KEY | switch BANK off", errUsage)
}

func (c *console) showBanks() {
	active := c.banks.ActiveName()
	for _, name := range c.banks.Names() {
		bk, err := c.banks.Bank(name)
		if err != nil {
			continue
		}
		marker := " "
		if name == active {
			marker = "*"
		}
		sw := "-"
		if bk.Switch != nil {
			sw = bk.Switch.FullKey
		}
		c.printf("%s %s  bindings=%d  switch=%s", marker, name, len(bk.Bindings), sw)
	}
}

func (c *console) showBank(bk bank.Bank) {
	c.printf("bank %s", bk.Name)
	for _, b := range bk.Sorted() {
		c.printf("  %s  %s -> %s  %s/%s  out=[%g,%g]",
			b.ID, b.Source, b.Target.Path, b.Behavior.Mode, b.Behavior.Direction,
			b.Range.OutputMin, b.Range.OutputMax)
	}
}
