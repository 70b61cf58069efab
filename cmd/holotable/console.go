package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cory-johannsen/holotable/internal/game/combat"
	"github.com/cory-johannsen/holotable/internal/game/dice"
	"github.com/cory-johannsen/holotable/internal/game/effect"
	"github.com/cory-johannsen/holotable/internal/gameserver"
)

const consoleHelp = `commands:
  as <user>                       act as user (the authority ID acts as authority)
  new <char>[:disposition] ...    open a combat; disposition is friendly, neutral or hostile
  use <combat>                    select a combat
  add <char>[:disposition]        add a combatant
  remove <id> | dup <id>          remove or duplicate a combatant
  init [skill|=formula] [id ...]  roll initiative (all combatants when no ids)
  start | next | round | back     start, pass the turn, advance or rewind the round
  pick <slot> | claim <slot> <id> offer or claim the slot's turn
  effect <actor> <template>       apply an effect template
  toggle <actor> <effect> | drop <actor> <effect> | effects <actor>
  check <actor>                   record a skill check
  roll <expression>               roll a dice expression
  show | help | quit`

var errQuit = errors.New("quit")

// trackerConsole is a line-oriented front end onto the authority's services.
type trackerConsole struct {
	service   *gameserver.CombatService
	claims    *gameserver.ClaimHandler
	effects   *gameserver.EffectTracker
	templates *effect.Registry
	chars     combat.CharacterSource
	roller    *dice.Roller
	skill     string
	user      combat.User
	authority combat.User
	out       io.Writer

	combatID string
}

// Run executes commands from in until it is exhausted, quit is entered or ctx
// is cancelled. Command errors are printed and do not stop the loop.
func (tc *trackerConsole) Run(ctx context.Context, in *bufio.Scanner) error {
	fmt.Fprintln(tc.out, consoleHelp)
	for {
		fmt.Fprintf(tc.out, "%s> ", tc.user.ID)
		if !in.Scan() {
			return in.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		err := tc.exec(ctx, strings.Fields(in.Text()))
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			fmt.Fprintf(tc.out, "error: %v\n", err)
		}
	}
}

func (tc *trackerConsole) exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "help":
		fmt.Fprintln(tc.out, consoleHelp)
		return nil
	case "quit", "exit":
		return errQuit
	case "as":
		if len(args) != 1 {
			return errors.New("usage: as <user>")
		}
		tc.user = combat.User{ID: args[0]}
		if args[0] == tc.authority.ID {
			tc.user = tc.authority
		}
		return nil
	case "roll":
		res, err := tc.roller.RollExpr(strings.Join(args, ""), dice.Symbols{})
		if err != nil {
			return err
		}
		fmt.Fprintln(tc.out, res)
		return nil
	case "new":
		return tc.create(ctx, args)
	case "use":
		if len(args) != 1 {
			return errors.New("usage: use <combat>")
		}
		if _, err := tc.service.Session(ctx, args[0]); err != nil {
			return err
		}
		tc.combatID = args[0]
		return tc.show(ctx)
	case "effect", "toggle", "drop", "effects", "check":
		return tc.effect(ctx, cmd, args)
	}

	if tc.combatID == "" {
		return errors.New("no combat selected; use new or use")
	}
	var err error
	switch cmd {
	case "show":
		return tc.show(ctx)
	case "add":
		if len(args) != 1 {
			return errors.New("usage: add <char>[:disposition]")
		}
		var c *combat.Combatant
		if c, err = tc.combatant(ctx, args[0]); err == nil {
			_, err = tc.service.AddCombatant(ctx, tc.user, tc.combatID, c)
		}
	case "remove":
		if len(args) != 1 {
			return errors.New("usage: remove <id>")
		}
		_, err = tc.service.RemoveCombatant(ctx, tc.user, tc.combatID, args[0])
	case "dup":
		if len(args) != 1 {
			return errors.New("usage: dup <id>")
		}
		_, err = tc.service.Duplicate(ctx, tc.user, tc.combatID, args[0])
	case "start":
		_, err = tc.service.Start(ctx, tc.user, tc.combatID)
	case "next":
		_, err = tc.service.NextTurn(ctx, tc.user, tc.combatID)
	case "round":
		_, err = tc.service.NextRound(ctx, tc.user, tc.combatID)
	case "back":
		_, err = tc.service.PreviousRound(ctx, tc.user, tc.combatID)
	case "init":
		return tc.initiative(ctx, args)
	case "pick":
		if len(args) != 1 {
			return errors.New("usage: pick <slot>")
		}
		return tc.pick(ctx, args[0])
	case "claim":
		if len(args) != 2 {
			return errors.New("usage: claim <slot> <id>")
		}
		err = tc.claims.RequestClaim(ctx, tc.user, tc.combatID, args[0], args[1])
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}
	return tc.show(ctx)
}

func (tc *trackerConsole) create(ctx context.Context, args []string) error {
	combatants := make([]*combat.Combatant, 0, len(args))
	for _, arg := range args {
		c, err := tc.combatant(ctx, arg)
		if err != nil {
			return err
		}
		combatants = append(combatants, c)
	}
	s, err := tc.service.Create(ctx, tc.user, combatants...)
	if err != nil {
		return err
	}
	tc.combatID = s.ID
	return tc.show(ctx)
}

// combatant builds a combatant from "<characterID>[:disposition]". Without a
// disposition, owned sheets are friendly and the rest hostile.
func (tc *trackerConsole) combatant(ctx context.Context, arg string) (*combat.Combatant, error) {
	id, disp, hasDisp := strings.Cut(arg, ":")
	sheet, err := tc.chars.Character(ctx, id)
	if err != nil {
		return nil, err
	}
	c := &combat.Combatant{
		Name:        sheet.Name,
		CharacterID: sheet.ID,
		Owners:      append([]string(nil), sheet.Owners...),
		Disposition: combat.Hostile,
	}
	if len(sheet.Owners) > 0 {
		c.Disposition = combat.Friendly
	}
	if hasDisp {
		d, err := parseDisposition(disp)
		if err != nil {
			return nil, err
		}
		c.Disposition = d
	}
	return c, nil
}

func parseDisposition(s string) (combat.Disposition, error) {
	switch strings.ToLower(s) {
	case "friendly", "f":
		return combat.Friendly, nil
	case "neutral", "n":
		return combat.Neutral, nil
	case "hostile", "h":
		return combat.Hostile, nil
	}
	return 0, fmt.Errorf("unknown disposition %q", s)
}

// initiative parses "[skill|=formula] [id ...]". A first argument that names
// a combatant is taken as an id.
func (tc *trackerConsole) initiative(ctx context.Context, args []string) error {
	s, err := tc.service.Session(ctx, tc.combatID)
	if err != nil {
		return err
	}
	opts := combat.InitiativeOptions{Skill: tc.skill}
	if len(args) > 0 && s.Get(args[0]) == nil {
		if formula, ok := strings.CutPrefix(args[0], "="); ok {
			opts.Formula = formula
		} else {
			opts.Skill = args[0]
		}
		args = args[1:]
	}
	ids := args
	if len(ids) == 0 {
		for _, c := range s.Combatants {
			ids = append(ids, c.ID)
		}
	}
	out, err := tc.service.RollInitiative(ctx, tc.user, tc.combatID, ids, opts)
	if err != nil {
		return err
	}
	for _, r := range out.Rolls {
		if r.Private && !tc.user.IsAuthority() {
			continue
		}
		fmt.Fprintf(tc.out, "  %-20s %s\n", r.Name, r.Result)
	}
	return tc.show(ctx)
}

func (tc *trackerConsole) pick(ctx context.Context, slotID string) error {
	res, err := tc.claims.Pick(ctx, tc.user, tc.combatID, slotID)
	if err != nil {
		return err
	}
	if res.Claimed != "" {
		fmt.Fprintf(tc.out, "claim requested for %s\n", res.Claimed)
		return nil
	}
	if len(res.Candidates) == 0 {
		fmt.Fprintln(tc.out, "no eligible combatants")
		return nil
	}
	for _, c := range res.Candidates {
		fmt.Fprintf(tc.out, "  %s  %s\n", c.ID, c.Name)
	}
	return nil
}

func (tc *trackerConsole) effect(ctx context.Context, cmd string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s <actor> ...", cmd)
	}
	actor := args[0]
	switch cmd {
	case "effect":
		if len(args) != 2 {
			return errors.New("usage: effect <actor> <template>")
		}
		tmpl, ok := tc.templates.Get(args[1])
		if !ok {
			return fmt.Errorf("unknown effect template %q", args[1])
		}
		if err := tc.effects.AddEffect(ctx, actor, tmpl.Instantiate(actor, "console")); err != nil {
			return err
		}
	case "toggle", "drop":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <actor> <effect>", cmd)
		}
		var err error
		if cmd == "toggle" {
			err = tc.effects.ToggleEffect(ctx, actor, args[1])
		} else {
			err = tc.effects.DeleteEffect(ctx, actor, args[1])
		}
		if err != nil {
			return err
		}
	case "check":
		expired, err := tc.effects.RecordSkillCheck(ctx, actor)
		if err != nil {
			return err
		}
		if len(expired) > 0 {
			fmt.Fprintf(tc.out, "expired: %s\n", strings.Join(expired, ", "))
		}
	}

	cats, err := tc.effects.Effects(ctx, actor)
	if err != nil {
		return err
	}
	for _, group := range []struct {
		name    string
		effects []*effect.ActiveEffect
	}{
		{"temporary", cats.Temporary},
		{"passive", cats.Passive},
		{"inactive", cats.Inactive},
	} {
		for _, e := range group.effects {
			fmt.Fprintf(tc.out, "  %-9s %s  %s\n", group.name, e.ID, e.Label)
		}
	}
	return nil
}

func (tc *trackerConsole) show(ctx context.Context) error {
	s, err := tc.service.Session(ctx, tc.combatID)
	if err != nil {
		return err
	}
	fmt.Fprintf(tc.out, "combat %s  round %d\n", s.ID, s.Round)
	cur := s.Current()
	for _, c := range s.Combatants {
		if c.Hidden && !tc.user.IsAuthority() {
			continue
		}
		marker := " "
		if cur != nil && cur.ID == c.ID {
			marker = ">"
		}
		score := "-"
		if c.HasRolled() {
			score = fmt.Sprintf("%.2f", *c.Initiative)
		}
		acted := ""
		if c.HasActed() {
			acted = " (acted)"
		}
		fmt.Fprintf(tc.out, "%s %-36s %7s  %s%s\n", marker, c.ID, score, combat.SlotLabel(s, c.ID), acted)
	}
	return nil
}
