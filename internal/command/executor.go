package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/udisondev/la2go/internal/bus"
)

// Executor runs one parsed command line through validation, cooldown
// enforcement, and the handler layer (§4.9).
type Executor struct {
	registry *Registry
	bus      bus.Bus
}

// NewExecutor wires a command Registry to the bus used for cooldown
// bookkeeping.
func NewExecutor(reg *Registry, b bus.Bus) *Executor {
	return &Executor{registry: reg, bus: b}
}

func cooldownKey(characterID, name string) string {
	return fmt.Sprintf("cooldown:%s:%s", characterID, name)
}

// Execute parses and runs line on behalf of characterID (§4.9 steps
// 1-7). hasTarget/targetID carry the caller's currently-selected target,
// if any, for commands with RequiresTarget.
func (e *Executor) Execute(ctx context.Context, characterID, characterName, line string, hasTarget bool, targetID string, now time.Time) (Result, error) {
	name, positional, named, err := Parse(line)
	if err != nil {
		return Fail(err.Error()), nil
	}

	cmd, ok := e.registry.Lookup(name)
	if !ok {
		suggestions := e.registry.Suggest(name)
		msg := fmt.Sprintf("unknown command: /%s", name)
		if len(suggestions) > 0 {
			msg += fmt.Sprintf(". Did you mean: /%s?", strings.Join(suggestions, ", /"))
		}
		return Fail(msg), nil
	}

	if cmd.RequiresTarget && !hasTarget {
		return Fail(fmt.Sprintf("/%s requires a target", cmd.Name)), nil
	}

	if cmd.CooldownMs > 0 {
		key := cooldownKey(characterID, cmd.Name)
		onCooldown, err := e.bus.Exists(ctx, key)
		if err != nil {
			slog.Warn("command: cooldown check failed, allowing", "command", cmd.Name, "error", err)
		} else if onCooldown {
			return Fail(fmt.Sprintf("/%s is on cooldown", cmd.Name)), nil
		}
	}

	if err := validateParams(cmd, positional, named); err != nil {
		return Fail(err.Error()), nil
	}

	inv := Invocation{
		CharacterID:   characterID,
		CharacterName: characterName,
		Positional:    positional,
		Named:         named,
		HasTarget:     hasTarget,
		TargetID:      targetID,
	}

	result, err := cmd.Handler(ctx, inv)
	if err != nil {
		return Result{}, fmt.Errorf("executing /%s: %w", cmd.Name, err)
	}

	if result.Success && cmd.CooldownMs > 0 {
		key := cooldownKey(characterID, cmd.Name)
		ttl := time.Duration(cmd.CooldownMs) * time.Millisecond
		expiry := now.Add(ttl).UTC().Format(time.RFC3339Nano)
		if err := e.bus.SetEx(ctx, key, ttl, expiry); err != nil {
			slog.Error("command: writing cooldown failed", "command", cmd.Name, "error", err)
		}
	}

	return result, nil
}

// validateParams checks that every required parameter is satisfied,
// either as a named argument or by position (§4.9 step 5). Required
// params not supplied as named args consume positional slots in
// declaration order.
func validateParams(cmd *Command, positional []string, named map[string]string) error {
	positionalNeeded := 0
	for _, p := range cmd.Params {
		if !p.Required {
			continue
		}
		if _, isNamed := named[p.Name]; isNamed {
			continue
		}
		positionalNeeded++
	}
	if len(positional) < positionalNeeded {
		return fmt.Errorf("/%s: missing required argument", cmd.Name)
	}
	return nil
}
