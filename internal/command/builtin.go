package command

import (
	"context"
	"strings"
)

// RegisterBuiltins adds the stock command set exercising every
// command-event kind the orchestrator translates (§4.7 "Command-event
// translation"). Deployments are free to register additional commands
// on the same Registry.
func RegisterBuiltins(r *Registry) error {
	for _, cmd := range builtins() {
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func builtins() []*Command {
	return []*Command{
		{
			Name:     "say",
			Category: "communication",
			Handler:  speechHandler("say"),
		},
		{
			Name:     "shout",
			Category: "communication",
			Handler:  speechHandler("shout"),
		},
		{
			Name:     "emote",
			Aliases:  []string{"me"},
			Category: "communication",
			Handler:  emoteHandler,
		},
		{
			Name:     "tell",
			Aliases:  []string{"whisper", "w"},
			Category: "communication",
			Params:   []ParamSpec{{Name: "to", Required: true}},
			Handler:  tellHandler,
		},
		{
			Name:           "attack",
			Category:       "combat",
			RequiresTarget: true,
			CooldownMs:     0,
			Handler:        attackHandler,
		},
		{
			Name:           "follow",
			Category:       "movement",
			RequiresTarget: true,
			Handler:        followHandler,
		},
		{
			Name:     "stop",
			Category: "movement",
			Handler:  stopHandler,
		},
	}
}

func speechHandler(channel string) HandlerFunc {
	return func(ctx context.Context, inv Invocation) (Result, error) {
		message := strings.Join(inv.Positional, " ")
		if message == "" {
			return Fail("say what?"), nil
		}
		return Ok("", Event{Kind: EventSpeech, Payload: map[string]any{
			"channel": channel, "message": message,
		}}), nil
	}
}

func emoteHandler(ctx context.Context, inv Invocation) (Result, error) {
	action := strings.Join(inv.Positional, " ")
	if action == "" {
		return Fail("emote what?"), nil
	}
	return Ok("", Event{Kind: EventEmote, Payload: map[string]any{
		"action": action,
	}}), nil
}

func tellHandler(ctx context.Context, inv Invocation) (Result, error) {
	to, message := inv.Named["to"], strings.Join(inv.Positional, " ")
	if to == "" {
		to = inv.Arg(0)
		message = strings.Join(inv.Positional[min(1, len(inv.Positional)):], " ")
	}
	if to == "" {
		return Fail("tell who?"), nil
	}
	if message == "" {
		return Fail("tell them what?"), nil
	}
	return Ok("", Event{Kind: EventPrivateMessage, Payload: map[string]any{
		"recipientName": to, "message": message,
	}}), nil
}

func attackHandler(ctx context.Context, inv Invocation) (Result, error) {
	return Ok("", Event{Kind: EventCombatAction, Payload: map[string]any{
		"targetId":  inv.TargetID,
		"abilityId": inv.Named["ability"],
	}}), nil
}

func followHandler(ctx context.Context, inv Invocation) (Result, error) {
	return Ok("", Event{Kind: EventMovement, Payload: map[string]any{
		"mode":     "target",
		"targetId": inv.TargetID,
	}}), nil
}

func stopHandler(ctx context.Context, inv Invocation) (Result, error) {
	return Ok("", Event{Kind: EventMovementStop, Payload: map[string]any{}}), nil
}
