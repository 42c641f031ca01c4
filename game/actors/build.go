package actors

import (
	"fmt"

	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/resource"
	"go.uber.org/zap"
)

// Builder creates the script for one cast entry.
type Builder func(m *resource.CastMember) (ai.Script, error)

func builtin(newScript func(ai.ActorID) ai.Script) Builder {
	return func(m *resource.CastMember) (ai.Script, error) {
		return newScript(ai.ActorID(m.ID)), nil
	}
}

// Builtins maps the script kinds implemented in Go to their constructors.
func Builtins() map[string]Builder {
	return map[string]Builder{
		resource.KindTemplate:  builtin(func(id ai.ActorID) ai.Script { return ai.NewTemplate(id) }),
		resource.KindDetective: builtin(func(id ai.ActorID) ai.Script { return NewDetective(id) }),
		resource.KindPartner:   builtin(func(id ai.ActorID) ai.Script { return NewPartner(id) }),
		resource.KindReplicant: builtin(func(id ai.ActorID) ai.Script { return NewReplicant(id) }),
		resource.KindInformant: builtin(func(id ai.ActorID) ai.Script { return NewInformant(id) }),
	}
}

// Build binds every cast entry to a script by kind. extra adds or overrides
// builders, e.g. the JS kind, which lives in another package. An entry whose
// kind has no builder fails the whole build.
func Build(cast []*resource.CastMember, extra map[string]Builder, logger *zap.Logger) (map[ai.ActorID]ai.Script, error) {
	builders := Builtins()
	for kind, b := range extra {
		builders[kind] = b
	}

	scripts := make(map[ai.ActorID]ai.Script, len(cast))
	for _, m := range cast {
		b, ok := builders[m.Kind]
		if !ok {
			return nil, fmt.Errorf("actors: actor %d (%s): %w: %q", m.ID, m.Name, resource.ErrUnknownScriptKind, m.Kind)
		}
		s, err := b(m)
		if err != nil {
			return nil, fmt.Errorf("actors: actor %d (%s): %w", m.ID, m.Name, err)
		}
		scripts[ai.ActorID(m.ID)] = s
	}
	logger.Info("actor scripts built", zap.Int("count", len(scripts)))
	return scripts, nil
}
