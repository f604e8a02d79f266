package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wardrobe/internal/actors"
	"github.com/mesh-intelligence/wardrobe/internal/collections"
	"github.com/mesh-intelligence/wardrobe/internal/game"
)

type assignFlags struct {
	players   []string
	retainers []string
	npcs      []string
	owned     []string
	specials  []string
}

func newAssignCmd(a *app) *cobra.Command {
	var f assignFlags
	cmd := &cobra.Command{
		Use:   "assign [<role> <collection>]",
		Short: "Assign a collection to a role or to individuals",
		Long: `Assign a collection to a role, or list the assignments when called without
arguments. The collection None clears the assignment; the default role falls
back to the empty collection.

Roles: default, interface, current, yourself, child, elderly, the gender
groups (male, female, male-npc, ...) and the clan groups (highlander-female,
raen-male-npc, ...).

The role "individual" assigns one group of identities given by --player,
--retainer, --npc, --owned and --special. NPCs are given as kind:ids with
comma separated data ids; owned NPCs prefix that with their owner's Name@world.

Example:
  wardrobe assign yourself Armour
  wardrobe assign highlander-female-npc Tall
  wardrobe assign individual Armour --player "Aria Stone@73" --player "Aria Stone@40"
  wardrobe assign individual None --retainer Mog
  wardrobe assign individual Tall --npc EventNpc:1001,1002
  wardrobe assign individual Armour --owned "Aria Stone@73:Mount:5"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return usageErrorf("assign takes a role and a collection, or no arguments")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.listAssignments(cmd)
			}
			return a.runAssign(cmd, args[0], args[1], f)
		},
	}
	cmd.Flags().StringArrayVar(&f.players, "player", nil, `player identity as "Name@world"`)
	cmd.Flags().StringArrayVar(&f.retainers, "retainer", nil, "retainer identity by name")
	cmd.Flags().StringArrayVar(&f.npcs, "npc", nil, `NPC identity as "kind:id[,id...]"`)
	cmd.Flags().StringArrayVar(&f.owned, "owned", nil, `owned NPC identity as "Name@world:kind:id[,id...]"`)
	cmd.Flags().StringArrayVar(&f.specials, "special", nil, "UI stand-in (CharacterScreen, FittingRoom, ...)")
	return cmd
}

func (a *app) listAssignments(cmd *cobra.Command) error {
	return a.withSession(func(s *session) error {
		all := s.api.Assignments()
		if a.flags.jsonMode {
			return printJSON(cmd.OutOrStdout(), all)
		}
		for _, as := range all {
			fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", as.Role, as.Collection)
		}
		return nil
	})
}

func (a *app) runAssign(cmd *cobra.Command, roleName, collection string, f assignFlags) error {
	individual := strings.EqualFold(roleName, collections.RoleIndividual)
	var role collections.Role
	if !individual {
		r, err := collections.ParseRole(roleName)
		if err != nil {
			return err
		}
		role = r
	}
	ids, err := f.identifiers()
	if err != nil {
		return err
	}
	if individual && len(ids) == 0 {
		return usageErrorf("individual assignments need an identity flag")
	}
	if !individual && len(ids) > 0 {
		return usageErrorf("identities are only accepted for the individual role")
	}

	return a.withSession(func(s *session) error {
		c, err := s.assignable(collection)
		if err != nil {
			return err
		}
		switch {
		case !individual:
			err = s.reg.Active().SetRole(role, c)
		case c == nil:
			for _, id := range ids {
				if !s.reg.Active().RemoveIndividual(id) {
					return fmt.Errorf("remove %s: %w", id, collections.ErrInvalidIdentifier)
				}
			}
		default:
			err = s.reg.Active().AssignIndividual(c, ids...)
		}
		if err != nil {
			return err
		}
		target := roleName
		if individual {
			target = ids[0].String()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s\n", collectionName(c), target)
		return nil
	})
}

func collectionName(c *collections.Collection) string {
	if c == nil {
		return collections.EmptyName
	}
	return c.Name()
}

// identifiers parses the identity flags in flag order: players, retainers,
// NPCs, owned NPCs, then specials.
func (f assignFlags) identifiers() ([]actors.Identifier, error) {
	var out []actors.Identifier
	for _, p := range f.players {
		name, world, err := parseOwner(p)
		if err != nil {
			return nil, err
		}
		out = append(out, actors.NewPlayer(name, world))
	}
	for _, r := range f.retainers {
		out = append(out, actors.NewRetainer(strings.TrimSpace(r)))
	}
	for _, n := range f.npcs {
		kind, ids, err := parseNpc(n)
		if err != nil {
			return nil, err
		}
		out = append(out, actors.NewNpc(kind, ids...))
	}
	for _, o := range f.owned {
		i := strings.LastIndex(o, "@")
		if i < 0 {
			return nil, usageErrorf("owned %q: expected Name@world:kind:ids", o)
		}
		world, npc, ok := strings.Cut(o[i+1:], ":")
		if !ok {
			return nil, usageErrorf("owned %q: expected Name@world:kind:ids", o)
		}
		name, w, err := parseOwner(o[:i] + "@" + world)
		if err != nil {
			return nil, err
		}
		kind, ids, err := parseNpc(npc)
		if err != nil {
			return nil, err
		}
		out = append(out, actors.NewOwned(name, w, kind, ids...))
	}
	for _, sp := range f.specials {
		s, ok := actors.ParseSpecialActor(sp)
		if !ok {
			return nil, usageErrorf("unknown special actor %q", sp)
		}
		out = append(out, actors.NewSpecial(s))
	}
	return out, nil
}

func parseOwner(s string) (string, game.WorldID, error) {
	name, world, ok := strings.Cut(s, "@")
	if !ok {
		return "", 0, usageErrorf("player %q: expected Name@world", s)
	}
	w, err := strconv.ParseUint(strings.TrimSpace(world), 10, 16)
	if err != nil {
		return "", 0, usageErrorf("player %q: world must be a number", s)
	}
	return strings.TrimSpace(name), game.WorldID(w), nil
}

// parseNpc parses "kind:id[,id...]". The kind must name an NPC kind.
func parseNpc(s string) (game.ObjectKind, []uint32, error) {
	name, list, ok := strings.Cut(s, ":")
	if !ok {
		return game.KindNone, nil, usageErrorf("npc %q: expected kind:ids", s)
	}
	kind, ok := game.ParseObjectKind(strings.TrimSpace(name))
	if !ok || !kind.IsNpc() {
		return game.KindNone, nil, usageErrorf("npc %q: %q is not an NPC kind", s, name)
	}
	var ids []uint32
	for _, part := range strings.Split(list, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return game.KindNone, nil, usageErrorf("npc %q: data id %q must be a number", s, part)
		}
		ids = append(ids, uint32(v))
	}
	return kind, ids, nil
}
