// Package mod - target resolution and hierarchy checks shared by /mod subcommands
package mod

import (
	"context"
	"errors"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// rank is where a member sits in the guild hierarchy
type rank struct {
	UserID  string
	Owner   bool
	Highest int
}

// hierarchy holds what a check needs from the guild
type hierarchy struct {
	OwnerID   string
	Positions map[string]int
	Known     bool
}

func guildHierarchy(g *discordgo.Guild) hierarchy {
	if g == nil {
		return hierarchy{}
	}
	h := hierarchy{OwnerID: g.OwnerID, Positions: make(map[string]int, len(g.Roles)), Known: true}
	for _, r := range g.Roles {
		h.Positions[r.ID] = r.Position
	}
	return h
}

func (h hierarchy) rank(userID string, roleIDs []string) rank {
	r := rank{UserID: userID, Owner: userID != "" && userID == h.OwnerID}
	for _, id := range roleIDs {
		if p, ok := h.Positions[id]; ok && p > r.Highest {
			r.Highest = p
		}
	}
	return r
}

// refuseTarget returns a Refusal when actor may not act on target.
// verb is the infinitive shown to the moderator ("silenciar", "banear").
func refuseTarget(verb, botID string, actor, target rank, checkRoles bool) error {
	switch {
	case target.UserID == actor.UserID:
		return shared.Refuse("No puedes %s a ti mismo.", verb)
	case botID != "" && target.UserID == botID:
		return shared.Refuse("No puedo %s a mí mismo.", verb)
	case target.Owner:
		return shared.Refuse("No puedes %s al propietario del servidor.", verb)
	case checkRoles && !actor.Owner && target.Highest >= actor.Highest:
		return shared.Refuse("No puedes %s a un miembro con un rol igual o superior al tuyo.", verb)
	}
	return nil
}

// resolveTarget validates the target of a member action. With requireMember the user must be
// in the guild; otherwise a missing member skips the role checks.
func resolveTarget(ctx context.Context, cmd *discord.CommandContext, c *services.Container, user *discordgo.User, verb string, requireMember bool) (enforcement.Target, error) {
	target := enforcement.Target{GuildID: cmd.Interaction.GuildID, UserID: user.ID, Tag: user.String()}

	h := guildHierarchy(cmd.Guild())
	var actorRoles []string
	if m := cmd.Member(); m != nil {
		actorRoles = m.Roles
	}
	actor := h.rank(cmd.User().ID, actorRoles)

	member, err := c.Directory.Member(ctx, target.GuildID, user.ID)
	switch {
	case errors.Is(err, enforcement.ErrMemberNotFound):
		if requireMember {
			return target, err
		}
		return target, refuseTarget(verb, cmd.Client.BotUserID(), actor, h.rank(user.ID, nil), false)
	case err != nil:
		return target, err
	}

	return target, refuseTarget(verb, cmd.Client.BotUserID(), actor, h.rank(user.ID, member.RoleIDs), h.Known)
}

// requireUser reads the "usuario" option
func requireUser(cmd *discord.CommandContext) (*discordgo.User, error) {
	user := cmd.GetUserOption("usuario")
	if user == nil {
		return nil, shared.Refuse("Debes especificar un usuario.")
	}
	return user, nil
}

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "usuario",
		Description: description,
		Required:    true,
	}
}

func reasonOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "razon",
		Description: description,
		Required:    required,
		MaxLength:   512,
	}
}
