package protection

import (
	"context"
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/policy"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/bwmarrin/discordgo"
)

const adminOnly = discordgo.PermissionAdministrator

var messageActions = []string{
	string(models.EnforceDelete),
	string(models.EnforceWarn),
	string(models.EnforceTimeout),
	string(models.EnforceKick),
}

func enabledOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionBoolean,
		Name:        optEnabled,
		Description: "Activar o desactivar",
		Required:    required,
	}
}

func actionOption(actions ...string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        optAction,
		Description: "Acción a aplicar",
		Choices:     shared.Choices(actions...),
	}
}

func roleOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        optRole,
		Description: description,
		Required:    required,
	}
}

func intOption(name, description string, min, max float64) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: description,
		MinValue:    shared.Float(min),
		MaxValue:    max,
	}
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func automodCommand(name, description string, run discord.CommandRunFunc, opts ...*discordgo.ApplicationCommandOption) *discord.Command {
	return discord.NewCommand(name, description, "automod", run).
		WithOptions(opts...).
		WithUserPermissions(adminOnly).
		InGuildOnly()
}

// updateAutomod applies the patch built from the options and replies with the new status
func updateAutomod(ctx *discord.CommandContext, build func(o shared.Options) (policy.AutomodPatch, error), title string) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		patch, err := build(ctx)
		if err != nil {
			return nil, err
		}
		p, err := c.Policies.UpdateAutomod(reqCtx, ctx.Interaction.GuildID, patch)
		if err != nil {
			return nil, err
		}
		embed := automodEmbed(p)
		embed.Title = "✅ " + title
		embed.Description += quarantineNote(p.AccountAge.Action, p.AccountAge.QuarantineRoleID)
		return embed, nil
	})
}

func noErr(f func(o shared.Options) policy.AutomodPatch) func(o shared.Options) (policy.AutomodPatch, error) {
	return func(o shared.Options) (policy.AutomodPatch, error) { return f(o), nil }
}

func automodSubcommands() []*discord.Command {
	return []*discord.Command{
		automodCommand("status", "Muestra la configuración de AutoMod", automodStatusHandler),
		automodCommand("toggle", "Activa o desactiva AutoMod", func(ctx *discord.CommandContext) error {
			return updateAutomod(ctx, noErr(func(o shared.Options) policy.AutomodPatch {
				return policy.AutomodPatch{Enabled: optBool(o, optEnabled)}
			}), "AutoMod actualizado")
		}, enabledOption(true)),
		automodCommand("spam", "Configura el anti-spam", func(ctx *discord.CommandContext) error {
			return updateAutomod(ctx, spamPatch, "Anti-spam actualizado")
		},
			enabledOption(false),
			intOption(optMax, "Mensajes máximos en la ventana", 2, 20),
			intOption(optWindow, "Ventana en segundos", 1, 60),
			intOption(optDupes, "Mensajes repetidos antes de actuar", 2, 10),
			actionOption(messageActions...),
			stringOption(optDuration, "Duración del silencio (10m, 1h)", false),
		),
		automodCommand("links", "Configura el filtro de enlaces", func(ctx *discord.CommandContext) error {
			return updateAutomod(ctx, noErr(linksPatch), "Filtro de enlaces actualizado")
		},
			enabledOption(false),
			&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionBoolean, Name: optInvites, Description: "Bloquear invitaciones de Discord"},
			&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionBoolean, Name: optAllLinks, Description: "Bloquear todos los enlaces salvo los dominios permitidos"},
			actionOption(messageActions...),
		),
		automodCommand("allow-domain", "Permite un dominio en el filtro de enlaces", allowDomainHandler,
			stringOption("dominio", "Dominio (por ejemplo youtube.com)", true)),
		automodCommand("disallow-domain", "Quita un dominio permitido", disallowDomainHandler,
			stringOption("dominio", "Dominio a quitar", true)),
		automodCommand("words", "Configura el filtro de palabras", func(ctx *discord.CommandContext) error {
			return updateAutomod(ctx, noErr(wordsPatch), "Filtro de palabras actualizado")
		}, enabledOption(false), actionOption(messageActions...)),
		automodCommand("add-word", "Añade una palabra al filtro", addWordHandler,
			stringOption("palabra", "Palabra a filtrar", true)),
		automodCommand("remove-word", "Quita una palabra del filtro", removeWordHandler,
			stringOption("palabra", "Palabra a quitar", true)),
		automodCommand("list-words", "Lista las palabras filtradas", listWordsHandler),
		automodCommand("account-age", "Configura el filtro de cuentas nuevas", func(ctx *discord.CommandContext) error {
			return updateAutomod(ctx, noErr(accountAgePatch), "Filtro de antigüedad actualizado")
		},
			enabledOption(false),
			intOption(optMinDays, "Antigüedad mínima en días", 0, 365),
			actionOption(string(models.EnforceKick), string(models.EnforceQuarantine)),
			roleOption("Rol de cuarentena", false),
		),
		automodCommand("exempt-add", "Exime un rol de AutoMod", exemptAddHandler, roleOption("Rol a eximir", true)),
		automodCommand("exempt-remove", "Quita la exención de un rol", exemptRemoveHandler, roleOption("Rol", true)),
	}
}

func automodStatusHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		p, err := c.Policies.Automod(reqCtx, ctx.Interaction.GuildID)
		if err != nil {
			return nil, err
		}
		return automodEmbed(p), nil
	})
}

// listChange runs an add/remove list helper and reports whether it changed anything
func listChange(ctx *discord.CommandContext, change func(ctx context.Context, c *services.Container) (bool, error), done, unchanged string) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		changed, err := change(reqCtx, c)
		if err != nil {
			return nil, err
		}
		if !changed {
			return &discordgo.MessageEmbed{Description: "ℹ️ " + unchanged, Color: shared.ColorInfo}, nil
		}
		return shared.SuccessEmbed("Configuración actualizada", done), nil
	})
}

func allowDomainHandler(ctx *discord.CommandContext) error {
	domain := ctx.GetStringOption("dominio")
	normalized, err := policy.NormalizeDomain(domain)
	if err != nil {
		return ctx.ReplyEphemeral("❌ " + shared.ErrorMessage(err))
	}
	return listChange(ctx, func(reqCtx context.Context, c *services.Container) (bool, error) {
		return c.Policies.AddAllowedDomain(reqCtx, ctx.Interaction.GuildID, normalized)
	}, fmt.Sprintf("`%s` añadido a los dominios permitidos.", normalized),
		fmt.Sprintf("`%s` ya estaba permitido.", normalized))
}

func disallowDomainHandler(ctx *discord.CommandContext) error {
	domain := strings.ToLower(strings.TrimSpace(ctx.GetStringOption("dominio")))
	return listChange(ctx, func(reqCtx context.Context, c *services.Container) (bool, error) {
		return c.Policies.RemoveAllowedDomain(reqCtx, ctx.Interaction.GuildID, domain)
	}, fmt.Sprintf("`%s` quitado de los dominios permitidos.", domain),
		fmt.Sprintf("`%s` no estaba en la lista.", domain))
}

func addWordHandler(ctx *discord.CommandContext) error {
	word := strings.ToLower(strings.TrimSpace(ctx.GetStringOption("palabra")))
	return listChange(ctx, func(reqCtx context.Context, c *services.Container) (bool, error) {
		return c.Policies.AddFilteredWord(reqCtx, ctx.Interaction.GuildID, word)
	}, fmt.Sprintf("||%s|| añadida al filtro de palabras.", word),
		fmt.Sprintf("||%s|| ya estaba en el filtro.", word))
}

func removeWordHandler(ctx *discord.CommandContext) error {
	word := strings.ToLower(strings.TrimSpace(ctx.GetStringOption("palabra")))
	return listChange(ctx, func(reqCtx context.Context, c *services.Container) (bool, error) {
		return c.Policies.RemoveFilteredWord(reqCtx, ctx.Interaction.GuildID, word)
	}, fmt.Sprintf("||%s|| quitada del filtro de palabras.", word),
		fmt.Sprintf("||%s|| no estaba en el filtro.", word))
}

func listWordsHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		p, err := c.Policies.Automod(reqCtx, ctx.Interaction.GuildID)
		if err != nil {
			return nil, err
		}
		return wordListEmbed(p.WordFilter.Words), nil
	})
}

func wordListEmbed(words []string) *discordgo.MessageEmbed {
	if len(words) == 0 {
		return &discordgo.MessageEmbed{Description: "No hay palabras en el filtro.", Color: shared.ColorInfo}
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("💬 Palabras filtradas (%d)", len(words)),
		Description: shared.Truncate("||"+strings.Join(words, ", ")+"||", 4000),
		Color:       shared.ColorInfo,
	}
}

func exemptAddHandler(ctx *discord.CommandContext) error {
	roleID := ctx.GetIDOption(optRole)
	return listChange(ctx, func(reqCtx context.Context, c *services.Container) (bool, error) {
		return c.Policies.AddExemptRole(reqCtx, ctx.Interaction.GuildID, roleID)
	}, roleMention(roleID)+" ahora está exento de AutoMod.",
		roleMention(roleID)+" ya estaba exento.")
}

func exemptRemoveHandler(ctx *discord.CommandContext) error {
	roleID := ctx.GetIDOption(optRole)
	return listChange(ctx, func(reqCtx context.Context, c *services.Container) (bool, error) {
		return c.Policies.RemoveExemptRole(reqCtx, ctx.Interaction.GuildID, roleID)
	}, roleMention(roleID)+" ya no está exento de AutoMod.",
		roleMention(roleID)+" no estaba exento.")
}
