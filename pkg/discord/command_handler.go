package discord

import (
	"fmt"

	"github.com/PancyStudios/PancyGuard/pkg/config"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// CommandHandler manages command loading and registration
type CommandHandler struct {
	client           *ExtendedClient
	slashCommands    []*discordgo.ApplicationCommand
	slashCommandsDev []*discordgo.ApplicationCommand
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(client *ExtendedClient) *CommandHandler {
	return &CommandHandler{
		client:           client,
		slashCommands:    make([]*discordgo.ApplicationCommand, 0),
		slashCommandsDev: make([]*discordgo.ApplicationCommand, 0),
	}
}

// RegisterCommand adds a top-level command to the handler
func (ch *CommandHandler) RegisterCommand(cmd *Command) {
	ch.client.Commands.Set(cmd.Name, cmd)

	appCmd := cmd.ToApplicationCommand()

	if cmd.IsDev {
		ch.slashCommandsDev = append(ch.slashCommandsDev, appCmd)
	} else {
		ch.slashCommands = append(ch.slashCommands, appCmd)
	}

	logger.Debug("Comando registrado: "+cmd.Name, "CommandHandler")
}

// BuildCommandGroup creates a command group with subcommands.
// The group's default member permissions are the union of what its subcommands require;
// each subcommand still checks its own permissions at runtime.
func (ch *CommandHandler) BuildCommandGroup(name, description string, subcommands ...*Command) *discordgo.ApplicationCommand {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(subcommands))

	var perms int64
	guildOnly := false
	for _, cmd := range subcommands {
		fullName := name + "." + cmd.Name
		ch.client.Commands.Set(fullName, cmd)

		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		})
		perms |= cmd.UserPermissions
		guildOnly = guildOnly || cmd.GuildOnly
	}

	group := &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Options:     options,
	}
	if perms != 0 {
		group.DefaultMemberPermissions = &perms
	}
	if guildOnly {
		dm := false
		group.DMPermission = &dm
	}
	return group
}

// RegisterCommands pushes every slash command to Discord, replacing whatever was registered before
func (ch *CommandHandler) RegisterCommands() {
	cfg := config.Get()
	appID := ch.applicationID()

	logger.Info("🔄 Registrando comandos globales...", "CommandHandler")
	if _, err := ch.client.Session.ApplicationCommandBulkOverwrite(appID, "", ch.slashCommands); err != nil {
		logger.Error("Error registrando comandos globales: "+err.Error(), "CommandHandler")
	} else {
		logger.Success(fmt.Sprintf("✅ %d comandos globales registrados.", len(ch.slashCommands)), "CommandHandler")
	}

	if cfg.DevGuildID != "" && len(ch.slashCommandsDev) > 0 {
		logger.Info("🔄 Registrando comandos de desarrollo en el servidor "+cfg.DevGuildID+"...", "CommandHandler")
		if _, err := ch.client.Session.ApplicationCommandBulkOverwrite(appID, cfg.DevGuildID, ch.slashCommandsDev); err != nil {
			logger.Error("Error registrando comandos de desarrollo: "+err.Error(), "CommandHandler")
			return
		}
		logger.Success("✅ Comandos de desarrollo registrados.", "CommandHandler")
	}
}

// SyncCommands registers the current command set in guildID (global when empty).
// Bulk overwrite drops any stale command Discord still knows about.
func (ch *CommandHandler) SyncCommands(guildID string) error {
	cmds := ch.slashCommands
	if guildID != "" {
		cmds = append(append([]*discordgo.ApplicationCommand{}, ch.slashCommands...), ch.slashCommandsDev...)
	}

	registered, err := ch.client.Session.ApplicationCommandBulkOverwrite(ch.applicationID(), guildID, cmds)
	if err != nil {
		return err
	}
	logger.Success(fmt.Sprintf("Sincronizados %d comandos", len(registered)), "CommandHandler")
	return nil
}

// ListGlobalCommands returns the global commands Discord has registered
func (ch *CommandHandler) ListGlobalCommands() ([]*discordgo.ApplicationCommand, error) {
	return ch.client.Session.ApplicationCommands(ch.applicationID(), "")
}

// ListGuildCommands returns the commands registered in a single guild
func (ch *CommandHandler) ListGuildCommands(guildID string) ([]*discordgo.ApplicationCommand, error) {
	return ch.client.Session.ApplicationCommands(ch.applicationID(), guildID)
}

// UnregisterCommands removes all global commands from Discord
func (ch *CommandHandler) UnregisterCommands() error {
	return ch.unregister("")
}

// UnregisterGuildCommands removes all commands registered in a guild
func (ch *CommandHandler) UnregisterGuildCommands(guildID string) error {
	return ch.unregister(guildID)
}

func (ch *CommandHandler) unregister(guildID string) error {
	appID := ch.applicationID()
	commands, err := ch.client.Session.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}

	for _, cmd := range commands {
		if err := ch.client.Session.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			logger.Error("Error eliminando comando "+cmd.Name+": "+err.Error(), "CommandHandler")
		}
	}

	logger.Success(fmt.Sprintf("%d comandos eliminados.", len(commands)), "CommandHandler")
	return nil
}

// AddGlobalCommand adds a command to the global command list
func (ch *CommandHandler) AddGlobalCommand(cmd *discordgo.ApplicationCommand) {
	ch.slashCommands = append(ch.slashCommands, cmd)
}

// AddDevCommand adds a command to the dev command list
func (ch *CommandHandler) AddDevCommand(cmd *discordgo.ApplicationCommand) {
	ch.slashCommandsDev = append(ch.slashCommandsDev, cmd)
}

// Definitions returns the global and dev command definitions queued for registration
func (ch *CommandHandler) Definitions() (global, dev []*discordgo.ApplicationCommand) {
	return ch.slashCommands, ch.slashCommandsDev
}

func (ch *CommandHandler) applicationID() string {
	if id := ch.client.BotUserID(); id != "" {
		return id
	}
	if ch.client.Session.State != nil && ch.client.Session.State.User != nil {
		return ch.client.Session.State.User.ID
	}
	return ""
}
