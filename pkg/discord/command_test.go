package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func noop(ctx *CommandContext) error { return nil }

func TestCommandCreation(t *testing.T) {
	cmd := NewCommand("warn", "Advertir a un usuario", "moderation", noop)

	if cmd.Name != "warn" {
		t.Errorf("Name = %v, want %v", cmd.Name, "warn")
	}
	if cmd.Category != "moderation" {
		t.Errorf("Category = %v, want %v", cmd.Category, "moderation")
	}
	if cmd.Run == nil {
		t.Error("Run function is nil")
	}
}

func TestToApplicationCommand(t *testing.T) {
	option := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "usuario",
		Description: "Usuario",
		Required:    true,
	}

	cmd := NewCommand("warn", "Advertir", "moderation", noop).
		WithOptions(option).
		WithUserPermissions(discordgo.PermissionModerateMembers).
		InGuildOnly()

	appCmd := cmd.ToApplicationCommand()

	if len(appCmd.Options) != 1 {
		t.Fatalf("Options length = %v, want 1", len(appCmd.Options))
	}
	if appCmd.DefaultMemberPermissions == nil || *appCmd.DefaultMemberPermissions != discordgo.PermissionModerateMembers {
		t.Errorf("DefaultMemberPermissions = %v, want %v", appCmd.DefaultMemberPermissions, discordgo.PermissionModerateMembers)
	}
	if appCmd.DMPermission == nil || *appCmd.DMPermission {
		t.Error("guild-only command must disable DM usage")
	}
}

func TestToApplicationCommandWithoutPermissions(t *testing.T) {
	appCmd := NewCommand("ping", "Latencia", "utils", noop).ToApplicationCommand()
	if appCmd.DefaultMemberPermissions != nil {
		t.Errorf("DefaultMemberPermissions = %v, want nil", *appCmd.DefaultMemberPermissions)
	}
	if appCmd.DMPermission != nil {
		t.Error("DMPermission should be left unset")
	}
}

func TestBuildCommandGroup(t *testing.T) {
	c := &ExtendedClient{Commands: NewCommandCollection()}
	h := NewCommandHandler(c)

	group := h.BuildCommandGroup("mod", "Moderación",
		NewCommand("warn", "Advertir", "moderation", noop).WithUserPermissions(discordgo.PermissionModerateMembers).InGuildOnly(),
		NewCommand("ban", "Banear", "moderation", noop).WithUserPermissions(discordgo.PermissionBanMembers).InGuildOnly(),
	)

	if len(group.Options) != 2 {
		t.Fatalf("Options length = %d, want 2", len(group.Options))
	}
	for _, opt := range group.Options {
		if opt.Type != discordgo.ApplicationCommandOptionSubCommand {
			t.Errorf("option %s type = %v, want subcommand", opt.Name, opt.Type)
		}
	}

	want := int64(discordgo.PermissionModerateMembers | discordgo.PermissionBanMembers)
	if group.DefaultMemberPermissions == nil || *group.DefaultMemberPermissions != want {
		t.Errorf("DefaultMemberPermissions = %v, want %d", group.DefaultMemberPermissions, want)
	}

	for _, name := range []string{"mod.warn", "mod.ban"} {
		if _, ok := c.Commands.Get(name); !ok {
			t.Errorf("command %s was not registered in the collection", name)
		}
	}
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		name string
		data discordgo.ApplicationCommandInteractionData
		want string
	}{
		{
			name: "top level",
			data: discordgo.ApplicationCommandInteractionData{Name: "ping"},
			want: "ping",
		},
		{
			name: "subcommand",
			data: discordgo.ApplicationCommandInteractionData{
				Name: "mod",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "warn", Type: discordgo.ApplicationCommandOptionSubCommand},
				},
			},
			want: "mod.warn",
		},
		{
			name: "subcommand group",
			data: discordgo.ApplicationCommandInteractionData{
				Name: "automod",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{
						Name: "words",
						Type: discordgo.ApplicationCommandOptionSubCommandGroup,
						Options: []*discordgo.ApplicationCommandInteractionDataOption{
							{Name: "add", Type: discordgo.ApplicationCommandOptionSubCommand},
						},
					},
				},
			},
			want: "automod.words.add",
		},
		{
			name: "plain options",
			data: discordgo.ApplicationCommandInteractionData{
				Name: "ping",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "detalle", Type: discordgo.ApplicationCommandOptionBoolean},
				},
			},
			want: "ping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commandName(tt.data); got != tt.want {
				t.Errorf("commandName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasPermissions(t *testing.T) {
	tests := []struct {
		name     string
		granted  int64
		required int64
		want     bool
	}{
		{"exact", discordgo.PermissionBanMembers, discordgo.PermissionBanMembers, true},
		{"superset", discordgo.PermissionBanMembers | discordgo.PermissionKickMembers, discordgo.PermissionKickMembers, true},
		{"missing", discordgo.PermissionKickMembers, discordgo.PermissionBanMembers, false},
		{"partial", discordgo.PermissionKickMembers, discordgo.PermissionKickMembers | discordgo.PermissionBanMembers, false},
		{"administrator", discordgo.PermissionAdministrator, discordgo.PermissionManageGuild, true},
		{"nothing required", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermissions(tt.granted, tt.required); got != tt.want {
				t.Errorf("HasPermissions(%d, %d) = %v, want %v", tt.granted, tt.required, got, tt.want)
			}
		})
	}
}
