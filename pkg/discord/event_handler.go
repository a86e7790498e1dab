package discord

import (
	"sync"

	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// EventHandler keeps track of the gateway handlers attached to the session
type EventHandler struct {
	client *ExtendedClient
	events []func()
	mu     sync.Mutex
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(client *ExtendedClient) *EventHandler {
	return &EventHandler{client: client}
}

// RegisterEvent adds an event handler to the Discord session
func (eh *EventHandler) RegisterEvent(name string, handler interface{}) {
	remove := eh.client.Session.AddHandler(handler)
	eh.mu.Lock()
	eh.events = append(eh.events, remove)
	eh.mu.Unlock()
	logger.Debug("Evento '"+name+"' registrado", "EventHandler")
}

// Count returns how many handlers are attached
func (eh *EventHandler) Count() int {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	return len(eh.events)
}

// RemoveAll detaches every registered handler
func (eh *EventHandler) RemoveAll() {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	for _, remove := range eh.events {
		remove()
	}
	eh.events = nil
}

// ReadyHandler is called when the bot is ready
type ReadyHandler func(s *discordgo.Session, r *discordgo.Ready)

// GuildCreateHandler is called when a guild becomes available
type GuildCreateHandler func(s *discordgo.Session, g *discordgo.GuildCreate)

// MessageCreateHandler is called when a message is created
type MessageCreateHandler func(s *discordgo.Session, m *discordgo.MessageCreate)

// GuildMemberAddHandler is called when a member joins a guild
type GuildMemberAddHandler func(s *discordgo.Session, m *discordgo.GuildMemberAdd)

// OnReady registers a ready event handler
func (eh *EventHandler) OnReady(handler ReadyHandler) {
	eh.RegisterEvent("Ready", handler)
}

// OnGuildCreate registers a guild create event handler
func (eh *EventHandler) OnGuildCreate(handler GuildCreateHandler) {
	eh.RegisterEvent("GuildCreate", handler)
}

// OnMessageCreate registers a message create event handler
func (eh *EventHandler) OnMessageCreate(handler MessageCreateHandler) {
	eh.RegisterEvent("MessageCreate", handler)
}

// OnGuildMemberAdd registers a guild member add event handler
func (eh *EventHandler) OnGuildMemberAdd(handler GuildMemberAddHandler) {
	eh.RegisterEvent("GuildMemberAdd", handler)
}
