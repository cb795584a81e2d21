// Package chat delivers restock events observed in a Discord server. It
// watches for role mentions matching configured product roles and publishes
// a normalized event per match; it performs no dedup or delivery itself.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hazyhaar/restock/alert"
)

// Config configures a Listener.
type Config struct {
	// Token is the Discord bot token.
	Token string
	// GuildID restricts listening to one guild. Empty means all guilds the
	// account can see.
	GuildID string
	// WatchedRoles are the role names to watch (typically SKUs). Matched
	// case-insensitively.
	WatchedRoles []string
	// ReadyTimeout bounds how long Start waits for the gateway ready
	// event. Default: 30s.
	ReadyTimeout time.Duration
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Publish receives events produced by the listener.
type Publish func(ev alert.Event)

// Listener is a Discord gateway client that turns watched role mentions into
// alert events.
type Listener struct {
	config  Config
	watched map[string]struct{}
	publish Publish

	mu      sync.Mutex
	session *discordgo.Session
}

// New creates a Listener. Call Start to connect.
func New(cfg Config, publish Publish) *Listener {
	cfg.defaults()
	watched := make(map[string]struct{}, len(cfg.WatchedRoles))
	for _, role := range cfg.WatchedRoles {
		watched[strings.ToLower(role)] = struct{}{}
	}
	return &Listener{
		config:  cfg,
		watched: watched,
		publish: publish,
	}
}

// Start opens the gateway session and waits for the ready event. Returns an
// error if the connection does not become ready within the configured bound;
// the caller may continue running other producers in degraded mode.
func (l *Listener) Start(ctx context.Context) error {
	token := l.config.Token
	if token == "" {
		return fmt.Errorf("chat: token is required")
	}
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}

	session, err := discordgo.New(token)
	if err != nil {
		return fmt.Errorf("chat: create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	ready := make(chan struct{})
	var readyOnce sync.Once
	session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Ready) {
		readyOnce.Do(func() { close(ready) })
	})
	session.AddHandler(l.onMessage)

	if err := session.Open(); err != nil {
		return fmt.Errorf("chat: open gateway: %w", err)
	}

	select {
	case <-ready:
	case <-ctx.Done():
		session.Close()
		return ctx.Err()
	case <-time.After(l.config.ReadyTimeout):
		session.Close()
		return fmt.Errorf("chat: gateway not ready within %s", l.config.ReadyTimeout)
	}

	l.mu.Lock()
	l.session = session
	l.mu.Unlock()

	l.config.Logger.Info("chat: listener connected",
		"watched_roles", len(l.watched), "guild", l.config.GuildID)
	return nil
}

// Close shuts down the gateway session.
func (l *Listener) Close() error {
	l.mu.Lock()
	session := l.session
	l.session = nil
	l.mu.Unlock()

	if session == nil {
		return nil
	}
	l.config.Logger.Info("chat: listener stopping")
	return session.Close()
}

// onMessage inspects one inbound message for watched role mentions. Any
// failure here is logged and swallowed — a bad message must never take the
// session down.
func (l *Listener) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	defer func() {
		if r := recover(); r != nil {
			l.config.Logger.Error("chat: message handler panicked", "panic", r)
		}
	}()

	if l.config.GuildID != "" && m.GuildID != l.config.GuildID {
		return
	}
	// Role names are resolved through the session state; without state
	// tracking there is nothing to match against.
	if s.State == nil {
		return
	}
	if s.State.User != nil && m.Author != nil && m.Author.ID == s.State.User.ID {
		return
	}
	if len(m.MentionRoles) == 0 {
		return
	}

	roleNames := make([]string, 0, len(m.MentionRoles))
	for _, roleID := range m.MentionRoles {
		role, err := s.State.Role(m.GuildID, roleID)
		if err != nil {
			l.config.Logger.Debug("chat: unknown role mention",
				"role_id", roleID, "error", err)
			continue
		}
		roleNames = append(roleNames, role.Name)
	}

	for _, ev := range l.eventsFor(roleNames, m.Content) {
		l.config.Logger.Info("chat: stock alert detected",
			"product", ev.Name, "sku", ev.SKU, "event_id", ev.ID)
		l.publish(ev)
	}
}

// eventsFor builds one event per mentioned role that is in the watched set.
// The role name is the SKU; the display name is extracted from the message.
func (l *Listener) eventsFor(roleNames []string, content string) []alert.Event {
	var events []alert.Event
	for _, roleName := range roleNames {
		if _, ok := l.watched[strings.ToLower(roleName)]; !ok {
			continue
		}
		ev := alert.NewEvent(alert.SourceChat, ExtractProductName(roleName, content), roleName)
		ev.Message = content
		events = append(events, ev)
	}
	return events
}
