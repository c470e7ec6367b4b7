package discord

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"valier/internal/logging"
	"valier/internal/services"
)

const (
	// MsgCommandError answers a handler that panicked or failed without replying.
	MsgCommandError = "There was an error while executing this command!"
	// MsgGuildOnly answers commands used outside a server.
	MsgGuildOnly = "This command can only be used in a server."

	defaultCommandTimeout = 2 * time.Minute
)

// interactionAPI is the subset of *discordgo.Session used to answer
// interactions.
type interactionAPI interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Command is a parsed slash command invocation.
type Command struct {
	Name        string
	GuildID     string
	Member      *discordgo.Member
	Interaction *discordgo.Interaction
	options     map[string]*discordgo.ApplicationCommandInteractionDataOption
	resolved    *discordgo.ApplicationCommandInteractionDataResolved
}

func newCommand(i *discordgo.Interaction) *Command {
	data := i.ApplicationCommandData()
	cmd := &Command{
		Name:        data.Name,
		GuildID:     i.GuildID,
		Member:      i.Member,
		Interaction: i,
		options:     make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options)),
		resolved:    data.Resolved,
	}
	for _, opt := range data.Options {
		if opt != nil {
			cmd.options[opt.Name] = opt
		}
	}
	return cmd
}

// String returns a string option, or "" when it was not supplied.
func (c *Command) String(name string) string {
	opt, ok := c.options[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return ""
	}
	return strings.TrimSpace(opt.StringValue())
}

// User returns a user option, filled from the resolved data when present.
func (c *Command) User(name string) (*discordgo.User, bool) {
	opt, ok := c.options[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionUser {
		return nil, false
	}
	user := opt.UserValue(nil)
	if c.resolved != nil {
		if full, ok := c.resolved.Users[user.ID]; ok && full != nil {
			user = full
		}
	}
	return user, true
}

// InvokerID returns the id of the member who ran the command.
func (c *Command) InvokerID() string {
	if c.Member != nil && c.Member.User != nil {
		return c.Member.User.ID
	}
	if c.Interaction != nil && c.Interaction.User != nil {
		return c.Interaction.User.ID
	}
	return ""
}

// Responder answers one interaction, either directly or by editing a
// deferred response.
type Responder struct {
	api         interactionAPI
	interaction *discordgo.Interaction

	mu       sync.Mutex
	deferred bool
	answered bool
}

func newResponder(api interactionAPI, i *discordgo.Interaction) *Responder {
	return &Responder{api: api, interaction: i}
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

// Defer acknowledges the interaction so the handler may take longer than
// the three second window.
func (r *Responder) Defer(ctx context.Context, ephemeral bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deferred || r.answered {
		return nil
	}
	err := r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return classify(err, "defer interaction")
	}
	r.deferred = true
	return nil
}

// Respond sends content. After Defer the visibility chosen there wins.
func (r *Responder) Respond(ctx context.Context, content string, ephemeral bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deferred {
		if _, err := r.api.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(ctx)); err != nil {
			return classify(err, "edit interaction response")
		}
		r.answered = true
		return nil
	}
	err := r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: flags(ephemeral)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return classify(err, "respond to interaction")
	}
	r.answered = true
	return nil
}

// Answered reports whether a reply reached the user.
func (r *Responder) Answered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answered
}

// Handler runs one slash command.
type Handler func(ctx context.Context, cmd *Command, resp *Responder) error

// Router dispatches application command interactions to handlers.
type Router struct {
	ctx      context.Context
	api      interactionAPI
	logger   *slog.Logger
	timeout  time.Duration
	handlers map[string]Handler
}

// NewRouter builds a router. Handler contexts derive from ctx so they end
// when the daemon stops.
func NewRouter(ctx context.Context, api interactionAPI, logger *slog.Logger) *Router {
	return &Router{
		ctx:      ctx,
		api:      api,
		logger:   logging.NewComponentLogger(logger, "router"),
		timeout:  defaultCommandTimeout,
		handlers: make(map[string]Handler),
	}
}

// Handle registers h for the named command.
func (r *Router) Handle(name string, h Handler) {
	r.handlers[name] = h
}

// Commands lists registered command names.
func (r *Router) Commands() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// HandleInteraction is the discordgo event handler.
func (r *Router) HandleInteraction(_ *discordgo.Session, ev *discordgo.InteractionCreate) {
	if ev == nil || ev.Interaction == nil {
		return
	}
	r.Dispatch(ev.Interaction)
}

// Dispatch runs the handler for an interaction and blocks until it returns.
func (r *Router) Dispatch(i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	cmd := newCommand(i)
	handler, ok := r.handlers[cmd.Name]
	if !ok {
		r.logger.Warn("unknown command",
			logging.String(logging.FieldCommand, cmd.Name),
			logging.String(logging.FieldEventType, "unknown_command"),
			logging.String(logging.FieldErrorHint, "re-run valier register to sync commands"),
		)
		return
	}

	ctx := services.WithRequestID(r.ctx, uuid.NewString())
	ctx = services.WithCommand(ctx, cmd.Name)
	ctx = services.WithGuildID(ctx, cmd.GuildID)
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	logger := logging.WithContext(ctx, r.logger)
	resp := newResponder(r.api, i)

	if cmd.GuildID == "" || cmd.Member == nil {
		if err := resp.Respond(ctx, MsgGuildOnly, true); err != nil {
			logger.Warn("guild-only reply failed", logging.Error(err))
		}
		return
	}

	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			logging.ErrorWithContext(logger, "command panicked", "command_panic",
				logging.Any("panic", rec),
				logging.String("stack", string(debug.Stack())),
			)
			r.answerFailure(ctx, logger, resp)
		}
	}()

	logger.Info("command received", logging.String("invoker_id", cmd.InvokerID()))
	if err := handler(ctx, cmd, resp); err != nil {
		logging.WarnWithContext(logger, "command failed", "command_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Duration("duration", time.Since(started)),
		)
		if !resp.Answered() {
			r.answerFailure(ctx, logger, resp)
		}
		return
	}
	logger.Info("command completed", logging.Duration("duration", time.Since(started)))
}

func (r *Router) answerFailure(ctx context.Context, logger *slog.Logger, resp *Responder) {
	if resp.Answered() {
		return
	}
	if err := resp.Respond(ctx, MsgCommandError, true); err != nil {
		logger.Warn("error reply failed", logging.Error(err))
	}
}
