package eventping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"valier/internal/logging"
	"valier/internal/services"
)

// User-facing replies.
const (
	MsgUnauthorized   = "You don't have permission to use this command."
	MsgParentMissing  = "The '%s' category does not exist. Please create it first."
	MsgProvisionFail  = "Failed to create a temporary voice channel. Please check my permissions."
	MsgResolveFail    = "Failed to fetch online members. Please check my permissions."
	MsgInternalFail   = "There was an error creating the event."
	msgAcknowledgment = "Event created! Invitations sent to %d members. Departure time: %s UTC. Join the event here: %s"
)

// Invocation is one /eventping call.
type Invocation struct {
	GuildID string
	Invoker MemberInfo
	// InvokerRoles holds the names of the invoker's guild roles.
	InvokerRoles []string
	Departure    string
}

// Replier answers the invoker privately.
type Replier interface {
	Reply(ctx context.Context, content string) error
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(ctx context.Context, content string) error

func (f ReplierFunc) Reply(ctx context.Context, content string) error { return f(ctx, content) }

// Acknowledgment summarises a successful invocation.
type Acknowledgment struct {
	SessionID    string
	ResourceName string
	JoinURL      string
	Departure    string
	Attempted    int
	Delivered    int
	Failed       int
	Recipients   []Recipient
}

// Message renders the reply shown to the invoker.
func (a Acknowledgment) Message() string {
	join := a.JoinURL
	if join == "" {
		join = NoJoinLocator
	}
	return fmt.Sprintf(msgAcknowledgment, a.Attempted, a.Departure, join)
}

// Options configures the orchestrator.
type Options struct {
	AllowedRoles   []string
	ParentCategory string
	RoomPrefix     string
	LeaderPrefix   string
	RoleLabels     []string
	DefaultRole    string
	Concurrency    int
}

// Dependencies wires the orchestrator.
type Dependencies struct {
	Resources ResourceProvider
	Members   MemberDirectory
	Formatter *Formatter
	Registry  *Registry
	Annotator *Annotator
	Logger    *slog.Logger
	Now       func() time.Time
}

// Orchestrator runs the /eventping data flow.
type Orchestrator struct {
	opts        Options
	provisioner *Provisioner
	annotator   *Annotator
	resolver    *Resolver
	formatter   *Formatter
	members     MemberDirectory
	registry    *Registry
	logger      *slog.Logger
	now         func() time.Time
}

// NewOrchestrator constructs an orchestrator. reachable lists the presence
// values that qualify a member for an invitation.
func NewOrchestrator(opts Options, reachable []string, deps Dependencies) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.DefaultRole == "" {
		opts.DefaultRole = "Default"
	}
	if len(opts.RoleLabels) == 0 {
		opts.RoleLabels = []string{opts.DefaultRole}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Annotator == nil {
		deps.Annotator = NewAnnotator(deps.Members, deps.Logger)
	}
	if deps.Formatter == nil {
		deps.Formatter = NewFormatter("", opts.ParentCategory, time.UTC, deps.Now)
	}
	return &Orchestrator{
		opts:        opts,
		provisioner: NewProvisioner(deps.Resources, deps.Logger),
		annotator:   deps.Annotator,
		resolver:    NewResolver(deps.Members, reachable),
		formatter:   deps.Formatter,
		members:     deps.Members,
		registry:    deps.Registry,
		logger:      logging.NewComponentLogger(deps.Logger, "eventping"),
		now:         deps.Now,
	}
}

// Invoke runs the command end to end and replies to the invoker. Failures
// before the acknowledgment are answered through replier and returned.
func (o *Orchestrator) Invoke(ctx context.Context, inv Invocation, replier Replier) (Acknowledgment, error) {
	ctx = services.WithGuildID(ctx, inv.GuildID)
	logger := logging.WithContext(ctx, o.logger)

	if !services.HasAnyRole(inv.InvokerRoles, o.opts.AllowedRoles) {
		logger.Info("eventping denied",
			logging.String("user_id", inv.Invoker.UserID),
			logging.String(logging.FieldEventType, "command_denied"),
		)
		return Acknowledgment{}, o.fail(ctx, replier, MsgUnauthorized, ErrUnauthorized)
	}

	label := o.opts.RoomPrefix + inv.Invoker.Username
	ref, err := o.provisioner.Provision(ctx, inv.GuildID, o.opts.ParentCategory, label, DefaultAccessPolicy(inv.GuildID))
	if err != nil {
		if errors.Is(err, ErrParentNotFound) {
			logger.Info("event category missing",
				logging.String("category", o.opts.ParentCategory),
				logging.String(logging.FieldEventType, "category_missing"),
			)
			return Acknowledgment{}, o.fail(ctx, replier, fmt.Sprintf(MsgParentMissing, o.formatter.parentName), err)
		}
		logging.ErrorWithContext(logger, "event room provisioning failed", "room_create_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "grant Manage Channels on the event category"),
		)
		return Acknowledgment{}, o.fail(ctx, replier, MsgProvisionFail, err)
	}
	ctx = services.WithSessionID(ctx, ref.ID)
	logger = logging.WithContext(ctx, o.logger)

	marker := o.annotator.Annotate(ctx, inv.GuildID, inv.Invoker, LeaderLabel(o.opts.LeaderPrefix, inv.Invoker.Username))
	session := NewSession(ref, inv.Invoker, inv.Departure, marker, o.now())

	recipients, err := o.resolver.Resolve(ctx, inv.GuildID)
	if err != nil {
		logging.ErrorWithContext(logger, "member listing failed; rolling back event room", "resolve_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "enable the Server Members and Presence intents"),
		)
		o.rollback(ctx, ref, marker)
		return Acknowledgment{}, o.fail(ctx, replier, MsgResolveFail, err)
	}

	assignment, err := NewRoleAssignment(o.opts.RoleLabels)
	if err != nil {
		o.rollback(ctx, ref, marker)
		return Acknowledgment{}, o.fail(ctx, replier, MsgInternalFail, err)
	}
	for _, r := range recipients {
		if err := assignment.Assign(o.opts.DefaultRole, r); err != nil {
			o.rollback(ctx, ref, marker)
			return Acknowledgment{}, o.fail(ctx, replier, MsgInternalFail, err)
		}
	}

	sent := o.dispatch(ctx, assignment, inv.Invoker.Name(), inv.Departure, ref.JoinURL)
	ack := Acknowledgment{
		SessionID:    ref.ID,
		ResourceName: ref.Name,
		JoinURL:      ref.JoinURL,
		Departure:    inv.Departure,
		Attempted:    len(sent),
		Recipients:   sent,
	}
	for _, r := range sent {
		if r.Outcome == DeliveryDelivered {
			ack.Delivered++
		} else {
			ack.Failed++
		}
	}
	session.Recipients = ack.Attempted
	if _, err := session.advance(StatusActive, o.now(), 0, ""); err != nil {
		return ack, err
	}

	logger.Info("event invitations sent",
		logging.Int("attempted", ack.Attempted),
		logging.Int("delivered", ack.Delivered),
		logging.Int("failed", ack.Failed),
		logging.String(logging.FieldEventType, "invitations_sent"),
	)

	replyErr := replier.Reply(ctx, ack.Message())
	if replyErr != nil {
		logging.WarnWithContext(logger, "acknowledgment not delivered", "ack_failed",
			logging.Error(replyErr),
			logging.String(logging.FieldImpact, "invoker does not see the confirmation; room is still monitored"),
		)
	}

	if o.registry != nil {
		if _, err := o.registry.Start(session); err != nil {
			logging.ErrorWithContext(logger, "event room monitor not started", "monitor_start_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the room manually once it empties"),
			)
			return ack, err
		}
	}
	if replyErr != nil {
		return ack, fmt.Errorf("acknowledge: %w", replyErr)
	}
	return ack, nil
}

// dispatch sends every invitation concurrently and waits for all of them.
func (o *Orchestrator) dispatch(ctx context.Context, assignment *RoleAssignment, leader, departure, joinURL string) []Recipient {
	type job struct {
		role string
		r    Recipient
	}
	jobs := make([]job, 0, assignment.Len())
	assignment.Each(func(label string, r Recipient) {
		jobs = append(jobs, job{role: label, r: r})
	})

	locator := joinURL
	if locator == "" {
		locator = NoJoinLocator
	}

	results := make([]Recipient, len(jobs))
	logger := logging.WithContext(ctx, o.logger)

	var group errgroup.Group
	group.SetLimit(o.opts.Concurrency)
	for i, j := range jobs {
		group.Go(func() error {
			r := j.r
			text := o.formatter.Format(leader, j.role, departure, locator)
			if err := o.members.SendDirectMessage(ctx, r.UserID, text); err != nil {
				r.Outcome = DeliveryFailed
				r.FailReason = err.Error()
				logging.WarnWithContext(logger, "invitation not delivered", "invitation_failed",
					logging.String("user_id", r.UserID),
					logging.String("display_name", r.DisplayName),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "member may have direct messages disabled"),
					logging.String(logging.FieldImpact, "member is not invited"),
				)
			} else {
				r.Outcome = DeliveryDelivered
			}
			results[i] = r
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func (o *Orchestrator) rollback(ctx context.Context, ref ResourceRef, marker *LabelMarker) {
	ctx = context.WithoutCancel(ctx)
	if err := o.provisioner.Release(ctx, ref); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "rollback delete failed", "rollback_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the room manually"),
			logging.String(logging.FieldImpact, "unused event room remains in the guild"),
		)
	}
	o.annotator.Restore(ctx, marker)
}

func (o *Orchestrator) fail(ctx context.Context, replier Replier, message string, cause error) error {
	if err := replier.Reply(ctx, message); err != nil {
		return errors.Join(cause, fmt.Errorf("reply: %w", err))
	}
	return cause
}
