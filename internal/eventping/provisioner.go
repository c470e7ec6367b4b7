package eventping

import (
	"context"
	"fmt"
	"log/slog"

	"valier/internal/logging"
)

// Provisioner creates event rooms under a named parent category.
type Provisioner struct {
	resources ResourceProvider
	logger    *slog.Logger
}

// NewProvisioner constructs a provisioner.
func NewProvisioner(resources ResourceProvider, logger *slog.Logger) *Provisioner {
	return &Provisioner{resources: resources, logger: logging.NewComponentLogger(logger, "provisioner")}
}

// Provision creates a room labelled label under parentName. It returns
// ErrParentNotFound, ErrPermissionDenied or ErrProvider on failure.
func (p *Provisioner) Provision(ctx context.Context, guildID, parentName, label string, policy AccessPolicy) (ResourceRef, error) {
	parent, found, err := p.resources.FindParentGrouping(ctx, guildID, parentName)
	if err != nil {
		return ResourceRef{}, fmt.Errorf("find category %q: %w", parentName, classify(err))
	}
	if !found {
		return ResourceRef{}, fmt.Errorf("%w: %q", ErrParentNotFound, parentName)
	}

	ref, err := p.resources.CreateResource(ctx, parent, label, policy)
	if err != nil {
		return ResourceRef{}, fmt.Errorf("create room %q: %w", label, classify(err))
	}
	if ref.GuildID == "" {
		ref.GuildID = guildID
	}

	logging.WithContext(ctx, p.logger).Info("event room created",
		logging.String("resource_id", ref.ID),
		logging.String("name", ref.Name),
		logging.String("parent", parent.Name),
		logging.String(logging.FieldEventType, "room_created"),
	)
	return ref, nil
}

// Release deletes a room outside the monitor, used to roll back a failed
// invocation.
func (p *Provisioner) Release(ctx context.Context, ref ResourceRef) error {
	if err := p.resources.DeleteResource(ctx, ref); err != nil {
		return fmt.Errorf("delete room %s: %w", ref.ID, classify(err))
	}
	return nil
}
