// Package service orchestrates the course lifecycle: provisioning the
// external resource triad, syncing role membership from reactions, and bulk
// teardown. All chat-platform access goes through the Gateway port; the
// registry store and cache are injected so the same logic runs against the
// in-memory and PostgreSQL stores.
package service

import (
	"context"
	"errors"
	"log/slog"

	"coursebot/internal/course/metrics"
	"coursebot/internal/course/models"
	"coursebot/internal/course/store"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Gateway

// Domain errors surfaced to callers. Infrastructure sentinels never leak past
// this package.
var (
	// ErrDuplicateCourse rejects provisioning a course number that already
	// has a registry record.
	ErrDuplicateCourse = errors.New("course already exists")
	// ErrNotAuthorized rejects privileged operations from anyone but the
	// configured admin identity.
	ErrNotAuthorized = errors.New("not authorized")
)

// Gateway is the chat-platform collaborator. Every call crosses the network
// and may fail with a transport or permission error; no call is retried.
type Gateway interface {
	// SendMessage posts content into a channel and returns the message handle.
	SendMessage(ctx context.Context, channelID, content string) (string, error)
	// CreateChannel creates a text channel and returns its handle.
	CreateChannel(ctx context.Context, name string) (string, error)
	// MoveChannelToCategory reparents a channel, placing it last among its
	// new siblings.
	MoveChannelToCategory(ctx context.Context, channelID, categoryID string) error
	// CreateRole creates a role and returns its handle.
	CreateRole(ctx context.Context, name string) (string, error)
	// AddReaction attaches an emoji reaction to a message.
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	// SetChannelReadAccess grants or denies a principal (role or the
	// everyone principal) visibility of a channel.
	SetChannelReadAccess(ctx context.Context, channelID, principalID string, allow bool) error
	// SetChannelTopic sets a channel's topic text.
	SetChannelTopic(ctx context.Context, channelID, topic string) error
	// GuildMember resolves a user's guild membership. Returns an error for
	// users who are not (or no longer) members.
	GuildMember(ctx context.Context, userID string) error
	// GrantRole adds a role to a guild member.
	GrantRole(ctx context.Context, userID, roleID string) error
	// RevokeRole removes a role from a guild member.
	RevokeRole(ctx context.Context, userID, roleID string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	DeleteChannel(ctx context.Context, channelID string) error
	DeleteRole(ctx context.Context, roleID string) error
}

// Resolver serves message/channel/role lookups on the reaction and teardown
// paths. Satisfied by cache.Lookup; provisioning's duplicate check bypasses it
// and reads the store directly.
type Resolver interface {
	FindByExternalID(ctx context.Context, kind models.LookupKind, id string) (*models.CourseRecord, error)
	Purge()
}

// Runtime carries the guild-scoped handles the bot resolves once at startup.
// It replaces the process-wide globals of earlier revisions; constructors
// refuse a zero-valued runtime instead of trusting late initialization.
type Runtime struct {
	GuildID       string // also the "everyone" principal on the chat platform
	ListChannelID string // channel holding the announcement list
	CategoryID    string // category new course channels are moved into
	ModRoleID     string // moderator role granted on every course channel
	ReactEmoji    string // marker reaction attached to announcements
	BotUserID     string // the bot's own identity, for self-reaction suppression
	AdminUserID   string // the only identity allowed to run teardown
}

// Validate rejects a runtime with any unresolved handle.
func (r Runtime) Validate() error {
	switch {
	case r.GuildID == "":
		return errors.New("guild id is not set")
	case r.ListChannelID == "":
		return errors.New("list channel id is not set")
	case r.CategoryID == "":
		return errors.New("category id is not set")
	case r.ModRoleID == "":
		return errors.New("mod role id is not set")
	case r.ReactEmoji == "":
		return errors.New("react emoji is not set")
	case r.BotUserID == "":
		return errors.New("bot user id is not set")
	case r.AdminUserID == "":
		return errors.New("admin user id is not set")
	}
	return nil
}

// ErrorPolicy decides what a multi-record driver does when one record fails.
type ErrorPolicy int

const (
	// PolicyAbort stops at the first failure and propagates it.
	PolicyAbort ErrorPolicy = iota
	// PolicyContinue logs the failure and moves on to the next record.
	PolicyContinue
)

// Service implements the course lifecycle operations.
type Service struct {
	store    store.Store
	resolver Resolver
	gateway  Gateway
	runtime  Runtime

	logger         *slog.Logger
	metrics        *metrics.Metrics
	teardownPolicy ErrorPolicy
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTeardownPolicy overrides the teardown error policy. The default,
// PolicyAbort, stops mid-loop and leaves the store untouched.
func WithTeardownPolicy(policy ErrorPolicy) Option {
	return func(s *Service) {
		s.teardownPolicy = policy
	}
}

func New(st store.Store, resolver Resolver, gateway Gateway, runtime Runtime, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if err := runtime.Validate(); err != nil {
		return nil, err
	}

	svc := &Service{
		store:          st,
		resolver:       resolver,
		gateway:        gateway,
		runtime:        runtime,
		logger:         slog.New(slog.DiscardHandler),
		teardownPolicy: PolicyAbort,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}
