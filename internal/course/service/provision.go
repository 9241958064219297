package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursebot/internal/course/models"
	"coursebot/pkg/platform/sentinel"
)

// Provision creates the full resource triad for a course and records it in
// the registry: announcement message, discussion channel (moved into the
// course category and locked down to the new role plus moderators), and the
// access role, with the marker reaction attached to the announcement.
//
// The registry record is written last, after every external resource exists.
// There is no rollback: a failure partway leaves the already-created resources
// orphaned on the chat platform, and a retry will not find a record for the
// number, so it recreates resources from the top. The duplicate check is the
// only idempotency guard.
func (s *Service) Provision(ctx context.Context, number, name string) (*models.CourseRecord, error) {
	start := time.Now()
	record, err := s.provision(ctx, number, name)
	if err != nil {
		s.metrics.IncrementProvisionFailure()
		return nil, err
	}
	s.metrics.IncrementProvisioned()
	s.metrics.ObserveProvision(start)
	return record, nil
}

func (s *Service) provision(ctx context.Context, number, name string) (*models.CourseRecord, error) {
	number = models.NormalizeNumber(number)
	if number == "" {
		return nil, errors.New("course number is required")
	}
	if name == "" {
		return nil, errors.New("course name is required")
	}

	// Duplicate check reads the store, never the cache: it must see current
	// truth, and negative cache entries are not invalidated on insert.
	_, err := s.store.FindByNumber(ctx, number)
	switch {
	case err == nil:
		return nil, fmt.Errorf("course %q: %w", number, ErrDuplicateCourse)
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, fmt.Errorf("duplicate check for %q: %w", number, err)
	}

	messageID, err := s.gateway.SendMessage(ctx, s.runtime.ListChannelID, fmt.Sprintf("%s - %s", number, name))
	if err != nil {
		return nil, fmt.Errorf("send announcement for %q: %w", number, err)
	}

	channelName := models.SanitizeChannelName(number)
	channelID, err := s.gateway.CreateChannel(ctx, channelName)
	if err != nil {
		return nil, fmt.Errorf("create channel for %q: %w", number, err)
	}
	if err := s.gateway.MoveChannelToCategory(ctx, channelID, s.runtime.CategoryID); err != nil {
		return nil, fmt.Errorf("move channel for %q: %w", number, err)
	}

	roleID, err := s.gateway.CreateRole(ctx, channelName)
	if err != nil {
		return nil, fmt.Errorf("create role for %q: %w", number, err)
	}

	if err := s.gateway.AddReaction(ctx, s.runtime.ListChannelID, messageID, s.runtime.ReactEmoji); err != nil {
		return nil, fmt.Errorf("seed reaction for %q: %w", number, err)
	}

	// Visibility: hidden from everyone, visible to the course role and mods.
	if err := s.gateway.SetChannelReadAccess(ctx, channelID, s.runtime.GuildID, false); err != nil {
		return nil, fmt.Errorf("deny everyone on %q: %w", number, err)
	}
	if err := s.gateway.SetChannelReadAccess(ctx, channelID, roleID, true); err != nil {
		return nil, fmt.Errorf("allow course role on %q: %w", number, err)
	}
	if err := s.gateway.SetChannelReadAccess(ctx, channelID, s.runtime.ModRoleID, true); err != nil {
		return nil, fmt.Errorf("allow mod role on %q: %w", number, err)
	}

	if err := s.gateway.SetChannelTopic(ctx, channelID, name); err != nil {
		return nil, fmt.Errorf("set topic for %q: %w", number, err)
	}

	record := &models.CourseRecord{
		Number:    number,
		MessageID: messageID,
		ChannelID: channelID,
		RoleID:    roleID,
		Name:      name,
	}
	if err := s.store.Insert(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, fmt.Errorf("course %q: %w", number, ErrDuplicateCourse)
		}
		return nil, fmt.Errorf("insert record for %q: %w", number, err)
	}

	s.logger.InfoContext(ctx, "course provisioned",
		"number", number,
		"channel_id", channelID,
		"role_id", roleID,
	)
	return record, nil
}
