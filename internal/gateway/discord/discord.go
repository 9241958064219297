// Package discord adapts the discordgo client to the service Gateway port.
// It holds no state beyond the session and the guild it operates in; all
// registry knowledge stays in the course packages.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Gateway implements service.Gateway against a single Discord guild.
type Gateway struct {
	session *discordgo.Session
	guildID string
}

func New(session *discordgo.Session, guildID string) (*Gateway, error) {
	if session == nil {
		return nil, errors.New("session is required")
	}
	if guildID == "" {
		return nil, errors.New("guild id is required")
	}
	return &Gateway{session: session, guildID: guildID}, nil
}

func (g *Gateway) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	msg, err := g.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return msg.ID, nil
}

func (g *Gateway) CreateChannel(ctx context.Context, name string) (string, error) {
	ch, err := g.session.GuildChannelCreate(g.guildID, name, discordgo.ChannelTypeGuildText, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create channel: %w", err)
	}
	return ch.ID, nil
}

// MoveChannelToCategory reparents the channel and places it after the
// category's current last child.
func (g *Gateway) MoveChannelToCategory(ctx context.Context, channelID, categoryID string) error {
	channels, err := g.session.GuildChannels(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}
	position := 0
	for _, ch := range channels {
		if ch.ParentID == categoryID && ch.ID != channelID && ch.Position >= position {
			position = ch.Position + 1
		}
	}

	_, err = g.session.ChannelEdit(channelID, &discordgo.ChannelEdit{
		ParentID: categoryID,
		Position: &position,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("move channel: %w", err)
	}
	return nil
}

func (g *Gateway) CreateRole(ctx context.Context, name string) (string, error) {
	role, err := g.session.GuildRoleCreate(g.guildID, &discordgo.RoleParams{Name: name}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create role: %w", err)
	}
	return role.ID, nil
}

func (g *Gateway) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := g.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add reaction: %w", err)
	}
	return nil
}

// SetChannelReadAccess writes a role permission overwrite for view access.
// Discord models the everyone principal as a role whose id equals the guild
// id, so the same call covers both cases.
func (g *Gateway) SetChannelReadAccess(ctx context.Context, channelID, principalID string, allow bool) error {
	var allowBits, denyBits int64
	if allow {
		allowBits = discordgo.PermissionViewChannel
	} else {
		denyBits = discordgo.PermissionViewChannel
	}
	err := g.session.ChannelPermissionSet(
		channelID, principalID, discordgo.PermissionOverwriteTypeRole,
		allowBits, denyBits, discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("set channel permission: %w", err)
	}
	return nil
}

func (g *Gateway) SetChannelTopic(ctx context.Context, channelID, topic string) error {
	_, err := g.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Topic: topic}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("set channel topic: %w", err)
	}
	return nil
}

func (g *Gateway) GuildMember(ctx context.Context, userID string) error {
	if _, err := g.session.GuildMember(g.guildID, userID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("fetch member: %w", err)
	}
	return nil
}

func (g *Gateway) GrantRole(ctx context.Context, userID, roleID string) error {
	if err := g.session.GuildMemberRoleAdd(g.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (g *Gateway) RevokeRole(ctx context.Context, userID, roleID string) error {
	if err := g.session.GuildMemberRoleRemove(g.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}

func (g *Gateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := g.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (g *Gateway) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := g.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

func (g *Gateway) DeleteRole(ctx context.Context, roleID string) error {
	if err := g.session.GuildRoleDelete(g.guildID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}
