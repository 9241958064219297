package discord

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"coursebot/internal/course/service"
)

// CommandPrefix introduces every bot command in guild chat.
const CommandPrefix = "$coursebot "

// The teardown command name is deliberately awkward to type.
const commandDeleteAll = "delete_all_yespleaseactually"

// CourseService is the slice of the course service the event loop drives.
type CourseService interface {
	ReactionAdd(ctx context.Context, messageID, userID string) error
	ReactionRemove(ctx context.Context, messageID, userID string) error
	Teardown(ctx context.Context, callerID string) error
}

// Events routes gateway events (raw reactions, chat commands) to the course
// service. Handler errors are logged, never propagated: one bad event must
// not take the session down.
type Events struct {
	service CourseService
	guildID string
	logger  *slog.Logger
}

func NewEvents(svc CourseService, guildID string, logger *slog.Logger) (*Events, error) {
	if svc == nil {
		return nil, errors.New("course service is required")
	}
	if guildID == "" {
		return nil, errors.New("guild id is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Events{service: svc, guildID: guildID, logger: logger}, nil
}

// Register attaches all handlers to the session. Call before Open.
func (e *Events) Register(session *discordgo.Session) {
	session.AddHandler(e.onReactionAdd)
	session.AddHandler(e.onReactionRemove)
	session.AddHandler(e.onMessage)
}

func (e *Events) onReactionAdd(_ *discordgo.Session, event *discordgo.MessageReactionAdd) {
	if event.GuildID != e.guildID {
		return
	}
	ctx := context.Background()
	if err := e.service.ReactionAdd(ctx, event.MessageID, event.UserID); err != nil {
		e.logger.ErrorContext(ctx, "reaction add failed",
			"message_id", event.MessageID,
			"user_id", event.UserID,
			"error", err,
		)
	}
}

func (e *Events) onReactionRemove(_ *discordgo.Session, event *discordgo.MessageReactionRemove) {
	if event.GuildID != e.guildID {
		return
	}
	ctx := context.Background()
	if err := e.service.ReactionRemove(ctx, event.MessageID, event.UserID); err != nil {
		e.logger.ErrorContext(ctx, "reaction remove failed",
			"message_id", event.MessageID,
			"user_id", event.UserID,
			"error", err,
		)
	}
}

func (e *Events) onMessage(session *discordgo.Session, event *discordgo.MessageCreate) {
	if event.GuildID != e.guildID || event.Author == nil || event.Author.Bot {
		return
	}
	command, ok := strings.CutPrefix(event.Content, CommandPrefix)
	if !ok {
		return
	}

	ctx := context.Background()
	switch strings.TrimSpace(command) {
	case commandDeleteAll:
		err := e.service.Teardown(ctx, event.Author.ID)
		switch {
		case errors.Is(err, service.ErrNotAuthorized):
			e.reply(session, event.ChannelID, "Nice try.")
		case err != nil:
			e.logger.ErrorContext(ctx, "teardown failed", "error", err)
			e.reply(session, event.ChannelID, "Teardown failed, registry kept. Check the logs.")
		default:
			e.reply(session, event.ChannelID, "All courses deleted.")
		}
	default:
		e.logger.InfoContext(ctx, "unknown command ignored", "command", command)
	}
}

func (e *Events) reply(session *discordgo.Session, channelID, content string) {
	if _, err := session.ChannelMessageSend(channelID, content); err != nil {
		e.logger.Error("could not send reply", "channel_id", channelID, "error", err)
	}
}
