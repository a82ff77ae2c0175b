package discord

import (
	"context"
	"errors"
	"sync"

	"guildguard/internal/biz"

	"github.com/bwmarrin/discordgo"
)

// InteractionSession implements biz.ModeratorSession for one command
// interaction. Replies and prompts are sent as followup messages.
type InteractionSession struct {
	s           *discordgo.Session
	waiter      *Waiter
	interaction *discordgo.Interaction
	flags       discordgo.MessageFlags

	mu      sync.Mutex
	pending map[biz.Snowflake]pendingPrompt
}

type pendingPrompt struct {
	ch      <-chan *discordgo.Interaction
	release func()
}

// NewInteractionSession wraps interaction. Responses are only visible to
// the moderator when ephemeral is set.
func NewInteractionSession(s *discordgo.Session, waiter *Waiter, interaction *discordgo.Interaction,
	ephemeral bool) *InteractionSession {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return &InteractionSession{
		s:           s,
		waiter:      waiter,
		interaction: interaction,
		flags:       flags,
		pending:     make(map[biz.Snowflake]pendingPrompt),
	}
}

// Moderator implements biz.ModeratorSession.
func (m *InteractionSession) Moderator() biz.Snowflake {
	return snowflake(interactionUserID(m.interaction))
}

// Defer acknowledges the interaction so followups can be sent later.
func (m *InteractionSession) Defer(ctx context.Context) error {
	return m.s.InteractionRespond(m.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: m.flags},
	}, discordgo.WithContext(ctx))
}

// Reply implements biz.ModeratorSession.
func (m *InteractionSession) Reply(ctx context.Context, content string) error {
	_, err := m.s.FollowupMessageCreate(m.interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   m.flags,
	}, discordgo.WithContext(ctx))
	return err
}

// Prompt implements biz.ModeratorSession. The decision waiter is registered
// before Prompt returns so an early click is not lost.
func (m *InteractionSession) Prompt(ctx context.Context, index int, imageURL string) (biz.Snowflake, error) {
	msg, err := m.s.FollowupMessageCreate(m.interaction, true, &discordgo.WebhookParams{
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Block",
					Style:    discordgo.DangerButton,
					CustomID: biz.DecisionID(index, biz.DecisionBlock),
				},
				discordgo.Button{
					Label:    "Keep",
					Style:    discordgo.SuccessButton,
					CustomID: biz.DecisionID(index, biz.DecisionKeep),
				},
			}},
		},
		Embeds: []*discordgo.MessageEmbed{{Image: &discordgo.MessageEmbedImage{URL: imageURL}}},
		Flags:  m.flags,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	id := snowflake(msg.ID)
	ch, release := m.waiter.Expect(msg.ID, interactionUserID(m.interaction))
	m.mu.Lock()
	m.pending[id] = pendingPrompt{ch: ch, release: release}
	m.mu.Unlock()
	return id, nil
}

// AwaitDecision implements biz.ModeratorSession.
func (m *InteractionSession) AwaitDecision(ctx context.Context, prompt biz.Snowflake) (string, error) {
	m.mu.Lock()
	p, ok := m.pending[prompt]
	m.mu.Unlock()
	if !ok {
		return "", errors.New("unknown prompt " + prompt.String())
	}
	defer p.release()

	select {
	case i := <-p.ch:
		return i.MessageComponentData().CustomID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// DeletePrompt implements biz.ModeratorSession.
func (m *InteractionSession) DeletePrompt(ctx context.Context, prompt biz.Snowflake) error {
	m.mu.Lock()
	if p, ok := m.pending[prompt]; ok {
		p.release()
		delete(m.pending, prompt)
	}
	m.mu.Unlock()
	return m.s.FollowupMessageDelete(m.interaction, prompt.String(), discordgo.WithContext(ctx))
}
