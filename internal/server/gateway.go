package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"guildguard/internal/biz"
	"guildguard/internal/conf"
	"guildguard/internal/pkg/cooldown"
	"guildguard/internal/service"

	"github.com/bwmarrin/discordgo"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
)

const defaultCooldownSweep = time.Hour

var _ transport.Server = (*GatewayServer)(nil)

// GatewayServer runs the bot's gateway connection as a kratos server.
type GatewayServer struct {
	session      *discordgo.Session
	events       *service.EventService
	interactions *service.InteractionService
	cooldown     *cooldown.Tracker[biz.Snowflake]
	sweep        time.Duration
	log          *log.Helper

	mu       sync.Mutex
	cancel   context.CancelFunc
	handlers []func()
}

// NewGatewayServer creates a new GatewayServer.
func NewGatewayServer(session *discordgo.Session, events *service.EventService,
	interactions *service.InteractionService, tracker *cooldown.Tracker[biz.Snowflake], c *conf.Blocklist,
	logger log.Logger) *GatewayServer {
	sweep := defaultCooldownSweep
	if c != nil && c.CooldownSweepInterval.AsDuration() > 0 {
		sweep = c.CooldownSweepInterval.AsDuration()
	}
	return &GatewayServer{
		session:      session,
		events:       events,
		interactions: interactions,
		cooldown:     tracker,
		sweep:        sweep,
		log:          log.NewHelper(logger),
	}
}

// Start connects to the gateway, registers the commands and starts the
// cooldown sweep. It returns once connected.
func (g *GatewayServer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	g.mu.Lock()
	g.cancel = cancel
	g.handlers = g.register(ctx)
	g.mu.Unlock()

	if err := g.session.Open(); err != nil {
		cancel()
		return fmt.Errorf("failed to open gateway session: %w", err)
	}
	self := g.self()
	g.log.Infof("[Gateway] connected as %s", self)

	cmds, err := g.session.ApplicationCommandBulkOverwrite(self, "", service.Commands(), discordgo.WithContext(ctx))
	if err != nil {
		cancel()
		g.session.Close()
		return fmt.Errorf("failed to register commands: %w", err)
	}
	g.log.Infof("[Gateway] registered %d commands", len(cmds))

	go g.cooldown.Run(ctx, g.sweep)
	return nil
}

// Stop disconnects from the gateway.
func (g *GatewayServer) Stop(_ context.Context) error {
	g.mu.Lock()
	if g.cancel != nil {
		g.cancel()
	}
	for _, remove := range g.handlers {
		remove()
	}
	g.handlers = nil
	g.mu.Unlock()

	g.log.Info("[Gateway] closing session")
	return g.session.Close()
}

func (g *GatewayServer) self() string {
	if g.session.State == nil || g.session.State.User == nil {
		return ""
	}
	return g.session.State.User.ID
}

func (g *GatewayServer) register(ctx context.Context) []func() {
	s := g.session
	return []func(){
		s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			g.events.MessageCreate(ctx, g.self(), m.Message)
		}),
		s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageUpdate) {
			g.events.MessageUpdate(ctx, g.self(), m.Message,
				func(ctx context.Context, channel, id string) (*discordgo.Message, error) {
					return s.ChannelMessage(channel, id, discordgo.WithContext(ctx))
				})
		}),
		s.AddHandler(func(_ *discordgo.Session, e *discordgo.Event) {
			g.events.StickersUpdate(ctx, e)
		}),
		s.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildEmojisUpdate) {
			g.events.EmojisUpdate(ctx, e)
		}),
		s.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
			g.events.MemberUpdate(ctx, m.Member)
		}),
		s.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberUpdate) {
			g.events.MemberUpdate(ctx, m.Member)
		}),
		s.AddHandler(func(_ *discordgo.Session, u *discordgo.GuildUpdate) {
			g.events.GuildUpdate(ctx, u.Guild)
		}),
		s.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
			g.events.ReactionAdd(ctx, r.MessageReaction)
		}),
		s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			g.interactions.Handle(ctx, s, i.Interaction)
		}),
	}
}
