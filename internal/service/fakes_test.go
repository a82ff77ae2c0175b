package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"guildguard/internal/biz"
	"guildguard/internal/conf"
	"guildguard/internal/pkg/hash"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	testGuild   biz.Snowflake = 7
	testModRole biz.Snowflake = 70
	testChannel biz.Snowflake = 700
	testUser    biz.Snowflake = 7000
)

type memoryRepo struct {
	mu       sync.Mutex
	profiles map[biz.Snowflake]*biz.GuildProfile
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{profiles: make(map[biz.Snowflake]*biz.GuildProfile)}
}

func (r *memoryRepo) withGuild(guild, modRole biz.Snowflake, hashes ...hash.FixedHash) *memoryRepo {
	r.profiles[guild] = &biz.GuildProfile{ID: guild, ModRole: modRole, BlockedImages: biz.EncodeBlocklist(hashes)}
	return r
}

func (r *memoryRepo) GetProfile(_ context.Context, guild biz.Snowflake) (*biz.GuildProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[guild]
	if !ok {
		return nil, biz.ErrGuildNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepo) UpsertProfile(_ context.Context, p *biz.GuildProfile) (*biz.GuildProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.profiles[p.ID]
	if !ok {
		cur = &biz.GuildProfile{ID: p.ID}
		r.profiles[p.ID] = cur
	}
	cur.ModRole, cur.ModChannel = p.ModRole, p.ModChannel
	cp := *cur
	return &cp, nil
}

func (r *memoryRepo) GetBlocklist(_ context.Context, guild biz.Snowflake) (*biz.BlocklistRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[guild]
	if !ok {
		return nil, biz.ErrGuildNotFound
	}
	return &biz.BlocklistRecord{Blob: append([]byte(nil), p.BlockedImages...), Revision: p.Revision}, nil
}

func (r *memoryRepo) UpdateBlocklist(_ context.Context, guild biz.Snowflake, blob []byte, revision int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[guild]
	if !ok {
		return false, biz.ErrGuildNotFound
	}
	if p.Revision != revision {
		return false, nil
	}
	p.BlockedImages = append([]byte(nil), blob...)
	p.Revision++
	return true, nil
}

type staticImages map[string]hash.FixedHash

func (s staticImages) HashURL(_ context.Context, url string) (hash.FixedHash, error) {
	h, ok := s[url]
	if !ok {
		return hash.FixedHash{}, biz.ErrImageFetch.WithCause(fmt.Errorf("no image at %s", url))
	}
	return h, nil
}

// recordingPlatform records every remediation call.
type recordingPlatform struct {
	mu    sync.Mutex
	calls []string
}

func (p *recordingPlatform) record(format string, args ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
	return nil
}

func (p *recordingPlatform) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *recordingPlatform) SendMessage(_ context.Context, channel biz.Snowflake, _ string) error {
	return p.record("send %s", channel)
}

func (p *recordingPlatform) DeleteMessage(_ context.Context, channel, message biz.Snowflake) error {
	return p.record("delete %s/%s", channel, message)
}

func (p *recordingPlatform) BulkDeleteMessages(_ context.Context, channel biz.Snowflake, messages []biz.Snowflake) error {
	return p.record("bulk %s %d", channel, len(messages))
}

func (p *recordingPlatform) MessagesAfter(context.Context, biz.Snowflake, biz.Snowflake, int) ([]biz.Snowflake, error) {
	return nil, nil
}

func (p *recordingPlatform) DeleteEmoji(_ context.Context, guild, emoji biz.Snowflake) error {
	return p.record("emoji %s/%s", guild, emoji)
}

func (p *recordingPlatform) DeleteSticker(_ context.Context, guild, sticker biz.Snowflake) error {
	return p.record("sticker %s/%s", guild, sticker)
}

func (p *recordingPlatform) DeleteReactionEmoji(_ context.Context, channel, message biz.Snowflake, emoji biz.EmojiRef) error {
	return p.record("reaction %s/%s/%s", channel, message, emoji.ID)
}

func (p *recordingPlatform) ClearGuildIcon(_ context.Context, guild biz.Snowflake) error {
	return p.record("icon %s", guild)
}

func (p *recordingPlatform) ClearGuildBanner(_ context.Context, guild biz.Snowflake) error {
	return p.record("banner %s", guild)
}

func (p *recordingPlatform) SendDirectMessage(_ context.Context, user biz.Snowflake, _ string) error {
	return p.record("dm %s", user)
}

func (p *recordingPlatform) KickMember(_ context.Context, guild, user biz.Snowflake, _ string) error {
	return p.record("kick %s/%s", guild, user)
}

func (p *recordingPlatform) GuildName(context.Context, biz.Snowflake) (string, error) {
	return "Test Guild", nil
}

type guildImages struct {
	icon, banner string
	err          error
}

func (g guildImages) GuildImages(context.Context, biz.Snowflake) (string, string, error) {
	return g.icon, g.banner, g.err
}

// scriptedResponder answers every prompt with decision.
type scriptedResponder struct {
	mu       sync.Mutex
	decision biz.Decision
	deferred int
	prompts  map[biz.Snowflake]int
	replies  []string
}

func newResponder(d biz.Decision) *scriptedResponder {
	return &scriptedResponder{decision: d, prompts: make(map[biz.Snowflake]int)}
}

func (r *scriptedResponder) Moderator() biz.Snowflake { return testUser }

func (r *scriptedResponder) Defer(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deferred++
	return nil
}

func (r *scriptedResponder) Reply(_ context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, content)
	return nil
}

func (r *scriptedResponder) Prompt(_ context.Context, index int, _ string) (biz.Snowflake, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := biz.Snowflake(len(r.prompts) + 1)
	r.prompts[id] = index
	return id, nil
}

func (r *scriptedResponder) AwaitDecision(_ context.Context, prompt biz.Snowflake) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return biz.DecisionID(r.prompts[prompt], r.decision), nil
}

func (r *scriptedResponder) DeletePrompt(context.Context, biz.Snowflake) error { return nil }

func (r *scriptedResponder) lastReply() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.replies) == 0 {
		return ""
	}
	return r.replies[len(r.replies)-1]
}

type testStack struct {
	repo       *memoryRepo
	platform   *recordingPlatform
	blocklist  *biz.BlocklistUsecase
	moderation *ModerationService
}

func newTestStack(repo *memoryRepo, images staticImages, icons GuildImageSource) *testStack {
	c := &conf.Blocklist{
		PromptTimeout:   &conf.Duration{Duration: 50 * time.Millisecond},
		CommandCooldown: &conf.Duration{Duration: time.Hour},
	}
	logger := log.DefaultLogger
	platform := &recordingPlatform{}
	blocklist := biz.NewBlocklistUsecase(repo, images, c, nil, logger)
	return &testStack{
		repo:      repo,
		platform:  platform,
		blocklist: blocklist,
		moderation: NewModerationService(
			biz.NewGuildUsecase(repo, logger),
			biz.NewConfirmUsecase(blocklist, platform, c, nil, logger),
			biz.NewPurgeUsecase(platform, c, logger),
			icons,
			NewCommandCooldown(c),
			logger,
		),
	}
}

func moderatorInvocation(command string, user biz.Snowflake) Invocation {
	return Invocation{
		Command: command,
		Guild:   testGuild,
		Channel: testChannel,
		User:    user,
		Roles:   []biz.Snowflake{testModRole},
	}
}
