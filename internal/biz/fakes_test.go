package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"guildguard/internal/conf"
	"guildguard/internal/pkg/hash"

	"github.com/go-kratos/kratos/v2/log"
)

type fakeGuildRepo struct {
	mu       sync.Mutex
	profiles map[Snowflake]*GuildProfile
	loads    int
	updates  int
	loadErr  error
	// conflicts makes the next n updates lose the revision race.
	conflicts int
}

func newFakeGuildRepo(guilds ...Snowflake) *fakeGuildRepo {
	r := &fakeGuildRepo{profiles: make(map[Snowflake]*GuildProfile)}
	for _, g := range guilds {
		r.profiles[g] = &GuildProfile{ID: g}
	}
	return r
}

func (r *fakeGuildRepo) GetProfile(_ context.Context, guild Snowflake) (*GuildProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[guild]
	if !ok {
		return nil, ErrGuildNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeGuildRepo) UpsertProfile(_ context.Context, p *GuildProfile) (*GuildProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.profiles[p.ID]
	if !ok {
		cur = &GuildProfile{ID: p.ID}
		r.profiles[p.ID] = cur
	}
	cur.ModRole = p.ModRole
	cur.ModChannel = p.ModChannel
	cp := *cur
	return &cp, nil
}

func (r *fakeGuildRepo) GetBlocklist(_ context.Context, guild Snowflake) (*BlocklistRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	p, ok := r.profiles[guild]
	if !ok {
		return nil, ErrGuildNotFound
	}
	return &BlocklistRecord{Blob: append([]byte(nil), p.BlockedImages...), Revision: p.Revision}, nil
}

func (r *fakeGuildRepo) UpdateBlocklist(_ context.Context, guild Snowflake, blob []byte, revision int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[guild]
	if !ok {
		return false, ErrGuildNotFound
	}
	if r.conflicts > 0 {
		r.conflicts--
		p.Revision++
		return false, nil
	}
	if p.Revision != revision {
		return false, nil
	}
	r.updates++
	p.BlockedImages = append([]byte(nil), blob...)
	p.Revision++
	return true, nil
}

func (r *fakeGuildRepo) blob(guild Snowflake) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.profiles[guild].BlockedImages...)
}

func (r *fakeGuildRepo) setBlob(guild Snowflake, hashes ...hash.FixedHash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[guild].BlockedImages = EncodeBlocklist(hashes)
}

type fakeImages struct {
	mu     sync.Mutex
	hashes map[string]hash.FixedHash
	calls  int
}

func newFakeImages() *fakeImages {
	return &fakeImages{hashes: make(map[string]hash.FixedHash)}
}

func (f *fakeImages) add(url string, h hash.FixedHash) *fakeImages {
	f.hashes[url] = h
	return f
}

func (f *fakeImages) HashURL(_ context.Context, url string) (hash.FixedHash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	h, ok := f.hashes[url]
	if !ok {
		return hash.FixedHash{}, ErrImageFetch.WithCause(fmt.Errorf("no image at %s", url))
	}
	return h, nil
}

type fakePlatform struct {
	mu    sync.Mutex
	calls []string
	// errs maps a call name to the error it returns.
	errs     map[string]error
	messages []Snowflake
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{errs: make(map[string]error)}
}

func (p *fakePlatform) record(format string, args ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	call := fmt.Sprintf(format, args...)
	p.calls = append(p.calls, call)
	name, _, _ := strings.Cut(call, " ")
	return p.errs[name]
}

func (p *fakePlatform) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePlatform) SendMessage(_ context.Context, channel Snowflake, content string) error {
	return p.record("send %s %s", channel, content)
}

func (p *fakePlatform) DeleteMessage(_ context.Context, channel, message Snowflake) error {
	return p.record("delete %s/%s", channel, message)
}

func (p *fakePlatform) BulkDeleteMessages(_ context.Context, channel Snowflake, messages []Snowflake) error {
	return p.record("bulk %s %d", channel, len(messages))
}

func (p *fakePlatform) MessagesAfter(_ context.Context, _, after Snowflake, limit int) ([]Snowflake, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var page []Snowflake
	for _, id := range p.messages {
		if id > after && len(page) < limit {
			page = append(page, id)
		}
	}
	return page, nil
}

func (p *fakePlatform) DeleteEmoji(_ context.Context, guild, emoji Snowflake) error {
	return p.record("emoji %s/%s", guild, emoji)
}

func (p *fakePlatform) DeleteSticker(_ context.Context, guild, sticker Snowflake) error {
	return p.record("sticker %s/%s", guild, sticker)
}

func (p *fakePlatform) DeleteReactionEmoji(_ context.Context, channel, message Snowflake, emoji EmojiRef) error {
	return p.record("reaction %s/%s/%s", channel, message, emoji.ID)
}

func (p *fakePlatform) ClearGuildIcon(_ context.Context, guild Snowflake) error {
	return p.record("icon %s", guild)
}

func (p *fakePlatform) ClearGuildBanner(_ context.Context, guild Snowflake) error {
	return p.record("banner %s", guild)
}

func (p *fakePlatform) SendDirectMessage(_ context.Context, user Snowflake, _ string) error {
	return p.record("dm %s", user)
}

func (p *fakePlatform) KickMember(_ context.Context, guild, user Snowflake, reason string) error {
	return p.record("kick %s/%s %s", guild, user, reason)
}

func (p *fakePlatform) GuildName(_ context.Context, _ Snowflake) (string, error) {
	return "Test Guild", nil
}

// fakeSession answers each prompt with the payload scripted for its
// candidate index. Indexes without a script never answer.
type fakeSession struct {
	mu        sync.Mutex
	moderator Snowflake
	answers   map[int]string
	prompts   map[Snowflake]int
	deleted   []Snowflake
	replies   []string
	next      Snowflake
	promptErr error
}

func newFakeSession(answers map[int]string) *fakeSession {
	return &fakeSession{
		moderator: 42,
		answers:   answers,
		prompts:   make(map[Snowflake]int),
		next:      1000,
	}
}

func (s *fakeSession) Moderator() Snowflake { return s.moderator }

func (s *fakeSession) Reply(_ context.Context, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, content)
	return nil
}

func (s *fakeSession) Prompt(_ context.Context, index int, _ string) (Snowflake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.promptErr != nil {
		return 0, s.promptErr
	}
	s.next++
	s.prompts[s.next] = index
	return s.next, nil
}

func (s *fakeSession) AwaitDecision(ctx context.Context, prompt Snowflake) (string, error) {
	s.mu.Lock()
	answer, ok := s.answers[s.prompts[prompt]]
	s.mu.Unlock()
	if !ok {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return answer, nil
}

func (s *fakeSession) DeletePrompt(_ context.Context, prompt Snowflake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, prompt)
	return nil
}

func (s *fakeSession) lastReply() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return ""
	}
	return s.replies[len(s.replies)-1]
}

func testBlocklistConf() *conf.Blocklist {
	return &conf.Blocklist{
		MergeRetries:  3,
		PromptTimeout: &conf.Duration{Duration: 50 * time.Millisecond},
	}
}

func newTestBlocklist(repo GuildProfileRepo, images ImageHashRepo) *BlocklistUsecase {
	return NewBlocklistUsecase(repo, images, testBlocklistConf(), nil, log.DefaultLogger)
}

var errPlatform = errors.New("platform unavailable")
