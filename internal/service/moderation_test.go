package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"guildguard/internal/biz"
	"guildguard/internal/pkg/hash"
)

func TestModerationService_Access(t *testing.T) {
	ctx := context.Background()
	msg := &biz.Message{ID: 1, Guild: testGuild, Channel: testChannel, Attachments: []string{"https://cdn.example/a.png"}}

	tests := []struct {
		name  string
		repo  *memoryRepo
		roles []biz.Snowflake
		want  string
	}{
		{name: "not set up", repo: newMemoryRepo(), roles: []biz.Snowflake{testModRole}, want: ReplyNotSetUp},
		{name: "missing role", repo: newMemoryRepo().withGuild(testGuild, testModRole), roles: []biz.Snowflake{1}, want: ReplyNotAuthorized},
		{name: "no mod role configured", repo: newMemoryRepo().withGuild(testGuild, 0), roles: []biz.Snowflake{0}, want: ReplyNotAuthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack := newTestStack(tt.repo, staticImages{}, guildImages{})
			r := newResponder(biz.DecisionBlock)
			inv := moderatorInvocation(CommandBlockMessage, testUser)
			inv.Roles = tt.roles

			stack.moderation.BlockMessage(ctx, inv, r, msg)

			if r.deferred != 1 {
				t.Errorf("deferred %d times, want 1", r.deferred)
			}
			if got := r.lastReply(); got != tt.want {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
			if len(r.prompts) != 0 {
				t.Errorf("prompted %d times for a refused command", len(r.prompts))
			}
		})
	}
}

func TestModerationService_BlockMessage(t *testing.T) {
	ctx := context.Background()
	h := hash.FromUint64(0x1234)
	repo := newMemoryRepo().withGuild(testGuild, testModRole)
	stack := newTestStack(repo, staticImages{"https://cdn.example/a.png": h}, guildImages{})
	r := newResponder(biz.DecisionBlock)

	stack.moderation.BlockMessage(ctx, moderatorInvocation(CommandBlockMessage, testUser), r, &biz.Message{
		ID:          11,
		Guild:       testGuild,
		Channel:     testChannel,
		Author:      99,
		Attachments: []string{"https://cdn.example/a.png"},
	})

	if got := r.lastReply(); got != biz.ReplyBlocked {
		t.Fatalf("reply = %q, want %q", got, biz.ReplyBlocked)
	}
	set, err := stack.blocklist.Load(ctx, testGuild)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !set.Contains(h) {
		t.Error("blocked hash was not stored")
	}
	if !slices.Contains(stack.platform.recorded(), "delete 700/11") {
		t.Errorf("message was not deleted: %v", stack.platform.recorded())
	}
}

func TestModerationService_NoImages(t *testing.T) {
	ctx := context.Background()

	t.Run("message without images", func(t *testing.T) {
		stack := newTestStack(newMemoryRepo().withGuild(testGuild, testModRole), staticImages{}, guildImages{})
		r := newResponder(biz.DecisionBlock)
		stack.moderation.BlockMessage(ctx, moderatorInvocation(CommandBlockMessage, testUser), r,
			&biz.Message{ID: 1, Guild: testGuild, Channel: testChannel, Content: "hello"})
		if got := r.lastReply(); got != ReplyNoImages {
			t.Errorf("reply = %q, want %q", got, ReplyNoImages)
		}
	})

	t.Run("guild without icon or banner", func(t *testing.T) {
		stack := newTestStack(newMemoryRepo().withGuild(testGuild, testModRole), staticImages{}, guildImages{})
		r := newResponder(biz.DecisionBlock)
		stack.moderation.BlockIcon(ctx, moderatorInvocation(CommandBlockIcon, testUser), r)
		if got := r.lastReply(); got != ReplyNoImages {
			t.Errorf("reply = %q, want %q", got, ReplyNoImages)
		}
	})

	t.Run("unresolvable sticker", func(t *testing.T) {
		stack := newTestStack(newMemoryRepo().withGuild(testGuild, testModRole), staticImages{}, guildImages{})
		r := newResponder(biz.DecisionBlock)
		stack.moderation.BlockMessage(ctx, moderatorInvocation(CommandBlockMessage, testUser), r, &biz.Message{
			ID:       1,
			Guild:    testGuild,
			Channel:  testChannel,
			Stickers: []biz.StickerRef{{ID: 5, Format: biz.StickerFormatLottie}},
		})
		if got := r.lastReply(); got != ReplyNoImages {
			t.Errorf("reply = %q, want %q", got, ReplyNoImages)
		}
	})
}

func TestModerationService_BlockIcon(t *testing.T) {
	ctx := context.Background()
	icon := hash.FromUint64(0xaa)
	repo := newMemoryRepo().withGuild(testGuild, testModRole)
	stack := newTestStack(repo, staticImages{"https://cdn.example/icon.png": icon},
		guildImages{icon: "https://cdn.example/icon.png"})
	r := newResponder(biz.DecisionBlock)

	stack.moderation.BlockIcon(ctx, moderatorInvocation(CommandBlockIcon, testUser), r)

	if got := r.lastReply(); got != biz.ReplyBlocked {
		t.Fatalf("reply = %q, want %q", got, biz.ReplyBlocked)
	}
	if !slices.Contains(stack.platform.recorded(), "icon 7") {
		t.Errorf("icon was not cleared: %v", stack.platform.recorded())
	}
}

func TestModerationService_BlockAvatar(t *testing.T) {
	ctx := context.Background()
	avatar := hash.FromUint64(0xbb)
	repo := newMemoryRepo().withGuild(testGuild, testModRole)
	stack := newTestStack(repo, staticImages{"https://cdn.example/avatar.png": avatar}, guildImages{})
	r := newResponder(biz.DecisionKeep)

	stack.moderation.BlockAvatar(ctx, moderatorInvocation(CommandBlockAvatar, testUser), r, 55,
		"https://cdn.example/avatar.png")

	if got := r.lastReply(); got != biz.ReplyNothingBlocked {
		t.Fatalf("reply = %q, want %q", got, biz.ReplyNothingBlocked)
	}
	if calls := stack.platform.recorded(); len(calls) != 0 {
		t.Errorf("kept avatar caused platform calls: %v", calls)
	}
}

func TestModerationService_GuildImagesError(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(newMemoryRepo().withGuild(testGuild, testModRole), staticImages{},
		guildImages{err: errors.New("gateway down")})
	r := newResponder(biz.DecisionBlock)

	stack.moderation.BlockIcon(ctx, moderatorInvocation(CommandBlockIcon, testUser), r)

	if got := r.lastReply(); got != ReplyError {
		t.Errorf("reply = %q, want %q", got, ReplyError)
	}
}

func TestModerationService_Cooldown(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(newMemoryRepo().withGuild(testGuild, testModRole), staticImages{}, guildImages{})

	first := newResponder(biz.DecisionBlock)
	stack.moderation.PurgeTo(ctx, moderatorInvocation(CommandPurgeTo, testUser), first, testChannel, 5)
	if got := first.lastReply(); got != biz.ReplyPurged {
		t.Fatalf("first reply = %q, want %q", got, biz.ReplyPurged)
	}

	second := newResponder(biz.DecisionBlock)
	stack.moderation.PurgeTo(ctx, moderatorInvocation(CommandPurgeTo, testUser), second, testChannel, 5)
	if got := second.lastReply(); got != ReplyCooldown {
		t.Errorf("second reply = %q, want %q", got, ReplyCooldown)
	}

	other := newResponder(biz.DecisionBlock)
	stack.moderation.PurgeTo(ctx, moderatorInvocation(CommandPurgeTo, testUser+1), other, testChannel, 5)
	if got := other.lastReply(); got != biz.ReplyPurged {
		t.Errorf("other user reply = %q, want %q", got, biz.ReplyPurged)
	}
}

func TestModerationService_PurgeTo(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack(newMemoryRepo().withGuild(testGuild, testModRole), staticImages{}, guildImages{})
	r := newResponder(biz.DecisionBlock)

	stack.moderation.PurgeTo(ctx, moderatorInvocation(CommandPurgeTo, testUser), r, testChannel, 5)

	if got := stack.platform.recorded(); !slices.Equal(got, []string{"delete 700/5"}) {
		t.Errorf("calls = %v, want only the target deleted", got)
	}
}

func TestModerationService_Setup(t *testing.T) {
	ctx := context.Background()

	t.Run("administrator", func(t *testing.T) {
		stack := newTestStack(newMemoryRepo(), staticImages{}, guildImages{})
		r := newResponder(biz.DecisionBlock)
		inv := Invocation{Command: CommandSetup, Guild: testGuild, User: testUser, Admin: true}

		stack.moderation.Setup(ctx, inv, r, testModRole, testChannel)

		p, err := stack.repo.GetProfile(ctx, testGuild)
		if err != nil {
			t.Fatalf("GetProfile() error = %v", err)
		}
		if p.ModRole != testModRole || p.ModChannel != testChannel {
			t.Errorf("profile = %+v", p)
		}
		if r.lastReply() == "" {
			t.Error("no confirmation reply")
		}
	})

	t.Run("not administrator", func(t *testing.T) {
		stack := newTestStack(newMemoryRepo(), staticImages{}, guildImages{})
		r := newResponder(biz.DecisionBlock)
		inv := moderatorInvocation(CommandSetup, testUser)

		stack.moderation.Setup(ctx, inv, r, testModRole, testChannel)

		if got := r.lastReply(); got != ReplyNotAuthorized {
			t.Errorf("reply = %q, want %q", got, ReplyNotAuthorized)
		}
		if _, err := stack.repo.GetProfile(ctx, testGuild); !errors.Is(err, biz.ErrGuildNotFound) {
			t.Errorf("profile was created by a non-administrator")
		}
	})
}
