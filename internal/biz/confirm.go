package biz

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"guildguard/internal/conf"
	"guildguard/internal/pkg/hash"
	"guildguard/internal/pkg/telemetry"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

const (
	defaultPromptTimeout = 5 * time.Minute
	triggerConfirm       = "confirm"

	ReplyNothingBlocked = "No images blocked."
	ReplyBlocked        = "Added image(s) to blocklist!"
)

// Decision is a moderator's answer to one prompt.
type Decision int

const (
	DecisionKeep Decision = iota
	DecisionBlock
)

func (d Decision) String() string {
	if d == DecisionBlock {
		return "block"
	}
	return "keep"
}

// DecisionID renders the component payload of a prompt button.
func DecisionID(index int, d Decision) string {
	return strconv.Itoa(index) + "-" + d.String()
}

// ParseDecision parses a "<index>-block" or "<index>-keep" payload.
func ParseDecision(payload string) (int, Decision, error) {
	rawIndex, rawDecision, ok := strings.Cut(payload, "-")
	if !ok {
		return 0, DecisionKeep, ErrDecision.WithCause(fmt.Errorf("payload %q", payload))
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil || index < 0 {
		return 0, DecisionKeep, ErrDecision.WithCause(fmt.Errorf("payload %q", payload))
	}
	switch rawDecision {
	case "block":
		return index, DecisionBlock, nil
	case "keep":
		return index, DecisionKeep, nil
	default:
		return 0, DecisionKeep, ErrDecision.WithCause(fmt.Errorf("payload %q", payload))
	}
}

// ModeratorSession is the interactive channel to the moderator who invoked
// a blocking command.
type ModeratorSession interface {
	Moderator() Snowflake
	Reply(ctx context.Context, content string) error
	// Prompt posts Block/Keep controls with a preview of imageURL and
	// returns the ID of the message hosting them.
	Prompt(ctx context.Context, index int, imageURL string) (Snowflake, error)
	// AwaitDecision blocks until the moderator presses a control on the
	// prompt and returns its payload, or until ctx is done.
	AwaitDecision(ctx context.Context, prompt Snowflake) (string, error)
	DeletePrompt(ctx context.Context, prompt Snowflake) error
}

// BlockTarget locates what the candidates were taken from.
type BlockTarget struct {
	Guild   Snowflake
	Channel Snowflake
	// Message and Author are set when the candidates come from a message.
	Message Snowflake
	Author  Snowflake
	// User is set when the candidate is a member's profile picture.
	User Snowflake
}

// CandidateFailure is a blocked candidate that could not be fully processed.
type CandidateFailure struct {
	Index  int
	Source Source
	Err    error
}

// ConfirmResult summarizes one confirmation workflow.
type ConfirmResult struct {
	Prompted       int
	Blocked        []int
	Added          []hash.FixedHash
	Failed         []CandidateFailure
	MessageDeleted bool
}

type pendingConfirmation struct {
	index  int
	source Source
	prompt Snowflake
}

type decisionResult struct {
	pending pendingConfirmation
	payload string
	err     error
}

// ConfirmUsecase runs moderator-initiated blocking.
type ConfirmUsecase struct {
	blocklist     *BlocklistUsecase
	platform      Platform
	promptTimeout time.Duration
	metrics       *telemetry.Metrics
	log           *log.Helper
}

// NewConfirmUsecase new a Confirm usecase.
func NewConfirmUsecase(blocklist *BlocklistUsecase, platform Platform, c *conf.Blocklist,
	metrics *telemetry.Metrics, logger log.Logger) *ConfirmUsecase {
	timeout := defaultPromptTimeout
	if c != nil && c.PromptTimeout.AsDuration() > 0 {
		timeout = c.PromptTimeout.AsDuration()
	}
	return &ConfirmUsecase{
		blocklist:     blocklist,
		platform:      platform,
		promptTimeout: timeout,
		metrics:       metrics,
		log:           log.NewHelper(logger),
	}
}

// ConfirmBlocks asks the moderator about every resolvable candidate, then
// hashes, remediates and stores the ones decided block. A candidate that
// fails is recorded in the result and does not stop the others. An unreadable
// stored blocklist is returned before any prompt is posted, and a storage
// failure on the final merge is returned as an error.
func (uc *ConfirmUsecase) ConfirmBlocks(ctx context.Context, session ModeratorSession, target BlockTarget,
	candidates []Source) (*ConfirmResult, error) {
	l := uc.log.WithContext(ctx)
	result := &ConfirmResult{}

	var resolvable []int
	for i, src := range candidates {
		if src.Resolve() != "" {
			resolvable = append(resolvable, i)
		}
	}
	if len(resolvable) == 0 {
		return result, nil
	}

	// A blocklist that cannot be read is not usable for confirmation.
	existing, err := uc.blocklist.Load(ctx, target.Guild)
	if err != nil {
		return nil, err
	}

	var pending []pendingConfirmation
	for _, i := range resolvable {
		src := candidates[i]
		prompt, err := session.Prompt(ctx, i, src.Resolve())
		if err != nil {
			uc.cleanupPrompts(ctx, session, pending)
			return nil, err
		}
		pending = append(pending, pendingConfirmation{index: i, source: src, prompt: prompt})
	}
	result.Prompted = len(pending)

	decisions := uc.collectDecisions(ctx, session, pending)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := NewHashSet()
	var newHashes []hash.FixedHash
	deleteIndex := -1

	rc := RemediationContext{
		Guild:   target.Guild,
		Channel: target.Channel,
		Message: target.Message,
		User:    target.User,
	}
	for _, p := range pending {
		if decisions[p.index] != DecisionBlock {
			continue
		}
		result.Blocked = append(result.Blocked, p.index)

		h, err := uc.blocklist.images.HashURL(ctx, p.source.Resolve())
		if err != nil {
			l.Errorf("failed to hash candidate %d: %v", p.index, err)
			result.Failed = append(result.Failed, CandidateFailure{Index: p.index, Source: p.source, Err: err})
			continue
		}

		out, err := p.source.Remediate(ctx, uc.platform, rc)
		uc.metrics.ObserveRemediation(p.source.Kind.String(), triggerConfirm, err)
		for _, t := range out.Tolerated {
			l.Warnf("tolerated failure while remediating %s: %v", p.source.Kind, t)
		}
		if err != nil {
			l.Errorf("failed to remediate candidate %d (hash: %s): %v", p.index, h.Base64(), err)
			result.Failed = append(result.Failed, CandidateFailure{Index: p.index, Source: p.source, Err: err})
		}
		if out.DeleteMessage && deleteIndex < 0 {
			deleteIndex = p.index
		}
		if out.Kicked {
			l.Infof("Kicked user %s for image (hash: %s)", target.User, h.Base64())
		}

		if existing.Contains(h) || batch.Contains(h) {
			continue
		}
		batch[h] = struct{}{}
		newHashes = append(newHashes, h)
	}

	if deleteIndex >= 0 && target.Message != 0 {
		if err := uc.deleteTargetMessage(ctx, target); err != nil {
			l.Errorf("failed to delete message %s: %v", target.Message, err)
			result.Failed = append(result.Failed, CandidateFailure{
				Index:  deleteIndex,
				Source: candidates[deleteIndex],
				Err:    err,
			})
		} else {
			result.MessageDeleted = true
		}
	}

	if len(newHashes) == 0 {
		return result, session.Reply(ctx, ReplyNothingBlocked+failureSummary(result.Failed))
	}
	added, err := uc.blocklist.MergeAndSave(ctx, target.Guild, newHashes)
	if err != nil {
		return result, err
	}
	if added == 0 {
		return result, session.Reply(ctx, ReplyNothingBlocked+failureSummary(result.Failed))
	}
	result.Added = newHashes
	for _, h := range newHashes {
		l.Infof("Added new blocked image (blocker: %s) (hash: %s)", session.Moderator(), h.Base64())
	}
	return result, session.Reply(ctx, ReplyBlocked+failureSummary(result.Failed))
}

// collectDecisions awaits every prompt concurrently. Each prompt is deleted
// as soon as its await ends. Timeouts and unreadable payloads count as keep.
func (uc *ConfirmUsecase) collectDecisions(ctx context.Context, session ModeratorSession,
	pending []pendingConfirmation) map[int]Decision {
	results := make(chan decisionResult, len(pending))
	for _, p := range pending {
		go func(p pendingConfirmation) {
			actx, cancel := context.WithTimeout(ctx, uc.promptTimeout)
			defer cancel()
			payload, err := session.AwaitDecision(actx, p.prompt)
			results <- decisionResult{pending: p, payload: payload, err: err}
		}(p)
	}

	l := uc.log.WithContext(ctx)
	decisions := make(map[int]Decision, len(pending))
	for range pending {
		r := <-results
		if err := session.DeletePrompt(ctx, r.pending.prompt); err != nil {
			l.Warnf("failed to delete prompt %s: %v", r.pending.prompt, err)
		}

		decision := DecisionKeep
		switch {
		case errors.Is(r.err, context.DeadlineExceeded):
			l.Infof("prompt %d timed out after %s, keeping", r.pending.index, uc.promptTimeout)
		case r.err != nil:
			l.Warnf("prompt %d ended without a decision: %v", r.pending.index, r.err)
		default:
			index, d, err := ParseDecision(r.payload)
			switch {
			case err != nil:
				l.Warnf("prompt %d: %v", r.pending.index, err)
			case index != r.pending.index:
				l.Warnf("prompt %d: %v", r.pending.index,
					ErrDecision.WithCause(fmt.Errorf("decision for candidate %d", index)))
			default:
				decision = d
			}
		}
		uc.metrics.ObserveDecision(decision.String())
		decisions[r.pending.index] = decision
	}
	return decisions
}

func (uc *ConfirmUsecase) cleanupPrompts(ctx context.Context, session ModeratorSession, pending []pendingConfirmation) {
	for _, p := range pending {
		if err := session.DeletePrompt(ctx, p.prompt); err != nil {
			uc.log.WithContext(ctx).Warnf("failed to delete prompt %s: %v", p.prompt, err)
		}
	}
}

func (uc *ConfirmUsecase) deleteTargetMessage(ctx context.Context, target BlockTarget) error {
	if err := uc.platform.SendMessage(ctx, target.Channel, DeletedNotice(target.Author)); err != nil {
		return ErrRemediation.WithCause(err)
	}
	if err := uc.platform.DeleteMessage(ctx, target.Channel, target.Message); err != nil {
		return ErrRemediation.WithCause(err)
	}
	return nil
}

func failureSummary(failed []CandidateFailure) string {
	if len(failed) == 0 {
		return ""
	}
	parts := make([]string, 0, len(failed))
	for _, f := range failed {
		parts = append(parts, fmt.Sprintf("#%d (%s)", f.Index+1, f.Source.Kind))
	}
	return "\nFailed to process image(s): " + strings.Join(parts, ", ") + "."
}
