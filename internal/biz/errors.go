package biz

import (
	"github.com/go-kratos/kratos/v2/errors"
)

var (
	// ErrGuildNotFound is returned when a guild has no profile row.
	ErrGuildNotFound = errors.NotFound("GUILD_NOT_FOUND", "guild profile not found")
	// ErrBlocklistCorrupt is returned when a stored blob is not a whole number of hashes.
	ErrBlocklistCorrupt = errors.InternalServer("BLOCKLIST_CORRUPT", "stored blocklist is corrupt")
	// ErrRevisionConflict is returned when a merge keeps losing the revision race.
	ErrRevisionConflict = errors.Conflict("BLOCKLIST_REVISION_CONFLICT", "blocklist was modified concurrently")
	// ErrStorage wraps any other storage failure.
	ErrStorage = errors.ServiceUnavailable("STORAGE_IO", "blocklist storage unavailable")

	ErrImageFetch  = errors.New(502, "IMAGE_FETCH_FAILED", "failed to fetch image")
	ErrImageDecode = errors.BadRequest("IMAGE_DECODE_FAILED", "failed to decode image")

	// ErrRemediation is returned when the platform refuses a delete, clear or kick.
	ErrRemediation = errors.InternalServer("REMEDIATION_FAILED", "remediation failed")
	// ErrDecision marks a moderator interaction whose payload could not be understood.
	ErrDecision = errors.BadRequest("MALFORMED_DECISION", "malformed decision payload")

	// Platform conditions that mean the target is already gone.
	ErrUnknownEmoji   = errors.NotFound("UNKNOWN_EMOJI", "unknown emoji")
	ErrUnknownSticker = errors.NotFound("UNKNOWN_STICKER", "unknown sticker")
	ErrUnknownMember  = errors.NotFound("UNKNOWN_MEMBER", "unknown member")

	ErrNotAuthorized = errors.Forbidden("NOT_AUTHORIZED", "you do not have authorization to access this command")
)
