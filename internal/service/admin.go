package service

import (
	"context"
	"net/url"

	"guildguard/internal/biz"
	"guildguard/internal/pkg/pagination"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

const (
	OperationAdminListBlocklist = "/guildguard.admin.v1.Admin/ListBlocklist"
	OperationAdminCheckImage    = "/guildguard.admin.v1.Admin/CheckImage"
)

// checkableHosts are the image hosts CheckImage may fetch from.
var checkableHosts = map[string]struct{}{
	"cdn.discordapp.com":   {},
	"media.discordapp.net": {},
}

// ListBlocklistRequest selects a page of a guild's blocklist.
type ListBlocklistRequest struct {
	Guild    string `json:"guild"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// ListBlocklistReply is one page of hex-encoded hashes, newest first.
type ListBlocklistReply struct {
	Guild    string `json:"guild"`
	Revision int64  `json:"revision"`
	*pagination.OffsetResponse[string]
}

// CheckImageRequest asks whether the image at URL is blocked in a guild.
type CheckImageRequest struct {
	Guild string `json:"guild"`
	URL   string `json:"url"`
}

// CheckImageReply reports the image's hash and whether it is blocked.
type CheckImageReply struct {
	Blocked bool   `json:"blocked"`
	Hash    string `json:"hash"`
}

// AdminService exposes read-only blocklist inspection over HTTP.
type AdminService struct {
	blocklist *biz.BlocklistUsecase
	log       *log.Helper
}

// NewAdminService creates a new AdminService.
func NewAdminService(blocklist *biz.BlocklistUsecase, logger log.Logger) *AdminService {
	return &AdminService{blocklist: blocklist, log: log.NewHelper(logger)}
}

// ListBlocklist lists the stored hashes of a guild.
func (s *AdminService) ListBlocklist(ctx context.Context, in *ListBlocklistRequest) (*ListBlocklistReply, error) {
	guild, err := parseGuild(in.Guild)
	if err != nil {
		return nil, err
	}
	b, err := s.blocklist.Fetch(ctx, guild)
	if err != nil {
		return nil, err
	}
	all := make([]string, len(b.Hashes))
	for i, h := range b.Hashes {
		all[i] = h.String()
	}
	return &ListBlocklistReply{
		Guild:          guild.String(),
		Revision:       b.Revision,
		OffsetResponse: pagination.Paginate(all, pagination.NewOffsetRequest(in.Page, in.PageSize)),
	}, nil
}

// CheckImage hashes an image and looks it up in a guild's blocklist.
func (s *AdminService) CheckImage(ctx context.Context, in *CheckImageRequest) (*CheckImageReply, error) {
	guild, err := parseGuild(in.Guild)
	if err != nil {
		return nil, err
	}
	if in.URL == "" {
		return nil, errors.BadRequest("MISSING_URL", "url is required")
	}
	if err := checkImageURL(in.URL); err != nil {
		return nil, err
	}
	h, blocked, err := s.blocklist.Lookup(ctx, guild, in.URL)
	if err != nil {
		return nil, err
	}
	return &CheckImageReply{Blocked: blocked, Hash: h.String()}, nil
}

func checkImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.BadRequest("INVALID_URL", "url is not valid").WithCause(err)
	}
	if _, ok := checkableHosts[u.Hostname()]; u.Scheme != "https" || !ok || u.User != nil {
		return errors.BadRequest("UNSUPPORTED_IMAGE_HOST", "url must be an https Discord CDN url")
	}
	return nil
}

func parseGuild(s string) (biz.Snowflake, error) {
	guild, err := biz.ParseSnowflake(s)
	if err != nil || guild == 0 {
		return 0, errors.BadRequest("INVALID_GUILD", "guild must be a snowflake id").WithCause(err)
	}
	return guild, nil
}

// RegisterAdminHTTPServer mounts AdminService on srv.
func RegisterAdminHTTPServer(srv *khttp.Server, s *AdminService) {
	r := srv.Route("/")
	r.GET("/v1/guilds/{guild}/blocklist", adminListBlocklistHandler(s))
	r.GET("/v1/guilds/{guild}/blocklist/check", adminCheckImageHandler(s))
}

func adminListBlocklistHandler(s *AdminService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in ListBlocklistRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		khttp.SetOperation(ctx, OperationAdminListBlocklist)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.ListBlocklist(ctx, req.(*ListBlocklistRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func adminCheckImageHandler(s *AdminService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in CheckImageRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		khttp.SetOperation(ctx, OperationAdminCheckImage)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.CheckImage(ctx, req.(*CheckImageRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
