package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/url"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/repositories"
)

const (
	leaderboardTTL     = 5 * time.Minute
	leaderboardKey     = "referrals:leaderboard:%d"
	maxLeaderboardSize = 100
	qrSize             = 256
)

// ReferralService tracks referral link clicks.
type ReferralService struct {
	users      UserStore
	clicks     ClickStore
	cache      *redis.Client
	baseURL    string
	landingURL string
	now        func() time.Time
}

func NewReferralService(users UserStore, clicks ClickStore, cache *redis.Client, baseURL, landingURL string) *ReferralService {
	return &ReferralService{
		users:      users,
		clicks:     clicks,
		cache:      cache,
		baseURL:    baseURL,
		landingURL: landingURL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Landing returns the redirect target for code.
func (s *ReferralService) Landing(code string) string {
	u, err := url.Parse(s.landingURL)
	if err != nil {
		return s.landingURL
	}
	q := u.Query()
	q.Set("ref", code)
	u.RawQuery = q.Encode()
	return u.String()
}

// Link is the shareable referral link of code.
func (s *ReferralService) Link(code string) string {
	return s.baseURL + url.PathEscape(code)
}

// Track records a click for code and returns where to redirect. Unknown codes and
// storage failures still redirect.
func (s *ReferralService) Track(ctx context.Context, code string, meta models.ClickMeta) string {
	target := s.Landing(code)
	u, err := s.users.FindByReferralCode(ctx, code)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Error().Err(err).Str("code", code).Msg("referral lookup failed")
		}
		return target
	}
	click := &models.ReferralClick{
		UserID:    u.ID,
		Code:      code,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Referer:   meta.Referer,
		CreatedAt: s.now(),
	}
	if err := s.clicks.Insert(ctx, click); err != nil {
		log.Error().Err(err).Str("code", code).Msg("recording referral click failed")
	}
	return target
}

// Leaderboard returns the top referrers, served from Redis when fresh.
func (s *ReferralService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > maxLeaderboardSize {
		limit = 10
	}
	key := fmt.Sprintf(leaderboardKey, limit)

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			var cached []models.LeaderboardEntry
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("leaderboard cache read failed")
		}
	}

	entries, err := s.clicks.Leaderboard(ctx, limit)
	if err != nil {
		return nil, storeErr("Leaderboard", err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, key, raw, leaderboardTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("leaderboard cache write failed")
			}
		}
	}
	return entries, nil
}

func (s *ReferralService) own(ctx context.Context, viewer models.Viewer) (*models.User, error) {
	u, err := s.users.FindByID(ctx, viewer.ID)
	if err != nil {
		return nil, storeErr("User", err)
	}
	if u.ReferralCode == "" {
		return nil, apperror.NotFound("Referral code")
	}
	return u, nil
}

// Me describes the viewer's referral link.
func (s *ReferralService) Me(ctx context.Context, viewer models.Viewer) (models.ReferralInfo, error) {
	u, err := s.own(ctx, viewer)
	if err != nil {
		return models.ReferralInfo{}, err
	}
	n, err := s.clicks.CountByUser(ctx, u.ID)
	if err != nil {
		return models.ReferralInfo{}, storeErr("Referral clicks", err)
	}
	return models.ReferralInfo{Code: u.ReferralCode, Link: s.Link(u.ReferralCode), Clicks: n}, nil
}

// QRCode renders the viewer's referral link as a PNG.
func (s *ReferralService) QRCode(ctx context.Context, viewer models.Viewer) ([]byte, error) {
	u, err := s.own(ctx, viewer)
	if err != nil {
		return nil, err
	}
	code, err := qr.Encode(s.Link(u.ReferralCode), qr.M, qr.Auto)
	if err != nil {
		return nil, apperror.Upstream("Failed to generate QR code", err)
	}
	code, err = barcode.Scale(code, qrSize, qrSize)
	if err != nil {
		return nil, apperror.Upstream("Failed to generate QR code", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, apperror.Upstream("Failed to encode QR code", err)
	}
	return buf.Bytes(), nil
}
