package services

import (
	"context"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/abrezinsky/tokenvote/internal/errors"
)

// InviteURL returns the link participants follow to join a campaign
func (s *CampaignService) InviteURL(ctx context.Context, campaignID string) (string, error) {
	c, err := loadCampaign(ctx, s.repo, campaignID)
	if err != nil {
		return "", err
	}
	if s.baseURL == "" {
		return "", errors.Validation("base_url not configured")
	}
	return fmt.Sprintf("%s/campaigns/%s", strings.TrimSuffix(s.baseURL, "/"), c.ID), nil
}

// InviteQR renders the invite link as a PNG QR code
func (s *CampaignService) InviteQR(ctx context.Context, campaignID string) ([]byte, error) {
	url, err := s.InviteURL(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return png, nil
}
