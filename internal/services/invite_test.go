package services_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/abrezinsky/tokenvote/internal/errors"
)

func TestInviteURL(t *testing.T) {
	f := setup(t)
	c := f.createCampaign(t, 100, 1)
	f.campaigns.SetBaseURL("https://vote.example.org/")

	url, err := f.campaigns.InviteURL(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("InviteURL failed: %v", err)
	}
	if want := "https://vote.example.org/campaigns/" + c.ID; url != want {
		t.Errorf("expected %s, got %s", want, url)
	}
}

func TestInviteURL_NoBaseURL(t *testing.T) {
	f := setup(t)
	c := f.createCampaign(t, 100, 1)

	_, err := f.campaigns.InviteURL(context.Background(), c.ID)
	assertKind(t, err, errors.ErrValidation)
}

func TestInviteQR(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.createCampaign(t, 100, 1)
	f.campaigns.SetBaseURL("http://localhost:8081")

	png, err := f.campaigns.InviteQR(ctx, c.ID)
	if err != nil {
		t.Fatalf("InviteQR failed: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("expected PNG image data")
	}

	_, err = f.campaigns.InviteQR(ctx, "missing")
	assertKind(t, err, errors.ErrNotFound)
}
