package notifications

import (
	"fmt"

	"showhound/internal/utils"

	"github.com/xconstruct/go-pushbullet"
)

// PushbulletClient implements the Notifier interface for Pushbullet.
type PushbulletClient struct {
	apiKey string
	pb     *pushbullet.Client
	logger *utils.Logger
}

// NewPushbulletClient creates a new client for sending Pushbullet notifications.
func NewPushbulletClient(apiKey string, logger *utils.Logger) *PushbulletClient {
	pb := pushbullet.New(apiKey)
	return &PushbulletClient{
		apiKey: apiKey,
		pb:     pb,
		logger: logger,
	}
}

// sendPush sends a note to all of the user's devices.
func (c *PushbulletClient) sendPush(title, body string) error {
	// The first argument to PushNote is the device iden. Empty means all devices.
	return c.pb.PushNote("", title, body)
}

// NotifyDownloadComplete sends a notification when an episode was fetched.
func (c *PushbulletClient) NotifyDownloadComplete(title, episode, quality, savedPath string) {
	subject := fmt.Sprintf("Fetched: %s %s", title, episode)
	body := fmt.Sprintf("Saved %s (%s) to %s", episode, quality, savedPath)
	if err := c.sendPush(subject, body); err != nil {
		c.logger.Error("Error sending Pushbullet notification:", err)
	}
}

// NotifyDownloadError sends a notification when a fetch failed.
func (c *PushbulletClient) NotifyDownloadError(title, episode string, err error) {
	subject := fmt.Sprintf("Fetch failed: %s %s", title, episode)
	if pushErr := c.sendPush(subject, err.Error()); pushErr != nil {
		c.logger.Error("Error sending Pushbullet notification:", pushErr)
	}
}

// Test verifies the API key by fetching the authenticated user.
func (c *PushbulletClient) Test() error {
	if _, err := c.pb.Me(); err != nil {
		return fmt.Errorf("pushbullet authentication failed: %w", err)
	}
	return nil
}
