package slackdir

import (
	"context"
	"fmt"

	config "github.com/avatarctic/avatar-proxy/configs"
	"github.com/avatarctic/avatar-proxy/internal/core/domain/directory"
	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

// Client lists workspace members via the Slack Web API. It is a plain
// DirectoryClient: no caching here, the roster service layers that on top.
type Client struct {
	api    *slack.Client
	logger *logrus.Logger
}

// NewClient creates a Slack directory client.
func NewClient(cfg *config.SlackConfig, logger *logrus.Logger) *Client {
	return &Client{api: slack.New(cfg.Token), logger: logger}
}

// Ping verifies the token against auth.test without touching the roster.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.AuthTestContext(ctx)
	return err
}

// ListMembers implements ports.DirectoryClient. Deleted accounts and bots are
// dropped at this edge; they can never serve an avatar.
func (c *Client) ListMembers(ctx context.Context) ([]directory.Member, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("slack users.list failed: %w", err)
	}

	members := make([]directory.Member, 0, len(users))
	for _, u := range users {
		if u.Deleted || u.IsBot {
			continue
		}
		members = append(members, directory.Member{
			ID:       u.ID,
			Email:    u.Profile.Email,
			ImageURL: u.Profile.ImageOriginal,
		})
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{"total": len(users), "members": len(members)}).Debug("fetched slack roster")
	}
	return members, nil
}
