// pkg/pubsub/client.go
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/procureflow/procureflow-backend/pkg/config"
	"github.com/procureflow/procureflow-backend/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

var errProjectIDRequired = errors.New("gcp project id is required")

// NewClient creates a Pub/Sub v2 client and ensures the workflow subscription exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		projectID: gcp.ProjectID,
		cfg:       cfg,
	}

	if name := strings.TrimSpace(cfg.WorkflowSubscription); name != "" {
		if err := c.ensureSubscriptionExists(ctx, name); err != nil {
			_ = psClient.Close()
			return nil, err
		}
	}

	if logg != nil {
		logg.Info(ctx, "pubsub client initialized")
	}

	return c, nil
}

func (c *Client) ensureSubscriptionExists(ctx context.Context, name string) error {
	fullName := fmt.Sprintf("projects/%s/subscriptions/%s", c.projectID, name)
	_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{
		Subscription: fullName,
	})
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("pubsub subscription %q does not exist", fullName)
	}
	return fmt.Errorf("checking pubsub subscription %q: %w", fullName, err)
}

// WorkflowPublisher returns the publisher for the workflow events topic.
func (c *Client) WorkflowPublisher() *pubsub.Publisher {
	topic := strings.TrimSpace(c.cfg.WorkflowTopic)
	if topic == "" {
		return nil
	}
	return c.client.Publisher(topic)
}

// Ping verifies the transport by looking up the workflow topic.
func (c *Client) Ping(ctx context.Context) error {
	topic := strings.TrimSpace(c.cfg.WorkflowTopic)
	if topic == "" {
		return errors.New("workflow topic not configured")
	}
	fullName := fmt.Sprintf("projects/%s/topics/%s", c.projectID, topic)
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
	return err
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}
