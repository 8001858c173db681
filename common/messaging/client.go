package messaging

import (
	"context"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Client publishes and receives messages through Google Pub/Sub.
type Client struct {
	googlePubSubClient *pubsub.Client
	topic              *pubsub.Topic
	subscription       *pubsub.Subscription
}

type ClientOptions struct {
	ProjectID      string
	Topic          string
	Subscription   string
	CredentialPath string
}

type SubscribeCallbackFunc func(ctx context.Context, msg Message)

func New(ctx context.Context, config ClientOptions) (*Client, error) {
	var opts []option.ClientOption
	if config.CredentialPath != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialPath))
	}

	var err error
	client := &Client{}
	client.googlePubSubClient, err = pubsub.NewClient(ctx, config.ProjectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Google Pub/Sub client")
	}
	if config.Topic != "" {
		client.topic = client.googlePubSubClient.Topic(config.Topic)
	}
	if config.Subscription != "" {
		client.subscription = client.googlePubSubClient.Subscription(config.Subscription)
	}
	return client, nil
}

func (s *Client) Subscribe(ctx context.Context, callback SubscribeCallbackFunc) error {
	if s.subscription == nil {
		return errors.New("no subscription configured")
	}
	err := s.subscription.Receive(ctx, s.provideReceiveHandler(callback))
	if err != nil {
		return errors.Wrapf(err, "failed to pull messages from Google Pub/Sub subscription %s", s.subscription)
	}

	return nil
}

func (s *Client) provideReceiveHandler(callback SubscribeCallbackFunc) func(ctx context.Context, pubSubMsg *pubsub.Message) {
	return func(ctx context.Context, pubSubMsg *pubsub.Message) {
		callback(ctx, s.newMessageFromPubSubMessage(pubSubMsg))
	}
}

func (s *Client) newMessageFromPubSubMessage(pubSubMsg *pubsub.Message) (msg Message) {
	msg.ID = pubSubMsg.ID
	msg.Data = pubSubMsg.Data
	msg.Attributes = pubSubMsg.Attributes
	msg.PublishTime = pubSubMsg.PublishTime

	msg.RegisterAck(func() error {
		pubSubMsg.Ack()
		return nil
	})
	msg.RegisterNack(func() error {
		pubSubMsg.Nack()
		return nil
	})
	if msg.Attributes == nil {
		msg.Attributes = make(map[string]string)
	}
	return
}

func (s *Client) Publish(ctx context.Context, message Message) (err error) {
	if s.topic == nil {
		return errors.New("no topic configured")
	}
	msg := &pubsub.Message{
		Data:       message.Data,
		Attributes: message.Attributes,
	}

	if _, err = s.topic.Publish(ctx, msg).Get(ctx); err != nil {
		err = errors.Wrapf(err, "failed to publish in Google Pub/Sub topic %s", s.topic)
	}

	return err
}

func (s *Client) Close() error {
	if s.topic != nil {
		s.topic.Stop()
	}
	return s.googlePubSubClient.Close()
}

// EnsureTopicAndSubscription creates the configured topic and subscription
// when they do not exist yet.
func (s *Client) EnsureTopicAndSubscription(ctx context.Context) error {
	if s.topic == nil {
		return errors.New("no topic configured")
	}
	exists, err := s.topic.Exists(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to check topic %s", s.topic.ID())
	}
	if !exists {
		topicId := s.topic.ID()
		if s.topic, err = s.googlePubSubClient.CreateTopic(ctx, topicId); err != nil {
			return errors.Wrapf(err, "failed to create topic %s", topicId)
		}
	}

	if s.subscription == nil {
		return nil
	}
	found, err := s.subscriptionExists(ctx)
	if err != nil || found {
		return err
	}
	s.subscription, err = s.googlePubSubClient.CreateSubscription(ctx, s.subscription.ID(), pubsub.SubscriptionConfig{
		Topic:               s.topic,
		RetainAckedMessages: false,
		AckDeadline:         20 * time.Second,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create subscription")
	}
	return nil
}

func (s *Client) subscriptionExists(ctx context.Context) (bool, error) {
	it := s.topic.Subscriptions(ctx)
	for {
		subscription, err := it.Next()
		if err == iterator.Done {
			return false, nil
		}
		if err != nil {
			return false, errors.Wrap(err, "failed to list subscriptions")
		}
		if subscription.ID() == s.subscription.ID() {
			return true, nil
		}
	}
}
