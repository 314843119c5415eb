package notify

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var ErrEmptyToken = errors.New("push token is empty")

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM sends pushes through Firebase Cloud Messaging.
type FCM struct {
	client    messagingClient
	channelID string
	log       *zap.Logger
}

// NewFCM initialises the Firebase app. An empty credentialsFile falls back
// to application default credentials.
func NewFCM(ctx context.Context, credentialsFile, projectID string, log *zap.Logger) (*FCM, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return newFCM(client, log), nil
}

func newFCM(client messagingClient, log *zap.Logger) *FCM {
	return &FCM{client: client, channelID: ChannelID, log: log.Named("fcm")}
}

func (f *FCM) Dispatch(ctx context.Context, p Push) error {
	if p.Token == "" {
		return ErrEmptyToken
	}
	id, err := f.client.Send(ctx, BuildMessage(p, f.channelID))
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	f.log.Debug("push accepted", zap.String("message_id", id), zap.String("type", string(p.Kind)))
	return nil
}

// BuildMessage maps a Push onto the FCM wire message. The title and body
// are repeated in the data payload for clients that render it themselves.
func BuildMessage(p Push, channelID string) *messaging.Message {
	msg := &messaging.Message{
		Token: p.Token,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: map[string]string{
			"type":  string(p.Kind),
			"title": p.Title,
			"body":  p.Body,
		},
	}
	if p.HighPriority {
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: channelID,
				Priority:  messaging.PriorityHigh,
			},
		}
	}
	return msg
}
