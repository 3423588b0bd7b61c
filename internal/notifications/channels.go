package notifications

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// EmailSender delivers alert emails.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TopicPublisher pushes alert summaries to an external pub/sub topic
// for downstream consumers (SMS gateways, partner apps).
type TopicPublisher interface {
	Publish(ctx context.Context, subject, message string) error
}

// SESChannel sends plain-text mail through Amazon SES.
type SESChannel struct {
	client *sesv2.Client
	sender string
}

// NewSESChannel wraps an SES client with a fixed sender address.
func NewSESChannel(client *sesv2.Client, sender string) *SESChannel {
	return &SESChannel{client: client, sender: sender}
}

func (c *SESChannel) Send(ctx context.Context, to, subject, body string) error {
	_, err := c.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(c.sender),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

// SNSChannel publishes to a fixed SNS topic.
type SNSChannel struct {
	client   *sns.Client
	topicARN string
}

// NewSNSChannel wraps an SNS client with the alert topic ARN.
func NewSNSChannel(client *sns.Client, topicARN string) *SNSChannel {
	return &SNSChannel{client: client, topicARN: topicARN}
}

func (c *SNSChannel) Publish(ctx context.Context, subject, message string) error {
	_, err := c.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", c.topicARN, err)
	}
	return nil
}
