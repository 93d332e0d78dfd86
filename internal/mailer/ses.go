package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESMailer sends email through Amazon SES.
type SESMailer struct {
	client *sesv2.Client
	from   string
}

// NewSESMailer creates a SES-backed mailer. Credentials come from the
// default AWS credential chain.
func NewSESMailer(ctx context.Context, region, from string) (*SESMailer, error) {
	if from == "" {
		return nil, fmt.Errorf("sender address is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESMailer{client: sesv2.NewFromConfig(awsCfg), from: from}, nil
}

// Send delivers the message via SES.
func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML)}
	}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text)}
	}

	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body:    body,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	return nil
}
