// internal/channel/email.go
package channel

import (
	"context"

	"salon-notifications/internal/common/errors"
	"salon-notifications/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the slice of the SES client the adapter uses, split out for
// mocking in tests.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailAdapter delivers over AWS SES.
type EmailAdapter struct {
	client    SESService
	fromEmail string
}

func NewEmailAdapter(ctx context.Context, region, fromEmail string) (*EmailAdapter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &EmailAdapter{
		client:    ses.NewFromConfig(awsCfg),
		fromEmail: fromEmail,
	}, nil
}

func (a *EmailAdapter) Send(ctx context.Context, recipient, subject, body string) (Result, error) {
	out, err := a.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(a.fromEmail),
	})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, errors.NewTimeoutError(string(models.ChannelEmail))
		}
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelEmail), err)
	}
	return Result{
		ProviderMessageID: aws.ToString(out.MessageId),
		Cost:              costEmail,
	}, nil
}
