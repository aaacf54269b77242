// internal/channel/sms.go
package channel

import (
	"context"

	"salon-notifications/internal/common/errors"
	"salon-notifications/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSService is the slice of the SNS client the adapter uses, split out for
// mocking in tests.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SMSAdapter delivers over AWS SNS direct publish. Subject is ignored; SMS
// has no subject line.
type SMSAdapter struct {
	client   SNSService
	senderID string
}

func NewSMSAdapter(ctx context.Context, region, senderID string) (*SMSAdapter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SMSAdapter{
		client:   sns.NewFromConfig(awsCfg),
		senderID: senderID,
	}, nil
}

func (a *SMSAdapter) Send(ctx context.Context, recipient, _ string, body string) (Result, error) {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(recipient),
		Message:     aws.String(body),
	}
	if a.senderID != "" {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(a.senderID),
			},
		}
	}

	out, err := a.client.Publish(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, errors.NewTimeoutError(string(models.ChannelSMS))
		}
		return Result{}, errors.NewAdapterFailureError(string(models.ChannelSMS), err)
	}
	return Result{
		ProviderMessageID: aws.ToString(out.MessageId),
		Cost:              costSMS,
	}, nil
}
