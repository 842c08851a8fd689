// internal/common/aws/clients.go
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Clients shares one loaded AWS config between the SES and SNS clients.
type Clients struct {
	SES *ses.Client
	SNS *sns.Client
}

func NewClients(ctx context.Context, region string) (*Clients, error) {
	if region == "" {
		return nil, fmt.Errorf("aws region is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Clients{
		SES: ses.NewFromConfig(cfg),
		SNS: sns.NewFromConfig(cfg),
	}, nil
}

// SMSAttributes marks an SNS publish as a transactional SMS. senderID is
// omitted when empty; not every country accepts one.
func SMSAttributes(senderID string) map[string]snstypes.MessageAttributeValue {
	attrs := map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    awssdk.String("String"),
			StringValue: awssdk.String("Transactional"),
		},
	}
	if senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType:    awssdk.String("String"),
			StringValue: awssdk.String(senderID),
		}
	}
	return attrs
}
