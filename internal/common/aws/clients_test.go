// internal/common/aws/clients_test.go
package aws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClients(t *testing.T) {
	_, err := NewClients(context.Background(), "")
	assert.Error(t, err)

	clients, err := NewClients(context.Background(), "eu-west-1")
	require.NoError(t, err)
	assert.NotNil(t, clients.SES)
	assert.NotNil(t, clients.SNS)
}

func TestSMSAttributes(t *testing.T) {
	attrs := SMSAttributes("")
	assert.Len(t, attrs, 1)
	assert.Equal(t, "Transactional", *attrs["AWS.SNS.SMS.SMSType"].StringValue)

	attrs = SMSAttributes("StartupAI")
	require.Contains(t, attrs, "AWS.SNS.SMS.SenderID")
	assert.Equal(t, "StartupAI", *attrs["AWS.SNS.SMS.SenderID"].StringValue)
}
