package email

import (
	"testing"

	"github.com/framecraft/framecraft/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailProvider_RequiresSettings(t *testing.T) {
	_, err := NewEmailProvider("", "user", "pass", "587", nil)
	require.Error(t, err)

	_, err = NewEmailProvider("smtp.example.com", "user", "pass", "not-a-port", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SMTP port")
}

func TestBuildMsg(t *testing.T) {
	msg, err := buildMsg(usecase.Email{
		To:      []string{"ops@example.com"},
		From:    "console@example.com",
		Subject: "[framecraft] asset:bulk COMPLETED",
		Body:    "<p>done</p>",
		Attachments: []usecase.EmailAttachment{
			{Name: "result.json", ContentType: "application/json", Content: []byte(`{}`)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"[framecraft] asset:bulk COMPLETED"}, msg.GetGenHeader("Subject"))
	assert.Len(t, msg.GetAttachments(), 1)
}

func TestBuildMsg_InvalidSender(t *testing.T) {
	_, err := buildMsg(usecase.Email{To: []string{"ops@example.com"}, From: "not an address"})
	require.Error(t, err)
}
