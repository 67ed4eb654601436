package email

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"appraisal/internal/platform/config"
)

func TestNewDisabled(t *testing.T) {
	assert.Nil(t, New(config.Config{}))
	assert.Nil(t, New(config.Config{EmailEnabled: true}))
	assert.NotNil(t, New(config.Config{EmailEnabled: true, SMTPHost: "smtp.example.com", SMTPPort: 587}))
}

func TestBuildMessage(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := string(buildMessage("hr@example.com", "e@example.com", "Published\r\nBcc: x@example.com", "hello", at))

	assert.True(t, strings.HasPrefix(msg, "From: hr@example.com\r\nTo: e@example.com\r\n"))
	assert.Contains(t, msg, "Subject: Published  Bcc: x@example.com\r\n")
	assert.NotContains(t, msg, "\r\nBcc:")
	assert.Contains(t, msg, "Date: Sat, 01 Mar 2025 12:00:00 +0000\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nhello"))
}
