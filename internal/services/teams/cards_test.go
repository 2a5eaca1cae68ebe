package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAgentMessage(t *testing.T) {
	assert.Equal(t, "plain", FormatAgentMessage("", "plain"))
	assert.Equal(t, "👤 **Dana**", FormatAgentMessage("Dana", ""))
	assert.Equal(t, "👤 **Dana**\n\nHello", FormatAgentMessage("Dana", "Hello"))
}

func TestNewImageCard(t *testing.T) {
	// Act
	card := NewImageCard("https://cdn.example.com/pic.png", "pic.png")

	// Assert
	assert.Equal(t, heroCardContentType, card.ContentType)
	content := card.Content
	images := content["images"].([]map[string]interface{})
	require.Len(t, images, 1)
	assert.Equal(t, "https://cdn.example.com/pic.png", images[0]["url"])
}

func TestNewFileCard(t *testing.T) {
	// Act
	card := NewFileCard("report.pdf", "https://files.example.com/report.pdf", 2048, "application/pdf")

	// Assert
	assert.Equal(t, adaptiveCardContentType, card.ContentType)
	content := card.Content
	assert.Equal(t, "AdaptiveCard", content["type"])
	assert.Equal(t, "1.4", content["version"])
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "", formatFileSize(0))
	assert.Equal(t, "512 bytes", formatFileSize(512))
	assert.Equal(t, "2.0 KB", formatFileSize(2048))
	assert.Equal(t, "1.5 MB", formatFileSize(3*1024*1024/2))
}

func TestFileIconURL(t *testing.T) {
	assert.Contains(t, fileIconURL("application/pdf", ""), "pdf.svg")
	assert.Contains(t, fileIconURL("", "notes.txt"), "txt.svg")
	assert.Contains(t, fileIconURL("image/png", ""), "photo.svg")
	assert.Contains(t, fileIconURL("", "mystery.xyz"), "genericfile.svg")
}
