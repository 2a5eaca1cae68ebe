package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
)

func TestClassifyAttachment(t *testing.T) {
	tests := []struct {
		name        string
		declared    models.AttachmentKind
		contentType string
		filename    string
		want        models.AttachmentKind
	}{
		{"declared image wins", models.AttachmentImage, "application/octet-stream", "data.bin", models.AttachmentImage},
		{"declared video wins", models.AttachmentVideo, "", "", models.AttachmentVideo},
		{"image content type", "", "image/png", "whatever", models.AttachmentImage},
		{"video content type", "", "video/mp4", "clip", models.AttachmentVideo},
		{"image extension", "", "application/octet-stream", "photo.JPG", models.AttachmentImage},
		{"heic extension", "", "", "IMG_0001.heic", models.AttachmentImage},
		{"video extension", "", "", "recording.mov", models.AttachmentVideo},
		{"pdf is file", "", "application/pdf", "report.pdf", models.AttachmentFile},
		{"unknown defaults to file", "", "", "archive.zip", models.AttachmentFile},
		{"empty everything", "", "", "", models.AttachmentFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := models.ClassifyAttachment(tt.declared, tt.contentType, tt.filename)
			assert.Equal(t, tt.want, got)
		})
	}
}
