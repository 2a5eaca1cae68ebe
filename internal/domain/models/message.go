package models

import (
	"strings"
)

// AttachmentKind classifies an attachment for rendering and upload routing.
type AttachmentKind string

const (
	// AttachmentImage is rendered inline in Teams.
	AttachmentImage AttachmentKind = "image"
	// AttachmentVideo is rendered as a link.
	AttachmentVideo AttachmentKind = "video"
	// AttachmentFile is rendered as a download card.
	AttachmentFile AttachmentKind = "file"
)

var imageExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".svg", ".ico", ".tiff", ".heic", ".heif",
}

var videoExtensions = []string{
	".mp4", ".webm", ".mov", ".avi", ".mkv", ".m4v", ".wmv",
}

// ClassifyAttachment resolves the kind of an attachment. Declared kind wins,
// then the content-type prefix, then the filename extension.
func ClassifyAttachment(declared AttachmentKind, contentType, filename string) AttachmentKind {
	switch declared {
	case AttachmentImage, AttachmentVideo:
		return declared
	}

	ct := strings.ToLower(contentType)
	if strings.HasPrefix(ct, "image/") {
		return AttachmentImage
	}
	if strings.HasPrefix(ct, "video/") {
		return AttachmentVideo
	}

	name := strings.ToLower(filename)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(name, ext) {
			return AttachmentImage
		}
	}
	for _, ext := range videoExtensions {
		if strings.HasSuffix(name, ext) {
			return AttachmentVideo
		}
	}
	return AttachmentFile
}

// ChatAttachment is an attachment on an inbound Teams message. ContentURL
// requires Bot Framework auth to fetch; DownloadURL, when present, does not.
type ChatAttachment struct {
	ContentType string `json:"contentType"`
	ContentURL  string `json:"contentUrl"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Name        string `json:"name,omitempty"`
}

// ChatUser identifies the Teams-side sender of a message.
type ChatUser struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
	TenantKey      string `json:"tenantKey"`
	JobTitle       string `json:"jobTitle,omitempty"`
	Department     string `json:"department,omitempty"`
	OfficeLocation string `json:"officeLocation,omitempty"`
}

// ChatMessage is the normalized shape the router requires from the Teams
// boundary, independent of Bot Framework activity details.
type ChatMessage struct {
	ID                    string                 `json:"id"`
	Text                  string                 `json:"text,omitempty"`
	Attachments           []ChatAttachment       `json:"attachments,omitempty"`
	User                  ChatUser               `json:"user"`
	ConversationID        string                 `json:"conversationId"`
	ConversationReference map[string]interface{} `json:"conversationReference"`
}
