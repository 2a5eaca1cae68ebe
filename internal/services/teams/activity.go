// Package teams integrates with the Bot Framework: inbound activity
// parsing, outbound proactive delivery, and attachment download.
package teams

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
)

// Activity is the subset of the Bot Framework activity schema the bridge
// consumes.
type Activity struct {
	Type         string               `json:"type"`
	ID           string               `json:"id"`
	Text         string               `json:"text"`
	ServiceURL   string               `json:"serviceUrl"`
	ChannelID    string               `json:"channelId"`
	From         *ChannelAccount      `json:"from"`
	Recipient    *ChannelAccount      `json:"recipient"`
	Conversation *ConversationTarget  `json:"conversation"`
	Attachments  []ActivityAttachment `json:"attachments"`
	MembersAdded []ChannelAccount     `json:"membersAdded"`
}

// ChannelAccount identifies a user or bot on a channel.
type ChannelAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AADObjectID string `json:"aadObjectId,omitempty"`
}

// ConversationTarget identifies the conversation an activity belongs to.
type ConversationTarget struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId,omitempty"`
}

// ActivityAttachment is a Bot Framework attachment envelope.
type ActivityAttachment struct {
	Name        string          `json:"name,omitempty"`
	ContentType string          `json:"contentType,omitempty"`
	ContentURL  string          `json:"contentUrl,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
}

// ActivityType values the bridge distinguishes.
const (
	ActivityMessage            = "message"
	ActivityConversationUpdate = "conversationUpdate"
)

// ParseMessage normalizes a message activity into a ChatMessage. Returns
// nil for the bot's own echoes and for activities with no usable content.
func ParseMessage(activity *Activity) *models.ChatMessage {
	if activity.Type != ActivityMessage {
		return nil
	}
	if activity.From != nil && activity.Recipient != nil && activity.From.ID == activity.Recipient.ID {
		return nil
	}

	user := models.ChatUser{}
	if activity.From != nil {
		user.ID = activity.From.ID
		user.Name = activity.From.Name
	}
	if activity.Conversation != nil {
		user.TenantKey = activity.Conversation.TenantID
	}

	msg := &models.ChatMessage{
		ID:                    activity.ID,
		Text:                  activity.Text,
		Attachments:           parseAttachments(activity),
		User:                  user,
		ConversationReference: BuildConversationReference(activity),
	}
	if activity.Conversation != nil {
		msg.ConversationID = activity.Conversation.ID
	}

	if msg.Text == "" && len(msg.Attachments) == 0 {
		return nil
	}
	return msg
}

// attachmentContent is the loosely typed content blob Teams nests file
// metadata in; URL field names vary by attachment flavor.
type attachmentContent struct {
	DownloadURL string `json:"downloadUrl"`
	FileURL     string `json:"fileUrl"`
	URL         string `json:"url"`
	ContentURL  string `json:"contentUrl"`
	Name        string `json:"name"`
	FileName    string `json:"fileName"`
	MimeType    string `json:"mimeType"`
	FileType    string `json:"fileType"`
}

func parseAttachments(activity *Activity) []models.ChatAttachment {
	var out []models.ChatAttachment

	for _, att := range activity.Attachments {
		// Cards and other inline bot content are not user files.
		if strings.HasPrefix(att.ContentType, "application/vnd.microsoft") {
			continue
		}

		var content attachmentContent
		if len(att.Content) > 0 {
			_ = json.Unmarshal(att.Content, &content)
		}

		contentURL := att.ContentURL
		downloadURL := firstHTTPURL(content.DownloadURL, content.FileURL, content.URL, content.ContentURL)
		if contentURL == "" && downloadURL == "" {
			log.Warn().Str("name", att.Name).Str("contentType", att.ContentType).
				Msg("Attachment without downloadable URL")
			continue
		}

		name := firstNonEmpty(att.Name, content.Name, content.FileName)
		contentType := firstNonEmpty(att.ContentType, content.MimeType, "application/octet-stream")
		if name == "" {
			name = "file"
		}

		out = append(out, models.ChatAttachment{
			Name:        name,
			ContentType: contentType,
			ContentURL:  contentURL,
			DownloadURL: downloadURL,
		})
	}
	return out
}

// BuildConversationReference captures the fields needed to address this
// conversation proactively later.
func BuildConversationReference(activity *Activity) map[string]interface{} {
	ref := map[string]interface{}{
		"channelId":  activity.ChannelID,
		"serviceUrl": activity.ServiceURL,
	}
	if activity.Conversation != nil {
		ref["conversation"] = map[string]interface{}{
			"id":       activity.Conversation.ID,
			"tenantId": activity.Conversation.TenantID,
		}
	}
	if activity.From != nil {
		ref["user"] = map[string]interface{}{
			"id":   activity.From.ID,
			"name": activity.From.Name,
		}
	}
	if activity.Recipient != nil {
		ref["bot"] = map[string]interface{}{
			"id":   activity.Recipient.ID,
			"name": activity.Recipient.Name,
		}
	}
	return ref
}

// IsMemberAdded reports whether the update added someone other than the bot.
func IsMemberAdded(activity *Activity) bool {
	if activity.Type != ActivityConversationUpdate {
		return false
	}
	botID := ""
	if activity.Recipient != nil {
		botID = activity.Recipient.ID
	}
	for _, member := range activity.MembersAdded {
		if member.ID != botID {
			return true
		}
	}
	return false
}

func firstHTTPURL(values ...string) string {
	for _, v := range values {
		if strings.HasPrefix(v, "http") {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
