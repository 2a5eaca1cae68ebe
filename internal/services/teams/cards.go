package teams

import (
	"fmt"
	"strings"
)

// Card is an outbound Bot Framework card attachment.
type Card struct {
	ContentType string
	Content     map[string]interface{}
}

const (
	heroCardContentType     = "application/vnd.microsoft.card.hero"
	adaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

	fileIconBaseURL = "https://res-1.cdn.office.net/files/fabric-cdn-prod_20230815.001/assets/item-types/48"
)

// FormatAgentMessage prefixes agent messages with the sender's name in bold
// so the Teams user can tell agents apart.
func FormatAgentMessage(senderName, text string) string {
	if senderName == "" {
		return text
	}
	if text == "" {
		return fmt.Sprintf("👤 **%s**", senderName)
	}
	return fmt.Sprintf("👤 **%s**\n\n%s", senderName, text)
}

// NewImageCard renders an image inline.
func NewImageCard(imageURL, title string) Card {
	return Card{
		ContentType: heroCardContentType,
		Content: map[string]interface{}{
			"title":  title,
			"images": []map[string]interface{}{{"url": imageURL}},
		},
	}
}

// NewFileCard renders a file as a download card with a type icon, a size
// line when known, and a download link.
func NewFileCard(filename, fileURL string, fileSize int64, contentType string) Card {
	items := []map[string]interface{}{
		{
			"type":   "TextBlock",
			"text":   filename,
			"weight": "Bolder",
			"wrap":   true,
		},
	}
	if size := formatFileSize(fileSize); size != "" {
		items = append(items, map[string]interface{}{
			"type":     "TextBlock",
			"text":     size,
			"size":     "Small",
			"isSubtle": true,
			"spacing":  "None",
		})
	}
	items = append(items, map[string]interface{}{
		"type":    "TextBlock",
		"text":    fmt.Sprintf("[Download](%s)", fileURL),
		"spacing": "Small",
	})

	return Card{
		ContentType: adaptiveCardContentType,
		Content: map[string]interface{}{
			"type":    "AdaptiveCard",
			"version": "1.4",
			"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
			"body": []map[string]interface{}{{
				"type": "ColumnSet",
				"columns": []map[string]interface{}{
					{
						"type":  "Column",
						"width": "auto",
						"items": []map[string]interface{}{{
							"type":    "Image",
							"url":     fileIconURL(contentType, filename),
							"size":    "Medium",
							"altText": "File icon",
						}},
					},
					{
						"type":  "Column",
						"width": "stretch",
						"items": items,
					},
				},
			}},
		},
	}
}

func formatFileSize(size int64) string {
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	case size > 0:
		return fmt.Sprintf("%d bytes", size)
	}
	return ""
}

var iconByExtension = map[string]string{
	"pdf":  "pdf",
	"doc":  "docx",
	"docx": "docx",
	"xls":  "xlsx",
	"xlsx": "xlsx",
	"ppt":  "pptx",
	"pptx": "pptx",
	"zip":  "zip",
	"rar":  "zip",
	"7z":   "zip",
	"png":  "photo",
	"jpg":  "photo",
	"jpeg": "photo",
	"gif":  "photo",
	"mp4":  "video",
	"mov":  "video",
	"avi":  "video",
	"mp3":  "audio",
	"wav":  "audio",
	"txt":  "txt",
	"csv":  "csv",
}

func fileIconURL(contentType, filename string) string {
	ext := ""
	switch {
	case strings.Contains(contentType, "pdf"):
		ext = "pdf"
	case strings.Contains(contentType, "word"), strings.Contains(contentType, "document"):
		ext = "docx"
	case strings.Contains(contentType, "excel"), strings.Contains(contentType, "spreadsheet"):
		ext = "xlsx"
	case strings.Contains(contentType, "powerpoint"), strings.Contains(contentType, "presentation"):
		ext = "pptx"
	case strings.Contains(contentType, "zip"), strings.Contains(contentType, "compressed"):
		ext = "zip"
	case strings.Contains(contentType, "image"):
		ext = "photo"
	case strings.Contains(contentType, "video"):
		ext = "video"
	case strings.Contains(contentType, "audio"):
		ext = "audio"
	default:
		if dot := strings.LastIndex(filename, "."); dot >= 0 {
			ext = strings.ToLower(filename[dot+1:])
		}
	}

	icon, ok := iconByExtension[ext]
	if !ok {
		icon = "genericfile"
	}
	return fmt.Sprintf("%s/%s.svg", fileIconBaseURL, icon)
}
