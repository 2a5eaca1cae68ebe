package router

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/metrics"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk"
)

// processAttachments relays Teams attachments to the backend. Each
// attachment is downloaded exactly once and all attachments of one message
// are processed concurrently; images are additionally archived to the media
// store in parallel with the backend upload. A failed attachment is logged
// and omitted, never failing the message; surviving attachments keep their
// original order.
func (r *Router) processAttachments(ctx context.Context, client helpdesk.Client, attachments []models.ChatAttachment) []helpdesk.OutboundAttachment {
	if len(attachments) == 0 {
		return nil
	}

	results := make([]*helpdesk.OutboundAttachment, len(attachments))
	var wg sync.WaitGroup

	for i, att := range attachments {
		wg.Add(1)
		go func(i int, att models.ChatAttachment) {
			defer wg.Done()
			results[i] = r.relayAttachment(ctx, client, att)
		}(i, att)
	}
	wg.Wait()

	var out []helpdesk.OutboundAttachment
	for _, res := range results {
		if res != nil {
			out = append(out, *res)
		}
	}
	return out
}

func (r *Router) relayAttachment(ctx context.Context, client helpdesk.Client, att models.ChatAttachment) *helpdesk.OutboundAttachment {
	data, contentType, err := r.sender.DownloadAttachment(ctx, att.ContentURL, att.DownloadURL)
	if err != nil {
		log.Warn().Err(err).Str("name", att.Name).Msg("Attachment download failed; skipping")
		return nil
	}
	if att.ContentType != "" && att.ContentType != "application/octet-stream" {
		contentType = att.ContentType
	}

	kind := models.ClassifyAttachment("", contentType, att.Name)
	metrics.AttachmentsTotal.WithLabelValues("teams", string(kind)).Inc()

	var uploaded *helpdesk.UploadedFile
	var uploadErr error

	if kind == models.AttachmentImage && r.mediaStore != nil {
		// Archive and backend upload run concurrently; either may fail
		// without affecting the other.
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.mediaStore.Put(ctx, att.Name, contentType, data); err != nil {
				log.Warn().Err(err).Str("name", att.Name).Msg("Media archive failed")
			}
		}()
		uploaded, uploadErr = client.UploadFile(ctx, att.Name, contentType, data)
		wg.Wait()
	} else {
		uploaded, uploadErr = client.UploadFile(ctx, att.Name, contentType, data)
	}

	if uploadErr != nil {
		log.Warn().Err(uploadErr).Str("name", att.Name).Msg("Attachment upload failed; skipping")
		return nil
	}

	return &helpdesk.OutboundAttachment{
		URL:         uploaded.URL,
		FileHash:    uploaded.FileHash,
		FileID:      uploaded.FileID,
		Name:        uploaded.Name,
		ContentType: uploaded.ContentType,
	}
}
