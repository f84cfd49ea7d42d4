package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"coursebay/internal/domain/entity"
	"coursebay/internal/domain/service"
	"coursebay/pkg/errors"
)

// validateMessageBody enforces the message shape before any upload happens:
// content and media cannot both be empty, at most four attachments, and only
// image or video kinds.
func validateMessageBody(content string, media []MediaInput) error {
	if strings.TrimSpace(content) == "" && len(media) == 0 {
		return errors.BadRequest("Message needs content or media", nil)
	}
	if len(media) > entity.MaxMediaItems {
		return errors.BadRequest(fmt.Sprintf("At most %d media items per message", entity.MaxMediaItems), nil)
	}
	for _, item := range media {
		if !item.Kind.Valid() {
			return errors.BadRequest("Media kind must be image or video", nil)
		}
		if item.Data == "" {
			return errors.BadRequest("Media item has no data", nil)
		}
	}
	return nil
}

// uploadAll pushes every attachment to the media store under one deadline.
// Any failure aborts the send: already-uploaded objects are destroyed
// best-effort and the error propagates.
func uploadAll(ctx context.Context, store service.MediaStore, timeout time.Duration, folder string, media []MediaInput) ([]entity.Media, error) {
	if len(media) == 0 {
		return nil, nil
	}

	uploadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var uploaded []entity.Media
	for _, item := range media {
		data, err := base64.StdEncoding.DecodeString(item.Data)
		if err != nil {
			destroyMedia(store, uploaded)
			return nil, errors.BadRequest("Media data is not valid base64", err)
		}

		ref, err := store.Upload(uploadCtx, data, contentTypeFor(item.Kind), folder)
		if err != nil {
			log.Printf("uploadAll: media upload failed: %v", err)
			destroyMedia(store, uploaded)
			return nil, errors.Internal("Failed to upload media", err)
		}

		uploaded = append(uploaded, entity.Media{
			Kind:       item.Kind,
			StorageRef: ref.StorageRef,
			URL:        ref.URL,
		})
	}

	return uploaded, nil
}

// destroyMedia removes stored objects best-effort; failures are logged and
// never surfaced.
func destroyMedia(store service.MediaStore, media []entity.Media) {
	if len(media) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	for _, item := range media {
		if err := store.Delete(ctx, item.StorageRef); err != nil {
			log.Printf("destroyMedia: failed to delete %s: %v", item.StorageRef, err)
		}
	}
}

// messagePreview is the denormalized text stored on the conversation.
func messagePreview(message *entity.Message) string {
	if message.Content != "" {
		return message.Content
	}
	if len(message.Media) > 0 {
		return "[media]"
	}
	return ""
}

func contentTypeFor(kind entity.MediaKind) string {
	if kind == entity.MediaVideo {
		return "video/mp4"
	}
	return "image/jpeg"
}
