package service

import "context"

// MediaRef is an uploaded object: its storage path and public URL.
type MediaRef struct {
	StorageRef string
	URL        string
}

// MediaStore is the external media collaborator. Upload is on the send
// critical path and must respect ctx deadlines; Delete is best-effort.
type MediaStore interface {
	Upload(ctx context.Context, data []byte, contentType, folder string) (*MediaRef, error)
	Delete(ctx context.Context, storageRef string) error
}
