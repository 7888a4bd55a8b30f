package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge   = errors.New("storage: file too large")
	ErrFileType       = errors.New("storage: file type not allowed (allowed: jpg, jpeg, png, webp)")
	ErrEmptyFile      = errors.New("storage: empty file")
	allowedImageTypes = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
	}
)

type Avatar struct {
	ObjectName string `json:"avatarImageId"`
	URL        string `json:"avatarUrl"`
	MimeType   string `json:"mimeType"`
	SizeBytes  int64  `json:"sizeBytes"`
}

// Avatars validates profile pictures and stores them under avatars/<user>/.
type Avatars struct {
	store    ObjectStore
	maxBytes int64
	now      func() time.Time
}

func NewAvatars(store ObjectStore, maxBytes int64) *Avatars {
	return &Avatars{store: store, maxBytes: maxBytes, now: time.Now}
}

func (a *Avatars) Upload(ctx context.Context, userID string, fh *multipart.FileHeader) (Avatar, error) {
	if fh.Size <= 0 {
		return Avatar{}, ErrEmptyFile
	}
	if a.maxBytes > 0 && fh.Size > a.maxBytes {
		return Avatar{}, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, fh.Size, a.maxBytes)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	want, ok := allowedImageTypes[ext]
	if !ok {
		return Avatar{}, ErrFileType
	}

	f, err := fh.Open()
	if err != nil {
		return Avatar{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	// The extension alone is not trusted; the leading bytes must agree.
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Avatar{}, fmt.Errorf("read file: %w", err)
	}
	head = head[:n]
	if got := http.DetectContentType(head); got != want {
		return Avatar{}, fmt.Errorf("%w: content is %s", ErrFileType, got)
	}

	name := fmt.Sprintf("avatars/%s/%d-%s%s", userID, a.now().UTC().Unix(), uuid.NewString(), ext)
	body := io.MultiReader(bytes.NewReader(head), f)
	if err := a.store.Put(ctx, name, body, fh.Size, want); err != nil {
		return Avatar{}, err
	}
	return Avatar{ObjectName: name, URL: a.store.URL(name), MimeType: want, SizeBytes: fh.Size}, nil
}

// Delete removes a previous avatar; an empty name is a no-op.
func (a *Avatars) Delete(ctx context.Context, objectName string) error {
	if objectName == "" {
		return nil
	}
	return a.store.Delete(ctx, objectName)
}

// DeletePrevious removes a replaced avatar. Records that only kept the
// public URL have their object name recovered from it.
func (a *Avatars) DeletePrevious(ctx context.Context, objectName, url string) error {
	if objectName == "" && url != "" {
		key, err := a.store.KeyFromURL(url)
		if err != nil {
			return err
		}
		objectName = key
	}
	return a.Delete(ctx, objectName)
}
