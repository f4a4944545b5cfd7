package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/linkup-social/linkup/middleware"
	"github.com/linkup-social/linkup/models"
	"github.com/linkup-social/linkup/services"
	"github.com/linkup-social/linkup/storage"
	"github.com/linkup-social/linkup/utils"
)

const (
	mediaFormField     = "media"
	maxFilesPerRequest = 10
	mediaCacheControl  = "public, max-age=31536000"
)

// MediaController uploads, serves and deletes media objects.
type MediaController struct {
	store    storage.ObjectStore
	maxBytes int64
	baseURL  string
}

// NewMediaController creates a MediaController. baseURL prefixes the returned proxy URLs.
func NewMediaController(store storage.ObjectStore, maxBytes int64, baseURL string) *MediaController {
	return &MediaController{store: store, maxBytes: maxBytes, baseURL: strings.TrimRight(baseURL, "/")}
}

type uploadedMedia struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	StorageKey  string `json:"storageKey"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Upload stores a single image or video sent as multipart field "media".
func (m *MediaController) Upload(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	header, err := ctx.FormFile(mediaFormField)
	if err != nil {
		respondError(ctx, services.ValidationFailed("no file uploaded", utils.FieldError{Field: mediaFormField, Rule: "required"}))
		return
	}

	item, err := m.saveFile(ctx, caller.UserID, header)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"media": item})
}

// UploadMultiple stores up to ten files sent as repeated "media" fields.
func (m *MediaController) UploadMultiple(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	form, err := ctx.MultipartForm()
	if err != nil || len(form.File[mediaFormField]) == 0 {
		respondError(ctx, services.ValidationFailed("no files uploaded", utils.FieldError{Field: mediaFormField, Rule: "required"}))
		return
	}
	files := form.File[mediaFormField]
	if len(files) > maxFilesPerRequest {
		respondError(ctx, services.ValidationFailed("too many files", utils.FieldError{Field: mediaFormField, Rule: "max"}))
		return
	}

	items := make([]uploadedMedia, 0, len(files))
	for _, header := range files {
		if err := m.checkFile(header); err != nil {
			respondError(ctx, err)
			return
		}
	}
	for _, header := range files {
		item, err := m.saveFile(ctx, caller.UserID, header)
		if err != nil {
			m.rollback(ctx, items)
			respondError(ctx, err)
			return
		}
		items = append(items, *item)
	}
	utils.Created(ctx, gin.H{"count": len(items), "media": items})
}

// Serve streams an object with long-lived cache headers.
func (m *MediaController) Serve(ctx *gin.Context) {
	key := strings.TrimPrefix(ctx.Param("key"), "/")
	if !storage.ValidKey(key) {
		respondError(ctx, services.NotFound("file not found"))
		return
	}

	obj, err := m.store.Get(ctx.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(ctx, services.NotFound("file not found"))
			return
		}
		respondError(ctx, services.Internal(err))
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, map[string]string{
		"Cache-Control": mediaCacheControl,
	})
}

// Delete removes an object uploaded by the caller.
func (m *MediaController) Delete(ctx *gin.Context) {
	caller, ok := requireCaller(ctx)
	if !ok {
		return
	}
	key := strings.TrimPrefix(ctx.Param("key"), "/")
	owner, valid := storage.OwnerOf(key)
	if !valid || !storage.ValidKey(key) {
		respondError(ctx, services.ValidationFailed("invalid storage key", utils.FieldError{Field: "key", Rule: "format"}))
		return
	}
	if owner != caller.UserID {
		respondError(ctx, services.Forbidden("you can only delete your own uploads"))
		return
	}
	if err := m.store.Delete(ctx.Request.Context(), key); err != nil {
		respondError(ctx, services.Internal(err))
		return
	}
	utils.Success(ctx, gin.H{"message": "file deleted", "storageKey": key})
}

func (m *MediaController) checkFile(header *multipart.FileHeader) error {
	if mediaType(header.Header.Get("Content-Type")) == "" {
		return services.ValidationFailed("only image and video files are allowed", utils.FieldError{Field: mediaFormField, Rule: "mimetype"})
	}
	if m.maxBytes > 0 && header.Size > m.maxBytes {
		return services.ValidationFailed(fmt.Sprintf("file exceeds %d bytes", m.maxBytes), utils.FieldError{Field: mediaFormField, Rule: "max"})
	}
	return nil
}

// saveFile validates and uploads one file.
func (m *MediaController) saveFile(ctx *gin.Context, ownerID uint, header *multipart.FileHeader) (*uploadedMedia, error) {
	if err := m.checkFile(header); err != nil {
		return nil, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, services.Internal(err)
	}
	defer f.Close()

	contentType := header.Header.Get("Content-Type")
	key := storage.NewObjectKey(ownerID, header.Filename)
	var body io.Reader = f
	if m.maxBytes > 0 {
		body = io.LimitReader(f, m.maxBytes)
	}
	if err := m.store.Put(ctx.Request.Context(), key, body, header.Size, contentType); err != nil {
		return nil, services.Internal(err)
	}

	kind := mediaType(contentType)
	middleware.MediaUploaded.WithLabelValues(kind).Inc()
	return &uploadedMedia{
		Type:        kind,
		URL:         m.baseURL + "/api/v1/media/file/" + key,
		StorageKey:  key,
		ContentType: contentType,
		Size:        header.Size,
	}, nil
}

// rollback removes objects stored earlier in a failed multi-upload.
func (m *MediaController) rollback(ctx *gin.Context, items []uploadedMedia) {
	for _, it := range items {
		if err := m.store.Delete(ctx.Request.Context(), it.StorageKey); err != nil {
			utils.Logger.Warn("rollback upload failed", zap.String("key", it.StorageKey), zap.Error(err))
		}
	}
}

// mediaType maps a MIME type to a post media type, or "" when it is neither.
func mediaType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return models.MediaImage
	case strings.HasPrefix(ct, "video/"):
		return models.MediaVideo
	default:
		return ""
	}
}
