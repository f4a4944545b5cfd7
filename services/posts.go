package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/linkup-social/linkup/models"
	"github.com/linkup-social/linkup/storage"
	"github.com/linkup-social/linkup/utils"
)

const (
	maxTags      = 30
	maxTagLength = 64
	maxMedia     = 10
)

// MediaInput describes an already uploaded object attached to a post.
type MediaInput struct {
	Type       string
	URL        string
	StorageKey string
}

// PostInput carries post fields. Nil fields are left unchanged on update.
type PostInput struct {
	Title   *string
	Content *string
	Tags    []string
	Media   []MediaInput
	// SetTags and SetMedia distinguish an explicit empty list from an omitted one.
	SetTags  bool
	SetMedia bool
}

// ObjectRemover deletes stored media objects.
type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
}

// PostService manages posts and their comments.
type PostService struct {
	db      *gorm.DB
	objects ObjectRemover
}

// NewPostService creates a PostService. objects may be nil when storage is not configured.
func NewPostService(db *gorm.DB, objects ObjectRemover) *PostService {
	return &PostService{db: db, objects: objects}
}

// Create stores a new post authored by authorID.
func (s *PostService) Create(ctx context.Context, authorID uint, in PostInput) (*models.Post, error) {
	if in.Content == nil {
		return nil, ValidationFailed("content is required", utils.FieldError{Field: "content", Rule: "required"})
	}
	post := models.Post{AuthorID: authorID}
	if err := applyPostInput(&post, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, Internal(err)
	}
	return s.Get(ctx, post.ID)
}

// Get returns one post with its author, tags and media.
func (s *PostService) Get(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	if err := withPostAssociations(s.db.WithContext(ctx)).First(&post, postID).Error; err != nil {
		return nil, notFoundOr(err, "post not found")
	}
	return &post, nil
}

// Update applies a partial update. Only the author may update a post.
func (s *PostService) Update(ctx context.Context, caller Caller, postID uint, in PostInput) (*models.Post, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFoundOr(err, "post not found")
		}
		if post.AuthorID != caller.UserID {
			return Forbidden("access denied, only the post author can update this post")
		}
		if err := applyPostInput(&post, in); err != nil {
			return err
		}

		err := tx.Model(&models.Post{ID: post.ID}).Updates(map[string]interface{}{
			"title":   post.Title,
			"content": post.Content,
		}).Error
		if err != nil {
			return Internal(err)
		}
		if in.SetTags {
			if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostTag{}).Error; err != nil {
				return Internal(err)
			}
			for i := range post.TagRows {
				post.TagRows[i].PostID = post.ID
			}
			if len(post.TagRows) > 0 {
				if err := tx.Create(&post.TagRows).Error; err != nil {
					return Internal(err)
				}
			}
		}
		if in.SetMedia {
			if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostMedia{}).Error; err != nil {
				return Internal(err)
			}
			for i := range post.Media {
				post.Media[i].PostID = post.ID
			}
			if len(post.Media) > 0 {
				if err := tx.Create(&post.Media).Error; err != nil {
					return Internal(err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}
	return s.Get(ctx, postID)
}

// Delete removes a post together with its likes, comments, tags and media rows in one
// transaction. Stored media objects uploaded by the author are removed afterwards on a
// best-effort basis.
func (s *PostService) Delete(ctx context.Context, caller Caller, postID uint) error {
	var (
		media    []models.PostMedia
		authorID uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFoundOr(err, "post not found")
		}
		if post.AuthorID != caller.UserID {
			return Forbidden("access denied, only the post author can delete this post")
		}
		authorID = post.AuthorID
		if err := tx.Where("post_id = ?", postID).Find(&media).Error; err != nil {
			return Internal(err)
		}
		for _, model := range []interface{}{&models.Like{}, &models.Comment{}, &models.PostTag{}, &models.PostMedia{}} {
			if err := tx.Where("post_id = ?", postID).Delete(model).Error; err != nil {
				return Internal(err)
			}
		}
		if err := tx.Delete(&models.Post{}, postID).Error; err != nil {
			return Internal(err)
		}
		return nil
	})
	if err != nil {
		return asServiceError(err)
	}

	if s.objects != nil {
		for _, m := range media {
			if owner, ok := storage.OwnerOf(m.StorageKey); !ok || owner != authorID {
				utils.Sugar.Warnw("skipping media object not owned by post author", "post_id", postID, "key", m.StorageKey)
				continue
			}
			if err := s.objects.Delete(ctx, m.StorageKey); err != nil {
				utils.Sugar.Warnw("failed to delete media object", "post_id", postID, "key", m.StorageKey, "error", err)
			}
		}
	}
	return nil
}

// AddComment attaches a comment by userID to an existing post.
func (s *PostService) AddComment(ctx context.Context, userID, postID uint, content string) (*models.Comment, error) {
	content = utils.Sanitize(content)
	if content == "" {
		return nil, ValidationFailed("comment content is required", utils.FieldError{Field: "content", Rule: "required"})
	}
	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.Post{}, postID).Error; err != nil {
		return nil, notFoundOr(err, "post not found")
	}

	comment := models.Comment{PostID: postID, UserID: userID, Content: content}
	if err := db.Create(&comment).Error; err != nil {
		return nil, Internal(err)
	}
	if err := withCommentUser(db).First(&comment, comment.ID).Error; err != nil {
		return nil, Internal(err)
	}
	return &comment, nil
}

// ListComments returns a post's comments, newest first.
func (s *PostService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.Post{}, postID).Error; err != nil {
		return nil, notFoundOr(err, "post not found")
	}
	comments := []models.Comment{}
	if err := withCommentUser(db).Where("post_id = ?", postID).Order("created_at DESC").Order("id DESC").Find(&comments).Error; err != nil {
		return nil, Internal(err)
	}
	return comments, nil
}

// DeleteComment removes a comment. The comment owner and the post author may delete it.
func (s *PostService) DeleteComment(ctx context.Context, caller Caller, commentID uint) (*models.Comment, error) {
	db := s.db.WithContext(ctx)
	var cmt models.Comment
	if err := db.First(&cmt, commentID).Error; err != nil {
		return nil, notFoundOr(err, "comment not found")
	}
	if cmt.UserID != caller.UserID {
		var post models.Post
		if err := db.Select("id", "author_id").First(&post, cmt.PostID).Error; err != nil {
			return nil, notFoundOr(err, "post not found")
		}
		if post.AuthorID != caller.UserID {
			return nil, Forbidden("you can only delete your own comment")
		}
	}
	if err := db.Delete(&cmt).Error; err != nil {
		return nil, Internal(err)
	}
	return &cmt, nil
}

func withCommentUser(tx *gorm.DB) *gorm.DB {
	return tx.Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") })
}

// applyPostInput validates and copies in onto post, rebuilding tag and media rows when set.
func applyPostInput(post *models.Post, in PostInput) error {
	if in.Title != nil {
		post.Title = utils.Sanitize(*in.Title)
	}
	if in.Content != nil {
		content := utils.Sanitize(*in.Content)
		if content == "" {
			return ValidationFailed("content is required", utils.FieldError{Field: "content", Rule: "required"})
		}
		post.Content = content
	}
	if in.SetTags || post.ID == 0 {
		tags, err := normalizeTags(in.Tags)
		if err != nil {
			return err
		}
		post.TagRows = models.TagRowsFor(tags)
		post.Tags = tags
	}
	if in.SetMedia || post.ID == 0 {
		media, err := buildMedia(post.AuthorID, in.Media)
		if err != nil {
			return err
		}
		post.Media = media
	}
	return nil
}

func normalizeTags(raw []string) ([]string, error) {
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len([]rune(t)) > maxTagLength {
			return nil, ValidationFailed("tag too long", utils.FieldError{Field: "tags", Rule: "max"})
		}
		tags = append(tags, t)
	}
	if len(tags) > maxTags {
		return nil, ValidationFailed("too many tags", utils.FieldError{Field: "tags", Rule: "max"})
	}
	return tags, nil
}

// buildMedia validates attachments. Every storage key must be one the author uploaded.
func buildMedia(authorID uint, in []MediaInput) ([]models.PostMedia, error) {
	if len(in) > maxMedia {
		return nil, ValidationFailed("too many media items", utils.FieldError{Field: "media", Rule: "max"})
	}
	out := make([]models.PostMedia, 0, len(in))
	for i, m := range in {
		if m.Type != models.MediaImage && m.Type != models.MediaVideo {
			return nil, ValidationFailed("invalid media type", utils.FieldError{Field: "media.type", Rule: "oneof"})
		}
		if strings.TrimSpace(m.URL) == "" || strings.TrimSpace(m.StorageKey) == "" {
			return nil, ValidationFailed("media url and storageKey are required", utils.FieldError{Field: "media", Rule: "required"})
		}
		if !storage.ValidKey(m.StorageKey) {
			return nil, ValidationFailed("invalid media storageKey", utils.FieldError{Field: "media.storageKey", Rule: "format"})
		}
		if owner, _ := storage.OwnerOf(m.StorageKey); owner != authorID {
			return nil, Forbidden("you can only attach media you uploaded")
		}
		out = append(out, models.PostMedia{Position: i, Type: m.Type, URL: m.URL, StorageKey: m.StorageKey})
	}
	return out, nil
}
