package services

import (
	"context"

	"fmac-task/internal/docstore"
	"fmac-task/internal/models"
	"fmac-task/internal/schema"
)

type CommentService struct {
	comments collection
}

func NewCommentService(store docstore.Store) *CommentService {
	return &CommentService{comments: newCollection(store, schema.Comment)}
}

// ListByTask returns a task's comments oldest first.
func (s *CommentService) ListByTask(ctx context.Context, taskID string) ([]models.Comment, error) {
	docs, err := s.comments.listOrdered(ctx, "createdAt", docstore.Asc, s.comments.where("taskId", docstore.OpEq, taskID))
	if err != nil {
		return nil, err
	}
	out := make([]models.Comment, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeComment(d))
	}
	return out, nil
}

func (s *CommentService) Get(ctx context.Context, id string) (models.Comment, error) {
	doc, err := s.comments.get(ctx, id)
	if err != nil {
		return models.Comment{}, err
	}
	return decodeComment(doc), nil
}

func (s *CommentService) Add(ctx context.Context, c models.Comment) (models.Comment, error) {
	doc, err := s.comments.add(ctx, map[string]any{
		"taskId":  c.TaskID,
		"userId":  c.UserID,
		"content": c.Content,
	})
	if err != nil {
		return models.Comment{}, err
	}
	return decodeComment(doc), nil
}

func (s *CommentService) Delete(ctx context.Context, id string) error {
	return s.comments.delete(ctx, id)
}

func decodeComment(doc map[string]any) models.Comment {
	return models.Comment{
		ID:        str(doc, "id"),
		TaskID:    str(doc, "taskId"),
		UserID:    str(doc, "userId"),
		Content:   str(doc, "content"),
		CreatedAt: str(doc, "createdAt"),
	}
}

// AttachmentService stores attachment references. Binary content lives in
// the blob store.
type AttachmentService struct {
	attachments collection
}

func NewAttachmentService(store docstore.Store) *AttachmentService {
	return &AttachmentService{attachments: newCollection(store, schema.Attachment)}
}

func (s *AttachmentService) ListByTask(ctx context.Context, taskID string) ([]models.Attachment, error) {
	docs, err := s.attachments.listOrdered(ctx, "uploadedAt", docstore.Asc, s.attachments.where("taskId", docstore.OpEq, taskID))
	if err != nil {
		return nil, err
	}
	out := make([]models.Attachment, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeAttachment(d))
	}
	return out, nil
}

func (s *AttachmentService) Get(ctx context.Context, id string) (models.Attachment, error) {
	doc, err := s.attachments.get(ctx, id)
	if err != nil {
		return models.Attachment{}, err
	}
	return decodeAttachment(doc), nil
}

func (s *AttachmentService) Add(ctx context.Context, a models.Attachment) (models.Attachment, error) {
	doc, err := s.attachments.add(ctx, map[string]any{
		"taskId":     a.TaskID,
		"name":       a.Name,
		"size":       a.Size,
		"type":       a.Type,
		"url":        a.URL,
		"uploadedBy": a.UploadedBy,
		"uploadedAt": a.UploadedAt,
		"filePath":   a.FilePath,
	})
	if err != nil {
		return models.Attachment{}, err
	}
	return decodeAttachment(doc), nil
}

func (s *AttachmentService) Delete(ctx context.Context, id string) error {
	return s.attachments.delete(ctx, id)
}

func decodeAttachment(doc map[string]any) models.Attachment {
	a := models.Attachment{
		ID:         str(doc, "id"),
		TaskID:     str(doc, "taskId"),
		Name:       str(doc, "name"),
		Size:       integer(doc, "size"),
		Type:       str(doc, "type"),
		URL:        str(doc, "url"),
		UploadedBy: str(doc, "uploadedBy"),
		UploadedAt: str(doc, "uploadedAt"),
		FilePath:   str(doc, "filePath"),
	}
	if a.UploadedAt == "" {
		a.UploadedAt = str(doc, "createdAt")
	}
	return a
}
