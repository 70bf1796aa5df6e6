package models

type Comment struct {
	ID        string `json:"id"`
	TaskID    string `json:"taskId"`
	UserID    string `json:"userId"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// Attachment is a reference to a blob stored elsewhere.
type Attachment struct {
	ID         string `json:"id"`
	TaskID     string `json:"taskId"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	Type       string `json:"type"`
	URL        string `json:"url"`
	UploadedBy string `json:"uploadedBy"`
	UploadedAt string `json:"uploadedAt"`
	FilePath   string `json:"filePath"`
}
