package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"pos-print-service/models"
)

// DocumentArchive keeps fallback documents so staff can reprint them later
type DocumentArchive interface {
	Archive(ctx context.Context, name, html string) (*models.ArchivedDocument, error)
	List(ctx context.Context, limit int) ([]models.ArchivedDocument, error)
}

// DriveArchive stores fallback documents as HTML files in a Google Drive folder
type DriveArchive struct {
	client   *drive.Service
	folderID string
}

// NewDriveArchive creates a new DriveArchive.
// credentialsPath should be the path to the Service Account JSON file.
func NewDriveArchive(ctx context.Context, credentialsPath, folderID string, opts ...option.ClientOption) (*DriveArchive, error) {
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	client, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveArchive{client: client, folderID: folderID}, nil
}

// Ensure DriveArchive implements DocumentArchive
var _ DocumentArchive = (*DriveArchive)(nil)

// Archive uploads one HTML document into the archive folder
func (a *DriveArchive) Archive(ctx context.Context, name, html string) (*models.ArchivedDocument, error) {
	file := &drive.File{
		Name:     name,
		MimeType: "text/html",
		Parents:  []string{a.folderID},
	}
	created, err := a.client.Files.Create(file).
		Media(strings.NewReader(html)).
		Fields("id, name, webViewLink, createdTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to archive %s: %w", name, err)
	}

	log.Printf("✓ Fallback document archived: %s (%s)", created.Name, created.Id)
	return toArchivedDocument(created), nil
}

// List returns the most recent archived documents, newest first
func (a *DriveArchive) List(ctx context.Context, limit int) ([]models.ArchivedDocument, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	query := fmt.Sprintf("'%s' in parents and trashed=false", a.folderID)

	r, err := a.client.Files.List().
		Q(query).
		OrderBy("createdTime desc").
		PageSize(int64(limit)).
		Fields("files(id, name, webViewLink, createdTime)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list archived documents: %w", err)
	}

	docs := make([]models.ArchivedDocument, 0, len(r.Files))
	for _, f := range r.Files {
		docs = append(docs, *toArchivedDocument(f))
	}
	return docs, nil
}

func toArchivedDocument(f *drive.File) *models.ArchivedDocument {
	viewURL := f.WebViewLink
	if viewURL == "" {
		viewURL = fmt.Sprintf("https://drive.google.com/file/d/%s/view", f.Id)
	}
	return &models.ArchivedDocument{
		FileID:    f.Id,
		Name:      f.Name,
		ViewURL:   viewURL,
		CreatedAt: f.CreatedTime,
	}
}
