package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"collections_flow_go/config"
	"collections_flow_go/models"
)

// ContainerRef identifies a case's storage container. It is an explicit
// reference type: callers never pass raw names or probe for capabilities.
type ContainerRef struct {
	Name   string `json:"name"`   // canonical folder name
	Prefix string `json:"prefix"` // storage key prefix
}

// DocCheck is the result of a document-existence lookup.
type DocCheck struct {
	Exists bool   `json:"exists"`
	Name   string `json:"name,omitempty"`
	Key    string `json:"key,omitempty"`
	URL    string `json:"url,omitempty"`
}

// DocumentInfo describes one stored case document.
type DocumentInfo struct {
	Name     string    `json:"name"`
	Folder   string    `json:"folder"` // bucket the document lives in
	Key      string    `json:"key"`
	URL      string    `json:"url,omitempty"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// CaseStore is the per-case persistent container contract: metadata
// read/write, append-only history, and document lookkeeping.
type CaseStore interface {
	FindContainer(ctx context.Context, record *models.CaseRecord) (*ContainerRef, error)
	CreateContainer(ctx context.Context, record *models.CaseRecord) (*ContainerRef, bool, error)
	GetMetadata(ctx context.Context, container *ContainerRef) (*models.CaseMetadata, error)
	UpdateMetadata(ctx context.Context, container *ContainerRef, updates models.MetadataUpdates) error
	GetHistory(ctx context.Context, container *ContainerRef) ([]models.HistoryEntry, error)
	AppendHistory(ctx context.Context, container *ContainerRef, entry models.HistoryEntry) error
	// DocumentExists checks for a document of the given type. The container is
	// optional: when nil, it is resolved from the record first.
	DocumentExists(ctx context.Context, record *models.CaseRecord, documentType string, container *ContainerRef) (DocCheck, error)
	SaveDocument(ctx context.Context, record *models.CaseRecord, documentType string, fileName string, contentType string, content []byte) (DocCheck, error)
	ListDocuments(ctx context.Context, container *ContainerRef) ([]DocumentInfo, error)
}

// Archiver moves whole case containers out of the active set. The returned
// reference points at the container's new location.
type Archiver interface {
	Archive(ctx context.Context, container *ContainerRef) (*ContainerRef, error)
	MoveToBankruptcy(ctx context.Context, container *ContainerRef) (*ContainerRef, error)
}

// nonAlphanumeric matches everything stripped from a business name when
// deriving the canonical folder name.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// FolderStore implements CaseStore and Archiver over a StorageProvider.
// Containers are named by the cleaned business name only, for human
// readability, and hold metadata.json, history.json, and document buckets.
type FolderStore struct {
	storage StorageProvider
	cfg     *config.Config
	now     func() time.Time
}

// NewFolderStore creates the folder store. The clock is injectable for tests.
func NewFolderStore(storage StorageProvider, cfg *config.Config) *FolderStore {
	return &FolderStore{storage: storage, cfg: cfg, now: time.Now}
}

// CleanBusinessName canonicalizes a business name for folder use: special
// characters removed, whitespace collapsed to underscores, length bounded.
// The match is case-sensitive.
func (f *FolderStore) CleanBusinessName(businessName string) string {
	if businessName == "" {
		return "Unknown_Business"
	}
	cleaned := nonAlphanumeric.ReplaceAllString(businessName, "")
	cleaned = whitespaceRun.ReplaceAllString(strings.TrimSpace(cleaned), "_")
	if cleaned == "" {
		return "Unknown_Business"
	}
	maxLen := f.cfg.FolderNameMaxLen
	if maxLen > 0 && len(cleaned) > maxLen {
		cleaned = cleaned[:maxLen]
	}
	return cleaned
}

func (f *FolderStore) metadataKey(container *ContainerRef) string {
	return container.Prefix + "/" + config.MetadataFileName
}

func (f *FolderStore) historyKey(container *ContainerRef) string {
	return container.Prefix + "/" + config.HistoryFileName
}

// FindContainer locates an existing container by exact canonical name.
// Returns nil when the case has never been initialized.
func (f *FolderStore) FindContainer(ctx context.Context, record *models.CaseRecord) (*ContainerRef, error) {
	if record == nil || record.BusinessName == "" {
		return nil, fmt.Errorf("findContainer requires a record with a business name")
	}
	name := f.CleanBusinessName(record.BusinessName)
	container := &ContainerRef{Name: name, Prefix: name}

	// A container exists exactly when its metadata document does: the two are
	// created together and only moved together.
	exists, err := f.storage.Exists(ctx, f.metadataKey(container))
	if err != nil {
		return nil, fmt.Errorf("failed to check container %s: %w", name, err)
	}
	if !exists {
		return nil, nil
	}
	return container, nil
}

// CreateContainer initializes the container for a case, idempotently: if one
// already exists under the canonical name it is reused, never duplicated.
// The returned bool reports whether a new container was created.
func (f *FolderStore) CreateContainer(ctx context.Context, record *models.CaseRecord) (*ContainerRef, bool, error) {
	existing, err := f.FindContainer(ctx, record)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	name := f.CleanBusinessName(record.BusinessName)
	container := &ContainerRef{Name: name, Prefix: name}
	now := f.now()

	metadata := models.NewCaseMetadata(record, now)
	if err := f.writeJSON(ctx, f.metadataKey(container), metadata); err != nil {
		return nil, false, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	initial := []models.HistoryEntry{{
		Timestamp:    now,
		Code:         "FOLDER_CREATED",
		Narrative:    "Case folder initialized",
		UserInitials: InitialsFromEmail(f.cfg.OperatorEmail),
	}}
	if err := f.writeJSON(ctx, f.historyKey(container), initial); err != nil {
		return nil, false, fmt.Errorf("failed to initialize history: %w", err)
	}

	log.Printf("FolderStore: created container %s", name)
	return container, true, nil
}

// GetMetadata reads the metadata document. Returns nil (no error) when the
// container has no metadata yet.
func (f *FolderStore) GetMetadata(ctx context.Context, container *ContainerRef) (*models.CaseMetadata, error) {
	if container == nil {
		return nil, nil
	}
	var metadata models.CaseMetadata
	found, err := f.readJSON(ctx, f.metadataKey(container), &metadata)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &metadata, nil
}

// UpdateMetadata merges partial updates into the metadata document.
// Only listed fields change; lastModified always refreshes.
func (f *FolderStore) UpdateMetadata(ctx context.Context, container *ContainerRef, updates models.MetadataUpdates) error {
	if container == nil {
		return fmt.Errorf("no container provided for metadata update")
	}

	metadata, err := f.GetMetadata(ctx, container)
	if err != nil {
		return err
	}
	if metadata == nil {
		metadata = &models.CaseMetadata{Created: f.now()}
	}

	if err := updates.Apply(metadata); err != nil {
		return err
	}
	metadata.LastModified = f.now()

	return f.writeJSON(ctx, f.metadataKey(container), metadata)
}

// GetHistory reads the append-only history log in append order.
func (f *FolderStore) GetHistory(ctx context.Context, container *ContainerRef) ([]models.HistoryEntry, error) {
	if container == nil {
		return nil, nil
	}
	var history []models.HistoryEntry
	found, err := f.readJSON(ctx, f.historyKey(container), &history)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return history, nil
}

// AppendHistory appends one entry to the history log. Entries are never
// rewritten, reordered, or pruned.
func (f *FolderStore) AppendHistory(ctx context.Context, container *ContainerRef, entry models.HistoryEntry) error {
	if container == nil {
		return fmt.Errorf("no container provided for history entry")
	}

	history, err := f.GetHistory(ctx, container)
	if err != nil {
		return err
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = f.now()
	}
	if entry.Code == "" {
		entry.Code = models.ActionNOTE
	}
	if entry.UserInitials == "" {
		entry.UserInitials = InitialsFromEmail(f.cfg.OperatorEmail)
	}

	history = append(history, entry)
	return f.writeJSON(ctx, f.historyKey(container), history)
}

// GetLatestEntryByCode returns the most recent history entry with the given
// action code, or nil.
func (f *FolderStore) GetLatestEntryByCode(ctx context.Context, container *ContainerRef, code string) (*models.HistoryEntry, error) {
	history, err := f.GetHistory(ctx, container)
	if err != nil {
		return nil, err
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Code == code {
			return &history[i], nil
		}
	}
	return nil, nil
}

// DocumentExists checks whether a document of the given type is stored in the
// container's bucket for that type. Matching is by type substring in the file
// name, mirroring how generated and uploaded documents are named.
func (f *FolderStore) DocumentExists(ctx context.Context, record *models.CaseRecord, documentType string, container *ContainerRef) (DocCheck, error) {
	if container == nil {
		found, err := f.FindContainer(ctx, record)
		if err != nil {
			return DocCheck{}, err
		}
		if found == nil {
			return DocCheck{Exists: false}, nil
		}
		container = found
	}

	bucket := models.BucketForDocumentType(documentType)
	objects, err := f.storage.List(ctx, container.Prefix+"/"+bucket)
	if err != nil {
		return DocCheck{}, fmt.Errorf("failed to list %s bucket: %w", bucket, err)
	}

	for _, obj := range objects {
		if strings.Contains(obj.Name, documentType) {
			return DocCheck{
				Exists: true,
				Name:   obj.Name,
				Key:    obj.Key,
				URL:    f.storage.GetPublicURL(obj.Key),
			}, nil
		}
	}
	return DocCheck{Exists: false}, nil
}

// SaveDocument stores a document in the bucket for its type, creating the
// container first if needed, and bumps the bucket's document tally.
func (f *FolderStore) SaveDocument(ctx context.Context, record *models.CaseRecord, documentType string, fileName string, contentType string, content []byte) (DocCheck, error) {
	container, _, err := f.CreateContainer(ctx, record)
	if err != nil {
		return DocCheck{}, err
	}

	bucket := models.BucketForDocumentType(documentType)
	key := container.Prefix + "/" + bucket + "/" + fileName

	result, err := f.storage.UploadReader(ctx, bytes.NewReader(content), key, contentType, int64(len(content)))
	if err != nil {
		return DocCheck{}, fmt.Errorf("failed to save document: %w", err)
	}

	metadata, err := f.GetMetadata(ctx, container)
	if err == nil && metadata != nil {
		count := metadata.DocumentCount[bucket] + 1
		updates := models.MetadataUpdates{"documentCount." + bucket: count}
		if err := f.UpdateMetadata(ctx, container, updates); err != nil {
			log.Printf("[WARNING] Failed to update document count for %s: %v", container.Name, err)
		}
	}

	log.Printf("FolderStore: saved document %s to %s/%s", fileName, container.Name, bucket)
	return DocCheck{Exists: true, Name: fileName, Key: key, URL: result.URL}, nil
}

// ListDocuments returns every document stored in the container's buckets.
func (f *FolderStore) ListDocuments(ctx context.Context, container *ContainerRef) ([]DocumentInfo, error) {
	if container == nil {
		return nil, nil
	}

	var documents []DocumentInfo
	for _, bucket := range f.cfg.Subfolders {
		objects, err := f.storage.List(ctx, container.Prefix+"/"+bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s bucket: %w", bucket, err)
		}
		for _, obj := range objects {
			documents = append(documents, DocumentInfo{
				Name:     obj.Name,
				Folder:   bucket,
				Key:      obj.Key,
				URL:      f.storage.GetPublicURL(obj.Key),
				Size:     obj.Size,
				Modified: obj.Modified,
			})
		}
	}
	return documents, nil
}

// Archive moves the whole container into the archive area.
func (f *FolderStore) Archive(ctx context.Context, container *ContainerRef) (*ContainerRef, error) {
	if container == nil {
		return nil, fmt.Errorf("no container to archive")
	}
	dst := f.cfg.ArchiveDir + "/" + container.Name
	if err := f.storage.MovePrefix(ctx, container.Prefix, dst); err != nil {
		return nil, fmt.Errorf("failed to archive case: %w", err)
	}
	log.Printf("FolderStore: archived container %s", container.Name)
	return &ContainerRef{Name: container.Name, Prefix: dst}, nil
}

// MoveToBankruptcy moves the whole container into the bankruptcy area.
func (f *FolderStore) MoveToBankruptcy(ctx context.Context, container *ContainerRef) (*ContainerRef, error) {
	if container == nil {
		return nil, fmt.Errorf("no container to move")
	}
	dst := f.cfg.BankruptcyDir + "/" + container.Name
	if err := f.storage.MovePrefix(ctx, container.Prefix, dst); err != nil {
		return nil, fmt.Errorf("failed to move case to bankruptcy archive: %w", err)
	}
	log.Printf("FolderStore: moved container %s to bankruptcy archive", container.Name)
	return &ContainerRef{Name: container.Name, Prefix: dst}, nil
}

// writeJSON stores a value as pretty-printed JSON, matching the on-disk
// format of the existing metadata and history documents.
func (f *FolderStore) writeJSON(ctx context.Context, key string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = f.storage.UploadReader(ctx, bytes.NewReader(data), key, "application/json", int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// readJSON loads a JSON document. The bool reports whether the key existed.
func (f *FolderStore) readJSON(ctx context.Context, key string, out any) (bool, error) {
	exists, err := f.storage.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	reader, _, err := f.storage.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}
