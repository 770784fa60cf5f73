package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	appErrors "github.com/kodkids/site-api/pkg/errors"
	"github.com/kodkids/site-api/pkg/validation"
)

type materialStore interface {
	Create(ctx context.Context, m *models.LessonMaterial) error
	FindByID(ctx context.Context, id string) (*models.LessonMaterial, error)
	ListByLesson(ctx context.Context, lessonID string) ([]models.LessonMaterial, error)
	SoftDelete(ctx context.Context, id string, deletedAt time.Time) error
}

type materialFileStorage interface {
	SaveStream(name string, r io.Reader) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type downloadSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string) (id, relPath string, expiresAt time.Time, err error)
}

// MaterialUpload is one uploaded file.
type MaterialUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.ReadSeeker
}

// MaterialDownload is an opened material file ready to stream.
type MaterialDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
}

// MaterialConfig limits uploads and shapes download links.
type MaterialConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// MaterialService stores lesson files and hands out signed download links for them.
type MaterialService struct {
	repo      materialStore
	lessons   lessonGetter
	storage   materialFileStorage
	signer    downloadSigner
	validator *validation.Validator
	logger    *zap.Logger
	cfg       MaterialConfig
	mimeSet   map[string]struct{}
	now       func() time.Time
}

// NewMaterialService constructs the service.
func NewMaterialService(repo materialStore, lessons lessonGetter, storage materialFileStorage, signer downloadSigner, validator *validation.Validator, logger *zap.Logger, cfg MaterialConfig) *MaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New("en")
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 << 20
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{
			"application/pdf",
			"application/zip",
			"image/png",
			"image/jpeg",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &MaterialService{
		repo:      repo,
		lessons:   lessons,
		storage:   storage,
		signer:    signer,
		validator: validator,
		logger:    logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
		now:       time.Now,
	}
}

// Upload attaches a file to a lesson. Draft lessons may receive materials.
func (s *MaterialService) Upload(ctx context.Context, lessonID string, req dto.MaterialUploadRequest, upload MaterialUpload, actor models.UserInfo) (*models.LessonMaterial, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(s.validator, req, "invalid material payload"); err != nil {
		return nil, err
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.WithFields(appErrors.ErrValidation, map[string]string{"file": "file is required"})
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.WithFields(appErrors.ErrValidation, map[string]string{
			"file": fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize),
		})
	}
	if _, err := s.lessons.Get(ctx, lessonID, true); err != nil {
		return nil, err
	}

	mimeType, err := s.detectMime(upload)
	if err != nil {
		return nil, err
	}
	if _, ok := s.mimeSet[mimeType]; !ok {
		return nil, appErrors.WithFields(appErrors.ErrValidation, map[string]string{"file": "file type " + mimeType + " is not allowed"})
	}

	name := s.storageName(lessonID, upload.Filename, mimeType)
	stored, err := s.storage.SaveStream(name, upload.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store material")
	}

	material := &models.LessonMaterial{
		LessonID:   lessonID,
		Title:      req.Title,
		FilePath:   stored,
		FileName:   displayName(upload.Filename, mimeType),
		MimeType:   mimeType,
		SizeBytes:  upload.Size,
		UploadedBy: actor.ID,
	}
	if err := s.repo.Create(ctx, material); err != nil {
		if delErr := s.storage.Delete(stored); delErr != nil {
			s.logger.Warn("orphaned material file", zap.String("path", stored), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save material")
	}
	s.logger.Info("lesson material uploaded",
		zap.String("lesson_id", lessonID),
		zap.String("material_id", material.ID),
		zap.Int64("size_bytes", material.SizeBytes),
	)
	return material, nil
}

// List returns a lesson's materials, each with a fresh download link.
func (s *MaterialService) List(ctx context.Context, lessonID string, includeDrafts bool) ([]dto.MaterialResponse, error) {
	if _, err := s.lessons.Get(ctx, lessonID, includeDrafts); err != nil {
		return nil, err
	}
	materials, err := s.repo.ListByLesson(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	out := make([]dto.MaterialResponse, 0, len(materials))
	for _, m := range materials {
		link, expiresAt, err := s.downloadURL(m)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.MaterialResponse{LessonMaterial: m, DownloadURL: link, ExpiresAt: expiresAt})
	}
	return out, nil
}

// Download opens the file a token was issued for. The token alone authorizes the download.
func (s *MaterialService) Download(ctx context.Context, id, token string) (*MaterialDownload, error) {
	tokenID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	if tokenID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if material.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	file, err := s.storage.Open(material.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open material")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read material")
	}
	return &MaterialDownload{
		File:      file,
		Filename:  material.FileName,
		MimeType:  material.MimeType,
		SizeBytes: info.Size(),
	}, nil
}

// Delete removes a material. Outstanding links stop working immediately.
func (s *MaterialService) Delete(ctx context.Context, id string) error {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if err := s.repo.SoftDelete(ctx, id, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	if err := s.storage.Delete(material.FilePath); err != nil {
		s.logger.Warn("material file not removed", zap.String("material_id", id), zap.Error(err))
	}
	return nil
}

func (s *MaterialService) downloadURL(m models.LessonMaterial) (string, time.Time, error) {
	token, expiresAt, err := s.signer.Generate(m.ID, m.FilePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	link := fmt.Sprintf("%s/materials/%s/download?token=%s", base, url.PathEscape(m.ID), url.QueryEscape(token))
	return link, expiresAt, nil
}

// detectMime trusts a declared type when present and otherwise sniffs the first bytes.
func (s *MaterialService) detectMime(upload MaterialUpload) (string, error) {
	if declared := strings.TrimSpace(upload.MimeType); declared != "" && declared != "application/octet-stream" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
			return strings.ToLower(mediaType), nil
		}
	}
	header := make([]byte, 512)
	n, err := upload.Content.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rewind file")
	}
	if n == 0 {
		return "", appErrors.WithFields(appErrors.ErrValidation, map[string]string{"file": "file is empty"})
	}
	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(header[:n]))
	if err != nil {
		return "application/octet-stream", nil
	}
	return mediaType, nil
}

func (s *MaterialService) storageName(lessonID, original, mimeType string) string {
	base := sanitizeFileName(strings.TrimSuffix(filepath.Base(original), filepath.Ext(original)))
	if base == "" {
		base = "material"
	}
	return path.Join("materials", sanitizeFileName(lessonID),
		fmt.Sprintf("%s_%d_%s%s", base, s.now().Unix(), randomSuffix(), fileExtension(original, mimeType)))
}

func displayName(original, mimeType string) string {
	name := strings.TrimSpace(filepath.Base(original))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "material" + fileExtension("", mimeType)
	}
	return name
}

func fileExtension(original, mimeType string) string {
	if ext := strings.ToLower(filepath.Ext(original)); ext != "" {
		return ext
	}
	switch mimeType {
	case "application/pdf":
		return ".pdf"
	case "application/zip":
		return ".zip"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	case "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return ".pptx"
	default:
		return ".bin"
	}
}

func sanitizeFileName(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
