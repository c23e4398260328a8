package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/s3/putoptions"
	"github.com/crocodeal/crocodealphotographie/pkg/contentstore"
	"github.com/crocodeal/crocodealphotographie/pkg/frontmatter"
	"golang.org/x/text/unicode/norm"
)

type UploadResult struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	Size     int    `json:"size"`
}

type BatchFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type BatchResult struct {
	Created []string `json:"created"`
	Errors  []string `json:"errors"`
}

type UploadServicer interface {
	Upload(ctx context.Context, fileName, folder, imageBase64 string) (UploadResult, error)
	BatchCreate(ctx context.Context, category, albumTitle string, files []BatchFile) (BatchResult, error)
}

type UploadServiceConfig struct {
	Store       contentstore.ContentStore
	S3Client    s3.S3Client
	Bucket      string
	CdnBaseURL  string
	ContentRoot string
}

/*
UploadService stores image bytes in the S3-compatible asset bucket and
creates the markdown entries for an album batch. The bucket sits behind a
CDN; the URL handed back to callers is the CDN one, in the B2 friendly-URL
format.
*/
type UploadService struct {
	store       contentstore.ContentStore
	s3Client    s3.S3Client
	bucket      string
	cdnBaseURL  string
	contentRoot string
}

func NewUploadService(config UploadServiceConfig) UploadService {
	return UploadService{
		store:       config.Store,
		s3Client:    config.S3Client,
		bucket:      config.Bucket,
		cdnBaseURL:  config.CdnBaseURL,
		contentRoot: config.ContentRoot,
	}
}

func (s UploadService) Upload(ctx context.Context, fileName, folder, imageBase64 string) (UploadResult, error) {
	imageBytes, err := base64.StdEncoding.DecodeString(imageBase64)

	if err != nil {
		return UploadResult{}, fmt.Errorf("error decoding image payload: %w", err)
	}

	if fileName == "" {
		fileName = generateFileName()
	}

	key := fileName

	if folder != "" {
		key = path.Join(folder, fileName)
	}

	stream, err := s.s3Client.PutStream(
		s.bucket,
		key,
		putoptions.WithContentType(contentTypeForFileName(fileName)),
	)

	if err != nil {
		return UploadResult{}, fmt.Errorf("error opening bucket stream: %w", err)
	}

	if _, err = stream.Writer.Write(imageBytes); err != nil {
		return UploadResult{}, fmt.Errorf("error uploading image to bucket: %w", err)
	}

	if err = stream.Writer.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("error finishing image upload: %w", err)
	}

	return UploadResult{
		URL:      s.publicURL(key),
		FileName: key,
		Size:     len(imageBytes),
	}, nil
}

/*
BatchCreate writes one markdown entry per uploaded photo. Photo titles are
numbered from the album title, slugs from the slugified title, and dates are
synthesized two seconds apart so no two entries collide. The first photo
becomes the album cover.
*/
func (s UploadService) BatchCreate(ctx context.Context, category, albumTitle string, files []BatchFile) (BatchResult, error) {
	result := BatchResult{
		Created: []string{},
		Errors:  []string{},
	}

	baseSlug := Slugify(albumTitle)

	if baseSlug == "" {
		return result, fmt.Errorf("album title %q produces an empty slug", albumTitle)
	}

	now := time.Now().UTC()

	for index, file := range files {
		counter := index + 1

		if file.URL == "" || !strings.HasPrefix(file.URL, "http") {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: missing CDN url", file.Name))
			continue
		}

		photoTitle := fmt.Sprintf("%s %d", albumTitle, counter)
		slug := fmt.Sprintf("%s-%d", baseSlug, counter)
		photoDate := now.Add(time.Duration(counter) * 2 * time.Second).Format(time.RFC3339)

		content := frontmatter.Serialize([]frontmatter.Field{
			{Key: "image", Value: file.URL},
			{Key: "title", Value: photoTitle},
			{Key: "category", Value: categoryDisplayName(category)},
			{Key: "album", Value: albumTitle},
			{Key: "date", Value: photoDate},
			{Key: "isCover", Value: index == 0},
		})

		markdownPath := path.Join(s.contentRoot, strings.ToLower(category), baseSlug, slug+contentExtension)
		message := fmt.Sprintf("Add photo: %s", photoTitle)

		if _, err := s.store.Write(ctx, markdownPath, []byte(content), "", message); err != nil {
			slog.Error("error creating photo entry", "path", markdownPath, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", photoTitle, err.Error()))
			continue
		}

		result.Created = append(result.Created, markdownPath)
	}

	return result, nil
}

func (s UploadService) publicURL(key string) string {
	return fmt.Sprintf("%s/file/%s/%s", strings.TrimSuffix(s.cdnBaseURL, "/"), s.bucket, key)
}

/*
Slugify derives a URL-safe identifier from a title: lowercase, accents
stripped, punctuation and whitespace collapsed to single hyphens.
*/
func Slugify(title string) string {
	decomposed := norm.NFD.String(strings.ToLower(title))

	sb := strings.Builder{}
	lastWasHyphen := true

	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining accent mark, dropped

		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			sb.WriteRune(r)
			lastWasHyphen = false

		default:
			if !lastWasHyphen {
				sb.WriteRune('-')
				lastWasHyphen = true
			}
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}

func generateFileName() string {
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)

	return fmt.Sprintf("image-%d-%s.jpg", time.Now().UnixMilli(), hex.EncodeToString(randomBytes))
}

func contentTypeForFileName(fileName string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(fileName), ".png"):
		return "image/png"
	case strings.HasSuffix(strings.ToLower(fileName), ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
