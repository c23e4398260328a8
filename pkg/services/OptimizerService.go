package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/s3/createbucketoptions"
	"github.com/adampresley/adamgokit/s3/listoptions"
	"github.com/alitto/pond/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/crocodeal/crocodealphotographie/pkg/models"
	"github.com/nfnt/resize"
)

type OptimizerServicer interface {
	OptimizeCovers(covers models.CoverCache)
}

type OptimizerServiceConfig struct {
	AwsBucket       string
	AwsRegion       string
	MaxWorkers      int
	S3Client        s3.S3Client
	ShutdownCtx     context.Context
	ThumbnailFolder string
	ThumbnailSize   uint
}

/*
OptimizerService keeps a downscaled thumbnail variant of every selected
cover image in the asset bucket, so album cards never load full-size
originals. Covers are processed on a bounded worker pool; a failed cover is
logged and skipped.
*/
type OptimizerService struct {
	awsBucket       string
	awsRegion       string
	maxWorkers      int
	s3Client        s3.S3Client
	shutdownCtx     context.Context
	thumbnailFolder string
	thumbnailSize   uint
}

func NewOptimizerService(config OptimizerServiceConfig) OptimizerService {
	thumbnailSize := config.ThumbnailSize

	if thumbnailSize == 0 {
		thumbnailSize = 400
	}

	return OptimizerService{
		awsBucket:       config.AwsBucket,
		awsRegion:       config.AwsRegion,
		maxWorkers:      config.MaxWorkers,
		s3Client:        config.S3Client,
		shutdownCtx:     config.ShutdownCtx,
		thumbnailFolder: config.ThumbnailFolder,
		thumbnailSize:   thumbnailSize,
	}
}

func (c OptimizerService) OptimizeCovers(covers models.CoverCache) {
	slog.Info("starting cover thumbnail generation...", "numCovers", len(covers.Covers))

	if err := c.ensureBucketExists(c.awsBucket); err != nil {
		slog.Error("error ensuring bucket exists. aborting", "bucket", c.awsBucket, "error", err)
		return
	}

	pool := pond.NewPool(c.maxWorkers, pond.WithContext(c.shutdownCtx))

	for _, cover := range covers.Covers {
		pool.Submit(func() {
			thumbnailKey := c.thumbnailKey(cover)

			if c.isThumbnailCurrent(cover.ImageURL, thumbnailKey) {
				return
			}

			slog.Info("creating cover thumbnail...", "key", thumbnailKey, "source", cover.ImageURL)

			if err := c.createThumbnail(cover.ImageURL, thumbnailKey); err != nil {
				slog.Error("error creating cover thumbnail", "key", thumbnailKey, "error", err)
			}
		})
	}

	_ = pool.Stop().Wait()

	c.pruneStaleThumbnails(covers)

	slog.Info("cover thumbnail generation finished.")
}

/*
pruneStaleThumbnails removes thumbnail variants for albums that no longer
have a cover, so renamed or deleted albums do not leave dead files in the
bucket.
*/
func (c OptimizerService) pruneStaleThumbnails(covers models.CoverCache) {
	wantedKeys := map[string]bool{}

	for _, cover := range covers.Covers {
		wantedKeys[c.thumbnailKey(cover)] = true
	}

	listing, err := c.s3Client.List(
		c.awsBucket,
		c.thumbnailFolder,
		listoptions.WithGetAll(),
		listoptions.WithFilter(func(obj types.Object) bool {
			return strings.HasSuffix(strings.ToLower(aws.ToString(obj.Key)), ".jpg")
		}),
	)

	if err != nil {
		slog.Error("error listing existing thumbnails", "folder", c.thumbnailFolder, "error", err)
		return
	}

	for _, thumbnail := range listing.Objects {
		if wantedKeys[thumbnail.Key] {
			continue
		}

		slog.Info("removing stale cover thumbnail", "key", thumbnail.Key)

		if _, err = c.s3Client.Delete(c.awsBucket, []string{thumbnail.Key}); err != nil {
			slog.Error("error removing stale cover thumbnail", "key", thumbnail.Key, "error", err)
		}
	}
}

func (c OptimizerService) thumbnailKey(cover models.Cover) string {
	return filepath.Join(
		c.thumbnailFolder,
		Slugify(cover.Category),
		Slugify(cover.Album)+".jpg",
	)
}

func (c OptimizerService) ensureBucketExists(bucketName string) error {
	var (
		err    error
		exists bool
	)

	exists, err = c.s3Client.BucketExists(bucketName)

	if err != nil {
		return fmt.Errorf("error ensuring bucket '%s' exists: %w", bucketName, err)
	}

	if exists {
		return nil
	}

	slog.Info("creating bucket", "bucketName", bucketName)

	err = c.s3Client.CreateBucket(
		bucketName,
		createbucketoptions.WithRegion(c.awsRegion),
	)

	if err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", bucketName, err)
	}

	return nil
}

/*
isThumbnailCurrent reports whether a thumbnail exists and is at least as new
as its source image. A source that exposes no Last-Modified header counts as
unchanged.
*/
func (c OptimizerService) isThumbnailCurrent(sourceURL, key string) bool {
	stat, err := c.s3Client.StatObject(c.awsBucket, key)

	if err != nil {
		slog.Error("error retrieving metadata for thumbnail", "key", key, "error", err)
		return false
	}

	if stat == nil {
		return false
	}

	sourceModified, ok := c.sourceLastModified(sourceURL)

	if !ok {
		return true
	}

	return !stat.LastModified.Before(sourceModified)
}

func (c OptimizerService) sourceLastModified(url string) (time.Time, bool) {
	response, err := http.Head(url)

	if err != nil {
		return time.Time{}, false
	}

	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return time.Time{}, false
	}

	modified, err := http.ParseTime(response.Header.Get("Last-Modified"))

	if err != nil {
		return time.Time{}, false
	}

	return modified, true
}

func (c OptimizerService) createThumbnail(sourceURL, thumbnailKey string) error {
	var (
		err error
		img image.Image
		buf bytes.Buffer
	)

	if img, err = c.resizeUrl(sourceURL, c.thumbnailSize); err != nil {
		return fmt.Errorf("error resizing image: %w", err)
	}

	if err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("error encoding image for thumbnail: %w", err)
	}

	if _, err = c.s3Client.Put(c.awsBucket, thumbnailKey, &buf); err != nil {
		return fmt.Errorf("error uploading thumbnail: %w", err)
	}

	return nil
}

func (c OptimizerService) resizeUrl(url string, maxSize uint) (image.Image, error) {
	var (
		err      error
		response *http.Response
	)

	if response, err = http.Get(url); err != nil {
		return nil, fmt.Errorf("error downloading image from '%s': %w", url, err)
	}

	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error downloading image from '%s', status: %s", url, response.Status)
	}

	return c.resizeReader(response.Body, maxSize)
}

func (c OptimizerService) resizeReader(r io.Reader, maxSize uint) (image.Image, error) {
	var (
		err error
		img image.Image
	)

	if img, _, err = image.Decode(r); err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	return c.resize(img, maxSize), nil
}

func (c OptimizerService) resize(img image.Image, maxSize uint) image.Image {
	/*
	 * Determine which dimension to resize based on the longest edge
	 */
	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	var newWidth, newHeight uint
	if width > height {
		// Landscape orientation
		newWidth = maxSize
		newHeight = uint(float64(height) * (float64(maxSize) / float64(width)))
	} else {
		// Portrait orientation or square
		newHeight = maxSize
		newWidth = uint(float64(width) * (float64(maxSize) / float64(height)))
	}

	return resize.Resize(newWidth, newHeight, img, resize.Lanczos3)
}
