package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	MaxMediaSize  = 10 << 20
	UploadsPrefix = "/uploads/"
	hexAlphabet   = "0123456789abcdef"
)

var (
	allowedMediaTypes = map[string]string{
		"image/jpeg": "jpg",
		"image/png":  "png",
		"image/gif":  "gif",
		"image/webp": "webp",
	}
	inlineImageExts  = map[string]bool{"jpeg": true, "jpg": true, "png": true, "gif": true, "webp": true}
	mediaNamePattern = regexp.MustCompile(`^[a-f0-9]{32}\.(jpg|jpeg|png|gif|webp)$`)
	dataURIMime      = regexp.MustCompile(`^data:(.+);`)
)

type MediaService interface {
	Upload(ctx context.Context, files []*multipart.FileHeader) ([]transfer.MediaFile, error)
	List(ctx context.Context) ([]transfer.MediaFile, error)
	Delete(ctx context.Context, url string) error
	Open(ctx context.Context, name string) ([]byte, string, error)
	SaveDataURI(ctx context.Context, dataURI string) (string, error)
	ReadDataURI(ctx context.Context, ref string) (string, error)
}

type mediaService struct {
	store MediaStore
}

func NewMediaService(store MediaStore) MediaService {
	return &mediaService{store: store}
}

func (s *mediaService) Upload(ctx context.Context, files []*multipart.FileHeader) ([]transfer.MediaFile, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", ErrInvalidMedia)
	}

	uploaded := make([]transfer.MediaFile, 0, len(files))
	for _, fh := range files {
		if fh.Size > MaxMediaSize {
			return nil, fmt.Errorf("%w: %s exceeds 10 MB", ErrInvalidMedia, fh.Filename)
		}
		declared := strings.ToLower(strings.TrimSpace(fh.Header.Get("Content-Type")))
		if _, ok := allowedMediaTypes[declared]; !ok {
			return nil, fmt.Errorf("%w: %s has type %q", ErrInvalidMedia, fh.Filename, declared)
		}

		data, err := readFileHeader(fh)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLocalStorage, err)
		}

		mime, ext, err := sniffImage(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidMedia, fh.Filename, err)
		}

		id, err := gonanoid.Generate(hexAlphabet, 32)
		if err != nil {
			return nil, err
		}
		name := id + "." + ext

		if err := s.store.Put(ctx, name, data, mime); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLocalStorage, err)
		}

		uploaded = append(uploaded, transfer.MediaFile{Name: name, URL: UploadsPrefix + name, Size: int64(len(data))})
	}

	return uploaded, nil
}

// List returns stored images newest first.
func (s *mediaService) List(ctx context.Context) ([]transfer.MediaFile, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocalStorage, err)
	}

	files := make([]transfer.MediaFile, 0, len(all))
	for _, f := range all {
		if !mediaNamePattern.MatchString(f.Name) {
			continue
		}
		f.URL = UploadsPrefix + f.Name
		files = append(files, f)
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModifiedAt.After(files[j].ModifiedAt)
	})

	return files, nil
}

// Delete removes an image given its public /uploads/ URL.
func (s *mediaService) Delete(ctx context.Context, url string) error {
	name, ok := strings.CutPrefix(url, UploadsPrefix)
	if !ok || !mediaNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q is not an uploaded file", ErrInvalidMedia, url)
	}

	if err := s.store.Delete(ctx, name); err != nil {
		if errors.Is(err, ErrMediaNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrLocalStorage, err)
	}
	return nil
}

func (s *mediaService) Open(ctx context.Context, name string) ([]byte, string, error) {
	if !mediaNamePattern.MatchString(name) {
		return nil, "", ErrMediaNotFound
	}

	data, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, "", err
	}

	return data, mimeForExt(path.Ext(name)), nil
}

// SaveDataURI stores an inline image and returns its /uploads/ path. The
// name is derived from the content, so saving the same image twice yields
// the same file.
func (s *mediaService) SaveDataURI(ctx context.Context, dataURI string) (string, error) {
	comma := strings.IndexByte(dataURI, ',')
	if comma < 0 || !strings.HasPrefix(dataURI, "data:") {
		return "", fmt.Errorf("%w: malformed data URI", ErrInvalidMedia)
	}
	header, payload := dataURI[:comma], dataURI[comma+1:]

	mime := "image/png"
	if m := dataURIMime.FindStringSubmatch(header); m != nil {
		mime = strings.ToLower(strings.TrimSpace(strings.SplitN(m[1], ";", 2)[0]))
	}
	ext := strings.TrimPrefix(mime, "image/")
	if !strings.HasPrefix(mime, "image/") || !inlineImageExts[ext] {
		return "", fmt.Errorf("%w: unsupported image type %q", ErrInvalidMedia, mime)
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidMedia, err)
	}
	if len(data) > MaxMediaSize {
		return "", fmt.Errorf("%w: image exceeds 10 MB", ErrInvalidMedia)
	}

	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:])[:32] + "." + ext

	if err := s.store.Put(ctx, name, data, mime); err != nil {
		return "", fmt.Errorf("%w: %w", ErrLocalStorage, err)
	}

	return UploadsPrefix + name, nil
}

// ReadDataURI turns an /uploads/ path back into an inline data URI. Data URIs
// and other references are returned unchanged.
func (s *mediaService) ReadDataURI(ctx context.Context, ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, UploadsPrefix)
	if !ok {
		return ref, nil
	}

	data, mime, err := s.Open(ctx, name)
	if err != nil {
		slog.Info("read stored image", "ref", ref, "error", err)
		return "", fmt.Errorf("%w: %w", ErrLocalStorage, err)
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, MaxMediaSize+1))
}

func sniffImage(data []byte) (string, string, error) {
	if len(data) > MaxMediaSize {
		return "", "", errors.New("file exceeds 10 MB")
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return "", "", err
	}
	ext, ok := allowedMediaTypes[kind.MIME.Value]
	if !ok {
		return "", "", fmt.Errorf("content is %q", kind.MIME.Value)
	}
	return kind.MIME.Value, ext, nil
}

func mimeForExt(ext string) string {
	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	}
	return "image/png"
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}
