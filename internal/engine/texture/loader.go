package texture

import (
	"errors"
	"fmt"
	"image"
	"io/fs"

	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/logger"
)

// Status is the outcome of a texture load.
type Status int

const (
	Loaded Status = iota
	// Missing means the file does not exist.
	Missing
	// Invalid means the file exists but could not be decoded.
	Invalid
	// UploadFailed means the device could not create the texture.
	UploadFailed
)

func (s Status) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Missing:
		return "missing"
	case Invalid:
		return "invalid"
	case UploadFailed:
		return "upload_failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome reports a texture load. On failure Handle is the loader's
// placeholder and Err says why.
type Outcome struct {
	Path   string
	Handle gpu.TextureID
	Status Status
	Err    error
}

// OK reports whether the texture loaded.
func (o Outcome) OK() bool {
	return o.Status == Loaded
}

// Source supplies file bytes by path. assets.Manager implements it.
type Source interface {
	Load(path string) ([]byte, error)
}

// Loader decodes and uploads textures. It owns only the placeholder; callers
// own the handles of textures they load.
type Loader struct {
	dev         gpu.Backend
	src         Source
	placeholder gpu.TextureID
}

// NewLoader creates a loader reading files from src.
func NewLoader(dev gpu.Backend, src Source) *Loader {
	return &Loader{dev: dev, src: src}
}

// Image reads and decodes path without uploading it.
func (l *Loader) Image(path string) (*image.RGBA, Status, error) {
	data, err := l.src.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Missing, err
		}
		return nil, Invalid, err
	}
	img, err := Decode(data, path)
	if err != nil {
		return nil, Invalid, err
	}
	return img, Loaded, nil
}

// Load reads, decodes and uploads a texture from path.
func (l *Loader) Load(path string, s gpu.Sampler) Outcome {
	img, status, err := l.Image(path)
	if err != nil {
		return l.fail(path, status, err)
	}
	return l.upload(path, img, s)
}

// FromMemory decodes and uploads image bytes, such as a texture embedded
// in a model file. name is reported in the outcome and used for format
// detection.
func (l *Loader) FromMemory(data []byte, name string, s gpu.Sampler) Outcome {
	img, err := Decode(data, name)
	if err != nil {
		return l.fail(name, Invalid, err)
	}
	return l.upload(name, img, s)
}

// Upload creates a texture from an already decoded image.
func (l *Loader) Upload(name string, img *image.RGBA, s gpu.Sampler) Outcome {
	return l.upload(name, img, s)
}

func (l *Loader) upload(name string, img *image.RGBA, s gpu.Sampler) Outcome {
	id, err := l.dev.CreateTexture2D(img, s)
	if err != nil {
		return l.fail(name, UploadFailed, err)
	}
	logger.Debug("texture uploaded",
		zap.String("path", name),
		zap.Uint32("id", uint32(id)),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return Outcome{Path: name, Handle: id, Status: Loaded}
}

func (l *Loader) fail(name string, status Status, err error) Outcome {
	logger.Warn("texture failed to load",
		zap.String("path", name),
		zap.Stringer("status", status),
		zap.Error(err),
	)
	return Outcome{Path: name, Handle: l.Placeholder(), Status: status, Err: err}
}

// Placeholder returns the shared fallback texture, creating it on first use.
// Zero only if the device cannot allocate even that.
func (l *Loader) Placeholder() gpu.TextureID {
	if l.placeholder != 0 {
		return l.placeholder
	}
	id, err := l.dev.CreateTexture2D(placeholderImage(), gpu.Sampler{Filter: gpu.FilterNearest})
	if err != nil {
		logger.Error("failed to create placeholder texture", zap.Error(err))
		return 0
	}
	l.placeholder = id
	return id
}

// IsPlaceholder reports whether t is the loader's fallback texture.
func (l *Loader) IsPlaceholder(t gpu.TextureID) bool {
	return t != 0 && t == l.placeholder
}

// Close deletes the placeholder.
func (l *Loader) Close() {
	if l.placeholder != 0 {
		l.dev.DeleteTexture(l.placeholder)
		l.placeholder = 0
	}
}
