package imageio

import (
	"image"
	"io"
	"os"
	"path"

	"github.com/db47h/ofs"
	"github.com/pkg/errors"
)

// NewOverlay stacks the given directories into one file system. Missing
// directories are skipped.
func NewOverlay(dirs ...string) (*ofs.Overlay, error) {
	var ovl ofs.Overlay
	for _, dir := range dirs {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			continue
		}
		if err := ovl.Add(false, dir); err != nil {
			return nil, errors.Wrapf(ErrIO, "mount %s: %v", dir, err)
		}
	}
	return &ovl, nil
}

// Loader reads and decodes textures from a file system.
type Loader struct {
	fs          ofs.FileSystem
	texturePath string
}

// NewLoader returns a loader that resolves texture names relative to
// texturePath inside fs.
func NewLoader(fs ofs.FileSystem, texturePath string) *Loader {
	return &Loader{fs: fs, texturePath: texturePath}
}

// ReadFile returns the raw bytes of the named texture.
func (l *Loader) ReadFile(name string) ([]byte, error) {
	if l.fs == nil {
		return nil, errors.Wrapf(ErrIO, "%s: no asset file system configured", name)
	}
	name = path.Join(l.texturePath, name)
	f, err := l.fs.Open(name)
	if err != nil {
		return nil, errors.Wrapf(ErrIO, "open %s: %v", name, err)
	}
	if c, ok := interface{}(f).(io.Closer); ok {
		defer c.Close()
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(ErrIO, "read %s: %v", name, err)
	}
	return data, nil
}

// Load reads and decodes the named texture.
func (l *Loader) Load(name string) (*image.NRGBA, error) {
	data, err := l.ReadFile(name)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data)
	if err != nil {
		return nil, errors.WithMessage(err, name)
	}
	return img, nil
}
