package autocrop

import (
	"image"
	"sync"
	"sync/atomic"

	"go-page-translator/pkg/models"
)

// Crop is the result of Detector.Crop. When Cropped is false, Image is the
// caller's original image and Release does nothing to it.
type Crop struct {
	Image   image.Image
	Bounds  models.SourceRect
	Cropped bool

	buf      *[]uint8
	pool     *sync.Pool
	once     sync.Once
	released atomic.Bool
}

// Release returns the pixel buffer of a cropped copy to the detector. The
// crop's Image must not be used afterwards. Calling Release more than once
// is safe.
func (c *Crop) Release() {
	if c == nil {
		return
	}
	c.once.Do(func() {
		c.released.Store(true)
		if !c.Cropped {
			return
		}
		c.Image = nil
		if c.pool != nil && c.buf != nil {
			c.pool.Put(c.buf)
		}
		c.buf = nil
	})
}

// Released reports whether Release has been called.
func (c *Crop) Released() bool {
	return c.released.Load()
}
