package encdec

import (
	"sync"
)

type ImageAllocator interface {
	NewImage(format PixelFormat, width, height int) (*Image, error)
	Recycle(img *Image)
}

// DumbAllocator allocates a fresh image every time and lets the
// garbage collector take care of recycled ones.
type DumbAllocator struct {
	Allocated uint64
}

func (d *DumbAllocator) NewImage(format PixelFormat, width, height int) (*Image, error) {
	img := &Image{}
	if err := img.Init(format, width, height); err != nil {
		return nil, err
	}
	d.Allocated += 1
	return img, nil
}

func (d *DumbAllocator) Recycle(img *Image) {}

// PoolAllocator keeps up to MaxImages recycled images around and
// hands them out again, growing their buffers only when needed.
type PoolAllocator struct {
	MaxImages int
	Allocated uint64

	bin []*Image
	sync.Mutex
}

func NewPoolAllocator(maxImages int) *PoolAllocator {
	return &PoolAllocator{
		MaxImages: maxImages,
		bin:       make([]*Image, 0, maxImages),
	}
}

func (p *PoolAllocator) NewImage(format PixelFormat, width, height int) (*Image, error) {
	p.Lock()
	var img *Image
	if n := len(p.bin); n > 0 {
		img = p.bin[n-1]
		p.bin = p.bin[:n-1]
	} else {
		img = &Image{}
		p.Allocated += 1
	}
	p.Unlock()

	if err := img.Init(format, width, height); err != nil {
		p.Recycle(img)
		return nil, err
	}
	return img, nil
}

func (p *PoolAllocator) Recycle(img *Image) {
	if img == nil {
		return
	}
	p.Lock()
	defer p.Unlock()
	if len(p.bin) >= p.MaxImages {
		return
	}
	img.Reset()
	p.bin = append(p.bin, img)
}

// Available returns the number of images waiting in the pool.
func (p *PoolAllocator) Available() int {
	p.Lock()
	defer p.Unlock()
	return len(p.bin)
}
