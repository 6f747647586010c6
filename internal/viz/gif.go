package viz

import (
	"errors"
	"image"
	"image/gif"
	"os"
)

var ErrNoFrames = errors.New("viz: nothing recorded")

// Recorder collects canvas frames for an animated GIF.
type Recorder struct {
	frames []*image.Paletted
	scale  int
	// Delay between frames in hundredths of a second.
	delay int
}

func NewRecorder(scale, delay int) *Recorder {
	return &Recorder{scale: scale, delay: delay}
}

func (r *Recorder) Capture(c *Canvas) { r.frames = append(r.frames, c.Image(r.scale)) }
func (r *Recorder) Len() int          { return len(r.frames) }

func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return ErrNoFrames
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.delay)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
