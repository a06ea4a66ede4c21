package engine

import (
	"errors"

	"github.com/roach88/drawseq/internal/ir"
)

// Queries append an instruction that carries output pointers and then flush
// before returning, so the host has written the answer by the time the call
// returns. Caller buffers passed to queries are borrowed for the duration of
// the call only.
//
// A query's error includes any unreported autoflush failures. When the error
// is non-nil the returned value is the zero value.

// MeasureText measures text in the current font.
func (s *Sequence) MeasureText(text string) (ir.TextMetrics, error) {
	s.check("MeasureText")
	var m ir.TextMetrics
	if err := s.query(ir.MeasureText{Text: s.codePage.Encode(text), CodePage: s.codePage, Out: &m}); err != nil {
		return ir.TextMetrics{}, err
	}
	return m, nil
}

// GetTransform returns the current transformation matrix.
func (s *Sequence) GetTransform() (ir.Matrix, error) {
	s.check("GetTransform")
	var m ir.Matrix
	if err := s.query(ir.GetTransform{Out: &m}); err != nil {
		return ir.Matrix{}, err
	}
	return m, nil
}

// GetLineDash copies up to len(buf) dash segments into buf and returns the
// total number of segments in the current pattern, which may exceed len(buf).
func (s *Sequence) GetLineDash(buf []float64) (int, error) {
	s.check("GetLineDash")
	var n int
	if err := s.query(ir.GetLineDash{Buffer: buf, Length: &n}); err != nil {
		return 0, err
	}
	return n, nil
}

// GetLineDashLength returns the number of segments in the current dash
// pattern.
func (s *Sequence) GetLineDashLength() (int, error) {
	s.check("GetLineDashLength")
	var n int
	if err := s.query(ir.GetLineDashLength{Out: &n}); err != nil {
		return 0, err
	}
	return n, nil
}

// ImageDataToBuffer copies the pixels of the image registered under id into
// buf and returns the number of bytes written.
func (s *Sequence) ImageDataToBuffer(id int32, buf []byte) (int, error) {
	s.check("ImageDataToBuffer")
	var n int
	if err := s.query(ir.ImageDataToBuffer{ID: id, Buffer: buf, Written: &n}); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Sequence) GetCanvasPropDouble(name string) (float64, error) {
	s.check("GetCanvasPropDouble")
	var v float64
	if err := s.query(ir.GetCanvasPropDouble{Name: name, Out: &v}); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Sequence) GetCanvasPropString(name string) (string, error) {
	s.check("GetCanvasPropString")
	var v string
	if err := s.query(ir.GetCanvasPropString{Name: name, Out: &v}); err != nil {
		return "", err
	}
	return v, nil
}

// LoadImage flushes pending drawing and then asks the dispatcher to load the
// image at url under id. The dispatcher must implement ImageLoader; if it
// does not, or reports ErrNoImageLoader, LoadImage returns false with no
// error.
//
// Loading is not an instruction, so it is never batched and is not counted
// in Pending.
func (s *Sequence) LoadImage(url string, id int32) (bool, error) {
	s.check("LoadImage")
	if err := s.takeDeferred(s.flush(ReasonLoadImage)); err != nil {
		return false, err
	}

	loader, ok := s.dispatcher.(ImageLoader)
	if !ok {
		s.logger.Debug("dispatcher cannot load images", "target", s.target, "url", url)
		return false, nil
	}
	if err := loader.LoadImage(s.target, url, id); err != nil {
		if errors.Is(err, ErrNoImageLoader) {
			s.logger.Debug("dispatcher cannot load images", "target", s.target, "url", url)
			return false, nil
		}
		s.logger.Warn("image load failed", "target", s.target, "url", url, "id", id, "error", err)
		return false, err
	}
	return true, nil
}

// PixelsSizeEstimate returns the byte size of a width x height RGBA block.
func PixelsSizeEstimate(width, height float64) int {
	return ir.PixelsSizeEstimate(width, height)
}
