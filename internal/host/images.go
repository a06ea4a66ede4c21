package host

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"math"
	"os"
	"strings"

	"github.com/gogpu/gg"
	_ "golang.org/x/image/bmp" // register decoder
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/roach88/drawseq/internal/ir"
)

// canvasView exposes the pixmap bytes as an image without copying.
func (s *Surface) canvasView() *image.NRGBA {
	w, h := s.pm.Width(), s.pm.Height()
	return &image.NRGBA{Pix: s.pm.Data(), Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
}

func (s *Surface) image(what string, id int32) (*image.NRGBA, error) {
	img, ok := s.images[id]
	if !ok {
		return nil, unknownID(what, id)
	}
	return img, nil
}

// storeImage registers img under id, replacing any gradient or image that
// already used it.
func (s *Surface) storeImage(id int32, img *image.NRGBA) {
	if s.has(id) {
		s.logger.Warn("image id reused", "id", id)
		s.forget(id)
	}
	s.images[id] = img
}

func (s *Surface) loadPixels(op ir.ImageData) error {
	if op.Width < 0 || op.Height < 0 {
		return fmt.Errorf("image_data: negative size %dx%d", op.Width, op.Height)
	}
	need := op.Width * op.Height * 4
	if len(op.Pixels) < need {
		return fmt.Errorf("image_data: %d bytes for %dx%d, need %d", len(op.Pixels), op.Width, op.Height, need)
	}
	// The op's buffer is released after the batch, so keep a copy.
	img := image.NewNRGBA(image.Rect(0, 0, op.Width, op.Height))
	copy(img.Pix, op.Pixels[:need])
	s.storeImage(op.ID, img)
	return nil
}

// putImageData writes pixels straight into the surface, ignoring the
// transform and compositing. A zero dirty size writes the whole image.
func (s *Surface) putImageData(op ir.PutImageData) error {
	src, err := s.image("put_image_data", op.ID)
	if err != nil {
		return err
	}
	sr := src.Bounds()
	if op.DirtyWidth != 0 || op.DirtyHeight != 0 {
		sr = image.Rect(op.DirtyX, op.DirtyY, op.DirtyX+op.DirtyWidth, op.DirtyY+op.DirtyHeight).
			Canon().Intersect(src.Bounds())
	}
	if sr.Empty() {
		return nil
	}
	dp := image.Pt(op.DX+sr.Min.X, op.DY+sr.Min.Y)
	xdraw.Copy(s.canvasView(), dp, src, sr, xdraw.Src, nil)
	return nil
}

// drawImage composites a source rectangle of an image into a destination
// rectangle under the current transform. A zero source size means the whole
// image; a zero destination size means the source size.
func (s *Surface) drawImage(op ir.DrawImage) error {
	src, err := s.image("draw_image", op.ID)
	if err != nil {
		return err
	}
	b := src.Bounds()
	sx, sy, sw, sh := op.SX, op.SY, op.SW, op.SH
	if sw == 0 && sh == 0 {
		sx, sy, sw, sh = 0, 0, float64(b.Dx()), float64(b.Dy())
	}
	dw, dh := op.DW, op.DH
	if dw == 0 && dh == 0 {
		dw, dh = sw, sh
	}
	if sw == 0 || sh == 0 || dw == 0 || dh == 0 {
		return nil
	}

	m := s.ctx.GetTransform().
		Multiply(gg.Translate(op.DX, op.DY)).
		Multiply(gg.Scale(dw/sw, dh/sh)).
		Multiply(gg.Translate(-sx, -sy))
	sr := image.Rect(
		int(math.Floor(sx)), int(math.Floor(sy)),
		int(math.Ceil(sx+sw)), int(math.Ceil(sy+sh)),
	).Intersect(b)

	xdraw.BiLinear.Transform(s.canvasView(), f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}, src, sr, xdraw.Over, nil)
	return nil
}

// getImageData snapshots a device-space region of the surface under id.
// Parts of the region outside the surface are transparent.
func (s *Surface) getImageData(op ir.GetImageData) error {
	r := image.Rect(
		int(math.Floor(op.X)), int(math.Floor(op.Y)),
		int(math.Floor(op.X+op.W)), int(math.Floor(op.Y+op.H)),
	).Canon()
	img := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	if in := r.Intersect(s.canvasView().Bounds()); !in.Empty() {
		xdraw.Copy(img, in.Min.Sub(r.Min), s.canvasView(), in, xdraw.Src, nil)
	}
	s.storeImage(op.ID, img)
	return nil
}

func (s *Surface) imageDataToBuffer(op ir.ImageDataToBuffer) error {
	img, err := s.image("image_data_to_buffer", op.ID)
	if err != nil {
		return err
	}
	*op.Written = copy(op.Buffer, img.Pix)
	return nil
}

// LoadImage decodes the image at url and registers it under id. url is a
// file path, a file:// URL or a base64 data: URL. PNG, JPEG, GIF, BMP and
// WebP are understood.
func (s *Surface) LoadImage(url string, id int32) error {
	rc, err := openImageURL(url)
	if err != nil {
		return fmt.Errorf("load image %q: %w", url, err)
	}
	defer rc.Close()

	decoded, format, err := image.Decode(rc)
	if err != nil {
		return fmt.Errorf("load image %q: %w", url, err)
	}
	b := decoded.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(img, image.Point{}, decoded, b, xdraw.Src, nil)
	s.storeImage(id, img)

	s.logger.Debug("image loaded", "url", url, "id", id, "format", format, "width", b.Dx(), "height", b.Dy())
	return nil
}

func openImageURL(url string) (io.ReadCloser, error) {
	if rest, ok := strings.CutPrefix(url, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("only base64 data URLs are supported")
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return os.Open(strings.TrimPrefix(url, "file://"))
}
