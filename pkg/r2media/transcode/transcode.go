// Package transcode decodes, scales and re-encodes images on local disk.
// It is purely CPU-bound; the only I/O is reading the source file and
// writing the destination.
package transcode

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // register WEBP decoding

	"github.com/magezero/r2media/pkg/r2media"
)

// gifPalette keeps index 0 fully transparent so transparent regions of a
// GIF source survive re-encoding.
var gifPalette = append(color.Palette{color.RGBA{}}, palette.Plan9[:255]...)

// Transcoder implements r2media.Transcoder with the standard image codecs
// plus WEBP decoding.
type Transcoder struct{}

// New returns a transcoder
func New() *Transcoder {
	return &Transcoder{}
}

// Resize decodes srcPath, scales it to the requested dimensions and writes
// the re-encoded result to dstPath. A zero width or height means "not
// given": with neither given the source dimensions are kept (the image is
// still re-encoded), with one given the other preserves the source aspect
// ratio, truncating toward zero. Both given are used verbatim.
func (t *Transcoder) Resize(srcPath, dstPath string, width, height, quality int) error {
	src, format, err := decode(srcPath)
	if err != nil {
		return err
	}

	bounds := src.Bounds()
	w, h := targetDimensions(bounds.Dx(), bounds.Dy(), width, height)

	scaled := resize.Resize(uint(w), uint(h), src, resize.Lanczos3)

	// PNG and GIF keep their alpha channel: composite onto a fully
	// transparent canvas instead of encoding the scaler's output directly.
	var out image.Image = scaled
	if format == "png" || format == "gif" {
		canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(canvas, canvas.Bounds(), scaled, scaled.Bounds().Min, draw.Over)
		out = canvas
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	defer dst.Close()

	quality = r2media.ClampQuality(quality)

	switch format {
	case "jpeg":
		err = jpeg.Encode(dst, out, &jpeg.Options{Quality: quality})
	case "png":
		enc := png.Encoder{CompressionLevel: pngEncoderLevel(PNGCompressionLevel(quality))}
		err = enc.Encode(dst, out)
	case "gif":
		// GIF ignores quality. The encoder's default quantizer has no
		// transparent palette entry, so palettize explicitly with index 0
		// reserved for transparency.
		paletted := image.NewPaletted(out.Bounds(), gifPalette)
		draw.Draw(paletted, paletted.Bounds(), out, out.Bounds().Min, draw.Src)
		err = gif.Encode(dst, paletted, nil)
	case "webp":
		// No maintained pure-Go WEBP encoder exists; re-encode losslessly
		// as PNG when the source carries alpha, as JPEG otherwise.
		if isOpaque(out) {
			err = jpeg.Encode(dst, out, &jpeg.Options{Quality: quality})
		} else {
			err = png.Encode(dst, out)
		}
	default:
		return fmt.Errorf("%w: %s", r2media.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}

	return nil
}

// decode opens and decodes the source. Decode failures classify into the
// unsupported-format and invalid-image error kinds; open failures pass
// through as plain I/O errors.
func decode(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		// An unreadable source is an I/O failure, not corrupt image data.
		return nil, "", fmt.Errorf("open source image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		if err == image.ErrFormat {
			return nil, "", fmt.Errorf("%w: %s", r2media.ErrUnsupportedFormat, path)
		}
		return nil, "", fmt.Errorf("%w: %v", r2media.ErrInvalidImage, err)
	}

	switch format {
	case "jpeg", "png", "gif", "webp":
		return img, format, nil
	default:
		return nil, "", fmt.Errorf("%w: %s", r2media.ErrUnsupportedFormat, format)
	}
}

// targetDimensions resolves the output size. Truncation toward zero on the
// derived dimension is deliberate and matches the canonical cache naming.
func targetDimensions(origWidth, origHeight, width, height int) (int, int) {
	if width <= 0 && height <= 0 {
		return origWidth, origHeight
	}
	if width > 0 && height > 0 {
		return width, height
	}

	aspect := float64(origWidth) / float64(origHeight)
	if width > 0 {
		return width, int(float64(width) / aspect)
	}
	return int(float64(height) * aspect), height
}

// PNGCompressionLevel maps a 1-100 quality value onto the codec's 0-9
// compression scale: level = round(9 - quality/100*9), clamped to [0,9].
func PNGCompressionLevel(quality int) int {
	level := int(math.Round(9 - float64(quality)/100*9))
	if level < 0 {
		return 0
	}
	if level > 9 {
		return 9
	}
	return level
}

// pngEncoderLevel buckets the 0-9 scale into the encoder's named levels
func pngEncoderLevel(level int) png.CompressionLevel {
	switch {
	case level == 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// isOpaque reports whether the image has no transparent pixels
func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
