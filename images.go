package sitegen

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"golang.org/x/image/draw"
)

const (
	jpegQuality  = 80
	imagesSubdir = "images"
)

// processImage decodes an image from src, scales it down to maxWidth when it
// is wider, and encodes it as JPEG.
func processImage(src io.Reader, maxWidth int) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if maxWidth > 0 && w > maxWidth {
		newH := h * maxWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// isLocalImage reports whether an article's image refers to a file beside
// the Markdown source rather than an absolute URL or a site path.
func isLocalImage(image string) bool {
	if image == "" || strings.HasPrefix(image, "/") {
		return false
	}
	u, err := url.Parse(image)
	return err == nil && !u.IsAbs()
}

// coverImage resolves a's local cover image in fsys, processes it and returns
// the output path relative to the site root along with the encoded bytes.
func coverImage(fsys fs.FS, a Article, maxWidth int) (string, []byte, error) {
	src := path.Join(path.Dir(a.Source), a.Image)
	f, err := fsys.Open(src)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: image %q: %v", ErrMalformedContent, a.Source, a.Image, err)
	}
	defer f.Close()

	data, err := processImage(f, maxWidth)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: image %q: %v", ErrMalformedContent, a.Source, a.Image, err)
	}
	return path.Join(imagesSubdir, a.Slug+".jpg"), data, nil
}
