package builder

import (
	"image"
	"image/color"
	_ "image/gif" // Register decoders
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is raster data ready for an IOCA image object: 8-bit RGB
// samples, row by row.
type Image struct {
	Width, Height int
	Data          []byte
	// URI identifies the source. Images drawn with the same URI are
	// encoded once per resource group.
	URI string

	src image.Image
}

// ImageFromFile loads an image from a file path. PNG, JPEG, GIF, TIFF,
// BMP and WebP are supported.
func ImageFromFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	out := FromImage(img)
	out.URI = path
	return out, nil
}

// FromImage converts a Go image to RGB. Transparent pixels are
// composited onto white since AFP images carry no alpha.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Over)

	return &Image{Width: w, Height: h, Data: rgbSamples(rgba), src: rgba}
}

func rgbSamples(rgba *image.RGBA) []byte {
	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	pixels := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := 0; x < w; x++ {
			pixels = append(pixels, row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return pixels
}

// Fit returns the image scaled down to at most width by height pixels,
// keeping the aspect ratio. Images that already fit are returned as is.
func (img *Image) Fit(width, height int) *Image {
	if img.src == nil || width <= 0 || height <= 0 || (img.Width <= width && img.Height <= height) {
		return img
	}
	sx := float64(width) / float64(img.Width)
	sy := float64(height) / float64(img.Height)
	scale := min(sx, sy)
	w := max(1, int(float64(img.Width)*scale))
	h := max(1, int(float64(img.Height)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img.src, img.src.Bounds(), draw.Src, nil)
	out := &Image{Width: w, Height: h, Data: rgbSamples(dst), src: dst}
	if img.URI != "" {
		out.URI = img.URI + "#" + strconv.Itoa(w) + "x" + strconv.Itoa(h)
	}
	return out
}
