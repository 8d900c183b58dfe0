package utils

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/setanarut/pie"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ReadImage decodes the image at path and panics on failure.
// PNG, JPEG, GIF, BMP, TIFF and WebP are supported.
func ReadImage(path string) image.Image {
	img, err := DecodeFile(path)
	if err != nil {
		panic(err)
	}
	return img
}

func DecodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// LoadImage decodes the image at path into a 3-channel pie.Image.
func LoadImage(path string) (*pie.Image, error) {
	img, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return pie.FromImage(img), nil
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// SaveBlend writes a blended image as PNG.
func SaveBlend(img *pie.Image, filename string) error {
	return SaveImage(img.RGBA(), filename)
}
