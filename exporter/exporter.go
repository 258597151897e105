package exporter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/jamesrr39/goutil/errorsx"
)

const (
	DefaultFilename = "mapExport.png"
	PNGMIMEType     = "image/png"
)

// Blob is an encoded image, ready to be handed to the user
type Blob struct {
	Filename string
	Data     []byte
	MIMEType string
}

func (b *Blob) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", b.Filename, b.MIMEType, len(b.Data))
}

// Sink receives the exported image
type Sink interface {
	Emit(blob *Blob) errorsx.Error
}

type Exporter struct {
	defaultFilename string
	encoder         *png.Encoder
}

func NewExporter(defaultFilename string) *Exporter {
	if defaultFilename == "" {
		defaultFilename = DefaultFilename
	}

	return &Exporter{
		defaultFilename: defaultFilename,
		encoder:         &png.Encoder{CompressionLevel: png.DefaultCompression},
	}
}

// Export encodes the image as PNG and emits it to the sink, if one is given.
// An empty filename means the exporter's default filename.
func (e *Exporter) Export(img image.Image, filename string, sink Sink) (*Blob, errorsx.Error) {
	if filename == "" {
		filename = e.defaultFilename
	}

	buf := bytes.NewBuffer(nil)
	err := e.encoder.Encode(buf, img)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	blob := &Blob{
		Filename: filename,
		Data:     buf.Bytes(),
		MIMEType: PNGMIMEType,
	}

	if sink == nil {
		return blob, nil
	}

	emitErr := sink.Emit(blob)
	if emitErr != nil {
		return nil, errorsx.Wrap(emitErr, "filename", filename)
	}

	return blob, nil
}
