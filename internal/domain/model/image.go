package model

// ImagePayload is a fully buffered image extracted from an inbound message.
// It belongs to a single request and is dropped once the upload attempt completes.
type ImagePayload struct {
	Data     []byte
	Filename string
	MimeType string
	Size     int64
}

func NewImagePayload(data []byte, filename, mimeType string) ImagePayload {
	return ImagePayload{
		Data:     data,
		Filename: filename,
		MimeType: mimeType,
		Size:     int64(len(data)),
	}
}

func (p ImagePayload) Empty() bool { return len(p.Data) == 0 }
