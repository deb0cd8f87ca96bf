package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// FormData is a multipart payload (claim documents, photos, signatures).
// It is sent as is with its own boundary instead of being JSON-encoded.
type FormData struct {
	parts []formPart
}

type formPart struct {
	name     string
	value    string
	filename string
	content  io.Reader
}

// NewFormData creates an empty multipart payload
func NewFormData() *FormData {
	return &FormData{}
}

// Field adds a plain form field
func (f *FormData) Field(name, value string) *FormData {
	f.parts = append(f.parts, formPart{name: name, value: value})
	return f
}

// File adds a file part read from content
func (f *FormData) File(name, filename string, content io.Reader) *FormData {
	f.parts = append(f.parts, formPart{name: name, filename: filename, content: content})
	return f
}

// Encode renders the payload and returns the body with its content type
func (f *FormData) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range f.parts {
		if p.content == nil {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", fmt.Errorf("failed to write form field %s: %w", p.name, err)
			}
			continue
		}

		part, err := w.CreateFormFile(p.name, p.filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file %s: %w", p.name, err)
		}
		if _, err := io.Copy(part, p.content); err != nil {
			return nil, "", fmt.Errorf("failed to copy form file %s: %w", p.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
