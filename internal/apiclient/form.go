package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// File is an uploaded file forwarded to the API as a multipart part.
type File struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Form is a multipart request body. Field order is kept.
type Form struct {
	fields []formField
	files  []File
}

type formField struct {
	name  string
	value string
}

func NewForm() *Form {
	return &Form{}
}

// Set appends a text field.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// Attach appends a file part.
func (f *Form) Attach(file File) *Form {
	f.files = append(f.files, file)
	return f
}

// Value returns the first value set for name.
func (f *Form) Value(name string) (string, bool) {
	for _, field := range f.fields {
		if field.name == name {
			return field.value, true
		}
	}
	return "", false
}

// HasFiles reports whether any file part is attached.
func (f *Form) HasFiles() bool {
	return len(f.files) > 0
}

func (f *Form) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("writing form field %s: %w", field.name, err)
		}
	}
	for _, file := range f.files {
		fw, err := w.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("creating form file %s: %w", file.Field, err)
		}
		if _, err := io.Copy(fw, file.Content); err != nil {
			return nil, "", fmt.Errorf("copying form file %s: %w", file.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
