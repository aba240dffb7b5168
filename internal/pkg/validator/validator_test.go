package validator

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testValidator() *Validator {
	return NewValidator(config.FileUploadConfig{MaxFileSize: 10, MaxTotalSize: 15, MaxFileCount: 2})
}

// multipartFiles builds real file headers through a parsed multipart form
func multipartFiles(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["files"]
}

func TestValidateUpload(t *testing.T) {
	v := testValidator()

	assert.NoError(t, v.ValidateUpload(multipartFiles(t, map[string]string{"a.md": "12345"})))
	assert.ErrorIs(t, v.ValidateUpload(nil), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateUpload(multipartFiles(t, map[string]string{"a.exe": "1"})), entity.ErrInvalidExtension)
	assert.ErrorIs(t, v.ValidateUpload(multipartFiles(t, map[string]string{"a.txt": "12345678901"})), entity.ErrFileTooLarge)
	assert.ErrorIs(t, v.ValidateUpload(multipartFiles(t, map[string]string{"a.txt": "1234567890", "b.txt": "123456"})), entity.ErrTotalSizeTooLarge)
	assert.ErrorIs(t, v.ValidateUpload(multipartFiles(t, map[string]string{"a.txt": "1", "b.txt": "2", "c.txt": "3"})), entity.ErrTooManyFiles)
}

func TestReadFiles(t *testing.T) {
	files, err := ReadFiles(multipartFiles(t, map[string]string{"my notes (1).md": "hello"}))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "my_notes_1.md", files[0].Filename)
	assert.Equal(t, []byte("hello"), files[0].Content)
}

func TestValidateLogin(t *testing.T) {
	v := testValidator()

	assert.NoError(t, v.ValidateLogin(&entity.LoginRequest{}))
	assert.NoError(t, v.ValidateLogin(&entity.LoginRequest{CallbackURL: "https://hooks.example.com/x"}))
	assert.ErrorIs(t, v.ValidateLogin(&entity.LoginRequest{CallbackURL: "ftp://x"}), entity.ErrInvalidParameter)
	assert.ErrorIs(t, v.ValidateLogin(&entity.LoginRequest{CallbackURL: "/relative"}), entity.ErrInvalidParameter)
}

func TestValidateMoveCursor(t *testing.T) {
	v := testValidator()
	id := 2

	assert.NoError(t, v.ValidateMoveCursor(&entity.MoveCursorRequest{QuestionID: &id}))
	assert.NoError(t, v.ValidateMoveCursor(&entity.MoveCursorRequest{Advance: true}))
	assert.ErrorIs(t, v.ValidateMoveCursor(&entity.MoveCursorRequest{}), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateMoveCursor(&entity.MoveCursorRequest{QuestionID: &id, Advance: true}), entity.ErrInvalidParameter)
}

func TestValidateSwitchProject(t *testing.T) {
	v := testValidator()

	assert.NoError(t, v.ValidateSwitchProject(&entity.SwitchProjectRequest{ProjectID: "p1"}))
	assert.ErrorIs(t, v.ValidateSwitchProject(&entity.SwitchProjectRequest{ProjectID: " "}), entity.ErrMissingField)
}
