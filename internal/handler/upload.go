package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omarrislam/Quiz-App/internal/importer"
	"github.com/omarrislam/Quiz-App/internal/response"
)

// multipart headers and boundaries on top of the file itself
const uploadOverhead = 64 << 10

// readUpload parses the "file" form field into rows, writing the error
// response itself when it returns false.
func readUpload(c *gin.Context, maxBytes int64) ([]importer.Row, bool) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+uploadOverhead)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			return nil, false
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return nil, false
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return nil, false
	}

	format, err := importer.DetectFormat(fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		response.Fail(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, err)
		return nil, false
	}
	defer f.Close()

	rows, err := importer.ParseRows(format, f)
	if err != nil {
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrImportRows, "Could not read file: "+err.Error(), nil)
		return nil, false
	}
	return rows, true
}
