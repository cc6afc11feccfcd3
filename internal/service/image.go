package service

import "strings"

// validateImage checks a browser capture. A data URL in data is unpacked
// into its mime type and base64 payload when mime is empty.
func validateImage(mime, data string, maxBytes int) (string, string, error) {
	mime = strings.TrimSpace(strings.ToLower(mime))
	data = strings.TrimSpace(data)

	if strings.HasPrefix(data, "data:") {
		header, payload, ok := strings.Cut(data, ",")
		if !ok {
			return "", "", ErrInvalidImage
		}
		if mime == "" {
			mime = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"))
		}
		data = payload
	}

	if data == "" || !strings.HasPrefix(mime, "image/") {
		return "", "", ErrInvalidImage
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return "", "", ErrInvalidImage.WithMessage("Image exceeds the size limit.")
	}
	return mime, data, nil
}
