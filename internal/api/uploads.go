package api

import (
	"errors"
	"net/http"

	"github.com/sarrafio/api/internal/services/upload"
)

type uploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// UploadHandler handles POST /api/v1/uploads (multipart, field "file").
func (h *HandlerProvider) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxFileSize+(1<<20))

	err := r.ParseMultipartForm(1 << 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "فایل ارسالی نامعتبر است")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "فایلی ارسال نشده است")
		return
	}
	defer file.Close()

	res, err := h.uploads.Save(r.Context(), header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrTypeNotAllowed):
			writeError(w, http.StatusBadRequest, "نوع فایل مجاز نیست")
		case errors.Is(err, upload.ErrFileTooLarge):
			writeError(w, http.StatusBadRequest, "حجم فایل بیش از حد مجاز است")
		default:
			writeError(w, http.StatusInternalServerError, "خطای داخلی سرور")
		}
		return
	}

	writeSuccess(w, http.StatusCreated, uploadResponse{Key: res.Key, URL: res.URL})
}
