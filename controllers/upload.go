package controllers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadController handles product image uploads (Admin only)
type UploadController struct {
	UploadDir string
}

func NewUploadController(uploadDir string) *UploadController {
	return &UploadController{UploadDir: uploadDir}
}

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UploadImage stores a multipart image and returns its served path
func (uc *UploadController) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Max 10MB in memory
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	file, handler, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to retrieve file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(handler.Filename))
	if !allowedImageExtensions[ext] {
		respondError(w, http.StatusBadRequest, "Images only (jpg, jpeg, png, webp)")
		return
	}

	if err := os.MkdirAll(uc.UploadDir, os.ModePerm); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create upload directory")
		return
	}

	filename := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(uc.UploadDir, filename))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create file on server")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "Image uploaded",
		"image":   fmt.Sprintf("/uploads/%s", filename),
	})
}
