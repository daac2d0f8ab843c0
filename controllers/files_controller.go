package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filenest/filenest/middleware"
	"github.com/filenest/filenest/services"
	"github.com/filenest/filenest/utils"
)

// FilesController handles upload, listing, download, and deletion.
type FilesController struct {
	files *services.FileService
}

// NewFilesController creates a FilesController.
func NewFilesController(files *services.FileService) *FilesController {
	return &FilesController{files: files}
}

// Upload accepts a multipart batch. Every part that carries a filename is
// treated as a file, whatever its field name. The body is consumed as a
// stream so the batch keeps the parts in submission order; parts are read
// fully into memory before any of them is processed.
func (f *FilesController) Upload(ctx *gin.Context) {
	account, ok := middleware.CurrentAccount(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	reader, err := ctx.Request.MultipartReader()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid multipart body")
		return
	}

	var batch []services.Incoming
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, "invalid multipart body")
			return
		}
		if part.FileName() == "" {
			part.Close()
			continue
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, "failed to read uploaded file")
			return
		}
		batch = append(batch, services.Incoming{Filename: part.FileName(), Data: data})
	}

	if err := f.files.AddBatch(ctx.Request.Context(), account, batch); err != nil {
		fail(ctx, err)
		return
	}

	ctx.Status(http.StatusOK)
}

// List returns every file record of the authenticated account.
func (f *FilesController) List(ctx *gin.Context) {
	account, ok := middleware.CurrentAccount(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	records, err := f.files.List(ctx.Request.Context(), account)
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, records)
}

// Download returns the raw bytes of one file as an octet stream.
func (f *FilesController) Download(ctx *gin.Context) {
	account, ok := middleware.CurrentAccount(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	_, data, err := f.files.Get(ctx.Request.Context(), account, ctx.Query("filename"))
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.Data(http.StatusOK, "application/octet-stream", data)
}

// Delete removes one file and frees its quota.
func (f *FilesController) Delete(ctx *gin.Context) {
	account, ok := middleware.CurrentAccount(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := f.files.Remove(ctx.Request.Context(), account, ctx.Query("filename")); err != nil {
		fail(ctx, err)
		return
	}

	ctx.Status(http.StatusOK)
}
