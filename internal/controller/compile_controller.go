package controller

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"texforge/internal/compile"
	appErr "texforge/pkg/errors"
	"texforge/pkg/utils/response"
)

// Compiler runs one compile request through the pipeline.
type Compiler interface {
	Compile(ctx context.Context, src compile.Source) compile.Outcome
}

// CompileController handles the compile endpoint.
type CompileController struct {
	compiler        Compiler
	maxArchiveBytes int64
}

func NewCompileController(compiler Compiler, maxArchiveBytes int64) *CompileController {
	return &CompileController{compiler: compiler, maxArchiveBytes: maxArchiveBytes}
}

// CompileByNameRequest references an archive inside the configured
// archive directory instead of uploading one.
type CompileByNameRequest struct {
	Filename string `json:"filename"`
}

// Compile accepts either a multipart upload (field "archive") or a
// JSON body naming a server-side archive, runs the pipeline and
// delivers the PDF or the failure diagnostics.
func (h *CompileController) Compile(c *gin.Context) {
	src, ok := h.bindSource(c)
	if !ok {
		return
	}

	outcome := h.compiler.Compile(c.Request.Context(), src)

	switch outcome.Disposition {
	case compile.DispositionSuccess:
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outcome.Filename))
		c.Data(http.StatusOK, "application/pdf", outcome.PDF)
	case compile.DispositionCompilerFailure:
		err := appErr.New(appErr.CompilationFailed).
			WithDetail("exit_code", outcome.ExitCode).
			WithDetail("log", outcome.Log)
		response.Error(c, err)
	default:
		err := appErr.New(outcome.Code)
		if outcome.Reason != "" {
			err = err.WithMessage(outcome.Reason)
		}
		if outcome.Log != "" {
			err = err.WithDetail("log", outcome.Log)
		}
		response.Error(c, err)
	}
}

func (h *CompileController) bindSource(c *gin.Context) (compile.Source, bool) {
	var src compile.Source

	if file, err := c.FormFile("archive"); err == nil {
		if h.maxArchiveBytes > 0 && file.Size > h.maxArchiveBytes {
			response.Error(c, appErr.New(appErr.ArchiveTooLarge).
				WithDetail("size", file.Size).
				WithDetail("limit", h.maxArchiveBytes))
			return src, false
		}
		reader, err := file.Open()
		if err != nil {
			response.Error(c, appErr.Wrapf(err, appErr.InvalidParams, "open uploaded archive failed"))
			return src, false
		}
		defer func() { _ = reader.Close() }()
		data, err := io.ReadAll(reader)
		if err != nil {
			response.Error(c, appErr.Wrapf(err, appErr.InvalidParams, "read uploaded archive failed"))
			return src, false
		}
		src.Upload = data
		src.UploadName = file.Filename
		return src, true
	}

	var req CompileByNameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Filename == "" {
		response.BadRequest(c, "Provide an archive upload or a filename")
		return src, false
	}
	src.Filename = req.Filename
	return src, true
}
