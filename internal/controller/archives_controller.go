package controller

import (
	"github.com/gin-gonic/gin"

	"texforge/pkg/utils/response"
)

// ArchiveLister names the zip archives available for the
// referenced-by-name compile flow.
type ArchiveLister interface {
	ListArchives() ([]string, error)
}

// ArchivesController handles archive discovery endpoints.
type ArchivesController struct {
	lister ArchiveLister
}

func NewArchivesController(lister ArchiveLister) *ArchivesController {
	return &ArchivesController{lister: lister}
}

// List returns the referenceable archive filenames.
func (h *ArchivesController) List(c *gin.Context) {
	names, err := h.lister.ListArchives()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"archives": names})
}
