package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/api/respond"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/catalog"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/metadata"
)

// Handler serves the read-only catalog and file inspection.
type Handler struct{}

// NewHandler creates a new Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Catalog returns the gear catalog, location presets and quick templates.
func (h *Handler) Catalog(c *ginext.Context) {
	respond.OK(c, catalog.Current())
}

// Inspect reports the metadata of the file at ?path=. With ?compare= it
// returns the differences between the two files.
func (h *Handler) Inspect(c *ginext.Context) {
	path := c.Query("path")
	if path == "" {
		respond.Invalid(c, "path", fmt.Errorf("path is required"))
		return
	}

	var (
		result interface{}
		err    error
	)
	if other := c.Query("compare"); other != "" {
		result, err = metadata.Compare(path, other)
	} else {
		result, err = metadata.Inspect(path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			respond.Fail(c, http.StatusNotFound, fmt.Errorf("file not found"))
			return
		}
		zlog.Logger.Err(err).Str("path", path).Msg("failed to inspect file")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to inspect file: %v", err))
		return
	}

	respond.OK(c, result)
}
