package http

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/fileserver/internal/infrastructure/logging"
	"github.com/GriffinCanCode/fileserver/internal/providers/auth"
	"github.com/GriffinCanCode/fileserver/internal/providers/filesystem"
	"github.com/gin-gonic/gin"
	"github.com/jmgilman/go/errors"
	"go.uber.org/zap"
)

// Info is static server information reported by the health endpoint.
type Info struct {
	Environment string
	// FilesDirectory is the root as configured, reported verbatim.
	FilesDirectory string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	files  *filesystem.Provider
	gate   *auth.Gate
	info   Info
	logger *logging.Logger
	now    func() time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(files *filesystem.Provider, gate *auth.Gate, info Info, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		files:  files,
		gate:   gate,
		info:   info,
		logger: logger,
		now:    time.Now,
	}
}

// Root greets API clients.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": MsgWelcome,
	})
}

// Health reports liveness together with the environment and files root.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"content": gin.H{
			"status":         "ok",
			"timestamp":      h.now().UTC().Format(time.RFC3339),
			"environment":    h.info.Environment,
			"filesDirectory": h.info.FilesDirectory,
		},
	})
}

// ValidateToken checks the bearer token and explains any rejection.
func (h *Handlers) ValidateToken(c *gin.Context) {
	if err := h.gate.Authenticate(c.GetHeader("Authorization")); err != nil {
		status := http.StatusUnauthorized
		if errors.GetCode(err) == errors.CodeInvalidConfig {
			status = http.StatusInternalServerError
			h.logger.Error("API key is not configured")
		}
		c.JSON(status, gin.H{
			"status":  status,
			"message": messageOf(err, auth.MsgInvalidToken),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": MsgKeyValid,
	})
}

// CreateDir creates the directory named by the path query parameter along
// with any missing parents.
func (h *Handlers) CreateDir(c *gin.Context) {
	target, err := h.files.CreateDirectory(c.Request.Context(), c.Query("path"))
	if err != nil {
		status := statusFor(err)
		message := MsgInternal
		switch status {
		case http.StatusConflict:
			message = MsgFolderExists
		case http.StatusForbidden:
			message = MsgOutsideRoot
		}
		c.JSON(status, gin.H{"status": status, "message": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"content": gin.H{
			"message":  MsgFolderCreated,
			"location": target.APIPath(),
		},
	})
}

// Delete removes the file or empty directory named by the path query
// parameter.
func (h *Handlers) Delete(c *gin.Context) {
	target, kind, err := h.files.Delete(c.Request.Context(), c.Query("path"))
	if err != nil {
		status := statusFor(err)
		message := MsgInternal
		switch status {
		case http.StatusNotFound:
			message = MsgNotExist
		case http.StatusForbidden:
			message = MsgOutsideRoot
		}
		c.JSON(status, gin.H{"status": status, "message": message})
		return
	}

	label := "File"
	if kind == filesystem.KindDirectory {
		label = "Folder"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": fmt.Sprintf("%s %s deleted successfully", label, target.Rel()),
	})
}

// UploadedFile describes one stored upload.
type UploadedFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Upload stores the multipart "files" parts in the directory named by the
// path query parameter or form field, creating it when missing. Parts are
// written in order and the first failure ends the request.
func (h *Handlers) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "message": MsgNoFiles})
		return
	}
	parts := form.File[UploadField]
	if len(parts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "message": MsgNoFiles})
		return
	}

	dir := c.Query("path")
	if dir == "" {
		dir = c.PostForm("path")
	}

	stored := make([]UploadedFile, 0, len(parts))
	for _, part := range parts {
		uploaded, err := h.storePart(c, dir, part)
		if err != nil {
			status := statusFor(err)
			message := MsgInternal
			switch status {
			case http.StatusForbidden:
				message = MsgOutsideRoot
			case http.StatusBadRequest, http.StatusConflict:
				message = messageOf(err, MsgInternal)
			}
			c.JSON(status, gin.H{"status": status, "message": message})
			return
		}
		stored = append(stored, uploaded)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": fmt.Sprintf("%d file(s) uploaded successfully", len(stored)),
		"files":   stored,
	})
}

// storePart copies one multipart file into dir.
func (h *Handlers) storePart(c *gin.Context, dir string, part *multipart.FileHeader) (UploadedFile, error) {
	src, err := part.Open()
	if err != nil {
		return UploadedFile{}, errors.Wrap(err, errors.CodeInternal, "failed to open upload part")
	}
	defer src.Close()

	target, size, err := h.files.Upload(c.Request.Context(), dir, part.Filename, src)
	if err != nil {
		return UploadedFile{}, err
	}
	return UploadedFile{Name: part.Filename, Path: target.APIPath(), Size: size}, nil
}

// Browse lists a directory as JSON or returns a file's raw bytes.
func (h *Handlers) Browse(c *gin.Context) {
	result, err := h.files.Browse(c.Request.Context(), c.Param("path"))
	if err != nil {
		status := statusFor(err)
		message := MsgInternalBrowse
		if status == http.StatusNotFound {
			message = MsgNotFound
		} else {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"status": status,
			"error":  message,
			"files":  []filesystem.FileEntry{},
		})
		return
	}

	if result.IsListing() {
		c.JSON(http.StatusOK, gin.H{
			"status": http.StatusOK,
			"files":  result.Entries,
		})
		return
	}

	content := result.Content
	c.Header("Content-Length", strconv.FormatInt(content.Length, 10))
	c.Data(http.StatusOK, content.MimeType, content.Data)
}

// Search finds entries beneath path whose names match the q glob.
func (h *Handlers) Search(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": http.StatusBadRequest,
				"error":  MsgBadLimit,
				"files":  []filesystem.FileEntry{},
			})
			return
		}
		limit = n
	}

	result, err := h.files.Search(c.Request.Context(), c.Query("path"), c.Query("q"), limit)
	if err != nil {
		status := statusFor(err)
		message := MsgInternalBrowse
		switch status {
		case http.StatusBadRequest:
			message = messageOf(err, "invalid search request")
		case http.StatusNotFound:
			message = MsgNotFound
		}
		c.JSON(status, gin.H{
			"status": status,
			"error":  message,
			"files":  []filesystem.FileEntry{},
		})
		return
	}

	h.logger.Debug("Search completed",
		zap.String("path", c.Query("path")),
		zap.String("pattern", c.Query("q")),
		zap.Int("matches", len(result.Entries)),
		zap.Bool("truncated", result.Truncated))

	c.JSON(http.StatusOK, gin.H{
		"status":    http.StatusOK,
		"files":     result.Entries,
		"truncated": result.Truncated,
	})
}
