package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/repository"
)

// CloudHandler serves the per-user file storage. Blobs live on the
// local filesystem under StorageRoot, named by the metadata row's
// opaque object key; the database row is the source of truth and the
// quota moves in the same transaction as the row.
type CloudHandler struct {
	Cloud       *repository.CloudRepo
	StorageRoot string
	Audit       *Auditor
}

func (h *CloudHandler) blobPath(objectKey string) string {
	// two-level fanout keeps directories small
	return filepath.Join(h.StorageRoot, objectKey[:2], objectKey)
}

func parseFolderID(c echo.Context) (*uint64, error) {
	v := c.QueryParam("folder_id")
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (h *CloudHandler) Quota(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	q, err := h.Cloud.Quota(ctx, mustSession(c).UserID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *CloudHandler) ListFolders(c echo.Context) error {
	parentID, err := parseFolderID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folder_id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Cloud.ListFolders(ctx, mustSession(c).UserID, parentID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CloudHandler) CreateFolder(c echo.Context) error {
	var body struct {
		Name     string  `json:"name"`
		ParentID *uint64 `json:"parent_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	f := &repository.CloudFolder{OwnerID: mustSession(c).UserID, ParentID: body.ParentID, Name: name}
	if err := h.Cloud.CreateFolder(ctx, f); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *CloudHandler) DeleteFolder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cloud.DeleteFolder(ctx, id, mustSession(c).UserID); err != nil {
		return jsonError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CloudHandler) ListFiles(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID := mustSession(c).UserID
	var (
		items []*repository.CloudFile
		err   error
	)
	switch c.QueryParam("view") {
	case "starred":
		items, err = h.Cloud.ListStarred(ctx, ownerID)
	case "trash":
		items, err = h.Cloud.ListTrash(ctx, ownerID)
	default:
		folderID, perr := parseFolderID(c)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folder_id"})
		}
		items, err = h.Cloud.ListFiles(ctx, ownerID, folderID)
	}
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Upload handles POST /api/cloud/files (multipart, field "file"). The
// metadata row and quota commit first; the blob write follows, and on
// blob failure the row is rolled back via hard delete.
func (h *CloudHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file field is required"})
	}
	folderID, err := parseFolderID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folder_id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID := mustSession(c).UserID
	f := &repository.CloudFile{
		OwnerID:   ownerID,
		FolderID:  folderID,
		Name:      filepath.Base(fh.Filename),
		MimeType:  fh.Header.Get("Content-Type"),
		SizeBytes: fh.Size,
	}
	if err := h.Cloud.CreateFile(ctx, f); err != nil {
		return jsonError(c, err)
	}

	if err := h.writeBlob(fh, f.ObjectKey); err != nil {
		_, _ = h.Cloud.DeleteFile(ctx, f.ID, ownerID)
		return jsonError(c, err)
	}

	h.Audit.record(c, "cloud_file", f.ID, "uploaded")
	return c.JSON(http.StatusCreated, f)
}

func (h *CloudHandler) writeBlob(fh *multipart.FileHeader, objectKey string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	path := h.blobPath(objectKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// Download handles GET /api/cloud/files/:id/download.
func (h *CloudHandler) Download(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	f, err := h.Cloud.GetFile(ctx, id, mustSession(c).UserID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.Attachment(h.blobPath(f.ObjectKey), f.Name)
}

func (h *CloudHandler) Rename(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cloud.Rename(ctx, id, mustSession(c).UserID, name); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "renamed"})
}

func (h *CloudHandler) Move(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		FolderID *uint64 `json:"folder_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cloud.Move(ctx, id, mustSession(c).UserID, body.FolderID); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "moved"})
}

func (h *CloudHandler) Star(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Starred bool `json:"starred"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cloud.SetStarred(ctx, id, mustSession(c).UserID, body.Starred); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

func (h *CloudHandler) Trash(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cloud.Trash(ctx, id, mustSession(c).UserID); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "trashed"})
}

func (h *CloudHandler) Restore(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cloud.Restore(ctx, id, mustSession(c).UserID); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "restored"})
}

// Delete handles DELETE /api/cloud/files/:id: the row and quota go in
// one transaction, then the blob is unlinked best effort.
func (h *CloudHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	objectKey, err := h.Cloud.DeleteFile(ctx, id, mustSession(c).UserID)
	if err != nil {
		return jsonError(c, err)
	}
	_ = os.Remove(h.blobPath(objectKey))
	h.Audit.record(c, "cloud_file", id, "deleted")
	return c.NoContent(http.StatusNoContent)
}
