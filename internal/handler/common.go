package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/auth"
	"github.com/stagedesk/stagedesk/internal/middleware"
	"github.com/stagedesk/stagedesk/internal/queue"
	"github.com/stagedesk/stagedesk/internal/repository"
)

// dbTimeout bounds every repository call made from a handler.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

func mustSession(c echo.Context) auth.Session {
	s, _ := middleware.CurrentSession(c)
	return s
}

// jsonError maps repository sentinel errors onto the API's status
// vocabulary. Unknown errors become opaque 500s.
func jsonError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrVersionConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "version conflict, reload and retry"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "resource is referenced by other records"})
	case errors.Is(err, repository.ErrQuantityMismatch):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "subtotals must sum to quantity"})
	case errors.Is(err, repository.ErrQuotaExceeded):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "storage quota exceeded"})
	case isNotFound(err):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func isNotFound(err error) bool {
	for _, target := range []error{
		repository.ErrUserNotFound,
		repository.ErrCategoryNotFound,
		repository.ErrEquipmentNotFound,
		repository.ErrClientNotFound,
		repository.ErrPartnerNotFound,
		repository.ErrEventNotFound,
		repository.ErrQuoteNotFound,
		repository.ErrSubrentalNotFound,
		repository.ErrShareNotFound,
		repository.ErrNotificationNotFound,
		repository.ErrFileNotFound,
		repository.ErrFolderNotFound,
		repository.ErrTranslationNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Auditor records mutations to the activity log and fans them out over
// AMQP. Both writes are best effort: an audit failure never fails the
// request that triggered it.
type Auditor struct {
	activities *repository.ActivityRepo
}

func NewAuditor(activities *repository.ActivityRepo) *Auditor {
	return &Auditor{activities: activities}
}

func (a *Auditor) record(c echo.Context, entityType string, entityID uint64, action string) {
	s := mustSession(c)
	now := time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	_ = a.activities.Insert(ctx, &repository.Activity{
		UserID:     s.UserID,
		Username:   s.Username,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		CreatedAt:  now,
	})
	_ = queue.Publish(ctx, queue.ActivityQueue, queue.ActivityEvent{
		UserID:     s.UserID,
		Username:   s.Username,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		CreatedAt:  now,
	})
}
