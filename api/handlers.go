package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/wenderenzo/listaTarefas/domain"
)

const requestBodyMaxSize = 1 << 20

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, deduper Deduper, logger *log.Logger) {
	e.GET("/api/tasks", listTasks(store, logger))
	e.GET("/api/tasks/:id", getTask(store))
	e.POST("/api/tasks", createTask(store, deduper, logger))
	e.PUT("/api/tasks/order", reorderTasks(store, deduper, logger))
	e.PUT("/api/tasks/:id", updateTask(store, deduper, logger))
	e.DELETE("/api/tasks/:id", deleteTask(store, deduper, logger))
	e.GET("/healthz", healthz())
}

type envelope struct {
	Data any    `json:"data"`
	Time string `json:"time"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Data: data, Time: time.Now().Format(time.RFC3339)})
}

func decodeBody(c echo.Context, out any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func taskID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// dedupe consumes the request's idempotency key. It reports whether the
// mutation should proceed; a replayed key short-circuits the handler. A
// failing deduper does not block the mutation.
func dedupe(c echo.Context, deduper Deduper, logger *log.Logger) (bool, string) {
	key := c.Request().Header.Get("Idempotency-Key")
	if deduper == nil || key == "" {
		return true, ""
	}
	added, err := deduper.Add(c.Request().Context(), key)
	if err != nil {
		logger.WithFields(log.Fields{"key": key, "error": err}).Warn("deduper unavailable; processing mutation")
		return true, ""
	}
	if !added {
		logger.WithField("key", key).Info("duplicate mutation dropped")
		return false, key
	}
	return true, key
}

// forget releases a consumed idempotency key after a failed mutation so the
// client may retry with it.
func forget(c echo.Context, deduper Deduper, key string) {
	if deduper == nil || key == "" {
		return
	}
	_ = deduper.Remove(c.Request().Context(), key)
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func listTasks(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		tasks, err := store.ListTasks(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		logger.WithFields(log.Fields{
			"route":    "/api/tasks",
			"returned": len(tasks),
			"total_ms": float64(time.Since(start)) / float64(time.Millisecond),
		}).Debug("tasks.list.metrics")
		return respond(c, http.StatusOK, tasks)
	}
}

func getTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := taskID(c)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid task id")
		}
		task, err := store.GetTask(c.Request().Context(), id)
		if errors.Is(err, domain.ErrTaskNotFound) {
			return c.String(http.StatusNotFound, "task not found")
		}
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return respond(c, http.StatusOK, task)
	}
}

func createTask(store Storage, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var fields domain.TaskFields
		if err := decodeBody(c, &fields); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := fields.Validate(); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		proceed, key := dedupe(c, deduper, logger)
		if !proceed {
			return respond(c, http.StatusOK, nil)
		}

		task, err := store.CreateTask(c.Request().Context(), fields)
		if errors.Is(err, domain.ErrDuplicateName) {
			forget(c, deduper, key)
			return c.String(http.StatusConflict, "task name already exists")
		}
		if err != nil {
			forget(c, deduper, key)
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return respond(c, http.StatusCreated, task)
	}
}

func updateTask(store Storage, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := taskID(c)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid task id")
		}
		var fields domain.TaskFields
		if err := decodeBody(c, &fields); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := fields.Validate(); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		proceed, key := dedupe(c, deduper, logger)
		if !proceed {
			return respond(c, http.StatusOK, nil)
		}

		task, err := store.UpdateTask(c.Request().Context(), id, fields)
		switch {
		case errors.Is(err, domain.ErrTaskNotFound):
			forget(c, deduper, key)
			return c.String(http.StatusNotFound, "task not found")
		case errors.Is(err, domain.ErrDuplicateName):
			forget(c, deduper, key)
			return c.String(http.StatusConflict, "task name already exists")
		case err != nil:
			forget(c, deduper, key)
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return respond(c, http.StatusOK, task)
	}
}

func deleteTask(store Storage, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := taskID(c)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid task id")
		}

		proceed, key := dedupe(c, deduper, logger)
		if !proceed {
			return respond(c, http.StatusOK, nil)
		}

		err = store.DeleteTask(c.Request().Context(), id)
		switch {
		case errors.Is(err, domain.ErrTaskNotFound):
			forget(c, deduper, key)
			return c.String(http.StatusNotFound, "task not found")
		case err != nil:
			forget(c, deduper, key)
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return respond(c, http.StatusOK, nil)
	}
}

func reorderTasks(store Storage, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		tasks := make([]domain.Task, 0, 16)
		if err := decodeBody(c, &tasks); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if len(tasks) == 0 {
			return c.String(http.StatusBadRequest, "empty task list")
		}
		for i := range tasks {
			if tasks[i].DisplayOrder <= 0 {
				return c.String(http.StatusBadRequest, "display order must be positive")
			}
		}

		proceed, key := dedupe(c, deduper, logger)
		if !proceed {
			return respond(c, http.StatusOK, nil)
		}

		err := store.ReorderTasks(c.Request().Context(), tasks)
		switch {
		case errors.Is(err, domain.ErrTaskNotFound):
			forget(c, deduper, key)
			return c.String(http.StatusNotFound, "task not found")
		case err != nil:
			forget(c, deduper, key)
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		logger.WithField("reordered", len(tasks)).Debug("task order persisted")
		return respond(c, http.StatusOK, nil)
	}
}
