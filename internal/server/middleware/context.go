package middleware

import (
	"context"

	"github.com/MicahParks/keyfunc/v3"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"

	"github.com/ringmast4r/project147/internal/data"
	"github.com/ringmast4r/project147/internal/progress"
	"github.com/ringmast4r/project147/internal/queue"
	"github.com/ringmast4r/project147/internal/store"
	"github.com/ringmast4r/project147/pkg/dataset"
)

type AppUser struct {
	UserID      int64
	Role        string
	Permissions []string
}

// ExportStore is the part of the export registry the handlers use.
type ExportStore interface {
	Create(ctx context.Context, chart string, filter dataset.Filter, createdBy int64) (store.Export, error)
	Get(ctx context.Context, id string) (store.Export, error)
	List(ctx context.Context, createdBy int64, limit int) ([]store.Export, error)
	MarkFailed(ctx context.Context, id, reason string) error
	Delete(ctx context.Context, id string) error
}

// ObjectStore serves finished exports.
type ObjectStore interface {
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// CachedChart is an encoded chart payload with its ETag.
type CachedChart struct {
	Body []byte
	ETag string
}

// App holds everything the handlers share. Exports, Queue and S3 are nil
// when the export pipeline is not configured.
type App struct {
	Data   *data.Sources
	Charts *lru.Cache[string, CachedChart]
	Hub    *progress.Hub

	Exports ExportStore
	Queue   queue.Channel
	S3      ObjectStore
	Key     keyfunc.Keyfunc

	// InstanceID tags reload broadcasts so an instance ignores its own.
	InstanceID     string
	MasterAPIKey   string
	MasterUserID   int64
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
