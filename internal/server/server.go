package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ringmast4r/project147/internal/data"
	"github.com/ringmast4r/project147/internal/progress"
	"github.com/ringmast4r/project147/internal/queue"
	mid "github.com/ringmast4r/project147/internal/server/middleware"
	"github.com/ringmast4r/project147/internal/storage"
	"github.com/ringmast4r/project147/internal/store"
	"github.com/ringmast4r/project147/internal/util"
	"github.com/ringmast4r/project147/internal/watch"
	"github.com/ringmast4r/project147/pkg/dataset"
	"github.com/ringmast4r/project147/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance serving app. Static files are served from
// staticDir when it is set.
func New(app *mid.App, staticDir string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/ws/")
		},
	}))
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e, app)

	if staticDir != "" {
		e.Static("/", staticDir)
	}
	return e
}

// NewChartCache returns the chart payload cache, purged whenever the
// served dataset changes.
func NewChartCache(size int, provider *dataset.Provider) *lru.Cache[string, mid.CachedChart] {
	cache, err := lru.New[string, mid.CachedChart](max(size, 1))
	if err != nil {
		logger.Fatal("Failed to create chart cache", "err", err)
	}
	provider.Subscribe(func(dataset.Snapshot) {
		cache.Purge()
	})
	return cache
}

// LoadData loads the dataset, texts and theographic data in the
// background. Failures are reported on the hub; the server keeps serving
// whatever did load.
func LoadData(ctx context.Context, src *data.Sources, hub *progress.Hub) {
	go func() {
		if err := src.Provider.Start(ctx); err != nil {
			hub.Error("dataset", err.Error())
		}
	}()
	go func() {
		if err := src.Theographic.Load(ctx); err != nil {
			logger.Warn("[Server] Theographic data not available", "err", err)
			hub.Error("theographic", err.Error())
		}
	}()
	go src.LoadTexts(ctx)
}

func exportEventMessage(body []byte) (progress.Message, bool) {
	var ev queue.ExportEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return progress.Message{}, false
	}
	msg := progress.Message{
		Type:      progress.TypeProgress,
		Operation: "export:" + ev.ExportID,
		Progress:  50,
		Message:   string(ev.Status),
		Data:      map[string]any{"export_id": ev.ExportID, "status": ev.Status},
	}
	switch ev.Status {
	case store.StatusDone:
		msg.Type, msg.Progress = progress.TypeComplete, 100
	case store.StatusFailed:
		msg.Type, msg.Progress, msg.Message = progress.TypeError, 0, ev.Error
	}
	return msg, true
}

// subscribe forwards export events to the hub and applies reloads
// requested on other instances.
func subscribe(ctx context.Context, conn *amqp091.Connection, app *mid.App) {
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("[Server] Failed to open subscriber channel", "err", err)
		return
	}

	err = queue.SubscribeTopic(ctx, ch, queue.ExportTopicPrefix+"*", func(_ string, body []byte) {
		if msg, ok := exportEventMessage(body); ok {
			app.Hub.Broadcast(msg)
		}
	})
	if err != nil {
		logger.Error("[Server] Failed to subscribe to export events", "err", err)
	}

	err = queue.SubscribeTopic(ctx, ch, queue.ReloadTopic, func(_ string, body []byte) {
		var msg queue.ReloadMsg
		if err := json.Unmarshal(body, &msg); err != nil || msg.Instance == app.InstanceID {
			return
		}
		logger.Info("[Server] Reload requested by another instance", "instance", msg.Instance)
		if err := app.Data.Reload(ctx); err != nil {
			app.Hub.Error("reload", err.Error())
		}
	})
	if err != nil {
		logger.Error("[Server] Failed to subscribe to reloads", "err", err)
	}
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := data.ConfigFromEnv()
	src, err := data.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open data source", "err", err)
	}

	hub := progress.NewHub(util.GetEnvList("ALLOWED_ORIGINS", nil))
	go hub.Run(ctx)
	src.Provider.OnProgress(hub.Reporter("dataset"))
	src.Theographic.OnProgress(hub.Reporter("theographic"))

	instanceID, err := util.NewID("srv")
	if err != nil {
		logger.Fatal("Failed to create instance id", "err", err)
	}

	parsedMasterUserID, _ := strconv.ParseInt(util.GetEnv("MASTER_USER_ID"), 10, 64)
	app := &mid.App{
		Data:           src,
		Charts:         NewChartCache(util.GetEnvInt("CHART_CACHE_SIZE", 256), src.Provider),
		Hub:            hub,
		InstanceID:     instanceID,
		MasterAPIKey:   util.GetEnv("MASTER_API_KEY"),
		MasterUserID:   parsedMasterUserID,
		MasterUserRole: util.GetEnv("MASTER_USER_ROLE"),
	}

	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Key = k
	}

	if dbURL := util.GetEnv("DATABASE_URL"); dbURL != "" {
		if err := store.Migrate(dbURL); err != nil {
			logger.Fatal("Failed to migrate database", "err", err)
		}
		conn, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", "err", err)
		}
		defer conn.Close()
		app.Exports = store.New(conn)
	} else {
		logger.Warn("[Server] DATABASE_URL not set, exports are disabled")
	}

	if util.GetEnv("RABBITMQ_HOST") != "" {
		que := queue.Init(ctx)
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		if err := queue.SetupQueues(ch, []string{queue.ExportQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		app.Queue = ch
		subscribe(ctx, que, app)
	}

	if util.GetEnv("AWS_BUCKET") != "" {
		s3, err := storage.NewClient(ctx, storage.ClientParamsFromEnv())
		if err != nil {
			logger.Fatal("Failed to create S3 client", "err", err)
		}
		app.S3 = s3
	}

	LoadData(ctx, src, hub)

	if util.GetEnvBool("WATCH_DATA", false) {
		if files := cfg.LocalFiles(); len(files) > 0 {
			w, err := watch.New(files, watch.DefaultDebounce, src.Reload)
			if err != nil {
				logger.Fatal("Failed to watch data files", "err", err)
			}
			w.Start(ctx)
			defer w.Stop()
		}
	}

	e := New(app, util.GetEnv("STATIC_DIR"))

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
