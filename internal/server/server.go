package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/feedme-app/feedme/internal/backup"
	"github.com/feedme-app/feedme/internal/handler"
	"github.com/feedme-app/feedme/internal/list"
	"github.com/feedme-app/feedme/internal/middleware"
	"github.com/feedme-app/feedme/internal/model"
	"github.com/feedme-app/feedme/internal/recipe"
	"github.com/feedme-app/feedme/internal/session"
	"github.com/feedme-app/feedme/internal/store"
	"github.com/feedme-app/feedme/internal/view"
	ws "github.com/feedme-app/feedme/internal/websocket"
)

// Config holds everything the server needs beyond the database handle.
type Config struct {
	JWTSecret string
	Recipe    recipe.Config
	Backup    backup.Config
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	state       *session.State
	controller  *list.Controller
	itemStore   *store.ItemStore
	authH       *handler.AuthHandler
	pantryH     *handler.PantryHandler
	shoppingH   *handler.ShoppingHandler
	recipeH     *handler.RecipeHandler
	appH        *handler.AppHandler
	rateLimiter *middleware.RateLimiter
	backupMgr   *backup.Manager
	secret      string
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	itemStore := store.NewItemStore(db)
	slotStore := store.NewSessionSlotStore(db)
	purchaseStore := store.NewPurchaseStore(db)

	state := session.NewState(userStore, slotStore, logger.With("component", "session"))
	controller := list.NewController(itemStore, state, logger.With("component", "list"))

	// Every mutation pushes the freshly rendered list to connected displays.
	controller.OnChange = func(loc list.Location, items []model.Item) {
		hub.Broadcast(ws.ViewMessage(string(loc), view.Render(items, true)))
	}

	// Session transitions re-render both lists for the new user (or the
	// signed-out placeholder).
	state.OnChange = func(user *model.User) {
		name := ""
		if user != nil {
			name = user.Name
		}
		hub.Broadcast(ws.SessionMessage(user != nil, name))
		for _, loc := range []list.Location{list.Pantry, list.Shopping} {
			items, err := controller.Load(loc)
			if err != nil {
				logger.Error("render after session change", "location", string(loc), "error", err)
				continue
			}
			hub.Broadcast(ws.ViewMessage(string(loc), view.Render(items, user != nil)))
		}
	}

	// API writes by the signed-in user show up on the display too.
	sync := func(ownerID int64) {
		current := state.Current()
		if current == nil || current.ID != ownerID {
			return
		}
		for _, loc := range []list.Location{list.Pantry, list.Shopping} {
			items, err := controller.Load(loc)
			if err != nil {
				logger.Error("render after api write", "location", string(loc), "error", err)
				continue
			}
			hub.Broadcast(ws.ViewMessage(string(loc), view.Render(items, true)))
		}
	}

	recipeClient := recipe.NewClient(cfg.Recipe)
	backupMgr := backup.NewManager(cfg.Backup, db, logger.With("component", "backup"))

	// Resume whoever was signed in before the restart.
	if user, err := state.Restore(); err != nil {
		logger.Error("restore session", "error", err)
	} else if user != nil {
		logger.Info("restored session", "user_id", user.ID)
	}

	return &Server{
		db:          db,
		hub:         hub,
		state:       state,
		controller:  controller,
		itemStore:   itemStore,
		authH:       handler.NewAuthHandler(userStore, cfg.JWTSecret, logger.With("component", "auth")),
		pantryH:     handler.NewPantryHandler(itemStore, sync, logger.With("component", "pantry")),
		shoppingH:   handler.NewShoppingHandler(itemStore, purchaseStore, sync, logger.With("component", "shopping")),
		recipeH:     handler.NewRecipeHandler(recipeClient, logger.With("component", "recipe")),
		appH:        handler.NewAppHandler(state, controller, userStore, logger.With("component", "app")),
		rateLimiter: middleware.NewRateLimiter(),
		backupMgr:   backupMgr,
		secret:      cfg.JWTSecret,
		logger:      logger,
	}
}

// BackupManager returns the snapshot manager for lifecycle control.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupMgr
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public API routes
	mux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	mux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	mux.HandleFunc("GET /health", s.healthHandler)

	// Token-gated API routes
	protected := http.NewServeMux()
	s.registerProtectedRoutes(protected)
	mux.Handle("/api/", middleware.RequireToken(s.secret)(protected))

	// App channel for the kitchen display (home network, session-gated in
	// the controller)
	mux.HandleFunc("POST /app/login", s.rateLimitedHandler(s.appH.Login))
	mux.HandleFunc("POST /app/logout", s.appH.Logout)
	mux.HandleFunc("GET /app/session", s.appH.Session)
	mux.HandleFunc("GET /app/{location}", s.appH.View)
	mux.HandleFunc("POST /app/pantry/items", s.appH.AddItem)
	mux.HandleFunc("POST /app/{location}/items/{id}/increment", s.appH.Increment)
	mux.HandleFunc("POST /app/{location}/items/{id}/decrement", s.appH.Decrement)
	mux.HandleFunc("DELETE /app/pantry/items/{id}", s.appH.RemovePantryItem)
	mux.HandleFunc("DELETE /app/shopping/items/{id}", s.appH.RemoveShoppingItem)
	mux.HandleFunc("POST /app/undo", s.appH.Undo)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/verify", s.authH.Verify)

	// Pantry API routes
	mux.HandleFunc("GET /api/pantry", s.pantryH.List)
	mux.HandleFunc("POST /api/pantry", s.pantryH.Create)
	mux.HandleFunc("PUT /api/pantry/{id}", s.pantryH.Update)
	mux.HandleFunc("DELETE /api/pantry/{id}", s.pantryH.Delete)

	// Shopping list API routes
	mux.HandleFunc("GET /api/shopping", s.shoppingH.List)
	mux.HandleFunc("POST /api/shopping", s.shoppingH.Create)
	mux.HandleFunc("PUT /api/shopping/{id}", s.shoppingH.Update)
	mux.HandleFunc("DELETE /api/shopping/{id}", s.shoppingH.Delete)
	mux.HandleFunc("POST /api/shopping/finish", s.shoppingH.Finish)
	mux.HandleFunc("GET /api/shopping/history", s.shoppingH.History)

	// Recipe generation
	mux.HandleFunc("POST /api/recipe/generate", s.recipeH.Generate)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
