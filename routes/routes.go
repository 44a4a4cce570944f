package routes

import (
	"net/http"

	"github.com/dcode-github/property_dealer/backend/cache"
	"github.com/dcode-github/property_dealer/backend/config"
	"github.com/dcode-github/property_dealer/backend/controllers"
	"github.com/dcode-github/property_dealer/backend/images"
	"github.com/dcode-github/property_dealer/backend/middleware"
	"github.com/dcode-github/property_dealer/backend/services"
	"github.com/dcode-github/property_dealer/backend/store"
	"github.com/dcode-github/property_dealer/backend/utils"
	"github.com/gorilla/mux"
)

// Deps is everything the handlers need.
type Deps struct {
	Auth       *services.AuthService
	Users      store.UserStore
	Properties store.PropertyStore
	Favorites  store.FavoriteStore
	Chats      store.ChatStore
	Cache      *cache.PropertyCache
	Images     *images.Processor
	RateLimit  config.RateLimitConfig
}

func Routes(router *mux.Router, d Deps) {
	general := middleware.NewRateLimiter(d.RateLimit.Max, d.RateLimit.Window, "")
	authLimiter := middleware.NewRateLimiter(d.RateLimit.AuthMax, d.RateLimit.AuthWindow,
		"Too many authentication attempts, please try again later")
	otpLimiter := middleware.NewRateLimiter(d.RateLimit.OTPMax, d.RateLimit.OTPWindow,
		"Too many OTP requests, please wait before requesting another")
	for _, l := range []*middleware.RateLimiter{general, authLimiter, otpLimiter} {
		l.TrustProxy = d.RateLimit.TrustProxy
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(general.Limit)
	protected := middleware.AuthMiddleware(d.Users)

	// Auth routes
	auth := api.PathPrefix("/auth").Subrouter()
	auth.Use(authLimiter.Limit)
	auth.Handle("/register", otpLimiter.LimitFunc(controllers.RegisterUser(d.Auth))).Methods("POST")
	auth.Handle("/login", otpLimiter.LimitFunc(controllers.LoginUser(d.Auth))).Methods("POST")
	auth.HandleFunc("/login/password", controllers.LoginWithPassword(d.Auth)).Methods("POST")
	auth.HandleFunc("/verify-otp", controllers.VerifyOTP(d.Auth)).Methods("POST")
	auth.HandleFunc("/phone", controllers.PhoneLogin(d.Auth)).Methods("POST")
	auth.HandleFunc("/check-auth-method", controllers.CheckAuthMethod(d.Auth)).Methods("POST")

	// User routes
	users := api.PathPrefix("/users").Subrouter()
	users.Use(protected)
	users.HandleFunc("/profile", controllers.GetProfile(d.Auth)).Methods("GET")
	users.HandleFunc("/profile", controllers.UpdateProfile(d.Auth)).Methods("PUT")

	// Property routes; static paths before {id}
	api.Handle("/properties/search", controllers.SearchProperties(d.Properties, d.Cache)).Methods("GET")
	api.Handle("/properties/user/my-properties", protected(controllers.GetMyProperties(d.Properties))).Methods("GET")
	api.Handle("/properties", controllers.GetAllProperties(d.Properties, d.Cache)).Methods("GET")
	api.Handle("/properties", protected(controllers.CreateProperty(d.Properties, d.Cache, d.Images))).Methods("POST")
	api.Handle("/properties/{id}", controllers.GetPropertyByID(d.Properties)).Methods("GET")
	api.Handle("/properties/{id}", protected(controllers.UpdateProperty(d.Properties, d.Cache, d.Images))).Methods("PUT")
	api.Handle("/properties/{id}", protected(controllers.DeleteProperty(d.Properties, d.Cache))).Methods("DELETE")
	api.Handle("/properties/{id}/images", protected(controllers.UploadPropertyImages(d.Properties, d.Cache, d.Images))).Methods("POST")
	api.Handle("/properties/{id}/images/{imageIndex:[0-9]+}", protected(controllers.DeletePropertyImage(d.Properties, d.Cache))).Methods("DELETE")

	// Search alias
	api.Handle("/search", controllers.SearchProperties(d.Properties, d.Cache)).Methods("GET")

	// Favorites routes
	favorites := api.PathPrefix("/favorites").Subrouter()
	favorites.Use(protected)
	favorites.HandleFunc("", controllers.GetFavorites(d.Favorites, d.Properties)).Methods("GET")
	favorites.HandleFunc("/{id}", controllers.AddFavorite(d.Favorites, d.Properties)).Methods("POST")
	favorites.HandleFunc("/{id}", controllers.RemoveFavorite(d.Favorites, d.Properties)).Methods("DELETE")

	// Chat routes
	chat := api.PathPrefix("/chat").Subrouter()
	chat.Use(protected)
	chat.HandleFunc("/start", controllers.StartChat(d.Chats, d.Users)).Methods("POST")
	chat.HandleFunc("", controllers.GetChats(d.Chats)).Methods("GET")
	chat.HandleFunc("/{chatId}/messages", controllers.GetMessages(d.Chats)).Methods("GET")
	chat.HandleFunc("/{chatId}/messages", controllers.SendMessage(d.Chats)).Methods("POST")

	// Upload routes
	api.Handle("/upload", protected(controllers.UploadImages(d.Images))).Methods("POST")

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(protected, middleware.AdminOnly)
	admin.HandleFunc("/users", controllers.AdminListUsers(d.Users)).Methods("GET")
	admin.HandleFunc("/properties", controllers.AdminListProperties(d.Properties, d.Users)).Methods("GET")
	admin.HandleFunc("/properties/{id}/approve", controllers.ApproveProperty(d.Properties, d.Cache)).Methods("PUT")
	admin.HandleFunc("/properties/{id}/reject", controllers.RejectProperty(d.Properties, d.Cache)).Methods("PUT")
	admin.HandleFunc("/properties/{id}/feature", controllers.FeatureProperty(d.Properties, d.Cache)).Methods("PUT")
}
