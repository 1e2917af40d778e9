package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
	oauthgoogle "golang.org/x/oauth2/google"

	"boardly-api/api"
	"boardly-api/service"
	"boardly-api/storage"
)

func main() {
	if os.Getenv("DEBUG") == "1" {
		log.SetLevel(log.DebugLevel)
	}
	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	tableName := os.Getenv("BOARDLY_TABLE")
	eventQueueName := os.Getenv("EVENTS_QUEUE")
	if connStr == "" || tableName == "" || eventQueueName == "" {
		log.Fatal("missing storage config")
	}
	store, err := storage.New(connStr, tableName, eventQueueName)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	var rc *redis.Client
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		redisOpts, err := redis.ParseURL(redisConn)
		if err != nil {
			parts := strings.Split(redisConn, ",")
			redisOpts = &redis.Options{Addr: parts[0]}
			for _, p := range parts[1:] {
				kv := strings.SplitN(p, "=", 2)
				if len(kv) != 2 {
					continue
				}
				switch strings.ToLower(kv[0]) {
				case "password":
					redisOpts.Password = kv[1]
				case "ssl":
					if strings.ToLower(kv[1]) == "true" {
						redisOpts.TLSConfig = &tls.Config{}
					}
				}
			}
		}
		rc = redis.NewClient(redisOpts)
	}
	cacheTTL := 5 * time.Minute
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			log.Fatalf("invalid CACHE_TTL: %v", err)
		}
		cacheTTL = d
	}
	cache := storage.NewCache(rc, cacheTTL)

	otel.SetTracerProvider(sdktrace.NewTracerProvider())

	logger := log.New()
	svc := service.New(store, cache, logger)

	var auth *api.Auth
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		auth = api.NewLocalAuth([]byte(secret), "boardly", 0)
	} else if domain := os.Getenv("AUTH0_DOMAIN"); domain != "" {
		audience := os.Getenv("AUTH0_AUDIENCE")
		if audience == "" {
			log.Fatal("missing AUTH0_AUDIENCE")
		}
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		auth = api.NewAuth(jwks, audience, "https://"+domain+"/")
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddleware("boardly"))
	e.GET("/metrics", echoprometheus.NewHandler())

	var authenticator api.Authenticator
	if auth != nil {
		authenticator = auth
	}
	api.Register(e, svc, authenticator, logger)

	if auth != nil && os.Getenv("SESSION_SECRET") != "" {
		loginCfg := api.LoginConfig{Auth: auth}
		if rc != nil {
			loginCfg.States = api.NewRedisStateStore(rc, 10*time.Minute)
		}
		if id := os.Getenv("GITHUB_CLIENT_ID"); id != "" {
			loginCfg.GitHub = &oauth2.Config{
				ClientID:     id,
				ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
				Endpoint:     oauthgithub.Endpoint,
				RedirectURL:  os.Getenv("GITHUB_REDIRECT_URL"),
				Scopes:       []string{"read:user", "user:email"},
			}
		}
		if id := os.Getenv("GOOGLE_CLIENT_ID"); id != "" {
			loginCfg.Google = &oauth2.Config{
				ClientID:     id,
				ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
				Endpoint:     oauthgoogle.Endpoint,
				RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
				Scopes:       []string{"openid", "email", "profile"},
			}
		}
		if (loginCfg.GitHub != nil || loginCfg.Google != nil) && loginCfg.States == nil {
			log.Fatal("oauth login requires redis config")
		}
		api.RegisterLogin(e, svc, loginCfg)
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		api.RegisterAssist(e, openai.NewClient(key))
	}

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
