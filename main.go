package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"connect-service/internal/auth"
	"connect-service/internal/db"
	"connect-service/internal/handlers"
	"connect-service/internal/middleware"
	"connect-service/internal/observability"
	"connect-service/internal/pubsub"
	"connect-service/internal/push"
	"connect-service/internal/rabbitmq"
	"connect-service/internal/repositories"
	"connect-service/internal/telemetry"
	"connect-service/internal/ws"
)

func main() {
	ctx := context.Background()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing := telemetry.SetupTracing(ctx, "connect-service", getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""))
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	amqpURL := getEnv("AMQP_URL", "")
	eventPublisher := rabbitmq.NewPublisher(amqpURL, getEnv("AMQP_EXCHANGE", "connect.events"))
	defer eventPublisher.Close()
	log.Printf("event publisher mode: %s", rabbitmq.PublisherMode(eventPublisher))

	if amqpURL != "" {
		obsPublisher, err := observability.NewAMQPPublisher(amqpURL, getEnv("AMQP_OBS_EXCHANGE", "connect.observability"))
		if err != nil {
			log.Printf("observability publisher disabled: %v", err)
		} else {
			observability.SetPublisher(obsPublisher)
			defer obsPublisher.Close()
		}
	}

	audit := telemetry.NewAuditEmitter(eventPublisher, getEnv("AUDIT_ROUTING_KEY", "audit.connect"),
		"connect-service", getEnv("ENVIRONMENT", "development"))

	connectionRepo := repositories.NewConnectionRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	inviteRepo := repositories.NewInviteRepo(database)
	pushRepo := repositories.NewPushRepo(database)

	broker := pubsub.NewBroker()
	bridge, err := pubsub.NewRedisBridge(getEnv("REDIS_URL", ""), broker)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if bridge != nil {
		go bridge.Run(ctx)
		defer bridge.Close()
	}

	notifier, err := push.NewNotifier(pushRepo, getEnv("VAPID_SUBJECT", "mailto:ops@connect.local"),
		getEnv("VAPID_PUBLIC_KEY", ""), getEnv("VAPID_PRIVATE_KEY", ""))
	if err != nil {
		log.Fatalf("failed to init push notifier: %v", err)
	}

	sessions := auth.NewTokenSessions(getEnv("SESSION_SECRET", "dev-session-secret"))
	authorizer := auth.NewAuthorizer(getEnv("CHANNEL_APP_KEY", "connect-key"), getEnv("CHANNEL_APP_SECRET", "dev-channel-secret"))

	messageHandler := handlers.NewMessageHandler(connectionRepo, messageRepo, broker, audit)
	inviteHandler := handlers.NewInviteHandler(inviteRepo, connectionRepo, audit)
	connectionHandler := handlers.NewConnectionHandler(connectionRepo, audit)
	pusherHandler := handlers.NewPusherHandler(broker, authorizer, notifier, audit)
	pushHandler := handlers.NewPushHandler(pushRepo, notifier)

	wsHandler := ws.NewHandler(broker, authorizer, sessions)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("connect-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(sessions)

	router.GET("/chats/:chat_id/messages", authMiddleware, messageHandler.ListMessages)
	router.POST("/chats/:chat_id/messages", authMiddleware, messageHandler.CreateMessage)

	router.GET("/invites/sent", authMiddleware, inviteHandler.ListSent)
	router.GET("/invites/received", authMiddleware, inviteHandler.ListReceived)
	router.POST("/invites", authMiddleware, inviteHandler.CreateInvite)
	router.PATCH("/invites/:invite_id", authMiddleware, inviteHandler.UpdateInvite)
	router.DELETE("/invites/:invite_id", authMiddleware, inviteHandler.DeleteInvite)

	router.GET("/connections", authMiddleware, connectionHandler.ListConnections)
	router.POST("/connections", authMiddleware, connectionHandler.CreateConnection)

	router.POST("/pusher", authMiddleware, pusherHandler.Publish)
	router.POST("/pusher/auth", middleware.OptionalAuthMiddleware(sessions), pusherHandler.Authorize)
	router.GET("/users/online", authMiddleware, pusherHandler.OnlineUsers)

	router.POST("/push/subscribe", authMiddleware, pushHandler.Subscribe)
	router.POST("/push/unsubscribe", authMiddleware, pushHandler.Unsubscribe)
	router.GET("/push/vapid-key", pushHandler.VAPIDKey)

	router.GET("/ws", wsHandler.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, broker, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
