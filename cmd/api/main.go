package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"coursebay/internal/adapter/api"
	"coursebay/internal/adapter/api/handler"
	apimiddleware "coursebay/internal/adapter/api/middleware"
	"coursebay/internal/adapter/api/router"
	"coursebay/internal/adapter/repository"
	"coursebay/internal/infrastructure/mail"
	"coursebay/internal/infrastructure/storage"
	"coursebay/internal/infrastructure/websocket"
	"coursebay/internal/usecase"
	"coursebay/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption
	credentialsPath := ""

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		credentialsPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if credentialsPath == "" {
			credentialsPath = "./service-account.json"
		}
		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", credentialsPath)
		}

		log.Printf("Using Firebase service account from file: %s", credentialsPath)
		opt = option.WithCredentialsFile(credentialsPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, credentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	mailClient := mail.NewClient(cfg.MailAPIKey, cfg.MailFrom)

	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	convRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	groupRepo := repository.NewFirestoreGroupChatRepository(firestoreClient)
	directory := repository.NewFirestoreDirectory(firestoreClient)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	guards := usecase.NewGuards(directory, groupRepo)
	uploadTimeout := time.Duration(cfg.MediaUploadSecs) * time.Second

	messageUseCase := usecase.NewMessageUseCase(messageRepo, convRepo, directory, storageClient, mailClient, wsManager, guards, uploadTimeout)
	groupChatUseCase := usecase.NewGroupChatUseCase(groupRepo, convRepo, messageRepo, directory, storageClient, wsManager, guards, uploadTimeout)
	accountUseCase := usecase.NewAccountUseCase(messageRepo, convRepo, groupRepo, storageClient, wsManager)

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	messageHandler := handler.NewMessageHandler(messageUseCase)
	groupChatHandler := handler.NewGroupChatHandler(groupChatUseCase)
	accountHandler := handler.NewAccountHandler(accountUseCase, messageUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, messageUseCase)
	healthHandler := handler.NewHealthHandler(firestoreClient)

	router.Setup(e, messageHandler, groupChatHandler, accountHandler, wsHandler, healthHandler, authMiddleware)

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
