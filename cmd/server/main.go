package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"chatroom-server/internal/api"
	"chatroom-server/internal/chat"
	"chatroom-server/internal/config"
	"chatroom-server/internal/db"
	"chatroom-server/internal/repository"
	"chatroom-server/internal/tasks"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func serveWS(router *chat.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nickname := r.URL.Query().Get("nickname")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Upgrade error: %v", err)
			return
		}

		c := chat.NewConn(conn, nickname)
		router.Connect(c)

		go c.WritePump()
		go c.ReadPump(router)
	}
}

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
		return
	}
	defer pool.Close()

	repo := repository.NewMessageRepo(pool)

	registry := chat.NewRegistry()
	notifier := chat.NewNotifier(registry)
	router := chat.NewRouter(registry, notifier, repo, cfg.HistoryOnConnect, cfg.HistoryBacklogLimit)

	tasks.NewRetentionSweeper(repo, cfg.RetentionDays).Start()

	http.HandleFunc("/ws", serveWS(router))
	http.HandleFunc("/api/upload", api.UploadHandler(cfg.UploadDir, cfg.UploadAccessPath))
	http.Handle(cfg.UploadAccessPath, http.StripPrefix(cfg.UploadAccessPath, http.FileServer(http.Dir(cfg.UploadDir))))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		addr := ":" + cfg.Port
		fmt.Printf("Chatroom server starting on %s...\n", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			if err != http.ErrServerClosed {
				log.Fatalf("ListenAndServe: %v", err)
			}
		}
	}()

	<-stop

	fmt.Println("\nShutdown signal received. Cleaning up...")
	router.Shutdown()

	time.Sleep(1 * time.Second)
	fmt.Println("Graceful shutdown complete. Goodnight!")
}
