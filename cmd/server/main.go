package main

import (
	"log"
	"net/http"
	"os"

	"penguin/internal/deck"
	"penguin/internal/engine"
	"penguin/internal/server"
	"penguin/internal/storage"
)

const defaultDeckAPI = "https://deckofcardsapi.com/api/deck"

func main() {
	addr := ":8080"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}

	dbPath := "penguin.db"
	if p := os.Getenv("DB_PATH"); p != "" {
		dbPath = p
	}

	deckAPI := defaultDeckAPI
	if u := os.Getenv("DECK_API_URL"); u != "" {
		deckAPI = u
	}

	store, err := storage.New(dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer store.Close()

	eng := engine.New(store, deck.NewClient(deckAPI))
	srv := server.New(eng, store)

	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatalf("server: %v", err)
	}
}
