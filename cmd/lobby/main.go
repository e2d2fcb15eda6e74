// Command lobby lists the joinable games on a server, one-shot or as a live
// stream.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"nhooyr.io/websocket"
)

type lobbyEntry struct {
	ID        string    `json:"id"`
	HostName  string    `json:"hostName"`
	Alias     string    `json:"alias"`
	CreatedAt time.Time `json:"createdAt"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "server address")
	watch := flag.Bool("watch", false, "stream lobby updates instead of listing once")
	flag.Parse()

	if *watch {
		if err := watchLobby(*addr); err != nil {
			log.Fatal(err)
		}
		return
	}

	entries, err := fetchLobby(*addr)
	if err != nil {
		log.Fatal(err)
	}
	printEntries(entries)
}

func fetchLobby(addr string) ([]lobbyEntry, error) {
	resp, err := http.Get(addr + "/api/games")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list games: status %d", resp.StatusCode)
	}
	var entries []lobbyEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func watchLobby(addr string) error {
	url := strings.Replace(addr, "http", "ws", 1) + "/api/lobby/ws"
	ctx := context.Background()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var entries []lobbyEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return err
		}
		printEntries(entries)
		fmt.Println()
	}
}

func printEntries(entries []lobbyEntry) {
	if len(entries) == 0 {
		fmt.Println("no open games")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tALIAS\tHOST\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Alias, e.HostName, humanize.Time(e.CreatedAt))
	}
	w.Flush()
}
