package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"liveboard/internal/editor"
	boardnet "liveboard/internal/net"
	"liveboard/internal/relay"
	"liveboard/internal/state"
	"liveboard/internal/ui"
)

// The sync client is the edit engine's network sink.
var _ editor.Emitter = (*boardnet.SyncClient)(nil)

func main() {
	hostMode := flag.Bool("host", false, "run a relay on this machine and join it")
	join := flag.String("join", "", "relay address host:port (default: config, then mDNS discovery)")
	boardID := flag.String("board", "", "board to join")
	name := flag.String("name", "", "display name shown to other users")
	flag.Parse()

	initializeConfigIfNot()
	conf := readConfig()
	if *join != "" {
		conf.Server = *join
	}
	if *boardID != "" {
		conf.BoardID = *boardID
	}
	if *name != "" {
		conf.DisplayName = *name
	}
	if conf.DisplayName == "" {
		conf.DisplayName = "User-" + state.NewID()[:6]
	}

	if *hostMode {
		runHost(conf)
		return
	}
	runClient(conf)
}

// runHost starts the relay and the mDNS advertisement, then joins the
// local relay as a regular client.
func runHost(conf *config) {
	r := relay.New()
	go func() {
		addr := fmt.Sprintf(":%d", conf.HostPort)
		if err := r.ListenAndServe(addr); err != nil {
			log.Fatalf("[host] relay stopped: %v", err)
		}
	}()

	srv, err := boardnet.Advertise(conf.HostPort)
	if err != nil {
		log.Printf("[host] mdns advertise failed: %v", err)
	} else {
		defer srv.Shutdown()
	}

	if ip, err := boardnet.OutgoingIP(); err == nil {
		log.Printf("[host] share this address: %s:%d", ip, conf.HostPort)
	}

	conf.Server = fmt.Sprintf("127.0.0.1:%d", conf.HostPort)
	runClient(conf)
}

func runClient(conf *config) {
	addr := conf.Server
	if addr == "" && conf.Discover {
		log.Println("[net] no relay configured, browsing the LAN")
		found, err := boardnet.Discover(3 * time.Second)
		if err != nil {
			log.Printf("[net] discovery failed: %v", err)
		} else {
			addr = found
		}
	}

	board := state.NewBoard()
	presence := state.NewPresence()
	history := state.NewHistory()

	client := boardnet.NewSyncClient(boardnet.Config{
		URL:         fmt.Sprintf("ws://%s/ws", addr),
		UserID:      state.NewID(),
		DisplayName: conf.DisplayName,
		MaxRetries:  conf.MaxRetries,
		Backoff:     time.Duration(conf.BackoffSeconds) * time.Second,
	}, board, presence, history)

	ed := editor.New(board, history, client)
	ed.SetUserID(client.UserID())
	if c, err := state.ParseARGB(conf.DefaultColor); err == nil {
		ed.SetColor(c)
	}
	if conf.DefaultSize > 0 {
		ed.SetSize(conf.DefaultSize)
	}

	app := ui.NewApp(ed, board, presence)
	client.OnChange = app.RefreshBoard
	client.OnStatus = func(s boardnet.ConnState) {
		app.SetStatus("Connection: " + s.String())
	}
	client.OnUserCount = func(n int) {
		app.SetStatus(fmt.Sprintf("%d user(s) on %q", n, client.BoardID()))
	}

	if addr == "" {
		app.SetStatus("Offline: no relay found")
	} else if err := client.Connect(); err != nil {
		log.Printf("[net] connect failed, staying offline: %v", err)
		app.SetStatus("Offline: " + err.Error())
	} else {
		client.JoinBoard(conf.BoardID)
		defer client.Close()
	}

	app.Run()
}
