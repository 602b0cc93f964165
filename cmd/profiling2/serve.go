package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/emallson/profiling2-decode/cmd/profiling2/internal/liveserve"
)

// runServe starts a standalone progress WebSocket server at /progress and
// blocks until interrupted. Nothing broadcasts to it: "decode --serve"
// starts its own in-process server (startLiveServer) and does not push
// progress to a separately-started one.
func runServe(args []string) error {
	fs := newFlagSet("serve")
	addr := fs.String("addr", ":8089", "address to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	live := liveserve.New()
	mux := http.NewServeMux()
	mux.HandleFunc("/progress", live.Handler)

	fmt.Printf("listening on %s (ws://%s/progress)\n", *addr, *addr)
	return http.ListenAndServe(*addr, mux)
}

// startLiveServer starts a progress server in the background for "decode
// --serve" to push updates to while the decode loop runs in the foreground,
// returning a stop function that shuts it down.
func startLiveServer(addr string, live *liveserve.Server) (func(), error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/progress", live.Handler)
	srv := &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	go srv.Serve(ln)
	fmt.Printf("streaming decode progress on ws://%s/progress\n", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, nil
}
