package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akodkod/konsol/internal/config"
	"github.com/akodkod/konsol/internal/evaluator"
	"github.com/akodkod/konsol/internal/hostruntime"
	"github.com/akodkod/konsol/internal/lock"
	"github.com/akodkod/konsol/internal/protocol"
	"github.com/akodkod/konsol/internal/server"
	"github.com/akodkod/konsol/internal/service"
	"github.com/akodkod/konsol/internal/session"
	"github.com/akodkod/konsol/internal/transport"
	"github.com/akodkod/konsol/internal/version"
)

const lockTimeout = 2 * time.Second

// serve wires the components together, runs the loop over the selected
// transport, and exits with the loop's code.
func serve() error {
	// Responses own stdout; everything human-readable goes to stderr.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	workingDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}

	cfg := config.Default(workingDir)
	if err := cfg.LoadFile(); err != nil {
		return err
	}
	cfg.ApplyEnv()
	if flagListen != "" {
		cfg.Transport = config.TransportTCP
		cfg.ListenAddr = flagListen
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	log.Printf("konsol %s starting (root=%s, env=%s, transport=%s)",
		version.Version, cfg.WorkingDirectory, cfg.Environment, cfg.Transport)

	guard, err := lock.Acquire(cfg.WorkingDirectory, lockTimeout)
	if err != nil {
		return err
	}
	defer guard.Release()

	runtime := hostruntime.NewDefault(cfg.Environment, cfg.WorkingDirectory)
	store := session.NewStore(runtime, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	defer store.Close()

	svc := service.New(store, evaluator.New(runtime), service.NewLifecycle(), protocol.ServerInfo{
		Name:    "konsol",
		Version: version.Version,
	})

	// Signals request shutdown; the loop still waits to observe the exit
	// notification or stream closure before leaving.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("received %s, requesting shutdown", sig)
		svc.RequestShutdown()
	}()

	reader, writer, cleanup, err := openStream(cfg)
	if err != nil {
		return err
	}

	code := server.New(reader, writer, svc).Run()

	cleanup()
	guard.Release()
	store.Close()
	log.Printf("exiting with code %d", code)
	os.Exit(code)
	return nil
}

// openStream pairs the server with its single client on the configured
// transport.
func openStream(cfg *config.Config) (io.Reader, io.Writer, func(), error) {
	if cfg.Transport == config.TransportTCP {
		listener, err := transport.ListenTCP(cfg.ListenAddr)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Printf("listening on %s", listener.Addr())
		conn, err := listener.AcceptOne()
		if err != nil {
			listener.Close()
			return nil, nil, nil, err
		}
		log.Printf("client connected from %s", conn.RemoteAddr())
		cleanup := func() {
			conn.Close()
			listener.Close()
		}
		return conn, conn, cleanup, nil
	}

	return os.Stdin, os.Stdout, func() {}, nil
}
