// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
	"github.com/ttbt-io/rekap/backend"
)

var (
	addr       = flag.String("addr", "", "The TCP address to listen to (serve mode)")
	configFile = flag.String("config", "", "Path to YAML config file")
	dataDir    = flag.String("data-dir", "", "Directory for reconstructed game data")
	inputPath  = flag.String("input", "", "Game input file or directory to process in batch mode")
	serveMode  = flag.Bool("serve", false, "Start the HTTP API server")
	workers    = flag.Int("workers", 0, "Number of batch workers (0 = number of CPUs)")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

// main processes game inputs in batch mode, serves the reconstruction API,
// or both.
func main() {
	flag.Parse()

	cfg, err := backend.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// Flags override the config file and environment.
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if *inputPath == "" && !*serveMode {
		log.Fatal("Nothing to do: pass -input for batch mode and/or -serve for the API server")
	}

	// Initialize Encryption Key and Storage
	var masterKey crypto.MasterKey
	if passphrase := os.Getenv("REKAP_MASTER_KEY"); passphrase != "" {
		keyFile := filepath.Join(cfg.DataDir, "master.key")
		os.MkdirAll(cfg.DataDir, 0755)

		var err error
		masterKey, err = crypto.ReadMasterKey([]byte(passphrase), keyFile)
		if err != nil {
			if os.IsNotExist(err) {
				log.Println("Initializing new master encryption key...")
				masterKey, err = crypto.CreateMasterKey()
				if err != nil {
					log.Fatalf("Failed to create master key: %v", err)
				}
				if err := masterKey.Save([]byte(passphrase), keyFile); err != nil {
					log.Fatalf("Failed to save master key: %v", err)
				}
			} else {
				log.Fatalf("Failed to read master key: %v", err)
			}
		} else {
			log.Println("Loaded master encryption key.")
		}
	} else {
		keyFile := filepath.Join(cfg.DataDir, "master.key")
		if _, err := os.Stat(keyFile); err == nil {
			log.Fatalf("Critical Security Error: %s exists but REKAP_MASTER_KEY is not set. Refusing to start in unencrypted mode to prevent data corruption or exposure.", keyFile)
		}
		log.Println("Warning: No REKAP_MASTER_KEY provided. Data will be stored UNENCRYPTED.")
	}

	store := storage.New(cfg.DataDir, masterKey)
	store.EnableCompression(true)

	gameStore := backend.NewGameStore(cfg.DataDir, store)
	gameStore.Debug = *debugMode

	hub := backend.NewProgressHub()
	go hub.Run()

	var batchStats *backend.BatchStats

	if *inputPath != "" {
		inputs, err := backend.LoadInputs(*inputPath)
		if err != nil {
			log.Fatalf("Failed to load inputs from %s: %v", *inputPath, err)
		}
		log.Printf("Loaded %d game inputs from %s", len(inputs), *inputPath)

		runner := backend.NewBatchRunner(gameStore, cfg)
		runner.Hub = hub

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = runner.Run(ctx, inputs)
		cancel()
		if err != nil {
			log.Fatalf("Batch run failed: %v", err)
		}
		batchStats = runner.Stats

		if !*serveMode {
			return
		}
	}

	server, err := backend.StartServer(backend.Options{
		Addr:       cfg.Addr,
		DataDir:    cfg.DataDir,
		Debug:      *debugMode,
		GameStore:  gameStore,
		Storage:    store,
		Hub:        hub,
		Stats:      batchStats,
		Config:     cfg,
		AuthSecret: cfg.AuthSecret,
	})
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	} else {
		log.Println("Gracefully stopped.")
	}
}
