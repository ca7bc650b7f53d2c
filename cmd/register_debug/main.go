// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/relabs-tech/fmu_imu/internal/app"
	"github.com/relabs-tech/fmu_imu/internal/config"
	"github.com/relabs-tech/fmu_imu/internal/sensors"
)

func main() {
	configPath := flag.String("config", "./fmu_imu_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting MPU6000 register debug tool (standalone)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	allowed, err := config.ParseRegisterRanges(cfg.RegisterDebugAllowedRanges)
	if err != nil {
		log.Fatalf("invalid REGISTER_DEBUG_ALLOWED_RANGES: %v", err)
	}
	if len(allowed) == 0 {
		log.Println("Note: REGISTER_DEBUG_ALLOWED_RANGES is empty, register writes are disabled")
	}

	log.Println("Initializing IMU manager...")
	imuManager := sensors.GetIMUManager()
	if err := imuManager.Init(); err != nil {
		log.Printf("Warning: IMU initialization had issues: %v", err)
		log.Println("Continuing anyway - use the init action to retry")
	}
	defer imuManager.Close()

	if imuManager.IsAvailable() {
		log.Println("IMU available")
	} else {
		log.Println("Warning: IMU not available")
	}

	srv := app.NewRegisterDebugServer(imuManager, allowed)
	http.HandleFunc("/ws", srv.HandleWS)

	// API endpoint for live IMU data
	http.HandleFunc("/api/imu", srv.HandleIMUData)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, app.RegisterDebugPage)
	})

	addr := fmt.Sprintf(":%d", cfg.RegisterDebugPort)
	log.Printf("Register debug tool listening on %s", addr)
	log.Printf("Open http://localhost%s in your browser", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
