// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/relabs-tech/fmu_imu/internal/config"
	"github.com/relabs-tech/fmu_imu/internal/sensors"
)

// RegisterDebugPage is the browser front end, relative to the working
// directory.
const RegisterDebugPage = "web/register_debug.html"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// RegisterDebugServer serves the register debug websocket and the live
// IMU REST endpoint.
type RegisterDebugServer struct {
	mgr     *sensors.IMUManager
	allowed config.RegisterRanges
}

// NewRegisterDebugServer returns a server for mgr. Plain and checked writes
// are refused outside allowed.
func NewRegisterDebugServer(mgr *sensors.IMUManager, allowed config.RegisterRanges) *RegisterDebugServer {
	return &RegisterDebugServer{mgr: mgr, allowed: allowed}
}

// RegisterDebugSession holds WebSocket connection state for register debugging
type RegisterDebugSession struct {
	Conn *websocket.Conn
	srv  *RegisterDebugServer
}

// RegisterCmd is any request sent by the register debug page.
type RegisterCmd struct {
	Action       string `json:"action"` // see HandleWS for the list
	Address      string `json:"addr,omitempty"`
	Value        string `json:"value,omitempty"`
	SampleRateHz uint   `json:"sample_rate_hz,omitempty"`
	DLPFHz       uint   `json:"dlpf_hz,omitempty"`
	AccelMaxG    uint   `json:"accel_max_g,omitempty"`
}

// Response types
type RegisterResponse struct {
	Type        string                 `json:"type"` // "register_data", "register_map", "status", "error"
	Address     string                 `json:"addr,omitempty"`
	Value       string                 `json:"value,omitempty"`
	Registers   map[string]string      `json:"registers,omitempty"` // for bulk read
	Timestamp   string                 `json:"timestamp,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Status      *IMUStatus             `json:"status,omitempty"`
	RegisterMap []sensors.RegisterInfo `json:"register_map,omitempty"`
}

// RegisterConfigFile represents the JSON structure for exported register configuration
type RegisterConfigFile struct {
	Version   int               `json:"version"`
	Device    string            `json:"device"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"` // hex address -> hex value
}

// HandleWS handles the WebSocket connection for register debugging.
// Actions: get_map, read, read_all, write, write_checked, init, status,
// configure, export_config.
func (srv *RegisterDebugServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("register_debug: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := &RegisterDebugSession{Conn: conn, srv: srv}

	// Send register map on connection
	if err := session.sendRegisterMap(); err != nil {
		log.Printf("register_debug: error sending register map: %v", err)
		return
	}

	// Message loop
	for {
		var cmd RegisterCmd
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("register_debug: websocket error: %v", err)
			}
			break
		}

		switch cmd.Action {
		case "get_map":
			session.sendRegisterMap()
		case "read":
			session.handleRead(cmd)
		case "read_all":
			session.handleReadAll()
		case "write":
			session.handleWrite(cmd, false)
		case "write_checked":
			session.handleWrite(cmd, true)
		case "init":
			session.handleInit()
		case "status":
			session.sendStatus("")
		case "configure":
			session.handleConfigure(cmd)
		case "export_config":
			session.handleExportConfig()
		case "":
			session.sendError("missing or invalid action field")
		default:
			session.sendError(fmt.Sprintf("unknown action: %s", cmd.Action))
		}
	}
}

// parseByte accepts "0x1B", "27" or "0b11011".
func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

func (s *RegisterDebugSession) handleRead(cmd RegisterCmd) {
	if cmd.Address == "" {
		s.sendError("missing addr field")
		return
	}
	addr, err := parseByte(cmd.Address)
	if err != nil {
		s.sendError(fmt.Sprintf("invalid address format: %s", cmd.Address))
		return
	}

	value, err := s.srv.mgr.ReadRegister(addr)
	if err != nil {
		s.sendError(fmt.Sprintf("read error: %v", err))
		return
	}

	s.Conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Address:   fmt.Sprintf("0x%02X", addr),
		Value:     fmt.Sprintf("0x%02X", value),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func hexRegisters(registers map[byte]byte) map[string]string {
	regMap := make(map[string]string, len(registers))
	for addr, value := range registers {
		regMap[fmt.Sprintf("0x%02X", addr)] = fmt.Sprintf("0x%02X", value)
	}
	return regMap
}

func (s *RegisterDebugSession) handleReadAll() {
	registers, err := s.srv.mgr.ReadAllRegisters()
	if err != nil {
		s.sendError(fmt.Sprintf("read all error: %v", err))
		return
	}

	s.Conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Registers: hexRegisters(registers),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (s *RegisterDebugSession) handleWrite(cmd RegisterCmd, checked bool) {
	if cmd.Address == "" || cmd.Value == "" {
		s.sendError("missing addr or value field")
		return
	}

	addr, err := parseByte(cmd.Address)
	if err != nil {
		s.sendError(fmt.Sprintf("invalid address format: %s", cmd.Address))
		return
	}
	value, err := parseByte(cmd.Value)
	if err != nil {
		s.sendError(fmt.Sprintf("invalid value format: %s", cmd.Value))
		return
	}

	if !s.srv.allowed.Contains(addr) {
		s.sendError(fmt.Sprintf("register 0x%02X not in allowed write ranges", addr))
		return
	}

	msg := "write successful"
	if checked {
		err = s.srv.mgr.WriteCheckedRegister(addr, value)
		msg = "write verified"
	} else {
		err = s.srv.mgr.WriteRegister(addr, value)
	}
	if err != nil {
		s.sendError(fmt.Sprintf("write error: %v", err))
		return
	}
	if !s.srv.mgr.IsAvailable() {
		msg += ", run init to resume sampling"
	}

	s.Conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Address:   fmt.Sprintf("0x%02X", addr),
		Value:     fmt.Sprintf("0x%02X", value),
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   msg,
	})
}

func (s *RegisterDebugSession) handleInit() {
	err := s.srv.mgr.Reinitialize()
	if errors.Is(err, sensors.ErrIMUNotOpen) {
		err = s.srv.mgr.Init()
	}
	if err != nil {
		s.sendError(fmt.Sprintf("reinit error: %v", err))
		return
	}
	s.sendStatus("IMU reinitialized successfully")
}

func (s *RegisterDebugSession) handleConfigure(cmd RegisterCmd) {
	if _, err := s.srv.mgr.Configure(cmd.SampleRateHz, cmd.DLPFHz, cmd.AccelMaxG); err != nil {
		s.sendError(fmt.Sprintf("configure error: %v", err))
		return
	}
	s.sendStatus("configuration applied")
}

func (s *RegisterDebugSession) sendStatus(message string) {
	st := newIMUStatus(s.srv.mgr, time.Now(), nil)
	s.Conn.WriteJSON(RegisterResponse{
		Type:    "status",
		Status:  &st,
		Message: message,
	})
}

func (s *RegisterDebugSession) handleExportConfig() {
	registers, err := s.srv.mgr.ExportRegisterConfig()
	if err != nil {
		s.sendError(fmt.Sprintf("export error: %v", err))
		return
	}

	now := time.Now()
	configFile := RegisterConfigFile{
		Version:   1,
		Device:    "mpu6000",
		Timestamp: now.Format(time.RFC3339),
		Registers: hexRegisters(registers),
	}

	// Send as download
	configJSON, _ := json.Marshal(configFile)
	rawResp := map[string]interface{}{
		"type":     "export_config",
		"message":  "config exported",
		"config":   string(configJSON),
		"filename": fmt.Sprintf("mpu6000_%s_registers.json", now.Format("20060102_150405")),
	}
	s.Conn.WriteJSON(rawResp)
}

func (s *RegisterDebugSession) sendRegisterMap() error {
	return s.Conn.WriteJSON(RegisterResponse{
		Type:        "register_map",
		RegisterMap: s.srv.mgr.GetRegisterMap(),
	})
}

func (s *RegisterDebugSession) sendError(message string) {
	s.Conn.WriteJSON(RegisterResponse{
		Type:    "error",
		Message: message,
	})
}

// HandleIMUData serves one live IMU sample via REST API.
func (srv *RegisterDebugServer) HandleIMUData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sample, err := srv.mgr.ReadSample()
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	json.NewEncoder(w).Encode(sample)
}

