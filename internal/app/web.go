package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/fmu_imu/internal/config"
	"github.com/relabs-tech/fmu_imu/internal/imu"
)

// imuCache keeps the latest messages seen on the IMU topics.
type imuCache struct {
	mu sync.RWMutex

	raw        imu.IMURaw
	scaled     imu.IMUScaled
	sampleTime time.Time
	haveSample bool

	status     IMUStatus
	haveStatus bool
}

func (c *imuCache) onRaw(payload []byte) error {
	var v struct {
		Time time.Time `json:"time"`
		imu.IMURaw
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return err
	}
	c.mu.Lock()
	c.raw = v.IMURaw
	c.sampleTime = v.Time
	c.haveSample = true
	c.mu.Unlock()
	return nil
}

func (c *imuCache) onScaled(payload []byte) error {
	var v struct {
		Time time.Time `json:"time"`
		imu.IMUScaled
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return err
	}
	c.mu.Lock()
	c.scaled = v.IMUScaled
	c.sampleTime = v.Time
	c.haveSample = true
	c.mu.Unlock()
	return nil
}

func (c *imuCache) onStatus(payload []byte) error {
	var s IMUStatus
	if err := json.Unmarshal(payload, &s); err != nil {
		return err
	}
	c.mu.Lock()
	c.status = s
	c.haveStatus = true
	c.mu.Unlock()
	return nil
}

func (c *imuCache) sample() (imu.Sample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return imu.Sample{Time: c.sampleTime, Raw: c.raw, Scaled: c.scaled}, c.haveSample
}

func (c *imuCache) lastStatus() (IMUStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status, c.haveStatus
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func (c *imuCache) handleSample(w http.ResponseWriter, r *http.Request) {
	s, ok := c.sample()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s)
}

func (c *imuCache) handleStatus(w http.ResponseWriter, r *http.Request) {
	s, ok := c.lastStatus()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s)
}

func subscribeCache(client mqtt.Client, cfg *config.Config, c *imuCache) error {
	subs := []struct {
		topic  string
		handle func([]byte) error
	}{
		{cfg.TopicIMURaw, c.onRaw},
		{cfg.TopicIMUScaled, c.onScaled},
		{cfg.TopicIMUStatus, c.onStatus},
	}
	for _, sub := range subs {
		token := client.Subscribe(sub.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if err := sub.handle(msg.Payload()); err != nil {
				log.Printf("MQTT payload unmarshal error (%s): %v", sub.topic, err)
			}
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("subscribed to MQTT topic %s", sub.topic)
	}
	return nil
}

func RunWeb() error {
	cfg := config.Get()
	cache := &imuCache{}

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Keep the latest sample and status
	if err := subscribeCache(client, cfg, cache); err != nil {
		return err
	}

	// 3) JSON API endpoints
	http.HandleFunc("/api/imu", cache.handleSample)
	http.HandleFunc("/api/imu/status", cache.handleStatus)

	// 4) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
