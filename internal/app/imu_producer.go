package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/fmu_imu/internal/config"
	"github.com/relabs-tech/fmu_imu/internal/imu"
	"github.com/relabs-tech/fmu_imu/internal/mpu6000"
	"github.com/relabs-tech/fmu_imu/internal/sensors"
)

// IMUStatus is the document published on the status topic.
type IMUStatus struct {
	Time          time.Time           `json:"time"`
	Available     bool                `json:"available"`
	Stage         string              `json:"stage"`
	Product       string              `json:"product,omitempty"`
	IdentityError string              `json:"identity_error,omitempty"`
	ClockAttempts int                 `json:"clock_attempts"`
	State         mpu6000.DriverState `json:"state"`
	LastError     string              `json:"last_error,omitempty"`
}

// publisher is the part of mqtt.Client the producer needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

func newIMUStatus(mgr *sensors.IMUManager, t time.Time, lastErr error) IMUStatus {
	s := IMUStatus{Time: t, Available: mgr.IsAvailable()}
	if lastErr != nil {
		s.LastError = lastErr.Error()
	}
	st, err := mgr.Status()
	if err != nil {
		s.Stage = "closed"
		if s.LastError == "" {
			s.LastError = err.Error()
		}
		return s
	}
	s.Stage = st.StageName
	s.Product = st.Product.String()
	if st.IdentityErr != nil {
		s.IdentityError = st.IdentityErr.Error()
	}
	s.ClockAttempts = st.ClockAttempts
	s.State = st.State
	return s
}

func publishJSON(client publisher, topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal (%s): %w", topic, err)
	}
	if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish (%s): %w", topic, token.Error())
	}
	return nil
}

func publishSample(client publisher, cfg *config.Config, s imu.Sample) error {
	if err := publishJSON(client, cfg.TopicIMURaw, struct {
		Time time.Time `json:"time"`
		imu.IMURaw
	}{s.Time, s.Raw}); err != nil {
		return err
	}
	return publishJSON(client, cfg.TopicIMUScaled, struct {
		Time time.Time `json:"time"`
		imu.IMUScaled
	}{s.Time, s.Scaled})
}

func serveMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	log.Printf("metrics: listening on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("metrics: server stopped: %v", err)
	}
}

// RunIMUProducer samples the IMU every IMU_SAMPLE_INTERVAL and publishes
// raw and scaled samples, plus a status document every
// CONSOLE_LOG_INTERVAL. A faulted device is reinitialized on the status
// tick.
func RunIMUProducer() error {
	log.Println("starting fmu-imu producer")

	cfg := config.Get()

	sensors.MustRegisterMetrics()
	if cfg.MetricsPort > 0 {
		go serveMetrics(cfg.MetricsPort)
	}

	imuManager := sensors.GetIMUManager()
	if err := imuManager.Init(); err != nil {
		log.Printf("WARNING: IMU initialization failed, will retry: %v", err)
	}
	defer imuManager.Close()

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting publish loop")

	sampleTicker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer sampleTicker.Stop()
	statusTicker := time.NewTicker(time.Duration(cfg.ConsoleLogInterval) * time.Millisecond)
	defer statusTicker.Stop()

	var (
		last    imu.Sample
		lastErr error
		count   int
	)
	for {
		select {
		case <-sampleTicker.C:
			if !imuManager.IsAvailable() {
				continue
			}
			s, err := imuManager.ReadSample()
			if err != nil {
				lastErr = err
				continue
			}
			last, lastErr = s, nil
			count++
			if err := publishSample(client, cfg, s); err != nil {
				log.Printf("%v", err)
			}

		case t := <-statusTicker.C:
			if !imuManager.IsAvailable() {
				err := imuManager.Reinitialize()
				if errors.Is(err, sensors.ErrIMUNotOpen) {
					err = imuManager.Init()
				}
				if err != nil {
					lastErr = err
				}
			}
			if err := publishJSON(client, cfg.TopicIMUStatus, newIMUStatus(imuManager, t, lastErr)); err != nil {
				log.Printf("%v", err)
			}
			if lastErr != nil {
				log.Printf("%s IMU: %d samples, last error: %v", t.Format(time.RFC3339), count, lastErr)
			} else {
				log.Printf("%s IMU: %d samples | accel ax=%.2f ay=%.2f az=%.2f m/s² | gyro gx=%.3f gy=%.3f gz=%.3f rad/s",
					t.Format(time.RFC3339), count,
					last.Scaled.Ax, last.Scaled.Ay, last.Scaled.Az,
					last.Scaled.Gx, last.Scaled.Gy, last.Scaled.Gz)
			}
			count = 0
		}
	}
}
