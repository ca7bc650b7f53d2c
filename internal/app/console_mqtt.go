package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/fmu_imu/internal/config"
	"github.com/relabs-tech/fmu_imu/internal/imu"
)

func printRaw(w io.Writer, payload []byte) error {
	var s imu.IMURaw
	if err := json.Unmarshal(payload, &s); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "[RAW ] ax=%6d ay=%6d az=%6d  gx=%6d gy=%6d gz=%6d\n",
		s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz)
	return err
}

func printScaled(w io.Writer, payload []byte) error {
	var s imu.IMUScaled
	if err := json.Unmarshal(payload, &s); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "[SI  ] ax=%7.3f ay=%7.3f az=%7.3f m/s²  gx=%7.4f gy=%7.4f gz=%7.4f rad/s\n",
		s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz)
	return err
}

func printStatus(w io.Writer, payload []byte) error {
	var s IMUStatus
	if err := json.Unmarshal(payload, &s); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "[STAT] stage=%s product=%s rate=%dHz dlpf=%dHz accel=±%.1fm/s² clock_attempts=%d",
		s.Stage, s.Product, s.State.SampleRateHz, s.State.DLPFCutoffHz, s.State.AccelRangeMS2, s.ClockAttempts)
	if err != nil {
		return err
	}
	if s.LastError != "" {
		_, err = fmt.Fprintf(w, " error=%q", s.LastError)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w)
	return err
}

func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	subs := []struct {
		topic string
		print func(io.Writer, []byte) error
	}{
		{cfg.TopicIMURaw, printRaw},
		{cfg.TopicIMUScaled, printScaled},
		{cfg.TopicIMUStatus, printStatus},
	}
	for _, sub := range subs {
		token := client.Subscribe(sub.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if err := sub.print(os.Stdout, msg.Payload()); err != nil {
				log.Printf("console: %s: %v", sub.topic, err)
			}
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", sub.topic)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
