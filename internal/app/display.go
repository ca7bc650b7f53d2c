package app

import (
	"fmt"
	"image"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/fmu_imu/internal/config"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13 // basicfont.Face7x13
)

func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized showing %s", cfg.DisplayContent)

	if err := drawLines(dev, []string{"", "  FMU IMU", "  MPU6000"}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	cache := &imuCache{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	if err := subscribeCache(client, cfg, cache); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		if err := drawLines(dev, displayLines(cfg.DisplayContent, cache)); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

// displayLines formats the cached data for one screen.
func displayLines(content string, c *imuCache) []string {
	switch content {
	case "imu_raw", "imu_scaled":
		s, ok := c.sample()
		if !ok {
			return []string{"", "IMU", "Waiting..."}
		}
		if content == "imu_raw" {
			return []string{
				fmt.Sprintf("A:%6d %6d", s.Raw.Ax, s.Raw.Ay),
				fmt.Sprintf("  %6d", s.Raw.Az),
				fmt.Sprintf("G:%6d %6d", s.Raw.Gx, s.Raw.Gy),
				fmt.Sprintf("  %6d", s.Raw.Gz),
			}
		}
		return []string{
			fmt.Sprintf("A:%6.2f %6.2f", s.Scaled.Ax, s.Scaled.Ay),
			fmt.Sprintf("  %6.2f m/s2", s.Scaled.Az),
			fmt.Sprintf("G:%6.3f %6.3f", s.Scaled.Gx, s.Scaled.Gy),
			fmt.Sprintf("  %6.3f rad/s", s.Scaled.Gz),
		}

	case "status":
		st, ok := c.lastStatus()
		if !ok {
			return []string{"", "IMU status", "Waiting..."}
		}
		lines := []string{
			st.Stage,
			fmt.Sprintf("ID %s clk %d", st.Product, st.ClockAttempts),
			fmt.Sprintf("%dHz LPF %dHz", st.State.SampleRateHz, st.State.DLPFCutoffHz),
			fmt.Sprintf("+-%.0f m/s2", st.State.AccelRangeMS2),
		}
		if st.LastError != "" {
			lines[3] = truncate("ERR "+st.LastError, displayWidth/7)
		}
		return lines
	}
	return []string{"unknown content", content}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// renderLines draws up to four lines of text on a blank frame.
func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		if (i+1)*lineHeight > displayHeight {
			break
		}
		drawer.Dot = fixed.P(0, (i+1)*lineHeight)
		drawer.DrawString(line)
	}
	return img
}

func drawLines(dev *ssd1306.Dev, lines []string) error {
	return dev.Draw(dev.Bounds(), renderLines(lines), image.Point{})
}
