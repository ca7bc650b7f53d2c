package app

import (
	"strings"
	"testing"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func TestDisplayLines(t *testing.T) {
	c := &imuCache{}
	for _, content := range []string{"imu_raw", "imu_scaled", "status"} {
		lines := displayLines(content, c)
		if lines[len(lines)-1] != "Waiting..." {
			t.Errorf("%s without data = %q", content, lines)
		}
	}

	c.onRaw([]byte(`{"ax":100,"ay":-200,"az":4096,"gx":1,"gy":2,"gz":3}`))
	c.onScaled([]byte(`{"ax":0.1,"ay":-0.2,"az":9.81,"gx":0.001,"gy":0.002,"gz":0.003}`))
	c.onStatus([]byte(`{"stage":"Faulted","product":"0x14","clock_attempts":5,"last_error":"mpu6000: clock source select timeout"}`))

	if got := displayLines("imu_raw", c); got[0] != "A:   100   -200" || got[1] != "    4096" {
		t.Errorf("imu_raw = %q", got)
	}
	if got := displayLines("imu_scaled", c); got[1] != "    9.81 m/s2" {
		t.Errorf("imu_scaled = %q", got)
	}
	got := displayLines("status", c)
	if got[0] != "Faulted" || got[1] != "ID 0x14 clk 5" || !strings.HasPrefix(got[3], "ERR mpu6000") || len(got[3]) > 18 {
		t.Errorf("status = %q", got)
	}
	if got := displayLines("gps", c); got[0] != "unknown content" {
		t.Errorf("unknown = %q", got)
	}
}

func countOn(img *image1bit.VerticalLSB) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.BitAt(x, y) {
				n++
			}
		}
	}
	return n
}

func TestRenderLines(t *testing.T) {
	if n := countOn(renderLines(nil)); n != 0 {
		t.Errorf("blank frame has %d pixels on", n)
	}
	one := countOn(renderLines([]string{"IMU"}))
	if one == 0 {
		t.Error("text not drawn")
	}
	// Lines that do not fit are dropped rather than drawn off screen.
	many := renderLines([]string{"1", "2", "3", "4", "5", "6"})
	if many.Bounds().Dx() != displayWidth || many.Bounds().Dy() != displayHeight {
		t.Errorf("bounds = %v", many.Bounds())
	}
}
