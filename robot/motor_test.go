package robot

import (
	"strings"
	"testing"
)

// TestTickFormulaMatchesDriveScenario pins Testable Property 2 and End-to-end
// Scenario 3: a SetSpeed frame with wire speedR=0, speedL=-6 leaves the motor
// at SpeedL = -(-6)/32; after 0.5s of ticks at dt=1/60 with speedScale=1,
// ticks[0] must equal -3.0 within 1e-3.
func TestTickFormulaMatchesDriveScenario(t *testing.T) {
	m := NewMotorData()
	m.SpeedR = 0
	m.SpeedL = -(-6) / 32.0
	m.SpeedScale = 1

	const dt = 1.0 / 60.0
	steps := int(0.5 / dt)
	for i := 0; i < steps; i++ {
		m.Update(dt)
	}

	got := m.Ticks[0]
	want := -3.0
	if abs64(got-want) > 1e-3 {
		t.Fatalf("ticks[0] = %v, want %v within 1e-3", got, want)
	}
	if abs64(m.Ticks[1]) > 1e-9 {
		t.Fatalf("ticks[1] = %v, want 0", m.Ticks[1])
	}
}

func TestSetDistanceRevertsToSetSpeedWhenBothZero(t *testing.T) {
	m := NewMotorData()
	m.Drive = DriveSetDistance
	m.DistanceL = 0
	m.DistanceR = 0
	m.SpeedL = 0
	m.SpeedR = 0

	m.Update(1.0 / 60.0)

	if m.Drive != DriveSetSpeed {
		t.Fatalf("expected drive state to revert to SetSpeed, got %v", m.Drive)
	}
}

func TestMACPostFilterAvoidsLeadingZeroAllDigits(t *testing.T) {
	for i := 0; i < 1000; i++ {
		mac := NewMAC()
		if mac[0]&0b00000001 != 0 {
			t.Fatalf("mac[0] must have the unicast bit cleared, got %08b", mac[0])
		}
		if mac[0]&0b00000010 == 0 {
			t.Fatalf("mac[0] must have the locally-administered bit set, got %08b", mac[0])
		}
		lastFour := MACToHex(mac)[8:]
		if lastFour[0] == '0' && strings.Trim(lastFour, "0123456789") == "" {
			t.Fatalf("last four hex digits %q are all digits with a leading zero", lastFour)
		}
	}
}
