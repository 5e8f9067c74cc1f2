package browser

import (
	"fmt"
	"os/exec"
	"time"
)

// xvfbBoot is how long Xvfb gets to bring the display up before Chrome
// attaches to it.
const xvfbBoot = 500 * time.Millisecond

// startXvfb brings up the virtual display that headful stealth mode
// renders into. Headful Chrome refuses to start without a display, and
// capture hosts are headless machines.
func (m *Manager) startXvfb() error {
	if m.xvfb != nil {
		return nil
	}

	cmd := exec.Command("Xvfb", m.cfg.XvfbDisplay,
		"-screen", "0", "1920x1080x24", "-ac", "-nolisten", "tcp")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start xvfb: %w", err)
	}
	m.xvfb = cmd
	time.Sleep(xvfbBoot)

	m.cfg.Logger.Info("browser: xvfb up",
		"display", m.cfg.XvfbDisplay, "pid", cmd.Process.Pid)
	return nil
}

// stopXvfb tears the display down with the browser.
func (m *Manager) stopXvfb() {
	if m.xvfb == nil {
		return
	}
	if m.xvfb.Process != nil {
		m.xvfb.Process.Kill()
		m.xvfb.Wait()
	}
	m.xvfb = nil
	m.cfg.Logger.Info("browser: xvfb stopped")
}
