package drive

import (
	"fmt"
	"time"

	"github.com/kilianp07/ev3remote/core/robot"
)

// Beep starts the default beep without waiting for it to finish.
func (d *DriveSystem) Beep() error {
	b, err := d.robot.Beeper()
	if err != nil {
		return err
	}
	pb, err := b.Beep()
	if err != nil {
		return fmt.Errorf("beep: %w", err)
	}
	d.reap(pb, "beep")
	return nil
}

// Tone starts a tone without waiting for it to finish.
func (d *DriveSystem) Tone(frequency float64, duration time.Duration) error {
	t, err := d.robot.ToneMaker()
	if err != nil {
		return err
	}
	pb, err := t.Tone(frequency, duration)
	if err != nil {
		return fmt.Errorf("tone %.0fHz: %w", frequency, err)
	}
	d.reap(pb, fmt.Sprintf("tone %.0fHz", frequency))
	return nil
}

// reap waits for pb in the background so the player process is released.
func (d *DriveSystem) reap(pb robot.Playback, what string) {
	go func() {
		if err := pb.Wait(); err != nil {
			d.log.Warnf("%s: %v", what, err)
		}
	}()
}
