// Package ev3dev drives a brick running ev3dev through its sysfs device
// classes. Filesystem access goes through afero so tests can lay out a fake
// /sys/class tree in memory.
package ev3dev

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/kilianp07/ev3remote/core/robot"
)

const (
	classMotor  = "tacho-motor"
	classSensor = "lego-sensor"
)

// Attributes always exist; every write replaces the value.
const writeFlags = os.O_WRONLY | os.O_TRUNC

// sysfs reads and writes device attributes below root.
type sysfs struct {
	fs   afero.Fs
	root string
}

// find returns the directory of the device in class plugged into address.
// An empty driver matches any driver.
func (s sysfs) find(class, address, driver string) (string, error) {
	dir := path.Join(s.root, class)
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", dir, err)
	}
	for _, e := range entries {
		dev := path.Join(dir, e.Name())
		addr, err := s.read(dev, "address")
		if err != nil || addr != address {
			continue
		}
		if driver != "" {
			name, err := s.read(dev, "driver_name")
			if err != nil || name != driver {
				return "", fmt.Errorf("%w: %s has %s, want %s", robot.ErrDeviceNotFound, address, name, driver)
			}
		}
		return dev, nil
	}
	return "", fmt.Errorf("%w: no %s on %s", robot.ErrDeviceNotFound, class, address)
}

func (s sysfs) read(dev, attr string) (string, error) {
	b, err := afero.ReadFile(s.fs, path.Join(dev, attr))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (s sysfs) readInt(dev, attr string) (int, error) {
	v, err := s.read(dev, attr)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s/%s: %w", dev, attr, err)
	}
	return n, nil
}

func (s sysfs) write(dev, attr, value string) error {
	f, err := s.fs.OpenFile(path.Join(dev, attr), writeFlags, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(value); err != nil {
		f.Close()
		return fmt.Errorf("write %s=%s: %w", attr, value, err)
	}
	return f.Close()
}

func motorAddress(port string) string { return "ev3-ports:out" + port }

func sensorAddress(port int) string { return "ev3-ports:in" + strconv.Itoa(port) }
