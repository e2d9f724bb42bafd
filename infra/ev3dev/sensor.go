package ev3dev

const (
	driverTouch = "lego-ev3-touch"
	driverColor = "lego-ev3-color"
	driverIR    = "lego-ev3-ir"
)

// sensor reads value0 after switching to its mode once.
type sensor struct {
	sys sysfs
	dir string
}

func openSensor(sys sysfs, address, driver, mode string) (*sensor, error) {
	dir, err := sys.find(classSensor, address, driver)
	if err != nil {
		return nil, err
	}
	if err := sys.write(dir, "mode", mode); err != nil {
		return nil, err
	}
	return &sensor{sys: sys, dir: dir}, nil
}

func (s *sensor) value() (int, error) { return s.sys.readInt(s.dir, "value0") }

type touchSensor struct{ *sensor }

func (t touchSensor) IsPressed() (bool, error) {
	v, err := t.value()
	return v == 1, err
}

type colorSensor struct{ *sensor }

func (c colorSensor) ReflectedLightIntensity() (int, error) { return c.value() }

type proximitySensor struct{ *sensor }

func (p proximitySensor) Distance() (int, error) { return p.value() }
