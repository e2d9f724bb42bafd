// Package factory builds implementations selected by name from
// configuration. A module is configured with a type string and a map of raw
// settings; each registered factory decodes the settings it understands into
// a typed struct.
//
//	reg := factory.NewRegistry[robot.Platform]()
//	_ = reg.Register("sim", func(conf map[string]any) (robot.Platform, error) {
//	    var c sim.Config
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return sim.New(c), nil
//	})
//	p, err := reg.Create(factory.ModuleConfig{Type: "sim"})
package factory
