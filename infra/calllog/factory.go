package calllog

import (
	"github.com/kilianp07/ev3remote/core/calllog"
	"github.com/kilianp07/ev3remote/core/factory"
)

func init() {
	_ = calllog.RegisterStore("jsonl", func(conf map[string]any) (calllog.Store, error) {
		var c JSONLConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRotatingJSONLStore(c)
	})
	_ = calllog.RegisterStore("sqlite", func(conf map[string]any) (calllog.Store, error) {
		var c SQLiteConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}
