package config

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// CustomHooks are the decode hooks applied when unmarshalling configuration.
// Composed into a single hook since viper replaces rather than appends the
// default DecodeHook for each DecoderConfigOption provided.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		NanosToTimeDurationHookFunc(),
	)),
}

// NanosToTimeDurationHookFunc decodes integral config values into time.Duration,
// interpreting them as nanosecond counts. Lets resolution-style settings be given
// either as a duration string ("1ms") or as raw nanos (1000000).
func NanosToTimeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch f.Kind() {
		case reflect.Int, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()), nil
		case reflect.Uint, reflect.Uint32, reflect.Uint64:
			return time.Duration(reflect.ValueOf(data).Uint()), nil
		default:
			return data, nil
		}
	}
}
