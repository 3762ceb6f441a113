package remap

import (
	"fmt"

	"github.com/spf13/viper"
)

var optionKeys = []string{
	KeyPrecision,
	KeyMedianPlane,
	KeyBoundingBoxAdjustment,
	KeyBoundingBoxAdjustmentAbs,
	KeyIntersectionType,
	KeySplittingPolicy,
	KeyIntersectionPolicy,
	KeyMinMeasure,
	KeyWorkers,
	KeyMaxDistance3DSurf,
}

// ReadOptions loads options from a configuration file. The format follows the
// file extension (yaml, toml, json, ...). Keys are matched case insensitively,
// keys that are absent keep their default and unknown keys are ignored.
func ReadOptions(path string) (Options, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Options{}, fmt.Errorf("remap: read options: %w", err)
	}
	return OptionsFromViper(v)
}

// OptionsFromViper applies the option keys set in v over DefaultOptions.
func OptionsFromViper(v *viper.Viper) (Options, error) {
	o := DefaultOptions()
	for _, key := range optionKeys {
		if !v.IsSet(key) {
			continue
		}
		if err := o.SetOption(key, v.Get(key)); err != nil {
			return Options{}, err
		}
	}
	return o, nil
}
